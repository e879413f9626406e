package service

import (
	"context"
	"sync"
	"time"

	apprepository "github.com/codetag-io/codetag/internal/app/repository"
	"github.com/bits-and-blooms/bloom/v3"
	"go.uber.org/zap"
)

const (
	filterCapacity      = 1_000_000
	filterFalsePositive = 0.001
)

// ShortCodeFilter keeps a bloom filter of every issued short code, so the
// public redirect endpoint can answer "definitely unknown" without touching
// Postgres. False positives fall through to the repository lookup.
type ShortCodeFilter struct {
	mu     sync.RWMutex
	filter *bloom.BloomFilter
}

// NewShortCodeFilter creates an empty filter.
func NewShortCodeFilter() *ShortCodeFilter {
	return &ShortCodeFilter{
		filter: bloom.NewWithEstimates(filterCapacity, filterFalsePositive),
	}
}

// Add records a newly issued short code.
func (f *ShortCodeFilter) Add(code string) {
	f.mu.Lock()
	f.filter.AddString(code)
	f.mu.Unlock()
}

// MayExist reports whether the code could have been issued. A false result
// is definitive.
func (f *ShortCodeFilter) MayExist(code string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.filter.TestString(code)
}

// Seed replaces the filter contents with the given codes.
func (f *ShortCodeFilter) Seed(codes []string) {
	fresh := bloom.NewWithEstimates(filterCapacity, filterFalsePositive)
	for _, code := range codes {
		fresh.AddString(code)
	}
	f.mu.Lock()
	f.filter = fresh
	f.mu.Unlock()
}

// FilterRefresher periodically rebuilds the short-code filter from Postgres.
// Deleted codes are forgotten on rebuild, and codes created by other
// instances become visible.
type FilterRefresher struct {
	logger   *zap.Logger
	codes    apprepository.QRCodeRepository
	filter   *ShortCodeFilter
	interval time.Duration
	stopChan chan struct{}
}

// NewFilterRefresher creates a refresher with the given rebuild interval.
func NewFilterRefresher(logger *zap.Logger, codes apprepository.QRCodeRepository, filter *ShortCodeFilter, interval time.Duration) *FilterRefresher {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &FilterRefresher{
		logger:   logger,
		codes:    codes,
		filter:   filter,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start begins the periodic rebuild.
func (r *FilterRefresher) Start() {
	go r.run()
}

// Stop stops the periodic rebuild.
func (r *FilterRefresher) Stop() {
	close(r.stopChan)
}

func (r *FilterRefresher) run() {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.rebuild()
		case <-r.stopChan:
			r.logger.Info("short code filter refresher stopped")
			return
		}
	}
}

func (r *FilterRefresher) rebuild() {
	ctx := context.Background()
	codes, err := r.codes.AllShortCodes(ctx)
	if err != nil {
		r.logger.Error("failed to reload short codes for filter", zap.Error(err))
		return
	}
	r.filter.Seed(codes)
	r.logger.Debug("short code filter rebuilt", zap.Int("codes", len(codes)))
}

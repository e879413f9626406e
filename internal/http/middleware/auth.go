package middleware

import (
	"context"
	"errors"

	"github.com/codetag-io/codetag/internal/app/model"
	"github.com/codetag-io/codetag/internal/app/repository"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AccountIDHeader carries the authenticated account id, set by the auth
// proxy in front of this service. Identity verification itself lives there;
// this middleware only resolves the profile.
const AccountIDHeader = "X-Account-ID"

const accountLocalKey = "account"

// RequireAccount resolves the request's account from the trusted header and
// loads the profile fresh from the store on every request. No session state
// is cached in-process.
func RequireAccount(accounts repository.AccountRepository, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Get(AccountIDHeader)
		if raw == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "authentication required",
			})
		}
		if _, err := uuid.Parse(raw); err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid account id",
			})
		}

		ctx := c.UserContext()
		if ctx == nil {
			ctx = context.Background()
		}

		account, err := accounts.GetByID(ctx, raw)
		if err != nil {
			if errors.Is(err, repository.ErrAccountNotFound) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "unknown account",
				})
			}
			logger.Error("failed to load account", zap.Error(err), zap.String("account_id", raw))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "internal server error",
			})
		}

		c.Locals(accountLocalKey, account)
		return c.Next()
	}
}

// AccountFromCtx returns the account resolved by RequireAccount, or nil on
// routes that skip it.
func AccountFromCtx(c *fiber.Ctx) *model.Account {
	account, _ := c.Locals(accountLocalKey).(*model.Account)
	return account
}

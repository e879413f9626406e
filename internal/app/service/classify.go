package service

import "strings"

// ClientInfo is the coarse device classification stored with each scan.
type ClientInfo struct {
	DeviceType string
	Browser    string
	OS         string
}

// ClassifyUserAgent buckets a raw user-agent string with ordered substring
// checks, first match wins. The buckets are deliberately coarse; this feeds
// dashboard charts, not fingerprinting.
func ClassifyUserAgent(ua string) ClientInfo {
	info := ClientInfo{DeviceType: "desktop", Browser: "Other", OS: "Other"}

	for _, marker := range []string{"Mobile", "Android", "iPhone", "iPad"} {
		if strings.Contains(ua, marker) {
			info.DeviceType = "mobile"
			break
		}
	}

	switch {
	case strings.Contains(ua, "Chrome"):
		info.Browser = "Chrome"
	case strings.Contains(ua, "Firefox"):
		info.Browser = "Firefox"
	case strings.Contains(ua, "Safari"):
		info.Browser = "Safari"
	}

	switch {
	case strings.Contains(ua, "Windows"):
		info.OS = "Windows"
	case strings.Contains(ua, "Mac"):
		info.OS = "macOS"
	case strings.Contains(ua, "Linux"):
		info.OS = "Linux"
	case strings.Contains(ua, "Android"):
		info.OS = "Android"
	case strings.Contains(ua, "iOS"):
		info.OS = "iOS"
	}

	return info
}

// Package device turns User-Agent headers into the short descriptions kept
// in reviewer sign-in audit entries.
package device

import (
	"strings"

	"github.com/mssola/useragent"
)

const unknownDevice = "Unknown Device"

// Info is the parsed form of a User-Agent header.
type Info struct {
	Browser string
	OS      string
	Mobile  bool
	Bot     bool
}

func Parse(userAgent string) Info {
	userAgent = strings.TrimSpace(userAgent)
	if userAgent == "" {
		return Info{}
	}
	ua := useragent.New(userAgent)
	browser, _ := ua.Browser()
	return Info{
		Browser: strings.TrimSpace(browser),
		OS:      strings.TrimSpace(ua.OS()),
		Mobile:  ua.Mobile(),
		Bot:     ua.Bot(),
	}
}

// ParseUserAgent returns "<browser> on <os>" or "Unknown Device".
func ParseUserAgent(userAgent string) string {
	if strings.TrimSpace(userAgent) == "" {
		return unknownDevice
	}
	info := Parse(userAgent)
	browser, os := info.Browser, info.OS
	if browser == "" {
		browser = "Unknown Browser"
	}
	if os == "" {
		os = "Unknown OS"
	}
	return browser + " on " + os
}

// AuditDetails is the map recorded with a sign-in.
func AuditDetails(userAgent string) map[string]any {
	info := Parse(userAgent)
	return map[string]any{
		"device": ParseUserAgent(userAgent),
		"mobile": info.Mobile,
		"bot":    info.Bot,
	}
}

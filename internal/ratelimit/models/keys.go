package models

import "strings"

// KeyPrefix namespaces rate limit buckets in shared stores.
const KeyPrefix = "rl"

// SanitizeKeySegment escapes delimiter characters in rate limit key segments
// so a client-supplied value containing ':' cannot address another bucket.
// IPv6 addresses are the common case: "::1" becomes "__1".
func SanitizeKeySegment(s string) string {
	return strings.ReplaceAll(s, ":", "_")
}

// NewIPRateLimitKey returns the bucket key for a client IP within a class.
func NewIPRateLimitKey(class EndpointClass, ip string) string {
	if ip == "" {
		ip = "unknown"
	}
	return KeyPrefix + ":" + string(class) + ":" + SanitizeKeySegment(ip)
}

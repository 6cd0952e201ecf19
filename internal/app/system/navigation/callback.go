// Package navigation resolves post-login destinations. Login and OAuth
// callbacks accept a callbackUrl parameter naming where the user was headed;
// SafeCallback keeps that redirect on our own origin.
package navigation

import (
	"net/url"
	"strings"
)

// SafeCallback resolves a requested callback URL against the application's
// base URL so authentication flows never redirect off-origin:
//
//   - relative paths are resolved under baseURL
//   - absolute URLs on the same origin pass through unchanged
//   - anything else (cross-origin, unparseable) falls back to baseURL
func SafeCallback(callback, baseURL string) string {
	if callback == "" {
		return baseURL
	}

	if strings.HasPrefix(callback, "/") && !strings.HasPrefix(callback, "//") {
		return strings.TrimSuffix(baseURL, "/") + callback
	}

	target, err := url.Parse(callback)
	if err != nil {
		return baseURL
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return baseURL
	}
	if target.Scheme == base.Scheme && target.Host == base.Host {
		return callback
	}
	return baseURL
}

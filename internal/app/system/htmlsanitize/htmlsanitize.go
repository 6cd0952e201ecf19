// Package htmlsanitize wraps the bluemonday policy used across the app.
package htmlsanitize

import "github.com/microcosm-cc/bluemonday"

// strict strips all HTML, leaving plain text. Form input lands in Mongo
// fields and WhatsApp message bodies, so no markup survives intake.
var strict = bluemonday.StrictPolicy()

// Strip removes all HTML, returning plain text.
func Strip(s string) string {
	return strict.Sanitize(s)
}

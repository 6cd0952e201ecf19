// Package status defines the shared record status vocabulary for tenants,
// users, and clients.
package status

const (
	Active   = "active"
	Disabled = "disabled"
)

// IsValid reports whether s is a known status value.
func IsValid(s string) bool {
	return s == Active || s == Disabled
}

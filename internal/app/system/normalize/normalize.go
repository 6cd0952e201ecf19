// Package normalize centralizes field normalization so stores and handlers
// agree on canonical forms (lowercase emails, trimmed names, digit-only
// documents).
package normalize

import "strings"

// Email lowercases and trims an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims surrounding whitespace but preserves case.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// Role lowercases and trims a role value.
func Role(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Status lowercases and trims a status value.
func Status(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Slug lowercases, trims, and collapses spaces to hyphens for tenant slugs.
func Slug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	fields := strings.Fields(s)
	return strings.Join(fields, "-")
}

// Digits strips every non-digit rune. Used for CPF/CNPJ and phone numbers.
func Digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Phone keeps a leading + and strips everything else non-digit.
func Phone(s string) string {
	s = strings.TrimSpace(s)
	plus := strings.HasPrefix(s, "+")
	d := Digits(s)
	if d == "" {
		return ""
	}
	if plus {
		return "+" + d
	}
	return d
}

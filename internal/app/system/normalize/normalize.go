// internal/app/system/normalize/normalize.go
package normalize

import "strings"

// Email trims and lowercases an address. Stored emails are always in this form.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims and collapses internal runs of whitespace.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Text trims surrounding whitespace from free-form input.
func Text(s string) string {
	return strings.TrimSpace(s)
}

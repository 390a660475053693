package service

import "strings"

// normalizeEmail is applied to every email entering the core so lookups
// are case-insensitive.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

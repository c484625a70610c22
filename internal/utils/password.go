package utils

import (
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func ValidEmail(email string) bool {
	return emailPattern.MatchString(NormalizeEmail(email))
}

const passwordSpecials = "@$!%*?&"

// ValidatePassword enforces the signup password policy: at least 8
// characters with one lowercase, one uppercase, one digit and one special
// character from @$!%*?&. Returns an empty string when the password passes,
// otherwise the first failing rule's message.
func ValidatePassword(password string) string {
	if password == "" {
		return "Password is required"
	}
	if len(password) < 8 {
		return "Password must be at least 8 characters long"
	}
	var lower, upper, digit, special bool
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		}
	}
	switch {
	case !lower:
		return "Password must contain at least one lowercase letter"
	case !upper:
		return "Password must contain at least one uppercase letter"
	case !digit:
		return "Password must contain at least one number"
	case !special:
		return "Password must contain at least one special character (@$!%*?&)"
	}
	return ""
}

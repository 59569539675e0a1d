package validator

import (
	"errors"
	"regexp"
	"strings"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// NormalizeEmail lowercases and trims an address. Registration and login both
// normalize before touching the store so the unique index sees one spelling.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func ValidateEmail(email string) error {
	parts := strings.Split(email, "@")
	if len(parts) != 2 || parts[0] == "" || !strings.Contains(parts[1], ".") {
		return errors.New("invalid email format")
	}
	return nil
}

func ValidatePassword(password string) error {
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters long")
	}
	return nil
}

// NormalizeSlug lowercases and trims; ValidateSlug enforces the url-safe
// charset and length the organization registry relies on.
func NormalizeSlug(slug string) string {
	return strings.ToLower(strings.TrimSpace(slug))
}

func ValidateSlug(slug string) error {
	if len(slug) < 3 || len(slug) > 255 {
		return errors.New("slug must be between 3 and 255 characters")
	}
	if !slugPattern.MatchString(slug) {
		return errors.New("slug may only contain lowercase letters, digits and hyphens")
	}
	return nil
}

func ValidateName(name string) error {
	if l := len(strings.TrimSpace(name)); l < 3 || l > 255 {
		return errors.New("name must be between 3 and 255 characters")
	}
	return nil
}

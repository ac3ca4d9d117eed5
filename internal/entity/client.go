package entity

import "strings"

// Client is a customer account. Sales reference clients by Name.
type Client struct {
	ID           string
	Name         string
	Phone        *string
	Email        string
	Address      *string
	CreatedAt    string
	PasswordHash *string
}

// HasPassword reports whether the account can log in.
func (c Client) HasPassword() bool {
	return c.PasswordHash != nil && strings.TrimSpace(*c.PasswordHash) != ""
}

// SameEmail compares addresses ignoring case and surrounding spaces.
func SameEmail(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// SameName compares display names the way order ownership does: trimmed and
// case-insensitive.
func SameName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

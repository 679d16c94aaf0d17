package domain

import (
	"strings"
	"time"
)

// User roles.
const (
	RoleCustomer = "customer"
	RoleSeller   = "seller"
)

// User is an account. Accounts created through Google have no password hash.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"`
	GoogleID     *string   `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// NormalizeRole lowercases role and defaults an empty value to customer. The
// second result is false for unknown roles.
func NormalizeRole(role string) (string, bool) {
	r := strings.ToLower(strings.TrimSpace(role))
	switch r {
	case "":
		return RoleCustomer, true
	case RoleCustomer, RoleSeller:
		return r, true
	default:
		return "", false
	}
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

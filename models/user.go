package models

import (
	"strings"
	"time"
)

// SignupRequest registers a dashboard account. Sites and metrics hang off the
// resulting user.
type SignupRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// NormalizeEmail is applied before every user lookup or insert; accounts are
// keyed by the lowercased address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// User is a dashboard account. HashedPassword holds a bcrypt hash and is
// never serialized; the JWT carries only ID and Email.
type User struct {
	ID             int       `json:"id"`
	Email          string    `json:"email"`
	HashedPassword []byte    `json:"-"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

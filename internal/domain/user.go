package domain

import "time"

// User represents a registered account.
// Users are created by registration and are never updated or deleted.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // argon2id encoded, never leaves the server
	CreatedAt    time.Time `json:"created_at"`
}

package domain

import "time"

// User is a stored account. Username is unique and is the subject of every
// access token issued for the account.
type User struct {
	ID           string
	Username     string
	Email        string
	FullName     string
	PasswordHash string // argon2id PHC string or bcrypt digest
	Disabled     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Active reports whether the account may use protected endpoints.
func (u User) Active() bool { return !u.Disabled }

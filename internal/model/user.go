package model

import "time"

// User is a registered account. PasswordDigest holds a one-way bcrypt hash;
// the plaintext password is never stored.
type User struct {
	ID             int64     `json:"id"`
	Username       string    `json:"username"`
	PasswordDigest string    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
}

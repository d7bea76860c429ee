package domain

import "time"

// User is a registered account. CreatedLinks is append-only and keeps
// creation order.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedLinks []string  `json:"created_links"`
	CreatedAt    time.Time `json:"created_at"`
}

package auth

import "time"

// User represents an application user.
type User struct {
	ID             int64
	Email          string
	HashedPassword string
	CreatedAt      time.Time
}

// AccessToken is the bearer token handed out by Login.
type AccessToken struct {
	Token     string
	ExpiresAt time.Time
}

package auth

import (
	"time"

	"github.com/google/uuid"
)

// User is a domain entity representing a registered account.
// Tasks reference it through Task.UserID.
type User struct {
	ID             string
	Email          string
	Name           string
	HashedPassword string
	CreatedAt      time.Time
}

// NewUserID returns a random UUIDv4 in its canonical 36-char text form.
func NewUserID() string {
	return uuid.NewString()
}

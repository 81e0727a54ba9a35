package auth

import (
	"context"
	"time"
)

// Token is an issued access token and the metadata needed to revoke it.
type Token struct {
	Value     string
	ID        string
	ExpiresAt time.Time
}

// TokenGenerator abstracts token creation (e.g., JWT).
// It allows use cases to stay framework-agnostic.
type TokenGenerator interface {
	Generate(ctx context.Context, user User) (Token, error)
}

// TokenRevoker invalidates a token before it expires.
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
}

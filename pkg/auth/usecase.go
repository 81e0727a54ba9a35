package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// AuthUseCase describes authentication/registration behavior.
type AuthUseCase interface {
	Register(ctx context.Context, email, password, name string) (AuthResult, error)
	Login(ctx context.Context, email, password string) (AuthResult, error)
	Me(ctx context.Context, userID string) (User, error)
	Logout(ctx context.Context, tokenID string, expiresAt time.Time) error
}

type AuthResult struct {
	User  User
	Token Token
}

type authService struct {
	store    Store
	tokens   TokenGenerator
	revoker  TokenRevoker
	hashCost int
	now      func() time.Time
}

// NewAuthService returns default implementation of AuthUseCase. revoker may be
// nil, in which case Logout is a no-op and tokens live until they expire.
func NewAuthService(store Store, tokens TokenGenerator, revoker TokenRevoker) AuthUseCase {
	return &authService{
		store:    store,
		tokens:   tokens,
		revoker:  revoker,
		hashCost: bcrypt.DefaultCost,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *authService) Register(ctx context.Context, email, password, name string) (AuthResult, error) {
	email = normalizeEmail(email)
	name = strings.TrimSpace(name)
	if email == "" || password == "" || name == "" {
		return AuthResult{}, ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return AuthResult{}, fmt.Errorf("hash password: %w", err)
	}

	user := User{
		ID:             NewUserID(),
		Email:          email,
		Name:           name,
		HashedPassword: string(hash),
		CreatedAt:      s.now(),
	}
	err = s.store.WithUsers(ctx, func(ctx context.Context, users UserRepository) error {
		// Cheap pre-check; the unique index still decides under concurrency.
		if _, err := users.GetByEmail(ctx, email); err == nil {
			return ErrUserAlreadyExists
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}
		return users.Create(ctx, user)
	})
	if err != nil {
		return AuthResult{}, err
	}

	token, err := s.tokens.Generate(ctx, user)
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate token: %w", err)
	}
	return AuthResult{User: user, Token: token}, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (AuthResult, error) {
	var user User
	err := s.store.WithUsers(ctx, func(ctx context.Context, users UserRepository) error {
		var err error
		user, err = users.GetByEmail(ctx, normalizeEmail(email))
		return err
	})
	if errors.Is(err, ErrNotFound) {
		return AuthResult{}, ErrInvalidCredentials
	}
	if err != nil {
		return AuthResult{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)) != nil {
		return AuthResult{}, ErrInvalidCredentials
	}
	token, err := s.tokens.Generate(ctx, user)
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate token: %w", err)
	}
	return AuthResult{User: user, Token: token}, nil
}

func (s *authService) Me(ctx context.Context, userID string) (User, error) {
	var user User
	err := s.store.WithUsers(ctx, func(ctx context.Context, users UserRepository) error {
		var err error
		user, err = users.GetByID(ctx, userID)
		return err
	})
	return user, err
}

func (s *authService) Logout(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if s.revoker == nil || tokenID == "" {
		return nil
	}
	if !expiresAt.After(s.now()) {
		return nil
	}
	return s.revoker.Revoke(ctx, tokenID, expiresAt)
}

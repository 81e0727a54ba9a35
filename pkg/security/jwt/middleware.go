package jwt

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/golang-jwt/jwt/v5"
)

// Keys under which the middleware stores the authenticated principal.
const (
	LocalUserID         = "userId"
	LocalTokenID        = "tokenID"
	LocalTokenExpiresAt = "tokenExpiresAt"
)

// RevocationChecker reports whether a token id was revoked by logout.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

func unauthorized(c *fiber.Ctx, detail string) error {
	c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
	return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"detail": detail})
}

// NewAuthMiddleware returns a Fiber middleware that validates Bearer JWT (HS256).
// On success sets user id (subject) into c.Locals("userId"). revoked may be nil.
func NewAuthMiddleware(secret, expectedIssuer string, revoked RevocationChecker) fiber.Handler {
	secretBytes := []byte(secret)
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return unauthorized(c, "Not authenticated")
		}
		// Support both "Bearer <token>" and "<token>" (no prefix).
		tokenStr := strings.TrimSpace(authHeader)
		if parts := strings.SplitN(tokenStr, " ", 2); len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			tokenStr = strings.TrimSpace(parts[1])
		}
		if tokenStr == "" {
			return unauthorized(c, "Not authenticated")
		}
		token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
			return secretBytes, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}), jwt.WithExpirationRequired())
		if err != nil || !token.Valid {
			return unauthorized(c, "Could not validate credentials")
		}
		claims, ok := token.Claims.(*Claims)
		if !ok || claims.Subject == "" {
			return unauthorized(c, "Could not validate credentials")
		}
		if expectedIssuer != "" && claims.Issuer != expectedIssuer {
			return unauthorized(c, "Could not validate credentials")
		}
		if revoked != nil && claims.ID != "" {
			isRevoked, err := revoked.IsRevoked(c.UserContext(), claims.ID)
			if err != nil {
				log.Errorw("token revocation lookup failed", "error", err)
				return c.Status(http.StatusServiceUnavailable).JSON(fiber.Map{"detail": "authentication backend unavailable"})
			}
			if isRevoked {
				return unauthorized(c, "Token has been revoked")
			}
		}

		c.Locals(LocalUserID, claims.Subject)
		c.Locals(LocalTokenID, claims.ID)
		var exp time.Time
		if claims.ExpiresAt != nil {
			exp = claims.ExpiresAt.Time
		}
		c.Locals(LocalTokenExpiresAt, exp)
		return c.Next()
	}
}

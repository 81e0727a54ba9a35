package jwt

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artem13815/todo/pkg/auth"
)

const (
	testSecret = "test-secret"
	testIssuer = "todo-service"
)

type fakeRevocations struct {
	ids map[string]bool
	err error
}

func (f fakeRevocations) IsRevoked(_ context.Context, id string) (bool, error) {
	return f.ids[id], f.err
}

func newTestApp(revoked RevocationChecker) *fiber.App {
	app := fiber.New()
	app.Get("/me", NewAuthMiddleware(testSecret, testIssuer, revoked), func(c *fiber.Ctx) error {
		exp, _ := c.Locals(LocalTokenExpiresAt).(time.Time)
		return c.JSON(fiber.Map{
			"user":    c.Locals(LocalUserID),
			"jti":     c.Locals(LocalTokenID),
			"expired": !exp.After(time.Now()),
		})
	})
	return app
}

func call(t *testing.T, app *fiber.App, header string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestGenerate(t *testing.T) {
	g := NewGenerator(testSecret, testIssuer, time.Hour)
	tok, err := g.Generate(context.Background(), auth.User{ID: "u1", Email: "a@x.com"})
	require.NoError(t, err)

	assert.Len(t, tok.ID, 36)
	assert.WithinDuration(t, time.Now().Add(time.Hour), tok.ExpiresAt, 2*time.Second)

	parsed, err := jwt.ParseWithClaims(tok.Value, &Claims{}, func(*jwt.Token) (any, error) { return []byte(testSecret), nil })
	require.NoError(t, err)
	claims := parsed.Claims.(*Claims)
	assert.Equal(t, "u1", claims.Subject)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.Equal(t, testIssuer, claims.Issuer)
	assert.Equal(t, tok.ID, claims.ID)
}

func TestMiddleware_AcceptsBearerAndBareToken(t *testing.T) {
	tok, err := NewGenerator(testSecret, testIssuer, time.Hour).Generate(context.Background(), auth.User{ID: "u1"})
	require.NoError(t, err)
	app := newTestApp(nil)

	for _, header := range []string{"Bearer " + tok.Value, "bearer " + tok.Value, tok.Value} {
		status, body := call(t, app, header)
		assert.Equal(t, http.StatusOK, status, header)
		assert.Contains(t, body, `"user":"u1"`)
		assert.Contains(t, body, `"jti":"`+tok.ID+`"`)
		assert.Contains(t, body, `"expired":false`)
	}
}

func TestMiddleware_Rejects(t *testing.T) {
	otherIssuer, _ := NewGenerator(testSecret, "someone-else", time.Hour).Generate(context.Background(), auth.User{ID: "u1"})
	wrongKey, _ := NewGenerator("other-secret", testIssuer, time.Hour).Generate(context.Background(), auth.User{ID: "u1"})
	expired, _ := NewGenerator(testSecret, testIssuer, -time.Minute).Generate(context.Background(), auth.User{ID: "u1"})

	cases := map[string]string{
		"missing":      "",
		"empty bearer": "Bearer ",
		"garbage":      "Bearer not-a-jwt",
		"issuer":       "Bearer " + otherIssuer.Value,
		"signature":    "Bearer " + wrongKey.Value,
		"expired":      "Bearer " + expired.Value,
	}
	app := newTestApp(nil)
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			status, body := call(t, app, header)
			assert.Equal(t, http.StatusUnauthorized, status)
			assert.Contains(t, body, `"detail"`)
		})
	}
}

func TestMiddleware_Revoked(t *testing.T) {
	tok, err := NewGenerator(testSecret, testIssuer, time.Hour).Generate(context.Background(), auth.User{ID: "u1"})
	require.NoError(t, err)

	status, body := call(t, newTestApp(fakeRevocations{ids: map[string]bool{tok.ID: true}}), "Bearer "+tok.Value)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Contains(t, body, "revoked")

	status, _ = call(t, newTestApp(fakeRevocations{err: errors.New("redis down")}), "Bearer "+tok.Value)
	assert.Equal(t, http.StatusServiceUnavailable, status)
}

package jwtware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-identity/middleware/jwtware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-signing-key"

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func defaultClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"sub":   "42",
		"uid":   int64(42),
		"role":  "standard_user",
		"email": "jane@example.com",
		"jti":   "jti-1",
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
}

func newApp(cfg jwtware.Config) *fiber.App {
	app := fiber.New()
	app.Get("/protected", jwtware.New(cfg), func(c *fiber.Ctx) error {
		claims, _ := c.Locals(orDefault(cfg.ContextKey)).(jwtware.AuthClaims)
		if claims == nil {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		return c.JSON(fiber.Map{"uid": claims.UserID(), "role": claims.Role()})
	})
	return app
}

func orDefault(key string) string {
	if key == "" {
		return "user"
	}
	return key
}

func TestMissingToken(t *testing.T) {
	app := newApp(jwtware.Config{
		SigningKey: jwtware.SigningKey{Key: []byte(testSecret)},
	})

	res, err := app.Test(httptest.NewRequest("GET", "/protected", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, res.StatusCode)
}

func TestValidTokenFromHeader(t *testing.T) {
	app := newApp(jwtware.Config{
		SigningKey: jwtware.SigningKey{Key: []byte(testSecret)},
	})

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, defaultClaims()))

	res, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, res.StatusCode)
}

func TestTokenFromCookieAndQuery(t *testing.T) {
	cfg := jwtware.Config{
		SigningKey:  jwtware.SigningKey{Key: []byte(testSecret)},
		TokenLookup: "header:Authorization,cookie:token,query:token",
	}
	token := signToken(t, defaultClaims())

	t.Run("cookie", func(t *testing.T) {
		app := newApp(cfg)
		req := httptest.NewRequest("GET", "/protected", nil)
		req.AddCookie(&http.Cookie{Name: "token", Value: token})

		res, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, res.StatusCode)
	})

	t.Run("query", func(t *testing.T) {
		app := newApp(cfg)
		res, err := app.Test(httptest.NewRequest("GET", "/protected?token="+token, nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, res.StatusCode)
	})
}

func TestBadSignature(t *testing.T) {
	app := newApp(jwtware.Config{
		SigningKey: jwtware.SigningKey{Key: []byte("a-different-key")},
	})

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, defaultClaims()))

	res, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, res.StatusCode)
}

func TestExpiredToken(t *testing.T) {
	app := newApp(jwtware.Config{
		SigningKey: jwtware.SigningKey{Key: []byte(testSecret)},
	})

	claims := defaultClaims()
	claims["exp"] = time.Now().Add(-time.Hour).Unix()

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, claims))

	res, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, res.StatusCode)
}

func TestAllowedRoles(t *testing.T) {
	cfg := jwtware.Config{
		SigningKey:   jwtware.SigningKey{Key: []byte(testSecret)},
		AllowedRoles: []string{"admin"},
	}

	t.Run("denied", func(t *testing.T) {
		app := newApp(cfg)
		req := httptest.NewRequest("GET", "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, defaultClaims()))

		res, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusForbidden, res.StatusCode)
	})

	t.Run("allowed", func(t *testing.T) {
		app := newApp(cfg)
		claims := defaultClaims()
		claims["role"] = "admin"

		req := httptest.NewRequest("GET", "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, claims))

		res, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, res.StatusCode)
	})
}

func TestFilterSkipsMiddleware(t *testing.T) {
	app := fiber.New()
	app.Get("/open", jwtware.New(jwtware.Config{
		SigningKey: jwtware.SigningKey{Key: []byte(testSecret)},
		Filter:     func(c *fiber.Ctx) bool { return true },
	}), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	res, err := app.Test(httptest.NewRequest("GET", "/open", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, res.StatusCode)
}

func TestCustomErrorHandler(t *testing.T) {
	app := fiber.New()
	app.Get("/protected", jwtware.New(jwtware.Config{
		SigningKey: jwtware.SigningKey{Key: []byte(testSecret)},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusTeapot).SendString(err.Error())
		},
	}), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	res, err := app.Test(httptest.NewRequest("GET", "/protected", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTeapot, res.StatusCode)
}

func TestDecodedClaimsAccessors(t *testing.T) {
	app := fiber.New()
	var got jwtware.AuthClaims
	app.Get("/protected", jwtware.New(jwtware.Config{
		SigningKey: jwtware.SigningKey{Key: []byte(testSecret)},
	}), func(c *fiber.Ctx) error {
		got, _ = c.Locals("user").(jwtware.AuthClaims)
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, defaultClaims()))

	res, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, res.StatusCode)
	require.NotNil(t, got)

	assert.Equal(t, int64(42), got.UserID())
	assert.Equal(t, "standard_user", got.Role())
	assert.Equal(t, "jane@example.com", got.UserEmail())
	assert.Equal(t, "jti-1", got.TokenID())
	assert.True(t, got.HasRole("standard_user"))
	assert.True(t, got.IsAtLeast("standard_user"))
	assert.False(t, got.IsAtLeast("admin"))
}

func TestGetExtractorsOrder(t *testing.T) {
	extractors := jwtware.GetExtractors("header:Authorization,cookie:token,query:token")
	assert.Len(t, extractors, 3)

	// malformed entries are skipped
	extractors = jwtware.GetExtractors("header")
	assert.Empty(t, extractors)
}

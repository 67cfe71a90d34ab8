package auth

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk/internal/domain"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

type stubUsers map[string]*domain.User

func (s stubUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return nil, pgx.ErrNoRows
}

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", 0)
	token, expiresAt, err := tm.GenerateToken("u-1", domain.RoleTechnicianB)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), expiresAt, time.Minute)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, domain.RoleTechnicianB, claims.Role)

	_, err = NewTokenManager("other", 10).ParseToken(token)
	assert.Error(t, err)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	tm := NewTokenManager("secret", 10)
	claims := &Claims{UserID: "u-1", Role: domain.RoleAdmin, RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = tm.ParseToken(signed)
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("rahasia", 4)
	require.NoError(t, err)
	assert.True(t, PasswordMatches(hash, "rahasia"))
	assert.False(t, PasswordMatches(hash, "salah"))
}

func newAuthApp(t *testing.T, users stubUsers, guards ...fiber.Handler) (*fiber.App, *TokenManager) {
	t.Helper()
	tm := NewTokenManager("secret", 60)
	app := fiber.New(fiber.Config{ErrorHandler: func(c *fiber.Ctx, err error) error {
		de := apperrors.ToDomainError(err)
		return c.Status(de.HTTPStatus).SendString(de.Code)
	}})
	handlers := append([]fiber.Handler{NewAuthMiddleware(tm, users).Handle}, guards...)
	handlers = append(handlers, func(c *fiber.Ctx) error {
		caller, _ := CallerFromContext(c)
		return c.SendString(string(caller.Role))
	})
	app.Get("/me", handlers...)
	return app, tm
}

func TestAuthMiddleware(t *testing.T) {
	users := stubUsers{
		"active":   {ID: "active", Role: domain.RoleTechnicianA, IsActive: true},
		"inactive": {ID: "inactive", Role: domain.RoleTechnicianA, IsActive: false},
	}
	app, tm := newAuthApp(t, users)

	call := func(header string) int {
		req := httptest.NewRequest("GET", "/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp.StatusCode
	}

	token, _, err := tm.GenerateToken("active", domain.RoleTechnicianA)
	require.NoError(t, err)
	assert.Equal(t, 200, call("Bearer "+token))

	assert.Equal(t, 401, call(""))
	assert.Equal(t, 401, call("Token "+token))
	assert.Equal(t, 401, call("Bearer garbage"))

	inactive, _, _ := tm.GenerateToken("inactive", domain.RoleTechnicianA)
	assert.Equal(t, 401, call("Bearer "+inactive))

	ghost, _, _ := tm.GenerateToken("ghost", domain.RoleAdmin)
	assert.Equal(t, 401, call("Bearer "+ghost))
}

func TestRequireRoles(t *testing.T) {
	users := stubUsers{
		"admin": {ID: "admin", Role: domain.RoleAdmin, IsActive: true},
		"tech":  {ID: "tech", Role: domain.RoleTechnicianB, IsActive: true},
	}
	app, tm := newAuthApp(t, users, RequireAdmin())

	adminToken, _, _ := tm.GenerateToken("admin", domain.RoleAdmin)
	techToken, _, _ := tm.GenerateToken("tech", domain.RoleTechnicianB)

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	req = httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+techToken)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 403, resp.StatusCode)
}

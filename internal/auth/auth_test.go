package auth

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/complaint-analytics/internal/domain"
	apperrors "github.com/spec-kit/complaint-analytics/pkg/util/errorutil"
)

func TestTokenRoundTripCarriesIdentity(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	ward := "ward-3"

	token, expiresAt, err := tm.GenerateToken(domain.Identity{UserID: "u-1", Role: domain.RoleWardOfficer, WardID: &ward})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), expiresAt, time.Minute)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	identity := claims.Identity()
	assert.Equal(t, "u-1", identity.UserID)
	assert.Equal(t, domain.RoleWardOfficer, identity.Role)
	require.NotNil(t, identity.WardID)
	assert.Equal(t, "ward-3", *identity.WardID)
}

func TestParseTokenRejects(t *testing.T) {
	tm := NewTokenManager("secret", 5)

	other, _, err := NewTokenManager("other", 5).GenerateToken(domain.Identity{UserID: "u-1", Role: domain.RoleCitizen})
	require.NoError(t, err)
	_, err = tm.ParseToken(other)
	assert.Error(t, err, "wrong secret")

	badRole, _, err := tm.GenerateToken(domain.Identity{UserID: "u-1", Role: "ROOT"})
	require.NoError(t, err)
	_, err = tm.ParseToken(badRole)
	assert.Error(t, err, "unknown role")

	noExp := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		Role:             domain.RoleAdministrator,
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u-1"},
	})
	signed, err := noExp.SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = tm.ParseToken(signed)
	assert.Error(t, err, "missing exp")
}

func newAuthApp(tm *TokenManager, roles ...domain.Role) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			domainErr := apperrors.ToDomainError(err)
			return c.Status(domainErr.HTTPStatus).SendString(domainErr.Code)
		},
	})
	app.Get("/p", NewAuthMiddleware(tm).Handle, RequireRole(roles...), func(c *fiber.Ctx) error {
		identity, _ := IdentityFromContext(c)
		return c.SendString(identity.UserID)
	})
	return app
}

func TestMiddlewareAndRoleGate(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	app := newAuthApp(tm, domain.RoleAdministrator, domain.RoleWardOfficer)

	admin, _, err := tm.GenerateToken(domain.Identity{UserID: "admin-1", Role: domain.RoleAdministrator})
	require.NoError(t, err)
	citizen, _, err := tm.GenerateToken(domain.Identity{UserID: "cit-1", Role: domain.RoleCitizen})
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", fiber.StatusUnauthorized},
		{"not bearer", "Basic abc", fiber.StatusUnauthorized},
		{"garbage token", "Bearer abc", fiber.StatusUnauthorized},
		{"allowed role", "Bearer " + admin, fiber.StatusOK},
		{"forbidden role", "Bearer " + citizen, fiber.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/p", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

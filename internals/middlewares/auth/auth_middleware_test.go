package auth

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trainingku_backend/internals/constants"
	helper "trainingku_backend/internals/helpers"
	helperAuth "trainingku_backend/internals/helpers/auth"
)

const testSecret = "test-secret"

func sign(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return tok
}

func newApp(o AuthOpts, guards ...fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: helper.ErrorHandler})
	handlers := append([]fiber.Handler{AuthMiddleware(o)}, guards...)
	handlers = append(handlers, func(c *fiber.Ctx) error {
		actor, err := helperAuth.GetActor(c)
		if err != nil {
			return err
		}
		return c.SendString(actor.Role + "|" + actor.UserID.String())
	})
	app.Get("/me", handlers...)
	return app
}

func call(t *testing.T, app *fiber.App, token string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodGet, "/me", nil)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	res, err := app.Test(req)
	require.NoError(t, err)
	body, _ := io.ReadAll(res.Body)
	return res.StatusCode, string(body)
}

func TestAuthMiddleware(t *testing.T) {
	app := newApp(AuthOpts{Secret: testSecret})
	userID := uuid.New()
	exp := time.Now().Add(time.Hour).Unix()

	status, body := call(t, app, sign(t, testSecret, jwt.MapClaims{"id": userID.String(), "role": "trainer", "exp": exp}))
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, constants.RoleTrainer+"|"+userID.String(), body)

	cases := []struct {
		name  string
		token string
	}{
		{"no token", ""},
		{"wrong secret", sign(t, "other", jwt.MapClaims{"id": userID.String(), "role": "TRAINER", "exp": exp})},
		{"expired", sign(t, testSecret, jwt.MapClaims{"id": userID.String(), "role": "TRAINER", "exp": time.Now().Add(-time.Hour).Unix()})},
		{"no exp", sign(t, testSecret, jwt.MapClaims{"id": userID.String(), "role": "TRAINER"})},
		{"no role", sign(t, testSecret, jwt.MapClaims{"id": userID.String(), "exp": exp})},
		{"bad user id", sign(t, testSecret, jwt.MapClaims{"id": "nope", "role": "TRAINER", "exp": exp})},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, _ := call(t, app, tc.token)
			assert.Equal(t, fiber.StatusUnauthorized, status)
		})
	}
}

func TestAuthMiddlewareSubClaimAndInactiveUser(t *testing.T) {
	userID := uuid.New()
	token := sign(t, testSecret, jwt.MapClaims{"sub": userID.String(), "role": "TRAINEE", "exp": time.Now().Add(time.Hour).Unix()})

	status, _ := call(t, newApp(AuthOpts{Secret: testSecret}), token)
	assert.Equal(t, fiber.StatusOK, status)

	inactive := newApp(AuthOpts{Secret: testSecret, UserActive: func(context.Context, uuid.UUID) error {
		return errors.New("user inactive")
	}})
	status, _ = call(t, inactive, token)
	assert.Equal(t, fiber.StatusForbidden, status)
}

func TestOnlyRoles(t *testing.T) {
	app := newApp(AuthOpts{Secret: testSecret},
		OnlyRoles(constants.RoleErrorManager("department events"), constants.ManagerRoles...))
	exp := time.Now().Add(time.Hour).Unix()

	status, _ := call(t, app, sign(t, testSecret, jwt.MapClaims{"id": uuid.NewString(), "role": "DEPARTMENT_HEAD", "exp": exp}))
	assert.Equal(t, fiber.StatusOK, status)

	status, body := call(t, app, sign(t, testSecret, jwt.MapClaims{"id": uuid.NewString(), "role": "TRAINEE", "exp": exp}))
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Contains(t, body, "department events")
}

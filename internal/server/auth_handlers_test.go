package server

import (
	"net/http"
	"testing"

	"fixpoint/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	app, _, _ := setupTestApp(t)

	t.Run("Success", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/auth/register", "", map[string]string{
			"username": "newuser",
			"email":    "newuser@example.com",
			"password": "Password123",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.NotEmpty(t, body["token"])
		user := body["user"].(map[string]any)
		assert.Equal(t, "USER", user["role"])
		assert.NotContains(t, user, "password")
	})

	t.Run("Duplicate email", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/auth/register", "", map[string]string{
			"username": "otheruser",
			"email":    "newuser@example.com",
			"password": "Password123",
		})
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("Weak password", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/auth/register", "", map[string]string{
			"username": "weakuser",
			"email":    "weak@example.com",
			"password": "short",
		})
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestLogin(t *testing.T) {
	app, _, db := setupTestApp(t)
	createTestUser(t, db, "loginuser", models.RoleUser)

	t.Run("Success", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
			"email":    "loginuser@example.com",
			"password": "Sup3rSecret",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.NotEmpty(t, body["token"])
	})

	t.Run("Wrong password", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
			"email":    "loginuser@example.com",
			"password": "wrong",
		})
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("Missing fields", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
			"email": "loginuser@example.com",
		})
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestLogin_Lockout(t *testing.T) {
	app, _, db := setupTestApp(t)
	createTestUser(t, db, "lockme", models.RoleUser)

	for i := 0; i < 5; i++ {
		resp := doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
			"email":    "lockme@example.com",
			"password": "wrong",
		})
		_ = resp.Body.Close()
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}

	// Correct password no longer helps inside the lockout window.
	resp := doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "lockme@example.com",
		"password": "Sup3rSecret",
	})
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestMe(t *testing.T) {
	app, s, db := setupTestApp(t)
	user := createTestUser(t, db, "me", models.RoleUser)

	t.Run("With token", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, "/api/auth/me", tokenFor(t, s, user), nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, "me", body["username"])
	})

	t.Run("Without token", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, "/api/auth/me", "", nil)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("Garbage token", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, "/api/auth/me", "not.a.token", nil)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

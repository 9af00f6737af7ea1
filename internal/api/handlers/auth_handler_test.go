package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brightpath/casedesk/internal/auth"
	"brightpath/casedesk/internal/config"
)

func newLoginRouter(t *testing.T) *gin.Engine {
	t.Helper()
	hash, err := auth.HashPassword("console-secret")
	require.NoError(t, err)
	cfg := &config.Config{
		JwtSecret:         "test-secret",
		JwtTTL:            time.Hour,
		AdminEmails:       []string{"staff@example.com"},
		AdminPasswordHash: hash,
	}

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/v1/admin/login", NewAuthHandler(cfg).Login)
	return r
}

func postLogin(r *gin.Engine, email, password string) *httptest.ResponseRecorder {
	body := fmt.Sprintf(`{"email":%q,"password":%q}`, email, password)
	req := httptest.NewRequest("POST", "/v1/admin/login", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestLogin(t *testing.T) {
	r := newLoginRouter(t)

	w := postLogin(r, "staff@example.com", "console-secret")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Token string `json:"token"`
		Email string `json:"email"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "staff@example.com", resp.Email)
}

func TestLoginNormalizesEmail(t *testing.T) {
	r := newLoginRouter(t)
	w := postLogin(r, "Staff@Example.COM", "console-secret")
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	r := newLoginRouter(t)
	w := postLogin(r, "staff@example.com", "wrong-secret")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid credentials")
}

func TestLoginRejectsUnlistedEmail(t *testing.T) {
	r := newLoginRouter(t)

	// Correct password, email not on the allow-list: the response must be
	// indistinguishable from a wrong password.
	w := postLogin(r, "intruder@example.com", "console-secret")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid credentials")
}

func TestLoginValidation(t *testing.T) {
	r := newLoginRouter(t)
	w := postLogin(r, "not-an-email", "console-secret")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

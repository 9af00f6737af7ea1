package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("ADMIN_PASSWORD_HASH", "$2a$10$abcdefghijklmnopqrstuvwxyz0123456789abcdefghijklmnopq")
	t.Setenv("ADMIN_EMAILS", "staff@example.com, Second@Example.com")
}

func TestLoad(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load("api")
	require.NoError(t, err)
	assert.Equal(t, "api", cfg.RunMode)
	assert.Equal(t, []string{"staff@example.com", "second@example.com"}, cfg.AdminEmails)
	assert.Equal(t, "/delete-file", cfg.FileServerDeleteRoute)
	assert.Equal(t, "POST", cfg.FileServerDeleteMethod)
}

func TestLoadRequiresAdminPasswordHash(t *testing.T) {
	setRequiredEnv(t)
	// t.Setenv registered the restore; drop the variable entirely.
	os.Unsetenv("ADMIN_PASSWORD_HASH")

	_, err := Load("api")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ADMIN_PASSWORD_HASH")
}

func TestLoadRejectsBadDeleteMethod(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("FILE_SERVER_DELETE_METHOD", "PATCH")

	_, err := Load("api")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FILE_SERVER_DELETE_METHOD")
}

func TestLoadRejectsDeleteRouteWithoutLeadingSlash(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("FILE_SERVER_DELETE_ROUTE", "delete-file")

	_, err := Load("api")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FILE_SERVER_DELETE_ROUTE")
}

func TestIsAuthorized(t *testing.T) {
	cfg := &Config{AdminEmails: []string{"staff@example.com"}}
	assert.True(t, cfg.IsAuthorized("staff@example.com"))
	assert.True(t, cfg.IsAuthorized("  STAFF@example.COM "))
	assert.False(t, cfg.IsAuthorized("other@example.com"))
}

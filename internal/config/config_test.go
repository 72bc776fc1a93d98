package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseEnvTag(t *testing.T) {
	name, optional := parseEnvTag("EXP_API_PG_DSN")
	assert.Equal(t, "EXP_API_PG_DSN", name)
	assert.False(t, optional)

	name, optional = parseEnvTag("EXP_API_RESPONSE_MODE,optional")
	assert.Equal(t, "EXP_API_RESPONSE_MODE", name)
	assert.True(t, optional)
}

func TestAdminPairs(t *testing.T) {
	cfg := &Config{
		AdminUser:  "admin",
		AdminPass:  "secret",
		AdminUser2: "backup",
		AdminPass2: "secret2",
	}
	pairs := cfg.AdminPairs()
	assert.Len(t, pairs, 2)
	assert.Equal(t, "secret", pairs["admin"])
	assert.Equal(t, "secret2", pairs["backup"])
}

func TestMailRecipients(t *testing.T) {
	cfg := &Config{MailTo: "a@example.com, b@example.com,,c@example.com"}
	assert.Equal(t, []string{"a@example.com", "b@example.com", "c@example.com"}, cfg.MailRecipients())
}

func TestMaxUploadBytes(t *testing.T) {
	cfg := &Config{MaxUploadMB: "15"}
	assert.Equal(t, int64(15*1024*1024), cfg.MaxUploadBytes())

	cfg = &Config{MaxUploadMB: "not-a-number"}
	assert.Equal(t, int64(15*1024*1024), cfg.MaxUploadBytes())
}

func TestStringMasksSecrets(t *testing.T) {
	cfg := &Config{PostgresDsn: "postgres://user:pw@host/db", AdminPass: "hunter22"}
	dump := cfg.String()
	assert.False(t, strings.Contains(dump, "hunter22"))
	assert.False(t, strings.Contains(dump, "postgres://user:pw@host/db"))
}

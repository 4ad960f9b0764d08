package config

import (
	"errors"
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vars map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load([]string{"-e", filepath.Join(t.TempDir(), "missing.env")}, env(nil))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadPrecedence(t *testing.T) {
	yamlPath := writeFile(t, "menjava.yaml", `
db: from-yaml.sqlite3
addr: ":9000"
admin_user: yaml-admin
token_ttl: 2h
suggest_limit: 8
`)
	envPath := writeFile(t, ".env", "MENJAVA_ADDR=:9100\nMENJAVA_LOGIN_BURST=9\nMENJAVA_ADMIN_USER=dotenv-admin\n")

	vars := env(map[string]string{
		"MENJAVA_ADMIN_USER": "env-admin",
		"MENJAVA_LOGIN_RPS":  "1.5",
	})

	cfg, err := Load([]string{"-c", yamlPath, "-env", envPath, "-d", "flag.sqlite3"}, vars)
	require.NoError(t, err)

	assert.Equal(t, "flag.sqlite3", cfg.DB, "flag beats yaml")
	assert.Equal(t, ":9100", cfg.Addr, "dotenv beats yaml")
	assert.Equal(t, "env-admin", cfg.AdminUser, "process env beats dotenv")
	assert.Equal(t, 2*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 8, cfg.SuggestLimit)
	assert.Equal(t, 9, cfg.LoginBurst)
	assert.InDelta(t, 1.5, cfg.LoginRPS, 1e-9)
}

func TestLoadConfigPathFromEnv(t *testing.T) {
	yamlPath := writeFile(t, "c.yaml", "log: /var/log/menjava.log\n")
	cfg, err := Load([]string{"-e", "nope.env"}, env(map[string]string{"MENJAVA_CONFIG": yamlPath}))
	require.NoError(t, err)
	assert.Equal(t, "/var/log/menjava.log", cfg.Log)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load([]string{"-h"}, env(nil))
	assert.True(t, errors.Is(err, flag.ErrHelp))

	_, err = Load([]string{"extra"}, env(nil))
	assert.ErrorContains(t, err, "unexpected argument")

	_, err = Load([]string{"-c", filepath.Join(t.TempDir(), "absent.yaml")}, env(nil))
	assert.ErrorContains(t, err, "reading config")

	bad := writeFile(t, "bad.yaml", "addr: [unterminated\n")
	_, err = Load([]string{"-c", bad}, env(nil))
	assert.ErrorContains(t, err, "parsing config")

	_, err = Load([]string{"-e", "nope.env"}, env(map[string]string{"MENJAVA_TOKEN_TTL": "soon"}))
	assert.ErrorContains(t, err, "MENJAVA_TOKEN_TTL")

	_, err = Load([]string{"-e", "nope.env", "-t", "0s"}, env(nil))
	assert.ErrorContains(t, err, "token TTL")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty db", func(c *Config) { c.DB = "" }},
		{"empty addr", func(c *Config) { c.Addr = "" }},
		{"empty admin", func(c *Config) { c.AdminUser = "" }},
		{"zero ttl", func(c *Config) { c.TokenTTL = 0 }},
		{"zero limit", func(c *Config) { c.SuggestLimit = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
	assert.NoError(t, Default().Validate())
}

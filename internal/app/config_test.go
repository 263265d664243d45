package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
[server]
port = ":8080"
auth_mode = "proxy"
public_base_url = "https://attend.example.edu"

[roles]
admins = ["admin@uni.example.edu"]
instructors = ["teach@uni.example.edu"]

[checkin]
email_domain = "@uni.example.edu"
default_minutes = 20

[database]
dsn = "attendance.db"
migrations_dir = "./migrations"

[export]
schedule = "0 6 * * *"
dir = "./exports"
`)

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":8080", config.Server.Port)
	assert.Equal(t, "proxy", config.Server.AuthMode)
	assert.Equal(t, []string{"admin@uni.example.edu"}, config.Roles.Admins)
	assert.Equal(t, "@uni.example.edu", config.CheckIn.EmailDomain)
	assert.Equal(t, 20, config.CheckIn.DefaultMinutes)
	assert.Equal(t, "0 6 * * *", config.Export.Schedule)
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, `
[server]
port = ":8080"

[database]
dsn = "attendance.db"
migrations_dir = "./migrations"
`)

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "manual", config.Server.AuthMode)
	assert.Equal(t, "@hua.gr", config.CheckIn.EmailDomain)
	assert.Equal(t, 15, config.CheckIn.DefaultMinutes)
	assert.Equal(t, 5, config.CheckIn.MinMinutes)
	assert.Equal(t, 240, config.CheckIn.MaxMinutes)
	assert.Equal(t, "Europe/Athens", config.Reporting.Timezone)
	assert.Equal(t, "Authorization", config.Auth.TokenHeader)
	assert.Equal(t, "sso:session:{token}", config.Auth.SessionKeyTemplate)
	assert.Equal(t, 30, config.Export.WindowDays)
	assert.Equal(t, "day", config.Export.Granularity)
}

func TestLoadConfigRequiresPort(t *testing.T) {
	path := writeConfig(t, `
[database]
dsn = "attendance.db"
`)

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig("/no/such/config.toml")
	assert.Error(t, err)
}

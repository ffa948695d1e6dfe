package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaultsAndEnvOverride(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: sqlite
  database: matterlab.db
gitlab:
  webhook_secret: from-file
`)
	t.Setenv("GITLAB_WEBHOOK_SECRET", "from-env")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Gitlab.WebhookSecret)
	assert.Equal(t, 10*time.Second, cfg.Gitlab.PageTimeout)
	assert.Equal(t, "*/30 * * * * *", cfg.Scheduler.ReminderCron)
	assert.True(t, cfg.Mattermost.Enabled)
	assert.False(t, cfg.Mattermost.LogMessages)
	assert.Equal(t, "matterlab.db", cfg.Database.GetDSN())
	assert.Same(t, cfg, GlobalConfig)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestGetDSN(t *testing.T) {
	pg := DatabaseConfig{Driver: "postgres", Host: "db", Port: 5432, Username: "u", Password: "p", Database: "ml", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=ml sslmode=disable", pg.GetDSN())

	my := DatabaseConfig{Driver: "mysql", Host: "db", Port: 3306, Username: "u", Password: "p", Database: "ml"}
	assert.Equal(t, "u:p@tcp(db:3306)/ml?charset=utf8mb4&parseTime=True&loc=Local", my.GetDSN())

	explicit := DatabaseConfig{Driver: "postgres", DSN: "postgres://x"}
	assert.Equal(t, "postgres://x", explicit.GetDSN())
}

func TestRootURL(t *testing.T) {
	t.Setenv("CI_ENVIRONMENT_DOMAIN", "")
	c := MattermostConfig{}
	assert.Equal(t, "http://localhost/mattermost", c.RootURL())

	c.AppRootURL = "https://apps.example.com/mattermost/"
	assert.Equal(t, "https://apps.example.com/mattermost", c.RootURL())

	t.Setenv("CI_ENVIRONMENT_DOMAIN", "review.example.com")
	assert.Equal(t, "https://review.example.com/mattermost", c.RootURL())
}

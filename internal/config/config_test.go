package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Veraticus/account-history/internal/common"
	"github.com/Veraticus/account-history/internal/ledger"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, ledger.DefaultAgingDays, cfg.History.AgingDays)
	assert.Equal(t, 500, cfg.Database.BatchSize)
	assert.True(t, strings.HasSuffix(cfg.Database.Path, filepath.Join("history", "history.db")))
}

func TestLoad_FromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
logging:
  level: DEBUG
  format: json
history:
  aging_days: 30
database:
  path: $HISTORY_TEST_DIR/archive.db
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	t.Setenv("HISTORY_TEST_DIR", "/tmp/history-test")

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 30, cfg.History.AgingDays)
	assert.Equal(t, "/tmp/history-test/archive.db", cfg.Database.Path)

	l, err := ledger.New(cfg.LedgerOptions()...)
	require.NoError(t, err)
	assert.Equal(t, 30, l.AgingDays())
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value any
	}{
		{name: "log level", key: "logging.level", value: "verbose"},
		{name: "log format", key: "logging.format", value: "xml"},
		{name: "aging window", key: "history.aging_days", value: 0},
		{name: "batch size", key: "database.batch_size", value: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			v.Set(tt.key, tt.value)

			_, err := Load(v)
			assert.ErrorIs(t, err, common.ErrInvalidConfig)
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("HISTORY_DIR", "/data")

	assert.Equal(t, "", ExpandPath(""))
	assert.Equal(t, home, ExpandPath("~"))
	assert.Equal(t, filepath.Join(home, "x.db"), ExpandPath("~/x.db"))
	assert.Equal(t, "/data/x.db", ExpandPath("$HISTORY_DIR/x.db"))
	assert.Equal(t, "/abs/x.db", ExpandPath("/abs/x.db"))
}

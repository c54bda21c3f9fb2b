// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 dbdock Contributors

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbdock/dbdock/pkg/errutil"
)

func TestLoad(t *testing.T) {
	t.Run("defaults without file or env", func(t *testing.T) {
		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, ":8080", cfg.Server.Addr)
		assert.Equal(t, "info", cfg.Log.Level)
		assert.Equal(t, 4, cfg.Verifier.Workers)
		assert.True(t, cfg.Docker.Enabled)
	})

	t.Run("missing file falls back to defaults", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		require.NoError(t, err)
		assert.Equal(t, ":8080", cfg.Server.Addr)
	})

	t.Run("file overrides defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "dbdock.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9999"
log:
  level: debug
verifier:
  workers: 8
`), 0o600))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, ":9999", cfg.Server.Addr)
		assert.Equal(t, "debug", cfg.Log.Level)
		assert.Equal(t, 8, cfg.Verifier.Workers)
		// Untouched keys keep their defaults.
		assert.Equal(t, "text", cfg.Log.Format)
	})

	t.Run("environment overrides file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "dbdock.yaml")
		require.NoError(t, os.WriteFile(path, []byte("server:\n  addr: \":9999\"\n"), 0o600))
		t.Setenv("DBDOCK_SERVER_ADDR", ":7777")
		t.Setenv("DBDOCK_LOG_LEVEL", "warn")

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, ":7777", cfg.Server.Addr)
		assert.Equal(t, "warn", cfg.Log.Level)
	})

	t.Run("malformed file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "dbdock.yaml")
		require.NoError(t, os.WriteFile(path, []byte("server: [not a map"), 0o600))

		_, err := Load(path)
		errutil.AssertErrorCode(t, err, "CONFIG_FILE_INVALID")
	})

	t.Run("invalid log level", func(t *testing.T) {
		t.Setenv("DBDOCK_LOG_LEVEL", "verbose")
		_, err := Load("")
		errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
	})
}

func TestValidate(t *testing.T) {
	t.Run("default config is valid", func(t *testing.T) {
		assert.NoError(t, Default().Validate())
	})

	t.Run("empty database URL", func(t *testing.T) {
		cfg := Default()
		cfg.Database.URL = ""
		errutil.AssertErrorCode(t, cfg.Validate(), "CONFIG_INVALID")
	})

	t.Run("negative verifier sizing", func(t *testing.T) {
		cfg := Default()
		cfg.Verifier.Workers = -1
		errutil.AssertErrorCode(t, cfg.Validate(), "CONFIG_INVALID")
	})
}

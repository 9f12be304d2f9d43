// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points the config directory at a temp home and clears overrides.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, key := range []string{
		"CHARTCHAT_SERVER_URL", "CHARTCHAT_TIMEOUT", "CHARTCHAT_LOG_LEVEL",
		"CHARTCHAT_CHART_DIR", "CHARTCHAT_MODE",
	} {
		t.Setenv(key, "")
	}
	return filepath.Join(home, ".chartchat")
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "http://localhost:8000", cfg.Server.URL)
	assert.Equal(t, []string{".csv"}, cfg.Dataset.Extensions)
	assert.Equal(t, 10, cfg.Dataset.PreviewRows)
}

func TestLoad_DefaultsWithoutFiles(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default().Server, cfg.Server)
}

func TestLoad_TOMLWinsOverJSON(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.MkdirAll(dir, 0755))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(`
[server]
url = "http://viz.internal:9000/"
timeout_secs = 15

[dataset]
extensions = [".csv", ".tsv"]
`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(`{"server":{"url":"http://json:1"}}`), 0644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://viz.internal:9000", cfg.Server.URL)
	assert.Equal(t, 15, cfg.Server.TimeoutSecs)
	assert.Equal(t, "/query", cfg.Server.QueryPath)
	assert.Equal(t, []string{".csv", ".tsv"}, cfg.Dataset.Extensions)
}

func TestLoad_JSONFallback(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(`{"ui":{"mode":"chat"}}`), 0644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "chat", cfg.UI.Mode)
}

func TestLoad_BrokenFileFallsBackToDefaults(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[server\nurl="), 0644))

	cfg, err := Load()
	require.Error(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, Default().Server.URL, cfg.Server.URL)
}

func TestLoad_EnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("CHARTCHAT_SERVER_URL", "https://charts.example.com")
	t.Setenv("CHARTCHAT_TIMEOUT", "5")
	t.Setenv("CHARTCHAT_LOG_LEVEL", "debug")
	t.Setenv("CHARTCHAT_CHART_DIR", "/tmp/charts")
	t.Setenv("CHARTCHAT_MODE", "chat")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://charts.example.com", cfg.Server.URL)
	assert.Equal(t, 5, cfg.Server.TimeoutSecs)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "/tmp/charts", cfg.ChartDir())
	assert.Equal(t, "chat", cfg.UI.Mode)
}

func TestLoad_InvalidOverrideFails(t *testing.T) {
	isolate(t)
	t.Setenv("CHARTCHAT_MODE", "gui")

	_, err := Load()
	require.Error(t, err)

	var verrs ValidateErrors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, "ui.mode", verrs[0].Field)
}

func TestLoadDotEnv(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("CHARTCHAT_DOTENV_PROBE=from-file\n"), 0644))

	// Registered so the variable is restored after the test.
	t.Setenv("CHARTCHAT_DOTENV_PROBE", "")
	require.NoError(t, os.Unsetenv("CHARTCHAT_DOTENV_PROBE"))

	LoadDotEnv()
	assert.Equal(t, "from-file", os.Getenv("CHARTCHAT_DOTENV_PROBE"))
}

func TestLoadDotEnv_DoesNotOverride(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("CHARTCHAT_SERVER_URL=http://from-file:1\n"), 0644))
	t.Setenv("CHARTCHAT_SERVER_URL", "http://from-env:2")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://from-env:2", cfg.Server.URL)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"bad scheme", func(c *Config) { c.Server.URL = "ftp://x" }, "server.url"},
		{"missing host", func(c *Config) { c.Server.URL = "http://" }, "server.url"},
		{"query path", func(c *Config) { c.Server.QueryPath = "query" }, "server.query_path"},
		{"timeout", func(c *Config) { c.Server.TimeoutSecs = -1 }, "server.timeout_secs"},
		{"no extensions", func(c *Config) { c.Dataset.Extensions = nil }, "dataset.extensions"},
		{"bad extension", func(c *Config) { c.Dataset.Extensions = []string{"csv"} }, "dataset.extensions"},
		{"preview rows", func(c *Config) { c.Dataset.PreviewRows = 0 }, "dataset.preview_rows"},
		{"theme", func(c *Config) { c.UI.Theme = "neon" }, "ui.theme"},
		{"log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)

			var verrs ValidateErrors
			require.True(t, errors.As(err, &verrs))
			assert.Equal(t, tt.field, verrs[0].Field)
		})
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	isolate(t)

	cfg := Default()
	cfg.Server.URL = "http://saved:8123"
	cfg.Chart.OpenBrowser = true
	require.NoError(t, Save(cfg))

	loaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://saved:8123", loaded.Server.URL)
	assert.True(t, loaded.Chart.OpenBrowser)
}

func TestSaveJSON_LoadFromPath(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "alt", "config.json")

	cfg := Default()
	cfg.Dataset.PreviewRows = 25
	require.NoError(t, SaveJSON(cfg, path))

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, 25, loaded.Dataset.PreviewRows)
}

func TestGetSet(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Set("server.timeout_secs", "30"))
	require.NoError(t, cfg.Set("chart.open_browser", "yes"))
	require.NoError(t, cfg.Set("dataset.extensions", ".csv, .tsv"))
	require.NoError(t, cfg.Set("server.url", "http://other:1"))

	v, err := cfg.Get("server.timeout_secs")
	require.NoError(t, err)
	assert.Equal(t, 30, v)
	assert.True(t, cfg.Chart.OpenBrowser)
	assert.Equal(t, []string{".csv", ".tsv"}, cfg.Dataset.Extensions)
	assert.Equal(t, "http://other:1", cfg.Server.URL)

	_, err = cfg.Get("server.nope")
	assert.Error(t, err)
	assert.Error(t, cfg.Set("server.url.host", "x"))
	assert.Error(t, cfg.Set("dataset.preview_rows", "many"))
}

func TestGetAllKeys(t *testing.T) {
	keys := GetAllKeys()
	assert.Contains(t, keys, "server.url")
	assert.Contains(t, keys, "dataset.extensions")
	assert.Contains(t, keys, "log.level")
	assert.Contains(t, keys, "version")

	cfg := Default()
	for _, key := range keys {
		_, err := cfg.Get(key)
		assert.NoError(t, err, key)
	}
}

func TestClientConfig(t *testing.T) {
	cfg := Default()
	cfg.Server.TimeoutSecs = 7

	cc := cfg.ClientConfig()
	assert.Equal(t, cfg.Server.URL, cc.BaseURL)
	assert.Equal(t, 7*time.Second, cc.Timeout)
	assert.Equal(t, 120*time.Second, cc.UploadTimeout)
}

func TestDerivedPaths(t *testing.T) {
	dir := isolate(t)
	cfg := Default()

	assert.Equal(t, filepath.Join(dir, "charts"), cfg.ChartDir())
	assert.Equal(t, filepath.Join(dir, "chartchat.log"), cfg.LogPath())
	assert.Equal(t, filepath.Join(dir, "history"), cfg.HistoryPath())

	cfg.Log.Path = "off"
	assert.Empty(t, cfg.LogPath())
	assert.Equal(t, int64(50*1024*1024), cfg.MaxFileBytes())
}

func TestClone_IsDeep(t *testing.T) {
	cfg := Default()
	clone := cfg.Clone()
	clone.Dataset.Extensions[0] = ".tsv"
	assert.Equal(t, ".csv", cfg.Dataset.Extensions[0])
}

// =============================================================================
// GLOBAL CONFIG
// =============================================================================

// TestConfig_ConcurrentAccess tests that Global() and SetGlobal() can be
// safely called concurrently.
func TestConfig_ConcurrentAccess(t *testing.T) {
	isolate(t)
	ResetGlobalForTesting()
	t.Cleanup(ResetGlobalForTesting)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			SetGlobal(Default())
		}()
		go func() {
			defer wg.Done()
			if Global() == nil {
				t.Error("Global() returned nil")
			}
		}()
	}
	wg.Wait()
}

func TestConfig_ConcurrentReload(t *testing.T) {
	isolate(t)
	ResetGlobalForTesting()
	t.Cleanup(ResetGlobalForTesting)
	_ = Global()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = ReloadGlobal()
		}()
	}
	for i := 0; i < 80; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if Global() == nil {
				t.Error("Global() returned nil")
			}
		}()
	}
	wg.Wait()
}

func TestConfig_SetGlobalOverwrites(t *testing.T) {
	isolate(t)
	ResetGlobalForTesting()
	t.Cleanup(ResetGlobalForTesting)

	custom := Default()
	custom.Server.URL = "http://custom:1"
	SetGlobal(custom)

	assert.Equal(t, "http://custom:1", Global().Server.URL)
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `{
		"port": 8080,
		"search": {"data": {"api_key": "tvly"}},
		"ai": {"providers": [{"provider": "gemini", "model": "gemini-2.0-flash", "data": {"api_key": "g"}}]}
	}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "tavily", cfg.Search.Provider)
	require.Equal(t, "advanced", cfg.Search.Depth)
	require.Equal(t, 5, cfg.Search.MaxResults)
	require.Equal(t, "gemini", cfg.AI.Providers[0].Name)
	require.Equal(t, float32(0.2), *cfg.AI.Temperature)
	require.Equal(t, 50, cfg.History.MaxItems)
	require.Equal(t, "queryHistory", cfg.History.Key)
	require.Equal(t, "local", cfg.History.Store.Type)
	require.Equal(t, "info", cfg.LogConfig.Level)
	require.True(t, Enabled(cfg.Search.Fallback))
	require.Empty(t, cfg.Search.Topic)
	require.Zero(t, cfg.Search.Days)
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, `{
		"port": 8080,
		"search": {"data": {"api_key": ""}},
		"ai": {"providers": [{"provider": "openai", "model": "gpt-4o-mini"}]}
	}`)
	t.Setenv("CURIO_PORT", "9090")
	t.Setenv("CURIO_SEARCH_DATA_API_KEY", "from-env")
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 9090, cfg.Port)
	data, ok := cfg.Search.Data.(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, "from-env", data["api_key"])
}

func TestLoadValidation(t *testing.T) {
	cases := map[string]string{
		"missing port":   `{"ai": {"providers": [{"provider": "gemini", "model": "m"}]}}`,
		"no providers":   `{"port": 1}`,
		"no model":       `{"port": 1, "ai": {"providers": [{"provider": "gemini"}]}}`,
		"bad topic":      `{"port": 1, "search": {"topic": "sports"}, "ai": {"providers": [{"provider": "gemini", "model": "m"}]}}`,
		"negative days":  `{"port": 1, "search": {"days": -1}, "ai": {"providers": [{"provider": "gemini", "model": "m"}]}}`,
		"bad depth":      `{"port": 1, "search": {"depth": "deep"}, "ai": {"providers": [{"provider": "gemini", "model": "m"}]}}`,
		"bad backup fmt": `{"port": 1, "backup": {"enabled": true, "format": "xml"}, "ai": {"providers": [{"provider": "gemini", "model": "m"}]}}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			require.Error(t, err)
		})
	}
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func TestBackupInheritsHistoryStore(t *testing.T) {
	path := writeConfig(t, `{
		"port": 1,
		"history": {"store": {"type": "sqlite", "data": {"dsn": "curio.db"}}},
		"backup": {"enabled": true, "format": "yaml"},
		"ai": {"providers": [{"provider": "gemini", "model": "m"}]}
	}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "sqlite", cfg.Backup.Store.Type)
	require.Equal(t, "0 3 * * *", cfg.Backup.Spec)
	require.Equal(t, "queryHistory-backup", cfg.Backup.Key)
}

func TestBackupKeyMustNotShadowHistory(t *testing.T) {
	path := writeConfig(t, `{
		"port": 1,
		"history": {"key": "queryHistory"},
		"backup": {"enabled": true, "format": "yaml", "key": "queryHistory"},
		"ai": {"providers": [{"provider": "gemini", "model": "m"}]}
	}`)
	_, err := Load(path)
	require.Error(t, err)

	path = writeConfig(t, `{
		"port": 1,
		"history": {"key": "queryHistory"},
		"backup": {"key": "queryHistory", "store": {"type": "local", "data": {"dir": "backups"}}},
		"ai": {"providers": [{"provider": "gemini", "model": "m"}]}
	}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "backups", cfg.Backup.Store.Data.(map[string]interface{})["dir"])
}

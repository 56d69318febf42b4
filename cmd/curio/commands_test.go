package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/curio/internal/config"
	"github.com/xxxsen/curio/internal/model"
)

func newUpstreams(t *testing.T, answer string) (searchURL, aiURL string) {
	t.Helper()
	searchSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"query":"q","results":[
			{"title":"Go","url":"https://go.dev/doc","content":"go docs"},
			{"title":"Blog","url":"https://www.example.com/go","content":"blog"}]}`))
	}))
	t.Cleanup(searchSrv.Close)
	aiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{{"message": map[string]string{"content": answer}}},
		})
	}))
	t.Cleanup(aiSrv.Close)
	return searchSrv.URL, aiSrv.URL
}

func writeConfig(t *testing.T, searchURL, aiURL string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	raw := fmt.Sprintf(`{
		"port": 8080,
		"search": {"provider": "tavily", "fallback": false, "data": {"api_key": "k", "base_url": %q}},
		"ai": {"fallback": false, "providers": [{"provider": "openai", "model": "gpt", "data": {"api_key": "k", "base_url": %q}}]},
		"history": {"store": {"type": "local", "data": {"dir": %q}}}
	}`, searchURL, aiURL, filepath.Join(dir, "data"))
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))
	cfg, err := config.Load(path)
	require.NoError(t, err)
	return cfg
}

func TestAskThenHistoryCommands(t *testing.T) {
	searchURL, aiURL := newUpstreams(t, "Go is a language [1].")
	cfg := writeConfig(t, searchURL, aiURL)
	ctx := context.Background()

	var out bytes.Buffer
	require.NoError(t, runAsk(ctx, cfg, &out, "what is go"))
	require.Contains(t, out.String(), "Go is a language [1].")
	require.Contains(t, out.String(), "*[1] Go (go.dev)")
	require.Contains(t, out.String(), " [2] Blog (example.com)")

	out.Reset()
	require.NoError(t, runHistoryList(ctx, cfg, &out))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 1)
	require.Contains(t, lines[0], "just now\t-\twhat is go")

	out.Reset()
	require.NoError(t, runHistoryExport(ctx, cfg, &out, "json"))
	var items []model.QueryResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &items))
	require.Len(t, items, 1)
	require.Len(t, items[0].Sources, 2)

	require.NoError(t, runHistoryBackup(ctx, cfg))
	dir := cfg.History.Store.Data.(map[string]interface{})["dir"].(string)
	_, err := os.Stat(filepath.Join(dir, "queryHistory-backup.json"))
	require.NoError(t, err)
}

func TestAskFailureReturnsError(t *testing.T) {
	searchURL, _ := newUpstreams(t, "")
	aiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer aiSrv.Close()
	cfg := writeConfig(t, searchURL, aiSrv.URL)

	var out bytes.Buffer
	require.Error(t, runAsk(context.Background(), cfg, &out, "what is go"))
	require.Contains(t, out.String(), "I'm sorry, but I encountered an error")
	require.Error(t, runAsk(context.Background(), cfg, &out, ""))
}

func TestPrintResultWithoutSources(t *testing.T) {
	var out bytes.Buffer
	printResult(&out, model.QueryResult{Answer: "plain"})
	require.Equal(t, "plain\n", out.String())
}

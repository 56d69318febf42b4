package config

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"github.com/xxxsen/common/logger"
)

const EnvPrefix = "CURIO"

type Config struct {
	Port          int              `json:"port"`
	LogConfig     logger.LogConfig `json:"log_config"`
	CORSAllowlist []string         `json:"cors_allowlist"`
	AskInterval   int              `json:"ask_interval_ms"`
	Search        SearchConfig     `json:"search"`
	AI            AIConfig         `json:"ai"`
	History       HistoryConfig    `json:"history"`
	Render        RenderConfig     `json:"render"`
	Backup        BackupConfig     `json:"backup"`
}

type SearchConfig struct {
	Provider   string      `json:"provider"`
	Depth      string      `json:"depth"`
	MaxResults int         `json:"max_results"`
	Topic      string      `json:"topic"`
	Days       int         `json:"days"`
	Fallback   *bool       `json:"fallback"`
	CacheSize  int         `json:"cache_size"`
	CacheTTL   int         `json:"cache_ttl"`
	Data       interface{} `json:"data"`
}

type AIConfig struct {
	Providers   []AIProviderConfig `json:"providers"`
	Timeout     int                `json:"timeout"`
	Temperature *float32           `json:"temperature"`
	TopP        *float32           `json:"top_p"`
	TopK        *float32           `json:"top_k"`
	MaxTokens   int32              `json:"max_tokens"`
	Fallback    *bool              `json:"fallback"`
}

type AIProviderConfig struct {
	Name     string      `json:"name"`
	Provider string      `json:"provider"`
	Model    string      `json:"model"`
	Data     interface{} `json:"data"`
}

type HistoryConfig struct {
	MaxItems int         `json:"max_items"`
	Key      string      `json:"key"`
	Store    StoreConfig `json:"store"`
}

type StoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type RenderConfig struct {
	CacheSize      int `json:"cache_size"`
	CacheTTL       int `json:"cache_ttl"`
	PreviewSources int `json:"preview_sources"`
}

type BackupConfig struct {
	Enabled bool        `json:"enabled"`
	Spec    string      `json:"spec"`
	Format  string      `json:"format"`
	Key     string      `json:"key"`
	Store   StoreConfig `json:"store"`
}

// Load reads a JSON config file. Any key present in the file can be
// overridden by an env var, e.g. CURIO_SEARCH_DATA_API_KEY for search.data.api_key.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "json"
	}); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) applyDefaults() error {
	if cfg.Port == 0 {
		return fmt.Errorf("port is required")
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.Search.Provider == "" {
		cfg.Search.Provider = "tavily"
	}
	switch cfg.Search.Depth {
	case "":
		cfg.Search.Depth = "advanced"
	case "basic", "advanced":
	default:
		return fmt.Errorf("search.depth must be basic or advanced")
	}
	if cfg.Search.MaxResults <= 0 {
		cfg.Search.MaxResults = 5
	}
	switch cfg.Search.Topic {
	case "", "general", "news":
	default:
		return fmt.Errorf("search.topic must be general or news")
	}
	if cfg.Search.Days < 0 {
		return fmt.Errorf("search.days must not be negative")
	}
	if len(cfg.AI.Providers) == 0 {
		return fmt.Errorf("ai.providers is required")
	}
	for i, p := range cfg.AI.Providers {
		if p.Provider == "" {
			return fmt.Errorf("ai.providers[%d].provider is required", i)
		}
		if p.Model == "" {
			return fmt.Errorf("ai.providers[%d].model is required", i)
		}
		if p.Name == "" {
			cfg.AI.Providers[i].Name = p.Provider
		}
	}
	if cfg.AI.Timeout <= 0 {
		cfg.AI.Timeout = 60
	}
	if cfg.AI.Temperature == nil {
		t := float32(0.2)
		cfg.AI.Temperature = &t
	}
	if cfg.History.MaxItems <= 0 {
		cfg.History.MaxItems = 50
	}
	if cfg.History.Key == "" {
		cfg.History.Key = "queryHistory"
	}
	if cfg.History.Store.Type == "" {
		cfg.History.Store.Type = "local"
	}
	if cfg.History.Store.Type == "local" && cfg.History.Store.Data == nil {
		cfg.History.Store.Data = map[string]interface{}{"dir": "data"}
	}
	if cfg.Backup.Spec == "" {
		cfg.Backup.Spec = "0 3 * * *"
	}
	switch cfg.Backup.Format {
	case "":
		cfg.Backup.Format = "json"
	case "json", "yaml":
	default:
		return fmt.Errorf("backup.format must be json or yaml")
	}
	if cfg.Backup.Key == "" {
		cfg.Backup.Key = cfg.History.Key + "-backup"
	}
	if cfg.Backup.Store.Type == "" {
		cfg.Backup.Store = cfg.History.Store
	}
	if cfg.Backup.Key == cfg.History.Key && reflect.DeepEqual(cfg.Backup.Store, cfg.History.Store) {
		return fmt.Errorf("backup.key must differ from history.key when both share a store")
	}
	return nil
}

func (cfg *Config) AskIntervalDuration() time.Duration {
	return time.Duration(cfg.AskInterval) * time.Millisecond
}

func Enabled(flag *bool) bool {
	return flag == nil || *flag
}

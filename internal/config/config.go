package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server  ServerConfig  `koanf:"server"`
	OpenAI  OpenAIConfig  `koanf:"openai"`
	Board   BoardConfig   `koanf:"board"`
	Storage StorageConfig `koanf:"storage"`
	Scan    ScanConfig    `koanf:"scan"`
}

type ServerConfig struct {
	Port           int      `koanf:"port"`
	AllowedOrigins []string `koanf:"allowed_origins"`
}

type OpenAIConfig struct {
	APIKey      string `koanf:"api_key"`
	BaseURL     string `koanf:"base_url"`
	AssistantID string `koanf:"assistant_id"`
}

// BoardConfig points the frontend at the external signal board
// (spreadsheet or similar) where curated signals are managed.
type BoardConfig struct {
	URL string `koanf:"url"`
}

type StorageConfig struct {
	// Path is the SQLite database path. Empty selects the in-memory store.
	Path string `koanf:"path"`
}

type ScanConfig struct {
	PollInterval time.Duration `koanf:"poll_interval"`
	PollTimeout  time.Duration `koanf:"poll_timeout"`
	DedupeLimit  int           `koanf:"dedupe_limit"`
}

// Load reads configuration from an optional YAML file followed by
// HORIZON_-prefixed environment variables (env wins). path may be empty,
// in which case only env and defaults apply.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("load config file %s: %w", path, err)
			}
		}
	}

	// Environment variables. HORIZON_OPENAI_API_KEY splits on every
	// underscore, so fold the known multi-word leaf keys back together
	// after lowering.
	if err := k.Load(env.Provider("HORIZON_", ".", func(s string) string {
		key := strings.Replace(strings.ToLower(strings.TrimPrefix(s, "HORIZON_")), "_", ".", -1)
		return foldEnvKey(key)
	}), nil); err != nil {
		return nil, err
	}

	// Default values
	if !k.Exists("server.port") {
		k.Set("server.port", 8080)
	}
	if !k.Exists("server.allowed_origins") {
		k.Set("server.allowed_origins", []string{"*"})
	}
	if !k.Exists("scan.poll_interval") {
		k.Set("scan.poll_interval", "1s")
	}
	if !k.Exists("scan.poll_timeout") {
		k.Set("scan.poll_timeout", "2m")
	}
	if !k.Exists("scan.dedupe_limit") {
		k.Set("scan.dedupe_limit", 50)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

var envKeyFolds = map[string]string{
	"server.allowed.origins": "server.allowed_origins",
	"openai.api.key":         "openai.api_key",
	"openai.base.url":        "openai.base_url",
	"openai.assistant.id":    "openai.assistant_id",
	"scan.poll.interval":     "scan.poll_interval",
	"scan.poll.timeout":      "scan.poll_timeout",
	"scan.dedupe.limit":      "scan.dedupe_limit",
}

func foldEnvKey(key string) string {
	if folded, ok := envKeyFolds[key]; ok {
		return folded
	}
	return key
}

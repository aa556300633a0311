package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (DOCCHAT_*).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	// Overlay environment variables: DOCCHAT_UPSTREAM_URL -> upstream_url, etc.
	if err := k.Load(env.Provider("DOCCHAT_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "DOCCHAT_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// validEmbeddings is the set of recognized embedding values.
var validEmbeddings = map[EmbeddingType]bool{
	EmbeddingOpenAI: true,
	EmbeddingLocal:  true,
}

// validFailModes is the set of recognized access fail modes.
var validFailModes = map[AccessFailMode]bool{
	FailOpen:   true,
	FailClosed: true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.UpstreamURL == "" {
		return fmt.Errorf("upstream_url is required")
	}
	if !strings.HasPrefix(c.UpstreamURL, "http://") && !strings.HasPrefix(c.UpstreamURL, "https://") {
		return fmt.Errorf("upstream_url %q must be an http(s) URL", c.UpstreamURL)
	}

	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}

	if c.Embedding != "" && !validEmbeddings[c.Embedding] {
		return fmt.Errorf("invalid embedding %q: must be one of openai, local", c.Embedding)
	}

	if c.AccessFail != "" && !validFailModes[c.AccessFail] {
		return fmt.Errorf("invalid access_fail %q: must be one of open, closed", c.AccessFail)
	}

	if c.DocumentTTL <= 0 {
		return fmt.Errorf("document_ttl must be positive")
	}
	if c.OwnerTTL <= 0 {
		return fmt.Errorf("owner_ttl must be positive")
	}

	if c.CacheVersion == "" {
		return fmt.Errorf("cache_version is required")
	}

	if c.ChatTimeout <= 0 {
		return fmt.Errorf("chat_timeout must be positive")
	}

	return nil
}

package config

import "time"

// DefaultConfig returns a Config with sensible defaults.
//
// Document lookups are cached for five minutes and owner branding for ten;
// both windows were tuned against the admin edit flow, where a shorter
// document TTL keeps stale titles from lingering after an inline edit.
func DefaultConfig() *Config {
	return &Config{
		UpstreamURL:      "http://localhost:8000",
		Port:             3080,
		DataDir:          ".docchat",
		Embedding:        EmbeddingOpenAI,
		Model:            "",
		AccessFail:       FailOpen,
		DocumentTTL:      5 * time.Minute,
		OwnerTTL:         10 * time.Minute,
		CacheVersion:     "v3",
		ChatTimeout:      60 * time.Second,
		AllowAllOrigins:  false,
		PlaceholderImage: "/static/img/document-placeholder.png",
	}
}

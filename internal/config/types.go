package config

import "time"

// EmbeddingType selects which embedding index the upstream RAG API queries.
type EmbeddingType string

const (
	EmbeddingOpenAI EmbeddingType = "openai"
	EmbeddingLocal  EmbeddingType = "local"
)

// AccessFailMode controls what happens when a permission check fails at the
// transport level (upstream unreachable, timeout, malformed response).
type AccessFailMode string

const (
	// FailOpen treats transport errors as granted access. This keeps public
	// documents reachable while the permission service is down and matches
	// the product's historical behavior. It is the default.
	FailOpen AccessFailMode = "open"

	// FailClosed treats transport errors as denied access.
	FailClosed AccessFailMode = "closed"
)

// Config is the top-level docchat configuration, corresponding to .docchat.yml.
type Config struct {
	UpstreamURL      string         `yaml:"upstream_url" koanf:"upstream_url"`
	Port             int            `yaml:"port" koanf:"port"`
	DataDir          string         `yaml:"data_dir" koanf:"data_dir"`
	Embedding        EmbeddingType  `yaml:"embedding" koanf:"embedding"`
	Model            string         `yaml:"model" koanf:"model"`
	AccessFail       AccessFailMode `yaml:"access_fail" koanf:"access_fail"`
	DocumentTTL      time.Duration  `yaml:"document_ttl" koanf:"document_ttl"`
	OwnerTTL         time.Duration  `yaml:"owner_ttl" koanf:"owner_ttl"`
	CacheVersion     string         `yaml:"cache_version" koanf:"cache_version"`
	ChatTimeout      time.Duration  `yaml:"chat_timeout" koanf:"chat_timeout"`
	AllowAllOrigins  bool           `yaml:"allow_all_origins" koanf:"allow_all_origins"`
	PlaceholderImage string         `yaml:"placeholder_image" koanf:"placeholder_image"`
}

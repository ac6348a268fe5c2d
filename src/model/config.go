package model

import "time"

// ----------------------------------------------------
// ================ Config ================
// Config is the full process configuration. Values are layered:
// defaults, then the YAML file, then environment variables.
// Environment names are SECTION_FIELD (AGENT_MODEL, SERVER_PORT, ...).
// An explicit envconfig tag also makes the bare name a fallback (API_KEY, REDIS_URL).
type Config struct {
	Log     LogConfig     `yaml:"log" envconfig:"LOG"`
	Agent   AgentConfig   `yaml:"agent" envconfig:"AGENT"`
	Server  ServerConfig  `yaml:"server" envconfig:"SERVER"`
	Storage StorageConfig `yaml:"storage" envconfig:"STORAGE"`
}

// LogConfig controls the zerolog logger
type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`                        // json, console
	Output     string `yaml:"output"`                        // stdout, stderr, file
	FilePath   string `yaml:"file_path" split_words:"true"`   // used when Output is file
	TimeFormat string `yaml:"time_format" split_words:"true"` // rfc3339, unix, iso8601
}

// AgentConfig holds the model and memory settings of the agent
type AgentConfig struct {
	Provider    string        `yaml:"provider"` // openai, deepseek, ark, ollama
	APIKey      string        `yaml:"-" envconfig:"API_KEY"`
	BaseURL     string        `yaml:"base_url" split_words:"true"`
	Model       string        `yaml:"model"`
	Temperature float64       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens" split_words:"true"`
	Timeout     time.Duration `yaml:"model_timeout" envconfig:"MODEL_TIMEOUT"`

	MaxMemorySize       int `yaml:"max_memory_size" split_words:"true"`
	ContextWindow       int `yaml:"context_window" split_words:"true"`
	SessionHistoryLimit int `yaml:"session_history_limit" split_words:"true"` // 0 keeps everything
	SnippetLength       int `yaml:"snippet_length" split_words:"true"`
}

// ServerConfig holds HTTP listener settings
type ServerConfig struct {
	Host          string        `yaml:"host"`
	Port          int           `yaml:"port"`
	ReadTimeout   time.Duration `yaml:"read_timeout" split_words:"true"`
	WriteTimeout  time.Duration `yaml:"write_timeout" split_words:"true"`
	AllowedOrigin string        `yaml:"allowed_origin" split_words:"true"`
}

// StorageConfig selects where session snapshots are archived
type StorageConfig struct {
	RedisURL   string        `yaml:"redis_url" envconfig:"REDIS_URL"`
	ArchiveTTL time.Duration `yaml:"archive_ttl" split_words:"true"`
	ArchiveDir string        `yaml:"archive_dir" split_words:"true"`
}

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"productivity_agent/src/model"
)

// ErrInvalidConfig is returned by Validate for out-of-range settings
var ErrInvalidConfig = errors.New("invalid config")

// Providers the responder knows how to build
var Providers = map[string]bool{
	"openai":   true,
	"deepseek": true,
	"ark":      true,
	"ollama":   true,
}

// Defaults returns the configuration used when nothing else is set
func Defaults() model.Config {
	return model.Config{
		Log: model.LogConfig{
			Level:      "info",
			Format:     "json",
			Output:     "stdout",
			FilePath:   "logs/agent.log",
			TimeFormat: "rfc3339",
		},
		Agent: model.AgentConfig{
			Provider:            "openai",
			BaseURL:             "https://openrouter.ai/api/v1",
			Model:               "google/gemini-2.0-flash-001",
			Temperature:         0.7,
			MaxTokens:           2000,
			Timeout:             30 * time.Second,
			MaxMemorySize:       100,
			ContextWindow:       3,
			SessionHistoryLimit: 0,
			SnippetLength:       100,
		},
		Server: model.ServerConfig{
			Host:          "0.0.0.0",
			Port:          5000,
			ReadTimeout:   30 * time.Second,
			WriteTimeout:  60 * time.Second,
			AllowedOrigin: "*",
		},
		Storage: model.StorageConfig{
			ArchiveTTL: 40 * time.Minute,
		},
	}
}

// LoadYAML overlays the YAML file at filepath onto cfg.
// Keys missing from the file keep their current value. A missing file is not an error.
func LoadYAML(filepath string, cfg *model.Config) (bool, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return false, fmt.Errorf("error parsing YAML: %w", err)
	}

	return true, nil
}

// Validate normalises cfg and rejects values the agent cannot run with
func Validate(cfg *model.Config) error {
	cfg.Agent.Provider = strings.ToLower(strings.TrimSpace(cfg.Agent.Provider))
	if !Providers[cfg.Agent.Provider] {
		return fmt.Errorf("%w: unknown provider %q", ErrInvalidConfig, cfg.Agent.Provider)
	}
	if cfg.Agent.MaxMemorySize <= 0 {
		return fmt.Errorf("%w: max_memory_size must be positive, got %d", ErrInvalidConfig, cfg.Agent.MaxMemorySize)
	}
	if cfg.Agent.ContextWindow <= 0 {
		return fmt.Errorf("%w: context_window must be positive, got %d", ErrInvalidConfig, cfg.Agent.ContextWindow)
	}
	if cfg.Agent.SnippetLength <= 0 {
		return fmt.Errorf("%w: snippet_length must be positive, got %d", ErrInvalidConfig, cfg.Agent.SnippetLength)
	}
	if cfg.Agent.SessionHistoryLimit < 0 {
		return fmt.Errorf("%w: session_history_limit cannot be negative", ErrInvalidConfig)
	}
	if cfg.Agent.Timeout <= 0 {
		return fmt.Errorf("%w: model_timeout must be positive", ErrInvalidConfig)
	}
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, cfg.Server.Port)
	}
	return nil
}

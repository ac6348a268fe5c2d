package src

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"

	"productivity_agent/internal/config"
	"productivity_agent/src/model"
)

const (
	// DefaultConfigFile is read when AGENT_CONFIG_FILE is not set
	DefaultConfigFile = "config.yaml"
	// OpenRouterKeyEnv is consulted when neither AGENT_API_KEY nor API_KEY is set
	OpenRouterKeyEnv = "OPENROUTER_API_KEY"
)

// LoadConfig builds the process configuration from defaults, the YAML file at path
// and the environment, in that order of precedence.
func LoadConfig(path string) (*model.Config, error) {
	cfg := config.Defaults()

	if path != "" {
		if _, err := config.LoadYAML(path, &cfg); err != nil {
			return nil, err
		}
	}

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("error processing environment configuration: %w", err)
	}
	if cfg.Agent.APIKey == "" {
		cfg.Agent.APIKey = os.Getenv(OpenRouterKeyEnv)
	}

	if err := config.Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

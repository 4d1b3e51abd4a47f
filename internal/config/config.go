// Package config loads runtime settings from an optional YAML file and then
// from environment variables. Every field has a default, so the service
// starts with no configuration at all.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Model providers.
const (
	ProviderBedrock = "bedrock"
	ProviderOpenAI  = "openai"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config holds runtime configuration.
type Config struct {
	Server Server `yaml:"server"`
	Model  Model  `yaml:"model"`
	OpenAI OpenAI `yaml:"openai"`
	Agent  Agent  `yaml:"agent"`
}

// Server configures the HTTP listener and the identity reported to MCP clients.
type Server struct {
	Addr    string `yaml:"addr"`    // PORT overrides as ":<port>"
	Name    string `yaml:"name"`    // MCP serverInfo.name
	Version string `yaml:"version"` // MCP serverInfo.version
}

// Model selects the remote language model.
type Model struct {
	Provider    string   `yaml:"provider"`    // CAMCHECK_MODEL_PROVIDER
	ID          string   `yaml:"id"`          // CAMCHECK_MODEL_ID
	Region      string   `yaml:"region"`      // AWS_REGION
	MaxTokens   int      `yaml:"max_tokens"`  // 0 = provider default
	Temperature *float32 `yaml:"temperature"` // nil = provider default
}

// OpenAI configures the OpenAI-compatible provider.
type OpenAI struct {
	APIKey  string `yaml:"api_key"`  // OPENAI_API_KEY
	BaseURL string `yaml:"base_url"` // OPENAI_BASE_URL
}

// Agent configures the lookup agent itself.
type Agent struct {
	ReferencePath  string        `yaml:"reference_path"`  // CAMCHECK_REFERENCE_PATH
	RequestTimeout time.Duration `yaml:"request_timeout"` // CAMCHECK_REQUEST_TIMEOUT, 0 = none
}

const (
	envKeyPort           = "PORT"
	envKeyProvider       = "CAMCHECK_MODEL_PROVIDER"
	envKeyModelID        = "CAMCHECK_MODEL_ID"
	envKeyRegion         = "AWS_REGION"
	envKeyOpenAIKey      = "OPENAI_API_KEY"
	envKeyOpenAIBaseURL  = "OPENAI_BASE_URL"
	envKeyReferencePath  = "CAMCHECK_REFERENCE_PATH"
	envKeyRequestTimeout = "CAMCHECK_REQUEST_TIMEOUT"
)

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: Server{
			Addr:    ":8080",
			Name:    "elgato-hdmi-camera-check",
			Version: "1.0.0",
		},
		Model: Model{
			Provider: ProviderBedrock,
			ID:       "amazon.nova-lite-v1:0",
			Region:   "us-west-2",
		},
		Agent: Agent{
			ReferencePath: "cameras.json",
		},
	}
}

// Load applies the YAML file at path (if it exists) over the defaults, then
// environment overrides, then validates. ${VAR} references in the file are
// expanded. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			// Defaults only.
		case err != nil:
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(raw))), &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if port := os.Getenv(envKeyPort); port != "" {
		c.Server.Addr = ":" + port
	}
	c.Model.Provider = envOr(envKeyProvider, c.Model.Provider)
	c.Model.ID = envOr(envKeyModelID, c.Model.ID)
	c.Model.Region = envOr(envKeyRegion, c.Model.Region)
	c.OpenAI.APIKey = envOr(envKeyOpenAIKey, c.OpenAI.APIKey)
	c.OpenAI.BaseURL = envOr(envKeyOpenAIBaseURL, c.OpenAI.BaseURL)
	c.Agent.ReferencePath = envOr(envKeyReferencePath, c.Agent.ReferencePath)

	if v := os.Getenv(envKeyRequestTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalid, envKeyRequestTimeout, err)
		}
		c.Agent.RequestTimeout = d
	}
	return nil
}

// Validate checks the settings the service cannot start without.
func (c Config) Validate() error {
	var errs []error
	switch c.Model.Provider {
	case ProviderBedrock:
		if c.Model.Region == "" {
			errs = append(errs, errors.New("model.region is required for bedrock"))
		}
	case ProviderOpenAI:
		if c.OpenAI.APIKey == "" {
			errs = append(errs, errors.New("openai.api_key is required for openai"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown model.provider %q", c.Model.Provider))
	}
	if c.Model.ID == "" {
		errs = append(errs, errors.New("model.id is required"))
	}
	if c.Model.MaxTokens < 0 {
		errs = append(errs, errors.New("model.max_tokens must not be negative"))
	}
	if c.Agent.ReferencePath == "" {
		errs = append(errs, errors.New("agent.reference_path is required"))
	}
	if c.Agent.RequestTimeout < 0 {
		errs = append(errs, errors.New("agent.request_timeout must not be negative"))
	}
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

// envOr returns the value of the environment variable key, or fallback if not set.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

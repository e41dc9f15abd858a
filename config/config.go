package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ProviderConfig configures one hosted LLM provider.
type ProviderConfig struct {
	APIKey       string  `yaml:"api_key,omitempty" env:"API_KEY"`
	Model        string  `yaml:"model,omitempty" env:"MODEL"`
	MaxTokens    int64   `yaml:"max_tokens,omitempty" env:"MAX_TOKENS"`
	Temperature  float64 `yaml:"temperature,omitempty" env:"TEMPERATURE"`
	BaseURL      string  `yaml:"base_url,omitempty" env:"BASE_URL"`   // Empty means the SDK default
	Organization string  `yaml:"organization,omitempty" env:"ORG_ID"` // OpenAI only
}

// OllamaConfig configures a local Ollama server. It is enabled only when a
// model is named.
type OllamaConfig struct {
	Host        string  `yaml:"host,omitempty" env:"HOST"`
	Model       string  `yaml:"model,omitempty" env:"MODEL"`
	MaxTokens   int64   `yaml:"max_tokens,omitempty" env:"MAX_TOKENS"`
	Temperature float64 `yaml:"temperature,omitempty" env:"TEMPERATURE"`
}

// ServerConfig represents the configuration of the multichatd daemon.
type ServerConfig struct {
	HTTPAddr     string `yaml:"http_addr,omitempty" env:"HTTP_ADDR"`
	DatabasePath string `yaml:"database_path,omitempty" env:"DATABASE_PATH"`
	PepperFile   string `yaml:"pepper_file,omitempty" env:"PEPPER_FILE"`

	// Sessions
	SessionSecret   string `yaml:"session_secret,omitempty" env:"SESSION_SECRET"`
	SessionTTLHours int    `yaml:"session_ttl_hours,omitempty" env:"SESSION_TTL_HOURS"`

	// Chat behavior
	HistoryTurns int  `yaml:"chat_history_turns,omitempty" env:"CHAT_HISTORY_TURNS"`
	DebugReplies bool `yaml:"chat_debug_replies,omitempty" env:"CHAT_DEBUG_REPLIES"`

	// Logging
	LogLevel  string `yaml:"log_level,omitempty" env:"LOG_LEVEL"`
	LogFile   string `yaml:"log_file,omitempty" env:"LOG_FILE"`
	LogPretty bool   `yaml:"log_pretty,omitempty" env:"LOG_PRETTY"`

	// LLM providers
	OpenAI   ProviderConfig `yaml:"openai,omitempty" envPrefix:"OPENAI_"`
	Gemini   ProviderConfig `yaml:"gemini,omitempty" envPrefix:"GEMINI_"`
	Claude   ProviderConfig `yaml:"claude,omitempty" envPrefix:"CLAUDE_"`
	Grok     ProviderConfig `yaml:"grok,omitempty" envPrefix:"GROK_"`
	DeepSeek ProviderConfig `yaml:"deepseek,omitempty" envPrefix:"DEEPSEEK_"`
	Mistral  ProviderConfig `yaml:"mistral,omitempty" envPrefix:"MISTRAL_"`
	Llama    ProviderConfig `yaml:"llama,omitempty" envPrefix:"LLAMA_"`
	Qwen     ProviderConfig `yaml:"qwen,omitempty" envPrefix:"QWEN_"`
	Ollama   OllamaConfig   `yaml:"ollama,omitempty" envPrefix:"OLLAMA_"`
}

// SessionTTL returns the session lifetime.
func (c *ServerConfig) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLHours) * time.Hour
}

// Validate reports settings the daemon cannot run with.
func (c *ServerConfig) Validate() error {
	var errs []error
	if c.HTTPAddr == "" {
		errs = append(errs, errors.New("http_addr is required"))
	}
	if c.DatabasePath == "" {
		errs = append(errs, errors.New("database_path is required"))
	}
	if c.PepperFile == "" {
		errs = append(errs, errors.New("pepper_file is required"))
	}
	if c.SessionTTLHours <= 0 {
		errs = append(errs, fmt.Errorf("session_ttl_hours must be positive, got %d", c.SessionTTLHours))
	}
	if c.HistoryTurns < 0 {
		errs = append(errs, fmt.Errorf("chat_history_turns must not be negative, got %d", c.HistoryTurns))
	}
	for _, p := range providerTable {
		if pc := p.config(c); pc.MaxTokens <= 0 {
			errs = append(errs, fmt.Errorf("%s: max_tokens must be positive, got %d", p.route, pc.MaxTokens))
		}
	}
	return errors.Join(errs...)
}

// GetServerConfigPath returns the default server config file path.
// Can be overridden via MULTICHAT_CONFIG environment variable.
func GetServerConfigPath() string {
	if envPath := os.Getenv("MULTICHAT_CONFIG"); envPath != "" {
		return expandPath(envPath)
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./.multichat/config.yaml"
	}
	return filepath.Join(homeDir, ".multichat", "config.yaml")
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(homeDir, path[2:])
	}
	return path
}

func defaultServerConfig() ServerConfig {
	cfg := ServerConfig{
		HTTPAddr:        ":5000",
		DatabasePath:    "multichat.sqlite3",
		PepperFile:      "pepper.bin",
		SessionTTLHours: 168,
		HistoryTurns:    2,
		Ollama: OllamaConfig{
			Host:        "http://localhost:11434",
			MaxTokens:   defaultMaxTokens,
			Temperature: defaultTemperature,
		},
	}
	for _, p := range providerTable {
		pc := p.config(&cfg)
		pc.Model = p.defaultModel
		pc.BaseURL = p.defaultBaseURL
		pc.MaxTokens = defaultMaxTokens
		pc.Temperature = defaultTemperature
	}
	return cfg
}

// LoadServerConfig loads the daemon configuration. Built-in defaults are
// overridden by the YAML file at path (if it exists), then by envFiles
// (".env" when none are given, skipped if missing), then by the process
// environment.
func LoadServerConfig(path string, envFiles ...string) (*ServerConfig, error) {
	// Step 1: Set defaults
	cfg := defaultServerConfig()

	// Step 2: Merge the config file on top
	expandedPath := expandPath(path)
	if expandedPath != "" {
		if _, err := os.Stat(expandedPath); err == nil {
			configYAML, err := os.ReadFile(expandedPath) //#nosec 304 -- intentional file read for config
			if err != nil {
				return nil, fmt.Errorf("failed to read config file %q: %w", expandedPath, err)
			}

			var fileConfig ServerConfig
			if err := yaml.Unmarshal(configYAML, &fileConfig); err != nil {
				return nil, fmt.Errorf("failed to parse config file %q: %w", expandedPath, err)
			}
			if err := mergo.Merge(&cfg, fileConfig, mergo.WithOverride); err != nil {
				return nil, fmt.Errorf("failed to merge config file: %w", err)
			}
		}
	}

	// Step 3: Load .env files into the environment. godotenv never
	// overwrites variables that are already set.
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	// Step 4: Environment variables win
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	return &cfg, nil
}

// SaveServerConfig saves the server configuration to the specified path.
func SaveServerConfig(cfg *ServerConfig, path string) error {
	expandedPath := expandPath(path)

	if err := os.MkdirAll(filepath.Dir(expandedPath), 0o750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(expandedPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string         `toml:"environment"` // "development" or "production"
	Server      ServerConfig   `toml:"server"`
	Logging     LoggingConfig  `toml:"logging"`
	LLM         LLMConfig      `toml:"llm"`
	Gemini      GeminiConfig   `toml:"gemini"`
	Claude      ClaudeConfig   `toml:"claude"`
	Upload      UploadConfig   `toml:"upload"`
	Contract    ContractConfig `toml:"contract"`
	Session     SessionConfig  `toml:"session"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs
}

// LLMConfig selects the provider used for conversational replies. Structured
// operations (extraction, drafting, edit detection) always run on Gemini,
// the only provider with schema-constrained JSON output.
type LLMConfig struct {
	Provider string `toml:"provider"` // "gemini" or "claude"
}

// GeminiConfig contains Google Gemini API settings
type GeminiConfig struct {
	APIKey            string  `toml:"api_key"`
	ChatModel         string  `toml:"chat_model"`       // Conversational replies, drafting, edits
	ExtractionModel   string  `toml:"extraction_model"` // Document analysis and edit detection
	Timeout           string  `toml:"timeout"`          // Per-call timeout, e.g. "120s"
	Temperature       float32 `toml:"temperature"`
	RequestsPerMinute int     `toml:"requests_per_minute"` // Client-side rate limit (0 = unlimited)
}

// ClaudeConfig contains Anthropic Claude API settings
type ClaudeConfig struct {
	APIKey    string `toml:"api_key"`
	Model     string `toml:"model"`
	Timeout   string `toml:"timeout"`
	MaxTokens int    `toml:"max_tokens"`
}

// UploadConfig governs document uploads
type UploadConfig struct {
	AllowedExtensions []string `toml:"allowed_extensions"` // Lowercase, with leading dot
	MaxBatchFiles     int      `toml:"max_batch_files"`    // Hard cap per upload batch
	MaxFileSizeMB     int      `toml:"max_file_size_mb"`
}

// ContractConfig governs contract generation
type ContractConfig struct {
	TemplatesDir string `toml:"templates_dir"` // Directory containing template .md files
}

// SessionConfig governs in-memory session lifecycle
type SessionConfig struct {
	IdleTimeout      string `toml:"idle_timeout"`      // Evict sessions idle longer than this
	EvictionSchedule string `toml:"eviction_schedule"` // Cron schedule for the eviction sweep
}

// NewDefaultConfig returns a configuration with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8000,
			Host: "localhost",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout"},
			TimeFormat: "15:04:05",
		},
		LLM: LLMConfig{
			Provider: "gemini",
		},
		Gemini: GeminiConfig{
			ChatModel:         "gemini-2.5-flash",
			ExtractionModel:   "gemini-2.5-pro",
			Timeout:           "120s",
			Temperature:       0.2,
			RequestsPerMinute: 30,
		},
		Claude: ClaudeConfig{
			Model:     "claude-sonnet-4-20250514",
			Timeout:   "120s",
			MaxTokens: 4096,
		},
		Upload: UploadConfig{
			AllowedExtensions: []string{".pdf", ".png", ".jpg", ".jpeg", ".docx", ".xlsx"},
			MaxBatchFiles:     20,
			MaxFileSizeMB:     25,
		},
		Contract: ContractConfig{
			TemplatesDir: "./templates",
		},
		Session: SessionConfig{
			IdleTimeout:      "2h",
			EvictionSchedule: "@every 10m",
		},
	}
}

// LoadFromFiles loads configuration with priority: defaults -> file1 -> file2
// -> ... -> env. Later files override earlier files; environment variables
// override all files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("MINUTA_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	if port := os.Getenv("MINUTA_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("MINUTA_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	if level := os.Getenv("MINUTA_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if provider := os.Getenv("MINUTA_LLM_PROVIDER"); provider != "" {
		config.LLM.Provider = provider
	}
	if key := os.Getenv("MINUTA_GEMINI_API_KEY"); key != "" {
		config.Gemini.APIKey = key
	}
	if key := os.Getenv("MINUTA_CLAUDE_API_KEY"); key != "" {
		config.Claude.APIKey = key
	}

	if dir := os.Getenv("MINUTA_TEMPLATES_DIR"); dir != "" {
		config.Contract.TemplatesDir = dir
	}
}

// ApplyFlagOverrides applies command-line flag overrides (highest priority)
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// ResolveAPIKey resolves an API key by name with environment variable
// priority. Resolution order: well-known environment variables -> config
// fallback -> error.
func ResolveAPIKey(name string, configFallback string) (string, error) {
	envNames := map[string][]string{
		"gemini_api_key":    {"MINUTA_GEMINI_API_KEY", "GEMINI_API_KEY", "AI_API_KEY"},
		"anthropic_api_key": {"MINUTA_CLAUDE_API_KEY", "ANTHROPIC_API_KEY"},
	}

	for _, envName := range envNames[name] {
		if v := os.Getenv(envName); v != "" {
			return v, nil
		}
	}

	if configFallback != "" {
		return configFallback, nil
	}

	return "", fmt.Errorf("API key '%s' not found in environment or config", name)
}

// IdleTimeoutDuration parses the session idle timeout, falling back to the
// default when unset or malformed.
func (c *Config) IdleTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.Session.IdleTimeout)
	if err != nil || d <= 0 {
		return 2 * time.Hour
	}
	return d
}

// AllowsExtension reports whether the upload allow-list accepts the given
// file extension (case-insensitive, leading dot expected).
func (c *Config) AllowsExtension(ext string) bool {
	ext = strings.ToLower(ext)
	for _, allowed := range c.Upload.AllowedExtensions {
		if strings.ToLower(allowed) == ext {
			return true
		}
	}
	return false
}

// IsProduction returns true when running in production mode
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"alfredoptarigan/resume-screener/internal/secrets"
)

// Build-time defaults, overridable with -ldflags "-X alfredoptarigan/resume-screener/internal/config.DefaultEmbeddingModel=...".
var (
	DefaultEmbeddingModel = "text-embedding-004"
	DefaultLLMModel       = "deepseek/deepseek-chat"
)

const (
	DefaultLLMBaseURL        = "https://openrouter.ai/api/v1"
	DefaultStrongThreshold   = 0.70
	DefaultModerateThreshold = 0.50
	DefaultSummaryMaxChars   = 2000

	EmbeddingProviderGemini = "gemini"
	EmbeddingProviderOpenAI = "openai"
)

// ErrMissingCredentials is returned by Load when an API credential cannot be
// resolved from any configured source. Callers must treat it as fatal.
var ErrMissingCredentials = errors.New("missing credentials")

type Config struct {
	Server    ServerConfig
	Log       LogConfig
	Database  DatabaseConfig
	History   HistoryConfig
	LLM       LLMConfig
	Embedding EmbeddingConfig
	Screening ScreeningConfig
	Storage   StorageConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type LogConfig struct {
	Level string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

type HistoryConfig struct {
	Enabled bool
}

type LLMConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
	Referer     string
	Title       string
}

type EmbeddingConfig struct {
	Provider       string
	Model          string
	BaseURL        string
	APIKey         string
	ConcurrentSafe bool
}

type ScreeningConfig struct {
	StrongThreshold        float64
	ModerateThreshold      float64
	SummaryMaxChars        int
	Concurrency            int
	DocumentTimeout        time.Duration
	MaxJobDescriptionChars int
}

type StorageConfig struct {
	UploadPath    string
	MaxFileSize   int64
	MaxUploadSize int64
	MaxFiles      int
}

// Load resolves configuration from .env, the process environment, an optional
// YAML file named by CONFIG_FILE and the secret chain (see secrets.DefaultChain).
// A missing LLM or embedding credential yields an error wrapping
// ErrMissingCredentials.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Using environment and defaults.")
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if file := strings.TrimSpace(v.GetString("config_file")); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: v.GetString("port"),
			Env:  v.GetString("env"),
		},
		Log: LogConfig{
			Level: v.GetString("log_level"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("db_host"),
			Port:     v.GetString("db_port"),
			User:     v.GetString("db_user"),
			Password: v.GetString("db_password"),
			DBName:   v.GetString("db_name"),
		},
		History: HistoryConfig{
			Enabled: v.GetBool("history_enabled"),
		},
		LLM: LLMConfig{
			Model:       v.GetString("llm_model"),
			Temperature: float32(v.GetFloat64("llm_temperature")),
			MaxTokens:   v.GetInt("llm_max_tokens"),
			Timeout:     v.GetDuration("llm_timeout"),
			Referer:     v.GetString("llm_referer"),
			Title:       v.GetString("llm_title"),
		},
		Embedding: EmbeddingConfig{
			Provider:       strings.ToLower(strings.TrimSpace(v.GetString("embedding_provider"))),
			Model:          v.GetString("embedding_model"),
			ConcurrentSafe: v.GetBool("embedding_concurrent_safe"),
		},
		Screening: ScreeningConfig{
			StrongThreshold:        v.GetFloat64("fit_strong_threshold"),
			ModerateThreshold:      v.GetFloat64("fit_moderate_threshold"),
			SummaryMaxChars:        v.GetInt("summary_max_chars"),
			Concurrency:            v.GetInt("screen_concurrency"),
			DocumentTimeout:        v.GetDuration("screen_document_timeout"),
			MaxJobDescriptionChars: v.GetInt("max_job_description_chars"),
		},
		Storage: StorageConfig{
			UploadPath:    v.GetString("upload_path"),
			MaxFileSize:   v.GetInt64("max_file_size"),
			MaxUploadSize: v.GetInt64("max_upload_size"),
			MaxFiles:      v.GetInt("max_files"),
		},
	}

	if err := cfg.resolveCredentials(v); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "3000")
	v.SetDefault("env", "development")
	v.SetDefault("log_level", "")
	v.SetDefault("secrets_dir", "/run/secrets")

	v.SetDefault("db_host", "localhost")
	v.SetDefault("db_port", "5432")
	v.SetDefault("db_user", "postgres")
	v.SetDefault("db_password", "postgres")
	v.SetDefault("db_name", "resume_screener")
	v.SetDefault("history_enabled", false)

	v.SetDefault("llm_model", DefaultLLMModel)
	v.SetDefault("llm_temperature", 0.7)
	v.SetDefault("llm_max_tokens", 500)
	v.SetDefault("llm_timeout", "15s")
	v.SetDefault("llm_referer", "")
	v.SetDefault("llm_title", "ResumeScreener")

	v.SetDefault("embedding_provider", EmbeddingProviderGemini)
	v.SetDefault("embedding_model", DefaultEmbeddingModel)
	v.SetDefault("embedding_concurrent_safe", true)

	v.SetDefault("fit_strong_threshold", DefaultStrongThreshold)
	v.SetDefault("fit_moderate_threshold", DefaultModerateThreshold)
	v.SetDefault("summary_max_chars", DefaultSummaryMaxChars)
	v.SetDefault("screen_concurrency", 1)
	v.SetDefault("screen_document_timeout", "0s")
	v.SetDefault("max_job_description_chars", 0)

	v.SetDefault("upload_path", "./uploads")
	v.SetDefault("max_file_size", 10485760)
	v.SetDefault("max_upload_size", 52428800)
	v.SetDefault("max_files", 20)
}

// resolveCredentials fills the API keys and base URLs. Each value is looked up
// through the secret chain first and falls back to the config file value.
func (c *Config) resolveCredentials(v *viper.Viper) error {
	chain := secrets.DefaultChain(v.GetString("secrets_dir"))
	chain = append(chain, secrets.Static{
		"OPENROUTER_API_KEY":  v.GetString("openrouter_api_key"),
		"OPENROUTER_BASE_URL": v.GetString("openrouter_base_url"),
		"GEMINI_API_KEY":      v.GetString("gemini_api_key"),
		"EMBEDDING_API_KEY":   v.GetString("embedding_api_key"),
		"EMBEDDING_BASE_URL":  v.GetString("embedding_base_url"),
	})

	apiKey, _, err := chain.Resolve("OPENROUTER_API_KEY")
	if err != nil {
		return credentialError("OPENROUTER_API_KEY", err)
	}
	c.LLM.APIKey = apiKey

	baseURL, err := chain.ResolveOr("OPENROUTER_BASE_URL", DefaultLLMBaseURL)
	if err != nil {
		return fmt.Errorf("resolving OPENROUTER_BASE_URL: %w", err)
	}
	c.LLM.BaseURL = strings.TrimRight(baseURL, "/")

	switch c.Embedding.Provider {
	case EmbeddingProviderGemini:
		key, _, err := chain.Resolve("GEMINI_API_KEY")
		if errors.Is(err, secrets.ErrNotFound) {
			key, _, err = chain.Resolve("EMBEDDING_API_KEY")
		}
		if err != nil {
			return credentialError("GEMINI_API_KEY", err)
		}
		c.Embedding.APIKey = key

		// Empty keeps the SDK's default Gemini endpoint
		embURL, err := chain.ResolveOr("EMBEDDING_BASE_URL", "")
		if err != nil {
			return fmt.Errorf("resolving EMBEDDING_BASE_URL: %w", err)
		}
		c.Embedding.BaseURL = strings.TrimRight(embURL, "/")
	case EmbeddingProviderOpenAI:
		key, err := chain.ResolveOr("EMBEDDING_API_KEY", c.LLM.APIKey)
		if err != nil {
			return credentialError("EMBEDDING_API_KEY", err)
		}
		c.Embedding.APIKey = key

		embURL, err := chain.ResolveOr("EMBEDDING_BASE_URL", c.LLM.BaseURL)
		if err != nil {
			return fmt.Errorf("resolving EMBEDDING_BASE_URL: %w", err)
		}
		c.Embedding.BaseURL = strings.TrimRight(embURL, "/")
	}

	return nil
}

func credentialError(key string, err error) error {
	if errors.Is(err, secrets.ErrNotFound) {
		return fmt.Errorf("%w: %s is not set (secret store, %s_FILE or %s)", ErrMissingCredentials, key, key, key)
	}
	return fmt.Errorf("%w: resolving %s: %v", ErrMissingCredentials, key, err)
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	switch c.Embedding.Provider {
	case EmbeddingProviderGemini, EmbeddingProviderOpenAI:
	default:
		return fmt.Errorf("embedding provider must be %q or %q, got %q",
			EmbeddingProviderGemini, EmbeddingProviderOpenAI, c.Embedding.Provider)
	}
	if strings.TrimSpace(c.Embedding.Model) == "" {
		return errors.New("embedding model is required")
	}
	if strings.TrimSpace(c.LLM.Model) == "" {
		return errors.New("llm model is required")
	}

	s := c.Screening
	if s.ModerateThreshold < 0 || s.StrongThreshold > 1 || s.ModerateThreshold > s.StrongThreshold {
		return fmt.Errorf("fit thresholds must satisfy 0 <= moderate (%.2f) <= strong (%.2f) <= 1",
			s.ModerateThreshold, s.StrongThreshold)
	}
	if s.SummaryMaxChars <= 0 {
		return fmt.Errorf("summary max chars must be positive, got %d", s.SummaryMaxChars)
	}
	if s.Concurrency <= 0 {
		return fmt.Errorf("screen concurrency must be positive, got %d", s.Concurrency)
	}
	if s.DocumentTimeout < 0 || s.MaxJobDescriptionChars < 0 {
		return errors.New("document timeout and job description cap must not be negative")
	}

	if c.LLM.Timeout <= 0 {
		return fmt.Errorf("llm timeout must be positive, got %s", c.LLM.Timeout)
	}
	if c.LLM.MaxTokens <= 0 {
		return fmt.Errorf("llm max tokens must be positive, got %d", c.LLM.MaxTokens)
	}
	if c.Storage.MaxFileSize <= 0 || c.Storage.MaxFiles <= 0 {
		return errors.New("storage limits must be positive")
	}
	return nil
}

func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

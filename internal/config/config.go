package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"sop-quiz/internal/domain"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Logger    LoggerConfig
	LLM       LLMConfig
	Quiz      QuizConfig
	Cache     CacheConfig
	Redis     RedisConfig
	Presenter PresenterConfig
	Token     TokenConfig
}

type ServerConfig struct {
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	BodyLimit      int
	MaxUploadBytes int64
}

type LoggerConfig struct {
	Level string
	Env   string
}

// LLMConfig selects the completion backend and the sampling used at each call site.
type LLMConfig struct {
	Provider   string // openai, azure, ollama or openai-sdk
	Model      string
	BaseURL    string
	APIKey     string
	APIVersion string
	Timeout    time.Duration
	Generation domain.SamplingOptions
	Reformat   domain.SamplingOptions
}

type QuizConfig struct {
	DefaultDifficulty string
	StripLabels       bool
	Variant           string
}

type CacheConfig struct {
	Backend string // memory, redis or none
	Size    int
	TTL     time.Duration
}

type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

type PresenterConfig struct {
	ReformatRationale bool
}

type TokenConfig struct {
	Secret string
	TTL    time.Duration
}

const (
	ProviderOpenAI    = "openai"
	ProviderAzure     = "azure"
	ProviderOllama    = "ollama"
	ProviderOpenAISDK = "openai-sdk"

	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheNone   = "none"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8090)
	v.SetDefault("server.read_timeout", 30)
	v.SetDefault("server.write_timeout", 300)
	v.SetDefault("server.body_limit", 32<<20)
	v.SetDefault("server.max_upload_bytes", 25<<20)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.env", "development")

	v.SetDefault("llm.provider", ProviderAzure)
	v.SetDefault("llm.model", "GenAI-LLM")
	v.SetDefault("llm.api_version", "2024-02-15-preview")
	v.SetDefault("llm.timeout", 300)
	v.SetDefault("llm.generation.temperature", 0.0)
	v.SetDefault("llm.generation.top_p", 0.95)
	v.SetDefault("llm.generation.frequency_penalty", 0.0)
	v.SetDefault("llm.generation.presence_penalty", 0.0)
	v.SetDefault("llm.generation.max_tokens", 10000)
	v.SetDefault("llm.reformat.temperature", 0.7)
	v.SetDefault("llm.reformat.top_p", 0.95)
	v.SetDefault("llm.reformat.frequency_penalty", 0.0)
	v.SetDefault("llm.reformat.presence_penalty", 0.0)
	v.SetDefault("llm.reformat.max_tokens", 800)

	v.SetDefault("quiz.default_difficulty", "")
	v.SetDefault("quiz.strip_labels", true)
	v.SetDefault("quiz.variant", "standard")

	v.SetDefault("cache.backend", CacheMemory)
	v.SetDefault("cache.size", 128)
	v.SetDefault("cache.ttl", 0)

	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("presenter.reformat_rationale", false)

	v.SetDefault("token.ttl", 24*60*60)
}

// LoadConfig reads config.yaml (if present), then defaults and environment.
// Durations in the file are whole seconds.
func LoadConfig() (*Config, error) {
	return LoadConfigWithFlags(nil)
}

// LoadConfigWithFlags is LoadConfig with command line flags taking precedence.
// Flags are matched by their full key, e.g. "llm.provider".
func LoadConfigWithFlags(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if os.Getenv("ENV") == "test" {
		v.AddConfigPath("../../config")
		v.AddConfigPath("../../")
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}
	if extra := os.Getenv("CONFIG_PATH"); extra != "" {
		v.AddConfigPath(extra)
	}

	setDefaults(v)
	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("failed to bind flags: %w", err)
		}
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if configFile := v.ConfigFileUsed(); configFile != "" {
		absPath, _ := filepath.Abs(configFile)
		fmt.Printf("Using config file: %s\n", absPath)
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:           v.GetInt("server.port"),
			ReadTimeout:    v.GetDuration("server.read_timeout") * time.Second,
			WriteTimeout:   v.GetDuration("server.write_timeout") * time.Second,
			BodyLimit:      v.GetInt("server.body_limit"),
			MaxUploadBytes: v.GetInt64("server.max_upload_bytes"),
		},
		Logger: LoggerConfig{
			Level: v.GetString("logger.level"),
			Env:   v.GetString("logger.env"),
		},
		LLM: LLMConfig{
			Provider:   strings.ToLower(v.GetString("llm.provider")),
			Model:      v.GetString("llm.model"),
			BaseURL:    v.GetString("llm.base_url"),
			APIKey:     v.GetString("llm.api_key"),
			APIVersion: v.GetString("llm.api_version"),
			Timeout:    v.GetDuration("llm.timeout") * time.Second,
			Generation: sampling(v, "llm.generation"),
			Reformat:   sampling(v, "llm.reformat"),
		},
		Quiz: QuizConfig{
			DefaultDifficulty: v.GetString("quiz.default_difficulty"),
			StripLabels:       v.GetBool("quiz.strip_labels"),
			Variant:           v.GetString("quiz.variant"),
		},
		Cache: CacheConfig{
			Backend: strings.ToLower(v.GetString("cache.backend")),
			Size:    v.GetInt("cache.size"),
			TTL:     v.GetDuration("cache.ttl") * time.Second,
		},
		Redis: RedisConfig{
			Address:  v.GetString("redis.address"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Presenter: PresenterConfig{
			ReformatRationale: v.GetBool("presenter.reformat_rationale"),
		},
		Token: TokenConfig{
			Secret: v.GetString("token.secret"),
			TTL:    v.GetDuration("token.ttl") * time.Second,
		},
	}

	// Override with the conventional variable names if set
	if key := os.Getenv("OPENAI_API_KEY"); key != "" && cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = key
	}
	if key := os.Getenv("AZURE_OPENAI_API_KEY"); key != "" && cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = key
	}
	if endpoint := os.Getenv("AZURE_OPENAI_ENDPOINT"); endpoint != "" && cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = endpoint
	}
	if secret := os.Getenv("QUIZ_TOKEN_SECRET"); secret != "" {
		cfg.Token.Secret = secret
	}
	if redisAddress := os.Getenv("REDIS_ADDRESS"); redisAddress != "" {
		cfg.Redis.Address = redisAddress
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func sampling(v *viper.Viper, prefix string) domain.SamplingOptions {
	return domain.SamplingOptions{
		Temperature:      v.GetFloat64(prefix + ".temperature"),
		TopP:             v.GetFloat64(prefix + ".top_p"),
		FrequencyPenalty: v.GetFloat64(prefix + ".frequency_penalty"),
		PresencePenalty:  v.GetFloat64(prefix + ".presence_penalty"),
		MaxTokens:        v.GetInt(prefix + ".max_tokens"),
	}
}

// Validate rejects enum values the wiring cannot act on.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case ProviderOpenAI, ProviderAzure, ProviderOllama, ProviderOpenAISDK:
	default:
		return fmt.Errorf("unknown llm.provider %q", c.LLM.Provider)
	}
	switch c.Cache.Backend {
	case CacheMemory, CacheRedis, CacheNone:
	default:
		return fmt.Errorf("unknown cache.backend %q", c.Cache.Backend)
	}
	if c.Cache.Backend == CacheMemory && c.Cache.Size <= 0 {
		return fmt.Errorf("cache.size must be positive, got %d", c.Cache.Size)
	}
	return nil
}

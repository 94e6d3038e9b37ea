package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	go_ora "github.com/sijms/go-ora/v2"
	"github.com/spf13/viper"
)

// Supported collaborator backends.
const (
	LLMProviderGoogleAI = "googleai"
	LLMProviderOllama   = "ollama"

	OCRProviderVision    = "vision"
	OCRProviderTesseract = "tesseract"

	StorageBackendLocal = "local"
	StorageBackendGCS   = "gcs"
)

const minJWTSecretLength = 32

type Config struct {
	DB          DBConfig
	Server      ServerConfig
	Redis       RedisConfig
	Logger      LoggerConfig
	LLM         LLMConfig
	OCR         OCRConfig
	Storage     StorageConfig
	JWT         JWTConfig
	GoogleOAuth GoogleOAuthConfig
	Cache       CacheConfig
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	BodyLimitMB  int
}

type LoggerConfig struct {
	Env   string
	Level string
}

// LLMConfig selects the text generation backend. Candidates are tried in order.
type LLMConfig struct {
	Provider    string
	APIKey      string
	ServerURL   string
	Candidates  []string
	Temperature float64
	Timeout     time.Duration
}

type OCRConfig struct {
	Provider  string
	Languages []string
	Timeout   time.Duration
}

type StorageConfig struct {
	Backend  string
	LocalDir string
	Bucket   string
	Prefix   string
}

type JWTConfig struct {
	SecretKey       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// GoogleOAuthConfig is optional. Google sign-in is disabled when ClientID is empty.
type GoogleOAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

func (g GoogleOAuthConfig) Enabled() bool {
	return g.ClientID != ""
}

type CacheConfig struct {
	TagListTTL     time.Duration
	AnswerCheckTTL time.Duration
}

// DefaultCandidates is the model order used when none is configured.
var DefaultCandidates = []string{"gemini-1.5-flash", "gemini-1.5-flash-8b", "gemini-1.0-pro"}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8090)
	v.SetDefault("server.read_timeout", 60)
	v.SetDefault("server.write_timeout", 120)
	v.SetDefault("server.body_limit_mb", 10)

	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("logger.env", "development")
	v.SetDefault("logger.level", "info")

	v.SetDefault("llm.provider", LLMProviderGoogleAI)
	v.SetDefault("llm.server_url", "http://localhost:11434")
	v.SetDefault("llm.candidates", DefaultCandidates)
	v.SetDefault("llm.temperature", 0.4)
	v.SetDefault("llm.timeout", 90)

	v.SetDefault("ocr.provider", OCRProviderVision)
	v.SetDefault("ocr.languages", []string{"jpn", "eng"})
	v.SetDefault("ocr.timeout", 30)

	v.SetDefault("storage.backend", StorageBackendLocal)
	v.SetDefault("storage.local_dir", "uploads")
	v.SetDefault("storage.prefix", "uploads/")

	v.SetDefault("jwt.access_token_ttl", "15m")
	v.SetDefault("jwt.refresh_token_ttl", "168h")

	v.SetDefault("cache.tag_list_ttl", "10m")
	v.SetDefault("cache.answer_check_ttl", "24h")
}

func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if os.Getenv("ENV") == "test" {
		v.AddConfigPath("../../config")
		v.AddConfigPath("../../")
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("./configs")
	}

	setDefaults(v)
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

	cfg := fromViper(v)

	// Secrets are commonly injected without the section prefix.
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		cfg.LLM.APIKey = key
	}
	if secret := os.Getenv("JWT_SECRET_KEY"); secret != "" {
		cfg.JWT.SecretKey = secret
	}
	if password := os.Getenv("DB_PASSWORD"); password != "" {
		cfg.DB.Password = password
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		cfg.Redis.Password = password
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		DB: DBConfig{
			Host:     v.GetString("db.host"),
			Port:     v.GetInt("db.port"),
			User:     v.GetString("db.user"),
			Password: v.GetString("db.password"),
			DBName:   v.GetString("db.name"),
		},
		Server: ServerConfig{
			Port:         v.GetInt("server.port"),
			ReadTimeout:  time.Duration(v.GetInt("server.read_timeout")) * time.Second,
			WriteTimeout: time.Duration(v.GetInt("server.write_timeout")) * time.Second,
			BodyLimitMB:  v.GetInt("server.body_limit_mb"),
		},
		Redis: RedisConfig{
			Address:  v.GetString("redis.address"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Logger: LoggerConfig{
			Env:   v.GetString("logger.env"),
			Level: v.GetString("logger.level"),
		},
		LLM: LLMConfig{
			Provider:    v.GetString("llm.provider"),
			APIKey:      v.GetString("llm.api_key"),
			ServerURL:   v.GetString("llm.server_url"),
			Candidates:  v.GetStringSlice("llm.candidates"),
			Temperature: v.GetFloat64("llm.temperature"),
			Timeout:     time.Duration(v.GetInt("llm.timeout")) * time.Second,
		},
		OCR: OCRConfig{
			Provider:  v.GetString("ocr.provider"),
			Languages: v.GetStringSlice("ocr.languages"),
			Timeout:   time.Duration(v.GetInt("ocr.timeout")) * time.Second,
		},
		Storage: StorageConfig{
			Backend:  v.GetString("storage.backend"),
			LocalDir: v.GetString("storage.local_dir"),
			Bucket:   v.GetString("storage.bucket"),
			Prefix:   v.GetString("storage.prefix"),
		},
		JWT: JWTConfig{
			SecretKey:       v.GetString("jwt.secret_key"),
			AccessTokenTTL:  v.GetDuration("jwt.access_token_ttl"),
			RefreshTokenTTL: v.GetDuration("jwt.refresh_token_ttl"),
		},
		GoogleOAuth: GoogleOAuthConfig{
			ClientID:     v.GetString("google_oauth.client_id"),
			ClientSecret: v.GetString("google_oauth.client_secret"),
			RedirectURL:  v.GetString("google_oauth.redirect_url"),
		},
		Cache: CacheConfig{
			TagListTTL:     v.GetDuration("cache.tag_list_ttl"),
			AnswerCheckTTL: v.GetDuration("cache.answer_check_ttl"),
		},
	}
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	var problems []string

	if len(c.LLM.Candidates) == 0 {
		problems = append(problems, "llm.candidates must list at least one model")
	}
	switch c.LLM.Provider {
	case LLMProviderGoogleAI:
		if c.LLM.APIKey == "" {
			problems = append(problems, "llm.api_key (or GEMINI_API_KEY) is required for the googleai provider")
		}
	case LLMProviderOllama:
	default:
		problems = append(problems, fmt.Sprintf("unknown llm.provider %q", c.LLM.Provider))
	}

	switch c.OCR.Provider {
	case OCRProviderVision, OCRProviderTesseract:
	default:
		problems = append(problems, fmt.Sprintf("unknown ocr.provider %q", c.OCR.Provider))
	}

	switch c.Storage.Backend {
	case StorageBackendLocal:
	case StorageBackendGCS:
		if c.Storage.Bucket == "" {
			problems = append(problems, "storage.bucket is required for the gcs backend")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown storage.backend %q", c.Storage.Backend))
	}

	if len(c.JWT.SecretKey) < minJWTSecretLength {
		problems = append(problems, fmt.Sprintf("jwt.secret_key must be at least %d bytes", minJWTSecretLength))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// GetDSN builds the go-ora connection URL.
func (c *Config) GetDSN() string {
	return go_ora.BuildUrl(c.DB.Host, c.DB.Port, c.DB.DBName, c.DB.User, c.DB.Password, nil)
}

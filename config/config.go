package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the application-wide configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Mongo   MongoConfig   `mapstructure:"mongo"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Storage StorageConfig `mapstructure:"storage"`
	NATS    NATSConfig    `mapstructure:"nats"`
	Log     LogConfig     `mapstructure:"log"`
}

// ServerConfig HTTP server settings.
type ServerConfig struct {
	Port        int        `mapstructure:"port"`
	MaxUploadMB int64      `mapstructure:"max_upload_mb"`
	CORS        CORSConfig `mapstructure:"cors"`
}

// CORSConfig cross-origin settings.
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// MongoConfig document store settings.
type MongoConfig struct {
	URI      string        `mapstructure:"uri"`
	Database string        `mapstructure:"database"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// RedisConfig token blacklist and rate limit backend.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig token settings.
type AuthConfig struct {
	JWTSecret      string        `mapstructure:"jwt_secret"`
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`
	// AllowLegacyIdentity accepts the unsigned JSON identity header used by
	// older clients. Off by default.
	AllowLegacyIdentity bool `mapstructure:"allow_legacy_identity"`
}

// StorageConfig S3-compatible object store settings.
type StorageConfig struct {
	Bucket          string        `mapstructure:"bucket"`
	Region          string        `mapstructure:"region"`
	Endpoint        string        `mapstructure:"endpoint"`
	AccessKeyID     string        `mapstructure:"access_key_id"`
	SecretAccessKey string        `mapstructure:"secret_access_key"`
	UsePathStyle    bool          `mapstructure:"use_path_style"`
	PresignTTL      time.Duration `mapstructure:"presign_ttl"`
}

// NATSConfig event publishing settings. An empty URL disables publishing.
type NATSConfig struct {
	URL           string `mapstructure:"url"`
	SubjectPrefix string `mapstructure:"subject_prefix"`
}

// LogConfig logger settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from a .env file, a config file and the environment.
// Precedence: environment > config file > defaults.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()

	// ── defaults ──
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.max_upload_mb", 50)
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:3000"})

	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "learnloopcluster1db")
	v.SetDefault("mongo.timeout", "10s")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.access_token_ttl", "24h")
	v.SetDefault("auth.allow_legacy_identity", false)

	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.use_path_style", false)
	v.SetDefault("storage.presign_ttl", "1h")

	v.SetDefault("nats.url", "")
	v.SetDefault("nats.subject_prefix", "learnloop")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// ── config file ──
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// ── environment ──
	v.SetEnvPrefix("LEARNLOOP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	// AutomaticEnv only resolves keys viper already knows about.
	for _, key := range []string{
		"auth.jwt_secret",
		"storage.bucket", "storage.endpoint",
		"storage.access_key_id", "storage.secret_access_key",
	} {
		_ = v.BindEnv(key)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("invalid config: auth.jwt_secret must be set")
	}
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("invalid config: auth.jwt_secret must be at least 16 characters")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid config: server.port must be between 1 and 65535")
	}
	if c.Mongo.URI == "" {
		return fmt.Errorf("invalid config: mongo.uri must be set")
	}
	if c.Storage.Bucket == "" {
		return fmt.Errorf("invalid config: storage.bucket must be set")
	}
	if c.Storage.PresignTTL <= 0 {
		return fmt.Errorf("invalid config: storage.presign_ttl must be positive")
	}
	return nil
}

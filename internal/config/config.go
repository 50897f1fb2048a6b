// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	RedisURL       string `mapstructure:"REDIS_URL"`
	DataDir        string `mapstructure:"DATA_DIR"`
	BlobDir        string `mapstructure:"BLOB_DIR"`
	BlobBaseURL    string `mapstructure:"BLOB_BASE_URL"`
	LocalDBPath    string `mapstructure:"LOCAL_DB_PATH"`
	AuthSecret     string `mapstructure:"AUTH_SECRET"`
	PushURL        string `mapstructure:"PUSH_URL"`
	TokenEndpoint  string `mapstructure:"TOKEN_ENDPOINT"`
	Env            string `mapstructure:"APP_ENV"`
	StreamGraceSec int    `mapstructure:"STREAM_GRACE_SEC"`
}

// LoadConfig loads application configuration from .env, config file, and
// environment variables.
func LoadConfig() (*Config, error) {
	// A local .env is optional; ignore a missing file.
	_ = godotenv.Load()

	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// We intentionally ignore this error as the config file may not exist
	_ = viper.ReadInConfig()

	// Set default values for development
	viper.SetDefault("REDIS_URL", "localhost:6379")
	viper.SetDefault("DATA_DIR", "/tmp/ember")
	viper.SetDefault("BLOB_DIR", "")
	viper.SetDefault("BLOB_BASE_URL", "http://localhost:8090/blobs")
	viper.SetDefault("LOCAL_DB_PATH", "")
	viper.SetDefault("AUTH_SECRET", "your-secret-key-change-in-production")
	viper.SetDefault("PUSH_URL", "")
	viper.SetDefault("TOKEN_ENDPOINT", "")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("STREAM_GRACE_SEC", 5)

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if config.BlobDir == "" {
		config.BlobDir = config.DataDir + "/blobs"
	}
	if config.LocalDBPath == "" {
		config.LocalDBPath = config.DataDir + "/local.db"
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.RedisURL == "" {
		return errors.New("REDIS_URL is required")
	}
	if c.AuthSecret == "" {
		return errors.New("AUTH_SECRET is required")
	}
	if c.StreamGraceSec < 0 {
		return errors.New("STREAM_GRACE_SEC must not be negative")
	}

	isProduction := c.Env == "production" || c.Env == "prod"
	if isProduction {
		if c.AuthSecret == "your-secret-key-change-in-production" {
			return errors.New("AUTH_SECRET must be changed from the default value in production")
		}
		if len(c.AuthSecret) < 32 {
			return errors.New("AUTH_SECRET must be at least 32 characters in production")
		}
	} else if c.AuthSecret == "your-secret-key-change-in-production" {
		log.Println("WARNING: using the default AUTH_SECRET; do not deploy this configuration")
	}

	return nil
}

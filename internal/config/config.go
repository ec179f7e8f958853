package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	DocStore DocStoreConfig `yaml:"docstore"`
	Redis    RedisConfig    `yaml:"redis"`
	Reports  ReportsConfig  `yaml:"reports"`
	Export   ExportConfig   `yaml:"export"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port           int      `yaml:"port"`
	Host           string   `yaml:"host"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// GetHost returns the server host, with container detection
func (c ServerConfig) GetHost() string {
	// On ECS/container, listen on all interfaces
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// DocStoreConfig selects and configures the document store backend.
type DocStoreConfig struct {
	Type          string `yaml:"type"`       // "memory", "dynamo" or "postgres"
	LocalPath     string `yaml:"local_path"` // memory backend snapshot file, optional
	DynamoDBTable string `yaml:"dynamodb_table"`
	AWSRegion     string `yaml:"aws_region"`
	AWSProfile    string `yaml:"aws_profile"` // Empty string uses default credential chain
	Endpoint      string `yaml:"endpoint"`    // DynamoDB Local / LocalStack
	AccessKey     string `yaml:"access_key"`
	SecretKey     string `yaml:"secret_key"`
	DatabaseURL   string `yaml:"database_url"`
}

// GetAWSProfile returns the AWS profile, with environment variable override
func (c DocStoreConfig) GetAWSProfile() string {
	if envProfile := os.Getenv("AWS_PROFILE_OVERRIDE"); envProfile != "" {
		if envProfile == "none" || envProfile == "iam" {
			return ""
		}
		return envProfile
	}
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return ""
	}
	return c.AWSProfile
}

// RedisConfig holds the Redis connection used for payment approval locks.
type RedisConfig struct {
	URL            string `yaml:"url"`
	LockTTLSeconds int    `yaml:"lock_ttl_seconds"`
}

// LockTTL returns the approval lock TTL as a duration
func (c RedisConfig) LockTTL() time.Duration {
	return time.Duration(c.LockTTLSeconds) * time.Second
}

// ReportsConfig holds dashboard aggregation settings.
type ReportsConfig struct {
	ZoneOffsetMinutes int `yaml:"zone_offset_minutes"` // 330 = IST
	TopCities         int `yaml:"top_cities"`
	TopStateBanks     int `yaml:"top_state_banks"`
}

// ExportConfig holds the S3 destination for XLSX report exports.
type ExportConfig struct {
	S3Bucket string `yaml:"s3_bucket"`
	S3Region string `yaml:"s3_region"`
	Prefix   string `yaml:"prefix"`
}

// Enabled reports whether exports should be uploaded.
func (c ExportConfig) Enabled() bool {
	return c.S3Bucket != ""
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level     string `yaml:"level"`
	Format    string `yaml:"format"` // "json" or "text"
	RedactPII *bool  `yaml:"redact_pii"`
}

// ShouldRedact defaults to true when redact_pii is not set.
func (c LoggingConfig) ShouldRedact() bool {
	return c.RedactPII == nil || *c.RedactPII
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"http://localhost:5173", "http://localhost:8080"}
	}
	if cfg.DocStore.Type == "" {
		cfg.DocStore.Type = "memory"
	}
	if cfg.DocStore.AWSRegion == "" {
		cfg.DocStore.AWSRegion = "ap-south-1"
	}
	if cfg.DocStore.DynamoDBTable == "" {
		cfg.DocStore.DynamoDBTable = "settlement-desk"
	}
	if cfg.Redis.LockTTLSeconds == 0 {
		cfg.Redis.LockTTLSeconds = 30
	}
	if cfg.Reports.ZoneOffsetMinutes == 0 {
		cfg.Reports.ZoneOffsetMinutes = 330
	}
	if cfg.Reports.TopCities == 0 {
		cfg.Reports.TopCities = 15
	}
	if cfg.Reports.TopStateBanks == 0 {
		cfg.Reports.TopStateBanks = 20
	}
	if cfg.Export.S3Region == "" {
		cfg.Export.S3Region = cfg.DocStore.AWSRegion
	}
	if cfg.Export.Prefix == "" {
		cfg.Export.Prefix = "exports"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars on ECS.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("DOCSTORE_TYPE"); v != "" {
		cfg.DocStore.Type = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DocStore.DatabaseURL = v
	}
	if v := os.Getenv("DYNAMODB_TABLE"); v != "" {
		cfg.DocStore.DynamoDBTable = v
	}
	if v := os.Getenv("DYNAMODB_ENDPOINT"); v != "" {
		cfg.DocStore.Endpoint = v
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		cfg.DocStore.AWSRegion = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("EXPORT_S3_BUCKET"); v != "" {
		cfg.Export.S3Bucket = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	return cfg, nil
}

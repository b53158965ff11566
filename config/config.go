package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the verification system
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Server    ServerConfig    `mapstructure:"server"`
	Providers ProvidersConfig `mapstructure:"providers"`
	Analysis  AnalysisConfig  `mapstructure:"analysis"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Debug          bool          `mapstructure:"debug"`
	LogLevel       string        `mapstructure:"log_level"`
	DefaultTimeout time.Duration `mapstructure:"default_timeout"`
	JWTSecret      string        `mapstructure:"jwt_secret"`
}

// ServerConfig contains HTTP server and auth settings
type ServerConfig struct {
	Address       string `mapstructure:"address"`
	JWTSecret     string `mapstructure:"jwt_secret"`
	MaxUploadMB   int64  `mapstructure:"max_upload_mb"`
	AuthEnabled   bool   `mapstructure:"auth_enabled"`
	MigrationsDir string `mapstructure:"migrations_dir"`
}

// ProvidersConfig groups the external analysis collaborators
type ProvidersConfig struct {
	Deepfake      DeepfakeConfig      `mapstructure:"deepfake"`
	Transcription TranscriptionConfig `mapstructure:"transcription"`
	LLM           LLMConfig           `mapstructure:"llm"`
	Ledger        LedgerConfig        `mapstructure:"ledger"`
}

// DeepfakeConfig configures the image tamper-detection service
type DeepfakeConfig struct {
	APIKey       string        `mapstructure:"api_key"`
	BaseURL      string        `mapstructure:"base_url"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	MaxWait      time.Duration `mapstructure:"max_wait"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// TranscriptionConfig configures the speech-to-text service
type TranscriptionConfig struct {
	APIKey       string        `mapstructure:"api_key"`
	BaseURL      string        `mapstructure:"base_url"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	MaxWait      time.Duration `mapstructure:"max_wait"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// LLMConfig configures the language-model collaborator used for document
// risk scoring and cross-file synthesis
type LLMConfig struct {
	APIKey          string        `mapstructure:"api_key"`
	BaseURL         string        `mapstructure:"base_url"`
	Model           string        `mapstructure:"model"`
	Temperature     float64       `mapstructure:"temperature"`
	MaxOutputTokens int           `mapstructure:"max_output_tokens"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

// LedgerConfig configures the tamper-evidence ledger endpoint. An empty
// endpoint switches the client to stub receipts.
type LedgerConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	ChainID  string        `mapstructure:"chain_id"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// AnalysisConfig contains orchestration settings
type AnalysisConfig struct {
	MaxWorkers         int           `mapstructure:"max_workers"`
	AdapterTimeout     time.Duration `mapstructure:"adapter_timeout"`
	FrameStrideSeconds float64       `mapstructure:"frame_stride_seconds"`
	FakeFrameThreshold float64       `mapstructure:"fake_frame_threshold"`
	DefaultFPS         float64       `mapstructure:"default_fps"`
	EvidenceCharLimit  int           `mapstructure:"evidence_char_limit"`
}

// StorageConfig contains storage and persistence settings
type StorageConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Uploads  UploadsConfig  `mapstructure:"uploads"`
	Index    IndexConfig    `mapstructure:"index"`
}

// PostgresConfig contains PostgreSQL connection settings
type PostgresConfig struct {
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DSN builds a postgres connection string, preferring the explicit URL.
func (p PostgresConfig) DSN() (string, error) {
	if p.URL != "" {
		return p.URL, nil
	}
	if p.Host == "" || p.DBName == "" {
		return "", fmt.Errorf("postgres not configured (storage.postgres.host/dbname or url)")
	}
	port := p.Port
	if port == "" {
		port = "5432"
	}
	ssl := p.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", p.User, p.Password, p.Host, port, p.DBName, ssl), nil
}

// RedisConfig contains Redis connection settings
type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// UploadsConfig controls where uploaded evidence files live and how long
// session folders are retained
type UploadsConfig struct {
	Dir       string        `mapstructure:"dir"`
	Retention time.Duration `mapstructure:"retention"`
	SweepSpec string        `mapstructure:"sweep_spec"`
}

// IndexConfig controls the on-disk evidence search index
type IndexConfig struct {
	Path string `mapstructure:"path"`
}

// TelemetryConfig contains metrics settings
type TelemetryConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Validate checks settings that have no safe default.
func (c *Config) Validate() error {
	if c.Analysis.MaxWorkers <= 0 {
		return fmt.Errorf("analysis.max_workers must be > 0")
	}
	if c.Analysis.FrameStrideSeconds <= 0 {
		return fmt.Errorf("analysis.frame_stride_seconds must be > 0")
	}
	if c.Server.AuthEnabled && c.JWTSecret() == "" {
		return fmt.Errorf("jwt secret not configured (server.jwt_secret or general.jwt_secret)")
	}
	return nil
}

// JWTSecret resolves the shared JWT secret.
// Preference order: server.jwt_secret, general.jwt_secret.
func (c *Config) JWTSecret() string {
	if c.Server.JWTSecret != "" {
		return c.Server.JWTSecret
	}
	return c.General.JWTSecret
}

// LoadConfig reads configuration from the given file (or the default search
// paths when path is empty) with FORENSIGHT_* environment overrides.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("json")

	v.SetDefault("general.log_level", "info")
	v.SetDefault("general.default_timeout", "60s")
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.max_upload_mb", 200)
	v.SetDefault("server.migrations_dir", "file://migrations")
	v.SetDefault("providers.deepfake.poll_interval", "3s")
	v.SetDefault("providers.deepfake.max_wait", "8m")
	v.SetDefault("providers.deepfake.timeout", "60s")
	v.SetDefault("providers.transcription.poll_interval", "3s")
	v.SetDefault("providers.transcription.max_wait", "5m")
	v.SetDefault("providers.transcription.timeout", "60s")
	v.SetDefault("providers.llm.model", "models/gemini-2.5-flash")
	v.SetDefault("providers.llm.timeout", "120s")
	v.SetDefault("providers.ledger.chain_id", "STUB_TESTNET")
	v.SetDefault("providers.ledger.timeout", "30s")
	v.SetDefault("analysis.max_workers", 4)
	v.SetDefault("analysis.adapter_timeout", "10m")
	v.SetDefault("analysis.frame_stride_seconds", 2.0)
	v.SetDefault("analysis.fake_frame_threshold", 60.0)
	v.SetDefault("analysis.default_fps", 30.0)
	v.SetDefault("analysis.evidence_char_limit", 25000)
	v.SetDefault("storage.redis.timeout", "5s")
	v.SetDefault("storage.uploads.dir", "uploads")
	v.SetDefault("storage.uploads.retention", "168h")
	v.SetDefault("storage.uploads.sweep_spec", "0 * * * *")
	v.SetDefault("storage.index.path", "evidence.bleve")
	v.SetDefault("telemetry.enabled", true)

	if path == "" {
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
		if exe, err := os.Executable(); err == nil {
			exeDir := filepath.Dir(exe)
			v.AddConfigPath(exeDir)
			v.AddConfigPath(filepath.Join(exeDir, ".."))
		}
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("FORENSIGHT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// Config file is optional; env vars and defaults may be enough.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && path != "" {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

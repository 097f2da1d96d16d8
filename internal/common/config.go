package common

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Server   ServerConfig   `mapstructure:"server"`
	OCR      OCRConfig      `mapstructure:"ocr"`
	Log      LogConfig      `mapstructure:"log"`
	Worker   WorkerConfig   `mapstructure:"worker"`
	Watch    WatchConfig    `mapstructure:"watch"`
}

// DatabaseConfig holds database-related configuration.
// Driver is "pgx" for Postgres or "sqlite" for a local file / in-memory store.
type DatabaseConfig struct {
	Driver           string        `mapstructure:"driver"`
	DSN              string        `mapstructure:"dsn"`
	MaxConns         int32         `mapstructure:"max_conns"`
	MinConns         int32         `mapstructure:"min_conns"`
	MaxConnLifetime  time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime  time.Duration `mapstructure:"max_conn_idle_time"`
	DialTimeout      time.Duration `mapstructure:"dial_timeout"`
	StatementTimeout time.Duration `mapstructure:"statement_timeout"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	GRPCAddr       string        `mapstructure:"grpc_addr"`
	HTTPAddr       string        `mapstructure:"http_addr"`
	RateLimit      float64       `mapstructure:"rate_limit"`
	RateBurst      int           `mapstructure:"rate_burst"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxUploadMB    int64         `mapstructure:"max_upload_mb"`
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Pdftoppm      string  `mapstructure:"pdftoppm"`
	Tesseract     string  `mapstructure:"tesseract"`
	Languages     string  `mapstructure:"languages"`
	TessdataDir   string  `mapstructure:"tessdata_dir"`
	HeicConverter string  `mapstructure:"heic_converter"`
	Scale         float64 `mapstructure:"scale"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// WorkerConfig sizes the background processing queue.
type WorkerConfig struct {
	Count     int           `mapstructure:"count"`
	QueueSize int           `mapstructure:"queue_size"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// WatchConfig lists directories the daemon watches for new slips.
type WatchConfig struct {
	Dirs     []string      `mapstructure:"dirs"`
	Debounce time.Duration `mapstructure:"debounce"`
}

// LoadConfig reads configuration from TRADESLIP_* environment variables.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TRADESLIP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "file:tradeslip.db?_pragma=busy_timeout(5000)")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "30m")
	v.SetDefault("database.max_conn_idle_time", "5m")
	v.SetDefault("database.dial_timeout", "3s")
	v.SetDefault("database.statement_timeout", "0s")

	v.SetDefault("server.grpc_addr", ":8080")
	v.SetDefault("server.http_addr", ":8081")
	v.SetDefault("server.rate_limit", 5.0)
	v.SetDefault("server.rate_burst", 10)
	v.SetDefault("server.request_timeout", "2m")
	v.SetDefault("server.max_upload_mb", 20)

	v.SetDefault("ocr.pdftoppm", "pdftoppm")
	v.SetDefault("ocr.tesseract", "tesseract")
	v.SetDefault("ocr.languages", "nor+eng")
	v.SetDefault("ocr.tessdata_dir", "")
	v.SetDefault("ocr.heic_converter", "magick")
	v.SetDefault("ocr.scale", 2.0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("worker.count", 4)
	v.SetDefault("worker.queue_size", 256)
	v.SetDefault("worker.timeout", "3m")

	v.SetDefault("watch.dirs", []string{})
	v.SetDefault("watch.debounce", "500ms")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, NewAppError(CodeConfig, "unmarshal config", err)
	}
	return &cfg, nil
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "pgx", "sqlite":
	default:
		return NewAppError(CodeConfig, "database.driver must be pgx or sqlite", ErrInvalidInput)
	}
	if c.Database.DSN == "" {
		return NewAppError(CodeConfig, "database.dsn is required", ErrInvalidInput)
	}
	if c.Server.GRPCAddr == "" && c.Server.HTTPAddr == "" {
		return NewAppError(CodeConfig, "at least one of server.grpc_addr or server.http_addr is required", ErrInvalidInput)
	}
	if c.OCR.Scale <= 0 {
		return NewAppError(CodeConfig, "ocr.scale must be positive", ErrInvalidInput)
	}
	return nil
}

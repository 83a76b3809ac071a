package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	Storage       StorageConfig       `yaml:"storage"`
	SMTP          SMTPConfig          `yaml:"smtp"`
	Auth          AuthConfig          `yaml:"auth"`
	Sweeper       SweeperConfig       `yaml:"sweeper"`
	WorkerPool    WorkerPoolConfig    `yaml:"worker_pool"`
	BusinessHours BusinessHoursConfig `yaml:"business_hours"`
	Report        ReportConfig        `yaml:"report"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver"`
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
	Debug                  bool   `yaml:"debug"`
}

// StorageConfig points at the shared document folder.
type StorageConfig struct {
	UploadFolder string `yaml:"upload_folder" json:"uploadFolder"`
}

// SMTPConfig holds the outbound mail relay settings.
type SMTPConfig struct {
	Server   string `yaml:"server"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Secure   bool   `yaml:"secure"`
	TLS      bool   `yaml:"tls"`
	From     string `yaml:"from"`
}

// Enabled reports whether a relay is configured at all.
func (c SMTPConfig) Enabled() bool {
	return c.Server != "" && c.Port > 0
}

// AuthConfig holds token and password-reset settings.
type AuthConfig struct {
	JWTSecret         string        `yaml:"jwt_secret"`
	TokenTTLMinutes   int           `yaml:"token_ttl_minutes"`
	TokenTTL          time.Duration `yaml:"-"`
	OTPTTLMinutes     int           `yaml:"otp_ttl_minutes"`
	OTPTTL            time.Duration `yaml:"-"`
	BootstrapUsername string        `yaml:"bootstrap_username"`
	BootstrapEmail    string        `yaml:"bootstrap_email"`
	BootstrapPassword string        `yaml:"bootstrap_password"`
}

// SweeperConfig holds the background sweep configuration.
type SweeperConfig struct {
	Enabled         bool          `yaml:"enabled"`
	IntervalSeconds int           `yaml:"interval_seconds"`
	Interval        time.Duration `yaml:"-"`
	ReminderDays    int           `yaml:"reminder_days"`
}

// WorkerPoolConfig holds the configuration for the email worker pool.
type WorkerPoolConfig struct {
	Size      int `yaml:"size"`
	QueueSize int `yaml:"queue_size"`
}

// BusinessHoursConfig is the daily window counted as downtime.
type BusinessHoursConfig struct {
	Start string `yaml:"start" json:"start"`
	End   string `yaml:"end" json:"end"`
}

// ReportConfig holds the static text printed on PDF reports.
type ReportConfig struct {
	Title   string   `yaml:"title" json:"title"`
	Footer  []string `yaml:"footer" json:"footer"`
	Website string   `yaml:"website" json:"website"`
}

// Load reads the configuration from the given path.
// A missing file is not an error: defaults and environment values are used instead.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("could not read .env file: %v", err)
	}

	var cfg Config
	f, err := os.Open(path)
	switch {
	case err == nil:
		defer f.Close()
		decoder := yaml.NewDecoder(f)
		if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to decode %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
		log.Printf("config file %s not found; using defaults", path)
	default:
		return nil, err
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)
	return &cfg, nil
}

// Save writes the configuration back to path.
func Save(path string, cfg *Config) error {
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, out, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if cfg.SMTP.Server == "" {
		cfg.SMTP.Server = os.Getenv("SMTP_SERVER")
	}
	if cfg.SMTP.Port == 0 {
		cfg.SMTP.Port = getEnvAsInt("SMTP_PORT", 0)
	}
	if cfg.SMTP.Username == "" {
		cfg.SMTP.Username = os.Getenv("SMTP_USERNAME")
	}
	if cfg.SMTP.Password == "" {
		cfg.SMTP.Password = os.Getenv("SMTP_PASSWORD")
	}
	if !cfg.SMTP.Secure {
		cfg.SMTP.Secure = getEnvAsBool("SMTP_SECURE", false)
	}
	if !cfg.SMTP.TLS {
		cfg.SMTP.TLS = getEnvAsBool("SMTP_TLS", false)
	}
	if cfg.SMTP.From == "" {
		cfg.SMTP.From = os.Getenv("EMAIL_FROM")
	}
	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 20
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 60
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.DSN == "" && cfg.Database.Driver == "sqlite" {
		cfg.Database.DSN = "maintenance.db"
	}

	if cfg.Storage.UploadFolder == "" {
		cfg.Storage.UploadFolder = "./documents"
	}

	if cfg.Auth.JWTSecret == "" {
		log.Printf("auth.jwt_secret is not set; tokens will not survive a restart")
		cfg.Auth.JWTSecret = strconv.FormatInt(time.Now().UnixNano(), 36)
	}
	if cfg.Auth.TokenTTLMinutes <= 0 {
		cfg.Auth.TokenTTLMinutes = 60
	}
	cfg.Auth.TokenTTL = time.Duration(cfg.Auth.TokenTTLMinutes) * time.Minute
	if cfg.Auth.OTPTTLMinutes <= 0 {
		cfg.Auth.OTPTTLMinutes = 10
	}
	cfg.Auth.OTPTTL = time.Duration(cfg.Auth.OTPTTLMinutes) * time.Minute

	if cfg.Sweeper.IntervalSeconds <= 0 {
		cfg.Sweeper.IntervalSeconds = 300
	}
	cfg.Sweeper.Interval = time.Duration(cfg.Sweeper.IntervalSeconds) * time.Second
	if cfg.Sweeper.ReminderDays <= 0 {
		cfg.Sweeper.ReminderDays = 3
	}

	if cfg.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}
	if cfg.WorkerPool.QueueSize <= 0 {
		cfg.WorkerPool.QueueSize = 64
	}

	if cfg.BusinessHours.Start == "" {
		cfg.BusinessHours.Start = "07:30"
	}
	if cfg.BusinessHours.End == "" {
		cfg.BusinessHours.End = "16:00"
	}

	if cfg.Report.Title == "" {
		cfg.Report.Title = "Maintenance Report"
	}
}

func getEnvAsInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Printf("%s=%q is not a number; ignoring", key, v)
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

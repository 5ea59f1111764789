package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

type Config struct {
	ServerPort string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	JWTSecret  string

	StorageBackend string // "memory" or "postgres"
	RunMigrations  bool
	LogLevel       string
	AllowedOrigins []string

	RetentionWindow   time.Duration
	RetentionInterval time.Duration

	// DirectorySeed optionally points at a YAML file of contacts loaded at
	// startup. Mostly useful with the memory backend.
	DirectorySeed string
}

// Load reads configuration from, in increasing priority: defaults, an
// optional config/dmcore.yaml, a .env file and the process environment.
func Load() (*Config, error) {
	// Load .env file if it exists (useful for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("dmcore")
	v.SetConfigType("yaml")
	v.AddConfigPath("config")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		ServerPort:        v.GetString("server_port"),
		DBHost:            v.GetString("db_host"),
		DBPort:            v.GetString("db_port"),
		DBUser:            v.GetString("db_user"),
		DBPassword:        v.GetString("db_password"),
		DBName:            v.GetString("db_name"),
		DBSSLMode:         v.GetString("db_sslmode"),
		JWTSecret:         v.GetString("jwt_secret"),
		StorageBackend:    strings.ToLower(v.GetString("storage_backend")),
		RunMigrations:     v.GetBool("run_migrations"),
		LogLevel:          v.GetString("log_level"),
		AllowedOrigins:    splitList(v.GetString("allowed_origins")),
		RetentionWindow:   v.GetDuration("retention_window"),
		RetentionInterval: v.GetDuration("retention_interval"),
		DirectorySeed:     v.GetString("directory_seed"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server_port", "8080")
	v.SetDefault("db_host", "localhost")
	v.SetDefault("db_port", "5432")
	v.SetDefault("db_user", "dmcore")
	v.SetDefault("db_password", "dmcore_dev_password")
	v.SetDefault("db_name", "dmcore")
	v.SetDefault("db_sslmode", "disable")
	v.SetDefault("jwt_secret", "dev-secret-change-me")
	v.SetDefault("storage_backend", BackendMemory)
	v.SetDefault("run_migrations", true)
	v.SetDefault("log_level", "info")
	v.SetDefault("allowed_origins", "*")
	v.SetDefault("retention_window", 30*24*time.Hour)
	v.SetDefault("retention_interval", time.Hour)
	v.SetDefault("directory_seed", "")
}

func (c *Config) validate() error {
	switch c.StorageBackend {
	case BackendMemory, BackendPostgres:
	default:
		return fmt.Errorf("STORAGE_BACKEND must be %q or %q, got %q", BackendMemory, BackendPostgres, c.StorageBackend)
	}
	if c.RetentionWindow <= 0 {
		return errors.New("RETENTION_WINDOW must be positive")
	}
	if c.RetentionInterval <= 0 || c.RetentionInterval >= c.RetentionWindow {
		return errors.New("RETENTION_INTERVAL must be positive and shorter than RETENTION_WINDOW")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set")
	}
	return nil
}

// DSN is the Postgres connection string for pgx and golang-migrate.
func (c *Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

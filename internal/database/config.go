package database

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	Host        string
	Port        string
	User        string
	Password    string
	DBName      string
	SSLMode     string
	MaxConns    int32
	MinConns    int32
	LockTimeout time.Duration

	RedisURL      string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	LogLevel  string
	LogFormat string
}

// fileConfig mirrors Config as written in the TOML file. Absent keys stay
// nil and leave the defaults alone.
type fileConfig struct {
	Host          *string `toml:"db_host"`
	Port          *string `toml:"db_port"`
	User          *string `toml:"db_user"`
	Password      *string `toml:"db_password"`
	DBName        *string `toml:"db_name"`
	SSLMode       *string `toml:"db_sslmode"`
	MaxConns      *int32  `toml:"db_max_conns"`
	MinConns      *int32  `toml:"db_min_conns"`
	LockTimeout   *string `toml:"db_lock_timeout"`
	RedisURL      *string `toml:"redis_url"`
	RedisPassword *string `toml:"redis_password"`
	RedisDB       *int    `toml:"redis_db"`
	CacheTTL      *string `toml:"cache_ttl"`
	LogLevel      *string `toml:"log_level"`
	LogFormat     *string `toml:"log_format"`
}

func defaultConfig() Config {
	return Config{
		Host:        "localhost",
		Port:        "5432",
		User:        "app_user",
		Password:    "postgres_password",
		DBName:      "app_db",
		SSLMode:     "disable",
		MaxConns:    10,
		MinConns:    0,
		LockTimeout: 5 * time.Second,
		RedisURL:    "",
		RedisDB:     0,
		CacheTTL:    5 * time.Minute,
		LogLevel:    "info",
		LogFormat:   "text",
	}
}

// LoadConfig builds the configuration from defaults, the TOML file named by
// SHOPDB_CONFIG (if any), a .env file (if present) and the environment, in
// that order of increasing precedence. An empty RedisURL disables the cache.
func LoadConfig() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("SHOPDB_CONFIG"); path != "" {
		if err := loadTOML(path, &cfg); err != nil {
			return nil, err
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var env envReader
	cfg.Host = getEnv("DB_HOST", cfg.Host)
	cfg.Port = getEnv("DB_PORT", cfg.Port)
	cfg.User = getEnv("DB_USER", cfg.User)
	cfg.Password = getEnv("DB_PASSWORD", cfg.Password)
	cfg.DBName = getEnv("DB_NAME", cfg.DBName)
	cfg.SSLMode = getEnv("DB_SSLMODE", cfg.SSLMode)
	cfg.MaxConns = env.int32("DB_MAX_CONNS", cfg.MaxConns)
	cfg.MinConns = env.int32("DB_MIN_CONNS", cfg.MinConns)
	cfg.LockTimeout = env.duration("DB_LOCK_TIMEOUT", cfg.LockTimeout)
	cfg.RedisURL = getEnv("REDIS_URL", cfg.RedisURL)
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", cfg.RedisPassword)
	cfg.RedisDB = env.int("REDIS_DB", cfg.RedisDB)
	cfg.CacheTTL = env.duration("CACHE_TTL", cfg.CacheTTL)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("LOG_FORMAT", cfg.LogFormat)
	if err := errors.Join(env.errs...); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.MaxConns <= 0 {
		return fmt.Errorf("db_max_conns must be positive, got %d", c.MaxConns)
	}
	if c.MinConns < 0 || c.MinConns > c.MaxConns {
		return fmt.Errorf("db_min_conns must be between 0 and %d, got %d", c.MaxConns, c.MinConns)
	}
	if c.LockTimeout < 0 {
		return fmt.Errorf("db_lock_timeout cannot be negative")
	}
	return nil
}

// DSN returns the keyword/value connection string for pgx.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host,
		c.Port,
		c.User,
		c.Password,
		c.DBName,
		c.SSLMode,
	)
}

func loadTOML(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("decode config %s: %w", path, err)
	}

	setString(&cfg.Host, fc.Host)
	setString(&cfg.Port, fc.Port)
	setString(&cfg.User, fc.User)
	setString(&cfg.Password, fc.Password)
	setString(&cfg.DBName, fc.DBName)
	setString(&cfg.SSLMode, fc.SSLMode)
	setString(&cfg.RedisURL, fc.RedisURL)
	setString(&cfg.RedisPassword, fc.RedisPassword)
	setString(&cfg.LogLevel, fc.LogLevel)
	setString(&cfg.LogFormat, fc.LogFormat)
	if fc.MaxConns != nil {
		cfg.MaxConns = *fc.MaxConns
	}
	if fc.MinConns != nil {
		cfg.MinConns = *fc.MinConns
	}
	if fc.RedisDB != nil {
		cfg.RedisDB = *fc.RedisDB
	}
	if fc.LockTimeout != nil {
		if cfg.LockTimeout, err = time.ParseDuration(*fc.LockTimeout); err != nil {
			return fmt.Errorf("config %s: db_lock_timeout: %w", path, err)
		}
	}
	if fc.CacheTTL != nil {
		if cfg.CacheTTL, err = time.ParseDuration(*fc.CacheTTL); err != nil {
			return fmt.Errorf("config %s: cache_ttl: %w", path, err)
		}
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// envReader parses typed environment variables and collects every
// malformed value instead of falling back to the default.
type envReader struct {
	errs []error
}

func (r *envReader) int32(key string, defaultValue int32) int32 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.ParseInt(value, 10, 32)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return int32(n)
}

func (r *envReader) int(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return n
}

func (r *envReader) duration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return d
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the search service.
type Config struct {
	General GeneralConfig `mapstructure:"general"`
	Server  ServerConfig  `mapstructure:"server"`
	Storage StorageConfig `mapstructure:"storage"`
	Search  SearchConfig  `mapstructure:"search"`
	History HistoryConfig `mapstructure:"history"`
}

// GeneralConfig contains general application settings.
type GeneralConfig struct {
	Debug     bool   `mapstructure:"debug"`
	LogLevel  string `mapstructure:"log_level"`
	JWTSecret string `mapstructure:"jwt_secret"`
}

// ServerConfig contains HTTP server and auth settings.
type ServerConfig struct {
	Listen    string `mapstructure:"listen"`
	JWTSecret string `mapstructure:"jwt_secret"`
}

func (s ServerConfig) Validate() error {
	if strings.TrimSpace(s.JWTSecret) == "" {
		return fmt.Errorf("server.jwt_secret required")
	}
	return nil
}

// StorageConfig contains storage and persistence settings.
type StorageConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// PostgresConfig contains Postgres connection settings.
type PostgresConfig struct {
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (p PostgresConfig) Validate() error {
	if strings.TrimSpace(p.URL) != "" {
		return nil
	}
	if strings.TrimSpace(p.Host) == "" {
		return fmt.Errorf("storage.postgres.host required when url is not provided")
	}
	if strings.TrimSpace(p.DBName) == "" {
		return fmt.Errorf("storage.postgres.dbname required when url is not provided")
	}
	return nil
}

// DSN builds a postgres connection string from the configured fields.
func (p PostgresConfig) DSN() string {
	if p.URL != "" {
		return p.URL
	}
	port := p.Port
	if port == "" {
		port = "5432"
	}
	ssl := p.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", p.User, p.Password, p.Host, port, p.DBName, ssl)
}

// RedisConfig contains Redis connection settings.
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r RedisConfig) Validate() error {
	if strings.TrimSpace(r.Host) == "" {
		return fmt.Errorf("storage.redis.host required")
	}
	if strings.TrimSpace(r.Port) == "" {
		return fmt.Errorf("storage.redis.port required")
	}
	return nil
}

// Addr returns the host:port pair for the Redis client.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

// SearchConfig tunes query handling, ranking and deadlines.
type SearchConfig struct {
	DefaultLimit    int           `mapstructure:"default_limit"`
	MaxLimit        int           `mapstructure:"max_limit"`
	MinQueryLength  int           `mapstructure:"min_query_length"`
	MaxSuggestions  int           `mapstructure:"max_suggestions"`
	SearchTimeout   time.Duration `mapstructure:"search_timeout"`
	SuggestTimeout  time.Duration `mapstructure:"suggest_timeout"`
	IndexTimeout    time.Duration `mapstructure:"index_timeout"`
	RebuildSchedule string        `mapstructure:"rebuild_schedule"`
}

// Normalize applies defaults for unset search values.
func (s SearchConfig) Normalize() SearchConfig {
	if s.DefaultLimit <= 0 {
		s.DefaultLimit = 5
	}
	if s.MaxLimit <= 0 {
		s.MaxLimit = 50
	}
	if s.MinQueryLength <= 0 {
		s.MinQueryLength = 2
	}
	if s.MaxSuggestions <= 0 {
		s.MaxSuggestions = 10
	}
	if s.SearchTimeout <= 0 {
		s.SearchTimeout = time.Second
	}
	if s.SuggestTimeout <= 0 {
		s.SuggestTimeout = 500 * time.Millisecond
	}
	if s.IndexTimeout <= 0 {
		s.IndexTimeout = 250 * time.Millisecond
	}
	if strings.TrimSpace(s.RebuildSchedule) == "" {
		s.RebuildSchedule = "@daily"
	}
	return s
}

func (s SearchConfig) Validate() error {
	if s.MaxLimit < s.DefaultLimit {
		return fmt.Errorf("search.max_limit must be >= search.default_limit")
	}
	if s.IndexTimeout > s.SearchTimeout {
		return fmt.Errorf("search.index_timeout must not exceed search.search_timeout")
	}
	return nil
}

// HistoryConfig bounds per-identity search history retention.
type HistoryConfig struct {
	Cap           int `mapstructure:"cap"`
	RecentLimit   int `mapstructure:"recent_limit"`
	RetentionDays int `mapstructure:"retention_days"`
}

// Normalize applies defaults for unset history values.
func (h HistoryConfig) Normalize() HistoryConfig {
	if h.Cap <= 0 {
		h.Cap = 20
	}
	if h.RecentLimit <= 0 {
		h.RecentLimit = 10
	}
	if h.RetentionDays <= 0 {
		h.RetentionDays = 90
	}
	return h
}

// LoadConfig loads config from file.
func LoadConfig(path string) *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("json")
	viper.SetDefault("general.log_level", "info")
	viper.SetDefault("server.listen", ":8080")

	if path == "" {
		viper.AddConfigPath("./config")
		viper.AddConfigPath(".")
		exe, _ := os.Executable()
		exeDir := filepath.Dir(exe)
		viper.AddConfigPath(exeDir)
		viper.AddConfigPath(filepath.Join(exeDir, ".."))
		viper.AddConfigPath(filepath.Join(exeDir, "..", "config"))
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("SEARCHD")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}
	config.Search = config.Search.Normalize()
	config.History = config.History.Normalize()

	if err := config.Server.Validate(); err != nil {
		panic(err)
	}
	if err := config.Storage.Postgres.Validate(); err != nil {
		panic(err)
	}
	if err := config.Storage.Redis.Validate(); err != nil {
		panic(err)
	}
	if err := config.Search.Validate(); err != nil {
		panic(err)
	}
	return &config
}

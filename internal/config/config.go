package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Feed       FeedConfig       `mapstructure:"feed"`
	Moderation ModerationConfig `mapstructure:"moderation"`
	Karma      KarmaConfig      `mapstructure:"karma"`
	Log        LogConfig        `mapstructure:"log"`
}

type ServerConfig struct {
	Port          string `mapstructure:"port"`
	Env           string `mapstructure:"env"` // development, production
	SessionSecret string `mapstructure:"session_secret"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // postgres, sqlite
	DSN             string        `mapstructure:"dsn"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type RedisConfig struct {
	URL string `mapstructure:"url"`
}

type CacheConfig struct {
	Backend string        `mapstructure:"backend"` // memory, redis
	TTL     time.Duration `mapstructure:"ttl"`
	Size    int           `mapstructure:"size"`
}

// FeedConfig 控制排序窗口和分页大小
type FeedConfig struct {
	PageSize         int `mapstructure:"page_size"`
	HotWindowDays    int `mapstructure:"hot_window_days"`
	NewestWindowDays int `mapstructure:"newest_window_days"`
	RankWindowLimit  int `mapstructure:"rank_window_limit"`
}

type ModerationConfig struct {
	ReportThreshold int           `mapstructure:"report_threshold"`
	CommentCap      int           `mapstructure:"comment_cap"`
	EditCooldown    time.Duration `mapstructure:"edit_cooldown"`
}

type KarmaConfig struct {
	PerVote float64 `mapstructure:"per_vote"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.env", "development")
	v.SetDefault("server.session_secret", "secret_key_change_me")

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.dsn", "host=localhost user=postgres password=postgres dbname=babel port=5432 sslmode=disable TimeZone=UTC")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", time.Hour)

	v.SetDefault("redis.url", "redis://localhost:6379/0")

	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.ttl", 5*time.Minute)
	v.SetDefault("cache.size", 500)

	v.SetDefault("feed.page_size", 50)
	v.SetDefault("feed.hot_window_days", 7)
	v.SetDefault("feed.newest_window_days", 60)
	v.SetDefault("feed.rank_window_limit", 500)

	v.SetDefault("moderation.report_threshold", 10)
	v.SetDefault("moderation.comment_cap", 500)
	v.SetDefault("moderation.edit_cooldown", 60*time.Minute)

	v.SetDefault("karma.per_vote", 1.0)

	v.SetDefault("log.level", "info")
}

// Load reads .env, an optional config file and BABEL_* environment variables.
// An empty path searches ./config.yaml and ./configs/config.yaml.
func Load(path string) (*Config, error) {
	// .env is optional in production
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	v.SetEnvPrefix("BABEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Variables the original server read directly
	_ = v.BindEnv("database.dsn", "BABEL_DATABASE_DSN", "DATABASE_URL")
	_ = v.BindEnv("server.port", "BABEL_SERVER_PORT", "PORT")
	_ = v.BindEnv("server.session_secret", "BABEL_SERVER_SESSION_SECRET", "SESSION_SECRET")
	_ = v.BindEnv("redis.url", "BABEL_REDIS_URL", "REDIS_URL")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
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

// Validate rejects settings the feed and counter code cannot run with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("config: unsupported database driver %q", c.Database.Driver)
	}
	switch c.Cache.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("config: unsupported cache backend %q", c.Cache.Backend)
	}
	if c.Feed.PageSize <= 0 {
		return fmt.Errorf("config: feed.page_size must be positive")
	}
	if c.Feed.RankWindowLimit <= 0 {
		return fmt.Errorf("config: feed.rank_window_limit must be positive")
	}
	if c.Moderation.ReportThreshold < 0 {
		return fmt.Errorf("config: moderation.report_threshold must not be negative")
	}
	return nil
}

// Default returns the built-in settings without touching files or env.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// Package config loads chromed's configuration from an optional YAML file
// with CHROME_-prefixed environment overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full chromed configuration tree.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Graphs    GraphsConfig    `mapstructure:"graphs"`
	Search    SearchConfig    `mapstructure:"search"`
	Analytics AnalyticsConfig `mapstructure:"analytics"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Postgres  PostgresConfig  `mapstructure:"postgres"`
	Remote    RemoteConfig    `mapstructure:"remote"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type GraphsConfig struct {
	UserPath  string `mapstructure:"user_path"`
	AdminPath string `mapstructure:"admin_path"`
}

type SearchConfig struct {
	Debounce      time.Duration `mapstructure:"debounce"`
	RemoteTimeout time.Duration `mapstructure:"remote_timeout"`
	Staging       bool          `mapstructure:"staging"`

	// IncludeRecentLogins toggles login history in the empty-query
	// fallback.
	IncludeRecentLogins bool `mapstructure:"include_recent_logins"`
	// PlusArticleAllowList restricts help-center results for plus-tier
	// users when non-empty.
	PlusArticleAllowList []string `mapstructure:"plus_article_allow_list"`
}

type AnalyticsConfig struct {
	Path string `mapstructure:"path"`
}

type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Address  string        `mapstructure:"address"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type PostgresConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	URL            string `mapstructure:"url"`
	MigrationsPath string `mapstructure:"migrations_path"`
}

type RemoteConfig struct {
	ObjectAPIBaseURL string `mapstructure:"object_api_base_url"`
	ZendeskBaseURL   string `mapstructure:"zendesk_base_url"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from path (optional, "" skips the file) and the
// environment. Environment keys are upper-cased dotted paths under the
// CHROME prefix, e.g. CHROME_SERVER_ADDRESS.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("CHROME")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("graphs.user_path", "graphs/user.json")
	v.SetDefault("graphs.admin_path", "")
	v.SetDefault("search.debounce", 300*time.Millisecond)
	v.SetDefault("search.remote_timeout", 2*time.Second)
	v.SetDefault("search.staging", false)
	v.SetDefault("search.include_recent_logins", true)
	v.SetDefault("analytics.path", "chrome-analytics.db")
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.ttl", 5*time.Minute)
	v.SetDefault("postgres.enabled", false)
	v.SetDefault("postgres.migrations_path", "file://pkg/remote/merchantdb/migrations")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate rejects configurations that cannot start.
func (c *Config) Validate() error {
	if c.Server.Address == "" {
		return fmt.Errorf("server.address is required")
	}
	if c.Graphs.UserPath == "" {
		return fmt.Errorf("graphs.user_path is required")
	}
	if c.Postgres.Enabled && c.Postgres.URL == "" {
		return fmt.Errorf("postgres.url is required when postgres is enabled")
	}
	if c.Redis.Enabled && c.Redis.Address == "" {
		return fmt.Errorf("redis.address is required when redis is enabled")
	}
	return nil
}

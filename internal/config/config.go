package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. MDFORM_REGISTRY_BASE_URL.
const EnvPrefix = "MDFORM"

// Config represents the mdform configuration
type Config struct {
	Registry RegistryConfig `mapstructure:"registry"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
}

// RegistryConfig configures the dataset service client
type RegistryConfig struct {
	BaseURL       string        `mapstructure:"base_url"`
	APIKey        string        `mapstructure:"api_key"`
	Timeout       time.Duration `mapstructure:"timeout"`
	DeployTimeout time.Duration `mapstructure:"deploy_timeout"`
	PollInterval  time.Duration `mapstructure:"poll_interval"`
}

// RedisConfig configures the registration digest store. An empty Addr disables it.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// ServerConfig configures the translate service
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// LogConfig configures logging
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("registry.base_url", "http://md-data-set-web")
	v.SetDefault("registry.api_key", "")
	v.SetDefault("registry.timeout", "10s")
	v.SetDefault("registry.deploy_timeout", "50s")
	v.SetDefault("registry.poll_interval", "2s")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", "24h")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Load reads the configuration. With an empty path, mdform.yaml is looked up in
// the working directory and a missing file means defaults. Environment
// variables override both.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("mdform")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that viper cannot type-check.
func Validate(cfg *Config) error {
	u, err := url.Parse(cfg.Registry.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("registry.base_url must be an absolute http(s) URL, got: %q", cfg.Registry.BaseURL)
	}
	if strings.HasSuffix(cfg.Registry.BaseURL, "/") {
		return fmt.Errorf("registry.base_url must not end with '/', got: %s", cfg.Registry.BaseURL)
	}
	for name, d := range map[string]time.Duration{
		"registry.timeout":        cfg.Registry.Timeout,
		"registry.deploy_timeout": cfg.Registry.DeployTimeout,
		"registry.poll_interval":  cfg.Registry.PollInterval,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got: %s", name, d)
		}
	}
	if cfg.Redis.TTL < 0 {
		return fmt.Errorf("redis.ttl must not be negative, got: %s", cfg.Redis.TTL)
	}
	switch cfg.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log.format must be 'json' or 'console', got: %s", cfg.Log.Format)
	}
	return nil
}

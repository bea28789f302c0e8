// =================================
// File: internal/config/config.go
// =================================
package config

import (
	"errors"
	"net/url"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

// Config is the process configuration of the venue daemon.
type Config struct {
	AdminKey      string `mapstructure:"admin_key"`
	DataDir       string `mapstructure:"data_dir"`
	LogFile       string `mapstructure:"log_file"`
	LogMaxSizeMB  int    `mapstructure:"log_max_size_mb"`
	LogMaxBackups int    `mapstructure:"log_max_backups"`
	LogMaxAgeDays int    `mapstructure:"log_max_age_days"`
	DebugLogging  bool   `mapstructure:"debug_logging"`
	WebhookURL    string `mapstructure:"webhook_url"`
	WebhookQueue  int    `mapstructure:"webhook_queue"`
	Workers       int    `mapstructure:"workers"`
}

const (
	DefaultLogFile       = "venue.log"
	DefaultLogMaxSizeMB  = 100
	DefaultLogMaxBackups = 3
	DefaultLogMaxAgeDays = 7
	DefaultWebhookQueue  = 256
	DefaultWorkers       = 2
)

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	defaults := map[string]interface{}{
		"log_file":         DefaultLogFile,
		"log_max_size_mb":  DefaultLogMaxSizeMB,
		"log_max_backups":  DefaultLogMaxBackups,
		"log_max_age_days": DefaultLogMaxAgeDays,
		"webhook_queue":    DefaultWebhookQueue,
		"workers":          DefaultWorkers,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := loadEnvironmentVariables(v, &cfg); err != nil {
		return nil, err
	}

	return &cfg, validateConfig(&cfg)
}

func validateConfig(cfg *Config) error {
	if cfg.AdminKey == "" {
		return errors.New("missing admin_key in configuration")
	}
	if cfg.Workers < 0 {
		return errors.New("invalid workers count")
	}
	if cfg.WebhookQueue < 0 {
		return errors.New("invalid webhook_queue size")
	}
	if cfg.WebhookURL != "" {
		if err := validateURLWithCache(cfg.WebhookURL, "https"); err != nil {
			return errors.New("webhook URL must use HTTPS")
		}
	}
	return nil
}

var urlCache sync.Map

func validateURLWithCache(rawURL string, protocol string) error {
	if _, ok := urlCache.Load(rawURL); ok {
		return nil
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.New("invalid URL format")
	}
	if !strings.HasPrefix(parsed.Scheme, protocol) {
		return errors.New("invalid URL protocol")
	}
	urlCache.Store(rawURL, parsed)
	return nil
}

func loadEnvironmentVariables(v *viper.Viper, cfg *Config) error {
	v.AutomaticEnv()
	v.SetEnvPrefix("CURVE_VENUE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	envAdminKey := v.GetString("ADMIN_KEY")
	if envAdminKey != "" {
		cfg.AdminKey = envAdminKey
	}

	envWebhook := v.GetString("WEBHOOK_URL")
	if envWebhook != "" {
		cfg.WebhookURL = envWebhook
	}
	return nil
}

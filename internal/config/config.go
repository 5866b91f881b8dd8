// Package config loads runtime settings from the environment, an optional
// YAML file and defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	// Embedded zone database so Europe/Rome resolves on minimal images.
	_ "time/tzdata"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. LIVE_EVENTS_DB_PATH.
const EnvPrefix = "LIVE_EVENTS"

// Notifier backends
const (
	NotifierFCM      = "fcm"
	NotifierTelegram = "telegram"
	NotifierDryRun   = "dryrun"
)

type Config struct {
	DBPath              string
	Timezone            string
	Location            *time.Location
	HTTPTimeout         time.Duration
	UserAgent           string
	SourcesFile         string
	Notifier            string
	FirebaseCredentials string
	TelegramBotToken    string
	LogLevel            string
	LogFormat           string
	DedupRetries        int
}

// Load reads the configuration. With an empty configFile, live-events.yaml is
// looked up in the working directory and ~/.config/live-events, and its
// absence is not an error.
func Load(configFile string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("live-events")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/live-events")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
	}

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("db_path", "~/.local/share/live-events/events.db")
	v.SetDefault("timezone", "Europe/Rome")
	v.SetDefault("http_timeout", "30s")
	v.SetDefault("user_agent", "")
	v.SetDefault("sources_file", "")
	v.SetDefault("notifier", NotifierFCM)
	v.SetDefault("firebase_credentials", "")
	v.SetDefault("telegram_bot_token", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("dedup_retries", 3)
}

func fromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		DBPath:              strings.TrimSpace(v.GetString("db_path")),
		Timezone:            strings.TrimSpace(v.GetString("timezone")),
		HTTPTimeout:         v.GetDuration("http_timeout"),
		UserAgent:           strings.TrimSpace(v.GetString("user_agent")),
		SourcesFile:         strings.TrimSpace(v.GetString("sources_file")),
		Notifier:            strings.ToLower(strings.TrimSpace(v.GetString("notifier"))),
		FirebaseCredentials: strings.TrimSpace(v.GetString("firebase_credentials")),
		TelegramBotToken:    strings.TrimSpace(v.GetString("telegram_bot_token")),
		LogLevel:            strings.ToLower(strings.TrimSpace(v.GetString("log_level"))),
		LogFormat:           strings.ToLower(strings.TrimSpace(v.GetString("log_format"))),
		DedupRetries:        v.GetInt("dedup_retries"),
	}

	if cfg.DBPath == "" {
		return Config{}, fmt.Errorf("db_path is required")
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "Europe/Rome"
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return Config{}, fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}
	cfg.Location = loc

	if cfg.HTTPTimeout <= 0 {
		return Config{}, fmt.Errorf("http_timeout must be positive, got %s", cfg.HTTPTimeout)
	}
	if cfg.DedupRetries < 0 {
		cfg.DedupRetries = 0
	}

	switch cfg.Notifier {
	case NotifierFCM, NotifierTelegram, NotifierDryRun:
	default:
		return Config{}, fmt.Errorf("invalid notifier %q (must be fcm, telegram or dryrun)", cfg.Notifier)
	}

	return cfg, nil
}

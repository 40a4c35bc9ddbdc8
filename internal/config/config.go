// Package config loads ThoughtWeaver settings from .env, the environment,
// an optional config.yaml and command-line flags, in that order of precedence
// from lowest to highest.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment variables, e.g. THOUGHTWEAVER_API_ADDR.
const EnvPrefix = "THOUGHTWEAVER"

// Keys understood by Load.
const (
	KeyAPIAddr                   = "api.addr"
	KeyDBDSN                     = "db.dsn"
	KeyOpenAIAPIKey              = "openai.api_key"
	KeyOpenAIModel               = "openai.model"
	KeyReplyDelay                = "timing.reply_delay"
	KeySuggestionDelay           = "timing.suggestion_delay"
	KeyCompletionDelay           = "timing.completion_delay"
	KeyWorkflowReSuggestComplete = "workflow.resuggest_completed"
	KeyWorkflowRetainHistory     = "workflow.retain_history"
	KeyLogLevel                  = "log.level"
)

// Config holds the resolved configuration.
type Config struct {
	API struct {
		Addr string `mapstructure:"addr"`
	} `mapstructure:"api"`
	DB struct {
		DSN string `mapstructure:"dsn"`
	} `mapstructure:"db"`
	OpenAI struct {
		APIKey string `mapstructure:"api_key"`
		Model  string `mapstructure:"model"`
	} `mapstructure:"openai"`
	Timing struct {
		ReplyDelay      time.Duration `mapstructure:"reply_delay"`
		SuggestionDelay time.Duration `mapstructure:"suggestion_delay"`
		CompletionDelay time.Duration `mapstructure:"completion_delay"`
	} `mapstructure:"timing"`
	Workflow struct {
		ReSuggestCompleted bool `mapstructure:"resuggest_completed"`
		RetainHistory      bool `mapstructure:"retain_history"`
	} `mapstructure:"workflow"`
	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
}

// SetDefaults registers default values and environment bindings on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyAPIAddr, ":8080")
	v.SetDefault(KeyDBDSN, "")
	v.SetDefault(KeyOpenAIAPIKey, "")
	v.SetDefault(KeyOpenAIModel, "gpt-4o-mini")
	v.SetDefault(KeyReplyDelay, 1500*time.Millisecond)
	v.SetDefault(KeySuggestionDelay, 2000*time.Millisecond)
	v.SetDefault(KeyCompletionDelay, 2000*time.Millisecond)
	v.SetDefault(KeyWorkflowReSuggestComplete, false)
	v.SetDefault(KeyWorkflowRetainHistory, false)
	v.SetDefault(KeyLogLevel, "info")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Conventional unprefixed names.
	_ = v.BindEnv(KeyDBDSN, EnvPrefix+"_DB_DSN", "DATABASE_URL")
	_ = v.BindEnv(KeyOpenAIAPIKey, EnvPrefix+"_OPENAI_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv(KeyLogLevel, EnvPrefix+"_LOG_LEVEL", "LOG_LEVEL")
}

// LoadDotEnv loads a .env file into the process environment. A missing file
// is not an error.
func LoadDotEnv(files ...string) {
	if err := godotenv.Load(files...); err != nil {
		slog.Debug("Config.LoadDotEnv: no .env file loaded", "error", err)
		return
	}
	slog.Debug("Config.LoadDotEnv: loaded .env file")
}

// Load resolves the configuration held by v. When configFile is empty an
// optional config.yaml is looked up in . and ./config.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	SetDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || configFile != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		slog.Debug("Config.Load: no config file found, using defaults and environment")
	} else {
		slog.Debug("Config.Load: using config file", "file", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	slog.Debug("Config.Load: configuration resolved",
		"api_addr", cfg.API.Addr,
		"dsn_set", cfg.DB.DSN != "",
		"openai_key_set", cfg.OpenAI.APIKey != "",
		"openai_model", cfg.OpenAI.Model,
		"reply_delay", cfg.Timing.ReplyDelay,
		"suggestion_delay", cfg.Timing.SuggestionDelay,
		"completion_delay", cfg.Timing.CompletionDelay,
		"retain_history", cfg.Workflow.RetainHistory,
		"resuggest_completed", cfg.Workflow.ReSuggestCompleted,
		"log_level", cfg.Log.Level)
	return &cfg, nil
}

// Validate rejects negative delays and unknown log levels.
func (c *Config) Validate() error {
	for name, d := range map[string]time.Duration{
		KeyReplyDelay:      c.Timing.ReplyDelay,
		KeySuggestionDelay: c.Timing.SuggestionDelay,
		KeyCompletionDelay: c.Timing.CompletionDelay,
	} {
		if d < 0 {
			return fmt.Errorf("%s must not be negative, got %s", name, d)
		}
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
	}
}

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "HTTP2AMCP"

type Config struct {
	Mode         string        `mapstructure:"mode"`
	AMCPHost     string        `mapstructure:"amcp_host"`
	AMCPPort     int           `mapstructure:"amcp_port"`
	ServerPort   int           `mapstructure:"server_port"`
	LogLevel     string        `mapstructure:"log_level"`
	ReplyTimeout time.Duration `mapstructure:"reply_timeout"`
	Metrics      bool          `mapstructure:"metrics"`
	File         string        `mapstructure:"config"`
	ShowVersion  bool          `mapstructure:"version"`
}

// Load resolves the configuration once: flags, then HTTP2AMCP_* env (a .env
// file is honoured), then an optional YAML file, then defaults.
func Load(args []string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Str("module", "config").Msg("no .env file, using environment")
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("mode", "release")
	v.SetDefault("amcp_host", "localhost")
	v.SetDefault("amcp_port", 5250)
	v.SetDefault("server_port", 9731)
	v.SetDefault("log_level", "info")
	v.SetDefault("reply_timeout", "5s")
	v.SetDefault("metrics", true)
	v.SetDefault("config", "")
	v.SetDefault("version", false)

	fs := pflag.NewFlagSet("http2amcp", pflag.ContinueOnError)
	fs.String("host", "localhost", "AMCP server host")
	fs.Int("port", 5250, "AMCP server port")
	fs.Int("server-port", 9731, "HTTP listen port")
	fs.String("log-level", "info", "log level (trace, debug, info, warn, error)")
	fs.String("mode", "release", "gin mode (release, debug)")
	fs.Duration("reply-timeout", 5*time.Second, "deadline for one command/reply cycle")
	fs.Bool("metrics", true, "expose /metrics")
	fs.String("config", "", "optional YAML config file")
	fs.Bool("version", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	for key, flag := range map[string]string{
		"amcp_host":     "host",
		"amcp_port":     "port",
		"server_port":   "server-port",
		"log_level":     "log-level",
		"mode":          "mode",
		"reply_timeout": "reply-timeout",
		"metrics":       "metrics",
		"config":        "config",
		"version":       "version",
	} {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return nil, fmt.Errorf("failed to bind flag %s: %w", flag, err)
		}
	}

	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			log.Warn().Err(err).Str("module", "config").Str("file", file).Msg("config file not loaded, using defaults")
		} else {
			log.Info().Str("module", "config").Str("file", file).Msg("loaded config")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log.Debug().
		Str("module", "config").
		Str("amcp", fmt.Sprintf("%s:%d", cfg.AMCPHost, cfg.AMCPPort)).
		Int("server_port", cfg.ServerPort).
		Str("mode", cfg.Mode).
		Msg("config resolved")
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.AMCPHost == "" {
		errs = append(errs, errors.New("amcp host is empty"))
	}
	if c.AMCPPort < 1 || c.AMCPPort > 65535 {
		errs = append(errs, fmt.Errorf("amcp port %d out of range", c.AMCPPort))
	}
	if c.ServerPort < 1 || c.ServerPort > 65535 {
		errs = append(errs, fmt.Errorf("server port %d out of range", c.ServerPort))
	}
	if c.ReplyTimeout <= 0 {
		errs = append(errs, fmt.Errorf("reply timeout must be positive, got %s", c.ReplyTimeout))
	}
	return errors.Join(errs...)
}

// Level maps the configured verbosity to a zerolog level. Unknown values mean info.
func (c *Config) Level() zerolog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

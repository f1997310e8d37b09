// Package config loads the client and server configuration from defaults,
// an optional YAML file, LINEPAD_* environment variables and command-line
// flags, in increasing order of precedence.
package config

import (
	"strings"
	"time"

	"github.com/burntcarrot/linepad/history"
	"github.com/burntcarrot/linepad/session"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. LINEPAD_CLIENT_SERVER.
const EnvPrefix = "LINEPAD"

// Config represents the complete configuration.
type Config struct {
	Client ClientConfig `mapstructure:"client"`
	Server ServerConfig `mapstructure:"server"`
}

// ClientConfig contains the terminal client settings.
type ClientConfig struct {
	Server   string        `mapstructure:"server"`
	Secure   bool          `mapstructure:"secure"`
	Debug    bool          `mapstructure:"debug"`
	Login    bool          `mapstructure:"login"`
	File     string        `mapstructure:"file"`
	Name     string        `mapstructure:"name"`
	MaxChars int           `mapstructure:"max_chars"`
	History  HistoryConfig `mapstructure:"history"`
}

// HistoryConfig contains the undo batching settings.
type HistoryConfig struct {
	BatchDelay   time.Duration `mapstructure:"batch_delay"`
	MaxBatchSize int           `mapstructure:"max_batch_size"`
}

// ServerConfig contains the relay server settings.
type ServerConfig struct {
	Addr        string `mapstructure:"addr"`
	MetricsPath string `mapstructure:"metrics_path"`
	LogLevel    string `mapstructure:"log_level"`
}

var ErrInvalidConfig = errors.New("invalid configuration")

// Load reads the configuration into v. file may be empty, in which case
// linepad.yaml is looked up in the working directory and in ~/.linepad.
func Load(v *viper.Viper, file string) (*Config, error) {
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read config file %s", file)
		}
	} else {
		v.SetConfigName("linepad")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.linepad")

		if err := v.ReadInConfig(); err != nil {
			// A missing file is fine, defaults and env vars still apply.
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, errors.Wrap(err, "failed to read config file")
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("client.server", "localhost:8080")
	v.SetDefault("client.secure", false)
	v.SetDefault("client.debug", false)
	v.SetDefault("client.login", false)
	v.SetDefault("client.file", "")
	v.SetDefault("client.name", "")
	v.SetDefault("client.max_chars", session.DefaultMaxChars)
	v.SetDefault("client.history.batch_delay", history.DefaultBatchDelay)
	v.SetDefault("client.history.max_batch_size", history.DefaultMaxBatchSize)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.metrics_path", "/metrics")
	v.SetDefault("server.log_level", "info")
}

// BindClientFlags binds the client's command-line flags to their keys.
func BindClientFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	return bindFlags(v, flags, "client", "server", "secure", "debug", "login", "file", "name")
}

// BindServerFlags binds the server's command-line flags to their keys.
func BindServerFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	return bindFlags(v, flags, "server", "addr", "metrics_path", "log_level")
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet, section string, names ...string) error {
	for _, name := range names {
		flag := flags.Lookup(strings.ReplaceAll(name, "_", "-"))
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(section+"."+name, flag); err != nil {
			return errors.Wrapf(err, "failed to bind flag %s", flag.Name)
		}
	}
	return nil
}

// SessionOptions returns the session settings of the client.
func (c ClientConfig) SessionOptions() session.Options {
	return session.Options{
		MaxChars: c.MaxChars,
		History: history.Options{
			BatchDelay:   c.History.BatchDelay,
			MaxBatchSize: c.History.MaxBatchSize,
		},
	}
}

func validate(cfg *Config) error {
	if cfg.Client.Server == "" {
		return errors.Wrap(ErrInvalidConfig, "client.server is empty")
	}
	if cfg.Client.MaxChars <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "client.max_chars must be positive, got %d", cfg.Client.MaxChars)
	}
	if cfg.Client.History.BatchDelay < 0 || cfg.Client.History.MaxBatchSize < 0 {
		return errors.Wrap(ErrInvalidConfig, "client.history values must not be negative")
	}
	if !strings.HasPrefix(cfg.Server.MetricsPath, "/") {
		return errors.Wrapf(ErrInvalidConfig, "server.metrics_path must start with /, got %q", cfg.Server.MetricsPath)
	}
	return nil
}

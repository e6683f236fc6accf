package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"

	"github.com/HelioWoi/liveplan3/pkg/remote"
)

// Config is the process-wide configuration, loaded from config file, flags
// and environment (flag > env > file > default).
type Config struct {
	ServerAddr string `mapstructure:"server_addr"`
	DataFile   string `mapstructure:"data_file"`
	Remote     Remote `mapstructure:"remote"`
}

// Remote points at the hosted backend.
type Remote struct {
	URL      string `mapstructure:"url"`
	APIKey   string `mapstructure:"api_key"`
	Owner    string `mapstructure:"owner"`
	TokenEnv string `mapstructure:"token_env"`
}

// Build loads configuration. cfgFile may be empty, in which case config.yaml
// in the working directory is tried; a missing file is not an error. A .env
// file, when present, is loaded into the environment first.
func Build(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	_ = gotenv.Load()

	v := viper.New()
	v.SetDefault("server_addr", "0.0.0.0:3000")
	v.SetDefault("data_file", "data/ledger.json")
	v.SetDefault("remote.token_env", "LIVEPLAN_TOKEN")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("LIVEPLAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && cfgFile != "" {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Session builds the remote session from the configured owner and the token
// environment variable. Returns nil when either is absent, which the stores
// treat as unauthenticated.
func (c *Config) Session() *remote.Session {
	if c.Remote.Owner == "" || c.Remote.TokenEnv == "" {
		return nil
	}
	token := os.Getenv(c.Remote.TokenEnv)
	if token == "" {
		return nil
	}
	return &remote.Session{Owner: c.Remote.Owner, Token: token}
}

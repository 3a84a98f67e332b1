// Package config loads mvccd's server configuration from environment
// variables (prefix MVCCD_) layered over an optional config file.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds everything cmd/mvccd needs to start the server.
type Config struct {
	ListenAddr string `mapstructure:"listen_addr"`
	LogLevel   string `mapstructure:"log_level"`
}

// Default returns the configuration used when no flags, file, or
// environment variables override it.
func Default() Config {
	return Config{
		ListenAddr: ":7777",
		LogLevel:   "info",
	}
}

// Load reads configFile (when it is non-empty) and then environment
// variables under the MVCCD_ prefix, unmarshalling the result onto a copy
// of Default(). No file is read when configFile is empty. Environment
// variables win over the file.
func Load(configFile string) (Config, error) {
	cfg := Default()

	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return cfg, fmt.Errorf("reading config file: %w", err)
			}
		}
	}

	const prefix = "MVCCD_"
	for _, envStr := range os.Environ() {
		pair := strings.SplitN(envStr, "=", 2)
		if len(pair) != 2 {
			continue
		}
		key, value := pair[0], pair[1]
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		propKey := strings.TrimPrefix(key, prefix)
		propKey = strings.ToLower(propKey)
		v.Set(propKey, value)
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("unmarshalling config: %w", err)
	}
	return cfg, nil
}

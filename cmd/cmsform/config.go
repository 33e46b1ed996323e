package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config is the merged view of config file, environment and flags.
type Config struct {
	Title         string `mapstructure:"title"`
	Codec         string `mapstructure:"codec"`
	BindAttribute string `mapstructure:"bind_attribute"`
	PanelID       string `mapstructure:"panel_id"`
	ToggleID      string `mapstructure:"toggle_id"`
	PayloadID     string `mapstructure:"payload_id"`
	Component     string `mapstructure:"component"`
	EmbeddedID    string `mapstructure:"embedded_id"`
	Preset        string `mapstructure:"preset"`

	Theme ThemeConfig `mapstructure:"theme"`
	Serve ServeConfig `mapstructure:"serve"`
	Log   LogConfig   `mapstructure:"log"`

	// File is the config file that was read, if any.
	File string `mapstructure:"-"`
}

type ThemeConfig struct {
	Name    string            `mapstructure:"name"`
	Variant string            `mapstructure:"variant"`
	Tokens  map[string]string `mapstructure:"tokens"`
}

type ServeConfig struct {
	Addr  string `mapstructure:"addr"`
	Watch bool   `mapstructure:"watch"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

const envPrefix = "CMSFORM"

var defaults = map[string]any{
	"title":          "",
	"codec":          "comma",
	"bind_attribute": "",
	"panel_id":       "",
	"toggle_id":      "",
	"payload_id":     "",
	"component":      "",
	"embedded_id":    "",
	"preset":         "",
	"theme.name":     "",
	"theme.variant":  "",
	"serve.addr":     "127.0.0.1:8080",
	"serve.watch":    true,
	"log.level":      "info",
	"log.file":       "",
}

// flagKeys maps config keys to the flags that override them.
var flagKeys = map[string]string{
	"title":         "title",
	"codec":         "codec",
	"component":     "component",
	"embedded_id":   "embedded-id",
	"preset":        "preset",
	"theme.name":    "theme",
	"theme.variant": "variant",
	"serve.addr":    "addr",
	"serve.watch":   "watch",
	"log.level":     "log-level",
	"log.file":      "log-file",
}

// loadConfig layers defaults, the config file, CMSFORM_* variables and the
// flags of cmd, in increasing precedence.
func loadConfig(cmd *cobra.Command) (Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	flags := cmd.Flags()
	for key, name := range flagKeys {
		flag := flags.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return Config{}, fmt.Errorf("config: bind %s: %w", name, err)
		}
	}

	file, _ := flags.GetString("config")
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("cmsform")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("config: read: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	cfg.File = v.ConfigFileUsed()
	return cfg, nil
}

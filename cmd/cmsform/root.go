package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:   "cmsform",
	Short: "Render editable CMS forms from JSON field schemas",
	Long: `cmsform turns a JSON object (or a YAML, TOML, OpenAPI or HTML document
carrying one) into a CMS editing panel: one input per scalar, an add/remove
list per array of strings, and a hidden control holding the joined list.

Configuration is read from cmsform.{toml,yaml,json} in the working directory
(or --config), then CMSFORM_* environment variables, then flags.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	registerGlobalFlags(rootCmd)
}

func registerGlobalFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.String("config", "", "config file (default ./cmsform.{toml,yaml,json})")
	flags.String("title", "", "panel title")
	flags.String("codec", "comma", "list serialisation: comma or json")
	flags.String("component", "", "OpenAPI component to render when the source is an OpenAPI document")
	flags.String("embedded-id", "", "payload script id when the source is an HTML page")
	flags.String("preset", "", "YAML preset with title, values and omitted keys")
	flags.String("theme", "", "theme name")
	flags.String("variant", "", "theme variant")
	flags.String("log-level", "info", "log level: debug, info, warn, error")
	flags.String("log-file", "", "write JSON logs to a rotating file instead of stderr")
}

// session bundles what every subcommand needs after flags are parsed.
type session struct {
	cfg    Config
	logger *zap.Logger
	ctx    context.Context
}

func newSession(cmd *cobra.Command) (*session, func(), error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	logger, err := newLogger(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, fmt.Errorf("logger: %w", err)
	}
	logger.Debug("config loaded", zap.String("file", cfg.File), zap.String("codec", cfg.Codec))
	cleanup := func() { _ = logger.Sync() }

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return &session{cfg: cfg, logger: logger, ctx: ctx}, cleanup, nil
}

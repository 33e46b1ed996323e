package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-cmsform/internal/devserver"
	"github.com/goliatone/go-cmsform/pkg/render"
	"github.com/goliatone/go-cmsform/pkg/renderers/vanilla"
)

var serveCmd = &cobra.Command{
	Use:   "serve [schema...]",
	Short: "Serve the CMS page with live reload",
	Long: `Serve renders the page on every request and pushes a reload to connected
browsers whenever a schema file changes.

Endpoints:
  /           the rendered page
  /runtime/   stylesheet and runtime script
  /values     JSON snapshot of the bound values
  /health     liveness check
  /ws         websocket for bindings and reloads

Example usage:
  cmsform serve content/index.json
  cmsform serve --addr 127.0.0.1:9000 --watch=false content/index.json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "127.0.0.1:8080", "listen address")
	serveCmd.Flags().Bool("watch", true, "reload when schema files change")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	s, cleanup, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	options, err := s.vanillaOptions(
		vanilla.WithRuntimeURL(devserver.RuntimePath+vanilla.RuntimeScriptName),
		vanilla.WithStylesheetURL(devserver.RuntimePath+vanilla.StylesheetName),
		vanilla.WithLiveReload(devserver.LivePath),
	)
	if err != nil {
		return err
	}
	renderer, err := vanilla.New(options...)
	if err != nil {
		return err
	}
	orch, err := s.orchestrator(renderer)
	if err != nil {
		return err
	}
	req, err := s.request(args, cmd.InOrStdin())
	if err != nil {
		return err
	}
	formOptions, err := s.formOptions()
	if err != nil {
		return err
	}

	renderOptions := render.RenderOptions{}
	selector, err := s.themeSelector()
	if err != nil {
		return err
	}
	if selector != nil {
		cfg, err := render.ResolveTheme(selector, s.cfg.Theme.Name, s.cfg.Theme.Variant)
		if err != nil {
			return err
		}
		renderOptions.Theme = cfg
	}

	srv, err := devserver.New(s.ctx, devserver.Config{
		Addr:        s.cfg.Serve.Addr,
		Load:        func(ctx context.Context) (render.Page, error) { return orch.Page(ctx, req) },
		Renderer:    renderer,
		Options:     renderOptions,
		Assets:      vanilla.AssetsFS(),
		FormOptions: formOptions,
		Logger:      s.logger,
	})
	if err != nil {
		return err
	}
	if err := srv.Start(); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(s.ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if s.cfg.Serve.Watch {
		for _, path := range watchablePaths(args) {
			watcher, err := devserver.NewWatcher(path, func() {
				if err := srv.Refresh(ctx); err != nil {
					s.logger.Warn("reload failed", zap.String("path", path), zap.Error(err))
				}
			}, s.logger)
			if err != nil {
				_ = srv.Stop()
				return err
			}
			if err := watcher.Start(); err != nil {
				_ = srv.Stop()
				return err
			}
			defer watcher.Stop()
		}
	}

	out := cmd.ErrOrStderr()
	fmt.Fprintf(out, "Serving on http://%s\n", srv.Addr())
	fmt.Fprintf(out, "WebSocket endpoint: ws://%s%s\n", srv.Addr(), devserver.LivePath)
	fmt.Fprintln(out, "Press Ctrl+C to stop...")

	<-ctx.Done()
	fmt.Fprintln(out, "Shutting down...")
	return srv.Stop()
}

// watchablePaths drops stdin and remote sources.
func watchablePaths(args []string) []string {
	var paths []string
	for _, arg := range args {
		arg = strings.TrimSpace(arg)
		if arg == "" || arg == "-" || strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://") {
			continue
		}
		paths = append(paths, arg)
	}
	return paths
}

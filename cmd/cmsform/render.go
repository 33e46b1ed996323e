package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-cmsform/pkg/renderers/vanilla"
)

var renderCmd = &cobra.Command{
	Use:   "render [schema...]",
	Short: "Render the CMS page to stdout or a file",
	Long: `Render builds one panel per schema source and writes the HTML page.

A source is a file path, an http(s) URL or "-" for stdin. The first source
becomes the root data panel (p-root-data), the second the local data panel
(p-local-data).

Example usage:
  cmsform render content/index.json
  cmsform render --fragment --codec json content/index.json -o panel.html
  cmsform render --component Post openapi.yaml`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringP("output", "o", "", "output file (stdout if empty)")
	renderCmd.Flags().Bool("fragment", false, "emit the panel markup without the surrounding document")
	renderCmd.Flags().String("runtime-url", "", "reference the runtime script by URL instead of inlining it")
	renderCmd.Flags().String("stylesheet-url", "", "reference the stylesheet by URL instead of inlining it")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	s, cleanup, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	var extra []vanilla.Option
	if fragment, _ := cmd.Flags().GetBool("fragment"); fragment {
		extra = append(extra, vanilla.WithFragment())
	}
	if url, _ := cmd.Flags().GetString("runtime-url"); url != "" {
		extra = append(extra, vanilla.WithRuntimeURL(url))
	}
	if url, _ := cmd.Flags().GetString("stylesheet-url"); url != "" {
		extra = append(extra, vanilla.WithStylesheetURL(url))
	}
	options, err := s.vanillaOptions(extra...)
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

	out, err := orch.Generate(s.ctx, req)
	if err != nil {
		return err
	}
	output, _ := cmd.Flags().GetString("output")
	return writeOutput(cmd, output, out)
}

func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Written to %s\n", path)
	return nil
}

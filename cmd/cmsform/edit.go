package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-cmsform/pkg/renderers/tui"
)

var editCmd = &cobra.Command{
	Use:   "edit [schema...]",
	Short: "Edit field values in the terminal",
	Long: `Edit prompts for every field of the schema. Lists get an item menu to
edit, add and remove entries; the edited payload is written as JSON,
form-urlencoded data or plain key=value lines.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runEdit,
}

func init() {
	editCmd.Flags().String("format", "json", "output format: json, form or pretty")
	editCmd.Flags().StringP("output", "o", "", "output file (stdout if empty)")
	rootCmd.AddCommand(editCmd)
}

func runEdit(cmd *cobra.Command, args []string) error {
	s, cleanup, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	raw, _ := cmd.Flags().GetString("format")
	format, ok := tui.ParseOutputFormat(raw)
	if !ok {
		return fmt.Errorf("unknown output format %q", raw)
	}
	formOptions, err := s.formOptions()
	if err != nil {
		return err
	}
	renderer, err := tui.New(
		tui.WithOutputFormat(format),
		tui.WithFormOptions(formOptions...),
		tui.WithOutput(cmd.ErrOrStderr()),
		tui.WithLogger(s.logger),
	)
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
	if errors.Is(err, tui.ErrAborted) {
		fmt.Fprintln(cmd.ErrOrStderr(), "Aborted")
		return nil
	}
	if err != nil {
		return err
	}
	output, _ := cmd.Flags().GetString("output")
	return writeOutput(cmd, output, out)
}

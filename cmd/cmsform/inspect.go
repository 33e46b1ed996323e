package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [schema...]",
	Short: "Print the decoded fields of each schema",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	s, cleanup, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	orch, err := s.orchestrator()
	if err != nil {
		return err
	}
	req, err := s.request(args, cmd.InOrStdin())
	if err != nil {
		return err
	}
	page, err := orch.Page(s.ctx, req)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	for i, panel := range page.Panels {
		if len(page.Panels) > 1 {
			if i > 0 {
				fmt.Fprintln(w)
			}
			fmt.Fprintf(w, "# %s\n", args[i])
		}
		for _, field := range panel.Schema.Fields() {
			fmt.Fprintf(w, "%s\t%s\t%s\n", field.Key, field.Value.Kind, field.Value.String())
		}
	}
	return w.Flush()
}

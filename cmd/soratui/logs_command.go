package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/five82/soratui/internal/logtail"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var plain bool

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent diagnostic log records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.loadConfig()
			if err != nil {
				return err
			}
			path := cfg.LogFile
			if cfg.LogsToStderr() {
				return errors.New("log_file is set to stderr; there is no log file to show")
			}

			records, err := logtail.Read(path, lines)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintf(out, "No log records in %s\n", path)
				return nil
			}

			colorize := !plain && isTerminal(out)
			styles := logtail.DefaultStyles()
			for _, line := range records {
				if colorize {
					line = logtail.Highlight(line, styles)
				}
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of lines to show (0 for all)")
	cmd.Flags().BoolVar(&plain, "plain", false, "Disable colors")
	return cmd
}

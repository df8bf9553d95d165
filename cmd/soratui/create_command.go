package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/five82/soratui/internal/app"
	"github.com/five82/soratui/internal/workflow"
)

func newCreateCommand(ctx *commandContext) *cobra.Command {
	var fields workflow.Fields
	var scriptFile string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a video and wait for the download",
		Long: "Submit a script, poll until the video is ready and save it as <id>.mp4.\n" +
			"Progress lines are the same ones the TUI shows in its log pane.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if scriptFile != "" {
				if fields.Script != "" {
					return fmt.Errorf("use either --script or --script-file, not both")
				}
				script, err := readScript(cmd.InOrStdin(), scriptFile)
				if err != nil {
					return err
				}
				fields.Script = script
			}
			return app.Headless(cmd.Context(), ctx.options(), fields, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&fields.Script, "script", "s", "", "Script text")
	cmd.Flags().StringVarP(&scriptFile, "script-file", "f", "", "Read the script from a file (- for stdin)")
	cmd.Flags().StringVar(&fields.Voice, "voice", "", "Voice (optional)")
	cmd.Flags().StringVar(&fields.Style, "style", "", "Style (optional)")
	return cmd
}

func readScript(stdin io.Reader, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read script: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

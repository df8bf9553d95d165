package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/five82/soratui/internal/app"
)

func newRootCommand() *cobra.Command {
	var flags rootFlags
	ctx := newCommandContext(&flags)

	rootCmd := &cobra.Command{
		Use:           "soratui",
		Short:         "Turn a script into a video from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isTerminal(cmd.OutOrStdout()) {
				return errors.New("the TUI needs an interactive terminal; use `soratui create` in scripts")
			}
			return app.Run(cmd.Context(), ctx.options())
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "Configuration file path (default ~/.config/soratui/config.toml)")
	pf.StringVar(&flags.prefsPath, "prefs", "", "Preferences file path (default ~/.config/soratui/prefs.toml)")
	pf.StringVar(&flags.profile, "profile", "", "API profile: sora2 or openai")
	pf.StringVar(&flags.endpoint, "endpoint", "", "Override the API base URL")
	pf.StringVar(&flags.outputDir, "output-dir", "", "Directory for downloaded videos")
	pf.DurationVar(&flags.poll, "poll", 0, "Status check interval (default 2s)")

	rootCmd.AddCommand(newCreateCommand(ctx))
	rootCmd.AddCommand(newStatusCommand(ctx))
	rootCmd.AddCommand(newDownloadCommand(ctx))
	rootCmd.AddCommand(newLogsCommand(ctx))
	rootCmd.AddCommand(newProfilesCommand())

	return rootCmd
}

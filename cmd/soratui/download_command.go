package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/five82/soratui/internal/api"
	"github.com/five82/soratui/internal/app"
	"github.com/five82/soratui/internal/output"
)

func newDownloadCommand(ctx *commandContext) *cobra.Command {
	var dest string

	cmd := &cobra.Command{
		Use:   "download <id>",
		Short: "Download a completed video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			if err := output.ValidateID(id); err != nil {
				return fmt.Errorf("%w: %q", err, id)
			}
			return ctx.withSession(func(sess *app.Session) error {
				path := strings.TrimSpace(dest)
				if path == "" {
					path = output.Path(sess.Config.OutputDir, id)
				}

				var bar *progressbar.ProgressBar
				var opts []api.DownloadOption
				if errOut := cmd.ErrOrStderr(); isTerminal(errOut) {
					opts = append(opts, api.WithProgress(func(total int64) io.Writer {
						bar = newDownloadBar(errOut, id, total)
						return bar
					}))
				}

				fmt.Fprintf(cmd.OutOrStdout(), "Downloading video to %s...\n", path)
				err := sess.Client.Download(cmd.Context(), id, path, opts...)
				if bar != nil {
					_ = bar.Finish()
				}
				if err != nil {
					return err
				}

				size := "unknown size"
				if info, statErr := os.Stat(path); statErr == nil {
					size = humanize.Bytes(uint64(info.Size()))
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Video downloaded to %s (%s)\n", path, size)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&dest, "output", "o", "", "Destination file (default <output-dir>/<id>.mp4)")
	return cmd
}

// newDownloadBar renders byte progress; total is -1 when the server sends no
// Content-Length, which switches the bar to a spinner.
func newDownloadBar(w io.Writer, id string, total int64) *progressbar.ProgressBar {
	return progressbar.NewOptions64(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(id),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionOnCompletion(func() { _, _ = fmt.Fprintln(w) }),
	)
}

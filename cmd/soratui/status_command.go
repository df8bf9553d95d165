package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/five82/soratui/internal/api"
	"github.com/five82/soratui/internal/app"
	"github.com/five82/soratui/internal/output"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var watch, asJSON bool

	cmd := &cobra.Command{
		Use:   "status <id>",
		Short: "Show the status of a video job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			if err := output.ValidateID(id); err != nil {
				return fmt.Errorf("%w: %q", err, id)
			}
			return ctx.withSession(func(sess *app.Session) error {
				var (
					job api.Job
					err error
				)
				if watch {
					out := cmd.OutOrStdout()
					job, err = app.WatchJob(cmd.Context(), sess.Client, id, app.WatchOptions{
						Interval: sess.Config.PollInterval,
						Logger:   sess.Logger,
						OnStatus: func(j api.Job) {
							if !asJSON {
								fmt.Fprintf(out, "Status: %s\n", j.Status)
							}
						},
					})
				} else {
					job, err = sess.Client.GetStatus(cmd.Context(), id)
				}
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), job)
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderJob(job))
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Poll until the job completes or fails")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw service response as JSON")
	return cmd
}

// renderJob prints the modeled fields first, then any extra scalar fields
// the service returned.
func renderJob(job api.Job) string {
	rows := [][]string{
		{"ID", job.ID},
		{"Status", titleStatus(job.Status)},
	}
	if job.DownloadURL != "" {
		rows = append(rows, []string{"Download URL", job.DownloadURL})
	}
	if job.Error != "" {
		rows = append(rows, []string{"Error", job.Error})
	}

	known := map[string]bool{"id": true, "status": true, "error": true, "download_url": true, "url": true}
	extra := make([]string, 0, len(job.Raw))
	for k, v := range job.Raw {
		if known[k] {
			continue
		}
		switch v.(type) {
		case string, json.Number, float64, bool:
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	for _, k := range extra {
		rows = append(rows, []string{k, fmt.Sprint(job.Raw[k])})
	}
	return renderTable([]string{"Field", "Value"}, rows)
}

func titleStatus(status string) string {
	status = strings.TrimSpace(status)
	if status == "" {
		return "Unknown"
	}
	return cases.Title(language.Und).String(strings.ReplaceAll(status, "_", " "))
}

func writeJSON(w io.Writer, job api.Job) error {
	payload := job.Raw
	if payload == nil {
		payload = map[string]any{"id": job.ID, "status": job.Status}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

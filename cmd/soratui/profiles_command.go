package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/five82/soratui/internal/api"
)

func newProfilesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List the API profiles soratui can speak",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			def := api.DefaultProfile().Name
			rows := make([][]string, 0, len(api.ProfileNames()))
			for _, name := range api.ProfileNames() {
				p, err := api.LookupProfile(name)
				if err != nil {
					return err
				}
				marker := ""
				if p.Name == def {
					marker = "yes"
				}
				rows = append(rows, []string{p.Name, p.BaseURL + p.BasePath, p.ScriptField, p.DownloadURLField, marker})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Profile", "Endpoint", "Script field", "Download field", "Default"}, rows))
			return nil
		},
	}
}

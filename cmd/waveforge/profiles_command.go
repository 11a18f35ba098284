package main

import (
	"github.com/spf13/cobra"

	"waveforge/internal/profiles"
)

func newProfilesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List the available quality profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rows := make([][]string, 0, len(profiles.All()))
			for _, p := range profiles.All() {
				bitrate := p.Bitrate
				if p.Lossless() {
					bitrate = "lossless"
				}
				rows = append(rows, []string{p.Name, p.Tier.Label(), "." + p.Extension, bitrate})
			}
			cmd.Println(renderTable(
				[]string{"Profile", "Tier", "Extension", "Bitrate"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight},
			))
			return nil
		},
	}
}

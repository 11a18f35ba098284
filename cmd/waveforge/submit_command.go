package main

import (
	"errors"

	"github.com/spf13/cobra"

	"waveforge/internal/profiles"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var profileFlags []string
	var allProfiles bool

	cmd := &cobra.Command{
		Use:   "submit <url>",
		Short: "Queue a conversion job on the daemon",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			selected, err := selectedProfiles(profileFlags, allProfiles)
			if err != nil {
				return err
			}

			base, err := ctx.apiBase()
			if err != nil {
				return err
			}

			jobID, err := newAPIClient(base).submit(args[0], selected)
			if err != nil {
				return err
			}
			cmd.Printf("Queued job %s (%d profiles)\n", jobID, len(selected))
			cmd.Printf("Track it with: waveforge status %s\n", jobID)
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&profileFlags, "profile", "p", nil, "Quality profile to produce (repeatable)")
	cmd.Flags().BoolVar(&allProfiles, "all", false, "Produce every catalog profile")
	return cmd
}

func selectedProfiles(names []string, all bool) ([]string, error) {
	if all {
		catalog := profiles.All()
		out := make([]string, len(catalog))
		for i, p := range catalog {
			out[i] = p.Name
		}
		return out, nil
	}
	if len(names) == 0 {
		return nil, errors.New("select at least one profile with --profile or use --all")
	}
	if _, err := profiles.Resolve(names); err != nil {
		return nil, err
	}
	return names, nil
}

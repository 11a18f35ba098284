package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

func newFetchCommand(ctx *commandContext) *cobra.Command {
	var outputFlag string

	cmd := &cobra.Command{
		Use:   "fetch <job-id>",
		Short: "Download a completed job's archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := ctx.apiBase()
			if err != nil {
				return err
			}
			client := newAPIClient(base)

			job, err := client.job(args[0])
			if err != nil {
				return err
			}
			if !job.ArchiveReady {
				return fmt.Errorf("job %s has no archive yet (status %s)", job.ID, job.Status)
			}

			dest := outputFlag
			if dest == "" {
				name := job.Title
				if name == "" {
					name = job.ID
				}
				dest = name + "_audio_collection.zip"
			}

			body, size, err := client.openArchive(job.ID)
			if err != nil {
				return err
			}
			defer body.Close()

			out, err := os.Create(dest)
			if err != nil {
				return fmt.Errorf("create %s: %w", dest, err)
			}
			defer out.Close()

			var reader io.Reader = body
			if isTerminal(cmd.OutOrStdout()) && size > 0 {
				bar := progressbar.DefaultBytes(size, "downloading")
				pr := progressbar.NewReader(body, bar)
				reader = &pr
			}

			written, err := io.Copy(out, reader)
			if err != nil {
				_ = os.Remove(dest)
				return fmt.Errorf("download archive: %w", err)
			}

			abs, absErr := filepath.Abs(dest)
			if absErr != nil {
				abs = dest
			}
			cmd.Printf("Saved %s (%s)\n", abs, humanize.Bytes(uint64(written)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Destination file path")
	return cmd
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"waveforge/internal/acquire"
	"waveforge/internal/encode"
	"waveforge/internal/jobs"
	"waveforge/internal/logging"
	"waveforge/internal/workflow"
)

// newConvertCommand runs the whole pipeline in-process, without a daemon.
func newConvertCommand(ctx *commandContext) *cobra.Command {
	var profileFlags []string
	var allProfiles bool
	var outputFlag string

	cmd := &cobra.Command{
		Use:   "convert <url>",
		Short: "Convert a source locally and package the results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			selected, err := selectedProfiles(profileFlags, allProfiles)
			if err != nil {
				return err
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if outputFlag != "" {
				cfg.Paths.OutputDir = outputFlag
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return err
			}

			logger, err := logging.New(logging.Options{
				Level:       "warn",
				Format:      "console",
				OutputPaths: []string{"stderr"},
			})
			if err != nil {
				return err
			}

			store, err := jobs.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			job, err := store.Create(runCtx, args[0], selected, cfg.Paths.OutputDir)
			if err != nil {
				return err
			}

			manager := workflow.NewManager(cfg, store,
				acquire.NewClient(cfg, logger),
				encode.NewClient(cfg, logger),
				logger)

			done := make(chan struct{})
			go func() {
				defer close(done)
				manager.ProcessJob(runCtx, job)
			}()

			final, err := watchJob(runCtx, cmd, store, job.ID, done)
			if err != nil {
				return err
			}
			return printResult(cmd, final)
		},
	}

	cmd.Flags().StringArrayVarP(&profileFlags, "profile", "p", nil, "Quality profile to produce (repeatable)")
	cmd.Flags().BoolVar(&allProfiles, "all", false, "Produce every catalog profile")
	cmd.Flags().StringVarP(&outputFlag, "output-dir", "o", "", "Directory for converted files")
	return cmd
}

// watchJob renders live progress until processing finishes and returns the
// final job record.
func watchJob(ctx context.Context, cmd *cobra.Command, store *jobs.Store, id string, done <-chan struct{}) (*jobs.Job, error) {
	useBar := isTerminal(cmd.OutOrStdout())
	var bar *progressbar.ProgressBar
	printed := 0

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	finished := false
	for {
		select {
		case <-ctx.Done():
			<-done
			finished = true
		case <-done:
			finished = true
		case <-ticker.C:
		}

		job, err := store.Get(ctx, id)
		if err != nil {
			if finished || ctx.Err() != nil {
				job, err = store.Get(context.Background(), id)
			}
			if err != nil {
				return nil, err
			}
		}

		if useBar {
			if bar == nil {
				bar = progressbar.NewOptions(job.TotalSteps,
					progressbar.OptionSetDescription(job.Phase),
					progressbar.OptionSetWriter(cmd.OutOrStdout()),
					progressbar.OptionShowCount(),
					progressbar.OptionClearOnFinish(),
				)
			}
			bar.Describe(job.Phase)
			_ = bar.Set(job.CompletedSteps)
		} else {
			for ; printed < len(job.Log); printed++ {
				cmd.Println(job.Log[printed].Message)
			}
		}

		if finished || job.Completed() {
			if bar != nil {
				_ = bar.Finish()
			}
			if !useBar {
				for ; printed < len(job.Log); printed++ {
					cmd.Println(job.Log[printed].Message)
				}
			}
			return job, nil
		}
	}
}

func printResult(cmd *cobra.Command, job *jobs.Job) error {
	if job.Failed() {
		return fmt.Errorf("conversion failed: %s", job.ErrorMessage)
	}

	cmd.Printf("\nConversion completed for %q\n", job.Title)
	if job.ArchivePath != "" {
		line := "Collection: " + job.ArchivePath
		if info, err := os.Stat(job.ArchivePath); err == nil {
			line += " (" + humanize.Bytes(uint64(info.Size())) + ")"
		}
		cmd.Println(line)
	}
	return nil
}

package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var statusFilter string

	cmd := &cobra.Command{
		Use:   "status [job-id]",
		Short: "Show daemon health or one job's progress",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := ctx.apiBase()
			if err != nil {
				return err
			}
			client := newAPIClient(base)

			if len(args) == 1 {
				return printJob(cmd, client, args[0])
			}
			return printOverview(cmd, client, statusFilter)
		},
	}

	cmd.Flags().StringVar(&statusFilter, "filter", "", "Only list jobs in this status (e.g. pending, failed)")
	return cmd
}

func printOverview(cmd *cobra.Command, client *apiClient, filter string) error {
	status, err := client.status()
	if err != nil {
		return err
	}

	cmd.Printf("Daemon running: %v\n", status.Running)
	cmd.Printf("Jobs: %d total, %d pending, %d processing, %d completed, %d failed\n\n",
		status.Total, status.Pending, status.Processing, status.Completed, status.Failed)

	list, err := client.list(filter)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		cmd.Println("No jobs.")
		return nil
	}

	rows := make([][]string, 0, len(list))
	for _, job := range list {
		rows = append(rows, []string{
			shortID(job.ID),
			job.Status,
			fmt.Sprintf("%d/%d", job.CompletedSteps, job.TotalSteps),
			firstNonEmpty(job.Title, job.URL),
			job.UpdatedAt.Local().Format(time.Stamp),
		})
	}
	cmd.Println(renderTable(
		[]string{"Job", "Status", "Steps", "Source", "Updated"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
	))
	return nil
}

func printJob(cmd *cobra.Command, client *apiClient, id string) error {
	job, err := client.job(id)
	if err != nil {
		return err
	}

	cmd.Printf("Job:      %s\n", job.ID)
	cmd.Printf("Source:   %s\n", job.URL)
	if job.Title != "" {
		cmd.Printf("Title:    %s\n", job.Title)
	}
	cmd.Printf("Profiles: %s\n", strings.Join(job.Profiles, ", "))
	cmd.Printf("Status:   %s\n", job.Status)
	cmd.Printf("Progress: %d/%d (%.0f%%)\n", job.CompletedSteps, job.TotalSteps, job.Percent)
	if job.Phase != "" {
		cmd.Printf("Phase:    %s\n", job.Phase)
	}
	if job.Error != "" {
		cmd.Printf("Error:    %s\n", job.Error)
	}
	if job.ArchiveReady {
		cmd.Printf("Archive:  ready (waveforge fetch %s)\n", job.ID)
	}

	if len(job.Log) > 0 {
		cmd.Println("\nLog:")
		for _, line := range job.Log {
			cmd.Printf("  %s  %s\n", line.At.Local().Format("15:04:05"), line.Message)
		}
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"jobmirror/internal/sched"
)

var errRequestFailed = errors.New("request failed")

func newListCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queued and finished jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.newGateway()
			if err != nil {
				return err
			}
			res := client.ListJobs(cmd.Context())
			if !res.OK {
				return fmt.Errorf("%w: %s", errRequestFailed, res.Message)
			}
			if jsonOut {
				return writeJSON(cmd, res.Jobs)
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			zone := ctx.zone()

			if len(res.Jobs.Queued) == 0 && len(res.Jobs.Done) == 0 {
				fmt.Fprintln(out, "No jobs")
				return nil
			}

			if len(res.Jobs.Queued) > 0 {
				rows := make([][]string, 0, len(res.Jobs.Queued))
				for _, job := range res.Jobs.Queued {
					rows = append(rows, queuedRow(job, zone, colorize))
				}
				fmt.Fprintln(out, "Queued")
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Description", "Type", "Priority", "Status", "Start", "In", "Deps"},
					rows, 7))
			}
			if len(res.Jobs.Done) > 0 {
				rows := make([][]string, 0, len(res.Jobs.Done))
				for _, job := range res.Jobs.Done {
					rows = append(rows, doneRow(job, zone, colorize))
				}
				fmt.Fprintln(out, "Finished")
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Description", "Type", "Status", "Completed", "Error"},
					rows))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of tables")
	return cmd
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "show <job-id>",
		Short: "Show one job in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.newGateway()
			if err != nil {
				return err
			}
			res := client.GetJob(cmd.Context(), args[0])
			if !res.OK {
				return fmt.Errorf("%w: %s", errRequestFailed, res.Message)
			}
			if jsonOut {
				return writeJSON(cmd, res.Job)
			}
			out := cmd.OutOrStdout()
			renderJobDetail(out, res.Job, ctx.zone(), shouldColorize(out))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of the detail view")
	return cmd
}

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var in sched.Input

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a new job",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			policy := sched.Policy{MinimumLead: cfg.MinimumLead(), Zone: cfg.Zone()}

			submission, fieldErrs := sched.Validate(in, policy, time.Now())
			if len(fieldErrs) > 0 {
				for _, fe := range fieldErrs {
					fmt.Fprintf(cmd.ErrOrStderr(), "  %s\n", fe)
				}
				return fmt.Errorf("submission rejected: %d field error(s)", len(fieldErrs))
			}

			client, err := ctx.newGateway()
			if err != nil {
				return err
			}
			res := client.CreateJob(cmd.Context(), submission)
			if !res.OK {
				return fmt.Errorf("%w: %s", errRequestFailed, res.Message)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created job %s\n", res.Job.ID)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&in.Description, "description", "d", "", "Job description (required)")
	flags.StringVarP(&in.CodeType, "type", "t", "shell", "Code type: javascript, shell, or file")
	flags.StringVar(&in.CodeContent, "code", "", "Code or file path to execute (required)")
	flags.IntVarP(&in.Priority, "priority", "p", 1, "Priority: 0 high, 1 medium, 2 low")
	flags.StringSliceVar(&in.Dependencies, "depends-on", nil, "Job ids this job depends on")
	flags.IntVar(&in.RetryPolicy, "retries", 0, "Retry attempts on failure (0-10)")
	flags.IntVar(&in.Repeat, "repeat", 0, "Repeat interval in seconds, 0 for one-shot")
	flags.StringVarP(&in.StartTime, "start", "s", "", "Start time, e.g. 2026-09-01T15:04 (required)")
	return cmd
}

func newDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <job-id>",
		Short: "Delete a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.newGateway()
			if err != nil {
				return err
			}
			res := client.DeleteJob(cmd.Context(), args[0])
			if !res.OK {
				return fmt.Errorf("%w: %s", errRequestFailed, res.Message)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted job %s\n", args[0])
			return nil
		},
	}
}

package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"jobmirror/internal/sched"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show scheduler health and worker statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.newGateway()
			if err != nil {
				return err
			}

			statusRes := client.SystemStatus(cmd.Context())
			if !statusRes.OK {
				return fmt.Errorf("%w: %s", errRequestFailed, statusRes.Message)
			}
			workerRes := client.WorkerStats(cmd.Context())
			schedRes := client.SchedulerStats(cmd.Context())

			if jsonOut {
				return writeJSON(cmd, map[string]any{
					"status":    statusRes.Status,
					"workers":   workerRes.Stats,
					"scheduler": schedRes.Stats,
				})
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			state := "offline"
			if statusRes.Status.Online() {
				state = "online"
			}
			if colorize {
				if statusRes.Status.Online() {
					state = ansiGreen + state + ansiReset
				} else {
					state = ansiRed + state + ansiReset
				}
			}
			fmt.Fprintf(out, "Scheduler: %s\n", state)
			if statusRes.Status.Message != "" {
				fmt.Fprintf(out, "  %s\n", statusRes.Status.Message)
			}

			if workerRes.OK {
				renderWorkerStats(cmd, workerRes.Stats)
			}
			if schedRes.OK {
				fmt.Fprintf(out, "Queue length: %d, scheduled: %d\n",
					schedRes.Stats.QueueLength, schedRes.Stats.ScheduledJobs)
				if dag := schedRes.Stats.DAGStats; dag != nil {
					fmt.Fprintf(out, "DAG: %d nodes, %d edges, %d roots\n",
						dag.Nodes, dag.Edges, dag.Roots)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of the summary")
	return cmd
}

func renderWorkerStats(cmd *cobra.Command, stats sched.WorkerStats) {
	rows := [][]string{
		{"total", strconv.Itoa(stats.Total)},
		{"busy", strconv.Itoa(stats.Busy)},
		{"idle", strconv.Itoa(stats.Idle)},
		{"completed", strconv.Itoa(stats.CompletedJobs)},
		{"failed", strconv.Itoa(stats.FailedJobs)},
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Workers", "Count"}, rows, 1))
}

func newOrderCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "order",
		Short: "Preview the dependency execution order",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.newGateway()
			if err != nil {
				return err
			}
			res := client.ExecutionOrder(cmd.Context())
			if !res.OK {
				return fmt.Errorf("%w: %s", errRequestFailed, res.Message)
			}
			if jsonOut {
				return writeJSON(cmd, res.Order)
			}
			out := cmd.OutOrStdout()
			if len(res.Order) == 0 {
				fmt.Fprintln(out, "No jobs to order")
				return nil
			}
			for i, id := range res.Order {
				fmt.Fprintf(out, "%2d. %s\n", i+1, id)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of the numbered list")
	return cmd
}

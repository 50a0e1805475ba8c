package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow job updates live until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := ctx.newSession()
			if err != nil {
				return err
			}
			defer session.Close()

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			zone := ctx.zone()

			session.OnConnection(func(up bool) {
				fmt.Fprintf(out, "-- %s\n", renderConnection(up, colorize))
			})
			session.OnSystemError(func(msg string) {
				fmt.Fprintf(out, "-- scheduler error: %s\n", msg)
			})
			session.OnChange(func() {
				snap := session.Snapshot()
				fmt.Fprintf(out, "%s  %d queued, %d finished\n",
					zone.Now(), len(snap.Queued), len(snap.Done))
				for _, job := range snap.Queued {
					fmt.Fprintf(out, "  %s  %-10s %s (%s)\n",
						job.ID, renderStatus(job.Status, colorize),
						job.Description, zone.DeltaFromNow(job.StartTime).Human)
				}
			})

			watchCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			if err := session.Start(watchCtx); err != nil {
				return err
			}

			snap := session.Snapshot()
			fmt.Fprintf(out, "Watching %d queued and %d finished jobs; Ctrl-C to stop\n",
				len(snap.Queued), len(snap.Done))

			<-watchCtx.Done()
			fmt.Fprintln(out, "Stopped")
			return nil
		},
	}
}

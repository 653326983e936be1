package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/xelth-com/receivinggo/internal/app"
)

// NewBacklogCommand creates the backlog command group.
func NewBacklogCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backlog",
		Short: "Manage POs waiting to appear in the vendor system",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List pending POs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withApp(cmd, func(a *app.App) error {
				entries, err := a.Backlog.List(cmd.Context())
				if err != nil {
					return err
				}
				return rootOpts.formatter(cmd).Result(entries, func(w io.Writer) {
					row(w, "PO", "ADDED", "LAST CHECKED", "STATUS")
					for _, e := range entries {
						row(w, e.PONumber, e.DateAdded.Format(time.RFC3339), e.LastChecked.Format(time.RFC3339), e.Status)
					}
				})
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add <po>",
		Short: "Start tracking a PO",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withApp(cmd, func(a *app.App) error {
				entry, err := a.Backlog.Add(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return rootOpts.formatter(cmd).Result(entry, func(w io.Writer) {
					fmt.Fprintf(w, "added %s\n", entry.PONumber)
				})
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <po>",
		Short: "Stop tracking a PO",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withApp(cmd, func(a *app.App) error {
				if err := a.Backlog.Remove(cmd.Context(), args[0]); err != nil {
					return err
				}
				return rootOpts.formatter(cmd).Result(map[string]string{"removed": args[0]}, func(w io.Writer) {
					fmt.Fprintf(w, "removed %s\n", args[0])
				})
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Check every pending PO against the vendor now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withApp(cmd, func(a *app.App) error {
				res, err := a.Scheduler.RunNow(cmd.Context())
				if err != nil {
					return err
				}
				return rootOpts.formatter(cmd).Result(res, func(w io.Writer) {
					row(w, "CHECKED", "FOUND", "NOT FOUND", "ERRORS")
					row(w, res.Checked, res.Found, res.NotFound, res.Errors)
					for _, po := range res.Resolved {
						row(w, "resolved:", po)
					}
				})
			})
		},
	})

	return cmd
}

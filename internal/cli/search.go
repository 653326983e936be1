package cli

import (
	"io"

	"github.com/spf13/cobra"
	"github.com/xelth-com/receivinggo/internal/app"
	"github.com/xelth-com/receivinggo/internal/ledger"
)

// NewSearchCommand creates the search command.
func NewSearchCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "search <po>",
		Short: "Fetch a PO from the vendor and sync it into the ledger",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withApp(cmd, func(a *app.App) error {
				res, err := a.Receiving.Search(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return rootOpts.formatter(cmd).Result(res, func(w io.Writer) {
					row(w, "SI DOC", "SUPPLIER", "STATUS", "LINES", "TOTAL")
					for _, inv := range res.Invoices {
						row(w, inv.SIDocNumber, inv.Supplier, inv.Status, len(inv.LineItems), inv.DocumentTotal.StringFixed(2))
					}
					if res.VendorError != "" {
						row(w, "vendor error:", res.VendorError)
					}
					if res.LedgerSync != nil {
						row(w, "ledger:", res.LedgerSync.Updated, "updated", res.LedgerSync.Inserted, "inserted")
					}
					if res.LedgerError != "" {
						row(w, "ledger sync skipped:", res.LedgerError)
					}
				})
			})
		},
	}
}

// NewCompletionCommand creates the completion command.
func NewCompletionCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "completion <po>",
		Short: "Show inspection status of every line item of a PO",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withApp(cmd, func(a *app.App) error {
				res, err := a.Receiving.Completion(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return rootOpts.formatter(cmd).Result(res, func(w io.Writer) { printCompletion(w, res) })
			})
		},
	}
}

func printCompletion(w io.Writer, res ledger.CompletionResult) {
	row(w, "SI DOC", "#", "DESCRIPTION", "INSPECTOR", "STATUS")
	for _, r := range res.LineItems {
		row(w, r.SIDocNumber, r.LineItemIndex, r.ItemDescription, r.Inspector, r.InspectionStatus)
	}
	row(w, "complete:", res.ShouldNotify())
}

package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/xelth-com/receivinggo/internal/app"
	"github.com/xelth-com/receivinggo/internal/report"
)

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export <po>",
		Short: "Write a PO's ledger rows to an .xlsx or .pdf file",
		Long: `Write a PO's ledger rows to a file. The output format follows the
file extension: .xlsx for a spreadsheet, .pdf for a printable inspection sheet.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			po := args[0]
			path := out
			if path == "" {
				path = "PO-" + po + ".xlsx"
			}
			return rootOpts.withApp(cmd, func(a *app.App) error {
				completion, err := a.Receiving.Completion(cmd.Context(), po)
				if err != nil {
					return err
				}

				var data []byte
				switch {
				case strings.HasSuffix(strings.ToLower(path), ".pdf"):
					data, err = report.InspectionPDF(completion, a.Config.PortalURL, time.Now())
				case strings.HasSuffix(strings.ToLower(path), ".xlsx"):
					data, err = report.ExportXLSX(po, completion.LineItems)
				default:
					return fmt.Errorf("unsupported output %q: use .xlsx or .pdf", path)
				}
				if err != nil {
					return err
				}
				if err := os.WriteFile(path, data, 0o644); err != nil {
					return err
				}

				result := map[string]interface{}{"path": path, "rows": len(completion.LineItems)}
				return rootOpts.formatter(cmd).Result(result, func(w io.Writer) {
					fmt.Fprintf(w, "wrote %d row(s) to %s\n", len(completion.LineItems), path)
				})
			})
		},
	}

	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (.xlsx or .pdf)")
	return cmd
}

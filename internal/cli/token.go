package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/xelth-com/receivinggo/internal/app"
	"github.com/xelth-com/receivinggo/internal/utils"
)

// NewTokenCommand creates the token command.
func NewTokenCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API token signed with JWT_SECRET",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withApp(cmd, func(a *app.App) error {
				if subject == "" {
					subject = a.Config.Auth.OperatorUser
				}
				tok, err := utils.GenerateOperatorToken(subject, a.Config.JWTSecret, ttl)
				if err != nil {
					return err
				}
				return rootOpts.formatter(cmd).Result(map[string]string{"accessToken": tok}, func(w io.Writer) {
					fmt.Fprintln(w, tok)
				})
			})
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "token subject (defaults to OPERATOR_USER)")
	cmd.Flags().DurationVar(&ttl, "ttl", 12*time.Hour, "token lifetime")
	return cmd
}

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func (a *app) completeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "complete <prompt>",
		Short: "Send a prompt and print the whole reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := a.request(strings.Join(args, " "), false)
			if err != nil {
				return err
			}

			resp, err := a.prov.Complete(cmd.Context(), req)
			if err != nil {
				return err
			}

			fmt.Fprintln(a.out, resp.Content())
			fmt.Fprintln(a.out, a.style.Muted.Render(fmt.Sprintf("Tokens used: %d", resp.Usage.TotalTokens)))
			return nil
		},
	}
}

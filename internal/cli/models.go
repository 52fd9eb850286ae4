package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *app) modelsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the models the backend serves",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			models, err := a.prov.ListModels(cmd.Context())
			if err != nil {
				return err
			}
			for _, m := range models {
				if m.OwnedBy != "" {
					fmt.Fprintf(a.out, "%s\t%s\n", m.ID, a.style.Muted.Render(m.OwnedBy))
					continue
				}
				fmt.Fprintln(a.out, m.ID)
			}
			return nil
		},
	}
}

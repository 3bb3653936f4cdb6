package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "remove CORPUS",
		Aliases: []string{"rm"},
		Short:   "Delete a corpus from the workspace",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, closeStore, err := a.openWorkspace(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()
			if err := reg.Remove(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed corpus %q\n", args[0])
			return nil
		},
	}
}

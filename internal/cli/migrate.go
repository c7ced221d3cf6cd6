package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func addMigrate(topLevel *cobra.Command, o *options) {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the database schema and print its version.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := o.open(cmd)
			if err != nil {
				return err
			}
			defer e.Close()
			v, err := e.store.Version()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: schema version %d\n", e.cfg.Database.Path, v)
			return nil
		},
	}
	topLevel.AddCommand(cmd)
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/strata-dev/strata"
	"github.com/strata-dev/strata/internal/demo"
)

func routesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "Print the demo route table in match order",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := strata.New(demo.Routes())
			if err != nil {
				return err
			}
			for _, pattern := range app.Routes() {
				fmt.Fprintln(cmd.OutOrStdout(), pattern)
			}
			return nil
		},
	}
}

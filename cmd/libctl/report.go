package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/xiebiao/library/internal/app"
)

func (c *cli) reportCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "report", Short: "报表(JSON输出)"}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "inventory",
			Short: "馆藏报表",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return c.withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
					r, err := a.Reports.Inventory(ctx)
					if err != nil {
						return err
					}
					return printJSON(cmd.OutOrStdout(), r)
				})
			},
		},
		&cobra.Command{
			Use:   "overdue",
			Short: "逾期报表",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return c.withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
					r, err := a.Reports.Overdue(ctx)
					if err != nil {
						return err
					}
					return printJSON(cmd.OutOrStdout(), r)
				})
			},
		},
	)
	return cmd
}

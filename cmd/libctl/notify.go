package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xiebiao/library/internal/app"
	apploan "github.com/xiebiao/library/internal/application/loan"
	"github.com/xiebiao/library/internal/application/notify"
	"github.com/xiebiao/library/pkg/mq"
)

func (c *cli) notifyCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "notify", Short: "逾期提醒"}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "overdue",
			Short: "扫描一次逾期借阅并发布提醒事件",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return c.withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
					sent, err := a.Notifier.Sweep(ctx)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "✓ 已发送%d条逾期提醒\n", sent)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "listen",
			Short: "消费借阅事件并记录提醒(Ctrl+C退出)",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				consumer, err := mq.NewConsumer(
					c.cfg.MQ.URL,
					c.cfg.MQ.Exchange,
					mq.ExchangeTopic,
					c.cfg.MQ.Queue,
					[]string{apploan.RoutingKeyBorrowed, apploan.RoutingKeyReturned, apploan.RoutingKeyOverdue},
					c.log,
				)
				if err != nil {
					return err
				}
				defer consumer.Close()
				return consumer.Consume(cmd.Context(), notify.NewReminderHandler(c.log))
			},
		},
	)
	return cmd
}

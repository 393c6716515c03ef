package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/xiebiao/library/internal/app"
	"github.com/xiebiao/library/internal/domain/loan"
)

func (c *cli) loanCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "loan", Short: "借书还书"}
	cmd.AddCommand(
		c.loanBorrowCommand(),
		c.loanReturnCommand(),
		c.loanListCommand(),
		c.loanOverdueCommand(),
	)
	return cmd
}

func (c *cli) loanBorrowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "borrow <book-id> <user-id>",
		Short: "借书",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			bookID, err := parseID(args[0])
			if err != nil {
				return err
			}
			userID, err := parseID(args[1])
			if err != nil {
				return err
			}
			return c.withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				l, err := a.Loans.Borrow(ctx, bookID, userID)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ 借阅 #%d 应还日期 %s\n", l.ID, l.DueDate.Format("2006-01-02"))
				return nil
			})
		},
	}
}

func (c *cli) loanReturnCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "return <loan-id>",
		Short: "还书",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loanID, err := parseID(args[0])
			if err != nil {
				return err
			}
			return c.withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				l, err := a.Loans.Return(ctx, loanID)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ 借阅 #%d %s 罚金 %s\n", l.ID, string(l.Status), l.FineAmount.StringFixed(2))
				return nil
			})
		},
	}
}

func (c *cli) loanListCommand() *cobra.Command {
	var userID, bookID uint
	cmd := &cobra.Command{
		Use:   "list",
		Short: "借阅记录",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				var (
					loans []*loan.Loan
					err   error
				)
				switch {
				case userID > 0:
					loans, err = a.Loans.ListByUser(ctx, userID)
				case bookID > 0:
					loans, err = a.Loans.ListByBook(ctx, bookID)
				default:
					loans, err = a.Loans.ListLoans(ctx)
				}
				if err != nil {
					return err
				}
				return printLoans(cmd, loans)
			})
		},
	}
	cmd.Flags().UintVar(&userID, "user", 0, "按读者过滤")
	cmd.Flags().UintVar(&bookID, "book", 0, "按图书过滤")
	return cmd
}

func (c *cli) loanOverdueCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "overdue",
		Short: "逾期未还",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				loans, err := a.Loans.ListOverdue(ctx)
				if err != nil {
					return err
				}
				return printLoans(cmd, loans)
			})
		},
	}
}

func printLoans(cmd *cobra.Command, loans []*loan.Loan) error {
	rows := make([][]string, 0, len(loans))
	for _, l := range loans {
		returned := ""
		if l.ReturnDate != nil {
			returned = l.ReturnDate.Format("2006-01-02")
		}
		rows = append(rows, []string{
			strconv.FormatUint(uint64(l.ID), 10),
			strconv.FormatUint(uint64(l.BookID), 10),
			strconv.FormatUint(uint64(l.UserID), 10),
			l.BorrowDate.Format("2006-01-02"),
			l.DueDate.Format("2006-01-02"),
			returned,
			string(l.Status),
			l.FineAmount.StringFixed(2),
		})
	}
	return printTable(cmd.OutOrStdout(), []string{"ID", "图书", "读者", "借出", "应还", "归还", "状态", "罚金"}, rows)
}

func parseID(s string) (uint, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("无效的ID: %q", s)
	}
	return uint(id), nil
}

package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/xiebiao/library/internal/app"
	appuser "github.com/xiebiao/library/internal/application/user"
)

func (c *cli) patronCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "patron", Short: "读者管理"}
	cmd.AddCommand(c.patronRegisterCommand(), c.patronListCommand())
	return cmd
}

func (c *cli) patronRegisterCommand() *cobra.Command {
	var req appuser.RegisterRequest
	cmd := &cobra.Command{
		Use:   "register",
		Short: "登记读者",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req.Operator = "libctl"
			return c.withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				u, err := a.Register.Execute(ctx, req)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ 已登记读者 #%d %s <%s>\n", u.ID, u.FullName(), u.Email)
				return nil
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.FirstName, "first-name", "", "名")
	f.StringVar(&req.LastName, "last-name", "", "姓")
	f.StringVar(&req.Email, "email", "", "邮箱")
	f.StringVar(&req.Phone, "phone", "", "手机号(可选)")
	_ = cmd.MarkFlagRequired("first-name")
	_ = cmd.MarkFlagRequired("last-name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (c *cli) patronListCommand() *cobra.Command {
	var req appuser.ListUsersRequest
	cmd := &cobra.Command{
		Use:   "list",
		Short: "读者列表",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				result, err := a.ListUsers.Execute(ctx, req)
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(result.Users))
				for _, u := range result.Users {
					rows = append(rows, []string{
						strconv.FormatUint(uint64(u.ID), 10),
						u.FullName(),
						u.Email,
						u.Phone,
						string(u.Status),
						u.RegistrationDate.Format("2006-01-02"),
					})
				}
				if err := printTable(cmd.OutOrStdout(), []string{"ID", "姓名", "邮箱", "手机", "状态", "登记日期"}, rows); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "共%d人, 第%d页\n", result.Total, result.Page)
				return nil
			})
		},
	}
	f := cmd.Flags()
	f.IntVar(&req.Page, "page", 1, "页码")
	f.IntVar(&req.PageSize, "page-size", 20, "每页数量")
	f.StringVar(&req.Keyword, "keyword", "", "姓名或邮箱")
	return cmd
}

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xiebiao/library/internal/app"
	"github.com/xiebiao/library/internal/application/auth"
)

func (c *cli) tokenCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "token", Short: "Token管理"}
	var username string
	issue := &cobra.Command{
		Use:   "issue",
		Short: "为馆员签发Token(无需密码,仅限运维使用)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if username == "" {
				username = c.cfg.Auth.AdminUsername
			}
			return c.withApp(cmd.Context(), func(_ context.Context, a *app.App) error {
				result, err := a.Auth.IssueToken(username)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), result.Tokens)
			})
		},
	}
	issue.Flags().StringVar(&username, "username", "", "馆员用户名(默认auth.admin_username)")
	cmd.AddCommand(issue)
	return cmd
}

func (c *cli) authCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "auth", Short: "馆员账号"}
	cmd.AddCommand(&cobra.Command{
		Use:   "hash-password [password]",
		Short: "生成bcrypt哈希,不传参数时从标准输入读取",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var password string
			if len(args) == 1 {
				password = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("读取密码失败: %w", err)
				}
				password = strings.TrimRight(line, "\r\n")
			}
			if password == "" {
				return errors.New("密码不能为空")
			}
			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	})
	return cmd
}

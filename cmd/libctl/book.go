package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/xiebiao/library/internal/app"
	appbook "github.com/xiebiao/library/internal/application/book"
	"github.com/xiebiao/library/internal/domain/book"
)

func (c *cli) bookCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "book", Short: "馆藏管理"}
	cmd.AddCommand(c.bookAddCommand(), c.bookListCommand(), c.bookSearchCommand())
	return cmd
}

func (c *cli) bookAddCommand() *cobra.Command {
	var (
		req       appbook.AddBookRequest
		published string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "图书入库",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if published != "" {
				t, err := time.Parse(time.DateOnly, published)
				if err != nil {
					return fmt.Errorf("出版日期格式应为YYYY-MM-DD: %w", err)
				}
				req.PublishedDate = t
			}
			req.Operator = "libctl"
			return c.withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				b, err := a.AddBook.Execute(ctx, req)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ 已入库 #%d %s (%s) 副本数%d\n", b.ID, b.Title, b.ISBN, b.TotalCopies)
				return nil
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.ISBN, "isbn", "", "ISBN(10位或13位)")
	f.StringVar(&req.Title, "title", "", "书名")
	f.StringVar(&req.Author, "author", "", "作者")
	f.StringVar(&req.Category, "category", "", "分类")
	f.IntVar(&req.TotalCopies, "copies", 1, "馆藏数量")
	f.StringVar(&published, "published", "", "出版日期 YYYY-MM-DD")
	_ = cmd.MarkFlagRequired("isbn")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("author")
	return cmd
}

func (c *cli) bookListCommand() *cobra.Command {
	var req appbook.ListBooksRequest
	cmd := &cobra.Command{
		Use:   "list",
		Short: "图书列表",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				result, err := a.ListBooks.Execute(ctx, req)
				if err != nil {
					return err
				}
				if err := printBooks(cmd, result.Books); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "共%d本, 第%d页\n", result.Total, result.Page)
				return nil
			})
		},
	}
	f := cmd.Flags()
	f.IntVar(&req.Page, "page", 1, "页码")
	f.IntVar(&req.PageSize, "page-size", appbook.DefaultPageSize, "每页数量")
	f.StringVar(&req.SortBy, "sort", book.SortByTitle, "排序: title_asc | created_at_desc")
	return cmd
}

func (c *cli) bookSearchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "search <keyword>",
		Short: "按书名、作者、分类搜索",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				books, err := a.Books.SearchBooks(ctx, args[0])
				if err != nil {
					return err
				}
				return printBooks(cmd, books)
			})
		},
	}
}

func printBooks(cmd *cobra.Command, books []*book.Book) error {
	rows := make([][]string, 0, len(books))
	for _, b := range books {
		rows = append(rows, []string{
			strconv.FormatUint(uint64(b.ID), 10),
			b.ISBN,
			b.Title,
			b.Author,
			b.Category,
			fmt.Sprintf("%d/%d", b.AvailableCopies, b.TotalCopies),
			string(b.Status),
		})
	}
	return printTable(cmd.OutOrStdout(), []string{"ID", "ISBN", "书名", "作者", "分类", "可借/总数", "状态"}, rows)
}

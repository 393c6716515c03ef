package book

import (
	"context"

	"github.com/xiebiao/library/internal/domain/book"
)

// 分页参数默认值与上限
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ListBooksUseCase 图书列表查询用例
// 设计说明:
// 1. 支持分页、关键词过滤、排序
// 2. 已删除图书由仓储层过滤
type ListBooksUseCase struct {
	bookService book.Service
}

// NewListBooksUseCase 创建列表查询用例
func NewListBooksUseCase(bookService book.Service) *ListBooksUseCase {
	return &ListBooksUseCase{
		bookService: bookService,
	}
}

// ListBooksRequest 列表查询请求
type ListBooksRequest struct {
	Page     int    // 页码(从1开始)
	PageSize int    // 每页数量
	Keyword  string // 书名、作者、分类
	SortBy   string // title_asc | created_at_desc
}

// ListBooksResult 列表查询结果
type ListBooksResult struct {
	Books    []*book.Book
	Total    int64
	Page     int
	PageSize int
}

// Execute 执行列表查询
// page默认1,pageSize默认20,最大100
func (uc *ListBooksUseCase) Execute(ctx context.Context, req ListBooksRequest) (*ListBooksResult, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 {
		req.PageSize = DefaultPageSize
	}
	if req.PageSize > MaxPageSize {
		req.PageSize = MaxPageSize
	}

	books, total, err := uc.bookService.ListBooks(ctx, book.ListParams{
		Page:     req.Page,
		PageSize: req.PageSize,
		Keyword:  req.Keyword,
		SortBy:   req.SortBy,
	})
	if err != nil {
		return nil, err
	}

	return &ListBooksResult{
		Books:    books,
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
	}, nil
}

package book

import (
	"context"
	"log/slog"
	"time"

	"github.com/xiebiao/library/internal/domain/book"
)

// AddBookUseCase 图书入库用例
// 校验(ISBN格式、书名作者、馆藏数量、ISBN唯一)都由领域服务完成
type AddBookUseCase struct {
	bookService book.Service
	log         *slog.Logger
}

// NewAddBookUseCase 创建入库用例
func NewAddBookUseCase(bookService book.Service, log *slog.Logger) *AddBookUseCase {
	return &AddBookUseCase{
		bookService: bookService,
		log:         log,
	}
}

// AddBookRequest 入库请求
type AddBookRequest struct {
	ISBN          string
	Title         string
	Author        string
	Category      string
	TotalCopies   int
	PublishedDate time.Time // 零值表示未知
	Operator      string    // 操作馆员(从认证中间件获取)
}

// Execute 执行入库
func (uc *AddBookUseCase) Execute(ctx context.Context, req AddBookRequest) (*book.Book, error) {
	b, err := uc.bookService.AddBook(ctx, req.ISBN, req.Title, req.Author, req.Category, req.TotalCopies, req.PublishedDate)
	if err != nil {
		return nil, err
	}

	uc.log.InfoContext(ctx, "图书入库",
		"book_id", b.ID,
		"isbn", b.ISBN,
		"copies", b.TotalCopies,
		"operator", req.Operator,
	)
	return b, nil
}

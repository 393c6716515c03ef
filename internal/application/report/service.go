// Package report 馆藏与逾期报表
package report

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	apploan "github.com/xiebiao/library/internal/application/loan"
	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/user"
	"github.com/xiebiao/library/pkg/metrics"
)

// 报表名称(同时作为缓存key前缀与指标标签)
const (
	NameInventory = "inventory"
	NameOverdue   = "overdue"
)

// Cache 报表缓存
// Redis实现见infrastructure/persistence/redis.ReportCache
type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	Invalidate(ctx context.Context) error
}

// NopCache 不缓存
type NopCache struct{}

func (NopCache) Get(context.Context, string, any) (bool, error) { return false, nil }
func (NopCache) Set(context.Context, string, any) error         { return nil }
func (NopCache) Invalidate(context.Context) error               { return nil }

// InventoryItem 单本图书的馆藏情况
type InventoryItem struct {
	BookID    uint   `json:"book_id"`
	ISBN      string `json:"isbn"`
	Title     string `json:"title"`
	Author    string `json:"author"`
	Category  string `json:"category"`
	Total     int    `json:"total"`
	Available int    `json:"available"`
	Borrowed  int    `json:"borrowed"`
	Status    string `json:"status"`
}

// InventoryReport 馆藏报表(不含已删除图书)
type InventoryReport struct {
	GeneratedAt     time.Time       `json:"generated_at"`
	Books           []InventoryItem `json:"books"`
	TotalTitles     int             `json:"total_titles"`
	TotalCopies     int             `json:"total_copies"`
	AvailableCopies int             `json:"available_copies"`
	BorrowedCopies  int             `json:"borrowed_copies"`
}

// OverdueItem 单条逾期记录
type OverdueItem struct {
	LoanID        uint            `json:"loan_id"`
	BookID        uint            `json:"book_id"`
	BookTitle     string          `json:"book_title"`
	UserID        uint            `json:"user_id"`
	PatronName    string          `json:"patron_name"`
	PatronEmail   string          `json:"patron_email"`
	BorrowDate    string          `json:"borrow_date"`
	DueDate       string          `json:"due_date"`
	DaysLate      int             `json:"days_late"`
	EstimatedFine decimal.Decimal `json:"estimated_fine"`
}

// OverdueReport 逾期报表,罚金按今天归还估算
type OverdueReport struct {
	AsOf       string          `json:"as_of"`
	Loans      []OverdueItem   `json:"loans"`
	Count      int             `json:"count"`
	TotalFines decimal.Decimal `json:"total_fines"`
}

// Service 报表服务
// 只读,不包含业务规则;结果按Cache-Aside缓存,借还书后失效
type Service struct {
	books book.Service
	users user.Service
	loans *apploan.Service
	cache Cache
	log   *slog.Logger
}

// NewService 创建报表服务,cache为nil时不缓存
func NewService(books book.Service, users user.Service, loans *apploan.Service, cache Cache, log *slog.Logger) *Service {
	if cache == nil {
		cache = NopCache{}
	}
	return &Service{books: books, users: users, loans: loans, cache: cache, log: log}
}

// Inventory 馆藏报表
func (s *Service) Inventory(ctx context.Context) (*InventoryReport, error) {
	var cached InventoryReport
	if s.lookup(ctx, NameInventory, NameInventory, &cached) {
		return &cached, nil
	}

	books, _, err := s.books.ListBooks(ctx, book.ListParams{SortBy: book.SortByTitle})
	if err != nil {
		return nil, err
	}

	report := &InventoryReport{
		GeneratedAt: time.Now(),
		Books:       make([]InventoryItem, 0, len(books)),
		TotalTitles: len(books),
	}
	for _, b := range books {
		report.Books = append(report.Books, InventoryItem{
			BookID:    b.ID,
			ISBN:      b.ISBN,
			Title:     b.Title,
			Author:    b.Author,
			Category:  b.Category,
			Total:     b.TotalCopies,
			Available: b.AvailableCopies,
			Borrowed:  b.BorrowedCopies(),
			Status:    string(b.Status),
		})
		report.TotalCopies += b.TotalCopies
		report.AvailableCopies += b.AvailableCopies
		report.BorrowedCopies += b.BorrowedCopies()
	}

	s.store(ctx, NameInventory, report)
	return report, nil
}

// Overdue 逾期报表
func (s *Service) Overdue(ctx context.Context) (*OverdueReport, error) {
	today := s.loans.Today()
	key := NameOverdue + ":" + today.Format(time.DateOnly)

	var cached OverdueReport
	if s.lookup(ctx, NameOverdue, key, &cached) {
		return &cached, nil
	}

	loans, err := s.loans.ListOverdue(ctx)
	if err != nil {
		return nil, err
	}
	metrics.SetOverdueLoans(len(loans))

	policy := s.loans.Policy()
	report := &OverdueReport{
		AsOf:       today.Format(time.DateOnly),
		Loans:      make([]OverdueItem, 0, len(loans)),
		Count:      len(loans),
		TotalFines: decimal.Zero,
	}
	for _, l := range loans {
		item := OverdueItem{
			LoanID:     l.ID,
			BookID:     l.BookID,
			UserID:     l.UserID,
			BorrowDate: l.BorrowDate.Format(time.DateOnly),
			DueDate:    l.DueDate.Format(time.DateOnly),
			DaysLate:   l.DaysOverdue(today),
		}
		item.EstimatedFine = policy.FineFor(item.DaysLate)

		// 借阅只弱引用图书和读者,找不到时保留ID
		if b, err := s.books.GetBook(ctx, l.BookID); err == nil {
			item.BookTitle = b.Title
		} else {
			s.log.WarnContext(ctx, "逾期报表: 查询图书失败", "book_id", l.BookID, "error", err)
		}
		if u, err := s.users.GetUser(ctx, l.UserID); err == nil {
			item.PatronName = u.FullName()
			item.PatronEmail = u.Email
		} else {
			s.log.WarnContext(ctx, "逾期报表: 查询读者失败", "user_id", l.UserID, "error", err)
		}

		report.Loans = append(report.Loans, item)
		report.TotalFines = report.TotalFines.Add(item.EstimatedFine)
	}

	s.store(ctx, key, report)
	return report, nil
}

// Invalidate 清空报表缓存
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Invalidate(ctx)
}

// InvalidateOnLoanEvent 借还书后失效缓存,作为借阅事件的订阅方
// 只依赖Cache,借阅服务可以先于报表服务创建
func InvalidateOnLoanEvent(cache Cache) apploan.PublisherFunc {
	return func(ctx context.Context, routingKey string, _ apploan.Event) error {
		if routingKey == apploan.RoutingKeyOverdue {
			return nil
		}
		return cache.Invalidate(ctx)
	}
}

// lookup 读缓存,缓存故障视为未命中
func (s *Service) lookup(ctx context.Context, report, key string, dest any) bool {
	hit, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		s.log.WarnContext(ctx, "读取报表缓存失败", "key", key, "error", err)
		metrics.ObserveReportCache(report, "error")
		return false
	}
	if hit {
		metrics.ObserveReportCache(report, "hit")
		return true
	}
	metrics.ObserveReportCache(report, "miss")
	return false
}

func (s *Service) store(ctx context.Context, key string, value any) {
	if err := s.cache.Set(ctx, key, value); err != nil {
		s.log.WarnContext(ctx, "写入报表缓存失败", "key", key, "error", err)
	}
}

package book

import (
	"context"
	"errors"
	"strings"
	"time"
)

// TxManager 事务管理器接口
// fn内的所有仓储操作通过ctx共享同一事务
type TxManager interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service 图书领域服务接口(馆藏目录)
// 设计说明:
// 1. 负责图书的校验与变更,拥有AvailableCopies字段的语义
// 2. UpdateAvailability只供借阅服务调用
type Service interface {
	// AddBook 新增图书
	// 业务规则:
	// - 书名、作者不能为空
	// - ISBN为10位或13位(允许连字符/空格)
	// - 馆藏数量>=0
	// - ISBN不能重复(以唯一索引为准)
	AddBook(ctx context.Context, isbn, title, author, category string, totalCopies int, publishedDate time.Time) (*Book, error)

	// GetBook 根据ID获取图书(包含已删除的记录)
	GetBook(ctx context.Context, id uint) (*Book, error)

	// GetBookByISBN 根据ISBN获取图书
	GetBookByISBN(ctx context.Context, isbn string) (*Book, error)

	// ListBooks 分页查询图书(排除已删除)
	ListBooks(ctx context.Context, params ListParams) ([]*Book, int64, error)

	// SearchBooks 按书名/作者/分类搜索
	SearchBooks(ctx context.Context, keyword string) ([]*Book, error)

	// UpdateBook 更新图书信息,修改馆藏总数时可借数同步调整
	UpdateBook(ctx context.Context, id uint, params UpdateParams) (*Book, error)

	// DeleteBook 软删除图书
	DeleteBook(ctx context.Context, id uint) error

	// LockBook 在事务中锁定图书行
	LockBook(ctx context.Context, id uint) (*Book, error)

	// UpdateAvailability 直接设置可借副本数(不做区间校验)
	UpdateAvailability(ctx context.Context, id uint, n int) error
}

// UpdateParams 图书更新参数(零值表示不修改)
type UpdateParams struct {
	Title         string
	Author        string
	Category      string
	TotalCopies   *int
	PublishedDate time.Time
}

// service 领域服务实现
type service struct {
	repo      Repository
	txManager TxManager
}

// NewService 创建图书领域服务
func NewService(repo Repository, txManager TxManager) Service {
	return &service{repo: repo, txManager: txManager}
}

// AddBook 新增图书
func (s *service) AddBook(ctx context.Context, isbn, title, author, category string, totalCopies int, publishedDate time.Time) (*Book, error) {
	// 1. 基础字段校验
	title = strings.TrimSpace(title)
	author = strings.TrimSpace(author)
	if err := validateFields(title, author, totalCopies); err != nil {
		return nil, err
	}

	// 2. ISBN格式校验
	if !IsValidISBN(isbn) {
		return nil, ErrInvalidISBN
	}
	isbn = NormalizeISBN(isbn)

	// 3. 快速路径:已存在则直接返回重复错误
	// 并发情况下以唯一索引的冲突为准
	existing, err := s.repo.FindByISBN(ctx, isbn)
	if err == nil && existing != nil {
		return nil, ErrISBNDuplicate
	}
	if err != nil && !errors.Is(err, ErrBookNotFound) {
		return nil, err
	}

	// 4. 持久化
	book := NewBook(isbn, title, author, strings.TrimSpace(category), totalCopies, publishedDate)
	if err := s.repo.Create(ctx, book); err != nil {
		return nil, err
	}

	return book, nil
}

// GetBook 根据ID获取图书
func (s *service) GetBook(ctx context.Context, id uint) (*Book, error) {
	return s.repo.FindByID(ctx, id)
}

// GetBookByISBN 根据ISBN获取图书
func (s *service) GetBookByISBN(ctx context.Context, isbn string) (*Book, error) {
	if !IsValidISBN(isbn) {
		return nil, ErrInvalidISBN
	}
	return s.repo.FindByISBN(ctx, NormalizeISBN(isbn))
}

// ListBooks 分页查询图书
func (s *service) ListBooks(ctx context.Context, params ListParams) ([]*Book, int64, error) {
	params.Keyword = strings.TrimSpace(params.Keyword)
	return s.repo.List(ctx, params)
}

// SearchBooks 搜索图书,关键词为空时返回全部
func (s *service) SearchBooks(ctx context.Context, keyword string) ([]*Book, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		books, _, err := s.repo.List(ctx, ListParams{SortBy: SortByTitle})
		return books, err
	}
	return s.repo.Search(ctx, keyword)
}

// UpdateBook 更新图书信息
// 读-改-写在事务中完成,避免覆盖并发借还书对可借数的修改
func (s *service) UpdateBook(ctx context.Context, id uint, params UpdateParams) (*Book, error) {
	var updated *Book
	err := s.txManager.Transaction(ctx, func(txCtx context.Context) error {
		// 1. 锁定图书
		book, err := s.repo.LockByID(txCtx, id)
		if err != nil {
			return err
		}
		if book.IsDeleted() {
			return ErrBookNotFound
		}

		// 2. 修改字段
		book.UpdateInfo(strings.TrimSpace(params.Title), strings.TrimSpace(params.Author), strings.TrimSpace(params.Category), params.PublishedDate)
		if params.TotalCopies != nil {
			if err := book.Resize(*params.TotalCopies); err != nil {
				return err
			}
		}

		// 3. 校验后持久化
		if err := validateFields(book.Title, book.Author, book.TotalCopies); err != nil {
			return err
		}
		if book.AvailableCopies < 0 || book.AvailableCopies > book.TotalCopies {
			return ErrInvalidAvailability
		}
		if err := s.repo.Update(txCtx, book); err != nil {
			return err
		}
		updated = book
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteBook 软删除图书
func (s *service) DeleteBook(ctx context.Context, id uint) error {
	book, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if book.IsDeleted() {
		return ErrBookNotFound
	}
	return s.repo.SoftDelete(ctx, id)
}

// LockBook 锁定图书行
func (s *service) LockBook(ctx context.Context, id uint) (*Book, error) {
	return s.repo.LockByID(ctx, id)
}

// UpdateAvailability 设置可借副本数
func (s *service) UpdateAvailability(ctx context.Context, id uint, n int) error {
	return s.repo.UpdateAvailability(ctx, id, n)
}

// validateFields 校验书名、作者与馆藏数量
func validateFields(title, author string, totalCopies int) error {
	if title == "" {
		return ErrInvalidTitle
	}
	if author == "" {
		return ErrInvalidAuthor
	}
	if totalCopies < 0 {
		return ErrInvalidCopies
	}
	return nil
}

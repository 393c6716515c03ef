package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/xiebiao/library/internal/domain/book"
)

type bookRepository struct {
	s *Store
}

// NewBookRepository 创建图书仓储
func NewBookRepository(s *Store) book.Repository {
	return &bookRepository{s: s}
}

func (r *bookRepository) Create(ctx context.Context, b *book.Book) error {
	return r.s.run(ctx, func() error {
		for _, existing := range r.s.books {
			if existing.ISBN == b.ISBN {
				return book.ErrISBNDuplicate
			}
		}
		r.s.bookSeq++
		now := time.Now()
		b.ID = r.s.bookSeq
		b.CreatedAt = now
		b.UpdatedAt = now
		r.s.books[b.ID] = *b
		return nil
	})
}

func (r *bookRepository) FindByID(ctx context.Context, id uint) (*book.Book, error) {
	var found *book.Book
	err := r.s.run(ctx, func() error {
		b, ok := r.s.books[id]
		if !ok {
			return book.ErrBookNotFound
		}
		found = &b
		return nil
	})
	return found, err
}

func (r *bookRepository) FindByISBN(ctx context.Context, isbn string) (*book.Book, error) {
	var found *book.Book
	err := r.s.run(ctx, func() error {
		for _, b := range r.s.books {
			if b.ISBN == isbn {
				b := b
				found = &b
				return nil
			}
		}
		return book.ErrBookNotFound
	})
	return found, err
}

func (r *bookRepository) Update(ctx context.Context, b *book.Book) error {
	return r.s.run(ctx, func() error {
		if _, ok := r.s.books[b.ID]; !ok {
			return book.ErrBookNotFound
		}
		for id, existing := range r.s.books {
			if id != b.ID && existing.ISBN == b.ISBN {
				return book.ErrISBNDuplicate
			}
		}
		b.UpdatedAt = time.Now()
		r.s.books[b.ID] = *b
		return nil
	})
}

func (r *bookRepository) SoftDelete(ctx context.Context, id uint) error {
	return r.s.run(ctx, func() error {
		b, ok := r.s.books[id]
		if !ok {
			return book.ErrBookNotFound
		}
		b.MarkDeleted()
		r.s.books[id] = b
		return nil
	})
}

func (r *bookRepository) List(ctx context.Context, params book.ListParams) ([]*book.Book, int64, error) {
	var (
		result []*book.Book
		total  int64
	)
	err := r.s.run(ctx, func() error {
		matched := r.filter(params.Keyword)
		sortBooks(matched, params.SortBy)
		total = int64(len(matched))
		result = paginate(matched, params.Page, params.PageSize)
		return nil
	})
	return result, total, err
}

func (r *bookRepository) Search(ctx context.Context, keyword string) ([]*book.Book, error) {
	var result []*book.Book
	err := r.s.run(ctx, func() error {
		result = r.filter(keyword)
		sortBooks(result, book.SortByTitle)
		return nil
	})
	return result, err
}

// LockByID 事务内存储锁已被持有,直接读取即可
func (r *bookRepository) LockByID(ctx context.Context, id uint) (*book.Book, error) {
	return r.FindByID(ctx, id)
}

func (r *bookRepository) UpdateAvailability(ctx context.Context, id uint, n int) error {
	return r.s.run(ctx, func() error {
		b, ok := r.s.books[id]
		if !ok {
			return book.ErrBookNotFound
		}
		if n < 0 || n > b.TotalCopies {
			return book.ErrInvalidAvailability
		}
		b.SetAvailability(n)
		r.s.books[id] = b
		return nil
	})
}

// filter 排除已删除图书,按书名/作者/分类做不区分大小写的子串匹配
func (r *bookRepository) filter(keyword string) []*book.Book {
	keyword = strings.ToLower(keyword)
	result := make([]*book.Book, 0, len(r.s.books))
	for _, b := range r.s.books {
		if b.IsDeleted() {
			continue
		}
		if keyword != "" &&
			!strings.Contains(strings.ToLower(b.Title), keyword) &&
			!strings.Contains(strings.ToLower(b.Author), keyword) &&
			!strings.Contains(strings.ToLower(b.Category), keyword) {
			continue
		}
		b := b
		result = append(result, &b)
	}
	return result
}

func sortBooks(books []*book.Book, sortBy string) {
	sort.SliceStable(books, func(i, j int) bool {
		if sortBy == book.SortByTitle {
			if books[i].Title != books[j].Title {
				return books[i].Title < books[j].Title
			}
			return books[i].ID < books[j].ID
		}
		// 默认按创建顺序倒序
		return books[i].ID > books[j].ID
	})
}

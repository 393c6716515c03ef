package memory

import (
	"context"
	"sort"
	"time"

	"github.com/xiebiao/library/internal/domain/loan"
)

type loanRepository struct {
	s *Store
}

// NewLoanRepository 创建借阅仓储
func NewLoanRepository(s *Store) loan.Repository {
	return &loanRepository{s: s}
}

func (r *loanRepository) Create(ctx context.Context, l *loan.Loan) error {
	return r.s.run(ctx, func() error {
		r.s.loanSeq++
		now := time.Now()
		l.ID = r.s.loanSeq
		l.CreatedAt = now
		l.UpdatedAt = now
		r.s.loans[l.ID] = cloneLoan(l)
		return nil
	})
}

func (r *loanRepository) FindByID(ctx context.Context, id uint) (*loan.Loan, error) {
	var found *loan.Loan
	err := r.s.run(ctx, func() error {
		l, ok := r.s.loans[id]
		if !ok {
			return loan.ErrLoanNotFound
		}
		c := cloneLoan(&l)
		found = &c
		return nil
	})
	return found, err
}

// LockByID 事务内存储锁已被持有,直接读取即可
func (r *loanRepository) LockByID(ctx context.Context, id uint) (*loan.Loan, error) {
	return r.FindByID(ctx, id)
}

func (r *loanRepository) Update(ctx context.Context, l *loan.Loan) error {
	return r.s.run(ctx, func() error {
		if _, ok := r.s.loans[l.ID]; !ok {
			return loan.ErrLoanNotFound
		}
		l.UpdatedAt = time.Now()
		r.s.loans[l.ID] = cloneLoan(l)
		return nil
	})
}

func (r *loanRepository) List(ctx context.Context) ([]*loan.Loan, error) {
	return r.collect(ctx, func(*loan.Loan) bool { return true }, byBorrowDateDesc)
}

func (r *loanRepository) ListByUser(ctx context.Context, userID uint) ([]*loan.Loan, error) {
	return r.collect(ctx, func(l *loan.Loan) bool { return l.UserID == userID }, byBorrowDateDesc)
}

func (r *loanRepository) ListByBook(ctx context.Context, bookID uint) ([]*loan.Loan, error) {
	return r.collect(ctx, func(l *loan.Loan) bool { return l.BookID == bookID }, byBorrowDateDesc)
}

func (r *loanRepository) ListOverdue(ctx context.Context, asOf time.Time) ([]*loan.Loan, error) {
	return r.collect(ctx, func(l *loan.Loan) bool {
		return l.IsOverdue(asOf)
	}, byDueDateAsc)
}

func (r *loanRepository) CountActiveByUser(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.s.run(ctx, func() error {
		for _, l := range r.s.loans {
			if l.UserID == userID && l.Status == loan.StatusBorrowed {
				count++
			}
		}
		return nil
	})
	return count, err
}

func (r *loanRepository) collect(ctx context.Context, keep func(*loan.Loan) bool, less func(a, b *loan.Loan) bool) ([]*loan.Loan, error) {
	var result []*loan.Loan
	err := r.s.run(ctx, func() error {
		result = make([]*loan.Loan, 0)
		for _, l := range r.s.loans {
			c := cloneLoan(&l)
			if keep(&c) {
				result = append(result, &c)
			}
		}
		sort.SliceStable(result, func(i, j int) bool { return less(result[i], result[j]) })
		return nil
	})
	return result, err
}

func byBorrowDateDesc(a, b *loan.Loan) bool {
	if !a.BorrowDate.Equal(b.BorrowDate) {
		return a.BorrowDate.After(b.BorrowDate)
	}
	return a.ID > b.ID
}

func byDueDateAsc(a, b *loan.Loan) bool {
	if !a.DueDate.Equal(b.DueDate) {
		return a.DueDate.Before(b.DueDate)
	}
	return a.ID < b.ID
}

// cloneLoan 复制借阅记录,避免与调用方共享ReturnDate指针
func cloneLoan(l *loan.Loan) loan.Loan {
	c := *l
	if l.ReturnDate != nil {
		d := *l.ReturnDate
		c.ReturnDate = &d
	}
	return c
}

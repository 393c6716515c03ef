package report

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apploan "github.com/xiebiao/library/internal/application/loan"
	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/loan"
	"github.com/xiebiao/library/internal/domain/user"
	"github.com/xiebiao/library/internal/infrastructure/logger"
	"github.com/xiebiao/library/internal/infrastructure/persistence"
	"github.com/xiebiao/library/internal/infrastructure/persistence/memory"
)

// jsonCache 以JSON序列化模拟Redis缓存
type jsonCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	gets    int
	hits    int
	fail    bool
}

func newJSONCache() *jsonCache {
	return &jsonCache{entries: make(map[string][]byte)}
}

func (c *jsonCache) Get(_ context.Context, key string, dest any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.fail {
		return false, errors.New("connection refused")
	}
	val, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	c.hits++
	return true, json.Unmarshal(val, dest)
}

func (c *jsonCache) Set(_ context.Context, key string, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("connection refused")
	}
	val, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = val
	return nil
}

func (c *jsonCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string][]byte)
	return nil
}

type env struct {
	books  book.Service
	users  user.Service
	loans  *apploan.Service
	report *Service
	cache  *jsonCache
	now    time.Time
}

func newEnv(t *testing.T) *env {
	t.Helper()
	repos := persistence.NewMemory(memory.NewStore())
	e := &env{cache: newJSONCache(), now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	e.books = book.NewService(repos.Books, repos.Tx)
	e.users = user.NewService(repos.Users)
	e.loans = apploan.NewService(e.books, e.users, repos.Loans, repos.Tx,
		apploan.Options{Policy: loan.DefaultPolicy(), Clock: func() time.Time { return e.now }},
		InvalidateOnLoanEvent(e.cache), logger.Discard())
	e.report = NewService(e.books, e.users, e.loans, e.cache, logger.Discard())
	return e
}

func TestInventory(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	goBook, err := e.books.AddBook(ctx, "9780306406157", "Go", "Donovan", "Programming", 3, time.Time{})
	require.NoError(t, err)
	_, err = e.books.AddBook(ctx, "0306406152", "Algorithms", "Sedgewick", "CS", 2, time.Time{})
	require.NoError(t, err)
	gone, err := e.books.AddBook(ctx, "9781234567897", "Deleted", "Nobody", "", 4, time.Time{})
	require.NoError(t, err)
	require.NoError(t, e.books.DeleteBook(ctx, gone.ID))

	u, err := e.users.Register(ctx, "Ada", "Lovelace", "ada@example.com", "")
	require.NoError(t, err)
	_, err = e.loans.Borrow(ctx, goBook.ID, u.ID)
	require.NoError(t, err)

	r, err := e.report.Inventory(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, r.TotalTitles)
	assert.Equal(t, 5, r.TotalCopies)
	assert.Equal(t, 4, r.AvailableCopies)
	assert.Equal(t, 1, r.BorrowedCopies)
	require.Len(t, r.Books, 2)
	assert.Equal(t, "Algorithms", r.Books[0].Title)
	assert.Equal(t, 1, r.Books[1].Borrowed)

	// 第二次命中缓存
	cached, err := e.report.Inventory(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, e.cache.hits)
	assert.Equal(t, r.BorrowedCopies, cached.BorrowedCopies)

	// 借书事件使缓存失效
	_, err = e.loans.Borrow(ctx, goBook.ID, u.ID)
	require.NoError(t, err)
	r, err = e.report.Inventory(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, r.BorrowedCopies)
	assert.Equal(t, 1, e.cache.hits)
}

func TestOverdue(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	b, err := e.books.AddBook(ctx, "9780306406157", "Go", "Donovan", "Programming", 2, time.Time{})
	require.NoError(t, err)
	ada, err := e.users.Register(ctx, "Ada", "Lovelace", "ada@example.com", "")
	require.NoError(t, err)
	grace, err := e.users.Register(ctx, "Grace", "Hopper", "grace@example.com", "")
	require.NoError(t, err)

	l1, err := e.loans.Borrow(ctx, b.ID, ada.ID)
	require.NoError(t, err)
	e.now = e.now.AddDate(0, 0, 2)
	l2, err := e.loans.Borrow(ctx, b.ID, grace.ID)
	require.NoError(t, err)

	r, err := e.report.Overdue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, r.Count)
	assert.True(t, r.TotalFines.IsZero())

	// 3/20: l1逾期5天,l2逾期3天
	e.now = time.Date(2024, 3, 20, 9, 0, 0, 0, time.UTC)
	r, err = e.report.Overdue(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-20", r.AsOf)
	require.Equal(t, 2, r.Count)
	assert.Equal(t, l1.ID, r.Loans[0].LoanID)
	assert.Equal(t, 5, r.Loans[0].DaysLate)
	assert.Equal(t, "Ada Lovelace", r.Loans[0].PatronName)
	assert.Equal(t, "Go", r.Loans[0].BookTitle)
	assert.Equal(t, l2.ID, r.Loans[1].LoanID)
	assert.Equal(t, 3, r.Loans[1].DaysLate)
	assert.Equal(t, "8.00", r.TotalFines.StringFixed(2))

	// 同一天命中缓存,反序列化后罚金一致
	cached, err := e.report.Overdue(ctx)
	require.NoError(t, err)
	assert.True(t, r.TotalFines.Equal(cached.TotalFines))
	assert.Equal(t, 1, e.cache.hits)
}

func TestCacheFailureFallsBackToCompute(t *testing.T) {
	e := newEnv(t)
	e.cache.fail = true
	ctx := context.Background()
	_, err := e.books.AddBook(ctx, "9780306406157", "Go", "Donovan", "", 1, time.Time{})
	require.NoError(t, err)

	r, err := e.report.Inventory(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, r.TotalCopies)
}

func TestNopCache(t *testing.T) {
	s := NewService(nil, nil, nil, nil, logger.Discard())
	assert.IsType(t, NopCache{}, s.cache)
	assert.NoError(t, s.Invalidate(context.Background()))
}

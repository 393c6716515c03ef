package loan

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/loan"
	"github.com/xiebiao/library/internal/domain/user"
	"github.com/xiebiao/library/internal/infrastructure/config"
	"github.com/xiebiao/library/internal/infrastructure/logger"
	"github.com/xiebiao/library/internal/infrastructure/persistence"
	"github.com/xiebiao/library/internal/infrastructure/persistence/memory"
	"github.com/xiebiao/library/internal/infrastructure/persistence/mysql"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// fixture 借阅服务测试环境
type fixture struct {
	svc    *Service
	books  book.Service
	users  user.Service
	repos  *persistence.Repositories
	events *recorder

	mu  sync.Mutex
	now time.Time
}

func (f *fixture) clock() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fixture) advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

// recorder 记录发布的事件
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Publish(_ context.Context, routingKey string, ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ev.Type = routingKey
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type
	}
	return out
}

var start = time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)

func newFixture(t *testing.T, repos *persistence.Repositories, policy loan.Policy) *fixture {
	t.Helper()
	f := &fixture{repos: repos, events: &recorder{}, now: start}
	f.books = book.NewService(repos.Books, repos.Tx)
	f.users = user.NewService(repos.Users)
	f.svc = NewService(f.books, f.users, repos.Loans, repos.Tx, Options{Policy: policy, Clock: f.clock}, f.events, logger.Discard())
	return f
}

func newMemoryFixture(t *testing.T) *fixture {
	return newFixture(t, persistence.NewMemory(memory.NewStore()), loan.DefaultPolicy())
}

func newSQLiteFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := &config.Config{
		Server: config.ServerConfig{Mode: "test"},
		Database: config.DatabaseConfig{
			Driver:      config.DriverSQLite,
			SQLitePath:  filepath.Join(t.TempDir(), "library.db"),
			AutoMigrate: true,
		},
	}
	db, err := mysql.NewDB(cfg, logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	repos := &persistence.Repositories{
		Books: mysql.NewBookRepository(db),
		Users: mysql.NewUserRepository(db),
		Loans: mysql.NewLoanRepository(db),
		Tx:    mysql.NewTxManager(db),
	}
	return newFixture(t, repos, loan.DefaultPolicy())
}

func (f *fixture) addBook(t *testing.T, isbn string, copies int) *book.Book {
	t.Helper()
	b, err := f.books.AddBook(context.Background(), isbn, "The Go Programming Language", "Donovan", "Programming", copies, time.Time{})
	require.NoError(t, err)
	return b
}

func (f *fixture) addUser(t *testing.T, email string) *user.User {
	t.Helper()
	u, err := f.users.Register(context.Background(), "Ada", "Lovelace", email, "")
	require.NoError(t, err)
	return u
}

func (f *fixture) available(t *testing.T, bookID uint) int {
	t.Helper()
	b, err := f.books.GetBook(context.Background(), bookID)
	require.NoError(t, err)
	require.GreaterOrEqual(t, b.AvailableCopies, 0)
	require.LessOrEqual(t, b.AvailableCopies, b.TotalCopies)
	return b.AvailableCopies
}

func TestBorrowAndReturnOnTime(t *testing.T) {
	f := newMemoryFixture(t)
	ctx := context.Background()
	b := f.addBook(t, "9780306406157", 2)
	u := f.addUser(t, "ada@example.com")

	l, err := f.svc.Borrow(ctx, b.ID, u.ID)
	require.NoError(t, err)
	assert.NotZero(t, l.ID)
	assert.Equal(t, loan.StatusBorrowed, l.Status)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), l.BorrowDate)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), l.DueDate)
	assert.Equal(t, 1, f.available(t, b.ID))

	// 应还日当天归还不计罚金
	f.advance(14 * 24 * time.Hour)
	returned, err := f.svc.Return(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, loan.StatusReturned, returned.Status)
	assert.True(t, returned.FineAmount.IsZero())
	require.NotNil(t, returned.ReturnDate)
	assert.Equal(t, l.DueDate, *returned.ReturnDate)
	assert.Equal(t, 2, f.available(t, b.ID))

	assert.Equal(t, []string{RoutingKeyBorrowed, RoutingKeyReturned}, f.events.types())
}

func TestReturnLate_ChargesFinePerDay(t *testing.T) {
	f := newMemoryFixture(t)
	ctx := context.Background()
	b := f.addBook(t, "9780306406157", 1)
	u := f.addUser(t, "ada@example.com")

	l, err := f.svc.Borrow(ctx, b.ID, u.ID)
	require.NoError(t, err)

	// 应还日后3天归还
	f.advance(17 * 24 * time.Hour)
	returned, err := f.svc.Return(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, loan.StatusOverdue, returned.Status)
	assert.True(t, decimal.NewFromInt(3).Equal(returned.FineAmount), "fine=%s", returned.FineAmount)
	assert.Equal(t, 1, f.available(t, b.ID))

	stored, err := f.svc.GetLoan(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, "3.00", stored.FineAmount.StringFixed(2))
}

func TestBorrow_Unavailable_LeavesStateUnchanged(t *testing.T) {
	f := newMemoryFixture(t)
	ctx := context.Background()
	b := f.addBook(t, "9780306406157", 0)
	u := f.addUser(t, "ada@example.com")

	_, err := f.svc.Borrow(ctx, b.ID, u.ID)
	assert.ErrorIs(t, err, book.ErrBookUnavailable)
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))

	assert.Equal(t, 0, f.available(t, b.ID))
	loans, err := f.svc.ListLoans(ctx)
	require.NoError(t, err)
	assert.Empty(t, loans)
	assert.Empty(t, f.events.types())
}

func TestBorrow_NotFound(t *testing.T) {
	f := newMemoryFixture(t)
	ctx := context.Background()
	b := f.addBook(t, "9780306406157", 1)
	u := f.addUser(t, "ada@example.com")

	_, err := f.svc.Borrow(ctx, 999, u.ID)
	assert.ErrorIs(t, err, book.ErrBookNotFound)

	_, err = f.svc.Borrow(ctx, b.ID, 999)
	assert.ErrorIs(t, err, user.ErrUserNotFound)

	require.NoError(t, f.users.DeleteUser(ctx, u.ID))
	_, err = f.svc.Borrow(ctx, b.ID, u.ID)
	assert.ErrorIs(t, err, user.ErrUserNotFound)

	other := f.addUser(t, "grace@example.com")
	require.NoError(t, f.books.DeleteBook(ctx, b.ID))
	_, err = f.svc.Borrow(ctx, b.ID, other.ID)
	assert.ErrorIs(t, err, book.ErrBookNotFound)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestReturn_Twice_IsStateConflict(t *testing.T) {
	f := newMemoryFixture(t)
	ctx := context.Background()
	b := f.addBook(t, "9780306406157", 1)
	u := f.addUser(t, "ada@example.com")

	l, err := f.svc.Borrow(ctx, b.ID, u.ID)
	require.NoError(t, err)
	f.advance(20 * 24 * time.Hour)
	first, err := f.svc.Return(ctx, l.ID)
	require.NoError(t, err)

	f.advance(24 * time.Hour)
	_, err = f.svc.Return(ctx, l.ID)
	assert.ErrorIs(t, err, loan.ErrInvalidLoanState)
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))

	stored, err := f.svc.GetLoan(ctx, l.ID)
	require.NoError(t, err)
	assert.True(t, first.FineAmount.Equal(stored.FineAmount))
	assert.Equal(t, 1, f.available(t, b.ID))

	_, err = f.svc.Return(ctx, 999)
	assert.ErrorIs(t, err, loan.ErrLoanNotFound)
}

func TestReturn_DeletedBookStillRestoresCopy(t *testing.T) {
	f := newMemoryFixture(t)
	ctx := context.Background()
	b := f.addBook(t, "9780306406157", 1)
	u := f.addUser(t, "ada@example.com")

	l, err := f.svc.Borrow(ctx, b.ID, u.ID)
	require.NoError(t, err)
	require.NoError(t, f.books.DeleteBook(ctx, b.ID))

	_, err = f.svc.Return(ctx, l.ID)
	require.NoError(t, err)

	stored, err := f.books.GetBook(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.AvailableCopies)
	assert.Equal(t, book.StatusDeleted, stored.Status)
}

func TestBorrow_LoanLimit(t *testing.T) {
	policy := loan.DefaultPolicy()
	policy.MaxLoansPerUser = 2
	f := newFixture(t, persistence.NewMemory(memory.NewStore()), policy)
	ctx := context.Background()
	u := f.addUser(t, "ada@example.com")
	b1 := f.addBook(t, "9780306406157", 1)
	b2 := f.addBook(t, "0306406152", 1)
	b3 := f.addBook(t, "9781234567897", 1)

	first, err := f.svc.Borrow(ctx, b1.ID, u.ID)
	require.NoError(t, err)
	_, err = f.svc.Borrow(ctx, b2.ID, u.ID)
	require.NoError(t, err)

	_, err = f.svc.Borrow(ctx, b3.ID, u.ID)
	assert.ErrorIs(t, err, loan.ErrLoanLimitExceeded)
	assert.Equal(t, 1, f.available(t, b3.ID))

	// 归还后可以继续借
	_, err = f.svc.Return(ctx, first.ID)
	require.NoError(t, err)
	_, err = f.svc.Borrow(ctx, b3.ID, u.ID)
	assert.NoError(t, err)
}

func TestBorrow_DefaultPolicyHasNoLoanLimit(t *testing.T) {
	f := newMemoryFixture(t)
	ctx := context.Background()
	u := f.addUser(t, "ada@example.com")

	for i := 0; i < 6; i++ {
		b := f.addBook(t, fmt.Sprintf("978000000000%d", i), 3)
		_, err := f.svc.Borrow(ctx, b.ID, u.ID)
		require.NoError(t, err, "第%d次借阅", i+1)
	}

	loans, err := f.svc.ListByUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, loans, 6)
}

func TestBorrow_PublishFailureDoesNotFail(t *testing.T) {
	store := persistence.NewMemory(memory.NewStore())
	f := newFixture(t, store, loan.DefaultPolicy())
	f.svc.publisher = PublisherFunc(func(context.Context, string, Event) error {
		return errors.New("broker down")
	})
	b := f.addBook(t, "9780306406157", 1)
	u := f.addUser(t, "ada@example.com")

	_, err := f.svc.Borrow(context.Background(), b.ID, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, f.available(t, b.ID))
}

func TestQueries(t *testing.T) {
	f := newMemoryFixture(t)
	ctx := context.Background()
	b1 := f.addBook(t, "9780306406157", 3)
	b2 := f.addBook(t, "0306406152", 3)
	ada := f.addUser(t, "ada@example.com")
	grace := f.addUser(t, "grace@example.com")

	l1, err := f.svc.Borrow(ctx, b1.ID, ada.ID)
	require.NoError(t, err)
	f.advance(24 * time.Hour)
	l2, err := f.svc.Borrow(ctx, b2.ID, ada.ID)
	require.NoError(t, err)
	f.advance(24 * time.Hour)
	l3, err := f.svc.Borrow(ctx, b1.ID, grace.ID)
	require.NoError(t, err)

	all, err := f.svc.ListLoans(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint{l3.ID, l2.ID, l1.ID}, ids(all))

	byUser, err := f.svc.ListByUser(ctx, ada.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{l2.ID, l1.ID}, ids(byUser))

	byBook, err := f.svc.ListByBook(ctx, b1.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{l3.ID, l1.ID}, ids(byBook))

	overdue, err := f.svc.ListOverdue(ctx)
	require.NoError(t, err)
	assert.Empty(t, overdue)

	// l1应还日为3/15,3/16起逾期
	f.advance(14 * 24 * time.Hour)
	overdue, err = f.svc.ListOverdue(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint{l1.ID, l2.ID}, ids(overdue))

	_, err = f.svc.Return(ctx, l2.ID)
	require.NoError(t, err)
	overdue, err = f.svc.ListOverdue(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint{l1.ID}, ids(overdue))
}

func TestPreviewFine(t *testing.T) {
	f := newMemoryFixture(t)
	ctx := context.Background()
	b := f.addBook(t, "9780306406157", 1)
	u := f.addUser(t, "ada@example.com")

	l, err := f.svc.Borrow(ctx, b.ID, u.ID)
	require.NoError(t, err)

	preview, err := f.svc.PreviewFine(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, preview.DaysLate)
	assert.True(t, preview.Fine.IsZero())
	assert.False(t, preview.Settled)

	f.advance(19 * 24 * time.Hour)
	preview, err = f.svc.PreviewFine(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, preview.DaysLate)
	assert.Equal(t, "5.00", preview.Fine.StringFixed(2))

	// 预估不修改数据
	stored, err := f.svc.GetLoan(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, loan.StatusBorrowed, stored.Status)
	assert.Equal(t, 0, f.available(t, b.ID))

	_, err = f.svc.Return(ctx, l.ID)
	require.NoError(t, err)
	f.advance(10 * 24 * time.Hour)
	preview, err = f.svc.PreviewFine(ctx, l.ID)
	require.NoError(t, err)
	assert.True(t, preview.Settled)
	assert.Equal(t, 5, preview.DaysLate)
	assert.Equal(t, "5.00", preview.Fine.StringFixed(2))
}

// 只剩一本时并发借阅:恰好一个成功,其余BookUnavailable
func testConcurrentLastCopy(t *testing.T, f *fixture) {
	ctx := context.Background()
	b := f.addBook(t, "9780306406157", 1)
	const borrowers = 4
	users := make([]*user.User, borrowers)
	for i := range users {
		users[i] = f.addUser(t, string(rune('a'+i))+"@example.com")
	}

	var wg sync.WaitGroup
	errs := make([]error, borrowers)
	for i := range users {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Borrow(ctx, b.ID, users[i].ID)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, book.ErrBookUnavailable)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 0, f.available(t, b.ID))

	loans, err := f.svc.ListByBook(ctx, b.ID)
	require.NoError(t, err)
	assert.Len(t, loans, 1)
}

func TestConcurrentBorrowLastCopy_Memory(t *testing.T) {
	testConcurrentLastCopy(t, newMemoryFixture(t))
}

func TestConcurrentBorrowLastCopy_SQLite(t *testing.T) {
	testConcurrentLastCopy(t, newSQLiteFixture(t))
}

func TestBorrowReturn_SQLite(t *testing.T) {
	f := newSQLiteFixture(t)
	ctx := context.Background()
	b := f.addBook(t, "9780306406157", 1)
	u := f.addUser(t, "ada@example.com")

	l, err := f.svc.Borrow(ctx, b.ID, u.ID)
	require.NoError(t, err)

	_, err = f.svc.Borrow(ctx, b.ID, u.ID)
	assert.ErrorIs(t, err, book.ErrBookUnavailable)

	f.advance(16 * 24 * time.Hour)
	returned, err := f.svc.Return(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, loan.StatusOverdue, returned.Status)
	assert.Equal(t, "2.00", returned.FineAmount.StringFixed(2))
	assert.Equal(t, 1, f.available(t, b.ID))

	_, err = f.svc.Return(ctx, l.ID)
	assert.ErrorIs(t, err, loan.ErrInvalidLoanState)
	assert.Equal(t, 1, f.available(t, b.ID))
}

func TestMultiPublisher(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	failing := PublisherFunc(func(context.Context, string, Event) error { return errors.New("down") })
	multi := MultiPublisher{a, failing, nil, b}

	err := multi.Publish(context.Background(), RoutingKeyOverdue, Event{LoanID: 1})
	assert.Error(t, err)
	assert.Equal(t, []string{RoutingKeyOverdue}, a.types())
	assert.Equal(t, []string{RoutingKeyOverdue}, b.types())
}

func TestNewEvent(t *testing.T) {
	l := loan.NewLoan(1, 2, start, loan.DefaultPolicy())
	l.ID = 7
	ev := NewEvent(RoutingKeyOverdue, l, start.AddDate(0, 0, 16))
	assert.NotEmpty(t, ev.EventID)
	assert.Equal(t, "2024-03-15", ev.DueDate)
	assert.Equal(t, 2, ev.DaysLate)
	assert.Empty(t, ev.ReturnDate)
}

func ids(loans []*loan.Loan) []uint {
	out := make([]uint, len(loans))
	for i, l := range loans {
		out[i] = l.ID
	}
	return out
}

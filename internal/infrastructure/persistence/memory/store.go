// Package memory 提供进程内存储实现,用于单元测试与 database.driver=memory 的演示模式。
//
// 事务模型:同一时刻只有一个事务(或单条语句)持有存储锁,
// 事务失败时整体恢复到开始前的快照,与数据库的串行化隔离级别等价。
package memory

import (
	"context"
	"sync"

	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/loan"
	"github.com/xiebiao/library/internal/domain/user"
)

// Store 内存存储
type Store struct {
	mu sync.Mutex

	books   map[uint]book.Book
	users   map[uint]user.User
	loans   map[uint]loan.Loan
	bookSeq uint
	userSeq uint
	loanSeq uint
}

// NewStore 创建空的内存存储
func NewStore() *Store {
	return &Store{
		books: make(map[uint]book.Book),
		users: make(map[uint]user.User),
		loans: make(map[uint]loan.Loan),
	}
}

// txKey 标记ctx已处于本存储的事务中
type txKey struct{ store *Store }

// inTx 当前ctx是否已持有本存储的锁
func (s *Store) inTx(ctx context.Context) bool {
	held, _ := ctx.Value(txKey{store: s}).(bool)
	return held
}

// run 以自动提交方式执行单条操作;事务内直接执行
func (s *Store) run(ctx context.Context, fn func() error) error {
	if s.inTx(ctx) {
		return fn()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

// Transaction 执行事务
// fn返回error时恢复快照(ROLLBACK),返回nil时保留修改(COMMIT)
// 嵌套调用直接复用外层事务
func (s *Store) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	txCtx := context.WithValue(ctx, txKey{store: s}, true)
	if err := fn(txCtx); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

type snapshot struct {
	books   map[uint]book.Book
	users   map[uint]user.User
	loans   map[uint]loan.Loan
	bookSeq uint
	userSeq uint
	loanSeq uint
}

func (s *Store) snapshot() snapshot {
	snap := snapshot{
		books:   make(map[uint]book.Book, len(s.books)),
		users:   make(map[uint]user.User, len(s.users)),
		loans:   make(map[uint]loan.Loan, len(s.loans)),
		bookSeq: s.bookSeq,
		userSeq: s.userSeq,
		loanSeq: s.loanSeq,
	}
	for k, v := range s.books {
		snap.books[k] = v
	}
	for k, v := range s.users {
		snap.users[k] = v
	}
	for k, v := range s.loans {
		snap.loans[k] = v
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.books = snap.books
	s.users = snap.users
	s.loans = snap.loans
	s.bookSeq = snap.bookSeq
	s.userSeq = snap.userSeq
	s.loanSeq = snap.loanSeq
}

// Close 实现与SQL存储一致的关闭接口
func (s *Store) Close() error {
	return nil
}

// paginate 对已排序的结果分页,pageSize<=0时返回全部
func paginate[T any](items []T, page, pageSize int) []T {
	if pageSize <= 0 {
		return items
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * pageSize
	if start >= len(items) {
		return []T{}
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// Package persistence 按database.driver组装仓储
package persistence

import (
	"context"
	"log/slog"

	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/loan"
	"github.com/xiebiao/library/internal/domain/user"
	"github.com/xiebiao/library/internal/infrastructure/config"
	"github.com/xiebiao/library/internal/infrastructure/persistence/memory"
	"github.com/xiebiao/library/internal/infrastructure/persistence/mysql"
)

// Transactor 事务边界
type Transactor interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Repositories 一组共享同一事务管理器的仓储
type Repositories struct {
	Books book.Repository
	Users user.Repository
	Loans loan.Repository
	Tx    Transactor

	closeFn func() error
}

// Close 释放底层连接
func (r *Repositories) Close() error {
	if r.closeFn == nil {
		return nil
	}
	return r.closeFn()
}

// Open 根据配置打开存储
func Open(cfg *config.Config, log *slog.Logger) (*Repositories, error) {
	if cfg.Database.Driver == config.DriverMemory {
		log.Warn("使用内存存储,进程退出后数据丢失")
		return NewMemory(memory.NewStore()), nil
	}

	db, err := mysql.NewDB(cfg, log)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	return &Repositories{
		Books:   mysql.NewBookRepository(db),
		Users:   mysql.NewUserRepository(db),
		Loans:   mysql.NewLoanRepository(db),
		Tx:      mysql.NewTxManager(db),
		closeFn: sqlDB.Close,
	}, nil
}

// NewMemory 基于内存存储组装仓储
func NewMemory(store *memory.Store) *Repositories {
	return &Repositories{
		Books:   memory.NewBookRepository(store),
		Users:   memory.NewUserRepository(store),
		Loans:   memory.NewLoanRepository(store),
		Tx:      store,
		closeFn: store.Close,
	}
}

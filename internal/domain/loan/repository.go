package loan

import (
	"context"
	"time"
)

// Repository 借阅仓储接口
// 台账只追加:没有删除方法,Update只用于归还
type Repository interface {
	// Create 创建借阅记录
	Create(ctx context.Context, loan *Loan) error

	// FindByID 根据ID查找
	FindByID(ctx context.Context, id uint) (*Loan, error)

	// LockByID 悲观锁查询(SELECT FOR UPDATE),必须在事务中调用
	LockByID(ctx context.Context, id uint) (*Loan, error)

	// Update 更新借阅记录(归还日期、状态、罚金)
	Update(ctx context.Context, loan *Loan) error

	// List 全部借阅记录,按借出日期倒序
	List(ctx context.Context) ([]*Loan, error)

	// ListByUser 某读者的借阅记录,按借出日期倒序
	ListByUser(ctx context.Context, userID uint) ([]*Loan, error)

	// ListByBook 某图书的借阅记录,按借出日期倒序
	ListByBook(ctx context.Context, bookID uint) ([]*Loan, error)

	// ListOverdue 截至asOf逾期未还的记录(status=BORROWED且due_date<asOf),按应还日期正序
	ListOverdue(ctx context.Context, asOf time.Time) ([]*Loan, error)

	// CountActiveByUser 某读者在借(BORROWED)数量
	CountActiveByUser(ctx context.Context, userID uint) (int64, error)
}

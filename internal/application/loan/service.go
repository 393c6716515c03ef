package loan

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/loan"
	"github.com/xiebiao/library/internal/domain/user"
	apperrors "github.com/xiebiao/library/pkg/errors"
	"github.com/xiebiao/library/pkg/metrics"
	"github.com/xiebiao/library/pkg/tracing"
)

// TxManager 事务边界,fn内的仓储操作通过ctx共享同一事务
type TxManager interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Options 借阅规则与时钟
type Options struct {
	Policy loan.Policy
	Clock  func() time.Time // 业务时区下的当前时间
}

// Service 借阅服务(借书、还书、罚金计算)
//
// 核心问题:最后一本书被同时借走
// 场景:某书只剩1本,两位读者同时借
// 错误实现:
//  1. 查询可借数 → 1
//  2. 判断 > 0 → 通过(两个请求都通过)
//  3. 写借阅记录、可借数 - 1
//     结果:可借数变成-1,两条借阅记录
//
// 正确实现:
//  1. 事务内 SELECT FOR UPDATE 锁定图书行
//  2. 锁定后再判断可借数
//  3. 写借阅记录
//  4. 条件更新可借数(存储层保证0 <= n <= total)
//  5. COMMIT释放锁
type Service struct {
	books     book.Service
	users     user.Service
	loans     loan.Repository
	txManager TxManager
	policy    loan.Policy
	clock     func() time.Time
	publisher EventPublisher
	log       *slog.Logger
}

// NewService 创建借阅服务
// publisher为nil时不发布事件
func NewService(
	books book.Service,
	users user.Service,
	loans loan.Repository,
	txManager TxManager,
	opts Options,
	publisher EventPublisher,
	log *slog.Logger,
) *Service {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &Service{
		books:     books,
		users:     users,
		loans:     loans,
		txManager: txManager,
		policy:    opts.Policy,
		clock:     opts.Clock,
		publisher: publisher,
		log:       log,
	}
}

// Policy 当前借阅规则
func (s *Service) Policy() loan.Policy {
	return s.policy
}

// Today 业务时区下的今天(零点)
func (s *Service) Today() time.Time {
	return loan.DateOf(s.clock())
}

// Borrow 借书
// 失败时不产生任何副作用(事务回滚)
func (s *Service) Borrow(ctx context.Context, bookID, userID uint) (created *loan.Loan, err error) {
	ctx, finish := s.observe(ctx, "borrow",
		attribute.Int64("book.id", int64(bookID)),
		attribute.Int64("user.id", int64(userID)),
	)
	defer func() { finish(err) }()

	today := s.Today()
	err = s.txManager.Transaction(ctx, func(txCtx context.Context) error {
		// 1. 锁定图书行,后续判断都基于锁定后的数据
		b, err := s.books.LockBook(txCtx, bookID)
		if err != nil {
			return err
		}
		if b.IsDeleted() {
			return book.ErrBookNotFound
		}

		// 2. 读者校验
		u, err := s.users.GetUser(txCtx, userID)
		if err != nil {
			return err
		}
		if u.IsDeleted() {
			return user.ErrUserNotFound
		}
		if !u.IsActive() {
			return user.ErrUserInactive
		}

		// 3. 可借副本
		if !b.CanLend() {
			return book.ErrBookUnavailable
		}

		// 4. 借阅上限
		if s.policy.MaxLoansPerUser > 0 {
			outstanding, err := s.loans.CountActiveByUser(txCtx, userID)
			if err != nil {
				return err
			}
			if s.policy.LimitReached(outstanding) {
				return loan.ErrLoanLimitExceeded
			}
		}

		// 5. 写借阅记录并扣减可借数,任一失败整体回滚
		l := loan.NewLoan(bookID, userID, today, s.policy)
		if err := s.loans.Create(txCtx, l); err != nil {
			return err
		}
		if err := s.books.UpdateAvailability(txCtx, bookID, b.AvailableCopies-1); err != nil {
			return err
		}

		created = l
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "借书成功",
		"loan_id", created.ID,
		"book_id", bookID,
		"user_id", userID,
		"due_date", created.DueDate.Format(time.DateOnly),
	)
	s.publish(ctx, RoutingKeyBorrowed, created)
	return created, nil
}

// Return 还书
// 逾期按天计罚金,状态为OVERDUE;否则罚金为0,状态为RETURNED
func (s *Service) Return(ctx context.Context, loanID uint) (returned *loan.Loan, err error) {
	ctx, finish := s.observe(ctx, "return", attribute.Int64("loan.id", int64(loanID)))
	defer func() { finish(err) }()

	today := s.Today()
	err = s.txManager.Transaction(ctx, func(txCtx context.Context) error {
		// 1. 锁定借阅记录,防止并发重复归还
		l, err := s.loans.LockByID(txCtx, loanID)
		if err != nil {
			return err
		}

		// 2. 状态机:只有BORROWED可以归还
		if err := l.Return(today, s.policy); err != nil {
			return err
		}
		if err := s.loans.Update(txCtx, l); err != nil {
			return err
		}

		// 3. 归还副本;图书被删除后记录仍在,照常恢复
		b, err := s.books.LockBook(txCtx, l.BookID)
		if err != nil {
			return err
		}
		if err := s.books.UpdateAvailability(txCtx, b.ID, min(b.AvailableCopies+1, b.TotalCopies)); err != nil {
			return err
		}

		returned = l
		return nil
	})
	if err != nil {
		return nil, err
	}

	fine, _ := returned.FineAmount.Float64()
	metrics.AddFine(fine)
	s.log.InfoContext(ctx, "还书成功",
		"loan_id", returned.ID,
		"status", string(returned.Status),
		"fine", returned.FineAmount.StringFixed(2),
	)
	s.publish(ctx, RoutingKeyReturned, returned)
	return returned, nil
}

// GetLoan 查询借阅记录
func (s *Service) GetLoan(ctx context.Context, id uint) (*loan.Loan, error) {
	return s.loans.FindByID(ctx, id)
}

// ListLoans 全部借阅记录(借出日期倒序)
func (s *Service) ListLoans(ctx context.Context) ([]*loan.Loan, error) {
	return s.loans.List(ctx)
}

// ListByUser 读者的借阅记录
func (s *Service) ListByUser(ctx context.Context, userID uint) ([]*loan.Loan, error) {
	return s.loans.ListByUser(ctx, userID)
}

// ListByBook 图书的借阅记录
func (s *Service) ListByBook(ctx context.Context, bookID uint) ([]*loan.Loan, error) {
	return s.loans.ListByBook(ctx, bookID)
}

// ListOverdue 截至今天逾期未还的记录(应还日期正序)
func (s *Service) ListOverdue(ctx context.Context) ([]*loan.Loan, error) {
	return s.loans.ListOverdue(ctx, s.Today())
}

// FinePreview 罚金预估
type FinePreview struct {
	LoanID   uint
	Status   loan.Status
	DueDate  time.Time
	AsOf     time.Time
	DaysLate int
	Fine     decimal.Decimal
	Settled  bool // 已归还,Fine为实际罚金
}

// PreviewFine 若今天归还需要缴纳的罚金,不修改任何数据
func (s *Service) PreviewFine(ctx context.Context, loanID uint) (*FinePreview, error) {
	l, err := s.loans.FindByID(ctx, loanID)
	if err != nil {
		return nil, err
	}

	today := s.Today()
	preview := &FinePreview{
		LoanID:  l.ID,
		Status:  l.Status,
		DueDate: l.DueDate,
		AsOf:    today,
	}
	if !l.IsOutstanding() {
		preview.Settled = true
		preview.Fine = l.FineAmount
		if l.ReturnDate != nil {
			preview.AsOf = *l.ReturnDate
			preview.DaysLate = l.DaysOverdue(*l.ReturnDate)
		}
		return preview, nil
	}

	preview.DaysLate = l.DaysOverdue(today)
	preview.Fine = s.policy.FineFor(preview.DaysLate)
	return preview, nil
}

// observe 为借阅操作创建Span并在结束时记录指标
func (s *Service) observe(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := tracing.StartSpan(ctx, tracing.TracerName, "LoanService."+operation)
	span.SetAttributes(attrs...)
	return ctx, func(err error) {
		tracing.EndSpan(span, err)
		metrics.ObserveLoanOperation(operation, resultLabel(err), time.Since(start).Seconds())
		if err != nil {
			s.log.WarnContext(ctx, "借阅操作失败", "operation", operation, "error", err)
		}
	}
}

// publish 事务提交后发布事件,失败只记日志
func (s *Service) publish(ctx context.Context, routingKey string, l *loan.Loan) {
	ev := NewEvent(routingKey, l, s.clock())
	if err := s.publisher.Publish(ctx, routingKey, ev); err != nil {
		s.log.ErrorContext(ctx, "发布借阅事件失败",
			"routing_key", routingKey,
			"loan_id", l.ID,
			"error", err,
		)
	}
}

func resultLabel(err error) string {
	if err == nil {
		return "success"
	}
	return apperrors.KindOfError(err).String()
}

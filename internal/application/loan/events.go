package loan

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xiebiao/library/internal/domain/loan"
)

// 事件路由键(RabbitMQ topic exchange)
const (
	RoutingKeyBorrowed = "loan.borrowed"
	RoutingKeyReturned = "loan.returned"
	RoutingKeyOverdue  = "loan.overdue"
)

// Event 借阅事件
// 事务提交后发布,消费者需按EventID幂等处理
type Event struct {
	EventID    string          `json:"event_id"`
	Type       string          `json:"type"`
	LoanID     uint            `json:"loan_id"`
	BookID     uint            `json:"book_id"`
	UserID     uint            `json:"user_id"`
	Status     string          `json:"status"`
	BorrowDate string          `json:"borrow_date"`
	DueDate    string          `json:"due_date"`
	ReturnDate string          `json:"return_date,omitempty"`
	DaysLate   int             `json:"days_late,omitempty"`
	FineAmount decimal.Decimal `json:"fine_amount"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// NewEvent 根据借阅记录构建事件
func NewEvent(routingKey string, l *loan.Loan, occurredAt time.Time) Event {
	ev := Event{
		EventID:    uuid.NewString(),
		Type:       routingKey,
		LoanID:     l.ID,
		BookID:     l.BookID,
		UserID:     l.UserID,
		Status:     string(l.Status),
		BorrowDate: l.BorrowDate.Format(time.DateOnly),
		DueDate:    l.DueDate.Format(time.DateOnly),
		FineAmount: l.FineAmount,
		OccurredAt: occurredAt,
	}
	if l.ReturnDate != nil {
		ev.ReturnDate = l.ReturnDate.Format(time.DateOnly)
		ev.DaysLate = l.DaysOverdue(*l.ReturnDate)
	} else {
		ev.DaysLate = l.DaysOverdue(occurredAt)
	}
	return ev
}

// EventPublisher 事件发布接口
// 由infrastructure/messaging实现(RabbitMQ),未启用时使用NopPublisher
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, event Event) error
}

// PublisherFunc 函数适配器
type PublisherFunc func(ctx context.Context, routingKey string, event Event) error

// Publish 实现EventPublisher
func (f PublisherFunc) Publish(ctx context.Context, routingKey string, event Event) error {
	return f(ctx, routingKey, event)
}

// NopPublisher 丢弃所有事件
type NopPublisher struct{}

// Publish 实现EventPublisher
func (NopPublisher) Publish(context.Context, string, Event) error { return nil }

// MultiPublisher 依次发布到多个订阅方,单个失败不影响其余
type MultiPublisher []EventPublisher

// Publish 实现EventPublisher,返回所有失败的合并错误
func (m MultiPublisher) Publish(ctx context.Context, routingKey string, event Event) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, routingKey, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Package notify 逾期提醒
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	apploan "github.com/xiebiao/library/internal/application/loan"
	"github.com/xiebiao/library/pkg/metrics"
	"github.com/xiebiao/library/pkg/mq"
)

// Notifier 定时扫描逾期借阅并发布loan.overdue事件
// 每次扫描对每条逾期记录发布一次,读者在归还前每个周期都会收到提醒
type Notifier struct {
	loans     *apploan.Service
	publisher apploan.EventPublisher
	interval  time.Duration
	log       *slog.Logger
}

// NewNotifier 创建提醒任务
func NewNotifier(loans *apploan.Service, publisher apploan.EventPublisher, interval time.Duration, log *slog.Logger) *Notifier {
	if interval <= 0 {
		interval = time.Hour
	}
	if publisher == nil {
		publisher = apploan.NopPublisher{}
	}
	return &Notifier{loans: loans, publisher: publisher, interval: interval, log: log}
}

// Run 启动后立即扫描一次,之后按周期扫描,直到ctx取消
func (n *Notifier) Run(ctx context.Context) error {
	ticker := time.NewTicker(n.interval)
	defer ticker.Stop()

	n.log.Info("逾期提醒任务已启动", "interval", n.interval.String())
	for {
		if _, err := n.Sweep(ctx); err != nil && ctx.Err() == nil {
			n.log.ErrorContext(ctx, "逾期扫描失败", "error", err)
		}

		select {
		case <-ctx.Done():
			n.log.Info("逾期提醒任务已停止")
			return nil
		case <-ticker.C:
		}
	}
}

// Sweep 扫描一次,返回已发布的提醒数量
func (n *Notifier) Sweep(ctx context.Context) (int, error) {
	overdue, err := n.loans.ListOverdue(ctx)
	if err != nil {
		return 0, err
	}
	metrics.SetOverdueLoans(len(overdue))

	today := n.loans.Today()
	policy := n.loans.Policy()
	sent := 0
	for _, l := range overdue {
		ev := apploan.NewEvent(apploan.RoutingKeyOverdue, l, today)
		ev.FineAmount = policy.FineFor(ev.DaysLate) // 按今天归还估算
		if err := n.publisher.Publish(ctx, apploan.RoutingKeyOverdue, ev); err != nil {
			n.log.WarnContext(ctx, "发布逾期提醒失败", "loan_id", l.ID, "error", err)
			continue
		}
		sent++
	}

	n.log.InfoContext(ctx, "逾期扫描完成", "overdue", len(overdue), "sent", sent)
	return sent, nil
}

// NewReminderHandler 消费借阅事件并输出提醒日志
// 消息体无法解析时返回错误,由消费者决定重投或丢弃
func NewReminderHandler(log *slog.Logger) mq.Handler {
	return func(ctx context.Context, d mq.Delivery) error {
		var ev apploan.Event
		if err := json.Unmarshal(d.Body, &ev); err != nil {
			return fmt.Errorf("解析借阅事件失败: %w", err)
		}

		switch d.RoutingKey {
		case apploan.RoutingKeyOverdue:
			log.WarnContext(ctx, "逾期提醒",
				"event_id", ev.EventID,
				"loan_id", ev.LoanID,
				"user_id", ev.UserID,
				"book_id", ev.BookID,
				"due_date", ev.DueDate,
				"days_late", ev.DaysLate,
				"fine", ev.FineAmount.StringFixed(2),
			)
		default:
			log.InfoContext(ctx, "借阅事件",
				"event_id", ev.EventID,
				"type", d.RoutingKey,
				"loan_id", ev.LoanID,
				"status", ev.Status,
			)
		}
		return nil
	}
}

// Package messaging 把借阅事件投递到RabbitMQ
package messaging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	apploan "github.com/xiebiao/library/internal/application/loan"
	"github.com/xiebiao/library/pkg/circuitbreaker"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// DefaultPublishTimeout 单次发布超时
const DefaultPublishTimeout = 3 * time.Second

// Sender 底层消息发送,由mq.Publisher实现
type Sender interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// EventPublisher 借阅事件发布者
// 1. 熔断器保护:RabbitMQ不可用时快速失败,不拖慢借还书请求
// 2. 发布超时独立于请求ctx,请求结束不会中断已提交事务的事件投递
type EventPublisher struct {
	sender  Sender
	breaker *circuitbreaker.CircuitBreaker
	timeout time.Duration
	log     *slog.Logger
}

// NewEventPublisher 创建事件发布者,breaker为nil时使用默认配置
func NewEventPublisher(sender Sender, breaker *circuitbreaker.CircuitBreaker, log *slog.Logger) *EventPublisher {
	if breaker == nil {
		cfg := circuitbreaker.DefaultConfig()
		cfg.OnStateChange = func(name string, from, to circuitbreaker.State) {
			log.Warn("熔断器状态变化", "name", name, "from", from.String(), "to", to.String())
		}
		breaker = circuitbreaker.New("rabbitmq", cfg)
	}
	return &EventPublisher{
		sender:  sender,
		breaker: breaker,
		timeout: DefaultPublishTimeout,
		log:     log,
	}
}

// Publish 实现apploan.EventPublisher
func (p *EventPublisher) Publish(ctx context.Context, routingKey string, event apploan.Event) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()

	err := p.breaker.Execute(ctx, func(ctx context.Context) error {
		return p.sender.Publish(ctx, routingKey, event)
	})
	if errors.Is(err, circuitbreaker.ErrOpenState) {
		p.log.WarnContext(ctx, "熔断中,丢弃借阅事件", "routing_key", routingKey, "event_id", event.EventID)
	}
	if err != nil {
		return apperrors.WrapMQ(fmt.Errorf("发布借阅事件 %s: %w", routingKey, err))
	}
	return nil
}

// State 熔断器状态
func (p *EventPublisher) State() circuitbreaker.State {
	return p.breaker.State()
}

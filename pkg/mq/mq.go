// Package mq 基于RabbitMQ(amqp091)的消息发布与消费
//
// 使用topic交换机,路由键形如 loan.borrowed / loan.returned / loan.overdue,
// 消费者可用 loan.* 订阅全部借阅事件。消息体为JSON,持久化投递。
package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/xiebiao/library/pkg/metrics"
)

// ExchangeTopic 默认交换机类型
const ExchangeTopic = "topic"

// Publisher 消息发布者
// Channel不适合多个goroutine并发发布,Publish内部串行化
type Publisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	log      *slog.Logger

	mu sync.Mutex
}

// NewPublisher 连接RabbitMQ并声明交换机(durable)
func NewPublisher(url, exchange, exchangeType string, log *slog.Logger) (*Publisher, error) {
	conn, channel, err := open(url, exchange, exchangeType)
	if err != nil {
		return nil, err
	}

	log.Info("消息发布者已创建", "exchange", exchange, "type", exchangeType)
	return &Publisher{
		conn:     conn,
		channel:  channel,
		exchange: exchange,
		log:      log,
	}, nil
}

// Publish 发布JSON消息
func (p *Publisher) Publish(ctx context.Context, routingKey string, message any) error {
	msg, err := newPublishing(message)
	if err != nil {
		return err
	}

	p.mu.Lock()
	err = p.channel.PublishWithContext(ctx, p.exchange, routingKey, false, false, msg)
	p.mu.Unlock()

	if err != nil {
		metrics.IncMessagePublished(p.exchange, routingKey, "failure")
		return fmt.Errorf("发布消息失败: %w", err)
	}

	metrics.IncMessagePublished(p.exchange, routingKey, "success")
	p.log.DebugContext(ctx, "消息已发布", "routing_key", routingKey, "message_id", msg.MessageId)
	return nil
}

// Close 关闭Channel与连接
func (p *Publisher) Close() error {
	return closeAll(p.channel, p.conn)
}

// newPublishing 序列化消息并填充元数据
func newPublishing(message any) (amqp.Publishing, error) {
	body, err := json.Marshal(message)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("消息序列化失败: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now(),
	}, nil
}

// Delivery 消费到的消息
type Delivery struct {
	MessageID   string
	RoutingKey  string
	Body        []byte
	Redelivered bool
}

// Handler 消息处理函数,返回error时消息重新入队一次
type Handler func(ctx context.Context, d Delivery) error

// Consumer 消息消费者
type Consumer struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
	log     *slog.Logger
}

// NewConsumer 声明交换机与持久化队列,并按路由键绑定
func NewConsumer(url, exchange, exchangeType, queue string, routingKeys []string, log *slog.Logger) (*Consumer, error) {
	conn, channel, err := open(url, exchange, exchangeType)
	if err != nil {
		return nil, err
	}

	q, err := channel.QueueDeclare(queue, true, false, false, false, nil)
	if err != nil {
		_ = closeAll(channel, conn)
		return nil, fmt.Errorf("声明Queue失败: %w", err)
	}

	for _, key := range routingKeys {
		if err := channel.QueueBind(q.Name, key, exchange, false, nil); err != nil {
			_ = closeAll(channel, conn)
			return nil, fmt.Errorf("绑定Queue失败: %w", err)
		}
	}

	log.Info("消息消费者已创建", "queue", q.Name, "routing_keys", routingKeys)
	return &Consumer{conn: conn, channel: channel, queue: q.Name, log: log}, nil
}

// Consume 阻塞消费直到ctx取消
// 1. 手动ACK,Prefetch=1
// 2. 处理失败的消息重新入队一次,再次失败则丢弃
func (c *Consumer) Consume(ctx context.Context, handler Handler) error {
	if err := c.channel.Qos(1, 0, false); err != nil {
		return fmt.Errorf("设置Qos失败: %w", err)
	}

	msgs, err := c.channel.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("开始消费失败: %w", err)
	}

	c.log.Info("开始消费消息", "queue", c.queue)
	for {
		select {
		case <-ctx.Done():
			c.log.Info("消费者退出", "queue", c.queue)
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("消息Channel已关闭")
			}
			c.handle(ctx, msg, handler)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, msg amqp.Delivery, handler Handler) {
	start := time.Now()
	err := handler(ctx, Delivery{
		MessageID:   msg.MessageId,
		RoutingKey:  msg.RoutingKey,
		Body:        msg.Body,
		Redelivered: msg.Redelivered,
	})
	elapsed := time.Since(start).Seconds()

	if err == nil {
		_ = msg.Ack(false)
		metrics.ObserveMessageConsumed(c.queue, "success", elapsed)
		return
	}

	requeue := !msg.Redelivered
	c.log.Error("消息处理失败",
		"routing_key", msg.RoutingKey,
		"message_id", msg.MessageId,
		"requeue", requeue,
		"error", err,
	)
	_ = msg.Nack(false, requeue)
	metrics.ObserveMessageConsumed(c.queue, "failure", elapsed)
}

// Close 关闭Channel与连接
func (c *Consumer) Close() error {
	return closeAll(c.channel, c.conn)
}

func open(url, exchange, exchangeType string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("连接RabbitMQ失败: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("创建Channel失败: %w", err)
	}

	if err := channel.ExchangeDeclare(exchange, exchangeType, true, false, false, false, nil); err != nil {
		_ = closeAll(channel, conn)
		return nil, nil, fmt.Errorf("声明Exchange失败: %w", err)
	}
	return conn, channel, nil
}

func closeAll(channel *amqp.Channel, conn *amqp.Connection) error {
	if channel != nil {
		_ = channel.Close()
	}
	if conn != nil {
		return conn.Close()
	}
	return nil
}

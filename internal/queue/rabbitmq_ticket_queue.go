package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"fest-ticketing/internal/model"
	"fest-ticketing/pkg/logger"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const attemptHeader = "x-attempt"

// RabbitMQTicketQueue publishes persistent messages to a durable queue on the default exchange.
// Requeued messages wait in "<queue>.retry" until their per-message TTL expires and are
// dead-lettered back to the main queue.
type RabbitMQTicketQueue struct {
	conn       *amqp.Connection
	queueName  string
	retryQueue string
	prefetch   int
	policy     RetryPolicy

	mu  sync.Mutex
	pub *amqp.Channel
	log *zap.Logger
}

// NewRabbitMQTicketQueue policy 可為 nil，使用 DefaultRetryPolicy。
func NewRabbitMQTicketQueue(url, queueName string, policy *RetryPolicy) (*RabbitMQTicketQueue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	pub, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if _, err := pub.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	retryQueue := queueName + ".retry"
	_, err = pub.QueueDeclare(retryQueue, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": queueName,
	})
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("declare retry queue: %w", err)
	}

	p := DefaultRetryPolicy()
	if policy != nil {
		p = policy.withDefaults()
	}
	return &RabbitMQTicketQueue{
		conn:       conn,
		queueName:  queueName,
		retryQueue: retryQueue,
		prefetch:   50,
		policy:     p,
		pub:        pub,
		log:        logger.WithComponent("mq").With(zap.String("queue", queueName)),
	}, nil
}

func (q *RabbitMQTicketQueue) PublishTicketIssued(ctx context.Context, msg *model.TicketIssued) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal ticket issued: %w", err)
	}

	err = q.publish(ctx, q.queueName, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    msg.RegistrationID.String(),
		Timestamp:    time.Now().UTC(),
		Headers:      amqp.Table{attemptHeader: int32(1)},
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

func (q *RabbitMQTicketQueue) publish(ctx context.Context, routingKey string, msg amqp.Publishing) error {
	// amqp.Channel 不可並行 publish
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pub.PublishWithContext(ctx, "", routingKey, false, false, msg)
}

// retryLater 把訊息丟到 retry queue 等待 backoff，成功後才 ack 原訊息
func (q *RabbitMQTicketQueue) retryLater(m amqp.Delivery, attempt int) {
	log := q.log.With(zap.String("message_id", m.MessageId), zap.Int("attempt", attempt))
	if q.policy.Exhausted(attempt) {
		log.Warn("retry budget exhausted, drop message", zap.Int("max_attempts", q.policy.MaxAttempts))
		if err := m.Nack(false, false); err != nil {
			log.Error("nack failed", zap.Error(err))
		}
		return
	}

	delay := q.policy.Backoff(attempt)
	err := q.publish(context.Background(), q.retryQueue, amqp.Publishing{
		ContentType:  m.ContentType,
		DeliveryMode: amqp.Persistent,
		MessageId:    m.MessageId,
		Timestamp:    m.Timestamp,
		Expiration:   strconv.FormatInt(delay.Milliseconds(), 10),
		Headers:      amqp.Table{attemptHeader: int32(attempt + 1)},
		Body:         m.Body,
	})
	if err != nil {
		log.Error("publish to retry queue failed, requeue in place", zap.Error(err))
		if err := m.Nack(false, true); err != nil {
			log.Error("nack failed", zap.Error(err))
		}
		return
	}
	if err := m.Ack(false); err != nil {
		log.Error("ack failed", zap.Error(err))
	}
}

func attemptOf(headers amqp.Table) int {
	switch v := headers[attemptHeader].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	case int16:
		return int(v)
	case int8:
		return int(v)
	}
	return 1
}

func (q *RabbitMQTicketQueue) SubscribeTicketIssued(ctx context.Context) (<-chan Delivery, error) {
	ch, err := q.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.Qos(q.prefetch, 0, false); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("set qos: %w", err)
	}
	if _, err := ch.QueueDeclare(q.queueName, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	msgs, err := ch.ConsumeWithContext(ctx, q.queueName, "", false, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("consume: %w", err)
	}

	out := make(chan Delivery)
	go func() {
		defer close(out)
		defer ch.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-msgs:
				if !ok {
					q.log.Warn("deliveries channel closed")
					return
				}
				var issued model.TicketIssued
				if err := json.Unmarshal(m.Body, &issued); err != nil {
					q.log.Warn("unmarshal ticket issued failed", zap.Error(err))
					// 無法解析的訊息不重回隊列，避免死循環
					_ = m.Nack(false, false)
					continue
				}
				attempt := attemptOf(m.Headers)
				d := Delivery{
					Data:    &issued,
					Attempt: attempt,
					Ack: func() {
						if err := m.Ack(false); err != nil {
							q.log.Error("ack failed", zap.Error(err))
						}
					},
					Nack: func(requeue bool) {
						if requeue {
							q.retryLater(m, attempt)
							return
						}
						if err := m.Nack(false, false); err != nil {
							q.log.Error("nack failed", zap.Error(err))
						}
					},
				}
				select {
				case out <- d:
				case <-ctx.Done():
					_ = m.Nack(false, true)
					return
				}
			}
		}
	}()
	return out, nil
}

func (q *RabbitMQTicketQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	_ = q.pub.Close()
	return q.conn.Close()
}

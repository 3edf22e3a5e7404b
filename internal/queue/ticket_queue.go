package queue

import (
	"context"
	"errors"
	"time"

	"fest-ticketing/internal/model"
	"fest-ticketing/pkg/logger"

	"go.uber.org/zap"
)

// ErrQueueFull is returned by the in-memory queue when its buffer is full.
var ErrQueueFull = errors.New("ticket queue is full")

type Delivery struct {
	Data *model.TicketIssued
	// Attempt 第幾次投遞，從 1 開始
	Attempt int
	Ack     func()
	Nack    func(requeue bool)
}

// RetryPolicy controls how a requeued message is delayed and when it is given up on.
type RetryPolicy struct {
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	MaxAttempts int
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		BaseDelay:   time.Second,
		MaxDelay:    time.Minute,
		MaxAttempts: 5,
	}
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	def := DefaultRetryPolicy()
	if p.BaseDelay <= 0 {
		p.BaseDelay = def.BaseDelay
	}
	if p.MaxDelay < p.BaseDelay {
		p.MaxDelay = p.BaseDelay
	}
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = def.MaxAttempts
	}
	return p
}

// Backoff 第 attempt 次失敗後的等待時間：BaseDelay * 2^(attempt-1)，上限 MaxDelay
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	d := p.BaseDelay
	for i := 1; i < attempt && d < p.MaxDelay; i++ {
		d *= 2
	}
	if d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

// Exhausted reports whether a message delivered attempt times should be dropped instead of requeued.
func (p RetryPolicy) Exhausted(attempt int) bool {
	return attempt >= p.MaxAttempts
}

type TicketQueue interface {
	// 發送出票通知到隊列
	PublishTicketIssued(ctx context.Context, msg *model.TicketIssued) error
	// 訂閱出票通知
	SubscribeTicketIssued(ctx context.Context) (<-chan Delivery, error)
	Close() error
}

type MemoryTicketQueue struct {
	// 使用 Go channel 來模擬 MQ 隊列
	ch     chan envelope
	policy RetryPolicy
}

type envelope struct {
	msg     *model.TicketIssued
	attempt int
}

// NewMemoryTicketQueue policy 可為 nil，使用 DefaultRetryPolicy。
func NewMemoryTicketQueue(bufferSize int, policy *RetryPolicy) TicketQueue {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	p := DefaultRetryPolicy()
	if policy != nil {
		p = policy.withDefaults()
	}
	return &MemoryTicketQueue{
		ch:     make(chan envelope, bufferSize),
		policy: p,
	}
}

// PublishTicketIssued never blocks the request path: a full buffer is an error.
func (q *MemoryTicketQueue) PublishTicketIssued(ctx context.Context, msg *model.TicketIssued) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case q.ch <- envelope{msg: msg, attempt: 1}:
		return nil
	default:
		return ErrQueueFull
	}
}

// SubscribeTicketIssued 在 ctx 結束後仍會把 buffer 中已有的訊息交出去再關閉 channel，
// 只有尚在 backoff 計時中的重試會被丟棄。
func (q *MemoryTicketQueue) SubscribeTicketIssued(ctx context.Context) (<-chan Delivery, error) {
	out := make(chan Delivery)

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				q.drain(out)
				return
			case env := <-q.ch:
				out <- q.delivery(env)
			}
		}
	}()

	return out, nil
}

func (q *MemoryTicketQueue) drain(out chan<- Delivery) {
	for {
		select {
		case env := <-q.ch:
			out <- q.delivery(env)
		default:
			return
		}
	}
}

func (q *MemoryTicketQueue) delivery(env envelope) Delivery {
	return Delivery{
		Data:    env.msg,
		Attempt: env.attempt,
		Ack:     func() {},
		Nack: func(requeue bool) {
			if !requeue {
				return
			}
			log := logger.WithComponent("mq").With(
				zap.String("ticket_code", env.msg.TicketCode),
				zap.Int("attempt", env.attempt))
			if q.policy.Exhausted(env.attempt) {
				log.Warn("retry budget exhausted, drop message", zap.Int("max_attempts", q.policy.MaxAttempts))
				return
			}
			next := envelope{msg: env.msg, attempt: env.attempt + 1}
			time.AfterFunc(q.policy.Backoff(env.attempt), func() {
				select {
				case q.ch <- next:
				default:
					log.Warn("requeue dropped, buffer full")
				}
			})
		},
	}
}

func (q *MemoryTicketQueue) Close() error {
	return nil
}

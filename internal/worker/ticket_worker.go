package worker

import (
	"context"
	"errors"
	"time"

	"fest-ticketing/internal/mailer"
	"fest-ticketing/internal/queue"
	"fest-ticketing/pkg/logger"

	"go.uber.org/zap"
)

// sendTimeout 單封信的上限；寄信不跟著 worker ctx 取消，關機時 buffer 內的通知仍能送完
const sendTimeout = 30 * time.Second

type TicketWorker interface {
	// 訂閱出票隊列並寄送確認信；回傳的 channel 在 worker 結束時關閉
	Start(ctx context.Context) (<-chan struct{}, error)
}

type TicketWorkerImpl struct {
	notifier mailer.TicketNotifier
	queue    queue.TicketQueue
}

func NewTicketWorker(notifier mailer.TicketNotifier, queue queue.TicketQueue) TicketWorker {
	return &TicketWorkerImpl{
		notifier: notifier,
		queue:    queue,
	}
}

func (w *TicketWorkerImpl) Start(ctx context.Context) (<-chan struct{}, error) {
	msgs, err := w.queue.SubscribeTicketIssued(ctx)
	if err != nil {
		return nil, err
	}

	log := logger.WithComponent("worker")
	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range msgs {
			sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sendTimeout)
			err := w.notifier.NotifyTicketIssued(sendCtx, msg.Data)
			cancel()
			switch {
			case err == nil:
				msg.Ack()
			case errors.Is(err, mailer.ErrUndeliverable):
				// 重試也不會成功，直接丟棄
				log.Warn("drop ticket notification",
					zap.String("ticket_code", msg.Data.TicketCode), zap.Error(err))
				msg.Nack(false)
			default:
				// 寄信服務暫時失敗，交回隊列重試
				log.Error("send ticket notification failed",
					zap.String("ticket_code", msg.Data.TicketCode),
					zap.Int("attempt", msg.Attempt), zap.Error(err))
				msg.Nack(true)
			}
		}
	}()
	return done, nil
}

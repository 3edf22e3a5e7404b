package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"fest-ticketing/internal/model"
	"fest-ticketing/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	DefaultStreamKey   = "tickets:issued:stream"
	ConsumerGroupName  = "ticket-mailers"
	ConsumerNamePrefix = "mailer"
	messageField       = "ticket"
)

// RedisStreamConfig 可注入的逾時與重試設定；零值欄位使用預設。
type RedisStreamConfig struct {
	StreamKey          string
	ClaimMinIdleTime   time.Duration // PEL 中超過此時間才被 XAUTOCLAIM 領取
	MaxRetryCount      int           // 超過此次數視為毒藥消息並丟棄
	ReadGroupBlockTime time.Duration
}

func defaultRedisStreamConfig() RedisStreamConfig {
	return RedisStreamConfig{
		StreamKey:          DefaultStreamKey,
		ClaimMinIdleTime:   5 * time.Second,
		MaxRetryCount:      5,
		ReadGroupBlockTime: 2 * time.Second,
	}
}

type RedisStreamTicketQueue struct {
	client       *redis.Client
	groupName    string
	consumerName string
	cfg          RedisStreamConfig
	log          *zap.Logger
}

// NewRedisStreamTicketQueue 建立 Redis Stream 版 TicketQueue。config 可為 nil。
func NewRedisStreamTicketQueue(ctx context.Context, client *redis.Client, consumerID string, config *RedisStreamConfig) (*RedisStreamTicketQueue, error) {
	if consumerID == "" {
		consumerID = uuid.New().String()
	}
	cfg := defaultRedisStreamConfig()
	if config != nil {
		if config.StreamKey != "" {
			cfg.StreamKey = config.StreamKey
		}
		if config.ClaimMinIdleTime > 0 {
			cfg.ClaimMinIdleTime = config.ClaimMinIdleTime
		}
		if config.MaxRetryCount > 0 {
			cfg.MaxRetryCount = config.MaxRetryCount
		}
		if config.ReadGroupBlockTime > 0 {
			cfg.ReadGroupBlockTime = config.ReadGroupBlockTime
		}
	}
	q := &RedisStreamTicketQueue{
		client:       client,
		groupName:    ConsumerGroupName,
		consumerName: fmt.Sprintf("%s:%s", ConsumerNamePrefix, consumerID),
		cfg:          cfg,
		log:          logger.WithComponent("mq").With(zap.String("stream", cfg.StreamKey)),
	}
	if err := q.ensureConsumerGroup(ctx); err != nil {
		return nil, fmt.Errorf("ensure consumer group: %w", err)
	}
	return q, nil
}

func (q *RedisStreamTicketQueue) ensureConsumerGroup(ctx context.Context) error {
	err := q.client.XGroupCreateMkStream(ctx, q.cfg.StreamKey, q.groupName, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return err
	}
	return nil
}

func (q *RedisStreamTicketQueue) PublishTicketIssued(ctx context.Context, msg *model.TicketIssued) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal ticket issued: %w", err)
	}
	err = q.client.XAdd(ctx, &redis.XAddArgs{
		Stream: q.cfg.StreamKey,
		ID:     "*",
		Values: map[string]interface{}{messageField: string(body)},
	}).Err()
	if err != nil {
		return fmt.Errorf("xadd: %w", err)
	}
	return nil
}

func (q *RedisStreamTicketQueue) SubscribeTicketIssued(ctx context.Context) (<-chan Delivery, error) {
	out := make(chan Delivery)
	done := make(chan struct{})
	go func() {
		defer close(done)
		q.runAutoClaim(ctx, out)
	}()
	go func() {
		q.runReadLoop(ctx, out)
		<-done
		close(out)
	}()
	return out, nil
}

func (q *RedisStreamTicketQueue) Close() error {
	return nil
}

// runReadLoop 只讀 ">"（新訊息）；已投遞但未 ack 的訊息由 XAUTOCLAIM 超時後領回重試。
func (q *RedisStreamTicketQueue) runReadLoop(ctx context.Context, out chan<- Delivery) {
	for ctx.Err() == nil {
		streams, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    q.groupName,
			Consumer: q.consumerName,
			Streams:  []string{q.cfg.StreamKey, ">"},
			Count:    10,
			Block:    q.cfg.ReadGroupBlockTime,
		}).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			q.log.Error("XReadGroup failed", zap.Error(err))
			sleep(ctx, time.Second)
			continue
		}

		for _, stream := range streams {
			for _, msg := range stream.Messages {
				if !q.deliver(ctx, out, msg, 1) {
					return
				}
			}
		}
	}
}

// runAutoClaim 定時用 XAUTOCLAIM 領取超時未處理的消息
func (q *RedisStreamTicketQueue) runAutoClaim(ctx context.Context, out chan<- Delivery) {
	ticker := time.NewTicker(q.cfg.ClaimMinIdleTime)
	defer ticker.Stop()
	startID := "0-0"

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			claimed, nextID, err := q.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
				Stream:   q.cfg.StreamKey,
				Group:    q.groupName,
				Consumer: q.consumerName,
				MinIdle:  q.cfg.ClaimMinIdleTime,
				Count:    10,
				Start:    startID,
			}).Result()
			if err != nil && !errors.Is(err, redis.Nil) {
				if ctx.Err() != nil {
					return
				}
				q.log.Error("XAutoClaim failed", zap.Error(err))
				continue
			}
			startID = nextID
			if startID == "" {
				startID = "0-0"
			}

			for _, msg := range claimed {
				attempt, ok := q.withinRetryBudget(ctx, msg.ID)
				if !ok {
					continue
				}
				if !q.deliver(ctx, out, msg, attempt) {
					return
				}
			}
		}
	}
}

// withinRetryBudget acks and drops a message once it has been delivered MaxRetryCount times.
// The returned attempt is the stream's delivery count for the message.
func (q *RedisStreamTicketQueue) withinRetryBudget(ctx context.Context, messageID string) (int, bool) {
	pending, err := q.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: q.cfg.StreamKey,
		Group:  q.groupName,
		Start:  messageID,
		End:    messageID,
		Count:  1,
	}).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		q.log.Warn("XPendingExt failed", zap.String("message_id", messageID), zap.Error(err))
		return 2, true
	}
	if len(pending) == 0 {
		return 2, true
	}
	if int(pending[0].RetryCount) < q.cfg.MaxRetryCount {
		return int(pending[0].RetryCount), true
	}

	q.log.Warn("discard poison message",
		zap.String("message_id", messageID),
		zap.Int64("retries", pending[0].RetryCount),
		zap.Int("max_retries", q.cfg.MaxRetryCount))
	_ = q.client.XAck(ctx, q.cfg.StreamKey, q.groupName, messageID).Err()
	return int(pending[0].RetryCount), false
}

// deliver 組裝 Delivery 並送出；ctx 結束時回傳 false
func (q *RedisStreamTicketQueue) deliver(ctx context.Context, out chan<- Delivery, msg redis.XMessage, attempt int) bool {
	msgID := msg.ID
	ack := func() {
		if err := q.client.XAck(context.WithoutCancel(ctx), q.cfg.StreamKey, q.groupName, msgID).Err(); err != nil {
			q.log.Error("XAck failed", zap.String("message_id", msgID), zap.Error(err))
		}
	}

	raw, ok := msg.Values[messageField].(string)
	if !ok {
		q.log.Warn("invalid message: missing ticket field", zap.String("message_id", msgID))
		ack()
		return true
	}
	var issued model.TicketIssued
	if err := json.Unmarshal([]byte(raw), &issued); err != nil {
		q.log.Warn("unmarshal ticket issued failed", zap.String("message_id", msgID), zap.Error(err))
		ack()
		return true
	}

	d := Delivery{
		Data:    &issued,
		Attempt: attempt,
		Ack:     ack,
		Nack: func(requeue bool) {
			if requeue {
				// 留在 PEL，等 ClaimMinIdleTime 後由 XAUTOCLAIM 領取，形成延遲重試
				q.log.Info("message nack(requeue), will retry",
					zap.String("message_id", msgID),
					zap.Duration("claim_min_idle", q.cfg.ClaimMinIdleTime))
				return
			}
			ack()
		},
	}

	select {
	case out <- d:
		return true
	case <-ctx.Done():
		return false
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func (q *RedisStreamTicketQueue) StreamKey() string {
	return q.cfg.StreamKey
}

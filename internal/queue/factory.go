package queue

import (
	"context"
	"fmt"

	"fest-ticketing/config"

	"github.com/redis/go-redis/v9"
)

const (
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverRabbitMQ = "rabbitmq"
)

// New builds the TicketQueue selected by cfg.Driver. rdb is only used by the redis driver.
func New(ctx context.Context, cfg config.QueueConfig, rdb *redis.Client) (TicketQueue, error) {
	policy := RetryPolicyFromConfig(cfg)

	switch cfg.Driver {
	case DriverMemory, "":
		return NewMemoryTicketQueue(cfg.BufferSize, &policy), nil
	case DriverRedis:
		if rdb == nil {
			return nil, fmt.Errorf("queue driver %q requires a redis client", cfg.Driver)
		}
		q, err := NewRedisStreamTicketQueue(ctx, rdb, "", &RedisStreamConfig{
			StreamKey:     cfg.QueueName + ":stream",
			MaxRetryCount: policy.MaxAttempts,
		})
		if err != nil {
			return nil, err
		}
		return q, nil
	case DriverRabbitMQ:
		q, err := NewRabbitMQTicketQueue(cfg.RabbitMQURL, cfg.QueueName, &policy)
		if err != nil {
			return nil, err
		}
		return q, nil
	default:
		return nil, fmt.Errorf("unknown queue driver %q", cfg.Driver)
	}
}

// RetryPolicyFromConfig 零值欄位沿用 DefaultRetryPolicy
func RetryPolicyFromConfig(cfg config.QueueConfig) RetryPolicy {
	return RetryPolicy{
		BaseDelay:   cfg.RetryBaseDelay,
		MaxDelay:    cfg.RetryMaxDelay,
		MaxAttempts: cfg.MaxAttempts,
	}.withDefaults()
}

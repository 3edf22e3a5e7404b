package queue_test

import (
	"context"
	"testing"
	"time"

	"fest-ticketing/config"
	"fest-ticketing/internal/queue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryTicketQueue_PublishSubscribe(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	q := queue.NewMemoryTicketQueue(10, nil)
	msg := sampleTicket("MEM00001")
	require.NoError(t, q.PublishTicketIssued(ctx, msg))

	delCh, err := q.SubscribeTicketIssued(ctx)
	require.NoError(t, err)

	select {
	case d := <-delCh:
		assert.Same(t, msg, d.Data)
		d.Ack()
	case <-ctx.Done():
		t.Fatal("timeout 未收到訊息")
	}
}

func fastRetry(maxAttempts int) *queue.RetryPolicy {
	return &queue.RetryPolicy{BaseDelay: 50 * time.Millisecond, MaxDelay: 200 * time.Millisecond, MaxAttempts: maxAttempts}
}

func TestMemoryTicketQueue_NackRequeue(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	q := queue.NewMemoryTicketQueue(10, fastRetry(5))
	require.NoError(t, q.PublishTicketIssued(ctx, sampleTicket("MEM00002")))

	delCh, err := q.SubscribeTicketIssued(ctx)
	require.NoError(t, err)

	first := <-delCh
	assert.Equal(t, 1, first.Attempt)
	nackedAt := time.Now()
	first.Nack(true)

	select {
	case d := <-delCh:
		assert.Equal(t, "MEM00002", d.Data.TicketCode)
		assert.Equal(t, 2, d.Attempt)
		// 重回隊列前要先等 backoff
		assert.GreaterOrEqual(t, time.Since(nackedAt), 50*time.Millisecond)
	case <-ctx.Done():
		t.Fatal("requeue 後未再次投遞")
	}
}

func TestMemoryTicketQueue_NackRequeue_dropsAfterMaxAttempts(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	q := queue.NewMemoryTicketQueue(10, fastRetry(2))
	require.NoError(t, q.PublishTicketIssued(ctx, sampleTicket("MEM00005")))

	delCh, err := q.SubscribeTicketIssued(ctx)
	require.NoError(t, err)

	(<-delCh).Nack(true)
	second := <-delCh
	assert.Equal(t, 2, second.Attempt)
	second.Nack(true)

	select {
	case d := <-delCh:
		t.Fatalf("超過重試上限仍再次投遞: attempt %d", d.Attempt)
	case <-time.After(500 * time.Millisecond):
	}
}

func TestMemoryTicketQueue_ctxCancel_drainsBuffered(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	q := queue.NewMemoryTicketQueue(10, nil)
	for _, code := range []string{"DRAIN001", "DRAIN002", "DRAIN003"} {
		require.NoError(t, q.PublishTicketIssued(context.Background(), sampleTicket(code)))
	}

	delCh, err := q.SubscribeTicketIssued(ctx)
	require.NoError(t, err)
	cancel()

	var codes []string
	timeout := time.After(time.Second)
	for {
		select {
		case d, ok := <-delCh:
			if !ok {
				assert.ElementsMatch(t, []string{"DRAIN001", "DRAIN002", "DRAIN003"}, codes)
				return
			}
			codes = append(codes, d.Data.TicketCode)
			d.Ack()
		case <-timeout:
			t.Fatal("channel 未在時限內關閉")
		}
	}
}

func TestRetryPolicy_Backoff(t *testing.T) {
	p := queue.RetryPolicy{BaseDelay: time.Second, MaxDelay: 5 * time.Second, MaxAttempts: 4}

	assert.Equal(t, time.Second, p.Backoff(1))
	assert.Equal(t, 2*time.Second, p.Backoff(2))
	assert.Equal(t, 4*time.Second, p.Backoff(3))
	assert.Equal(t, 5*time.Second, p.Backoff(4))
	assert.Equal(t, 5*time.Second, p.Backoff(30))

	assert.False(t, p.Exhausted(3))
	assert.True(t, p.Exhausted(4))
}

func TestRetryPolicyFromConfig_fillsDefaults(t *testing.T) {
	p := queue.RetryPolicyFromConfig(config.QueueConfig{MaxAttempts: 2})
	assert.Equal(t, queue.DefaultRetryPolicy().BaseDelay, p.BaseDelay)
	assert.Equal(t, queue.DefaultRetryPolicy().MaxDelay, p.MaxDelay)
	assert.Equal(t, 2, p.MaxAttempts)
}

func TestMemoryTicketQueue_FullBufferDoesNotBlock(t *testing.T) {
	ctx := context.Background()
	q := queue.NewMemoryTicketQueue(1, nil)

	require.NoError(t, q.PublishTicketIssued(ctx, sampleTicket("MEM00003")))
	err := q.PublishTicketIssued(ctx, sampleTicket("MEM00004"))
	assert.ErrorIs(t, err, queue.ErrQueueFull)
}

func TestMemoryTicketQueue_ctxCancel_closesChannel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	q := queue.NewMemoryTicketQueue(1, nil)

	delCh, err := q.SubscribeTicketIssued(ctx)
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-delCh:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("channel 未在時限內關閉")
	}
	assert.NoError(t, q.Close())
}

func TestNew_SelectsDriver(t *testing.T) {
	ctx := context.Background()

	q, err := queue.New(ctx, config.QueueConfig{Driver: "memory", BufferSize: 5}, nil)
	require.NoError(t, err)
	assert.IsType(t, &queue.MemoryTicketQueue{}, q)

	_, err = queue.New(ctx, config.QueueConfig{Driver: "redis"}, nil)
	assert.Error(t, err)

	_, err = queue.New(ctx, config.QueueConfig{Driver: "kafka"}, nil)
	assert.EqualError(t, err, `unknown queue driver "kafka"`)
}

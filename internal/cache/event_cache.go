package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"fest-ticketing/internal/model"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned when the listing is not cached.
var ErrCacheMiss = errors.New("cache miss")

type EventCache interface {
	// 讀取：公開活動列表，並回傳當下的 generation；miss 時 generation 仍有效
	GetList(ctx context.Context) ([]*model.Event, int64, error)
	// 寫入：只有 generation 仍等於讀取時的值才寫入，帶 TTL
	SetList(ctx context.Context, generation int64, events []*model.Event) error
	// 失效：任何活動異動 commit 後呼叫，generation +1
	Invalidate(ctx context.Context) error
}

type RedisEventCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisEventCache(client *redis.Client, prefix string, ttl time.Duration) EventCache {
	return &RedisEventCache{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (c *RedisEventCache) listKey() string {
	return fmt.Sprintf("%s:events:list", c.prefix)
}

func (c *RedisEventCache) generationKey() string {
	return fmt.Sprintf("%s:events:gen", c.prefix)
}

func (c *RedisEventCache) GetList(ctx context.Context) ([]*model.Event, int64, error) {
	vals, err := c.client.MGet(ctx, c.listKey(), c.generationKey()).Result()
	if err != nil {
		return nil, 0, err
	}

	generation, err := parseGeneration(vals[1])
	if err != nil {
		return nil, 0, err
	}
	raw, ok := vals[0].(string)
	if !ok {
		return nil, generation, ErrCacheMiss
	}

	var events []*model.Event
	if err := json.Unmarshal([]byte(raw), &events); err != nil {
		// 格式損壞就當作 miss，下次寫入會覆蓋
		return nil, generation, ErrCacheMiss
	}
	return events, generation, nil
}

func parseGeneration(v interface{}) (int64, error) {
	if v == nil {
		return 0, nil
	}
	s, ok := v.(string)
	if !ok {
		return 0, fmt.Errorf("unexpected generation type %T", v)
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse generation %q: %w", s, err)
	}
	return n, nil
}

// 條件寫入 (使用Lua腳本確保原子性)
//  1. generation 與讀取 DB 前相同才寫入
//  2. 不同代表期間有 Invalidate，手上的資料可能過期，放棄寫入
var setIfGenerationScript = redis.NewScript(`
	local list_key = KEYS[1]
	local gen_key = KEYS[2]
	local expected = ARGV[1]
	local payload = ARGV[2]
	local ttl_ms = tonumber(ARGV[3])

	local current = redis.call('GET', gen_key)
	if not current then
		current = '0'
	end
	if current ~= expected then
		return 0
	end

	redis.call('SET', list_key, payload, 'PX', ttl_ms)
	return 1
`)

func (c *RedisEventCache) SetList(ctx context.Context, generation int64, events []*model.Event) error {
	raw, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("encode events: %w", err)
	}
	return setIfGenerationScript.Run(ctx, c.client,
		[]string{c.listKey(), c.generationKey()},
		strconv.FormatInt(generation, 10), raw, c.ttl.Milliseconds(),
	).Err()
}

func (c *RedisEventCache) Invalidate(ctx context.Context) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, c.generationKey())
		pipe.Del(ctx, c.listKey())
		return nil
	})
	return err
}

// NoopEventCache is used when caching is disabled.
type NoopEventCache struct{}

func (NoopEventCache) GetList(context.Context) ([]*model.Event, int64, error) {
	return nil, 0, ErrCacheMiss
}
func (NoopEventCache) SetList(context.Context, int64, []*model.Event) error { return nil }
func (NoopEventCache) Invalidate(context.Context) error                     { return nil }

package redis

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/herb-sales-ledger/pkg/config"
	"github.com/angelmondragon/herb-sales-ledger/pkg/logger"
)

func TestNewAgainstMiniredis(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	client, err := New(ctx, config.RedisConfig{Address: mr.Addr(), PoolSize: 2, KeyPrefix: "ledger"}, logger.Nop())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	if err := client.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}

	key := client.IdempotencyKey("sales:create", "abc")
	ok, err := client.SetNX(ctx, key, "pending", time.Minute)
	if err != nil || !ok {
		t.Fatalf("first SetNX ok=%v err=%v", ok, err)
	}
	ok, err = client.SetNX(ctx, key, "pending", time.Minute)
	if err != nil || ok {
		t.Fatalf("second SetNX should lose, ok=%v err=%v", ok, err)
	}
	if ttl := mr.TTL(key); ttl != time.Minute {
		t.Fatalf("expected ttl of one minute, got %s", ttl)
	}

	if err := client.Set(ctx, key, "done", time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := client.Get(ctx, key)
	if err != nil || got != "done" {
		t.Fatalf("get got=%q err=%v", got, err)
	}

	if err := client.Del(ctx, key); err != nil {
		t.Fatalf("del: %v", err)
	}
	if _, err := client.Get(ctx, key); !errors.Is(err, ErrNil) {
		t.Fatalf("expected ErrNil after delete, got %v", err)
	}
}

func TestNewFailsWhenUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	if _, err := New(context.Background(), config.RedisConfig{Address: addr, DialTimeout: 100 * time.Millisecond}, nil); err == nil {
		t.Fatalf("expected ping failure")
	}
}

func TestOptionsFromConfig(t *testing.T) {
	if _, err := optionsFromConfig(config.RedisConfig{}); err == nil {
		t.Fatalf("expected error without url or address")
	}

	opts, err := optionsFromConfig(config.RedisConfig{
		URL:         "redis://:secret@cache:6380/3",
		PoolSize:    7,
		DialTimeout: time.Second,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.Addr != "cache:6380" || opts.DB != 3 || opts.Password != "secret" {
		t.Fatalf("url not honored: %+v", opts)
	}
	if opts.PoolSize != 7 || opts.DialTimeout != time.Second {
		t.Fatalf("pool settings not applied: %+v", opts)
	}

	opts, err = optionsFromConfig(config.RedisConfig{Address: "localhost:6379", DB: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.Addr != "localhost:6379" || opts.DB != 2 {
		t.Fatalf("address not honored: %+v", opts)
	}
}

func TestUninitializedClient(t *testing.T) {
	client := &Client{}
	ctx := context.Background()
	if err := client.Ping(ctx); err == nil {
		t.Fatalf("expected ping error")
	}
	if _, err := client.SetNX(ctx, "k", "v", 0); err == nil {
		t.Fatalf("expected SetNX error")
	}
	if err := client.Close(); err != nil {
		t.Fatalf("close on empty client should be a no-op, got %v", err)
	}
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	if got := client.IdempotencyKey("scope", "id"); got != "ledger:idempotency:scope:id" {
		t.Fatalf("unexpected idempotency key %s", got)
	}
	if got := client.IdempotencyKey("scope", " "); got != "ledger:idempotency:scope" {
		t.Fatalf("empty parts should be skipped, got %s", got)
	}
	if got := client.key(); got != "ledger" {
		t.Fatalf("unexpected bare key %s", got)
	}

	shop := newClient(newMockCmdable(), ":shop-2:")
	if got := shop.IdempotencyKey("POST|/api/v1/sales", "k1"); got != "shop-2:idempotency:POST|/api/v1/sales:k1" {
		t.Fatalf("custom namespace not applied, got %s", got)
	}
}

func TestSetNXWithMock(t *testing.T) {
	ctx := context.Background()
	client := newClient(newMockCmdable(), "")

	ok, err := client.SetNX(ctx, "k", 1, time.Second)
	if err != nil || !ok {
		t.Fatalf("first SetNX ok=%v err=%v", ok, err)
	}
	ok, _ = client.SetNX(ctx, "k", 2, time.Second)
	if ok {
		t.Fatalf("second SetNX should not overwrite")
	}
	if got, _ := client.Get(ctx, "k"); got != "1" {
		t.Fatalf("expected original value, got %q", got)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("close without a connection should be a no-op, got %v", err)
	}
}

type mockCmdable struct {
	data map[string]string
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{data: make(map[string]string)}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	m.data[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd {
	if _, exists := m.data[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

package worker

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// memCola is an in-memory Cola with Redis list semantics.
type memCola struct {
	mu     sync.Mutex
	listas map[string][]string
	claves map[string]bool
}

var _ Cola = (*memCola)(nil)

func newMemCola() *memCola {
	return &memCola{listas: map[string][]string{}, claves: map[string]bool{}}
}

func (m *memCola) LPush(_ context.Context, key string, values ...interface{}) *redis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range values {
		var s string
		switch x := v.(type) {
		case []byte:
			s = string(x)
		case string:
			s = x
		}
		m.listas[key] = append([]string{s}, m.listas[key]...)
	}
	return redis.NewIntResult(int64(len(m.listas[key])), nil)
}

func (m *memCola) BRPop(_ context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd {
	if v, ok := m.pop(keys); ok {
		return redis.NewStringSliceResult(v, nil)
	}
	// Emulate the blocking wait briefly so idle workers do not spin.
	time.Sleep(min(timeout, 5*time.Millisecond))
	return redis.NewStringSliceResult(nil, redis.Nil)
}

func (m *memCola) pop(keys []string) ([]string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		l := m.listas[k]
		if len(l) == 0 {
			continue
		}
		v := l[len(l)-1]
		m.listas[k] = l[:len(l)-1]
		return []string{k, v}, true
	}
	return nil, false
}

func (m *memCola) LLen(_ context.Context, key string) *redis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	return redis.NewIntResult(int64(len(m.listas[key])), nil)
}

func (m *memCola) SetNX(_ context.Context, key string, _ interface{}, _ time.Duration) *redis.BoolCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.claves[key] {
		return redis.NewBoolResult(false, nil)
	}
	m.claves[key] = true
	return redis.NewBoolResult(true, nil)
}

func (m *memCola) Del(_ context.Context, keys ...string) *redis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, k := range keys {
		if m.claves[k] {
			delete(m.claves, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (m *memCola) lista(key string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.listas[key]...)
}

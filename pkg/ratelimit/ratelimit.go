// Package ratelimit 固定窗口限流：每个 key 在一个窗口内最多放行 Limit 次。
// 窗口从该 key 的第一次请求开始计时，到期后计数清零。
package ratelimit

import (
	"context"
	"sync"
	"time"

	"uctenky/backend/pkg/redis"
)

// Limiter 限流器接口
type Limiter interface {
	// Allow 记录一次请求并返回是否放行
	Allow(ctx context.Context, key string) (bool, error)
}

// Rule 限流规则
type Rule struct {
	Limit  int
	Window time.Duration
}

// ── 内存实现 ──

type bucket struct {
	count   int
	resetAt time.Time
}

// Memory 单进程内存限流器，后台协程定期清理过期窗口
type Memory struct {
	rule    Rule
	now     func() time.Time
	mu      sync.Mutex
	buckets map[string]*bucket

	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// defaultCleanup 窗口长度也无效时的清理间隔
const defaultCleanup = time.Minute

// NewMemory 创建内存限流器。cleanup 为清理间隔，<=0 时取窗口长度。
func NewMemory(rule Rule, cleanup time.Duration) *Memory {
	return newMemory(rule, cleanup, time.Now)
}

func newMemory(rule Rule, cleanup time.Duration, now func() time.Time) *Memory {
	if cleanup <= 0 {
		cleanup = rule.Window
	}
	if cleanup <= 0 {
		cleanup = defaultCleanup
	}
	m := &Memory{
		rule:    rule,
		now:     now,
		buckets: make(map[string]*bucket),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go m.janitor(cleanup)
	return m
}

// Allow 实现 Limiter
func (m *Memory) Allow(_ context.Context, key string) (bool, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.buckets[key]
	if !ok || !now.Before(b.resetAt) {
		b = &bucket{resetAt: now.Add(m.rule.Window)}
		m.buckets[key] = b
	}
	if b.count >= m.rule.Limit {
		return false, nil
	}
	b.count++
	return true, nil
}

// Len 当前跟踪的 key 数量
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.buckets)
}

// Close 停止清理协程，可重复调用
func (m *Memory) Close() {
	m.once.Do(func() {
		close(m.stop)
		<-m.done
	})
}

func (m *Memory) janitor(interval time.Duration) {
	defer close(m.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

func (m *Memory) sweep() {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, b := range m.buckets {
		if !now.Before(b.resetAt) {
			delete(m.buckets, k)
		}
	}
}

// ── Redis 实现 ──

// Redis 基于 Redis INCR 的分布式固定窗口限流器
type Redis struct {
	rule   Rule
	client *redis.Client
	prefix string
}

// NewRedis 创建 Redis 限流器，prefix 用于区分不同规则
func NewRedis(client *redis.Client, prefix string, rule Rule) *Redis {
	return &Redis{rule: rule, client: client, prefix: prefix}
}

// Allow 实现 Limiter
func (r *Redis) Allow(ctx context.Context, key string) (bool, error) {
	n, _, err := r.client.IncrWindow(ctx, r.prefix+":"+key, r.rule.Window)
	if err != nil {
		return false, err
	}
	return n <= int64(r.rule.Limit), nil
}

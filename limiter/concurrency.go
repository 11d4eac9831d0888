package limiter

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/semaphore"
)

// ErrConcurrencyLimit 并发上限已触发。
var ErrConcurrencyLimit = errors.New("concurrency limit exceeded")

// SemaphoreLimiter 限制同时执行的重计算请求数（批量对比、大网格）。
type SemaphoreLimiter struct {
	sem         *semaphore.Weighted
	waitTimeout time.Duration
}

// NewSemaphoreLimiter max<=0 表示不限制；waitTimeout<=0 表示只尝试一次，不等待。
func NewSemaphoreLimiter(max int, waitTimeout time.Duration) *SemaphoreLimiter {
	if max <= 0 {
		return &SemaphoreLimiter{}
	}
	return &SemaphoreLimiter{sem: semaphore.NewWeighted(int64(max)), waitTimeout: waitTimeout}
}

// Acquire 获取一个令牌，超时或 ctx 取消时返回 ErrConcurrencyLimit。
func (l *SemaphoreLimiter) Acquire(ctx context.Context) error {
	if l == nil || l.sem == nil {
		return nil
	}
	if l.waitTimeout <= 0 {
		if l.sem.TryAcquire(1) {
			return nil
		}
		return ErrConcurrencyLimit
	}

	ctx, cancel := context.WithTimeout(ctx, l.waitTimeout)
	defer cancel()
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return ErrConcurrencyLimit
	}
	return nil
}

// Release 释放令牌，必须与成功的 Acquire 配对。
func (l *SemaphoreLimiter) Release() {
	if l == nil || l.sem == nil {
		return
	}
	l.sem.Release(1)
}

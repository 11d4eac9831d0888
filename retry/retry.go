// Package retry 指数退避重试，用于启动阶段连接外部依赖。
package retry

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"
)

// Policy 退避策略。MaxRetries 为首次调用之后的重试次数，<=0 时只调用一次。
type Policy struct {
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
	Jitter         float64 // 相对抖动比例，0 表示不抖动
	MaxRetries     int
}

// DefaultPolicy 三次重试，100ms 起步，封顶 2s。
func DefaultPolicy() Policy {
	return Policy{
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     2 * time.Second,
		Multiplier:     2,
		Jitter:         0.1,
		MaxRetries:     3,
	}
}

// next 计算下一次等待时长。
func (p Policy) next(cur time.Duration) time.Duration {
	mult := p.Multiplier
	if mult < 1 {
		mult = 1
	}
	d := float64(cur) * mult
	if p.Jitter > 0 {
		d += (rand.Float64()*2 - 1) * p.Jitter * d
	}
	if p.MaxBackoff > 0 {
		d = min(d, float64(p.MaxBackoff))
	}
	return time.Duration(d)
}

// Do 执行 fn 直到成功、重试次数用尽或 ctx 结束。
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	return DoIf(ctx, p, fn, func(error) bool { return true })
}

// DoIf 只在 retryable 返回 true 时重试，其余错误立即返回。
func DoIf(ctx context.Context, p Policy, fn func(ctx context.Context) error, retryable func(error) bool) error {
	wait := p.InitialBackoff
	var err error
	for attempt := 0; ; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if attempt >= p.MaxRetries || !retryable(err) {
			break
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("retry cancelled after %d attempts: %w", attempt+1, ctx.Err())
		case <-timer.C:
		}
		wait = p.next(wait)
	}
	if p.MaxRetries <= 0 {
		return err
	}
	return fmt.Errorf("retry failed after %d attempts: %w", p.MaxRetries+1, err)
}

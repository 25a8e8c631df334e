// Package retry 把任意可失败的远端调用包进有界指数退避重试。
//
// 分类规则（与上游音乐 API 的失败形态对齐）：
//   - 连接/读取超时：总是可重试
//   - DNS 解析失败：从不重试
//   - 上游 HTTP 状态 ∈ {429, 500, 502, 503}：可重试
//   - 其余错误：不可重试，立即向外返回
//   - 取消信号：立即向外传播，不计入重试
package retry

import (
	"context"
	"errors"
	"net"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/tunelab/feedkit/core"
)

// 默认参数：首次失败后最多再试 3 次，首个间隔 1s，逐次翻倍。
const (
	DefaultMaxRetries     = 3
	DefaultInitialDelayMs = 1000
)

// Policy 是重试策略。零值不可用，使用 NewPolicy 或显式填充字段。
type Policy struct {
	MaxRetries   int           // 首次尝试之后的追加尝试次数
	InitialDelay time.Duration // 首个退避间隔，之后每次 ×2
}

// NewPolicy 返回默认策略。
func NewPolicy() Policy {
	return Policy{
		MaxRetries:   DefaultMaxRetries,
		InitialDelay: DefaultInitialDelayMs * time.Millisecond,
	}
}

// Retryable 判断错误是否值得重试。
func Retryable(err error) bool {
	if err == nil || core.IsCancellation(err) {
		return false
	}

	// DNS 解析失败：换多少次也解析不出来
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) || core.IsUnresolvedHost(err) {
		return false
	}

	// 超时类：网络层超时或领域层 TIMEOUT 码
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, os.ErrDeadlineExceeded) || core.IsTimeout(err) {
		return true
	}

	switch core.UpstreamStatus(err) {
	case 429, 500, 502, 503:
		return true
	}
	return false
}

// Do 执行 op 并按策略重试，返回最后一次的结果。
// 退避等待经由 backoff 的定时器挂起，不阻塞其他并发操作；
// ctx 取消时等待立即中断并返回取消错误。
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = p.InitialDelay << 6
	b.MaxElapsedTime = 0 // 由 MaxRetries 限界，而非墙钟

	wrapped := backoff.WithContext(
		backoff.WithMaxRetries(b, uint64(p.MaxRetries)),
		ctx,
	)

	return backoff.RetryWithData(func() (T, error) {
		v, err := op(ctx)
		if err == nil {
			return v, nil
		}
		if core.IsCancellation(err) {
			// 取消经 Permanent 直接透出，绝不转成重试或降级
			return v, backoff.Permanent(err)
		}
		if !Retryable(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}, wrapped)
}

// Execute 是 Do 的无返回值便捷形态。
func (p Policy) Execute(ctx context.Context, op func(ctx context.Context) error) error {
	_, err := Do(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

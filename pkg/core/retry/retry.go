package retry

import (
	"context"
	"log"
	"time"
)

// Policy 指数退避重试策略（对外导出）
// 第n次重试前等待 BaseDelay*2^n，不超过MaxDelay
type Policy struct {
	MaxAttempts int              // 总尝试次数（含首次），<=1表示不重试
	BaseDelay   time.Duration    // 首次重试前的等待
	MaxDelay    time.Duration    // 单次等待上限，0表示不限制
	Retryable   func(error) bool // 为nil时所有错误都重试
}

// NoRetry 只执行一次
var NoRetry = Policy{MaxAttempts: 1}

// Delay 返回第retry次重试（从0开始）前的等待时间
func (p Policy) Delay(retry int) time.Duration {
	if p.BaseDelay <= 0 {
		return 0
	}
	d := p.BaseDelay
	for i := 0; i < retry; i++ {
		d *= 2
		if p.MaxDelay > 0 && d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// Do 按策略执行fn，返回实际尝试次数和最后一次的错误（对外导出）
// attempt从0开始；ctx取消时立即返回ctx的错误
func (p Policy) Do(ctx context.Context, name string, fn func(ctx context.Context, attempt int) error) (int, error) {
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		err = fn(ctx, attempt)
		if err == nil {
			return attempt + 1, nil
		}
		if p.Retryable != nil && !p.Retryable(err) {
			return attempt + 1, err
		}
		if attempt == maxAttempts-1 {
			break
		}

		delay := p.Delay(attempt)
		log.Printf("🔄 [重试] %s 第 %d/%d 次执行失败: %v, %v 后重试", name, attempt+1, maxAttempts, err, delay)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return attempt + 1, ctx.Err()
		case <-timer.C:
		}
	}
	log.Printf("❌ [重试] %s 执行失败，达到最大重试次数 %d", name, maxAttempts)
	return maxAttempts, err
}

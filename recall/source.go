package recall

import (
	"context"
	"math"

	"github.com/tunelab/feedkit/core"
)

// Source 表示一个可复用的召回源（熟悉池/深翻/种子推荐/地区热门）。
// 你可以把它理解为"可并发 fan-out 的策略单元"。
type Source interface {
	Name() string
	Recall(ctx context.Context, fc *core.FeedContext) ([]*core.Candidate, error)
}

// NormalizedViews 把播放量折算到 [0,1]：log10 尺度，10 亿次观看 ≈ 1.0。
func NormalizedViews(views int64) float64 {
	if views <= 0 {
		return 0
	}
	v := math.Log10(float64(views)+1) / 9
	if v > 1 {
		return 1
	}
	return v
}

// RankDecay 返回池内第 rank 位（从 0 起）的衰减分：1 - rank/poolSize，
// 下限钳到 floor。熟悉池用 floor=0.2，深翻的艺人位次用 floor=0.4。
func RankDecay(rank, poolSize int, floor float64) float64 {
	if poolSize <= 0 {
		return floor
	}
	s := 1 - float64(rank)/float64(poolSize)
	if s < floor {
		return floor
	}
	return s
}

package filter

import (
	"context"

	"github.com/tunelab/feedkit/core"
)

// Filter 是过滤器的抽象接口，用于判断一个候选是否应该被过滤掉。
// 返回 true 表示应该过滤（移除），false 表示保留。
type Filter interface {
	// Name 返回过滤器名称（也用作 filtered 标签的来源）
	Name() string

	// ShouldFilter 判断候选是否应该被过滤
	ShouldFilter(ctx context.Context, fc *core.FeedContext, item *core.Candidate) (bool, error)
}

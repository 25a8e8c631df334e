package filter

import (
	"context"

	"github.com/tunelab/feedkit/core"
	"github.com/tunelab/feedkit/pkg/dsl"
)

// RuleFilter 按 CEL 表达式过滤候选：表达式命中即移除。
// 用于运营侧的临时调控（如某地区下线某来源），规则写在配置里，
// 不用改代码发版。
//
// 示例：
//   - `candidate.source == "trending_genre" && song.language == ""`
//   - `label.recall_source.contains("seed") && candidate.source_score < 0.1`
type RuleFilter struct {
	rule *dsl.Rule
}

// NewRuleFilter 编译表达式；非法表达式直接报错，宁可启动失败也不带病运行。
func NewRuleFilter(expr string) (*RuleFilter, error) {
	rule, err := dsl.Compile(expr)
	if err != nil {
		return nil, err
	}
	return &RuleFilter{rule: rule}, nil
}

func (f *RuleFilter) Name() string {
	return "filter.rule(" + f.rule.Expr() + ")"
}

func (f *RuleFilter) ShouldFilter(
	_ context.Context,
	_ *core.FeedContext,
	item *core.Candidate,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	return f.rule.Match(item)
}

var _ Filter = (*RuleFilter)(nil)

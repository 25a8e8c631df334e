package pipeline

import (
	"context"

	"github.com/tunelab/feedkit/core"
)

// Pipeline 是 feedkit 的核心抽象：把一次推荐构建拆成可组合的 Node 链
// （Recall → Filter → Rank → ReRank）。
type Pipeline struct {
	Nodes []Node
}

func (p *Pipeline) Run(
	ctx context.Context,
	fc *core.FeedContext,
	items []*core.Candidate,
) ([]*core.Candidate, error) {
	cur := items
	for _, node := range p.Nodes {
		next, err := node.Process(ctx, fc, cur)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

package rerank

import (
	"context"

	"github.com/tunelab/feedkit/core"
	"github.com/tunelab/feedkit/pipeline"
)

// TopNNode 是 Top-N 截断节点，用于在排序/重排之后限制返回数量。
//
// 示例：
//
//	pipeline := &pipeline.Pipeline{
//	    Nodes: []pipeline.Node{
//	        rank.NewTasteNode(genres),           // 排序
//	        &rerank.ArtistDiversity{Cap: 2},     // 艺人多样性
//	        &rerank.TopNNode{N: 20},             // 截取 Top 20
//	    },
//	}
type TopNNode struct {
	// N 要保留的候选数量（Top N）
	// 如果 N <= 0 或候选不足 N 个，不截断
	N int
}

func (n *TopNNode) Name() string {
	return "rerank.topn"
}

func (n *TopNNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *TopNNode) Process(
	_ context.Context,
	_ *core.FeedContext,
	items []*core.Candidate,
) ([]*core.Candidate, error) {
	if n.N <= 0 || len(items) <= n.N {
		return items, nil
	}
	return items[:n.N], nil
}

var _ pipeline.Node = (*TopNNode)(nil)

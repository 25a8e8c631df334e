package rerank

import (
	"context"

	"github.com/tunelab/feedkit/core"
	"github.com/tunelab/feedkit/pipeline"
)

// DefaultArtistCap 同一艺人在结果中的默认上限。
const DefaultArtistCap = 2

// ArtistDiversity 是艺人多样性重排节点：限制同一艺人（规范化名）
// 在结果中的出现次数，超额的候选跳过而非重排，保持原有分数次序。
//
// 用在排序之后、交织/截断之前，防止重度单推用户的榜单被一位艺人刷屏。
type ArtistDiversity struct {
	// Cap 每位艺人保留的上限；<= 0 时用 DefaultArtistCap。
	Cap int
}

func (n *ArtistDiversity) Name() string {
	return "rerank.artist_diversity"
}

func (n *ArtistDiversity) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *ArtistDiversity) Process(
	_ context.Context,
	_ *core.FeedContext,
	items []*core.Candidate,
) ([]*core.Candidate, error) {
	if len(items) == 0 {
		return items, nil
	}

	cap := n.Cap
	if cap <= 0 {
		cap = DefaultArtistCap
	}

	seen := make(map[string]int, 32)
	out := make([]*core.Candidate, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		key := it.ArtistKey()
		if key == "" {
			out = append(out, it)
			continue
		}
		if seen[key] >= cap {
			continue
		}
		seen[key]++
		out = append(out, it)
	}
	return out, nil
}

var _ pipeline.Node = (*ArtistDiversity)(nil)

package recall

import (
	"context"

	"github.com/tunelab/feedkit/core"
)

// 熟悉池的默认口径。
const (
	FamiliarPoolSize   = 50
	FamiliarScoreFloor = 0.2
)

// ListenAgainRanker 产出按 Listen-Again 分数降序的歌曲列表。
// rank.ListenAgainEngine 实现此契约；召回层只依赖这个窄接口。
type ListenAgainRanker interface {
	Rank(ctx context.Context, fc *core.FeedContext, limit int) ([]core.Song, error)
}

// Familiar 是熟悉池召回源：取 Listen-Again 引擎的 Top-N，
// 按位次给出 [0.2, 1.0] 的池内衰减分。
type Familiar struct {
	Ranker   ListenAgainRanker
	PoolSize int // 默认 FamiliarPoolSize
}

func (r *Familiar) Name() string { return "recall.familiar" }

func (r *Familiar) Recall(ctx context.Context, fc *core.FeedContext) ([]*core.Candidate, error) {
	if r.Ranker == nil {
		return nil, nil
	}
	poolSize := r.PoolSize
	if poolSize <= 0 {
		poolSize = FamiliarPoolSize
	}

	songs, err := r.Ranker.Rank(ctx, fc, poolSize)
	if err != nil {
		return nil, err
	}

	out := make([]*core.Candidate, 0, len(songs))
	for i, song := range songs {
		score := RankDecay(i, poolSize, FamiliarScoreFloor)
		out = append(out, core.NewCandidate(song, core.SourceFamiliar, score))
	}
	return out, nil
}

var _ Source = (*Familiar)(nil)

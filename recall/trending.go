package recall

import (
	"context"
	"encoding/json"

	"github.com/tunelab/feedkit/core"
	"github.com/tunelab/feedkit/retry"
)

// TrendingBaseScore 是热门池的统一基准分：热门本身不带个性化信号，
// 给一个中等分让排序阶段靠口味匹配拉开差距。
const TrendingBaseScore = 0.6

// TrendingLimit 是热门召回的默认条数。
const TrendingLimit = 20

// Trending 是发现池召回源之一：地区热门。
// 远端失败时从 Store 的预计算榜单（"chart:<国家码>" 有序集合，
// 成员为 JSON 编码的歌曲）兜底。
type Trending struct {
	Remote core.RemoteMusicSource
	Chart  core.KeyValueStore // 可选兜底
	Retry  retry.Policy
	Limit  int // 默认 TrendingLimit
}

func (r *Trending) Name() string { return "recall.trending" }

func (r *Trending) Recall(ctx context.Context, fc *core.FeedContext) ([]*core.Candidate, error) {
	limit := r.Limit
	if limit <= 0 {
		limit = TrendingLimit
	}
	region := ""
	if fc != nil {
		region = fc.Region.CountryCode
	}

	var songs []core.Song
	if r.Remote != nil {
		var err error
		songs, err = retry.Do(ctx, r.Retry, func(ctx context.Context) ([]core.Song, error) {
			return r.Remote.TrendingSongs(ctx, region, limit)
		})
		if err != nil {
			if core.IsCancellation(err) {
				return nil, err
			}
			songs = nil
		}
	}

	if len(songs) == 0 && r.Chart != nil && region != "" {
		songs = r.chartFallback(ctx, region, limit)
	}

	out := make([]*core.Candidate, 0, len(songs))
	for _, song := range songs {
		out = append(out, core.NewCandidate(song, core.SourceTrendingGenre, TrendingBaseScore))
	}
	return out, nil
}

func (r *Trending) chartFallback(ctx context.Context, region string, limit int) []core.Song {
	members, err := r.Chart.ZRange(ctx, "chart:"+region, 0, int64(limit-1))
	if err != nil {
		return nil
	}
	songs := make([]core.Song, 0, len(members))
	for _, m := range members {
		var s core.Song
		if json.Unmarshal([]byte(m), &s) != nil || s.ID == "" {
			continue
		}
		songs = append(songs, s)
	}
	return songs
}

var _ Source = (*Trending)(nil)

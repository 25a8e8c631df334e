package recall

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/tunelab/feedkit/core"
	"github.com/tunelab/feedkit/retry"
)

// 深翻召回的默认口径。
const (
	DeepCutsTopArtists  = 3
	DeepCutsPerArtist   = 10
	deepCutsArtistFloor = 0.4
)

// DeepCuts 是发现池召回源之一：常听艺人的未播深翻曲目。
// 对口味画像的前几位艺人做定向曲目拉取，过滤已播后按
// 艺人位次衰减 × 归一化播放量打分。
type DeepCuts struct {
	Remote     core.RemoteMusicSource
	Retry      retry.Policy
	TopArtists int // 默认 DeepCutsTopArtists
	PerArtist  int // 默认 DeepCutsPerArtist
}

func (r *DeepCuts) Name() string { return "recall.deep_cuts" }

func (r *DeepCuts) Recall(ctx context.Context, fc *core.FeedContext) ([]*core.Candidate, error) {
	if r.Remote == nil || fc == nil || fc.Taste == nil || len(fc.Taste.TopArtists) == 0 {
		return nil, nil
	}

	topN := r.TopArtists
	if topN <= 0 {
		topN = DeepCutsTopArtists
	}
	perArtist := r.PerArtist
	if perArtist <= 0 {
		perArtist = DeepCutsPerArtist
	}
	artists := fc.Taste.TopArtists
	if len(artists) > topN {
		artists = artists[:topN]
	}

	results := make([][]*core.Candidate, len(artists))
	eg, gctx := errgroup.WithContext(ctx)

	for i, a := range artists {
		i, a := i, a
		artistRank := RankDecay(i, topN, deepCutsArtistFloor)
		eg.Go(func() error {
			songs, err := retry.Do(gctx, r.Retry, func(ctx context.Context) ([]core.Song, error) {
				return r.Remote.ArtistSongs(ctx, a.Artist, "", perArtist*2)
			})
			if err != nil {
				// 单个艺人失败不影响其余艺人；取消走 errgroup 终止
				if core.IsCancellation(err) {
					return err
				}
				return nil
			}

			items := make([]*core.Candidate, 0, perArtist)
			for _, song := range songs {
				if fc.Played(song.ID) {
					continue // 只要未播的深翻
				}
				score := artistRank * NormalizedViews(song.ViewCount)
				items = append(items, core.NewCandidate(song, core.SourceSameArtistUnplayed, score))
				if len(items) >= perArtist {
					break
				}
			}
			results[i] = items
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	out := make([]*core.Candidate, 0)
	for _, items := range results {
		out = append(out, items...)
	}
	return out, nil
}

var _ Source = (*DeepCuts)(nil)

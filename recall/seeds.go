package recall

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/tunelab/feedkit/core"
	"github.com/tunelab/feedkit/retry"
)

// 种子推荐召回的默认口径。
const (
	SeedRecsMaxSeeds = 2
	SeedRecsPerSeed  = 10
)

// SeedRecs 是发现池召回源之一：以最近播放（或沉寂的旧爱）为种子，
// 拉取上游的相似推荐，按归一化播放量打分。
type SeedRecs struct {
	Remote   core.RemoteMusicSource
	History  core.PlaybackHistoryStore
	Retry    retry.Policy
	MaxSeeds int // 默认 SeedRecsMaxSeeds
	PerSeed  int // 默认 SeedRecsPerSeed
}

func (r *SeedRecs) Name() string { return "recall.seed_recs" }

func (r *SeedRecs) Recall(ctx context.Context, fc *core.FeedContext) ([]*core.Candidate, error) {
	if r.Remote == nil || r.History == nil {
		return nil, nil
	}

	maxSeeds := r.MaxSeeds
	if maxSeeds <= 0 {
		maxSeeds = SeedRecsMaxSeeds
	}
	perSeed := r.PerSeed
	if perSeed <= 0 {
		perSeed = SeedRecsPerSeed
	}

	seeds, err := r.History.RecentSongIDs(ctx, maxSeeds)
	if err != nil {
		return nil, err
	}
	if len(seeds) < maxSeeds {
		// 最近播放不足时补沉寂的旧爱，重新触达
		redisc, err := r.History.RediscoveryCandidates(ctx, maxSeeds-len(seeds))
		if err == nil {
			seeds = append(seeds, redisc...)
		}
	}
	if len(seeds) == 0 {
		return nil, nil
	}

	results := make([][]*core.Candidate, len(seeds))
	eg, gctx := errgroup.WithContext(ctx)

	for i, seedID := range seeds {
		i, seedID := i, seedID
		eg.Go(func() error {
			songs, err := retry.Do(gctx, r.Retry, func(ctx context.Context) ([]core.Song, error) {
				return r.Remote.SongRecommendations(ctx, seedID, perSeed)
			})
			if err != nil {
				if core.IsCancellation(err) {
					return err
				}
				return nil
			}

			items := make([]*core.Candidate, 0, len(songs))
			for _, song := range songs {
				items = append(items, core.NewCandidate(song, core.SourceSimilarArtist, NormalizedViews(song.ViewCount)))
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

var _ Source = (*SeedRecs)(nil)

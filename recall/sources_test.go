package recall

import (
	"context"
	"strconv"
	"sync"
	"testing"

	"github.com/tunelab/feedkit/core"
	"github.com/tunelab/feedkit/retry"
)

func fastRetry() retry.Policy {
	return retry.Policy{MaxRetries: 0, InitialDelay: 1}
}

// stubRanker 返回固定歌曲列表。
type stubRanker struct{ songs []core.Song }

func (s *stubRanker) Rank(_ context.Context, _ *core.FeedContext, limit int) ([]core.Song, error) {
	if len(s.songs) > limit {
		return s.songs[:limit], nil
	}
	return s.songs, nil
}

func TestFamiliarRankDecayScores(t *testing.T) {
	songs := make([]core.Song, 50)
	for i := range songs {
		songs[i] = core.Song{ID: "s-" + strconv.Itoa(i)}
	}
	r := &Familiar{Ranker: &stubRanker{songs: songs}}

	out, err := r.Recall(context.Background(), &core.FeedContext{})
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}
	if len(out) != 50 {
		t.Fatalf("len = %d, want 50", len(out))
	}
	if out[0].SourceScore != 1.0 {
		t.Fatalf("top score = %v, want 1.0", out[0].SourceScore)
	}
	if out[49].SourceScore != FamiliarScoreFloor {
		t.Fatalf("tail score = %v, want floor %v", out[49].SourceScore, FamiliarScoreFloor)
	}
	for _, c := range out {
		if c.Source != core.SourceFamiliar {
			t.Fatalf("source = %s, want familiar", c.Source)
		}
	}
}

// deepCutsRemote 按艺人返回固定曲目。
type deepCutsRemote struct {
	core.RemoteMusicSource
	songsByArtist map[string][]core.Song
}

func (r *deepCutsRemote) ArtistSongs(_ context.Context, name, _ string, _ int) ([]core.Song, error) {
	return r.songsByArtist[name], nil
}

func TestDeepCutsSkipsPlayed(t *testing.T) {
	remote := &deepCutsRemote{songsByArtist: map[string][]core.Song{
		"Arijit Singh": {
			{ID: "played", Artist: "Arijit Singh", ViewCount: 1000000},
			{ID: "unplayed", Artist: "Arijit Singh", ViewCount: 1000000},
		},
	}}
	fc := &core.FeedContext{
		Taste: &core.TasteProfile{
			TopArtists: []core.ArtistPlayCount{{Artist: "Arijit Singh", PlayCount: 30}},
		},
		PlayedIDs: map[string]struct{}{"played": {}},
	}

	r := &DeepCuts{Remote: remote, Retry: fastRetry()}
	out, err := r.Recall(context.Background(), fc)
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}
	if len(out) != 1 || out[0].Song.ID != "unplayed" {
		t.Fatalf("out = %+v, want only the unplayed song", out)
	}
	if out[0].Source != core.SourceSameArtistUnplayed {
		t.Fatalf("source = %s", out[0].Source)
	}
	// 首位艺人位次分 1.0，分数即归一化播放量
	if want := NormalizedViews(1000000); out[0].SourceScore != want {
		t.Fatalf("score = %v, want %v", out[0].SourceScore, want)
	}
}

func TestDeepCutsColdStart(t *testing.T) {
	r := &DeepCuts{Remote: &deepCutsRemote{}, Retry: fastRetry()}
	out, err := r.Recall(context.Background(), &core.FeedContext{Taste: &core.TasteProfile{}})
	if err != nil || out != nil {
		t.Fatalf("cold start = (%v, %v), want (nil, nil)", out, err)
	}
}

// seedHistory 提供最近播放与沉寂旧爱。
type seedHistory struct {
	core.PlaybackHistoryStore
	recent  []string
	rediscs []string
}

func (s *seedHistory) RecentSongIDs(_ context.Context, n int) ([]string, error) {
	if len(s.recent) > n {
		return s.recent[:n], nil
	}
	return s.recent, nil
}

func (s *seedHistory) RediscoveryCandidates(_ context.Context, n int) ([]string, error) {
	if len(s.rediscs) > n {
		return s.rediscs[:n], nil
	}
	return s.rediscs, nil
}

// seedRemote 记录被请求的种子（并发召回，需要加锁）。
type seedRemote struct {
	core.RemoteMusicSource
	mu    sync.Mutex
	asked []string
}

func (r *seedRemote) SongRecommendations(_ context.Context, seedID string, _ int) ([]core.Song, error) {
	r.mu.Lock()
	r.asked = append(r.asked, seedID)
	r.mu.Unlock()
	return []core.Song{{ID: "rec-" + seedID, ViewCount: 500000}}, nil
}

func TestSeedRecsTopsUpWithRediscovery(t *testing.T) {
	remote := &seedRemote{}
	r := &SeedRecs{
		Remote:  remote,
		History: &seedHistory{recent: []string{"recent-1"}, rediscs: []string{"old-fav"}},
		Retry:   fastRetry(),
	}

	out, err := r.Recall(context.Background(), &core.FeedContext{})
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("len = %d, want 2", len(out))
	}
	if len(remote.asked) != 2 {
		t.Fatalf("asked seeds = %v, want recent + rediscovery", remote.asked)
	}
	for _, c := range out {
		if c.Source != core.SourceSimilarArtist {
			t.Fatalf("source = %s", c.Source)
		}
	}
}

package feed

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tunelab/feedkit/core"
	"github.com/tunelab/feedkit/history"
)

var feedNow = time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)

// stubRemote 可配置的上游：每个方法返回固定列表并计数，
// 榜单方法可注入失败。
type stubRemote struct {
	mu          sync.Mutex
	calls       map[string]int
	trending    []core.Song
	releases    []core.Song
	results     []core.Song
	recs        []core.Song
	tracks      []core.Song
	trendingErr error
	releasesErr error
}

func (r *stubRemote) hit(name string) {
	r.mu.Lock()
	if r.calls == nil {
		r.calls = make(map[string]int)
	}
	r.calls[name]++
	r.mu.Unlock()
}

func (r *stubRemote) count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[name]
}

func (r *stubRemote) SearchSongs(context.Context, string, int) ([]core.Song, error) {
	r.hit("search")
	return r.results, nil
}

func (r *stubRemote) TrendingSongs(context.Context, string, int) ([]core.Song, error) {
	r.hit("trending")
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.trending, r.trendingErr
}

func (r *stubRemote) NewReleases(context.Context, string, int) ([]core.Song, error) {
	r.hit("releases")
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.releases, r.releasesErr
}

func (r *stubRemote) setTrendingErr(err error) {
	r.mu.Lock()
	r.trendingErr = err
	r.mu.Unlock()
}

func (r *stubRemote) setReleasesErr(err error) {
	r.mu.Lock()
	r.releasesErr = err
	r.mu.Unlock()
}

func (r *stubRemote) SongRecommendations(context.Context, string, int) ([]core.Song, error) {
	r.hit("recs")
	return r.recs, nil
}

func (r *stubRemote) ArtistProfile(context.Context, string, string) (*core.ArtistPage, error) {
	r.hit("profile")
	return nil, nil
}

func (r *stubRemote) ArtistSongs(context.Context, string, string, int) ([]core.Song, error) {
	r.hit("artist_songs")
	return r.tracks, nil
}

func (r *stubRemote) ArtistSection(context.Context, string, string, string) ([]core.Song, error) {
	r.hit("section")
	return nil, nil
}

// fixedRegion 固定返回一个地区，跳过解析链。
type fixedRegion struct{ code string }

func (p fixedRegion) Region(context.Context) core.Region {
	return core.Region{CountryCode: p.code}
}

// brokenHistory 让全量已播集合查询失败，用于触发个性化环节的降级。
type brokenHistory struct {
	*history.MemoryStore
}

func (h brokenHistory) AllPlayedSongIDs(context.Context) (map[string]struct{}, error) {
	return nil, errors.New("history db locked")
}

func newTestService(remote *stubRemote, hist core.PlaybackHistoryStore) *Service {
	return newTestServiceWithClock(remote, hist, func() time.Time { return feedNow })
}

func newTestServiceWithClock(remote *stubRemote, hist core.PlaybackHistoryStore, clock func() time.Time) *Service {
	return NewService(Config{
		Remote:  remote,
		History: hist,
		Region:  fixedRegion{code: "IN"},
		Logger:  zerolog.Nop(),
		Clock:   clock,
	})
}

// svcClock 可推进的假时钟，并发读安全。
type svcClock struct {
	mu  sync.Mutex
	now time.Time
}

func newSvcClock() *svcClock { return &svcClock{now: feedNow} }

func (c *svcClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *svcClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func chart(ids ...string) []core.Song {
	out := make([]core.Song, 0, len(ids))
	for i, id := range ids {
		out = append(out, core.Song{
			ID:        id,
			Title:     "title " + id,
			Artist:    "artist " + id,
			ViewCount: int64(1_000_000 * (len(ids) - i)),
		})
	}
	return out
}

func ids(songs []core.Song) map[string]struct{} {
	out := make(map[string]struct{}, len(songs))
	for _, s := range songs {
		out[s.ID] = struct{}{}
	}
	return out
}

func TestQuickPicksColdStart(t *testing.T) {
	remote := &stubRemote{trending: chart("t1", "t2", "t3", "t4", "t5")}
	svc := newTestService(remote, history.NewMemoryStore())
	ctx := context.Background()

	songs, err := svc.QuickPicks(ctx, 0)
	if err != nil {
		t.Fatalf("QuickPicks: %v", err)
	}
	if len(songs) == 0 || len(songs) > DefaultLimit {
		t.Fatalf("len = %d, want 1..%d", len(songs), DefaultLimit)
	}

	// 零历史时只有发现池可用，结果必须全部来自热门召回
	trendingIDs := ids(remote.trending)
	for _, s := range songs {
		if _, ok := trendingIDs[s.ID]; !ok {
			t.Fatalf("unexpected song %q on cold start", s.ID)
		}
	}
}

func TestQuickPicksCached(t *testing.T) {
	remote := &stubRemote{trending: chart("t1", "t2", "t3")}
	svc := newTestService(remote, history.NewMemoryStore())
	ctx := context.Background()

	first, err := svc.QuickPicks(ctx, 10)
	if err != nil {
		t.Fatalf("first QuickPicks: %v", err)
	}
	callsAfterFirst := remote.count("trending")

	second, err := svc.QuickPicks(ctx, 10)
	if err != nil {
		t.Fatalf("second QuickPicks: %v", err)
	}
	if remote.count("trending") != callsAfterFirst {
		t.Fatal("second call must come from cache, not remote")
	}
	if len(first) != len(second) {
		t.Fatalf("cached result differs: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Fatalf("cached order differs at %d: %q vs %q", i, first[i].ID, second[i].ID)
		}
	}
}

func TestQuickPicksFallsBackToTrending(t *testing.T) {
	remote := &stubRemote{trending: chart("t1", "t2", "t3")}
	svc := newTestService(remote, brokenHistory{history.NewMemoryStore()})
	ctx := context.Background()

	// 画像构建失败（非取消）→ Listen-Again 为空 → 生热门榜兜底
	songs, err := svc.QuickPicks(ctx, 10)
	if err != nil {
		t.Fatalf("QuickPicks: %v", err)
	}
	if len(songs) != 3 {
		t.Fatalf("len = %d, want raw trending 3", len(songs))
	}
	for i, want := range []string{"t1", "t2", "t3"} {
		if songs[i].ID != want {
			t.Fatalf("songs[%d] = %q, want %q", i, songs[i].ID, want)
		}
	}
}

func TestListenAgainEmptyHistory(t *testing.T) {
	svc := newTestService(&stubRemote{}, history.NewMemoryStore())

	songs, err := svc.ListenAgain(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListenAgain: %v", err)
	}
	if len(songs) != 0 {
		t.Fatalf("len = %d, want 0 for empty history", len(songs))
	}
}

func TestNewReleasesEmptyChart(t *testing.T) {
	svc := newTestService(&stubRemote{}, history.NewMemoryStore())

	songs, err := svc.NewReleases(context.Background(), 10)
	if err != nil {
		t.Fatalf("NewReleases: %v", err)
	}
	if songs == nil || len(songs) != 0 {
		t.Fatalf("songs = %#v, want empty non-nil slice", songs)
	}
}

func TestChartRawFallbackWhenPersonalizationFails(t *testing.T) {
	remote := &stubRemote{releases: chart("r1", "r2", "r3", "r4", "r5")}
	svc := newTestService(remote, brokenHistory{history.NewMemoryStore()})

	songs, err := svc.NewReleases(context.Background(), 2)
	if err != nil {
		t.Fatalf("NewReleases: %v", err)
	}
	// 个性化失败退回生榜，按上游顺序截断
	if len(songs) != 2 || songs[0].ID != "r1" || songs[1].ID != "r2" {
		t.Fatalf("songs = %v, want raw [r1 r2]", songs)
	}
}

func TestTrendingDropsPlayedSongs(t *testing.T) {
	remote := &stubRemote{trending: chart("t1", "t2", "t3", "t4")}
	hist := history.NewMemoryStore()
	hist.Record(core.PlaybackEvent{
		SongID:          "t2",
		Title:           "title t2",
		Artist:          "artist t2",
		PlayedAtMs:      feedNow.Add(-time.Hour).UnixMilli(),
		PlayDurationSec: 200,
		Completed:       true,
	})
	svc := newTestService(remote, hist)

	songs, err := svc.Trending(context.Background(), 10)
	if err != nil {
		t.Fatalf("Trending: %v", err)
	}
	for _, s := range songs {
		if s.ID == "t2" {
			t.Fatal("played song must not appear in personalized chart")
		}
	}
	if len(songs) != 3 {
		t.Fatalf("len = %d, want 3 unplayed songs", len(songs))
	}
}

func TestSearchValidatesQuery(t *testing.T) {
	svc := newTestService(&stubRemote{}, history.NewMemoryStore())

	if _, err := svc.Search(context.Background(), "", 10); !core.IsInvalidInput(err) {
		t.Fatalf("err = %v, want INVALID_INPUT", err)
	}
}

func TestSearchCacheKeyCanonicalized(t *testing.T) {
	remote := &stubRemote{results: chart("s1")}
	svc := newTestService(remote, history.NewMemoryStore())
	ctx := context.Background()

	svc.Search(ctx, "Tum  Hi Ho", 10)
	svc.Search(ctx, "tum hi ho", 10)
	if remote.count("search") != 1 {
		t.Fatalf("search calls = %d, want 1 (equivalent queries share cache)", remote.count("search"))
	}
}

func TestAlbumSongsValidatesAlbum(t *testing.T) {
	svc := newTestService(&stubRemote{}, history.NewMemoryStore())

	if _, err := svc.AlbumSongs(context.Background(), "", "artist", 10); !core.IsInvalidInput(err) {
		t.Fatalf("err = %v, want INVALID_INPUT", err)
	}
}

// flakyHistory 可切换的历史存储：fail 置位后全量已播集合查询失败。
type flakyHistory struct {
	*history.MemoryStore
	mu   sync.Mutex
	fail bool
}

func (h *flakyHistory) setFail(v bool) {
	h.mu.Lock()
	h.fail = v
	h.mu.Unlock()
}

func (h *flakyHistory) AllPlayedSongIDs(ctx context.Context) (map[string]struct{}, error) {
	h.mu.Lock()
	fail := h.fail
	h.mu.Unlock()
	if fail {
		return nil, errors.New("history db locked")
	}
	return h.MemoryStore.AllPlayedSongIDs(ctx)
}

func TestChartFreshHitSkipsRemote(t *testing.T) {
	remote := &stubRemote{releases: chart("r1", "r2", "r3")}
	svc := newTestService(remote, history.NewMemoryStore())
	ctx := context.Background()

	svc.NewReleases(ctx, 10)
	svc.NewReleases(ctx, 10)
	if remote.count("releases") != 1 {
		t.Fatalf("releases calls = %d, want 1 (second call from cache)", remote.count("releases"))
	}
}

func TestChartStaleFallbackOnRemoteFailure(t *testing.T) {
	clock := newSvcClock()
	remote := &stubRemote{releases: chart("r1", "r2", "r3")}
	svc := newTestServiceWithClock(remote, history.NewMemoryStore(), clock.Now)
	ctx := context.Background()

	first, err := svc.NewReleases(ctx, 10)
	if err != nil {
		t.Fatalf("first NewReleases: %v", err)
	}

	// 缓存过期 + 远端故障：容忍窗口内回放上一次结果
	clock.Advance(2 * time.Hour)
	remote.setReleasesErr(core.NewStatusError(core.ModuleRemote, 404))

	got, err := svc.NewReleases(ctx, 10)
	if err != nil {
		t.Fatalf("stale NewReleases: %v", err)
	}
	if len(got) != len(first) {
		t.Fatalf("stale len = %d, want %d", len(got), len(first))
	}
	for i := range got {
		if got[i].ID != first[i].ID {
			t.Fatalf("stale[%d] = %q, want %q", i, got[i].ID, first[i].ID)
		}
	}

	// 超过容忍窗口后失败透传
	clock.Advance(23 * time.Hour)
	if _, err := svc.NewReleases(ctx, 10); err == nil {
		t.Fatal("expected error beyond stale tolerance")
	}
}

func TestTrendingStaleFallbackOnRemoteFailure(t *testing.T) {
	clock := newSvcClock()
	remote := &stubRemote{trending: chart("t1", "t2")}
	svc := newTestServiceWithClock(remote, history.NewMemoryStore(), clock.Now)
	ctx := context.Background()

	if _, err := svc.Trending(ctx, 10); err != nil {
		t.Fatalf("first Trending: %v", err)
	}

	clock.Advance(90 * time.Minute)
	remote.setTrendingErr(core.NewStatusError(core.ModuleRemote, 404))

	got, err := svc.Trending(ctx, 10)
	if err != nil {
		t.Fatalf("stale Trending: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("stale len = %d, want 2", len(got))
	}
}

func TestQuickPicksServesStaleWhenFallbacksFail(t *testing.T) {
	clock := newSvcClock()
	remote := &stubRemote{trending: chart("t1", "t2", "t3")}
	hist := &flakyHistory{MemoryStore: history.NewMemoryStore()}
	svc := newTestServiceWithClock(remote, hist, clock.Now)
	ctx := context.Background()

	first, err := svc.QuickPicks(ctx, 10)
	if err != nil {
		t.Fatalf("first QuickPicks: %v", err)
	}
	if len(first) == 0 {
		t.Fatal("first QuickPicks empty")
	}

	// 缓存过期，流水线与两级兜底全部失败：容忍窗口内回放上一次结果
	clock.Advance(7 * time.Hour)
	hist.setFail(true)
	remote.setTrendingErr(core.NewStatusError(core.ModuleRemote, 404))

	got, err := svc.QuickPicks(ctx, 10)
	if err != nil {
		t.Fatalf("stale QuickPicks: %v", err)
	}
	if len(got) != len(first) {
		t.Fatalf("stale len = %d, want %d", len(got), len(first))
	}
	for i := range got {
		if got[i].ID != first[i].ID {
			t.Fatalf("stale[%d] = %q, want %q", i, got[i].ID, first[i].ID)
		}
	}
}

func TestQuickPicksEmptyResultNotCached(t *testing.T) {
	remote := &stubRemote{}
	svc := newTestService(remote, history.NewMemoryStore())
	ctx := context.Background()

	songs, err := svc.QuickPicks(ctx, 10)
	if err != nil {
		t.Fatalf("empty QuickPicks: %v", err)
	}
	if len(songs) != 0 {
		t.Fatalf("len = %d, want 0 with empty upstream", len(songs))
	}

	// 上游恢复后下一次调用立即拿到数据，而不是被空缓存钉住
	remote.mu.Lock()
	remote.trending = chart("t1", "t2")
	remote.mu.Unlock()

	songs, err = svc.QuickPicks(ctx, 10)
	if err != nil {
		t.Fatalf("recovered QuickPicks: %v", err)
	}
	if len(songs) == 0 {
		t.Fatal("empty result pinned the cache after upstream recovered")
	}
}

func TestChartEmptyResultNotCached(t *testing.T) {
	remote := &stubRemote{}
	svc := newTestService(remote, history.NewMemoryStore())
	ctx := context.Background()

	svc.NewReleases(ctx, 10)
	remote.mu.Lock()
	remote.releases = chart("r1")
	remote.mu.Unlock()

	songs, err := svc.NewReleases(ctx, 10)
	if err != nil {
		t.Fatalf("recovered NewReleases: %v", err)
	}
	if len(songs) != 1 {
		t.Fatalf("len = %d, want 1 after upstream recovered", len(songs))
	}
}

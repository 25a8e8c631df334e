package artist

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tunelab/feedkit/core"
	"github.com/tunelab/feedkit/retry"
	"github.com/tunelab/feedkit/store"
)

// fakeRemote 可配置的远端：返回固定页面或固定错误，并记录调用次数。
type fakeRemote struct {
	core.RemoteMusicSource
	mu    sync.Mutex
	page  *core.ArtistPage
	err   error
	calls int
}

func (r *fakeRemote) ArtistProfile(_ context.Context, name, browseID string) (*core.ArtistPage, error) {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	return r.page, nil
}

func (r *fakeRemote) ArtistSection(_ context.Context, _, section, _ string) ([]core.Song, error) {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	return []core.Song{{ID: section + "-1"}}, nil
}

func (r *fakeRemote) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

type repoClock struct {
	mu  sync.Mutex
	now time.Time
}

func newRepoClock() *repoClock {
	return &repoClock{now: time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *repoClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *repoClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func testPage() *core.ArtistPage {
	return &core.ArtistPage{
		Name:     "Arijit Singh",
		BrowseID: "UC123",
		TopSongs: []core.Song{{ID: "t1"}, {ID: "t1"}, {ID: "t2"}},
	}
}

func newTestRepo(remote *fakeRemote, durable core.Store, clock *repoClock) *Repository {
	r := NewRepositoryWithClock(remote, durable, zerolog.Nop(), clock.Now)
	r.Retry = retry.Policy{MaxRetries: 0, InitialDelay: 1}
	return r
}

func TestGetValidatesInput(t *testing.T) {
	r := newTestRepo(&fakeRemote{}, nil, newRepoClock())
	_, err := r.Get(context.Background(), "", "", false)
	if !core.IsInvalidInput(err) {
		t.Fatalf("err = %v, want INVALID_INPUT", err)
	}
}

func TestGetCachesAndDedups(t *testing.T) {
	remote := &fakeRemote{page: testPage()}
	r := newTestRepo(remote, nil, newRepoClock())
	ctx := context.Background()

	page, err := r.Get(ctx, "Arijit Singh", "UC123", false)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(page.TopSongs) != 2 {
		t.Fatalf("top songs not deduped: %d", len(page.TopSongs))
	}

	// 第二次及按另一个维度的查询都命中内存，不再打远端
	if _, err := r.Get(ctx, "Arijit Singh", "UC123", false); err != nil {
		t.Fatalf("second Get: %v", err)
	}
	if _, err := r.Get(ctx, "arijit  singh", "", false); err != nil {
		t.Fatalf("Get by name: %v", err)
	}
	if remote.callCount() != 1 {
		t.Fatalf("remote calls = %d, want 1 (fan-out write covers both keys)", remote.callCount())
	}
}

func TestGetForceRefreshBypassesCache(t *testing.T) {
	remote := &fakeRemote{page: testPage()}
	r := newTestRepo(remote, nil, newRepoClock())
	ctx := context.Background()

	r.Get(ctx, "", "UC123", false)
	r.Get(ctx, "", "UC123", true)
	if remote.callCount() != 2 {
		t.Fatalf("remote calls = %d, want 2 with force refresh", remote.callCount())
	}
}

func TestGetStaleChainFromDurable(t *testing.T) {
	clock := newRepoClock()
	remote := &fakeRemote{page: testPage()}
	durable := store.NewMemoryStoreWithClock(clock.Now)
	r := newTestRepo(remote, durable, clock)
	ctx := context.Background()

	if _, err := r.Get(ctx, "", "UC123", false); err != nil {
		t.Fatalf("initial Get: %v", err)
	}

	// 缓存过期 + 远端故障：23 小时内从持久行拿到带 stale 标记的数据
	clock.Advance(23 * time.Hour)
	remote.err = core.NewStatusError(core.ModuleRemote, 503)

	page, err := r.Get(ctx, "", "UC123", false)
	if err != nil {
		t.Fatalf("stale read: %v", err)
	}
	if !page.IsStale {
		t.Fatal("stale page must carry IsStale flag")
	}

	// 超过容忍窗口后失败透传
	clock.Advance(3 * time.Hour)
	if _, err := r.Get(ctx, "", "UC123", false); err == nil {
		t.Fatal("expected error beyond stale tolerance")
	}
}

func TestGetStaleChainFromMemoryWhenNoDurable(t *testing.T) {
	clock := newRepoClock()
	remote := &fakeRemote{page: testPage()}
	r := newTestRepo(remote, nil, clock)
	ctx := context.Background()

	r.Get(ctx, "", "UC123", false)

	clock.Advance(2 * time.Hour)
	remote.err = core.NewStatusError(core.ModuleRemote, 500)

	page, err := r.Get(ctx, "", "UC123", false)
	if err != nil {
		t.Fatalf("memory stale read: %v", err)
	}
	if !page.IsStale {
		t.Fatal("stale flag missing on memory fallback")
	}
}

func TestGetCancellationNotConverted(t *testing.T) {
	clock := newRepoClock()
	remote := &fakeRemote{page: testPage()}
	r := newTestRepo(remote, nil, clock)
	ctx := context.Background()

	r.Get(ctx, "", "UC123", false)
	clock.Advance(2 * time.Hour)

	// 有可用的过期兜底，但取消必须原样透传而非降级
	remote.err = context.Canceled
	if _, err := r.Get(ctx, "", "UC123", false); err != context.Canceled {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestSectionValidation(t *testing.T) {
	r := newTestRepo(&fakeRemote{}, nil, newRepoClock())
	ctx := context.Background()

	tests := []struct {
		name     string
		browseID string
		section  string
		wantErr  bool
	}{
		{name: "valid albums", browseID: "UC1", section: "albums"},
		{name: "valid featured_on", browseID: "UC1", section: "featured_on"},
		{name: "unknown section", browseID: "UC1", section: "merch", wantErr: true},
		{name: "empty browse id", browseID: "", section: "albums", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Section(ctx, tt.browseID, tt.section, "")
			if tt.wantErr {
				if !core.IsInvalidInput(err) {
					t.Fatalf("err = %v, want INVALID_INPUT", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Section: %v", err)
			}
		})
	}
}

func TestSectionCached(t *testing.T) {
	remote := &fakeRemote{}
	r := newTestRepo(remote, nil, newRepoClock())
	ctx := context.Background()

	r.Section(ctx, "UC1", "albums", "")
	r.Section(ctx, "UC1", "albums", "")
	r.Section(ctx, "UC1", "singles", "")
	if remote.callCount() != 2 {
		t.Fatalf("remote calls = %d, want 2 (albums cached, singles separate)", remote.callCount())
	}
}

func TestDurableRowBeyondToleranceRejected(t *testing.T) {
	clock := newRepoClock()
	remote := &fakeRemote{err: core.NewStatusError(core.ModuleRemote, 503)}
	durable := store.NewMemoryStoreWithClock(clock.Now)
	r := newTestRepo(remote, durable, clock)
	ctx := context.Background()

	// 直接种一条 30 小时前的持久行：存储还留着，但读取侧必须拒绝
	row, _ := json.Marshal(durableRow{
		CachedAtMs: clock.Now().Add(-30 * time.Hour).UnixMilli(),
		Page:       testPage(),
	})
	durable.Set(ctx, durableKeyPrefix+core.BrowseKey("UC123"), row, 0)

	if _, err := r.Get(ctx, "", "UC123", false); err == nil {
		t.Fatal("row beyond stale tolerance served as fallback")
	}
}

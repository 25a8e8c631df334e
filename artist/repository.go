// Package artist 实现艺人主页的多级缓存仓储。
//
// 读路径（逐级降级）：
//  1. 内存缓存（新鲜，TTL 30 分钟）
//  2. 持久行（新鲜）
//  3. 远端拉取（带重试）
//  4. 持久行（过期容忍 24 小时，带 stale 标记）
//  5. 内存缓存（过期容忍，带 stale 标记）
//  6. 失败
//
// 写路径：远端成功后内存与持久行同时按 browse:/name: 两个 key 扇出写，
// 绝不只写一半；随后机会式清理超过 PurgeHorizon 的持久行。
package artist

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/tunelab/feedkit/cache"
	"github.com/tunelab/feedkit/core"
	"github.com/tunelab/feedkit/retry"
)

// durableKeyPrefix 持久行的 key 前缀，后接 browse:/name: 规范 key。
const durableKeyPrefix = "artist:"

// durableRow 是持久行的 JSON 载荷：页面加写入时间戳，
// 新鲜/过期判断都在读取侧完成。
type durableRow struct {
	CachedAtMs int64            `json:"cached_at_ms"`
	Page       *core.ArtistPage `json:"page"`
}

// Repository 是艺人主页仓储。Durable 可为 nil（纯内存模式），
// 持久层读写失败一律按未命中处理、只记日志。
type Repository struct {
	Remote  core.RemoteMusicSource
	Durable core.Store
	Retry   retry.Policy
	Logger  zerolog.Logger

	clock    cache.Clock
	pages    *cache.TTL[*core.ArtistPage]
	sections *cache.TTL[[]core.Song]
}

// NewRepository 构造仓储；durable 传 nil 即关闭持久层。
func NewRepository(remote core.RemoteMusicSource, durable core.Store, logger zerolog.Logger) *Repository {
	return NewRepositoryWithClock(remote, durable, logger, time.Now)
}

// NewRepositoryWithClock 供测试注入假时钟。
func NewRepositoryWithClock(
	remote core.RemoteMusicSource,
	durable core.Store,
	logger zerolog.Logger,
	clock cache.Clock,
) *Repository {
	return &Repository{
		Remote:   remote,
		Durable:  durable,
		Retry:    retry.NewPolicy(),
		Logger:   logger,
		clock:    clock,
		pages:    cache.NewTTL[*core.ArtistPage](cache.TTLArtistPage, clock),
		sections: cache.NewTTL[[]core.Song](cache.TTLArtistSection, clock),
	}
}

// Get 获取艺人主页。name 与 browseID 至少给一个；
// forceRefresh 跳过新鲜缓存直达远端（下拉刷新），但远端失败时
// 过期容忍的降级链依然生效。
func (r *Repository) Get(
	ctx context.Context,
	name, browseID string,
	forceRefresh bool,
) (*core.ArtistPage, error) {
	key := core.PrimaryArtistKey(name, browseID)
	if key == "" {
		return nil, core.NewDomainError(core.ModuleFeed,
			core.ErrorCodeInvalidInput, "artist: name and browseID both empty")
	}

	if !forceRefresh {
		// 1. 内存新鲜
		if page, ok := r.pages.Get(key); ok {
			return page, nil
		}
		// 2. 持久新鲜
		if page, ok := r.durableGet(ctx, key, cache.TTLArtistPage); ok {
			r.putMemory(page)
			return page, nil
		}
	}

	// 3. 远端（带重试）
	page, err := retry.Do(ctx, r.Retry, func(ctx context.Context) (*core.ArtistPage, error) {
		return r.Remote.ArtistProfile(ctx, name, browseID)
	})
	if err == nil && page != nil {
		page.DedupLists()
		r.putMemory(page)
		r.putDurable(ctx, page)
		return page, nil
	}
	if core.IsCancellation(err) {
		return nil, err
	}
	if err == nil {
		err = core.NewDomainError(core.ModuleRemote,
			core.ErrorCodeNotFound, "remote: empty artist profile")
	}
	r.Logger.Warn().Err(err).Str("artist", key).Msg("remote artist fetch failed, trying stale")

	// 4. 持久过期容忍
	if page, ok := r.durableGetStale(ctx, key); ok {
		return page, nil
	}
	// 5. 内存过期容忍
	if page, ok, stale := r.pages.GetStale(key, cache.StaleTolerance); ok {
		if stale {
			stalePage := page.Clone()
			stalePage.IsStale = true
			return stalePage, nil
		}
		return page, nil
	}
	return nil, err
}

// Section 获取艺人主页某区块的完整列表，缓存 60 分钟。
// 区块名非法时立即失败，不发起远端调用。
func (r *Repository) Section(
	ctx context.Context,
	browseID, section, params string,
) ([]core.Song, error) {
	if browseID == "" {
		return nil, core.NewDomainError(core.ModuleFeed,
			core.ErrorCodeInvalidInput, "artist: empty browseID for section")
	}
	if !validSection(section) {
		return nil, core.NewDomainError(core.ModuleFeed,
			core.ErrorCodeInvalidInput, "artist: unknown section "+section)
	}

	key := core.BrowseKey(browseID) + "#" + section
	if songs, ok := r.sections.Get(key); ok {
		return songs, nil
	}

	songs, err := retry.Do(ctx, r.Retry, func(ctx context.Context) ([]core.Song, error) {
		return r.Remote.ArtistSection(ctx, browseID, section, params)
	})
	if err != nil {
		if core.IsCancellation(err) {
			return nil, err
		}
		// 区块没有持久行，只剩内存过期容忍这一级
		if songs, ok, _ := r.sections.GetStale(key, cache.StaleTolerance); ok {
			return songs, nil
		}
		return nil, err
	}
	r.sections.Put(key, songs)
	return songs, nil
}

// Invalidate 按 name/browseID 失效内存缓存（持久行留给 TTL 判断）。
func (r *Repository) Invalidate(name, browseID string) {
	for _, key := range pageKeys(name, browseID) {
		r.pages.Invalidate(key)
	}
}

func validSection(section string) bool {
	switch section {
	case "albums", "singles", "videos", "featured_on":
		return true
	}
	return false
}

// pageKeys 返回页面的全部规范 key（browse 与 name 两个维度）。
func pageKeys(name, browseID string) []string {
	keys := make([]string, 0, 2)
	if browseID != "" {
		keys = append(keys, core.BrowseKey(browseID))
	}
	if name != "" {
		keys = append(keys, core.NameKey(name))
	}
	return keys
}

// putMemory 按页面自带的标识扇出写内存缓存。
func (r *Repository) putMemory(page *core.ArtistPage) {
	keys := pageKeys(page.Name, page.BrowseID)
	if len(keys) > 0 {
		r.pages.PutAll(keys, page)
	}
}

// putDurable 扇出写持久行，随后机会式清理过期行。
// 写失败只记日志，主页已经拿到，不影响本次结果。
func (r *Repository) putDurable(ctx context.Context, page *core.ArtistPage) {
	if r.Durable == nil {
		return
	}
	nowMs := r.clock().UnixMilli()
	data, err := json.Marshal(durableRow{CachedAtMs: nowMs, Page: page})
	if err != nil {
		r.Logger.Warn().Err(err).Msg("artist durable row marshal failed")
		return
	}
	ttlSec := int((cache.TTLArtistPage + cache.StaleTolerance).Seconds())
	for _, key := range pageKeys(page.Name, page.BrowseID) {
		if err := r.Durable.Set(ctx, durableKeyPrefix+key, data, ttlSec); err != nil {
			r.Logger.Warn().Err(err).Str("key", key).Msg("artist durable write failed")
		}
	}
	go r.purge()
}

// purge 清理写入时间超过 PurgeHorizon 的持久行。不阻塞调用方，
// 用独立短超时 context，失败无所谓，下次写入还会再试。
func (r *Repository) purge() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	olderThan := r.clock().Add(-cache.PurgeHorizon).UnixMilli()
	if err := r.Durable.DeleteOlderThan(ctx, durableKeyPrefix, olderThan); err != nil &&
		!core.IsStoreNotFound(err) {
		r.Logger.Debug().Err(err).Msg("artist durable purge failed")
	}
}

// durableGet 读取持久行并判断新鲜度；年龄超过 maxAge 视为未命中。
func (r *Repository) durableGet(ctx context.Context, key string, maxAge time.Duration) (*core.ArtistPage, bool) {
	row, ok := r.durableRow(ctx, key)
	if !ok {
		return nil, false
	}
	if r.clock().UnixMilli()-row.CachedAtMs > maxAge.Milliseconds() {
		return nil, false
	}
	return row.Page, true
}

// durableGetStale 读取持久行的过期容忍档：年龄在 StaleTolerance 内即返回，
// 超过 TTL 时在副本上置位 IsStale。
func (r *Repository) durableGetStale(ctx context.Context, key string) (*core.ArtistPage, bool) {
	row, ok := r.durableRow(ctx, key)
	if !ok {
		return nil, false
	}
	age := r.clock().UnixMilli() - row.CachedAtMs
	if age > cache.StaleTolerance.Milliseconds() {
		return nil, false
	}
	page := row.Page
	if age > cache.TTLArtistPage.Milliseconds() {
		page = page.Clone()
		page.IsStale = true
	}
	return page, true
}

func (r *Repository) durableRow(ctx context.Context, key string) (durableRow, bool) {
	var row durableRow
	if r.Durable == nil {
		return row, false
	}
	data, err := r.Durable.Get(ctx, durableKeyPrefix+key)
	if err != nil {
		if !core.IsStoreNotFound(err) {
			r.Logger.Debug().Err(err).Str("key", key).Msg("artist durable read failed")
		}
		return row, false
	}
	if err := json.Unmarshal(data, &row); err != nil || row.Page == nil {
		return row, false
	}
	return row, true
}

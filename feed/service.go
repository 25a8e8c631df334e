// Package feed 是推荐的编排层：对 UI 暴露各板块的仓储方法
// （Quick Picks / Listen Again / New Releases / Trending / Search），
// 内部组合召回、过滤、排序、重排节点与各级缓存。
//
// 错误约定：方法只返回领域错误或取消；远端失败能降级的都在
// 内部降级（过期缓存、Listen-Again、生榜），降级路径记 warn 日志。
package feed

import (
	"context"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tunelab/feedkit/cache"
	"github.com/tunelab/feedkit/core"
	"github.com/tunelab/feedkit/feature"
	"github.com/tunelab/feedkit/filter"
	"github.com/tunelab/feedkit/pipeline"
	"github.com/tunelab/feedkit/rank"
	"github.com/tunelab/feedkit/recall"
	"github.com/tunelab/feedkit/rerank"
	"github.com/tunelab/feedkit/retry"
	"github.com/tunelab/feedkit/taste"
)

// DefaultLimit 各板块的默认条数。
const DefaultLimit = 20

// overFetchFactor 新发行/热门榜的超量拉取倍数，给过滤留出收缩余量。
const overFetchFactor = 2

// Config 是 Service 的装配参数。Remote / History / Region 必填，
// 其余可选（nil 时对应能力关闭）。
type Config struct {
	Remote   core.RemoteMusicSource
	History  core.PlaybackHistoryStore
	Region   core.RegionProvider
	Genres   core.GenreLookup
	Features feature.Provider   // 可选：在线听众特征
	Chart    core.KeyValueStore // 可选：热门榜兜底 zset
	UserID   string
	Logger   zerolog.Logger
	Clock    cache.Clock
}

// Service 是板块仓储的统一实现。
type Service struct {
	cfg         Config
	clock       cache.Clock
	retry       retry.Policy
	listenAgain *rank.ListenAgainEngine
	releases    *rank.ReleaseEngine

	quickPicks *cache.TTL[[]core.Song]
	charts     *cache.TTL[[]core.Song]
	search     *cache.TTL[[]core.Song]
	albums     *cache.TTL[[]core.Song]
}

// NewService 装配编排层。
func NewService(cfg Config) *Service {
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	if cfg.Genres == nil {
		cfg.Genres = taste.NewGenreLookup()
	}
	return &Service{
		cfg:         cfg,
		clock:       clock,
		retry:       retry.NewPolicy(),
		listenAgain: &rank.ListenAgainEngine{History: cfg.History},
		releases:    &rank.ReleaseEngine{Genres: cfg.Genres},
		quickPicks:  cache.NewTTL[[]core.Song](cache.TTLQuickPicks, clock),
		charts:      cache.NewTTL[[]core.Song](cache.TTLChart, clock),
		search:      cache.NewTTL[[]core.Song](cache.TTLSearch, clock),
		albums:      cache.NewTTL[[]core.Song](cache.TTLAlbumSongs, clock),
	}
}

// QuickPicks 返回个性化快选列表。
//
// 流程：画像与反偏好并发拉取 → 四路召回扇出 → 过滤 → 口味打分 →
// 艺人多样性 → 交织组装；结果按地区 key 缓存 6 小时。
// 整条流水线失败（非取消）时按 Listen-Again → 生榜 → 过期容忍缓存
// 的顺序降级；非空降级结果同样入缓存，避免持续失败反复打远端。
func (s *Service) QuickPicks(ctx context.Context, limit int) ([]core.Song, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	reg := s.cfg.Region.Region(ctx)
	key := "quickpicks:" + reg.CountryCode + ":" + strconv.Itoa(limit)
	if songs, ok := s.quickPicks.Get(key); ok {
		return songs, nil
	}

	songs, err := s.buildQuickPicks(ctx, reg, limit)
	if err != nil {
		if core.IsCancellation(err) {
			return nil, err
		}
		s.cfg.Logger.Warn().Err(err).Msg("quick picks pipeline failed, falling back")
		songs, err = s.quickPicksFallback(ctx, reg, limit)
		if err != nil {
			if core.IsCancellation(err) {
				return nil, err
			}
			// 最后一级：过期容忍窗口内的上一次结果
			if stale, ok, _ := s.quickPicks.GetStale(key, cache.StaleTolerance); ok {
				s.cfg.Logger.Warn().Err(err).Msg("quick picks fallbacks failed, serving stale")
				return stale, nil
			}
			return nil, err
		}
	}
	// 空列表不入缓存：冷启动的空结果不该钉住整个 TTL 窗口
	if len(songs) > 0 {
		s.quickPicks.Put(key, songs)
	}
	return songs, nil
}

func (s *Service) buildQuickPicks(ctx context.Context, reg core.Region, limit int) ([]core.Song, error) {
	fc, err := s.buildContext(ctx, reg)
	if err != nil {
		return nil, err
	}

	p := &pipeline.Pipeline{
		Nodes: []pipeline.Node{
			&recall.Fanout{
				Sources: []recall.Source{
					&recall.Familiar{Ranker: s.listenAgain},
					&recall.DeepCuts{Remote: s.cfg.Remote, Retry: s.retry},
					&recall.SeedRecs{Remote: s.cfg.Remote, History: s.cfg.History, Retry: s.retry},
					&recall.Trending{Remote: s.cfg.Remote, Chart: s.cfg.Chart, Retry: s.retry},
				},
				Timeout: 15 * time.Second,
			},
			&filter.Node{Filters: []filter.Filter{
				&filter.PlayedFilter{},
				&filter.ArtistBlockFilter{},
			}},
			rank.NewTasteNode(s.cfg.Genres),
			&rerank.ArtistDiversity{},
			&rerank.Interleave{Limit: limit},
		},
	}

	items, err := p.Run(ctx, fc, nil)
	if err != nil {
		return nil, err
	}
	songs := make([]core.Song, 0, len(items))
	for _, it := range items {
		if it != nil {
			songs = append(songs, it.Song)
		}
	}
	return songs, nil
}

// quickPicksFallback 依次尝试 Listen-Again、生热门榜。
func (s *Service) quickPicksFallback(ctx context.Context, reg core.Region, limit int) ([]core.Song, error) {
	fc := &core.FeedContext{Now: s.clock(), Region: reg}
	songs, err := s.listenAgain.Rank(ctx, fc, limit)
	if err == nil && len(songs) > 0 {
		return songs, nil
	}
	if core.IsCancellation(err) {
		return nil, err
	}

	songs, err = retry.Do(ctx, s.retry, func(ctx context.Context) ([]core.Song, error) {
		return s.cfg.Remote.TrendingSongs(ctx, reg.CountryCode, limit)
	})
	if err != nil {
		return nil, err
	}
	return songs, nil
}

// ListenAgain 返回"再听一次"榜单，纯历史驱动。
func (s *Service) ListenAgain(ctx context.Context, limit int) ([]core.Song, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	fc := &core.FeedContext{Now: s.clock(), Region: s.cfg.Region.Region(ctx)}
	return s.listenAgain.Rank(ctx, fc, limit)
}

// NewReleases 返回个性化新发行榜。超量拉取 2 倍给过滤留余量；
// 个性化环节失败（非取消）时退回生榜截断。
func (s *Service) NewReleases(ctx context.Context, limit int) ([]core.Song, error) {
	return s.personalizedChart(ctx, "releases", limit, s.cfg.Remote.NewReleases)
}

// Trending 返回个性化热门榜，形态同 NewReleases。
func (s *Service) Trending(ctx context.Context, limit int) ([]core.Song, error) {
	return s.personalizedChart(ctx, "trending", limit, s.cfg.Remote.TrendingSongs)
}

// personalizedChart 是两个榜单板块的公共路径：按地区 key 缓存 60 分钟，
// 远端失败（非取消）时在过期容忍窗口内回放上一次结果。
func (s *Service) personalizedChart(
	ctx context.Context,
	name string,
	limit int,
	fetch func(ctx context.Context, region string, limit int) ([]core.Song, error),
) ([]core.Song, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	reg := s.cfg.Region.Region(ctx)
	key := name + ":" + reg.CountryCode + ":" + strconv.Itoa(limit)
	if songs, ok := s.charts.Get(key); ok {
		return songs, nil
	}

	raw, err := retry.Do(ctx, s.retry, func(ctx context.Context) ([]core.Song, error) {
		return fetch(ctx, reg.CountryCode, limit*overFetchFactor)
	})
	if err != nil {
		if core.IsCancellation(err) {
			return nil, err
		}
		if stale, ok, _ := s.charts.GetStale(key, cache.StaleTolerance); ok {
			s.cfg.Logger.Warn().Err(err).Str("chart", name).Msg("chart fetch failed, serving stale")
			return stale, nil
		}
		return nil, err
	}
	// 空榜是合法结果，不进打分也不入缓存
	if len(raw) == 0 {
		return []core.Song{}, nil
	}

	songs, err := s.personalize(ctx, reg, raw, limit)
	if err != nil {
		return nil, err
	}
	s.charts.Put(key, songs)
	return songs, nil
}

// personalize 给榜单做口味打分；画像构建失败（非取消）退回生榜截断，
// 取消原样透传。
func (s *Service) personalize(ctx context.Context, reg core.Region, raw []core.Song, limit int) ([]core.Song, error) {
	fc, err := s.buildContext(ctx, reg)
	if err != nil {
		if core.IsCancellation(err) {
			return nil, err
		}
		s.cfg.Logger.Warn().Err(err).Msg("chart personalization failed, returning raw list")
		if len(raw) > limit {
			raw = raw[:limit]
		}
		return raw, nil
	}
	return s.releases.Personalize(fc, raw, limit), nil
}

// Search 按关键词搜索，结果缓存 5 分钟。
func (s *Service) Search(ctx context.Context, query string, limit int) ([]core.Song, error) {
	if query == "" {
		return nil, core.NewDomainError(core.ModuleFeed,
			core.ErrorCodeInvalidInput, "feed: empty search query")
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	key := "search:" + core.CanonicalArtistName(query) + ":" + strconv.Itoa(limit)
	if songs, ok := s.search.Get(key); ok {
		return songs, nil
	}
	songs, err := retry.Do(ctx, s.retry, func(ctx context.Context) ([]core.Song, error) {
		return s.cfg.Remote.SearchSongs(ctx, query, limit)
	})
	if err != nil {
		return nil, err
	}
	s.search.Put(key, songs)
	return songs, nil
}

// AlbumSongs 返回专辑曲目（经定向搜索），结果缓存 60 分钟。
func (s *Service) AlbumSongs(ctx context.Context, album, artist string, limit int) ([]core.Song, error) {
	if album == "" {
		return nil, core.NewDomainError(core.ModuleFeed,
			core.ErrorCodeInvalidInput, "feed: empty album name")
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	query := album
	if artist != "" {
		query += " " + artist
	}
	key := "album:" + core.CanonicalArtistName(query)
	if songs, ok := s.albums.Get(key); ok {
		return songs, nil
	}
	songs, err := retry.Do(ctx, s.retry, func(ctx context.Context) ([]core.Song, error) {
		return s.cfg.Remote.SearchSongs(ctx, query, limit)
	})
	if err != nil {
		return nil, err
	}
	s.albums.Put(key, songs)
	return songs, nil
}

// buildContext 并发拉取画像与反偏好信号，组装本次构建的 FeedContext。
func (s *Service) buildContext(ctx context.Context, reg core.Region) (*core.FeedContext, error) {
	fc := &core.FeedContext{Now: s.clock(), Region: reg}

	builder := &taste.Builder{
		History:  s.cfg.History,
		Genres:   s.cfg.Genres,
		Features: s.cfg.Features,
		UserID:   s.cfg.UserID,
		Logger:   s.cfg.Logger,
	}

	eg, gctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		profile, err := builder.Build(gctx)
		if err != nil {
			return err
		}
		fc.Taste = profile
		return nil
	})
	eg.Go(func() error {
		played, err := s.cfg.History.AllPlayedSongIDs(gctx)
		if err != nil {
			return err
		}
		fc.PlayedIDs = played
		return nil
	})
	eg.Go(func() error {
		blocked, err := s.cfg.History.SkippedArtists(gctx)
		if err != nil {
			return err
		}
		fc.BlockedArtists = blocked
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return fc, nil
}

// Package taste 从播放历史聚合推导用户口味画像。
package taste

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tunelab/feedkit/core"
	"github.com/tunelab/feedkit/feature"
)

// 画像构建的默认口径。
const (
	TopArtistCount = 10
	TopGenreCount  = 5
	SeedQueryCount = 3
	maxLanguages   = 3
)

// Builder 重建 TasteProfile。每次请求基于当前聚合重建，不跨请求缓存
// （调用方如需复用可自行缓存）。
type Builder struct {
	History  core.PlaybackHistoryStore
	Genres   core.GenreLookup
	Features feature.Provider // 可选：在线听众特征增强
	UserID   string
	Logger   zerolog.Logger
}

// Build 并发拉取各项聚合并归纳画像。
// 聚合查询是挂起点，用 errgroup 扇出；任意一路失败则整体失败
// （历史存储在同一设备上，部分失败没有降级意义）。
func (b *Builder) Build(ctx context.Context) (*core.TasteProfile, error) {
	if b.History == nil {
		return nil, fmt.Errorf("taste: history store is required")
	}

	var (
		topArtists []core.ArtistPlayCount
		hourHist   map[int]int
		completion core.CompletionStats
		avgMs      int64
	)

	eg, gctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		topArtists, err = b.History.TopArtistsByPlayCount(gctx, TopArtistCount)
		return err
	})
	eg.Go(func() error {
		var err error
		hourHist, err = b.History.PlaybackByHour(gctx)
		return err
	})
	eg.Go(func() error {
		var err error
		completion, err = b.History.CompletionStats(gctx)
		return err
	})
	eg.Go(func() error {
		var err error
		avgMs, err = b.History.AveragePlayDurationMs(gctx)
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("taste: build profile: %w", err)
	}

	profile := &core.TasteProfile{
		TopArtists:     topArtists,
		Pattern:        classifyPattern(hourHist),
		CompletionRate: completion.Rate(),
		AvgSessionMs:   avgMs,
	}
	b.inferGenresAndLanguages(profile)
	profile.TopSearchQueries = seedQueries(profile)

	if err := b.enrich(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// inferGenresAndLanguages 经静态流派表推断 TopGenres 与偏好语言，保持出现顺序。
func (b *Builder) inferGenresAndLanguages(p *core.TasteProfile) {
	if b.Genres == nil {
		return
	}

	seenGenre := make(map[string]struct{})
	seenLang := make(map[string]struct{})
	for _, a := range p.TopArtists {
		genres := b.Genres.GenresFor(a.Artist)
		for _, g := range genres {
			if _, ok := seenGenre[g]; ok {
				continue
			}
			seenGenre[g] = struct{}{}
			if len(p.TopGenres) < TopGenreCount {
				p.TopGenres = append(p.TopGenres, g)
			}
		}
		if lang := LanguageForGenres(genres); lang != "" {
			if _, ok := seenLang[lang]; !ok && len(p.PreferredLanguages) < maxLanguages {
				seenLang[lang] = struct{}{}
				p.PreferredLanguages = append(p.PreferredLanguages, lang)
			}
		}
	}
}

// enrich 用在线听众特征覆盖历史推导值；特征服务失败只记日志，
// 不影响画像。取消是唯一向上传播的失败。
func (b *Builder) enrich(ctx context.Context, p *core.TasteProfile) error {
	if b.Features == nil {
		return nil
	}

	feats, err := b.Features.ListenerFeatures(ctx, b.UserID, []string{
		feature.FeatCompletionRate,
		feature.FeatAvgSessionMs,
	})
	if err != nil {
		if core.IsCancellation(err) {
			return err
		}
		b.Logger.Debug().Err(err).Msg("listener feature enrich failed, using history-derived values")
		return nil
	}

	if v, ok := feats[feature.FeatCompletionRate]; ok && v > 0 {
		p.CompletionRate = v
	}
	if v, ok := feats[feature.FeatAvgSessionMs]; ok && v > 0 {
		p.AvgSessionMs = int64(v)
	}
	return nil
}

// classifyPattern 从小时直方图归纳收听习惯：
// 某时段占比 >= 45% 记为该时段型，否则 mixed。
func classifyPattern(hist map[int]int) core.ListeningPattern {
	total := 0
	buckets := map[core.ListeningPattern]int{}
	for h, n := range hist {
		total += n
		switch {
		case h >= 5 && h < 11:
			buckets[core.PatternMorning] += n
		case h >= 11 && h < 17:
			buckets[core.PatternDaytime] += n
		case h >= 17 && h < 23:
			buckets[core.PatternEvening] += n
		default:
			buckets[core.PatternNight] += n
		}
	}
	if total == 0 {
		return core.PatternMixed
	}

	best := core.PatternMixed
	bestN := 0
	for p, n := range buckets {
		if n > bestN {
			best, bestN = p, n
		}
	}
	if float64(bestN)/float64(total) >= 0.45 {
		return best
	}
	return core.PatternMixed
}

// seedQueries 生成发现池的种子搜索词：常听艺人 + 常听流派。
func seedQueries(p *core.TasteProfile) []string {
	out := make([]string, 0, SeedQueryCount)
	for _, a := range p.TopArtists {
		if len(out) >= SeedQueryCount {
			break
		}
		out = append(out, a.Artist+" songs")
	}
	for _, g := range p.TopGenres {
		if len(out) >= SeedQueryCount {
			break
		}
		out = append(out, g+" hits")
	}
	return out
}

// Package feature 提供听众特征的在线获取：口味画像构建时的可选增强源。
//
// 特征服务不可用时一律降级到历史聚合推导，不影响推荐主链路。
package feature

import (
	"context"

	"github.com/tunelab/feedkit/cache"
	"github.com/tunelab/feedkit/core"
)

// 标准听众特征名（feature view "listener_stats"）。
const (
	FeatCompletionRate = "listener_stats:completion_rate"
	FeatAvgSessionMs   = "listener_stats:avg_session_ms"
	FeatQualified30d   = "listener_stats:qualified_listens_30d"
)

// Provider 按用户获取在线听众特征。
type Provider interface {
	// ListenerFeatures 返回请求的特征值；缺失的特征不出现在结果里。
	ListenerFeatures(ctx context.Context, userID string, names []string) (map[string]float64, error)
}

// CachedProvider 给任意 Provider 加一层内存 TTL 缓存，
// 避免一次推荐构建内反复打在线特征服务。
type CachedProvider struct {
	inner Provider
	cache *cache.TTL[map[string]float64]
}

func NewCachedProvider(inner Provider, ttlCache *cache.TTL[map[string]float64]) *CachedProvider {
	return &CachedProvider{inner: inner, cache: ttlCache}
}

func (p *CachedProvider) ListenerFeatures(ctx context.Context, userID string, names []string) (map[string]float64, error) {
	if feats, ok := p.cache.Get(userID); ok {
		return feats, nil
	}
	feats, err := p.inner.ListenerFeatures(ctx, userID, names)
	if err != nil {
		return nil, err
	}
	p.cache.Put(userID, feats)
	return feats, nil
}

// HistoryFallback 从播放历史聚合推导同名特征，作为特征服务的兜底实现。
type HistoryFallback struct {
	History core.PlaybackHistoryStore
}

func (f *HistoryFallback) ListenerFeatures(ctx context.Context, userID string, names []string) (map[string]float64, error) {
	out := make(map[string]float64, len(names))
	for _, name := range names {
		switch name {
		case FeatCompletionRate:
			stats, err := f.History.CompletionStats(ctx)
			if err != nil {
				return nil, err
			}
			out[name] = stats.Rate()
		case FeatAvgSessionMs:
			avg, err := f.History.AveragePlayDurationMs(ctx)
			if err != nil {
				return nil, err
			}
			out[name] = float64(avg)
		}
	}
	return out, nil
}

var (
	_ Provider = (*CachedProvider)(nil)
	_ Provider = (*HistoryFallback)(nil)
)

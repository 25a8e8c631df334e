// Package builders 在 init 中注册内置 Node 的配置构建器。
// 入口处 import _ "github.com/tunelab/feedkit/config/builders" 即可启用配置驱动。
//
// 召回源依赖远端/历史等协作方，无法从纯配置构建，
// 需要在装配处调用 RegisterRecall 注入依赖后才可用。
package builders

import (
	"fmt"
	"time"

	"github.com/tunelab/feedkit/config"
	"github.com/tunelab/feedkit/core"
	"github.com/tunelab/feedkit/filter"
	"github.com/tunelab/feedkit/pipeline"
	"github.com/tunelab/feedkit/pkg/conv"
	"github.com/tunelab/feedkit/rank"
	"github.com/tunelab/feedkit/recall"
	"github.com/tunelab/feedkit/rerank"
	"github.com/tunelab/feedkit/retry"
	"github.com/tunelab/feedkit/taste"
)

func init() {
	config.Register("filter", BuildFilterNode)
	config.Register("rank.taste", BuildTasteNode)
	config.Register("rerank.diversity", BuildDiversityNode)
	config.Register("rerank.interleave", BuildInterleaveNode)
	config.Register("rerank.topn", BuildTopNNode)
}

// BuildFilterNode 构建过滤节点。
// 配置：
//
//	filters:
//	  - type: played
//	  - type: artist_block
//	  - type: rule
//	    expr: 'candidate.source_score < 0.1'
func BuildFilterNode(cfg map[string]interface{}) (pipeline.Node, error) {
	filtersConfig, ok := cfg["filters"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("filters not found or invalid")
	}

	filters := make([]filter.Filter, 0, len(filtersConfig))
	for _, fcfg := range filtersConfig {
		m, ok := fcfg.(map[string]interface{})
		if !ok {
			continue
		}
		switch typ := conv.ConfigGet(m, "type", ""); typ {
		case "played":
			filters = append(filters, &filter.PlayedFilter{})
		case "artist_block":
			filters = append(filters, &filter.ArtistBlockFilter{})
		case "rule":
			expr := conv.ConfigGet(m, "expr", "")
			if expr == "" {
				return nil, fmt.Errorf("rule filter requires expr")
			}
			rf, err := filter.NewRuleFilter(expr)
			if err != nil {
				return nil, fmt.Errorf("compile rule filter: %w", err)
			}
			filters = append(filters, rf)
		default:
			return nil, fmt.Errorf("unknown filter type %q", typ)
		}
	}
	return &filter.Node{Filters: filters}, nil
}

// BuildTasteNode 构建口味排序节点（默认线性权重 + 内置流派表）。
func BuildTasteNode(_ map[string]interface{}) (pipeline.Node, error) {
	return rank.NewTasteNode(taste.NewGenreLookup()), nil
}

// BuildDiversityNode 构建艺人多样性节点。配置：cap。
func BuildDiversityNode(cfg map[string]interface{}) (pipeline.Node, error) {
	cap := int(conv.ConfigGetInt64(cfg, "cap", 0))
	return &rerank.ArtistDiversity{Cap: cap}, nil
}

// BuildInterleaveNode 构建交织组装节点。配置：limit、bucket_hours。
func BuildInterleaveNode(cfg map[string]interface{}) (pipeline.Node, error) {
	limit := int(conv.ConfigGetInt64(cfg, "limit", 0))
	bucketHours := conv.ConfigGetInt64(cfg, "bucket_hours", 0)
	return &rerank.Interleave{
		Limit:  limit,
		Bucket: time.Duration(bucketHours) * time.Hour,
	}, nil
}

// BuildTopNNode 构建 Top-N 截断节点。配置：n。
func BuildTopNNode(cfg map[string]interface{}) (pipeline.Node, error) {
	return &rerank.TopNNode{N: int(conv.ConfigGetInt64(cfg, "n", 0))}, nil
}

// RecallDeps 是召回扇出节点的协作方。
type RecallDeps struct {
	Remote  core.RemoteMusicSource
	History core.PlaybackHistoryStore
	Ranker  recall.ListenAgainRanker
	Chart   core.KeyValueStore
}

// RegisterRecall 注册 recall.fanout 构建器（闭包携带协作方）。
// 配置：
//
//	sources:
//	  - type: familiar
//	  - type: deep_cuts
//	  - type: seed_recs
//	  - type: trending
//	timeout_ms: 15000
func RegisterRecall(deps RecallDeps) {
	config.Register("recall.fanout", func(cfg map[string]interface{}) (pipeline.Node, error) {
		sourcesConfig, ok := cfg["sources"].([]interface{})
		if !ok {
			return nil, fmt.Errorf("sources not found or invalid")
		}
		policy := retry.NewPolicy()
		sources := make([]recall.Source, 0, len(sourcesConfig))
		for _, sc := range sourcesConfig {
			m, ok := sc.(map[string]interface{})
			if !ok {
				continue
			}
			switch typ := conv.ConfigGet(m, "type", ""); typ {
			case "familiar":
				sources = append(sources, &recall.Familiar{
					Ranker:   deps.Ranker,
					PoolSize: int(conv.ConfigGetInt64(m, "pool_size", 0)),
				})
			case "deep_cuts":
				sources = append(sources, &recall.DeepCuts{Remote: deps.Remote, Retry: policy})
			case "seed_recs":
				sources = append(sources, &recall.SeedRecs{
					Remote: deps.Remote, History: deps.History, Retry: policy,
				})
			case "trending":
				sources = append(sources, &recall.Trending{
					Remote: deps.Remote, Chart: deps.Chart, Retry: policy,
				})
			default:
				return nil, fmt.Errorf("unknown recall source %q", typ)
			}
		}
		timeoutMs := conv.ConfigGetInt64(cfg, "timeout_ms", 0)
		return &recall.Fanout{
			Sources: sources,
			Timeout: time.Duration(timeoutMs) * time.Millisecond,
		}, nil
	})
}

// Package feedkit 是移动音乐客户端的推荐与缓存工具包。
//
// 设计要点：
// - Pipeline-first: 推荐构建通过 Node 串联（Recall → Filter → Rank → ReRank）
// - Labels-first: labels 全链路透传与标准化 merge，支持 explain / 观测 / 策略驱动
// - 离线优先: 每级缓存都有过期容忍的降级档，远端失败 UI 也要有东西可渲染
// - Node 可扩展: 自定义 Node 即可插拔扩展召回/打分策略
package feedkit

import "github.com/tunelab/feedkit/pipeline"

// 轻量 facade：便于用户直接 import "feedkit" 使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

const (
	KindRecall = pipeline.KindRecall
	KindFilter = pipeline.KindFilter
	KindRank   = pipeline.KindRank
	KindReRank = pipeline.KindReRank
)

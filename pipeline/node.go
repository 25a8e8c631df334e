package pipeline

import (
	"context"

	"github.com/tunelab/feedkit/core"
)

// Kind 用于标记 Node 类型，方便观测/治理/编排（例如按阶段打点）。
type Kind string

const (
	KindRecall Kind = "recall" // 召回阶段：生成候选集
	KindFilter Kind = "filter" // 过滤阶段：剔除反偏好/已播候选
	KindRank   Kind = "rank"   // 排序阶段：对候选打分并排序
	KindReRank Kind = "rerank" // 重排阶段：拼装、多样性上限、截断
)

// Node 是 Pipeline 的最小可扩展单元。
// 统一采用"输入 candidates -> 输出 candidates"的形态，
// 方便 Recall 生成、Filter 剔除、ReRank 重排等操作。
//
// 纯打分/重排节点同步执行、不挂起；只有召回节点内部会发起远端调用。
type Node interface {
	Name() string
	Kind() Kind

	Process(
		ctx context.Context,
		fc *core.FeedContext,
		items []*core.Candidate,
	) ([]*core.Candidate, error)
}

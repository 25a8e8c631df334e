package recall

import (
	"context"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tunelab/feedkit/core"
	"github.com/tunelab/feedkit/pipeline"
	"github.com/tunelab/feedkit/pkg/utils"
)

// Fanout 是一个 Recall Node：并发执行多个召回源，并合并结果。
//
// 故障语义：
//   - 单个源失败/超时只贡献空列表，绝不中断兄弟分支
//   - 调用方取消是另一回事：必须向上传播，不得被分支兜底吞掉
//
// 合并按 Sources 的声明顺序拼接后按歌曲 ID 去重（先出现者保留），
// 与并发完成顺序无关，保证同样输入得到同样输出。
type Fanout struct {
	Sources       []Source
	Timeout       time.Duration // 每个召回源的超时时间
	MaxConcurrent int           // 最大并发数（0 表示无限制）
}

func (n *Fanout) Name() string        { return "recall.fanout" }
func (n *Fanout) Kind() pipeline.Kind { return pipeline.KindRecall }

func (n *Fanout) Process(
	ctx context.Context,
	fc *core.FeedContext,
	_ []*core.Candidate,
) ([]*core.Candidate, error) {
	if len(n.Sources) == 0 {
		return nil, nil
	}

	results := make([][]*core.Candidate, len(n.Sources))
	eg, gctx := errgroup.WithContext(ctx)
	if n.MaxConcurrent > 0 {
		eg.SetLimit(n.MaxConcurrent)
	}

	for i, src := range n.Sources {
		i, src := i, src
		eg.Go(func() error {
			recallCtx := gctx
			if n.Timeout > 0 {
				var cancel context.CancelFunc
				recallCtx, cancel = context.WithTimeout(gctx, n.Timeout)
				defer cancel()
			}

			items, err := src.Recall(recallCtx, fc)
			if err != nil {
				// 调用方取消必须透传；源自身的超时/失败只贡献空列表
				if core.IsCancellation(err) && ctx.Err() != nil {
					return ctx.Err()
				}
				return nil
			}

			// 记录召回来源 label，方便 explain / 观测
			for _, it := range items {
				it.PutLabel("recall_source", utils.Label{Value: src.Name(), Source: "recall"})
				it.PutLabel("recall_priority", utils.Label{Value: strconv.Itoa(i), Source: "recall"})
			}
			results[i] = items
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	all := make([]*core.Candidate, 0)
	for _, items := range results {
		all = append(all, items...)
	}
	return core.DedupByID(all), nil
}

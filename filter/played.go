package filter

import (
	"context"

	"github.com/tunelab/feedkit/core"
)

// PlayedFilter 过滤掉用户已经播放过的歌曲。
// 已播集合由编排层一次性查好挂在 FeedContext 上，
// 过滤阶段只做集合判断，不再发起存储查询。
//
// 熟悉池（familiar）天然来自历史，予以豁免——Listen-Again
// 的意义就是重听。
type PlayedFilter struct{}

func (f *PlayedFilter) Name() string {
	return "filter.played"
}

func (f *PlayedFilter) ShouldFilter(
	_ context.Context,
	fc *core.FeedContext,
	item *core.Candidate,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	if item.Source.Familiar() {
		return false, nil
	}
	return fc.Played(item.Song.ID), nil
}

var _ Filter = (*PlayedFilter)(nil)

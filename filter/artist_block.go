package filter

import (
	"context"

	"github.com/tunelab/feedkit/core"
)

// ArtistBlockFilter 过滤掉反偏好艺人（被频繁跳过）的歌曲。
// 集合里存的是规范化小写名，比对时对候选艺人做同样的规范化。
type ArtistBlockFilter struct{}

func (f *ArtistBlockFilter) Name() string {
	return "filter.artist_block"
}

func (f *ArtistBlockFilter) ShouldFilter(
	_ context.Context,
	fc *core.FeedContext,
	item *core.Candidate,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	return fc.ArtistBlocked(item.Song.Artist), nil
}

var _ Filter = (*ArtistBlockFilter)(nil)

package core

import "context"

// RemoteMusicSource 是上游音乐 API 的领域接口。
//
// 约定：
//   - 所有调用都可能失败且受限流，重试归 retry.Policy 统一处理，
//     实现本身不做重试
//   - 返回列表按上游相关度排序（或无序，由调用方自行打分）
//   - 取消信号（context）必须透传给底层 HTTP 调用
type RemoteMusicSource interface {
	// SearchSongs 按关键词搜索歌曲。
	SearchSongs(ctx context.Context, query string, limit int) ([]Song, error)

	// TrendingSongs 返回地区热门歌曲。
	TrendingSongs(ctx context.Context, region string, limit int) ([]Song, error)

	// NewReleases 返回新发行歌曲。
	NewReleases(ctx context.Context, region string, limit int) ([]Song, error)

	// SongRecommendations 返回以 seedID 为种子的相似推荐。
	SongRecommendations(ctx context.Context, seedID string, limit int) ([]Song, error)

	// ArtistProfile 拉取艺人主页；browseIDHint 可为空。
	ArtistProfile(ctx context.Context, name, browseIDHint string) (*ArtistPage, error)

	// ArtistSongs 拉取艺人曲目列表（深翻召回用）。
	ArtistSongs(ctx context.Context, name, browseID string, limit int) ([]Song, error)

	// ArtistSection 拉取艺人主页某个区块的完整列表（more endpoint）。
	ArtistSection(ctx context.Context, browseID, section string, params string) ([]Song, error)
}

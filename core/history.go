package core

import "context"

// CompletionStats 是全局完播聚合。
type CompletionStats struct {
	TotalPlays     int
	CompletedPlays int
}

// Rate 返回完播率 [0,1]，无播放记录时为 0。
func (s CompletionStats) Rate() float64 {
	if s.TotalPlays <= 0 {
		return 0
	}
	return float64(s.CompletedPlays) / float64(s.TotalPlays)
}

// PlaybackHistoryStore 是播放历史的领域接口。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（history）实现
//   - 返回的都是派生聚合，原始流水不跨越此边界
//   - 所有查询都是网络/磁盘挂起点，必须带 context
//
// 实现：
//   - history.MemoryStore 实现此接口（参考实现，测试/原型用）
//   - 移动端的 SQLite 存储等也可以实现此接口
type PlaybackHistoryStore interface {
	// TopArtistsByPlayCount 按播放次数降序返回前 n 位艺人。
	TopArtistsByPlayCount(ctx context.Context, n int) ([]ArtistPlayCount, error)

	// PlaybackByHour 返回 24 小时播放直方图（本地小时 → 次数）。
	PlaybackByHour(ctx context.Context) (map[int]int, error)

	// CompletionStats 返回全局完播聚合。
	CompletionStats(ctx context.Context) (CompletionStats, error)

	// AveragePlayDurationMs 返回平均单次播放时长（毫秒）。
	AveragePlayDurationMs(ctx context.Context) (int64, error)

	// RecentSongIDs 按最近播放时间降序返回前 n 个歌曲 ID（去重）。
	RecentSongIDs(ctx context.Context, n int) ([]string, error)

	// AllPlayedSongIDs 返回历史上播放过的全部歌曲 ID 集合。
	AllPlayedSongIDs(ctx context.Context) (map[string]struct{}, error)

	// SkippedArtists 返回被频繁跳过的艺人集合（已规范化小写）。
	SkippedArtists(ctx context.Context) (map[string]struct{}, error)

	// ListenAgainRawStats 返回 Listen-Again 引擎所需的单曲原始聚合行。
	// since* 是各窗口的起点（epoch 毫秒）；utcOffsetMs 用于把播放时间折算到
	// 用户本地时段标签。
	ListenAgainRawStats(ctx context.Context, since90d, since30d, since7d, utcOffsetMs int64) ([]RawListenStats, error)

	// RediscoveryCandidates 返回"曾经常听、近期沉寂"的前 n 首歌曲 ID，
	// 作为种子推荐的备选。
	RediscoveryCandidates(ctx context.Context, n int) ([]string, error)
}

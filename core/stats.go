package core

import "strings"

// PlaybackEvent 是播放流水中的一行：由播放端在切歌/点赞时写入，写后不可变。
// 历史存储会按 MaxHistoryRows 从最旧开始裁剪。
type PlaybackEvent struct {
	SongID           string
	Title            string
	Artist           string
	ThumbnailURL     string
	PlayedAtMs       int64 // epoch 毫秒
	PlayDurationSec  int
	TotalDurationSec int
	Completed        bool
}

// ItemStats 是单曲在滚动窗口上的聚合，按请求即时计算、从不落盘。
// TimeOfDay / DayOfWeek 是标签频次表（由 ParseDistribution 从原始串折出）。
type ItemStats struct {
	SongID               string
	Title                string
	Artist               string
	ThumbnailURL         string
	LastPlayedAtMs       int64
	PlayCount90d         int
	PlayCount30d         int
	PlayCount7d          int
	PlayCount7dPrior     int // 上一个 7 天窗口，用于趋势对比
	CompletedCount       int
	TotalPlays           int
	SkipCount30d         int
	QualifiedListenCount int // 播放时长达标的次数
	TimeOfDay            map[string]int
	DayOfWeek            map[string]int
}

// RawListenStats 是 PlaybackHistoryStore 返回的 Listen-Again 原始行：
// 分布字段是 '|' 分隔的标签串（如 "morning|morning|evening"），由引擎侧解析。
type RawListenStats struct {
	SongID               string
	Title                string
	Artist               string
	ThumbnailURL         string
	LastPlayedAtMs       int64
	PlayCount90d         int
	PlayCount30d         int
	PlayCount7d          int
	PlayCount7dPrior     int
	CompletedCount       int
	TotalPlays           int
	SkipCount30d         int
	QualifiedListenCount int
	TimeOfDayRaw         string
	DayOfWeekRaw         string
}

// Stats 将原始行解析为 ItemStats（分布串折成频次表）。
func (r RawListenStats) Stats() ItemStats {
	return ItemStats{
		SongID:               r.SongID,
		Title:                r.Title,
		Artist:               r.Artist,
		ThumbnailURL:         r.ThumbnailURL,
		LastPlayedAtMs:       r.LastPlayedAtMs,
		PlayCount90d:         r.PlayCount90d,
		PlayCount30d:         r.PlayCount30d,
		PlayCount7d:          r.PlayCount7d,
		PlayCount7dPrior:     r.PlayCount7dPrior,
		CompletedCount:       r.CompletedCount,
		TotalPlays:           r.TotalPlays,
		SkipCount30d:         r.SkipCount30d,
		QualifiedListenCount: r.QualifiedListenCount,
		TimeOfDay:            ParseDistribution(r.TimeOfDayRaw),
		DayOfWeek:            ParseDistribution(r.DayOfWeekRaw),
	}
}

// Song 从聚合行还原歌曲元数据（推荐输出复用历史里的缩略图等字段）。
func (s ItemStats) Song() Song {
	return Song{
		ID:           s.SongID,
		Title:        s.Title,
		Artist:       s.Artist,
		ThumbnailURL: s.ThumbnailURL,
	}
}

// ParseDistribution 将 '|' 分隔的标签串折成频次表。
// 逐段 trim，空段丢弃；空串/纯分隔串得到空表（非 nil 以便直接取用）。
func ParseDistribution(raw string) map[string]int {
	dist := make(map[string]int)
	for _, tok := range strings.Split(raw, "|") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		dist[tok]++
	}
	return dist
}

// PeakLabel 返回频次表中计数最高的标签；平局取字典序最小，保证确定性。
func PeakLabel(dist map[string]int) string {
	peak := ""
	max := 0
	for label, n := range dist {
		if n > max || (n == max && (peak == "" || label < peak)) {
			peak = label
			max = n
		}
	}
	return peak
}

// TimeOfDayBucket 将小时映射到时段标签，与历史聚合使用同一套标签。
func TimeOfDayBucket(hour int) string {
	switch {
	case hour >= 5 && hour < 11:
		return "morning"
	case hour >= 11 && hour < 17:
		return "afternoon"
	case hour >= 17 && hour < 23:
		return "evening"
	default:
		return "night"
	}
}

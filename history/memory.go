// Package history 提供 core.PlaybackHistoryStore 的进程内参考实现。
//
// 播放流水是有界日志：超过 MaxRows 时从最旧开始裁剪。
// 所有查询返回派生聚合，窗口语义与移动端的 SQL 聚合保持一致。
package history

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tunelab/feedkit/core"
)

const (
	// MaxRows 是流水的最大行数，超出后最旧的行被裁掉。
	MaxRows = 2000

	// QualifiedListenSec 是"有效收听"的最小播放时长。
	QualifiedListenSec = 30

	// SkipThresholdSec 以内且未完播的行记为一次跳过。
	SkipThresholdSec = 10

	// skippedArtistMinSkips 是进入反偏好集合的最小跳过次数。
	skippedArtistMinSkips = 3
)

// MemoryStore 是内存播放历史，多个并发读写方安全。
type MemoryStore struct {
	mu        sync.RWMutex
	events    []core.PlaybackEvent
	utcOffset time.Duration // 本地时段标签用的偏移
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Record 追加一行播放流水；写后不可变。超界时最旧的行被裁剪。
func (s *MemoryStore) Record(ev core.PlaybackEvent) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > MaxRows {
		s.events = s.events[len(s.events)-MaxRows:]
	}
	s.mu.Unlock()
}

// SetUTCOffset 设置本地时段标签的偏移（默认 UTC）。
func (s *MemoryStore) SetUTCOffset(d time.Duration) {
	s.mu.Lock()
	s.utcOffset = d
	s.mu.Unlock()
}

func (s *MemoryStore) snapshot() []core.PlaybackEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.PlaybackEvent, len(s.events))
	copy(out, s.events)
	return out
}

func qualified(ev core.PlaybackEvent) bool {
	return ev.Completed || ev.PlayDurationSec >= QualifiedListenSec
}

func skipped(ev core.PlaybackEvent) bool {
	return !ev.Completed && ev.PlayDurationSec < SkipThresholdSec
}

func (s *MemoryStore) TopArtistsByPlayCount(ctx context.Context, n int) ([]core.ArtistPlayCount, error) {
	counts := make(map[string]int)
	display := make(map[string]string)
	for _, ev := range s.snapshot() {
		key := core.CanonicalArtistName(ev.Artist)
		if key == "" {
			continue
		}
		counts[key]++
		if _, ok := display[key]; !ok {
			display[key] = ev.Artist
		}
	}

	out := make([]core.ArtistPlayCount, 0, len(counts))
	for key, c := range counts {
		out = append(out, core.ArtistPlayCount{Artist: display[key], PlayCount: c})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].PlayCount != out[j].PlayCount {
			return out[i].PlayCount > out[j].PlayCount
		}
		return out[i].Artist < out[j].Artist
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (s *MemoryStore) PlaybackByHour(ctx context.Context) (map[int]int, error) {
	s.mu.RLock()
	offset := s.utcOffset
	s.mu.RUnlock()

	hist := make(map[int]int)
	for _, ev := range s.snapshot() {
		h := time.UnixMilli(ev.PlayedAtMs).UTC().Add(offset).Hour()
		hist[h]++
	}
	return hist, nil
}

func (s *MemoryStore) CompletionStats(ctx context.Context) (core.CompletionStats, error) {
	var stats core.CompletionStats
	for _, ev := range s.snapshot() {
		stats.TotalPlays++
		if ev.Completed {
			stats.CompletedPlays++
		}
	}
	return stats, nil
}

func (s *MemoryStore) AveragePlayDurationMs(ctx context.Context) (int64, error) {
	events := s.snapshot()
	if len(events) == 0 {
		return 0, nil
	}
	var total int64
	for _, ev := range events {
		total += int64(ev.PlayDurationSec) * 1000
	}
	return total / int64(len(events)), nil
}

func (s *MemoryStore) RecentSongIDs(ctx context.Context, n int) ([]string, error) {
	events := s.snapshot()
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].PlayedAtMs > events[j].PlayedAtMs
	})

	seen := make(map[string]struct{}, len(events))
	out := make([]string, 0, n)
	for _, ev := range events {
		if _, ok := seen[ev.SongID]; ok {
			continue
		}
		seen[ev.SongID] = struct{}{}
		out = append(out, ev.SongID)
		if n > 0 && len(out) >= n {
			break
		}
	}
	return out, nil
}

func (s *MemoryStore) AllPlayedSongIDs(ctx context.Context) (map[string]struct{}, error) {
	out := make(map[string]struct{})
	for _, ev := range s.snapshot() {
		if ev.SongID != "" {
			out[ev.SongID] = struct{}{}
		}
	}
	return out, nil
}

func (s *MemoryStore) SkippedArtists(ctx context.Context) (map[string]struct{}, error) {
	skips := make(map[string]int)
	listens := make(map[string]int)
	for _, ev := range s.snapshot() {
		key := core.CanonicalArtistName(ev.Artist)
		if key == "" {
			continue
		}
		if skipped(ev) {
			skips[key]++
		} else if qualified(ev) {
			listens[key]++
		}
	}

	out := make(map[string]struct{})
	for key, n := range skips {
		// 跳过次数达标且多于有效收听才算反偏好，避免误伤常听艺人
		if n >= skippedArtistMinSkips && n > listens[key] {
			out[key] = struct{}{}
		}
	}
	return out, nil
}

func (s *MemoryStore) ListenAgainRawStats(ctx context.Context, since90d, since30d, since7d, utcOffsetMs int64) ([]core.RawListenStats, error) {
	offset := time.Duration(utcOffsetMs) * time.Millisecond
	prior7dStart := since7d - 7*24*3600*1000 // 上一个 7 天窗口的起点

	byID := make(map[string]*core.RawListenStats)
	order := make([]string, 0)

	for _, ev := range s.snapshot() {
		if ev.SongID == "" {
			continue
		}
		row, ok := byID[ev.SongID]
		if !ok {
			row = &core.RawListenStats{
				SongID:       ev.SongID,
				Title:        ev.Title,
				Artist:       ev.Artist,
				ThumbnailURL: ev.ThumbnailURL,
			}
			byID[ev.SongID] = row
			order = append(order, ev.SongID)
		}

		row.TotalPlays++
		if ev.PlayedAtMs > row.LastPlayedAtMs {
			row.LastPlayedAtMs = ev.PlayedAtMs
		}
		if ev.Completed {
			row.CompletedCount++
		}
		if ev.PlayedAtMs >= since90d {
			row.PlayCount90d++
		}
		if ev.PlayedAtMs >= since30d {
			row.PlayCount30d++
			if skipped(ev) {
				row.SkipCount30d++
			}
		}
		if ev.PlayedAtMs >= since7d {
			row.PlayCount7d++
		} else if ev.PlayedAtMs >= prior7dStart {
			row.PlayCount7dPrior++
		}

		if qualified(ev) {
			row.QualifiedListenCount++
			local := time.UnixMilli(ev.PlayedAtMs).UTC().Add(offset)
			row.TimeOfDayRaw = appendLabel(row.TimeOfDayRaw, core.TimeOfDayBucket(local.Hour()))
			row.DayOfWeekRaw = appendLabel(row.DayOfWeekRaw, strings.ToLower(local.Weekday().String()))
		}
	}

	out := make([]core.RawListenStats, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	return out, nil
}

func (s *MemoryStore) RediscoveryCandidates(ctx context.Context, n int) ([]string, error) {
	type agg struct {
		id     string
		plays  int
		lastAt int64
	}
	byID := make(map[string]*agg)
	var latest int64

	for _, ev := range s.snapshot() {
		if ev.SongID == "" {
			continue
		}
		if ev.PlayedAtMs > latest {
			latest = ev.PlayedAtMs
		}
		a, ok := byID[ev.SongID]
		if !ok {
			a = &agg{id: ev.SongID}
			byID[ev.SongID] = a
		}
		a.plays++
		if ev.PlayedAtMs > a.lastAt {
			a.lastAt = ev.PlayedAtMs
		}
	}

	// 曾经常听（≥5 次）但最近 30 天沉寂的歌
	cutoff := latest - 30*24*3600*1000
	out := make([]*agg, 0)
	for _, a := range byID {
		if a.plays >= 5 && a.lastAt < cutoff {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].plays != out[j].plays {
			return out[i].plays > out[j].plays
		}
		return out[i].id < out[j].id
	})

	ids := make([]string, 0, n)
	for _, a := range out {
		ids = append(ids, a.id)
		if n > 0 && len(ids) >= n {
			break
		}
	}
	return ids, nil
}

func appendLabel(raw, label string) string {
	if raw == "" {
		return label
	}
	return raw + "|" + label
}

var _ core.PlaybackHistoryStore = (*MemoryStore)(nil)

package rank

import (
	"context"
	"math"
	"sort"

	"github.com/tunelab/feedkit/core"
)

// Listen-Again 引擎的打分参数。
const (
	// ListenAgainMinQualified 入围门槛：有效收听次数下限。
	ListenAgainMinQualified = 2
	// ListenAgainWindowDays 入围门槛：最近一次播放须落在该窗口内。
	ListenAgainWindowDays = 90

	// RecencyHalfLifeDays 新近度半衰期：每过 14 天新近度减半。
	RecencyHalfLifeDays = 14.0
	// FrequencySaturation 频次饱和点：30 天内 16 次播放即拿满频次分，
	// 防止单曲循环用户的榜单被一首歌屠榜。
	FrequencySaturation = 16.0

	// ListenAgainArtistCap 同一艺人在结果中最多出现的次数。
	ListenAgainArtistCap = 2
)

// Listen-Again 各分量权重：新近为主，频次次之，完播与时段小幅加成。
const (
	weightRecency    = 0.45
	weightFrequency  = 0.25
	weightCompletion = 0.20
	weightContext    = 0.10
)

// ListenAgainEngine 从播放历史生成"再听一次"榜单：
// 挑出用户反复有效收听、且近期还在听的歌，按新近度/频次/完播率/
// 时段契合度加权打分。
//
// 纯历史驱动，不依赖远端接口，离线也能出结果。
type ListenAgainEngine struct {
	History core.PlaybackHistoryStore
}

// Build 返回打分排序后的候选（SourceFamiliar），同一艺人至多
// ListenAgainArtistCap 首，超额跳过而非重排。
func (e *ListenAgainEngine) Build(
	ctx context.Context,
	fc *core.FeedContext,
	limit int,
) ([]*core.Candidate, error) {
	if e.History == nil || fc == nil || limit <= 0 {
		return nil, nil
	}

	nowMs := fc.Now.UnixMilli()
	_, offSec := fc.Now.Zone()
	raws, err := e.History.ListenAgainRawStats(ctx,
		nowMs-dayMs(90), nowMs-dayMs(30), nowMs-dayMs(7), int64(offSec)*1000)
	if err != nil {
		return nil, err
	}

	scored := make([]*core.Candidate, 0, len(raws))
	for _, raw := range raws {
		st := raw.Stats()
		if !eligible(st, nowMs) {
			continue
		}
		c := core.NewCandidate(st.Song(), core.SourceFamiliar, 0)
		c.SourceScore = e.score(fc, st, nowMs)
		c.Score = c.SourceScore
		scored = append(scored, c)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	out := make([]*core.Candidate, 0, limit)
	perArtist := make(map[string]int)
	for _, c := range scored {
		if len(out) >= limit {
			break
		}
		key := c.ArtistKey()
		if perArtist[key] >= ListenAgainArtistCap {
			continue
		}
		perArtist[key]++
		out = append(out, c)
	}
	return out, nil
}

// Rank 实现 recall.ListenAgainRanker，供召回熟悉池复用同一套打分。
func (e *ListenAgainEngine) Rank(
	ctx context.Context,
	fc *core.FeedContext,
	limit int,
) ([]core.Song, error) {
	cands, err := e.Build(ctx, fc, limit)
	if err != nil {
		return nil, err
	}
	songs := make([]core.Song, 0, len(cands))
	for _, c := range cands {
		songs = append(songs, c.Song)
	}
	return songs, nil
}

// eligible 判断单曲是否入围：有效收听达标且最近 90 天内听过。
func eligible(st core.ItemStats, nowMs int64) bool {
	if st.QualifiedListenCount < ListenAgainMinQualified {
		return false
	}
	return nowMs-st.LastPlayedAtMs <= dayMs(ListenAgainWindowDays)
}

// score 计算单曲的 Listen-Again 分：
//
//	recency    = 0.5^(距上次播放天数 / 半衰期)
//	frequency  = log2(1 + plays30d) / log2(1 + 饱和点)，封顶 1
//	completion = 完播次数 / 总播放次数
//	context    = 峰值时段/星期与当前请求的契合度
func (e *ListenAgainEngine) score(fc *core.FeedContext, st core.ItemStats, nowMs int64) float64 {
	days := float64(nowMs-st.LastPlayedAtMs) / float64(dayMs(1))
	if days < 0 {
		days = 0
	}
	recency := math.Pow(0.5, days/RecencyHalfLifeDays)

	frequency := math.Log2(1+float64(st.PlayCount30d)) / math.Log2(1+FrequencySaturation)
	if frequency > 1 {
		frequency = 1
	}

	completion := 0.0
	if st.TotalPlays > 0 {
		completion = float64(st.CompletedCount) / float64(st.TotalPlays)
	}

	bonus := 0.0
	if core.PeakLabel(st.TimeOfDay) == fc.TimeOfDay() {
		bonus += 0.6
	}
	if core.PeakLabel(st.DayOfWeek) == fc.DayOfWeek() {
		bonus += 0.4
	}

	return weightRecency*recency +
		weightFrequency*frequency +
		weightCompletion*completion +
		weightContext*bonus
}

func dayMs(days int) int64 {
	return int64(days) * 24 * 3600 * 1000
}

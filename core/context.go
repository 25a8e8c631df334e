package core

import (
	"time"

	"github.com/tunelab/feedkit/pkg/utils"
)

// FeedContext 承载一次推荐构建的用户/场景信息，贯穿整个 Pipeline 透传。
//
// Now 由调用方注入（而非各节点自取墙钟），保证同一次构建内
// 时段判断、TTL 桶、会话种子一致，也让测试不必 mock 系统时钟。
type FeedContext struct {
	Now    time.Time
	Region Region

	// Taste 是本次请求重建的口味画像；冷启动用户为空画像而非 nil
	Taste *TasteProfile

	// PlayedIDs / BlockedArtists 是反偏好信号：
	// 已播歌曲 ID 集合与被跳过艺人集合（规范化小写）
	PlayedIDs      map[string]struct{}
	BlockedArtists map[string]struct{}

	// Labels 是请求级标签，可驱动 Pipeline 行为（如新用户降权熟悉池）
	Labels map[string]utils.Label

	// Params 请求级参数：limit、seed 等
	Params map[string]any
}

// TimeOfDay 返回当前时刻的时段标签（与历史聚合同一套标签）。
func (fc *FeedContext) TimeOfDay() string {
	return TimeOfDayBucket(fc.Now.Hour())
}

// DayOfWeek 返回当前星期标签（小写英文，与历史聚合一致）。
func (fc *FeedContext) DayOfWeek() string {
	switch fc.Now.Weekday() {
	case time.Sunday:
		return "sunday"
	case time.Monday:
		return "monday"
	case time.Tuesday:
		return "tuesday"
	case time.Wednesday:
		return "wednesday"
	case time.Thursday:
		return "thursday"
	case time.Friday:
		return "friday"
	default:
		return "saturday"
	}
}

// Played 判断歌曲是否已在历史中出现过。
func (fc *FeedContext) Played(songID string) bool {
	if fc == nil || fc.PlayedIDs == nil {
		return false
	}
	_, ok := fc.PlayedIDs[songID]
	return ok
}

// ArtistBlocked 判断艺人是否在反偏好集合中（入参无需预先规范化）。
func (fc *FeedContext) ArtistBlocked(artist string) bool {
	if fc == nil || fc.BlockedArtists == nil {
		return false
	}
	_, ok := fc.BlockedArtists[CanonicalArtistName(artist)]
	return ok
}

// PutLabel 写入请求级 Label。
func (fc *FeedContext) PutLabel(key string, lbl utils.Label) {
	if fc.Labels == nil {
		fc.Labels = make(map[string]utils.Label)
	}
	if old, ok := fc.Labels[key]; ok {
		fc.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	fc.Labels[key] = lbl
}

// GetLabel 获取请求级 Label。
func (fc *FeedContext) GetLabel(key string) (utils.Label, bool) {
	if fc.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := fc.Labels[key]
	return lbl, ok
}

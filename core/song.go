package core

import "strings"

// Song 是推荐链路中的统一歌曲承载结构，字段来自上游音乐 API 的元数据。
// ViewCount 用于折算发现池分数；Language 用于口味匹配。
type Song struct {
	ID           string
	Title        string
	Artist       string
	Album        string
	ThumbnailURL string
	DurationSec  int
	ViewCount    int64
	Language     string
	BrowseID     string // 上游 artist/album 浏览 ID，可为空
}

// CanonicalArtistName 规范化艺人名：trim、压缩连续空白、小写。
// 幂等：CanonicalArtistName(CanonicalArtistName(s)) == CanonicalArtistName(s)。
// 所有缓存 key 与去重集合都必须使用规范化后的名字，保证等价查询命中同一条目。
func CanonicalArtistName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// NameKey 构建艺人名维度的缓存 key（"name:" 前缀）。
func NameKey(name string) string {
	return "name:" + CanonicalArtistName(name)
}

// BrowseKey 构建 browseId 维度的缓存 key（"browse:" 前缀）。
// 当 name 与 browseId 同时存在时，browse key 优先。
func BrowseKey(browseID string) string {
	return "browse:" + strings.TrimSpace(browseID)
}

// PrimaryArtistKey 返回读路径使用的首选 key：有 browseId 用 browse key，否则 name key。
// 两者都为空时返回空串（调用方按 INVALID_INPUT 处理）。
func PrimaryArtistKey(name, browseID string) string {
	if strings.TrimSpace(browseID) != "" {
		return BrowseKey(browseID)
	}
	if CanonicalArtistName(name) == "" {
		return ""
	}
	return NameKey(name)
}

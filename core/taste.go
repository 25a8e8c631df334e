package core

// ListeningPattern 是从播放小时直方图归纳出的收听习惯。
type ListeningPattern string

const (
	PatternMorning ListeningPattern = "morning" // 5-11 点为主
	PatternDaytime ListeningPattern = "daytime" // 11-17 点为主
	PatternEvening ListeningPattern = "evening" // 17-23 点为主
	PatternNight   ListeningPattern = "night"   // 23-5 点为主
	PatternMixed   ListeningPattern = "mixed"   // 无明显峰值
)

// ArtistPlayCount 是历史聚合的（艺人，播放次数）对，按次数降序返回。
type ArtistPlayCount struct {
	Artist    string
	PlayCount int
}

// TasteProfile 是用户口味画像 = 推荐链路的"全局上下文 + 决策信号"。
//
// 它不是某一个 Node，而是：
//   - 被召回源与排序阶段共享
//   - 驱动候选打分（艺人/流派/语言匹配）
//   - 每次请求由 taste.Builder 基于当前聚合重建，本身不做跨请求缓存
type TasteProfile struct {
	TopArtists         []ArtistPlayCount // 按播放次数降序
	TopGenres          []string          // 由 TopArtists 经静态流派表推断
	PreferredLanguages []string          // 按出现频次降序
	Pattern            ListeningPattern
	CompletionRate     float64 // [0,1]
	AvgSessionMs       int64
	TopSearchQueries   []string // 发现池的种子搜索词
}

// HasArtist 判断规范化后的艺人名是否在 TopArtists 中。
func (p *TasteProfile) HasArtist(canonical string) bool {
	if p == nil {
		return false
	}
	for _, a := range p.TopArtists {
		if CanonicalArtistName(a.Artist) == canonical {
			return true
		}
	}
	return false
}

// HasGenre 判断流派是否在 TopGenres 中。
func (p *TasteProfile) HasGenre(genre string) bool {
	if p == nil || genre == "" {
		return false
	}
	for _, g := range p.TopGenres {
		if g == genre {
			return true
		}
	}
	return false
}

// HasLanguage 判断语言是否在偏好语言中。
func (p *TasteProfile) HasLanguage(lang string) bool {
	if p == nil || lang == "" {
		return false
	}
	for _, l := range p.PreferredLanguages {
		if l == lang {
			return true
		}
	}
	return false
}

// GenreLookup 是静态"艺人 → 流派标签"查表的抽象。
// 这是一份有版本的参考数据而非代码：多个打分引擎共享同一个注入实例，
// 不允许在引擎内重复字面量表。
type GenreLookup interface {
	// GenresFor 返回艺人的流派标签，未知艺人返回 nil。
	// 入参无需预先规范化，实现负责 CanonicalArtistName。
	GenresFor(artist string) []string
}

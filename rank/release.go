package rank

import (
	"sort"

	"github.com/tunelab/feedkit/core"
)

// ReleaseEngine 对新发行/热门榜做轻量个性化：远端给的是地区通用榜，
// 这里按用户画像重排，不做召回。打分只看元数据，不查历史流水。
type ReleaseEngine struct {
	Genres core.GenreLookup // 可为 nil，nil 时不做流派加成
}

// 个性化加成幅度。基础分来自榜单位次（位次越靠前越高），
// 加成只调整相对顺序，不会把末位直接顶到榜首。
const (
	releaseArtistBoost   = 0.30
	releaseGenreBoost    = 0.15
	releaseLanguageBoost = 0.10
)

// Personalize 个性化重排：
//   - 丢弃已播与被跳过艺人的歌曲
//   - 画像命中的艺人/流派/语言加成
//   - 稳定排序后截断到 limit
//
// 空画像时保持榜单原序（基础分单调递减，加成全为 0）。
// 入参为空直接返回空切片，这是合法结果而非错误。
func (e *ReleaseEngine) Personalize(
	fc *core.FeedContext,
	songs []core.Song,
	limit int,
) []core.Song {
	if len(songs) == 0 || limit <= 0 {
		return []core.Song{}
	}

	var taste *core.TasteProfile
	if fc != nil {
		taste = fc.Taste
	}

	type scored struct {
		song  core.Song
		score float64
	}
	pool := make([]scored, 0, len(songs))
	for i, s := range songs {
		if s.ID == "" || (fc != nil && fc.Played(s.ID)) {
			continue
		}
		if fc != nil && fc.ArtistBlocked(s.Artist) {
			continue
		}

		// 位次基础分：榜首 1.0，线性衰减到末位 0.5
		base := 1.0 - 0.5*float64(i)/float64(len(songs))
		if taste != nil {
			if taste.HasArtist(core.CanonicalArtistName(s.Artist)) {
				base += releaseArtistBoost
			}
			if e.Genres != nil {
				for _, g := range e.Genres.GenresFor(s.Artist) {
					if taste.HasGenre(g) {
						base += releaseGenreBoost
						break
					}
				}
			}
			if s.Language != "" && taste.HasLanguage(s.Language) {
				base += releaseLanguageBoost
			}
		}
		pool = append(pool, scored{song: s, score: base})
	}

	sort.SliceStable(pool, func(i, j int) bool {
		return pool[i].score > pool[j].score
	})

	if len(pool) > limit {
		pool = pool[:limit]
	}
	out := make([]core.Song, 0, len(pool))
	for _, sc := range pool {
		out = append(out, sc.song)
	}
	return out
}

package taste

import "github.com/tunelab/feedkit/core"

// GenreDataVersion 标记静态艺人→流派表的数据版本。
// 这是参考数据而非代码：更新时只改表和版本号，多个打分引擎共享同一实例。
const GenreDataVersion = "2025-07"

// artistGenres 是艺人 → 流派标签的静态查表（key 已规范化）。
var artistGenres = map[string][]string{
	"arijit singh":       {"bollywood", "romantic"},
	"shreya ghoshal":     {"bollywood", "playback"},
	"a r rahman":         {"bollywood", "soundtrack"},
	"pritam":             {"bollywood", "pop"},
	"atif aslam":         {"bollywood", "pop-rock"},
	"anirudh ravichander": {"kollywood", "dance"},
	"badshah":            {"desi-hip-hop", "party"},
	"divine":             {"desi-hip-hop", "rap"},
	"diljit dosanjh":     {"punjabi", "pop"},
	"ap dhillon":         {"punjabi", "hip-hop"},
	"taylor swift":       {"pop", "country-pop"},
	"ed sheeran":         {"pop", "singer-songwriter"},
	"the weeknd":         {"rnb", "synth-pop"},
	"billie eilish":      {"alt-pop", "electropop"},
	"dua lipa":           {"pop", "dance-pop"},
	"ariana grande":      {"pop", "rnb"},
	"drake":              {"hip-hop", "rap"},
	"kendrick lamar":     {"hip-hop", "rap"},
	"eminem":             {"hip-hop", "rap"},
	"travis scott":       {"hip-hop", "trap"},
	"bts":                {"k-pop", "dance"},
	"blackpink":          {"k-pop", "dance"},
	"newjeans":           {"k-pop", "rnb"},
	"stray kids":         {"k-pop", "hip-hop"},
	"bad bunny":          {"reggaeton", "latin-trap"},
	"karol g":            {"reggaeton", "latin-pop"},
	"coldplay":           {"alt-rock", "pop-rock"},
	"imagine dragons":    {"pop-rock", "arena-rock"},
	"arctic monkeys":     {"indie-rock", "alt-rock"},
	"linkin park":        {"nu-metal", "rock"},
	"metallica":          {"metal", "thrash"},
	"daft punk":          {"electronic", "house"},
	"calvin harris":      {"edm", "dance-pop"},
	"marshmello":         {"edm", "future-bass"},
	"avicii":             {"edm", "progressive-house"},
	"frank sinatra":      {"jazz", "traditional-pop"},
	"norah jones":        {"jazz", "soul"},
	"ludovico einaudi":   {"modern-classical", "piano"},
	"hans zimmer":        {"soundtrack", "orchestral"},
	"yoasobi":            {"j-pop", "electropop"},
	"kenshi yonezu":      {"j-pop", "rock"},
	"jay chou":           {"mandopop", "rnb"},
}

// genreLanguage 是流派标签 → 主要语言的推断表。
var genreLanguage = map[string]string{
	"bollywood":    "hi",
	"playback":     "hi",
	"kollywood":    "ta",
	"desi-hip-hop": "hi",
	"punjabi":      "pa",
	"k-pop":        "ko",
	"j-pop":        "ja",
	"mandopop":     "zh",
	"reggaeton":    "es",
	"latin-trap":   "es",
	"latin-pop":    "es",
}

// StaticGenreLookup 是 core.GenreLookup 的内置实现，包一层静态表。
type StaticGenreLookup struct {
	table map[string][]string
}

// NewGenreLookup 返回内置数据版本的查表实例。
func NewGenreLookup() *StaticGenreLookup {
	return &StaticGenreLookup{table: artistGenres}
}

// NewGenreLookupWithTable 用自定义表构建（测试/数据热更新用）。
func NewGenreLookupWithTable(table map[string][]string) *StaticGenreLookup {
	return &StaticGenreLookup{table: table}
}

func (l *StaticGenreLookup) GenresFor(artist string) []string {
	return l.table[core.CanonicalArtistName(artist)]
}

// LanguageForGenres 返回流派集合推断出的首个语言标签，无法推断返回空。
func LanguageForGenres(genres []string) string {
	for _, g := range genres {
		if lang, ok := genreLanguage[g]; ok {
			return lang
		}
	}
	return ""
}

var _ core.GenreLookup = (*StaticGenreLookup)(nil)

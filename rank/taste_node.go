package rank

import (
	"context"
	"sort"

	"github.com/tunelab/feedkit/core"
	"github.com/tunelab/feedkit/model"
	"github.com/tunelab/feedkit/pipeline"
	"github.com/tunelab/feedkit/pkg/utils"
)

// 口味打分的特征名。召回阶段写好 SourceScore，其余三个匹配特征
// 由本节点对照画像现算。
const (
	FeatSourceScore   = "source_score"
	FeatGenreMatch    = "genre_match"
	FeatArtistMatch   = "artist_match"
	FeatLanguageMatch = "language_match"
)

// DefaultTasteWeights 是口味打分的默认权重：召回质量占大头，
// 流派、艺人、语言匹配依次递减。
func DefaultTasteWeights() map[string]float64 {
	return map[string]float64{
		FeatSourceScore:   0.45,
		FeatGenreMatch:    0.25,
		FeatArtistMatch:   0.20,
		FeatLanguageMatch: 0.10,
	}
}

// TasteNode 是口味排序节点：抽取候选与画像的匹配特征，交给 RankModel
// 打分后按分数稳定降序排列。
// - 写入 labels：rank_model
// - 更新 item.Score 与 item.Features
type TasteNode struct {
	Model  model.RankModel
	Genres core.GenreLookup // 候选未携带流派时按艺人查表补齐，可为 nil
}

// NewTasteNode 构造使用默认线性权重的排序节点。
func NewTasteNode(genres core.GenreLookup) *TasteNode {
	return &TasteNode{
		Model:  model.NewLinearModel(0, DefaultTasteWeights()),
		Genres: genres,
	}
}

func (n *TasteNode) Name() string        { return "rank.taste" }
func (n *TasteNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *TasteNode) Process(
	_ context.Context,
	fc *core.FeedContext,
	items []*core.Candidate,
) ([]*core.Candidate, error) {
	if n.Model == nil || len(items) == 0 {
		return items, nil
	}

	var taste *core.TasteProfile
	if fc != nil {
		taste = fc.Taste
	}

	for _, it := range items {
		if it == nil {
			continue
		}
		n.extract(taste, it)
		score, err := n.Model.Predict(it.Features)
		if err != nil {
			return nil, err
		}
		it.Score = score
		it.PutLabel("rank_model", utils.Label{Value: n.Model.Name(), Source: "rank"})
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i] == nil {
			return false
		}
		if items[j] == nil {
			return true
		}
		return items[i].Score > items[j].Score
	})
	return items, nil
}

// extract 把画像匹配情况写入候选的 Features。匹配特征都是 0/1，
// 冷启动（空画像）时全部为 0，排序退化为按召回分。
func (n *TasteNode) extract(taste *core.TasteProfile, it *core.Candidate) {
	if it.Features == nil {
		it.Features = make(map[string]float64, 4)
	}
	it.Features[FeatSourceScore] = it.SourceScore

	genre := it.Genre
	if genre == "" && n.Genres != nil {
		if gs := n.Genres.GenresFor(it.Song.Artist); len(gs) > 0 {
			genre = gs[0]
			it.Genre = genre
		}
	}

	it.Features[FeatGenreMatch] = 0
	it.Features[FeatArtistMatch] = 0
	it.Features[FeatLanguageMatch] = 0
	if taste == nil {
		return
	}
	if genre != "" && taste.HasGenre(genre) {
		it.Features[FeatGenreMatch] = 1
	}
	if taste.HasArtist(it.ArtistKey()) {
		it.Features[FeatArtistMatch] = 1
	}
	if it.Song.Language != "" && taste.HasLanguage(it.Song.Language) {
		it.Features[FeatLanguageMatch] = 1
	}
}

var _ pipeline.Node = (*TasteNode)(nil)

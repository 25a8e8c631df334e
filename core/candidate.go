package core

import "github.com/tunelab/feedkit/pkg/utils"

// CandidateSource 标记候选歌曲的来源池，决定熟悉/发现的拼装比例。
type CandidateSource string

const (
	SourceFamiliar           CandidateSource = "familiar"             // 来自用户自己的收听历史
	SourceSameArtistUnplayed CandidateSource = "same_artist_unplayed" // 常听艺人的未播深翻曲目
	SourceSimilarArtist      CandidateSource = "similar_artist"       // 种子歌曲的相似推荐
	SourceTrendingGenre      CandidateSource = "trending_genre"       // 地区热门
)

// Familiar 判断来源是否属于熟悉池。
func (s CandidateSource) Familiar() bool { return s == SourceFamiliar }

// Candidate 是推荐链路中的统一承载结构：歌曲、来源、特征、分数、标签。
// SourceScore 是召回源给出的池内分 [0,1]；Score 由排序阶段写入。
// Labels 用于解释与策略驱动，贯穿 Recall → Filter → Rank → ReRank 透传。
type Candidate struct {
	Song        Song
	Source      CandidateSource
	SourceScore float64
	Score       float64
	Genre       string // 由静态艺人→流派表推断，可为空
	Features    map[string]float64
	Labels      map[string]utils.Label
}

func NewCandidate(song Song, source CandidateSource, sourceScore float64) *Candidate {
	return &Candidate{
		Song:        song,
		Source:      source,
		SourceScore: sourceScore,
		Features:    make(map[string]float64),
		Labels:      make(map[string]utils.Label),
	}
}

// ArtistKey 返回规范化后的艺人名，用于多样性上限与反偏好集合比对。
func (c *Candidate) ArtistKey() string {
	return CanonicalArtistName(c.Song.Artist)
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (c *Candidate) PutLabel(key string, lbl utils.Label) {
	if c.Labels == nil {
		c.Labels = make(map[string]utils.Label)
	}
	if old, ok := c.Labels[key]; ok {
		c.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	c.Labels[key] = lbl
}

// DedupByID 按歌曲 ID 去重，保留第一个出现的候选。
// 最终输出列表的不变量：任意两个候选的 Song.ID 不相同。
func DedupByID(items []*Candidate) []*Candidate {
	seen := make(map[string]struct{}, len(items))
	out := make([]*Candidate, 0, len(items))
	for _, it := range items {
		if it == nil || it.Song.ID == "" {
			continue
		}
		if _, ok := seen[it.Song.ID]; ok {
			continue
		}
		seen[it.Song.ID] = struct{}{}
		out = append(out, it)
	}
	return out
}

package core

// RelatedArtist 是艺人主页中的相关艺人条目。
type RelatedArtist struct {
	Name         string
	BrowseID     string
	ThumbnailURL string
}

// SectionEndpoint 是艺人主页某区块"查看更多"的续拉参数。
type SectionEndpoint struct {
	Section  string // albums / singles / videos / featured_on
	BrowseID string
	Params   string
}

// ArtistPage 是聚合后的艺人主页。所有列表字段都已按条目 ID 去重。
//
// 生命周期：每次远端拉取成功后同时写入内存缓存与持久行
// （key 为 browse:<id> 与 name:<规范化名> 的扇出写，绝不只写一半）；
// 读路径为 内存新鲜 → 持久新鲜 → 远端 → 持久过期容忍 → 内存过期容忍 → 失败。
// IsStale 通过 copy-on-read 置位，存储条目本身的时间戳从不被改写。
type ArtistPage struct {
	Name           string
	BrowseID       string
	ImageURLs      []string
	Bio            string
	TopSongs       []Song
	Albums         []Song
	Singles        []Song
	Videos         []Song
	FeaturedOn     []Song
	RelatedArtists []RelatedArtist
	MoreEndpoints  []SectionEndpoint
	IsStale        bool
}

// Clone 返回浅层字段的拷贝，列表共享底层数组。
// 过期容忍路径用它置位 IsStale，避免改写缓存里的原值。
func (p *ArtistPage) Clone() *ArtistPage {
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}

// DedupLists 对所有列表字段按条目 ID 去重（首次出现保留）。
// 远端响应的各区块可能互相重叠，入缓存前统一收敛。
func (p *ArtistPage) DedupLists() {
	if p == nil {
		return
	}
	p.TopSongs = dedupSongs(p.TopSongs)
	p.Albums = dedupSongs(p.Albums)
	p.Singles = dedupSongs(p.Singles)
	p.Videos = dedupSongs(p.Videos)
	p.FeaturedOn = dedupSongs(p.FeaturedOn)

	seen := make(map[string]struct{}, len(p.RelatedArtists))
	related := make([]RelatedArtist, 0, len(p.RelatedArtists))
	for _, r := range p.RelatedArtists {
		key := r.BrowseID
		if key == "" {
			key = CanonicalArtistName(r.Name)
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		related = append(related, r)
	}
	p.RelatedArtists = related
}

func dedupSongs(songs []Song) []Song {
	if len(songs) == 0 {
		return songs
	}
	seen := make(map[string]struct{}, len(songs))
	out := make([]Song, 0, len(songs))
	for _, s := range songs {
		if s.ID == "" {
			out = append(out, s)
			continue
		}
		if _, ok := seen[s.ID]; ok {
			continue
		}
		seen[s.ID] = struct{}{}
		out = append(out, s)
	}
	return out
}

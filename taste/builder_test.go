package taste

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tunelab/feedkit/core"
	"github.com/tunelab/feedkit/feature"
)

// stubHistory 按字段返回固定聚合。
type stubHistory struct {
	core.PlaybackHistoryStore
	topArtists []core.ArtistPlayCount
	hourHist   map[int]int
	completion core.CompletionStats
	avgMs      int64
	err        error
}

func (s *stubHistory) TopArtistsByPlayCount(_ context.Context, n int) ([]core.ArtistPlayCount, error) {
	return s.topArtists, s.err
}

func (s *stubHistory) PlaybackByHour(_ context.Context) (map[int]int, error) {
	return s.hourHist, s.err
}

func (s *stubHistory) CompletionStats(_ context.Context) (core.CompletionStats, error) {
	return s.completion, s.err
}

func (s *stubHistory) AveragePlayDurationMs(_ context.Context) (int64, error) {
	return s.avgMs, s.err
}

func TestBuildProfile(t *testing.T) {
	hist := &stubHistory{
		topArtists: []core.ArtistPlayCount{
			{Artist: "Arijit Singh", PlayCount: 40},
			{Artist: "BTS", PlayCount: 25},
			{Artist: "Unknown Garage Band", PlayCount: 10},
		},
		hourHist:   map[int]int{8: 10, 9: 35, 20: 5},
		completion: core.CompletionStats{TotalPlays: 10, CompletedPlays: 8},
		avgMs:      180000,
	}
	b := &Builder{History: hist, Genres: NewGenreLookup(), Logger: zerolog.Nop()}

	p, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if p.Pattern != core.PatternMorning {
		t.Fatalf("pattern = %s, want morning", p.Pattern)
	}
	if p.CompletionRate != 0.8 {
		t.Fatalf("completion = %v, want 0.8", p.CompletionRate)
	}
	wantGenres := []string{"bollywood", "romantic", "k-pop", "dance"}
	if !reflect.DeepEqual(p.TopGenres, wantGenres) {
		t.Fatalf("genres = %v, want %v", p.TopGenres, wantGenres)
	}
	wantLangs := []string{"hi", "ko"}
	if !reflect.DeepEqual(p.PreferredLanguages, wantLangs) {
		t.Fatalf("languages = %v, want %v", p.PreferredLanguages, wantLangs)
	}
	if len(p.TopSearchQueries) != SeedQueryCount {
		t.Fatalf("seed queries = %v", p.TopSearchQueries)
	}
	if p.TopSearchQueries[0] != "Arijit Singh songs" {
		t.Fatalf("first seed query = %q", p.TopSearchQueries[0])
	}
}

func TestBuildFailsWhenAggregateFails(t *testing.T) {
	b := &Builder{
		History: &stubHistory{err: errors.New("disk error")},
		Logger:  zerolog.Nop(),
	}
	if _, err := b.Build(context.Background()); err == nil {
		t.Fatal("expected error when history aggregate fails")
	}
}

func TestClassifyPattern(t *testing.T) {
	tests := []struct {
		name string
		hist map[int]int
		want core.ListeningPattern
	}{
		{name: "empty history is mixed", hist: map[int]int{}, want: core.PatternMixed},
		{name: "dominant evening", hist: map[int]int{18: 50, 20: 40, 9: 10}, want: core.PatternEvening},
		{name: "night wraps midnight", hist: map[int]int{23: 30, 1: 30, 3: 30, 12: 10}, want: core.PatternNight},
		{name: "no dominant bucket", hist: map[int]int{8: 25, 13: 25, 19: 25, 2: 25}, want: core.PatternMixed},
		{name: "exactly at threshold", hist: map[int]int{18: 45, 9: 30, 13: 25}, want: core.PatternEvening},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyPattern(tt.hist); got != tt.want {
				t.Fatalf("classifyPattern = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestGenreLookupNormalizesArtist(t *testing.T) {
	l := NewGenreLookup()
	if got := l.GenresFor("  ARIJIT   Singh "); len(got) == 0 || got[0] != "bollywood" {
		t.Fatalf("GenresFor = %v, want bollywood first", got)
	}
	if got := l.GenresFor("nobody"); got != nil {
		t.Fatalf("GenresFor(unknown) = %v, want nil", got)
	}
}

// stubFeatures 固定返回一组在线特征或错误。
type stubFeatures struct {
	feats map[string]float64
	err   error
}

func (s stubFeatures) ListenerFeatures(context.Context, string, []string) (map[string]float64, error) {
	return s.feats, s.err
}

func TestBuildEnrichOverridesFromFeatures(t *testing.T) {
	b := &Builder{
		History: &stubHistory{completion: core.CompletionStats{TotalPlays: 10, CompletedPlays: 5}},
		Features: stubFeatures{feats: map[string]float64{
			feature.FeatCompletionRate: 0.82,
			feature.FeatAvgSessionMs:   180000,
		}},
		Logger: zerolog.Nop(),
	}

	p, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if p.CompletionRate != 0.82 {
		t.Fatalf("CompletionRate = %v, want feature override 0.82", p.CompletionRate)
	}
	if p.AvgSessionMs != 180000 {
		t.Fatalf("AvgSessionMs = %v, want feature override 180000", p.AvgSessionMs)
	}
}

func TestBuildFeatureFailureDegrades(t *testing.T) {
	b := &Builder{
		History:  &stubHistory{completion: core.CompletionStats{TotalPlays: 10, CompletedPlays: 5}},
		Features: stubFeatures{err: errors.New("feature server down")},
		Logger:   zerolog.Nop(),
	}

	p, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if p.CompletionRate != 0.5 {
		t.Fatalf("CompletionRate = %v, want history-derived 0.5", p.CompletionRate)
	}
}

func TestBuildPropagatesFeatureCancellation(t *testing.T) {
	b := &Builder{
		History:  &stubHistory{},
		Features: stubFeatures{err: context.Canceled},
		Logger:   zerolog.Nop(),
	}

	if _, err := b.Build(context.Background()); !core.IsCancellation(err) {
		t.Fatalf("err = %v, want cancellation to propagate", err)
	}
}

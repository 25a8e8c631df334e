package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tunelab/feedkit/config"
	_ "github.com/tunelab/feedkit/config/builders"
	"github.com/tunelab/feedkit/core"
	"github.com/tunelab/feedkit/pipeline"
)

const pipelineYAML = `
pipeline:
  name: quick_picks_lite
  nodes:
    - type: filter
      config:
        filters:
          - type: played
          - type: artist_block
    - type: rerank.topn
      config:
        n: 2
`

func TestBuildPipelineFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	if err := os.WriteFile(path, []byte(pipelineYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := pipeline.LoadFromYAML(path)
	if err != nil {
		t.Fatalf("LoadFromYAML: %v", err)
	}
	if err := config.ValidatePipelineConfig(cfg); err != nil {
		t.Fatalf("ValidatePipelineConfig: %v", err)
	}

	p, err := cfg.BuildPipeline(config.DefaultFactory())
	if err != nil {
		t.Fatalf("BuildPipeline: %v", err)
	}

	fc := &core.FeedContext{
		Now:       time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC),
		PlayedIDs: map[string]struct{}{"p1": {}},
	}
	items := []*core.Candidate{
		core.NewCandidate(core.Song{ID: "p1", Artist: "a"}, core.SourceTrendingGenre, 0.5),
		core.NewCandidate(core.Song{ID: "s2", Artist: "b"}, core.SourceTrendingGenre, 0.5),
		core.NewCandidate(core.Song{ID: "s3", Artist: "c"}, core.SourceTrendingGenre, 0.5),
		core.NewCandidate(core.Song{ID: "s4", Artist: "d"}, core.SourceTrendingGenre, 0.5),
	}

	out, err := p.Run(context.Background(), fc, items)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	// 已播候选被滤掉，截断到 2
	if len(out) != 2 || out[0].Song.ID != "s2" || out[1].Song.ID != "s3" {
		t.Fatalf("out = %v, want [s2 s3]", out)
	}
}

func TestValidateRejectsUnknownType(t *testing.T) {
	var cfg pipeline.Config
	cfg.Pipeline.Nodes = []pipeline.NodeConfig{{Type: "rank.bert"}}

	if err := config.ValidatePipelineConfig(&cfg); err == nil {
		t.Fatal("expected error for unregistered node type")
	}
}

func TestBuildFilterNodeRejectsBadRule(t *testing.T) {
	cfg := map[string]interface{}{
		"filters": []interface{}{
			map[string]interface{}{"type": "rule", "expr": "candidate.source_score <"},
		},
	}
	f := config.DefaultFactory()
	if _, err := f.Build("filter", cfg); err == nil {
		t.Fatal("expected compile error for malformed expression")
	}
}

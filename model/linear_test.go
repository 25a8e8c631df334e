package model

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestLinearModelPredict(t *testing.T) {
	m := NewLinearModel(0.1, map[string]float64{
		"a": 0.5,
		"b": 0.4,
	})

	tests := []struct {
		name     string
		features map[string]float64
		want     float64
	}{
		{name: "all features", features: map[string]float64{"a": 1, "b": 0.5}, want: 0.8},
		{name: "missing feature treated as zero", features: map[string]float64{"a": 1}, want: 0.6},
		{name: "unknown feature ignored", features: map[string]float64{"a": 1, "junk": 9}, want: 0.6},
		{name: "empty features", features: map[string]float64{}, want: 0.1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.Predict(tt.features)
			if err != nil {
				t.Fatalf("Predict: %v", err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Fatalf("Predict = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLoadLinearModel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weights.json")
	payload := `{"bias": 0.2, "weights": {"source_score": 0.45, "genre_match": 0.25}}`
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := LoadLinearModel(path)
	if err != nil {
		t.Fatalf("LoadLinearModel: %v", err)
	}
	got, _ := m.Predict(map[string]float64{"source_score": 1})
	if math.Abs(got-0.65) > 1e-9 {
		t.Fatalf("Predict = %v, want 0.65", got)
	}

	if _, err := LoadLinearModel(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	// Point at an explicit file so a developer's local .newscycle.yaml
	// cannot leak into the test.
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("app:\n  debug: false\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	thresholds := cfg.Similarity.Thresholds()
	if thresholds.Clustering != 0.85 || thresholds.Relationship != 0.70 || thresholds.Citation != 0.75 {
		t.Errorf("default thresholds = %+v", thresholds)
	}
	if cfg.Embedding.Model != "gemini-embedding-001" {
		t.Errorf("default embedding model = %q", cfg.Embedding.Model)
	}
	if cfg.Embedding.Dimensions != 768 {
		t.Errorf("default dimensions = %d, want 768", cfg.Embedding.Dimensions)
	}
	if cfg.Store.HistoryDays != 30 {
		t.Errorf("default history window = %d days, want 30", cfg.Store.HistoryDays)
	}
	if cfg.Output.Directory != "newsletters" {
		t.Errorf("default output directory = %q", cfg.Output.Directory)
	}
}

func TestLoad_FileOverrides(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `similarity:
  clustering_threshold: 0.9
store:
  history_days: 7
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Similarity.ClusteringThreshold != 0.9 {
		t.Errorf("clustering threshold = %v, want file override 0.9", cfg.Similarity.ClusteringThreshold)
	}
	if cfg.Store.HistoryDays != 7 {
		t.Errorf("history days = %d, want file override 7", cfg.Store.HistoryDays)
	}
	// Untouched keys keep their defaults.
	if cfg.Similarity.CitationThreshold != 0.75 {
		t.Errorf("citation threshold = %v, want default 0.75", cfg.Similarity.CitationThreshold)
	}
}

func TestLoad_RejectsInvalidThreshold(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("similarity:\n  clustering_threshold: 1.5\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("Load() should reject a threshold outside (-1, 1]")
	}
}

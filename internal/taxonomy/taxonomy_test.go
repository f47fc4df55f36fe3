package taxonomy

import (
	"os"
	"path/filepath"
	"testing"

	"newscycle/internal/core"
)

func TestClassify(t *testing.T) {
	table := Default()

	tests := []struct {
		name       string
		text       string
		wantDomain core.Domain
		wantOK     bool
	}{
		{
			name:       "hiring story",
			text:       "LinkedIn launches an AI hiring assistant for recruiters",
			wantDomain: core.DomainHRRecruitment,
			wantOK:     true,
		},
		{
			name:       "research story",
			text:       "New research paper introduces a novel model architecture",
			wantDomain: core.DomainResearch,
			wantOK:     true,
		},
		{
			name:       "policy story",
			text:       "Government proposes new AI regulation under the AI Act",
			wantDomain: core.DomainEconomicPolicy,
			wantOK:     true,
		},
		{
			name:       "japanese hiring story",
			text:       "AI採用支援ツールが人材業界で注目を集める",
			wantDomain: core.DomainHRRecruitment,
			wantOK:     true,
		},
		{
			name:       "japanese research story",
			text:       "新しい論文がモデルの学習手法を提案",
			wantDomain: core.DomainResearch,
			wantOK:     true,
		},
		{
			name:       "no match",
			text:       "Local bakery wins pie contest",
			wantDomain: core.DomainNone,
			wantOK:     false,
		},
		{
			name:       "empty text",
			text:       "",
			wantDomain: core.DomainNone,
			wantOK:     false,
		},
		{
			name:       "most hits wins",
			text:       "Researchers publish a paper with new benchmark results; company is hiring",
			wantDomain: core.DomainResearch,
			wantOK:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			domain, ok := table.Classify(tt.text)
			if domain != tt.wantDomain || ok != tt.wantOK {
				t.Errorf("Classify(%q) = (%q, %v), want (%q, %v)",
					tt.text, domain, ok, tt.wantDomain, tt.wantOK)
			}
		})
	}
}

func TestClassify_Deterministic(t *testing.T) {
	table := Default()
	text := "Funding round for a product launch backed by research"

	first, _ := table.Classify(text)
	for i := 0; i < 10; i++ {
		domain, _ := table.Classify(text)
		if domain != first {
			t.Fatalf("Classify() unstable: got %q then %q", first, domain)
		}
	}
}

func TestClassify_TieBreaksByDeclarationOrder(t *testing.T) {
	table := &Table{
		Domains: []DomainSpec{
			{Domain: core.DomainResearch, Keywords: []string{"alpha"}},
			{Domain: core.DomainBusiness, Keywords: []string{"beta"}},
		},
	}

	// One hit each: the earlier declaration wins.
	domain, ok := table.Classify("alpha and beta")
	if !ok || domain != core.DomainResearch {
		t.Errorf("tie should break to first-declared domain, got %q", domain)
	}
}

func TestExcluded(t *testing.T) {
	table := Default()

	if !table.Excluded(core.DomainHRRecruitment, core.DomainResearch) {
		t.Error("hr_recruitment and research_technical should be excluded")
	}
	// Symmetry.
	if !table.Excluded(core.DomainResearch, core.DomainHRRecruitment) {
		t.Error("exclusion must be symmetric")
	}
	if table.Excluded(core.DomainResearch, core.DomainResearch) {
		t.Error("a domain never excludes itself")
	}
	if table.Excluded(core.DomainNone, core.DomainResearch) {
		t.Error("unclassified never excludes anything")
	}
	if table.Excluded(core.DomainBusiness, core.DomainResearch) {
		t.Error("business_finance and research_technical are not an exclusion pair")
	}
}

func TestIncompatible(t *testing.T) {
	table := Default()

	a := "Company launches hiring assistant for enterprise teams"
	b := "Rival moves to poach top talent"

	if !table.Incompatible(a, b) {
		t.Error("pattern pair should match")
	}
	// Bidirectional: swapping sides must not change the outcome.
	if !table.Incompatible(b, a) {
		t.Error("pattern check must be bidirectional")
	}
	if table.Incompatible(a, "Quarterly earnings beat expectations") {
		t.Error("unrelated texts should not match any pattern")
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "taxonomy.yaml")

	content := `version: 3
domains:
  - domain: research_technical
    keywords: ["research", "論文"]
  - domain: hr_recruitment
    keywords: ["hiring"]
exclusions:
  - a: research_technical
    b: hr_recruitment
incompatible_patterns:
  - first: "lab"
    second: "recruiter"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write taxonomy file: %v", err)
	}

	table, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}

	if table.Version != 3 {
		t.Errorf("version = %d, want 3", table.Version)
	}
	if len(table.Domains) != 2 {
		t.Fatalf("domains = %d, want 2", len(table.Domains))
	}
	if domain, ok := table.Classify("breakthrough research results"); !ok || domain != core.DomainResearch {
		t.Errorf("loaded table Classify = %q, want research_technical", domain)
	}
	if !table.Excluded(core.DomainHRRecruitment, core.DomainResearch) {
		t.Error("loaded exclusion pair not in effect")
	}
}

func TestLoadFile_Invalid(t *testing.T) {
	dir := t.TempDir()

	empty := filepath.Join(dir, "empty.yaml")
	if err := os.WriteFile(empty, []byte("version: 1\ndomains: []\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(empty); err == nil {
		t.Error("LoadFile() should reject a taxonomy with no domains")
	}

	if _, err := LoadFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("LoadFile() should fail on a missing file")
	}
}

func TestLoad_DefaultWhenNoPath(t *testing.T) {
	table, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error: %v", err)
	}
	if len(table.Domains) == 0 {
		t.Error("default taxonomy should declare domains")
	}
}

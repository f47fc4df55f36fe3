// Package taxonomy holds the closed topic-domain taxonomy and the keyword
// classifier built on it. The taxonomy is a versioned data table (domains,
// exclusion pairs, incompatible phrase pairs) rather than scattered
// conditionals, so it can be tested and extended independently of the
// clustering and validation algorithms that consume it.
package taxonomy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"newscycle/internal/core"
)

// DomainSpec declares one domain and the keyword evidence that maps free text
// to it. Keywords are matched case-insensitively as substrings, which works
// for both English and Japanese forms.
type DomainSpec struct {
	Domain   core.Domain `yaml:"domain"`
	Keywords []string    `yaml:"keywords"`
}

// ExclusionPair declares two domains between which no citation or shared
// cluster membership is permitted, regardless of similarity.
type ExclusionPair struct {
	A core.Domain `yaml:"a"`
	B core.Domain `yaml:"b"`
}

// PatternPair is a curated phrase pair known to cause false-positive
// citations (e.g. a company's research coverage vs the same company's hiring
// coverage). The check is bidirectional: either phrase may appear on either
// side of a candidate citation.
type PatternPair struct {
	First  string `yaml:"first"`
	Second string `yaml:"second"`
}

// Table is the full taxonomy: domain declarations in tie-break order,
// exclusion pairs, and incompatible phrase pairs.
type Table struct {
	Version              int             `yaml:"version"`
	Domains              []DomainSpec    `yaml:"domains"`
	Exclusions           []ExclusionPair `yaml:"exclusions"`
	IncompatiblePatterns []PatternPair   `yaml:"incompatible_patterns"`
}

// Default returns the compiled-in taxonomy the newsletter currently runs
// with. Declaration order doubles as the deterministic tie-break order for
// classification.
func Default() *Table {
	return &Table{
		Version: 2,
		Domains: []DomainSpec{
			{
				Domain: core.DomainHRRecruitment,
				Keywords: []string{
					"hiring", "recruit", "job posting", "job seeker", "talent acquisition",
					"workforce", "layoff", "headcount", "resume", "interview process",
					"採用", "求人", "人材", "転職", "雇用", "リクルート", "面接",
				},
			},
			{
				Domain: core.DomainResearch,
				Keywords: []string{
					"research", "paper", "benchmark", "model architecture", "training run",
					"fine-tun", "open weights", "arxiv", "researcher", "breakthrough",
					"研究", "論文", "モデル", "学習手法", "ベンチマーク", "研究者",
				},
			},
			{
				Domain: core.DomainEconomicPolicy,
				Keywords: []string{
					"regulation", "policy", "government", "legislation", "ai act",
					"export control", "antitrust", "copyright ruling", "tariff",
					"規制", "政策", "政府", "法案", "著作権", "独占禁止",
				},
			},
			{
				Domain: core.DomainBusiness,
				Keywords: []string{
					"funding", "valuation", "revenue", "acquisition", "ipo", "earnings",
					"investment", "venture", "partnership deal", "market share",
					"資金調達", "買収", "出資", "売上", "株式", "評価額", "提携",
				},
			},
			{
				Domain: core.DomainProductTools,
				Keywords: []string{
					"launch", "feature", "app", "api pricing", "assistant", "plugin",
					"product release", "developer tool", "integration", "subscription",
					"リリース", "新機能", "アプリ", "ツール", "製品", "プラグイン",
				},
			},
			{
				Domain: core.DomainInfrastructure,
				Keywords: []string{
					"data center", "datacenter", "gpu cluster", "chip", "semiconductor",
					"power grid", "compute capacity", "local deployment", "on-premise",
					"データセンター", "半導体", "チップ", "電力", "計算資源", "オンプレ",
				},
			},
		},
		Exclusions: []ExclusionPair{
			{A: core.DomainHRRecruitment, B: core.DomainResearch},
			{A: core.DomainHRRecruitment, B: core.DomainEconomicPolicy},
			{A: core.DomainHRRecruitment, B: core.DomainInfrastructure},
			{A: core.DomainProductTools, B: core.DomainEconomicPolicy},
		},
		IncompatiblePatterns: []PatternPair{
			{First: "hiring assistant", Second: "poach"},
			{First: "hiring assistant", Second: "researcher"},
			{First: "job posting", Second: "model release"},
			{First: "採用支援", Second: "研究者"},
			{First: "求人", Second: "論文"},
		},
	}
}

// LoadFile reads a taxonomy table from a YAML file. An operator-maintained
// file fully replaces the compiled-in default; there is no merging.
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read taxonomy file %s: %w", path, err)
	}

	var table Table
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("failed to parse taxonomy file %s: %w", path, err)
	}

	if len(table.Domains) == 0 {
		return nil, fmt.Errorf("taxonomy file %s declares no domains", path)
	}

	return &table, nil
}

// Load returns the taxonomy from the given path, or the compiled-in default
// when the path is empty.
func Load(path string) (*Table, error) {
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// Excluded reports whether two domains form a declared exclusion pair.
// The relation is symmetric; unclassified never excludes anything.
func (t *Table) Excluded(a, b core.Domain) bool {
	if a == core.DomainNone || b == core.DomainNone {
		return false
	}
	for _, pair := range t.Exclusions {
		if (pair.A == a && pair.B == b) || (pair.A == b && pair.B == a) {
			return true
		}
	}
	return false
}

package core

import "time"

// Domain is one label from the closed topic taxonomy. Two domains may be
// declared mutually exclusive, in which case no citation or shared cluster
// membership is permitted across them regardless of embedding similarity.
type Domain string

const (
	DomainHRRecruitment  Domain = "hr_recruitment"
	DomainResearch       Domain = "research_technical"
	DomainEconomicPolicy Domain = "economic_policy"
	DomainBusiness       Domain = "business_finance"
	DomainProductTools   Domain = "product_tools"
	DomainInfrastructure Domain = "infrastructure_local"

	// DomainNone marks an article the classifier could not place. Unclassified
	// is a first-class outcome, not an error.
	DomainNone Domain = ""
)

// RelationshipType classifies how a later article relates to an earlier one.
type RelationshipType string

const (
	RelationSequel  RelationshipType = "sequel"  // same event progressing over time
	RelationUpdate  RelationshipType = "update"  // later article revises figures/claims
	RelationRelated RelationshipType = "related" // same topic, no temporal progression
)

// Article represents a single ingested news item with its upstream-produced
// summary, relevance score and embedding.
type Article struct {
	ID             string    `json:"article_id"`         // Globally unique, immutable
	Title          string    `json:"title"`              // Article title
	ContentSummary string    `json:"content_summary"`    // Summary text produced upstream
	Embedding      []float64 `json:"embedding"`          // Fixed-length embedding vector
	PublishedDate  time.Time `json:"published_date"`     // Publication timestamp
	SourceID       string    `json:"source_id"`          // Originating feed/publisher
	TopicCluster   string    `json:"topic_cluster"`      // Cluster ID assigned during a run (empty if none)
	RelevanceScore float64   `json:"ai_relevance_score"` // AI relevance in [0,1], produced upstream
	IsUpdate       bool      `json:"is_update"`          // Set when detected as an update of a prior article
}

// Text returns the concatenated title and summary, the form classification
// and entity extraction operate on.
func (a Article) Text() string {
	if a.ContentSummary == "" {
		return a.Title
	}
	return a.Title + " " + a.ContentSummary
}

// TopicCluster is a set of articles judged to be the same evolving topic.
// All members share a single domain label (or all are unclassified).
type TopicCluster struct {
	ID          string    `json:"cluster_id"`   // Unique identifier for the cluster
	Domain      Domain    `json:"domain"`       // Domain shared by every member
	ArticleIDs  []string  `json:"article_ids"`  // Member article IDs
	SourceCount int       `json:"source_count"` // Distinct source_id values among members
	CreatedAt   time.Time `json:"created_at"`   // When the cluster was formed
}

// IsMultiSource reports whether the cluster was independently covered by at
// least two distinct publishers.
func (c TopicCluster) IsMultiSource() bool {
	return c.SourceCount >= 2
}

// Relationship is a directed edge between two articles. The parent precedes
// the child temporally/logically.
type Relationship struct {
	ID              string           `json:"id"`                // Unique identifier for the edge
	ParentArticleID string           `json:"parent_article_id"` // Earlier article
	ChildArticleID  string           `json:"child_article_id"`  // Later article
	Type            RelationshipType `json:"relationship_type"` // sequel, update, or related
	SimilarityScore float64          `json:"similarity_score"`  // Cosine similarity supporting the classification
	Reasoning       string           `json:"reasoning"`         // Short explanation for audit, not control flow
	CreatedAt       time.Time        `json:"created_at"`        // When the edge was detected
}

// RelationshipKey identifies a relationship edge up to uniqueness: at most one
// edge of a given type may exist between an ordered article pair.
type RelationshipKey struct {
	ParentArticleID string
	ChildArticleID  string
	Type            RelationshipType
}

// Key returns the uniqueness key of the relationship.
func (r Relationship) Key() RelationshipKey {
	return RelationshipKey{
		ParentArticleID: r.ParentArticleID,
		ChildArticleID:  r.ChildArticleID,
		Type:            r.Type,
	}
}

// RunSnapshot is the read-only view of prior publication cycles handed to a
// run at its start. Cross-run sequel/update detection reads it; a single run
// owns the write path exclusively, so no locking is involved.
type RunSnapshot struct {
	Articles      []Article      `json:"articles"`      // Articles from recent prior cycles
	Relationships []Relationship `json:"relationships"` // Edges recorded by prior runs
}

// RunResult is everything a single processing run decides: the partition into
// clusters, the relationship edges, and per-article assignments.
type RunResult struct {
	RunID         string            `json:"run_id"`        // Unique identifier for this run
	Clusters      []TopicCluster    `json:"clusters"`      // Partition of the article pool
	Relationships []Relationship    `json:"relationships"` // Detected edges, unique per (parent, child, type)
	Assignments   map[string]string `json:"assignments"`   // article_id -> cluster_id
	Domains       map[string]Domain `json:"domains"`       // article_id -> classified domain
	SourceCounts  map[string]int    `json:"source_counts"` // cluster_id -> distinct source count
	Updated       map[string]bool   `json:"updated"`       // article_ids to flag is_update
	StartedAt     time.Time         `json:"started_at"`    // When the run began
	CompletedAt   time.Time         `json:"completed_at"`  // When the run finished
}

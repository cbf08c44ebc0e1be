package graph

import (
	"encoding/json"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// ============================================================================
// Canonical graph (visualization wire format)
// ============================================================================

// Node is a deduplicated graph vertex ready for the force-directed client.
// The well-known fields form a fixed envelope; everything else stored on the
// database node travels in Properties.
type Node struct {
	ID         string
	Label      string
	Image      string
	Type       string
	Labels     []string
	Properties map[string]any
}

// MarshalJSON renders the node as {"data": {...}} with the stored properties
// flattened next to the envelope fields. Envelope fields win on key clashes.
func (n Node) MarshalJSON() ([]byte, error) {
	data := make(map[string]any, len(n.Properties)+4)
	for k, v := range n.Properties {
		data[k] = normalizeValue(v)
	}
	data["id"] = n.ID
	data["label"] = n.Label
	data["image"] = n.Image
	data["type"] = n.Type
	return json.Marshal(map[string]any{"data": data})
}

// Edge is a typed connection between two nodes of the same Graph
type Edge struct {
	ID         string
	Source     string
	Target     string
	Label      string
	Title      string
	Type       string
	Properties map[string]any
}

// MarshalJSON renders the edge as {"data": {...}}
func (e Edge) MarshalJSON() ([]byte, error) {
	data := make(map[string]any, len(e.Properties)+6)
	for k, v := range e.Properties {
		data[k] = normalizeValue(v)
	}
	data["id"] = e.ID
	data["source"] = e.Source
	data["target"] = e.Target
	data["label"] = e.Label
	data["title"] = e.Title
	data["type"] = e.Type
	return json.Marshal(map[string]any{"data": data})
}

// Graph is a set of unique nodes plus the edges between them. Every edge's
// source and target is present in Nodes.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// CountedGraph is a Graph plus the number of raw records it was built from.
// TotalCount is not the node count.
type CountedGraph struct {
	Graph
	TotalCount int `json:"totalCount"`
}

// ============================================================================
// Raw repository results
// ============================================================================

// Triple is one (n)-[r]->(m) row as returned by the driver
type Triple struct {
	Start neo4j.Node
	Rel   neo4j.Relationship
	End   neo4j.Node
}

// FriendRecord is one friendship plus the friend's own LIKES edges
type FriendRecord struct {
	Friendship Triple
	Likes      []Triple
}

// Participant is one member of an organisation with what they like
type Participant struct {
	Participation Triple
	Likes         []Triple
}

// TopOrganisation is the organisation with the most participants
type TopOrganisation struct {
	Organisation     neo4j.Node
	ParticipantCount int64
	Participants     []Participant
}

// EdgeRow is one name-to-name edge for CSV export
type EdgeRow struct {
	Source string
	Target string
}

// ============================================================================
// Analytics rows
// ============================================================================

// ScoreRow is a ranking or similarity result. It is never persisted as a node.
type ScoreRow struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
	Type  string  `json:"type,omitempty"`
	Image string  `json:"image,omitempty"`
}

// CommunityMember assigns one node to a community
type CommunityMember struct {
	Name        string `json:"name"`
	CommunityID int64  `json:"communityId"`
}

// Community groups member names under one algorithm-assigned id
type Community struct {
	CommunityID int64    `json:"communityId"`
	Members     []string `json:"members"`
}

// PageRankResult is the convergence metadata of a PageRank write
type PageRankResult struct {
	NodePropertiesWritten int64  `json:"nodePropertiesWritten"`
	RanIterations         int64  `json:"ranIterations"`
	DidConverge           bool   `json:"didConverge"`
	WriteProperty         string `json:"writeProperty"`
}

// CommunityWriteResult summarises a Louvain write
type CommunityWriteResult struct {
	CommunityCount        int64   `json:"communityCount"`
	Modularity            float64 `json:"modularity"`
	NodePropertiesWritten int64   `json:"nodePropertiesWritten"`
	WriteProperty         string  `json:"writeProperty"`
}

// EmbeddingOptions configures the random-projection embedding
type EmbeddingOptions struct {
	Dimension  int `json:"dim"`
	Iterations int `json:"iterations"`
}

// KnnOptions configures k-nearest-neighbour search
type KnnOptions struct {
	TopK int `json:"topK"`
}

// PageRankOptions configures a PageRank write. Values pass through to the engine unvalidated.
type PageRankOptions struct {
	MaxIterations int     `json:"maxIterations"`
	DampingFactor float64 `json:"dampingFactor"`
	Tolerance     float64 `json:"tolerance"`
	WriteProperty string  `json:"writeProperty"`
}

// PageRankQuery selects previously written scores
type PageRankQuery struct {
	Limit     int     `json:"limit"`
	Threshold float64 `json:"threshold"`
	Property  string  `json:"property"`
}

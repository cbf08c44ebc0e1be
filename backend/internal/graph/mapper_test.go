package graph

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sportsgraph/backend/internal/constants"
)

func TestBuildGraph_DeduplicatesNodes(t *testing.T) {
	alice := person("p1", "Alice", nil)
	bob := person("p2", "Bob", nil)
	club := org("o1", "Harbour FC")

	g := BuildGraph([]Triple{
		{Start: alice, Rel: rel("r1", "PARTICIPATES_IN", alice, club), End: club},
		{Start: bob, Rel: rel("r2", "PARTICIPATES_IN", bob, club), End: club},
		{Start: alice, Rel: rel("r3", "FRIENDS_WITH", alice, bob), End: bob},
	})

	require.Len(t, g.Nodes, 3)
	assert.Equal(t, []string{"p1", "o1", "p2"}, []string{g.Nodes[0].ID, g.Nodes[1].ID, g.Nodes[2].ID})
	require.Len(t, g.Edges, 3)

	ids := make(map[string]bool)
	for _, n := range g.Nodes {
		ids[n.ID] = true
	}
	for _, e := range g.Edges {
		assert.True(t, ids[e.Source], "edge source %s missing", e.Source)
		assert.True(t, ids[e.Target], "edge target %s missing", e.Target)
	}
}

func TestBuildGraph_EmptyInput(t *testing.T) {
	g := BuildGraph(nil)
	assert.NotNil(t, g.Nodes)
	assert.NotNil(t, g.Edges)

	body, err := json.Marshal(g)
	require.NoError(t, err)
	assert.JSONEq(t, `{"nodes":[],"edges":[]}`, string(body))
}

func TestMapNode_ImageResolution(t *testing.T) {
	tests := []struct {
		name     string
		node     neo4j.Node
		expected string
	}{
		{
			name:     "stored image used verbatim",
			node:     person("p1", "Alice", map[string]any{"profileImage": "https://cdn.example.com/a.png"}),
			expected: "https://cdn.example.com/a.png",
		},
		{
			name:     "named node gets derived image",
			node:     person("p2", "Serena Williams", nil),
			expected: constants.FallbackImageEndpoint + "Serena_Williams",
		},
		{
			name:     "literal null string is ignored",
			node:     person("p3", "Bob", map[string]any{"profileImage": "null"}),
			expected: constants.FallbackImageEndpoint + "Bob",
		},
		{
			name:     "unnamed node derives from its first label",
			node:     neo4j.Node{ElementId: "s1", Labels: []string{"Sport"}, Props: map[string]any{}},
			expected: constants.FallbackImageEndpoint + "Sport",
		},
		{
			name:     "node without name or labels gets default",
			node:     neo4j.Node{ElementId: "x1", Props: map[string]any{}},
			expected: constants.DefaultProfileImage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MapNode(tt.node).Image)
		})
	}
}

func TestFallbackImageURL_Deterministic(t *testing.T) {
	assert.Equal(t, FallbackImageURL("Novak Djokovic"), FallbackImageURL("Novak Djokovic"))
	assert.Equal(t, constants.FallbackImageEndpoint+"Ko%C3%A7_Holding", FallbackImageURL("Koç Holding"))
	assert.Equal(t, constants.DefaultProfileImage, FallbackImageURL("  "))
}

func TestMapNode_LabelAndType(t *testing.T) {
	unnamed := neo4j.Node{ElementId: "e1", Labels: []string{"Event"}, Props: map[string]any{}}
	mapped := MapNode(unnamed)
	assert.Equal(t, "Event", mapped.Label)
	assert.Equal(t, "event", mapped.Type)

	bare := MapNode(neo4j.Node{Id: 42})
	assert.Equal(t, "42", bare.ID)
	assert.Equal(t, "unknown", bare.Type)
}

func TestMapEdge_Label(t *testing.T) {
	alice := person("p1", "Alice", nil)
	club := org("o1", "Harbour FC")

	e := MapEdge(rel("r1", "PARTICIPATES_IN", alice, club), alice, club)
	assert.Equal(t, "participates in", e.Label)
	assert.Equal(t, e.Label, e.Title)
	assert.Equal(t, "PARTICIPATES_IN", e.Type)
	assert.Equal(t, "p1", e.Source)
	assert.Equal(t, "o1", e.Target)
}

func TestMapEdge_FollowsStoredDirection(t *testing.T) {
	alice := person("p1", "Alice", nil)
	bob := person("p2", "Bob", nil)
	stored := rel("r1", "FRIENDS_WITH", bob, alice)

	// (alice)-[r]-(bob) bound with alice first while r points bob -> alice
	e := MapEdge(stored, alice, bob)
	assert.Equal(t, "p2", e.Source)
	assert.Equal(t, "p1", e.Target)

	g := BuildGraph([]Triple{{Start: alice, Rel: stored, End: bob}})
	require.Len(t, g.Edges, 1)
	assert.Equal(t, "p2", g.Edges[0].Source)
	assert.Equal(t, []string{"p1", "p2"}, []string{g.Nodes[0].ID, g.Nodes[1].ID})
}

func TestNode_MarshalJSON(t *testing.T) {
	n := person("p1", "Alice", map[string]any{
		"id":       "stale",
		"birthday": dbtype.Date(mustDate(t, "1990-04-02")),
		"age":      int64(34),
	})

	body, err := json.Marshal(MapNode(n))
	require.NoError(t, err)

	var decoded struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, "p1", decoded.Data["id"])
	assert.Equal(t, "Alice", decoded.Data["label"])
	assert.Equal(t, "person", decoded.Data["type"])
	assert.Equal(t, "1990-04-02", decoded.Data["birthday"])
	assert.Equal(t, float64(34), decoded.Data["age"])
}

func mustDate(t *testing.T, value string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", value)
	require.NoError(t, err)
	return d
}

package graph

import (
	"net/url"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"sportsgraph/backend/internal/constants"
)

// ============================================================================
// Record Mapper
// ============================================================================

// NodeID returns the stable wire id of a driver node
func NodeID(n neo4j.Node) string {
	return elementID(n.ElementId, n.Id)
}

// RelationshipID returns the stable wire id of a driver relationship
func RelationshipID(r neo4j.Relationship) string {
	return elementID(r.ElementId, r.Id)
}

// DisplayName is the node's name property, else its first label
func DisplayName(n neo4j.Node) string {
	if name := getStringFromMap(n.Props, "name", ""); name != "" {
		return name
	}
	if len(n.Labels) > 0 {
		return n.Labels[0]
	}
	return ""
}

// ResolveImage picks the profile image for a node. A stored profileImage is
// used verbatim; otherwise the image is derived from the display name, and a
// node with no display name gets the static default.
func ResolveImage(props map[string]any, name string) string {
	if img := getStringFromMap(props, "profileImage", ""); img != "" && img != "null" {
		return img
	}
	if name == "" {
		return constants.DefaultProfileImage
	}
	return FallbackImageURL(name)
}

// FallbackImageURL derives a deterministic image URL from a display name
func FallbackImageURL(name string) string {
	title := strings.ReplaceAll(strings.TrimSpace(name), " ", "_")
	if title == "" {
		return constants.DefaultProfileImage
	}
	return constants.FallbackImageEndpoint + url.PathEscape(title)
}

// TypeTag is the lowercased first label, or "unknown"
func TypeTag(labels []string) string {
	if len(labels) == 0 || labels[0] == "" {
		return "unknown"
	}
	return strings.ToLower(labels[0])
}

// RelationshipLabel turns PARTICIPATES_IN into "participates in"
func RelationshipLabel(relType string) string {
	return strings.ToLower(strings.ReplaceAll(relType, "_", " "))
}

// MapNode converts a driver node into its canonical form
func MapNode(n neo4j.Node) Node {
	props := make(map[string]any, len(n.Props))
	for k, v := range n.Props {
		props[k] = v
	}

	return Node{
		ID:         NodeID(n),
		Label:      DisplayName(n),
		Image:      ResolveImage(n.Props, DisplayName(n)),
		Type:       TypeTag(n.Labels),
		Labels:     append([]string(nil), n.Labels...),
		Properties: props,
	}
}

// MapEdge converts a relationship into an edge between start and end. The
// edge follows the stored direction of rel, so an undirected match that bound
// the endpoints the other way round is flipped back.
func MapEdge(rel neo4j.Relationship, start, end neo4j.Node) Edge {
	source, target := NodeID(start), NodeID(end)
	if elementID(rel.StartElementId, rel.StartId) == target && elementID(rel.EndElementId, rel.EndId) == source {
		source, target = target, source
	}

	props := make(map[string]any, len(rel.Props))
	for k, v := range rel.Props {
		props[k] = v
	}

	label := RelationshipLabel(rel.Type)
	return Edge{
		ID:         RelationshipID(rel),
		Source:     source,
		Target:     target,
		Label:      label,
		Title:      label,
		Type:       rel.Type,
		Properties: props,
	}
}

// Builder accumulates triples into a Graph, deduplicating nodes by id and
// keeping first-seen order so output is stable for identical input.
type Builder struct {
	nodes map[string]Node
	order []string
	edges []Edge
}

// NewBuilder creates an empty graph builder
func NewBuilder() *Builder {
	return &Builder{nodes: make(map[string]Node)}
}

// AddNode adds n unless a node with the same id is already present
func (b *Builder) AddNode(n neo4j.Node) {
	id := NodeID(n)
	if _, ok := b.nodes[id]; ok {
		return
	}
	b.nodes[id] = MapNode(n)
	b.order = append(b.order, id)
}

// AddTriple adds both endpoints and the edge between them
func (b *Builder) AddTriple(t Triple) {
	b.AddNode(t.Start)
	b.AddNode(t.End)
	b.edges = append(b.edges, MapEdge(t.Rel, t.Start, t.End))
}

// Graph returns the accumulated graph. Slices are never nil.
func (b *Builder) Graph() Graph {
	nodes := make([]Node, 0, len(b.order))
	for _, id := range b.order {
		nodes = append(nodes, b.nodes[id])
	}
	edges := make([]Edge, len(b.edges))
	copy(edges, b.edges)
	return Graph{Nodes: nodes, Edges: edges}
}

// BuildGraph maps triples into a Graph
func BuildGraph(triples []Triple) Graph {
	b := NewBuilder()
	for _, t := range triples {
		b.AddTriple(t)
	}
	return b.Graph()
}

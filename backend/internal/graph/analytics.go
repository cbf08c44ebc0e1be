package graph

import (
	"context"
	"sort"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"sportsgraph/backend/internal/constants"
	apperrors "sportsgraph/backend/pkg/errors"
	"sportsgraph/backend/pkg/logger"
)

// ============================================================================
// Analytics Engine Adapter
// ============================================================================

// AnalyticsEngine is the narrow contract over the graph-algorithms library.
// Algorithm calls make sure the projection exists before they run.
type AnalyticsEngine interface {
	EnsureProjection(ctx context.Context) error
	RebuildProjection(ctx context.Context) error
	DropProjection(ctx context.Context) error

	MutateEmbeddings(ctx context.Context, opts EmbeddingOptions) error
	WriteKnn(ctx context.Context, opts KnnOptions) error
	StreamKnn(ctx context.Context, name string, topK int) ([]ScoreRow, error)
	WritePageRank(ctx context.Context, opts PageRankOptions) (*PageRankResult, error)
	ReadPageRank(ctx context.Context, q PageRankQuery) ([]ScoreRow, error)
	StreamLouvain(ctx context.Context) ([]CommunityMember, error)
	WriteLouvain(ctx context.Context) (*CommunityWriteResult, error)
}

// AlgorithmDefaults fill in options the caller leaves at their zero value
type AlgorithmDefaults struct {
	Embedding EmbeddingOptions
	Knn       KnnOptions
	PageRank  PageRankOptions
}

// DefaultAlgorithmDefaults returns the built-in algorithm defaults
func DefaultAlgorithmDefaults() AlgorithmDefaults {
	return AlgorithmDefaults{
		Embedding: EmbeddingOptions{
			Dimension:  constants.DefaultEmbeddingDimension,
			Iterations: constants.DefaultEmbeddingIterations,
		},
		Knn: KnnOptions{TopK: constants.DefaultKnnTopK},
		PageRank: PageRankOptions{
			MaxIterations: constants.DefaultPageRankIterations,
			DampingFactor: constants.DefaultPageRankDamping,
			Tolerance:     constants.DefaultPageRankTolerance,
			WriteProperty: constants.DefaultPageRankProperty,
		},
	}
}

// GDS runs algorithms through Neo4j Graph Data Science procedures
type GDS struct {
	sessions    SessionFactory
	projections *ProjectionManager
	labels      []string
	defaults    AlgorithmDefaults
	logger      *zap.Logger
}

// NewGDS creates the adapter over one projection
func NewGDS(sessions SessionFactory, projections *ProjectionManager, nodeLabels []string, defaults AlgorithmDefaults) *GDS {
	return &GDS{
		sessions:    sessions,
		projections: projections,
		labels:      nodeLabels,
		defaults:    defaults,
		logger:      logger.Named("graph.analytics"),
	}
}

// EnsureProjection creates the projection if absent
func (g *GDS) EnsureProjection(ctx context.Context) error {
	return g.projections.Ensure(ctx)
}

// RebuildProjection drops and recreates the projection
func (g *GDS) RebuildProjection(ctx context.Context) error {
	return g.projections.Rebuild(ctx)
}

// DropProjection removes the projection
func (g *GDS) DropProjection(ctx context.Context) error {
	return g.projections.Drop(ctx)
}

// MutateEmbeddings stores a FastRP embedding on every projected node. Any
// embedding left by an earlier run is removed first so the call can repeat.
func (g *GDS) MutateEmbeddings(ctx context.Context, opts EmbeddingOptions) error {
	release, err := g.projections.Acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	if opts.Dimension == 0 {
		opts.Dimension = g.defaults.Embedding.Dimension
	}
	if opts.Iterations == 0 {
		opts.Iterations = g.defaults.Embedding.Iterations
	}

	session := g.sessions.NewSession(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	dropQuery := `
		CALL gds.graph.nodeProperties.drop($graphName, [$property], {failIfMissing: false})
		YIELD propertiesRemoved
		RETURN propertiesRemoved
	`
	if _, err := session.Run(ctx, dropQuery, map[string]any{
		"graphName": g.projections.Name(),
		"property":  constants.EmbeddingProperty,
	}); err != nil {
		return apperrors.NewQueryError("drop embeddings", err)
	}

	query := `
		CALL gds.fastRP.mutate($graphName, {
			embeddingDimension: $dimension,
			iterationWeights: $iterationWeights,
			mutateProperty: $property
		})
		YIELD nodePropertiesWritten
		RETURN nodePropertiesWritten
	`

	records, err := session.Run(ctx, query, map[string]any{
		"graphName":        g.projections.Name(),
		"dimension":        int64(opts.Dimension),
		"iterationWeights": iterationWeights(opts.Iterations),
		"property":         constants.EmbeddingProperty,
	})
	if err != nil {
		return apperrors.NewQueryError("compute embeddings", err)
	}

	var written int64
	if len(records) > 0 {
		written = getInt64FromRecord(records[0], "nodePropertiesWritten")
	}
	g.logger.Info("Embeddings computed",
		zap.Int("dimension", opts.Dimension),
		zap.Int("iterations", opts.Iterations),
		zap.Int64("nodes", written),
	)
	return nil
}

// iterationWeights expresses an iteration count as FastRP weights: the first
// iteration contributes nothing, each later one contributes equally.
func iterationWeights(iterations int) []any {
	if iterations <= 1 {
		return []any{1.0}
	}
	weights := make([]any, iterations)
	weights[0] = 0.0
	for i := 1; i < iterations; i++ {
		weights[i] = 1.0
	}
	return weights
}

// WriteKnn persists SIMILAR_PERSON relationships with a score property
func (g *GDS) WriteKnn(ctx context.Context, opts KnnOptions) error {
	release, err := g.projections.Acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	if opts.TopK == 0 {
		opts.TopK = g.defaults.Knn.TopK
	}

	query := `
		CALL gds.knn.write($graphName, {
			nodeProperties: [$property],
			topK: $topK,
			writeRelationshipType: $relationshipType,
			writeProperty: $scoreProperty
		})
		YIELD relationshipsWritten, nodesCompared
		RETURN relationshipsWritten, nodesCompared
	`

	records, err := g.run(ctx, neo4j.AccessModeWrite, "write knn", query, map[string]any{
		"graphName":        g.projections.Name(),
		"property":         constants.EmbeddingProperty,
		"topK":             int64(opts.TopK),
		"relationshipType": constants.RelSimilarPerson,
		"scoreProperty":    constants.SimilarityProperty,
	})
	if err != nil {
		return err
	}

	if len(records) > 0 {
		g.logger.Info("KNN relationships written",
			zap.Int("top_k", opts.TopK),
			zap.Int64("relationships", getInt64FromRecord(records[0], "relationshipsWritten")),
			zap.Int64("nodes_compared", getInt64FromRecord(records[0], "nodesCompared")),
		)
	}
	return nil
}

// StreamKnn returns the nearest neighbours of the node named name, highest
// score first, without persisting anything. Names match ignoring case.
func (g *GDS) StreamKnn(ctx context.Context, name string, topK int) ([]ScoreRow, error) {
	release, err := g.projections.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	if topK <= 0 {
		topK = g.defaults.Knn.TopK
	}

	session := g.sessions.NewSession(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	lookup := `
		MATCH (p)
		WHERE toLower(p.name) = toLower($name)
		  AND any(label IN labels(p) WHERE label IN $labels)
		RETURN count(p) AS matches
	`
	records, err := session.Run(ctx, lookup, map[string]any{
		"name":   name,
		"labels": stringsToAny(g.labels),
	})
	if err != nil {
		return nil, apperrors.NewQueryError("find similarity source", err)
	}
	if len(records) == 0 || getInt64FromRecord(records[0], "matches") == 0 {
		return nil, apperrors.NewNotFound("node", name)
	}

	query := `
		CALL gds.knn.stream($graphName, {
			nodeProperties: [$property],
			topK: $topK
		})
		YIELD node1, node2, similarity
		WITH gds.util.asNode(node1) AS source, gds.util.asNode(node2) AS target, similarity
		WHERE toLower(source.name) = toLower($name)
		RETURN target.name AS name, similarity AS score, labels(target) AS labels, target.profileImage AS profileImage
		ORDER BY score DESC
	`
	records, err = session.Run(ctx, query, map[string]any{
		"graphName": g.projections.Name(),
		"property":  constants.EmbeddingProperty,
		"topK":      int64(topK),
		"name":      name,
	})
	if err != nil {
		return nil, apperrors.NewQueryError("stream knn", err)
	}

	return scoreRows(records), nil
}

// WritePageRank writes a PageRank score property onto every projected node
func (g *GDS) WritePageRank(ctx context.Context, opts PageRankOptions) (*PageRankResult, error) {
	release, err := g.projections.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	if opts.MaxIterations == 0 {
		opts.MaxIterations = g.defaults.PageRank.MaxIterations
	}
	if opts.DampingFactor == 0 {
		opts.DampingFactor = g.defaults.PageRank.DampingFactor
	}
	if opts.Tolerance == 0 {
		opts.Tolerance = g.defaults.PageRank.Tolerance
	}
	if opts.WriteProperty == "" {
		opts.WriteProperty = g.defaults.PageRank.WriteProperty
	}

	query := `
		CALL gds.pageRank.write($graphName, {
			maxIterations: $maxIterations,
			dampingFactor: $dampingFactor,
			tolerance: $tolerance,
			writeProperty: $writeProperty
		})
		YIELD nodePropertiesWritten, ranIterations, didConverge
		RETURN nodePropertiesWritten, ranIterations, didConverge
	`

	records, err := g.run(ctx, neo4j.AccessModeWrite, "calculate pagerank", query, map[string]any{
		"graphName":     g.projections.Name(),
		"maxIterations": int64(opts.MaxIterations),
		"dampingFactor": opts.DampingFactor,
		"tolerance":     opts.Tolerance,
		"writeProperty": opts.WriteProperty,
	})
	if err != nil {
		return nil, err
	}

	result := &PageRankResult{WriteProperty: opts.WriteProperty}
	if len(records) > 0 {
		result.NodePropertiesWritten = getInt64FromRecord(records[0], "nodePropertiesWritten")
		result.RanIterations = getInt64FromRecord(records[0], "ranIterations")
		result.DidConverge = getBoolFromRecord(records[0], "didConverge")
	}

	g.logger.Info("PageRank written",
		zap.String("property", result.WriteProperty),
		zap.Int64("nodes", result.NodePropertiesWritten),
		zap.Int64("iterations", result.RanIterations),
		zap.Bool("converged", result.DidConverge),
	)
	return result, nil
}

// ReadPageRank reads previously written scores at or above the threshold,
// highest first. It returns an empty slice when nothing was ever written.
func (g *GDS) ReadPageRank(ctx context.Context, q PageRankQuery) ([]ScoreRow, error) {
	if q.Property == "" {
		q.Property = g.defaults.PageRank.WriteProperty
	}

	query := `
		MATCH (n)
		WHERE n[$property] IS NOT NULL AND n[$property] >= $threshold
		RETURN coalesce(n.name, labels(n)[0]) AS name, n[$property] AS score, labels(n) AS labels, n.profileImage AS profileImage
		ORDER BY score DESC
		LIMIT $limit
	`

	records, err := g.run(ctx, neo4j.AccessModeRead, "get pagerank scores", query, map[string]any{
		"property":  q.Property,
		"threshold": q.Threshold,
		"limit":     limitParam(q.Limit, constants.DefaultPageRankLimit),
	})
	if err != nil {
		return nil, err
	}
	return scoreRows(records), nil
}

// StreamLouvain assigns every projected node to a community, ordered by community id
func (g *GDS) StreamLouvain(ctx context.Context) ([]CommunityMember, error) {
	release, err := g.projections.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	query := `
		CALL gds.louvain.stream($graphName)
		YIELD nodeId, communityId
		WITH gds.util.asNode(nodeId) AS node, communityId
		RETURN coalesce(node.name, labels(node)[0]) AS name, communityId
		ORDER BY communityId ASC, name ASC
	`

	records, err := g.run(ctx, neo4j.AccessModeRead, "detect communities", query, map[string]any{
		"graphName": g.projections.Name(),
	})
	if err != nil {
		return nil, err
	}

	members := make([]CommunityMember, 0, len(records))
	for _, record := range records {
		members = append(members, CommunityMember{
			Name:        getStringFromRecord(record, "name"),
			CommunityID: getInt64FromRecord(record, "communityId"),
		})
	}
	return members, nil
}

// WriteLouvain stores each node's community id as a node property
func (g *GDS) WriteLouvain(ctx context.Context) (*CommunityWriteResult, error) {
	release, err := g.projections.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	query := `
		CALL gds.louvain.write($graphName, {writeProperty: $property})
		YIELD communityCount, modularity, nodePropertiesWritten
		RETURN communityCount, modularity, nodePropertiesWritten
	`

	records, err := g.run(ctx, neo4j.AccessModeWrite, "write communities", query, map[string]any{
		"graphName": g.projections.Name(),
		"property":  constants.CommunityProperty,
	})
	if err != nil {
		return nil, err
	}

	result := &CommunityWriteResult{WriteProperty: constants.CommunityProperty}
	if len(records) > 0 {
		result.CommunityCount = getInt64FromRecord(records[0], "communityCount")
		result.Modularity = getFloat64FromRecord(records[0], "modularity")
		result.NodePropertiesWritten = getInt64FromRecord(records[0], "nodePropertiesWritten")
	}
	return result, nil
}

func (g *GDS) run(ctx context.Context, mode neo4j.AccessMode, operation, query string, params map[string]any) ([]*neo4j.Record, error) {
	records, err := runQuery(ctx, g.sessions, mode, query, params)
	if err != nil {
		return nil, apperrors.NewQueryError(operation, err)
	}
	return records, nil
}

// GroupCommunities folds member rows into one row per community id,
// ascending by id, keeping member order within each community.
func GroupCommunities(members []CommunityMember) []Community {
	index := make(map[int64]int)
	communities := make([]Community, 0)
	for _, m := range members {
		i, ok := index[m.CommunityID]
		if !ok {
			i = len(communities)
			index[m.CommunityID] = i
			communities = append(communities, Community{CommunityID: m.CommunityID, Members: []string{}})
		}
		communities[i].Members = append(communities[i].Members, m.Name)
	}

	sort.SliceStable(communities, func(a, b int) bool {
		return communities[a].CommunityID < communities[b].CommunityID
	})
	return communities
}

func scoreRows(records []*neo4j.Record) []ScoreRow {
	rows := make([]ScoreRow, 0, len(records))
	for _, record := range records {
		name := getStringFromRecord(record, "name")
		labels := getStringSliceFromRecord(record, "labels")
		display := name
		if display == "" && len(labels) > 0 {
			display = labels[0]
		}
		rows = append(rows, ScoreRow{
			Name:  name,
			Score: getFloat64FromRecord(record, "score"),
			Type:  TypeTag(labels),
			Image: ResolveImage(map[string]any{"profileImage": getStringFromRecord(record, "profileImage")}, display),
		})
	}
	return rows
}

func stringsToAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

package graph

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sportsgraph/backend/internal/constants"
	apperrors "sportsgraph/backend/pkg/errors"
)

func newTestGDS(sessions *fakeSessions) *GDS {
	sessions.on("gds.graph.exists", record([]string{"exists"}, true))
	spec := testProjectionSpec()
	return NewGDS(sessions, NewProjectionManager(sessions, spec), spec.NodeLabels, DefaultAlgorithmDefaults())
}

var scoreKeys = []string{"name", "score", "labels", "profileImage"}

func TestGDS_ReadPageRank_EmptyIsNotNil(t *testing.T) {
	sessions := &fakeSessions{}
	g := newTestGDS(sessions)

	rows, err := g.ReadPageRank(context.Background(), PageRankQuery{})
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)

	params := sessions.ran("n[$property]")[0].params
	assert.Equal(t, constants.DefaultPageRankProperty, params["property"])
	assert.Equal(t, int64(constants.DefaultPageRankLimit), params["limit"])
	assert.Equal(t, 0.0, params["threshold"])
}

func TestGDS_ReadPageRank_Rows(t *testing.T) {
	sessions := (&fakeSessions{}).on("n[$property]",
		record(scoreKeys, "Alice", 0.9, []any{"Person"}, nil),
		record(scoreKeys, "Harbour FC", 0.4, []any{"Organisation"}, "https://img.example.com/h.png"),
	)
	g := newTestGDS(sessions)

	rows, err := g.ReadPageRank(context.Background(), PageRankQuery{Limit: 2, Threshold: 0.1})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Alice", rows[0].Name)
	assert.Equal(t, "person", rows[0].Type)
	assert.Equal(t, constants.FallbackImageEndpoint+"Alice", rows[0].Image)
	assert.Equal(t, "https://img.example.com/h.png", rows[1].Image)
	assert.Equal(t, 0.1, sessions.ran("n[$property]")[0].params["threshold"])
}

func TestGDS_WritePageRank_AppliesDefaults(t *testing.T) {
	sessions := (&fakeSessions{}).on("gds.pageRank.write",
		record([]string{"nodePropertiesWritten", "ranIterations", "didConverge"}, int64(12), int64(9), true),
	)
	g := newTestGDS(sessions)

	result, err := g.WritePageRank(context.Background(), PageRankOptions{MaxIterations: 40})
	require.NoError(t, err)
	assert.Equal(t, &PageRankResult{
		NodePropertiesWritten: 12,
		RanIterations:         9,
		DidConverge:           true,
		WriteProperty:         constants.DefaultPageRankProperty,
	}, result)

	params := sessions.ran("gds.pageRank.write")[0].params
	assert.Equal(t, int64(40), params["maxIterations"])
	assert.Equal(t, constants.DefaultPageRankDamping, params["dampingFactor"])
	assert.Equal(t, constants.DefaultPageRankTolerance, params["tolerance"])
}

func TestGDS_StreamKnn_PreservesOrder(t *testing.T) {
	sessions := (&fakeSessions{}).
		on("count(p) AS matches", record([]string{"matches"}, int64(1))).
		on("gds.knn.stream",
			record(scoreKeys, "Bob", 0.97, []any{"Person"}, nil),
			record(scoreKeys, "Carol", 0.81, []any{"Person"}, nil),
		)
	g := newTestGDS(sessions)

	rows, err := g.StreamKnn(context.Background(), "ALICE", 0)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Bob", rows[0].Name)
	assert.Equal(t, "Carol", rows[1].Name)

	params := sessions.ran("gds.knn.stream")[0].params
	assert.Equal(t, "ALICE", params["name"])
	assert.Equal(t, int64(constants.DefaultKnnTopK), params["topK"])
	assert.Equal(t, constants.EmbeddingProperty, params["property"])
	assert.Equal(t, sessions.opened, sessions.closed)
}

func TestGDS_StreamKnn_UnknownName(t *testing.T) {
	sessions := (&fakeSessions{}).on("count(p) AS matches", record([]string{"matches"}, int64(0)))
	g := newTestGDS(sessions)

	_, err := g.StreamKnn(context.Background(), "Nobody", 3)
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
	assert.Empty(t, sessions.ran("gds.knn.stream"))
}

func TestGDS_MutateEmbeddings(t *testing.T) {
	sessions := (&fakeSessions{}).on("gds.fastRP.mutate", record([]string{"nodePropertiesWritten"}, int64(5)))
	g := newTestGDS(sessions)

	require.NoError(t, g.MutateEmbeddings(context.Background(), EmbeddingOptions{Iterations: 3}))

	require.Len(t, sessions.ran("gds.graph.nodeProperties.drop"), 1)
	params := sessions.ran("gds.fastRP.mutate")[0].params
	assert.Equal(t, int64(constants.DefaultEmbeddingDimension), params["dimension"])
	assert.Equal(t, []any{0.0, 1.0, 1.0}, params["iterationWeights"])
	assert.Equal(t, constants.EmbeddingProperty, params["property"])
}

func TestIterationWeights(t *testing.T) {
	assert.Equal(t, []any{1.0}, iterationWeights(0))
	assert.Equal(t, []any{1.0}, iterationWeights(1))
	assert.Len(t, iterationWeights(10), 10)
}

func TestGDS_WriteKnn(t *testing.T) {
	sessions := &fakeSessions{}
	g := newTestGDS(sessions)

	require.NoError(t, g.WriteKnn(context.Background(), KnnOptions{TopK: 8}))

	params := sessions.ran("gds.knn.write")[0].params
	assert.Equal(t, int64(8), params["topK"])
	assert.Equal(t, constants.RelSimilarPerson, params["relationshipType"])
	assert.Equal(t, constants.SimilarityProperty, params["scoreProperty"])
}

func TestGDS_StreamLouvain(t *testing.T) {
	sessions := (&fakeSessions{}).on("gds.louvain.stream",
		record([]string{"name", "communityId"}, "Alice", int64(0)),
		record([]string{"name", "communityId"}, "Bob", int64(3)),
	)
	g := newTestGDS(sessions)

	members, err := g.StreamLouvain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []CommunityMember{{Name: "Alice", CommunityID: 0}, {Name: "Bob", CommunityID: 3}}, members)
}

func TestGDS_EngineFailureKeepsMessage(t *testing.T) {
	sessions := (&fakeSessions{}).fail("gds.louvain.write", errors.New("Graph does not exist: testGraph"))
	g := newTestGDS(sessions)

	_, err := g.WriteLouvain(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Graph does not exist")
	assert.Equal(t, "Analytics projection is missing; rebuild it and retry", apperrors.FriendlyMessage(err))
	assert.Equal(t, sessions.opened, sessions.closed)
}

func TestGroupCommunities(t *testing.T) {
	groups := GroupCommunities([]CommunityMember{
		{Name: "Carol", CommunityID: 7},
		{Name: "Alice", CommunityID: 2},
		{Name: "Dave", CommunityID: 7},
		{Name: "Bob", CommunityID: 2},
	})

	assert.Equal(t, []Community{
		{CommunityID: 2, Members: []string{"Alice", "Bob"}},
		{CommunityID: 7, Members: []string{"Carol", "Dave"}},
	}, groups)

	assert.Empty(t, GroupCommunities(nil))
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sportsgraph/backend/internal/constants"
)

func TestLoadAnalytics_Defaults(t *testing.T) {
	analytics, err := LoadAnalytics("")
	require.NoError(t, err)

	assert.Equal(t, constants.DefaultProjectionName, analytics.Projection.Name)
	assert.Equal(t, constants.DefaultProjectionLabels, analytics.Projection.NodeLabels)
	assert.Equal(t, 16, analytics.Embedding.Dimension)
	assert.Equal(t, 10, analytics.Embedding.Iterations)
	assert.Equal(t, "pagerank", analytics.PageRank.WriteProperty)
}

func TestLoadAnalytics_YAMLOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "analytics.yaml")
	content := `
projection:
  name: athletesOnly
  node_labels: [Person]
  relationships: [FRIENDS_WITH]
embedding:
  dimension: 32
pagerank:
  damping_factor: 0.9
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	analytics, err := LoadAnalytics(path)
	require.NoError(t, err)

	assert.Equal(t, "athletesOnly", analytics.Projection.Name)
	assert.Equal(t, []string{"Person"}, analytics.Projection.NodeLabels)
	assert.Equal(t, []string{"FRIENDS_WITH"}, analytics.Projection.Relationships)
	assert.Equal(t, 32, analytics.Embedding.Dimension)
	// untouched keys keep their defaults
	assert.Equal(t, 10, analytics.Embedding.Iterations)
	assert.Equal(t, 0.9, analytics.PageRank.DampingFactor)
	assert.Equal(t, constants.DefaultPageRankIterations, analytics.PageRank.MaxIterations)
}

func TestLoadAnalytics_MissingFile(t *testing.T) {
	_, err := LoadAnalytics(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		Neo4jURI:      "bolt://localhost:7687",
		Neo4jUser:     "neo4j",
		Neo4jPassword: "secret",
		Analytics:     DefaultAnalytics(),
	}
	assert.NoError(t, cfg.Validate())

	cfg.Neo4jPassword = ""
	assert.Error(t, cfg.Validate())

	cfg.Neo4jPassword = "secret"
	cfg.Analytics.Projection.Relationships = nil
	assert.Error(t, cfg.Validate())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("NEO4J_URI", "neo4j://graph:7687")
	t.Setenv("REQUEST_TIMEOUT_SECONDS", "15")
	t.Setenv("ANALYTICS_CONFIG", "")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "neo4j://graph:7687", cfg.Neo4jURI)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, int64(15), int64(cfg.RequestTimeout.Seconds()))
	assert.Equal(t, constants.DefaultProjectionName, cfg.Analytics.Projection.Name)
}

package app

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"sportsgraph/backend/internal/graph"
	"sportsgraph/backend/internal/services"
	"sportsgraph/backend/pkg/config"
	apperrors "sportsgraph/backend/pkg/errors"
	"sportsgraph/backend/pkg/logger"
)

// App holds the wired graph stack shared by the server and the CLI
type App struct {
	Sessions *graph.DriverSessions
	Service  *services.GraphService
}

// New connects to Neo4j, verifies connectivity and wires repository,
// projection manager, analytics adapter and query service.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	driver, err := neo4j.NewDriverWithContext(
		cfg.Neo4jURI,
		neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""),
	)
	if err != nil {
		return nil, apperrors.NewGraphConnectionFailed(cfg.Neo4jURI, err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, apperrors.NewGraphConnectionFailed(cfg.Neo4jURI, err)
	}

	sessions := graph.NewDriverSessions(driver, cfg.Neo4jDatabase)
	logger.Get().Info("Connected to Neo4j",
		zap.String("uri", cfg.Neo4jURI),
		zap.String("database", cfg.Neo4jDatabase),
		zap.String("projection", cfg.Analytics.Projection.Name),
	)

	return &App{
		Sessions: sessions,
		Service:  NewService(sessions, cfg),
	}, nil
}

// NewService wires the query service over any session factory
func NewService(sessions graph.SessionFactory, cfg *config.Config) *services.GraphService {
	spec := ProjectionSpec(cfg.Analytics)
	projections := graph.NewProjectionManager(sessions, spec)
	engine := graph.NewGDS(sessions, projections, spec.NodeLabels, AlgorithmDefaults(cfg.Analytics))
	return services.NewGraphService(graph.NewRepository(sessions), engine, cfg.ExportPath)
}

// Close releases the driver
func (a *App) Close(ctx context.Context) error {
	return a.Sessions.Close(ctx)
}

// ProjectionSpec converts the analytics profile into a projection definition
func ProjectionSpec(a config.Analytics) graph.ProjectionSpec {
	return graph.ProjectionSpec{
		Name:          a.Projection.Name,
		NodeLabels:    a.Projection.NodeLabels,
		Relationships: a.Projection.Relationships,
	}
}

// AlgorithmDefaults converts the analytics profile into adapter defaults
func AlgorithmDefaults(a config.Analytics) graph.AlgorithmDefaults {
	return graph.AlgorithmDefaults{
		Embedding: graph.EmbeddingOptions{
			Dimension:  a.Embedding.Dimension,
			Iterations: a.Embedding.Iterations,
		},
		Knn: graph.KnnOptions{TopK: a.Knn.TopK},
		PageRank: graph.PageRankOptions{
			MaxIterations: a.PageRank.MaxIterations,
			DampingFactor: a.PageRank.DampingFactor,
			Tolerance:     a.PageRank.Tolerance,
			WriteProperty: a.PageRank.WriteProperty,
		},
	}
}

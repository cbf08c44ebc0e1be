package graph

import (
	"context"
	"sync"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"sportsgraph/backend/internal/constants"
	apperrors "sportsgraph/backend/pkg/errors"
	"sportsgraph/backend/pkg/logger"
)

// ProjectionSpec names an in-memory graph and what it loads
type ProjectionSpec struct {
	Name          string
	NodeLabels    []string
	Relationships []string
}

// relationshipConfig projects every relationship type as undirected
func (s ProjectionSpec) relationshipConfig() map[string]any {
	config := make(map[string]any, len(s.Relationships))
	for _, relType := range s.Relationships {
		config[relType] = map[string]any{
			"type":        relType,
			"orientation": "UNDIRECTED",
		}
	}
	return config
}

func (s ProjectionSpec) labels() []any {
	labels := make([]any, len(s.NodeLabels))
	for i, l := range s.NodeLabels {
		labels[i] = l
	}
	return labels
}

// ProjectionManager makes sure the named projection exists before analytics
// run. Creation is check-then-create; an "already exists" answer from the
// create step counts as success, and concurrent callers in this process
// share one in-flight attempt. Algorithm runs hold a read lock on the
// projection so Drop and Rebuild wait for them to finish.
type ProjectionManager struct {
	sessions SessionFactory
	spec     ProjectionSpec
	group    singleflight.Group
	mu       sync.RWMutex
	timeout  time.Duration
	logger   *zap.Logger
}

// NewProjectionManager creates a manager for one process-wide projection
func NewProjectionManager(sessions SessionFactory, spec ProjectionSpec) *ProjectionManager {
	return &ProjectionManager{
		sessions: sessions,
		spec:     spec,
		timeout:  constants.ProjectionTimeout,
		logger:   logger.Named("graph.projection"),
	}
}

// Name returns the projection name
func (p *ProjectionManager) Name() string {
	return p.spec.Name
}

// Ensure creates the projection if it is absent
func (p *ProjectionManager) Ensure(ctx context.Context) error {
	release, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	release()
	return nil
}

// Acquire ensures the projection exists and holds it until release is called.
// A concurrent Drop or Rebuild waits for every holder to release.
func (p *ProjectionManager) Acquire(ctx context.Context) (func(), error) {
	p.mu.RLock()
	if err := p.shared(ctx, p.spec.Name, p.ensure); err != nil {
		p.mu.RUnlock()
		return nil, err
	}
	return p.mu.RUnlock, nil
}

// shared runs fn once for every concurrent caller using key. The work runs
// detached from any single caller's cancellation; each caller stops waiting
// when its own context is done.
func (p *ProjectionManager) shared(ctx context.Context, key string, fn func(context.Context) error) error {
	ch := p.group.DoChan(key, func() (any, error) {
		workCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
		defer cancel()
		return nil, fn(workCtx)
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *ProjectionManager) ensure(ctx context.Context) error {
	session := p.sessions.NewSession(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	exists, err := p.exists(ctx, session)
	if err != nil {
		return apperrors.NewProjectionError(p.spec.Name, "check", err)
	}
	if exists {
		return nil
	}

	return p.create(ctx, session)
}

// Exists reports whether the projection is currently in the catalog
func (p *ProjectionManager) Exists(ctx context.Context) (bool, error) {
	session := p.sessions.NewSession(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	exists, err := p.exists(ctx, session)
	if err != nil {
		return false, apperrors.NewProjectionError(p.spec.Name, "check", err)
	}
	return exists, nil
}

// Drop removes the projection. Dropping an absent projection is not an error.
func (p *ProjectionManager) Drop(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	session := p.sessions.NewSession(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	return p.drop(ctx, session)
}

// Rebuild drops and recreates the projection so it reflects the current graph
func (p *ProjectionManager) Rebuild(ctx context.Context) error {
	return p.shared(ctx, p.spec.Name+"/rebuild", func(ctx context.Context) error {
		p.mu.Lock()
		defer p.mu.Unlock()

		session := p.sessions.NewSession(ctx, neo4j.AccessModeWrite)
		defer session.Close(ctx)

		if err := p.drop(ctx, session); err != nil {
			return err
		}
		return p.create(ctx, session)
	})
}

func (p *ProjectionManager) exists(ctx context.Context, session Session) (bool, error) {
	query := `
		CALL gds.graph.exists($graphName)
		YIELD exists
		RETURN exists
	`

	records, err := session.Run(ctx, query, map[string]any{"graphName": p.spec.Name})
	if err != nil {
		return false, err
	}
	if len(records) == 0 {
		return false, nil
	}
	return getBoolFromRecord(records[0], "exists"), nil
}

func (p *ProjectionManager) create(ctx context.Context, session Session) error {
	query := `
		CALL gds.graph.project($graphName, $nodeLabels, $relationships)
		YIELD graphName, nodeCount, relationshipCount
		RETURN graphName, nodeCount, relationshipCount
	`

	records, err := session.Run(ctx, query, map[string]any{
		"graphName":     p.spec.Name,
		"nodeLabels":    p.spec.labels(),
		"relationships": p.spec.relationshipConfig(),
	})
	if err != nil {
		if apperrors.IsAlreadyExists(err) {
			p.logger.Debug("Projection created concurrently", zap.String("projection", p.spec.Name))
			return nil
		}
		return apperrors.NewProjectionError(p.spec.Name, "create", err)
	}

	fields := []zap.Field{zap.String("projection", p.spec.Name)}
	if len(records) > 0 {
		fields = append(fields,
			zap.Int64("nodes", getInt64FromRecord(records[0], "nodeCount")),
			zap.Int64("relationships", getInt64FromRecord(records[0], "relationshipCount")),
		)
	}
	p.logger.Info("Projection created", fields...)
	return nil
}

func (p *ProjectionManager) drop(ctx context.Context, session Session) error {
	query := `
		CALL gds.graph.drop($graphName, false)
		YIELD graphName
		RETURN graphName
	`

	if _, err := session.Run(ctx, query, map[string]any{"graphName": p.spec.Name}); err != nil {
		return apperrors.NewProjectionError(p.spec.Name, "drop", err)
	}
	p.logger.Info("Projection dropped", zap.String("projection", p.spec.Name))
	return nil
}

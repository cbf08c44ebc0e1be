package graph

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Session runs statements against the database. One Session serves one
// logical operation and is closed when that operation returns.
type Session interface {
	// Run executes cypher and collects every record of the result.
	Run(ctx context.Context, cypher string, params map[string]any) ([]*neo4j.Record, error)
	Close(ctx context.Context) error
}

// SessionFactory hands out sessions. Pooling, if any, happens behind it.
type SessionFactory interface {
	NewSession(ctx context.Context, mode neo4j.AccessMode) Session
}

// DriverSessions opens sessions on a Neo4j driver
type DriverSessions struct {
	driver   neo4j.DriverWithContext
	database string
}

// NewDriverSessions creates a session factory for driver. An empty database
// name uses the server default.
func NewDriverSessions(driver neo4j.DriverWithContext, database string) *DriverSessions {
	return &DriverSessions{driver: driver, database: database}
}

// NewSession opens a driver session in the given access mode
func (d *DriverSessions) NewSession(ctx context.Context, mode neo4j.AccessMode) Session {
	return &driverSession{
		session: d.driver.NewSession(ctx, neo4j.SessionConfig{
			AccessMode:   mode,
			DatabaseName: d.database,
		}),
	}
}

// Close closes the Neo4j driver connection
func (d *DriverSessions) Close(ctx context.Context) error {
	return d.driver.Close(ctx)
}

type driverSession struct {
	session neo4j.SessionWithContext
}

func (s *driverSession) Run(ctx context.Context, cypher string, params map[string]any) ([]*neo4j.Record, error) {
	result, err := s.session.Run(ctx, cypher, params)
	if err != nil {
		return nil, err
	}
	return result.Collect(ctx)
}

func (s *driverSession) Close(ctx context.Context) error {
	return s.session.Close(ctx)
}

// runQuery opens a session, runs one statement and always closes the session
func runQuery(ctx context.Context, sessions SessionFactory, mode neo4j.AccessMode, cypher string, params map[string]any) ([]*neo4j.Record, error) {
	session := sessions.NewSession(ctx, mode)
	defer session.Close(ctx)

	return session.Run(ctx, cypher, params)
}

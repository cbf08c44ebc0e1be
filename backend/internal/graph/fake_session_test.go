package graph

import (
	"context"
	"strings"
	"sync"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Mock implementations for testing

type fakeCall struct {
	mode   neo4j.AccessMode
	cypher string
	params map[string]any
}

type fakeResponse struct {
	match   string
	records []*neo4j.Record
	err     error
	gate    <-chan struct{}
	entered chan<- struct{}
}

// fakeSessions answers each statement with the first response whose match
// string appears in the cypher text. Unmatched statements return no rows.
type fakeSessions struct {
	mu        sync.Mutex
	responses []fakeResponse
	calls     []fakeCall
	opened    int
	closed    int
}

func (f *fakeSessions) on(match string, records ...*neo4j.Record) *fakeSessions {
	f.responses = append(f.responses, fakeResponse{match: match, records: records})
	return f
}

func (f *fakeSessions) fail(match string, err error) *fakeSessions {
	f.responses = append(f.responses, fakeResponse{match: match, err: err})
	return f
}

// hold blocks matching statements until gate closes or the statement's
// context ends. Each blocked statement signals entered first.
func (f *fakeSessions) hold(match string, gate <-chan struct{}, entered chan<- struct{}, records ...*neo4j.Record) *fakeSessions {
	f.responses = append(f.responses, fakeResponse{match: match, records: records, gate: gate, entered: entered})
	return f
}

func (f *fakeSessions) NewSession(ctx context.Context, mode neo4j.AccessMode) Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opened++
	return &fakeSession{parent: f, mode: mode}
}

func (f *fakeSessions) ran(match string) []fakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []fakeCall
	for _, c := range f.calls {
		if strings.Contains(c.cypher, match) {
			out = append(out, c)
		}
	}
	return out
}

type fakeSession struct {
	parent *fakeSessions
	mode   neo4j.AccessMode
}

func (s *fakeSession) Run(ctx context.Context, cypher string, params map[string]any) ([]*neo4j.Record, error) {
	f := s.parent
	f.mu.Lock()
	f.calls = append(f.calls, fakeCall{mode: s.mode, cypher: cypher, params: params})
	var matched *fakeResponse
	for i := range f.responses {
		if strings.Contains(cypher, f.responses[i].match) {
			matched = &f.responses[i]
			break
		}
	}
	f.mu.Unlock()

	if matched == nil {
		return nil, nil
	}
	if matched.gate != nil {
		if matched.entered != nil {
			matched.entered <- struct{}{}
		}
		select {
		case <-matched.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return matched.records, matched.err
}

func (s *fakeSession) Close(ctx context.Context) error {
	s.parent.mu.Lock()
	defer s.parent.mu.Unlock()
	s.parent.closed++
	return nil
}

func record(keys []string, values ...any) *neo4j.Record {
	return &neo4j.Record{Keys: keys, Values: values}
}

func person(elementID, name string, extra map[string]any) neo4j.Node {
	props := map[string]any{"name": name}
	for k, v := range extra {
		props[k] = v
	}
	return neo4j.Node{ElementId: elementID, Labels: []string{"Person"}, Props: props}
}

func org(elementID, name string) neo4j.Node {
	return neo4j.Node{ElementId: elementID, Labels: []string{"Organisation"}, Props: map[string]any{"name": name}}
}

func rel(elementID, relType string, start, end neo4j.Node) neo4j.Relationship {
	return neo4j.Relationship{
		ElementId:      elementID,
		StartElementId: start.ElementId,
		EndElementId:   end.ElementId,
		Type:           relType,
		Props:          map[string]any{},
	}
}

func tripleRecord(start neo4j.Node, r neo4j.Relationship, end neo4j.Node) *neo4j.Record {
	return record([]string{"n", "r", "m"}, start, r, end)
}

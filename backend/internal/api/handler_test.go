package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"sportsgraph/backend/internal/constants"
	"sportsgraph/backend/internal/graph"
	"sportsgraph/backend/internal/services"
	apperrors "sportsgraph/backend/pkg/errors"
)

// fakeService overrides the calls under test; anything else panics through the nil embedded interface
type fakeService struct {
	GraphService

	graph      graph.Graph
	liked      graph.CountedGraph
	summary    *services.LikedSummary
	similar    []graph.ScoreRow
	scores     []graph.ScoreRow
	err        error
	lastLimit  int
	lastFilter string
	lastQuery  graph.PageRankQuery
	lastNames  []string
	embedding  graph.EmbeddingOptions
	deadline   bool
}

func (f *fakeService) BuildGraph(ctx context.Context, limit int, filterType string) (graph.Graph, error) {
	f.lastLimit = limit
	f.lastFilter = filterType
	_, f.deadline = ctx.Deadline()
	return f.graph, f.err
}

func (f *fakeService) GetParticipationGraph(ctx context.Context, limit int) (graph.Graph, error) {
	f.lastLimit = limit
	return f.graph, f.err
}

func (f *fakeService) GetPersonSubgraph(ctx context.Context, names []string, limit int) (graph.Graph, error) {
	f.lastNames = names
	f.lastLimit = limit
	return f.graph, f.err
}

func (f *fakeService) GetLikedByEmail(ctx context.Context, email string, opts services.LikedOptions) (graph.CountedGraph, error) {
	f.lastLimit = opts.Limit
	f.lastFilter = opts.Type
	return f.liked, f.err
}

func (f *fakeService) GetLikedSummary(ctx context.Context, email string) (*services.LikedSummary, error) {
	return f.summary, f.err
}

func (f *fakeService) GetSimilar(ctx context.Context, name string, topK int) ([]graph.ScoreRow, error) {
	f.lastLimit = topK
	return f.similar, f.err
}

func (f *fakeService) ComputeEmbeddings(ctx context.Context, opts graph.EmbeddingOptions) error {
	f.embedding = opts
	return f.err
}

func (f *fakeService) GetPageRankScores(ctx context.Context, q graph.PageRankQuery) ([]graph.ScoreRow, error) {
	f.lastQuery = q
	return f.scores, f.err
}

func newTestRouter(svc GraphService, opts RouterOptions) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewRouter(svc, zap.NewNop(), opts)
}

func perform(router *gin.Engine, method, path string, body []byte) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var response map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return response
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(&fakeService{}, RouterOptions{})

	w := perform(router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestRequestID_Propagated(t *testing.T) {
	router := newTestRouter(&fakeService{}, RouterOptions{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	router.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestGetGraph_LimitAndFilter(t *testing.T) {
	svc := &fakeService{graph: graph.BuildGraph(nil)}
	router := newTestRouter(svc, RouterOptions{})

	w := perform(router, http.MethodGet, "/api/graph?limit=abc&type=LIKES", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 100, svc.lastLimit)
	assert.Equal(t, "LIKES", svc.lastFilter)
	assert.JSONEq(t, `{"nodes":[],"edges":[]}`, w.Body.String())
	assert.False(t, svc.deadline)
}

func TestGetGraph_RequestTimeout(t *testing.T) {
	svc := &fakeService{graph: graph.BuildGraph(nil)}
	router := newTestRouter(svc, RouterOptions{RequestTimeout: time.Minute})

	perform(router, http.MethodGet, "/api/graph", nil)
	assert.True(t, svc.deadline)
}

func TestPostParticipationGraph_BodyLimit(t *testing.T) {
	svc := &fakeService{graph: graph.BuildGraph(nil)}
	router := newTestRouter(svc, RouterOptions{})

	w := perform(router, http.MethodPost, "/api/graph", []byte(`{"limit": 7}`))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 7, svc.lastLimit)

	w = perform(router, http.MethodPost, "/api/graph", []byte(`{"limit": -2}`))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 25, svc.lastLimit)

	w = perform(router, http.MethodPost, "/api/graph", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 25, svc.lastLimit)
}

func TestPostFilteredGraph(t *testing.T) {
	svc := &fakeService{graph: graph.BuildGraph(nil)}
	router := newTestRouter(svc, RouterOptions{})

	w := perform(router, http.MethodPost, "/api/graph/filtered", []byte(`{"names": ["Alice", "Bob"]}`))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"Alice", "Bob"}, svc.lastNames)
}

func TestGetLikedByEmail_InvalidEmail(t *testing.T) {
	router := newTestRouter(&fakeService{}, RouterOptions{})

	w := perform(router, http.MethodGet, "/api/graph/liked/not-an-email", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid email format", decode(t, w)["error"])
}

func TestGetLikedByEmail_EmptyResult(t *testing.T) {
	svc := &fakeService{liked: graph.CountedGraph{Graph: graph.BuildGraph(nil)}}
	router := newTestRouter(svc, RouterOptions{})

	w := perform(router, http.MethodGet, "/api/graph/liked/alice@example.com?type=person", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	response := decode(t, w)
	assert.Equal(t, float64(0), response["totalCount"])
	assert.Equal(t, "No liked entities found for this user", response["message"])
	assert.Equal(t, "person", svc.lastFilter)
	assert.Equal(t, 50, svc.lastLimit)
}

func TestGetLikedByEmail_ValidationFromService(t *testing.T) {
	svc := &fakeService{err: apperrors.NewValidationError("type", "must be person or organisation")}
	router := newTestRouter(svc, RouterOptions{})

	w := perform(router, http.MethodGet, "/api/graph/liked/alice@example.com?type=venue", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "type must be person or organisation", decode(t, w)["error"])
}

func TestGetLikedSummary(t *testing.T) {
	svc := &fakeService{summary: &services.LikedSummary{TotalLiked: 3, LikedPeople: 2, LikedOrganizations: 1, HasLikes: true}}
	router := newTestRouter(svc, RouterOptions{})

	w := perform(router, http.MethodGet, "/api/graph/liked/alice@example.com/summary", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"totalLiked":3,"likedPeople":2,"likedOrganizations":1,"hasLikes":true}`, w.Body.String())
}

func TestGetSimilar(t *testing.T) {
	svc := &fakeService{similar: []graph.ScoreRow{{Name: "Bob", Score: 0.9}}}
	router := newTestRouter(svc, RouterOptions{})

	w := perform(router, http.MethodGet, "/api/graph/similar", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = perform(router, http.MethodGet, "/api/graph/similar?name=Alice&topK=3", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3, svc.lastLimit)
	assert.JSONEq(t, `[{"name":"Bob","score":0.9}]`, w.Body.String())
}

func TestGetSimilar_NotFound(t *testing.T) {
	svc := &fakeService{err: apperrors.NewNotFound("node", "Nobody")}
	router := newTestRouter(svc, RouterOptions{})

	w := perform(router, http.MethodGet, "/api/graph/similar?name=Nobody", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPostEmbeddings(t *testing.T) {
	svc := &fakeService{}
	router := newTestRouter(svc, RouterOptions{})

	w := perform(router, http.MethodPost, "/api/graph/embeddings", []byte(`{"dim": 32, "iterations": 4}`))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, graph.EmbeddingOptions{Dimension: 32, Iterations: 4}, svc.embedding)

	w = perform(router, http.MethodPost, "/api/graph/embeddings", []byte(`{"dim": "wide"}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetPageRank(t *testing.T) {
	svc := &fakeService{scores: []graph.ScoreRow{}}
	router := newTestRouter(svc, RouterOptions{})

	w := perform(router, http.MethodGet, "/api/graph/pagerank?threshold=0.2", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", w.Body.String())
	assert.Equal(t, 0.2, svc.lastQuery.Threshold)
	assert.Equal(t, 10, svc.lastQuery.Limit)

	w = perform(router, http.MethodGet, "/api/graph/pagerank", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, constants.DefaultPageRankThreshold, svc.lastQuery.Threshold)

	w = perform(router, http.MethodGet, "/api/graph/pagerank?threshold=high", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEngineFailure_Returns500WithHint(t *testing.T) {
	svc := &fakeService{err: apperrors.NewQueryError("stream knn", errors.New("Graph does not exist: sportsGraph"))}

	router := newTestRouter(svc, RouterOptions{})
	w := perform(router, http.MethodGet, "/api/graph/similar?name=Alice", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	response := decode(t, w)
	assert.Equal(t, "Failed to get similar nodes", response["error"])
	assert.Equal(t, "Analytics projection is missing; rebuild it and retry", response["hint"])
	assert.NotContains(t, response, "details")

	router = newTestRouter(svc, RouterOptions{ExposeErrors: true})
	w = perform(router, http.MethodGet, "/api/graph/similar?name=Alice", nil)
	assert.Contains(t, decode(t, w)["details"], "Graph does not exist")
}

func TestCORSPreflight(t *testing.T) {
	router := newTestRouter(&fakeService{}, RouterOptions{})

	w := perform(router, http.MethodOptions, "/api/graph", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

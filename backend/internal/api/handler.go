package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sportsgraph/backend/internal/constants"
	"sportsgraph/backend/internal/graph"
	"sportsgraph/backend/internal/services"
	apperrors "sportsgraph/backend/pkg/errors"
)

// GraphService is what the handlers need from the query service
type GraphService interface {
	BuildGraph(ctx context.Context, limit int, filterType string) (graph.Graph, error)
	GetParticipationGraph(ctx context.Context, limit int) (graph.Graph, error)
	GetPersonSubgraph(ctx context.Context, names []string, limit int) (graph.Graph, error)
	GetAthleteOrgGraph(ctx context.Context, name string) (graph.Graph, error)
	GetLikedByEmail(ctx context.Context, email string, opts services.LikedOptions) (graph.CountedGraph, error)
	GetLikedSummary(ctx context.Context, email string) (*services.LikedSummary, error)
	GetAllLikes(ctx context.Context, limit int) (graph.CountedGraph, error)
	GetFriendsByEmail(ctx context.Context, email string, limit int) (graph.CountedGraph, error)
	GetAcceptedFriends(ctx context.Context, username string) (graph.Graph, error)
	GetTopOrgWithLikes(ctx context.Context) (services.TopOrganisationGraph, error)

	GetSimilar(ctx context.Context, name string, topK int) ([]graph.ScoreRow, error)
	ComputeEmbeddings(ctx context.Context, opts graph.EmbeddingOptions) error
	WriteKnn(ctx context.Context, opts graph.KnnOptions) error
	SetupKnn(ctx context.Context, embedding graph.EmbeddingOptions, knn graph.KnnOptions) error
	CalculatePageRank(ctx context.Context, opts graph.PageRankOptions) (*graph.PageRankResult, error)
	GetPageRankScores(ctx context.Context, q graph.PageRankQuery) ([]graph.ScoreRow, error)
	DetectCommunities(ctx context.Context) ([]graph.CommunityMember, error)
	CommunityGroups(ctx context.Context) ([]graph.Community, error)
	WriteCommunities(ctx context.Context) (*graph.CommunityWriteResult, error)
	GetStoredCommunities(ctx context.Context) ([]graph.Community, error)
	ExportEdgesToCSV(ctx context.Context, path string) (*services.ExportResult, error)
	RebuildProjection(ctx context.Context) error
	DropProjection(ctx context.Context) error
}

// Handler serves the graph API
type Handler struct {
	svc          GraphService
	log          *zap.Logger
	exposeErrors bool
}

// NewHandler creates the HTTP handlers. exposeErrors adds the underlying
// error text to 500 responses.
func NewHandler(svc GraphService, log *zap.Logger, exposeErrors bool) *Handler {
	return &Handler{svc: svc, log: log, exposeErrors: exposeErrors}
}

type emailParam struct {
	Email string `uri:"email" binding:"required,email"`
}

// ============================================================================
// Traversal views
// ============================================================================

func (h *Handler) getGraph(c *gin.Context) {
	limit := graph.SafeLimit(c.Query("limit"), constants.DefaultConnectionsLimit)

	data, err := h.svc.BuildGraph(c.Request.Context(), limit, c.Query("type"))
	if err != nil {
		h.fail(c, err, "Failed to build graph")
		return
	}
	c.JSON(http.StatusOK, data)
}

func (h *Handler) postParticipationGraph(c *gin.Context) {
	var req struct {
		Limit any `json:"limit"`
	}
	if !h.bindOptionalJSON(c, &req) {
		return
	}

	data, err := h.svc.GetParticipationGraph(c.Request.Context(), graph.SafeLimit(req.Limit, constants.DefaultParticipationLimit))
	if err != nil {
		h.fail(c, err, "Failed to get participation graph")
		return
	}
	c.JSON(http.StatusOK, data)
}

func (h *Handler) postFilteredGraph(c *gin.Context) {
	var req struct {
		Names []string `json:"names"`
		Limit any      `json:"limit"`
	}
	if !h.bindOptionalJSON(c, &req) {
		return
	}

	data, err := h.svc.GetPersonSubgraph(c.Request.Context(), req.Names, graph.SafeLimit(req.Limit, constants.DefaultPersonViewLimit))
	if err != nil {
		h.fail(c, err, "Failed to get filtered graph")
		return
	}
	c.JSON(http.StatusOK, data)
}

func (h *Handler) getAthleteOrganisations(c *gin.Context) {
	data, err := h.svc.GetAthleteOrgGraph(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.fail(c, err, "Failed to get athlete organisations")
		return
	}
	c.JSON(http.StatusOK, data)
}

func (h *Handler) getLikedByEmail(c *gin.Context) {
	var p emailParam
	if err := c.ShouldBindUri(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email format"})
		return
	}

	data, err := h.svc.GetLikedByEmail(c.Request.Context(), p.Email, services.LikedOptions{
		Limit: graph.SafeLimit(c.Query("limit"), constants.DefaultLikedLimit),
		Type:  c.Query("type"),
	})
	if err != nil {
		h.fail(c, err, "Failed to get liked entities")
		return
	}
	if data.TotalCount == 0 {
		c.JSON(http.StatusOK, emptyCounted("No liked entities found for this user"))
		return
	}
	c.JSON(http.StatusOK, data)
}

func (h *Handler) getLikedSummary(c *gin.Context) {
	var p emailParam
	if err := c.ShouldBindUri(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email format"})
		return
	}

	summary, err := h.svc.GetLikedSummary(c.Request.Context(), p.Email)
	if err != nil {
		h.fail(c, err, "Failed to get liked summary")
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handler) getAllLikes(c *gin.Context) {
	data, err := h.svc.GetAllLikes(c.Request.Context(), graph.SafeLimit(c.Query("limit"), constants.DefaultLikedLimit))
	if err != nil {
		h.fail(c, err, "Failed to get likes")
		return
	}
	c.JSON(http.StatusOK, data)
}

func (h *Handler) getFriendsByEmail(c *gin.Context) {
	var p emailParam
	if err := c.ShouldBindUri(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email format"})
		return
	}

	data, err := h.svc.GetFriendsByEmail(c.Request.Context(), p.Email, graph.SafeLimit(c.Query("limit"), constants.DefaultFriendsLimit))
	if err != nil {
		h.fail(c, err, "Failed to get friends")
		return
	}
	if data.TotalCount == 0 {
		c.JSON(http.StatusOK, emptyCounted("No friends found for this user"))
		return
	}
	c.JSON(http.StatusOK, data)
}

func (h *Handler) getAcceptedFriends(c *gin.Context) {
	data, err := h.svc.GetAcceptedFriends(c.Request.Context(), c.Param("username"))
	if err != nil {
		h.fail(c, err, "Failed to get accepted friends")
		return
	}
	c.JSON(http.StatusOK, data)
}

func (h *Handler) getTopOrganisation(c *gin.Context) {
	data, err := h.svc.GetTopOrgWithLikes(c.Request.Context())
	if err != nil {
		h.fail(c, err, "Failed to get top organisation")
		return
	}
	c.JSON(http.StatusOK, data)
}

// ============================================================================
// Analytics
// ============================================================================

func (h *Handler) getSimilar(c *gin.Context) {
	name := c.Query("name")
	if strings.TrimSpace(name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	rows, err := h.svc.GetSimilar(c.Request.Context(), name, graph.SafeLimit(c.Query("topK"), constants.DefaultSimilarTopK))
	if err != nil {
		h.fail(c, err, "Failed to get similar nodes")
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *Handler) postEmbeddings(c *gin.Context) {
	var opts graph.EmbeddingOptions
	if !h.bindOptionalJSON(c, &opts) {
		return
	}

	if err := h.svc.ComputeEmbeddings(c.Request.Context(), opts); err != nil {
		h.fail(c, err, "Failed to compute embeddings")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) postKnn(c *gin.Context) {
	var opts graph.KnnOptions
	if !h.bindOptionalJSON(c, &opts) {
		return
	}

	if err := h.svc.WriteKnn(c.Request.Context(), opts); err != nil {
		h.fail(c, err, "Failed to write kNN")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) postKnnSetup(c *gin.Context) {
	var req struct {
		Dimension  int `json:"dim"`
		Iterations int `json:"iterations"`
		TopK       int `json:"topK"`
	}
	if !h.bindOptionalJSON(c, &req) {
		return
	}

	err := h.svc.SetupKnn(c.Request.Context(),
		graph.EmbeddingOptions{Dimension: req.Dimension, Iterations: req.Iterations},
		graph.KnnOptions{TopK: req.TopK},
	)
	if err != nil {
		h.fail(c, err, "Failed to setup kNN")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "kNN setup complete"})
}

func (h *Handler) postPageRank(c *gin.Context) {
	var opts graph.PageRankOptions
	if !h.bindOptionalJSON(c, &opts) {
		return
	}

	result, err := h.svc.CalculatePageRank(c.Request.Context(), opts)
	if err != nil {
		h.fail(c, err, "Failed to calculate PageRank")
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) getPageRank(c *gin.Context) {
	q := graph.PageRankQuery{
		Limit:     graph.SafeLimit(c.Query("limit"), constants.DefaultPageRankLimit),
		Threshold: constants.DefaultPageRankThreshold,
		Property:  c.Query("property"),
	}
	if raw := c.Query("threshold"); raw != "" {
		threshold, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "threshold must be a number"})
			return
		}
		q.Threshold = threshold
	}

	rows, err := h.svc.GetPageRankScores(c.Request.Context(), q)
	if err != nil {
		h.fail(c, err, "Failed to retrieve PageRank")
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *Handler) getCommunities(c *gin.Context) {
	members, err := h.svc.DetectCommunities(c.Request.Context())
	if err != nil {
		h.fail(c, err, "Failed to detect communities")
		return
	}
	c.JSON(http.StatusOK, members)
}

func (h *Handler) getCommunityGroups(c *gin.Context) {
	groups, err := h.svc.CommunityGroups(c.Request.Context())
	if err != nil {
		h.fail(c, err, "Failed to detect communities")
		return
	}
	c.JSON(http.StatusOK, groups)
}

func (h *Handler) postCommunities(c *gin.Context) {
	result, err := h.svc.WriteCommunities(c.Request.Context())
	if err != nil {
		h.fail(c, err, "Failed to write communities")
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) getStoredCommunities(c *gin.Context) {
	groups, err := h.svc.GetStoredCommunities(c.Request.Context())
	if err != nil {
		h.fail(c, err, "Failed to load communities")
		return
	}
	c.JSON(http.StatusOK, groups)
}

func (h *Handler) getExport(c *gin.Context) {
	result, err := h.svc.ExportEdgesToCSV(c.Request.Context(), "")
	if err != nil {
		h.fail(c, err, "Failed to export edges")
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) postProjectionRebuild(c *gin.Context) {
	if err := h.svc.RebuildProjection(c.Request.Context()); err != nil {
		h.fail(c, err, "Failed to rebuild projection")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "rebuilt"})
}

func (h *Handler) deleteProjection(c *gin.Context) {
	if err := h.svc.DropProjection(c.Request.Context()); err != nil {
		h.fail(c, err, "Failed to drop projection")
		return
	}
	c.Status(http.StatusNoContent)
}

// ============================================================================
// Helpers
// ============================================================================

// fail translates service errors: validation → 400, not found → 404,
// everything else → 500 with a generic message and an optional hint.
func (h *Handler) fail(c *gin.Context, err error, message string) {
	var validation *apperrors.ValidationError
	if errors.As(err, &validation) {
		c.JSON(http.StatusBadRequest, gin.H{"error": validation.Message})
		return
	}

	var notFound *apperrors.NotFoundError
	if errors.As(err, &notFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": notFound.Message})
		return
	}

	h.log.Error(message,
		zap.Error(err),
		zap.String("request_id", c.GetString(requestIDKey)),
	)

	body := gin.H{"error": message}
	if hint := apperrors.FriendlyMessage(err); hint != "" {
		body["hint"] = hint
	}
	if h.exposeErrors {
		body["details"] = err.Error()
	}
	c.JSON(http.StatusInternalServerError, body)
}

// bindOptionalJSON binds a JSON body when one is sent. It writes the 400
// response itself and reports false on malformed input.
func (h *Handler) bindOptionalJSON(c *gin.Context, dst any) bool {
	if c.Request.Body == nil || c.Request.Body == http.NoBody || c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

func emptyCounted(message string) gin.H {
	return gin.H{
		"nodes":      []graph.Node{},
		"edges":      []graph.Edge{},
		"totalCount": 0,
		"message":    message,
	}
}

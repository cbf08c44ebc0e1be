package services

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"sportsgraph/backend/internal/constants"
	"sportsgraph/backend/internal/graph"
	apperrors "sportsgraph/backend/pkg/errors"
	"sportsgraph/backend/pkg/logger"
)

// GraphRepository is the set of traversal queries the service composes
type GraphRepository interface {
	GetAllConnections(ctx context.Context, limit int) ([]graph.Triple, error)
	GetParticipationGraph(ctx context.Context, limit int) ([]graph.Triple, error)
	GetAthleteOrgGraph(ctx context.Context, name string) ([]graph.Triple, error)
	GetLikedByEmail(ctx context.Context, email, label string, limit int) ([]graph.Triple, error)
	GetLikedPeopleByEmail(ctx context.Context, email string, limit int) ([]graph.Triple, error)
	GetLikedOrganisationsByEmail(ctx context.Context, email string, limit int) ([]graph.Triple, error)
	GetAllLikes(ctx context.Context, limit int) ([]graph.Triple, error)
	GetFriendsByEmail(ctx context.Context, email string, limit int) ([]graph.FriendRecord, error)
	GetAcceptedFriends(ctx context.Context, username string) ([]graph.Triple, error)
	GetTopOrgWithLikes(ctx context.Context) (*graph.TopOrganisation, error)
	GetPersonSubgraph(ctx context.Context, names []string, limit int) ([]graph.Triple, error)
	GetExportEdges(ctx context.Context) ([]graph.EdgeRow, error)
	GetStoredCommunities(ctx context.Context) ([]graph.CommunityMember, error)
}

// LikedOptions narrows a liked-entities lookup
type LikedOptions struct {
	Limit int
	// Type is "person", "organisation" or empty for any
	Type string
}

// LikedSummary counts what a user likes
type LikedSummary struct {
	TotalLiked         int  `json:"totalLiked"`
	LikedPeople        int  `json:"likedPeople"`
	LikedOrganizations int  `json:"likedOrganizations"`
	HasLikes           bool `json:"hasLikes"`
}

// TopOrganisationGraph is the most-joined organisation rendered as a graph
type TopOrganisationGraph struct {
	graph.Graph
	Organisation     string `json:"organisation"`
	ParticipantCount int64  `json:"participantCount"`
}

// GraphService is the single entry point used by the HTTP and CLI layers.
// It maps every repository result and never swallows errors.
type GraphService struct {
	repo       GraphRepository
	engine     graph.AnalyticsEngine
	exportPath string
	logger     *zap.Logger
}

// NewGraphService creates the query service. exportPath is used when an
// export call names no file.
func NewGraphService(repo GraphRepository, engine graph.AnalyticsEngine, exportPath string) *GraphService {
	return &GraphService{
		repo:       repo,
		engine:     engine,
		exportPath: exportPath,
		logger:     logger.Named("services.graph"),
	}
}

// ============================================================================
// Traversal views
// ============================================================================

// BuildGraph maps all connections up to limit. A non-empty filterType keeps
// only edges of that relationship type; nodes reached only through dropped
// edges are left out.
func (s *GraphService) BuildGraph(ctx context.Context, limit int, filterType string) (graph.Graph, error) {
	triples, err := s.repo.GetAllConnections(ctx, limit)
	if err != nil {
		return graph.Graph{}, err
	}

	filterType = strings.TrimSpace(filterType)
	b := graph.NewBuilder()
	for _, t := range triples {
		if filterType != "" && t.Rel.Type != filterType {
			continue
		}
		b.AddTriple(t)
	}
	return b.Graph(), nil
}

// GetParticipationGraph maps PARTICIPATES_IN edges up to limit (default 25)
func (s *GraphService) GetParticipationGraph(ctx context.Context, limit int) (graph.Graph, error) {
	triples, err := s.repo.GetParticipationGraph(ctx, limit)
	if err != nil {
		return graph.Graph{}, err
	}
	return graph.BuildGraph(triples), nil
}

// GetAthleteOrgGraph maps an athlete's non-sponsor organisations
func (s *GraphService) GetAthleteOrgGraph(ctx context.Context, name string) (graph.Graph, error) {
	if strings.TrimSpace(name) == "" {
		return graph.Graph{}, apperrors.NewValidationError("name", "is required")
	}

	triples, err := s.repo.GetAthleteOrgGraph(ctx, name)
	if err != nil {
		return graph.Graph{}, err
	}
	return graph.BuildGraph(triples), nil
}

// GetLikedByEmail maps what a user likes, newest first
func (s *GraphService) GetLikedByEmail(ctx context.Context, email string, opts LikedOptions) (graph.CountedGraph, error) {
	if err := requireEmail(email); err != nil {
		return graph.CountedGraph{}, err
	}
	label, ok := graph.LikedLabel(opts.Type)
	if !ok {
		return graph.CountedGraph{}, apperrors.NewValidationError("type", "must be person or organisation")
	}

	triples, err := s.repo.GetLikedByEmail(ctx, email, label, opts.Limit)
	if err != nil {
		return graph.CountedGraph{}, err
	}
	return counted(graph.BuildGraph(triples), len(triples)), nil
}

// GetAllLikes maps LIKES edges across every user
func (s *GraphService) GetAllLikes(ctx context.Context, limit int) (graph.CountedGraph, error) {
	triples, err := s.repo.GetAllLikes(ctx, limit)
	if err != nil {
		return graph.CountedGraph{}, err
	}
	return counted(graph.BuildGraph(triples), len(triples)), nil
}

// GetFriendsByEmail maps a user's friends and what each friend likes.
// TotalCount is the number of friendships, not the number of nodes.
func (s *GraphService) GetFriendsByEmail(ctx context.Context, email string, limit int) (graph.CountedGraph, error) {
	if err := requireEmail(email); err != nil {
		return graph.CountedGraph{}, err
	}

	friends, err := s.repo.GetFriendsByEmail(ctx, email, limit)
	if err != nil {
		return graph.CountedGraph{}, err
	}

	b := graph.NewBuilder()
	for _, f := range friends {
		b.AddTriple(f.Friendship)
		for _, like := range f.Likes {
			b.AddTriple(like)
		}
	}
	return counted(b.Graph(), len(friends)), nil
}

// GetAcceptedFriends maps a user's accepted friendships
func (s *GraphService) GetAcceptedFriends(ctx context.Context, username string) (graph.Graph, error) {
	if strings.TrimSpace(username) == "" {
		return graph.Graph{}, apperrors.NewValidationError("username", "is required")
	}

	triples, err := s.repo.GetAcceptedFriends(ctx, username)
	if err != nil {
		return graph.Graph{}, err
	}
	return graph.BuildGraph(triples), nil
}

// GetTopOrgWithLikes maps the organisation with the most participants, its
// participants and what they like. An empty graph means no participation exists.
func (s *GraphService) GetTopOrgWithLikes(ctx context.Context) (TopOrganisationGraph, error) {
	top, err := s.repo.GetTopOrgWithLikes(ctx)
	if err != nil {
		return TopOrganisationGraph{}, err
	}
	if top == nil {
		return TopOrganisationGraph{Graph: graph.BuildGraph(nil)}, nil
	}

	b := graph.NewBuilder()
	b.AddNode(top.Organisation)
	for _, p := range top.Participants {
		b.AddTriple(p.Participation)
		for _, like := range p.Likes {
			b.AddTriple(like)
		}
	}
	return TopOrganisationGraph{
		Graph:            b.Graph(),
		Organisation:     graph.DisplayName(top.Organisation),
		ParticipantCount: top.ParticipantCount,
	}, nil
}

// GetPersonSubgraph maps edges among the named people, or the person-sport
// view when no names are given
func (s *GraphService) GetPersonSubgraph(ctx context.Context, names []string, limit int) (graph.Graph, error) {
	cleaned := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			cleaned = append(cleaned, n)
		}
	}

	triples, err := s.repo.GetPersonSubgraph(ctx, cleaned, limit)
	if err != nil {
		return graph.Graph{}, err
	}
	return graph.BuildGraph(triples), nil
}

// GetLikedSummary counts a user's likes with three concurrent lookups. Any
// failing lookup fails the whole summary.
func (s *GraphService) GetLikedSummary(ctx context.Context, email string) (*LikedSummary, error) {
	if err := requireEmail(email); err != nil {
		return nil, err
	}

	var anyLiked, people, orgs []graph.Triple
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		anyLiked, err = s.repo.GetLikedByEmail(gctx, email, "", 1)
		return err
	})
	g.Go(func() error {
		var err error
		people, err = s.repo.GetLikedPeopleByEmail(gctx, email, constants.DefaultSummaryLimit)
		return err
	})
	g.Go(func() error {
		var err error
		orgs, err = s.repo.GetLikedOrganisationsByEmail(gctx, email, constants.DefaultSummaryLimit)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &LikedSummary{
		TotalLiked:         len(people) + len(orgs),
		LikedPeople:        len(people),
		LikedOrganizations: len(orgs),
		HasLikes:           len(anyLiked) > 0,
	}, nil
}

// ============================================================================
// Analytics
// ============================================================================

// GetSimilar returns the topK nodes most similar to name
func (s *GraphService) GetSimilar(ctx context.Context, name string, topK int) ([]graph.ScoreRow, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("name", "is required")
	}
	return s.engine.StreamKnn(ctx, name, graph.SafeLimit(topK, constants.DefaultSimilarTopK))
}

// ComputeEmbeddings stores fresh embeddings on the projection
func (s *GraphService) ComputeEmbeddings(ctx context.Context, opts graph.EmbeddingOptions) error {
	return s.engine.MutateEmbeddings(ctx, opts)
}

// WriteKnn persists similarity relationships from the current embeddings
func (s *GraphService) WriteKnn(ctx context.Context, opts graph.KnnOptions) error {
	return s.engine.WriteKnn(ctx, opts)
}

// SetupKnn computes embeddings then writes similarity relationships
func (s *GraphService) SetupKnn(ctx context.Context, embedding graph.EmbeddingOptions, knn graph.KnnOptions) error {
	if err := s.engine.EnsureProjection(ctx); err != nil {
		return err
	}
	if err := s.engine.MutateEmbeddings(ctx, embedding); err != nil {
		return err
	}
	if err := s.engine.WriteKnn(ctx, knn); err != nil {
		return err
	}
	s.logger.Info("KNN setup complete")
	return nil
}

// CalculatePageRank writes PageRank scores
func (s *GraphService) CalculatePageRank(ctx context.Context, opts graph.PageRankOptions) (*graph.PageRankResult, error) {
	return s.engine.WritePageRank(ctx, opts)
}

// GetPageRankScores reads written scores. Nothing written yields an empty slice.
func (s *GraphService) GetPageRankScores(ctx context.Context, q graph.PageRankQuery) ([]graph.ScoreRow, error) {
	q.Limit = graph.SafeLimit(q.Limit, constants.DefaultPageRankLimit)
	return s.engine.ReadPageRank(ctx, q)
}

// DetectCommunities streams community membership, ascending by community id
func (s *GraphService) DetectCommunities(ctx context.Context) ([]graph.CommunityMember, error) {
	return s.engine.StreamLouvain(ctx)
}

// CommunityGroups streams community membership grouped per community
func (s *GraphService) CommunityGroups(ctx context.Context) ([]graph.Community, error) {
	members, err := s.engine.StreamLouvain(ctx)
	if err != nil {
		return nil, err
	}
	return graph.GroupCommunities(members), nil
}

// WriteCommunities stores each node's community id on the node
func (s *GraphService) WriteCommunities(ctx context.Context) (*graph.CommunityWriteResult, error) {
	return s.engine.WriteLouvain(ctx)
}

// GetStoredCommunities reads community ids written earlier, grouped per community
func (s *GraphService) GetStoredCommunities(ctx context.Context) ([]graph.Community, error) {
	members, err := s.repo.GetStoredCommunities(ctx)
	if err != nil {
		return nil, err
	}
	return graph.GroupCommunities(members), nil
}

// EnsureProjection creates the analytics projection if absent
func (s *GraphService) EnsureProjection(ctx context.Context) error {
	return s.engine.EnsureProjection(ctx)
}

// RebuildProjection reloads the projection from the current graph
func (s *GraphService) RebuildProjection(ctx context.Context) error {
	return s.engine.RebuildProjection(ctx)
}

// DropProjection releases the projection
func (s *GraphService) DropProjection(ctx context.Context) error {
	return s.engine.DropProjection(ctx)
}

func requireEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return apperrors.NewValidationError("email", "is required")
	}
	return nil
}

func counted(g graph.Graph, total int) graph.CountedGraph {
	return graph.CountedGraph{Graph: g, TotalCount: total}
}

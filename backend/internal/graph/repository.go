package graph

import (
	"context"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"sportsgraph/backend/internal/constants"
	apperrors "sportsgraph/backend/pkg/errors"
	"sportsgraph/backend/pkg/logger"
)

// Repository issues bounded traversal queries. Every method opens its own
// session, runs one statement and closes the session on all exit paths.
type Repository struct {
	sessions SessionFactory
	logger   *zap.Logger
}

// NewRepository creates a new graph repository
func NewRepository(sessions SessionFactory) *Repository {
	return &Repository{
		sessions: sessions,
		logger:   logger.Named("graph.repository"),
	}
}

// GetAllConnections returns every (n)-[r]->(m) triple up to limit (default 100)
func (r *Repository) GetAllConnections(ctx context.Context, limit int) ([]Triple, error) {
	query := `
		MATCH (n)-[r]->(m)
		RETURN n, r, m
		LIMIT $limit
	`

	return r.triples(ctx, "get all connections", query, map[string]any{
		"limit": limitParam(limit, constants.DefaultConnectionsLimit),
	})
}

// GetParticipationGraph returns the same triples as GetAllConnections for the
// participation view, with a smaller default limit (25)
func (r *Repository) GetParticipationGraph(ctx context.Context, limit int) ([]Triple, error) {
	query := `
		MATCH (n)-[r]->(m)
		RETURN n, r, m
		LIMIT $limit
	`

	return r.triples(ctx, "get participation graph", query, map[string]any{
		"limit": limitParam(limit, constants.DefaultParticipationLimit),
	})
}

// GetAthleteOrgGraph finds a person by name or any alternate name, ignoring
// case, and returns their participation in non-sponsor organisations.
func (r *Repository) GetAthleteOrgGraph(ctx context.Context, name string) ([]Triple, error) {
	query := `
		MATCH (p:Person)
		WHERE toLower(p.name) = toLower($name)
		   OR ANY(alias IN coalesce(p.alternateName, []) WHERE toLower(alias) = toLower($name))
		MATCH (p)-[r:PARTICIPATES_IN]->(o:Organisation)
		WHERE coalesce(o.role, '') <> $sponsor
		RETURN p AS n, r, o AS m
	`

	return r.triples(ctx, "get athlete organisations", query, map[string]any{
		"name":    name,
		"sponsor": constants.RoleSponsor,
	})
}

// LikedLabel maps a liked-entity type filter to a node label. An empty kind
// means any label.
func LikedLabel(kind string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "":
		return "", true
	case "person", "people":
		return constants.LabelPerson, true
	case "organisation", "organization", "organisations", "organizations":
		return constants.LabelOrganisation, true
	}
	return "", false
}

// GetLikedByEmail returns the user's LIKES edges, newest first. An empty
// label matches any target.
func (r *Repository) GetLikedByEmail(ctx context.Context, email, label string, limit int) ([]Triple, error) {
	query := `
		MATCH (n:Person {email: $email})-[r:LIKES]->(m)
		WHERE $label IS NULL OR $label IN labels(m)
		RETURN n, r, m
		ORDER BY r.createdAt DESC
		LIMIT $limit
	`

	var labelParam any
	if label != "" {
		labelParam = label
	}

	return r.triples(ctx, "get liked by email", query, map[string]any{
		"email": email,
		"label": labelParam,
		"limit": limitParam(limit, constants.DefaultLikedLimit),
	})
}

// GetLikedPeopleByEmail returns liked Person nodes, newest first
func (r *Repository) GetLikedPeopleByEmail(ctx context.Context, email string, limit int) ([]Triple, error) {
	return r.GetLikedByEmail(ctx, email, constants.LabelPerson, limit)
}

// GetLikedOrganisationsByEmail returns liked Organisation nodes, newest first
func (r *Repository) GetLikedOrganisationsByEmail(ctx context.Context, email string, limit int) ([]Triple, error) {
	return r.GetLikedByEmail(ctx, email, constants.LabelOrganisation, limit)
}

// GetAllLikes returns LIKES edges across all users, newest first
func (r *Repository) GetAllLikes(ctx context.Context, limit int) ([]Triple, error) {
	query := `
		MATCH (n)-[r:LIKES]->(m)
		RETURN n, r, m
		ORDER BY r.createdAt DESC
		LIMIT $limit
	`

	return r.triples(ctx, "get all likes", query, map[string]any{
		"limit": limitParam(limit, constants.DefaultLikedLimit),
	})
}

// GetFriendsByEmail returns the user's friendships with registered users,
// newest first, each with the friend's own LIKES edges fetched in the same query.
func (r *Repository) GetFriendsByEmail(ctx context.Context, email string, limit int) ([]FriendRecord, error) {
	query := `
		MATCH (n:Person {email: $email})-[r:FRIENDS_WITH]-(m:Person)
		WHERE $role IN coalesce(m.roles, [])
		OPTIONAL MATCH (m)-[l:LIKES]->(t)
		WITH n, r, m, collect({rel: l, target: t}) AS likes
		RETURN n, r, m, likes
		ORDER BY r.createdAt DESC
		LIMIT $limit
	`

	records, err := r.read(ctx, "get friends by email", query, map[string]any{
		"email": email,
		"role":  constants.RoleUser,
		"limit": limitParam(limit, constants.DefaultFriendsLimit),
	})
	if err != nil {
		return nil, err
	}

	friends := make([]FriendRecord, 0, len(records))
	for _, record := range records {
		t, ok := getTripleFromRecord(record)
		if !ok {
			continue
		}
		friends = append(friends, FriendRecord{
			Friendship: t,
			Likes:      getLikesFromRecord(record, "likes", t.End),
		})
	}
	return friends, nil
}

// GetAcceptedFriends returns accepted FRIENDS_WITH edges of a user in either direction
func (r *Repository) GetAcceptedFriends(ctx context.Context, username string) ([]Triple, error) {
	query := `
		MATCH (n:Person {username: $username})-[r:FRIENDS_WITH {status: $status}]-(m:Person)
		RETURN n, r, m
	`

	return r.triples(ctx, "get accepted friends", query, map[string]any{
		"username": username,
		"status":   constants.FriendStatusAccepted,
	})
}

// GetTopOrgWithLikes returns the organisation with the most PARTICIPATES_IN
// edges, its participants, and what each participant likes. Nil when the
// graph has no participation at all.
func (r *Repository) GetTopOrgWithLikes(ctx context.Context) (*TopOrganisation, error) {
	query := `
		MATCH (:Person)-[:PARTICIPATES_IN]->(o:Organisation)
		WITH o, count(*) AS participantCount
		ORDER BY participantCount DESC
		LIMIT 1
		MATCH (n:Person)-[r:PARTICIPATES_IN]->(o)
		OPTIONAL MATCH (n)-[l:LIKES]->(t)
		RETURN o AS m, participantCount, n, r, collect({rel: l, target: t}) AS likes
	`

	records, err := r.read(ctx, "get top organisation", query, nil)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	top := &TopOrganisation{}
	for _, record := range records {
		t, ok := getTripleFromRecord(record)
		if !ok {
			continue
		}
		top.Organisation = t.End
		top.ParticipantCount = getInt64FromRecord(record, "participantCount")
		top.Participants = append(top.Participants, Participant{
			Participation: t,
			Likes:         getLikesFromRecord(record, "likes", t.Start),
		})
	}
	return top, nil
}

// GetPersonSubgraph returns edges among the named people. With no names it
// falls back to Person-Sport participation capped at limit (default 100).
func (r *Repository) GetPersonSubgraph(ctx context.Context, names []string, limit int) ([]Triple, error) {
	if len(names) > 0 {
		query := `
			MATCH (n:Person)-[r]->(m:Person)
			WHERE n.name IN $names AND m.name IN $names
			RETURN n, r, m
		`
		return r.triples(ctx, "get person subgraph", query, map[string]any{"names": names})
	}

	query := `
		MATCH (n:Person)-[r:PARTICIPATES_IN]-(m:Sport)
		RETURN n, r, m
		LIMIT $limit
	`
	return r.triples(ctx, "get person sport view", query, map[string]any{
		"limit": limitParam(limit, constants.DefaultPersonViewLimit),
	})
}

// GetExportEdges returns name pairs of Person-Person friendship and participation edges
func (r *Repository) GetExportEdges(ctx context.Context) ([]EdgeRow, error) {
	query := `
		MATCH (a:Person)-[:FRIENDS_WITH|PARTICIPATES_IN]->(b:Person)
		WHERE a.name IS NOT NULL AND b.name IS NOT NULL
		RETURN a.name AS source, b.name AS target
	`

	records, err := r.read(ctx, "get export edges", query, nil)
	if err != nil {
		return nil, err
	}

	rows := make([]EdgeRow, 0, len(records))
	for _, record := range records {
		rows = append(rows, EdgeRow{
			Source: getStringFromRecord(record, "source"),
			Target: getStringFromRecord(record, "target"),
		})
	}
	return rows, nil
}

// GetStoredCommunities reads community ids previously written onto Person nodes
func (r *Repository) GetStoredCommunities(ctx context.Context) ([]CommunityMember, error) {
	query := `
		MATCH (p:Person)
		WHERE p[$property] IS NOT NULL
		RETURN p.name AS name, p[$property] AS communityId
		ORDER BY communityId ASC, name ASC
	`

	records, err := r.read(ctx, "get stored communities", query, map[string]any{
		"property": constants.CommunityProperty,
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

func (r *Repository) read(ctx context.Context, operation, query string, params map[string]any) ([]*neo4j.Record, error) {
	records, err := runQuery(ctx, r.sessions, neo4j.AccessModeRead, query, params)
	if err != nil {
		return nil, apperrors.NewQueryError(operation, err)
	}

	r.logger.Debug("Graph query completed",
		zap.String("operation", operation),
		zap.Int("rows", len(records)),
	)
	return records, nil
}

func (r *Repository) triples(ctx context.Context, operation, query string, params map[string]any) ([]Triple, error) {
	records, err := r.read(ctx, operation, query, params)
	if err != nil {
		return nil, err
	}

	triples := make([]Triple, 0, len(records))
	for _, record := range records {
		if t, ok := getTripleFromRecord(record); ok {
			triples = append(triples, t)
		}
	}
	return triples, nil
}

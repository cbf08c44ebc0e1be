package constants

import "time"

// Node labels
const (
	LabelPerson       = "Person"
	LabelOrganisation = "Organisation"
	LabelSport        = "Sport"
	LabelEvent        = "Event"
)

// Relationship types
const (
	RelParticipatesIn = "PARTICIPATES_IN"
	RelFriendsWith    = "FRIENDS_WITH"
	RelLikes          = "LIKES"
	RelSimilarPerson  = "SIMILAR_PERSON"
)

// Friendship status values stored on FRIENDS_WITH edges
const (
	FriendStatusAccepted = "accepted"
	FriendStatusPending  = "pending"
)

// RoleUser marks a Person node that belongs to a registered account
const RoleUser = "user"

// RoleSponsor marks an Organisation that sponsors rather than fields athletes
const RoleSponsor = "sponsor"

// Limit defaults applied when a caller passes a missing or malformed limit
const (
	DefaultConnectionsLimit   = 100
	DefaultParticipationLimit = 25
	DefaultLikedLimit         = 50
	DefaultFriendsLimit       = 50
	DefaultSummaryLimit       = 100
	DefaultPersonViewLimit    = 100
	DefaultPageRankLimit      = 10
	DefaultSimilarTopK        = 5
)

// Projection defaults. The projection name is process-wide.
const (
	DefaultProjectionName = "sportsGraph"
	EmbeddingProperty     = "embedding"
	CommunityProperty     = "communityId"
	SimilarityProperty    = "score"
)

// ProjectionTimeout bounds a shared projection create or rebuild
const ProjectionTimeout = 5 * time.Minute

// DefaultProjectionLabels are the node labels loaded into the projection
var DefaultProjectionLabels = []string{LabelPerson, LabelOrganisation, LabelSport, LabelEvent}

// DefaultProjectionRelationships are the relationship types loaded into the projection
var DefaultProjectionRelationships = []string{RelParticipatesIn, RelFriendsWith, RelLikes}

// Algorithm defaults
const (
	DefaultEmbeddingDimension  = 16
	DefaultEmbeddingIterations = 10
	DefaultPageRankIterations  = 20
	DefaultPageRankDamping     = 0.85
	DefaultPageRankTolerance   = 0.0000001
	DefaultPageRankProperty    = "pagerank"
	DefaultPageRankThreshold   = 0.0
	DefaultKnnTopK             = 5
)

// Image resolution
const (
	// DefaultProfileImage is served by the front end's static assets
	DefaultProfileImage = "./images/logo-default-profile.png"
	// FallbackImageEndpoint redirects a page title to its lead image file
	FallbackImageEndpoint = "https://en.wikipedia.org/wiki/Special:FilePath/"
)

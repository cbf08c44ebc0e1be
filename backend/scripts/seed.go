package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"sportsgraph/backend/internal/constants"
	"sportsgraph/backend/internal/graph"
	"sportsgraph/backend/pkg/config"
	"sportsgraph/backend/pkg/logger"
)

type seedPerson struct {
	Name     string
	Email    string
	Username string
	Roles    []any
	Aliases  []any
	ImageURL string
}

type seedOrganisation struct {
	Name string
	Role string
}

var people = []seedPerson{
	{Name: "Alice Moreno", Email: "alice@example.com", Username: "alice", Roles: []any{constants.RoleUser}},
	{Name: "Bob Okafor", Email: "bob@example.com", Username: "bob", Roles: []any{constants.RoleUser}},
	{Name: "Carol Jensen", Email: "carol@example.com", Username: "carol", Roles: []any{constants.RoleUser}},
	{Name: "David Liu", Email: "david@example.com", Username: "david", Roles: []any{constants.RoleUser}},
	{Name: "Serena Williams", Aliases: []any{"Serena Jameka Williams"}, Roles: []any{}},
	{Name: "Eliud Kipchoge", Roles: []any{}, ImageURL: "https://upload.wikimedia.org/wikipedia/commons/5/5f/Eliud_Kipchoge.jpg"},
}

var organisations = []seedOrganisation{
	{Name: "Harbour FC", Role: "club"},
	{Name: "Northside Athletics", Role: "club"},
	{Name: "Women's Tennis Association", Role: "league"},
	{Name: "Acme Sportswear", Role: constants.RoleSponsor},
}

var sports = []string{"Tennis", "Football", "Marathon"}

// participation edges: person -> organisation or sport
var participation = [][2]string{
	{"Alice Moreno", "Harbour FC"},
	{"Bob Okafor", "Harbour FC"},
	{"Carol Jensen", "Harbour FC"},
	{"David Liu", "Northside Athletics"},
	{"Serena Williams", "Women's Tennis Association"},
	{"Serena Williams", "Acme Sportswear"},
	{"Eliud Kipchoge", "Northside Athletics"},
	{"Alice Moreno", "Football"},
	{"Bob Okafor", "Football"},
	{"Serena Williams", "Tennis"},
	{"Eliud Kipchoge", "Marathon"},
	{"David Liu", "Marathon"},
}

var friendships = []struct {
	From, To, Status string
}{
	{"Alice Moreno", "Bob Okafor", constants.FriendStatusAccepted},
	{"Carol Jensen", "Alice Moreno", constants.FriendStatusAccepted},
	{"Alice Moreno", "David Liu", constants.FriendStatusPending},
	{"Bob Okafor", "Carol Jensen", constants.FriendStatusAccepted},
}

var likes = [][2]string{
	{"Alice Moreno", "Serena Williams"},
	{"Alice Moreno", "Eliud Kipchoge"},
	{"Alice Moreno", "Harbour FC"},
	{"Bob Okafor", "Serena Williams"},
	{"Bob Okafor", "Northside Athletics"},
	{"Carol Jensen", "Women's Tennis Association"},
}

func main() {
	reset := flag.Bool("reset", false, "Delete every node before seeding")
	flag.Parse()

	// Initialize logger
	if err := logger.Init(logger.Options{Env: "development"}); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting database seeding...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	// Initialize Neo4j driver
	driver, err := neo4j.NewDriverWithContext(
		cfg.Neo4jURI,
		neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""),
	)
	if err != nil {
		log.Fatal("Failed to create Neo4j driver", zap.Error(err))
	}
	sessions := graph.NewDriverSessions(driver, cfg.Neo4jDatabase)
	defer sessions.Close(context.Background())

	// Verify connection
	ctx := context.Background()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		log.Fatal("Failed to verify Neo4j connectivity", zap.Error(err))
	}

	session := sessions.NewSession(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	if *reset {
		log.Warn("Deleting all nodes")
		if _, err := session.Run(ctx, "MATCH (n) DETACH DELETE n", nil); err != nil {
			log.Fatal("Failed to reset database", zap.Error(err))
		}
	}

	log.Info("Creating constraints...")
	createConstraints(ctx, session, log)

	if err := seed(ctx, session); err != nil {
		log.Fatal("Seeding failed", zap.Error(err))
	}

	log.Info("Seeding complete",
		zap.Int("people", len(people)),
		zap.Int("organisations", len(organisations)),
		zap.Int("sports", len(sports)),
		zap.Int("likes", len(likes)),
	)
}

func createConstraints(ctx context.Context, session graph.Session, log *zap.Logger) {
	constraints := []string{
		"CREATE CONSTRAINT person_name_unique IF NOT EXISTS FOR (p:Person) REQUIRE p.name IS UNIQUE",
		"CREATE CONSTRAINT organisation_name_unique IF NOT EXISTS FOR (o:Organisation) REQUIRE o.name IS UNIQUE",
		"CREATE CONSTRAINT sport_name_unique IF NOT EXISTS FOR (s:Sport) REQUIRE s.name IS UNIQUE",
		"CREATE INDEX person_email IF NOT EXISTS FOR (p:Person) ON (p.email)",
		"CREATE INDEX person_username IF NOT EXISTS FOR (p:Person) ON (p.username)",
	}

	for _, constraint := range constraints {
		if _, err := session.Run(ctx, constraint, nil); err != nil {
			log.Warn("Failed to create constraint (may already exist)", zap.Error(err))
		}
	}
}

func seed(ctx context.Context, session graph.Session) error {
	for _, p := range people {
		params := map[string]any{
			"name":     p.Name,
			"roles":    p.Roles,
			"aliases":  p.Aliases,
			"email":    nilIfEmpty(p.Email),
			"username": nilIfEmpty(p.Username),
			"image":    nilIfEmpty(p.ImageURL),
		}
		query := `
			MERGE (p:Person {name: $name})
			ON CREATE SET p.uuid = randomUUID()
			SET p.roles = $roles,
			    p.alternateName = $aliases,
			    p.email = $email,
			    p.username = $username,
			    p.profileImage = $image
		`
		if _, err := session.Run(ctx, query, params); err != nil {
			return fmt.Errorf("person %s: %w", p.Name, err)
		}
	}

	for _, o := range organisations {
		query := `
			MERGE (o:Organisation {name: $name})
			ON CREATE SET o.uuid = randomUUID()
			SET o.role = $role
		`
		if _, err := session.Run(ctx, query, map[string]any{"name": o.Name, "role": o.Role}); err != nil {
			return fmt.Errorf("organisation %s: %w", o.Name, err)
		}
	}

	for _, s := range sports {
		if _, err := session.Run(ctx, "MERGE (:Sport {name: $name})", map[string]any{"name": s}); err != nil {
			return fmt.Errorf("sport %s: %w", s, err)
		}
	}

	for _, edge := range participation {
		query := `
			MATCH (p:Person {name: $person})
			MATCH (t {name: $target}) WHERE t:Organisation OR t:Sport
			MERGE (p)-[r:PARTICIPATES_IN]->(t)
			ON CREATE SET r.since = date()
		`
		if _, err := session.Run(ctx, query, map[string]any{"person": edge[0], "target": edge[1]}); err != nil {
			return fmt.Errorf("participation %s -> %s: %w", edge[0], edge[1], err)
		}
	}

	for _, f := range friendships {
		query := `
			MATCH (a:Person {name: $from}), (b:Person {name: $to})
			MERGE (a)-[r:FRIENDS_WITH]->(b)
			ON CREATE SET r.createdAt = datetime()
			SET r.status = $status
		`
		if _, err := session.Run(ctx, query, map[string]any{"from": f.From, "to": f.To, "status": f.Status}); err != nil {
			return fmt.Errorf("friendship %s -> %s: %w", f.From, f.To, err)
		}
	}

	for _, like := range likes {
		query := `
			MATCH (p:Person {name: $person})
			MATCH (t {name: $target}) WHERE t:Person OR t:Organisation
			MERGE (p)-[r:LIKES]->(t)
			ON CREATE SET r.createdAt = datetime()
		`
		if _, err := session.Run(ctx, query, map[string]any{"person": like[0], "target": like[1]}); err != nil {
			return fmt.Errorf("like %s -> %s: %w", like[0], like[1], err)
		}
	}

	return nil
}

func nilIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

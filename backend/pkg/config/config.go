package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"sportsgraph/backend/internal/constants"
	apperrors "sportsgraph/backend/pkg/errors"
)

// Config holds all application configuration
type Config struct {
	// App
	Port     string
	Env      string
	LogLevel string

	// Neo4j
	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string
	Neo4jDatabase string

	// Export
	ExportPath string

	// RequestTimeout bounds each HTTP request's context. Zero leaves requests unbounded.
	RequestTimeout time.Duration

	// Analytics profile, optionally overridden from the YAML file at AnalyticsConfigPath
	AnalyticsConfigPath string
	Analytics           Analytics
}

// Analytics configures the projection and algorithm defaults
type Analytics struct {
	Projection Projection      `yaml:"projection"`
	Embedding  EmbeddingConfig `yaml:"embedding"`
	Knn        KnnConfig       `yaml:"knn"`
	PageRank   PageRankConfig  `yaml:"pagerank"`
}

// Projection names the in-memory graph and what it loads
type Projection struct {
	Name          string   `yaml:"name"`
	NodeLabels    []string `yaml:"node_labels"`
	Relationships []string `yaml:"relationships"`
}

type EmbeddingConfig struct {
	Dimension  int `yaml:"dimension"`
	Iterations int `yaml:"iterations"`
}

type KnnConfig struct {
	TopK int `yaml:"top_k"`
}

type PageRankConfig struct {
	MaxIterations int     `yaml:"max_iterations"`
	DampingFactor float64 `yaml:"damping_factor"`
	Tolerance     float64 `yaml:"tolerance"`
	WriteProperty string  `yaml:"write_property"`
}

// DefaultAnalytics returns the built-in analytics profile
func DefaultAnalytics() Analytics {
	return Analytics{
		Projection: Projection{
			Name:          constants.DefaultProjectionName,
			NodeLabels:    append([]string(nil), constants.DefaultProjectionLabels...),
			Relationships: append([]string(nil), constants.DefaultProjectionRelationships...),
		},
		Embedding: EmbeddingConfig{
			Dimension:  constants.DefaultEmbeddingDimension,
			Iterations: constants.DefaultEmbeddingIterations,
		},
		Knn: KnnConfig{TopK: constants.DefaultKnnTopK},
		PageRank: PageRankConfig{
			MaxIterations: constants.DefaultPageRankIterations,
			DampingFactor: constants.DefaultPageRankDamping,
			Tolerance:     constants.DefaultPageRankTolerance,
			WriteProperty: constants.DefaultPageRankProperty,
		},
	}
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	cfg := &Config{
		Port:                getEnv("PORT", "8080"),
		Env:                 getEnv("ENV", "development"),
		LogLevel:            getEnv("LOG_LEVEL", ""),
		Neo4jURI:            getEnv("NEO4J_URI", "bolt://localhost:7687"),
		Neo4jUser:           getEnv("NEO4J_USER", "neo4j"),
		Neo4jPassword:       getEnv("NEO4J_PASSWORD", "password"),
		Neo4jDatabase:       getEnv("NEO4J_DATABASE", "neo4j"),
		ExportPath:          getEnv("EXPORT_PATH", "edges.csv"),
		RequestTimeout:      time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", 0)) * time.Second,
		AnalyticsConfigPath: getEnv("ANALYTICS_CONFIG", ""),
	}

	analytics, err := LoadAnalytics(cfg.AnalyticsConfigPath)
	if err != nil {
		return nil, err
	}
	cfg.Analytics = analytics

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// LoadAnalytics returns the default profile overlaid with the YAML file at path.
// An empty path returns the defaults.
func LoadAnalytics(path string) (Analytics, error) {
	analytics := DefaultAnalytics()
	if path == "" {
		return analytics, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return analytics, apperrors.NewConfigInvalid("ANALYTICS_CONFIG", "cannot read file", err)
	}
	if err := yaml.Unmarshal(data, &analytics); err != nil {
		return analytics, apperrors.NewConfigInvalid("ANALYTICS_CONFIG", "cannot parse yaml", err)
	}
	return analytics, nil
}

// Validate checks that required configuration values are set
func (c *Config) Validate() error {
	if c.Neo4jURI == "" {
		return apperrors.NewConfigMissingRequired("NEO4J_URI")
	}
	if c.Neo4jUser == "" {
		return apperrors.NewConfigMissingRequired("NEO4J_USER")
	}
	if c.Neo4jPassword == "" {
		return apperrors.NewConfigMissingRequired("NEO4J_PASSWORD")
	}
	return c.Analytics.Validate()
}

// Validate checks that the projection can be built
func (a Analytics) Validate() error {
	if a.Projection.Name == "" {
		return apperrors.NewConfigMissingRequired("projection.name")
	}
	if len(a.Projection.NodeLabels) == 0 {
		return apperrors.NewConfigInvalid("projection.node_labels", "at least one label is required", nil)
	}
	if len(a.Projection.Relationships) == 0 {
		return apperrors.NewConfigInvalid("projection.relationships", "at least one relationship type is required", nil)
	}
	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

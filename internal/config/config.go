// Package config loads Neo Alexandria's configuration from environment
// variables, validates it, and exposes the hot-reloadable tunables
// (graph weights, cache TTLs) that the optional YAML overlay can update
// at runtime without a restart.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// StoreDialect names embedded (in-process) vs server (DynamoDB/Redis/
// Supabase) persistence, derived from DATABASE_URL's scheme. The wiring in
// internal/app builds the embedded dialect whatever this value is.
type StoreDialect string

const (
	DialectEmbedded StoreDialect = "embedded"
	DialectServer   StoreDialect = "server"
)

// Config is the complete application configuration.
type Config struct {
	Environment string `validate:"required,oneof=development staging production"`

	Server  Server  `validate:"required,dive"`
	Store   Store   `validate:"required,dive"`
	Graph   Graph   `validate:"required,dive"`
	Search  Search  `validate:"required,dive"`
	Cache   Cache   `validate:"required,dive"`
	Quality Quality `validate:"required,dive"`

	EmbeddingModelName string `validate:"required"`

	Logging    Logging    `validate:"dive"`
	Tracing    Tracing    `validate:"dive"`
	EventAudit EventAudit `validate:"dive"`

	// ConfigFile is the optional YAML overlay watched for hot reload of
	// Graph/Cache tunables. Empty disables the watcher.
	ConfigFile string
}

// Server contains HTTP server configuration.
type Server struct {
	Port            int           `validate:"required,min=1,max=65535"`
	Host            string        `validate:"required"`
	ReadTimeout     time.Duration `validate:"required,min=1s"`
	WriteTimeout    time.Duration `validate:"required,min=1s"`
	IdleTimeout     time.Duration `validate:"required,min=1s"`
	ShutdownTimeout time.Duration `validate:"required,min=1s"`
}

// Store contains the persistence dialect and its connection settings.
type Store struct {
	DatabaseURL string       `validate:"required"`
	Dialect     StoreDialect `validate:"required,oneof=embedded server"`

	// Server-dialect settings (ignored when Dialect == embedded).
	DynamoTableName string
	AWSRegion       string
	RedisAddr       string
	SupabaseProject string
	SupabaseKey     string
	SupabaseBucket  string
}

// Graph contains the knowledge-graph edge-scoring tunables (spec §4.10).
type Graph struct {
	WeightVector         float64 `yaml:"weight_vector" validate:"min=0,max=1"`
	WeightTags           float64 `yaml:"weight_tags" validate:"min=0,max=1"`
	WeightClassification float64 `yaml:"weight_classification" validate:"min=0,max=1"`
	MinEdgeThreshold     float64 `yaml:"min_edge_threshold" validate:"min=0,max=1"`
	VectorMinSimThreshold float64 `yaml:"vector_min_sim_threshold" validate:"min=0,max=1"`
}

// Validate checks the three edge weights sum to 1 (spec §6: "must sum to 1").
func (g Graph) Validate() error {
	sum := g.WeightVector + g.WeightTags + g.WeightClassification
	if sum < 1-1e-6 || sum > 1+1e-6 {
		return fmt.Errorf("graph weights must sum to 1, got %f", sum)
	}
	return nil
}

// Search contains hybrid-search tunables.
type Search struct {
	DefaultHybridWeight float64 `validate:"min=0,max=1"`
	RRFK                int     `validate:"min=1"`
	KRetrieve           int     `validate:"min=1"`
}

// Cache contains the keyed TTL cache's default TTLs (spec §4.13).
type Cache struct {
	EmbeddingCacheSize int `validate:"min=1"`

	EmbeddingTTL      time.Duration `validate:"min=0"`
	QualityTTL        time.Duration `validate:"min=0"`
	SearchQueryTTL    time.Duration `validate:"min=0"`
	ResourceTTL       time.Duration `validate:"min=0"`
	GraphNeighborsTTL time.Duration `validate:"min=0"`
	UserProfileTTL    time.Duration `validate:"min=0"`
	ClassificationTTL time.Duration `validate:"min=0"`
}

// Quality contains the quality-dimension weights (spec §4.9).
type Quality struct {
	WeightAccuracy     float64 `validate:"min=0,max=1"`
	WeightCompleteness float64 `validate:"min=0,max=1"`
	WeightConsistency  float64 `validate:"min=0,max=1"`
	WeightTimeliness   float64 `validate:"min=0,max=1"`
	WeightRelevance    float64 `validate:"min=0,max=1"`
}

// Validate checks the five quality weights sum to 1 (spec §4.9).
func (q Quality) Validate() error {
	sum := q.WeightAccuracy + q.WeightCompleteness + q.WeightConsistency + q.WeightTimeliness + q.WeightRelevance
	if sum < 1-1e-6 || sum > 1+1e-6 {
		return fmt.Errorf("quality weights must sum to 1, got %f", sum)
	}
	return nil
}

// Logging contains logger configuration.
type Logging struct {
	Level  string `validate:"oneof=debug info warn error"`
	Format string `validate:"oneof=json console"`
}

// Tracing configures the OTLP gRPC span exporter. Endpoint empty disables
// tracing entirely (the no-op tracer provider stays installed).
type Tracing struct {
	Enabled     bool
	Endpoint    string
	ServiceName string
	SampleRatio float64 `validate:"min=0,max=1"`
}

// EventAudit configures the optional EventBridge mirror of kernel.EventBus:
// every bus event is also published to this bus for external audit/
// replay. EventBusName empty disables it entirely.
type EventAudit struct {
	Enabled      bool
	EventBusName string
	Source       string
}

// Load reads configuration from environment variables.
func Load() Config {
	databaseURL := getEnvString("DATABASE_URL", "embedded://local")
	cfg := Config{
		Environment: getEnvString("ENVIRONMENT", "development"),
		Server: Server{
			Port:            getEnvInt("SERVER_PORT", 8080),
			Host:            getEnvString("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:     getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Store: Store{
			DatabaseURL:     databaseURL,
			Dialect:         dialectFromURL(databaseURL),
			DynamoTableName: getEnvString("TABLE_NAME", "neo-alexandria"),
			AWSRegion:       getEnvString("AWS_REGION", "us-east-1"),
			RedisAddr:       getEnvString("REDIS_ADDR", "localhost:6379"),
			SupabaseProject: getEnvString("SUPABASE_PROJECT_REF", ""),
			SupabaseKey:     getEnvString("SUPABASE_SERVICE_KEY", ""),
			SupabaseBucket:  getEnvString("SUPABASE_BUCKET", "archives"),
		},
		Graph: Graph{
			WeightVector:          getEnvFloat("GRAPH_WEIGHT_VECTOR", 0.6),
			WeightTags:            getEnvFloat("GRAPH_WEIGHT_TAGS", 0.25),
			WeightClassification:  getEnvFloat("GRAPH_WEIGHT_CLASSIFICATION", 0.15),
			MinEdgeThreshold:      getEnvFloat("GRAPH_MIN_EDGE_THRESHOLD", 0.20),
			VectorMinSimThreshold: getEnvFloat("GRAPH_VECTOR_MIN_SIM_THRESHOLD", 0.85),
		},
		Search: Search{
			DefaultHybridWeight: getEnvFloat("DEFAULT_HYBRID_SEARCH_WEIGHT", 0.5),
			RRFK:                getEnvInt("SEARCH_RRF_K", 60),
			KRetrieve:           getEnvInt("SEARCH_K_RETRIEVE", 200),
		},
		Cache: Cache{
			EmbeddingCacheSize: getEnvInt("EMBEDDING_CACHE_SIZE", 10000),
			EmbeddingTTL:       getEnvDuration("CACHE_TTL_EMBEDDING", 3600*time.Second),
			QualityTTL:         getEnvDuration("CACHE_TTL_QUALITY", 1800*time.Second),
			SearchQueryTTL:     getEnvDuration("CACHE_TTL_SEARCH_QUERY", 300*time.Second),
			ResourceTTL:        getEnvDuration("CACHE_TTL_RESOURCE", 600*time.Second),
			GraphNeighborsTTL:  getEnvDuration("CACHE_TTL_GRAPH_NEIGHBORS", 1800*time.Second),
			UserProfileTTL:     getEnvDuration("CACHE_TTL_USER_PROFILE", 600*time.Second),
			ClassificationTTL:  getEnvDuration("CACHE_TTL_CLASSIFICATION", 3600*time.Second),
		},
		Quality: Quality{
			WeightAccuracy:     getEnvFloat("QUALITY_WEIGHT_ACCURACY", 0.30),
			WeightCompleteness: getEnvFloat("QUALITY_WEIGHT_COMPLETENESS", 0.25),
			WeightConsistency:  getEnvFloat("QUALITY_WEIGHT_CONSISTENCY", 0.20),
			WeightTimeliness:   getEnvFloat("QUALITY_WEIGHT_TIMELINESS", 0.15),
			WeightRelevance:    getEnvFloat("QUALITY_WEIGHT_RELEVANCE", 0.10),
		},
		EmbeddingModelName: getEnvString("EMBEDDING_MODEL_NAME", "minilm-l6-v2"),
		Logging: Logging{
			Level:  getEnvString("LOG_LEVEL", "info"),
			Format: getEnvString("LOG_FORMAT", "json"),
		},
		Tracing: Tracing{
			Enabled:     getEnvString("OTEL_EXPORTER_OTLP_ENDPOINT", "") != "",
			Endpoint:    getEnvString("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			ServiceName: getEnvString("OTEL_SERVICE_NAME", "neo-alexandria"),
			SampleRatio: getEnvFloat("OTEL_TRACES_SAMPLER_ARG", 0.1),
		},
		EventAudit: EventAudit{
			Enabled:      getEnvString("EVENT_AUDIT_BUS_NAME", "") != "",
			EventBusName: getEnvString("EVENT_AUDIT_BUS_NAME", ""),
			Source:       getEnvString("EVENT_AUDIT_SOURCE", "neo-alexandria.backend"),
		},
		ConfigFile: getEnvString("CONFIG_FILE", ""),
	}
	return cfg
}

// Validate runs struct-tag validation plus the weight-sum business rules.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			var msgs []string
			for _, e := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %s validation", e.Namespace(), e.Tag()))
			}
			return fmt.Errorf("config validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
		}
		return err
	}
	if err := c.Graph.Validate(); err != nil {
		return err
	}
	if err := c.Quality.Validate(); err != nil {
		return err
	}
	return nil
}

func dialectFromURL(url string) StoreDialect {
	if strings.HasPrefix(url, "embedded://") || url == "" {
		return DialectEmbedded
	}
	return DialectServer
}

func getEnvString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

package config

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/ludo-technologies/simeval/domain"
	"github.com/spf13/viper"
)

// Structure comparison algorithms
const (
	StructureSerialized = "serialized"
	StructureTreeEdit   = "tree_edit"
)

// Control-flow comparison granularities
const (
	ControlFlowString = "string"
	ControlFlowLabel  = "label"
)

// Config represents the main configuration structure
type Config struct {
	// Corpus describes how corpora are split and paired
	Corpus CorpusConfig `mapstructure:"corpus" yaml:"corpus"`

	// Analysis holds scoring options
	Analysis AnalysisConfig `mapstructure:"analysis" yaml:"analysis"`

	// Tables holds the lookup tables the comparators consult
	Tables TablesConfig `mapstructure:"tables" yaml:"tables"`

	// Output holds output formatting configuration
	Output OutputConfig `mapstructure:"output" yaml:"output"`

	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Cache   CacheConfig   `mapstructure:"cache" yaml:"cache"`
	Store   StoreConfig   `mapstructure:"store" yaml:"store"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// CorpusConfig holds corpus splitting and discovery settings
type CorpusConfig struct {
	// Delimiter separates functions inside a corpus file
	Delimiter string `mapstructure:"delimiter" yaml:"delimiter"`

	// SkipSentinel marks a position with no corresponding function
	SkipSentinel string `mapstructure:"skip_sentinel" yaml:"skip_sentinel"`

	// ReferencePattern is a doublestar glob, relative to the corpus root, matching reference files
	ReferencePattern string `mapstructure:"reference_pattern" yaml:"reference_pattern"`

	// ReferenceSuffix is stripped from a reference file name to get {base}
	ReferenceSuffix string `mapstructure:"reference_suffix" yaml:"reference_suffix"`

	// CandidateTemplate builds the candidate path, relative to the corpus root, from {base}
	CandidateTemplate string `mapstructure:"candidate_template" yaml:"candidate_template"`
}

// AnalysisConfig holds scoring options
type AnalysisConfig struct {
	Weights domain.Weights `mapstructure:"weights" yaml:"weights"`

	// StructureAlgorithm is "serialized" or "tree_edit"
	StructureAlgorithm string `mapstructure:"structure_algorithm" yaml:"structure_algorithm"`

	// ControlFlowGranularity is "string" (joined labels, char distance) or "label"
	ControlFlowGranularity string `mapstructure:"control_flow_granularity" yaml:"control_flow_granularity"`

	ParseTimeout time.Duration `mapstructure:"parse_timeout" yaml:"parse_timeout"`
	StrictParse  bool          `mapstructure:"strict_parse" yaml:"strict_parse"`

	// Normalize applies Tables.TextRewrites to both snippets before scoring
	Normalize bool `mapstructure:"normalize" yaml:"normalize"`

	// Workers bounds pair-level concurrency. 0 means one per CPU.
	Workers int `mapstructure:"workers" yaml:"workers"`
}

// TextRewrite is a regular-expression replacement applied to raw snippet text
type TextRewrite struct {
	Pattern     string `mapstructure:"pattern" yaml:"pattern" toml:"pattern"`
	Replacement string `mapstructure:"replacement" yaml:"replacement" toml:"replacement"`
}

// TablesConfig holds the equivalence and classification tables
type TablesConfig struct {
	TypeAliases           map[string]string `mapstructure:"type_aliases" yaml:"type_aliases"`
	WritePrimitives       []string          `mapstructure:"write_primitives" yaml:"write_primitives"`
	WriteOperationLabel   string            `mapstructure:"write_operation_label" yaml:"write_operation_label"`
	ControlConstructs     []string          `mapstructure:"control_constructs" yaml:"control_constructs"`
	HalsteadOperators     []string          `mapstructure:"halstead_operators" yaml:"halstead_operators"`
	HalsteadSigils        map[string]string `mapstructure:"halstead_sigils" yaml:"halstead_sigils"`
	HalsteadOperands      []string          `mapstructure:"halstead_operands" yaml:"halstead_operands"`
	IdentifierTypes       []string          `mapstructure:"identifier_types" yaml:"identifier_types"`
	IdentifierPlaceholder string            `mapstructure:"identifier_placeholder" yaml:"identifier_placeholder"`
	LiteralTypes          []string          `mapstructure:"literal_types" yaml:"literal_types"`
	TokenOperators        []string          `mapstructure:"token_operators" yaml:"token_operators"`
	TextRewrites          []TextRewrite     `mapstructure:"text_rewrites" yaml:"text_rewrites"`
}

// OutputConfig holds configuration for output formatting
type OutputConfig struct {
	// Format specifies the output format: text, json, yaml, csv
	Format string `mapstructure:"format" yaml:"format"`

	// Directory receives report files when no explicit output path is given
	Directory string `mapstructure:"directory" yaml:"directory"`

	// ShowPairs includes per-pair results in reports
	ShowPairs bool `mapstructure:"show_pairs" yaml:"show_pairs"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Addr         string        `mapstructure:"addr" yaml:"addr"`
	JWTSecret    string        `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	RateLimit    float64       `mapstructure:"rate_limit" yaml:"rate_limit"`
	Burst        int           `mapstructure:"burst" yaml:"burst"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes" yaml:"max_body_bytes"`
}

// CacheConfig configures the optional Redis pair-report cache
type CacheConfig struct {
	RedisURL string        `mapstructure:"redis_url" yaml:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl" yaml:"ttl"`
	Prefix   string        `mapstructure:"prefix" yaml:"prefix"`
}

// Enabled reports whether a Redis URL is configured
func (c CacheConfig) Enabled() bool {
	return c.RedisURL != ""
}

// StoreConfig configures the optional MongoDB run store
type StoreConfig struct {
	MongoURI   string        `mapstructure:"mongo_uri" yaml:"mongo_uri"`
	Database   string        `mapstructure:"database" yaml:"database"`
	Collection string        `mapstructure:"collection" yaml:"collection"`
	Timeout    time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// Enabled reports whether a MongoDB URI is configured
func (s StoreConfig) Enabled() bool {
	return s.MongoURI != ""
}

// LoggingConfig controls zerolog output
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// LoadConfig loads configuration, in order of precedence:
//  1. an explicit configPath (TOML through go-toml, YAML or JSON through viper)
//  2. .simeval.toml discovered by walking up from startDir
//  3. defaults
//
// SIMEVAL_* environment variables are applied on top, then the result is validated.
func LoadConfig(configPath, startDir string) (*Config, error) {
	var (
		cfg *Config
		err error
	)

	switch {
	case configPath == "":
		cfg, err = NewTomlConfigLoader().LoadConfig(startDir)
	case strings.EqualFold(filepath.Ext(configPath), ".toml"):
		cfg, err = NewTomlConfigLoader().LoadConfigFile(configPath)
	default:
		cfg, err = loadWithViper(configPath)
	}
	if err != nil {
		return nil, err
	}

	if err := ApplyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// loadWithViper reads a YAML or JSON config file over the defaults
func loadWithViper(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return nil, domain.NewConfigError(fmt.Sprintf("failed to read config file %s", configPath), err)
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, domain.NewConfigError("failed to unmarshal config", err)
	}
	return cfg, nil
}

// Validate validates the configuration values
func (c *Config) Validate() error {
	if c.Corpus.Delimiter == "" {
		return domain.NewConfigError("corpus.delimiter must not be empty", nil)
	}
	if c.Corpus.SkipSentinel == "" {
		return domain.NewConfigError("corpus.skip_sentinel must not be empty", nil)
	}
	if !strings.Contains(c.Corpus.CandidateTemplate, "{base}") {
		return domain.NewConfigError("corpus.candidate_template must contain {base}", nil)
	}

	if err := c.Analysis.Weights.Validate(); err != nil {
		return domain.NewConfigError("analysis.weights", err)
	}

	switch c.Analysis.StructureAlgorithm {
	case StructureSerialized, StructureTreeEdit:
	default:
		return domain.NewConfigError(fmt.Sprintf("analysis.structure_algorithm must be %q or %q, got %q",
			StructureSerialized, StructureTreeEdit, c.Analysis.StructureAlgorithm), nil)
	}

	switch c.Analysis.ControlFlowGranularity {
	case ControlFlowString, ControlFlowLabel:
	default:
		return domain.NewConfigError(fmt.Sprintf("analysis.control_flow_granularity must be %q or %q, got %q",
			ControlFlowString, ControlFlowLabel, c.Analysis.ControlFlowGranularity), nil)
	}

	if c.Analysis.ParseTimeout < 0 {
		return domain.NewConfigError("analysis.parse_timeout must be >= 0", nil)
	}
	if c.Analysis.Workers < 0 {
		return domain.NewConfigError("analysis.workers must be >= 0", nil)
	}

	for _, rw := range c.Tables.TextRewrites {
		if _, err := regexp.Compile(rw.Pattern); err != nil {
			return domain.NewConfigError(fmt.Sprintf("tables.text_rewrites pattern %q", rw.Pattern), err)
		}
	}
	if c.Tables.IdentifierPlaceholder == "" {
		return domain.NewConfigError("tables.identifier_placeholder must not be empty", nil)
	}

	if _, err := domain.ParseOutputFormat(c.Output.Format); err != nil {
		return domain.NewConfigError("output.format", err)
	}

	if c.Server.RateLimit < 0 || c.Server.Burst < 0 {
		return domain.NewConfigError("server.rate_limit and server.burst must be >= 0", nil)
	}

	return nil
}

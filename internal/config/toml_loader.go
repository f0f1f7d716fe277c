package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ludo-technologies/simeval/domain"
	"github.com/pelletier/go-toml/v2"
)

// SimevalTomlConfig represents the structure of .simeval.toml.
// Pointer and zero-valued fields mean "keep the default".
type SimevalTomlConfig struct {
	Corpus   TomlCorpusConfig   `toml:"corpus"`
	Analysis TomlAnalysisConfig `toml:"analysis"`
	Tables   TomlTablesConfig   `toml:"tables"`
	Output   TomlOutputConfig   `toml:"output"`
	Server   TomlServerConfig   `toml:"server"`
	Cache    TomlCacheConfig    `toml:"cache"`
	Store    TomlStoreConfig    `toml:"store"`
	Logging  TomlLoggingConfig  `toml:"logging"`
}

type TomlCorpusConfig struct {
	Delimiter         string  `toml:"delimiter"`
	SkipSentinel      string  `toml:"skip_sentinel"`
	ReferencePattern  string  `toml:"reference_pattern"`
	ReferenceSuffix   *string `toml:"reference_suffix"` // pointer: an empty suffix is meaningful
	CandidateTemplate string  `toml:"candidate_template"`
}

type TomlWeights struct {
	Interface   *float64 `toml:"interface"`
	Structure   *float64 `toml:"structure"`
	ControlFlow *float64 `toml:"control_flow"`
	Halstead    *float64 `toml:"halstead"`
	TokenEdit   *float64 `toml:"token_edit"`
}

type TomlAnalysisConfig struct {
	Weights                TomlWeights `toml:"weights"`
	StructureAlgorithm     string      `toml:"structure_algorithm"`
	ControlFlowGranularity string      `toml:"control_flow_granularity"`
	ParseTimeout           string      `toml:"parse_timeout"`
	StrictParse            *bool       `toml:"strict_parse"` // pointer to detect unset
	Normalize              *bool       `toml:"normalize"`    // pointer to detect unset
	Workers                *int        `toml:"workers"`
}

type TomlTablesConfig struct {
	TypeAliases           map[string]string `toml:"type_aliases"`
	WritePrimitives       []string          `toml:"write_primitives"`
	WriteOperationLabel   string            `toml:"write_operation_label"`
	ControlConstructs     []string          `toml:"control_constructs"`
	HalsteadOperators     []string          `toml:"halstead_operators"`
	HalsteadSigils        map[string]string `toml:"halstead_sigils"`
	HalsteadOperands      []string          `toml:"halstead_operands"`
	IdentifierTypes       []string          `toml:"identifier_types"`
	IdentifierPlaceholder string            `toml:"identifier_placeholder"`
	LiteralTypes          []string          `toml:"literal_types"`
	TokenOperators        []string          `toml:"token_operators"`
	TextRewrites          []TextRewrite     `toml:"text_rewrites"`
}

type TomlOutputConfig struct {
	Format    string `toml:"format"`
	Directory string `toml:"directory"`
	ShowPairs *bool  `toml:"show_pairs"` // pointer to detect unset
}

type TomlServerConfig struct {
	Addr         string   `toml:"addr"`
	JWTSecret    string   `toml:"jwt_secret"`
	RateLimit    *float64 `toml:"rate_limit"`
	Burst        *int     `toml:"burst"`
	ReadTimeout  string   `toml:"read_timeout"`
	WriteTimeout string   `toml:"write_timeout"`
	MaxBodyBytes int64    `toml:"max_body_bytes"`
}

type TomlCacheConfig struct {
	RedisURL string `toml:"redis_url"`
	TTL      string `toml:"ttl"`
	Prefix   string `toml:"prefix"`
}

type TomlStoreConfig struct {
	MongoURI   string `toml:"mongo_uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
	Timeout    string `toml:"timeout"`
}

type TomlLoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// TomlConfigLoader handles TOML configuration loading
type TomlConfigLoader struct{}

// NewTomlConfigLoader creates a new TOML configuration loader
func NewTomlConfigLoader() *TomlConfigLoader {
	return &TomlConfigLoader{}
}

// LoadConfig looks for .simeval.toml from startDir upwards.
// Defaults are returned when none is found.
func (l *TomlConfigLoader) LoadConfig(startDir string) (*Config, error) {
	configPath, err := l.FindConfigFile(startDir)
	if err != nil {
		return DefaultConfig(), nil
	}
	return l.LoadConfigFile(configPath)
}

// LoadConfigFile reads one TOML file and merges it into the defaults
func (l *TomlConfigLoader) LoadConfigFile(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, domain.NewConfigError(fmt.Sprintf("failed to read config file %s", configPath), err)
	}

	var tomlCfg SimevalTomlConfig
	if err := toml.Unmarshal(data, &tomlCfg); err != nil {
		return nil, domain.NewConfigError(fmt.Sprintf("failed to parse %s", configPath), err)
	}

	cfg := DefaultConfig()
	if err := l.merge(cfg, &tomlCfg); err != nil {
		return nil, domain.NewConfigError(fmt.Sprintf("invalid value in %s", configPath), err)
	}
	return cfg, nil
}

// FindConfigFile walks up the directory tree to find .simeval.toml
func (l *TomlConfigLoader) FindConfigFile(startDir string) (string, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}
	if info, err := os.Stat(dir); err == nil && !info.IsDir() {
		dir = filepath.Dir(dir)
	}

	for {
		configPath := filepath.Join(dir, DefaultConfigFileName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root directory
			break
		}
		dir = parent
	}

	return "", os.ErrNotExist
}

// merge copies every set value of the TOML file over the defaults
func (l *TomlConfigLoader) merge(cfg *Config, t *SimevalTomlConfig) error {
	setString(&cfg.Corpus.Delimiter, t.Corpus.Delimiter)
	setString(&cfg.Corpus.SkipSentinel, t.Corpus.SkipSentinel)
	setString(&cfg.Corpus.ReferencePattern, t.Corpus.ReferencePattern)
	setPtr(&cfg.Corpus.ReferenceSuffix, t.Corpus.ReferenceSuffix)
	setString(&cfg.Corpus.CandidateTemplate, t.Corpus.CandidateTemplate)

	w := &cfg.Analysis.Weights
	setPtr(&w.Interface, t.Analysis.Weights.Interface)
	setPtr(&w.Structure, t.Analysis.Weights.Structure)
	setPtr(&w.ControlFlow, t.Analysis.Weights.ControlFlow)
	setPtr(&w.Halstead, t.Analysis.Weights.Halstead)
	setPtr(&w.TokenEdit, t.Analysis.Weights.TokenEdit)
	setString(&cfg.Analysis.StructureAlgorithm, t.Analysis.StructureAlgorithm)
	setString(&cfg.Analysis.ControlFlowGranularity, t.Analysis.ControlFlowGranularity)
	if err := setDuration(&cfg.Analysis.ParseTimeout, t.Analysis.ParseTimeout); err != nil {
		return fmt.Errorf("analysis.parse_timeout: %w", err)
	}
	setPtr(&cfg.Analysis.StrictParse, t.Analysis.StrictParse)
	setPtr(&cfg.Analysis.Normalize, t.Analysis.Normalize)
	setPtr(&cfg.Analysis.Workers, t.Analysis.Workers)

	tb := &cfg.Tables
	if t.Tables.TypeAliases != nil {
		tb.TypeAliases = t.Tables.TypeAliases
	}
	setSlice(&tb.WritePrimitives, t.Tables.WritePrimitives)
	setString(&tb.WriteOperationLabel, t.Tables.WriteOperationLabel)
	setSlice(&tb.ControlConstructs, t.Tables.ControlConstructs)
	setSlice(&tb.HalsteadOperators, t.Tables.HalsteadOperators)
	if t.Tables.HalsteadSigils != nil {
		tb.HalsteadSigils = t.Tables.HalsteadSigils
	}
	setSlice(&tb.HalsteadOperands, t.Tables.HalsteadOperands)
	setSlice(&tb.IdentifierTypes, t.Tables.IdentifierTypes)
	setString(&tb.IdentifierPlaceholder, t.Tables.IdentifierPlaceholder)
	setSlice(&tb.LiteralTypes, t.Tables.LiteralTypes)
	setSlice(&tb.TokenOperators, t.Tables.TokenOperators)
	if t.Tables.TextRewrites != nil {
		tb.TextRewrites = t.Tables.TextRewrites
	}

	setString(&cfg.Output.Format, t.Output.Format)
	setString(&cfg.Output.Directory, t.Output.Directory)
	setPtr(&cfg.Output.ShowPairs, t.Output.ShowPairs)

	setString(&cfg.Server.Addr, t.Server.Addr)
	setString(&cfg.Server.JWTSecret, t.Server.JWTSecret)
	setPtr(&cfg.Server.RateLimit, t.Server.RateLimit)
	setPtr(&cfg.Server.Burst, t.Server.Burst)
	if err := setDuration(&cfg.Server.ReadTimeout, t.Server.ReadTimeout); err != nil {
		return fmt.Errorf("server.read_timeout: %w", err)
	}
	if err := setDuration(&cfg.Server.WriteTimeout, t.Server.WriteTimeout); err != nil {
		return fmt.Errorf("server.write_timeout: %w", err)
	}
	if t.Server.MaxBodyBytes > 0 {
		cfg.Server.MaxBodyBytes = t.Server.MaxBodyBytes
	}

	setString(&cfg.Cache.RedisURL, t.Cache.RedisURL)
	if err := setDuration(&cfg.Cache.TTL, t.Cache.TTL); err != nil {
		return fmt.Errorf("cache.ttl: %w", err)
	}
	setString(&cfg.Cache.Prefix, t.Cache.Prefix)

	setString(&cfg.Store.MongoURI, t.Store.MongoURI)
	setString(&cfg.Store.Database, t.Store.Database)
	setString(&cfg.Store.Collection, t.Store.Collection)
	if err := setDuration(&cfg.Store.Timeout, t.Store.Timeout); err != nil {
		return fmt.Errorf("store.timeout: %w", err)
	}

	setString(&cfg.Logging.Level, t.Logging.Level)
	setString(&cfg.Logging.Format, t.Logging.Format)
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setPtr[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func setSlice(dst *[]string, v []string) {
	if v != nil {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v string) error {
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return err
	}
	*dst = d
	return nil
}

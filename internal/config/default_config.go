package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/ludo-technologies/simeval/domain"
)

// Default corpus and analysis settings
const (
	DefaultDelimiter           = "/////"
	DefaultSkipSentinel        = "null"
	DefaultReferencePattern    = "0-sourcecode/*_source.txt"
	DefaultReferenceSuffix     = "_source.txt"
	DefaultCandidateTemplate   = "fine_grain_final_output2txt/{base}_fine_grain_final.txt"
	DefaultParseTimeout        = 5 * time.Second
	DefaultWriteOperationLabel = "write_operation"
	DefaultIdentifierToken     = "VAR"
	DefaultConfigFileName      = ".simeval.toml"
	DefaultServerAddr          = ":8080"
	DefaultRateLimit           = 10.0
	DefaultBurst               = 20
	DefaultMaxBodyBytes        = 4 << 20
	DefaultCacheTTL            = 24 * time.Hour
	DefaultCachePrefix         = "simeval:pair:"
	DefaultMongoDatabase       = "simeval"
	DefaultMongoCollection     = "runs"
	DefaultStoreTimeout        = 10 * time.Second
)

// Default lookup tables
var (
	defaultTypeAliases = map[string]string{
		"bool":              "int",
		"MagickBooleanType": "int",
		"unsigned char":     "uint8_t",
	}

	defaultWritePrimitives = []string{"fwrite", "WriteBlobByte", "fputc"}

	defaultControlConstructs = []string{
		"if_statement", "for_statement", "while_statement",
		"do_statement", "switch_statement", "return_statement",
	}

	defaultHalsteadOperators = []string{
		"+", "-", "*", "/", "%", "=", "==", "!=", ">", "<", ">=", "<=",
		"&&", "||", "!", "++", "+=", "-=", "->", ":", "?",
		"if", "for", "while", "do", "return",
	}

	defaultHalsteadSigils = map[string]string{
		"call_expression":      "()",
		"subscript_expression": "[]",
	}

	defaultHalsteadOperands = []string{"identifier", "number_literal", "string_literal"}

	defaultIdentifierTypes = []string{"identifier"}

	defaultLiteralTypes = []string{"number_literal", "string_literal"}

	defaultTokenOperators = []string{
		"+", "-", "*", "/", "=", "==", "!=", ">", "<", ">=", "<=",
		"&&", "||", "!", "++", "+=", "-=", "->", ":", "?",
	}

	defaultTextRewrites = []TextRewrite{
		{Pattern: `\bfwrite\b`, Replacement: "WriteBlobByte"},
		{Pattern: `\bfputc\b`, Replacement: "WriteBlobByte"},
		{Pattern: `\buint8_t\b`, Replacement: "unsigned char"},
	}
)

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Corpus: CorpusConfig{
			Delimiter:         DefaultDelimiter,
			SkipSentinel:      DefaultSkipSentinel,
			ReferencePattern:  DefaultReferencePattern,
			ReferenceSuffix:   DefaultReferenceSuffix,
			CandidateTemplate: DefaultCandidateTemplate,
		},
		Analysis: AnalysisConfig{
			Weights:                domain.DefaultWeights(),
			StructureAlgorithm:     StructureSerialized,
			ControlFlowGranularity: ControlFlowString,
			ParseTimeout:           DefaultParseTimeout,
			Normalize:              true,
		},
		Tables: DefaultTables(),
		Output: OutputConfig{
			Format: string(domain.OutputFormatText),
		},
		Server: ServerConfig{
			Addr:         DefaultServerAddr,
			RateLimit:    DefaultRateLimit,
			Burst:        DefaultBurst,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
			MaxBodyBytes: DefaultMaxBodyBytes,
		},
		Cache: CacheConfig{
			TTL:    DefaultCacheTTL,
			Prefix: DefaultCachePrefix,
		},
		Store: StoreConfig{
			Database:   DefaultMongoDatabase,
			Collection: DefaultMongoCollection,
			Timeout:    DefaultStoreTimeout,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// DefaultTables returns fresh copies of the default lookup tables
func DefaultTables() TablesConfig {
	return TablesConfig{
		TypeAliases:           copyMap(defaultTypeAliases),
		WritePrimitives:       append([]string(nil), defaultWritePrimitives...),
		WriteOperationLabel:   DefaultWriteOperationLabel,
		ControlConstructs:     append([]string(nil), defaultControlConstructs...),
		HalsteadOperators:     append([]string(nil), defaultHalsteadOperators...),
		HalsteadSigils:        copyMap(defaultHalsteadSigils),
		HalsteadOperands:      append([]string(nil), defaultHalsteadOperands...),
		IdentifierTypes:       append([]string(nil), defaultIdentifierTypes...),
		IdentifierPlaceholder: DefaultIdentifierToken,
		LiteralTypes:          append([]string(nil), defaultLiteralTypes...),
		TokenOperators:        append([]string(nil), defaultTokenOperators...),
		TextRewrites:          append([]TextRewrite(nil), defaultTextRewrites...),
	}
}

func copyMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// defaultConfigTmpl contains the embedded default configuration template
//
//go:embed default_config.toml.tmpl
var defaultConfigTmpl string

// DefaultConfigValues holds all values used to render the default config template.
type DefaultConfigValues struct {
	Config *Config
}

func newDefaultConfigValues() DefaultConfigValues {
	return DefaultConfigValues{Config: DefaultConfig()}
}

var templateFuncs = template.FuncMap{
	"tomlString": tomlString,
	"tomlList":   tomlList,
	"tomlMap":    tomlMap,
	"tomlFloat":  tomlFloat,
}

// GenerateDefaultConfigTOML renders the default config template with the
// built-in defaults and returns the resulting TOML string.
func GenerateDefaultConfigTOML() (string, error) {
	tmpl, err := template.New("default_config").Funcs(templateFuncs).Parse(defaultConfigTmpl)
	if err != nil {
		return "", fmt.Errorf("failed to parse default config template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, newDefaultConfigValues()); err != nil {
		return "", fmt.Errorf("failed to render default config template: %w", err)
	}

	return buf.String(), nil
}

// tomlString renders s as a TOML literal string when possible so regex
// backslashes survive unescaped.
func tomlString(s string) string {
	if !strings.ContainsAny(s, "'\n") {
		return "'" + s + "'"
	}
	return fmt.Sprintf("%q", s)
}

// tomlFloat always renders a decimal point so the value decodes as a TOML float.
func tomlFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

func tomlList(items []string) string {
	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = tomlString(item)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

func tomlMap(m map[string]string) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = fmt.Sprintf("%q = %s", k, tomlString(m[k]))
	}
	return "{ " + strings.Join(pairs, ", ") + " }"
}

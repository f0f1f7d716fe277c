package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/ludo-technologies/simeval/domain"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. SIMEVAL_CACHE_REDIS_URL.
const EnvPrefix = "SIMEVAL"

// envKeys lists the settings that can be overridden from the environment.
// Keys map to SIMEVAL_<KEY> with dots replaced by underscores.
var envKeys = []string{
	"corpus.delimiter",
	"corpus.skip_sentinel",
	"analysis.structure_algorithm",
	"analysis.control_flow_granularity",
	"analysis.parse_timeout",
	"analysis.strict_parse",
	"analysis.normalize",
	"analysis.workers",
	"output.format",
	"server.addr",
	"server.jwt_secret",
	"server.rate_limit",
	"server.burst",
	"cache.redis_url",
	"cache.ttl",
	"store.mongo_uri",
	"store.database",
	"store.collection",
	"logging.level",
	"logging.format",
}

// LoadDotEnv loads .env style files into the process environment.
// Missing files are ignored and already-set variables win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return domain.NewConfigError(fmt.Sprintf("failed to load %s", p), err)
		}
	}
	return nil
}

// ApplyEnvOverrides copies SIMEVAL_* environment variables over cfg
func ApplyEnvOverrides(cfg *Config) error {
	v := newEnvViper()

	var err error
	overrideString(v, "corpus.delimiter", &cfg.Corpus.Delimiter)
	overrideString(v, "corpus.skip_sentinel", &cfg.Corpus.SkipSentinel)
	overrideString(v, "analysis.structure_algorithm", &cfg.Analysis.StructureAlgorithm)
	overrideString(v, "analysis.control_flow_granularity", &cfg.Analysis.ControlFlowGranularity)
	if v.IsSet("analysis.parse_timeout") {
		if err = setDuration(&cfg.Analysis.ParseTimeout, v.GetString("analysis.parse_timeout")); err != nil {
			return envError("analysis.parse_timeout", err)
		}
	}
	if v.IsSet("analysis.strict_parse") {
		cfg.Analysis.StrictParse = v.GetBool("analysis.strict_parse")
	}
	if v.IsSet("analysis.normalize") {
		cfg.Analysis.Normalize = v.GetBool("analysis.normalize")
	}
	if v.IsSet("analysis.workers") {
		cfg.Analysis.Workers = v.GetInt("analysis.workers")
	}
	overrideString(v, "output.format", &cfg.Output.Format)

	overrideString(v, "server.addr", &cfg.Server.Addr)
	overrideString(v, "server.jwt_secret", &cfg.Server.JWTSecret)
	if v.IsSet("server.rate_limit") {
		cfg.Server.RateLimit = v.GetFloat64("server.rate_limit")
	}
	if v.IsSet("server.burst") {
		cfg.Server.Burst = v.GetInt("server.burst")
	}

	overrideString(v, "cache.redis_url", &cfg.Cache.RedisURL)
	if v.IsSet("cache.ttl") {
		if err = setDuration(&cfg.Cache.TTL, v.GetString("cache.ttl")); err != nil {
			return envError("cache.ttl", err)
		}
	}

	overrideString(v, "store.mongo_uri", &cfg.Store.MongoURI)
	overrideString(v, "store.database", &cfg.Store.Database)
	overrideString(v, "store.collection", &cfg.Store.Collection)

	overrideString(v, "logging.level", &cfg.Logging.Level)
	overrideString(v, "logging.format", &cfg.Logging.Format)
	return nil
}

// EnvVarName returns the environment variable bound to a config key
func EnvVarName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

func newEnvViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range envKeys {
		// BindEnv only fails without a key
		_ = v.BindEnv(key)
	}
	return v
}

func overrideString(v *viper.Viper, key string, dst *string) {
	if v.IsSet(key) {
		if s := v.GetString(key); s != "" {
			*dst = s
		}
	}
}

func envError(key string, err error) error {
	return domain.NewConfigError(fmt.Sprintf("environment variable %s", EnvVarName(key)), err)
}

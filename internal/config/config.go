// Package config loads engine configuration from config.yaml and MRPT_-prefixed
// environment variables, and initializes the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Gazetteer GazetteerConfig `yaml:"gazetteer" mapstructure:"gazetteer"`
	Normalize NormalizeConfig `yaml:"normalize" mapstructure:"normalize"`
	Match     MatchConfig     `yaml:"match" mapstructure:"match"`
	KB        KBConfig        `yaml:"kb" mapstructure:"kb"`
	Engine    EngineConfig    `yaml:"engine" mapstructure:"engine"`
	Report    ReportConfig    `yaml:"report" mapstructure:"report"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// GazetteerConfig configures loading of the canonical gazetteer.
type GazetteerConfig struct {
	Path             string  `yaml:"path" mapstructure:"path"`
	LGAFuzzyMinScore float64 `yaml:"lga_fuzzy_min_score" mapstructure:"lga_fuzzy_min_score"`
}

// NormalizeConfig configures the name normalizer.
type NormalizeConfig struct {
	StripPrefixes []string `yaml:"strip_prefixes" mapstructure:"strip_prefixes"`
	StripSuffixes []string `yaml:"strip_suffixes" mapstructure:"strip_suffixes"`
}

// WeightConfig is the blend weight vector for the fuzzy sub-scores.
// Weights are renormalized at scorer construction if they do not sum to 1.
type WeightConfig struct {
	Phonetic float64 `yaml:"phonetic" mapstructure:"phonetic"`
	Token    float64 `yaml:"token" mapstructure:"token"`
	Edit     float64 `yaml:"edit" mapstructure:"edit"`
}

// MatchConfig configures candidate generation and the decision policy.
type MatchConfig struct {
	HighThreshold    float64      `yaml:"high_threshold" mapstructure:"high_threshold"`
	LowThreshold     float64      `yaml:"low_threshold" mapstructure:"low_threshold"`
	SeparationMargin float64      `yaml:"separation_margin" mapstructure:"separation_margin"`
	MaxCandidates    int          `yaml:"max_candidates" mapstructure:"max_candidates"`
	TopN             int          `yaml:"top_n" mapstructure:"top_n"`
	Weights          WeightConfig `yaml:"weights" mapstructure:"weights"`
	AllowManyToOne   bool         `yaml:"allow_many_to_one" mapstructure:"allow_many_to_one"`
}

// KBConfig configures the knowledge base store.
type KBConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// EngineConfig configures run execution.
type EngineConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// ReportConfig configures audit output.
type ReportConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("MRPT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("gazetteer.lga_fuzzy_min_score", 0.85)
	v.SetDefault("normalize.strip_prefixes", []string{})
	v.SetDefault("normalize.strip_suffixes", []string{"ward", "district"})
	v.SetDefault("match.high_threshold", 0.9)
	v.SetDefault("match.low_threshold", 0.5)
	v.SetDefault("match.separation_margin", 0.05)
	v.SetDefault("match.max_candidates", 5)
	v.SetDefault("match.top_n", 3)
	v.SetDefault("match.weights.phonetic", 0.2)
	v.SetDefault("match.weights.token", 0.35)
	v.SetDefault("match.weights.edit", 0.45)
	v.SetDefault("match.allow_many_to_one", false)
	v.SetDefault("kb.path", "knowledge.db")
	v.SetDefault("engine.workers", 4)
	v.SetDefault("report.dir", "out")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}

// Package config loads application configuration from a YAML file,
// environment variables and an optional local .env file.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"newscycle/internal/similarity"
)

// Config holds all application configuration.
type Config struct {
	App        App        `mapstructure:"app"`
	Similarity Similarity `mapstructure:"similarity"`
	Taxonomy   Taxonomy   `mapstructure:"taxonomy"`
	Embedding  Embedding  `mapstructure:"embedding"`
	Store      Store      `mapstructure:"store"`
	Output     Output     `mapstructure:"output"`
}

// App holds general application configuration.
type App struct {
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
	DataDir  string `mapstructure:"data_dir"`
}

// Similarity holds the tunable similarity thresholds. They are tuning knobs
// expected to change as the embedding model or article mix evolves.
type Similarity struct {
	ClusteringThreshold   float64 `mapstructure:"clustering_threshold"`
	RelationshipThreshold float64 `mapstructure:"relationship_threshold"`
	CitationThreshold     float64 `mapstructure:"citation_threshold"`
}

// Thresholds converts the configured values into the similarity package's
// threshold set.
func (s Similarity) Thresholds() similarity.Thresholds {
	return similarity.Thresholds{
		Clustering:   s.ClusteringThreshold,
		Relationship: s.RelationshipThreshold,
		Citation:     s.CitationThreshold,
	}
}

// Taxonomy holds the domain taxonomy configuration.
type Taxonomy struct {
	// File optionally points at a YAML taxonomy that replaces the
	// compiled-in table.
	File string `mapstructure:"file"`
}

// Embedding holds the Gemini embedding client configuration.
type Embedding struct {
	APIKey            string `mapstructure:"api_key"`
	Model             string `mapstructure:"model"`
	Dimensions        int32  `mapstructure:"dimensions"`
	MaxConcurrency    int    `mapstructure:"max_concurrency"`
	RequestsPerMinute int    `mapstructure:"requests_per_minute"`
}

// Store holds history store configuration.
type Store struct {
	// HistoryDays bounds how far back the run snapshot reaches.
	HistoryDays int `mapstructure:"history_days"`
}

// Output holds newsletter output configuration.
type Output struct {
	Directory string `mapstructure:"directory"`
}

var globalConfig *Config

// Load reads configuration from the given file (or .newscycle.yaml in the
// working directory and $HOME), the environment, and a local .env file.
func Load(configFile string) (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}

	// Load .env file if it exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			fmt.Printf("Warning: Error loading .env file: %v\n", err)
		}
	}

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
		viper.SetConfigName(".newscycle")
		viper.SetConfigType("yaml")
	}

	setDefaults()

	viper.SetEnvPrefix("NEWSCYCLE")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validate(config); err != nil {
		return nil, err
	}

	globalConfig = config
	return config, nil
}

// Get returns the global configuration, loading it if necessary.
func Get() *Config {
	if globalConfig == nil {
		config, err := Load("")
		if err != nil {
			panic(fmt.Sprintf("failed to load configuration: %v", err))
		}
		return config
	}
	return globalConfig
}

// Reset clears the cached configuration. Used by tests.
func Reset() {
	globalConfig = nil
	viper.Reset()
}

func setDefaults() {
	viper.SetDefault("app.debug", false)
	viper.SetDefault("app.log_level", "info")
	viper.SetDefault("app.data_dir", ".newscycle-cache")

	viper.SetDefault("similarity.clustering_threshold", 0.85)
	viper.SetDefault("similarity.relationship_threshold", 0.70)
	viper.SetDefault("similarity.citation_threshold", 0.75)

	viper.SetDefault("taxonomy.file", "")

	viper.SetDefault("embedding.model", "gemini-embedding-001")
	viper.SetDefault("embedding.dimensions", 768)
	viper.SetDefault("embedding.max_concurrency", 4)
	viper.SetDefault("embedding.requests_per_minute", 60)

	viper.SetDefault("store.history_days", 30)

	viper.SetDefault("output.directory", "newsletters")
}

func validate(config *Config) error {
	for name, value := range map[string]float64{
		"similarity.clustering_threshold":   config.Similarity.ClusteringThreshold,
		"similarity.relationship_threshold": config.Similarity.RelationshipThreshold,
		"similarity.citation_threshold":     config.Similarity.CitationThreshold,
	} {
		if value <= -1 || value > 1 {
			return fmt.Errorf("%s must be in (-1, 1], got %v", name, value)
		}
	}
	if config.Embedding.MaxConcurrency < 1 {
		return fmt.Errorf("embedding.max_concurrency must be at least 1")
	}
	return nil
}

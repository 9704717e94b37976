package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port      int              `json:"port"`
	LogConfig logger.LogConfig `json:"log_config"`
	Database  DatabaseConfig   `json:"database"`
	AI        AIConfig         `json:"ai"`
	Pipeline  PipelineConfig   `json:"pipeline"`
	Jobs      JobsConfig       `json:"jobs"`
	CORSAllow []string         `json:"cors_allow"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	SSLMode  string `json:"ssl_mode"`
}

type AIConfig struct {
	Provider       string      `json:"provider"`
	Model          string      `json:"model"`
	EmbedProvider  string      `json:"embed_provider"`
	EmbedModel     string      `json:"embed_model"`
	TimeoutSeconds int         `json:"timeout_seconds"`
	Data           interface{} `json:"data"`
	EmbedData      interface{} `json:"embed_data"`
	// Fallbacks are tried in order when the primary backend fails.
	Fallbacks []AIFallbackConfig `json:"fallbacks"`
}

type AIFallbackConfig struct {
	Provider      string      `json:"provider"`
	Model         string      `json:"model"`
	EmbedProvider string      `json:"embed_provider"`
	EmbedModel    string      `json:"embed_model"`
	Data          interface{} `json:"data"`
	EmbedData     interface{} `json:"embed_data"`
}

type PipelineConfig struct {
	EmbeddingDim   int `json:"embedding_dim"`
	MaxEmbedChars  int `json:"max_embed_chars"`
	MaxEnrichChars int `json:"max_enrich_chars"`
	SearchTopK     int `json:"search_top_k"`
	SimilarTopK    int `json:"similar_top_k"`
	MaxTags        int `json:"max_tags"`
	CacheSize      int `json:"cache_size"`
	CacheTTLHours  int `json:"cache_ttl_hours"`
}

type JobsConfig struct {
	BackfillSpec       string `json:"backfill_spec"`
	CacheCleanupSpec   string `json:"cache_cleanup_spec"`
	CacheMaxAgeDays    int    `json:"cache_max_age_days"`
	BackfillBatchLimit int    `json:"backfill_batch_limit"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.Database.DSN == "" && cfg.Database.Host == "" {
		return nil, fmt.Errorf("database.dsn or database.host is required")
	}
	if cfg.AI.Provider == "" {
		return nil, fmt.Errorf("ai.provider is required")
	}
	if cfg.AI.EmbedProvider == "" {
		cfg.AI.EmbedProvider = cfg.AI.Provider
	}
	if cfg.AI.EmbedData == nil {
		cfg.AI.EmbedData = cfg.AI.Data
	}
	if cfg.AI.TimeoutSeconds == 0 {
		cfg.AI.TimeoutSeconds = 30
	}
	for i := range cfg.AI.Fallbacks {
		fb := &cfg.AI.Fallbacks[i]
		if fb.Provider == "" {
			return nil, fmt.Errorf("ai.fallbacks[%d].provider is required", i)
		}
		if fb.Model == "" {
			fb.Model = cfg.AI.Model
		}
		if fb.EmbedProvider == "" {
			fb.EmbedProvider = fb.Provider
		}
		if fb.EmbedModel == "" {
			fb.EmbedModel = cfg.AI.EmbedModel
		}
		if fb.EmbedData == nil {
			fb.EmbedData = fb.Data
		}
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	applyPipelineDefaults(&cfg.Pipeline)
	if cfg.Jobs.BackfillSpec == "" {
		cfg.Jobs.BackfillSpec = "*/5 * * * *"
	}
	if cfg.Jobs.CacheCleanupSpec == "" {
		cfg.Jobs.CacheCleanupSpec = "0 4 * * *"
	}
	if cfg.Jobs.CacheMaxAgeDays == 0 {
		cfg.Jobs.CacheMaxAgeDays = 30
	}
	if cfg.Jobs.BackfillBatchLimit == 0 {
		cfg.Jobs.BackfillBatchLimit = 20
	}
	return &cfg, nil
}

func applyPipelineDefaults(p *PipelineConfig) {
	if p.EmbeddingDim == 0 {
		p.EmbeddingDim = 384
	}
	if p.MaxEmbedChars == 0 {
		p.MaxEmbedChars = 6000
	}
	if p.MaxEnrichChars == 0 {
		p.MaxEnrichChars = 6000
	}
	if p.SearchTopK == 0 {
		p.SearchTopK = 5
	}
	if p.SimilarTopK == 0 {
		p.SimilarTopK = 3
	}
	if p.MaxTags == 0 {
		p.MaxTags = 8
	}
	if p.CacheSize == 0 {
		p.CacheSize = 10000
	}
	if p.CacheTTLHours == 0 {
		p.CacheTTLHours = 2
	}
}

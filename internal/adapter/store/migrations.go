package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"cmsrag/config"
	"cmsrag/internal/domain"
)

// CurrentSchemaVersion is the current schema version.
// Increment this when making breaking changes to the storage format.
const CurrentSchemaVersion = 1

func checkSchema(info domain.IndexInfo) error {
	switch {
	case info.SchemaVersion == 0:
		return fmt.Errorf("%w: index has no schema version", domain.ErrIndexNotFound)
	case info.SchemaVersion > CurrentSchemaVersion:
		return fmt.Errorf("index created by newer version (v%d > v%d), re-run ingest", info.SchemaVersion, CurrentSchemaVersion)
	case info.SchemaVersion < CurrentSchemaVersion:
		return fmt.Errorf("index schema v%d is outdated (current v%d), re-run ingest", info.SchemaVersion, CurrentSchemaVersion)
	}
	return nil
}

// ComputeConfigHash computes a hash of index-relevant configuration.
// Changes to this hash indicate the index should be rebuilt.
func ComputeConfigHash(cfg *config.Config) string {
	relevant := struct {
		Source       string   `json:"source"`
		ChunkSize    int      `json:"chunk_size"`
		ChunkOverlap int      `json:"chunk_overlap"`
		Separators   []string `json:"separators"`
		EmbProvider  string   `json:"emb_provider"`
		EmbModel     string   `json:"emb_model"`
		EmbDimension int      `json:"emb_dimension,omitempty"`
	}{
		Source:       cfg.Source.Path,
		ChunkSize:    cfg.Index.ChunkSize,
		ChunkOverlap: cfg.Index.ChunkOverlap,
		Separators:   cfg.Index.Separators,
		EmbProvider:  cfg.Embedding.Provider,
		EmbModel:     cfg.Embedding.Model,
	}
	if cfg.Embedding.Provider == "local" {
		relevant.EmbDimension = cfg.Embedding.Dimension
	}

	data, _ := json.Marshal(relevant)
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:8])
}

// StaleReason explains why an index no longer matches cfg, or returns ""
// when it is current.
func StaleReason(info domain.IndexInfo, cfg *config.Config) string {
	if info.SchemaVersion != CurrentSchemaVersion {
		return fmt.Sprintf("schema v%d, current v%d", info.SchemaVersion, CurrentSchemaVersion)
	}
	if info.ConfigHash != "" && info.ConfigHash != ComputeConfigHash(cfg) {
		return "index configuration changed"
	}
	return ""
}

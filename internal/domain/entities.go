package domain

import "time"

// Metadata is the provenance carried by every page and chunk.
type Metadata struct {
	FileName   string `json:"file_name"`
	Source     string `json:"source"`
	DocType    string `json:"doc_type"`
	Page       int    `json:"page"`
	TotalPages int    `json:"total_pages,omitempty"`
}

type Page struct {
	Number   int
	Text     string
	Metadata Metadata
}

type Chunk struct {
	ID       string   `json:"id"`
	Seq      int      `json:"seq"`
	Text     string   `json:"text"`
	Length   int      `json:"length"`
	Overlap  int      `json:"overlap"`
	Metadata Metadata `json:"metadata"`
}

type ScoredChunk struct {
	Chunk Chunk
	Score float64
}

// RetrievalResult is ordered most relevant first.
type RetrievalResult []ScoredChunk

// Chunks drops the scores.
func (r RetrievalResult) Chunks() []Chunk {
	chunks := make([]Chunk, len(r))
	for i, sc := range r {
		chunks[i] = sc.Chunk
	}
	return chunks
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type History []Turn

// Clone returns an independent copy so callers cannot mutate session state.
func (h History) Clone() History {
	if h == nil {
		return nil
	}
	out := make(History, len(h))
	copy(out, h)
	return out
}

// IndexInfo describes one ingestion run persisted alongside the vectors.
type IndexInfo struct {
	SchemaVersion  int       `json:"schema_version"`
	BuildID        string    `json:"build_id"`
	EmbeddingModel string    `json:"embedding_model"`
	Dimension      int       `json:"dimension"`
	ChunkCount     int       `json:"chunk_count"`
	Source         string    `json:"source"`
	ConfigHash     string    `json:"config_hash,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

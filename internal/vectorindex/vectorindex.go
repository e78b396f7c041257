// Package vectorindex talks to the nearest-neighbour services that hold chunk
// embeddings. Pinecone is the production backend; Qdrant and an in-process
// store implement the same contract.
package vectorindex

import (
	"context"
	"errors"
	"math"
)

const (
	// MaxUpsertBatch is the largest number of records a single Upsert call
	// may carry.
	MaxUpsertBatch = 100

	MetricCosine     = "cosine"
	MetricDotProduct = "dotproduct"
	MetricEuclidean  = "euclidean"
)

var (
	ErrBatchTooLarge = errors.New("upsert batch exceeds limit")
	ErrIndexNotFound = errors.New("index not found")
	ErrIndexNotReady = errors.New("index not ready")
)

// Metadata is the provenance stored next to every vector.
type Metadata struct {
	Text         string `json:"text"`
	Source       string `json:"source"`
	DocumentID   string `json:"document_id"`
	DocumentName string `json:"document_name"`
	ChunkNum     *int   `json:"chunk_num,omitempty"`
}

type Record struct {
	ID       string
	Values   []float32
	Metadata Metadata
}

// Match is one query hit. Score is nil when the backend did not report one.
type Match struct {
	ID       string
	Score    *float32
	Metadata Metadata
}

type IndexSpec struct {
	Name      string
	Dimension int
	Metric    string
}

// Index is the data plane of one named index.
type Index interface {
	Upsert(ctx context.Context, records []Record) error
	Query(ctx context.Context, vector []float32, topK int) ([]Match, error)
}

// Admin manages index lifecycle.
type Admin interface {
	HasIndex(ctx context.Context, name string) (bool, error)
	CreateIndex(ctx context.Context, spec IndexSpec) error
	DeleteIndex(ctx context.Context, name string) error
}

// Store is a backend bound to a single index that also exposes lifecycle
// operations.
type Store interface {
	Index
	Admin
	IndexName() string
}

func (m Metadata) toMap() map[string]any {
	out := map[string]any{
		"text":          m.Text,
		"source":        m.Source,
		"document_id":   m.DocumentID,
		"document_name": m.DocumentName,
	}
	if m.ChunkNum != nil {
		out["chunk_num"] = *m.ChunkNum
	}
	return out
}

// metadataFromMap reads metadata decoded from JSON, where numbers arrive as
// float64.
func metadataFromMap(raw map[string]any) Metadata {
	var m Metadata
	m.Text, _ = raw["text"].(string)
	m.Source, _ = raw["source"].(string)
	m.DocumentID, _ = raw["document_id"].(string)
	m.DocumentName, _ = raw["document_name"].(string)
	switch v := raw["chunk_num"].(type) {
	case float64:
		n := int(v)
		m.ChunkNum = &n
	case int:
		n := v
		m.ChunkNum = &n
	}
	return m
}

func checkBatch(records []Record) error {
	if len(records) > MaxUpsertBatch {
		return ErrBatchTooLarge
	}
	return nil
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA <= 0 || normB <= 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrIndexNotFound)
}

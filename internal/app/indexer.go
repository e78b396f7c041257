package app

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/time/rate"

	"carching-assistant/internal/pkg/textsplit"
	"carching-assistant/internal/source"
	"carching-assistant/internal/vectorindex"
)

type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type IndexerConfig struct {
	MaxWords  int
	MinWords  int
	BatchSize int
	// EmbedRatePerSecond throttles embedding calls; 0 means unlimited.
	EmbedRatePerSecond float64
	EmbedBurst         int
	Logger             *slog.Logger
}

// Indexer chunks documents, embeds every chunk and upserts the records.
type Indexer struct {
	embedder  EmbeddingProvider
	index     vectorindex.Index
	maxWords  int
	minWords  int
	batchSize int
	limiter   *rate.Limiter
	logger    *slog.Logger
}

func NewIndexer(embedder EmbeddingProvider, index vectorindex.Index, cfg IndexerConfig) *Indexer {
	if cfg.MaxWords <= 0 {
		cfg.MaxWords = textsplit.DefaultMaxWords
	}
	if cfg.MinWords < 0 {
		cfg.MinWords = textsplit.DefaultMinWords
	}
	if cfg.BatchSize <= 0 || cfg.BatchSize > vectorindex.MaxUpsertBatch {
		cfg.BatchSize = vectorindex.MaxUpsertBatch
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ix := &Indexer{
		embedder:  embedder,
		index:     index,
		maxWords:  cfg.MaxWords,
		minWords:  cfg.MinWords,
		batchSize: cfg.BatchSize,
		logger:    logger,
	}
	if cfg.EmbedRatePerSecond > 0 {
		burst := cfg.EmbedBurst
		if burst <= 0 {
			burst = 1
		}
		ix.limiter = rate.NewLimiter(rate.Limit(cfg.EmbedRatePerSecond), burst)
	}
	return ix
}

// DocumentResult is the outcome of indexing one document. Err is nil on
// success; Chunks is the number of records written.
type DocumentResult struct {
	DocumentID string
	Name       string
	Chunks     int
	Err        error
}

// SourceReport summarises one source's pass through the indexer.
type SourceReport struct {
	Source    string
	Documents []DocumentResult
	Skipped   []source.Skipped
}

func (r SourceReport) Indexed() int {
	n := 0
	for _, d := range r.Documents {
		if d.Err == nil {
			n++
		}
	}
	return n
}

func (r SourceReport) Failed() int {
	return len(r.Documents) - r.Indexed()
}

func (r SourceReport) Chunks() int {
	n := 0
	for _, d := range r.Documents {
		n += d.Chunks
	}
	return n
}

// IndexDocument writes the chunks of rawText as records "{docID}_{i}".
// It returns the number of records written. Documents that produce no chunk
// above the minimum size write nothing and are not an error.
func (ix *Indexer) IndexDocument(ctx context.Context, sourceLabel, docID, docName, rawText string) (int, error) {
	chunks := textsplit.SplitChunks(rawText, ix.maxWords, ix.minWords)
	if len(chunks) == 0 {
		return 0, nil
	}

	records := make([]vectorindex.Record, 0, len(chunks))
	for i, chunk := range chunks {
		if ix.limiter != nil {
			if err := ix.limiter.Wait(ctx); err != nil {
				return 0, fmt.Errorf("wait for embedding slot failed: %w", err)
			}
		}
		vec, err := ix.embedder.Embed(ctx, chunk.Text)
		if err != nil {
			return 0, fmt.Errorf("embed chunk %d failed: %w", i, err)
		}
		chunkNum := i
		records = append(records, vectorindex.Record{
			ID:     fmt.Sprintf("%s_%d", docID, i),
			Values: vec,
			Metadata: vectorindex.Metadata{
				Text:         chunk.Text,
				Source:       sourceLabel,
				DocumentID:   docID,
				DocumentName: docName,
				ChunkNum:     &chunkNum,
			},
		})
	}

	written := 0
	for i := 0; i < len(records); i += ix.batchSize {
		end := i + ix.batchSize
		if end > len(records) {
			end = len(records)
		}
		if err := ix.index.Upsert(ctx, records[i:end]); err != nil {
			return written, fmt.Errorf("upsert records failed: %w", err)
		}
		written = end
	}
	return written, nil
}

// IndexDocuments indexes docs one by one. A failing document is logged and
// recorded in the report; later documents are still processed.
func (ix *Indexer) IndexDocuments(ctx context.Context, label string, docs []source.Document) SourceReport {
	report := SourceReport{Source: label, Documents: make([]DocumentResult, 0, len(docs))}
	for _, doc := range docs {
		n, err := ix.IndexDocument(ctx, label, doc.ID, doc.Name, doc.Text)
		if err != nil {
			ix.logger.Warn("index document failed", "source", label, "document_id", doc.ID, "name", doc.Name, "error", err)
		} else {
			ix.logger.Debug("indexed document", "source", label, "document_id", doc.ID, "chunks", n)
		}
		report.Documents = append(report.Documents, DocumentResult{
			DocumentID: doc.ID,
			Name:       doc.Name,
			Chunks:     n,
			Err:        err,
		})
		if ctx.Err() != nil {
			break
		}
	}
	return report
}

package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"carching-assistant/internal/vectorindex"
)

const (
	ContextDelimiter       = "\n\n---\n\n"
	DefaultTopK            = 3
	DefaultMaxContextChars = 8000
)

type RetrieverConfig struct {
	TopK     int
	MinScore float32
	// MaxContextChars bounds the assembled context in characters, delimiters
	// included.
	MaxContextChars int
	Logger          *slog.Logger
}

type Retriever struct {
	embedder EmbeddingProvider
	index    vectorindex.Index
	topK     int
	minScore float32
	maxChars int
	logger   *slog.Logger
}

func NewRetriever(embedder EmbeddingProvider, index vectorindex.Index, cfg RetrieverConfig) *Retriever {
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	if cfg.MaxContextChars <= 0 {
		cfg.MaxContextChars = DefaultMaxContextChars
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{
		embedder: embedder,
		index:    index,
		topK:     cfg.TopK,
		minScore: cfg.MinScore,
		maxChars: cfg.MaxContextChars,
		logger:   logger,
	}
}

// FetchContext returns the best matching snippets for query joined by
// ContextDelimiter, or "" when nothing usable was found. Embedding and
// query failures are logged and also yield "".
func (r *Retriever) FetchContext(ctx context.Context, query string) string {
	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		r.logger.Warn("embed query failed", "error", err)
		return ""
	}
	matches, err := r.index.Query(ctx, vec, r.topK)
	if err != nil {
		r.logger.Warn("query vector index failed", "error", err)
		return ""
	}
	return r.assemble(matches)
}

func (r *Retriever) assemble(matches []vectorindex.Match) string {
	var b strings.Builder
	used := 0
	for _, m := range matches {
		if m.Score != nil && *m.Score < r.minScore {
			continue
		}
		snippet := formatSnippet(m.Metadata)
		if snippet == "" {
			continue
		}

		cost := utf8.RuneCountInString(snippet)
		if b.Len() > 0 {
			cost += utf8.RuneCountInString(ContextDelimiter)
		}
		if used+cost > r.maxChars {
			break
		}
		if b.Len() > 0 {
			b.WriteString(ContextDelimiter)
		}
		b.WriteString(snippet)
		used += cost
	}
	return b.String()
}

func formatSnippet(meta vectorindex.Metadata) string {
	text := strings.TrimSpace(meta.Text)
	if text == "" {
		return ""
	}
	if meta.DocumentName == "" {
		return text
	}
	header := "Source: " + meta.DocumentName
	if meta.ChunkNum != nil {
		header += fmt.Sprintf(" (chunk %d)", *meta.ChunkNum)
	}
	return header + "\n" + text
}

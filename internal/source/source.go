// Package source defines the documents that feed the retrieval index.
package source

import "context"

// Labels stored as the "source" metadata of every chunk.
const (
	LabelCampaigns = "database"
	LabelDrive     = "google-drive"
)

// Document is one fetched piece of raw text. It is not modified after
// fetching.
type Document struct {
	ID     string
	Name   string
	Source string
	Text   string
}

// Skipped names a file a fetcher saw but could not turn into text.
type Skipped struct {
	ID     string
	Name   string
	Reason string
}

// Fetcher lists every document of one source.
type Fetcher interface {
	Label() string
	Fetch(ctx context.Context) ([]Document, []Skipped, error)
}

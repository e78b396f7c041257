package vectorindex

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	defaultPineconeControlURL = "https://api.pinecone.io"
	pineconeAPIVersion        = "2025-01"
)

type PineconeConfig struct {
	APIKey     string
	ControlURL string
	IndexName  string
	Namespace  string
	Cloud      string
	Region     string
	Timeout    time.Duration
	// ReadyTimeout bounds how long CreateIndex waits for the new index to
	// report ready.
	ReadyTimeout time.Duration
	HTTPClient   *http.Client
}

// Pinecone is a REST client for one serverless Pinecone index.
type Pinecone struct {
	cfg  PineconeConfig
	rest *restClient

	mu   sync.Mutex
	host string
}

var _ Store = (*Pinecone)(nil)

func NewPinecone(cfg PineconeConfig) *Pinecone {
	if cfg.ControlURL == "" {
		cfg.ControlURL = defaultPineconeControlURL
	}
	if cfg.Cloud == "" {
		cfg.Cloud = "aws"
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.ReadyTimeout <= 0 {
		cfg.ReadyTimeout = 2 * time.Minute
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Pinecone{
		cfg: cfg,
		rest: &restClient{
			httpClient: httpClient,
			headers: map[string]string{
				"Api-Key":                cfg.APIKey,
				"X-Pinecone-API-Version": pineconeAPIVersion,
			},
		},
	}
}

func (p *Pinecone) IndexName() string {
	return p.cfg.IndexName
}

type pineconeIndex struct {
	Name      string `json:"name"`
	Dimension int    `json:"dimension"`
	Metric    string `json:"metric"`
	Host      string `json:"host"`
	Status    struct {
		Ready bool   `json:"ready"`
		State string `json:"state"`
	} `json:"status"`
}

func (p *Pinecone) describe(ctx context.Context, name string) (*pineconeIndex, error) {
	var idx pineconeIndex
	err := p.rest.do(ctx, http.MethodGet, p.controlURL("/indexes/"+url.PathEscape(name)), nil, &idx)
	if isStatus(err, http.StatusNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrIndexNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("describe pinecone index failed: %w", err)
	}
	return &idx, nil
}

func (p *Pinecone) HasIndex(ctx context.Context, name string) (bool, error) {
	_, err := p.describe(ctx, name)
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, err
}

func (p *Pinecone) CreateIndex(ctx context.Context, spec IndexSpec) error {
	metric := spec.Metric
	if metric == "" {
		metric = MetricCosine
	}
	body := map[string]any{
		"name":      spec.Name,
		"dimension": spec.Dimension,
		"metric":    metric,
		"spec": map[string]any{
			"serverless": map[string]any{
				"cloud":  p.cfg.Cloud,
				"region": p.cfg.Region,
			},
		},
	}
	if err := p.rest.do(ctx, http.MethodPost, p.controlURL("/indexes"), body, nil); err != nil {
		return fmt.Errorf("create pinecone index failed: %w", err)
	}
	p.forgetHost(spec.Name)
	return p.waitReady(ctx, spec.Name)
}

func (p *Pinecone) DeleteIndex(ctx context.Context, name string) error {
	err := p.rest.do(ctx, http.MethodDelete, p.controlURL("/indexes/"+url.PathEscape(name)), nil, nil)
	p.forgetHost(name)
	if isStatus(err, http.StatusNotFound) {
		return fmt.Errorf("%w: %s", ErrIndexNotFound, name)
	}
	if err != nil {
		return fmt.Errorf("delete pinecone index failed: %w", err)
	}
	return nil
}

func (p *Pinecone) waitReady(ctx context.Context, name string) error {
	waitCtx, cancel := context.WithTimeout(ctx, p.cfg.ReadyTimeout)
	defer cancel()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		idx, err := p.describe(waitCtx, name)
		if err == nil && idx.Status.Ready {
			return nil
		}
		if err != nil && !isNotFound(err) {
			return err
		}
		select {
		case <-waitCtx.Done():
			return fmt.Errorf("%w: %s", ErrIndexNotReady, name)
		case <-ticker.C:
		}
	}
}

type pineconeVector struct {
	ID       string         `json:"id"`
	Values   []float32      `json:"values"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

func (p *Pinecone) Upsert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	if err := checkBatch(records); err != nil {
		return err
	}
	base, err := p.dataURL(ctx)
	if err != nil {
		return err
	}

	vectors := make([]pineconeVector, len(records))
	for i, r := range records {
		vectors[i] = pineconeVector{ID: r.ID, Values: r.Values, Metadata: r.Metadata.toMap()}
	}
	body := map[string]any{"vectors": vectors}
	if p.cfg.Namespace != "" {
		body["namespace"] = p.cfg.Namespace
	}
	if err := p.rest.do(ctx, http.MethodPost, base+"/vectors/upsert", body, nil); err != nil {
		return fmt.Errorf("pinecone upsert failed: %w", err)
	}
	return nil
}

func (p *Pinecone) Query(ctx context.Context, vector []float32, topK int) ([]Match, error) {
	base, err := p.dataURL(ctx)
	if err != nil {
		return nil, err
	}

	body := map[string]any{
		"vector":          vector,
		"topK":            topK,
		"includeMetadata": true,
		"includeValues":   false,
	}
	if p.cfg.Namespace != "" {
		body["namespace"] = p.cfg.Namespace
	}
	var resp struct {
		Matches []struct {
			ID       string         `json:"id"`
			Score    *float32       `json:"score"`
			Metadata map[string]any `json:"metadata"`
		} `json:"matches"`
	}
	if err := p.rest.do(ctx, http.MethodPost, base+"/query", body, &resp); err != nil {
		return nil, fmt.Errorf("pinecone query failed: %w", err)
	}

	matches := make([]Match, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		matches = append(matches, Match{ID: m.ID, Score: m.Score, Metadata: metadataFromMap(m.Metadata)})
	}
	return matches, nil
}

// dataURL resolves and caches the data-plane host of the bound index.
func (p *Pinecone) dataURL(ctx context.Context) (string, error) {
	p.mu.Lock()
	host := p.host
	p.mu.Unlock()
	if host != "" {
		return host, nil
	}

	idx, err := p.describe(ctx, p.cfg.IndexName)
	if err != nil {
		return "", err
	}
	host = idx.Host
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "https://" + host
	}
	host = strings.TrimRight(host, "/")

	p.mu.Lock()
	p.host = host
	p.mu.Unlock()
	return host, nil
}

func (p *Pinecone) forgetHost(name string) {
	if name != p.cfg.IndexName {
		return
	}
	p.mu.Lock()
	p.host = ""
	p.mu.Unlock()
}

func (p *Pinecone) controlURL(path string) string {
	return strings.TrimRight(p.cfg.ControlURL, "/") + path
}

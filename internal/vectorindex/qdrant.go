package vectorindex

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

type QdrantConfig struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Qdrant stores records as points in one collection. Qdrant only accepts
// unsigned integers or UUIDs as point ids, so record ids are mapped to a
// name-based UUID and kept verbatim in the payload.
type Qdrant struct {
	cfg  QdrantConfig
	rest *restClient
}

var _ Store = (*Qdrant)(nil)

const qdrantRecordIDKey = "record_id"

func NewQdrant(cfg QdrantConfig) *Qdrant {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	headers := map[string]string{}
	if cfg.APIKey != "" {
		headers["api-key"] = cfg.APIKey
	}
	return &Qdrant{
		cfg:  cfg,
		rest: &restClient{httpClient: httpClient, headers: headers},
	}
}

func (q *Qdrant) IndexName() string {
	return q.cfg.Collection
}

func (q *Qdrant) HasIndex(ctx context.Context, name string) (bool, error) {
	err := q.rest.do(ctx, http.MethodGet, q.collectionURL(name, ""), nil, nil)
	if err == nil {
		return true, nil
	}
	if isStatus(err, http.StatusNotFound) {
		return false, nil
	}
	return false, fmt.Errorf("get qdrant collection failed: %w", err)
}

func (q *Qdrant) CreateIndex(ctx context.Context, spec IndexSpec) error {
	body := map[string]any{
		"vectors": map[string]any{
			"size":     spec.Dimension,
			"distance": qdrantDistance(spec.Metric),
		},
	}
	if err := q.rest.do(ctx, http.MethodPut, q.collectionURL(spec.Name, ""), body, nil); err != nil {
		return fmt.Errorf("create qdrant collection failed: %w", err)
	}
	return nil
}

func (q *Qdrant) DeleteIndex(ctx context.Context, name string) error {
	err := q.rest.do(ctx, http.MethodDelete, q.collectionURL(name, ""), nil, nil)
	if isStatus(err, http.StatusNotFound) {
		return fmt.Errorf("%w: %s", ErrIndexNotFound, name)
	}
	if err != nil {
		return fmt.Errorf("delete qdrant collection failed: %w", err)
	}
	return nil
}

func (q *Qdrant) Upsert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	if err := checkBatch(records); err != nil {
		return err
	}

	points := make([]map[string]any, len(records))
	for i, r := range records {
		payload := r.Metadata.toMap()
		payload[qdrantRecordIDKey] = r.ID
		points[i] = map[string]any{
			"id":      PointID(r.ID),
			"vector":  r.Values,
			"payload": payload,
		}
	}
	body := map[string]any{"points": points}
	if err := q.rest.do(ctx, http.MethodPut, q.collectionURL(q.cfg.Collection, "/points?wait=true"), body, nil); err != nil {
		return fmt.Errorf("qdrant upsert failed: %w", err)
	}
	return nil
}

func (q *Qdrant) Query(ctx context.Context, vector []float32, topK int) ([]Match, error) {
	body := map[string]any{
		"vector":       vector,
		"limit":        topK,
		"with_payload": true,
		"with_vector":  false,
	}
	var resp struct {
		Result []struct {
			Score   *float32       `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	err := q.rest.do(ctx, http.MethodPost, q.collectionURL(q.cfg.Collection, "/points/search"), body, &resp)
	if err != nil {
		return nil, fmt.Errorf("qdrant search failed: %w", err)
	}

	matches := make([]Match, 0, len(resp.Result))
	for _, r := range resp.Result {
		id, _ := r.Payload[qdrantRecordIDKey].(string)
		matches = append(matches, Match{ID: id, Score: r.Score, Metadata: metadataFromMap(r.Payload)})
	}
	return matches, nil
}

// PointID derives the Qdrant point id for a record id.
func PointID(recordID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(recordID)).String()
}

func (q *Qdrant) collectionURL(name, suffix string) string {
	return strings.TrimRight(q.cfg.URL, "/") + "/collections/" + url.PathEscape(name) + suffix
}

func qdrantDistance(metric string) string {
	switch metric {
	case MetricDotProduct:
		return "Dot"
	case MetricEuclidean:
		return "Euclid"
	default:
		return "Cosine"
	}
}

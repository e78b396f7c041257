// Package campaigns reads the active campaign list from the campaigns API and
// flattens each campaign into a labelled text block.
package campaigns

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"carching-assistant/internal/source"
)

const contextPath = "/api/ai-context"

type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ source.Fetcher = (*Client)(nil)

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func NewClientWithHTTP(baseURL string, httpClient *http.Client) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

func (c *Client) Label() string {
	return source.LabelCampaigns
}

func (c *Client) Fetch(ctx context.Context) ([]source.Document, []source.Skipped, error) {
	if c.baseURL == "" {
		return nil, nil, fmt.Errorf("campaigns api url is not configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+contextPath, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("build campaigns request failed: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("campaigns request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("read campaigns response failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, nil, fmt.Errorf("campaigns response status %d: %s", resp.StatusCode, string(raw))
	}

	docs, err := Parse(raw)
	if err != nil {
		return nil, nil, err
	}
	return docs, nil, nil
}

// Parse turns an /api/ai-context body into documents, one per campaign.
// Campaigns without a name are called "campaign-N" (1-based).
func Parse(body []byte) ([]source.Document, error) {
	var envelope struct {
		Data struct {
			Campaigns []json.RawMessage `json:"campaigns"`
		} `json:"data"`
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&envelope); err != nil {
		return nil, fmt.Errorf("parse campaigns response failed: %w", err)
	}

	docs := make([]source.Document, 0, len(envelope.Data.Campaigns))
	for i, item := range envelope.Data.Campaigns {
		idx := i + 1
		fields, ok := decodeObject(item)
		if !ok {
			docs = append(docs, source.Document{
				ID:     fmt.Sprintf("item-%d", idx),
				Name:   fmt.Sprintf("item-%d", idx),
				Source: source.LabelCampaigns,
				Text:   scalarText(item),
			})
			continue
		}

		name := format(fields["name"])
		if name == "" {
			name = fmt.Sprintf("campaign-%d", idx)
		}
		docs = append(docs, source.Document{
			ID:     fmt.Sprintf("campaign-%d", idx),
			Name:   name,
			Source: source.LabelCampaigns,
			Text:   Flatten(fields),
		})
	}
	return docs, nil
}

var fieldOrder = []struct {
	label string
	key   string
}{
	{"Campaign", "name"},
	{"Description", "description"},
	{"Brand", "brand_name"},
	{"Location", "location"},
	{"Start date", "start_date"},
	{"End date", "end_date"},
	{"Kilometers per month", "kilometers_per_month"},
	{"Pay per month", "pay_per_month"},
	{"Max drivers", "max_drivers"},
}

// Flatten renders one campaign as "Label: value" lines. Missing and null
// fields render as an empty value.
func Flatten(fields map[string]any) string {
	lines := make([]string, len(fieldOrder))
	for i, f := range fieldOrder {
		lines[i] = f.label + ": " + format(fields[f.key])
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func decodeObject(raw json.RawMessage) (map[string]any, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, false
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, false
	}
	return fields, true
}

func scalarText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(bytes.TrimSpace(raw))
}

func format(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		if val {
			return "true"
		}
		return "false"
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(data)
	}
}

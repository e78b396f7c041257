package vectorindex

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(n int) *int { return &n }

func TestMemoryQueryRanksByCosine(t *testing.T) {
	ctx := context.Background()
	m := NewMemory("web-data")

	require.NoError(t, m.Upsert(ctx, []Record{
		{ID: "a_0", Values: []float32{1, 0}, Metadata: Metadata{Text: "alpha", Source: "database", DocumentID: "a", ChunkNum: intPtr(0)}},
		{ID: "b_0", Values: []float32{0, 1}, Metadata: Metadata{Text: "beta", Source: "google-drive", DocumentID: "b", ChunkNum: intPtr(0)}},
		{ID: "c_0", Values: []float32{0.7, 0.7}, Metadata: Metadata{Text: "gamma"}},
	}))

	matches, err := m.Query(ctx, []float32{1, 0.1}, 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "a_0", matches[0].ID)
	assert.Equal(t, "c_0", matches[1].ID)
	require.NotNil(t, matches[0].Score)
	assert.Greater(t, *matches[0].Score, *matches[1].Score)
	assert.Equal(t, "alpha", matches[0].Metadata.Text)
	assert.Equal(t, 0, *matches[0].Metadata.ChunkNum)
}

func TestMemoryUpsertOverwritesByID(t *testing.T) {
	ctx := context.Background()
	m := NewMemory("web-data")

	require.NoError(t, m.Upsert(ctx, []Record{{ID: "x", Values: []float32{1}, Metadata: Metadata{Text: "old"}}}))
	require.NoError(t, m.Upsert(ctx, []Record{{ID: "x", Values: []float32{1}, Metadata: Metadata{Text: "new"}}}))

	assert.Equal(t, 1, m.Len())
	matches, err := m.Query(ctx, []float32{1}, 5)
	require.NoError(t, err)
	assert.Equal(t, "new", matches[0].Metadata.Text)
}

func TestMemoryRejectsOversizedBatch(t *testing.T) {
	m := NewMemory("web-data")
	records := make([]Record, MaxUpsertBatch+1)
	for i := range records {
		records[i] = Record{ID: strings.Repeat("r", i+1), Values: []float32{1}}
	}
	assert.ErrorIs(t, m.Upsert(context.Background(), records), ErrBatchTooLarge)
}

func TestMemoryLifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewMemory("web-data")
	require.NoError(t, m.Upsert(ctx, []Record{{ID: "x", Values: []float32{1}}}))

	require.NoError(t, m.DeleteIndex(ctx, "web-data"))
	ok, err := m.HasIndex(ctx, "web-data")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = m.Query(ctx, []float32{1}, 1)
	assert.ErrorIs(t, err, ErrIndexNotFound)
	assert.ErrorIs(t, m.DeleteIndex(ctx, "web-data"), ErrIndexNotFound)

	require.NoError(t, m.CreateIndex(ctx, IndexSpec{Name: "web-data", Dimension: 1, Metric: MetricCosine}))
	assert.Equal(t, 0, m.Len())
}

type fakePinecone struct {
	mu       sync.Mutex
	exists   bool
	upserted []map[string]any
	gotKey   string
}

func (f *fakePinecone) handler(t *testing.T, host string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.gotKey = r.Header.Get("Api-Key")

		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/indexes/web-data":
			if !f.exists {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"name":   "web-data",
				"host":   host,
				"status": map[string]any{"ready": true},
			})
		case r.Method == http.MethodPost && r.URL.Path == "/indexes":
			f.exists = true
			w.WriteHeader(http.StatusCreated)
		case r.Method == http.MethodDelete && r.URL.Path == "/indexes/web-data":
			if !f.exists {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			f.exists = false
			w.WriteHeader(http.StatusAccepted)
		case r.Method == http.MethodPost && r.URL.Path == "/vectors/upsert":
			var body struct {
				Vectors []map[string]any `json:"vectors"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			f.upserted = append(f.upserted, body.Vectors...)
			_ = json.NewEncoder(w).Encode(map[string]any{"upsertedCount": len(body.Vectors)})
		case r.Method == http.MethodPost && r.URL.Path == "/query":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"matches": []map[string]any{
					{"id": "doc_0", "score": 0.9, "metadata": map[string]any{"text": "hello", "source": "database", "document_id": "doc", "document_name": "Doc", "chunk_num": 0}},
					{"id": "doc_1", "metadata": map[string]any{"text": "world"}},
				},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func TestPineconeLifecycleAndData(t *testing.T) {
	ctx := context.Background()
	fake := &fakePinecone{}
	srv := httptest.NewUnstartedServer(nil)
	srv.Config.Handler = fake.handler(t, "http://"+srv.Listener.Addr().String())
	srv.Start()
	defer srv.Close()

	p := NewPinecone(PineconeConfig{APIKey: "pc-key", ControlURL: srv.URL, IndexName: "web-data"})

	ok, err := p.HasIndex(ctx, "web-data")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, p.CreateIndex(ctx, IndexSpec{Name: "web-data", Dimension: 2}))
	ok, err = p.HasIndex(ctx, "web-data")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, p.Upsert(ctx, []Record{
		{ID: "doc_0", Values: []float32{1, 0}, Metadata: Metadata{Text: "hello", Source: "database", DocumentID: "doc", DocumentName: "Doc", ChunkNum: intPtr(0)}},
	}))
	require.Len(t, fake.upserted, 1)
	assert.Equal(t, "doc_0", fake.upserted[0]["id"])
	meta := fake.upserted[0]["metadata"].(map[string]any)
	assert.Equal(t, "hello", meta["text"])
	assert.Equal(t, float64(0), meta["chunk_num"])
	assert.Equal(t, "pc-key", fake.gotKey)

	matches, err := p.Query(ctx, []float32{1, 0}, 3)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	require.NotNil(t, matches[0].Score)
	assert.InDelta(t, 0.9, *matches[0].Score, 1e-6)
	assert.Equal(t, "Doc", matches[0].Metadata.DocumentName)
	assert.Nil(t, matches[1].Score)
	assert.Nil(t, matches[1].Metadata.ChunkNum)

	require.NoError(t, p.DeleteIndex(ctx, "web-data"))
	assert.ErrorIs(t, p.DeleteIndex(ctx, "web-data"), ErrIndexNotFound)
}

func TestPineconeServerErrorIsReturned(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewPinecone(PineconeConfig{APIKey: "k", ControlURL: srv.URL, IndexName: "web-data"})
	_, err := p.HasIndex(context.Background(), "web-data")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestQdrantMapsRecordsToPoints(t *testing.T) {
	ctx := context.Background()
	var gotPoints []map[string]any
	var gotSearch map[string]any
	created := false

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "q-key", r.Header.Get("api-key"))
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/collections/web-data":
			if !created {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			_, _ = w.Write([]byte(`{"result":{}}`))
		case r.Method == http.MethodPut && r.URL.Path == "/collections/web-data":
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			vectors := body["vectors"].(map[string]any)
			assert.Equal(t, "Cosine", vectors["distance"])
			assert.Equal(t, float64(2), vectors["size"])
			created = true
			_, _ = w.Write([]byte(`{"result":true}`))
		case r.Method == http.MethodPut && r.URL.Path == "/collections/web-data/points":
			assert.Equal(t, "true", r.URL.Query().Get("wait"))
			var body struct {
				Points []map[string]any `json:"points"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			gotPoints = body.Points
			_, _ = w.Write([]byte(`{"result":{"status":"completed"}}`))
		case r.Method == http.MethodPost && r.URL.Path == "/collections/web-data/points/search":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotSearch))
			_, _ = w.Write([]byte(`{"result":[{"id":"x","score":0.5,"payload":{"record_id":"doc_3","text":"t","chunk_num":3}}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	q := NewQdrant(QdrantConfig{URL: srv.URL, APIKey: "q-key", Collection: "web-data"})

	ok, err := q.HasIndex(ctx, "web-data")
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, q.CreateIndex(ctx, IndexSpec{Name: "web-data", Dimension: 2, Metric: MetricCosine}))
	ok, err = q.HasIndex(ctx, "web-data")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, q.Upsert(ctx, []Record{{ID: "doc_3", Values: []float32{0, 1}, Metadata: Metadata{Text: "t"}}}))
	require.Len(t, gotPoints, 1)
	assert.Equal(t, PointID("doc_3"), gotPoints[0]["id"])
	assert.Equal(t, "doc_3", gotPoints[0]["payload"].(map[string]any)["record_id"])

	matches, err := q.Query(ctx, []float32{0, 1}, 4)
	require.NoError(t, err)
	assert.Equal(t, float64(4), gotSearch["limit"])
	assert.Equal(t, true, gotSearch["with_payload"])
	require.Len(t, matches, 1)
	assert.Equal(t, "doc_3", matches[0].ID)
	assert.Equal(t, 3, *matches[0].Metadata.ChunkNum)
}

func TestPointIDIsStable(t *testing.T) {
	assert.Equal(t, PointID("campaign-1_0"), PointID("campaign-1_0"))
	assert.NotEqual(t, PointID("campaign-1_0"), PointID("campaign-1_1"))
}

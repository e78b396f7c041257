package app

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"carching-assistant/internal/ai"
	"carching-assistant/internal/model"
	"carching-assistant/internal/source"
	"carching-assistant/internal/vectorindex"
)

var errBoom = errors.New("boom")

// keywordEmbedder maps text onto a small vocabulary so similarity follows
// shared keywords.
type keywordEmbedder struct {
	vocab []string
	fail  func(text string) bool
	mu    sync.Mutex
	calls int
}

func newKeywordEmbedder(vocab ...string) *keywordEmbedder {
	return &keywordEmbedder{vocab: vocab}
}

func (e *keywordEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	if e.fail != nil && e.fail(text) {
		return nil, errBoom
	}
	lower := strings.ToLower(text)
	vec := make([]float32, len(e.vocab)+1)
	vec[len(e.vocab)] = 0.01
	for i, w := range e.vocab {
		vec[i] = float32(strings.Count(lower, w))
	}
	return vec, nil
}

func (e *keywordEmbedder) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

// recordingIndex wraps a memory store and remembers batch sizes.
type recordingIndex struct {
	*vectorindex.Memory
	batches   []int
	upsertErr error
}

func (r *recordingIndex) Upsert(ctx context.Context, records []vectorindex.Record) error {
	r.batches = append(r.batches, len(records))
	if r.upsertErr != nil {
		return r.upsertErr
	}
	return r.Memory.Upsert(ctx, records)
}

type staticIndex struct {
	matches []vectorindex.Match
	err     error
}

func (s *staticIndex) Upsert(context.Context, []vectorindex.Record) error { return nil }

func (s *staticIndex) Query(context.Context, []float32, int) ([]vectorindex.Match, error) {
	return s.matches, s.err
}

type fakeCompleter struct {
	reply    string
	err      error
	gotCfg   ai.ChatConfig
	messages []ai.ChatMessage
}

func (f *fakeCompleter) Complete(_ context.Context, cfg ai.ChatConfig, messages []ai.ChatMessage) (string, error) {
	f.gotCfg = cfg
	f.messages = messages
	return f.reply, f.err
}

type fixedContext string

func (f fixedContext) FetchContext(context.Context, string) string { return string(f) }

type fakeFetcher struct {
	label   string
	docs    []source.Document
	skipped []source.Skipped
	err     error
}

func (f *fakeFetcher) Label() string { return f.label }

func (f *fakeFetcher) Fetch(context.Context) ([]source.Document, []source.Skipped, error) {
	return f.docs, f.skipped, f.err
}

type fakeSender struct {
	to   string
	body string
	err  error
}

func (f *fakeSender) SendText(_ context.Context, to, body string) error {
	f.to, f.body = to, body
	return f.err
}

type memoryHistory struct {
	data   map[string][]ai.ChatMessage
	getErr error
}

func (m *memoryHistory) GetHistory(_ context.Context, waID string) ([]ai.ChatMessage, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.data[waID], nil
}

func (m *memoryHistory) SetHistory(_ context.Context, waID string, h []ai.ChatMessage) error {
	m.data[waID] = h
	return nil
}

type fakePublisher struct {
	published []model.WhatsappMessage
	err       error
}

func (f *fakePublisher) Publish(_ context.Context, msg model.WhatsappMessage) error {
	f.published = append(f.published, msg)
	return f.err
}

type fakeLocker struct {
	held     bool
	released bool
}

func (l *fakeLocker) Acquire(context.Context, string, time.Duration) (bool, error) {
	if l.held {
		return false, nil
	}
	l.held = true
	return true, nil
}

func (l *fakeLocker) Release(context.Context, string) error {
	l.held = false
	l.released = true
	return nil
}

func words(n int, word string) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = word
	}
	return strings.Join(parts, " ")
}

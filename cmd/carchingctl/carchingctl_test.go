package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carching-assistant/internal/app"
)

type fakeSyncer struct {
	scope  string
	result *app.SyncResult
}

func (f *fakeSyncer) Sync(_ context.Context, scope string) (*app.SyncResult, error) {
	f.scope = scope
	return f.result, nil
}

type fakeAsker struct{ question string }

func (f *fakeAsker) Ping(_ context.Context, question string) string {
	f.question = question
	return "RM1000 a month"
}

type fakeSender struct{ to, name, lang string }

func (f *fakeSender) SendTemplate(_ context.Context, to, name, lang string) error {
	f.to, f.name, f.lang = to, name, lang
	return nil
}

func withServices(t *testing.T, svc *services) {
	t.Helper()
	old := newServices
	newServices = func(context.Context) (*services, error) { return svc, nil }
	t.Cleanup(func() { newServices = old })
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestSyncCommand(t *testing.T) {
	syncer := &fakeSyncer{result: &app.SyncResult{
		Status:  app.SyncStatusSuccess,
		Message: "sync completed (drive: 1/1 documents, 2 chunks)",
		Sources: []app.SourceSummary{{Source: app.ScopeDrive, Status: app.SyncStatusSuccess, Documents: 1, Indexed: 1, Chunks: 2}},
	}}
	withServices(t, &services{syncer: syncer, close: func() {}})

	out, err := execute(t, "", "sync", "--source", "drive")
	require.NoError(t, err)
	assert.Equal(t, "drive", syncer.scope)
	assert.Contains(t, out, "chunks=2")
	assert.Contains(t, out, "sync completed")
}

func TestSyncCommand_FailedResult(t *testing.T) {
	syncer := &fakeSyncer{result: &app.SyncResult{Status: app.SyncStatusError, Message: "sync failed for drive: boom"}}
	withServices(t, &services{syncer: syncer, close: func() {}})

	_, err := execute(t, "", "sync", "--source", "all")
	assert.EqualError(t, err, "sync failed for drive: boom")
}

func TestAskCommand(t *testing.T) {
	a := &fakeAsker{}
	withServices(t, &services{asker: a, close: func() {}})

	out, err := execute(t, "", "ask", "how", "much?")
	require.NoError(t, err)
	assert.Equal(t, "how much?", a.question)
	assert.Contains(t, out, "RM1000 a month")
}

func TestDeliverTestCommand(t *testing.T) {
	s := &fakeSender{}
	withServices(t, &services{sender: s, close: func() {}})

	_, err := execute(t, "", "deliver-test", "6591234567")
	require.NoError(t, err)
	assert.Equal(t, "6591234567", s.to)
	assert.Equal(t, "hello_world", s.name)
	assert.Equal(t, "en_US", s.lang)
}

func TestSplitCommand(t *testing.T) {
	text := strings.Repeat("word ", 40) + "\n\n" + "short"

	out, err := execute(t, text, "split", "--max-words", "120", "--min-words", "30")
	require.NoError(t, err)
	assert.Contains(t, out, "--- chunk 0 (40 words)")
	assert.Contains(t, out, "1 chunks")
}

package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"carching-assistant/internal/source"
	"carching-assistant/internal/vectorindex"
)

const (
	ScopeAll       = "all"
	ScopeCampaigns = "campaigns"
	ScopeDrive     = "drive"

	SyncStatusSuccess = "success"
	SyncStatusError   = "error"

	syncLockName = "index-sync"
)

var (
	ErrUnknownScope   = errors.New("unknown sync scope")
	ErrSyncInProgress = errors.New("another sync is in progress")
	ErrIndexRebuild   = errors.New("index rebuild failed")
)

// SyncLocker guards against two syncs rebuilding the index at once.
type SyncLocker interface {
	Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, name string) error
}

type SyncServiceConfig struct {
	Store     vectorindex.Store
	Indexer   *Indexer
	Campaigns source.Fetcher
	Drive     source.Fetcher
	Dimension int
	Metric    string
	// Locker is optional; without it syncs are not serialised.
	Locker  SyncLocker
	LockTTL time.Duration
	Logger  *slog.Logger
}

type SyncService struct {
	store     vectorindex.Store
	indexer   *Indexer
	fetchers  map[string]source.Fetcher
	dimension int
	metric    string
	locker    SyncLocker
	lockTTL   time.Duration
	logger    *slog.Logger
}

func NewSyncService(cfg SyncServiceConfig) *SyncService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Metric == "" {
		cfg.Metric = vectorindex.MetricCosine
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 15 * time.Minute
	}
	fetchers := map[string]source.Fetcher{}
	if cfg.Campaigns != nil {
		fetchers[ScopeCampaigns] = cfg.Campaigns
	}
	if cfg.Drive != nil {
		fetchers[ScopeDrive] = cfg.Drive
	}
	return &SyncService{
		store:     cfg.Store,
		indexer:   cfg.Indexer,
		fetchers:  fetchers,
		dimension: cfg.Dimension,
		metric:    cfg.Metric,
		locker:    cfg.Locker,
		lockTTL:   cfg.LockTTL,
		logger:    logger,
	}
}

// SourceSummary is the per-source part of a sync result.
type SourceSummary struct {
	Source    string           `json:"source"`
	Status    string           `json:"status"`
	Documents int              `json:"documents"`
	Indexed   int              `json:"indexed"`
	Failed    int              `json:"failed"`
	Chunks    int              `json:"chunks"`
	Skipped   []source.Skipped `json:"skipped,omitempty"`
	Error     string           `json:"error,omitempty"`
	Failures  []string         `json:"failures,omitempty"`
}

type SyncResult struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Sources []SourceSummary `json:"sources"`
}

// Failed reports whether the index rebuild or any source failed.
func (r *SyncResult) Failed() bool {
	return r.Status != SyncStatusSuccess
}

// ParseScope maps "", "all", "campaigns" and "drive" to the scopes to run, in
// run order.
func ParseScope(raw string) ([]string, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", ScopeAll:
		return []string{ScopeCampaigns, ScopeDrive}, nil
	case ScopeCampaigns, "database", "friday":
		return []string{ScopeCampaigns}, nil
	case ScopeDrive, "google-drive":
		return []string{ScopeDrive}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownScope, raw)
}

// Sync re-ingests the requested sources. A full sync deletes and recreates
// the index first; a single-source sync upserts into the existing index.
// Source failures are reported in the result, not returned as errors.
// Nothing is rolled back when a later step fails.
func (s *SyncService) Sync(ctx context.Context, scope string) (*SyncResult, error) {
	scopes, err := ParseScope(scope)
	if err != nil {
		return nil, err
	}

	if s.locker != nil {
		ok, err := s.locker.Acquire(ctx, syncLockName, s.lockTTL)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrSyncInProgress
		}
		defer func() {
			releaseCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			if err := s.locker.Release(releaseCtx, syncLockName); err != nil {
				s.logger.Warn("release sync lock failed", "error", err)
			}
		}()
	}

	started := time.Now()
	s.logger.Info("starting sync", "scopes", scopes)

	if len(scopes) > 1 {
		if err := s.rebuildIndex(ctx); err != nil {
			s.logger.Error("index rebuild failed", "index", s.store.IndexName(), "error", err)
			return &SyncResult{
				Status:  SyncStatusError,
				Message: err.Error(),
				Sources: []SourceSummary{},
			}, nil
		}
	} else if err := s.ensureIndex(ctx); err != nil {
		return &SyncResult{Status: SyncStatusError, Message: err.Error(), Sources: []SourceSummary{}}, nil
	}

	result := &SyncResult{Status: SyncStatusSuccess, Sources: make([]SourceSummary, 0, len(scopes))}
	var failed []string
	var parts []string
	for _, sc := range scopes {
		summary := s.syncSource(ctx, sc)
		result.Sources = append(result.Sources, summary)
		if summary.Status != SyncStatusSuccess {
			failed = append(failed, fmt.Sprintf("%s: %s", sc, summary.Error))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %d/%d documents, %d chunks", sc, summary.Indexed, summary.Documents, summary.Chunks))
	}

	if len(failed) > 0 {
		result.Status = SyncStatusError
		result.Message = "sync failed for " + strings.Join(failed, "; ")
	} else {
		result.Message = "sync completed (" + strings.Join(parts, "; ") + ")"
	}
	s.logger.Info("sync finished", "status", result.Status, "duration", time.Since(started), "message", result.Message)
	return result, nil
}

func (s *SyncService) syncSource(ctx context.Context, scope string) SourceSummary {
	fetcher, ok := s.fetchers[scope]
	if !ok {
		return SourceSummary{Source: scope, Status: SyncStatusError, Error: "source is not configured"}
	}
	summary := SourceSummary{Source: scope, Status: SyncStatusSuccess}

	docs, skipped, err := fetcher.Fetch(ctx)
	if err != nil {
		s.logger.Error("fetch source failed", "source", fetcher.Label(), "error", err)
		summary.Status = SyncStatusError
		summary.Error = err.Error()
		return summary
	}

	report := s.indexer.IndexDocuments(ctx, fetcher.Label(), docs)
	report.Skipped = skipped
	summary.Documents = len(report.Documents)
	summary.Indexed = report.Indexed()
	summary.Failed = report.Failed()
	summary.Chunks = report.Chunks()
	summary.Skipped = report.Skipped
	for _, d := range report.Documents {
		if d.Err != nil {
			summary.Failures = append(summary.Failures, fmt.Sprintf("%s: %v", d.Name, d.Err))
		}
	}
	if err := ctx.Err(); err != nil {
		summary.Status = SyncStatusError
		summary.Error = err.Error()
	}
	return summary
}

func (s *SyncService) rebuildIndex(ctx context.Context) error {
	name := s.store.IndexName()
	exists, err := s.store.HasIndex(ctx, name)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIndexRebuild, err)
	}
	if exists {
		if err := s.store.DeleteIndex(ctx, name); err != nil && !errors.Is(err, vectorindex.ErrIndexNotFound) {
			return fmt.Errorf("%w: %v", ErrIndexRebuild, err)
		}
	}
	if err := s.store.CreateIndex(ctx, s.spec()); err != nil {
		return fmt.Errorf("%w: %v", ErrIndexRebuild, err)
	}
	return nil
}

func (s *SyncService) ensureIndex(ctx context.Context) error {
	exists, err := s.store.HasIndex(ctx, s.store.IndexName())
	if err != nil {
		return fmt.Errorf("check index failed: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.store.CreateIndex(ctx, s.spec()); err != nil {
		return fmt.Errorf("create index failed: %w", err)
	}
	return nil
}

func (s *SyncService) spec() vectorindex.IndexSpec {
	return vectorindex.IndexSpec{
		Name:      s.store.IndexName(),
		Dimension: s.dimension,
		Metric:    s.metric,
	}
}

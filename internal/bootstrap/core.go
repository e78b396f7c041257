package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"carching-assistant/internal/ai"
	"carching-assistant/internal/app"
	"carching-assistant/internal/config"
	redisClient "carching-assistant/internal/platform/redis"
	"carching-assistant/internal/source"
	"carching-assistant/internal/source/campaigns"
	drivesource "carching-assistant/internal/source/drive"
	"carching-assistant/internal/vectorindex"
	"carching-assistant/internal/whatsapp"
)

// Core is the retrieval and conversation wiring shared by the server and the
// CLI. It needs no database or broker; Redis is optional and only backs the
// sync lock here.
type Core struct {
	Config *config.Config
	Logger *slog.Logger

	Store     vectorindex.Store
	LLM       *ai.OpenAICompatibleClient
	Embedder  *ai.Embedder
	Retriever *app.Retriever
	Engine    *app.ConversationEngine
	Indexer   *app.Indexer
	Sync      *app.SyncService
	Chat      *app.ChatService
	WhatsApp  *whatsapp.Client
}

func NewCore(ctx context.Context, cfg *config.Config, logger *slog.Logger, redisCli *redis.Client) (*Core, error) {
	if logger == nil {
		logger = slog.Default()
	}

	store, err := NewVectorStore(cfg)
	if err != nil {
		return nil, err
	}

	llm := ai.NewOpenAICompatibleClient(time.Duration(cfg.LLM.TimeoutSeconds) * time.Second)
	embedder := ai.NewEmbedder(llm, ai.EmbeddingConfig{
		BaseURL:   cfg.LLM.BaseURL,
		APIKey:    cfg.LLM.APIKey,
		Model:     cfg.LLM.EmbeddingModel,
		Dimension: cfg.LLM.EmbeddingDimension,
	})

	retriever := app.NewRetriever(embedder, store, app.RetrieverConfig{
		TopK:            cfg.Retrieval.TopK,
		MinScore:        float32(cfg.Retrieval.MinScore),
		MaxContextChars: cfg.Retrieval.MaxContextChars,
		Logger:          logger.With("component", "retriever"),
	})
	engine := app.NewConversationEngine(retriever, llm, ai.ChatConfig{
		BaseURL: cfg.LLM.BaseURL,
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.ChatModel,
	}, logger.With("component", "conversation"))

	indexer := app.NewIndexer(embedder, store, app.IndexerConfig{
		MaxWords:           cfg.Ingest.MaxWords,
		MinWords:           cfg.Ingest.MinWords,
		BatchSize:          cfg.Ingest.UpsertBatchSize,
		EmbedRatePerSecond: cfg.Ingest.EmbedRatePerSecond,
		EmbedBurst:         cfg.Ingest.EmbedBurst,
		Logger:             logger.With("component", "indexer"),
	})

	syncCfg := app.SyncServiceConfig{
		Store:     store,
		Indexer:   indexer,
		Dimension: embedder.Dimension(),
		Metric:    cfg.VectorIndex.Metric,
		LockTTL:   time.Duration(cfg.Redis.SyncLockTTLSeconds) * time.Second,
		Logger:    logger.With("component", "sync"),
	}
	if cfg.Campaigns.BaseURL != "" {
		syncCfg.Campaigns = campaigns.NewClient(cfg.Campaigns.BaseURL, time.Duration(cfg.Campaigns.TimeoutSeconds)*time.Second)
	} else {
		logger.Warn("campaigns source disabled: no base url configured")
	}
	if drive := newDriveSource(ctx, cfg, logger); drive != nil {
		syncCfg.Drive = drive
	}
	if redisCli != nil {
		syncCfg.Locker = redisClient.NewLock(redisCli)
	}

	return &Core{
		Config:    cfg,
		Logger:    logger,
		Store:     store,
		LLM:       llm,
		Embedder:  embedder,
		Retriever: retriever,
		Engine:    engine,
		Indexer:   indexer,
		Sync:      app.NewSyncService(syncCfg),
		Chat: app.NewChatService(engine, app.ChatServiceConfig{
			SystemPrompt:  cfg.LLM.SystemPrompt,
			Model:         cfg.LLM.ChatModel,
			AllowedModels: cfg.LLM.AllowedModels,
			PingQuestion:  cfg.LLM.PingQuestion,
		}),
		WhatsApp: whatsapp.NewClient(whatsapp.ClientConfig{
			BaseURL:       cfg.WhatsApp.GraphBaseURL,
			APIVersion:    cfg.WhatsApp.APIVersion,
			PhoneNumberID: cfg.WhatsApp.PhoneNumberID,
			AccessToken:   cfg.WhatsApp.AccessToken,
			Timeout:       time.Duration(cfg.WhatsApp.SendTimeoutSeconds) * time.Second,
		}),
	}, nil
}

// NewVectorStore builds the index client for the configured provider.
func NewVectorStore(cfg *config.Config) (vectorindex.Store, error) {
	timeout := time.Duration(cfg.VectorIndex.TimeoutSeconds) * time.Second
	switch cfg.VectorIndex.Provider {
	case config.ProviderPinecone:
		return vectorindex.NewPinecone(vectorindex.PineconeConfig{
			APIKey:     cfg.VectorIndex.PineconeAPIKey,
			ControlURL: cfg.VectorIndex.PineconeControlURL,
			IndexName:  cfg.VectorIndex.IndexName,
			Namespace:  cfg.Retrieval.Namespace,
			Cloud:      cfg.VectorIndex.PineconeCloud,
			Region:     cfg.VectorIndex.PineconeRegion,
			Timeout:    timeout,
		}), nil
	case config.ProviderQdrant:
		return vectorindex.NewQdrant(vectorindex.QdrantConfig{
			URL:        cfg.VectorIndex.QdrantURL,
			APIKey:     cfg.VectorIndex.QdrantAPIKey,
			Collection: cfg.VectorIndex.IndexName,
			Timeout:    timeout,
		}), nil
	case config.ProviderMemory:
		return vectorindex.NewMemory(cfg.VectorIndex.IndexName), nil
	}
	return nil, fmt.Errorf("%w: unknown vector index provider %q", config.ErrInvalidConfig, cfg.VectorIndex.Provider)
}

// newDriveSource returns nil when Drive is not configured or its credentials
// cannot be loaded; a sync then reports the drive source as failed.
func newDriveSource(ctx context.Context, cfg *config.Config, logger *slog.Logger) source.Fetcher {
	if cfg.Drive.FolderID == "" {
		logger.Warn("drive source disabled: no folder id configured")
		return nil
	}
	src, err := drivesource.New(ctx, drivesource.Config{
		FolderID:           cfg.Drive.FolderID,
		ServiceAccountFile: cfg.Drive.ServiceAccountFile,
		Logger:             logger.With("component", "drive"),
	})
	if err != nil {
		logger.Warn("drive source disabled", "error", err)
		return nil
	}
	return src
}

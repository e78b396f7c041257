package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"carching-assistant/internal/app"
	"carching-assistant/internal/cache"
	"carching-assistant/internal/config"
	"carching-assistant/internal/model"
	"carching-assistant/internal/platform/logging"
	mysqlClient "carching-assistant/internal/platform/mysql"
	rabbitmqClient "carching-assistant/internal/platform/rabbitmq"
	redisClient "carching-assistant/internal/platform/redis"
	"carching-assistant/internal/repository"
	"carching-assistant/internal/worker"
)

// App is the full server: Core plus the message log pipeline and the
// WhatsApp reply path.
type App struct {
	*Core

	MySQL         *gorm.DB
	Redis         *redis.Client
	MQConn        *amqp.Connection
	MessageWorker *worker.MessagePersistWorker
	Reply         *app.ReplyService

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}
	logger := logging.New(cfg.App.Env, cfg.App.LogLevel)
	slog.SetDefault(logger)

	a := &App{StartedAt: time.Now()}
	if err := a.connect(ctx, cfg, logger); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) connect(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	mysqlDB, err := mysqlClient.New(ctx, cfg.MySQLDSN(), logger)
	if err != nil {
		return err
	}
	a.MySQL = mysqlDB
	if err := mysqlClient.Migrate(mysqlDB, &model.WhatsappMessage{}); err != nil {
		return err
	}

	redisCli, err := redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return err
	}
	a.Redis = redisCli

	mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL, cfg.RabbitMQ.MessageLogQueue)
	if err != nil {
		return err
	}
	a.MQConn = mqConn

	messageRepo := repository.NewWhatsappMessageRepository(mysqlDB)
	a.MessageWorker = worker.NewMessagePersistWorker(mqConn, messageRepo, cfg.RabbitMQ.MessageLogQueue, logger.With("component", "message_worker"))
	if err := a.MessageWorker.Start(ctx); err != nil {
		return fmt.Errorf("start message worker failed: %w", err)
	}

	core, err := NewCore(ctx, cfg, logger, redisCli)
	if err != nil {
		return err
	}
	a.Core = core

	a.Reply = app.NewReplyService(app.ReplyServiceConfig{
		Engine:       core.Engine,
		Sender:       core.WhatsApp,
		History:      cache.NewHistoryCache(redisCli, time.Duration(cfg.Redis.HistoryTTLSeconds)*time.Second),
		Publisher:    rabbitmqClient.NewMessagePublisher(mqConn, cfg.RabbitMQ.MessageLogQueue),
		SystemPrompt: cfg.LLM.SystemPrompt,
		Model:        cfg.LLM.ChatModel,
		Attribution:  cfg.WhatsApp.Attribution,
		Logger:       logger.With("component", "whatsapp"),
	})
	return nil
}

// HealthChecks lists the dependencies reported by /healthz.
func (a *App) HealthChecks() map[string]func(context.Context) error {
	return map[string]func(context.Context) error{
		"mysql": func(ctx context.Context) error {
			return mysqlClient.Ping(ctx, a.MySQL)
		},
		"redis": func(ctx context.Context) error {
			return redisClient.Ping(ctx, a.Redis)
		},
		"rabbitmq": func(context.Context) error {
			return rabbitmqClient.Check(a.MQConn)
		},
		"vector_index": func(ctx context.Context) error {
			ok, err := a.Store.HasIndex(ctx, a.Store.IndexName())
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("index %s does not exist", a.Store.IndexName())
			}
			return nil
		},
	}
}

func (a *App) Close() error {
	var closeErr error
	if a.MessageWorker != nil {
		a.MessageWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MySQL != nil {
		sqlDB, err := a.MySQL.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}

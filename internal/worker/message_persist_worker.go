package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"carching-assistant/internal/model"
	"carching-assistant/internal/platform/rabbitmq"
)

type MessageStore interface {
	Create(message *model.WhatsappMessage) error
}

// MessagePersistWorker drains the message log queue into MySQL.
type MessagePersistWorker struct {
	conn      *amqp.Connection
	store     MessageStore
	queueName string
	logger    *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewMessagePersistWorker(conn *amqp.Connection, store MessageStore, queueName string, logger *slog.Logger) *MessagePersistWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &MessagePersistWorker{
		conn:      conn,
		store:     store,
		queueName: queueName,
		logger:    logger,
	}
}

func (w *MessagePersistWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	if _, err := rabbitmq.DeclareQueue(ch, w.queueName); err != nil {
		_ = ch.Close()
		cancel()
		return err
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				if err := w.handle(d.Body); err != nil {
					w.logger.Warn("persist whatsapp message failed", "error", err)
					_ = d.Nack(false, false)
					continue
				}
				_ = d.Ack(false)
			}
		}
	}()

	return nil
}

func (w *MessagePersistWorker) handle(body []byte) error {
	var msg model.WhatsappMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("decode message failed: %w", err)
	}
	// Redelivered messages must not collide on the primary key.
	msg.ID = 0
	return w.store.Create(&msg)
}

func (w *MessagePersistWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}

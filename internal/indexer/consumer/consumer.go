// Package consumer applies record change events from Kafka to the live
// index, keeping it current between full rebuilds.
package consumer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/internal/record"
	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/pkg/kafka"
)

// Change operations carried by ChangeEvent.Op.
const (
	OpUpsert = "upsert"
	OpDelete = "delete"
)

// ChangeEvent is the payload on the record-changes topic. Upserts carry the
// full record; deletes only need ID.
type ChangeEvent struct {
	Op         string         `json:"op"`
	ID         string         `json:"id,omitempty"`
	Record     *record.Record `json:"record,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// Mutator is the part of the engine the consumer drives.
type Mutator interface {
	Update(r record.Record)
	Remove(id string)
}

type IndexConsumer struct {
	consumer *kafka.Consumer
	logger   *slog.Logger
}

func New(kafkaConsumer *kafka.Consumer) *IndexConsumer {
	return &IndexConsumer{
		consumer: kafkaConsumer,
		logger:   slog.Default().With("component", "index-consumer"),
	}
}

// Start blocks until ctx is cancelled.
func (ic *IndexConsumer) Start(ctx context.Context) error {
	ic.logger.Info("index consumer starting")
	return ic.consumer.Start(ctx)
}

// HandleMessage decodes change events and applies them to m. Undecodable or
// invalid events are logged and acknowledged so they do not block the
// partition.
func HandleMessage(m Mutator) kafka.MessageHandler {
	logger := slog.Default().With("component", "index-consumer")
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[ChangeEvent](value)
		if err != nil {
			logger.Error("failed to decode change event", "error", err, "key", string(key))
			return nil
		}
		switch event.Op {
		case OpUpsert:
			if event.Record == nil {
				logger.Warn("upsert without record, skipping", "key", string(key))
				return nil
			}
			if err := record.Validate(*event.Record); err != nil {
				logger.Warn("invalid record in change event, skipping", "id", event.Record.ID, "error", err)
				return nil
			}
			m.Update(*event.Record)
			logger.Debug("record upserted", "id", event.Record.ID)
		case OpDelete:
			id := event.ID
			if id == "" && event.Record != nil {
				id = event.Record.ID
			}
			if id == "" {
				logger.Warn("delete without id, skipping", "key", string(key))
				return nil
			}
			m.Remove(id)
			logger.Debug("record removed", "id", id)
		default:
			return fmt.Errorf("unknown change op %q", event.Op)
		}
		return nil
	}
}

// Upsert and Delete build events for publishers.
func Upsert(r record.Record) kafka.Event {
	return kafka.Event{Key: r.ID, Value: ChangeEvent{Op: OpUpsert, ID: r.ID, Record: &r, OccurredAt: time.Now().UTC()}}
}

func Delete(id string) kafka.Event {
	return kafka.Event{Key: id, Value: ChangeEvent{Op: OpDelete, ID: id, OccurredAt: time.Now().UTC()}}
}

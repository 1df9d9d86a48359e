// Package outbox relays audit events from the Postgres outbox to Kafka.
//
// The audit store only inserts into audit_outbox. The relay claims unpublished
// rows with FOR UPDATE SKIP LOCKED, produces them, then stamps published_at in
// the same transaction. A crash between produce and commit republishes the
// batch, so consumers see each event at least once and dedupe on the key.
package outbox

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"
)

const (
	defaultBatchSize = 100
	defaultInterval  = time.Second
	maxErrorLength   = 512
)

// Message is one outbox row ready for the broker. Key is the event id.
type Message struct {
	Key       []byte
	Value     []byte
	EventType string
	Category  string
}

// Producer delivers a batch durably or returns an error for the whole batch.
type Producer interface {
	Publish(ctx context.Context, msgs []Message) error
}

// Relay moves outbox rows to a Producer.
type Relay struct {
	db        *sql.DB
	producer  Producer
	logger    *slog.Logger
	metrics   *Metrics
	batchSize int
	interval  time.Duration
}

// Option configures the Relay.
type Option func(*Relay)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Relay) {
		r.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(r *Relay) {
		r.metrics = m
	}
}

func WithBatchSize(n int) Option {
	return func(r *Relay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

func WithInterval(d time.Duration) Option {
	return func(r *Relay) {
		if d > 0 {
			r.interval = d
		}
	}
}

func NewRelay(db *sql.DB, producer Producer, opts ...Option) *Relay {
	r := &Relay{
		db:        db,
		producer:  producer,
		logger:    slog.New(slog.DiscardHandler),
		batchSize: defaultBatchSize,
		interval:  defaultInterval,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run polls until ctx is cancelled. A full batch triggers an immediate
// follow-up poll; errors are logged and retried on the next tick.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		n, err := r.PublishBatch(ctx)
		if err != nil && ctx.Err() == nil {
			r.logger.ErrorContext(ctx, "audit outbox relay failed",
				"log_type", "audit",
				"error", err,
			)
		}
		if err == nil && n == r.batchSize {
			continue
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// PublishBatch relays one batch and reports how many rows were published.
func (r *Relay) PublishBatch(ctx context.Context) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin outbox tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
		SELECT id, event_type, category, payload
		FROM audit_outbox
		WHERE published_at IS NULL
		ORDER BY created_at ASC
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`
	rows, err := tx.QueryContext(ctx, query, r.batchSize)
	if err != nil {
		return 0, fmt.Errorf("claim outbox rows: %w", err)
	}

	var (
		ids  []string
		msgs []Message
	)
	for rows.Next() {
		var (
			rowID string
			msg   Message
		)
		if err := rows.Scan(&rowID, &msg.EventType, &msg.Category, &msg.Value); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scan outbox row: %w", err)
		}
		msg.Key = []byte(rowID)
		ids = append(ids, rowID)
		msgs = append(msgs, msg)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, fmt.Errorf("iterate outbox rows: %w", err)
	}
	rows.Close()

	if len(msgs) == 0 {
		return 0, tx.Commit()
	}

	if pubErr := r.producer.Publish(ctx, msgs); pubErr != nil {
		if r.metrics != nil {
			r.metrics.PublishFailures.Add(float64(len(msgs)))
		}
		_, err := tx.ExecContext(ctx, `
			UPDATE audit_outbox
			SET attempts = attempts + 1, last_error = $2
			WHERE id = ANY($1::uuid[])
		`, pq.Array(ids), truncate(pubErr.Error(), maxErrorLength))
		if err != nil {
			return 0, fmt.Errorf("record outbox failure: %w (publish: %v)", err, pubErr)
		}
		if err := tx.Commit(); err != nil {
			return 0, fmt.Errorf("commit outbox failure: %w", err)
		}
		return 0, fmt.Errorf("publish outbox batch: %w", pubErr)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE audit_outbox
		SET published_at = NOW(), attempts = attempts + 1, last_error = NULL
		WHERE id = ANY($1::uuid[])
	`, pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("mark outbox published: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit outbox batch: %w", err)
	}

	if r.metrics != nil {
		r.metrics.Published.Add(float64(len(msgs)))
	}
	r.logger.DebugContext(ctx, "audit outbox batch published", "count", len(msgs))
	return len(msgs), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	id "trustplane/pkg/domain"
	audit "trustplane/pkg/platform/audit"
)

// Store implements audit.Store using the transactional outbox pattern.
// Events land in audit_outbox and the outbox relay publishes them to Kafka.
//
// Appends always use the pool, never a caller transaction: a failed audit
// insert must not poison the business transaction it describes.
type Store struct {
	db *sql.DB
}

// New creates a PostgreSQL audit store that writes to the outbox.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Payload is the JSON document stored in the outbox and published to Kafka.
type Payload struct {
	ID         string         `json:"id"`
	Category   string         `json:"category"`
	Type       string         `json:"type"`
	ActorID    string         `json:"actor_id,omitempty"`
	SubjectID  string         `json:"subject_id,omitempty"`
	Action     string         `json:"action"`
	Success    bool           `json:"success"`
	Details    map[string]any `json:"details,omitempty"`
	IP         string         `json:"ip,omitempty"`
	UserAgent  string         `json:"user_agent,omitempty"`
	RequestID  string         `json:"request_id,omitempty"`
	OccurredAt string         `json:"occurred_at"`
}

// NewPayload converts an event into its wire form.
func NewPayload(eventID uuid.UUID, event audit.Event) Payload {
	p := Payload{
		ID:         eventID.String(),
		Category:   string(event.Category()),
		Type:       string(event.Type),
		ActorID:    event.ActorID,
		Action:     event.Action,
		Success:    event.Success,
		Details:    event.Details,
		IP:         event.IP,
		UserAgent:  event.UserAgent,
		RequestID:  event.RequestID,
		OccurredAt: event.OccurredAt.UTC().Format(time.RFC3339Nano),
	}
	if !event.SubjectID.IsNil() {
		p.SubjectID = event.SubjectID.String()
	}
	return p
}

// Event converts the wire form back into an audit event.
func (p Payload) Event() audit.Event {
	e := audit.Event{
		ActorID:   p.ActorID,
		Type:      audit.EventType(p.Type),
		Action:    p.Action,
		Success:   p.Success,
		Details:   p.Details,
		IP:        p.IP,
		UserAgent: p.UserAgent,
		RequestID: p.RequestID,
	}
	if ts, err := time.Parse(time.RFC3339Nano, p.OccurredAt); err == nil {
		e.OccurredAt = ts
	}
	if sid, err := uuid.Parse(p.SubjectID); err == nil {
		e.SubjectID = id.SubjectID(sid)
	}
	return e
}

// Append writes an audit event to the outbox table.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	eventID := uuid.New()
	payload, err := json.Marshal(NewPayload(eventID, event))
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	var subjectID *uuid.UUID
	if !event.SubjectID.IsNil() {
		sid := uuid.UUID(event.SubjectID)
		subjectID = &sid
	}

	query := `
		INSERT INTO audit_outbox (id, category, event_type, subject_id, actor_id, payload, occurred_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
	`
	_, err = s.db.ExecContext(ctx, query,
		eventID,
		string(event.Category()),
		string(event.Type),
		subjectID,
		event.ActorID,
		payload,
		event.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

// ListBySubject returns events for a subject, most recent first.
func (s *Store) ListBySubject(ctx context.Context, subjectID id.SubjectID, limit int) ([]audit.Event, error) {
	query := `
		SELECT payload FROM audit_outbox
		WHERE subject_id = $1
		ORDER BY occurred_at DESC
		LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(subjectID), normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()
	return scanPayloads(rows)
}

// ListRecent returns the N most recent events.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	query := `
		SELECT payload FROM audit_outbox
		ORDER BY occurred_at DESC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()
	return scanPayloads(rows)
}

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > 1000 {
		return 1000
	}
	return limit
}

func scanPayloads(rows *sql.Rows) ([]audit.Event, error) {
	var events []audit.Event
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		var p Payload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode audit payload: %w", err)
		}
		events = append(events, p.Event())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}

// Package publisher records audit events with log-and-continue semantics.
//
// Record never returns an error: a failing sink is logged and counted, and the
// business operation being audited carries on. Sync mode (default) writes in
// the caller's goroutine; WithAsyncBuffer hands events to a background writer
// that Close drains.
package publisher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	id "trustplane/pkg/domain"
	audit "trustplane/pkg/platform/audit"
	"trustplane/pkg/platform/clock"
	"trustplane/pkg/requestcontext"
)

type queued struct {
	ctx   context.Context
	event audit.Event
}

// Publisher implements audit.Recorder on top of an audit.Store.
type Publisher struct {
	store   audit.Store
	logger  *slog.Logger
	metrics *Metrics
	clock   clock.Clock

	mu     sync.RWMutex
	closed bool
	buffer chan queued
	wg     sync.WaitGroup
}

// Option configures the Publisher.
type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) {
		p.metrics = m
	}
}

func WithClock(c clock.Clock) Option {
	return func(p *Publisher) {
		if c != nil {
			p.clock = c
		}
	}
}

// WithAsyncBuffer enables background persistence with a bounded queue.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		if size > 0 {
			p.buffer = make(chan queued, size)
		}
	}
}

func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{
		store:  store,
		logger: slog.New(slog.DiscardHandler),
		clock:  clock.System,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.buffer != nil {
		p.wg.Add(1)
		go p.drain()
	}
	return p
}

// Record validates, enriches and persists an event. It never fails the caller.
func (p *Publisher) Record(ctx context.Context, event audit.Event) {
	event = p.enrich(ctx, event)
	if err := event.Validate(); err != nil {
		p.logger.ErrorContext(ctx, "audit event rejected",
			"event_type", string(event.Type),
			"action", event.Action,
			"error", err,
		)
		if p.metrics != nil {
			p.metrics.Rejected.Inc()
		}
		return
	}

	p.mu.RLock()
	if p.buffer != nil && !p.closed {
		select {
		case p.buffer <- queued{ctx: context.WithoutCancel(ctx), event: event}:
			p.mu.RUnlock()
			return
		default:
			p.mu.RUnlock()
			p.logger.ErrorContext(ctx, "audit buffer full, event dropped",
				"event_type", string(event.Type),
				"action", event.Action,
				"subject_id", subjectAttr(event.SubjectID),
			)
			if p.metrics != nil {
				p.metrics.Dropped.Inc()
			}
			return
		}
	}
	p.mu.RUnlock()

	p.persist(ctx, event)
}

// List returns a subject's events when the store supports reads.
func (p *Publisher) List(ctx context.Context, subjectID id.SubjectID, limit int) ([]audit.Event, error) {
	reader, ok := p.store.(audit.Reader)
	if !ok {
		return nil, nil
	}
	return reader.ListBySubject(ctx, subjectID, limit)
}

// Recent returns the latest events when the store supports reads.
func (p *Publisher) Recent(ctx context.Context, limit int) ([]audit.Event, error) {
	reader, ok := p.store.(audit.Reader)
	if !ok {
		return nil, nil
	}
	return reader.ListRecent(ctx, limit)
}

// Close stops accepting async events and drains the buffer. Events recorded
// after Close are written synchronously.
func (p *Publisher) Close() error {
	p.mu.Lock()
	if p.closed || p.buffer == nil {
		p.closed = true
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.buffer)
	p.mu.Unlock()

	p.wg.Wait()
	return nil
}

func (p *Publisher) drain() {
	defer p.wg.Done()
	for q := range p.buffer {
		p.persist(q.ctx, q.event)
	}
}

func (p *Publisher) persist(ctx context.Context, event audit.Event) {
	start := time.Now()
	category := string(event.Category())
	if err := p.store.Append(ctx, event); err != nil {
		p.logger.ErrorContext(ctx, "audit persistence failed",
			"event_type", string(event.Type),
			"category", category,
			"action", event.Action,
			"subject_id", subjectAttr(event.SubjectID),
			"request_id", event.RequestID,
			"error", err,
		)
		if p.metrics != nil {
			p.metrics.PersistFailures.WithLabelValues(category).Inc()
		}
		return
	}
	if p.metrics != nil {
		p.metrics.Recorded.WithLabelValues(category).Inc()
		p.metrics.PersistDuration.Observe(time.Since(start).Seconds())
	}
}

func (p *Publisher) enrich(ctx context.Context, event audit.Event) audit.Event {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = p.clock()
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if event.IP == "" {
		event.IP = requestcontext.ClientIP(ctx)
	}
	if event.UserAgent == "" {
		event.UserAgent = requestcontext.UserAgent(ctx)
	}
	if event.ActorID == "" {
		event.ActorID = requestcontext.ActorID(ctx)
	}
	if event.Details == nil {
		event.Details = map[string]any{}
	}
	if summary := requestcontext.DeviceSummary(ctx); summary != "" {
		if _, ok := event.Details["device"]; !ok {
			details := make(map[string]any, len(event.Details)+1)
			for k, v := range event.Details {
				details[k] = v
			}
			details["device"] = summary
			event.Details = details
		}
	}
	return event
}

func subjectAttr(subjectID id.SubjectID) string {
	if subjectID.IsNil() {
		return ""
	}
	return subjectID.String()
}

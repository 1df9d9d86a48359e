// Package service evaluates checkout transactions: it loads subject signals,
// scores them and audits every REVIEW or BLOCK outcome.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"trustplane/internal/risk"
	"trustplane/internal/risk/metrics"
	id "trustplane/pkg/domain"
	dErrors "trustplane/pkg/domain-errors"
	audit "trustplane/pkg/platform/audit"
	"trustplane/pkg/platform/clock"
	"trustplane/pkg/requestcontext"
)

// SignalsStore reads subject state for one evaluation in a single query.
type SignalsStore interface {
	LoadSignals(ctx context.Context, subjectID id.SubjectID, now time.Time) (risk.Signals, error)
}

// AuditRecorder receives fraud decisions. Record never fails the caller.
type AuditRecorder interface {
	Record(ctx context.Context, event audit.Event)
}

var tracer = otel.Tracer("trustplane/internal/risk")

// Service wraps the pure engine with signal loading and auditing.
type Service struct {
	signals SignalsStore
	engine  *risk.Engine
	auditor AuditRecorder
	logger  *slog.Logger
	metrics *metrics.Metrics
	clock   clock.Clock
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditRecorder(r AuditRecorder) Option {
	return func(s *Service) {
		s.auditor = r
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithClock(c clock.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

func New(signals SignalsStore, engine *risk.Engine, opts ...Option) (*Service, error) {
	if signals == nil {
		return nil, errors.New("signals store is required")
	}
	if engine == nil {
		return nil, errors.New("risk engine is required")
	}
	s := &Service{
		signals: signals,
		engine:  engine,
		logger:  slog.New(slog.DiscardHandler),
		clock:   clock.System,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Evaluate scores a checkout. A store failure is returned to the caller;
// checkout treats that as a failed evaluation and must not proceed.
func (s *Service) Evaluate(ctx context.Context, req risk.TransactionRequest) (risk.RiskScore, error) {
	ctx, span := tracer.Start(ctx, "risk.Evaluate")
	defer span.End()
	start := time.Now()

	if req.Amount < 0 {
		return risk.RiskScore{}, dErrors.New(dErrors.CodeValidation, "amount must not be negative")
	}

	signals, err := s.signals.LoadSignals(ctx, req.SubjectID, s.clock())
	if err != nil {
		span.RecordError(err)
		return risk.RiskScore{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load risk signals")
	}

	tc := risk.NewTransactionContext(req, signals)
	tc.IP = requestcontext.ClientIP(ctx)
	tc.UserAgent = requestcontext.UserAgent(ctx)
	tc.DeviceFingerprint = requestcontext.DeviceFingerprint(ctx)

	score := s.engine.Score(tc)
	span.SetAttributes(
		attribute.Int("risk.score", score.Value),
		attribute.String("risk.action", string(score.Action)),
	)
	s.metrics.ObserveDecision(string(score.Action), string(score.Tier), score.Value)
	s.metrics.ObserveEvaluateLatency(time.Since(start))

	if score.Action != risk.ActionAllow {
		s.logAudit(ctx, "fraud_decision",
			"subject_id", req.SubjectID.String(),
			"score", score.Value,
			"tier", string(score.Tier),
			"action", string(score.Action),
			"reasons", score.Reasons,
		)
		if s.auditor != nil {
			s.auditor.Record(ctx, audit.FraudDecision(req.SubjectID, score.Value, string(score.Tier), string(score.Action), score.Reasons))
		}
	}
	return score, nil
}

// ShouldBlock evaluates and reports whether the transaction must be refused.
// It fails closed when the evaluation itself fails.
func (s *Service) ShouldBlock(ctx context.Context, req risk.TransactionRequest) (bool, error) {
	score, err := s.Evaluate(ctx, req)
	if err != nil {
		return true, err
	}
	return score.Action == risk.ActionBlock, nil
}

func (s *Service) logAudit(ctx context.Context, event string, attributes ...any) {
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", event, "log_type", "audit")
	s.logger.InfoContext(ctx, event, args...)
}

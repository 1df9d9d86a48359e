// Package service implements the credential lifecycle: issue, verify,
// revoke and list opaque API keys.
package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"trustplane/internal/credential/metrics"
	"trustplane/internal/credential/models"
	"trustplane/internal/credential/secrets"
	"trustplane/internal/credential/store"
	id "trustplane/pkg/domain"
	dErrors "trustplane/pkg/domain-errors"
	audit "trustplane/pkg/platform/audit"
	"trustplane/pkg/platform/clock"
	"trustplane/pkg/requestcontext"
)

// Store is the credential persistence port.
type Store interface {
	Create(ctx context.Context, cred *models.Credential) error
	FindActiveByHash(ctx context.Context, hashedSecret string, now time.Time) (*models.Credential, error)
	FindByID(ctx context.Context, credID id.CredentialID) (*models.Credential, error)
	ListByOwner(ctx context.Context, owner id.SubjectID) ([]*models.Credential, error)
	Revoke(ctx context.Context, credID id.CredentialID, at time.Time) (*models.Credential, bool, error)
	TouchLastUsed(ctx context.Context, credID id.CredentialID, at time.Time) error
}

// OwnerDirectory reports whether a subject may own credentials.
type OwnerDirectory interface {
	SubjectExists(ctx context.Context, subjectID id.SubjectID) (bool, error)
}

// TouchThrottle decides whether a lastUsedAt write is due.
type TouchThrottle interface {
	Allow(ctx context.Context, credID id.CredentialID) bool
}

// AuditRecorder receives lifecycle events. Record never fails the caller.
type AuditRecorder interface {
	Record(ctx context.Context, event audit.Event)
}

// Config carries the secret shape and the server-side salt.
type Config struct {
	Prefix   string
	Length   int
	HashSalt string
}

func (c Config) secrets() secrets.Config {
	return secrets.Config{Prefix: c.Prefix, Length: c.Length}
}

var (
	errNotFound      = dErrors.New(dErrors.CodeNotFound, "credential not found")
	errOwnerNotFound = dErrors.New(dErrors.CodeNotFound, "owner not found")
)

var tracer = otel.Tracer("trustplane/internal/credential")

// Service manages API keys.
type Service struct {
	store    Store
	cfg      Config
	throttle TouchThrottle
	owners   OwnerDirectory
	auditor  AuditRecorder
	logger   *slog.Logger
	metrics  *metrics.Metrics
	clock    clock.Clock
	random   io.Reader
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

func WithTouchThrottle(t TouchThrottle) Option {
	return func(s *Service) {
		s.throttle = t
	}
}

// WithOwnerDirectory rejects credentials for subjects that do not exist,
// including erased ones.
func WithOwnerDirectory(d OwnerDirectory) Option {
	return func(s *Service) {
		s.owners = d
	}
}

func WithClock(c clock.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithRandom replaces crypto/rand as the secret entropy source.
func WithRandom(r io.Reader) Option {
	return func(s *Service) {
		s.random = r
	}
}

func New(st Store, cfg Config, opts ...Option) (*Service, error) {
	if st == nil {
		return nil, errors.New("credential store is required")
	}
	if cfg.HashSalt == "" {
		return nil, errors.New("credential hash salt is required")
	}
	if cfg.Prefix == "" || cfg.Length <= 0 {
		return nil, errors.New("credential prefix and length are required")
	}
	s := &Service{
		store:  st,
		cfg:    cfg,
		logger: slog.New(slog.DiscardHandler),
		clock:  clock.System,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Create issues a credential and returns the plaintext secret exactly once.
func (s *Service) Create(ctx context.Context, req models.CreateRequest) (*models.Credential, string, error) {
	ctx, span := tracer.Start(ctx, "credential.Create")
	defer span.End()

	now := s.clock()
	req.Normalize()
	if err := req.Validate(now); err != nil {
		return nil, "", err
	}
	if s.owners != nil {
		exists, err := s.owners.SubjectExists(ctx, req.OwnerID)
		if err != nil {
			span.RecordError(err)
			return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up owner")
		}
		if !exists {
			return nil, "", errOwnerNotFound
		}
	}

	plaintext, err := secrets.Generate(s.cfg.secrets(), s.random)
	if err != nil {
		return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate secret")
	}

	cred := &models.Credential{
		ID:           id.CredentialID(uuid.New()),
		OwnerID:      req.OwnerID,
		Name:         req.Name,
		Description:  req.Description,
		HashedSecret: secrets.Hash(plaintext, s.cfg.HashSalt),
		CreatedAt:    now,
		UpdatedAt:    now,
		ExpiresAt:    req.ExpiresAt,
	}
	if err := s.store.Create(ctx, cred); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, "", errOwnerNotFound
		}
		span.RecordError(err)
		return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to create credential")
	}
	span.SetAttributes(attribute.String("credential.id", cred.ID.String()))

	actorID := requestcontext.ActorID(ctx)
	s.logAudit(ctx, "credential_created",
		"credential_id", cred.ID.String(),
		"owner_id", cred.OwnerID.String(),
		"actor_id", actorID,
	)
	s.record(ctx, audit.CredentialCreated(actorID, cred.OwnerID, cred.ID, cred.Name, cred.ExpiresAt))
	if s.metrics != nil {
		s.metrics.Created.Inc()
	}
	return cred, plaintext, nil
}

// Verify returns the active credential matching candidate. Unknown, expired,
// revoked and malformed candidates all yield the same not-found error.
func (s *Service) Verify(ctx context.Context, candidate string) (*models.Credential, error) {
	ctx, span := tracer.Start(ctx, "credential.Verify")
	defer span.End()

	start := time.Now()
	now := s.clock()

	if !secrets.HasPrefix(s.cfg.secrets(), candidate) {
		s.observeVerify(start, false)
		return nil, errNotFound
	}

	cred, err := s.store.FindActiveByHash(ctx, secrets.Hash(candidate, s.cfg.HashSalt), now)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.observeVerify(start, false)
			return nil, errNotFound
		}
		span.RecordError(err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to verify credential")
	}
	s.observeVerify(start, true)
	span.SetAttributes(attribute.String("credential.id", cred.ID.String()))

	s.touch(ctx, cred, now)
	return cred, nil
}

// Authenticate adapts Verify for the API key middleware.
func (s *Service) Authenticate(ctx context.Context, key string) (id.SubjectID, error) {
	cred, err := s.Verify(ctx, key)
	if err != nil {
		return id.SubjectID{}, err
	}
	return cred.OwnerID, nil
}

// Revoke moves a credential to revoked. Repeated calls return the stored
// record and emit no further audit events.
func (s *Service) Revoke(ctx context.Context, credID id.CredentialID, actorID string) (*models.Credential, error) {
	ctx, span := tracer.Start(ctx, "credential.Revoke", trace.WithAttributes(
		attribute.String("credential.id", credID.String()),
	))
	defer span.End()

	cred, transitioned, err := s.store.Revoke(ctx, credID, s.clock())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errNotFound
		}
		span.RecordError(err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke credential")
	}
	if !transitioned {
		return cred, nil
	}

	s.logAudit(ctx, "credential_revoked",
		"credential_id", cred.ID.String(),
		"owner_id", cred.OwnerID.String(),
		"actor_id", actorID,
	)
	s.record(ctx, audit.CredentialRevoked(actorID, cred.OwnerID, cred.ID, cred.Name))
	if s.metrics != nil {
		s.metrics.Revoked.Inc()
	}
	return cred, nil
}

// List returns an owner's credentials, newest first.
func (s *Service) List(ctx context.Context, owner id.SubjectID) ([]*models.Credential, error) {
	if owner.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "owner_id is required")
	}
	creds, err := s.store.ListByOwner(ctx, owner)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list credentials")
	}
	return creds, nil
}

// Now exposes the service clock to handlers rendering status.
func (s *Service) Now() time.Time {
	return s.clock()
}

func (s *Service) touch(ctx context.Context, cred *models.Credential, now time.Time) {
	if s.throttle != nil && !s.throttle.Allow(ctx, cred.ID) {
		return
	}
	if err := s.store.TouchLastUsed(ctx, cred.ID, now); err != nil {
		s.logger.WarnContext(ctx, "failed to update credential last use",
			"credential_id", cred.ID.String(),
			"error", err,
		)
		if s.metrics != nil {
			s.metrics.TouchFailures.Inc()
		}
		return
	}
	used := now
	cred.LastUsedAt = &used
}

func (s *Service) observeVerify(start time.Time, hit bool) {
	if s.metrics != nil {
		s.metrics.ObserveVerify(start, hit)
	}
}

func (s *Service) record(ctx context.Context, event audit.Event) {
	if s.auditor != nil {
		s.auditor.Record(ctx, event)
	}
}

func (s *Service) logAudit(ctx context.Context, event string, attributes ...any) {
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", event, "log_type", "audit")
	s.logger.InfoContext(ctx, event, args...)
}

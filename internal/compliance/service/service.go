// Package service implements the data-subject lifecycle: export, erasure
// and consent preferences.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"trustplane/internal/compliance/metrics"
	"trustplane/internal/compliance/models"
	"trustplane/internal/compliance/store"
	credmodels "trustplane/internal/credential/models"
	id "trustplane/pkg/domain"
	dErrors "trustplane/pkg/domain-errors"
	audit "trustplane/pkg/platform/audit"
	"trustplane/pkg/platform/clock"
	"trustplane/pkg/requestcontext"
)

// Store is the subject data persistence port.
type Store interface {
	LoadBundle(ctx context.Context, subjectID id.SubjectID) (*models.DataBundle, error)
	Anonymize(ctx context.Context, subjectID id.SubjectID, tombstone string) (models.EraseCounts, error)
	Purge(ctx context.Context, subjectID id.SubjectID) (models.EraseCounts, error)
	GetConsent(ctx context.Context, subjectID id.SubjectID) (*models.ConsentPreferences, error)
	SaveConsent(ctx context.Context, subjectID id.SubjectID, prefs models.ConsentPreferences) error
}

// TxRunner scopes a unit of work to one transaction.
type TxRunner interface {
	RunInTx(ctx context.Context, mode store.TxMode, fn func(ctx context.Context) error) error
}

// CredentialStore is the slice of the credential store erasure and export
// need. Implementations must join the transaction carried in ctx.
type CredentialStore interface {
	ListByOwner(ctx context.Context, owner id.SubjectID) ([]*credmodels.Credential, error)
	RevokeAllForOwner(ctx context.Context, owner id.SubjectID, at time.Time) (int, error)
}

// AuditRecorder receives lifecycle events. Record never fails the caller.
type AuditRecorder interface {
	Record(ctx context.Context, event audit.Event)
}

// Config carries the consent validity window.
type Config struct {
	ConsentTTL time.Duration
}

var errSubjectNotFound = dErrors.New(dErrors.CodeNotFound, "subject not found")

var tracer = otel.Tracer("trustplane/internal/compliance")

type Service struct {
	store       Store
	tx          TxRunner
	credentials CredentialStore
	cfg         Config
	auditor     AuditRecorder
	logger      *slog.Logger
	metrics     *metrics.Metrics
	clock       clock.Clock
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

func New(st Store, tx TxRunner, credentials CredentialStore, cfg Config, opts ...Option) (*Service, error) {
	if st == nil {
		return nil, errors.New("compliance store is required")
	}
	if tx == nil {
		return nil, errors.New("transaction runner is required")
	}
	if credentials == nil {
		return nil, errors.New("credential store is required")
	}
	if cfg.ConsentTTL <= 0 {
		cfg.ConsentTTL = models.DefaultConsentTTL
	}
	s := &Service{
		store:       st,
		tx:          tx,
		credentials: credentials,
		cfg:         cfg,
		logger:      slog.New(slog.DiscardHandler),
		clock:       clock.System,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Export reads every owned row in one read-only snapshot. Digests and
// password hashes are never part of the bundle.
func (s *Service) Export(ctx context.Context, subjectID id.SubjectID) (*models.DataBundle, error) {
	ctx, span := tracer.Start(ctx, "compliance.Export", trace.WithAttributes(
		attribute.String("subject.id", subjectID.String()),
	))
	defer span.End()

	var bundle *models.DataBundle
	err := s.tx.RunInTx(ctx, store.TxSnapshot, func(ctx context.Context) error {
		b, err := s.store.LoadBundle(ctx, subjectID)
		if err != nil {
			return err
		}
		creds, err := s.credentials.ListByOwner(ctx, subjectID)
		if err != nil {
			return err
		}
		b.Credentials = summarize(creds)
		bundle = b
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errSubjectNotFound
		}
		span.RecordError(err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to export subject data")
	}
	bundle.ExportedAt = s.clock()

	actorID := requestcontext.ActorID(ctx)
	s.logAudit(ctx, "data_exported",
		"subject_id", subjectID.String(),
		"actor_id", actorID,
	)
	s.record(ctx, audit.DataExported(actorID, subjectID))
	s.metrics.IncExport()
	return bundle, nil
}

// Erase removes a subject in one transaction and revokes every credential it
// owns. Both modes are terminal.
func (s *Service) Erase(ctx context.Context, subjectID id.SubjectID, mode models.EraseMode) (models.EraseCounts, error) {
	ctx, span := tracer.Start(ctx, "compliance.Erase", trace.WithAttributes(
		attribute.String("subject.id", subjectID.String()),
		attribute.String("erase.mode", string(mode)),
	))
	defer span.End()

	if mode != models.EraseAnonymize && mode != models.ErasePurge {
		return models.EraseCounts{}, dErrors.New(dErrors.CodeValidation, "mode must be anonymize or purge")
	}

	now := s.clock()
	var counts models.EraseCounts
	err := s.tx.RunInTx(ctx, store.TxReadWrite, func(ctx context.Context) error {
		var err error
		switch mode {
		case models.EraseAnonymize:
			counts, err = s.store.Anonymize(ctx, subjectID, models.Tombstone(now))
		case models.ErasePurge:
			counts, err = s.store.Purge(ctx, subjectID)
		}
		if err != nil {
			return err
		}
		counts.Credentials, err = s.credentials.RevokeAllForOwner(ctx, subjectID, now)
		return err
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.EraseCounts{}, errSubjectNotFound
		}
		span.RecordError(err)
		return models.EraseCounts{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to erase subject data")
	}

	actorID := requestcontext.ActorID(ctx)
	s.logAudit(ctx, "data_deleted",
		"subject_id", subjectID.String(),
		"actor_id", actorID,
		"mode", string(mode),
		"credentials_revoked", counts.Credentials,
	)
	s.record(ctx, audit.DataDeleted(actorID, subjectID, string(mode), counts.Details()))
	s.metrics.IncErasure(string(mode))
	return counts, nil
}

// ConsentStatus returns the stored preferences and whether the subject must
// be asked again. Expired preferences are reported as absent.
func (s *Service) ConsentStatus(ctx context.Context, subjectID id.SubjectID) (*models.ConsentStatus, error) {
	prefs, err := s.store.GetConsent(ctx, subjectID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errSubjectNotFound
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load consent")
	}
	if s.IsConsentRequired(prefs) {
		return &models.ConsentStatus{Required: true}, nil
	}
	return &models.ConsentStatus{Preferences: prefs}, nil
}

// UpdateConsent records new preferences. Necessary processing is always on.
func (s *Service) UpdateConsent(ctx context.Context, subjectID id.SubjectID, update models.ConsentUpdate) (*models.ConsentPreferences, error) {
	prefs := models.ConsentPreferences{
		Necessary:    true,
		Analytics:    update.Analytics,
		Marketing:    update.Marketing,
		Cookies:      update.Cookies,
		ConsentSetAt: s.clock(),
	}
	if err := s.store.SaveConsent(ctx, subjectID, prefs); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errSubjectNotFound
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save consent")
	}

	s.logAudit(ctx, "consent_updated",
		"subject_id", subjectID.String(),
		"analytics", prefs.Analytics,
		"marketing", prefs.Marketing,
		"cookies", prefs.Cookies,
	)
	s.record(ctx, audit.ConsentUpdated(requestcontext.ActorID(ctx), subjectID, prefs.Analytics, prefs.Marketing, prefs.Cookies))
	s.metrics.IncConsentUpdate()
	return &prefs, nil
}

// IsConsentRequired applies the configured TTL at the service clock.
func (s *Service) IsConsentRequired(prefs *models.ConsentPreferences) bool {
	return models.IsConsentRequired(prefs, s.clock(), s.cfg.ConsentTTL)
}

func summarize(creds []*credmodels.Credential) []models.CredentialSummary {
	out := make([]models.CredentialSummary, 0, len(creds))
	for _, c := range creds {
		out = append(out, models.CredentialSummary{
			ID:          c.ID,
			Name:        c.Name,
			Description: c.Description,
			CreatedAt:   c.CreatedAt,
			ExpiresAt:   c.ExpiresAt,
			LastUsedAt:  c.LastUsedAt,
			RevokedAt:   c.RevokedAt,
		})
	}
	return out
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

package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store,TxRunner,CredentialStore,AuditRecorder

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"trustplane/internal/compliance/metrics"
	"trustplane/internal/compliance/models"
	"trustplane/internal/compliance/service/mocks"
	"trustplane/internal/compliance/store"
	credmodels "trustplane/internal/credential/models"
	id "trustplane/pkg/domain"
	dErrors "trustplane/pkg/domain-errors"
	audit "trustplane/pkg/platform/audit"
	"trustplane/pkg/platform/clock"
	"trustplane/pkg/requestcontext"
)

// =============================================================================
// Compliance Service Test Suite
// =============================================================================
// The transaction runner is mocked to run the callback inline so each test can
// assert which mode a request asked for and which steps ran inside it.

type ServiceSuite struct {
	suite.Suite
	ctrl        *gomock.Controller
	store       *mocks.MockStore
	tx          *mocks.MockTxRunner
	credentials *mocks.MockCredentialStore
	auditor     *mocks.MockAuditRecorder
	metrics     *metrics.Metrics
	now         time.Time
	subject     id.SubjectID
	service     *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.store = mocks.NewMockStore(s.ctrl)
	s.tx = mocks.NewMockTxRunner(s.ctrl)
	s.credentials = mocks.NewMockCredentialStore(s.ctrl)
	s.auditor = mocks.NewMockAuditRecorder(s.ctrl)
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.now = time.Date(2026, 5, 11, 14, 30, 0, 0, time.UTC)
	s.subject = id.SubjectID(uuid.New())

	var err error
	s.service, err = New(s.store, s.tx, s.credentials, Config{},
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithAuditRecorder(s.auditor),
		WithMetrics(s.metrics),
		WithClock(clock.Fixed(s.now)),
	)
	s.Require().NoError(err)
}

func (s *ServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

// expectTx runs the callback inline under the given mode.
func (s *ServiceSuite) expectTx(mode store.TxMode) {
	s.tx.EXPECT().RunInTx(gomock.Any(), mode, gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ store.TxMode, fn func(context.Context) error) error {
			return fn(ctx)
		})
}

func (s *ServiceSuite) TestNew() {
	s.Run("nil dependencies return errors", func() {
		_, err := New(nil, s.tx, s.credentials, Config{})
		s.ErrorContains(err, "store is required")
		_, err = New(s.store, nil, s.credentials, Config{})
		s.ErrorContains(err, "transaction runner is required")
		_, err = New(s.store, s.tx, nil, Config{})
		s.ErrorContains(err, "credential store is required")
	})

	s.Run("zero ttl falls back to the default", func() {
		svc, err := New(s.store, s.tx, s.credentials, Config{})
		s.Require().NoError(err)
		s.Equal(models.DefaultConsentTTL, svc.cfg.ConsentTTL)
	})
}

// =============================================================================
// Export
// =============================================================================

func (s *ServiceSuite) TestExport() {
	s.Run("bundles subject rows and credential metadata in a snapshot", func() {
		digest := "9f86d081884c7d659a2feaa0c55ad015"
		cred := &credmodels.Credential{
			ID:           id.CredentialID(uuid.New()),
			OwnerID:      s.subject,
			Name:         "nightly export",
			HashedSecret: digest,
			CreatedAt:    s.now.Add(-time.Hour),
		}
		s.expectTx(store.TxSnapshot)
		s.store.EXPECT().LoadBundle(gomock.Any(), s.subject).Return(&models.DataBundle{
			Subject: models.Profile{ID: s.subject, Email: "ada@example.com"},
		}, nil)
		s.credentials.EXPECT().ListByOwner(gomock.Any(), s.subject).Return([]*credmodels.Credential{cred}, nil)
		var event audit.Event
		s.auditor.EXPECT().Record(gomock.Any(), gomock.Any()).Do(
			func(_ context.Context, e audit.Event) { event = e })

		ctx := requestcontext.WithActorID(context.Background(), "ops-alice")
		bundle, err := s.service.Export(ctx, s.subject)
		s.Require().NoError(err)

		s.Equal(s.now, bundle.ExportedAt)
		s.Require().Len(bundle.Credentials, 1)
		s.Equal(cred.ID, bundle.Credentials[0].ID)
		s.Equal("nightly export", bundle.Credentials[0].Name)

		s.Equal(audit.EventDataExport, event.Type)
		s.Equal("ops-alice", event.ActorID)
		s.Equal(s.subject, event.SubjectID)
		s.Equal(float64(1), testutil.ToFloat64(s.metrics.Exports))
	})

	s.Run("unknown subject is not found", func() {
		s.expectTx(store.TxSnapshot)
		s.store.EXPECT().LoadBundle(gomock.Any(), s.subject).Return(nil, store.ErrNotFound)

		_, err := s.service.Export(context.Background(), s.subject)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
		s.Equal("subject not found", dErrors.MessageOf(err))
	})

	s.Run("credential lookup failure is internal", func() {
		cause := errors.New("connection reset")
		s.expectTx(store.TxSnapshot)
		s.store.EXPECT().LoadBundle(gomock.Any(), s.subject).Return(&models.DataBundle{}, nil)
		s.credentials.EXPECT().ListByOwner(gomock.Any(), s.subject).Return(nil, cause)

		_, err := s.service.Export(context.Background(), s.subject)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
		s.ErrorIs(err, cause)
	})
}

// =============================================================================
// Erase
// =============================================================================

func (s *ServiceSuite) TestErase() {
	s.Run("anonymize tombstones and revokes credentials in one transaction", func() {
		s.expectTx(store.TxReadWrite)
		s.store.EXPECT().Anonymize(gomock.Any(), s.subject, models.Tombstone(s.now)).
			Return(models.EraseCounts{Orders: 2, Reviews: 1}, nil)
		s.credentials.EXPECT().RevokeAllForOwner(gomock.Any(), s.subject, s.now).Return(3, nil)
		var event audit.Event
		s.auditor.EXPECT().Record(gomock.Any(), gomock.Any()).Do(
			func(_ context.Context, e audit.Event) { event = e })

		ctx := requestcontext.WithActorID(context.Background(), "ops-alice")
		counts, err := s.service.Erase(ctx, s.subject, models.EraseAnonymize)
		s.Require().NoError(err)

		s.Equal(2, counts.Orders)
		s.Equal(3, counts.Credentials)
		s.Equal(audit.EventDataDelete, event.Type)
		s.Equal("subject data anonymized", event.Action)
		s.Equal("anonymize", event.Details["mode"])
		s.Equal(3, event.Details["credentials_revoked"])
		s.NoError(event.Validate())
		s.Equal(float64(1), testutil.ToFloat64(s.metrics.Erasures.WithLabelValues("anonymize")))
	})

	s.Run("purge deletes rows and revokes credentials", func() {
		s.expectTx(store.TxReadWrite)
		s.store.EXPECT().Purge(gomock.Any(), s.subject).Return(models.EraseCounts{Orders: 1}, nil)
		s.credentials.EXPECT().RevokeAllForOwner(gomock.Any(), s.subject, s.now).Return(0, nil)
		var event audit.Event
		s.auditor.EXPECT().Record(gomock.Any(), gomock.Any()).Do(
			func(_ context.Context, e audit.Event) { event = e })

		_, err := s.service.Erase(context.Background(), s.subject, models.ErasePurge)
		s.Require().NoError(err)
		s.Equal("subject data purged", event.Action)
	})

	s.Run("revocation failure fails the erase without audit", func() {
		cause := errors.New("deadlock detected")
		s.expectTx(store.TxReadWrite)
		s.store.EXPECT().Purge(gomock.Any(), s.subject).Return(models.EraseCounts{}, nil)
		s.credentials.EXPECT().RevokeAllForOwner(gomock.Any(), s.subject, s.now).Return(0, cause)

		_, err := s.service.Erase(context.Background(), s.subject, models.ErasePurge)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
		s.ErrorIs(err, cause)
	})

	s.Run("unknown subject is not found", func() {
		s.expectTx(store.TxReadWrite)
		s.store.EXPECT().Anonymize(gomock.Any(), s.subject, gomock.Any()).Return(models.EraseCounts{}, store.ErrNotFound)

		_, err := s.service.Erase(context.Background(), s.subject, models.EraseAnonymize)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("unknown mode is rejected before any transaction", func() {
		_, err := s.service.Erase(context.Background(), s.subject, models.EraseMode("shred"))
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

// =============================================================================
// Consent
// =============================================================================

func (s *ServiceSuite) TestConsentStatus() {
	s.Run("no preferences requires consent", func() {
		s.store.EXPECT().GetConsent(gomock.Any(), s.subject).Return(nil, nil)

		status, err := s.service.ConsentStatus(context.Background(), s.subject)
		s.Require().NoError(err)
		s.True(status.Required)
		s.Nil(status.Preferences)
	})

	s.Run("fresh preferences are returned", func() {
		prefs := &models.ConsentPreferences{Necessary: true, Analytics: true, ConsentSetAt: s.now.Add(-24 * time.Hour)}
		s.store.EXPECT().GetConsent(gomock.Any(), s.subject).Return(prefs, nil)

		status, err := s.service.ConsentStatus(context.Background(), s.subject)
		s.Require().NoError(err)
		s.False(status.Required)
		s.Equal(prefs, status.Preferences)
	})

	s.Run("stale preferences require consent again", func() {
		prefs := &models.ConsentPreferences{Necessary: true, ConsentSetAt: s.now.Add(-366 * 24 * time.Hour)}
		s.store.EXPECT().GetConsent(gomock.Any(), s.subject).Return(prefs, nil)

		status, err := s.service.ConsentStatus(context.Background(), s.subject)
		s.Require().NoError(err)
		s.True(status.Required)
	})

	s.Run("unknown subject is not found", func() {
		s.store.EXPECT().GetConsent(gomock.Any(), s.subject).Return(nil, store.ErrNotFound)

		_, err := s.service.ConsentStatus(context.Background(), s.subject)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestUpdateConsent() {
	s.Run("necessary is forced on and the time is stamped", func() {
		want := models.ConsentPreferences{Necessary: true, Marketing: true, ConsentSetAt: s.now}
		s.store.EXPECT().SaveConsent(gomock.Any(), s.subject, want).Return(nil)
		var event audit.Event
		s.auditor.EXPECT().Record(gomock.Any(), gomock.Any()).Do(
			func(_ context.Context, e audit.Event) { event = e })

		ctx := requestcontext.WithActorID(context.Background(), "admin-7")
		prefs, err := s.service.UpdateConsent(ctx, s.subject, models.ConsentUpdate{Marketing: true})
		s.Require().NoError(err)
		s.Equal(want, *prefs)
		s.Equal(audit.EventConsentUpdate, event.Type)
		s.Equal("admin-7", event.ActorID)
		s.Equal(s.subject, event.SubjectID)
		s.Equal(true, event.Details["marketing"])
		s.Equal(float64(1), testutil.ToFloat64(s.metrics.ConsentUpdates))
	})

	s.Run("store failure is internal", func() {
		s.store.EXPECT().SaveConsent(gomock.Any(), s.subject, gomock.Any()).Return(errors.New("timeout"))

		_, err := s.service.UpdateConsent(context.Background(), s.subject, models.ConsentUpdate{})
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

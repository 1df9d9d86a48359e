//go:build integration

package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"trustplane/internal/compliance/models"
	"trustplane/internal/compliance/service"
	"trustplane/internal/compliance/store"
	credmodels "trustplane/internal/credential/models"
	credstore "trustplane/internal/credential/store"
	id "trustplane/pkg/domain"
	dErrors "trustplane/pkg/domain-errors"
	"trustplane/pkg/platform/clock"
	"trustplane/pkg/testutil/containers"
)

// failingRevoker lets the erase steps succeed and then fails the credential
// step, so the whole transaction must roll back.
type failingRevoker struct {
	*credstore.PostgresStore
}

func (failingRevoker) RevokeAllForOwner(context.Context, id.SubjectID, time.Time) (int, error) {
	return 0, errors.New("injected failure")
}

type ErasureSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	subjects *store.PostgresStore
	creds    *credstore.PostgresStore
	now      time.Time
}

func TestErasureSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(ErasureSuite))
}

func (s *ErasureSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.subjects = store.NewPostgres(s.postgres.DB)
	s.creds = credstore.NewPostgres(s.postgres.DB)
	s.now = time.Now().UTC().Truncate(time.Millisecond)
}

func (s *ErasureSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(), "subjects", "credentials", "audit_outbox")
	s.Require().NoError(err)
}

func (s *ErasureSuite) newService(creds service.CredentialStore) *service.Service {
	svc, err := service.New(s.subjects, store.NewPostgresTx(s.postgres.DB), creds, service.Config{},
		service.WithClock(clock.Fixed(s.now)))
	s.Require().NoError(err)
	return svc
}

// seed inserts a subject owning one order, one review, one address, one
// listing, a cart with one item and one credential.
func (s *ErasureSuite) seed() (id.SubjectID, id.OrderID) {
	ctx := context.Background()
	db := s.postgres.DB
	subject := uuid.New()
	order := uuid.New()
	listing := uuid.New()
	cart := uuid.New()

	stmts := []struct {
		query string
		args  []any
	}{
		{`INSERT INTO subjects (id, email, display_name, password_hash, email_verified) VALUES ($1, $2, 'Ana', 'bcrypt$x', TRUE)`,
			[]any{subject, subject.String() + "@example.com"}},
		{`INSERT INTO listings (id, seller_id, title, price) VALUES ($1, $2, 'Desk', 80)`, []any{listing, subject}},
		{`INSERT INTO orders (id, subject_id, reference, amount, item_count, status) VALUES ($1, $2, 'ORD-9', 149.90, 2, 'paid')`,
			[]any{order, subject}},
		{`INSERT INTO reviews (id, subject_id, listing_id, rating, comment) VALUES ($1, $2, $3, 5, 'my number is 0161 555 0100')`,
			[]any{uuid.New(), subject, listing}},
		{`INSERT INTO addresses (id, subject_id, line1, city, postal_code, country) VALUES ($1, $2, '1 Mill Ln', 'York', 'YO1', 'GB')`,
			[]any{uuid.New(), subject}},
		{`INSERT INTO carts (id, subject_id) VALUES ($1, $2)`, []any{cart, subject}},
		{`INSERT INTO cart_items (id, cart_id, listing_id, quantity) VALUES ($1, $2, $3, 1)`, []any{uuid.New(), cart, listing}},
	}
	for _, st := range stmts {
		_, err := db.ExecContext(ctx, st.query, st.args...)
		s.Require().NoError(err)
	}

	err := s.creds.Create(ctx, &credmodels.Credential{
		ID:           id.CredentialID(uuid.New()),
		OwnerID:      id.SubjectID(subject),
		Name:         "pos",
		HashedSecret: "digest-" + subject.String(),
		CreatedAt:    s.now.Add(-time.Hour),
		UpdatedAt:    s.now.Add(-time.Hour),
	})
	s.Require().NoError(err)
	return id.SubjectID(subject), id.OrderID(order)
}

func (s *ErasureSuite) TestExportNeverCarriesSecrets() {
	subject, _ := s.seed()

	bundle, err := s.newService(s.creds).Export(context.Background(), subject)
	s.Require().NoError(err)
	s.Len(bundle.Orders, 1)
	s.InDelta(149.90, bundle.Orders[0].Amount, 0.001)
	s.Len(bundle.Reviews, 1)
	s.Require().NotNil(bundle.Cart)
	s.Len(bundle.Cart.Items, 1)
	s.Require().Len(bundle.Credentials, 1)
	s.Equal("pos", bundle.Credentials[0].Name)
}

func (s *ErasureSuite) TestAnonymizeKeepsFinancialRecords() {
	ctx := context.Background()
	subject, orderID := s.seed()

	counts, err := s.newService(s.creds).Erase(ctx, subject, models.EraseAnonymize)
	s.Require().NoError(err)
	s.Equal(1, counts.Orders)
	s.Equal(1, counts.Credentials)

	order, err := s.subjects.FindOrder(ctx, orderID)
	s.Require().NoError(err)
	s.Equal(models.Tombstone(s.now), order.Reference)
	s.InDelta(149.90, order.Amount, 0.001)

	var comment string
	err = s.postgres.DB.QueryRowContext(ctx, `SELECT comment FROM reviews WHERE subject_id IS NULL`).Scan(&comment)
	s.Require().NoError(err)
	s.Equal(models.RedactedText, comment)

	_, err = s.creds.FindActiveByHash(ctx, "digest-"+subject.String(), s.now)
	s.ErrorIs(err, credstore.ErrNotFound)
}

func (s *ErasureSuite) TestPurgeRemovesEverything() {
	ctx := context.Background()
	subject, orderID := s.seed()

	_, err := s.newService(s.creds).Erase(ctx, subject, models.ErasePurge)
	s.Require().NoError(err)

	_, err = s.subjects.FindOrder(ctx, orderID)
	s.ErrorIs(err, store.ErrNotFound)

	_, err = s.newService(s.creds).Export(ctx, subject)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ErasureSuite) TestFailedRevocationRollsBackErasure() {
	ctx := context.Background()
	subject, orderID := s.seed()

	_, err := s.newService(failingRevoker{s.creds}).Erase(ctx, subject, models.ErasePurge)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))

	order, err := s.subjects.FindOrder(ctx, orderID)
	s.Require().NoError(err)
	s.Equal("ORD-9", order.Reference)

	_, err = s.newService(s.creds).Export(ctx, subject)
	s.NoError(err)
}

func (s *ErasureSuite) TestConsentRoundTrip() {
	ctx := context.Background()
	subject, _ := s.seed()
	svc := s.newService(s.creds)

	status, err := svc.ConsentStatus(ctx, subject)
	s.Require().NoError(err)
	s.True(status.Required)

	_, err = svc.UpdateConsent(ctx, subject, models.ConsentUpdate{Cookies: true})
	s.Require().NoError(err)

	status, err = svc.ConsentStatus(ctx, subject)
	s.Require().NoError(err)
	s.False(status.Required)
	s.True(status.Preferences.Necessary)
	s.True(status.Preferences.Cookies)
}

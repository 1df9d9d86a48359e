package store

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trustplane/internal/compliance/models"
	id "trustplane/pkg/domain"
)

var now = time.Date(2026, 4, 2, 8, 0, 0, 0, time.UTC)

func seedBundle(subject id.SubjectID, orderID id.OrderID) models.DataBundle {
	return models.DataBundle{
		Subject:   models.Profile{ID: subject, Email: "ada@example.com", DisplayName: "Ada"},
		Listings:  []models.Listing{{ID: id.ListingID(uuid.New()), Title: "Lamp", Price: 20}},
		Orders:    []models.Order{{ID: orderID, Reference: "ORD-1001", Amount: 42.5, ItemCount: 2, Status: "paid"}},
		Reviews:   []models.Review{{ID: id.ReviewID(uuid.New()), Rating: 5, Comment: "great, ship to my flat at 4 Elm St"}},
		Addresses: []models.Address{{ID: id.AddressID(uuid.New()), Line1: "4 Elm St", City: "Leeds", PostalCode: "LS1", Country: "GB"}},
		Cart: &models.Cart{
			ID:    id.CartID(uuid.New()),
			Items: []models.CartItem{{ListingID: id.ListingID(uuid.New()), Quantity: 1}},
		},
		Consent: &models.ConsentPreferences{Necessary: true, Analytics: true, ConsentSetAt: now},
	}
}

func TestInMemoryStore_LoadBundleReturnsCopies(t *testing.T) {
	s := NewInMemoryStore()
	subject := id.SubjectID(uuid.New())
	s.Seed(seedBundle(subject, id.OrderID(uuid.New())))

	b, err := s.LoadBundle(context.Background(), subject)
	require.NoError(t, err)
	b.Orders[0].Reference = "changed"
	b.Cart.Items[0].Quantity = 99

	again, err := s.LoadBundle(context.Background(), subject)
	require.NoError(t, err)
	assert.Equal(t, "ORD-1001", again.Orders[0].Reference)
	assert.Equal(t, 1, again.Cart.Items[0].Quantity)
}

func TestInMemoryStore_Anonymize(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	subject := id.SubjectID(uuid.New())
	orderID := id.OrderID(uuid.New())
	s.Seed(seedBundle(subject, orderID))

	counts, err := s.Anonymize(ctx, subject, models.Tombstone(now))
	require.NoError(t, err)
	assert.Equal(t, models.EraseCounts{Orders: 1, Reviews: 1, Listings: 1, Addresses: 1, Carts: 1, CartItems: 1}, counts)

	_, err = s.LoadBundle(ctx, subject)
	assert.ErrorIs(t, err, ErrNotFound)

	order, err := s.FindOrder(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, models.Tombstone(now), order.Reference)
	assert.Equal(t, 42.5, order.Amount)
	assert.Equal(t, 2, order.ItemCount)

	_, err = s.Anonymize(ctx, subject, models.Tombstone(now))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInMemoryStore_Purge(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	subject := id.SubjectID(uuid.New())
	orderID := id.OrderID(uuid.New())
	s.Seed(seedBundle(subject, orderID))

	_, err := s.Purge(ctx, subject)
	require.NoError(t, err)

	_, err = s.LoadBundle(ctx, subject)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.FindOrder(ctx, orderID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInMemoryStore_Consent(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	subject := id.SubjectID(uuid.New())
	s.Seed(models.DataBundle{Subject: models.Profile{ID: subject}})

	got, err := s.GetConsent(ctx, subject)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, s.SaveConsent(ctx, subject, models.ConsentPreferences{Necessary: true, Cookies: true, ConsentSetAt: now}))
	got, err = s.GetConsent(ctx, subject)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Cookies)

	assert.ErrorIs(t, s.SaveConsent(ctx, id.SubjectID(uuid.New()), models.ConsentPreferences{}), ErrNotFound)
}

func TestInMemoryStore_SignalsFollowErasure(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	subject := id.SubjectID(uuid.New())
	bundle := seedBundle(subject, id.OrderID(uuid.New()))
	bundle.Subject.EmailVerified = true
	bundle.Orders[0].CreatedAt = now.Add(-2 * time.Hour)
	s.Seed(bundle)

	exists, err := s.SubjectExists(ctx, subject)
	require.NoError(t, err)
	assert.True(t, exists)

	signals, err := s.LoadSignals(ctx, subject, now)
	require.NoError(t, err)
	assert.True(t, signals.Known)
	assert.True(t, signals.EmailVerified)
	assert.Equal(t, 1, signals.OrdersInLast24h)
	require.NotNil(t, signals.AverageOrderValue)
	assert.InDelta(t, 42.5, *signals.AverageOrderValue, 0.001)

	_, err = s.Anonymize(ctx, subject, models.Tombstone(now))
	require.NoError(t, err)

	exists, err = s.SubjectExists(ctx, subject)
	require.NoError(t, err)
	assert.False(t, exists)
	signals, err = s.LoadSignals(ctx, subject, now)
	require.NoError(t, err)
	assert.False(t, signals.Known)
}

func TestInMemoryStore_SeedJSON(t *testing.T) {
	s := NewInMemoryStore()
	subject := uuid.New()
	order := uuid.New()
	seed := `[{
		"subject": {"id": "` + subject.String() + `", "email": "lin@example.com", "email_verified": true},
		"orders": [{"id": "` + order.String() + `", "reference": "ORD-7", "amount": 30, "item_count": 1, "status": "paid", "created_at": "2026-04-01T20:00:00Z"}],
		"listings": [{"id": "` + uuid.NewString() + `", "title": "Chair", "price": 15}]
	}]`

	n, err := s.SeedJSON(strings.NewReader(seed))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	b, err := s.LoadBundle(context.Background(), id.SubjectID(subject))
	require.NoError(t, err)
	assert.Equal(t, "lin@example.com", b.Subject.Email)
	require.Len(t, b.Orders, 1)
	assert.Equal(t, id.OrderID(order), b.Orders[0].ID)
	assert.Len(t, b.Listings, 1)

	signals, err := s.LoadSignals(context.Background(), id.SubjectID(subject), now)
	require.NoError(t, err)
	assert.True(t, signals.EmailVerified)
	assert.Equal(t, 1, signals.OrdersInLast24h)
}

func TestInMemoryStore_SeedJSONRejectsBadInput(t *testing.T) {
	s := NewInMemoryStore()

	_, err := s.SeedJSON(strings.NewReader(`{"not": "a list"}`))
	assert.Error(t, err)

	_, err = s.SeedJSON(strings.NewReader(`[{"subject": {"email": "x@example.com"}}]`))
	assert.ErrorContains(t, err, "no subject id")
}

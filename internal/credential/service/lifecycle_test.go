package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trustplane/internal/credential/models"
	"trustplane/internal/credential/store"
	id "trustplane/pkg/domain"
	dErrors "trustplane/pkg/domain-errors"
	audit "trustplane/pkg/platform/audit"
)

type countingRecorder struct {
	mu     sync.Mutex
	events []audit.Event
}

func (r *countingRecorder) Record(_ context.Context, e audit.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *countingRecorder) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Action)
	}
	return out
}

type movableClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *movableClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *movableClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newLifecycleService(t *testing.T) (*Service, *countingRecorder, *movableClock) {
	t.Helper()
	rec := &countingRecorder{}
	clk := &movableClock{now: time.Date(2026, 4, 2, 8, 0, 0, 0, time.UTC)}
	svc, err := New(store.NewInMemoryStore(), testConfig, WithAuditRecorder(rec), WithClock(clk.Now))
	require.NoError(t, err)
	return svc, rec, clk
}

func TestLifecycle_CreateVerifyRevoke(t *testing.T) {
	svc, rec, _ := newLifecycleService(t)
	ctx := context.Background()
	owner := id.SubjectID(uuid.New())

	cred, plaintext, err := svc.Create(ctx, models.CreateRequest{OwnerID: owner, Name: "checkout"})
	require.NoError(t, err)

	got, err := svc.Verify(ctx, plaintext)
	require.NoError(t, err)
	assert.Equal(t, cred.ID, got.ID)
	assert.NotNil(t, got.LastUsedAt)

	_, err = svc.Revoke(ctx, cred.ID, "ops-alice")
	require.NoError(t, err)

	_, err = svc.Verify(ctx, plaintext)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound), "revoked key must not verify")

	_, err = svc.Revoke(ctx, cred.ID, "ops-alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"credential created", "credential revoked"}, rec.actions())
}

func TestLifecycle_ExpiredKeyIsIndistinguishableFromUnknown(t *testing.T) {
	svc, _, clk := newLifecycleService(t)
	ctx := context.Background()

	expires := clk.Now().Add(time.Hour)
	_, plaintext, err := svc.Create(ctx, models.CreateRequest{OwnerID: id.SubjectID(uuid.New()), Name: "temp", ExpiresAt: &expires})
	require.NoError(t, err)

	clk.Advance(2 * time.Hour)
	_, expiredErr := svc.Verify(ctx, plaintext)
	_, unknownErr := svc.Verify(ctx, "tp_"+uuid.New().String()[:32])

	assert.Equal(t, dErrors.CodeOf(unknownErr), dErrors.CodeOf(expiredErr))
	assert.Equal(t, dErrors.MessageOf(unknownErr), dErrors.MessageOf(expiredErr))
}

func TestLifecycle_ConcurrentRevokeAuditsOnce(t *testing.T) {
	svc, rec, _ := newLifecycleService(t)
	ctx := context.Background()

	cred, _, err := svc.Create(ctx, models.CreateRequest{OwnerID: id.SubjectID(uuid.New()), Name: "shared"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	var failures atomic.Int32
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Revoke(ctx, cred.ID, "ops"); err != nil {
				failures.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Zero(t, failures.Load())
	assert.Equal(t, []string{"credential created", "credential revoked"}, rec.actions())
}

func TestLifecycle_ListNewestFirst(t *testing.T) {
	svc, _, clk := newLifecycleService(t)
	ctx := context.Background()
	owner := id.SubjectID(uuid.New())

	for _, name := range []string{"first", "second", "third"} {
		_, _, err := svc.Create(ctx, models.CreateRequest{OwnerID: owner, Name: name})
		require.NoError(t, err)
		clk.Advance(time.Minute)
	}
	_, _, err := svc.Create(ctx, models.CreateRequest{OwnerID: id.SubjectID(uuid.New()), Name: "other"})
	require.NoError(t, err)

	creds, err := svc.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, creds, 3)
	assert.Equal(t, "third", creds[0].Name)
	assert.Equal(t, "first", creds[2].Name)
}

func TestLifecycle_AuthenticateReturnsOwner(t *testing.T) {
	svc, _, _ := newLifecycleService(t)
	ctx := context.Background()
	owner := id.SubjectID(uuid.New())

	_, plaintext, err := svc.Create(ctx, models.CreateRequest{OwnerID: owner, Name: "checkout"})
	require.NoError(t, err)

	got, err := svc.Authenticate(ctx, plaintext)
	require.NoError(t, err)
	assert.Equal(t, owner, got)
}

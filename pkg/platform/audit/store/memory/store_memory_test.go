package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "trustplane/pkg/domain"
	audit "trustplane/pkg/platform/audit"
)

func TestInMemoryStore_ListBySubjectNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	subject := id.SubjectID(uuid.New())
	other := id.SubjectID(uuid.New())
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.Append(ctx, audit.Event{SubjectID: subject, Type: audit.EventLogin, Action: "first", OccurredAt: base}))
	require.NoError(t, store.Append(ctx, audit.Event{SubjectID: other, Type: audit.EventLogin, Action: "other", OccurredAt: base.Add(time.Minute)}))
	require.NoError(t, store.Append(ctx, audit.Event{SubjectID: subject, Type: audit.EventLogout, Action: "second", OccurredAt: base.Add(2 * time.Minute)}))

	events, err := store.ListBySubject(ctx, subject, 0)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "second", events[0].Action)
	assert.Equal(t, "first", events[1].Action)

	recent, err := store.ListRecent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "second", recent[0].Action)
}

func TestInMemoryStore_DetailsAreCopied(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	details := map[string]any{"order_id": "o-1"}

	require.NoError(t, store.Append(ctx, audit.Event{Type: audit.EventOrderDelete, Action: "x", Details: details}))
	details["order_id"] = "tampered"

	assert.Equal(t, "o-1", store.All()[0].Details["order_id"])
}

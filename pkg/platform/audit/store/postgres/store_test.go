package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "trustplane/pkg/domain"
	audit "trustplane/pkg/platform/audit"
)

func TestStore_AppendWritesOutboxRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	subject := id.SubjectID(uuid.New())
	event := audit.DataExported("admin-1", subject)
	event.OccurredAt = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectExec("INSERT INTO audit_outbox").
		WithArgs(sqlmock.AnyArg(), "compliance", "data_export", sqlmock.AnyArg(), "admin-1", sqlmock.AnyArg(), event.OccurredAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, New(db).Append(context.Background(), event))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_AppendSurfacesDriverErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO audit_outbox").WillReturnError(errors.New("connection refused"))

	err = New(db).Append(context.Background(), audit.DataExported("", id.SubjectID(uuid.New())))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert outbox entry")
}

func TestStore_ListBySubjectDecodesPayloads(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	subject := id.SubjectID(uuid.New())
	occurred := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	event := audit.FraudDecision(subject, 60, "HIGH", "REVIEW", []string{"high value", "very high value"})
	event.OccurredAt = occurred
	raw, err := json.Marshal(NewPayload(uuid.New(), event))
	require.NoError(t, err)

	mock.ExpectQuery("SELECT payload FROM audit_outbox").
		WithArgs(uuid.UUID(subject), 10).
		WillReturnRows(sqlmock.NewRows([]string{"payload"}).AddRow(raw))

	events, err := New(db).ListBySubject(context.Background(), subject, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, audit.EventFraudDecision, events[0].Type)
	assert.Equal(t, subject, events[0].SubjectID)
	assert.True(t, occurred.Equal(events[0].OccurredAt))
	assert.Equal(t, []any{"high value", "very high value"}, events[0].Details["reasons"])
	require.NoError(t, mock.ExpectationsWereMet())
}

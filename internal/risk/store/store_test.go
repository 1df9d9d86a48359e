package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "trustplane/pkg/domain"
)

var now = time.Date(2026, 4, 2, 8, 0, 0, 0, time.UTC)

func TestInMemoryStore_LoadSignals(t *testing.T) {
	s := NewInMemoryStore()
	subject := id.SubjectID(uuid.New())
	s.PutSubject(subject, Subject{EmailVerified: true})
	s.AddOrder(subject, Order{Amount: 100, CreatedAt: now.Add(-time.Hour)})
	s.AddOrder(subject, Order{Amount: 50, CreatedAt: now.Add(-3 * 24 * time.Hour)})
	s.AddOrder(subject, Order{Amount: 30, CreatedAt: now.Add(-30 * 24 * time.Hour)})

	got, err := s.LoadSignals(context.Background(), subject, now)
	require.NoError(t, err)
	assert.True(t, got.Known)
	assert.True(t, got.EmailVerified)
	assert.Equal(t, 1, got.OrdersInLast24h)
	assert.Equal(t, 2, got.OrdersInLastWeek)
	require.NotNil(t, got.AverageOrderValue)
	assert.InDelta(t, 60, *got.AverageOrderValue, 0.001)
}

func TestInMemoryStore_UnknownSubject(t *testing.T) {
	got, err := NewInMemoryStore().LoadSignals(context.Background(), id.SubjectID(uuid.New()), now)
	require.NoError(t, err)
	assert.False(t, got.Known)
}

func TestInMemoryStore_NoHistory(t *testing.T) {
	s := NewInMemoryStore()
	subject := id.SubjectID(uuid.New())
	s.PutSubject(subject, Subject{Suspended: true})

	got, err := s.LoadSignals(context.Background(), subject, now)
	require.NoError(t, err)
	assert.True(t, got.Suspended)
	assert.Nil(t, got.AverageOrderValue)
}

func TestPostgresStore_LoadSignals(t *testing.T) {
	columns := []string{"email_verified", "suspended", "day", "week", "avg"}

	t.Run("single query with window cutoffs", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("SELECT s.email_verified,.*FROM subjects s\\s+LEFT JOIN orders o").
			WithArgs(sqlmock.AnyArg(), now.Add(-24*time.Hour), now.Add(-7*24*time.Hour)).
			WillReturnRows(sqlmock.NewRows(columns).AddRow(true, false, 6, 9, 42.5))

		got, err := NewPostgres(db).LoadSignals(context.Background(), id.SubjectID(uuid.New()), now)
		require.NoError(t, err)
		assert.True(t, got.Known)
		assert.Equal(t, 6, got.OrdersInLast24h)
		assert.Equal(t, 9, got.OrdersInLastWeek)
		require.NotNil(t, got.AverageOrderValue)
		assert.InDelta(t, 42.5, *got.AverageOrderValue, 0.001)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no orders leaves average absent", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows(columns).AddRow(false, false, 0, 0, nil))

		got, err := NewPostgres(db).LoadSignals(context.Background(), id.SubjectID(uuid.New()), now)
		require.NoError(t, err)
		assert.True(t, got.Known)
		assert.Nil(t, got.AverageOrderValue)
	})

	t.Run("missing subject is unknown", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("SELECT").WillReturnError(sql.ErrNoRows)

		got, err := NewPostgres(db).LoadSignals(context.Background(), id.SubjectID(uuid.New()), now)
		require.NoError(t, err)
		assert.False(t, got.Known)
	})

	t.Run("driver errors surface", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		cause := errors.New("too many connections")
		mock.ExpectQuery("SELECT").WillReturnError(cause)

		_, err = NewPostgres(db).LoadSignals(context.Background(), id.SubjectID(uuid.New()), now)
		assert.ErrorIs(t, err, cause)
	})
}

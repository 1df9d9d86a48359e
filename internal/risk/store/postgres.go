package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"trustplane/internal/risk"
	id "trustplane/pkg/domain"
	"trustplane/pkg/platform/tx"
)

// PostgresStore reads every signal in one statement so a score is computed
// from a single snapshot.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const signalsQuery = `
	SELECT s.email_verified,
	       s.suspended,
	       COUNT(o.id) FILTER (WHERE o.created_at > $2),
	       COUNT(o.id) FILTER (WHERE o.created_at > $3),
	       AVG(o.amount)::float8
	FROM subjects s
	LEFT JOIN orders o ON o.subject_id = s.id
	WHERE s.id = $1
	GROUP BY s.id, s.email_verified, s.suspended
`

// LoadSignals returns zero Signals (Known=false) when the subject is absent.
func (s *PostgresStore) LoadSignals(ctx context.Context, subjectID id.SubjectID, now time.Time) (risk.Signals, error) {
	var (
		signals risk.Signals
		avg     sql.NullFloat64
	)
	err := tx.ExecutorFor(ctx, s.db).QueryRowContext(ctx, signalsQuery,
		uuid.UUID(subjectID),
		now.Add(-24*time.Hour),
		now.Add(-7*24*time.Hour),
	).Scan(
		&signals.EmailVerified,
		&signals.Suspended,
		&signals.OrdersInLast24h,
		&signals.OrdersInLastWeek,
		&avg,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return risk.Signals{}, nil
		}
		return risk.Signals{}, fmt.Errorf("load risk signals: %w", err)
	}
	signals.Known = true
	if avg.Valid {
		v := avg.Float64
		signals.AverageOrderValue = &v
	}
	return signals, nil
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"trustplane/internal/credential/models"
	"trustplane/internal/platform/postgres"
	id "trustplane/pkg/domain"
	"trustplane/pkg/platform/tx"
)

// PostgresStore persists credentials. Every method joins a transaction
// carried in ctx, which lets subject erasure revoke keys atomically.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const credentialColumns = `id, owner_id, name, description, hashed_secret, created_at, updated_at, expires_at, last_used_at, revoked_at`

// Create inserts only while the owner's subject row exists. The key-share lock
// orders the insert against a concurrent erasure, which deletes that row.
func (s *PostgresStore) Create(ctx context.Context, cred *models.Credential) error {
	query := `
		INSERT INTO credentials (` + credentialColumns + `)
		SELECT $1::uuid, $2::uuid, $3::text, $4::text, $5::text,
		       $6::timestamptz, $7::timestamptz, $8::timestamptz, $9::timestamptz, $10::timestamptz
		WHERE EXISTS (SELECT 1 FROM subjects WHERE id = $2 FOR KEY SHARE)
	`
	res, err := tx.ExecutorFor(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(cred.ID),
		uuid.UUID(cred.OwnerID),
		cred.Name,
		cred.Description,
		cred.HashedSecret,
		cred.CreatedAt,
		cred.UpdatedAt,
		cred.ExpiresAt,
		cred.LastUsedAt,
		cred.RevokedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert credential: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert credential: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// FindActiveByHash reads the primary store; the active predicate is part of
// the query so a committed revoke is always observed.
func (s *PostgresStore) FindActiveByHash(ctx context.Context, hashedSecret string, now time.Time) (*models.Credential, error) {
	query := `
		SELECT ` + credentialColumns + `
		FROM credentials
		WHERE hashed_secret = $1
		  AND revoked_at IS NULL
		  AND (expires_at IS NULL OR expires_at > $2)
	`
	cred, err := scanCredential(tx.ExecutorFor(ctx, s.db).QueryRowContext(ctx, query, hashedSecret, now))
	if err != nil {
		return nil, err
	}
	return cred, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, credID id.CredentialID) (*models.Credential, error) {
	query := `SELECT ` + credentialColumns + ` FROM credentials WHERE id = $1`
	return scanCredential(tx.ExecutorFor(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(credID)))
}

func (s *PostgresStore) ListByOwner(ctx context.Context, owner id.SubjectID) ([]*models.Credential, error) {
	query := `
		SELECT ` + credentialColumns + `
		FROM credentials
		WHERE owner_id = $1
		ORDER BY created_at DESC
	`
	rows, err := tx.ExecutorFor(ctx, s.db).QueryContext(ctx, query, uuid.UUID(owner))
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	defer rows.Close()

	var out []*models.Credential
	for rows.Next() {
		cred, err := scanCredential(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, cred)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate credentials: %w", err)
	}
	return out, nil
}

// Revoke performs the conditional active->revoked transition in one
// statement. When no row changes, the current record is returned unchanged.
func (s *PostgresStore) Revoke(ctx context.Context, credID id.CredentialID, at time.Time) (*models.Credential, bool, error) {
	query := `
		UPDATE credentials
		SET revoked_at = $2, updated_at = $2
		WHERE id = $1 AND revoked_at IS NULL
		RETURNING ` + credentialColumns
	exec := tx.ExecutorFor(ctx, s.db)
	cred, err := scanCredential(exec.QueryRowContext(ctx, query, uuid.UUID(credID), at))
	if err == nil {
		return cred, true, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	cred, err = s.FindByID(ctx, credID)
	if err != nil {
		return nil, false, err
	}
	return cred, false, nil
}

func (s *PostgresStore) RevokeAllForOwner(ctx context.Context, owner id.SubjectID, at time.Time) (int, error) {
	query := `
		UPDATE credentials
		SET revoked_at = $2, updated_at = $2
		WHERE owner_id = $1 AND revoked_at IS NULL
	`
	res, err := tx.ExecutorFor(ctx, s.db).ExecContext(ctx, query, uuid.UUID(owner), at)
	if err != nil {
		return 0, fmt.Errorf("revoke owner credentials: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("revoke owner credentials: %w", err)
	}
	return int(n), nil
}

func (s *PostgresStore) TouchLastUsed(ctx context.Context, credID id.CredentialID, at time.Time) error {
	query := `UPDATE credentials SET last_used_at = $2 WHERE id = $1`
	res, err := tx.ExecutorFor(ctx, s.db).ExecContext(ctx, query, uuid.UUID(credID), at)
	if err != nil {
		return fmt.Errorf("touch credential: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("touch credential: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCredential(row rowScanner) (*models.Credential, error) {
	var (
		credID, ownerID uuid.UUID
		description     sql.NullString
		expiresAt       sql.NullTime
		lastUsedAt      sql.NullTime
		revokedAt       sql.NullTime
		cred            models.Credential
	)
	err := row.Scan(
		&credID,
		&ownerID,
		&cred.Name,
		&description,
		&cred.HashedSecret,
		&cred.CreatedAt,
		&cred.UpdatedAt,
		&expiresAt,
		&lastUsedAt,
		&revokedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan credential: %w", err)
	}
	cred.ID = id.CredentialID(credID)
	cred.OwnerID = id.SubjectID(ownerID)
	if description.Valid {
		cred.Description = &description.String
	}
	cred.ExpiresAt = nullTime(expiresAt)
	cred.LastUsedAt = nullTime(lastUsedAt)
	cred.RevokedAt = nullTime(revokedAt)
	return &cred, nil
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

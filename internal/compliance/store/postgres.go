package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"trustplane/internal/compliance/models"
	id "trustplane/pkg/domain"
	"trustplane/pkg/platform/tx"
)

// PostgresStore reads and erases subject rows. Callers wrap multi-statement
// work in PostgresTx; every query joins the transaction carried in ctx.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) LoadBundle(ctx context.Context, subjectID id.SubjectID) (*models.DataBundle, error) {
	exec := tx.ExecutorFor(ctx, s.db)
	sid := uuid.UUID(subjectID)

	b := &models.DataBundle{
		Listings:  []models.Listing{},
		Orders:    []models.Order{},
		Reviews:   []models.Review{},
		Addresses: []models.Address{},
	}

	var profileID uuid.UUID
	err := exec.QueryRowContext(ctx, `
		SELECT id, email, display_name, email_verified, suspended, created_at, updated_at
		FROM subjects WHERE id = $1
	`, sid).Scan(
		&profileID,
		&b.Subject.Email,
		&b.Subject.DisplayName,
		&b.Subject.EmailVerified,
		&b.Subject.Suspended,
		&b.Subject.CreatedAt,
		&b.Subject.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load subject: %w", err)
	}
	b.Subject.ID = id.SubjectID(profileID)

	err = queryEach(ctx, exec, `
		SELECT id, title, description, price::float8, created_at
		FROM listings WHERE seller_id = $1 ORDER BY created_at
	`, sid, func(rows *sql.Rows) error {
		var (
			l     models.Listing
			rowID uuid.UUID
		)
		if err := rows.Scan(&rowID, &l.Title, &l.Description, &l.Price, &l.CreatedAt); err != nil {
			return err
		}
		l.ID = id.ListingID(rowID)
		b.Listings = append(b.Listings, l)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load listings: %w", err)
	}

	err = queryEach(ctx, exec, `
		SELECT id, reference, amount::float8, item_count, status, created_at
		FROM orders WHERE subject_id = $1 ORDER BY created_at
	`, sid, func(rows *sql.Rows) error {
		var (
			o     models.Order
			rowID uuid.UUID
		)
		if err := rows.Scan(&rowID, &o.Reference, &o.Amount, &o.ItemCount, &o.Status, &o.CreatedAt); err != nil {
			return err
		}
		o.ID = id.OrderID(rowID)
		b.Orders = append(b.Orders, o)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load orders: %w", err)
	}

	err = queryEach(ctx, exec, `
		SELECT id, listing_id, rating, comment, created_at
		FROM reviews WHERE subject_id = $1 ORDER BY created_at
	`, sid, func(rows *sql.Rows) error {
		var (
			r                models.Review
			rowID, listingID uuid.NullUUID
		)
		if err := rows.Scan(&rowID, &listingID, &r.Rating, &r.Comment, &r.CreatedAt); err != nil {
			return err
		}
		r.ID = id.ReviewID(rowID.UUID)
		r.ListingID = id.ListingID(listingID.UUID)
		b.Reviews = append(b.Reviews, r)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load reviews: %w", err)
	}

	err = queryEach(ctx, exec, `
		SELECT id, line1, city, postal_code, country, created_at
		FROM addresses WHERE subject_id = $1 ORDER BY created_at
	`, sid, func(rows *sql.Rows) error {
		var (
			a     models.Address
			rowID uuid.UUID
		)
		if err := rows.Scan(&rowID, &a.Line1, &a.City, &a.PostalCode, &a.Country, &a.CreatedAt); err != nil {
			return err
		}
		a.ID = id.AddressID(rowID)
		b.Addresses = append(b.Addresses, a)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load addresses: %w", err)
	}

	if b.Cart, err = s.loadCart(ctx, exec, sid); err != nil {
		return nil, err
	}
	if b.Consent, err = s.GetConsent(ctx, subjectID); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *PostgresStore) loadCart(ctx context.Context, exec tx.Executor, sid uuid.UUID) (*models.Cart, error) {
	var (
		cart   models.Cart
		cartID uuid.UUID
	)
	err := exec.QueryRowContext(ctx, `SELECT id, created_at FROM carts WHERE subject_id = $1`, sid).
		Scan(&cartID, &cart.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load cart: %w", err)
	}
	cart.ID = id.CartID(cartID)
	cart.Items = []models.CartItem{}

	err = queryEach(ctx, exec, `
		SELECT listing_id, quantity FROM cart_items WHERE cart_id = $1 ORDER BY id
	`, cartID, func(rows *sql.Rows) error {
		var (
			item      models.CartItem
			listingID uuid.UUID
		)
		if err := rows.Scan(&listingID, &item.Quantity); err != nil {
			return err
		}
		item.ListingID = id.ListingID(listingID)
		cart.Items = append(cart.Items, item)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load cart items: %w", err)
	}
	return &cart, nil
}

// Anonymize keeps orders and reviews for reporting, detached from the
// subject, and deletes everything else the subject owns.
func (s *PostgresStore) Anonymize(ctx context.Context, subjectID id.SubjectID, tombstone string) (models.EraseCounts, error) {
	exec := tx.ExecutorFor(ctx, s.db)
	sid := uuid.UUID(subjectID)
	var counts models.EraseCounts

	if err := lockSubject(ctx, exec, sid); err != nil {
		return counts, err
	}

	steps := []eraseStep{
		{"tombstone orders", `UPDATE orders SET reference = $2, subject_id = NULL WHERE subject_id = $1`, []any{sid, tombstone}, &counts.Orders},
		{"redact reviews", `UPDATE reviews SET comment = $2, subject_id = NULL WHERE subject_id = $1`, []any{sid, models.RedactedText}, &counts.Reviews},
		deleteCartItems(sid, &counts),
		deleteCart(sid, &counts),
		deleteAddresses(sid, &counts),
		deleteListings(sid, &counts),
		deleteConsent(sid),
		deleteSubject(sid),
	}
	if err := runSteps(ctx, exec, steps); err != nil {
		return counts, err
	}
	return counts, nil
}

// Purge deletes child rows before parents (cart items, cart, reviews,
// addresses, listings, orders), then the identity record.
func (s *PostgresStore) Purge(ctx context.Context, subjectID id.SubjectID) (models.EraseCounts, error) {
	exec := tx.ExecutorFor(ctx, s.db)
	sid := uuid.UUID(subjectID)
	var counts models.EraseCounts

	if err := lockSubject(ctx, exec, sid); err != nil {
		return counts, err
	}

	steps := []eraseStep{
		deleteCartItems(sid, &counts),
		deleteCart(sid, &counts),
		{"delete reviews", `DELETE FROM reviews WHERE subject_id = $1`, []any{sid}, &counts.Reviews},
		deleteAddresses(sid, &counts),
		deleteListings(sid, &counts),
		{"delete orders", `DELETE FROM orders WHERE subject_id = $1`, []any{sid}, &counts.Orders},
		deleteConsent(sid),
		deleteSubject(sid),
	}
	if err := runSteps(ctx, exec, steps); err != nil {
		return counts, err
	}
	return counts, nil
}

func deleteCartItems(sid uuid.UUID, counts *models.EraseCounts) eraseStep {
	return eraseStep{"delete cart items", `DELETE FROM cart_items WHERE cart_id IN (SELECT id FROM carts WHERE subject_id = $1)`, []any{sid}, &counts.CartItems}
}

func deleteCart(sid uuid.UUID, counts *models.EraseCounts) eraseStep {
	return eraseStep{"delete cart", `DELETE FROM carts WHERE subject_id = $1`, []any{sid}, &counts.Carts}
}

func deleteAddresses(sid uuid.UUID, counts *models.EraseCounts) eraseStep {
	return eraseStep{"delete addresses", `DELETE FROM addresses WHERE subject_id = $1`, []any{sid}, &counts.Addresses}
}

func deleteListings(sid uuid.UUID, counts *models.EraseCounts) eraseStep {
	return eraseStep{"delete listings", `DELETE FROM listings WHERE seller_id = $1`, []any{sid}, &counts.Listings}
}

func deleteConsent(sid uuid.UUID) eraseStep {
	return eraseStep{"delete consent", `DELETE FROM consents WHERE subject_id = $1`, []any{sid}, nil}
}

func deleteSubject(sid uuid.UUID) eraseStep {
	return eraseStep{"delete subject", `DELETE FROM subjects WHERE id = $1`, []any{sid}, nil}
}

func (s *PostgresStore) GetConsent(ctx context.Context, subjectID id.SubjectID) (*models.ConsentPreferences, error) {
	exec := tx.ExecutorFor(ctx, s.db)
	var (
		prefs models.ConsentPreferences
		found bool
	)
	err := exec.QueryRowContext(ctx, `
		SELECT c.subject_id IS NOT NULL,
		       COALESCE(c.analytics, FALSE),
		       COALESCE(c.marketing, FALSE),
		       COALESCE(c.cookies, FALSE),
		       COALESCE(c.consent_set_at, 'epoch'::timestamptz)
		FROM subjects s
		LEFT JOIN consents c ON c.subject_id = s.id
		WHERE s.id = $1
	`, uuid.UUID(subjectID)).Scan(&found, &prefs.Analytics, &prefs.Marketing, &prefs.Cookies, &prefs.ConsentSetAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load consent: %w", err)
	}
	if !found {
		return nil, nil
	}
	prefs.Necessary = true
	return &prefs, nil
}

func (s *PostgresStore) SaveConsent(ctx context.Context, subjectID id.SubjectID, prefs models.ConsentPreferences) error {
	exec := tx.ExecutorFor(ctx, s.db)
	sid := uuid.UUID(subjectID)
	if err := lockSubject(ctx, exec, sid); err != nil {
		return err
	}
	_, err := exec.ExecContext(ctx, `
		INSERT INTO consents (subject_id, analytics, marketing, cookies, consent_set_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (subject_id) DO UPDATE
		SET analytics = EXCLUDED.analytics,
		    marketing = EXCLUDED.marketing,
		    cookies = EXCLUDED.cookies,
		    consent_set_at = EXCLUDED.consent_set_at
	`, sid, prefs.Analytics, prefs.Marketing, prefs.Cookies, prefs.ConsentSetAt)
	if err != nil {
		return fmt.Errorf("save consent: %w", err)
	}
	return nil
}

// SubjectExists reports whether the identity record is still present.
func (s *PostgresStore) SubjectExists(ctx context.Context, subjectID id.SubjectID) (bool, error) {
	var exists bool
	err := tx.ExecutorFor(ctx, s.db).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM subjects WHERE id = $1)`, uuid.UUID(subjectID)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check subject: %w", err)
	}
	return exists, nil
}

// FindOrder looks an order up by id, including tombstoned orders.
func (s *PostgresStore) FindOrder(ctx context.Context, orderID id.OrderID) (*models.Order, error) {
	var (
		o     models.Order
		rowID uuid.UUID
	)
	err := tx.ExecutorFor(ctx, s.db).QueryRowContext(ctx, `
		SELECT id, reference, amount::float8, item_count, status, created_at
		FROM orders WHERE id = $1
	`, uuid.UUID(orderID)).Scan(&rowID, &o.Reference, &o.Amount, &o.ItemCount, &o.Status, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find order: %w", err)
	}
	o.ID = id.OrderID(rowID)
	return &o, nil
}

// eraseStep is one statement of an erase; count receives the affected rows.
type eraseStep struct {
	name  string
	query string
	args  []any
	count *int
}

func runSteps(ctx context.Context, exec tx.Executor, steps []eraseStep) error {
	for _, step := range steps {
		n, err := execCount(ctx, exec, step.query, step.args...)
		if err != nil {
			return fmt.Errorf("%s: %w", step.name, err)
		}
		if step.count != nil {
			*step.count = n
		}
	}
	return nil
}

func lockSubject(ctx context.Context, exec tx.Executor, sid uuid.UUID) error {
	var one int
	err := exec.QueryRowContext(ctx, `SELECT 1 FROM subjects WHERE id = $1 FOR UPDATE`, sid).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("lock subject: %w", err)
	}
	return nil
}

func execCount(ctx context.Context, exec tx.Executor, query string, args ...any) (int, error) {
	res, err := exec.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func queryEach(ctx context.Context, exec tx.Executor, query string, arg any, fn func(*sql.Rows) error) error {
	rows, err := exec.QueryContext(ctx, query, arg)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := fn(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Package cart provides the concrete SQL-based implementation of the
// abandoned cart domain repository.
package cart

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/multikonnect/cartwatch/internal/domain/cart"
	"github.com/multikonnect/cartwatch/internal/infrastructure/persistence/database"
)

const cartColumns = `token, session_id, user_id, email, phone, cart_json, total,
	item_count, discount_code, status, order_id, reminder_sent_at,
	recovered_at, converted_at, created_at, updated_at`

// SQLAbandonedCartRepository is the SQL-based implementation of the
// AbandonedCartRepository.
type SQLAbandonedCartRepository struct {
	db *database.DB
}

// NewSQLAbandonedCartRepository creates a new instance of the repository.
func NewSQLAbandonedCartRepository(db *database.DB) *SQLAbandonedCartRepository {
	return &SQLAbandonedCartRepository{db: db}
}

// FindByToken retrieves an abandoned cart by its recovery token.
func (r *SQLAbandonedCartRepository) FindByToken(token string) (*cart.AbandonedCart, error) {
	query := fmt.Sprintf(`SELECT %s FROM abandoned_carts WHERE token = ?`, cartColumns)
	row := r.db.QueryRow(query, token)
	return r.scanCart(row)
}

// FindActiveBySessionID retrieves the active abandoned cart for a session,
// if any. At most one active record exists per session.
func (r *SQLAbandonedCartRepository) FindActiveBySessionID(sessionID string) (*cart.AbandonedCart, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM abandoned_carts
		WHERE session_id = ? AND status = ?
		ORDER BY updated_at DESC
		LIMIT 1`, cartColumns)

	row := r.db.QueryRow(query, sessionID, cart.StatusActive)
	return r.scanCart(row)
}

// Create saves a new abandoned cart record.
func (r *SQLAbandonedCartRepository) Create(record *cart.AbandonedCart) error {
	cartJSON, err := json.Marshal(record.Snapshot)
	if err != nil {
		return fmt.Errorf("failed to serialize cart snapshot: %w", err)
	}

	const query = `
		INSERT INTO abandoned_carts (token, session_id, user_id, email, phone,
			cart_json, total, item_count, discount_code, status, order_id,
			reminder_sent_at, recovered_at, converted_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.Exec(
		query,
		record.Token,
		record.SessionID,
		record.UserID,
		record.Email,
		record.Phone,
		string(cartJSON),
		record.Snapshot.Total,
		record.Snapshot.ItemCount,
		record.DiscountCode,
		record.Status,
		record.OrderID,
		formatNullableTime(record.ReminderSentAt),
		formatNullableTime(record.RecoveredAt),
		formatNullableTime(record.ConvertedAt),
		record.CreatedAt.UTC().Format(time.RFC3339),
		record.UpdatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

// Update persists changes to an existing abandoned cart record.
func (r *SQLAbandonedCartRepository) Update(record *cart.AbandonedCart) error {
	cartJSON, err := json.Marshal(record.Snapshot)
	if err != nil {
		return fmt.Errorf("failed to serialize cart snapshot: %w", err)
	}

	const query = `
		UPDATE abandoned_carts
		SET session_id = ?, user_id = ?, email = ?, phone = ?, cart_json = ?,
			total = ?, item_count = ?, discount_code = ?, status = ?,
			order_id = ?, reminder_sent_at = ?, recovered_at = ?,
			converted_at = ?, updated_at = ?
		WHERE token = ?`

	_, err = r.db.Exec(
		query,
		record.SessionID,
		record.UserID,
		record.Email,
		record.Phone,
		string(cartJSON),
		record.Snapshot.Total,
		record.Snapshot.ItemCount,
		record.DiscountCode,
		record.Status,
		record.OrderID,
		formatNullableTime(record.ReminderSentAt),
		formatNullableTime(record.RecoveredAt),
		formatNullableTime(record.ConvertedAt),
		record.UpdatedAt.UTC().Format(time.RFC3339),
		record.Token,
	)
	return err
}

// FindDueForReminder returns active carts idle since before the given cutoff
// that have not yet received a recovery reminder.
func (r *SQLAbandonedCartRepository) FindDueForReminder(idleSince time.Time) ([]*cart.AbandonedCart, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM abandoned_carts
		WHERE status = ?
		  AND reminder_sent_at IS NULL
		  AND email IS NOT NULL
		  AND updated_at < ?
		ORDER BY updated_at ASC`, cartColumns)

	rows, err := r.db.Query(query, cart.StatusActive, idleSince.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var carts []*cart.AbandonedCart
	for rows.Next() {
		record, err := r.scanCartFromRows(rows)
		if err != nil {
			return nil, err
		}
		carts = append(carts, record)
	}

	return carts, rows.Err()
}

// ExpireOlderThan marks active carts last touched before the cutoff as
// expired and returns the number of affected rows.
func (r *SQLAbandonedCartRepository) ExpireOlderThan(cutoff time.Time) (int64, error) {
	const query = `
		UPDATE abandoned_carts
		SET status = ?, updated_at = ?
		WHERE status = ? AND updated_at < ?`

	now := time.Now().UTC().Format(time.RFC3339)
	result, err := r.db.Exec(query, cart.StatusExpired, now, cart.StatusActive, cutoff.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// GetMetrics aggregates abandoned cart counts by status.
func (r *SQLAbandonedCartRepository) GetMetrics() (*cart.Metrics, error) {
	const query = `
		SELECT
			COUNT(CASE WHEN status = 'active' THEN 1 END),
			COUNT(CASE WHEN status = 'converted' THEN 1 END),
			COUNT(CASE WHEN status = 'expired' THEN 1 END),
			COUNT(reminder_sent_at)
		FROM abandoned_carts`

	var m cart.Metrics
	err := r.db.QueryRow(query).Scan(&m.Active, &m.Converted, &m.Expired, &m.RemindersSent)
	if err != nil {
		return nil, err
	}

	total := m.Active + m.Converted + m.Expired
	if total > 0 {
		m.RecoveryRate = float64(m.Converted) / float64(total)
	}
	return &m, nil
}

// scanner abstracts sql.Row and sql.Rows for the shared scan path.
type scanner interface {
	Scan(dest ...any) error
}

func (r *SQLAbandonedCartRepository) scanCart(row *sql.Row) (*cart.AbandonedCart, error) {
	record, err := scanAbandonedCart(row)
	if err == sql.ErrNoRows {
		return nil, nil // Not found
	}
	return record, err
}

func (r *SQLAbandonedCartRepository) scanCartFromRows(rows *sql.Rows) (*cart.AbandonedCart, error) {
	return scanAbandonedCart(rows)
}

func scanAbandonedCart(s scanner) (*cart.AbandonedCart, error) {
	var record cart.AbandonedCart
	var userID, email, phone, discountCode, orderID sql.NullString
	var reminderAt, recoveredAt, convertedAt sql.NullString
	var cartJSON, createdAtStr, updatedAtStr string
	var total float64
	var itemCount int

	err := s.Scan(
		&record.Token,
		&record.SessionID,
		&userID,
		&email,
		&phone,
		&cartJSON,
		&total,
		&itemCount,
		&discountCode,
		&record.Status,
		&orderID,
		&reminderAt,
		&recoveredAt,
		&convertedAt,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(cartJSON), &record.Snapshot); err != nil {
		return nil, fmt.Errorf("failed to deserialize cart snapshot: %w", err)
	}
	// Tolerate legacy rows where the serialized snapshot predates the
	// derived fields.
	if record.Snapshot.ItemCount == 0 {
		record.Snapshot.ItemCount = itemCount
	}
	if record.Snapshot.Total == 0 {
		record.Snapshot.Total = total
	}

	record.UserID = nullableString(userID)
	record.Email = nullableString(email)
	record.Phone = nullableString(phone)
	record.DiscountCode = nullableString(discountCode)
	record.OrderID = nullableString(orderID)

	if record.ReminderSentAt, err = parseNullableTime(reminderAt); err != nil {
		return nil, err
	}
	if record.RecoveredAt, err = parseNullableTime(recoveredAt); err != nil {
		return nil, err
	}
	if record.ConvertedAt, err = parseNullableTime(convertedAt); err != nil {
		return nil, err
	}
	if record.CreatedAt, err = parseTimestamp(createdAtStr); err != nil {
		return nil, err
	}
	if record.UpdatedAt, err = parseTimestamp(updatedAtStr); err != nil {
		return nil, err
	}

	return &record, nil
}

func nullableString(v sql.NullString) *string {
	if v.Valid {
		return &v.String
	}
	return nil
}

func formatNullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func parseNullableTime(v sql.NullString) (*time.Time, error) {
	if !v.Valid {
		return nil, nil
	}
	t, err := parseTimestamp(v.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func parseTimestamp(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		// Try alternative timestamp format if RFC3339 fails
		t, err = time.Parse("2006-01-02 15:04:05", value)
		if err != nil {
			return time.Time{}, err
		}
	}
	return t, nil
}

package notify

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mkarpis/jobtrail/internal/db"
)

const defaultMaxAttempts = 5

// PendingMessage is an outbox row awaiting delivery.
type PendingMessage struct {
	ID          int64
	Recipient   string
	Subject     string
	Body        string
	Attempts    int
	MaxAttempts int
	NextTryAt   *time.Time
	LastError   string
}

// Repository persists the notification outbox in sqlite.
type Repository struct {
	db *db.DB
}

func NewRepository(d *db.DB) *Repository { return &Repository{db: d} }

// Enqueue inserts a message into the outbox and returns the new ID.
func (r *Repository) Enqueue(ctx context.Context, recipient, subject, body string) (int64, error) {
	now := time.Now().UTC().UnixMilli()
	q := `INSERT INTO outbox_messages(recipient, subject, body, status, attempts, max_attempts, created, updated) VALUES(?,?,?,?,?,?,?,?)`
	res, err := r.db.Exec(ctx, q, recipient, subject, body, "queued", 0, defaultMaxAttempts, now, now)
	if err != nil {
		return 0, fmt.Errorf("enqueue failed: %w", err)
	}
	return res.LastInsertId()
}

// FetchNext fetches the next deliverable message, oldest first, respecting
// retry schedules.
func (r *Repository) FetchNext(ctx context.Context) (*PendingMessage, error) {
	q := `SELECT id, recipient, subject, body, attempts, max_attempts, next_try_at, last_error FROM outbox_messages WHERE (status = 'queued' OR status = 'retry') AND (next_try_at IS NULL OR next_try_at <= ?) ORDER BY id ASC LIMIT 1`
	now := time.Now().UTC().Unix()
	row := r.db.QueryRow(ctx, q, now)

	var (
		m         PendingMessage
		nextTry   sql.NullInt64
		lastError sql.NullString
	)
	if err := row.Scan(&m.ID, &m.Recipient, &m.Subject, &m.Body, &m.Attempts, &m.MaxAttempts, &nextTry, &lastError); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch next message: %w", err)
	}
	if nextTry.Valid {
		t := time.Unix(nextTry.Int64, 0)
		m.NextTryAt = &t
	}
	if lastError.Valid {
		m.LastError = lastError.String
	}
	return &m, nil
}

// MarkSent records a successful delivery.
func (r *Repository) MarkSent(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `UPDATE outbox_messages SET status = 'sent', updated = ? WHERE id = ?`, time.Now().UTC().UnixMilli(), id)
	return err
}

// Reschedule records a failed attempt and puts the message back on the
// queue for its next try.
func (r *Repository) Reschedule(ctx context.Context, m *PendingMessage) error {
	var nextTry any
	if m.NextTryAt != nil {
		nextTry = m.NextTryAt.Unix()
	}
	q := `UPDATE outbox_messages SET status = 'retry', attempts = ?, next_try_at = ?, last_error = ?, updated = ? WHERE id = ?`
	_, err := r.db.Exec(ctx, q, m.Attempts, nextTry, m.LastError, time.Now().UTC().UnixMilli(), m.ID)
	return err
}

// MarkFailed parks a message that exhausted its attempts.
func (r *Repository) MarkFailed(ctx context.Context, m *PendingMessage) error {
	q := `UPDATE outbox_messages SET status = 'failed', attempts = ?, last_error = ?, updated = ? WHERE id = ?`
	_, err := r.db.Exec(ctx, q, m.Attempts, m.LastError, time.Now().UTC().UnixMilli(), m.ID)
	return err
}

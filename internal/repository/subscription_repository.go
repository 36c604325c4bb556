package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/dance-studio-admin/internal/model"
)

// SubscriptionRepo provides persistence for subscriptions and their
// pause intervals.  Every mutation of a subscription row carries an
// optimistic version check: the UPDATE matches on the version the
// caller read, bumps it by one, and reports ErrVersionConflict when no
// row matched.  Combined with the per-subscription mutex taken in the
// handlers this serializes concurrent attendance writes and pause
// requests on the same subscription.
type SubscriptionRepo struct {
	db *sql.DB
}

// NewSubscriptionRepo returns a new SubscriptionRepo bound to the
// given database.
func NewSubscriptionRepo(db *sql.DB) *SubscriptionRepo { return &SubscriptionRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions.
func (r *SubscriptionRepo) DB() *sql.DB { return r.db }

const subCols = `id, student_id, class_id, sub_type, start_date, end_date,
	total_classes, remaining_classes, price_paid, cancelled_at, version, created_at, updated_at`

func scanSubscription(row interface{ Scan(...any) error }) (model.Subscription, error) {
	var s model.Subscription
	var total, remaining sql.NullInt64
	var cancelled sql.NullTime
	err := row.Scan(&s.ID, &s.StudentID, &s.ClassID, &s.Type, &s.StartDate, &s.EndDate,
		&total, &remaining, &s.PricePaid, &cancelled, &s.Version, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return model.Subscription{}, err
	}
	if total.Valid {
		v := uint32(total.Int64)
		s.TotalClasses = &v
	}
	if remaining.Valid {
		v := uint32(remaining.Int64)
		s.RemainingClasses = &v
	}
	if cancelled.Valid {
		t := cancelled.Time
		s.CancelledAt = &t
	}
	return s, nil
}

type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (r *SubscriptionRepo) loadPauses(ctx context.Context, q rowQuerier, subID uint64) ([]model.SubscriptionPause, error) {
	const query = `SELECT id, subscription_id, start_date, end_date, reason, created_at
	               FROM subscription_pauses WHERE subscription_id = ? ORDER BY start_date, id`
	rows, err := q.QueryContext(ctx, query, subID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.SubscriptionPause, 0)
	for rows.Next() {
		var p model.SubscriptionPause
		var end sql.NullTime
		if err := rows.Scan(&p.ID, &p.SubscriptionID, &p.StartDate, &end, &p.Reason, &p.CreatedAt); err != nil {
			return nil, err
		}
		if end.Valid {
			e := end.Time
			p.EndDate = &e
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *SubscriptionRepo) get(ctx context.Context, q rowQuerier, id uint64) (model.Subscription, error) {
	s, err := scanSubscription(q.QueryRowContext(ctx,
		"SELECT "+subCols+" FROM subscriptions WHERE id = ?", id))
	if err != nil {
		return model.Subscription{}, err
	}
	s.Pauses, err = r.loadPauses(ctx, q, id)
	if err != nil {
		return model.Subscription{}, err
	}
	return s, nil
}

// GetByID returns one subscription with its pauses loaded, or
// sql.ErrNoRows.
func (r *SubscriptionRepo) GetByID(ctx context.Context, id uint64) (model.Subscription, error) {
	return r.get(ctx, r.db, id)
}

// GetByIDTx is GetByID inside an existing transaction so the snapshot
// the caller validates against is the one the version check protects.
func (r *SubscriptionRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Subscription, error) {
	return r.get(ctx, tx, id)
}

func (r *SubscriptionRepo) findForStudentClass(ctx context.Context, q rowQuerier, studentID, classID uint64) (model.Subscription, error) {
	s, err := scanSubscription(q.QueryRowContext(ctx,
		"SELECT "+subCols+` FROM subscriptions
		 WHERE student_id = ? AND class_id = ? AND cancelled_at IS NULL
		 ORDER BY created_at DESC, id DESC LIMIT 1`, studentID, classID))
	if err != nil {
		return model.Subscription{}, err
	}
	s.Pauses, err = r.loadPauses(ctx, q, s.ID)
	if err != nil {
		return model.Subscription{}, err
	}
	return s, nil
}

// FindForStudentClass returns the most recent non-cancelled
// subscription binding the student to the class.  Attendance marking
// resolves its target subscription through this lookup.
func (r *SubscriptionRepo) FindForStudentClass(ctx context.Context, studentID, classID uint64) (model.Subscription, error) {
	return r.findForStudentClass(ctx, r.db, studentID, classID)
}

// FindForStudentClassTx is FindForStudentClass inside a transaction.
func (r *SubscriptionRepo) FindForStudentClassTx(ctx context.Context, tx *sql.Tx, studentID, classID uint64) (model.Subscription, error) {
	return r.findForStudentClass(ctx, tx, studentID, classID)
}

// Create inserts a subscription and returns the stored row.  For
// counts subscriptions remaining_classes starts at total_classes.
func (r *SubscriptionRepo) Create(ctx context.Context, s *model.Subscription) (model.Subscription, error) {
	const q = `INSERT INTO subscriptions
	           (student_id, class_id, sub_type, start_date, end_date, total_classes, remaining_classes, price_paid)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	var total, remaining any
	if s.TotalClasses != nil {
		total = *s.TotalClasses
		remaining = *s.TotalClasses
	}
	res, err := r.db.ExecContext(ctx, q, s.StudentID, s.ClassID, s.Type, s.StartDate, s.EndDate, total, remaining, s.PricePaid)
	if err != nil {
		return model.Subscription{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Subscription{}, err
	}
	return r.GetByID(ctx, uint64(id))
}

// SubscriptionFilter narrows List results.  Status filtering happens
// in the handler because status is derived, not stored.
type SubscriptionFilter struct {
	ClassID      uint64
	StudentID    uint64
	ExpiringDays int    // >0: end_date within N days from today, not cancelled
	Search       string // student name substring
}

// List returns subscriptions with pauses loaded, newest first.
func (r *SubscriptionRepo) List(ctx context.Context, f SubscriptionFilter) ([]model.Subscription, error) {
	q := "SELECT " + subCols + " FROM subscriptions"
	conds := []string{}
	args := []any{}
	if f.ClassID != 0 {
		conds = append(conds, "class_id = ?")
		args = append(args, f.ClassID)
	}
	if f.StudentID != 0 {
		conds = append(conds, "student_id = ?")
		args = append(args, f.StudentID)
	}
	if f.ExpiringDays > 0 {
		conds = append(conds, "cancelled_at IS NULL AND end_date <= DATE_ADD(CURDATE(), INTERVAL ? DAY)")
		args = append(args, f.ExpiringDays)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		conds = append(conds, "student_id IN (SELECT id FROM students WHERE name LIKE ?)")
		args = append(args, "%"+s+"%")
	}
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY created_at DESC, id DESC"
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Subscription, 0)
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Pauses, err = r.loadPauses(ctx, r.db, out[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// checkVersioned runs a versioned UPDATE and maps a missed match to
// ErrVersionConflict.  Callers must have read the row first so a miss
// can only mean a concurrent writer.
func checkVersioned(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrVersionConflict
	}
	return nil
}

// UpdateRemainingTx writes a new remaining_classes value under the
// optimistic version check.
func (r *SubscriptionRepo) UpdateRemainingTx(ctx context.Context, tx *sql.Tx, id uint64, remaining uint32, version uint64) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE subscriptions SET remaining_classes = ?, version = version + 1 WHERE id = ? AND version = ?",
		remaining, id, version)
	return checkVersioned(res, err)
}

// TouchTx bumps the version without changing payload columns.  Pause
// and resume use it so that any concurrent attendance write that read
// the old pause list loses its version check.
func (r *SubscriptionRepo) TouchTx(ctx context.Context, tx *sql.Tx, id uint64, version uint64) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE subscriptions SET version = version + 1 WHERE id = ? AND version = ?", id, version)
	return checkVersioned(res, err)
}

// ExtendTx pushes the nominal end date forward by days under the
// version check.
func (r *SubscriptionRepo) ExtendTx(ctx context.Context, tx *sql.Tx, id uint64, days int, version uint64) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE subscriptions SET end_date = DATE_ADD(end_date, INTERVAL ? DAY), version = version + 1 WHERE id = ? AND version = ?",
		days, id, version)
	return checkVersioned(res, err)
}

// CancelTx marks the subscription cancelled.  Cancellation is
// terminal; repeating it is rejected by the cancelled_at IS NULL
// guard together with the version check.
func (r *SubscriptionRepo) CancelTx(ctx context.Context, tx *sql.Tx, id uint64, version uint64) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE subscriptions SET cancelled_at = NOW(), version = version + 1 WHERE id = ? AND version = ? AND cancelled_at IS NULL",
		id, version)
	return checkVersioned(res, err)
}

// InsertPauseTx appends a pause row.  A nil EndDate stores NULL,
// marking the pause open until Resume closes it.
func (r *SubscriptionRepo) InsertPauseTx(ctx context.Context, tx *sql.Tx, p *model.SubscriptionPause) error {
	var end any
	if p.EndDate != nil {
		end = *p.EndDate
	}
	res, err := tx.ExecContext(ctx,
		"INSERT INTO subscription_pauses (subscription_id, start_date, end_date, reason) VALUES (?, ?, ?, ?)",
		p.SubscriptionID, p.StartDate, end, p.Reason)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// ClosePauseTx sets the end date of an open pause.
func (r *SubscriptionRepo) ClosePauseTx(ctx context.Context, tx *sql.Tx, pauseID uint64, end time.Time) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE subscription_pauses SET end_date = ? WHERE id = ? AND end_date IS NULL", end, pauseID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

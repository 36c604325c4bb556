package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/dance-studio-admin/internal/model"
)

// MakeupRepo persists makeup-class requests.  Status transitions are
// validated by the entitlement package; the repository only guards
// against racing writers by matching the expected current status in
// the UPDATE.
type MakeupRepo struct {
	db *sql.DB
}

// NewMakeupRepo returns a new MakeupRepo bound to the given database.
func NewMakeupRepo(db *sql.DB) *MakeupRepo { return &MakeupRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions.
func (r *MakeupRepo) DB() *sql.DB { return r.db }

const makeupCols = `id, student_id, original_class_id, original_date, makeup_class_id, makeup_date,
	status, reason, created_at, updated_at`

func scanMakeup(row interface{ Scan(...any) error }) (model.MakeupRequest, error) {
	var m model.MakeupRequest
	err := row.Scan(&m.ID, &m.StudentID, &m.OriginalClassID, &m.OriginalDate,
		&m.MakeupClassID, &m.MakeupDate, &m.Status, &m.Reason, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

// Create inserts a pending makeup request and returns the stored row.
func (r *MakeupRepo) Create(ctx context.Context, m *model.MakeupRequest) (model.MakeupRequest, error) {
	const q = `INSERT INTO makeup_requests
	           (student_id, original_class_id, original_date, makeup_class_id, makeup_date, status, reason)
	           VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, m.StudentID, m.OriginalClassID, m.OriginalDate,
		m.MakeupClassID, m.MakeupDate, model.MakeupPending, m.Reason)
	if err != nil {
		return model.MakeupRequest{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.MakeupRequest{}, err
	}
	return r.GetByID(ctx, uint64(id))
}

// GetByID returns one makeup request or sql.ErrNoRows.
func (r *MakeupRepo) GetByID(ctx context.Context, id uint64) (model.MakeupRequest, error) {
	return scanMakeup(r.db.QueryRowContext(ctx,
		"SELECT "+makeupCols+" FROM makeup_requests WHERE id = ?", id))
}

// GetByIDTx is GetByID inside an existing transaction.
func (r *MakeupRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (model.MakeupRequest, error) {
	return scanMakeup(tx.QueryRowContext(ctx,
		"SELECT "+makeupCols+" FROM makeup_requests WHERE id = ?", id))
}

// UpdateStatusTx moves a request from one status to another.  The
// WHERE clause matches the status the caller validated against, so a
// concurrent transition makes this miss; the miss surfaces as
// ErrVersionConflict and the whole transaction rolls back.
func (r *MakeupRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, from, to string) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE makeup_requests SET status = ? WHERE id = ? AND status = ?", to, id, from)
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

// List returns makeup requests newest first, optionally filtered by
// status and student.
func (r *MakeupRepo) List(ctx context.Context, status string, studentID uint64) ([]model.MakeupRequest, error) {
	q := "SELECT " + makeupCols + " FROM makeup_requests"
	conds := []string{}
	args := []any{}
	if status != "" {
		conds = append(conds, "status = ?")
		args = append(args, status)
	}
	if studentID != 0 {
		conds = append(conds, "student_id = ?")
		args = append(args, studentID)
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
	out := make([]model.MakeupRequest, 0)
	for rows.Next() {
		m, err := scanMakeup(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

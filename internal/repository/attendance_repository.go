package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/dance-studio-admin/internal/model"
)

// AttendanceRepo persists attendance cells.  The (student, class,
// date) triple is unique: writes go through an INSERT ... ON DUPLICATE
// KEY UPDATE so a second mark on the same cell updates the existing
// row instead of duplicating it.
type AttendanceRepo struct {
	db *sql.DB
}

// NewAttendanceRepo returns a new AttendanceRepo bound to the given
// database.
func NewAttendanceRepo(db *sql.DB) *AttendanceRepo { return &AttendanceRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions.
func (r *AttendanceRepo) DB() *sql.DB { return r.db }

const attendanceCols = "id, student_id, class_id, date, status, memo, created_at, updated_at"

func scanAttendance(row interface{ Scan(...any) error }) (model.AttendanceRecord, error) {
	var a model.AttendanceRecord
	err := row.Scan(&a.ID, &a.StudentID, &a.ClassID, &a.Date, &a.Status, &a.Memo, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

// GetForKeyTx loads the attendance cell for a (student, class, date)
// triple inside a transaction.  The caller needs the previous status
// to compute the consumption transition before upserting.
func (r *AttendanceRepo) GetForKeyTx(ctx context.Context, tx *sql.Tx, studentID, classID uint64, date time.Time) (model.AttendanceRecord, error) {
	return scanAttendance(tx.QueryRowContext(ctx,
		"SELECT "+attendanceCols+" FROM attendance WHERE student_id = ? AND class_id = ? AND date = ?",
		studentID, classID, date))
}

// UpsertTx writes an attendance cell, updating status and memo in
// place when the key already exists, and queries the stored row back
// to populate generated columns.
func (r *AttendanceRepo) UpsertTx(ctx context.Context, tx *sql.Tx, a *model.AttendanceRecord) (model.AttendanceRecord, error) {
	const q = `INSERT INTO attendance (student_id, class_id, date, status, memo)
	           VALUES (?, ?, ?, ?, ?)
	           ON DUPLICATE KEY UPDATE status = VALUES(status), memo = VALUES(memo)`
	if _, err := tx.ExecContext(ctx, q, a.StudentID, a.ClassID, a.Date, a.Status, a.Memo); err != nil {
		return model.AttendanceRecord{}, err
	}
	// Query back the full row to populate id and timestamps.
	return r.GetForKeyTx(ctx, tx, a.StudentID, a.ClassID, a.Date)
}

// ListByClassDate returns all attendance rows for one class occurrence
// ordered by student.
func (r *AttendanceRepo) ListByClassDate(ctx context.Context, classID uint64, date time.Time) ([]model.AttendanceRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+attendanceCols+" FROM attendance WHERE class_id = ? AND date = ? ORDER BY student_id",
		classID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.AttendanceRecord, 0)
	for rows.Next() {
		a, err := scanAttendance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ListByStudent returns a student's attendance rows, optionally
// bounded by an inclusive date range, newest first.
func (r *AttendanceRepo) ListByStudent(ctx context.Context, studentID uint64, from, to time.Time) ([]model.AttendanceRecord, error) {
	q := "SELECT " + attendanceCols + " FROM attendance WHERE student_id = ?"
	args := []any{studentID}
	if !from.IsZero() {
		q += " AND date >= ?"
		args = append(args, from)
	}
	if !to.IsZero() {
		q += " AND date <= ?"
		args = append(args, to)
	}
	q += " ORDER BY date DESC, class_id"
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.AttendanceRecord, 0)
	for rows.Next() {
		a, err := scanAttendance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

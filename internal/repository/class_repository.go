package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/dance-studio-admin/internal/model"
)

// ClassRepo provides CRUD operations for dance classes and their
// weekly schedule entries.  A class's schedule rows define which
// calendar dates count as class occurrences.
type ClassRepo struct {
	db *sql.DB
}

// NewClassRepo returns a new ClassRepo bound to the given database.
func NewClassRepo(db *sql.DB) *ClassRepo { return &ClassRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions.
func (r *ClassRepo) DB() *sql.DB { return r.db }

const classCols = "id, name, instructor_id, description, difficulty, capacity, price_per_month, status, created_at, updated_at"

func scanClass(row interface{ Scan(...any) error }) (model.DanceClass, error) {
	var c model.DanceClass
	err := row.Scan(&c.ID, &c.Name, &c.InstructorID, &c.Description, &c.Difficulty,
		&c.Capacity, &c.PricePerMonth, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// Create inserts a dance class in pending status and returns the
// stored row.
func (r *ClassRepo) Create(ctx context.Context, c *model.DanceClass) (model.DanceClass, error) {
	const q = `INSERT INTO dance_classes (name, instructor_id, description, difficulty, capacity, price_per_month, status)
	           VALUES (?, ?, ?, ?, ?, ?, ?)`
	status := c.Status
	if status == "" {
		status = model.ClassPending
	}
	res, err := r.db.ExecContext(ctx, q, c.Name, c.InstructorID, c.Description, c.Difficulty, c.Capacity, c.PricePerMonth, status)
	if err != nil {
		return model.DanceClass{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.DanceClass{}, err
	}
	return r.GetByID(ctx, uint64(id))
}

// GetByID returns one class or sql.ErrNoRows.
func (r *ClassRepo) GetByID(ctx context.Context, id uint64) (model.DanceClass, error) {
	return scanClass(r.db.QueryRowContext(ctx,
		"SELECT "+classCols+" FROM dance_classes WHERE id = ?", id))
}

// List returns classes, optionally filtered by status and instructor.
func (r *ClassRepo) List(ctx context.Context, status string, instructorID uint64) ([]model.DanceClass, error) {
	q := "SELECT " + classCols + " FROM dance_classes"
	conds := []string{}
	args := []any{}
	if status != "" {
		conds = append(conds, "status = ?")
		args = append(args, status)
	}
	if instructorID != 0 {
		conds = append(conds, "instructor_id = ?")
		args = append(args, instructorID)
	}
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY name"
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.DanceClass, 0)
	for rows.Next() {
		c, err := scanClass(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Update rewrites the mutable fields of a class.
func (r *ClassRepo) Update(ctx context.Context, c *model.DanceClass) (model.DanceClass, error) {
	const q = `UPDATE dance_classes
	           SET name=?, instructor_id=?, description=?, difficulty=?, capacity=?, price_per_month=?, status=?
	           WHERE id=?`
	if _, err := r.db.ExecContext(ctx, q, c.Name, c.InstructorID, c.Description, c.Difficulty,
		c.Capacity, c.PricePerMonth, c.Status, c.ID); err != nil {
		return model.DanceClass{}, err
	}
	return r.GetByID(ctx, c.ID)
}

// Delete removes a class that has no subscriptions.  When dependent
// subscriptions exist the class must be closed instead; ErrConflict is
// returned so the handler can answer 409.
func (r *ClassRepo) Delete(ctx context.Context, id uint64) error {
	var n int
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM subscriptions WHERE class_id = ?", id).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return ErrConflict
	}
	res, err := r.db.ExecContext(ctx, "DELETE FROM dance_classes WHERE id = ?", id)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CountActiveSubscriptions returns how many non-cancelled
// subscriptions currently reference the class, used for the capacity
// figure on class detail responses.
func (r *ClassRepo) CountActiveSubscriptions(ctx context.Context, classID uint64) (uint32, error) {
	var n uint32
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM subscriptions
		 WHERE class_id = ? AND cancelled_at IS NULL AND end_date >= CURDATE()`, classID).Scan(&n)
	return n, err
}

// Schedules returns the weekly schedule entries of a class ordered by
// weekday then start time.
func (r *ClassRepo) Schedules(ctx context.Context, classID uint64) ([]model.ClassSchedule, error) {
	const q = `SELECT id, class_id, weekday, TIME_FORMAT(start_time,'%H:%i'), TIME_FORMAT(end_time,'%H:%i'), room
	           FROM class_schedules WHERE class_id = ? ORDER BY weekday, start_time`
	rows, err := r.db.QueryContext(ctx, q, classID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.ClassSchedule, 0)
	for rows.Next() {
		var s model.ClassSchedule
		if err := rows.Scan(&s.ID, &s.ClassID, &s.Weekday, &s.StartTime, &s.EndTime, &s.Room); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// AddSchedule inserts a weekly slot for a class.
func (r *ClassRepo) AddSchedule(ctx context.Context, s *model.ClassSchedule) (model.ClassSchedule, error) {
	const q = `INSERT INTO class_schedules (class_id, weekday, start_time, end_time, room) VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, s.ClassID, s.Weekday, s.StartTime, s.EndTime, s.Room)
	if err != nil {
		return model.ClassSchedule{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.ClassSchedule{}, err
	}
	s.ID = uint64(id)
	return *s, nil
}

// DeleteSchedule removes one weekly slot of a class.
func (r *ClassRepo) DeleteSchedule(ctx context.Context, classID, scheduleID uint64) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM class_schedules WHERE id = ? AND class_id = ?", scheduleID, classID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

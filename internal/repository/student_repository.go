package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/dance-studio-admin/internal/model"
)

// StudentRepo provides CRUD operations on the studio's roster of
// students.  Students are soft-deleted: DELETE flips is_active so that
// attendance and subscription history keeps valid references.
type StudentRepo struct {
	db *sql.DB
}

// NewStudentRepo returns a new StudentRepo bound to the given database.
func NewStudentRepo(db *sql.DB) *StudentRepo { return &StudentRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions.
func (r *StudentRepo) DB() *sql.DB { return r.db }

const studentCols = "id, name, gender, birth_date, phone, emergency_contact, address, note, is_active, created_at, updated_at"

func scanStudent(row interface{ Scan(...any) error }) (model.Student, error) {
	var s model.Student
	var birth sql.NullTime
	err := row.Scan(&s.ID, &s.Name, &s.Gender, &birth, &s.Phone, &s.EmergencyContact,
		&s.Address, &s.Note, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return model.Student{}, err
	}
	if birth.Valid {
		b := birth.Time
		s.BirthDate = &b
	}
	return s, nil
}

// Create inserts a student and returns the stored row, populated with
// generated ID and timestamps.
func (r *StudentRepo) Create(ctx context.Context, s *model.Student) (model.Student, error) {
	const q = `INSERT INTO students (name, gender, birth_date, phone, emergency_contact, address, note)
	           VALUES (?, ?, ?, ?, ?, ?, ?)`
	var birth any
	if s.BirthDate != nil {
		birth = *s.BirthDate
	}
	res, err := r.db.ExecContext(ctx, q, s.Name, s.Gender, birth, s.Phone, s.EmergencyContact, s.Address, s.Note)
	if err != nil {
		return model.Student{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Student{}, err
	}
	return r.GetByID(ctx, uint64(id))
}

// GetByID returns one student, including retired ones, or sql.ErrNoRows.
func (r *StudentRepo) GetByID(ctx context.Context, id uint64) (model.Student, error) {
	return scanStudent(r.db.QueryRowContext(ctx,
		"SELECT "+studentCols+" FROM students WHERE id = ?", id))
}

// List returns students ordered by name.  search filters by name
// substring; includeInactive also returns soft-deleted rows.
func (r *StudentRepo) List(ctx context.Context, search string, includeInactive bool) ([]model.Student, error) {
	q := "SELECT " + studentCols + " FROM students"
	conds := []string{}
	args := []any{}
	if !includeInactive {
		conds = append(conds, "is_active = 1")
	}
	if search = strings.TrimSpace(search); search != "" {
		conds = append(conds, "name LIKE ?")
		args = append(args, "%"+search+"%")
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
	out := make([]model.Student, 0)
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Update rewrites the mutable profile fields of a student.
func (r *StudentRepo) Update(ctx context.Context, s *model.Student) (model.Student, error) {
	const q = `UPDATE students
	           SET name=?, gender=?, birth_date=?, phone=?, emergency_contact=?, address=?, note=?
	           WHERE id=?`
	var birth any
	if s.BirthDate != nil {
		birth = *s.BirthDate
	}
	res, err := r.db.ExecContext(ctx, q, s.Name, s.Gender, birth, s.Phone, s.EmergencyContact, s.Address, s.Note, s.ID)
	if err != nil {
		return model.Student{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Either missing or unchanged; distinguish by reloading.
		if _, err := r.GetByID(ctx, s.ID); err != nil {
			return model.Student{}, err
		}
	}
	return r.GetByID(ctx, s.ID)
}

// SoftDelete retires a student.  The row stays for history.
func (r *StudentRepo) SoftDelete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "UPDATE students SET is_active = 0 WHERE id = ? AND is_active = 1", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		// Already inactive: treat as success, the operation is idempotent.
	}
	return nil
}

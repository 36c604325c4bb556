package repository

import (
	"context"
	"database/sql"
	"time"
)

// StatsRepo aggregates revenue and engagement figures straight in
// SQL.  Results feed the admin dashboard; none of these queries
// mutate state.
type StatsRepo struct {
	db *sql.DB
}

// NewStatsRepo returns a new StatsRepo bound to the given database.
func NewStatsRepo(db *sql.DB) *StatsRepo { return &StatsRepo{db: db} }

// TypeRevenue is revenue attributed to one subscription type.
type TypeRevenue struct {
	Type          string `json:"type"`
	Revenue       uint64 `json:"revenue"`
	Subscriptions uint32 `json:"subscriptions"`
}

// RevenueSummary aggregates purchases over an optional creation-date
// range.
type RevenueSummary struct {
	TotalRevenue        uint64        `json:"total_revenue"`
	TotalSubscriptions  uint32        `json:"total_subscriptions"`
	ActiveSubscriptions uint32        `json:"active_subscriptions"`
	ByType              []TypeRevenue `json:"by_type"`
}

// Revenue returns purchase totals between from and to (zero values
// drop the bound).  The active count approximates the status resolver
// in SQL: not cancelled, today inside the pause-extended window, and
// for counts subscriptions at least one class left.
func (r *StatsRepo) Revenue(ctx context.Context, from, to time.Time) (RevenueSummary, error) {
	var sum RevenueSummary
	cond := " WHERE 1=1"
	args := []any{}
	if !from.IsZero() {
		cond += " AND created_at >= ?"
		args = append(args, from)
	}
	if !to.IsZero() {
		cond += " AND created_at <= ?"
		args = append(args, to)
	}
	err := r.db.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(price_paid),0), COUNT(*) FROM subscriptions"+cond, args...).
		Scan(&sum.TotalRevenue, &sum.TotalSubscriptions)
	if err != nil {
		return RevenueSummary{}, err
	}

	const activeQ = `SELECT COUNT(*)
	  FROM subscriptions s
	  LEFT JOIN (
	    SELECT subscription_id, SUM(DATEDIFF(COALESCE(end_date, CURDATE()), start_date)) AS paused_days
	    FROM subscription_pauses GROUP BY subscription_id
	  ) p ON p.subscription_id = s.id
	  WHERE s.cancelled_at IS NULL
	    AND CURDATE() >= s.start_date
	    AND CURDATE() <= DATE_ADD(s.end_date, INTERVAL COALESCE(p.paused_days, 0) DAY)
	    AND (s.sub_type = 'days' OR COALESCE(s.remaining_classes, 1) > 0)`
	if err := r.db.QueryRowContext(ctx, activeQ).Scan(&sum.ActiveSubscriptions); err != nil {
		return RevenueSummary{}, err
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT sub_type, COALESCE(SUM(price_paid),0), COUNT(*) FROM subscriptions"+cond+" GROUP BY sub_type", args...)
	if err != nil {
		return RevenueSummary{}, err
	}
	defer rows.Close()
	sum.ByType = make([]TypeRevenue, 0, 2)
	for rows.Next() {
		var t TypeRevenue
		if err := rows.Scan(&t.Type, &t.Revenue, &t.Subscriptions); err != nil {
			return RevenueSummary{}, err
		}
		sum.ByType = append(sum.ByType, t)
	}
	return sum, rows.Err()
}

// MonthRevenue is one month of purchase totals.
type MonthRevenue struct {
	Month         string `json:"month"` // "2024-01"
	Revenue       uint64 `json:"revenue"`
	Subscriptions uint32 `json:"subscriptions"`
}

// MonthlyRevenue buckets purchases by calendar month.  year filters to
// one year when non-zero.
func (r *StatsRepo) MonthlyRevenue(ctx context.Context, year int) ([]MonthRevenue, error) {
	q := `SELECT DATE_FORMAT(created_at, '%Y-%m'), COALESCE(SUM(price_paid),0), COUNT(*) FROM subscriptions`
	args := []any{}
	if year != 0 {
		q += " WHERE YEAR(created_at) = ?"
		args = append(args, year)
	}
	q += " GROUP BY DATE_FORMAT(created_at, '%Y-%m') ORDER BY 1"
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]MonthRevenue, 0)
	for rows.Next() {
		var m MonthRevenue
		if err := rows.Scan(&m.Month, &m.Revenue, &m.Subscriptions); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// AttendanceBreakdown is a per-status count plus the attendance rate:
// consuming marks (present, late, makeup) over all marks.
type AttendanceBreakdown struct {
	Total    uint32            `json:"total"`
	ByStatus map[string]uint32 `json:"by_status"`
	Rate     float64           `json:"rate"`
}

func (r *StatsRepo) attendanceBreakdown(ctx context.Context, cond string, args []any) (AttendanceBreakdown, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT status, COUNT(*) FROM attendance"+cond+" GROUP BY status", args...)
	if err != nil {
		return AttendanceBreakdown{}, err
	}
	defer rows.Close()
	bd := AttendanceBreakdown{ByStatus: map[string]uint32{}}
	consuming := uint32(0)
	for rows.Next() {
		var status string
		var n uint32
		if err := rows.Scan(&status, &n); err != nil {
			return AttendanceBreakdown{}, err
		}
		bd.ByStatus[status] = n
		bd.Total += n
		switch status {
		case "present", "late", "makeup":
			consuming += n
		}
	}
	if err := rows.Err(); err != nil {
		return AttendanceBreakdown{}, err
	}
	if bd.Total > 0 {
		bd.Rate = float64(consuming) / float64(bd.Total)
	}
	return bd, nil
}

func dateRangeCond(cond string, args []any, from, to time.Time) (string, []any) {
	if !from.IsZero() {
		cond += " AND date >= ?"
		args = append(args, from)
	}
	if !to.IsZero() {
		cond += " AND date <= ?"
		args = append(args, to)
	}
	return cond, args
}

// ClassAttendance returns the attendance breakdown of one class over
// an optional date range.
func (r *StatsRepo) ClassAttendance(ctx context.Context, classID uint64, from, to time.Time) (AttendanceBreakdown, error) {
	cond, args := dateRangeCond(" WHERE class_id = ?", []any{classID}, from, to)
	return r.attendanceBreakdown(ctx, cond, args)
}

// StudentAttendance returns the attendance breakdown of one student
// over an optional date range.
func (r *StatsRepo) StudentAttendance(ctx context.Context, studentID uint64, from, to time.Time) (AttendanceBreakdown, error) {
	cond, args := dateRangeCond(" WHERE student_id = ?", []any{studentID}, from, to)
	return r.attendanceBreakdown(ctx, cond, args)
}

// InstructorAttendance rolls up attendance over every class taught by
// one instructor.
func (r *StatsRepo) InstructorAttendance(ctx context.Context, instructorID uint64, from, to time.Time) (AttendanceBreakdown, error) {
	cond, args := dateRangeCond(
		" WHERE class_id IN (SELECT id FROM dance_classes WHERE instructor_id = ?)",
		[]any{instructorID}, from, to)
	return r.attendanceBreakdown(ctx, cond, args)
}

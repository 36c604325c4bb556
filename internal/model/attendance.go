package model

import "time"

// Attendance statuses.  present, late and makeup occupy a class slot
// and therefore consume count-based entitlement; absent and excused do
// not.
const (
	AttendancePresent = "present"
	AttendanceLate    = "late"
	AttendanceAbsent  = "absent"
	AttendanceExcused = "excused"
	AttendanceMakeup  = "makeup"
)

// AttendanceRecord is one attendance cell as stored in the
// `attendance` table.  The (StudentID, ClassID, Date) triple is unique;
// marking the same cell twice updates the existing row rather than
// inserting a second one.
//
// Fields:
//  ID        – primary key identifier.
//  StudentID – student the mark is for.
//  ClassID   – dance class the mark is for.
//  Date      – class occurrence date (DATE, UTC midnight).
//  Status    – one of present, late, absent, excused, makeup.
//  Memo      – optional instructor note.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type AttendanceRecord struct {
	ID        uint64    `json:"id"`
	StudentID uint64    `json:"student_id"`
	ClassID   uint64    `json:"class_id"`
	Date      time.Time `json:"date"`
	Status    string    `json:"status"`
	Memo      string    `json:"memo"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ValidAttendanceStatus reports whether s is one of the five known
// attendance statuses.
func ValidAttendanceStatus(s string) bool {
	switch s {
	case AttendancePresent, AttendanceLate, AttendanceAbsent, AttendanceExcused, AttendanceMakeup:
		return true
	}
	return false
}

package model

import "time"

// Makeup request states.  pending may move to approved or rejected,
// approved may move to completed or cancelled, pending may also be
// cancelled directly.  completed, rejected and cancelled are terminal.
const (
	MakeupPending   = "pending"
	MakeupApproved  = "approved"
	MakeupRejected  = "rejected"
	MakeupCompleted = "completed"
	MakeupCancelled = "cancelled"
)

// MakeupRequest tracks a student's request to attend a substitute
// class occurrence in place of a missed one, as stored in the
// `makeup_requests` table.  Completing an approved request posts an
// AttendanceRecord with status makeup at the target (class, date); the
// original occurrence keeps its non-consuming status so the student is
// charged exactly once.
//
// Fields:
//  ID              – primary key identifier.
//  StudentID       – requesting student.
//  OriginalClassID – class of the missed occurrence.
//  OriginalDate    – date of the missed occurrence.
//  MakeupClassID   – class to attend instead.
//  MakeupDate      – date to attend instead.
//  Status          – workflow state, see constants above.
//  Reason          – free-form reason for the request.
type MakeupRequest struct {
	ID              uint64    `json:"id"`
	StudentID       uint64    `json:"student_id"`
	OriginalClassID uint64    `json:"original_class_id"`
	OriginalDate    time.Time `json:"original_date"`
	MakeupClassID   uint64    `json:"makeup_class_id"`
	MakeupDate      time.Time `json:"makeup_date"`
	Status          string    `json:"status"`
	Reason          string    `json:"reason"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

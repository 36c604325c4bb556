package model

import "time"

// Dance class lifecycle states.  A class starts out pending while the
// studio prepares it, becomes active once it accepts subscriptions,
// and is closed when it stops running.
const (
	ClassPending = "pending"
	ClassActive  = "active"
	ClassClosed  = "closed"
)

// DanceClass represents a recurring class offered by the studio as
// stored in the `dance_classes` table.  The weekly ClassSchedule rows
// attached to a class define which calendar dates count as class
// occurrences for attendance purposes.
//
// Fields:
//  ID            – primary key identifier.
//  Name          – class name shown to students.
//  InstructorID  – user account of the instructor teaching the class.
//  Description   – free-form description.
//  Difficulty    – beginner, intermediate or advanced.
//  Capacity      – maximum number of concurrently active subscriptions.
//  PricePerMonth – monthly fee in the studio's currency minor unit.
//  Status        – one of pending, active, closed.
//  CreatedAt     – creation timestamp.
//  UpdatedAt     – last update timestamp.
type DanceClass struct {
	ID            uint64    `json:"id"`
	Name          string    `json:"name"`
	InstructorID  uint64    `json:"instructor_id"`
	Description   string    `json:"description"`
	Difficulty    string    `json:"difficulty"`
	Capacity      uint32    `json:"capacity"`
	PricePerMonth uint32    `json:"price_per_month"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ClassSchedule is one weekly recurring slot of a dance class as
// stored in the `class_schedules` table.  Weekday follows time.Weekday
// numbering (0 = Sunday).  Times are wall-clock strings in "15:04"
// form; the studio operates in a single local time zone so no offset
// is stored.
//
// Fields:
//  ID        – primary key identifier.
//  ClassID   – owning dance class.
//  Weekday   – day of week the slot repeats on.
//  StartTime – slot start, "HH:MM".
//  EndTime   – slot end, "HH:MM" (after StartTime).
//  Room      – practice room name.
type ClassSchedule struct {
	ID        uint64 `json:"id"`
	ClassID   uint64 `json:"class_id"`
	Weekday   uint8  `json:"weekday"`
	StartTime string `json:"start_time"` // "HH:MM"
	EndTime   string `json:"end_time"`   // "HH:MM"
	Room      string `json:"room"`
}

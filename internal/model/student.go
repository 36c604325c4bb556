package model

import "time"

// Student is a person enrolled at the studio as stored in the
// `students` table.  Students are never hard-deleted; retiring a
// student flips IsActive to false so that historic attendance and
// subscription rows keep a valid reference.
//
// Fields:
//  ID               – primary key identifier.
//  Name             – display name.
//  Gender           – free-form gender string ("female", "male", ...).
//  BirthDate        – date of birth (nullable).
//  Phone            – contact phone number.
//  EmergencyContact – phone number to call in an emergency.
//  Address          – postal address.
//  Note             – free-form admin note.
//  IsActive         – soft-delete flag.
//  CreatedAt        – creation timestamp.
//  UpdatedAt        – last update timestamp.
type Student struct {
	ID               uint64     `json:"id"`
	Name             string     `json:"name"`
	Gender           string     `json:"gender"`
	BirthDate        *time.Time `json:"birth_date"` // nullable DATE
	Phone            string     `json:"phone"`
	EmergencyContact string     `json:"emergency_contact"`
	Address          string     `json:"address"`
	Note             string     `json:"note"`
	IsActive         bool       `json:"is_active"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

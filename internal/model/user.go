package model

import "time"

// Roles recognised by the API.  The role is embedded in the JWT "role"
// claim at login and enforced by the RequireRole middleware.  ADMIN is
// the studio staff account, INSTRUCTOR teaches classes and may mark
// attendance, STUDENT is the default for new registrations.
const (
	RoleAdmin      = "ADMIN"
	RoleInstructor = "INSTRUCTOR"
	RoleStudent    = "STUDENT"
)

// User represents an application account as stored in the `users`
// table.  Accounts are separate from roster Student records: a Student
// row describes a person enrolled at the studio, a User row is a login.
//
// Fields:
//  ID           – primary key identifier.
//  Email        – unique email address.
//  PasswordHash – bcrypt hashed password.
//  Role         – one of ADMIN, INSTRUCTOR, STUDENT.
//  IsActive     – whether the account may log in.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	Role         string    // users.role
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

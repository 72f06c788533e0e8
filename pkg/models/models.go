package models

import "time"

// Domain models matching the database schema in db/migrations/0001_init.sql

// Status is the application pipeline stage of a job record.
type Status string

const (
	StatusApplied   Status = "applied"
	StatusInterview Status = "interview"
	StatusOffer     Status = "offer"
	StatusRejected  Status = "rejected"
)

// Valid reports whether s is one of the known pipeline stages.
func (s Status) Valid() bool {
	switch s {
	case StatusApplied, StatusInterview, StatusOffer, StatusRejected:
		return true
	}
	return false
}

type User struct {
	ID           int64  `json:"id" db:"id"`
	Name         string `json:"name" db:"name"`
	Email        string `json:"email" db:"email"`
	Created      int64  `json:"created" db:"created"`
	PasswordHash string `json:"-" db:"password_hash"`
}

// JobRecord is a single job application owned by one user. Resume holds the
// storage reference of the attached file, empty when none was uploaded.
type JobRecord struct {
	ID            string     `json:"id" db:"id"`
	OwnerID       int64      `json:"user" db:"owner_id"`
	Company       string     `json:"company" db:"company"`
	Role          string     `json:"role" db:"role"`
	Status        Status     `json:"status" db:"status"`
	AppliedDate   time.Time  `json:"appliedDate" db:"applied_date"`
	InterviewDate *time.Time `json:"interviewDate,omitempty" db:"interview_date"`
	Notes         string     `json:"notes,omitempty" db:"notes"`
	Contact       string     `json:"contact,omitempty" db:"contact"`
	Source        string     `json:"source,omitempty" db:"source"`
	Resume        string     `json:"resume,omitempty" db:"resume"`
	LastUpdated   time.Time  `json:"lastUpdated" db:"last_updated"`
}

// Stats counts a user's job records per pipeline stage. Total counts every
// record regardless of status, so a row carrying a historical status outside
// the enum shows up in Total but in none of the buckets.
type Stats struct {
	Applied   int64 `json:"applied"`
	Interview int64 `json:"interview"`
	Offer     int64 `json:"offer"`
	Rejected  int64 `json:"rejected"`
	Total     int64 `json:"total"`
}

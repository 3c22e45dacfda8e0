package model

import "time"

type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
)

func (r Role) Valid() bool {
	return r == RolePatient || r == RoleDoctor
}

type User struct {
	ID             string
	FullName       string
	Username       string
	Email          string
	PasswordHash   string
	Role           Role
	Specialization string // doctors only
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Doctor is the directory view of a doctor account.
type Doctor struct {
	ID             string `json:"id"`
	FullName       string `json:"full_name"`
	Specialization string `json:"specialization"`
}

// Party is the other side of an appointment as shown in listings.
type Party struct {
	ID             string
	FullName       string
	Email          string
	Specialization string
}

type Appointment struct {
	ID        string
	PatientID string
	DoctorID  string
	Date      time.Time // midnight UTC of the calendar date
	TimeFrom  Clock
	TimeTo    Clock
	Comments  string
	CreatedAt time.Time
	UpdatedAt time.Time

	// filled by list/get reads, not stored
	Patient *Party
	Doctor  *Party
}

type RefreshToken struct {
	ID         string
	UserID     string
	TokenHash  string
	ExpiresAt  time.Time
	Revoked    bool
	ReplacedBy *string
	CreatedAt  time.Time
}

package scheduling

import (
	"context"

	"appointment-scheduler/internal/model"
)

// Store is the durable side of the engine. Implementations must run the
// overlap check and the write of InsertIfNoOverlap/UpdateIfNoOverlap as one
// atomic unit.
type Store interface {
	// InsertIfNoOverlap returns model.ErrDoctorNotFound if DoctorID is not a
	// doctor and model.ErrOverlap if another appointment collides.
	InsertIfNoOverlap(ctx context.Context, a *model.Appointment) error
	// UpdateIfNoOverlap replaces date, times, doctor and comments of the
	// appointment owned by a.PatientID. Returns model.ErrNoRecord when no such
	// appointment exists.
	UpdateIfNoOverlap(ctx context.Context, a *model.Appointment) error
	Appointment(ctx context.Context, id string) (*model.Appointment, error)
	// DeleteAppointment removes id if it belongs to patientID.
	DeleteAppointment(ctx context.Context, id, patientID string) error
	AppointmentsByPatient(ctx context.Context, patientID string) ([]model.Appointment, error)
	AppointmentsByDoctor(ctx context.Context, doctorID string) ([]model.Appointment, error)
}

// Directory resolves doctor ids.
type Directory interface {
	Doctor(ctx context.Context, id string) (*model.Doctor, error)
}

package scheduling

import "appointment-scheduler/internal/model"

// Caller is the verified identity attached to a request.
type Caller struct {
	UserID string
	Role   model.Role
}

func (c Caller) IsPatient() bool { return c.Role == model.RolePatient && c.UserID != "" }
func (c Caller) IsDoctor() bool  { return c.Role == model.RoleDoctor && c.UserID != "" }

// CanWrite: only the owning patient may change or delete an appointment.
func CanWrite(c Caller, a *model.Appointment) bool {
	return c.IsPatient() && a.PatientID == c.UserID
}

// CanRead: the owning patient or the assigned doctor.
func CanRead(c Caller, a *model.Appointment) bool {
	if CanWrite(c, a) {
		return true
	}
	return c.IsDoctor() && a.DoctorID == c.UserID
}

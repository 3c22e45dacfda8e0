package scheduling

import "appointment-scheduler/internal/model"

// Overlaps reports whether [aFrom, aTo) and [bFrom, bTo) intersect.
// Adjacent intervals (aTo == bFrom) do not overlap.
func Overlaps(aFrom, aTo, bFrom, bTo model.Clock) bool {
	return aFrom < bTo && bFrom < aTo
}

// Collides reports whether a and b book the same doctor on the same date with
// overlapping times. An appointment never collides with itself.
func Collides(a, b *model.Appointment) bool {
	if a.ID != "" && a.ID == b.ID {
		return false
	}
	if a.DoctorID != b.DoctorID || !a.Date.Equal(b.Date) {
		return false
	}
	return Overlaps(a.TimeFrom, a.TimeTo, b.TimeFrom, b.TimeTo)
}

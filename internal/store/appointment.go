package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"appointment-scheduler/internal/model"
)

// InsertIfNoOverlap serializes bookings per doctor by locking the doctor's
// user row, so the overlap check and the insert see the same schedule. The
// exclusion constraint on appointments still rejects anything that slips by.
func (s *Store) InsertIfNoOverlap(ctx context.Context, a *model.Appointment) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := lockDoctor(ctx, tx, a.DoctorID); err != nil {
		return err
	}
	if err := checkOverlap(ctx, tx, a); err != nil {
		return err
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO appointments (id, patient_id, doctor_id, appt_date, time_from, time_to, comments)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)
		 RETURNING created_at, updated_at`,
		a.ID, a.PatientID, a.DoctorID, a.Date, pgTime(a.TimeFrom), pgTime(a.TimeTo), a.Comments,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return mapErr(err)
	}
	return mapErr(tx.Commit(ctx))
}

func (s *Store) UpdateIfNoOverlap(ctx context.Context, a *model.Appointment) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var owner string
	err = tx.QueryRow(ctx,
		`SELECT patient_id FROM appointments WHERE id = $1 FOR UPDATE`, a.ID,
	).Scan(&owner)
	if err != nil {
		return mapErr(err)
	}
	if owner != a.PatientID {
		return model.ErrNoRecord
	}

	if err := lockDoctor(ctx, tx, a.DoctorID); err != nil {
		return err
	}
	if err := checkOverlap(ctx, tx, a); err != nil {
		return err
	}

	err = tx.QueryRow(ctx,
		`UPDATE appointments
		 SET doctor_id=$1, appt_date=$2, time_from=$3, time_to=$4, comments=$5, updated_at=NOW()
		 WHERE id=$6
		 RETURNING updated_at`,
		a.DoctorID, a.Date, pgTime(a.TimeFrom), pgTime(a.TimeTo), a.Comments, a.ID,
	).Scan(&a.UpdatedAt)
	if err != nil {
		return mapErr(err)
	}
	return mapErr(tx.Commit(ctx))
}

func lockDoctor(ctx context.Context, tx pgx.Tx, doctorID string) error {
	var id string
	err := tx.QueryRow(ctx,
		`SELECT id FROM users WHERE id = $1 AND role = 'doctor' FOR UPDATE`, doctorID,
	).Scan(&id)
	if err == pgx.ErrNoRows {
		return model.ErrDoctorNotFound
	}
	return mapErr(err)
}

func checkOverlap(ctx context.Context, tx pgx.Tx, a *model.Appointment) error {
	var exists bool
	err := tx.QueryRow(ctx,
		`SELECT EXISTS(
			SELECT 1 FROM appointments
			WHERE doctor_id = $1
			  AND appt_date = $2
			  AND time_from < $4
			  AND time_to > $3
			  AND id <> $5)`,
		a.DoctorID, a.Date, pgTime(a.TimeFrom), pgTime(a.TimeTo), a.ID,
	).Scan(&exists)
	if err != nil {
		return mapErr(err)
	}
	if exists {
		return model.ErrOverlap
	}
	return nil
}

const apptSelect = `
SELECT a.id, a.patient_id, a.doctor_id, a.appt_date, a.time_from, a.time_to,
       a.comments, a.created_at, a.updated_at,
       p.full_name, p.email, d.full_name, d.email, d.specialization
FROM appointments a
JOIN users p ON p.id = a.patient_id
JOIN users d ON d.id = a.doctor_id`

func (s *Store) Appointment(ctx context.Context, id string) (*model.Appointment, error) {
	a, err := scanAppointment(s.pool.QueryRow(ctx, apptSelect+` WHERE a.id = $1`, id))
	if err != nil {
		return nil, mapErr(err)
	}
	return a, nil
}

func (s *Store) DeleteAppointment(ctx context.Context, id, patientID string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM appointments WHERE id=$1 AND patient_id=$2`, id, patientID,
	)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNoRecord
	}
	return nil
}

func (s *Store) AppointmentsByPatient(ctx context.Context, patientID string) ([]model.Appointment, error) {
	return s.list(ctx, apptSelect+` WHERE a.patient_id = $1 ORDER BY a.appt_date, a.time_from, a.id`, patientID)
}

func (s *Store) AppointmentsByDoctor(ctx context.Context, doctorID string) ([]model.Appointment, error) {
	return s.list(ctx, apptSelect+` WHERE a.doctor_id = $1 ORDER BY a.appt_date, a.time_from, a.id`, doctorID)
}

func (s *Store) list(ctx context.Context, q, arg string) ([]model.Appointment, error) {
	rows, err := s.pool.Query(ctx, q, arg)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []model.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func scanAppointment(row pgx.Row) (*model.Appointment, error) {
	var (
		a        model.Appointment
		p, d     model.Party
		from, to pgtype.Time
		date     time.Time
	)
	err := row.Scan(
		&a.ID, &a.PatientID, &a.DoctorID, &date, &from, &to,
		&a.Comments, &a.CreatedAt, &a.UpdatedAt,
		&p.FullName, &p.Email, &d.FullName, &d.Email, &d.Specialization,
	)
	if err != nil {
		return nil, err
	}
	a.Date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	a.TimeFrom = clockOf(from)
	a.TimeTo = clockOf(to)
	p.ID, d.ID = a.PatientID, a.DoctorID
	a.Patient, a.Doctor = &p, &d
	return &a, nil
}

func pgTime(c model.Clock) pgtype.Time {
	return pgtype.Time{Microseconds: c.Duration().Microseconds(), Valid: true}
}

func clockOf(t pgtype.Time) model.Clock {
	return model.ClockFromDuration(time.Duration(t.Microseconds) * time.Microsecond)
}

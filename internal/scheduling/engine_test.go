package scheduling_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"appointment-scheduler/internal/memstore"
	"appointment-scheduler/internal/model"
	"appointment-scheduler/internal/scheduling"
)

// fixed "now": one month before the dates used below
var testNow = time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	st      *memstore.Store
	eng     *scheduling.Engine
	doctor  scheduling.Caller
	doctor2 scheduling.Caller
	patient scheduling.Caller
	other   scheduling.Caller
}

func setup(t *testing.T, opts ...scheduling.Option) *fixture {
	t.Helper()
	st := memstore.New()
	f := &fixture{st: st}
	f.doctor = addUser(t, st, "dr-a", model.RoleDoctor, "Cardiologist")
	f.doctor2 = addUser(t, st, "dr-b", model.RoleDoctor, "Neurologist")
	f.patient = addUser(t, st, "pat-p", model.RolePatient, "")
	f.other = addUser(t, st, "pat-q", model.RolePatient, "")

	opts = append([]scheduling.Option{scheduling.WithClock(func() time.Time { return testNow })}, opts...)
	f.eng = scheduling.NewEngine(st, st, nil, opts...)
	return f
}

func addUser(t *testing.T, st *memstore.Store, name string, role model.Role, spec string) scheduling.Caller {
	t.Helper()
	u := &model.User{
		ID:             "id-" + name,
		FullName:       "Full " + name,
		Username:       name,
		Email:          name + "@test.com",
		PasswordHash:   "x",
		Role:           role,
		Specialization: spec,
	}
	if err := st.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return scheduling.Caller{UserID: u.ID, Role: role}
}

func req(date, from, to, doctorID string) scheduling.Request {
	return scheduling.Request{Date: date, TimeFrom: from, TimeTo: to, DoctorID: doctorID}
}

func mustCreate(t *testing.T, f *fixture, c scheduling.Caller, r scheduling.Request) *model.Appointment {
	t.Helper()
	a, err := f.eng.CreateAppointment(context.Background(), c, r)
	if err != nil {
		t.Fatalf("create appointment: %v", err)
	}
	return a
}

func wantKind(t *testing.T, err error, k scheduling.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", k)
	}
	if got := scheduling.KindOf(err); got != k {
		t.Fatalf("expected %s, got %s (%v)", k, got, err)
	}
}

// ----- create -----

func TestCreateAppointment(t *testing.T) {
	f := setup(t)
	r := req("2024-03-01", "09:00", "09:30", f.doctor.UserID)
	r.Comments = "checkup"

	a := mustCreate(t, f, f.patient, r)
	if a.ID == "" {
		t.Fatal("empty id")
	}
	if a.PatientID != f.patient.UserID {
		t.Errorf("patient id: got %s", a.PatientID)
	}
	if a.TimeFrom.String() != "09:00" || a.TimeTo.String() != "09:30" {
		t.Errorf("times: %s-%s", a.TimeFrom, a.TimeTo)
	}
	if model.FormatDate(a.Date) != "2024-03-01" {
		t.Errorf("date: %s", model.FormatDate(a.Date))
	}
	if a.Comments != "checkup" {
		t.Errorf("comments: %q", a.Comments)
	}
}

func TestCreateAppointmentValidation(t *testing.T) {
	f := setup(t)
	doc := f.doctor.UserID

	tests := []struct {
		name string
		r    scheduling.Request
	}{
		{"missing date", req("", "09:00", "10:00", doc)},
		{"missing from", req("2024-03-01", "", "10:00", doc)},
		{"missing to", req("2024-03-01", "09:00", "", doc)},
		{"missing doctor", req("2024-03-01", "09:00", "10:00", "")},
		{"bad date", req("2024-13-01", "09:00", "10:00", doc)},
		{"bad time", req("2024-03-01", "9am", "10:00", doc)},
		{"equal times", req("2024-03-01", "10:00", "10:00", doc)},
		{"end before start", req("2024-03-01", "10:00", "09:00", doc)},
		{"past date", req("2024-01-31", "09:00", "10:00", doc)},
		{"long comment", scheduling.Request{
			Date: "2024-03-01", TimeFrom: "09:00", TimeTo: "10:00", DoctorID: doc,
			Comments: strings.Repeat("x", 1001),
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.eng.CreateAppointment(context.Background(), f.patient, tt.r)
			wantKind(t, err, scheduling.KindValidation)
		})
	}
}

func TestCreateAppointmentToday(t *testing.T) {
	f := setup(t)
	mustCreate(t, f, f.patient, req("2024-02-01", "15:00", "15:30", f.doctor.UserID))
}

func TestCreateAppointmentTodayUsesCanonicalZone(t *testing.T) {
	// 12:00 UTC on Feb 1 is already Feb 2 at UTC+14
	f := setup(t, scheduling.WithLocation(time.FixedZone("UTC+14", 14*3600)))
	_, err := f.eng.CreateAppointment(context.Background(), f.patient, req("2024-02-01", "15:00", "15:30", f.doctor.UserID))
	wantKind(t, err, scheduling.KindValidation)
}

func TestInvertedTimesAlwaysValidation(t *testing.T) {
	f := setup(t)
	// independent of caller role and doctor existence
	callers := []scheduling.Caller{f.patient, f.doctor, {}}
	for _, c := range callers {
		for _, doc := range []string{f.doctor.UserID, "nope"} {
			_, err := f.eng.CreateAppointment(context.Background(), c, req("2024-03-01", "11:00", "10:00", doc))
			wantKind(t, err, scheduling.KindValidation)
		}
	}
}

func TestCreateAppointmentDoctorCaller(t *testing.T) {
	f := setup(t)
	_, err := f.eng.CreateAppointment(context.Background(), f.doctor, req("2024-03-01", "09:00", "10:00", f.doctor2.UserID))
	wantKind(t, err, scheduling.KindForbidden)
}

func TestCreateAppointmentUnknownDoctor(t *testing.T) {
	f := setup(t)
	_, err := f.eng.CreateAppointment(context.Background(), f.patient, req("2024-03-01", "09:00", "10:00", "missing"))
	wantKind(t, err, scheduling.KindNotFound)

	// a patient id is not a doctor
	_, err = f.eng.CreateAppointment(context.Background(), f.patient, req("2024-03-01", "09:00", "10:00", f.other.UserID))
	wantKind(t, err, scheduling.KindNotFound)
}

func TestOverlapScenario(t *testing.T) {
	f := setup(t)
	doc := f.doctor.UserID
	mustCreate(t, f, f.patient, req("2024-03-01", "09:00", "09:30", doc))

	_, err := f.eng.CreateAppointment(context.Background(), f.other, req("2024-03-01", "09:15", "09:45", doc))
	wantKind(t, err, scheduling.KindConflict)

	// adjacent slot is free
	mustCreate(t, f, f.other, req("2024-03-01", "09:30", "10:00", doc))
}

func TestOverlapCases(t *testing.T) {
	f := setup(t)
	doc := f.doctor.UserID
	mustCreate(t, f, f.patient, req("2024-03-01", "10:00", "11:00", doc))

	conflicts := []struct{ from, to string }{
		{"10:00", "11:00"}, // same
		{"09:30", "10:30"}, // start inside
		{"10:30", "11:30"}, // end inside
		{"10:15", "10:45"}, // contained
		{"09:00", "12:00"}, // containing
	}
	for _, c := range conflicts {
		_, err := f.eng.CreateAppointment(context.Background(), f.other, req("2024-03-01", c.from, c.to, doc))
		wantKind(t, err, scheduling.KindConflict)
	}

	// before, after, other date, other doctor
	mustCreate(t, f, f.other, req("2024-03-01", "09:00", "10:00", doc))
	mustCreate(t, f, f.other, req("2024-03-01", "11:00", "11:15", doc))
	mustCreate(t, f, f.other, req("2024-03-02", "10:00", "11:00", doc))
	mustCreate(t, f, f.other, req("2024-03-01", "10:00", "11:00", f.doctor2.UserID))
}

func TestConcurrentBooking(t *testing.T) {
	f := setup(t)
	const n = 20
	var wg sync.WaitGroup
	results := make(chan error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// staggered but all overlapping 10:00-10:30
			from := fmt.Sprintf("10:%02d", i%10)
			_, err := f.eng.CreateAppointment(context.Background(), f.patient, req("2024-03-01", from, "10:30", f.doctor.UserID))
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	successes, conflicts := 0, 0
	for err := range results {
		switch {
		case err == nil:
			successes++
		case scheduling.KindOf(err) == scheduling.KindConflict:
			conflicts++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if successes != 1 {
		t.Errorf("expected exactly 1 success, got %d", successes)
	}
	if conflicts != n-1 {
		t.Errorf("expected %d conflicts, got %d", n-1, conflicts)
	}
}

// ----- list -----

func TestListAppointmentsForPatient(t *testing.T) {
	f := setup(t)
	b := mustCreate(t, f, f.patient, req("2024-03-02", "09:00", "10:00", f.doctor.UserID))
	a := mustCreate(t, f, f.patient, req("2024-03-01", "11:00", "12:00", f.doctor2.UserID))
	mustCreate(t, f, f.other, req("2024-03-01", "09:00", "10:00", f.doctor.UserID))

	list, err := f.eng.ListAppointmentsForPatient(context.Background(), f.patient)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 appointments, got %d", len(list))
	}
	if list[0].ID != a.ID || list[1].ID != b.ID {
		t.Errorf("expected date order, got %s, %s", list[0].ID, list[1].ID)
	}
	if list[0].Doctor == nil || list[0].Doctor.FullName != "Full dr-b" || list[0].Doctor.Specialization != "Neurologist" {
		t.Errorf("doctor not enriched: %+v", list[0].Doctor)
	}
	for _, x := range list {
		if x.PatientID != f.patient.UserID {
			t.Error("patient sees another patient's appointment")
		}
	}
}

func TestListAppointmentsForPatientEmpty(t *testing.T) {
	f := setup(t)
	list, err := f.eng.ListAppointmentsForPatient(context.Background(), f.patient)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if list == nil || len(list) != 0 {
		t.Errorf("expected empty non-nil list, got %v", list)
	}
}

func TestListAppointmentsForDoctor(t *testing.T) {
	f := setup(t)
	mustCreate(t, f, f.patient, req("2024-03-01", "09:00", "10:00", f.doctor.UserID))
	mustCreate(t, f, f.other, req("2024-03-01", "10:00", "11:00", f.doctor.UserID))
	mustCreate(t, f, f.other, req("2024-03-01", "10:00", "11:00", f.doctor2.UserID))

	list, err := f.eng.ListAppointmentsForDoctor(context.Background(), f.doctor)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2, got %d", len(list))
	}
	if list[0].Patient == nil || list[0].Patient.Email != "pat-p@test.com" {
		t.Errorf("patient not enriched: %+v", list[0].Patient)
	}
}

func TestListRoleChecks(t *testing.T) {
	f := setup(t)
	_, err := f.eng.ListAppointmentsForDoctor(context.Background(), f.patient)
	wantKind(t, err, scheduling.KindForbidden)
	_, err = f.eng.ListAppointmentsForPatient(context.Background(), f.doctor)
	wantKind(t, err, scheduling.KindForbidden)
}

// ----- get -----

func TestGetAppointmentAccess(t *testing.T) {
	f := setup(t)
	a := mustCreate(t, f, f.patient, req("2024-03-01", "09:00", "10:00", f.doctor.UserID))

	for _, c := range []scheduling.Caller{f.patient, f.doctor} {
		got, err := f.eng.GetAppointment(context.Background(), c, a.ID)
		if err != nil {
			t.Fatalf("get as %s: %v", c.Role, err)
		}
		if got.Patient == nil || got.Doctor == nil {
			t.Error("expected both parties")
		}
	}
	for _, c := range []scheduling.Caller{f.other, f.doctor2} {
		_, err := f.eng.GetAppointment(context.Background(), c, a.ID)
		wantKind(t, err, scheduling.KindForbidden)
	}

	_, err := f.eng.GetAppointment(context.Background(), f.patient, "missing")
	wantKind(t, err, scheduling.KindNotFound)
}

// ----- update -----

func TestUpdateOnlyComments(t *testing.T) {
	f := setup(t)
	a := mustCreate(t, f, f.patient, req("2024-03-01", "09:00", "09:30", f.doctor.UserID))

	r := req("2024-03-01", "09:00", "09:30", f.doctor.UserID)
	r.Comments = "bring x-rays"
	got, err := f.eng.UpdateAppointment(context.Background(), f.patient, a.ID, r)
	if err != nil {
		t.Fatalf("update must not conflict with itself: %v", err)
	}
	if got.Comments != "bring x-rays" {
		t.Errorf("comments: %q", got.Comments)
	}
	stored, _ := f.st.Appointment(context.Background(), a.ID)
	if stored.Comments != "bring x-rays" {
		t.Errorf("stored comments: %q", stored.Comments)
	}
}

func TestUpdateConflict(t *testing.T) {
	f := setup(t)
	doc := f.doctor.UserID
	mustCreate(t, f, f.other, req("2024-03-01", "09:00", "10:00", doc))
	a := mustCreate(t, f, f.patient, req("2024-03-01", "11:00", "12:00", doc))

	_, err := f.eng.UpdateAppointment(context.Background(), f.patient, a.ID, req("2024-03-01", "09:30", "10:30", doc))
	wantKind(t, err, scheduling.KindConflict)

	stored, _ := f.st.Appointment(context.Background(), a.ID)
	if stored.TimeFrom.String() != "11:00" {
		t.Errorf("record changed on conflict: %s", stored.TimeFrom)
	}

	// moving to another doctor at the same time is fine
	got, err := f.eng.UpdateAppointment(context.Background(), f.patient, a.ID, req("2024-03-01", "09:30", "10:30", f.doctor2.UserID))
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.DoctorID != f.doctor2.UserID {
		t.Errorf("doctor: %s", got.DoctorID)
	}
}

func TestUpdateForbidden(t *testing.T) {
	f := setup(t)
	a := mustCreate(t, f, f.patient, req("2024-03-01", "09:00", "10:00", f.doctor.UserID))

	// other patient, even with malformed input
	for _, r := range []scheduling.Request{
		req("2024-03-01", "12:00", "13:00", f.doctor.UserID),
		req("bad", "13:00", "12:00", ""),
	} {
		_, err := f.eng.UpdateAppointment(context.Background(), f.other, a.ID, r)
		wantKind(t, err, scheduling.KindForbidden)
	}

	// doctors never write, not even their own appointments or missing ones
	for _, id := range []string{a.ID, "missing"} {
		_, err := f.eng.UpdateAppointment(context.Background(), f.doctor, id, req("2024-03-01", "12:00", "13:00", f.doctor.UserID))
		wantKind(t, err, scheduling.KindForbidden)
	}

	stored, _ := f.st.Appointment(context.Background(), a.ID)
	if stored.TimeFrom.String() != "09:00" {
		t.Error("record changed by forbidden update")
	}
}

func TestUpdateNotFound(t *testing.T) {
	f := setup(t)
	_, err := f.eng.UpdateAppointment(context.Background(), f.patient, "missing", req("2024-03-01", "09:00", "10:00", f.doctor.UserID))
	wantKind(t, err, scheduling.KindNotFound)
}

func TestUpdatePastDatePolicy(t *testing.T) {
	f := setup(t)
	a := mustCreate(t, f, f.patient, req("2024-02-01", "15:00", "16:00", f.doctor.UserID))

	// the clock moves past the appointment
	later := scheduling.NewEngine(f.st, f.st, nil, scheduling.WithClock(func() time.Time { return testNow.AddDate(0, 0, 5) }))

	r := req("2024-02-01", "15:00", "16:00", f.doctor.UserID)
	r.Comments = "late note"
	if _, err := later.UpdateAppointment(context.Background(), f.patient, a.ID, r); err != nil {
		t.Fatalf("keeping the date should be allowed: %v", err)
	}

	_, err := later.UpdateAppointment(context.Background(), f.patient, a.ID, req("2024-02-02", "15:00", "16:00", f.doctor.UserID))
	wantKind(t, err, scheduling.KindValidation)
}

// ----- delete -----

func TestDeleteTwice(t *testing.T) {
	f := setup(t)
	a := mustCreate(t, f, f.patient, req("2024-03-01", "09:00", "10:00", f.doctor.UserID))

	if err := f.eng.DeleteAppointment(context.Background(), f.patient, a.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	err := f.eng.DeleteAppointment(context.Background(), f.patient, a.ID)
	wantKind(t, err, scheduling.KindNotFound)

	// freed slot can be booked again
	mustCreate(t, f, f.other, req("2024-03-01", "09:00", "10:00", f.doctor.UserID))
}

func TestDeleteForbidden(t *testing.T) {
	f := setup(t)
	a := mustCreate(t, f, f.patient, req("2024-03-01", "09:00", "10:00", f.doctor.UserID))

	wantKind(t, f.eng.DeleteAppointment(context.Background(), f.other, a.ID), scheduling.KindForbidden)
	wantKind(t, f.eng.DeleteAppointment(context.Background(), f.doctor, a.ID), scheduling.KindForbidden)
	wantKind(t, f.eng.DeleteAppointment(context.Background(), f.doctor, "missing"), scheduling.KindForbidden)

	if _, err := f.st.Appointment(context.Background(), a.ID); err != nil {
		t.Errorf("appointment removed by forbidden delete: %v", err)
	}
}

// ----- store failures -----

type failingStore struct {
	scheduling.Store
	err error
}

func (s failingStore) AppointmentsByPatient(context.Context, string) ([]model.Appointment, error) {
	return nil, s.err
}

func (s failingStore) InsertIfNoOverlap(ctx context.Context, _ *model.Appointment) error {
	if s.err == context.DeadlineExceeded {
		<-ctx.Done()
		return ctx.Err()
	}
	return s.err
}

func TestStoreFailureIsUnavailable(t *testing.T) {
	f := setup(t)
	eng := scheduling.NewEngine(failingStore{Store: f.st, err: errors.New("connection reset")}, f.st, nil)

	_, err := eng.ListAppointmentsForPatient(context.Background(), f.patient)
	wantKind(t, err, scheduling.KindUnavailable)
	if !scheduling.KindOf(err).Retryable() {
		t.Error("unavailable should be retryable")
	}
	if strings.Contains(err.Error(), "connection reset") {
		t.Error("raw store error leaked to caller")
	}
}

func TestStoreTimeoutIsUnavailable(t *testing.T) {
	f := setup(t)
	eng := scheduling.NewEngine(
		failingStore{Store: f.st, err: context.DeadlineExceeded}, f.st, nil,
		scheduling.WithClock(func() time.Time { return testNow }),
		scheduling.WithStoreTimeout(20*time.Millisecond),
	)
	start := time.Now()
	_, err := eng.CreateAppointment(context.Background(), f.patient, req("2024-03-01", "09:00", "10:00", f.doctor.UserID))
	wantKind(t, err, scheduling.KindUnavailable)
	if time.Since(start) > time.Second {
		t.Error("store timeout not applied")
	}
}

func TestConflictNotRetryable(t *testing.T) {
	if scheduling.KindConflict.Retryable() {
		t.Error("conflict must not be retryable")
	}
}

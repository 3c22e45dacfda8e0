package store_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"appointment-scheduler/internal/app"
	"appointment-scheduler/internal/model"
	"appointment-scheduler/internal/store"
)

// needs a scratch database; skipped otherwise
func setup(t *testing.T) *store.Store {
	t.Helper()
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := store.NewPool(ctx, url, 4, 0)
	if err != nil {
		t.Fatalf("pool: %v", err)
	}
	t.Cleanup(pool.Close)

	mg, err := app.NewMigrator(pool, zap.NewNop())
	if err != nil {
		t.Fatalf("migrator: %v", err)
	}
	defer mg.Close()
	if err := mg.Up(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if _, err := pool.Exec(ctx, `TRUNCATE refresh_tokens, appointments, users`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return store.New(pool)
}

func addUser(t *testing.T, st *store.Store, role model.Role) string {
	t.Helper()
	id := uuid.NewString()
	u := &model.User{
		ID: id, FullName: "User " + id[:4], Username: id, Email: id + "@test.com",
		PasswordHash: "x", Role: role,
	}
	if role == model.RoleDoctor {
		u.Specialization = "Cardiologist"
	}
	if err := st.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return id
}

func appt(patient, doctor, from, to string) *model.Appointment {
	f, _ := model.ParseClock(from)
	tt, _ := model.ParseClock(to)
	return &model.Appointment{
		ID: uuid.NewString(), PatientID: patient, DoctorID: doctor,
		Date: time.Date(2030, 5, 1, 0, 0, 0, 0, time.UTC), TimeFrom: f, TimeTo: tt,
	}
}

func TestUsers(t *testing.T) {
	st := setup(t)
	ctx := context.Background()
	id := addUser(t, st, model.RoleDoctor)

	u, err := st.UserByID(ctx, id)
	if err != nil {
		t.Fatalf("by id: %v", err)
	}
	if _, err := st.UserByEmail(ctx, u.Email); err != nil {
		t.Fatalf("by email: %v", err)
	}
	dup := *u
	dup.ID = uuid.NewString()
	dup.Username = "other"
	if err := st.CreateUser(ctx, &dup); !errors.Is(err, model.ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
	if _, err := st.UserByID(ctx, "missing"); !errors.Is(err, model.ErrNoRecord) {
		t.Errorf("expected ErrNoRecord, got %v", err)
	}

	docs, err := st.Doctors(ctx)
	if err != nil || len(docs) != 1 {
		t.Fatalf("doctors: %v %v", docs, err)
	}
}

func TestAppointmentLifecycle(t *testing.T) {
	st := setup(t)
	ctx := context.Background()
	pat := addUser(t, st, model.RolePatient)
	doc := addUser(t, st, model.RoleDoctor)

	a := appt(pat, doc, "09:00", "09:30")
	if err := st.InsertIfNoOverlap(ctx, a); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := st.InsertIfNoOverlap(ctx, appt(pat, doc, "09:15", "09:45")); !errors.Is(err, model.ErrOverlap) {
		t.Fatalf("expected ErrOverlap, got %v", err)
	}
	if err := st.InsertIfNoOverlap(ctx, appt(pat, doc, "09:30", "10:00")); err != nil {
		t.Fatalf("adjacent insert: %v", err)
	}
	if err := st.InsertIfNoOverlap(ctx, appt(pat, pat, "11:00", "11:30")); !errors.Is(err, model.ErrDoctorNotFound) {
		t.Fatalf("expected ErrDoctorNotFound, got %v", err)
	}

	got, err := st.Appointment(ctx, a.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.TimeFrom.String() != "09:00" || got.TimeTo.String() != "09:30" {
		t.Errorf("times: %s-%s", got.TimeFrom, got.TimeTo)
	}
	if model.FormatDate(got.Date) != "2030-05-01" {
		t.Errorf("date: %s", model.FormatDate(got.Date))
	}
	if got.Doctor == nil || got.Doctor.Specialization != "Cardiologist" {
		t.Errorf("doctor party: %+v", got.Doctor)
	}

	// moving into the 09:30 slot collides, a comments-only edit does not
	moved := *got
	moved.TimeFrom, moved.TimeTo = got.TimeFrom+15, got.TimeTo+15
	if err := st.UpdateIfNoOverlap(ctx, &moved); !errors.Is(err, model.ErrOverlap) {
		t.Fatalf("expected ErrOverlap, got %v", err)
	}
	got.Comments = "bring results"
	if err := st.UpdateIfNoOverlap(ctx, got); err != nil {
		t.Fatalf("update: %v", err)
	}

	list, err := st.AppointmentsByPatient(ctx, pat)
	if err != nil || len(list) != 2 {
		t.Fatalf("patient list: %d %v", len(list), err)
	}
	if list[0].ID != a.ID || list[0].Comments != "bring results" {
		t.Errorf("order or comments wrong: %+v", list[0])
	}

	if err := st.DeleteAppointment(ctx, a.ID, doc); !errors.Is(err, model.ErrNoRecord) {
		t.Errorf("non-owner delete: %v", err)
	}
	if err := st.DeleteAppointment(ctx, a.ID, pat); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := st.DeleteAppointment(ctx, a.ID, pat); !errors.Is(err, model.ErrNoRecord) {
		t.Errorf("second delete: %v", err)
	}
}

func TestConcurrentInsert(t *testing.T) {
	st := setup(t)
	pat := addUser(t, st, model.RolePatient)
	doc := addUser(t, st, model.RoleDoctor)

	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := st.InsertIfNoOverlap(context.Background(), appt(pat, doc, "14:00", "14:30")); err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if ok != 1 {
		t.Fatalf("expected exactly one booking, got %d", ok)
	}
}

func TestRefreshTokens(t *testing.T) {
	st := setup(t)
	ctx := context.Background()
	uid := addUser(t, st, model.RolePatient)

	id, err := st.CreateRefreshToken(ctx, uid, "hash-1", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	newID := uuid.NewString()
	if err := st.RotateRefreshToken(ctx, id, newID, uid, "hash-2", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if err := st.RotateRefreshToken(ctx, id, uuid.NewString(), uid, "hash-3", time.Now().Add(time.Hour)); !errors.Is(err, model.ErrNoRecord) {
		t.Fatalf("double rotate: %v", err)
	}
	old, err := st.RefreshTokenByHash(ctx, "hash-1")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if !old.Revoked || old.ReplacedBy == nil || *old.ReplacedBy != newID {
		t.Errorf("old token not linked: %+v", old)
	}
	if err := st.RevokeAllRefreshTokens(ctx, uid); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	cur, _ := st.RefreshTokenByHash(ctx, "hash-2")
	if !cur.Revoked {
		t.Error("token survived revoke all")
	}
}

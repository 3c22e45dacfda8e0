// Package memstore is an in-process Store used by tests and by STORE=memory.
// A single mutex makes every check-then-write atomic.
package memstore

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"appointment-scheduler/internal/model"
	"appointment-scheduler/internal/scheduling"
)

type Store struct {
	mu     sync.RWMutex
	users  map[string]*model.User
	appts  map[string]*model.Appointment
	tokens map[string]*model.RefreshToken
}

func New() *Store {
	return &Store{
		users:  make(map[string]*model.User),
		appts:  make(map[string]*model.Appointment),
		tokens: make(map[string]*model.RefreshToken),
	}
}

// ----- users -----

func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, x := range s.users {
		if x.ID == u.ID || strings.EqualFold(x.Email, u.Email) || x.Username == u.Username {
			return model.ErrDuplicate
		}
	}
	cp := *u
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	cp.UpdatedAt = cp.CreatedAt
	s.users[u.ID] = &cp
	u.CreatedAt, u.UpdatedAt = cp.CreatedAt, cp.UpdatedAt
	return nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, model.ErrNoRecord
}

func (s *Store) UserByID(ctx context.Context, id string) (*model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, model.ErrNoRecord
	}
	cp := *u
	return &cp, nil
}

func (s *Store) UpdateProfile(ctx context.Context, id, fullName, specialization string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return model.ErrNoRecord
	}
	u.FullName = fullName
	u.Specialization = specialization
	u.UpdatedAt = time.Now()
	return nil
}

// ----- directory -----

func (s *Store) Doctors(ctx context.Context) ([]model.Doctor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.Doctor{}
	for _, u := range s.users {
		if u.Role == model.RoleDoctor {
			out = append(out, doctorOf(u))
		}
	}
	slices.SortFunc(out, func(a, b model.Doctor) int {
		if c := cmp.Compare(a.FullName, b.FullName); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (s *Store) Doctor(ctx context.Context, id string) (*model.Doctor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok || u.Role != model.RoleDoctor {
		return nil, model.ErrNoRecord
	}
	d := doctorOf(u)
	return &d, nil
}

func doctorOf(u *model.User) model.Doctor {
	return model.Doctor{ID: u.ID, FullName: u.FullName, Specialization: u.Specialization}
}

// ----- appointments -----

func (s *Store) InsertIfNoOverlap(ctx context.Context, a *model.Appointment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.users[a.DoctorID]; !ok || d.Role != model.RoleDoctor {
		return model.ErrDoctorNotFound
	}
	if _, ok := s.appts[a.ID]; ok {
		return model.ErrDuplicate
	}
	if s.collides(a) {
		return model.ErrOverlap
	}
	cp := *a
	cp.Patient, cp.Doctor = nil, nil
	s.appts[a.ID] = &cp
	return nil
}

func (s *Store) UpdateIfNoOverlap(ctx context.Context, a *model.Appointment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.appts[a.ID]
	if !ok || cur.PatientID != a.PatientID {
		return model.ErrNoRecord
	}
	if d, ok := s.users[a.DoctorID]; !ok || d.Role != model.RoleDoctor {
		return model.ErrDoctorNotFound
	}
	if s.collides(a) {
		return model.ErrOverlap
	}
	cur.DoctorID = a.DoctorID
	cur.Date = a.Date
	cur.TimeFrom = a.TimeFrom
	cur.TimeTo = a.TimeTo
	cur.Comments = a.Comments
	cur.UpdatedAt = a.UpdatedAt
	return nil
}

// collides must be called with s.mu held.
func (s *Store) collides(a *model.Appointment) bool {
	for _, x := range s.appts {
		if scheduling.Collides(a, x) {
			return true
		}
	}
	return false
}

func (s *Store) Appointment(ctx context.Context, id string) (*model.Appointment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.appts[id]
	if !ok {
		return nil, model.ErrNoRecord
	}
	cp := *a
	cp.Patient = s.party(a.PatientID)
	cp.Doctor = s.party(a.DoctorID)
	return &cp, nil
}

func (s *Store) DeleteAppointment(ctx context.Context, id, patientID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.appts[id]
	if !ok || a.PatientID != patientID {
		return model.ErrNoRecord
	}
	delete(s.appts, id)
	return nil
}

func (s *Store) AppointmentsByPatient(ctx context.Context, patientID string) ([]model.Appointment, error) {
	return s.filter(ctx, func(a *model.Appointment) bool { return a.PatientID == patientID })
}

func (s *Store) AppointmentsByDoctor(ctx context.Context, doctorID string) ([]model.Appointment, error) {
	return s.filter(ctx, func(a *model.Appointment) bool { return a.DoctorID == doctorID })
}

func (s *Store) filter(ctx context.Context, keep func(*model.Appointment) bool) ([]model.Appointment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Appointment
	for _, a := range s.appts {
		if !keep(a) {
			continue
		}
		cp := *a
		cp.Patient = s.party(a.PatientID)
		cp.Doctor = s.party(a.DoctorID)
		out = append(out, cp)
	}
	return out, nil
}

func (s *Store) party(id string) *model.Party {
	u, ok := s.users[id]
	if !ok {
		return nil
	}
	return &model.Party{ID: u.ID, FullName: u.FullName, Email: u.Email, Specialization: u.Specialization}
}

// ----- refresh tokens -----

func (s *Store) CreateRefreshToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	s.tokens[id] = &model.RefreshToken{
		ID: id, UserID: userID, TokenHash: tokenHash, ExpiresAt: expiresAt, CreatedAt: time.Now(),
	}
	return id, nil
}

func (s *Store) RefreshTokenByHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rt := range s.tokens {
		if rt.TokenHash == tokenHash {
			cp := *rt
			return &cp, nil
		}
	}
	return nil, model.ErrNoRecord
}

func (s *Store) RotateRefreshToken(ctx context.Context, oldID, newID, userID, newHash string, newExpiry time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.tokens[oldID]
	if !ok || old.Revoked {
		return model.ErrNoRecord
	}
	old.Revoked = true
	old.ReplacedBy = &newID
	s.tokens[newID] = &model.RefreshToken{
		ID: newID, UserID: userID, TokenHash: newHash, ExpiresAt: newExpiry, CreatedAt: time.Now(),
	}
	return nil
}

func (s *Store) RevokeAllRefreshTokens(ctx context.Context, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rt := range s.tokens {
		if rt.UserID == userID {
			rt.Revoked = true
		}
	}
	return nil
}

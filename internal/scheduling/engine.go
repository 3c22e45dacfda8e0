package scheduling

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"appointment-scheduler/internal/model"
)

const maxCommentLen = 1000

// Engine is the only component allowed to change appointment state.
// It holds no per-request state; every call is one unit of work against the Store.
type Engine struct {
	store   Store
	dir     Directory
	log     *zap.Logger
	timeout time.Duration
	loc     *time.Location
	now     func() time.Time
	newID   func() string
}

type Option func(*Engine)

// WithStoreTimeout bounds every Store and Directory call.
func WithStoreTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithLocation sets the canonical zone used to decide what "today" is.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithIDGenerator(gen func() string) Option {
	return func(e *Engine) { e.newID = gen }
}

func NewEngine(st Store, dir Directory, log *zap.Logger, opts ...Option) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	e := &Engine{
		store:   st,
		dir:     dir,
		log:     log,
		timeout: 3 * time.Second,
		loc:     time.UTC,
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Request carries the caller-supplied fields of a create or update.
type Request struct {
	Date     string
	TimeFrom string
	TimeTo   string
	DoctorID string
	Comments string
}

func (e *Engine) CreateAppointment(ctx context.Context, c Caller, r Request) (*model.Appointment, error) {
	a, err := parseRequest(r)
	if err != nil {
		return nil, err
	}
	if !c.IsPatient() {
		return nil, forbidden("only patients can book appointments")
	}
	if a.Date.Before(e.today()) {
		return nil, invalid("cannot book in the past")
	}
	if err := e.checkDoctor(ctx, a.DoctorID); err != nil {
		return nil, err
	}

	a.ID = e.newID()
	a.PatientID = c.UserID
	now := e.now()
	a.CreatedAt, a.UpdatedAt = now, now

	if err := e.call(ctx, func(ctx context.Context) error {
		return e.store.InsertIfNoOverlap(ctx, a)
	}); err != nil {
		return nil, e.translate(err, "insert appointment")
	}

	e.log.Info("appointment created",
		zap.String("appointment_id", a.ID),
		zap.String("patient_id", a.PatientID),
		zap.String("doctor_id", a.DoctorID),
		zap.String("date", model.FormatDate(a.Date)),
		zap.Stringer("time_from", a.TimeFrom),
		zap.Stringer("time_to", a.TimeTo),
	)
	return a, nil
}

func (e *Engine) ListAppointmentsForPatient(ctx context.Context, c Caller) ([]model.Appointment, error) {
	if !c.IsPatient() {
		return nil, forbidden("only patients have a patient appointment list")
	}
	var out []model.Appointment
	err := e.call(ctx, func(ctx context.Context) error {
		var err error
		out, err = e.store.AppointmentsByPatient(ctx, c.UserID)
		return err
	})
	if err != nil {
		return nil, e.translate(err, "list patient appointments")
	}
	return ordered(out), nil
}

func (e *Engine) ListAppointmentsForDoctor(ctx context.Context, c Caller) ([]model.Appointment, error) {
	if !c.IsDoctor() {
		return nil, forbidden("only doctors have a doctor appointment list")
	}
	var out []model.Appointment
	err := e.call(ctx, func(ctx context.Context) error {
		var err error
		out, err = e.store.AppointmentsByDoctor(ctx, c.UserID)
		return err
	})
	if err != nil {
		return nil, e.translate(err, "list doctor appointments")
	}
	return ordered(out), nil
}

// GetAppointment returns a single appointment to its owner or its doctor.
func (e *Engine) GetAppointment(ctx context.Context, c Caller, id string) (*model.Appointment, error) {
	if id == "" {
		return nil, invalid("appointment id required")
	}
	a, err := e.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanRead(c, a) {
		return nil, forbidden("not allowed to view this appointment")
	}
	return a, nil
}

func (e *Engine) UpdateAppointment(ctx context.Context, c Caller, id string, r Request) (*model.Appointment, error) {
	if !c.IsPatient() {
		return nil, forbidden("only the owning patient can change an appointment")
	}
	if id == "" {
		return nil, invalid("appointment id required")
	}
	cur, err := e.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanWrite(c, cur) {
		return nil, forbidden("only the owning patient can change an appointment")
	}

	a, err := parseRequest(r)
	if err != nil {
		return nil, err
	}
	// keeping the existing date is always allowed so old bookings stay editable
	if !a.Date.Equal(cur.Date) && a.Date.Before(e.today()) {
		return nil, invalid("cannot move an appointment into the past")
	}
	if err := e.checkDoctor(ctx, a.DoctorID); err != nil {
		return nil, err
	}

	a.ID = cur.ID
	a.PatientID = cur.PatientID
	a.CreatedAt = cur.CreatedAt
	a.UpdatedAt = e.now()

	if err := e.call(ctx, func(ctx context.Context) error {
		return e.store.UpdateIfNoOverlap(ctx, a)
	}); err != nil {
		return nil, e.translate(err, "update appointment")
	}

	e.log.Info("appointment updated",
		zap.String("appointment_id", a.ID),
		zap.String("patient_id", a.PatientID),
		zap.String("doctor_id", a.DoctorID),
		zap.String("date", model.FormatDate(a.Date)),
	)
	return a, nil
}

func (e *Engine) DeleteAppointment(ctx context.Context, c Caller, id string) error {
	if !c.IsPatient() {
		return forbidden("only the owning patient can delete an appointment")
	}
	if id == "" {
		return invalid("appointment id required")
	}
	cur, err := e.load(ctx, id)
	if err != nil {
		return err
	}
	if !CanWrite(c, cur) {
		return forbidden("only the owning patient can delete an appointment")
	}

	if err := e.call(ctx, func(ctx context.Context) error {
		return e.store.DeleteAppointment(ctx, id, c.UserID)
	}); err != nil {
		return e.translate(err, "delete appointment")
	}

	e.log.Info("appointment deleted",
		zap.String("appointment_id", id),
		zap.String("patient_id", c.UserID),
	)
	return nil
}

func (e *Engine) load(ctx context.Context, id string) (*model.Appointment, error) {
	var a *model.Appointment
	err := e.call(ctx, func(ctx context.Context) error {
		var err error
		a, err = e.store.Appointment(ctx, id)
		return err
	})
	if err != nil {
		return nil, e.translate(err, "get appointment")
	}
	return a, nil
}

func (e *Engine) checkDoctor(ctx context.Context, id string) error {
	err := e.call(ctx, func(ctx context.Context) error {
		_, err := e.dir.Doctor(ctx, id)
		return err
	})
	if err != nil {
		return e.translate(err, "lookup doctor")
	}
	return nil
}

func (e *Engine) call(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	return fn(ctx)
}

// translate maps store errors onto the engine's error kinds. Anything it does
// not recognise is logged and reported as Unavailable.
func (e *Engine) translate(err error, op string) error {
	var ee *Error
	switch {
	case errors.As(err, &ee):
		return ee
	case errors.Is(err, model.ErrOverlap):
		return errConflict
	case errors.Is(err, model.ErrDoctorNotFound):
		return notFound("doctor not found")
	case errors.Is(err, model.ErrNoRecord):
		if op == "lookup doctor" {
			return notFound("doctor not found")
		}
		return notFound("appointment not found")
	}
	e.log.Error("store failure", zap.String("op", op), zap.Error(err))
	return errUnavailable
}

func (e *Engine) today() time.Time {
	return model.DateOf(e.now(), e.loc)
}

func parseRequest(r Request) (*model.Appointment, error) {
	if r.Date == "" || r.TimeFrom == "" || r.TimeTo == "" {
		return nil, invalid("date, time_from and time_to are required")
	}
	if r.DoctorID == "" {
		return nil, invalid("doctor_id required")
	}
	date, err := model.ParseDate(r.Date)
	if err != nil {
		return nil, invalid("%v", err)
	}
	from, err := model.ParseClock(r.TimeFrom)
	if err != nil {
		return nil, invalid("%v", err)
	}
	to, err := model.ParseClock(r.TimeTo)
	if err != nil {
		return nil, invalid("%v", err)
	}
	if from >= to {
		return nil, invalid("time_from must be before time_to")
	}
	if utf8.RuneCountInString(r.Comments) > maxCommentLen {
		return nil, invalid("comments longer than %d characters", maxCommentLen)
	}
	return &model.Appointment{
		DoctorID: r.DoctorID,
		Date:     date,
		TimeFrom: from,
		TimeTo:   to,
		Comments: r.Comments,
	}, nil
}

func ordered(in []model.Appointment) []model.Appointment {
	if in == nil {
		return []model.Appointment{}
	}
	slices.SortStableFunc(in, func(a, b model.Appointment) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		if c := cmp.Compare(a.TimeFrom, b.TimeFrom); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return in
}

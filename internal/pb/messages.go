package pb

import (
	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// ----- identity -----

type RegisterRequest struct {
	FullName       string
	Username       string
	Email          string
	Password       string
	Role           string
	Specialization string
}

func (m *RegisterRequest) AppendWire(b []byte) []byte {
	b = appendString(b, 1, m.FullName)
	b = appendString(b, 2, m.Username)
	b = appendString(b, 3, m.Email)
	b = appendString(b, 4, m.Password)
	b = appendString(b, 5, m.Role)
	return appendString(b, 6, m.Specialization)
}

func (m *RegisterRequest) UnmarshalWire(b []byte) error {
	return walk(b, stringFields(map[protowire.Number]*string{
		1: &m.FullName, 2: &m.Username, 3: &m.Email, 4: &m.Password, 5: &m.Role, 6: &m.Specialization,
	}))
}

type RegisterResponse struct {
	UserId string
	Token  string
}

func (m *RegisterResponse) AppendWire(b []byte) []byte {
	b = appendString(b, 1, m.UserId)
	return appendString(b, 2, m.Token)
}

func (m *RegisterResponse) UnmarshalWire(b []byte) error {
	return walk(b, stringFields(map[protowire.Number]*string{1: &m.UserId, 2: &m.Token}))
}

type LoginRequest struct {
	Email    string
	Password string
}

func (m *LoginRequest) AppendWire(b []byte) []byte {
	b = appendString(b, 1, m.Email)
	return appendString(b, 2, m.Password)
}

func (m *LoginRequest) UnmarshalWire(b []byte) error {
	return walk(b, stringFields(map[protowire.Number]*string{1: &m.Email, 2: &m.Password}))
}

type LoginResponse struct {
	Token        string
	UserId       string
	Name         string
	RefreshToken string
	Role         string
}

func (m *LoginResponse) AppendWire(b []byte) []byte {
	b = appendString(b, 1, m.Token)
	b = appendString(b, 2, m.UserId)
	b = appendString(b, 3, m.Name)
	b = appendString(b, 4, m.RefreshToken)
	return appendString(b, 5, m.Role)
}

func (m *LoginResponse) UnmarshalWire(b []byte) error {
	return walk(b, stringFields(map[protowire.Number]*string{
		1: &m.Token, 2: &m.UserId, 3: &m.Name, 4: &m.RefreshToken, 5: &m.Role,
	}))
}

type RefreshRequest struct {
	RefreshToken string
}

func (m *RefreshRequest) AppendWire(b []byte) []byte { return appendString(b, 1, m.RefreshToken) }

func (m *RefreshRequest) UnmarshalWire(b []byte) error {
	return walk(b, stringFields(map[protowire.Number]*string{1: &m.RefreshToken}))
}

type RefreshResponse struct {
	Token        string
	RefreshToken string
}

func (m *RefreshResponse) AppendWire(b []byte) []byte {
	b = appendString(b, 1, m.Token)
	return appendString(b, 2, m.RefreshToken)
}

func (m *RefreshResponse) UnmarshalWire(b []byte) error {
	return walk(b, stringFields(map[protowire.Number]*string{1: &m.Token, 2: &m.RefreshToken}))
}

type LogoutRequest struct {
	RefreshToken string
}

func (m *LogoutRequest) AppendWire(b []byte) []byte { return appendString(b, 1, m.RefreshToken) }

func (m *LogoutRequest) UnmarshalWire(b []byte) error {
	return walk(b, stringFields(map[protowire.Number]*string{1: &m.RefreshToken}))
}

// Empty is used for requests and responses without fields.
type Empty struct{}

func (*Empty) AppendWire(b []byte) []byte { return b }

func (*Empty) UnmarshalWire(b []byte) error {
	return walk(b, func(protowire.Number, []byte) error { return nil })
}

type Account struct {
	Id             string
	FullName       string
	Username       string
	Email          string
	Role           string
	Specialization string
}

func (m *Account) AppendWire(b []byte) []byte {
	b = appendString(b, 1, m.Id)
	b = appendString(b, 2, m.FullName)
	b = appendString(b, 3, m.Username)
	b = appendString(b, 4, m.Email)
	b = appendString(b, 5, m.Role)
	return appendString(b, 6, m.Specialization)
}

func (m *Account) UnmarshalWire(b []byte) error {
	return walk(b, stringFields(map[protowire.Number]*string{
		1: &m.Id, 2: &m.FullName, 3: &m.Username, 4: &m.Email, 5: &m.Role, 6: &m.Specialization,
	}))
}

type UpdateAccountRequest struct {
	FullName       string
	Specialization string
}

func (m *UpdateAccountRequest) AppendWire(b []byte) []byte {
	b = appendString(b, 1, m.FullName)
	return appendString(b, 2, m.Specialization)
}

func (m *UpdateAccountRequest) UnmarshalWire(b []byte) error {
	return walk(b, stringFields(map[protowire.Number]*string{1: &m.FullName, 2: &m.Specialization}))
}

// ----- directory -----

type Doctor struct {
	Id             string
	FullName       string
	Specialization string
}

func (m *Doctor) AppendWire(b []byte) []byte {
	b = appendString(b, 1, m.Id)
	b = appendString(b, 2, m.FullName)
	return appendString(b, 3, m.Specialization)
}

func (m *Doctor) UnmarshalWire(b []byte) error {
	return walk(b, stringFields(map[protowire.Number]*string{1: &m.Id, 2: &m.FullName, 3: &m.Specialization}))
}

type ListDoctorsRequest struct {
	Specialization string
}

func (m *ListDoctorsRequest) AppendWire(b []byte) []byte { return appendString(b, 1, m.Specialization) }

func (m *ListDoctorsRequest) UnmarshalWire(b []byte) error {
	return walk(b, stringFields(map[protowire.Number]*string{1: &m.Specialization}))
}

type ListDoctorsResponse struct {
	Doctors []*Doctor
}

func (m *ListDoctorsResponse) AppendWire(b []byte) []byte {
	for _, d := range m.Doctors {
		b = appendMessage(b, 1, d)
	}
	return b
}

func (m *ListDoctorsResponse) UnmarshalWire(b []byte) error {
	return walk(b, func(num protowire.Number, v []byte) error {
		if num != 1 {
			return nil
		}
		d := &Doctor{}
		if err := d.UnmarshalWire(v); err != nil {
			return err
		}
		m.Doctors = append(m.Doctors, d)
		return nil
	})
}

// ----- appointments -----

// Party is the patient or doctor side of an appointment.
type Party struct {
	Id             string
	FullName       string
	Email          string
	Specialization string
}

func (m *Party) AppendWire(b []byte) []byte {
	b = appendString(b, 1, m.Id)
	b = appendString(b, 2, m.FullName)
	b = appendString(b, 3, m.Email)
	return appendString(b, 4, m.Specialization)
}

func (m *Party) UnmarshalWire(b []byte) error {
	return walk(b, stringFields(map[protowire.Number]*string{
		1: &m.Id, 2: &m.FullName, 3: &m.Email, 4: &m.Specialization,
	}))
}

type Appointment struct {
	Id        string
	Date      string // YYYY-MM-DD
	TimeFrom  string // HH:MM
	TimeTo    string
	Comments  string
	Patient   *Party
	Doctor    *Party
	CreatedAt *timestamppb.Timestamp
	UpdatedAt *timestamppb.Timestamp
}

func (m *Appointment) AppendWire(b []byte) []byte {
	b = appendString(b, 1, m.Id)
	b = appendString(b, 2, m.Date)
	b = appendString(b, 3, m.TimeFrom)
	b = appendString(b, 4, m.TimeTo)
	b = appendString(b, 5, m.Comments)
	if m.Patient != nil {
		b = appendMessage(b, 6, m.Patient)
	}
	if m.Doctor != nil {
		b = appendMessage(b, 7, m.Doctor)
	}
	b = appendTimestamp(b, 8, m.CreatedAt)
	return appendTimestamp(b, 9, m.UpdatedAt)
}

func (m *Appointment) UnmarshalWire(b []byte) error {
	str := stringFields(map[protowire.Number]*string{
		1: &m.Id, 2: &m.Date, 3: &m.TimeFrom, 4: &m.TimeTo, 5: &m.Comments,
	})
	return walk(b, func(num protowire.Number, v []byte) error {
		var err error
		switch num {
		case 6:
			m.Patient = &Party{}
			err = m.Patient.UnmarshalWire(v)
		case 7:
			m.Doctor = &Party{}
			err = m.Doctor.UnmarshalWire(v)
		case 8:
			m.CreatedAt, err = parseTimestamp(v)
		case 9:
			m.UpdatedAt, err = parseTimestamp(v)
		default:
			err = str(num, v)
		}
		return err
	})
}

type CreateAppointmentRequest struct {
	Date     string
	TimeFrom string
	TimeTo   string
	DoctorId string
	Comments string
}

func (m *CreateAppointmentRequest) AppendWire(b []byte) []byte {
	b = appendString(b, 1, m.Date)
	b = appendString(b, 2, m.TimeFrom)
	b = appendString(b, 3, m.TimeTo)
	b = appendString(b, 4, m.DoctorId)
	return appendString(b, 5, m.Comments)
}

func (m *CreateAppointmentRequest) UnmarshalWire(b []byte) error {
	return walk(b, stringFields(map[protowire.Number]*string{
		1: &m.Date, 2: &m.TimeFrom, 3: &m.TimeTo, 4: &m.DoctorId, 5: &m.Comments,
	}))
}

type UpdateAppointmentRequest struct {
	Id       string
	Date     string
	TimeFrom string
	TimeTo   string
	DoctorId string
	Comments string
}

func (m *UpdateAppointmentRequest) AppendWire(b []byte) []byte {
	b = appendString(b, 1, m.Id)
	b = appendString(b, 2, m.Date)
	b = appendString(b, 3, m.TimeFrom)
	b = appendString(b, 4, m.TimeTo)
	b = appendString(b, 5, m.DoctorId)
	return appendString(b, 6, m.Comments)
}

func (m *UpdateAppointmentRequest) UnmarshalWire(b []byte) error {
	return walk(b, stringFields(map[protowire.Number]*string{
		1: &m.Id, 2: &m.Date, 3: &m.TimeFrom, 4: &m.TimeTo, 5: &m.DoctorId, 6: &m.Comments,
	}))
}

// AppointmentRequest addresses a single appointment by id.
type AppointmentRequest struct {
	Id string
}

func (m *AppointmentRequest) AppendWire(b []byte) []byte { return appendString(b, 1, m.Id) }

func (m *AppointmentRequest) UnmarshalWire(b []byte) error {
	return walk(b, stringFields(map[protowire.Number]*string{1: &m.Id}))
}

type AppointmentResponse struct {
	Appointment *Appointment
}

func (m *AppointmentResponse) AppendWire(b []byte) []byte {
	if m.Appointment == nil {
		return b
	}
	return appendMessage(b, 1, m.Appointment)
}

func (m *AppointmentResponse) UnmarshalWire(b []byte) error {
	return walk(b, func(num protowire.Number, v []byte) error {
		if num != 1 {
			return nil
		}
		m.Appointment = &Appointment{}
		return m.Appointment.UnmarshalWire(v)
	})
}

type ListAppointmentsResponse struct {
	Appointments []*Appointment
}

func (m *ListAppointmentsResponse) AppendWire(b []byte) []byte {
	for _, a := range m.Appointments {
		b = appendMessage(b, 1, a)
	}
	return b
}

func (m *ListAppointmentsResponse) UnmarshalWire(b []byte) error {
	return walk(b, func(num protowire.Number, v []byte) error {
		if num != 1 {
			return nil
		}
		a := &Appointment{}
		if err := a.UnmarshalWire(v); err != nil {
			return err
		}
		m.Appointments = append(m.Appointments, a)
		return nil
	})
}

package rest

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"appointment-scheduler/internal/model"
	"appointment-scheduler/internal/scheduling"
)

type appointmentRequest struct {
	Date     string `json:"date"`
	TimeFrom string `json:"time_from"`
	TimeTo   string `json:"time_to"`
	DoctorID string `json:"doctor_id"`
	Comments string `json:"comments"`
}

func (r appointmentRequest) engine() scheduling.Request {
	return scheduling.Request{
		Date:     r.Date,
		TimeFrom: r.TimeFrom,
		TimeTo:   r.TimeTo,
		DoctorID: r.DoctorID,
		Comments: r.Comments,
	}
}

type partyJSON struct {
	ID             string `json:"id"`
	FullName       string `json:"full_name,omitempty"`
	Email          string `json:"email,omitempty"`
	Specialization string `json:"specialization,omitempty"`
}

type appointmentJSON struct {
	ID        string    `json:"id"`
	Date      string    `json:"date"`
	TimeFrom  string    `json:"time_from"`
	TimeTo    string    `json:"time_to"`
	Comments  string    `json:"comments"`
	Patient   partyJSON `json:"patient"`
	Doctor    partyJSON `json:"doctor"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func partyOf(p *model.Party, id string) partyJSON {
	if p == nil {
		return partyJSON{ID: id}
	}
	return partyJSON{ID: p.ID, FullName: p.FullName, Email: p.Email, Specialization: p.Specialization}
}

func appointmentOf(a *model.Appointment) appointmentJSON {
	return appointmentJSON{
		ID:        a.ID,
		Date:      model.FormatDate(a.Date),
		TimeFrom:  a.TimeFrom.String(),
		TimeTo:    a.TimeTo.String(),
		Comments:  a.Comments,
		Patient:   partyOf(a.Patient, a.PatientID),
		Doctor:    partyOf(a.Doctor, a.DoctorID),
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func (a *API) CreateAppointment(c echo.Context) error {
	var req appointmentRequest
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	appt, err := a.engine.CreateAppointment(c.Request().Context(), callerOf(c), req.engine())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]any{
		"appointment": appointmentOf(appt),
		"message":     "Appointment created successfully",
	})
}

// ListAppointments returns the patient list or the doctor list depending on
// the caller's role.
func (a *API) ListAppointments(c echo.Context) error {
	ctx := c.Request().Context()
	caller := callerOf(c)

	var (
		list []model.Appointment
		err  error
	)
	if caller.IsDoctor() {
		list, err = a.engine.ListAppointmentsForDoctor(ctx, caller)
	} else {
		list, err = a.engine.ListAppointmentsForPatient(ctx, caller)
	}
	if err != nil {
		return fail(c, err)
	}
	out := make([]appointmentJSON, len(list))
	for i := range list {
		out[i] = appointmentOf(&list[i])
	}
	return c.JSON(http.StatusOK, map[string][]appointmentJSON{"appointments": out})
}

func (a *API) GetAppointment(c echo.Context) error {
	appt, err := a.engine.GetAppointment(c.Request().Context(), callerOf(c), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]appointmentJSON{"appointment": appointmentOf(appt)})
}

func (a *API) UpdateAppointment(c echo.Context) error {
	var req appointmentRequest
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	if _, err := a.engine.UpdateAppointment(c.Request().Context(), callerOf(c), c.Param("id"), req.engine()); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, messageBody{Message: "Appointment updated successfully"})
}

// DeleteAppointment reports failures as {message: reason}, unlike the rest.
func (a *API) DeleteAppointment(c echo.Context) error {
	if err := a.engine.DeleteAppointment(c.Request().Context(), callerOf(c), c.Param("id")); err != nil {
		code, msg := reason(err)
		return c.JSON(code, messageBody{Message: msg})
	}
	return c.JSON(http.StatusOK, messageBody{Message: "Appointment deleted successfully"})
}

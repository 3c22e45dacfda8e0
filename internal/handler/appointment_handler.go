package handler

import (
	"context"

	"google.golang.org/protobuf/types/known/timestamppb"

	"appointment-scheduler/internal/model"
	"appointment-scheduler/internal/pb"
	"appointment-scheduler/internal/scheduling"
)

func (h *Handler) CreateAppointment(ctx context.Context, req *pb.CreateAppointmentRequest) (*pb.AppointmentResponse, error) {
	c, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	a, err := h.engine.CreateAppointment(ctx, c, scheduling.Request{
		Date:     req.Date,
		TimeFrom: req.TimeFrom,
		TimeTo:   req.TimeTo,
		DoctorID: req.DoctorId,
		Comments: req.Comments,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return &pb.AppointmentResponse{Appointment: toProto(a)}, nil
}

func (h *Handler) GetAppointment(ctx context.Context, req *pb.AppointmentRequest) (*pb.AppointmentResponse, error) {
	c, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	a, err := h.engine.GetAppointment(ctx, c, req.Id)
	if err != nil {
		return nil, toStatus(err)
	}
	return &pb.AppointmentResponse{Appointment: toProto(a)}, nil
}

func (h *Handler) ListPatientAppointments(ctx context.Context, _ *pb.Empty) (*pb.ListAppointmentsResponse, error) {
	c, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	list, err := h.engine.ListAppointmentsForPatient(ctx, c)
	if err != nil {
		return nil, toStatus(err)
	}
	return listProto(list), nil
}

func (h *Handler) ListDoctorAppointments(ctx context.Context, _ *pb.Empty) (*pb.ListAppointmentsResponse, error) {
	c, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	list, err := h.engine.ListAppointmentsForDoctor(ctx, c)
	if err != nil {
		return nil, toStatus(err)
	}
	return listProto(list), nil
}

func (h *Handler) UpdateAppointment(ctx context.Context, req *pb.UpdateAppointmentRequest) (*pb.AppointmentResponse, error) {
	c, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	a, err := h.engine.UpdateAppointment(ctx, c, req.Id, scheduling.Request{
		Date:     req.Date,
		TimeFrom: req.TimeFrom,
		TimeTo:   req.TimeTo,
		DoctorID: req.DoctorId,
		Comments: req.Comments,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return &pb.AppointmentResponse{Appointment: toProto(a)}, nil
}

func (h *Handler) DeleteAppointment(ctx context.Context, req *pb.AppointmentRequest) (*pb.Empty, error) {
	c, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.engine.DeleteAppointment(ctx, c, req.Id); err != nil {
		return nil, toStatus(err)
	}
	return &pb.Empty{}, nil
}

func listProto(list []model.Appointment) *pb.ListAppointmentsResponse {
	out := make([]*pb.Appointment, len(list))
	for i := range list {
		out[i] = toProto(&list[i])
	}
	return &pb.ListAppointmentsResponse{Appointments: out}
}

func toProto(a *model.Appointment) *pb.Appointment {
	p := &pb.Appointment{
		Id:       a.ID,
		Date:     model.FormatDate(a.Date),
		TimeFrom: a.TimeFrom.String(),
		TimeTo:   a.TimeTo.String(),
		Comments: a.Comments,
		Patient:  partyProto(a.Patient, a.PatientID),
		Doctor:   partyProto(a.Doctor, a.DoctorID),
	}
	if !a.CreatedAt.IsZero() {
		p.CreatedAt = timestamppb.New(a.CreatedAt)
	}
	if !a.UpdatedAt.IsZero() {
		p.UpdatedAt = timestamppb.New(a.UpdatedAt)
	}
	return p
}

func partyProto(p *model.Party, id string) *pb.Party {
	if p == nil {
		return &pb.Party{Id: id}
	}
	return &pb.Party{Id: p.ID, FullName: p.FullName, Email: p.Email, Specialization: p.Specialization}
}

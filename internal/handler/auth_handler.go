package handler

import (
	"context"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"appointment-scheduler/internal/identity"
	"appointment-scheduler/internal/model"
	"appointment-scheduler/internal/pb"
)

func (h *Handler) Register(ctx context.Context, req *pb.RegisterRequest) (*pb.RegisterResponse, error) {
	u, tok, err := h.ident.Register(ctx, identity.RegisterInput{
		FullName:       req.FullName,
		Username:       req.Username,
		Email:          req.Email,
		Password:       req.Password,
		Role:           model.Role(req.Role),
		Specialization: req.Specialization,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return &pb.RegisterResponse{UserId: u.ID, Token: tok}, nil
}

func (h *Handler) Login(ctx context.Context, req *pb.LoginRequest) (*pb.LoginResponse, error) {
	s, err := h.ident.Login(ctx, req.Email, req.Password)
	if err != nil {
		return nil, toStatus(err)
	}
	return &pb.LoginResponse{
		Token:        s.AccessToken,
		UserId:       s.User.ID,
		Name:         s.User.FullName,
		RefreshToken: s.RefreshToken,
		Role:         string(s.User.Role),
	}, nil
}

func (h *Handler) Refresh(ctx context.Context, req *pb.RefreshRequest) (*pb.RefreshResponse, error) {
	s, err := h.ident.Refresh(ctx, req.RefreshToken)
	if err != nil {
		return nil, toStatus(err)
	}
	return &pb.RefreshResponse{Token: s.AccessToken, RefreshToken: s.RefreshToken}, nil
}

func (h *Handler) Logout(ctx context.Context, req *pb.LogoutRequest) (*pb.Empty, error) {
	if err := h.ident.Logout(ctx, req.RefreshToken); err != nil {
		return nil, toStatus(err)
	}
	return &pb.Empty{}, nil
}

func (h *Handler) GetAccount(ctx context.Context, _ *pb.Empty) (*pb.Account, error) {
	c, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	u, err := h.ident.Account(ctx, c)
	if err != nil {
		return nil, toStatus(err)
	}
	return accountProto(u), nil
}

func (h *Handler) UpdateAccount(ctx context.Context, req *pb.UpdateAccountRequest) (*pb.Account, error) {
	c, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	u, err := h.ident.UpdateAccount(ctx, c, req.FullName, req.Specialization)
	if err != nil {
		return nil, toStatus(err)
	}
	return accountProto(u), nil
}

func (h *Handler) ListDoctors(ctx context.Context, req *pb.ListDoctorsRequest) (*pb.ListDoctorsResponse, error) {
	if _, err := caller(ctx); err != nil {
		return nil, err
	}
	docs, err := h.dir.ListDoctors(ctx, req.Specialization)
	if err != nil {
		h.log.Error("list doctors", zap.Error(err))
		return nil, status.Error(codes.Unavailable, "service temporarily unavailable, try again")
	}
	out := make([]*pb.Doctor, len(docs))
	for i, d := range docs {
		out[i] = &pb.Doctor{Id: d.ID, FullName: d.FullName, Specialization: d.Specialization}
	}
	return &pb.ListDoctorsResponse{Doctors: out}, nil
}

func accountProto(u *model.User) *pb.Account {
	return &pb.Account{
		Id:             u.ID,
		FullName:       u.FullName,
		Username:       u.Username,
		Email:          u.Email,
		Role:           string(u.Role),
		Specialization: u.Specialization,
	}
}

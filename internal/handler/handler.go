// Package handler implements the ScheduleService gRPC server on top of the
// scheduling engine, the identity service and the doctor directory.
package handler

import (
	"context"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"appointment-scheduler/internal/directory"
	"appointment-scheduler/internal/identity"
	"appointment-scheduler/internal/middleware"
	"appointment-scheduler/internal/pb"
	"appointment-scheduler/internal/scheduling"
)

type Handler struct {
	pb.UnimplementedScheduleServiceServer
	engine *scheduling.Engine
	ident  *identity.Service
	dir    *directory.Service
	log    *zap.Logger
}

func New(engine *scheduling.Engine, ident *identity.Service, dir *directory.Service, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{engine: engine, ident: ident, dir: dir, log: log}
}

func caller(ctx context.Context) (scheduling.Caller, error) {
	c, ok := middleware.CallerFrom(ctx)
	if !ok {
		return scheduling.Caller{}, status.Error(codes.Unauthenticated, "no token")
	}
	return c, nil
}

// Code maps an error kind to its gRPC status code.
func Code(k scheduling.Kind) codes.Code {
	switch k {
	case scheduling.KindValidation:
		return codes.InvalidArgument
	case scheduling.KindNotFound:
		return codes.NotFound
	case scheduling.KindForbidden:
		return codes.PermissionDenied
	case scheduling.KindConflict:
		return codes.AlreadyExists
	case scheduling.KindUnavailable:
		return codes.Unavailable
	case scheduling.KindUnauthenticated:
		return codes.Unauthenticated
	}
	return codes.Internal
}

func toStatus(err error) error {
	if _, ok := status.FromError(err); ok {
		return err
	}
	k := scheduling.KindOf(err)
	if k == scheduling.KindInternal {
		return status.Error(codes.Internal, "internal error")
	}
	return status.Error(Code(k), err.Error())
}

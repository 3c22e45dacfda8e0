package pb

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const ServiceName = "appointment.v1.ScheduleService"

// FullMethod returns the gRPC path of a ScheduleService method.
func FullMethod(name string) string { return "/" + ServiceName + "/" + name }

type ScheduleServiceServer interface {
	Register(context.Context, *RegisterRequest) (*RegisterResponse, error)
	Login(context.Context, *LoginRequest) (*LoginResponse, error)
	Refresh(context.Context, *RefreshRequest) (*RefreshResponse, error)
	Logout(context.Context, *LogoutRequest) (*Empty, error)
	GetAccount(context.Context, *Empty) (*Account, error)
	UpdateAccount(context.Context, *UpdateAccountRequest) (*Account, error)
	ListDoctors(context.Context, *ListDoctorsRequest) (*ListDoctorsResponse, error)
	CreateAppointment(context.Context, *CreateAppointmentRequest) (*AppointmentResponse, error)
	GetAppointment(context.Context, *AppointmentRequest) (*AppointmentResponse, error)
	ListPatientAppointments(context.Context, *Empty) (*ListAppointmentsResponse, error)
	ListDoctorAppointments(context.Context, *Empty) (*ListAppointmentsResponse, error)
	UpdateAppointment(context.Context, *UpdateAppointmentRequest) (*AppointmentResponse, error)
	DeleteAppointment(context.Context, *AppointmentRequest) (*Empty, error)
}

// UnimplementedScheduleServiceServer can be embedded for forward compatibility.
type UnimplementedScheduleServiceServer struct{}

func unimplemented(name string) error {
	return status.Errorf(codes.Unimplemented, "method %s not implemented", name)
}

func (UnimplementedScheduleServiceServer) Register(context.Context, *RegisterRequest) (*RegisterResponse, error) {
	return nil, unimplemented("Register")
}
func (UnimplementedScheduleServiceServer) Login(context.Context, *LoginRequest) (*LoginResponse, error) {
	return nil, unimplemented("Login")
}
func (UnimplementedScheduleServiceServer) Refresh(context.Context, *RefreshRequest) (*RefreshResponse, error) {
	return nil, unimplemented("Refresh")
}
func (UnimplementedScheduleServiceServer) Logout(context.Context, *LogoutRequest) (*Empty, error) {
	return nil, unimplemented("Logout")
}
func (UnimplementedScheduleServiceServer) GetAccount(context.Context, *Empty) (*Account, error) {
	return nil, unimplemented("GetAccount")
}
func (UnimplementedScheduleServiceServer) UpdateAccount(context.Context, *UpdateAccountRequest) (*Account, error) {
	return nil, unimplemented("UpdateAccount")
}
func (UnimplementedScheduleServiceServer) ListDoctors(context.Context, *ListDoctorsRequest) (*ListDoctorsResponse, error) {
	return nil, unimplemented("ListDoctors")
}
func (UnimplementedScheduleServiceServer) CreateAppointment(context.Context, *CreateAppointmentRequest) (*AppointmentResponse, error) {
	return nil, unimplemented("CreateAppointment")
}
func (UnimplementedScheduleServiceServer) GetAppointment(context.Context, *AppointmentRequest) (*AppointmentResponse, error) {
	return nil, unimplemented("GetAppointment")
}
func (UnimplementedScheduleServiceServer) ListPatientAppointments(context.Context, *Empty) (*ListAppointmentsResponse, error) {
	return nil, unimplemented("ListPatientAppointments")
}
func (UnimplementedScheduleServiceServer) ListDoctorAppointments(context.Context, *Empty) (*ListAppointmentsResponse, error) {
	return nil, unimplemented("ListDoctorAppointments")
}
func (UnimplementedScheduleServiceServer) UpdateAppointment(context.Context, *UpdateAppointmentRequest) (*AppointmentResponse, error) {
	return nil, unimplemented("UpdateAppointment")
}
func (UnimplementedScheduleServiceServer) DeleteAppointment(context.Context, *AppointmentRequest) (*Empty, error) {
	return nil, unimplemented("DeleteAppointment")
}

// unary builds the method descriptor for one RPC.
func unary[T any, PT interface {
	*T
	Message
}, R any](name string, call func(ScheduleServiceServer, context.Context, PT) (R, error)) grpc.MethodDesc {
	full := FullMethod(name)
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := PT(new(T))
			if err := dec(in); err != nil {
				return nil, err
			}
			s := srv.(ScheduleServiceServer)
			if interceptor == nil {
				return call(s, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: full}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(s, ctx, req.(PT))
			})
		},
	}
}

var ScheduleService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ScheduleServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Register", ScheduleServiceServer.Register),
		unary("Login", ScheduleServiceServer.Login),
		unary("Refresh", ScheduleServiceServer.Refresh),
		unary("Logout", ScheduleServiceServer.Logout),
		unary("GetAccount", ScheduleServiceServer.GetAccount),
		unary("UpdateAccount", ScheduleServiceServer.UpdateAccount),
		unary("ListDoctors", ScheduleServiceServer.ListDoctors),
		unary("CreateAppointment", ScheduleServiceServer.CreateAppointment),
		unary("GetAppointment", ScheduleServiceServer.GetAppointment),
		unary("ListPatientAppointments", ScheduleServiceServer.ListPatientAppointments),
		unary("ListDoctorAppointments", ScheduleServiceServer.ListDoctorAppointments),
		unary("UpdateAppointment", ScheduleServiceServer.UpdateAppointment),
		unary("DeleteAppointment", ScheduleServiceServer.DeleteAppointment),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "appointment/v1/schedule.proto",
}

func RegisterScheduleServiceServer(s grpc.ServiceRegistrar, srv ScheduleServiceServer) {
	s.RegisterService(&ScheduleService_ServiceDesc, srv)
}

// ScheduleServiceClient is a thin typed client, mainly for tests and tools.
type ScheduleServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewScheduleServiceClient(cc grpc.ClientConnInterface) *ScheduleServiceClient {
	return &ScheduleServiceClient{cc: cc}
}

func invoke[R any, PR interface {
	*R
	Message
}](ctx context.Context, cc grpc.ClientConnInterface, method string, in Message, opts []grpc.CallOption) (PR, error) {
	out := PR(new(R))
	if err := cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ScheduleServiceClient) Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*RegisterResponse, error) {
	return invoke[RegisterResponse](ctx, c.cc, "Register", in, opts)
}

func (c *ScheduleServiceClient) Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*LoginResponse, error) {
	return invoke[LoginResponse](ctx, c.cc, "Login", in, opts)
}

func (c *ScheduleServiceClient) ListDoctors(ctx context.Context, in *ListDoctorsRequest, opts ...grpc.CallOption) (*ListDoctorsResponse, error) {
	return invoke[ListDoctorsResponse](ctx, c.cc, "ListDoctors", in, opts)
}

func (c *ScheduleServiceClient) CreateAppointment(ctx context.Context, in *CreateAppointmentRequest, opts ...grpc.CallOption) (*AppointmentResponse, error) {
	return invoke[AppointmentResponse](ctx, c.cc, "CreateAppointment", in, opts)
}

func (c *ScheduleServiceClient) ListPatientAppointments(ctx context.Context, opts ...grpc.CallOption) (*ListAppointmentsResponse, error) {
	return invoke[ListAppointmentsResponse](ctx, c.cc, "ListPatientAppointments", &Empty{}, opts)
}

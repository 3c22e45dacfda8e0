package grpcweb_test

import (
	"bytes"
	"encoding/binary"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"google.golang.org/grpc"

	"appointment-scheduler/internal/directory"
	"appointment-scheduler/internal/grpcweb"
	"appointment-scheduler/internal/handler"
	"appointment-scheduler/internal/identity"
	"appointment-scheduler/internal/memstore"
	"appointment-scheduler/internal/middleware"
	"appointment-scheduler/internal/pb"
	"appointment-scheduler/internal/scheduling"
)

func startBridge(t *testing.T) http.Handler {
	t.Helper()
	st := memstore.New()
	dir := directory.New(st, nil, 0, nil)
	ident := identity.New(st, st, dir, identity.Config{Secret: "test-secret"}, nil)
	h := handler.New(scheduling.NewEngine(st, dir, nil), ident, dir, nil)

	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(middleware.Auth(ident)))
	pb.RegisterScheduleServiceServer(srv, h)
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	b, err := grpcweb.New(lis.Addr().String(), nil)
	if err != nil {
		t.Fatalf("bridge: %v", err)
	}
	t.Cleanup(func() { b.Close() })
	return b.Handler()
}

func frame(msg pb.Message) []byte {
	data := pb.Marshal(msg)
	f := make([]byte, 5+len(data))
	binary.BigEndian.PutUint32(f[1:5], uint32(len(data)))
	copy(f[5:], data)
	return f
}

// call posts one grpc-web request and returns the data payload and trailer.
func call(t *testing.T, h http.Handler, method string, body []byte, hdr ...string) (data []byte, trailer string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, pb.FullMethod(method), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/grpc-web+proto")
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("http status %d", rec.Code)
	}
	out, _ := io.ReadAll(rec.Body)
	for len(out) >= 5 {
		n := binary.BigEndian.Uint32(out[1:5])
		chunk := out[5 : 5+n]
		if out[0]&0x80 != 0 {
			trailer = string(chunk)
		} else {
			data = chunk
		}
		out = out[5+n:]
	}
	return data, trailer
}

func TestBridgeRegisterAndList(t *testing.T) {
	h := startBridge(t)

	data, trailer := call(t, h, "Register", frame(&pb.RegisterRequest{
		FullName: "Web User", Username: "web", Email: "web@test.com", Password: "testpass123",
	}))
	if !strings.HasPrefix(trailer, "grpc-status:0") {
		t.Fatalf("register trailer: %q", trailer)
	}
	reg := &pb.RegisterResponse{}
	if err := pb.Unmarshal(data, reg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if reg.UserId == "" || reg.Token == "" {
		t.Fatalf("got %+v", reg)
	}

	_, trailer = call(t, h, "ListPatientAppointments", frame(&pb.Empty{}))
	if !strings.HasPrefix(trailer, "grpc-status:16") {
		t.Errorf("expected unauthenticated, got %q", trailer)
	}

	_, trailer = call(t, h, "ListPatientAppointments", frame(&pb.Empty{}), "Authorization", "Bearer "+reg.Token)
	if !strings.HasPrefix(trailer, "grpc-status:0") {
		t.Errorf("authed list: %q", trailer)
	}
}

func TestBridgeErrorsInTrailer(t *testing.T) {
	h := startBridge(t)

	_, trailer := call(t, h, "Login", frame(&pb.LoginRequest{Email: "nobody@test.com", Password: "testpass123"}))
	if !strings.HasPrefix(trailer, "grpc-status:16") {
		t.Errorf("login trailer: %q", trailer)
	}
	if !strings.Contains(trailer, "grpc-message:invalid%20credentials") {
		t.Errorf("message not escaped: %q", trailer)
	}

	_, trailer = call(t, h, "Login", []byte{0, 0, 0})
	if !strings.HasPrefix(trailer, "grpc-status:3") {
		t.Errorf("short body: %q", trailer)
	}
}

func TestBridgeHTTPChecks(t *testing.T) {
	h := startBridge(t)

	req := httptest.NewRequest(http.MethodOptions, pb.FullMethod("Login"), nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Header().Get("Access-Control-Allow-Origin") != "http://localhost:3000" {
		t.Errorf("preflight: %d %q", rec.Code, rec.Header().Get("Access-Control-Allow-Origin"))
	}

	req = httptest.NewRequest(http.MethodPost, pb.FullMethod("Login"), nil)
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnsupportedMediaType {
		t.Errorf("content type: %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, pb.FullMethod("Login"), nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("method: %d", rec.Code)
	}
}

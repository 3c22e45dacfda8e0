package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"appointment-scheduler/internal/config"
	"appointment-scheduler/internal/directory"
	"appointment-scheduler/internal/grpcweb"
	"appointment-scheduler/internal/handler"
	"appointment-scheduler/internal/identity"
	"appointment-scheduler/internal/memstore"
	"appointment-scheduler/internal/middleware"
	"appointment-scheduler/internal/pb"
	"appointment-scheduler/internal/rest"
	"appointment-scheduler/internal/scheduling"
	"appointment-scheduler/internal/store"
)

const shutdownTimeout = 10 * time.Second

// backend is everything the services need from storage. Both the
// Postgres store and the in-memory store satisfy it.
type backend interface {
	scheduling.Store
	directory.Source
	identity.Users
	identity.Tokens
}

var (
	_ backend = (*store.Store)(nil)
	_ backend = (*memstore.Store)(nil)
)

// Server owns the three listeners: native gRPC, the grpc-web bridge and
// the JSON API.
type Server struct {
	cfg *config.Config
	log *zap.Logger

	pool *pgxpool.Pool
	rdb  *redis.Client

	grpc   *grpc.Server
	bridge *grpcweb.Bridge
	web    *http.Server
	api    *http.Server
}

// NewServer wires storage, services and transports. ctx bounds background
// work such as the rate limiter janitor.
func NewServer(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	s := &Server{cfg: cfg, log: log}

	be, err := s.openBackend(ctx)
	if err != nil {
		return nil, err
	}

	if cfg.RedisURL != "" {
		rdb, err := directory.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			// the directory works without its cache
			log.Warn("redis unavailable, doctor directory uncached", zap.Error(err))
		} else {
			s.rdb = rdb
		}
	}

	dir := directory.New(be, s.rdb, cfg.DirectoryCacheTTL, log.Named("directory"),
		directory.WithTimeout(cfg.StoreTimeout),
	)
	ident := identity.New(be, be, dir, identity.Config{
		Secret:       cfg.JWTSecret,
		AccessTTL:    cfg.AccessTokenTTL,
		RefreshTTL:   cfg.RefreshTokenTTL,
		StoreTimeout: cfg.StoreTimeout,
	}, log.Named("identity"))
	engine := scheduling.NewEngine(be, dir, log.Named("engine"),
		scheduling.WithStoreTimeout(cfg.StoreTimeout),
		scheduling.WithLocation(loc),
	)

	var limiter *middleware.RateLimiter
	if cfg.RateLimitRPS > 0 {
		limiter = middleware.NewRateLimiter(ctx, cfg.RateLimitRPS, cfg.RateLimitBurst)
	}

	interceptors := []grpc.UnaryServerInterceptor{
		middleware.Recover(log),
		middleware.Logging(log.Named("grpc")),
	}
	if limiter != nil {
		interceptors = append(interceptors, middleware.RateLimit(limiter))
	}
	interceptors = append(interceptors, middleware.Auth(ident))

	s.grpc = grpc.NewServer(grpc.ChainUnaryInterceptor(interceptors...))
	pb.RegisterScheduleServiceServer(s.grpc, handler.New(engine, ident, dir, log.Named("handler")))

	// grpc-web bridge forwards browser requests to grpc on localhost
	bridge, err := grpcweb.New("localhost:"+cfg.Port, log.Named("grpcweb"))
	if err != nil {
		s.Close()
		return nil, err
	}
	s.bridge = bridge
	s.web = &http.Server{
		Addr:              ":" + cfg.WebPort,
		Handler:           bridge.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.api = &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           rest.New(engine, ident, dir, limiter, log.Named("http")).Echo(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

func (s *Server) openBackend(ctx context.Context) (backend, error) {
	if s.cfg.Store == config.StoreMemory {
		s.log.Warn("using in-memory store, data is lost on restart")
		return memstore.New(), nil
	}

	pool, err := store.NewPool(ctx, s.cfg.DatabaseURL, s.cfg.DBMaxConns, s.cfg.DBMinConns)
	if err != nil {
		return nil, err
	}
	s.pool = pool
	s.log.Info("connected to postgres")

	mg, err := NewMigrator(pool, s.log.Named("migrate"))
	if err != nil {
		pool.Close()
		return nil, err
	}
	defer mg.Close()
	if err := mg.Up(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return store.New(pool), nil
}

// Run serves until ctx is cancelled, then drains every listener.
func (s *Server) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", ":"+s.cfg.Port)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Info("grpc listening", zap.String("addr", lis.Addr().String()))
		return s.grpc.Serve(lis)
	})
	g.Go(func() error {
		s.log.Info("grpc-web listening", zap.String("addr", s.web.Addr))
		return ignoreClosed(s.web.ListenAndServe())
	})
	g.Go(func() error {
		s.log.Info("http listening", zap.String("addr", s.api.Addr))
		return ignoreClosed(s.api.ListenAndServe())
	})
	g.Go(func() error {
		<-gctx.Done()
		s.log.Info("shutting down")

		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := errors.Join(s.web.Shutdown(sctx), s.api.Shutdown(sctx))
		s.grpc.GracefulStop()
		return err
	})
	return g.Wait()
}

// Close releases connections. Call after Run returns.
func (s *Server) Close() {
	if s.bridge != nil {
		if err := s.bridge.Close(); err != nil {
			s.log.Warn("close bridge", zap.Error(err))
		}
	}
	if s.rdb != nil {
		if err := s.rdb.Close(); err != nil {
			s.log.Warn("close redis", zap.Error(err))
		}
	}
	if s.pool != nil {
		s.pool.Close()
	}
}

func ignoreClosed(err error) error {
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

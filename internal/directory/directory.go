// Package directory serves the read-only list of doctors.
//
// The full list is optionally cached in Redis; single-doctor lookups used by
// the booking path always go to the source so a booking never depends on a
// stale cache entry.
package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"appointment-scheduler/internal/model"
)

const cacheKey = "directory:doctors"

type Source interface {
	Doctors(ctx context.Context) ([]model.Doctor, error)
	Doctor(ctx context.Context, id string) (*model.Doctor, error)
}

const defaultTimeout = 3 * time.Second

type Service struct {
	src     Source
	cache   *redis.Client
	ttl     time.Duration
	timeout time.Duration
	log     *zap.Logger
}

type Option func(*Service)

// WithTimeout bounds every source and cache call.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// New builds a directory. cache may be nil.
func New(src Source, cache *redis.Client, ttl time.Duration, log *zap.Logger, opts ...Option) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	s := &Service{src: src, cache: cache, ttl: ttl, timeout: defaultTimeout, log: log}
	for _, o := range opts {
		o(s)
	}
	return s
}

// ListDoctors returns doctors ordered by name. A non-empty specialization
// filters case-insensitively.
func (s *Service) ListDoctors(ctx context.Context, specialization string) ([]model.Doctor, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	all, err := s.doctors(ctx)
	if err != nil {
		return nil, err
	}
	if specialization == "" {
		return all, nil
	}
	out := []model.Doctor{}
	for _, d := range all {
		if strings.EqualFold(d.Specialization, specialization) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *Service) Doctor(ctx context.Context, id string) (*model.Doctor, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.src.Doctor(ctx, id)
}

// Invalidate drops the cached list after a doctor joins or edits their profile.
func (s *Service) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.cache.Del(ctx, cacheKey).Err(); err != nil {
		s.log.Warn("directory cache invalidate failed", zap.Error(err))
	}
}

func (s *Service) doctors(ctx context.Context) ([]model.Doctor, error) {
	if s.cache != nil {
		if cached, ok := s.fromCache(ctx); ok {
			return cached, nil
		}
	}
	list, err := s.src.Doctors(ctx)
	if err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	if list == nil {
		list = []model.Doctor{}
	}
	if s.cache != nil {
		s.store(ctx, list)
	}
	return list, nil
}

func (s *Service) fromCache(ctx context.Context) ([]model.Doctor, bool) {
	raw, err := s.cache.Get(ctx, cacheKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.log.Warn("directory cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var list []model.Doctor
	if err := json.Unmarshal(raw, &list); err != nil {
		s.log.Warn("directory cache entry corrupt", zap.Error(err))
		return nil, false
	}
	return list, true
}

func (s *Service) store(ctx context.Context, list []model.Doctor) {
	raw, err := json.Marshal(list)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, cacheKey, raw, s.ttl).Err(); err != nil {
		s.log.Warn("directory cache write failed", zap.Error(err))
	}
}

// NewRedis connects to url ("redis://host:6379/0") and pings it.
func NewRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

// Package identity is the identity provider in front of the scheduling core:
// it registers users, issues and rotates tokens, and turns a bearer token
// into a scheduling.Caller.
package identity

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"appointment-scheduler/internal/auth"
	"appointment-scheduler/internal/model"
	"appointment-scheduler/internal/scheduling"
)

const (
	minPasswordLen      = 8
	DefaultRefreshTTL   = 7 * 24 * time.Hour
	DefaultStoreTimeout = 3 * time.Second
)

type Users interface {
	CreateUser(ctx context.Context, u *model.User) error
	UserByEmail(ctx context.Context, email string) (*model.User, error)
	UserByID(ctx context.Context, id string) (*model.User, error)
	UpdateProfile(ctx context.Context, id, fullName, specialization string) error
}

type Tokens interface {
	CreateRefreshToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) (string, error)
	RefreshTokenByHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error)
	RotateRefreshToken(ctx context.Context, oldID, newID, userID, newHash string, newExpiry time.Time) error
	RevokeAllRefreshTokens(ctx context.Context, userID string) error
}

// Invalidator is told when the set of doctors changes.
type Invalidator interface {
	Invalidate(ctx context.Context)
}

type Config struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	// StoreTimeout bounds the storage work of one operation.
	StoreTimeout time.Duration
}

type Service struct {
	users  Users
	tokens Tokens
	dir    Invalidator
	cfg    Config
	log    *zap.Logger
}

func New(users Users, tokens Tokens, dir Invalidator, cfg Config, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = auth.DefaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = DefaultStoreTimeout
	}
	return &Service{users: users, tokens: tokens, dir: dir, cfg: cfg, log: log}
}

type RegisterInput struct {
	FullName       string
	Username       string
	Email          string
	Password       string
	Role           model.Role
	Specialization string
}

// Session is what a successful login or refresh hands back.
type Session struct {
	User         *model.User
	AccessToken  string
	RefreshToken string
}

var (
	errBadCredentials = scheduling.NewError(scheduling.KindUnauthenticated, "invalid credentials")
	errBadRefresh     = scheduling.NewError(scheduling.KindUnauthenticated, "invalid refresh token")
	errUnavailable    = scheduling.NewError(scheduling.KindUnavailable, "service temporarily unavailable, try again")
)

func (s *Service) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.cfg.StoreTimeout)
}

func invalid(msg string) error {
	return scheduling.NewError(scheduling.KindValidation, msg)
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*model.User, string, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.Specialization = strings.TrimSpace(in.Specialization)

	if in.FullName == "" || in.Username == "" || in.Email == "" || in.Password == "" {
		return nil, "", invalid("all fields required")
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return nil, "", invalid("invalid email")
	}
	if len(in.Password) < minPasswordLen {
		return nil, "", invalid("password too short")
	}
	if in.Role == "" {
		in.Role = model.RolePatient
	}
	if !in.Role.Valid() {
		return nil, "", invalid("role must be patient or doctor")
	}
	switch {
	case in.Role == model.RoleDoctor && in.Specialization == "":
		return nil, "", invalid("specialization required for doctors")
	case in.Role == model.RolePatient:
		in.Specialization = ""
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		s.log.Error("hash password", zap.Error(err))
		return nil, "", errUnavailable
	}

	ctx, cancel := s.bound(ctx)
	defer cancel()

	u := &model.User{
		ID:             uuid.NewString(),
		FullName:       in.FullName,
		Username:       in.Username,
		Email:          in.Email,
		PasswordHash:   hash,
		Role:           in.Role,
		Specialization: in.Specialization,
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, model.ErrDuplicate) {
			// dup email or username, but don't reveal which
			return nil, "", scheduling.NewError(scheduling.KindConflict, "registration failed")
		}
		s.log.Error("create user", zap.Error(err))
		return nil, "", errUnavailable
	}
	if u.Role == model.RoleDoctor && s.dir != nil {
		s.dir.Invalidate(ctx)
	}

	tok, err := auth.MakeToken(u.ID, u.Role, s.cfg.Secret, s.cfg.AccessTTL)
	if err != nil {
		s.log.Error("make token", zap.Error(err))
		return nil, "", errUnavailable
	}
	s.log.Info("user registered", zap.String("user_id", u.ID), zap.String("role", string(u.Role)))
	return u, tok, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	if email == "" || password == "" {
		return nil, invalid("email and password required")
	}
	u, err := s.users.UserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, model.ErrNoRecord) {
			return nil, errBadCredentials
		}
		s.log.Error("lookup user", zap.Error(err))
		return nil, errUnavailable
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		return nil, errBadCredentials
	}
	return s.issue(ctx, u, "")
}

// Refresh rotates a refresh token. Presenting an already rotated token is
// treated as theft and revokes every session of the user.
func (s *Service) Refresh(ctx context.Context, raw string) (*Session, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	if raw == "" {
		return nil, errBadRefresh
	}
	rt, err := s.tokens.RefreshTokenByHash(ctx, auth.HashRefreshToken(raw))
	if err != nil {
		if errors.Is(err, model.ErrNoRecord) {
			return nil, errBadRefresh
		}
		s.log.Error("lookup refresh token", zap.Error(err))
		return nil, errUnavailable
	}
	if rt.Revoked {
		s.log.Warn("refresh token reuse", zap.String("user_id", rt.UserID))
		if err := s.tokens.RevokeAllRefreshTokens(ctx, rt.UserID); err != nil {
			s.log.Error("revoke tokens", zap.Error(err))
		}
		return nil, errBadRefresh
	}
	if time.Now().After(rt.ExpiresAt) {
		return nil, errBadRefresh
	}
	u, err := s.users.UserByID(ctx, rt.UserID)
	if err != nil {
		if errors.Is(err, model.ErrNoRecord) {
			return nil, errBadRefresh
		}
		s.log.Error("lookup user", zap.Error(err))
		return nil, errUnavailable
	}
	return s.issue(ctx, u, rt.ID)
}

func (s *Service) Logout(ctx context.Context, raw string) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	rt, err := s.tokens.RefreshTokenByHash(ctx, auth.HashRefreshToken(raw))
	if err != nil {
		if errors.Is(err, model.ErrNoRecord) {
			return errBadRefresh
		}
		s.log.Error("lookup refresh token", zap.Error(err))
		return errUnavailable
	}
	if err := s.tokens.RevokeAllRefreshTokens(ctx, rt.UserID); err != nil {
		s.log.Error("revoke tokens", zap.Error(err))
		return errUnavailable
	}
	return nil
}

// issue makes an access token and a refresh token; a non-empty prevID is
// rotated into the new refresh token.
func (s *Service) issue(ctx context.Context, u *model.User, prevID string) (*Session, error) {
	access, err := auth.MakeToken(u.ID, u.Role, s.cfg.Secret, s.cfg.AccessTTL)
	if err != nil {
		s.log.Error("make token", zap.Error(err))
		return nil, errUnavailable
	}
	raw, hash, err := auth.GenerateRefreshToken()
	if err != nil {
		s.log.Error("refresh token", zap.Error(err))
		return nil, errUnavailable
	}
	expiry := time.Now().Add(s.cfg.RefreshTTL)

	if prevID == "" {
		_, err = s.tokens.CreateRefreshToken(ctx, u.ID, hash, expiry)
	} else {
		err = s.tokens.RotateRefreshToken(ctx, prevID, uuid.NewString(), u.ID, hash, expiry)
		if errors.Is(err, model.ErrNoRecord) {
			// lost a race with another rotation of the same token
			return nil, errBadRefresh
		}
	}
	if err != nil {
		s.log.Error("store refresh token", zap.Error(err))
		return nil, errUnavailable
	}
	return &Session{User: u, AccessToken: access, RefreshToken: raw}, nil
}

// Authenticate verifies a bearer token (with or without the "Bearer " prefix).
func (s *Service) Authenticate(header string) (scheduling.Caller, error) {
	raw := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if raw == "" {
		return scheduling.Caller{}, scheduling.NewError(scheduling.KindUnauthenticated, "no token")
	}
	claims, err := auth.ParseToken(raw, s.cfg.Secret)
	if err != nil {
		return scheduling.Caller{}, scheduling.NewError(scheduling.KindUnauthenticated, "bad token")
	}
	return scheduling.Caller{UserID: claims.UserID, Role: claims.Role}, nil
}

func (s *Service) Account(ctx context.Context, c scheduling.Caller) (*model.User, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	u, err := s.users.UserByID(ctx, c.UserID)
	if err != nil {
		if errors.Is(err, model.ErrNoRecord) {
			return nil, scheduling.NewError(scheduling.KindNotFound, "account not found")
		}
		s.log.Error("lookup user", zap.Error(err))
		return nil, errUnavailable
	}
	return u, nil
}

// UpdateAccount changes the editable profile fields: full name, and
// specialization for doctors.
func (s *Service) UpdateAccount(ctx context.Context, c scheduling.Caller, fullName, specialization string) (*model.User, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	fullName = strings.TrimSpace(fullName)
	specialization = strings.TrimSpace(specialization)
	if fullName == "" {
		return nil, invalid("full_name required")
	}
	u, err := s.Account(ctx, c)
	if err != nil {
		return nil, err
	}
	switch u.Role {
	case model.RoleDoctor:
		if specialization == "" {
			specialization = u.Specialization
		}
	default:
		if specialization != "" {
			return nil, invalid("only doctors have a specialization")
		}
	}
	if err := s.users.UpdateProfile(ctx, u.ID, fullName, specialization); err != nil {
		s.log.Error("update profile", zap.Error(err))
		return nil, errUnavailable
	}
	if u.Role == model.RoleDoctor && s.dir != nil {
		s.dir.Invalidate(ctx)
	}
	u.FullName = fullName
	u.Specialization = specialization
	return u, nil
}

// Package rest is the JSON front end. It speaks the same operations as the
// gRPC service using {error: reason} failure bodies.
package rest

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"appointment-scheduler/internal/directory"
	"appointment-scheduler/internal/identity"
	"appointment-scheduler/internal/middleware"
	"appointment-scheduler/internal/scheduling"
)

const callerKey = "caller"

type API struct {
	engine  *scheduling.Engine
	ident   *identity.Service
	dir     *directory.Service
	limiter *middleware.RateLimiter
	log     *zap.Logger
}

// New builds the API. limiter may be nil to disable rate limiting.
func New(engine *scheduling.Engine, ident *identity.Service, dir *directory.Service, limiter *middleware.RateLimiter, log *zap.Logger) *API {
	if log == nil {
		log = zap.NewNop()
	}
	return &API{engine: engine, ident: ident, dir: dir, limiter: limiter, log: log}
}

// Echo returns a configured echo instance with every route registered.
func (a *API) Echo() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	// forwarded headers count only when the hop is a local proxy
	e.IPExtractor = echo.ExtractIPFromXFFHeader(
		echo.TrustLoopback(true),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(false),
	)
	e.Use(a.recovery, a.requestLog)
	a.RegisterRoutes(e)
	return e
}

func (a *API) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	g := e.Group("/api")
	g.POST("/register", a.Register, a.rateLimit)
	g.POST("/login", a.Login, a.rateLimit)
	g.POST("/refresh", a.Refresh, a.rateLimit)
	g.POST("/logout", a.Logout)

	authed := g.Group("", a.authenticate)
	authed.GET("/account", a.GetAccount)
	authed.PUT("/account", a.UpdateAccount)
	authed.GET("/doctors", a.ListDoctors)
	authed.POST("/appointments", a.CreateAppointment)
	authed.GET("/appointments", a.ListAppointments)
	authed.GET("/appointments/:id", a.GetAppointment)
	authed.PUT("/appointments/:id", a.UpdateAppointment)
	authed.DELETE("/appointments/:id", a.DeleteAppointment)
}

func (a *API) authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		caller, err := a.ident.Authenticate(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return fail(c, err)
		}
		c.Set(callerKey, caller)
		return next(c)
	}
}

func callerOf(c echo.Context) scheduling.Caller {
	caller, _ := c.Get(callerKey).(scheduling.Caller)
	return caller
}

func (a *API) rateLimit(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if a.limiter != nil && !a.limiter.Allow(c.RealIP()) {
			c.Response().Header().Set("Retry-After", "1")
			return c.JSON(http.StatusTooManyRequests, errorBody{Error: "too many requests"})
		}
		return next(c)
	}
}

func (a *API) recovery(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		defer func() {
			if r := recover(); r != nil {
				var stack [4096]byte
				n := runtime.Stack(stack[:], false)
				a.log.Error("panic recovered",
					zap.String("panic", fmt.Sprintf("%v", r)),
					zap.String("stack", string(stack[:n])),
				)
				err = c.JSON(http.StatusInternalServerError, errorBody{Error: "internal server error"})
			}
		}()
		return next(c)
	}
}

func (a *API) requestLog(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}
		a.log.Info("http",
			zap.String("method", c.Request().Method),
			zap.String("path", c.Path()),
			zap.Int("status", c.Response().Status),
			zap.Duration("took", time.Since(start)),
		)
		return nil
	}
}

type errorBody struct {
	Error string `json:"error"`
}

type messageBody struct {
	Message string `json:"message"`
}

// Status maps an error kind to its HTTP status.
func Status(k scheduling.Kind) int {
	switch k {
	case scheduling.KindValidation:
		return http.StatusBadRequest
	case scheduling.KindNotFound:
		return http.StatusNotFound
	case scheduling.KindForbidden:
		return http.StatusForbidden
	case scheduling.KindConflict:
		return http.StatusConflict
	case scheduling.KindUnavailable:
		return http.StatusServiceUnavailable
	case scheduling.KindUnauthenticated:
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

func reason(err error) (int, string) {
	k := scheduling.KindOf(err)
	if k == scheduling.KindInternal {
		return http.StatusInternalServerError, "internal server error"
	}
	return Status(k), err.Error()
}

func fail(c echo.Context, err error) error {
	code, msg := reason(err)
	return c.JSON(code, errorBody{Error: msg})
}

package rest

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"appointment-scheduler/internal/identity"
	"appointment-scheduler/internal/model"
	"appointment-scheduler/internal/scheduling"
)

type registerRequest struct {
	FullName       string `json:"full_name"`
	Username       string `json:"username"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	Role           string `json:"role"`
	Specialization string `json:"specialization"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type accountRequest struct {
	FullName       string `json:"full_name"`
	Specialization string `json:"specialization"`
}

type accountJSON struct {
	ID             string `json:"id"`
	FullName       string `json:"full_name"`
	Username       string `json:"username"`
	Email          string `json:"email"`
	Role           string `json:"role"`
	Specialization string `json:"specialization,omitempty"`
}

func accountOf(u *model.User) accountJSON {
	return accountJSON{
		ID:             u.ID,
		FullName:       u.FullName,
		Username:       u.Username,
		Email:          u.Email,
		Role:           string(u.Role),
		Specialization: u.Specialization,
	}
}

func badBody(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, errorBody{Error: "invalid request body"})
}

func (a *API) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	u, tok, err := a.ident.Register(c.Request().Context(), identity.RegisterInput{
		FullName:       req.FullName,
		Username:       req.Username,
		Email:          req.Email,
		Password:       req.Password,
		Role:           model.Role(req.Role),
		Specialization: req.Specialization,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]string{
		"message": "Registration successful",
		"user_id": u.ID,
		"token":   tok,
	})
}

func (a *API) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	s, err := a.ident.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{
		"token":         s.AccessToken,
		"refresh_token": s.RefreshToken,
		"user_id":       s.User.ID,
		"full_name":     s.User.FullName,
		"role":          string(s.User.Role),
	})
}

func (a *API) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	s, err := a.ident.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{
		"token":         s.AccessToken,
		"refresh_token": s.RefreshToken,
	})
}

func (a *API) Logout(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	if err := a.ident.Logout(c.Request().Context(), req.RefreshToken); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, messageBody{Message: "Logged out"})
}

func (a *API) GetAccount(c echo.Context) error {
	u, err := a.ident.Account(c.Request().Context(), callerOf(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, accountOf(u))
}

func (a *API) UpdateAccount(c echo.Context) error {
	var req accountRequest
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	u, err := a.ident.UpdateAccount(c.Request().Context(), callerOf(c), req.FullName, req.Specialization)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, accountOf(u))
}

func (a *API) ListDoctors(c echo.Context) error {
	docs, err := a.dir.ListDoctors(c.Request().Context(), c.QueryParam("specialization"))
	if err != nil {
		a.log.Error("list doctors", zap.Error(err))
		return fail(c, scheduling.NewError(scheduling.KindUnavailable, "service temporarily unavailable, try again"))
	}
	return c.JSON(http.StatusOK, map[string][]model.Doctor{"doctors": docs})
}

package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/geocoder89/accounthub/internal/account"
	"github.com/geocoder89/accounthub/internal/domain/user"
	"github.com/geocoder89/accounthub/internal/session"
	"github.com/gin-gonic/gin"
)

type AccountWorkflow interface {
	ShowHome(sess session.Context) account.View
	ShowServices(sess session.Context) account.View
	ShowProfile(ctx context.Context, sess session.Context) (account.Result, error)
	Login(ctx context.Context, sess session.Context, req user.LoginRequest) (account.Result, error)
	Register(ctx context.Context, sess session.Context, req user.RegisterRequest) (account.Result, error)
	Logout(sess session.Context) account.Result
}

// Keep this small interface so tests can fake it easily.
type SessionCookies interface {
	Current(ctx *gin.Context) session.Context
	Apply(ctx *gin.Context, after session.Context) error
}

type AccountHandler struct {
	workflow AccountWorkflow
	sessions SessionCookies
}

func NewAccountHandler(workflow AccountWorkflow, sessions SessionCookies) *AccountHandler {
	return &AccountHandler{workflow: workflow, sessions: sessions}
}

type ProfileResponse struct {
	Authenticated bool      `json:"authenticated"`
	User          user.User `json:"user"`
}

func (h *AccountHandler) Home(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, h.workflow.ShowHome(h.sessions.Current(ctx)))
}

func (h *AccountHandler) Services(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, h.workflow.ShowServices(h.sessions.Current(ctx)))
}

func (h *AccountHandler) Profile(ctx *gin.Context) {
	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	res, err := h.workflow.ShowProfile(cctx, h.sessions.Current(ctx))

	if err != nil {
		if errors.Is(err, account.ErrUnauthenticated) {
			// drops a session whose account is gone
			if !h.applySession(ctx, res.Session) {
				return
			}
			RespondOutcomeError(ctx, http.StatusUnauthorized, "unauthenticated", res)
			return
		}

		_ = ctx.Error(err)
		RespondInternal(ctx, "Could not load profile")
		return
	}

	RespondPrivateJSONWithETag(ctx, http.StatusOK, ProfileResponse{
		Authenticated: true,
		User:          *res.User,
	})
}

func (h *AccountHandler) Login(ctx *gin.Context) {
	var req user.LoginRequest

	if !Bind(ctx, &req) {
		return
	}

	// short timeout for DB lookup
	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	res, err := h.workflow.Login(cctx, h.sessions.Current(ctx), req)

	if err != nil {
		if errors.Is(err, account.ErrInvalidCredentials) {
			RespondOutcomeError(ctx, http.StatusUnauthorized, "invalid_credentials", res)
			return
		}

		_ = ctx.Error(err)
		RespondInternal(ctx, "Could not log in")
		return
	}

	if !h.applySession(ctx, res.Session) {
		return
	}

	RespondOutcome(ctx, http.StatusOK, res)
}

func (h *AccountHandler) Register(ctx *gin.Context) {
	var req user.RegisterRequest

	if !Bind(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	res, err := h.workflow.Register(cctx, h.sessions.Current(ctx), req)

	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			RespondOutcomeError(ctx, http.StatusConflict, "email_taken", res)
			return
		}

		if errors.Is(err, user.ErrPasswordTooLong) {
			RespondOutcomeError(ctx, http.StatusBadRequest, "password_too_long", res)
			return
		}

		_ = ctx.Error(err)
		RespondInternal(ctx, "Could not create user")
		return
	}

	RespondOutcome(ctx, http.StatusCreated, res)
}

func (h *AccountHandler) Logout(ctx *gin.Context) {
	res := h.workflow.Logout(h.sessions.Current(ctx))

	if !h.applySession(ctx, res.Session) {
		return
	}

	RespondOutcome(ctx, http.StatusOK, res)
}

func (h *AccountHandler) applySession(ctx *gin.Context, after session.Context) bool {
	if err := h.sessions.Apply(ctx, after); err != nil {
		_ = ctx.Error(err)
		RespondInternal(ctx, "Could not update session")
		return false
	}

	return true
}

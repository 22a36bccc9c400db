// Package account holds the registration / login / profile workflow.
//
// Every operation receives the caller's session.Context explicitly and returns
// the session the caller should hold afterwards; the HTTP layer is responsible
// for turning that into cookies.
package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/geocoder89/accounthub/internal/domain/user"
	"github.com/geocoder89/accounthub/internal/observability"
	"github.com/geocoder89/accounthub/internal/session"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	// ErrInvalidCredentials covers both an unknown email and a wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnauthenticated    = errors.New("login required")
)

type Store interface {
	FindByEmail(ctx context.Context, email string) (user.User, error)
	Create(ctx context.Context, u user.User) (user.User, error)
}

type Hasher interface {
	HashPassword(plain string) (string, error)
	VerifyPassword(hash, plain string) bool
	BurnCompare(plain string)
}

// Metrics receives one outcome per operation.
type Metrics interface {
	ObserveOutcome(op, result string)
}

type Result struct {
	Session  session.Context
	Notice   Notice
	Redirect string
	User     *user.User
}

// View is what the public pages need to know about the visitor.
type View struct {
	Authenticated bool `json:"authenticated"`
}

type Service struct {
	store        Store
	hasher       Hasher
	metrics      Metrics
	log          *slog.Logger
	tracer       trace.Tracer
	defaultPhoto string
}

type Option func(*Service)

func WithMetrics(m Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithLogger(log *slog.Logger) Option {
	return func(s *Service) { s.log = log }
}

func WithDefaultPhoto(photo string) Option {
	return func(s *Service) { s.defaultPhoto = photo }
}

func NewService(store Store, hasher Hasher, opts ...Option) *Service {
	s := &Service{
		store:        store,
		hasher:       hasher,
		log:          slog.Default(),
		tracer:       otel.Tracer("github.com/geocoder89/accounthub/internal/account"),
		defaultPhoto: user.DefaultProfilePhoto,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *Service) ShowHome(sess session.Context) View {
	return View{Authenticated: sess.IsAuthenticated()}
}

func (s *Service) ShowServices(sess session.Context) View {
	return View{Authenticated: sess.IsAuthenticated()}
}

// Register creates the account and leaves the caller's session untouched; the
// user logs in as a separate step.
func (s *Service) Register(ctx context.Context, sess session.Context, req user.RegisterRequest) (res Result, err error) {
	ctx, span := s.tracer.Start(ctx, "account.register")
	defer func() { s.finish(span, "register", err) }()

	res = Result{Session: sess}

	if len(req.Password) > user.MaxPasswordBytes {
		res.Notice = noticePasswordLong
		res.Redirect = RedirectRegister
		return res, user.ErrPasswordTooLong
	}

	hash, err := s.hasher.HashPassword(req.Password)

	if err != nil {
		return res, fmt.Errorf("hash password: %w", err)
	}

	u := user.NewFromRegisterRequest(req, hash, s.defaultPhoto)

	created, err := s.store.Create(ctx, u)

	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			res.Notice = noticeEmailTaken
			res.Redirect = RedirectRegister
			return res, user.ErrEmailTaken
		}

		return res, fmt.Errorf("create user: %w", err)
	}

	s.log.InfoContext(ctx, "user registered", "user_id", created.ID)

	res.Notice = noticeRegistered
	res.Redirect = RedirectLogin

	return res, nil
}

// Login binds the session to the account when the password matches. Whether the
// email is unknown or the password wrong, the caller gets the same error and notice.
func (s *Service) Login(ctx context.Context, sess session.Context, req user.LoginRequest) (res Result, err error) {
	ctx, span := s.tracer.Start(ctx, "account.login")
	defer func() { s.finish(span, "login", err) }()

	res = Result{Session: sess}
	email := user.NormalizeEmail(req.Email)

	found, err := s.store.FindByEmail(ctx, email)

	if err != nil {
		if !errors.Is(err, user.ErrNotFound) {
			return res, fmt.Errorf("find user: %w", err)
		}

		// keep the miss as slow as a wrong password
		s.hasher.BurnCompare(req.Password)

		res.Notice = noticeBadCredentials
		return res, ErrInvalidCredentials
	}

	if !s.hasher.VerifyPassword(found.PasswordHash, req.Password) {
		res.Notice = noticeBadCredentials
		return res, ErrInvalidCredentials
	}

	res.Session = session.Authenticated(found.Email)
	res.Notice = noticeLoggedIn
	res.Redirect = RedirectHome

	return res, nil
}

// Logout always ends in the anonymous state.
func (s *Service) Logout(sess session.Context) Result {
	s.observe("logout", nil)

	return Result{
		Session:  session.Anonymous(),
		Notice:   noticeLoggedOut,
		Redirect: RedirectHome,
	}
}

// ShowProfile returns the record of the logged in user. An anonymous caller, or a
// session whose account no longer resolves, is sent to the login page.
func (s *Service) ShowProfile(ctx context.Context, sess session.Context) (res Result, err error) {
	ctx, span := s.tracer.Start(ctx, "account.profile")
	defer func() { s.finish(span, "profile", err) }()

	res = Result{Session: sess}

	if !sess.IsAuthenticated() {
		res.Notice = noticeLoginRequired
		res.Redirect = RedirectLogin
		return res, ErrUnauthenticated
	}

	found, err := s.store.FindByEmail(ctx, sess.Email)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			s.log.WarnContext(ctx, "session refers to missing account")

			res.Session = session.Anonymous()
			res.Notice = noticeLoginRequired
			res.Redirect = RedirectLogin
			return res, ErrUnauthenticated
		}

		return res, fmt.Errorf("find user: %w", err)
	}

	res.User = &found

	return res, nil
}

func (s *Service) finish(span trace.Span, op string, err error) {
	if err != nil && !isExpected(err) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.log.Error("account operation failed", "op", op, observability.Err(err))
	}

	span.End()
	s.observe(op, err)
}

func (s *Service) observe(op string, err error) {
	if s.metrics == nil {
		return
	}

	s.metrics.ObserveOutcome(op, outcome(err))
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, user.ErrEmailTaken):
		return "conflict"
	case errors.Is(err, user.ErrPasswordTooLong):
		return "invalid"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, ErrUnauthenticated):
		return "unauthenticated"
	default:
		return "error"
	}
}

func isExpected(err error) bool {
	return errors.Is(err, user.ErrEmailTaken) ||
		errors.Is(err, user.ErrPasswordTooLong) ||
		errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrUnauthenticated)
}

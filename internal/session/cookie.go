package session

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	DefaultCookieName = "session"
	ctxSessionKey     = "session.context"
)

// Cookies binds a Manager to the gin request/response cookie jar.
type Cookies struct {
	manager *Manager
	name    string
	secure  bool
}

func NewCookies(manager *Manager, name string, secure bool) *Cookies {
	if name == "" {
		name = DefaultCookieName
	}

	return &Cookies{manager: manager, name: name, secure: secure}
}

func (c *Cookies) Name() string {
	return c.name
}

// Start issues a token for email, sets the cookie and rebinds the request context.
func (c *Cookies) Start(ctx *gin.Context, email string) error {
	raw, _, err := c.manager.Issue(email)

	if err != nil {
		return err
	}

	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(c.name, raw, int(c.manager.TTL().Seconds()), "/", "", c.secure, true)

	ctx.Set(ctxSessionKey, Authenticated(email))

	return nil
}

// Current returns the identity carried by the request cookie, anonymous when it
// is missing, expired or tampered with.
func (c *Cookies) Current(ctx *gin.Context) Context {
	if v, ok := ctx.Get(ctxSessionKey); ok {
		if s, ok := v.(Context); ok {
			return s
		}
	}

	raw, err := ctx.Cookie(c.name)

	if err != nil || raw == "" {
		return Anonymous()
	}

	s, err := c.manager.Parse(raw)

	if err != nil {
		return Anonymous()
	}

	return s
}

// End clears the cookie. Tokens are not tracked server side, so a copied token
// stays valid until it expires.
func (c *Cookies) End(ctx *gin.Context) {
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(c.name, "", -1, "/", "", c.secure, true)

	ctx.Set(ctxSessionKey, Anonymous())
}

// Middleware resolves the session once per request so handlers read it from the context.
func (c *Cookies) Middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Set(ctxSessionKey, c.Current(ctx))
		ctx.Next()
	}
}

// Apply writes the outcome of a workflow step back to the client.
func (c *Cookies) Apply(ctx *gin.Context, after Context) error {
	if !after.IsAuthenticated() {
		_, err := ctx.Cookie(c.name)
		if err == nil || c.Current(ctx).IsAuthenticated() {
			c.End(ctx)
		}
		return nil
	}

	if c.Current(ctx) == after {
		return nil
	}

	return c.Start(ctx, after.Email)
}

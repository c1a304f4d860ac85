package account

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
)

// CookieName is the cookie carrying the bearer token.
const CookieName = "visit"

// RouteAuthenticator binds the Authenticator to HTTP: it owns the token
// cookie and the request guards.
type RouteAuthenticator struct {
	auth             Authenticator
	cookieDuration   time.Duration
	Logger           Logger
	AuthErrorHandler func(c *fiber.Ctx, err error) error
	ErrorHandler     func(c *fiber.Ctx, err error) error
}

func NewHTTPAuthenticator(auther Authenticator, cookieDuration time.Duration) (*RouteAuthenticator, error) {
	if auther == nil {
		return nil, errors.New("http authenticator requires an Authenticator", errors.CategoryInternal)
	}

	if cookieDuration <= 0 {
		cookieDuration = 24 * time.Hour
	}

	a := &RouteAuthenticator{
		auth:           auther,
		Logger:         defLogger{},
		cookieDuration: cookieDuration,
	}

	a.ErrorHandler = a.defaultErrHandler
	a.AuthErrorHandler = a.defaultAuthErrHandler

	return a, nil
}

func (a *RouteAuthenticator) WithLogger(logger Logger) *RouteAuthenticator {
	a.Logger = logger
	return a
}

func (a RouteAuthenticator) GetCookieDuration() time.Duration {
	return a.cookieDuration
}

// Login authenticates the payload credentials and sets the token cookie.
func (a *RouteAuthenticator) Login(c *fiber.Ctx, payload LoginPayload) error {
	token, err := a.auth.Login(c.UserContext(), payload.GetIdentifier(), payload.GetPassword())
	if err != nil {
		a.Logger.Error("Login error: %s", err)
		return err
	}

	a.setCookieToken(c, token, a.cookieDuration)
	return nil
}

// Logout drops the token cookie. The token itself stays valid until it
// expires; there is no revocation store.
func (a *RouteAuthenticator) Logout(c *fiber.Ctx) {
	a.cookieDel(c, CookieName)
}

// CurrentUser resolves the cookie token to a user and stores identity in
// request scope. Resolution failures leave the request anonymous, they
// never abort it. Only auth purpose tokens establish identity.
func (a *RouteAuthenticator) CurrentUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies(CookieName)
		if token == "" {
			return c.Next()
		}

		session, err := a.auth.SessionFromToken(token)
		if err != nil {
			a.Logger.Info("CurrentUser could not decode session", "error", err.Error())
			return c.Next()
		}

		if session.GetPurpose() != PurposeAuth {
			a.Logger.Warn("CurrentUser rejected token purpose", "purpose", session.GetPurpose().String())
			return c.Next()
		}

		user, err := a.auth.IdentityFromSession(c.UserContext(), session)
		if err != nil {
			a.Logger.Info("CurrentUser could not resolve identity", "error", err.Error())
			return c.Next()
		}

		c.SetUserContext(WithContext(
			WithSessionContext(c.UserContext(), session),
			user,
		))

		return c.Next()
	}
}

// RequireAuthenticated rejects anonymous requests by redirecting to the
// login page.
func (a *RouteAuthenticator) RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := FromContext(c.UserContext()); ok {
			return c.Next()
		}

		return a.AuthErrorHandler(c, errors.New("authentication required", errors.CategoryAuth).
			WithCode(errors.CodeUnauthorized))
	}
}

// RequireGuest keeps authenticated users out of guest only pages such as
// login and signup, sending them to logout first.
func (a *RouteAuthenticator) RequireGuest() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := FromContext(c.UserContext()); !ok {
			return c.Next()
		}

		statusCode := http.StatusSeeOther
		if c.Method() == fiber.MethodGet {
			statusCode = http.StatusFound
		}

		return c.Redirect("/account/logout", statusCode)
	}
}

func (a *RouteAuthenticator) setCookieToken(c *fiber.Ctx, val string, duration time.Duration) {
	c.Cookie(&fiber.Cookie{
		Name:     CookieName,
		Value:    val,
		Path:     "/",
		Expires:  time.Now().Add(duration),
		MaxAge:   int(duration.Seconds()),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

func (a *RouteAuthenticator) cookieDel(c *fiber.Ctx, name string) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

func (a *RouteAuthenticator) defaultAuthErrHandler(c *fiber.Ctx, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryAuth, "An unexpected authentication error").
			WithCode(errors.CodeUnauthorized)
	}

	a.Logger.Info(
		"Authentication error, redirecting to login",
		"error", richErr.Message,
		"text_code", richErr.TextCode,
		"path", c.OriginalURL(),
	)

	statusCode := http.StatusSeeOther
	if c.Method() == fiber.MethodGet {
		statusCode = http.StatusFound
	}
	return c.Redirect("/account/login", statusCode)
}

func (a *RouteAuthenticator) defaultErrHandler(c *fiber.Ctx, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	a.Logger.Error(
		"Request error handler",
		"error", richErr.Message,
		"category", richErr.Category,
	)

	switch richErr.Category {
	case errors.CategoryAuth, errors.CategoryAuthz:
		return a.AuthErrorHandler(c, richErr)
	default:
		return c.Status(richErr.Code).Render("errors/500", fiber.Map{
			"message": richErr.Message,
		})
	}
}

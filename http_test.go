package account_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	account "github.com/keeril/go-account"
)

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

type guardFixture struct {
	app    *fiber.App
	auth   *account.RouteAuthenticator
	tokens account.TokenService
	users  *MockUsers
}

func newGuardFixture(t *testing.T) *guardFixture {
	t.Helper()

	users := &MockUsers{}
	tokens := account.NewTokenService([]byte("test-signing-key"), "test-issuer", MockLogger{})
	auther := account.NewAuthenticator(users, tokens).WithLogger(MockLogger{})

	httpAuth, err := account.NewHTTPAuthenticator(auther, 24*time.Hour)
	require.NoError(t, err)
	httpAuth.WithLogger(MockLogger{})

	app := fiber.New()
	app.Use(httpAuth.CurrentUser())

	app.Get("/private", httpAuth.RequireAuthenticated(), func(c *fiber.Ctx) error {
		user, _ := account.FromContext(c.UserContext())
		return c.SendString("hello " + user.Email)
	})

	app.Get("/guest", httpAuth.RequireGuest(), func(c *fiber.Ctx) error {
		return c.SendString("guest ok")
	})

	app.Post("/do-login", func(c *fiber.Ctx) error {
		payload := new(account.LoginRequest)
		if err := c.BodyParser(payload); err != nil {
			return err
		}
		if err := httpAuth.Login(c, payload); err != nil {
			return c.SendStatus(fiber.StatusUnauthorized)
		}
		return c.SendString("logged in")
	})

	app.Get("/do-logout", func(c *fiber.Ctx) error {
		httpAuth.Logout(c)
		return c.SendString("logged out")
	})

	return &guardFixture{app: app, auth: httpAuth, tokens: tokens, users: users}
}

func cookieRequest(method, target, token string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: account.CookieName, Value: token})
	}
	return req
}

func TestRequireAuthenticated(t *testing.T) {
	t.Run("redirects anonymous requests to login", func(t *testing.T) {
		fx := newGuardFixture(t)

		resp, err := fx.app.Test(cookieRequest(fiber.MethodGet, "/private", ""))
		require.NoError(t, err)

		assert.Equal(t, http.StatusFound, resp.StatusCode)
		assert.Equal(t, "/account/login", resp.Header.Get("Location"))
	})

	t.Run("admits a valid auth token", func(t *testing.T) {
		fx := newGuardFixture(t)

		user := &account.User{Email: "walter@example.com", Username: "walter", EmailValidated: true}
		fx.users.On("FindByEmail", mock.Anything, "walter@example.com").Return(user, nil)

		token, err := fx.tokens.Issue("walter@example.com", account.PurposeAuth, time.Hour)
		require.NoError(t, err)

		resp, err := fx.app.Test(cookieRequest(fiber.MethodGet, "/private", token))
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, readBody(t, resp), "walter@example.com")
	})

	t.Run("rejects a token minted for another purpose", func(t *testing.T) {
		fx := newGuardFixture(t)

		token, err := fx.tokens.Issue("walter@example.com", account.PurposeEmailVerify, time.Hour)
		require.NoError(t, err)

		resp, err := fx.app.Test(cookieRequest(fiber.MethodGet, "/private", token))
		require.NoError(t, err)

		assert.Equal(t, http.StatusFound, resp.StatusCode)
		assert.Equal(t, "/account/login", resp.Header.Get("Location"))
	})

	t.Run("rejects an expired token", func(t *testing.T) {
		fx := newGuardFixture(t)

		expired := mintToken(t, []byte("test-signing-key"), "test-issuer", account.PurposeAuth, -time.Minute)

		resp, err := fx.app.Test(cookieRequest(fiber.MethodGet, "/private", expired))
		require.NoError(t, err)

		assert.Equal(t, http.StatusFound, resp.StatusCode)
	})

	t.Run("rejects a forged token", func(t *testing.T) {
		fx := newGuardFixture(t)

		forged := mintToken(t, []byte("attacker-key"), "test-issuer", account.PurposeAuth, time.Hour)

		resp, err := fx.app.Test(cookieRequest(fiber.MethodGet, "/private", forged))
		require.NoError(t, err)

		assert.Equal(t, http.StatusFound, resp.StatusCode)
	})
}

func TestRequireGuest(t *testing.T) {
	t.Run("admits anonymous requests", func(t *testing.T) {
		fx := newGuardFixture(t)

		resp, err := fx.app.Test(cookieRequest(fiber.MethodGet, "/guest", ""))
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("redirects authenticated users to logout", func(t *testing.T) {
		fx := newGuardFixture(t)

		user := &account.User{Email: "walter@example.com", EmailValidated: true}
		fx.users.On("FindByEmail", mock.Anything, "walter@example.com").Return(user, nil)

		token, err := fx.tokens.Issue("walter@example.com", account.PurposeAuth, time.Hour)
		require.NoError(t, err)

		resp, err := fx.app.Test(cookieRequest(fiber.MethodGet, "/guest", token))
		require.NoError(t, err)

		assert.Equal(t, http.StatusFound, resp.StatusCode)
		assert.Equal(t, "/account/logout", resp.Header.Get("Location"))
	})
}

func TestCurrentUserIsolation(t *testing.T) {
	fx := newGuardFixture(t)

	fx.users.On("FindByEmail", mock.Anything, "alpha@example.com").
		Return(&account.User{Email: "alpha@example.com", EmailValidated: true}, nil)
	fx.users.On("FindByEmail", mock.Anything, "beta@example.com").
		Return(&account.User{Email: "beta@example.com", EmailValidated: true}, nil)

	alphaToken, err := fx.tokens.Issue("alpha@example.com", account.PurposeAuth, time.Hour)
	require.NoError(t, err)
	betaToken, err := fx.tokens.Issue("beta@example.com", account.PurposeAuth, time.Hour)
	require.NoError(t, err)

	respAlpha, err := fx.app.Test(cookieRequest(fiber.MethodGet, "/private", alphaToken))
	require.NoError(t, err)
	respBeta, err := fx.app.Test(cookieRequest(fiber.MethodGet, "/private", betaToken))
	require.NoError(t, err)

	bodyAlpha := readBody(t, respAlpha)
	bodyBeta := readBody(t, respBeta)

	assert.Contains(t, bodyAlpha, "alpha@example.com")
	assert.NotContains(t, bodyAlpha, "beta@example.com")
	assert.Contains(t, bodyBeta, "beta@example.com")
	assert.NotContains(t, bodyBeta, "alpha@example.com")
}

func TestCookieLifecycle(t *testing.T) {
	t.Run("login sets a scoped http only cookie", func(t *testing.T) {
		fx := newGuardFixture(t)

		hash, err := account.HashPassword("correct horse battery")
		require.NoError(t, err)
		fx.users.On("FindByEmail", mock.Anything, "walter@example.com").
			Return(&account.User{Email: "walter@example.com", PasswordHash: hash, EmailValidated: true}, nil)

		req := httptest.NewRequest(fiber.MethodPost, "/do-login",
			strings.NewReader("email=walter%40example.com&password=correct+horse+battery"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err := fx.app.Test(req)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		cookie := findCookie(resp.Cookies(), account.CookieName)
		require.NotNil(t, cookie)
		assert.NotEmpty(t, cookie.Value)
		assert.True(t, cookie.HttpOnly)
		assert.Equal(t, "/", cookie.Path)
		assert.Greater(t, cookie.MaxAge, 0)
	})

	t.Run("logout expires the cookie but not the token", func(t *testing.T) {
		fx := newGuardFixture(t)

		token, err := fx.tokens.Issue("walter@example.com", account.PurposeAuth, time.Hour)
		require.NoError(t, err)

		resp, err := fx.app.Test(cookieRequest(fiber.MethodGet, "/do-logout", token))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		cookie := findCookie(resp.Cookies(), account.CookieName)
		require.NotNil(t, cookie)
		assert.Empty(t, cookie.Value)
		assert.True(t, cookie.Expires.Before(time.Now()))

		// Stateless tokens survive logout until they expire.
		claims, err := fx.tokens.Validate(token)
		require.NoError(t, err)
		assert.Equal(t, "walter@example.com", claims.Email())
	})
}

func findCookie(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}

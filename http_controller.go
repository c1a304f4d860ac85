package account

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
)

// Message is a one shot notice rendered by the templates. Tags drive the
// styling: success, error, info.
type Message struct {
	Content string `json:"content"`
	Tags    string `json:"tags"`
}

func successMessage(content string) Message { return Message{Content: content, Tags: "success"} }
func errorMessage(content string) Message   { return Message{Content: content, Tags: "error"} }
func infoMessage(content string) Message    { return Message{Content: content, Tags: "info"} }

// RegisterAccountRoutes mounts every account flow on the given router,
// normally the /account group. Guest only pages and the detail page get
// their guards here.
func RegisterAccountRoutes(app fiber.Router, opts ...AccountControllerOption) {
	controller := NewAccountController(opts...)

	guest := controller.Auther.RequireGuest()
	authed := controller.Auther.RequireAuthenticated()

	app.Get(controller.Routes.Signup, guest, controller.SignupShow).Name("signup.get")
	app.Post(controller.Routes.Signup, guest, controller.SignupCreate).Name("signup.post")

	app.Get(controller.Routes.Login, guest, controller.LoginShow).Name("login.get")
	app.Post(controller.Routes.Login, guest, controller.LoginPost).Name("login.post")

	app.Get(controller.Routes.Logout, authed, controller.LogoutShow).Name("logout.get")
	app.Post(controller.Routes.Logout, controller.LogoutPost).Name("logout.post")

	app.Get(controller.Routes.Detail, authed, controller.DetailShow).Name("detail.get")

	app.Get(controller.Routes.EmailVerify, controller.EmailVerify).Name("email-verify.get")

	app.Get(controller.Routes.EmailVerifyResend, controller.EmailVerifyResendShow).Name("email-verify-resend.get")
	app.Post(controller.Routes.EmailVerifyResend, controller.EmailVerifyResendPost).Name("email-verify-resend.post")

	app.Get(controller.Routes.PasswordReset, controller.PasswordResetShow).Name("pwd-reset.get")
	app.Post(controller.Routes.PasswordReset, controller.PasswordResetPost).Name("pwd-reset.post")

	app.Get(controller.Routes.PasswordResetConfirm, controller.PasswordResetConfirmShow).Name("pwd-reset-do.get")
	app.Post(controller.Routes.PasswordResetConfirm, controller.PasswordResetConfirmExecute).Name("pwd-reset-do.post")
}

type AccountControllerRoutes struct {
	Signup               string
	Login                string
	Logout               string
	Detail               string
	EmailVerify          string
	EmailVerifyResend    string
	PasswordReset        string
	PasswordResetConfirm string
}

type AccountControllerViews struct {
	Signup               string
	Login                string
	Logout               string
	Detail               string
	EmailVerifyResend    string
	PasswordReset        string
	PasswordResetConfirm string
}

type AccountController struct {
	Debug        bool
	Logger       Logger
	Repo         RepositoryManager
	Tokens       TokenService
	Routes       *AccountControllerRoutes
	Views        *AccountControllerViews
	Auther       *RouteAuthenticator
	ErrorHandler func(c *fiber.Ctx, err error) error
}

type AccountControllerOption func(*AccountController) *AccountController

func WithControllerLogger(logger Logger) AccountControllerOption {
	return func(c *AccountController) *AccountController {
		c.Logger = logger
		return c
	}
}

func WithControllerRepo(repo RepositoryManager) AccountControllerOption {
	return func(c *AccountController) *AccountController {
		c.Repo = repo
		return c
	}
}

func WithControllerTokens(tokens TokenService) AccountControllerOption {
	return func(c *AccountController) *AccountController {
		c.Tokens = tokens
		return c
	}
}

func WithControllerAuther(auther *RouteAuthenticator) AccountControllerOption {
	return func(c *AccountController) *AccountController {
		c.Auther = auther
		return c
	}
}

func WithControllerDebug(debug bool) AccountControllerOption {
	return func(c *AccountController) *AccountController {
		c.Debug = debug
		return c
	}
}

func NewAccountController(opts ...AccountControllerOption) *AccountController {
	c := &AccountController{
		Logger:       defLogger{},
		ErrorHandler: defaultErrHandler,
		Routes: &AccountControllerRoutes{
			Signup:               "/signup",
			Login:                "/login",
			Logout:               "/logout",
			Detail:               "/detail",
			EmailVerify:          "/email-verify",
			EmailVerifyResend:    "/email-verify-resend",
			PasswordReset:        "/reset-password",
			PasswordResetConfirm: "/reset-password-confirm",
		},
		Views: &AccountControllerViews{
			Signup:               "signup",
			Login:                "login",
			Logout:               "logout",
			Detail:               "detail",
			EmailVerifyResend:    "email_verify_resend",
			PasswordReset:        "password_reset",
			PasswordResetConfirm: "password_reset_confirm",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in account controller...")
	}

	if c.Tokens == nil {
		panic("Missing TokenService in account controller...")
	}

	if c.Auther == nil {
		panic("Missing HTTPAuthenticator in account controller...")
	}

	return c
}

func (a *AccountController) SignupShow(ctx *fiber.Ctx) error {
	return ctx.Render(a.Views.Signup, fiber.Map{
		"errors": map[string]string{},
		"record": SignupPayload{},
	})
}

// SignupPayload is the registration form payload
type SignupPayload struct {
	Email           string `form:"email" json:"email"`
	Username        string `form:"username" json:"username"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

// Validate will validate the payload
func (r SignupPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Username, validation.Required, validation.Length(3, 20)),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.By(ValidateStringEquals(r.Password)),
		),
	)
}

func (a *AccountController) SignupCreate(ctx *fiber.Ctx) error {
	payload := new(SignupPayload)

	if err := ctx.BodyParser(payload); err != nil {
		a.Logger.Error("signup parse payload", "error", err)
		return ctx.Status(fiber.StatusBadRequest).Render(a.Views.Signup, fiber.Map{
			"errors": map[string]string{"form": "Failed to parse form"},
			"record": payload,
		})
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("signup validate payload", "error", err)
		return ctx.Render(a.Views.Signup, fiber.Map{
			"record":     payload,
			"validation": FormatValidationErrorToMap(err),
		})
	}

	var res *RegisterUserResponse

	req := RegisterUserMessage{
		Email:    payload.Email,
		Username: payload.Username,
		Password: payload.Password,
		OnResponse: func(r *RegisterUserResponse) {
			res = r
		},
	}

	registerUser := NewRegisterUserHandler(a.Repo, a.Tokens)
	if err := registerUser.Execute(ctx.UserContext(), req); err != nil {
		a.Logger.Error("signup execute error", "error", err)
		return ctx.Render(a.Views.Signup, fiber.Map{
			"record": payload,
			"errors": map[string]string{"registration": "Registration failed"},
		})
	}

	if !res.Created {
		return ctx.Render(a.Views.Signup, fiber.Map{
			"record": payload,
			"errors": map[string]string{"registration": firstError(res.Errors, "Registration failed")},
		})
	}

	a.deliverToken(payload.Email, "verification", a.Routes.EmailVerify, res.VerifyToken)

	return ctx.Render(a.Views.Login, fiber.Map{
		"errors": map[string]string{},
		"record": nil,
		"messages": []Message{
			successMessage("Account created. Check your email to verify your address before logging in."),
		},
	})
}

func (a *AccountController) LoginShow(ctx *fiber.Ctx) error {
	return ctx.Render(a.Views.Login, fiber.Map{
		"errors": map[string]string{},
		"record": nil,
	})
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// GetIdentifier returns the identifier
func (r LoginRequest) GetIdentifier() string {
	return r.Email
}

// GetPassword will return the password
func (r LoginRequest) GetPassword() string {
	return r.Password
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

func (a *AccountController) LoginPost(ctx *fiber.Ctx) error {
	payload := new(LoginRequest)

	if err := ctx.BodyParser(payload); err != nil {
		a.Logger.Error("login parse payload", "error", err)
		return ctx.Status(fiber.StatusBadRequest).Render(a.Views.Login, fiber.Map{
			"errors": map[string]string{"form": "Failed to parse form"},
			"record": payload,
		})
	}

	if err := payload.Validate(); err != nil {
		return ctx.Render(a.Views.Login, fiber.Map{
			"record":     payload,
			"validation": FormatValidationErrorToMap(err),
		})
	}

	if err := a.Auther.Login(ctx, payload); err != nil {
		if errors.Is(err, ErrEmailNotVerified) {
			return ctx.Render(a.Views.EmailVerifyResend, fiber.Map{
				"errors": map[string]string{},
				"record": nil,
				"messages": []Message{
					errorMessage("Your email address is not verified yet. Request a new verification link below."),
				},
			})
		}

		return ctx.Render(a.Views.Login, fiber.Map{
			"record": payload,
			"errors": map[string]string{"authentication": "Authentication Error"},
		})
	}

	return ctx.Redirect(a.accountPath(a.Routes.Detail), fiber.StatusSeeOther)
}

// LogoutShow renders the logout confirmation page. The cookie is left
// alone until the form posts back.
func (a *AccountController) LogoutShow(ctx *fiber.Ctx) error {
	return ctx.Render(a.Views.Logout, fiber.Map{})
}

// LogoutPost drops the cookie and sends the user back to login. The
// bearer token itself stays valid until it expires.
func (a *AccountController) LogoutPost(ctx *fiber.Ctx) error {
	a.Auther.Logout(ctx)
	return ctx.Redirect(a.accountPath(a.Routes.Login), fiber.StatusSeeOther)
}

func (a *AccountController) DetailShow(ctx *fiber.Ctx) error {
	user, ok := FromContext(ctx.UserContext())
	if !ok {
		return a.Auther.AuthErrorHandler(ctx, ErrUnableToFindSession)
	}

	return ctx.Render(a.Views.Detail, fiber.Map{
		"record": user,
	})
}

func (a *AccountController) EmailVerify(ctx *fiber.Ctx) error {
	token := ctx.Query("token")

	var res *VerifyEmailResponse

	req := VerifyEmailMessage{
		Token: token,
		OnResponse: func(r *VerifyEmailResponse) {
			res = r
		},
	}

	verifyEmail := NewVerifyEmailHandler(a.Repo, a.Tokens)
	if err := verifyEmail.Execute(ctx.UserContext(), req); err != nil {
		a.Logger.Error("email verify execute error", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	// Failures all land on the resend page; the redirect never says
	// whether the link was expired, forged, or mispurposed.
	if !res.Verified {
		return ctx.Redirect(a.accountPath(a.Routes.EmailVerifyResend), fiber.StatusSeeOther)
	}

	return ctx.Redirect(a.accountPath(a.Routes.Login), fiber.StatusSeeOther)
}

// EmailPayload is the single email form used by the resend and reset flows
type EmailPayload struct {
	Email string `form:"email" json:"email"`
}

// Validate will run validation rules
func (r EmailPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

func (a *AccountController) EmailVerifyResendShow(ctx *fiber.Ctx) error {
	return ctx.Render(a.Views.EmailVerifyResend, fiber.Map{
		"errors": map[string]string{},
		"record": nil,
	})
}

func (a *AccountController) EmailVerifyResendPost(ctx *fiber.Ctx) error {
	payload := new(EmailPayload)

	if err := ctx.BodyParser(payload); err != nil {
		a.Logger.Error("verify resend parse payload", "error", err)
		return ctx.Status(fiber.StatusBadRequest).Render(a.Views.EmailVerifyResend, fiber.Map{
			"errors": map[string]string{"form": "Failed to parse form"},
			"record": payload,
		})
	}

	if err := payload.Validate(); err != nil {
		return ctx.Render(a.Views.EmailVerifyResend, fiber.Map{
			"record":     payload,
			"validation": FormatValidationErrorToMap(err),
		})
	}

	var res *ResendVerificationResponse

	req := ResendVerificationMessage{
		Email: payload.Email,
		OnResponse: func(r *ResendVerificationResponse) {
			res = r
		},
	}

	resend := NewResendVerificationHandler(a.Repo, a.Tokens)
	if err := resend.Execute(ctx.UserContext(), req); err != nil {
		a.Logger.Error("verify resend execute error", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	messages := []Message{}
	switch {
	case !res.Found:
		messages = append(messages, errorMessage("Email not found."))
	case res.AlreadyVerified:
		messages = append(messages, infoMessage("This email address is already verified."))
	default:
		a.deliverToken(payload.Email, "verification", a.Routes.EmailVerify, res.VerifyToken)
		messages = append(messages, successMessage("Verification email sent. Check your inbox."))
	}

	return ctx.Render(a.Views.EmailVerifyResend, fiber.Map{
		"record":   payload,
		"messages": messages,
	})
}

func (a *AccountController) PasswordResetShow(ctx *fiber.Ctx) error {
	return ctx.Render(a.Views.PasswordReset, fiber.Map{
		"errors": map[string]string{},
		"record": nil,
	})
}

func (a *AccountController) PasswordResetPost(ctx *fiber.Ctx) error {
	payload := new(EmailPayload)

	if err := ctx.BodyParser(payload); err != nil {
		a.Logger.Error("password reset parse payload", "error", err)
		return ctx.Status(fiber.StatusBadRequest).Render(a.Views.PasswordReset, fiber.Map{
			"errors": map[string]string{"form": "Failed to parse form"},
			"record": payload,
		})
	}

	if err := payload.Validate(); err != nil {
		return ctx.Render(a.Views.PasswordReset, fiber.Map{
			"record":     payload,
			"validation": FormatValidationErrorToMap(err),
		})
	}

	var res *InitializePasswordResetResponse

	req := InitializePasswordResetMessage{
		Email: payload.Email,
		OnResponse: func(r *InitializePasswordResetResponse) {
			res = r
		},
	}

	initPwdReset := NewInitializePasswordResetHandler(a.Repo, a.Tokens)
	if err := initPwdReset.Execute(ctx.UserContext(), req); err != nil {
		a.Logger.Error("password reset execute error", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	messages := []Message{}
	if !res.Found {
		messages = append(messages, errorMessage("Email not found."))
	} else {
		a.deliverToken(payload.Email, "password reset", a.Routes.PasswordResetConfirm, res.ResetToken)
		messages = append(messages, successMessage("Password reset email sent. Check your inbox."))
	}

	return ctx.Render(a.Views.PasswordReset, fiber.Map{
		"record":   payload,
		"messages": messages,
	})
}

// PasswordResetConfirmShow renders the new-password form only for a
// live reset token; anything else goes back to the request page.
func (a *AccountController) PasswordResetConfirmShow(ctx *fiber.Ctx) error {
	token := ctx.Query("token")

	claims, err := a.Tokens.Validate(token)
	if err != nil {
		return ctx.Redirect(a.accountPath(a.Routes.PasswordReset), fiber.StatusSeeOther)
	}

	if err := claims.RequirePurpose(PurposePasswordReset); err != nil {
		return ctx.Redirect(a.accountPath(a.Routes.PasswordReset), fiber.StatusSeeOther)
	}

	return ctx.Render(a.Views.PasswordResetConfirm, fiber.Map{
		"errors": map[string]string{},
		"record": nil,
		"token":  token,
	})
}

// PasswordResetConfirmPayload holds the new password and its token
type PasswordResetConfirmPayload struct {
	Token           string `form:"token" json:"token"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

// Validate will validate the payload
func (r PasswordResetConfirmPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Token, validation.Required),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.By(ValidateStringEquals(r.Password)),
		),
	)
}

func (a *AccountController) PasswordResetConfirmExecute(ctx *fiber.Ctx) error {
	payload := new(PasswordResetConfirmPayload)

	if err := ctx.BodyParser(payload); err != nil {
		a.Logger.Error("password reset confirm parse payload", "error", err)
		return ctx.Status(fiber.StatusBadRequest).Render(a.Views.PasswordResetConfirm, fiber.Map{
			"errors": map[string]string{"form": "Failed to parse form"},
			"record": payload,
			"token":  payload.Token,
		})
	}

	// The link carries the token in the query; the hidden form field is
	// only a fallback.
	if token := ctx.Query("token"); token != "" {
		payload.Token = token
	}

	if err := payload.Validate(); err != nil {
		return ctx.Render(a.Views.PasswordResetConfirm, fiber.Map{
			"record":     payload,
			"token":      payload.Token,
			"validation": FormatValidationErrorToMap(err),
		})
	}

	var res *FinalizePasswordResetResponse

	req := FinalizePasswordResetMessage{
		Token:    payload.Token,
		Password: payload.Password,
		OnResponse: func(r *FinalizePasswordResetResponse) {
			res = r
		},
	}

	finalizePwdReset := NewFinalizePasswordResetHandler(a.Repo, a.Tokens)
	if err := finalizePwdReset.Execute(ctx.UserContext(), req); err != nil {
		a.Logger.Error("password reset confirm execute error", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	// Rejected tokens all land back on the request page; the redirect
	// never says whether the link was expired, forged, or mispurposed.
	if !res.Updated {
		return ctx.Redirect(a.accountPath(a.Routes.PasswordReset), fiber.StatusSeeOther)
	}

	return ctx.Render(a.Views.Login, fiber.Map{
		"errors": map[string]string{},
		"record": nil,
		"messages": []Message{
			successMessage("Password updated. Log in with your new password."),
		},
	})
}

// deliverToken stands in for the mailer: the link is written to the log
// so operators can hand it to the user.
// TODO: replace with an SMTP backed mailer once outbound email exists.
func (a *AccountController) deliverToken(email, kind, route, token string) {
	if a.Debug {
		a.Logger.Debug("Minted "+kind+" token", "email", email, "token", token)
	}

	a.Logger.Info(
		"Sending "+kind+" link",
		"email", email,
		"link", a.accountPath(route)+"?token="+token,
	)
}

func (a *AccountController) accountPath(route string) string {
	return "/account" + route
}

func firstError(errs []string, fallback string) string {
	if len(errs) > 0 {
		return errs[0]
	}
	return fallback
}

// ValidateStringEquals will check that both values match
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return errors.New("values must match")
		}
		return nil
	}
}

// FormatValidationErrorToMap flattens ozzo validation errors into a
// field to message map for the templates.
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}
	if err == nil {
		return out
	}

	var verrs validation.Errors
	if errors.As(err, &verrs) {
		for field, ferr := range verrs {
			out[field] = ferr.Error()
		}
		return out
	}

	out["payload"] = err.Error()
	return out
}

func defaultErrHandler(c *fiber.Ctx, err error) error {
	return c.Render("errors/500", fiber.Map{
		"message": err.Error(),
	})
}

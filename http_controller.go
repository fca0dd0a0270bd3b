package signup

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-print"
)

// SignupControllerRoutes are the paths the controller mounts.
type SignupControllerRoutes struct {
	PasswordConstraints    string
	Signup                 string
	CompleteVerifiedSignup string
}

// SignupController exposes the workflow over HTTP. All endpoints are
// anonymous and speak JSON.
type SignupController struct {
	Debug   bool
	Logger  Logger
	Plugin  *Plugin
	Handler *SignupHandler
	Flow    *ConfirmationFlow
	Routes  *SignupControllerRoutes
}

// SignupControllerOption mutates the controller during construction.
type SignupControllerOption func(*SignupController) *SignupController

// WithControllerPlugin attaches the bound plugin.
func WithControllerPlugin(p *Plugin) SignupControllerOption {
	return func(c *SignupController) *SignupController {
		c.Plugin = p
		return c
	}
}

// WithControllerLogger overrides the controller logger.
func WithControllerLogger(l Logger) SignupControllerOption {
	return func(c *SignupController) *SignupController {
		if l != nil {
			c.Logger = l
		}
		return c
	}
}

// WithControllerDebug toggles request payload dumping.
func WithControllerDebug(debug bool) SignupControllerOption {
	return func(c *SignupController) *SignupController {
		c.Debug = debug
		return c
	}
}

// NewSignupController builds a controller. It panics when the plugin is
// missing since the controller cannot serve anything without it.
func NewSignupController(opts ...SignupControllerOption) *SignupController {
	c := &SignupController{
		Logger: defLogger{},
		Routes: &SignupControllerRoutes{
			PasswordConstraints:    "/password-constraints",
			Signup:                 "/signup",
			CompleteVerifiedSignup: "/complete-verified-signup",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Plugin == nil {
		panic("Missing Plugin in signup controller...")
	}

	c.Handler = NewSignupHandler(c.Plugin)
	c.Flow = NewConfirmationFlow(c.Plugin)

	return c
}

// RegisterSignupRoutes mounts the three signup endpoints on the app.
func RegisterSignupRoutes(app fiber.Router, opts ...SignupControllerOption) *SignupController {
	controller := NewSignupController(opts...)

	app.Get(controller.Routes.PasswordConstraints, controller.GetPasswordConstraints).
		Name("signup.constraints.get")
	app.Post(controller.Routes.Signup, controller.SignupPost).
		Name("signup.post")
	app.Post(controller.Routes.CompleteVerifiedSignup, controller.CompleteVerifiedSignupPost).
		Name("signup.complete-verified.post")

	return controller
}

// GetPasswordConstraints serves the configured password policy.
func (a *SignupController) GetPasswordConstraints(ctx *fiber.Ctx) error {
	return ctx.JSON(a.Plugin.PasswordConstraints())
}

// SignupRequest is the POST /signup payload.
type SignupRequest struct {
	Email    string `json:"email" form:"email"`
	URL      string `json:"url" form:"url"`
	Password string `json:"password" form:"password"`
}

// Validate will run validation rules
func (r SignupRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required),
	)
}

// SignupPost handles POST /signup.
func (a *SignupController) SignupPost(ctx *fiber.Ctx) error {
	payload := new(SignupRequest)

	if err := ctx.BodyParser(payload); err != nil {
		a.Logger.Error("signup parse payload: %v", err)
		return ctx.Status(fiber.StatusBadRequest).JSON(failure("Invalid request body"))
	}

	if err := payload.Validate(); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(failure(err.Error()))
	}

	if a.Debug {
		fmt.Println("======= SIGNUP ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("=====================")
	}

	result, err := a.Handler.Execute(ctx.UserContext(), SignupMessage{
		Email:    payload.Email,
		Password: payload.Password,
		URL:      payload.URL,
		Sink:     &fiberResponseSink{ctx: ctx},
		Extra:    requestContextFromFiber(ctx),
	})
	if err != nil {
		a.Logger.Error("signup execute: %v", err)
		return fiber.ErrInternalServerError
	}

	return a.renderResult(ctx, result)
}

// CompleteVerifiedSignupRequest is the POST /complete-verified-signup
// payload.
type CompleteVerifiedSignupRequest struct {
	Token    string `json:"token" form:"token"`
	Password string `json:"password" form:"password"`
}

// Validate will run validation rules
func (r CompleteVerifiedSignupRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Token, validation.Required),
	)
}

// CompleteVerifiedSignupPost handles POST /complete-verified-signup.
func (a *SignupController) CompleteVerifiedSignupPost(ctx *fiber.Ctx) error {
	payload := new(CompleteVerifiedSignupRequest)

	if err := ctx.BodyParser(payload); err != nil {
		a.Logger.Error("complete verified signup parse payload: %v", err)
		return ctx.Status(fiber.StatusBadRequest).JSON(failure("Invalid request body"))
	}

	if err := payload.Validate(); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(failure(err.Error()))
	}

	result, err := a.Flow.Execute(ctx.UserContext(), CompleteVerifiedSignupMessage{
		Token:    payload.Token,
		Password: payload.Password,
		Sink:     &fiberResponseSink{ctx: ctx},
		Extra:    requestContextFromFiber(ctx),
	})
	if err != nil {
		a.Logger.Error("complete verified signup execute: %v", err)
		return fiber.ErrInternalServerError
	}

	return a.renderResult(ctx, result)
}

// renderResult maps the operation outcome to the wire shape: LoginResult
// when the login bridge ran, {ok, error} otherwise.
func (a *SignupController) renderResult(ctx *fiber.Ctx, result *SignupResult) error {
	if result.Login != nil {
		return ctx.JSON(result.Login)
	}
	return ctx.JSON(result)
}

// fiberResponseSink lets the host session layer write cookies through the
// active fiber context.
type fiberResponseSink struct {
	ctx *fiber.Ctx
}

func (s *fiberResponseSink) SetCookie(name, value string, expires time.Time) {
	s.ctx.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    value,
		Expires:  expires,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func requestContextFromFiber(ctx *fiber.Ctx) *RequestContext {
	headers := map[string]string{}
	for name, values := range ctx.GetReqHeaders() {
		if len(values) > 0 {
			headers[name] = values[0]
		}
	}

	var body map[string]any
	_ = ctx.BodyParser(&body)

	cookies := map[string]string{}
	ctx.Request().Header.VisitAllCookie(func(key, value []byte) {
		cookies[string(key)] = string(value)
	})

	return &RequestContext{
		Body:       body,
		Headers:    headers,
		Query:      ctx.Queries(),
		Cookies:    cookies,
		RequestURL: ctx.OriginalURL(),
	}
}

package identity

import (
	stderrors "errors"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/nyaruka/phonenumbers"
)

// AuthController exposes the JSON auth endpoints
type AuthController struct {
	Logger Logger
	Auther *Auther
	Routes *RouteAuthenticator
	Config Config
}

func NewAuthController(auther *Auther, routes *RouteAuthenticator, config Config) *AuthController {
	return &AuthController{
		Logger: defLogger{},
		Auther: auther,
		Routes: routes,
		Config: config,
	}
}

func (a *AuthController) WithLogger(logger Logger) *AuthController {
	if logger != nil {
		a.Logger = logger
	}
	return a
}

// RegisterAuthRoutes mounts the auth endpoints under /auth
func RegisterAuthRoutes(app fiber.Router, controller *AuthController) {
	grp := app.Group("/auth")

	grp.Post("/register", controller.RegistrationCreate)
	grp.Post("/login", controller.LoginPost)
	grp.Post("/logout", controller.LogOut)

	grp.Get("/profile", controller.Routes.Protected(), controller.Profile)
	grp.Get("/current-user", controller.Routes.Protected(), controller.CurrentUser)
	grp.Get("/admin", controller.Routes.Protected(RoleAdmin), controller.AdminIndex)
}

// LoginRequest is the login payload
type LoginRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will validate the payload
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

// RegistrationCreatePayload is the registration payload
type RegistrationCreatePayload struct {
	FirstName       string `form:"first_name" json:"first_name"`
	LastName        string `form:"last_name" json:"last_name"`
	Email           string `form:"email" json:"email"`
	Phone           string `form:"phone_number" json:"phone_number"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

// Validate will validate the payload. Password strength and the confirmation
// match run later with the registration command so every violation is
// collected in one response.
func (r RegistrationCreatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.LastName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Phone, validation.By(ValidatePhoneNumber)),
		validation.Field(&r.Password, validation.Required),
		validation.Field(&r.ConfirmPassword, validation.Required),
	)
}

// ValidatePhoneNumber accepts an empty phone and otherwise requires a number
// phonenumbers can parse and verify.
func ValidatePhoneNumber(value any) error {
	raw, _ := value.(string)
	if raw == "" {
		return nil
	}

	num, err := phonenumbers.Parse(raw, "US")
	if err != nil {
		return stderrors.New("must be a valid phone number")
	}

	if !phonenumbers.IsValidNumber(num) {
		return stderrors.New("must be a valid phone number")
	}

	return nil
}

// RegistrationCreate handles POST /auth/register
func (a *AuthController) RegistrationCreate(c *fiber.Ctx) error {
	payload := new(RegistrationCreatePayload)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("register parse payload", "error", err)
		return a.renderError(c, errors.Wrap(err, errors.CategoryBadInput, "failed to parse request body").
			WithTextCode(TextCodeValidation).
			WithCode(errors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Debug("register validate payload", "error", err)
		return a.renderError(c, validationErrorFromOzzo(err))
	}

	result, err := a.Auther.Register(c.UserContext(), RegisterUserMessage{
		FirstName:       payload.FirstName,
		LastName:        payload.LastName,
		Email:           payload.Email,
		Phone:           payload.Phone,
		Password:        payload.Password,
		ConfirmPassword: payload.ConfirmPassword,
	})
	if err != nil {
		a.Logger.Error("register user", "error", err)
		return a.renderError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "User registered successfully",
		"user":    result.User,
		"token":   result.Token,
	})
}

// LoginPost handles POST /auth/login. A successful login sets the session
// cookie in addition to returning the user.
func (a *AuthController) LoginPost(c *fiber.Ctx) error {
	payload := new(LoginRequest)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("login parse payload", "error", err)
		return a.renderError(c, errors.Wrap(err, errors.CategoryBadInput, "failed to parse request body").
			WithTextCode(TextCodeValidation).
			WithCode(errors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Debug("login validate payload", "error", err)
		return a.renderError(c, validationErrorFromOzzo(err))
	}

	result, err := a.Auther.Login(c.UserContext(), payload.Email, payload.Password)
	if err != nil {
		a.Logger.Debug("login failed", "email", payload.Email, "error", err)
		return a.renderError(c, err)
	}

	a.Routes.SetTokenCookie(c, result.Token)

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Login successful",
		"user":    result.User,
	})
}

// LogOut handles POST /auth/logout. The cookie is cleared whether or not the
// request carried a usable token.
func (a *AuthController) LogOut(c *fiber.Ctx) error {
	if raw, err := a.Routes.GetTokenFromRequest(c); err == nil {
		if err := a.Auther.Logout(c.UserContext(), raw); err != nil {
			a.Logger.Error("logout revocation", "error", err)
		}
	}

	a.Routes.ClearTokenCookie(c)

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Logged out successfully",
	})
}

// Profile handles GET /auth/profile. It reloads the record so the response
// reflects current state rather than claims minted at login.
func (a *AuthController) Profile(c *fiber.Ctx) error {
	claims, ok := GetRequestClaims(c, a.Config.GetContextKey())
	if !ok {
		return a.renderError(c, ErrMissingToken)
	}

	identity, err := a.Auther.IdentityFromSession(c.UserContext(), &SessionObject{
		UserID: claims.UserID(),
	})
	if err != nil {
		a.Logger.Error("profile lookup", "user_id", claims.UserID(), "error", err)
		return a.renderError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"user":    publicUserFromIdentity(identity),
	})
}

// CurrentUser handles GET /auth/current-user from the verified claims alone,
// without a store round trip.
func (a *AuthController) CurrentUser(c *fiber.Ctx) error {
	claims, ok := GetRequestClaims(c, a.Config.GetContextKey())
	if !ok {
		return a.renderError(c, ErrMissingToken)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"user": fiber.Map{
			"user_id":   claims.UserID(),
			"email":     claims.UserEmail(),
			"user_role": claims.Role(),
		},
	})
}

// AdminIndex handles GET /auth/admin; the route is gated to the admin role
func (a *AuthController) AdminIndex(c *fiber.Ctx) error {
	claims, ok := GetRequestClaims(c, a.Config.GetContextKey())
	if !ok {
		return a.renderError(c, ErrMissingToken)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Welcome to the admin area",
		"user_id": claims.UserID(),
	})
}

// validationErrorFromOzzo flattens field rule failures into the same wire
// shape the registration command produces.
func validationErrorFromOzzo(err error) error {
	fields := map[string]any{}

	var ozzoErrs validation.Errors
	if stderrors.As(err, &ozzoErrs) {
		for field, fieldErr := range ozzoErrs {
			fields[field] = fieldErr.Error()
		}
		return NewValidationError(fields)
	}

	fields["payload"] = err.Error()
	return NewValidationError(fields)
}

// renderError maps rich errors to the JSON wire shape. Validation errors
// carry their field details; internal errors hide theirs outside development.
func (a *AuthController) renderError(c *fiber.Ctx, err error) error {
	var rich *errors.Error
	if !errors.As(err, &rich) {
		a.Logger.Error("unhandled error", "error", err)
		rich = errors.Wrap(err, errors.CategoryInternal, "internal server error").
			WithTextCode(TextCodePersistence).
			WithCode(errors.CodeInternal)
	}

	status := fiber.StatusInternalServerError
	if rich.Code != 0 {
		status = rich.Code
	}

	if len(rich.Metadata) > 0 {
		a.Logger.Debug("request failed",
			"text_code", rich.TextCode,
			"details", print.MaybePrettyJSON(rich.Metadata),
		)
	}

	body := fiber.Map{
		"success": false,
		"error":   rich.Message,
		"code":    rich.TextCode,
	}

	if rich.Category == errors.CategoryValidation && len(rich.Metadata) > 0 {
		body["errors"] = rich.Metadata
	}

	if status >= fiber.StatusInternalServerError && a.Config.IsProduction() {
		body["error"] = "internal server error"
	}

	return c.Status(status).JSON(body)
}

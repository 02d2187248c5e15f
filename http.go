package identity

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-identity/middleware/jwtware"
)

// CookieName is the session cookie set on login and cleared on logout.
const CookieName = "token"

// RouteAuthenticator wires the authenticator into fiber routes. It owns the
// session cookie and the protected-route middleware.
type RouteAuthenticator struct {
	auther       *Auther
	config       Config
	errorHandler func(*fiber.Ctx, error) error
	logger       Logger
}

func NewRouteAuthenticator(auther *Auther, config Config) *RouteAuthenticator {
	a := &RouteAuthenticator{
		auther: auther,
		config: config,
		logger: defLogger{},
	}
	a.errorHandler = a.handleAuthError
	return a
}

func (a *RouteAuthenticator) WithLogger(logger Logger) *RouteAuthenticator {
	if logger != nil {
		a.logger = logger
	}
	return a
}

// WithErrorHandler replaces the default error translation for protected routes
func (a *RouteAuthenticator) WithErrorHandler(handler func(*fiber.Ctx, error) error) *RouteAuthenticator {
	if handler != nil {
		a.errorHandler = handler
	}
	return a
}

// Protected builds the middleware chain guarding a route. An empty role list
// admits any authenticated identity.
func (a *RouteAuthenticator) Protected(allowedRoles ...UserRole) fiber.Handler {
	return jwtware.New(jwtware.Config{
		ContextKey:     a.config.GetContextKey(),
		TokenLookup:    a.config.GetTokenLookup(),
		AuthScheme:     a.config.GetAuthScheme(),
		TokenValidator: validatorAdapter{a.auther.TokenValidator()},
		AllowedRoles:   allowedRoles,
		ErrorHandler:   a.errorHandler,
		ContextEnricher: func(ctx context.Context, claims jwtware.AuthClaims) context.Context {
			return WithClaimsContext(ctx, claims)
		},
	})
}

// validatorAdapter bridges the root TokenValidator to the middleware package
type validatorAdapter struct {
	validator TokenValidator
}

func (v validatorAdapter) Validate(tokenString string) (jwtware.AuthClaims, error) {
	claims, err := v.validator.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// SetTokenCookie attaches the session token to the response
func (a *RouteAuthenticator) SetTokenCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(time.Duration(a.config.GetTokenExpiration()) * time.Hour),
		HTTPOnly: true,
		Secure:   a.config.IsProduction(),
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}

// ClearTokenCookie expires the session cookie
func (a *RouteAuthenticator) ClearTokenCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		Secure:   a.config.IsProduction(),
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}

// GetTokenFromRequest extracts the raw token the same way the protected
// middleware does, so logout can revoke a token on any transport.
func (a *RouteAuthenticator) GetTokenFromRequest(c *fiber.Ctx) (string, error) {
	extractors := jwtware.GetExtractors(a.config.GetTokenLookup(), a.config.GetAuthScheme())
	raw, err := jwtware.ExtractRawToken(c, extractors)
	if err != nil || raw == "" {
		return "", ErrMissingToken
	}
	return raw, nil
}

// handleAuthError translates middleware failures into the wire error shape
func (a *RouteAuthenticator) handleAuthError(c *fiber.Ctx, err error) error {
	if stderrors.Is(err, jwtware.ErrJWTMissing) {
		return RenderError(c, ErrMissingToken)
	}
	if stderrors.Is(err, jwtware.ErrInsufficientRole) {
		return RenderError(c, ErrInsufficientPermissions)
	}
	return RenderError(c, err)
}

// RenderError writes a rich error as the JSON wire shape:
//
//	{"success": false, "error": "...", "code": "..."}
func RenderError(c *fiber.Ctx, err error) error {
	var rich *errors.Error
	if !errors.As(err, &rich) {
		rich = errors.Wrap(err, errors.CategoryAuth, "invalid or expired token").
			WithTextCode(TextCodeTokenMalformed).
			WithCode(errors.CodeUnauthorized)
	}

	status := fiber.StatusUnauthorized
	if rich.Code != 0 {
		status = rich.Code
	}

	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   rich.Message,
		"code":    rich.TextCode,
	})
}

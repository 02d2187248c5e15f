package identity

import (
	"context"
	"reflect"

	"github.com/goliatone/go-errors"
)

// Auther orchestrates credential verification and token issuance
type Auther struct {
	provider        IdentityProvider
	repo            RepositoryManager
	signingKey      []byte
	tokenExpiration int
	issuer          string
	audience        []string
	logger          Logger
	tokenService    TokenService
	tokenValidator  TokenValidator
	revoker         TokenRevoker
	passwordPolicy  PasswordPolicy
}

// NewAuthenticator returns a new Auther
func NewAuthenticator(provider IdentityProvider, repo RepositoryManager, opts Config) *Auther {
	tokenService := NewTokenService(
		[]byte(opts.GetSigningKey()),
		opts.GetTokenExpiration(),
		opts.GetIssuer(),
		opts.GetAudience(),
		defLogger{},
	)

	return &Auther{
		provider:        provider,
		repo:            repo,
		signingKey:      []byte(opts.GetSigningKey()),
		tokenExpiration: opts.GetTokenExpiration(),
		audience:        opts.GetAudience(),
		issuer:          opts.GetIssuer(),
		logger:          defLogger{},
		tokenService:    tokenService,
		revoker:         noopTokenRevoker{},
		passwordPolicy:  DefaultPasswordPolicy(),
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	s.logger = logger
	s.tokenService = NewTokenService(
		s.signingKey,
		s.tokenExpiration,
		s.issuer,
		s.audience,
		logger,
	)
	return s
}

// WithTokenValidator sets a custom token validator for externally issued tokens.
func (s *Auther) WithTokenValidator(validator TokenValidator) *Auther {
	s.tokenValidator = validator
	return s
}

// WithTokenRevoker installs a revocation store consulted on logout.
func (s *Auther) WithTokenRevoker(revoker TokenRevoker) *Auther {
	if revoker != nil {
		s.revoker = revoker
	}
	return s
}

// WithPasswordPolicy overrides the registration password policy.
func (s *Auther) WithPasswordPolicy(policy PasswordPolicy) *Auther {
	s.passwordPolicy = policy
	return s
}

// TokenService returns the TokenService instance used by this Auther
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// TokenValidator returns the validator applied to incoming tokens, falling
// back to the token service when no custom validator was installed.
func (s *Auther) TokenValidator() TokenValidator {
	if s.tokenValidator != nil {
		return s.tokenValidator
	}
	return s.tokenService
}

// Login verifies the credentials and issues a session token. Every failure
// the caller can observe collapses into the generic invalid-credentials
// error except an explicitly deactivated account.
func (s *Auther) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = NormalizeEmail(email)

	identity, err := s.provider.VerifyIdentity(ctx, email, password)
	if err != nil {
		s.logger.Debug("Login verify identity error", "error", err)
		return nil, err
	}

	if identity == nil || reflect.ValueOf(identity).IsZero() {
		s.logger.Error("Login identity is nil or zero value")
		return nil, ErrMismatchedHashAndPassword
	}

	token, err := s.tokenService.Generate(identity)
	if err != nil {
		s.logger.Error("Login token generation failed", "error", err)
		return nil, err
	}

	return &AuthResult{
		User:  publicUserFromIdentity(identity),
		Token: token,
	}, nil
}

// Logout records the session's token id with the revocation store. The
// default store is a no-op; cookie clearing happens at the HTTP layer.
func (s *Auther) Logout(ctx context.Context, rawToken string) error {
	if rawToken == "" {
		return nil
	}

	session, err := s.SessionFromToken(rawToken)
	if err != nil {
		// an unusable token needs no revocation
		s.logger.Debug("Logout skipping revocation for invalid token", "error", err)
		return nil
	}

	expiresAt := session.ExpiresAt
	if expiresAt == nil {
		return nil
	}

	if err := s.revoker.Revoke(ctx, session.TokenID, *expiresAt); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to record token revocation")
	}

	return nil
}

// SessionFromToken validates a raw token and returns its decoded session
func (s *Auther) SessionFromToken(raw string) (*SessionObject, error) {
	validator := s.tokenValidator
	if validator == nil {
		validator = s.tokenService
	}

	claims, err := validator.Validate(raw)
	if err != nil {
		s.logger.Debug("SessionFromToken validation failed", "error", err)
		return nil, err
	}

	session, err := sessionFromAuthClaims(claims)
	if err != nil {
		s.logger.Error("SessionFromToken failed to create session from claims", "error", err)
		return nil, err
	}

	return session, nil
}

// IdentityFromSession resolves the user record behind a verified session
func (s *Auther) IdentityFromSession(ctx context.Context, session *SessionObject) (Identity, error) {
	finder, ok := s.provider.(interface {
		FindIdentityByID(ctx context.Context, id int64) (Identity, error)
	})
	if !ok {
		return nil, errors.New("identity provider cannot resolve ids", errors.CategoryInternal)
	}

	identity, err := finder.FindIdentityByID(ctx, session.GetUserID())
	if err != nil {
		s.logger.Error("IdentityFromSession lookup failed", "error", err)
		return nil, err
	}

	return identity, nil
}

func publicUserFromIdentity(identity Identity) *PublicUser {
	if withRecord, ok := identity.(interface{ Record() *User }); ok {
		return withRecord.Record().Public()
	}

	return &PublicUser{
		ID:       identity.ID(),
		Email:    identity.Email(),
		Role:     identity.Role(),
		IsActive: identity.Active(),
	}
}

var _ Authenticator = (*Auther)(nil)

package identity

import (
	"context"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// RegisterUserMessage is the registration input
type RegisterUserMessage struct {
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Email           string `json:"email"`
	Phone           string `json:"phone_number"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (e RegisterUserMessage) Type() string { return "user.register" }

// Register validates the payload, persists the user, and issues a session
// token for the new account. Validation collects every violated password
// rule before reporting. The duplicate check folds case; a concurrent
// duplicate slipping past it is caught by the store's unique constraint
// and surfaces as the same DuplicateEmail error.
func (s *Auther) Register(ctx context.Context, msg RegisterUserMessage) (*AuthResult, error) {
	email := NormalizeEmail(msg.Email)

	if fields := s.validateRegistration(msg); len(fields) > 0 {
		return nil, NewValidationError(fields)
	}

	exists, err := s.repo.Users().EmailExists(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateEmail
	}

	user := &User{}
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err = s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		hash, err := HashPassword(msg.Password)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		user.PasswordHash = hash
		user.Email = email
		user.Phone = strings.TrimSpace(msg.Phone)
		user.FirstName = strings.TrimSpace(msg.FirstName)
		user.LastName = strings.TrimSpace(msg.LastName)
		user.Role = RoleStandardUser
		user.IsActive = true

		if user, err = s.repo.Users().CreateTx(ctx, tx, user); err != nil {
			return err
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}

		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "user registration transaction failed")
	}

	token, err := s.tokenService.Generate(userIdentity{user: user})
	if err != nil {
		s.logger.Error("Register token generation failed", "error", err)
		return nil, err
	}

	return &AuthResult{
		User:  user.Public(),
		Token: token,
	}, nil
}

// validateRegistration applies the password policy and the confirmation
// check; field-level payload rules (lengths, email shape, phone) run in the
// HTTP payload's Validate before the message reaches this point.
func (s *Auther) validateRegistration(msg RegisterUserMessage) map[string]any {
	fields := map[string]any{}

	if violations := s.passwordPolicy.Violations(msg.Password); len(violations) > 0 {
		fields["password"] = violations
	}

	if msg.Password != msg.ConfirmPassword {
		fields["confirm_password"] = []string{"passwords do not match"}
	}

	return fields
}

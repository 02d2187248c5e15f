package identity

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/goliatone/go-errors"
)

// PasswordPolicy is the rule set applied to new passwords. Validate
// collects every violated rule so a client can fix them all in one pass.
type PasswordPolicy struct {
	MinLength      int
	RequireUpper   bool
	RequireLower   bool
	RequireNumber  bool
	RequireSpecial bool
	SpecialRunes   string
}

// DefaultPasswordPolicy mirrors the policy enforced at registration.
func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		MinLength:      8,
		RequireUpper:   true,
		RequireLower:   true,
		RequireNumber:  true,
		RequireSpecial: true,
		SpecialRunes:   "@$!%*?&",
	}
}

// Violations returns one message per violated rule, empty when the
// password satisfies the policy.
func (p PasswordPolicy) Violations(password string) []string {
	var hasUpper, hasLower, hasNumber, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasNumber = true
		case strings.ContainsRune(p.SpecialRunes, r):
			hasSpecial = true
		}
	}

	var violations []string
	if len([]rune(password)) < p.MinLength {
		violations = append(violations, fmt.Sprintf("must be at least %d characters long", p.MinLength))
	}
	if p.RequireUpper && !hasUpper {
		violations = append(violations, "must contain at least one uppercase letter")
	}
	if p.RequireLower && !hasLower {
		violations = append(violations, "must contain at least one lowercase letter")
	}
	if p.RequireNumber && !hasNumber {
		violations = append(violations, "must contain at least one digit")
	}
	if p.RequireSpecial && !hasSpecial {
		violations = append(violations, fmt.Sprintf("must contain at least one special character (%s)", p.SpecialRunes))
	}

	return violations
}

// Validate adapts the policy to an ozzo `validation.By` rule so payloads
// can run it alongside their other field rules.
func (p PasswordPolicy) Validate(value any) error {
	password, _ := value.(string)
	if violations := p.Violations(password); len(violations) > 0 {
		return errors.New(strings.Join(violations, "; "), errors.CategoryValidation).
			WithTextCode(TextCodeValidation)
	}
	return nil
}

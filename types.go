package identity

import (
	"context"
	"fmt"
	"strings"
	"time"
)

type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Identity holds the attributes of an authenticated identity
type Identity interface {
	ID() int64
	Email() string
	Role() UserRole
	Active() bool
}

// Authenticator holds methods to deal with authentication
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Register(ctx context.Context, msg RegisterUserMessage) (*AuthResult, error)
	SessionFromToken(token string) (*SessionObject, error)
	IdentityFromSession(ctx context.Context, session *SessionObject) (Identity, error)
}

// AuthResult is what a successful login or registration hands back: the
// safe projection of the user plus a freshly signed session token.
type AuthResult struct {
	User  *PublicUser `json:"user"`
	Token string      `json:"token"`
}

// Config holds auth options
type Config interface {
	GetSigningKey() string
	GetSigningMethod() string
	GetContextKey() string
	GetTokenExpiration() int
	GetTokenLookup() string
	GetAuthScheme() string
	GetIssuer() string
	GetAudience() []string
	IsProduction() bool
}

// IdentityProvider ensures we have a store to retrieve auth identities
type IdentityProvider interface {
	VerifyIdentity(ctx context.Context, email, password string) (Identity, error)
	FindIdentityByEmail(ctx context.Context, email string) (Identity, error)
}

// PasswordAuthenticator authenticates passwords
type PasswordAuthenticator interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

// TokenRevoker records tokens that must no longer be honored. The default
// implementation is a no-op; wire a real store to enforce revocation.
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
}

type noopTokenRevoker struct{}

func (noopTokenRevoker) Revoke(context.Context, string, time.Time) error { return nil }

type defLogger struct{}

func (d defLogger) Error(msg string, args ...any) { fmt.Println(formatLogLine("ERR", msg, args...)) }

func (d defLogger) Warn(msg string, args ...any) { fmt.Println(formatLogLine("WRN", msg, args...)) }

func (d defLogger) Info(msg string, args ...any) { fmt.Println(formatLogLine("INF", msg, args...)) }

func (d defLogger) Debug(msg string, args ...any) { fmt.Println(formatLogLine("DBG", msg, args...)) }

// formatLogLine renders trailing arguments as key=value pairs. Callers pass
// alternating keys and values; an odd trailing argument is appended bare.
func formatLogLine(level, msg string, args ...any) string {
	var b strings.Builder
	b.WriteString("[")
	b.WriteString(level)
	b.WriteString("] IDENTITY ")
	b.WriteString(msg)
	for i := 0; i < len(args); i += 2 {
		if i+1 < len(args) {
			fmt.Fprintf(&b, " %v=%v", args[i], args[i+1])
		} else {
			fmt.Fprintf(&b, " %v", args[i])
		}
	}
	return b.String()
}

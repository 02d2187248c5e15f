package identity

import (
	"os"
	"strconv"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/joho/godotenv"
)

// EnvConfig is the environment backed Config implementation. Zero values
// fall back to defaults except the signing key, which is required.
type EnvConfig struct {
	SigningKey      string
	SigningMethod   string
	ContextKey      string
	TokenExpiration int
	TokenLookup     string
	AuthScheme      string
	Issuer          string
	Audience        []string
	Production      bool
}

// NewConfigFromEnv reads the configuration from the process environment. It
// loads a .env file first when one exists.
func NewConfigFromEnv() (*EnvConfig, error) {
	// missing .env is fine, the environment may be set by the runtime
	_ = godotenv.Load()

	cfg := &EnvConfig{
		SigningKey:      os.Getenv("JWT_SECRET"),
		SigningMethod:   envOr("JWT_SIGNING_METHOD", "HS256"),
		ContextKey:      envOr("AUTH_CONTEXT_KEY", "user"),
		TokenExpiration: 24,
		TokenLookup:     envOr("AUTH_TOKEN_LOOKUP", "header:Authorization,cookie:token,query:token"),
		AuthScheme:      envOr("AUTH_SCHEME", "Bearer"),
		Issuer:          envOr("JWT_ISSUER", "go-identity"),
		Production:      strings.EqualFold(os.Getenv("APP_ENV"), "production"),
	}

	if cfg.SigningKey == "" {
		return nil, errors.New("JWT_SECRET is required", errors.CategoryOperation).
			WithTextCode("MISSING_SIGNING_KEY")
	}

	if raw := os.Getenv("JWT_TOKEN_EXPIRATION_HOURS"); raw != "" {
		hours, err := strconv.Atoi(raw)
		if err != nil || hours <= 0 {
			return nil, errors.New("JWT_TOKEN_EXPIRATION_HOURS must be a positive integer", errors.CategoryOperation).
				WithMetadata(map[string]any{"value": raw})
		}
		cfg.TokenExpiration = hours
	}

	if raw := os.Getenv("JWT_AUDIENCE"); raw != "" {
		for _, aud := range strings.Split(raw, ",") {
			if aud = strings.TrimSpace(aud); aud != "" {
				cfg.Audience = append(cfg.Audience, aud)
			}
		}
	}

	return cfg, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func (c *EnvConfig) GetSigningKey() string { return c.SigningKey }
func (c *EnvConfig) GetSigningMethod() string { return c.SigningMethod }
func (c *EnvConfig) GetContextKey() string { return c.ContextKey }
func (c *EnvConfig) GetTokenExpiration() int { return c.TokenExpiration }
func (c *EnvConfig) GetTokenLookup() string { return c.TokenLookup }
func (c *EnvConfig) GetAuthScheme() string { return c.AuthScheme }
func (c *EnvConfig) GetIssuer() string { return c.Issuer }
func (c *EnvConfig) GetAudience() []string { return c.Audience }
func (c *EnvConfig) IsProduction() bool { return c.Production }

var _ Config = (*EnvConfig)(nil)

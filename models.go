package identity

import (
	"strings"
	"time"

	"github.com/uptrace/bun"
)

// UserRole is the user's role. It stays an alias so packages that mirror
// the claims interfaces (middleware/jwtware) can use plain strings.
type UserRole = string

const (
	// RoleStandardUser is the default role assigned on registration
	RoleStandardUser UserRole = "standard_user"
	// RoleAdmin gates administrative endpoints
	RoleAdmin UserRole = "admin"
)

// User is the user model
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            int64      `bun:"user_id,pk,autoincrement" json:"user_id,omitempty"`
	FirstName     string     `bun:"first_name,notnull" json:"first_name,omitempty"`
	LastName      string     `bun:"last_name,notnull" json:"last_name,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Phone         string     `bun:"phone_number" json:"phone_number,omitempty"`
	PasswordHash  string     `bun:"password_hash,notnull" json:"-"`
	IsActive      bool       `bun:"is_active,notnull,default:true" json:"is_active,omitempty"`
	Role          UserRole   `bun:"user_role,notnull" json:"user_role,omitempty"`
	ResetToken    string     `bun:"reset_token" json:"-"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// PublicUser is the password-stripping projection of a User. It is the only
// shape handed to HTTP responses; the allow-list below is exhaustive, and
// PasswordHash and ResetToken never appear in it.
type PublicUser struct {
	ID        int64      `json:"user_id"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone_number,omitempty"`
	IsActive  bool       `json:"is_active"`
	Role      UserRole   `json:"user_role"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// Public returns the safe projection of the user
func (u *User) Public() *PublicUser {
	if u == nil {
		return nil
	}
	return &PublicUser{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Phone:     u.Phone,
		IsActive:  u.IsActive,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// NormalizeEmail trims surrounding whitespace and lowercases the address.
// Every code path that touches an email goes through this before it hits
// the store or a token claim.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// prepareUserDefaults fills the write-time invariants: role, active flag,
// normalized email, timestamps.
func prepareUserDefaults(u *User) {
	if u.Role == "" {
		u.Role = RoleStandardUser
	}

	u.Email = NormalizeEmail(u.Email)

	now := time.Now()
	if u.CreatedAt == nil {
		u.CreatedAt = &now
	}
	u.UpdatedAt = &now
}

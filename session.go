package identity

import "time"

// SessionObject is the decoded view of a verified session token, detached
// from the JWT machinery so handlers can pass it around freely.
type SessionObject struct {
	UserID    int64      `json:"user_id,omitempty"`
	Role      UserRole   `json:"user_role,omitempty"`
	Email     string     `json:"email,omitempty"`
	Issuer    string     `json:"issuer,omitempty"`
	Audience  []string   `json:"audience,omitempty"`
	TokenID   string     `json:"token_id,omitempty"`
	IssuedAt  *time.Time `json:"issued_at,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// GetUserID returns the subject user id
func (s *SessionObject) GetUserID() int64 {
	return s.UserID
}

// GetRole returns the role asserted by the token
func (s *SessionObject) GetRole() UserRole {
	return s.Role
}

// Expired reports whether the session's expiry has passed
func (s *SessionObject) Expired() bool {
	if s.ExpiresAt == nil {
		return false
	}
	return !time.Now().Before(*s.ExpiresAt)
}

func sessionFromAuthClaims(claims AuthClaims) (*SessionObject, error) {
	if claims == nil {
		return nil, ErrTokenStructure
	}

	session := &SessionObject{
		UserID:  claims.UserID(),
		Role:    claims.Role(),
		Email:   claims.UserEmail(),
		TokenID: claims.TokenID(),
	}

	if iat := claims.IssuedAt(); !iat.IsZero() {
		session.IssuedAt = &iat
	}

	if exp := claims.Expires(); !exp.IsZero() {
		session.ExpiresAt = &exp
	}

	if jwtClaims, ok := claims.(*JWTClaims); ok {
		session.Issuer = jwtClaims.RegisteredClaims.Issuer
		session.Audience = jwtClaims.RegisteredClaims.Audience
	}

	return session, nil
}

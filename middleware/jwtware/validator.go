package jwtware

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// keyfuncValidator is the fallback validator used when the caller supplies
// signing keys instead of a TokenValidator. It verifies the signature and
// registered claims and decodes the identity fields from the payload.
type keyfuncValidator struct {
	keyFunc jwt.Keyfunc
}

func (v *keyfuncValidator) Validate(tokenString string) (AuthClaims, error) {
	token, err := jwt.Parse(tokenString, v.keyFunc)
	if err != nil {
		return nil, err
	}

	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	return decodedClaims(mc), nil
}

// decodedClaims adapts a raw claim map to the AuthClaims interface.
type decodedClaims jwt.MapClaims

func (d decodedClaims) Subject() string {
	sub, _ := jwt.MapClaims(d).GetSubject()
	return sub
}

func (d decodedClaims) UserID() int64 {
	switch v := d["uid"].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case string:
		id, _ := strconv.ParseInt(v, 10, 64)
		return id
	}
	if id, err := strconv.ParseInt(d.Subject(), 10, 64); err == nil {
		return id
	}
	return 0
}

func (d decodedClaims) Role() string {
	role, _ := d["role"].(string)
	return role
}

func (d decodedClaims) UserEmail() string {
	email, _ := d["email"].(string)
	return email
}

func (d decodedClaims) TokenID() string {
	jti, _ := d["jti"].(string)
	return jti
}

func (d decodedClaims) HasRole(role string) bool {
	return d.Role() == role
}

// roleRank mirrors the role hierarchy of the root package for tokens decoded
// without a custom validator.
var roleRank = map[string]int{
	"standard_user": 1,
	"admin":         2,
}

func (d decodedClaims) IsAtLeast(minRole string) bool {
	have, ok := roleRank[d.Role()]
	if !ok {
		return false
	}
	want, ok := roleRank[minRole]
	if !ok {
		return false
	}
	return have >= want
}

func (d decodedClaims) Expires() time.Time {
	exp, err := jwt.MapClaims(d).GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

func (d decodedClaims) IssuedAt() time.Time {
	iat, err := jwt.MapClaims(d).GetIssuedAt()
	if err != nil || iat == nil {
		return time.Time{}
	}
	return iat.Time
}

package jwttoken

import (
	"strings"

	dErrors "talaty/pkg/domain-errors"
	authmw "talaty/pkg/platform/middleware/auth"
)

// Validator exposes JWTService through the narrow interface the auth
// middleware consumes.
type Validator struct {
	service *JWTService
}

func NewValidator(service *JWTService) *Validator {
	return &Validator{service: service}
}

// ValidateToken verifies signature and issuer, then requires a subject.
// Roles are lowercased; the middleware decides what an unknown role means.
func (v *Validator) ValidateToken(tokenString string) (*authmw.JWTClaims, error) {
	claims, err := v.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(claims.UserID) == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "token has no subject")
	}
	return &authmw.JWTClaims{
		UserID: claims.UserID,
		Role:   strings.ToLower(strings.TrimSpace(claims.Role)),
	}, nil
}

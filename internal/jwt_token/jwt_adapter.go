package jwttoken

import (
	"registrar/pkg/platform/middleware/auth"
)

// MiddlewareAdapter adapts JWTService to the auth middleware's validator
// interface so the middleware package stays free of JWT library types.
type MiddlewareAdapter struct {
	service *JWTService
}

func NewMiddlewareAdapter(service *JWTService) *MiddlewareAdapter {
	return &MiddlewareAdapter{service: service}
}

func (a *MiddlewareAdapter) ValidateToken(tokenString string) (*auth.JWTClaims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return &auth.JWTClaims{
		ActorID:  claims.ActorID,
		FullName: claims.FullName,
	}, nil
}

var _ auth.JWTValidator = (*MiddlewareAdapter)(nil)

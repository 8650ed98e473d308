package jwttoken

import (
	id "safedesk/pkg/domain"
	dErrors "safedesk/pkg/domain-errors"
	authmw "safedesk/pkg/platform/middleware/auth"
)

// ToMiddlewareClaims parses the string claims into typed session facts.
func ToMiddlewareClaims(claims *Claims) (*authmw.Claims, error) {
	reviewerID, err := id.ParseReviewerID(claims.ReviewerID)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	orgID, err := id.ParseOrganizationID(claims.OrganizationID)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	role, err := id.ParseRole(claims.Role)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	return &authmw.Claims{
		ReviewerID:     reviewerID,
		OrganizationID: orgID,
		Role:           role,
		JTI:            claims.ID,
	}, nil
}

// JWTServiceAdapter satisfies the auth middleware's TokenValidator.
type JWTServiceAdapter struct {
	service *JWTService
}

func NewJWTServiceAdapter(service *JWTService) *JWTServiceAdapter {
	return &JWTServiceAdapter{service: service}
}

func (a *JWTServiceAdapter) ValidateToken(tokenString string) (*authmw.Claims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return ToMiddlewareClaims(claims)
}

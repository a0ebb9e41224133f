package model

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AuthRequest types
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// AuthResponse types
type TokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// TokenClaims represents JWT claims
type TokenClaims struct {
	jwt.RegisteredClaims
	UserID   uuid.UUID  `json:"user_id"`
	Role     Role       `json:"role"`
	ClinicID *uuid.UUID `json:"clinic_id,omitempty"`
	Email    string     `json:"email"`
}

// Principal returns the principal view of the claims.
func (c *TokenClaims) Principal() Principal {
	return Principal{
		UserID:   c.UserID,
		Role:     c.Role,
		ClinicID: c.ClinicID,
		Email:    c.Email,
	}
}

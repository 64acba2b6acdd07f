package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID  uuid.UUID
	OwnerID uuid.UUID
	JTI     string
}

// AccessTokenClaims represents the typed JWT issued to clients. OwnerID is the
// tenant every row the request touches must belong to.
type AccessTokenClaims struct {
	UserID  uuid.UUID `json:"user_id"`
	OwnerID uuid.UUID `json:"owner_id"`
	jwt.RegisteredClaims
}

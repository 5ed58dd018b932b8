package jwtutil

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/keycasey/Spirit-Beads-Service/pkg/config"
)

var (
	secret     = []byte("secret-key")
	expiration = 24 * time.Hour
)

// Initialize sets the signing key and token lifetime from configuration
func Initialize(cfg *config.Config) {
	if cfg.JWT.SigningKey != "" {
		secret = []byte(cfg.JWT.SigningKey)
	}
	if cfg.JWT.ExpirationTime > 0 {
		expiration = cfg.JWT.ExpirationTime
	}
}

// StaffClaims represents the JWT claims for staff authentication
type StaffClaims struct {
	Email  string `json:"email"`
	UserID uint   `json:"user_id"`
	Role   string `json:"role,omitempty"` // Staff member's role
	jwt.RegisteredClaims
}

// GenerateToken creates a JWT token for a staff member
func GenerateToken(email string, userID uint, role string) (string, error) {
	claims := StaffClaims{
		Email:  email,
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ValidateToken validates and parses the JWT token
func ValidateToken(tokenString string) (*StaffClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &StaffClaims{}, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*StaffClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, jwt.ErrSignatureInvalid
}

package utils

import (
	"errors"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenIssuer   = "garccom"
	tokenLifetime = 12 * time.Hour
	defaultSecret = "garccom-dev-secret"
)

var JWTSecret = []byte(defaultSecret)

func init() {
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		JWTSecret = []byte(secret)
	}
}

// SetJWTSecret replaces the signing key. An empty secret keeps the current one.
func SetJWTSecret(secret string) {
	if secret == "" {
		InfoLogger.Warn("JWT_SECRET not set, using the development secret")
		return
	}
	JWTSecret = []byte(secret)
}

type CustomClaims struct {
	StaffID      uint   `json:"staff_id"`
	RestaurantID uint   `json:"restaurant_id"`
	Role         string `json:"role"`
	jwt.RegisteredClaims
}

func GenerateToken(staffID, restaurantID uint, role string) (string, error) {
	now := time.Now()
	claims := &CustomClaims{
		StaffID:      staffID,
		RestaurantID: restaurantID,
		Role:         role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenLifetime)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(JWTSecret)
	if err != nil {
		ErrorLogger.Errorf("Error generating token: %v", err)
		return "", err
	}
	return signed, nil
}

func ParseToken(tokenString string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		return JWTSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(tokenIssuer))

	if err != nil || !token.Valid {
		return nil, errors.New("invalid or expired token")
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}

	return claims, nil
}

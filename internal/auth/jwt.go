// Package auth issues and validates the session tokens for the two
// audiences: store users on the entry view and managers on the dashboard.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Roles.
const (
	RoleStore   = "store"
	RoleManager = "manager"
)

// TokenExpiry is the session lifetime, matching the 24-hour store
// session the entry view has always used.
const TokenExpiry = 24 * time.Hour

// Claims represents the JWT claims.
type Claims struct {
	StoreCode string `json:"store_code,omitempty"`
	StoreName string `json:"store_name,omitempty"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

// GenerateStoreToken creates a session token for a store user.
func GenerateStoreToken(secret, storeCode, storeName string) (string, error) {
	return generate(secret, Claims{
		StoreCode: storeCode,
		StoreName: storeName,
		Role:      RoleStore,
	})
}

// GenerateManagerToken creates a session token for a dashboard manager.
func GenerateManagerToken(secret string) (string, error) {
	return generate(secret, Claims{Role: RoleManager})
}

func generate(secret string, claims Claims) (string, error) {
	jti, err := generateJTI()
	if err != nil {
		return "", fmt.Errorf("generating JTI: %w", err)
	}

	claims.RegisteredClaims = jwt.RegisteredClaims{
		ID:        jti,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(TokenExpiry)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and validates a JWT, returning the claims.
func ValidateToken(secret, tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parsing token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	return claims, nil
}

// generateJTI creates a random token ID.
func generateJTI() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// internal/pkg/auth/jwt.go
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/your-org/storefront-backend/internal/config"
)

// ErrInvalidToken is returned for any token that does not validate
var ErrInvalidToken = errors.New("invalid token")

// SellerClaims are the claims of a token issued to a store owner by the
// identity provider
type SellerClaims struct {
	StoreID uint   `json:"store_id"`
	Email   string `json:"email"`
	jwt.RegisteredClaims
}

// JWTManager validates seller tokens
type JWTManager struct {
	secret []byte
	issuer string
}

// NewJWTManager creates a new JWT manager
func NewJWTManager(cfg config.JWTConfig) *JWTManager {
	return &JWTManager{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
	}
}

// ValidateSellerToken parses an HS256 token and checks its store scope
func (j *JWTManager) ValidateSellerToken(tokenString string) (*SellerClaims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if j.issuer != "" {
		opts = append(opts, jwt.WithIssuer(j.issuer))
	}

	claims := &SellerClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return j.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.StoreID == 0 {
		return nil, fmt.Errorf("%w: store_id claim missing", ErrInvalidToken)
	}
	return claims, nil
}

// GenerateSellerToken issues a token for a store owner. Production tokens
// come from the identity provider; this serves local development and tests.
func (j *JWTManager) GenerateSellerToken(storeID uint, email string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := &SellerClaims{
		StoreID: storeID,
		Email:   email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    j.issuer,
			Subject:   fmt.Sprintf("store:%d", storeID),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.secret)
}

// ExtractTokenFromHeader extracts JWT token from Authorization header
func ExtractTokenFromHeader(authHeader string) string {
	token, ok := strings.CutPrefix(authHeader, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

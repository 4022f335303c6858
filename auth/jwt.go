// Package auth issues and checks the bearer tokens accepted by the admin API.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims identifies the admin a token was minted for.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

const RoleAdmin = "admin"

func GenerateToken(subject string, secretKey []byte, validity time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validity)),
			Subject:   subject,
		},
		Role: RoleAdmin,
	})
	return token.SignedString(secretKey)
}

// ParseToken validates signature, algorithm and expiry and returns the subject.
func ParseToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", jwt.ErrTokenExpired
		}
		return "", ErrInvalidToken
	}
	if !token.Valid || claims.Role != RoleAdmin {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

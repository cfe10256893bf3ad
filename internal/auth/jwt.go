package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt"
)

// Claims identifies the user a socket connection acts for. Token issuance
// lives with the account service; this package only parses and verifies.
type Claims struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	jwt.StandardClaims
}

var ErrInvalidToken = errors.New("invalid or expired token")

func ParseToken(secret, token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if parsed != nil {
		if claims, ok := parsed.Claims.(*Claims); ok && parsed.Valid {
			return claims, nil
		}
	}
	if err != nil {
		return nil, err
	}
	return nil, ErrInvalidToken
}

// GenerateToken signs a token for the given user. Used by tests and local
// tooling; production tokens come from the account service.
func GenerateToken(secret, userID, name string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Name:   name,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: now.Add(24 * time.Hour).Unix(),
			IssuedAt:  now.Unix(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

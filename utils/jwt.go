package utils

import (
	"errors"
	"time"

	"barberly/config"

	"github.com/golang-jwt/jwt"
)

// StreamClaims carries the identity bound to a realtime stream token.
type StreamClaims struct {
	UserID   string
	TenantID string
	Role     string
}

func secretKey() []byte {
	secret := config.AppConfig.JWTSecret
	if secret == "" {
		secret = "barberly-dev"
	}
	return []byte(secret)
}

// GenerateStreamToken creates a signed JWT for the SSE endpoint. The stream
// transport cannot carry custom headers, so the token travels in the query
// string and must be short-lived.
func GenerateStreamToken(userID, tenantID, role string, duration time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":    userID,
		"tenant": tenantID,
		"role":   role,
		"iat":    time.Now().Unix(),
		"exp":    time.Now().Add(duration).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secretKey())
}

// ValidateStreamToken parses and validates a stream token string.
func ValidateStreamToken(tokenString string) (*StreamClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secretKey(), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}

	sub, _ := claims["sub"].(string)
	tenant, _ := claims["tenant"].(string)
	role, _ := claims["role"].(string)
	if sub == "" || tenant == "" {
		return nil, errors.New("token missing subject or tenant claim")
	}

	return &StreamClaims{UserID: sub, TenantID: tenant, Role: role}, nil
}

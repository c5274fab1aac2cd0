package utils

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type JWTManager struct {
	secretKey     []byte
	tokenDuration time.Duration
}

func NewJWTManager(secretKey string, duration time.Duration) *JWTManager {
	return &JWTManager{
		secretKey:     []byte(secretKey),
		tokenDuration: duration,
	}
}

// GenerateToken signs a token carrying the partner UUID, role and org.
func (j *JWTManager) GenerateToken(userUUID, role, orgUUID string) (string, error) {
	claims := jwt.MapClaims{
		"sub":  userUUID,
		"role": role,
		"org":  orgUUID,
		"exp":  time.Now().Add(j.tokenDuration).Unix(),
		"iat":  time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.secretKey)
}

// VerifyToken validates the token and returns UUID, role and org.
func (j *JWTManager) VerifyToken(tokenStr string) (string, string, string, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return j.secretKey, nil
	})

	if err != nil || !token.Valid {
		return "", "", "", fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", "", fmt.Errorf("invalid token claims")
	}

	userUUID, ok := claims["sub"].(string)
	if !ok {
		return "", "", "", fmt.Errorf("invalid sub claim")
	}

	role, ok := claims["role"].(string)
	if !ok {
		return "", "", "", fmt.Errorf("invalid role claim")
	}

	orgUUID, _ := claims["org"].(string)

	return userUUID, role, orgUUID, nil
}

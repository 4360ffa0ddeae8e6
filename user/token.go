package user

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenVerifier validates bearer tokens issued by the identity provider and
// extracts the caller's identity. Token issuance (login, sessions) lives
// outside this service; only verification happens here.
type TokenVerifier struct {
	secret []byte
}

// NewTokenVerifier creates a verifier around the shared HMAC secret.
func NewTokenVerifier(secret string) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret)}
}

// Verify validates a JWT token and returns the caller's user ID and role.
func (v *TokenVerifier) Verify(tokenString string) (string, Role, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return "", "", fmt.Errorf("user: parse token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", "", fmt.Errorf("user: invalid token")
	}

	userID, ok := claims["user_id"].(string)
	if !ok {
		return "", "", fmt.Errorf("user: invalid user_id in token")
	}
	roleStr, ok := claims["role"].(string)
	if !ok {
		return "", "", fmt.Errorf("user: invalid role in token")
	}
	role := Role(roleStr)
	if !ValidRole(role) {
		return "", "", fmt.Errorf("user: invalid role %q in token", roleStr)
	}

	return userID, role, nil
}

// SignToken mints a token for the given identity. Used by tooling and tests;
// the production issuer is a separate system sharing the same secret.
func SignToken(secret, userID string, role Role, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"role":    string(role),
		"exp":     time.Now().Add(ttl).Unix(),
		"iat":     time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("user: sign token: %w", err)
	}

	return signed, nil
}

// Package jwtauth issues and verifies the HS256 bearer tokens that identify request owners.
package jwtauth

import (
	"strings"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/golang-jwt/jwt"

	"github.com/apiprobe/apiprobe/common/config"
)

// IssueToken signs a token whose subject is userId. A non-positive ttl produces a token without expiry.
func IssueToken(userId string, ttl time.Duration) (string, error) {
	userId = strings.TrimSpace(userId)
	if userId == "" {
		return "", errors.New("user id is required")
	}

	now := time.Now()
	claims := jwt.StandardClaims{
		Subject:  userId,
		IssuedAt: now.Unix(),
	}
	if ttl > 0 {
		claims.ExpiresAt = now.Add(ttl).Unix()
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(config.JWTSecret))
	if err != nil {
		return "", errors.Wrap(err, "sign token")
	}
	return signed, nil
}

// ParseToken verifies signature and expiry and returns the claims.
func ParseToken(token string) (*jwt.StandardClaims, error) {
	claims := &jwt.StandardClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(config.JWTSecret), nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "parse token")
	}
	if !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	header = strings.TrimSpace(header)
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

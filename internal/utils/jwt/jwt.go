package jwt

import (
	"errors"
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

const userIDClaim = "user_id"

var ErrMissingUserID = errors.New("token has no user id")

// GenerateToken signs an HS256 token carrying userID.
func GenerateToken(userID, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := gojwt.MapClaims{
		userIDClaim: userID,
		"iat":       now.Unix(),
		"exp":       now.Add(ttl).Unix(),
	}

	return gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ExtractUserIDFromToken verifies token with secret and returns its user id.
func ExtractUserIDFromToken(token, secret string) (string, error) {
	parsed, err := gojwt.Parse(token, func(t *gojwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("invalid token: %w", err)
	}

	return userIDFromClaims(parsed.Claims)
}

// PeekUserID reads the user id of a token without verifying its signature.
// The client uses it on the API token it was handed, whose key only the
// server knows.
func PeekUserID(token string) (string, error) {
	parsed, _, err := gojwt.NewParser().ParseUnverified(token, gojwt.MapClaims{})
	if err != nil {
		return "", fmt.Errorf("malformed token: %w", err)
	}

	return userIDFromClaims(parsed.Claims)
}

func userIDFromClaims(claims gojwt.Claims) (string, error) {
	mc, ok := claims.(gojwt.MapClaims)
	if !ok {
		return "", ErrMissingUserID
	}

	switch v := mc[userIDClaim].(type) {
	case string:
		if v != "" {
			return v, nil
		}
	case float64:
		return fmt.Sprintf("%.0f", v), nil
	}

	if sub, err := mc.GetSubject(); err == nil && sub != "" {
		return sub, nil
	}

	return "", ErrMissingUserID
}

package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// NewToken signs a credential binding the username to an issue time and an
// expiry. The secret is supplied by the caller, not held by this package.
func NewToken(username string, secret []byte, ttl time.Duration) (string, error) {
	token := jwt.New(jwt.SigningMethodHS256)
	claims := token.Claims.(jwt.MapClaims)

	now := time.Now()
	claims["sub"] = username
	claims["iat"] = now.Unix()
	claims["exp"] = now.Add(ttl).Unix()

	return token.SignedString(secret)
}

// Verify checks the signature and expiry of tokenString and returns the
// subject. Malformed input yields ErrInvalidToken, never a panic.
func Verify(tokenString string, secret []byte) (string, error) {
	const op = "jwt.Verify"

	token, err := jwt.ParseWithClaims(tokenString, jwt.MapClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w: %v", op, ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("%s: %w: invalid claims", op, ErrInvalidToken)
	}

	exp, ok := claims["exp"].(float64)
	if !ok {
		return "", fmt.Errorf("%s: %w: exp claim is missing or invalid", op, ErrInvalidToken)
	}
	if time.Unix(int64(exp), 0).Before(time.Now()) {
		return "", fmt.Errorf("%s: %w: token is expired", op, ErrInvalidToken)
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", fmt.Errorf("%s: %w: sub claim is missing or invalid", op, ErrInvalidToken)
	}

	return sub, nil
}

// ExtractUsername decodes the subject claim without checking the signature.
// Callers must pair it with Verify in the same call chain before trusting
// the result.
func ExtractUsername(tokenString string) (string, error) {
	const op = "jwt.ExtractUsername"

	token, _, err := jwt.NewParser().ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return "", fmt.Errorf("%s: %w: %v", op, ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("%s: %w: invalid claims", op, ErrInvalidToken)
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", fmt.Errorf("%s: %w: sub claim is missing or invalid", op, ErrInvalidToken)
	}

	return sub, nil
}

package middleware

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var errTokenInvalid = errors.New("token invalid")

// Claims is the signed payload of a session token.
type Claims struct {
	AccountID int64 `json:"account_id"`
	jwt.RegisteredClaims
}

// GenerateToken signs an HS256 token for accountID that expires after ttl.
func GenerateToken(accountID int64, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		AccountID: accountID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	return tok.SignedString([]byte(secret))
}

// ParseToken verifies the signature and expiry of a token string and
// returns its claims. Only HS256 is accepted.
func ParseToken(tokenStr, secret string) (*Claims, error) {
	var claims Claims
	tok, err := jwt.ParseWithClaims(tokenStr, &claims,
		func(*jwt.Token) (interface{}, error) { return []byte(secret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return nil, err
	}
	if !tok.Valid {
		return nil, errTokenInvalid
	}
	return &claims, nil
}

package auth

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/recipebox/apiserver/types"
)

const defaultTokenTTL = 24 * time.Hour

// JWTIssuer issues HS256 tokens whose subject is the user ID.
type JWTIssuer struct {
	secret []byte
	ttl    time.Duration
}

func NewJWTIssuer(secret string, ttl time.Duration) (*JWTIssuer, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &JWTIssuer{secret: []byte(secret), ttl: ttl}, nil
}

func (i *JWTIssuer) Issue(_ context.Context, user types.User) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.Itoa(user.ID),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

func (i *JWTIssuer) Resolve(_ context.Context, tokenString string) (int, error) {
	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return i.secret, nil
	})
	if err != nil || !token.Valid {
		return 0, ErrInvalidToken
	}
	userID, err := strconv.Atoi(strings.TrimSpace(claims.Subject))
	if err != nil || userID < 1 {
		return 0, ErrInvalidToken
	}
	return userID, nil
}

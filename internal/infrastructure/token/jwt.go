// Package token encodes sessions as HS256-signed JWTs.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gsanchezm/OmniPizza/internal/domain"
)

const issuer = "omnipizza"

// Claims carries the identity and the behavior resolved at login.
type Claims struct {
	jwt.RegisteredClaims
	Behavior string `json:"behavior"`
}

type JWTIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewJWTIssuer(secret string, ttl time.Duration) (*JWTIssuer, error) {
	if secret == "" {
		return nil, errors.New("token secret is required")
	}
	if ttl <= 0 {
		return nil, errors.New("token ttl must be positive")
	}
	return &JWTIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

func (j *JWTIssuer) Issue(session domain.Session) (string, time.Time, error) {
	now := j.now().UTC()
	exp := now.Add(j.ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   session.Username,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Behavior: string(session.Behavior),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, exp, nil
}

func (j *JWTIssuer) Parse(tokenStr string) (domain.Session, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (any, error) {
		return j.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		return domain.Session{}, fmt.Errorf("token validation failed: %w", err)
	}
	if !tok.Valid {
		return domain.Session{}, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return domain.Session{}, errors.New("token subject is required")
	}
	b := domain.Behavior(claims.Behavior)
	if !b.Valid() {
		return domain.Session{}, fmt.Errorf("token carries unknown behavior %q", claims.Behavior)
	}
	return domain.Session{Username: claims.Subject, Behavior: b}, nil
}

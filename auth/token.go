// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/danielhkuo/pollbox/models"
)

const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

// Claims carried by both token types. TokenType keeps a refresh token from
// being accepted as an access token and the other way round.
type Claims struct {
	Username  string `json:"username"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// Issuer signs and checks HS256 access/refresh token pairs.
type Issuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewIssuer(secret []byte, accessTTL, refreshTTL time.Duration) *Issuer {
	return &Issuer{
		secret:     secret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// IssuePair signs a fresh access and refresh token for p
func (i *Issuer) IssuePair(p Principal) (models.TokenPair, error) {
	access, err := i.sign(p, TypeAccess, i.accessTTL)
	if err != nil {
		return models.TokenPair{}, err
	}
	refresh, err := i.sign(p, TypeRefresh, i.refreshTTL)
	if err != nil {
		return models.TokenPair{}, err
	}
	return models.TokenPair{Access: access, Refresh: refresh}, nil
}

// ParseAccess returns the principal of a valid access token
func (i *Issuer) ParseAccess(token string) (Principal, error) {
	claims, err := i.parse(token)
	if err != nil {
		return Principal{}, err
	}
	if claims.TokenType != TypeAccess {
		return Principal{}, ErrInvalidToken
	}
	return Principal{UserID: claims.Subject, Username: claims.Username}, nil
}

// Refresh exchanges a valid refresh token for a new pair
func (i *Issuer) Refresh(refresh string) (models.TokenPair, error) {
	claims, err := i.parse(refresh)
	if err != nil {
		return models.TokenPair{}, err
	}
	if claims.TokenType != TypeRefresh {
		return models.TokenPair{}, ErrInvalidToken
	}
	return i.IssuePair(Principal{UserID: claims.Subject, Username: claims.Username})
}

// Verify checks signature and expiry of a token of either type
func (i *Issuer) Verify(token string) error {
	_, err := i.parse(token)
	return err
}

func (i *Issuer) sign(p Principal, typ string, ttl time.Duration) (string, error) {
	now := i.now()
	claims := Claims{
		Username:  p.Username,
		TokenType: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.UserID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (i *Issuer) parse(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

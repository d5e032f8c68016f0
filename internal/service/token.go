package service

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/forum-api/internal/dto"
	"github.com/noah-isme/forum-api/internal/models"
)

// Token types carried in the "type" claim.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// TokenConfig holds the secrets and lifetimes used to sign tokens.
type TokenConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// TokenIssuer signs and verifies HMAC JWTs for forum accounts.
type TokenIssuer struct {
	cfg TokenConfig
	now func() time.Time
}

// NewTokenIssuer constructs a token issuer.
func NewTokenIssuer(cfg TokenConfig) *TokenIssuer {
	return &TokenIssuer{cfg: cfg, now: time.Now}
}

// Issue signs a fresh access/refresh pair for the user.
func (i *TokenIssuer) Issue(user models.User) (dto.TokenPair, error) {
	now := i.now()
	accessExp := now.Add(i.cfg.AccessTTL)
	refreshExp := now.Add(i.cfg.RefreshTTL)

	access, err := i.sign(user, TokenTypeAccess, i.cfg.AccessSecret, now, accessExp)
	if err != nil {
		return dto.TokenPair{}, err
	}
	refresh, err := i.sign(user, TokenTypeRefresh, i.cfg.RefreshSecret, now, refreshExp)
	if err != nil {
		return dto.TokenPair{}, err
	}

	return dto.TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (i *TokenIssuer) sign(user models.User, tokenType, secret string, issuedAt, expiresAt time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":      strconv.FormatUint(uint64(user.ID), 10),
		"role":     user.Role,
		"username": user.Username,
		"type":     tokenType,
		"iat":      issuedAt.Unix(),
		"exp":      expiresAt.Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", tokenType, err)
	}
	return signed, nil
}

// ParseRefresh verifies a refresh token and returns the subject user id.
func (i *TokenIssuer) ParseRefresh(raw string) (uint, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return []byte(i.cfg.RefreshSecret), nil
	}, jwt.WithTimeFunc(i.now))
	if err != nil || !token.Valid {
		return 0, kindError(ErrUnauthenticated, "invalid refresh token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || claims["type"] != TokenTypeRefresh {
		return 0, kindError(ErrUnauthenticated, "invalid refresh token")
	}

	subject, err := claims.GetSubject()
	if err != nil {
		return 0, kindError(ErrUnauthenticated, "invalid refresh token")
	}
	id, err := strconv.ParseUint(subject, 10, 64)
	if err != nil || id == 0 {
		return 0, kindError(ErrUnauthenticated, "invalid refresh token")
	}
	return uint(id), nil
}

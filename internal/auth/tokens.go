// Package auth issues and verifies the access/refresh token pair and hashes
// credentials.
//
// Refresh tokens are not stored. Each one carries a digest of the user's
// password hash at issuance; a refresh is honoured only while that digest
// still matches the stored hash, so changing a password revokes every
// outstanding refresh token.
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/vaughan-dsouza/salonbook/internal/config"
	"github.com/vaughan-dsouza/salonbook/internal/models"
)

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

// AccessClaims is the claim set of a short-lived access token.
type AccessClaims struct {
	Role      models.Role `json:"role"`
	SessionID string      `json:"sid"`
	jwt.RegisteredClaims
}

func (c *AccessClaims) UserID() int64 {
	return subjectInt(c.Subject)
}

// RefreshClaims is the claim set of a refresh token. Hash is the
// PasswordFingerprint of the password hash at issuance.
type RefreshClaims struct {
	Hash string `json:"hash"`
	jwt.RegisteredClaims
}

func (c *RefreshClaims) UserID() int64 {
	return subjectInt(c.Subject)
}

// Matches reports whether the token was issued against passwordHash.
func (c *RefreshClaims) Matches(passwordHash string) bool {
	want := PasswordFingerprint(passwordHash)
	return subtle.ConstantTimeCompare([]byte(c.Hash), []byte(want)) == 1
}

type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	SessionID        string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// Issuer signs access tokens and refresh tokens with separate secrets.
type Issuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewIssuer(cfg config.AuthConfig) *Issuer {
	return &Issuer{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		now:           time.Now,
	}
}

// WithClock returns a copy of the issuer that reads time from now.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	cp := *i
	cp.now = now
	return &cp
}

func (i *Issuer) RefreshTTL() time.Duration {
	return i.refreshTTL
}

// IssueTokenPair builds a fresh pair for u. It needs u.ID, u.Role and
// u.Password (the stored hash) and has no side effects.
func (i *Issuer) IssueTokenPair(u *models.User) (TokenPair, error) {
	if len(i.accessSecret) == 0 || len(i.refreshSecret) == 0 {
		return TokenPair{}, errors.New("secret not configured")
	}

	now := i.now()
	sub := strconv.FormatInt(u.ID, 10)
	sid := uuid.NewString()

	accessExp := now.Add(i.accessTTL)
	access := jwt.NewWithClaims(jwt.SigningMethodHS256, AccessClaims{
		Role:      u.Role,
		SessionID: sid,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(accessExp),
		},
	})
	accessStr, err := access.SignedString(i.accessSecret)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}

	refreshExp := now.Add(i.refreshTTL)
	refresh := jwt.NewWithClaims(jwt.SigningMethodHS256, RefreshClaims{
		Hash: PasswordFingerprint(u.Password),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(refreshExp),
		},
	})
	refreshStr, err := refresh.SignedString(i.refreshSecret)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
	}

	return TokenPair{
		AccessToken:      accessStr,
		RefreshToken:     refreshStr,
		SessionID:        sid,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// ParseAccess verifies an access token. Errors wrap ErrTokenExpired or
// ErrTokenInvalid.
func (i *Issuer) ParseAccess(tokenStr string) (*AccessClaims, error) {
	var claims AccessClaims
	if err := i.parse(tokenStr, i.accessSecret, &claims); err != nil {
		return nil, err
	}
	if claims.UserID() <= 0 {
		return nil, fmt.Errorf("%w: bad subject", ErrTokenInvalid)
	}
	return &claims, nil
}

// ParseRefresh verifies a refresh token's signature and expiry. Callers must
// still check Matches against the stored password hash.
func (i *Issuer) ParseRefresh(tokenStr string) (*RefreshClaims, error) {
	var claims RefreshClaims
	if err := i.parse(tokenStr, i.refreshSecret, &claims); err != nil {
		return nil, err
	}
	if claims.UserID() <= 0 {
		return nil, fmt.Errorf("%w: bad subject", ErrTokenInvalid)
	}
	return &claims, nil
}

func (i *Issuer) parse(tokenStr string, secret []byte, claims jwt.Claims) error {
	if len(secret) == 0 {
		return errors.New("secret not configured")
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)

	_, err := parser.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrTokenExpired, err)
	default:
		return fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
}

// PasswordFingerprint is the hex SHA-256 digest of a stored password hash.
func PasswordFingerprint(passwordHash string) string {
	sum := sha256.Sum256([]byte(passwordHash))
	return hex.EncodeToString(sum[:])
}

func subjectInt(sub string) int64 {
	v, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// Package tokens mints and verifies the signed access and refresh tokens.
// One Codec exists per principal kind, each with its own secret pair, so a
// token minted for one kind can never verify against the other's keys.
package tokens

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenExpired = errors.New("token expired")
	ErrInvalidToken = errors.New("invalid token")
)

const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"

	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 30 * 24 * time.Hour
)

type AccessClaims struct {
	Email     string   `json:"email"`
	Roles     []string `json:"roles"`
	TokenType string   `json:"typ"`
	jwt.RegisteredClaims
}

type RefreshClaims struct {
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

// Codec signs and verifies tokens for one principal kind. Audience is empty
// for users and "employee" for employees; it is stamped into every token and
// checked again on refresh verification.
type Codec struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Audience      string
}

func (c *Codec) accessTTL() time.Duration {
	if c.AccessTTL > 0 {
		return c.AccessTTL
	}
	return defaultAccessTTL
}

func (c *Codec) refreshTTL() time.Duration {
	if c.RefreshTTL > 0 {
		return c.RefreshTTL
	}
	return defaultRefreshTTL
}

func (c *Codec) audience() jwt.ClaimStrings {
	if c.Audience == "" {
		return nil
	}
	return jwt.ClaimStrings{c.Audience}
}

func (c *Codec) IssueAccess(sub, email string, roles []string) (string, error) {
	now := time.Now()
	claims := AccessClaims{
		Email:     email,
		Roles:     roles,
		TokenType: TypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			Audience:  c.audience(),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.accessTTL())),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.AccessSecret)
}

func (c *Codec) IssueRefresh(sub string) (string, error) {
	now := time.Now()
	claims := RefreshClaims{
		TokenType: TypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			Audience:  c.audience(),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.refreshTTL())),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.RefreshSecret)
}

// ParseAccess checks signature, expiry and token type. Audience is left to
// the caller: the access guard maps a mismatched audience to Forbidden,
// which is a different failure than a bad signature.
func (c *Codec) ParseAccess(raw string) (*AccessClaims, error) {
	var claims AccessClaims
	if err := c.parse(raw, &claims, c.AccessSecret); err != nil {
		return nil, err
	}
	if claims.TokenType != TypeAccess {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}

// ParseRefresh checks signature, expiry, token type and audience. It never
// consults the store; record-level checks belong to the protocol engine.
func (c *Codec) ParseRefresh(raw string) (*RefreshClaims, error) {
	var claims RefreshClaims
	if err := c.parse(raw, &claims, c.RefreshSecret); err != nil {
		return nil, err
	}
	if claims.TokenType != TypeRefresh {
		return nil, ErrInvalidToken
	}
	if c.Audience != "" && !MatchAudience(claims.Audience, c.Audience) {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}

func (c *Codec) parse(raw string, claims jwt.Claims, secret []byte) error {
	tkn, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return ErrInvalidToken
	}
	if !tkn.Valid {
		return ErrInvalidToken
	}
	return nil
}

func MatchAudience(aud jwt.ClaimStrings, want string) bool {
	for _, a := range aud {
		if a == want {
			return true
		}
	}
	return false
}

// Package authmw gates protected routes behind bearer access tokens. The
// guard is stateless: verification is purely cryptographic, so a rotated or
// revoked refresh token never retro-invalidates an access token that is
// already out there.
package authmw

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/creditdesk/authd/internal/tokens"
)

const claimsKey = "auth_claims"

type Guard struct {
	Codec *tokens.Codec
}

func NewGuard(codec *tokens.Codec) *Guard {
	return &Guard{Codec: codec}
}

// Require verifies the bearer token and, when roles are given, demands at
// least one of them. Signature and expiry failures are 401; a wrong audience
// or a missing role is 403.
func (g *Guard) Require(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := bearerToken(c)
			if raw == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
			}

			claims, err := g.Codec.ParseAccess(raw)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}

			if g.Codec.Audience != "" && len(claims.Audience) > 0 &&
				!tokens.MatchAudience(claims.Audience, g.Codec.Audience) {
				return echo.NewHTTPError(http.StatusForbidden, "wrong audience")
			}

			if len(roles) > 0 && !hasAnyRole(claims.Roles, roles) {
				return echo.NewHTTPError(http.StatusForbidden, "forbidden")
			}

			c.Set(claimsKey, claims)
			c.Set("user_id", claims.Subject)
			c.Set("roles", claims.Roles)

			return next(c)
		}
	}
}

func bearerToken(c echo.Context) string {
	h := c.Request().Header.Get(echo.HeaderAuthorization)
	if !strings.HasPrefix(h, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
}

func hasAnyRole(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if h == w {
				return true
			}
		}
	}
	return false
}

// ClaimsFromContext returns the verified claims a Require middleware stored.
func ClaimsFromContext(c echo.Context) *tokens.AccessClaims {
	if claims, ok := c.Get(claimsKey).(*tokens.AccessClaims); ok {
		return claims
	}
	return nil
}

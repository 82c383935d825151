package middleware

import (
	"net/http"
	"strings"

	"storefront-service/pkg/jwtutil"
	"storefront-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const userKey = "user"

// JWTAuthMiddleware validates bearer tokens issued by the identity provider
func JWTAuthMiddleware(jwtUtil *jwtutil.JWTUtil) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromEcho(c)

			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				log.Warn("Missing authorization header")
				return unauthorized(c, "Missing authorization header")
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				log.Warn("Invalid authorization header format")
				return unauthorized(c, "Invalid authorization header format")
			}

			claims, err := jwtUtil.ValidateToken(parts[1])
			if err != nil {
				log.Warn("Invalid or expired token", zap.Error(err))
				return unauthorized(c, "Invalid or expired token")
			}

			c.Set(userKey, claims)
			log.Debug("JWT token validated successfully",
				zap.String("user_id", claims.UserID),
				zap.String("email", claims.Email))

			return next(c)
		}
	}
}

// RequireRole rejects authenticated users without the given role. It must
// run after JWTAuthMiddleware.
func RequireRole(role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := UserFromContext(c)
			if !ok {
				return unauthorized(c, "Authentication required")
			}
			if !strings.EqualFold(claims.Role, role) {
				logger.FromEcho(c).Warn("Access denied",
					zap.String("user_id", claims.UserID),
					zap.String("role", claims.Role),
					zap.String("required_role", role))
				return c.JSON(http.StatusForbidden, echo.Map{
					"success": false,
					"error":   "Insufficient permissions",
				})
			}
			return next(c)
		}
	}
}

// UserFromContext returns the claims stored by JWTAuthMiddleware
func UserFromContext(c echo.Context) (*jwtutil.UserClaims, bool) {
	claims, ok := c.Get(userKey).(*jwtutil.UserClaims)
	return claims, ok
}

func unauthorized(c echo.Context, msg string) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{
		"success": false,
		"error":   msg,
	})
}

package middleware

import (
	"net/http"
	"strings"

	"github.com/keycasey/Spirit-Beads-Service/pkg/jwtutil"
	"github.com/keycasey/Spirit-Beads-Service/pkg/logger"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// StaffAuthMiddleware validates the JWT token and ensures the caller holds
// a staff role. Public storefront routes never pass through here.
func StaffAuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromContext(c)

		// Get the Authorization header
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			log.Warn("Missing Authorization header")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
		}

		// Check if it's a Bearer token
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			log.Warn("Invalid Authorization header format")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid authorization format, expected Bearer token"})
		}

		// Extract the token
		tokenString := parts[1]

		// Validate the token
		claims, err := jwtutil.ValidateToken(tokenString)
		if err != nil {
			log.Error("Invalid JWT token", zap.Error(err))
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
		}

		// Only staff and admin roles may reach management routes
		if claims.Role != "staff" && claims.Role != "admin" {
			log.Warn("Token holder lacks staff role",
				zap.String("email", claims.Email),
				zap.String("role", claims.Role))
			return c.JSON(http.StatusForbidden, echo.Map{"error": "staff access required"})
		}

		// Store user info in context for later use
		c.Set("user_id", claims.UserID)
		c.Set("email", claims.Email)
		c.Set("staff_role", claims.Role)

		log.Info("Request authenticated",
			zap.String("email", claims.Email),
			zap.String("role", claims.Role))

		// Token is valid, proceed with the request
		return next(c)
	}
}

// GetStaffEmailFromContext retrieves the authenticated staff email from the
// context. Returns "", false if the request was not authenticated.
func GetStaffEmailFromContext(c echo.Context) (string, bool) {
	email, ok := c.Get("email").(string)
	return email, ok
}

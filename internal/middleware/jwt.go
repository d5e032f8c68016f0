package middleware

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/forum-api/internal/utils"
)

// Locals keys populated by the authentication middlewares.
const (
	LocalUserID   = "user_id"
	LocalUserRole = "user_role"
	LocalUsername = "username"
)

// JWTProtected returns a middleware that validates JWT bearer tokens. Websocket
// clients that cannot set headers may pass the token as the access_token query.
func JWTProtected(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, err := extractToken(c)
		if err != nil {
			return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
		}
		if tokenString == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "authorization header missing")
		}

		claims, err := parseAccessToken(tokenString, secret)
		if err != nil {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}
		if !applyClaims(c, claims) {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token claims")
		}

		return c.Next()
	}
}

// JWTOptional identifies the caller when a valid token is present and leaves
// the request anonymous otherwise.
func JWTOptional(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, err := extractToken(c)
		if err != nil || tokenString == "" {
			return c.Next()
		}
		if claims, err := parseAccessToken(tokenString, secret); err == nil {
			applyClaims(c, claims)
		}
		return c.Next()
	}
}

func extractToken(c *fiber.Ctx) (string, error) {
	authorization := strings.TrimSpace(c.Get("Authorization"))
	if authorization == "" {
		return strings.TrimSpace(c.Query("access_token")), nil
	}

	const bearer = "bearer "
	if !strings.HasPrefix(strings.ToLower(authorization), bearer) {
		return "", fmt.Errorf("invalid authorization header")
	}
	return strings.TrimSpace(authorization[len(bearer):]), nil
}

func parseAccessToken(tokenString, secret string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}
	if tokenType, ok := claims["type"].(string); ok && tokenType != "access" {
		return nil, fmt.Errorf("unexpected token type %q", tokenType)
	}
	return claims, nil
}

func applyClaims(c *fiber.Ctx, claims jwt.MapClaims) bool {
	userID := extractUserIDFromClaims(claims)
	if userID == nil {
		return false
	}
	c.Locals(LocalUserID, *userID)
	if role := extractUserRoleFromClaims(claims); role != "" {
		c.Locals(LocalUserRole, role)
	}
	if username, ok := claims["username"].(string); ok {
		c.Locals(LocalUsername, username)
	}
	return true
}

func extractUserIDFromClaims(claims jwt.MapClaims) *uint {
	keys := []string{"sub", "user_id", "id"}
	for _, key := range keys {
		if value, ok := claims[key]; ok {
			if normalized, err := normalizeUserID(value); err == nil && normalized != 0 {
				return &normalized
			}
		}
	}

	return nil
}

func normalizeUserID(value interface{}) (uint, error) {
	switch v := value.(type) {
	case float64:
		if v < 0 {
			return 0, fmt.Errorf("invalid subject")
		}
		return uint(v), nil
	case string:
		parsed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return 0, err
		}
		return uint(parsed), nil
	default:
		return 0, fmt.Errorf("unsupported subject type")
	}
}

func extractUserRoleFromClaims(claims jwt.MapClaims) string {
	if value, ok := claims["role"].(string); ok {
		return strings.ToLower(strings.TrimSpace(value))
	}
	return ""
}

// UserID returns the authenticated caller id, or zero for guests.
func UserID(c *fiber.Ctx) uint {
	if id, ok := c.Locals(LocalUserID).(uint); ok {
		return id
	}
	return 0
}

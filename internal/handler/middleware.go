package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// RoleAdmin is the role claim required by the admin routes.
const RoleAdmin = "admin"

const (
	localUserID = "user_id"
	localRole   = "role"
)

// Claims is the bearer token payload. The subject is the user UUID.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Auth verifies the HS256 bearer token and stores the caller in the request locals.
// An empty issuer skips the issuer check.
func Auth(secret, issuer string) fiber.Handler {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	parser := jwt.NewParser(opts...)
	key := []byte(secret)

	return func(c *fiber.Ctx) error {
		raw, ok := strings.CutPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			return unauthorized(c, "missing bearer token")
		}

		claims := &Claims{}
		_, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
			return key, nil
		})
		if err != nil {
			return unauthorized(c, "invalid token")
		}
		userID, err := uuid.Parse(claims.Subject)
		if err != nil {
			return unauthorized(c, "invalid token subject")
		}

		c.Locals(localUserID, userID)
		c.Locals(localRole, claims.Role)
		return c.Next()
	}
}

// RequireAdmin rejects callers without the admin role. It must run after Auth.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if role, _ := c.Locals(localRole).(string); role != RoleAdmin {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error":   "FORBIDDEN",
				"message": "admin role required",
			})
		}
		return c.Next()
	}
}

// UserID returns the authenticated caller, or uuid.Nil outside Auth.
func UserID(c *fiber.Ctx) uuid.UUID {
	id, _ := c.Locals(localUserID).(uuid.UUID)
	return id
}

func unauthorized(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error":   "UNAUTHORIZED",
		"message": message,
	})
}

package middleware

import (
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

func Protected(jwtSecret []byte) func(*fiber.Ctx) error {
	return jwtware.New(jwtware.Config{
		SigningKey:   jwtware.SigningKey{Key: jwtSecret},
		ErrorHandler: jwtError,
	})
}

// AdminOnly rejects sessions whose token does not carry the admin role.
func AdminOnly() func(*fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		if SessionRole(c) != "admin" {
			c.Status(fiber.StatusForbidden)
			return c.JSON(fiber.Map{"status": "error", "message": "Admin access required"})
		}
		return c.Next()
	}
}

func jwtError(c *fiber.Ctx, _ error) error {
	c.Status(fiber.StatusUnauthorized)
	return c.JSON(fiber.Map{"status": "error", "message": "Authorization required"})
}

func sessionClaims(c *fiber.Ctx) jwt.MapClaims {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return nil
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil
	}
	return claims
}

// SessionUserID returns the user id baked into the session token, or "".
func SessionUserID(c *fiber.Ctx) string {
	claims := sessionClaims(c)
	if claims == nil {
		return ""
	}
	id, _ := claims["id"].(string)
	return id
}

func SessionRole(c *fiber.Ctx) string {
	claims := sessionClaims(c)
	if claims == nil {
		return ""
	}
	role, _ := claims["role"].(string)
	return role
}

package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// principalKey is the Locals slot the authenticated principal lives in.
const principalKey = "principal"

// Principal is the authenticated caller as handlers see it.
type Principal struct {
	UserID string
	Email  string
	Role   string
	JTI    string
}

// TokenRevocations answers whether a token id was revoked by logout.
type TokenRevocations interface {
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
}

// Protected validates the Bearer token and resolves the Principal into
// the request context. Revoked tokens are rejected even before their
// expiry.
func Protected(secret []byte, revocations TokenRevocations) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get("Authorization")
		if header == "" {
			return unauthorized(c, "missing token")
		}
		tokenString := strings.TrimPrefix(header, "Bearer ")
		if tokenString == "" || tokenString == header {
			return unauthorized(c, "invalid token format")
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			return secret, nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		if err != nil || !token.Valid {
			return unauthorized(c, "invalid token")
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return unauthorized(c, "invalid token claims")
		}

		userID, userOK := claims["sub"].(string)
		role, roleOK := claims["role"].(string)
		jti, jtiOK := claims["jti"].(string)
		if !userOK || !roleOK || !jtiOK {
			return unauthorized(c, "invalid token payload")
		}
		email, _ := claims["email"].(string)

		if revocations != nil {
			revoked, err := revocations.IsTokenRevoked(c.Context(), jti)
			if err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"success": false,
					"message": "could not verify token",
				})
			}
			if revoked {
				return unauthorized(c, "token has been revoked")
			}
		}

		c.Locals(principalKey, Principal{UserID: userID, Email: email, Role: role, JTI: jti})
		return c.Next()
	}
}

// PrincipalFrom reads the principal a Protected handler stored. The
// zero value means the route was not protected.
func PrincipalFrom(c *fiber.Ctx) Principal {
	p, _ := c.Locals(principalKey).(Principal)
	return p
}

// TokenExpiry returns the exp claim of the current token. Logout needs
// it to keep the revocation row alive exactly as long as the token.
func TokenExpiry(c *fiber.Ctx) (int64, bool) {
	header := c.Get("Authorization")
	tokenString := strings.TrimPrefix(header, "Bearer ")
	token, _, err := jwt.NewParser().ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return 0, false
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, false
	}
	exp, ok := claims["exp"].(float64)
	if !ok {
		return 0, false
	}
	return int64(exp), true
}

func unauthorized(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"success": false,
		"message": msg,
	})
}

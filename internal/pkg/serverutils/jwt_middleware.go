package serverutils

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	LocalUserID   = "user_id"
	LocalUserName = "user_name"
)

var errMissingToken = errors.New("missing token")

// JwtMiddleware rejects requests without a valid HS256 bearer token.
func JwtMiddleware(secret string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		claims, err := parseBearer(ctx.Get("Authorization"), secret)
		if err != nil {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, err.Error()))
		}
		setUser(ctx, claims)
		return ctx.Next()
	}
}

// OptionalJwtMiddleware attaches the user when a valid token is present and
// lets anonymous patrons through. An invalid token is still rejected.
func OptionalJwtMiddleware(secret string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		header := ctx.Get("Authorization")
		if header == "" {
			return ctx.Next()
		}
		claims, err := parseBearer(header, secret)
		if err != nil {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, err.Error()))
		}
		setUser(ctx, claims)
		return ctx.Next()
	}
}

func parseBearer(header, secret string) (jwt.MapClaims, error) {
	tokenStr, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || tokenStr == "" {
		return nil, errMissingToken
	}

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid claims")
	}
	return claims, nil
}

func setUser(ctx *fiber.Ctx, claims jwt.MapClaims) {
	if id, ok := claims["user_id"].(string); ok {
		ctx.Locals(LocalUserID, id)
	}
	if name, ok := claims["name"].(string); ok {
		ctx.Locals(LocalUserName, name)
	}
}

// UserID is empty for anonymous requests.
func UserID(ctx *fiber.Ctx) string {
	id, _ := ctx.Locals(LocalUserID).(string)
	return id
}

func UserName(ctx *fiber.Ctx) string {
	name, _ := ctx.Locals(LocalUserName).(string)
	return name
}

package jwtmiddleware

import (
	"errors"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/somabooks/payments/internal/transport"
)

// Identity is the caller extracted from a verified access token.
type Identity struct {
	UserID uuid.UUID
	Email  string
}

var ErrNoIdentity = errors.New("no authenticated identity")

func RequireAuth(secret []byte) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		SigningMethod: "HS256",
		SigningKey:    secret,
		ContextKey:    "user",
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusUnauthorized, transport.ErrorResponse{Error: "invalid or missing token"})
		},
	})
}

// FromContext reads the identity parsed by RequireAuth.
func FromContext(c echo.Context) (Identity, error) {
	token, ok := c.Get("user").(*jwt.Token)
	if !ok {
		return Identity{}, ErrNoIdentity
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, ErrNoIdentity
	}
	sub, _ := claims["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return Identity{}, ErrNoIdentity
	}
	email, _ := claims["email"].(string)
	return Identity{UserID: userID, Email: email}, nil
}

package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/somabooks/payments/internal/jwtmiddleware"
)

type Deps struct {
	PaymentHandler *PaymentHTTP
	JWTSecret      []byte
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	payments := e.Group("/payments")
	payments.Use(jwtmiddleware.RequireAuth(d.JWTSecret))

	payments.POST("/initiate", d.PaymentHandler.InitiatePayment)
	payments.POST("/verify", d.PaymentHandler.VerifyPayment)
}

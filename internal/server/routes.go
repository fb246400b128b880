package server

import (
	"github.com/JoGabriel-Carvalho/santuario-geek-server/internal/handler"
	"github.com/JoGabriel-Carvalho/santuario-geek-server/internal/middleware"
	"github.com/JoGabriel-Carvalho/santuario-geek-server/internal/repository"

	"github.com/labstack/echo/v4"
)

type Handlers struct {
	Auth         *handler.AuthHandler
	Product      *handler.ProductHandler
	AdminProduct *handler.AdminProductHandler
	Cart         *handler.CartHandler
	Order        *handler.OrderHandler
	Address      *handler.AddressHandler
}

func RegisterRoutes(e *echo.Echo, h Handlers, tokens middleware.TokenParser, users repository.UserRepository) {
	h.Auth.RegisterRoutes(e)
	h.Address.RegisterRoutes(e, tokens)

	h.Product.RegisterRoutes(e)
	h.AdminProduct.RegisterRoutes(e, tokens, users)

	h.Cart.RegisterRoutes(e, tokens)
	h.Order.RegisterRoutes(e, tokens)
}

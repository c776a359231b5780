package httpserver

import (
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/umerkang66/db-lab-project/internal/handlers"
	"github.com/umerkang66/db-lab-project/internal/handlers/cart"
	"github.com/umerkang66/db-lab-project/internal/handlers/order"
	"github.com/umerkang66/db-lab-project/internal/service/token"
)

type Deps struct {
	DB             *gorm.DB
	AuthHandler    *handlers.AuthHandler
	ProductHandler *handlers.ProductHandler
	SearchHandler  *handlers.SearchHandler
	CartHandler    *cart.CartHandler
	OrderHandler   *order.OrderHandler
	TokenService   *token.Service
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	v1 := e.Group("/api/v1")

	v1.POST("/register", d.AuthHandler.Register)
	v1.POST("/login", d.AuthHandler.Login)
	v1.POST("/logout", d.AuthHandler.LogOut)

	products := v1.Group("/products")
	products.GET("", d.ProductHandler.GetProducts)
	products.GET("/:id", d.ProductHandler.GetProduct)

	v1.GET("/search", d.SearchHandler.Search)

	authed := v1.Group("", d.TokenService.RequireLogin)

	authed.GET("/cart", d.CartHandler.GetCart)
	authed.POST("/cart", d.CartHandler.AddToCart)
	authed.DELETE("/cart/:id", d.CartHandler.DeleteOneFromCart)
	authed.DELETE("/cart/:id/all", d.CartHandler.DeleteAllFromCart)

	authed.POST("/orders", d.OrderHandler.PlaceOrder)
	authed.GET("/orders", d.OrderHandler.ListMyOrders)
	authed.POST("/payments", d.OrderHandler.MarkPaid)

	admin := v1.Group("/admin", d.TokenService.AdminOnly)

	admin.POST("/products", d.ProductHandler.CreateProduct)
	admin.PATCH("/products/:id", d.ProductHandler.PatchProduct)
	admin.DELETE("/products/:id", d.ProductHandler.DeleteProduct)
	admin.GET("/orders", d.OrderHandler.ListAllOrders)
}

package router

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/campuseats/campus-eats/broadcast"
	"github.com/campuseats/campus-eats/config"
	"github.com/campuseats/campus-eats/controllers"
	"github.com/campuseats/campus-eats/middlewares"
	"github.com/campuseats/campus-eats/services"
)

func SetupRouter(db *gorm.DB, hub *broadcast.Hub) *gin.Engine {
	return SetupRouterWithConfig(db, hub, config.Load())
}

func SetupRouterWithConfig(db *gorm.DB, hub *broadcast.Hub, app config.App) *gin.Engine {
	r := gin.Default()

	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares())
	r.Use(middlewares.LoggerMiddleware())

	orderSvc := services.NewOrderService(db, hub)

	userCtrl := controllers.NewUserController(db)
	outletCtrl := controllers.NewOutletController(db, hub)
	orderCtrl := controllers.NewOrderController(db, orderSvc)
	wsCtrl := controllers.NewWSController(hub)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// Clients configure their websocket subscription from this.
	r.GET("/api/config", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"ws_path": app.WSPath,
			"reconnect": gin.H{
				"max_attempts":  app.Reconnect.MaxAttempts,
				"base_delay_ms": app.Reconnect.BaseDelay.Milliseconds(),
				"max_delay_ms":  app.Reconnect.MaxDelay.Milliseconds(),
			},
		})
	})

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	public := r.Group("/api/auth")
	public.Use(middlewares.NewStrictRateLimiter())
	{
		public.POST("/register", userCtrl.Register)
		public.POST("/login", userCtrl.Login)
	}

	// Browsing needs no login
	r.GET("/api/outlets", outletCtrl.GetAllOutlets)
	r.GET("/api/outlets/:outlet_id", outletCtrl.GetOutletByID)
	r.GET("/api/outlets/:outlet_id/menu", outletCtrl.GetMenuItems)

	// Order-status event stream; token rides the query string
	ws := r.Group(app.WSPath)
	ws.Use(middlewares.WebSocketAuthMiddleware())
	ws.GET("", wsCtrl.Serve)

	// ----------------------------------------------------------------
	//                      AUTHENTICATED ROUTES
	// ----------------------------------------------------------------
	auth := r.Group("/api")
	auth.Use(middlewares.AuthMiddleware())

	auth.GET("/auth/profile", userCtrl.GetProfile)

	// ORDERS (customer)
	auth.POST("/orders", orderCtrl.CreateOrder)
	auth.GET("/orders/my", orderCtrl.GetMyOrders)
	auth.GET("/orders/:order_id", orderCtrl.GetOrderByID)

	// ORDERS + OUTLET MANAGEMENT (staff)
	staff := auth.Group("/")
	staff.Use(middlewares.RequireStaff())
	{
		staff.GET("/orders/outlet/:outlet_id", orderCtrl.GetOutletOrders)
		staff.PATCH("/orders/:order_id/status", orderCtrl.UpdateOrderStatus)

		staff.POST("/outlets", outletCtrl.CreateOutlet)
		staff.PATCH("/outlets/:outlet_id/toggle-status", outletCtrl.ToggleOutletStatus)
		staff.POST("/outlets/:outlet_id/menu", outletCtrl.AddMenuItem)
		staff.PATCH("/outlets/:outlet_id/menu/:item_id/toggle-availability", outletCtrl.ToggleMenuItemAvailability)
	}

	return r
}

package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/leonardo27oliveira02-spec/garccom-app/controllers"
	"github.com/leonardo27oliveira02-spec/garccom-app/kds"
	"github.com/leonardo27oliveira02-spec/garccom-app/middlewares"
	"github.com/leonardo27oliveira02-spec/garccom-app/models"
	"github.com/leonardo27oliveira02-spec/garccom-app/realtime"
	"github.com/leonardo27oliveira02-spec/garccom-app/services"
)

// Dependencies are the services the HTTP surface is built on.
type Dependencies struct {
	Orders  *services.OrderEngine
	Tables  *services.TableSessionManager
	Staff   *services.StaffDirectory
	Menu    *services.MenuCatalog
	Reset   *services.DailyResetService
	Views   *services.Views
	Feed    realtime.Subscriber
	Hub     *kds.Hub
	Limiter *middlewares.RateLimiter

	AllowedOrigin  string
	TrustedProxies []string
	HSTS           bool
}

func SetupRouter(deps Dependencies) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.LoggerMiddleware())
	r.Use(middlewares.SecurityHeaders(deps.HSTS))
	r.Use(middlewares.CORSMiddlewares(deps.AllowedOrigin))
	r.SetTrustedProxies(deps.TrustedProxies)

	limiter := deps.Limiter
	if limiter == nil {
		limiter = middlewares.NewLoginRateLimiter()
	}

	// controllers
	userCtrl := controllers.NewUserController(deps.Staff, deps.Reset)
	orderCtrl := controllers.NewOrderController(deps.Orders, deps.Tables)
	tableCtrl := controllers.NewTableController(deps.Tables)
	menuCtrl := controllers.NewMenuController(deps.Orders, deps.Menu)
	kdsCtrl := controllers.NewKDSController(deps.Views, deps.Feed, deps.Hub, deps.AllowedOrigin)

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	r.POST("/login", limiter.RateLimit(), userCtrl.Login)

	// ----------------------------------------------------------------
	//                      AUTHENTICATED ROUTES
	// ----------------------------------------------------------------
	auth := r.Group("/")
	auth.Use(middlewares.AuthMiddleware())

	auth.POST("/logout", userCtrl.Logout)
	auth.GET("/me", userCtrl.GetProfile)
	auth.GET("/menu", menuCtrl.GetMenu)

	waiter := middlewares.RequireRoles(models.RoleWaiter, models.RoleAdmin)
	kitchen := middlewares.RequireRoles(models.RoleKitchen, models.RoleAdmin)
	anyStaff := middlewares.RequireRoles(models.RoleWaiter, models.RoleKitchen, models.RoleAdmin)
	admin := middlewares.RequireRoles(models.RoleAdmin)

	// TABLES (waiter)
	auth.GET("/tables", waiter, tableCtrl.GetAllTables)
	auth.GET("/tables/:table_id/session", waiter, tableCtrl.GetSession)
	auth.POST("/tables/:table_id/orders", waiter, orderCtrl.CreateOrder)
	auth.POST("/tables/:table_id/close", waiter, tableCtrl.CloseTable)

	// ORDERS
	auth.GET("/kitchen/orders", kitchen, orderCtrl.GetKitchenDisplay)
	auth.GET("/orders/mine", waiter, orderCtrl.GetMyOrders)
	auth.GET("/orders/:order_id", anyStaff, orderCtrl.GetOrderByID)
	auth.POST("/orders/:order_id/advance", anyStaff, orderCtrl.AdvanceOrder)
	auth.POST("/orders/:order_id/deliver", waiter, orderCtrl.DeliverOrder)
	auth.POST("/orders/:order_id/cancel", waiter, orderCtrl.CancelOrder)

	// ADMIN
	auth.GET("/staff", admin, userCtrl.GetAllUsers)
	auth.POST("/staff", admin, userCtrl.CreateUser)
	auth.PATCH("/staff/:staff_id/pin", admin, userCtrl.ResetPIN)
	auth.PATCH("/staff/:staff_id/active", admin, userCtrl.SetActive)
	auth.GET("/menu/items", admin, menuCtrl.GetAllMenus)
	auth.POST("/menu/items", admin, menuCtrl.CreateMenu)
	auth.PATCH("/menu/items/:item_id", admin, menuCtrl.UpdateMenu)

	// live views; browsers pass the token in the query string
	wsGroup := r.Group("/ws")
	wsGroup.Use(middlewares.WebSocketAuthMiddleware())
	{
		wsGroup.GET("/:view", kdsCtrl.ServeView)
	}

	return r
}

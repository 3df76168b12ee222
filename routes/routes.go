package routes

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"catalog-backend/controllers"
	"catalog-backend/middleware"
)

// Options configures the engine built by Setup.
type Options struct {
	Production  bool
	CORSOrigins []string
}

// Setup builds the gin engine and mounts every route under /api.
func Setup(ctrl *controllers.Controller, authn middleware.Authenticator, opts Options) *gin.Engine {
	if opts.Production {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.RequestLogger(ctrl.Logger), middleware.Recovery(ctrl.Logger))

	config := cors.DefaultConfig()
	config.AllowOrigins = opts.CORSOrigins
	config.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader}
	config.ExposeHeaders = []string{middleware.RequestIDHeader}
	config.AllowCredentials = true
	if len(config.AllowOrigins) == 0 {
		config.AllowOrigins = []string{"http://localhost:3000"}
	}
	r.Use(cors.New(config))

	protect := middleware.Protect(authn)
	admin := middleware.Admin()
	checkID := middleware.CheckObjectID("id")

	api := r.Group("/api")
	{
		api.GET("/health", ctrl.HealthCheck)
		api.GET("/stats", protect, admin, ctrl.GetStats)

		users := api.Group("/users")
		users.POST("", ctrl.Register)
		users.POST("/login", ctrl.Login)
		users.POST("/logout", ctrl.Logout)
		users.GET("/profile", protect, ctrl.Profile)

		products := api.Group("/products")
		// /top is registered before /:id so it is never parsed as an id.
		products.GET("/top", ctrl.GetTopProducts)
		products.GET("", ctrl.GetProducts)
		products.POST("", protect, admin, ctrl.CreateProduct)
		products.POST("/:id/reviews", protect, checkID, ctrl.CreateProductReview)
		products.GET("/:id", checkID, ctrl.GetProductByID)
		products.PUT("/:id", protect, admin, checkID, ctrl.UpdateProduct)
		products.DELETE("/:id", protect, admin, checkID, ctrl.DeleteProduct)

		api.GET("/upload/signature", protect, admin, ctrl.GetUploadSignature)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, middleware.ErrorBody{Code: "NOT_FOUND", Message: "Endpoint not found"})
	})
	return r
}

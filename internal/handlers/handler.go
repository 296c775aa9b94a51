package handlers

import (
	"elevator_control/internal/logger"
	"elevator_control/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
}

func NewHandler(services *service.Service, log *logger.Logger) *Handler {
	return &Handler{services: services, log: log}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/health", h.health)

	h.registerAuthRoutes(router)
	h.registerAPIRoutes(router)

	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", h.signIn)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.userIdMiddleware)
	{
		h.registerElevatorRoutes(api)
		h.registerLogRoutes(api)
	}
}

func (h *Handler) registerElevatorRoutes(api *gin.RouterGroup) {
	el := api.Group("/elevator")
	{
		// Body example: {"floor":1}
		el.POST("/request", h.requestFloor)
		el.POST("/doors/open", h.openDoors)
		el.POST("/doors/close", h.closeDoors)
		el.GET("/state", h.getState)
		el.GET("/floors", h.getFloors)
	}
}

func (h *Handler) registerLogRoutes(api *gin.RouterGroup) {
	logs := api.Group("/logs")
	{
		logs.GET("", h.getLogs)
		logs.GET("/", h.getLogs)
		logs.DELETE("", h.clearLogs)
		logs.GET("/export", h.exportLogs)
	}
}

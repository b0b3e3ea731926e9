package request

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"go-permit/internal/middleware"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	jwtSecret string,
	rdb *redis.Client,
) {
	requests := r.Group("/requests")
	requests.Use(middleware.AuthMiddleware(jwtSecret))
	{
		requests.GET("", handler.GetAll)
		requests.GET("/:id", handler.GetById)
		requests.GET("/stats/monthly", handler.MonthlyStats)
		requests.POST("", middleware.Idempotency(rdb), handler.Create)
		requests.PUT("/:id/resubmit", handler.Resubmit)
		requests.POST("/:id/checkin", handler.CheckIn)

		admin := requests.Group("")
		admin.Use(middleware.RoleMiddleware("admin"))
		{
			admin.POST("/:id/decision", handler.Decide)
			admin.POST("/:id/admin-checkin", handler.AdminCheckIn)
			admin.DELETE("/:id", handler.Delete)
		}
	}

	actions := r.Group("/actions")
	actions.Use(middleware.AuthMiddleware(jwtSecret))
	{
		actions.POST("/callback", handler.ActionCallback)
	}
}

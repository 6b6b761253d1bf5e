package routes

import (
	"net/http"
	"time"

	"taskmaster/handlers"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterJobRoutes registers the job list endpoints.
func RegisterJobRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/jobs")
	{
		api.GET("", hb.GetJobs)
		api.PUT("/tab", hb.SetActiveTab)
		api.POST("/refresh", hb.RefreshJobs)
		api.POST("/:id/accept", hb.AcceptJob)
		api.POST("/:id/otp", hb.EnterOTP)
		api.GET("/:id/activity", hb.GetActivity)
	}
	r.GET("/api/bookings/:kind", hb.GetBookings)
	r.GET("/api/earnings", hb.GetEarnings)
}

// RegisterOTPRoutes registers the OTP sheet endpoints.
func RegisterOTPRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/otp")
	{
		api.GET("/:sheetId", hb.GetSheet)
		api.PUT("/:sheetId", hb.UpdateSheet)
		api.DELETE("/:sheetId", hb.CloseSheet)
		api.POST("/:sheetId/submit", hb.SubmitSheet)
	}
}

// RegisterHealthRoute registers health and metrics endpoints.
func RegisterHealthRoute(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/health", hb.Health)
	if hb.Metrics != nil {
		r.GET("/metrics", hb.Metrics)
	}
}

// RegisterRoutes registers all routes. Origins come from CORS_ORIGINS.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle, origins []string) {
	corsCfg := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Request-Id"},
		ExposeHeaders:    []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = origins
	}
	r.Use(cors.New(corsCfg))

	RegisterHealthRoute(r, hb)
	RegisterJobRoutes(r, hb)
	RegisterOTPRoutes(r, hb)
}

package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"staycal/internal/infra/config"
	"staycal/internal/infra/obs"
)

type CalendarHTTP interface {
	Get(c *gin.Context)
	Block(c *gin.Context)
	Unblock(c *gin.Context)
}

type FeedsHTTP interface {
	Add(c *gin.Context)
	Remove(c *gin.Context)
	Toggle(c *gin.Context)
	SyncAll(c *gin.Context)
	SyncOne(c *gin.Context)
	Conflicts(c *gin.Context)
}

type Handlers struct {
	Calendar CalendarHTTP
	Feeds    FeedsHTTP
	// AuthMiddleware is the hook for the ownership check that guards
	// calendar edits; authorization itself lives outside this core.
	AuthMiddleware gin.HandlerFunc
	// ExportDir, when set, is served under /exports for the local
	// publishing mode.
	ExportDir string
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}))
	if h.AuthMiddleware != nil {
		router.Use(h.AuthMiddleware)
	}

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)
	if h.ExportDir != "" {
		router.Static("/exports", h.ExportDir)
	}

	api := router.Group("/api/v1")
	if h.Calendar != nil {
		api.GET("/properties/:id/calendar", h.Calendar.Get)
		api.POST("/properties/:id/calendar/block", h.Calendar.Block)
		api.POST("/properties/:id/calendar/unblock", h.Calendar.Unblock)
	}
	if h.Feeds != nil {
		api.POST("/properties/:id/calendars", h.Feeds.Add)
		api.DELETE("/properties/:id/calendars/:calID", h.Feeds.Remove)
		api.PATCH("/calendars/:calID", h.Feeds.Toggle)
		api.POST("/properties/:id/calendars/sync", h.Feeds.SyncAll)
		api.POST("/properties/:id/calendars/:calID/sync", h.Feeds.SyncOne)
		api.POST("/properties/:id/calendars/conflicts", h.Feeds.Conflicts)
	}

	return &http.Server{Addr: cfg.HTTPAddr, Handler: router}
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}

package planchette

import (
	"github.com/gin-gonic/gin"

	"github.com/kestrad/planchette/internal/planchette/handler/middleware"
	v1 "github.com/kestrad/planchette/internal/planchette/handler/v1"
	"github.com/kestrad/planchette/internal/planchette/service/plans/domain/service"
	"github.com/kestrad/planchette/internal/planchette/service/tools"
)

// routerDeps holds the dependencies needed for route registration.
type routerDeps struct {
	planService service.PlanService
	registry    *tools.Registry
	authConfig  *middleware.AuthConfig
}

func initRouter(g *gin.Engine, deps *routerDeps) {
	installMiddleware(g, deps)
	installController(g, deps)
}

func installMiddleware(g *gin.Engine, deps *routerDeps) {
	g.Use(gin.Recovery())
	g.Use(middleware.CORS())

	if deps.authConfig != nil {
		g.Use(middleware.BearerAuth(deps.authConfig))
	}
}

func installController(g *gin.Engine, deps *routerDeps) {
	// Handlers.
	planHandler := v1.NewPlanHandler(deps.planService)
	runHandler := v1.NewRunHandler(deps.planService)
	sessionHandler := v1.NewSessionHandler(deps.planService)
	historyHandler := v1.NewHistoryHandler(deps.planService)
	toolHandler := v1.NewToolHandler(deps.registry)

	// --- /v1 route group ---
	apiV1 := g.Group("/v1")
	{
		// Plan execution (SSE event stream).
		apiV1.POST("/plans", planHandler.Execute)

		// Run inspection and resume.
		apiV1.GET("/runs/:id", runHandler.Get)
		apiV1.POST("/runs/:id/resume", runHandler.Resume)

		// Session management.
		apiV1.GET("/sessions", sessionHandler.ListByUser)
		apiV1.GET("/sessions/:id", sessionHandler.Get)
		apiV1.GET("/sessions/:id/runs", runHandler.ListBySession)
		apiV1.DELETE("/sessions/:id", sessionHandler.Delete)

		// Tool-call history.
		apiV1.GET("/history", historyHandler.ListByUser)

		// Tool catalog.
		apiV1.GET("/tools", toolHandler.List)
	}
}

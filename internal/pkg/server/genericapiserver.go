package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"

	"github.com/kestrad/planchette/pkg/logger"
)

// GenericAPIServer contains state for the planchette HTTP API server.
// type GenericAPIServer gin.Engine.
type GenericAPIServer struct {
	*gin.Engine

	address         string
	healthz         bool
	enableProfiling bool
	middlewares     []string

	insecureServer *http.Server
}

func initGenericAPIServer(s *GenericAPIServer) {
	s.Setup()
	s.InstallMiddlewares()
	s.InstallAPIs()
}

// Setup does some setup work for gin engine.
func (s *GenericAPIServer) Setup() {
	gin.DebugPrintRouteFunc = func(httpMethod, absolutePath, handlerName string, nuHandlers int) {
		logger.Debug("%-6s %-s --> %s (%d handlers)", httpMethod, absolutePath, handlerName, nuHandlers)
	}
}

// InstallMiddlewares installs the generic middlewares.
func (s *GenericAPIServer) InstallMiddlewares() {
	s.Use(gin.Recovery())

	for _, m := range s.middlewares {
		logger.Info("install middleware: %s", m)
	}
}

// InstallAPIs installs the generic apis.
func (s *GenericAPIServer) InstallAPIs() {
	if s.healthz {
		s.GET("/healthz", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})
	}

	if s.enableProfiling {
		pprof.Register(s.Engine)
	}
}

// Run spawns the http server. It blocks until the server shuts down.
func (s *GenericAPIServer) Run() error {
	s.insecureServer = &http.Server{
		Addr:    s.address,
		Handler: s,
	}

	logger.Info("[Server] start to listening on %s", s.address)

	if err := s.insecureServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	logger.Info("[Server] server on %s stopped", s.address)
	return nil
}

// Close graceful shutdown the api server.
func (s *GenericAPIServer) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if s.insecureServer == nil {
		return
	}
	if err := s.insecureServer.Shutdown(ctx); err != nil {
		logger.Warn("shutdown insecure server failed: %s", err.Error())
	}
}

// Package server provides the generic API server shared by planchette
// services: a gin HTTP server with healthz, pprof and middleware
// installation, plus an insecure gRPC server for reflection-based tooling.
package server

import (
	"github.com/gin-gonic/gin"
)

// Config is a structure used to configure a GenericAPIServer.
type Config struct {
	Mode            string
	Middlewares     []string
	Healthz         bool
	EnableProfiling bool
	Address         string
}

// NewConfig returns a Config struct with the default values.
func NewConfig() *Config {
	return &Config{
		Mode:            gin.ReleaseMode,
		Middlewares:     []string{},
		Healthz:         true,
		EnableProfiling: true,
		Address:         "127.0.0.1:11780",
	}
}

// CompletedConfig is the completed configuration for GenericAPIServer.
type CompletedConfig struct {
	*Config
}

// Complete fills in any fields not set that are required to have valid
// data and can be derived from other fields.
func (c *Config) Complete() CompletedConfig {
	return CompletedConfig{c}
}

// New returns a new instance of GenericAPIServer from the given config.
func (c CompletedConfig) New() (*GenericAPIServer, error) {
	gin.SetMode(c.Mode)

	s := &GenericAPIServer{
		Engine:          gin.New(),
		address:         c.Address,
		healthz:         c.Healthz,
		enableProfiling: c.EnableProfiling,
		middlewares:     c.Middlewares,
	}

	initGenericAPIServer(s)

	return s, nil
}

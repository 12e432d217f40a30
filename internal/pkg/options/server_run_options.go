package options

import (
	"fmt"
	"net"

	"github.com/spf13/pflag"

	"github.com/kestrad/planchette/internal/pkg/server"
)

// ServerRunOptions contains the options while running the generic HTTP
// server.
type ServerRunOptions struct {
	// Mode is the gin run mode: debug, test or release.
	Mode string `json:"mode"        mapstructure:"mode"`

	// Healthz enables the /healthz self-check route.
	Healthz bool `json:"healthz"     mapstructure:"healthz"`

	// Middlewares is the list of allowed middlewares for the server,
	// comma separated. If empty, the default middlewares are used.
	Middlewares []string `json:"middlewares" mapstructure:"middlewares"`

	// BindAddress is the IP address the HTTP server listens on.
	BindAddress string `json:"bind-address" mapstructure:"bind-address"`

	// BindPort is the port the HTTP server listens on.
	BindPort int `json:"bind-port"    mapstructure:"bind-port"`

	// EnableProfiling enables the /debug/pprof routes.
	EnableProfiling bool `json:"profiling"   mapstructure:"profiling"`
}

// NewServerRunOptions creates a ServerRunOptions with defaults.
func NewServerRunOptions() *ServerRunOptions {
	defaults := server.NewConfig()

	return &ServerRunOptions{
		Mode:            defaults.Mode,
		Healthz:         defaults.Healthz,
		Middlewares:     defaults.Middlewares,
		BindAddress:     "127.0.0.1",
		BindPort:        11780,
		EnableProfiling: defaults.EnableProfiling,
	}
}

// ApplyTo applies the run options to the server config.
func (s *ServerRunOptions) ApplyTo(c *server.Config) error {
	c.Mode = s.Mode
	c.Healthz = s.Healthz
	c.Middlewares = s.Middlewares
	c.Address = net.JoinHostPort(s.BindAddress, fmt.Sprintf("%d", s.BindPort))
	c.EnableProfiling = s.EnableProfiling
	return nil
}

// Validate checks the options for sanity.
func (s *ServerRunOptions) Validate() []error {
	var errs []error
	if s.BindPort < 1 || s.BindPort > 65535 {
		errs = append(errs, fmt.Errorf("--serving.bind-port %v must be between 1 and 65535", s.BindPort))
	}
	switch s.Mode {
	case "debug", "test", "release":
	default:
		errs = append(errs, fmt.Errorf("--serving.mode %q must be debug, test or release", s.Mode))
	}
	return errs
}

// AddFlags adds flags related to the generic server to the given flagset.
func (s *ServerRunOptions) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&s.Mode, "serving.mode", s.Mode,
		"Start the server in a specified server mode. Supported server mode: debug, test, release.")
	fs.BoolVar(&s.Healthz, "serving.healthz", s.Healthz,
		"Add self readiness check and install /healthz router.")
	fs.StringSliceVar(&s.Middlewares, "serving.middlewares", s.Middlewares,
		"List of allowed middlewares for server, comma separated. If this list is empty default middlewares will be used.")
	fs.StringVar(&s.BindAddress, "serving.bind-address", s.BindAddress,
		"The IP address on which to serve the HTTP API.")
	fs.IntVar(&s.BindPort, "serving.bind-port", s.BindPort,
		"The port on which to serve the HTTP API.")
	fs.BoolVar(&s.EnableProfiling, "serving.profiling", s.EnableProfiling,
		"Enable profiling via web interface host:port/debug/pprof/.")
}

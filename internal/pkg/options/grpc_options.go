package options

import (
	"fmt"

	"github.com/spf13/pflag"
)

// GRPCOptions are for creating an unauthenticated, unauthorized, insecure
// port. No one should be using these anywhere but locally.
type GRPCOptions struct {
	// BindAddress is the IP address the gRPC server listens on.
	BindAddress string `json:"bind-address" mapstructure:"bind-address"`

	// BindPort is the port the gRPC server listens on.
	BindPort int `json:"bind-port"    mapstructure:"bind-port"`

	// MaxMsgSize is the maximum gRPC message size in bytes.
	MaxMsgSize int `json:"max-msg-size" mapstructure:"max-msg-size"`
}

// NewGRPCOptions creates a GRPCOptions with defaults.
func NewGRPCOptions() *GRPCOptions {
	return &GRPCOptions{
		BindAddress: "127.0.0.1",
		BindPort:    11788,
		MaxMsgSize:  4 * 1024 * 1024,
	}
}

// Validate checks the options for sanity.
func (o *GRPCOptions) Validate() []error {
	var errs []error
	if o.BindPort < 0 || o.BindPort > 65535 {
		errs = append(errs, fmt.Errorf("--grpc.bind-port %v must be between 0 and 65535, inclusive. 0 for turning off insecure (HTTP) port", o.BindPort))
	}
	return errs
}

// AddFlags adds flags related to the gRPC server to the given flagset.
func (o *GRPCOptions) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.BindAddress, "grpc.bind-address", o.BindAddress,
		"The IP address on which to serve the gRPC API.")
	fs.IntVar(&o.BindPort, "grpc.bind-port", o.BindPort,
		"The port on which to serve the gRPC API.")
	fs.IntVar(&o.MaxMsgSize, "grpc.max-msg-size", o.MaxMsgSize,
		"gRPC max message size.")
}

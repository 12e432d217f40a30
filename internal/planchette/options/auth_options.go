package options

import (
	"github.com/spf13/pflag"
)

// AuthOptions configures Bearer token authentication on the HTTP API.
type AuthOptions struct {
	// Enabled controls whether authentication is enforced.
	Enabled bool `json:"enabled" mapstructure:"enabled"`

	// Token is the expected Bearer token value. Can also be set via the
	// PLANCHETTE_GATEWAY_TOKEN environment variable.
	Token string `json:"token"   mapstructure:"token"`
}

// NewAuthOptions creates an AuthOptions with defaults.
func NewAuthOptions() *AuthOptions {
	return &AuthOptions{}
}

// Validate checks the options for sanity.
func (o *AuthOptions) Validate() []error {
	return nil
}

// AddFlags adds flags related to authentication to the given flagset.
func (o *AuthOptions) AddFlags(fs *pflag.FlagSet) {
	fs.BoolVar(&o.Enabled, "auth.enabled", o.Enabled,
		"Enforce Bearer token authentication on non-local requests.")
	fs.StringVar(&o.Token, "auth.token", o.Token,
		"Expected Bearer token value. Falls back to PLANCHETTE_GATEWAY_TOKEN.")
}

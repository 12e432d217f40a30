package options

import (
	genericoptions "github.com/kestrad/planchette/internal/pkg/options"
	"github.com/kestrad/planchette/internal/pkg/server"
	"github.com/kestrad/planchette/pkg/utils/cliflag"
	"github.com/kestrad/planchette/pkg/utils/json"
)

type Options struct {
	GRPCOptions             *genericoptions.GRPCOptions      `json:"grpc"     mapstructure:"grpc"`
	GenericServerRunOptions *genericoptions.ServerRunOptions `json:"serving"  mapstructure:"serving"`
	ModelOptions            *genericoptions.ModelOptions     `json:"models"   mapstructure:"models"`
	ToolOptions             *ToolOptions                     `json:"tools"    mapstructure:"tools"`
	PlanOptions             *PlanOptions                     `json:"plans"    mapstructure:"plans"`
	AuthOptions             *AuthOptions                     `json:"auth"     mapstructure:"auth"`
}

func (o *Options) Flags() (fss cliflag.NamedFlagSets) {
	o.GRPCOptions.AddFlags(fss.FlagSet("grpc"))
	o.GenericServerRunOptions.AddFlags(fss.FlagSet("generic"))
	o.ModelOptions.AddFlags(fss.FlagSet("models"))
	o.ToolOptions.AddFlags(fss.FlagSet("tools"))
	o.PlanOptions.AddFlags(fss.FlagSet("plans"))
	o.AuthOptions.AddFlags(fss.FlagSet("auth"))
	return fss
}

func NewOptions() *Options {
	return &Options{
		GRPCOptions:             genericoptions.NewGRPCOptions(),
		GenericServerRunOptions: genericoptions.NewServerRunOptions(),
		ModelOptions:            genericoptions.NewModelOptions(),
		ToolOptions:             NewToolOptions(),
		PlanOptions:             NewPlanOptions(),
		AuthOptions:             NewAuthOptions(),
	}
}

// ApplyTo applies the run options to the method receiver and returns self.
func (o *Options) ApplyTo(c *server.Config) error {
	return nil
}

// Validate checks all sub-options.
func (o *Options) Validate() []error {
	var errs []error
	errs = append(errs, o.GRPCOptions.Validate()...)
	errs = append(errs, o.GenericServerRunOptions.Validate()...)
	errs = append(errs, o.ModelOptions.Validate()...)
	errs = append(errs, o.ToolOptions.Validate()...)
	errs = append(errs, o.PlanOptions.Validate()...)
	errs = append(errs, o.AuthOptions.Validate()...)
	return errs
}

func (o *Options) String() string {
	data, _ := json.Marshal(o)

	return string(data)
}

// Complete set default Options.
func (o *Options) Complete() error {
	return nil
}

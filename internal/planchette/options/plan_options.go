package options

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

// PlanOptions configures plan execution and its persistence backends.
type PlanOptions struct {
	// RunTimeout bounds the execution of a single run.
	RunTimeout time.Duration `json:"run-timeout"         mapstructure:"run-timeout"`

	// Store selects the run/session backend: "inmemory" or "boltdb".
	Store string `json:"store"               mapstructure:"store"`

	// BoltDBPath is the BoltDB file path when Store is "boltdb".
	BoltDBPath string `json:"boltdb-path"         mapstructure:"boltdb-path"`

	// HistoryStore selects the history backend: "inmemory" or "sqlite".
	HistoryStore string `json:"history-store"       mapstructure:"history-store"`

	// HistoryDBPath is the SQLite file path when HistoryStore is "sqlite".
	HistoryDBPath string `json:"history-db-path"     mapstructure:"history-db-path"`

	// HistoryMaxRecords bounds the per-user history log.
	HistoryMaxRecords int `json:"history-max-records" mapstructure:"history-max-records"`
}

// NewPlanOptions creates a PlanOptions with defaults.
func NewPlanOptions() *PlanOptions {
	return &PlanOptions{
		RunTimeout:        5 * time.Minute,
		Store:             "inmemory",
		BoltDBPath:        "data/planchette.db",
		HistoryStore:      "inmemory",
		HistoryDBPath:     "data/history.db",
		HistoryMaxRecords: 100,
	}
}

// Validate checks the options for sanity.
func (o *PlanOptions) Validate() []error {
	var errs []error
	switch o.Store {
	case "inmemory", "boltdb":
	default:
		errs = append(errs, fmt.Errorf("--plans.store %q must be inmemory or boltdb", o.Store))
	}
	switch o.HistoryStore {
	case "inmemory", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("--plans.history-store %q must be inmemory or sqlite", o.HistoryStore))
	}
	if o.HistoryMaxRecords <= 0 {
		errs = append(errs, fmt.Errorf("--plans.history-max-records must be positive, got %d", o.HistoryMaxRecords))
	}
	return errs
}

// AddFlags adds flags related to plan execution to the given flagset.
func (o *PlanOptions) AddFlags(fs *pflag.FlagSet) {
	fs.DurationVar(&o.RunTimeout, "plans.run-timeout", o.RunTimeout,
		"Maximum duration of a single plan run.")
	fs.StringVar(&o.Store, "plans.store", o.Store,
		"Run/session persistence backend. Supported: inmemory, boltdb.")
	fs.StringVar(&o.BoltDBPath, "plans.boltdb-path", o.BoltDBPath,
		"BoltDB file path used when --plans.store=boltdb.")
	fs.StringVar(&o.HistoryStore, "plans.history-store", o.HistoryStore,
		"History persistence backend. Supported: inmemory, sqlite.")
	fs.StringVar(&o.HistoryDBPath, "plans.history-db-path", o.HistoryDBPath,
		"SQLite file path used when --plans.history-store=sqlite.")
	fs.IntVar(&o.HistoryMaxRecords, "plans.history-max-records", o.HistoryMaxRecords,
		"Maximum history records kept per user before the oldest are trimmed.")
}

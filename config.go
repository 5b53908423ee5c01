package syncval

import "github.com/ehrlich-b/go-syncval/internal/logging"

// Logger is the logging surface a Context/Coordinator writes through.
// It is an alias for *logging.Logger so callers never need to import
// the internal package directly to build one.
type Logger = *logging.Logger

// Config configures a Context or Coordinator, mirroring the teacher's
// DeviceParams/DefaultParams split between required wiring and
// optional tuning knobs.
type Config struct {
	// EnableQueueSubmitValidation turns on the §4.I queue-submission
	// ordering checks (out-of-order tag submission on a single queue is
	// reported as ErrInvalidSubmission). On by default; a caller
	// replaying an already-validated trace can turn it off to skip the
	// check.
	EnableQueueSubmitValidation bool

	// ReportPresentAsHazard controls whether the four present-remap
	// hazard kinds (WRITE_AFTER_PRESENT, READ_AFTER_PRESENT,
	// PRESENT_AFTER_READ, PRESENT_AFTER_WRITE) are reported as hazards
	// or folded back into their base kind. Some callers treat the
	// present/acquire boundary as an ordinary access; this defaults to
	// true so nothing is silently dropped.
	ReportPresentAsHazard bool

	// ConsolidationThreshold is stored on the Config but no code path
	// reads it: ApplyBarrierBatch and ResolveInto always run Consolidate
	// after their pass, and Update never does, whatever its value.
	ConsolidationThreshold uint32

	// Logger receives structured log output. Nil uses logging.Default().
	Logger Logger

	// Observer receives metrics events. Nil uses NoOpObserver.
	Observer Observer
}

// DefaultConfig returns the configuration a new Context/Coordinator
// uses when none is supplied: submission validation on, present
// remapping reported as a hazard, consolidation after every batch, the
// package default logger, and no metrics observer.
func DefaultConfig() *Config {
	return &Config{
		EnableQueueSubmitValidation: true,
		ReportPresentAsHazard:       true,
		ConsolidationThreshold:      0,
		Logger:                      logging.Default(),
		Observer:                    NoOpObserver{},
	}
}

func (c *Config) logger() Logger {
	if c == nil || c.Logger == nil {
		return logging.Default()
	}
	return c.Logger
}

func (c *Config) observer() Observer {
	if c == nil || c.Observer == nil {
		return NoOpObserver{}
	}
	return c.Observer
}

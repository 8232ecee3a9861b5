package enumerate

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/gilchrisn/mwcs-module-service/pkg/solver"
)

// Config manages enumeration configuration using Viper
type Config struct {
	v *viper.Viper
}

// NewConfig creates a new configuration with defaults
func NewConfig() *Config {
	v := viper.New()

	// Solver parameters
	v.SetDefault("solver.name", "auto")
	v.SetDefault("solver.time_limit", -1)
	v.SetDefault("solver.threads", 1)
	v.SetDefault("solver.module_size", -1)
	v.SetDefault("solver.max_exhaustive_nodes", 28)

	// Preprocessing
	v.SetDefault("preprocess.enabled", true)
	v.SetDefault("preprocess.initial", false)
	v.SetDefault("preprocess.hub_rules", true)

	// Round control
	v.SetDefault("enumerate.max_rounds", 0)
	v.SetDefault("enumerate.deadline_seconds", -1)

	// Logging parameters
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.enable_progress", true)

	v.SetDefault("analysis.track_events", false)
	v.SetDefault("analysis.output_file", "mwcs_events.jsonl")

	v.SetDefault("server.address", ":8080")

	return &Config{v: v}
}

// LoadFromFile loads configuration from file
func (c *Config) LoadFromFile(path string) error {
	c.v.SetConfigFile(path)
	return c.v.ReadInConfig()
}

// flagKeys maps command line flags onto configuration keys
var flagKeys = map[string]string{
	"solver":         "solver.name",
	"time-limit":     "solver.time_limit",
	"threads":        "solver.threads",
	"module-size":    "solver.module_size",
	"max-exhaustive": "solver.max_exhaustive_nodes",
	"preprocess":     "preprocess.enabled",
	"initial-reduce": "preprocess.initial",
	"hub-rules":      "preprocess.hub_rules",
	"max-rounds":     "enumerate.max_rounds",
	"deadline":       "enumerate.deadline_seconds",
	"loglevel":       "logging.level",
	"progress":       "logging.enable_progress",
	"track-events":   "analysis.track_events",
	"events-file":    "analysis.output_file",
	"address":        "server.address",
}

// BindFlags copies every flag the user set explicitly into the
// configuration, so flags override file values and defaults.
func (c *Config) BindFlags(flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok || !f.Changed {
			return
		}
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			c.v.Set(key, sv.GetSlice())
			return
		}
		c.v.Set(key, f.Value.String())
	})
}

// Getters for solver parameters
func (c *Config) SolverName() string      { return c.v.GetString("solver.name") }
func (c *Config) TimeLimit() int          { return c.v.GetInt("solver.time_limit") }
func (c *Config) Threads() int            { return c.v.GetInt("solver.threads") }
func (c *Config) ModuleSize() int         { return c.v.GetInt("solver.module_size") }
func (c *Config) MaxExhaustiveNodes() int { return c.v.GetInt("solver.max_exhaustive_nodes") }

func (c *Config) Preprocess() bool        { return c.v.GetBool("preprocess.enabled") }
func (c *Config) InitialPreprocess() bool { return c.v.GetBool("preprocess.initial") }
func (c *Config) HubRules() bool          { return c.v.GetBool("preprocess.hub_rules") }

func (c *Config) MaxRounds() int { return c.v.GetInt("enumerate.max_rounds") }

// Deadline returns the wall clock budget of a run, zero when unbounded
func (c *Config) Deadline() time.Duration {
	secs := c.v.GetFloat64("enumerate.deadline_seconds")
	if secs <= 0 {
		return 0
	}
	return time.Duration(secs * float64(time.Second))
}

func (c *Config) LogLevel() string     { return c.v.GetString("logging.level") }
func (c *Config) EnableProgress() bool { return c.v.GetBool("logging.enable_progress") }

func (c *Config) EnableEventTracking() bool  { return c.v.GetBool("analysis.track_events") }
func (c *Config) TrackingOutputFile() string { return c.v.GetString("analysis.output_file") }

func (c *Config) ServerAddress() string { return c.v.GetString("server.address") }

// SolverOptions collects the options handed to every solver instance
func (c *Config) SolverOptions() solver.Options {
	return solver.Options{
		TimeLimit:          c.TimeLimit(),
		Threads:            c.Threads(),
		ModuleSize:         c.ModuleSize(),
		MaxExhaustiveNodes: c.MaxExhaustiveNodes(),
	}
}

// Set allows dynamic configuration changes
func (c *Config) Set(key string, value interface{}) {
	c.v.Set(key, value)
}

// CreateLogger creates a zerolog logger based on config. Output goes to
// stderr because stdout may carry module assignments.
func (c *Config) CreateLogger() zerolog.Logger {
	level, err := zerolog.ParseLevel(c.LogLevel())
	if err != nil {
		level = zerolog.InfoLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05",
	}).Level(level).With().Timestamp().Str("service", "mwcs").Logger()
}

// Clone returns an independent copy carrying every explicitly set or
// defaulted key
func (c *Config) Clone() *Config {
	clone := NewConfig()
	for _, key := range c.v.AllKeys() {
		clone.v.Set(key, c.v.Get(key))
	}
	return clone
}

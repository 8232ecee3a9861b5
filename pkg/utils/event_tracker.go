package utils

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Event is one line of the enumeration trace
type Event struct {
	RunID     string  `json:"run_id"`
	Kind      string  `json:"kind"`
	Round     int     `json:"round"`
	Component int     `json:"component"`
	Nodes     int     `json:"nodes,omitempty"`
	Reduced   int     `json:"reduced,omitempty"`
	Module    int     `json:"module"`
	Weight    float64 `json:"weight,omitempty"`
	Accepted  bool    `json:"accepted,omitempty"`
	Detail    string  `json:"detail,omitempty"`
	Timestamp int64   `json:"timestamp"`
}

// Event kinds
const (
	EventRoundStart = "round_start"
	EventComponent  = "component"
	EventModule     = "module"
	EventRoundEnd   = "round_end"
	EventDone       = "done"
)

// EventTracker appends events as JSON lines. A nil tracker discards
// everything, so callers never need to check whether tracking is on.
type EventTracker struct {
	mu      sync.Mutex
	file    *os.File
	encoder *json.Encoder
	runID   string
	logger  zerolog.Logger
	count   int
}

func NewEventTracker(filename, runID string, logger zerolog.Logger) (*EventTracker, error) {
	file, err := os.Create(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "create event file %s", filename)
	}

	return &EventTracker{
		file:    file,
		encoder: json.NewEncoder(file),
		runID:   runID,
		logger:  logger,
	}, nil
}

func (et *EventTracker) Log(ev Event) {
	if et == nil {
		return
	}
	et.mu.Lock()
	defer et.mu.Unlock()

	ev.RunID = et.runID
	ev.Timestamp = time.Now().Unix()
	if err := et.encoder.Encode(ev); err != nil {
		et.logger.Warn().Err(err).Str("kind", ev.Kind).Msg("Failed to encode event")
		return
	}
	et.count++
}

// Count returns the number of events written so far
func (et *EventTracker) Count() int {
	if et == nil {
		return 0
	}
	et.mu.Lock()
	defer et.mu.Unlock()
	return et.count
}

func (et *EventTracker) Close() error {
	if et == nil || et.file == nil {
		return nil
	}
	et.mu.Lock()
	defer et.mu.Unlock()

	if err := et.file.Sync(); err != nil {
		et.file.Close()
		return errors.Wrap(err, "sync event file")
	}
	err := et.file.Close()
	et.file = nil
	return err
}

package cook

import (
	"errors"
	"fmt"
)

var (
	// ErrNoService indicates that neither an explicit service requirement
	// nor a default one is available.
	ErrNoService = errors.New("no service requirement")

	// ErrNoChannel indicates that the expansion channel descriptor
	// wasn't handed to the process.
	ErrNoChannel = errors.New("expansion channel not available")

	ErrUnknownNode = errors.New("unknown node")
	ErrFrozen      = errors.New("graph is frozen")
)

// ConfigError is a fatal configuration problem found before anything
// is sent to the farm.
type ConfigError struct {
	// Op is what was being configured when the error raised.
	Op  string
	Err error
}

func (e *ConfigError) Error() string {
	if e == nil {
		return ""
	}
	if e.Op == "" {
		return "configuration: " + e.Err.Error()
	}
	return fmt.Sprintf("configuration: %s: %v", e.Op, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

package testutil

import (
	"time"

	"github.com/skosovsky/toolserver"
)

// NewTestDispatcher returns a Dispatcher over tools with a long default timeout and panic recovery
// enabled, suitable for tests. It panics on duplicate names.
func NewTestDispatcher(tools ...toolserver.Tool) *toolserver.Dispatcher {
	return toolserver.NewDispatcher(
		toolserver.MustRegistry(tools...),
		toolserver.WithDefaultTimeout(30*time.Second),
		toolserver.WithRecoverPanics(true),
	)
}

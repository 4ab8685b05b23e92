// Package tui provides the interactive chat terminal interface for ragchat.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
)

// Ports aggregates the driving ports and static content the TUI needs.
type Ports struct {
	// Query answers chat messages. Required.
	Query driving.QueryService

	// Index reports the loaded index for the status bar. Optional.
	Index driving.IndexManager

	// Greeting is the first assistant line of the transcript. Optional.
	Greeting string
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Query == nil {
		return ErrMissingQueryService
	}
	return nil
}

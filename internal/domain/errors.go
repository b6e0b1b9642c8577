package domain

import (
	"errors"
	"fmt"
)

// Engine error taxonomy. Handlers and services classify failures by
// errors.Is against these sentinels.
var (
	// ErrNotFound covers unknown intersection, approach, or recommendation ids.
	ErrNotFound = errors.New("not found")

	// ErrInvalidArgument covers adjustments that would violate signal safety
	// bounds and malformed requests.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrConflict is returned when resolving a recommendation that is already
	// APPLIED or REJECTED.
	ErrConflict = errors.New("conflict")

	// ErrUnsupportedHorizon is returned for forecast horizons the model was
	// not trained for. It classifies as an invalid argument.
	ErrUnsupportedHorizon = fmt.Errorf("unsupported horizon: %w", ErrInvalidArgument)

	// ErrUpstreamUnavailable marks weather or model failures. These are
	// recovered locally with fallbacks and never abort a tick.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrFatal means the tick loop cannot safely proceed and must halt
	// rather than publish wrong metrics.
	ErrFatal = errors.New("fatal engine state")
)

package forecast

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by Run is a *StageError matching exactly
// one of these with errors.Is.
var (
	ErrInput         = errors.New("invalid request")
	ErrLookup        = errors.New("equipment lookup failed")
	ErrDataSource    = errors.New("weather data unavailable")
	ErrComputation   = errors.New("computation produced an invalid value")
	ErrConfiguration = errors.New("invalid configuration")
)

// Pipeline stages
const (
	StageValidate    = "validate"
	StageIngestion   = "ingestion"
	StageLookup      = "lookup"
	StageGeometry    = "geometry"
	StageAirmass     = "airmass"
	StagePOA         = "poa"
	StageTemperature = "temperature"
	StageDC          = "dc"
	StageAC          = "ac"
)

// StageError carries the failing stage, the offending parameter or output
// field, and the error kind
type StageError struct {
	Stage string
	Param string
	Kind  error
	Err   error
}

func (e *StageError) Error() string {
	if e.Param != "" {
		return fmt.Sprintf("%s: %s (%s): %v", e.Stage, e.Kind, e.Param, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Stage, e.Kind, e.Err)
}

// Is matches the error kind
func (e *StageError) Is(target error) bool {
	return target == e.Kind
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func stageError(stage, param string, kind, err error) *StageError {
	return &StageError{Stage: stage, Param: param, Kind: kind, Err: err}
}

// InputError reports a request parameter rejected before the pipeline runs,
// for callers that parse raw input themselves
func InputError(param string, err error) error {
	return stageError(StageValidate, param, ErrInput, err)
}

// KindName returns a short identifier for the kind of err, or "internal"
// when err is not a pipeline error
func KindName(err error) string {
	switch {
	case errors.Is(err, ErrInput):
		return "input"
	case errors.Is(err, ErrLookup):
		return "lookup"
	case errors.Is(err, ErrDataSource):
		return "data_source"
	case errors.Is(err, ErrComputation):
		return "computation"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	default:
		return "internal"
	}
}

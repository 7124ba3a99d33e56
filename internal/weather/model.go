// Package weather fetches numerical weather prediction data for the forecast
// pipeline.
package weather

import (
	"fmt"
	"strings"
	"time"
)

// Model names an NWP model. The set is closed: use ParseModel to obtain one
// from user input.
type Model string

const (
	GFS  Model = "GFS"
	NAM  Model = "NAM"
	NDFD Model = "NDFD"
	RAP  Model = "RAP"
	HRRR Model = "HRRR"
)

var allModels = []Model{GFS, NAM, NDFD, RAP, HRRR}

// UnknownModelError is returned for a model name outside the supported set
type UnknownModelError struct {
	Name string
}

func (e *UnknownModelError) Error() string {
	names := make([]string, len(allModels))
	for i, m := range allModels {
		names[i] = string(m)
	}
	return fmt.Sprintf("unknown weather model %q (supported: %s)", e.Name, strings.Join(names, ", "))
}

// ParseModel resolves a model name case-insensitively
func ParseModel(name string) (Model, error) {
	for _, m := range allModels {
		if strings.EqualFold(strings.TrimSpace(name), string(m)) {
			return m, nil
		}
	}
	return "", &UnknownModelError{Name: name}
}

// Models returns every supported model in a stable order
func Models() []Model {
	return append([]Model(nil), allModels...)
}

// ModelInfo is the upstream mapping for a model
type ModelInfo struct {
	Upstream   string        `json:"upstream"`
	MaxHorizon time.Duration `json:"max_horizon"`
}

var defaultModelInfo = map[Model]ModelInfo{
	GFS:  {Upstream: "gfs_global", MaxHorizon: 16 * 24 * time.Hour},
	NAM:  {Upstream: "ncep_nam_conus", MaxHorizon: 3 * 24 * time.Hour},
	NDFD: {Upstream: "ncep_nbm_conus", MaxHorizon: 7 * 24 * time.Hour},
	RAP:  {Upstream: "gfs_seamless", MaxHorizon: 2 * 24 * time.Hour},
	HRRR: {Upstream: "gfs_hrrr", MaxHorizon: 2 * 24 * time.Hour},
}

// DefaultInfo returns the built-in upstream mapping for m
func DefaultInfo(m Model) ModelInfo {
	return defaultModelInfo[m]
}

package restserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/chrissnell/pvforecast/internal/forecast"
	"github.com/chrissnell/pvforecast/internal/storage"
	"github.com/chrissnell/pvforecast/internal/storage/csvexport"
	"github.com/chrissnell/pvforecast/internal/storage/runstore"
	"github.com/chrissnell/pvforecast/internal/weather"
	"github.com/chrissnell/pvforecast/pkg/responseformat"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/hashicorp/go-multierror"
)

// Handlers contains all HTTP handlers for the REST server
type Handlers struct {
	controller *Controller
	formatter  *responseformat.Formatter
}

// NewHandlers creates a new handlers instance
func NewHandlers(ctrl *Controller) *Handlers {
	return &Handlers{
		controller: ctrl,
		formatter:  responseformat.NewFormatter(),
	}
}

// GetForecast runs the pipeline for the query parameters. Parameters that
// are not given come from the configured site. view=summary omits the
// per-step points, store=true persists the run, and format=csv returns the
// AC series as CSV.
func (h *Handlers) GetForecast(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()

	in, err := inputsFromQuery(q, forecast.InputsFromSite(h.controller.site))
	if err != nil {
		h.writeError(w, req, err)
		return
	}

	fr, err := forecast.RequestFromInputs(in)
	if err != nil {
		h.writeError(w, req, err)
		return
	}

	res, err := h.controller.forecaster.Run(req.Context(), fr)
	if err != nil {
		h.writeError(w, req, err)
		return
	}

	if q.Get("store") == "true" {
		if h.controller.storage == nil {
			h.writeError(w, req, forecast.InputError("store", errors.New("no storage backends are configured")))
			return
		}
		// A storage failure is logged and reported by /healthz; the forecast
		// itself is still returned
		if err := h.controller.storage.StoreForecast(req.Context(), res); err != nil {
			h.controller.logger.Errorw("could not store forecast", "error", err)
		}
	}

	if responseformat.RequestedFormat(req) == responseformat.FormatCSV {
		err = h.formatter.WriteCSV(w, csvexport.ACFile, func(out io.Writer) error {
			return csvexport.WriteTable(out, res.Index, csvexport.ACTable(res))
		})
		if err != nil {
			h.controller.logger.Errorf("error writing CSV response: %v", err)
		}
		return
	}

	body := transformResult(res, q.Get("view") != "summary")
	if err := h.formatter.WriteResponse(w, req, body, map[string]string{"Cache-Control": "no-store"}); err != nil {
		h.controller.logger.Errorf("error encoding forecast response: %v", err)
	}
}

// GetModels lists the forecast models and the source behind each
func (h *Handlers) GetModels(w http.ResponseWriter, req *http.Request) {
	var models []ModelResponse
	for _, m := range weather.Models() {
		src, err := h.controller.forecaster.Weather.Source(m)
		if err != nil {
			continue
		}
		models = append(models, ModelResponse{
			Name:       string(m),
			Source:     src.Name(),
			MaxHorizon: src.MaxHorizon().Hours(),
		})
	}

	w.Header().Set("Cache-Control", "max-age=3600") // Models only change with configuration
	if err := h.formatter.WriteResponse(w, req, models, nil); err != nil {
		h.controller.logger.Errorf("error encoding models response: %v", err)
	}
}

// GetHealth reports server and storage health
func (h *Handlers) GetHealth(w http.ResponseWriter, req *http.Request) {
	resp := HealthResponse{Status: storage.StatusHealthy}
	status := http.StatusOK

	if h.controller.storage != nil {
		resp.Storage = make(map[string]StorageHealth)
		for name, health := range h.controller.storage.Health().GetAllHealth() {
			resp.Storage[name] = StorageHealth{
				Status:    health.Status,
				LastCheck: health.LastCheck,
				Error:     health.Error,
			}
			if health.Status != storage.StatusHealthy {
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
			}
		}
	}

	if err := h.formatter.WriteStatus(w, req, status, resp, nil); err != nil {
		h.controller.logger.Errorf("error encoding health response: %v", err)
	}
}

// GetRun returns a stored run with its points
func (h *Handlers) GetRun(w http.ResponseWriter, req *http.Request) {
	id, err := uuid.Parse(mux.Vars(req)["id"])
	if err != nil {
		h.writeError(w, req, forecast.InputError("id", err))
		return
	}

	run, points, err := h.controller.runs.Get(req.Context(), id)
	if err != nil {
		h.writeRunError(w, req, err)
		return
	}

	if err := h.formatter.WriteResponse(w, req, transformRun(run, points), nil); err != nil {
		h.controller.logger.Errorf("error encoding run response: %v", err)
	}
}

// GetLatestRun returns the newest stored run for the model query parameter,
// without its points
func (h *Handlers) GetLatestRun(w http.ResponseWriter, req *http.Request) {
	name := req.URL.Query().Get("model")
	if name == "" {
		name = h.controller.site.Model
	}
	model, err := weather.ParseModel(name)
	if err != nil {
		h.writeError(w, req, forecast.InputError("model", err))
		return
	}

	run, err := h.controller.runs.Latest(req.Context(), string(model))
	if err != nil {
		h.writeRunError(w, req, err)
		return
	}

	if err := h.formatter.WriteResponse(w, req, transformRun(run, nil), nil); err != nil {
		h.controller.logger.Errorf("error encoding run response: %v", err)
	}
}

func (h *Handlers) writeRunError(w http.ResponseWriter, req *http.Request, err error) {
	if errors.Is(err, runstore.ErrRunNotFound) {
		h.formatter.WriteStatus(w, req, http.StatusNotFound, ErrorResponse{Error: "not_found", Message: err.Error()}, nil)
		return
	}
	h.controller.logger.Errorf("error querying stored runs: %v", err)
	h.formatter.WriteStatus(w, req, http.StatusInternalServerError, ErrorResponse{Error: "internal", Message: "error querying stored runs"}, nil)
}

// writeError maps a pipeline error to its HTTP status
func (h *Handlers) writeError(w http.ResponseWriter, req *http.Request, err error) {
	status := statusFor(err)
	resp := ErrorResponse{
		Error:   forecast.KindName(err),
		Message: err.Error(),
	}

	var se *forecast.StageError
	if errors.As(err, &se) {
		resp.Stage = se.Stage
		resp.Param = se.Param
	}

	if status >= http.StatusInternalServerError {
		h.controller.logger.Errorw("forecast failed", "status", status, "error", err)
	} else {
		h.controller.logger.Debugw("forecast rejected", "status", status, "error", err)
	}

	h.formatter.WriteStatus(w, req, status, resp, nil)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, forecast.ErrInput):
		return http.StatusBadRequest
	case errors.Is(err, forecast.ErrLookup):
		return http.StatusNotFound
	case errors.Is(err, forecast.ErrDataSource):
		if errors.Is(err, context.DeadlineExceeded) {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// inputsFromQuery overlays the query parameters on defaults. Every
// unparseable parameter is reported in one input error.
func inputsFromQuery(q url.Values, defaults forecast.Inputs) (forecast.Inputs, error) {
	in := defaults
	var errs *multierror.Error
	var params []string

	floats := []struct {
		name string
		dst  *float64
	}{
		{"latitude", &in.Latitude},
		{"longitude", &in.Longitude},
		{"altitude", &in.Altitude},
		{"surface_tilt", &in.SurfaceTilt},
		{"surface_azimuth", &in.SurfaceAzimuth},
		{"albedo", &in.Albedo},
	}
	for _, f := range floats {
		v := q.Get(f.name)
		if v == "" {
			continue
		}
		x, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%s: %q is not a number", f.name, v))
			params = append(params, f.name)
			continue
		}
		*f.dst = x
	}

	// An explicit albedo wins over the configured surface type
	if q.Get("albedo") != "" && q.Get("surface") == "" {
		in.Surface = ""
	}

	if v := q.Get("days_ahead"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("days_ahead: %q is not an integer", v))
			params = append(params, "days_ahead")
		} else {
			in.DaysAhead = n
		}
	}

	strs := []struct {
		name string
		dst  *string
	}{
		{"timezone", &in.Timezone},
		{"surface", &in.Surface},
		{"module_manufacturer", &in.ModuleManufacturer},
		{"module_model", &in.ModuleModel},
		{"inverter_manufacturer", &in.InverterManufacturer},
		{"inverter_model", &in.InverterModel},
		{"forecast_model", &in.ForecastModel},
		{"mounting", &in.Mounting},
	}
	for _, s := range strs {
		if v := q.Get(s.name); v != "" {
			*s.dst = v
		}
	}

	if errs != nil {
		return forecast.Inputs{}, forecast.InputError(strings.Join(params, ","), errs.ErrorOrNil())
	}
	return in, nil
}

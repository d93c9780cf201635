package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	"github.com/couchcryptid/storm-data-wqflow/internal/domain"
	"github.com/couchcryptid/storm-data-wqflow/internal/sizing"
)

// maxBodyBytes bounds capture-curve uploads; 30 years of hourly flows as JSON
// fits comfortably.
const maxBodyBytes = 32 << 20

type captureCurveRequest struct {
	Flows              []float64 `json:"flows"`
	DtSeconds          float64   `json:"dt_seconds"`
	CapturePercentages []float64 `json:"capture_percentages"`
	WetThreshold       *float64  `json:"wet_threshold"`
}

// handleQWQ serves GET /v1/qwq?area_ha=&imperv_pct=&capture=50,90.
func (s *Server) handleQWQ(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	area, err := parseFloatParam(q.Get("area_ha"), "area_ha")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	imperv, err := parseFloatParam(q.Get("imperv_pct"), "imperv_pct")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	percentages, err := parsePercentList(q.Get("capture"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.sizer.Size(r.Context(), sizing.Request{
		AreaHa:             area,
		ImperviousPct:      imperv,
		CapturePercentages: percentages,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, result)
}

// handleCaptureCurve serves POST /v1/capture-curve for caller-supplied flows.
func (s *Server) handleCaptureCurve(w http.ResponseWriter, r *http.Request) {
	var req captureCurveRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, r, fmt.Errorf("decode request body: %v: %w", err, domain.ErrInvalidInput))
		return
	}

	dt := req.DtSeconds
	if dt == 0 {
		dt = domain.HourSeconds
	}
	threshold := domain.DefaultWetThreshold
	if req.WetThreshold != nil {
		threshold = *req.WetThreshold
	}
	percentages := req.CapturePercentages
	if len(percentages) == 0 {
		percentages = domain.DefaultCapturePercentages
	}

	result, err := domain.AnalyzeCaptureCurve(req.Flows, dt, percentages, threshold)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, result)
}

func parseFloatParam(raw, name string) (float64, error) {
	if raw == "" {
		return 0, fmt.Errorf("%s is required: %w", name, domain.ErrInvalidInput)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s %q is not a number: %w", name, raw, domain.ErrInvalidInput)
	}
	return v, nil
}

func parsePercentList(raw string) ([]float64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	return domain.ParsePercentages(raw)
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNoWetWeatherData):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrNotReady), errors.Is(err, domain.ErrMissingArtifact):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrUpstreamFailure):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
	} else {
		s.logger.Debug("request rejected", "path", r.URL.Path, "status", status, "error", err)
	}
	sharedobs.WriteJSON(w, status, map[string]string{"error": err.Error()})
}

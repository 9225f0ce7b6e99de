package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/claude/runplan/internal/chart"
	"github.com/claude/runplan/internal/config"
	"github.com/claude/runplan/internal/metrics"
	"github.com/claude/runplan/internal/progression"
	"github.com/claude/runplan/internal/report"
)

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message":       "Runner Training Progression API",
		"documentation": "/api/v1/models",
		"health":        "/api/v1/health",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:       "healthy",
		Version:      Version,
		EquationType: s.defaults.Model,
		DefaultParameters: map[string]float64{
			"target_mileage":   s.defaults.Target,
			"starting_mileage": s.defaults.Starting,
			"a_parameter":      s.defaults.A,
			"b_parameter":      s.defaults.B,
		},
	})
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	kinds := progression.Kinds()
	out := make([]ModelInfo, len(kinds))
	for i, k := range kinds {
		out[i] = ModelInfo{Type: k.String(), Equation: k.Equation()}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCalculateMileage(w http.ResponseWriter, r *http.Request) {
	var req MileageRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	m, params, ok := s.buildModel(w, req.ModelOverrides, "mileage")
	if !ok {
		return
	}

	mileage, err := m.Mileage(*req.WeekNumber)
	if err != nil {
		s.writeModelError(w, err, m.Kind().String(), "mileage")
		return
	}
	metrics.ObserveEvaluation(m.Kind().String(), "mileage", "ok")

	writeJSON(w, http.StatusOK, MileageResponse{
		WeekNumber:         *req.WeekNumber,
		WeeklyMileage:      report.Round(mileage, 2),
		PercentageOfTarget: report.Round(mileage/params.Target*100, 1),
		EquationType:       m.Kind().String(),
		Parameters:         params,
	})
}

func (s *Server) handleCalculateWeek(w http.ResponseWriter, r *http.Request) {
	var req WeekRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	m, params, ok := s.buildModel(w, req.ModelOverrides, "week")
	if !ok {
		return
	}

	mileage := *req.WeeklyMileage
	res := m.Week(mileage)
	metrics.ObserveEvaluation(m.Kind().String(), "week", weekOutcome(res.Status))

	resp := WeekResponse{
		WeeklyMileage: mileage,
		EquationType:  m.Kind().String(),
		Parameters:    params,
	}
	switch res.Status {
	case progression.WeekFound:
		week := report.Round(res.Week, 2)
		resp.WeekNumber = &week
		resp.IsAchievable = true
	case progression.WeekUnbounded:
		resp.IsAchievable = true
		resp.IsUnbounded = true
	}
	if msg := report.WeekMessage(res, mileage); msg != "" {
		resp.Message = &msg
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRateOfChange(w http.ResponseWriter, r *http.Request) {
	var req RateRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	m, params, ok := s.buildModel(w, req.ModelOverrides, "rate")
	if !ok {
		return
	}

	week := *req.WeekNumber
	rate, err := m.RateOfChange(week)
	if err != nil {
		s.writeModelError(w, err, m.Kind().String(), "rate")
		return
	}
	metrics.ObserveEvaluation(m.Kind().String(), "rate", "ok")

	writeJSON(w, http.StatusOK, RateResponse{
		WeekNumber:     week,
		RateOfChange:   report.Round(rate, 4),
		Interpretation: report.Interpret(week, rate),
		EquationType:   m.Kind().String(),
		Parameters:     params,
	})
}

func (s *Server) handleVisualise(w http.ResponseWriter, r *http.Request) {
	var req VisualiseRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	m, params, ok := s.buildModel(w, req.ModelOverrides, "curve")
	if !ok {
		return
	}
	s.writeVisualisation(w, m, params, req.weeks(), req.includeRate())
}

func (s *Server) writeVisualisation(w http.ResponseWriter, m progression.Model, params config.Resolved, weeks int, includeRate bool) {
	series, err := chart.Weekly(m, weeks, includeRate)
	if err != nil {
		s.writeModelError(w, err, m.Kind().String(), "curve")
		return
	}
	metrics.ObserveEvaluation(m.Kind().String(), "curve", "ok")
	writeJSON(w, http.StatusOK, Visualisation(m, params, series, weeks))
}

// Visualisation shapes a weekly series into the API response, rounding
// mileages to 2dp and rates to 4dp.
func Visualisation(m progression.Model, params config.Resolved, series chart.Series, weeks int) VisualiseResponse {
	resp := VisualiseResponse{
		Weeks:         make([]int, len(series.Weeks)),
		Mileages:      make([]float64, len(series.Mileages)),
		EquationLatex: m.Equation(),
		Milestones:    []chart.Milestone{},
		EquationType:  m.Kind().String(),
		Parameters:    params,
	}
	for i, wk := range series.Weeks {
		resp.Weeks[i] = int(wk)
		resp.Mileages[i] = report.Round(series.Mileages[i], 2)
	}
	if series.Rates != nil {
		resp.Rates = make([]float64, len(series.Rates))
		for i, rate := range series.Rates {
			resp.Rates[i] = report.Round(rate, 4)
		}
	}
	if plateau, ok := progression.PlateauWeek(m); ok && plateau != 0 {
		p := report.Round(plateau, 2)
		resp.PlateauWeek = &p
	}
	for _, ms := range chart.Milestones(m, float64(weeks)) {
		ms.Mileage = report.Round(ms.Mileage, 2)
		ms.Week = report.Round(ms.Week, 2)
		resp.Milestones = append(resp.Milestones, ms)
	}
	return resp
}

// buildModel resolves o against the configured defaults and constructs the
// model, writing a 400 on failure.
func (s *Server) buildModel(w http.ResponseWriter, o ModelOverrides, op string) (progression.Model, config.Resolved, bool) {
	params := s.defaults.Resolve(o.overrides())
	m, err := params.Build()
	if err != nil {
		s.writeModelError(w, err, "", op)
		return nil, params, false
	}
	params.Model = m.Kind().String()
	return m, params, true
}

// writeModelError maps engine errors to 400 and anything else to 500.
func (s *Server) writeModelError(w http.ResponseWriter, err error, kind, op string) {
	var perr *progression.Error
	if errors.As(err, &perr) {
		metrics.ObserveEvaluation(kind, op, string(perr.Kind))
		s.log.Debug("model error", "operation", op, "error", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.log.Error("evaluation failed", "operation", op, "error", err)
	writeError(w, http.StatusInternalServerError, err.Error())
}

func weekOutcome(s progression.WeekStatus) string {
	if s == progression.WeekFound {
		return "ok"
	}
	return s.String()
}

// writeJSON encodes v before writing the status, so a value that cannot be
// encoded (NaN, ±Inf) becomes a 500 instead of a 200 with an empty body.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("encoding response", "status", status, "error", err)
		status = http.StatusInternalServerError
		data = []byte(`{"error":"failed to encode response"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(data, '\n'))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

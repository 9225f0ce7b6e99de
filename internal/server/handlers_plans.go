package server

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/claude/runplan/internal/chart"
	"github.com/claude/runplan/internal/config"
	"github.com/claude/runplan/internal/models"
	"github.com/claude/runplan/internal/progression"
	"github.com/claude/runplan/internal/storage"
)

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	plans, err := s.store.ListPlans(r.Context(), limit)
	if err != nil {
		s.log.Error("list plans", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if plans == nil {
		plans = []models.Plan{}
	}
	writeJSON(w, http.StatusOK, plans)
}

func (s *Server) handleCreatePlan(w http.ResponseWriter, r *http.Request) {
	var req PlanRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	plan := models.Plan{
		Name:     req.Name,
		Notes:    req.Notes,
		Model:    req.Model,
		Target:   *req.Target,
		Starting: *req.Starting,
		A:        *req.A,
		B:        *req.B,
	}
	m, err := plan.Build()
	if err != nil {
		s.writeModelError(w, err, "", "plan")
		return
	}
	plan.Model = m.Kind().String()

	saved, err := s.store.CreatePlan(r.Context(), plan)
	if err != nil {
		s.log.Error("create plan", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.log.Info("plan created", "id", saved.ID, "name", saved.Name, "model", saved.Model, "by", userInfoFromContext(r).Login)
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	plan, ok := s.loadPlan(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handleDeletePlan(w http.ResponseWriter, r *http.Request) {
	id, ok := planID(w, r)
	if !ok {
		return
	}
	if err := s.store.DeletePlan(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrPlanNotFound) {
			writeError(w, http.StatusNotFound, "plan not found")
			return
		}
		s.log.Error("delete plan", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleVisualisePlan(w http.ResponseWriter, r *http.Request) {
	var req VisualiseRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	plan, ok := s.loadPlan(w, r)
	if !ok {
		return
	}
	m, err := plan.Build()
	if err != nil {
		s.writeModelError(w, err, "", "curve")
		return
	}
	s.writeVisualisation(w, m, planParams(plan), req.weeks(), req.includeRate())
}

func (s *Server) handlePlanChart(w http.ResponseWriter, r *http.Request) {
	plan, ok := s.loadPlan(w, r)
	if !ok {
		return
	}
	m, err := plan.Build()
	if err != nil {
		s.writeModelError(w, err, "", "curve")
		return
	}
	s.writeChart(w, r, m)
}

// handleChart renders the model described by the query string
// (model_type, target_mileage, ... as in the JSON bodies) as a PNG.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	o, err := queryOverrides(r)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	m, _, ok := s.buildModel(w, o, "curve")
	if !ok {
		return
	}
	s.writeChart(w, r, m)
}

func (s *Server) writeChart(w http.ResponseWriter, r *http.Request, m progression.Model) {
	opts := chart.Options{Width: s.plot.Width, Height: s.plot.Height, Weeks: s.plot.Weeks}
	if v := r.URL.Query().Get("weeks"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 52 {
			writeError(w, http.StatusUnprocessableEntity, "weeks must be an integer in 1..52")
			return
		}
		opts.Weeks = n
	}

	var buf bytes.Buffer
	if err := chart.RenderProgression(&buf, m, opts); err != nil {
		s.writeModelError(w, err, m.Kind().String(), "curve")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (s *Server) loadPlan(w http.ResponseWriter, r *http.Request) (models.Plan, bool) {
	id, ok := planID(w, r)
	if !ok {
		return models.Plan{}, false
	}
	plan, err := s.store.GetPlan(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrPlanNotFound) {
			writeError(w, http.StatusNotFound, "plan not found")
			return models.Plan{}, false
		}
		s.log.Error("get plan", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return models.Plan{}, false
	}
	return plan, true
}

func planID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid plan ID")
		return uuid.Nil, false
	}
	return id, true
}

func planParams(p models.Plan) config.Resolved {
	return config.Resolved{
		Model:    p.Model,
		Target:   p.Target,
		Starting: p.Starting,
		A:        p.A,
		B:        p.B,
	}
}

func queryOverrides(r *http.Request) (ModelOverrides, error) {
	q := r.URL.Query()
	var o ModelOverrides
	if v := q.Get("model_type"); v != "" {
		o.ModelType = &v
	}
	fields := []struct {
		name string
		dst  **float64
	}{
		{"target_mileage", &o.Target},
		{"starting_mileage", &o.Starting},
		{"a_parameter", &o.A},
		{"b_parameter", &o.B},
	}
	for _, f := range fields {
		v := q.Get(f.name)
		if v == "" {
			continue
		}
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return ModelOverrides{}, errors.New(f.name + " must be a number")
		}
		*f.dst = &n
	}
	if err := validate.Struct(o); err != nil {
		return ModelOverrides{}, describeValidation(err)
	}
	return o, nil
}

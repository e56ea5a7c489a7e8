package filtermenu

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/besy-hub/besy-orders/internal/filter"
	"github.com/besy-hub/besy-orders/internal/platform/httpx"
	"github.com/besy-hub/besy-orders/internal/preferences"
	"github.com/besy-hub/besy-orders/internal/shared"
)

// Handler exposes the filter menu sessions over HTTP. Every mutation
// response carries the state the controller would emit to its parent page.
type Handler struct {
	logger    *slog.Logger
	manager   *Manager
	presets   PresetSource
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, manager *Manager, presets PresetSource) *Handler {
	return &Handler{logger: logger, manager: manager, presets: presets, validator: validator.New()}
}

// MountRoutes registers filter menu routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/filter-menu/sessions", h.handleCreate)
	r.Get("/filter-menu/sessions/{id}", h.handleState)
	r.Delete("/filter-menu/sessions/{id}", h.handleClose)
	r.Post("/filter-menu/sessions/{id}/chips/{field}/{chip}/toggle", h.handleToggleChip)
	r.Put("/filter-menu/sessions/{id}/date-ranges/{field}", h.handleSetDateRange)
	r.Put("/filter-menu/sessions/{id}/ranges/{field}", h.handleSetRange)
	r.Put("/filter-menu/sessions/{id}/columns", h.handleSetColumns)
	r.Post("/filter-menu/sessions/{id}/presets/apply", h.handleApplyPreset)
	r.Post("/filter-menu/sessions/{id}/presets/disable", h.handleDisablePreset)
	r.Post("/filter-menu/sessions/{id}/reset", h.handleReset)
}

type createSessionRequest struct {
	InitialPreset json.RawMessage `json:"initialPreset,omitempty"`
}

type sessionState struct {
	SessionID         string               `json:"session_id"`
	ActiveFilters     filter.ActiveFilters `json:"activeFilters"`
	SelectedColumnIDs []string             `json:"selectedColumnIds"`
	AppliedPresets    []string             `json:"appliedPresets"`
	ResetCount        int                  `json:"resetCount"`
}

type createSessionResponse struct {
	sessionState
	Domains map[string][]filter.Chip `json:"domains"`
	Presets []filter.Preset          `json:"presets"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if r.ContentLength > 0 {
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
			return
		}
	}
	var initial *filter.Preset
	if len(req.InitialPreset) > 0 {
		preset, err := preferences.ParsePreset(req.InitialPreset)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Preset", err.Error())
			return
		}
		initial = &preset
	}

	id, controller, sink, err := h.manager.Create(r.Context(), initial)
	if err != nil {
		h.logger.Error("create filter menu session", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	domains := make(map[string][]filter.Chip)
	for _, field := range filter.Fields() {
		if field.Kind == filter.KindChips {
			domains[field.Name] = controller.ChipDomain(field.Name)
		}
	}
	resp := createSessionResponse{
		sessionState: h.state(id, controller, sink),
		Domains:      domains,
		Presets:      h.visiblePresets(r),
	}
	httpx.JSON(w, http.StatusCreated, resp)
}

func (h *Handler) handleState(w http.ResponseWriter, r *http.Request) {
	controller, sink, ok := h.session(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, h.state(chi.URLParam(r, "id"), controller, sink))
}

func (h *Handler) handleClose(w http.ResponseWriter, r *http.Request) {
	if err := h.manager.Close(chi.URLParam(r, "id")); err != nil {
		httpx.RespondError(w, mapError(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleToggleChip(w http.ResponseWriter, r *http.Request) {
	controller, sink, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := controller.ToggleChip(chi.URLParam(r, "field"), chi.URLParam(r, "chip")); err != nil {
		httpx.RespondError(w, mapError(err))
		return
	}
	httpx.JSON(w, http.StatusOK, h.state(chi.URLParam(r, "id"), controller, sink))
}

type dateRangeRequest struct {
	Start *time.Time `json:"start"`
	End   *time.Time `json:"end"`
}

func (h *Handler) handleSetDateRange(w http.ResponseWriter, r *http.Request) {
	controller, sink, ok := h.session(w, r)
	if !ok {
		return
	}
	var req dateRangeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := controller.SetDateRange(chi.URLParam(r, "field"), filter.DateRange{Start: req.Start, End: req.End}); err != nil {
		httpx.RespondError(w, mapError(err))
		return
	}
	httpx.JSON(w, http.StatusOK, h.state(chi.URLParam(r, "id"), controller, sink))
}

type rangeRequest struct {
	Start *float64 `json:"start" validate:"required"`
	End   *float64 `json:"end" validate:"required"`
}

func (h *Handler) handleSetRange(w http.ResponseWriter, r *http.Request) {
	controller, sink, ok := h.session(w, r)
	if !ok {
		return
	}
	var req rangeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", "start and end are required")
		return
	}
	if err := controller.SetRange(chi.URLParam(r, "field"), filter.NumericRange{Start: *req.Start, End: *req.End}); err != nil {
		httpx.RespondError(w, mapError(err))
		return
	}
	httpx.JSON(w, http.StatusOK, h.state(chi.URLParam(r, "id"), controller, sink))
}

type columnsRequest struct {
	SelectedColumnIDs []string `json:"selectedColumnIds" validate:"required"`
}

func (h *Handler) handleSetColumns(w http.ResponseWriter, r *http.Request) {
	controller, sink, ok := h.session(w, r)
	if !ok {
		return
	}
	var req columnsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", "selectedColumnIds is required")
		return
	}
	controller.SetColumns(req.SelectedColumnIDs)
	httpx.JSON(w, http.StatusOK, h.state(chi.URLParam(r, "id"), controller, sink))
}

type presetRequest struct {
	Label  string          `json:"label,omitempty"`
	Preset json.RawMessage `json:"preset,omitempty"`
}

func (h *Handler) handleApplyPreset(w http.ResponseWriter, r *http.Request) {
	h.handlePresetToggle(w, r, func(c *Controller, p filter.Preset) { c.ApplyPreset(p) })
}

func (h *Handler) handleDisablePreset(w http.ResponseWriter, r *http.Request) {
	h.handlePresetToggle(w, r, func(c *Controller, p filter.Preset) { c.DisablePreset(p) })
}

func (h *Handler) handlePresetToggle(w http.ResponseWriter, r *http.Request, apply func(*Controller, filter.Preset)) {
	controller, sink, ok := h.session(w, r)
	if !ok {
		return
	}
	var req presetRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	preset, err := h.resolvePreset(r, req)
	if err != nil {
		httpx.RespondError(w, mapError(err))
		return
	}
	apply(controller, preset)
	httpx.JSON(w, http.StatusOK, h.state(chi.URLParam(r, "id"), controller, sink))
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	controller, sink, ok := h.session(w, r)
	if !ok {
		return
	}
	controller.Reset()
	httpx.JSON(w, http.StatusOK, h.state(chi.URLParam(r, "id"), controller, sink))
}

// resolvePreset takes either an inline preset payload or a label referencing
// a preset from the user's effective list.
func (h *Handler) resolvePreset(r *http.Request, req presetRequest) (filter.Preset, error) {
	if len(req.Preset) > 0 {
		return preferences.ParsePreset(req.Preset)
	}
	if req.Label == "" {
		return filter.Preset{}, shared.ErrValidation
	}
	presets, _ := h.presets.Presets(r.Context())
	for _, preset := range presets {
		if preset.Label == req.Label {
			return preset, nil
		}
	}
	return filter.Preset{}, shared.ErrNotFound
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*Controller, *latestSink, bool) {
	controller, sink, err := h.manager.Get(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, mapError(err))
		return nil, nil, false
	}
	return controller, sink, true
}

func (h *Handler) state(id string, controller *Controller, sink *latestSink) sessionState {
	active, columns, resets := sink.State()
	if columns == nil {
		active = controller.ActiveFilters()
		columns = controller.Columns()
	}
	return sessionState{
		SessionID:         id,
		ActiveFilters:     active,
		SelectedColumnIDs: columns,
		AppliedPresets:    controller.AppliedPresetLabels(),
		ResetCount:        resets,
	}
}

func (h *Handler) visiblePresets(r *http.Request) []filter.Preset {
	presets, err := h.presets.Presets(r.Context())
	if err != nil {
		h.logger.Warn("load presets degraded", slog.Any("error", err))
	}
	visible := make([]filter.Preset, 0, len(presets))
	for _, preset := range presets {
		if preset.IsLastActive() {
			continue
		}
		visible = append(visible, preset)
	}
	return visible
}

func mapError(err error) error {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		return httpx.ErrNotFound
	case errors.Is(err, shared.ErrValidation):
		return httpx.ErrValidation
	default:
		return err
	}
}

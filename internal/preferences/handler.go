package preferences

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/besy-hub/besy-orders/internal/filter"
	"github.com/besy-hub/besy-orders/internal/platform/httpx"
	"github.com/besy-hub/besy-orders/internal/shared"
)

// Handler manages the preset CRUD endpoints for the admin UI.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers preset routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/presets", h.handleList)
	r.Post("/presets", h.handleCreate)
	r.Put("/presets/{label}", h.handleUpdate)
	r.Delete("/presets/{id}", h.handleDelete)
}

// presetListResponse carries the effective list plus an optional transient
// warning when persistence is degraded. Filtering stays usable either way.
type presetListResponse struct {
	Presets []filter.Preset `json:"presets"`
	Warning string          `json:"warning,omitempty"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	presets, err := h.service.Presets(r.Context())
	httpx.JSON(w, http.StatusOK, listResponse(presets, err))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	preset, ok := h.decodePreset(w, r)
	if !ok {
		return
	}
	if preset.IsLastActive() {
		httpx.Problem(w, http.StatusBadRequest, "Reserved Label", "the lastActiveFilters label is managed automatically")
		return
	}
	presets, err := h.service.SavePreset(r.Context(), preset)
	httpx.JSON(w, http.StatusCreated, listResponse(presets, err))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	preset, ok := h.decodePreset(w, r)
	if !ok {
		return
	}
	oldLabel := chi.URLParam(r, "label")
	presets, err := h.service.UpdatePresetByLabel(r.Context(), oldLabel, preset)
	httpx.JSON(w, http.StatusOK, listResponse(presets, err))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Id", "preset id must be numeric")
		return
	}
	presets, err := h.service.DeletePreset(r.Context(), id)
	if err != nil && errors.Is(err, shared.ErrNotFound) {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	httpx.JSON(w, http.StatusOK, listResponse(presets, err))
}

func (h *Handler) decodePreset(w http.ResponseWriter, r *http.Request) (filter.Preset, bool) {
	var raw json.RawMessage
	if err := httpx.DecodeJSON(r, &raw); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return filter.Preset{}, false
	}
	preset, err := ParsePreset(raw)
	if err != nil {
		h.logger.Debug("reject preset payload", slog.Any("error", err))
		httpx.Problem(w, http.StatusBadRequest, "Invalid Preset", err.Error())
		return filter.Preset{}, false
	}
	if err := h.validator.Var(preset.Label, "required,max=120"); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Preset", "label must be at most 120 characters")
		return filter.Preset{}, false
	}
	return preset, true
}

func listResponse(presets []filter.Preset, err error) presetListResponse {
	resp := presetListResponse{Presets: make([]filter.Preset, 0, len(presets))}
	for _, preset := range presets {
		if preset.IsLastActive() {
			continue
		}
		resp.Presets = append(resp.Presets, preset)
	}
	if err != nil {
		resp.Warning = err.Error()
	}
	return resp
}

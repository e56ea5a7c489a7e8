package preferences

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/besy-hub/besy-orders/internal/filter"
	"github.com/besy-hub/besy-orders/internal/shared"
)

func newTestHandler(t *testing.T) (*chi.Mux, *memoryPrefStore) {
	t.Helper()
	store := newMemoryPrefStore()
	svc := NewService(store, stubIdentity{user: shared.Identity{ID: "u-42", Name: "Erika"}}, testLogger())
	fixedNow(svc)

	r := chi.NewRouter()
	NewHandler(testLogger(), svc).MountRoutes(r)
	return r, store
}

func TestHandlerListPresets(t *testing.T) {
	r, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/presets", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp presetListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Presets, 3)
	require.Empty(t, resp.Warning)
}

func TestHandlerCreatePreset(t *testing.T) {
	r, store := newTestHandler(t)

	body := `{"label":"itHardware","appliedFilters":[{"id":"supplier_id","chipIds":[7]}]}`
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/presets", strings.NewReader(body)))
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, store.prefs, 1)

	var resp presetListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "itHardware", resp.Presets[len(resp.Presets)-1].Label)
}

func TestHandlerRejectsReservedLabel(t *testing.T) {
	r, store := newTestHandler(t)

	body := `{"label":"lastActiveFilters","appliedFilters":[]}`
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/presets", strings.NewReader(body)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Empty(t, store.prefs)
}

func TestHandlerRejectsMissingLabel(t *testing.T) {
	r, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/presets", strings.NewReader(`{"appliedFilters":[]}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerUpdatePresetByLabel(t *testing.T) {
	r, store := newTestHandler(t)

	blob, err := json.Marshal(filter.Preset{Label: "oldName"})
	require.NoError(t, err)
	_, err = store.Create(context.Background(), Preference{
		UserID:         "u-42",
		PreferenceType: TypeOrderFilterPresets,
		Preferences:    blob,
	})
	require.NoError(t, err)

	body := `{"label":"newName","appliedFilters":[]}`
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/presets/oldName", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp presetListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	labels := presetLabels(resp.Presets)
	require.Contains(t, labels, "newName")
	require.NotContains(t, labels, "oldName")
	require.Len(t, store.prefs, 1)
}

func TestHandlerDeletePreset(t *testing.T) {
	r, store := newTestHandler(t)

	blob, err := json.Marshal(filter.Preset{Label: "toGo"})
	require.NoError(t, err)
	created, err := store.Create(context.Background(), Preference{
		UserID:         "u-42",
		PreferenceType: TypeOrderFilterPresets,
		Preferences:    blob,
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/presets/9999", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/presets/"+strconv.FormatInt(created.ID, 10), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, store.prefs)
}

func TestHandlerHidesLastActivePreset(t *testing.T) {
	r, store := newTestHandler(t)

	blob, err := json.Marshal(filter.Preset{Label: filter.LastActiveLabel})
	require.NoError(t, err)
	_, err = store.Create(context.Background(), Preference{
		UserID:         "u-42",
		PreferenceType: TypeOrderFilterPresets,
		Preferences:    blob,
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/presets", nil))

	var resp presetListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotContains(t, presetLabels(resp.Presets), filter.LastActiveLabel)
}

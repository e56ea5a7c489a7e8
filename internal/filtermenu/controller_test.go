package filtermenu

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/besy-hub/besy-orders/internal/filter"
	"github.com/besy-hub/besy-orders/internal/shared"
)

type staticDomains struct {
	costCenterErr error
}

func (d *staticDomains) CostCenterChips(ctx context.Context) ([]filter.Chip, error) {
	if d.costCenterErr != nil {
		return nil, d.costCenterErr
	}
	return []filter.Chip{
		{ID: "1", Label: "KST-100", Tooltip: "Labor"},
		{ID: "2", Label: "KST-200", Tooltip: "Verwaltung"},
	}, nil
}

func (d *staticDomains) UserChips(ctx context.Context) ([]filter.Chip, error) {
	return []filter.Chip{
		{ID: "u-1", Label: "Becker"},
		{ID: "u-2", Label: "Zimmermann"},
	}, nil
}

func (d *staticDomains) PersonChips(ctx context.Context) ([]filter.Chip, error) {
	return []filter.Chip{{ID: "10", Label: "Pfortner"}}, nil
}

func (d *staticDomains) SupplierChips(ctx context.Context) ([]filter.Chip, error) {
	return []filter.Chip{
		{ID: "7", Label: "Conrad"},
		{ID: "8", Label: "Reichelt"},
	}, nil
}

func (d *staticDomains) StatusChips() []filter.Chip {
	return []filter.Chip{
		{ID: "IN_PROGRESS", Label: "In Bearbeitung"},
		{ID: "ORDERED", Label: "Bestellt"},
		{ID: "DELIVERED", Label: "Geliefert"},
	}
}

func (d *staticDomains) BookingYearChips() []filter.Chip {
	return []filter.Chip{
		{ID: "25", Label: "2025"},
		{ID: "26", Label: "2026"},
	}
}

type stubPresets struct {
	mu         sync.Mutex
	lastActive *filter.Preset
	updates    []filter.Preset
}

func (s *stubPresets) Presets(ctx context.Context) ([]filter.Preset, error) {
	return nil, nil
}

func (s *stubPresets) LastActive(ctx context.Context) (filter.Preset, bool) {
	if s.lastActive == nil {
		return filter.Preset{}, false
	}
	return *s.lastActive, true
}

func (s *stubPresets) UpdatePresetByLabel(ctx context.Context, oldLabel string, updated filter.Preset) ([]filter.Preset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = append(s.updates, updated)
	return nil, nil
}

func (s *stubPresets) recorded() []filter.Preset {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]filter.Preset(nil), s.updates...)
}

type recordingSink struct {
	mu      sync.Mutex
	active  filter.ActiveFilters
	columns []string
	changes int
	resets  int
}

func (s *recordingSink) ActiveFiltersChanged(active filter.ActiveFilters) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = active
	s.changes++
}

func (s *recordingSink) ColumnsChanged(columns []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.columns = columns
}

func (s *recordingSink) FiltersReset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resets++
}

func (s *recordingSink) resetCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resets
}

func newTestController(t *testing.T, presets *stubPresets, sink *recordingSink) *Controller {
	t.Helper()
	c := New(Config{
		Domains:  &staticDomains{},
		Presets:  presets,
		Sink:     sink,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Debounce: 50 * time.Millisecond,
	})
	t.Cleanup(c.Close)
	require.NoError(t, c.Init(context.Background(), nil))
	return c
}

func TestInitLoadsDomains(t *testing.T) {
	c := newTestController(t, &stubPresets{}, &recordingSink{})

	require.Len(t, c.ChipDomain(filter.FieldPrimaryCostCenter), 2)
	require.Len(t, c.ChipDomain(filter.FieldStatus), 3)
	require.Len(t, c.ChipDomain(filter.FieldBookingYear), 2)
	require.Len(t, c.ChipDomain(filter.FieldDeliveryPerson), 1)
	require.Len(t, c.ChipDomain(filter.FieldQueriesPerson), 1)

	active := c.ActiveFilters()
	for field, chips := range active.Chips {
		require.Empty(t, chips, "field %s should start unselected", field)
	}
	require.Equal(t, filter.DefaultColumnIDs(), c.Columns())
}

func TestInitToleratesFailedDomainLoad(t *testing.T) {
	sink := &recordingSink{}
	c := New(Config{
		Domains:  &staticDomains{costCenterErr: errors.New("pg down")},
		Presets:  &stubPresets{},
		Sink:     sink,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Debounce: 5 * time.Millisecond,
	})
	defer c.Close()

	require.NoError(t, c.Init(context.Background(), nil))
	require.Empty(t, c.ChipDomain(filter.FieldPrimaryCostCenter))
	// The other domains load regardless.
	require.Len(t, c.ChipDomain(filter.FieldSupplier), 2)
}

func TestInitRestoresLastActive(t *testing.T) {
	restored := filter.Preset{
		Label: filter.LastActiveLabel,
		AppliedFilters: []filter.PresetEntry{
			filter.ChipsEntry(filter.FieldStatus, "ORDERED"),
			filter.ColumnsEntry("order_number", "status"),
		},
	}
	sink := &recordingSink{}
	c := newTestController(t, &stubPresets{lastActive: &restored}, sink)

	require.Equal(t, []string{"ORDERED"}, c.ActiveFilters().SelectedChipIDs(filter.FieldStatus))
	require.Equal(t, []string{"order_number", "status"}, c.Columns())
	// Restoring is not a user reset.
	require.Zero(t, sink.resetCount())
}

func TestInitPrefersExplicitInitialPreset(t *testing.T) {
	lastActive := filter.Preset{
		Label:          filter.LastActiveLabel,
		AppliedFilters: []filter.PresetEntry{filter.ChipsEntry(filter.FieldStatus, "DELIVERED")},
	}
	initial := filter.Preset{
		Label:          "fromRoute",
		AppliedFilters: []filter.PresetEntry{filter.ChipsEntry(filter.FieldSupplier, "7")},
	}
	c := New(Config{
		Domains:  &staticDomains{},
		Presets:  &stubPresets{lastActive: &lastActive},
		Sink:     &recordingSink{},
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Debounce: 5 * time.Millisecond,
	})
	defer c.Close()

	require.NoError(t, c.Init(context.Background(), &initial))
	require.Equal(t, []string{"7"}, c.ActiveFilters().SelectedChipIDs(filter.FieldSupplier))
	require.Empty(t, c.ActiveFilters().SelectedChipIDs(filter.FieldStatus))
}

func TestToggleChip(t *testing.T) {
	c := newTestController(t, &stubPresets{}, &recordingSink{})

	require.NoError(t, c.ToggleChip(filter.FieldStatus, "ORDERED"))
	require.Equal(t, []string{"ORDERED"}, c.ActiveFilters().SelectedChipIDs(filter.FieldStatus))

	require.NoError(t, c.ToggleChip(filter.FieldStatus, "ORDERED"))
	require.Empty(t, c.ActiveFilters().SelectedChipIDs(filter.FieldStatus))

	require.ErrorIs(t, c.ToggleChip(filter.FieldStatus, "UNKNOWN"), shared.ErrValidation)
	require.ErrorIs(t, c.ToggleChip("no_such_field", "ORDERED"), shared.ErrValidation)
}

func TestSetRanges(t *testing.T) {
	c := newTestController(t, &stubPresets{}, &recordingSink{})

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, c.SetDateRange(filter.FieldCreatedDate, filter.DateRange{Start: &start}))
	require.NoError(t, c.SetRange(filter.FieldQuotePrice, filter.NumericRange{Start: 100, End: 900}))

	active := c.ActiveFilters()
	require.True(t, active.DateRanges[filter.FieldCreatedDate].Start.Equal(start))
	require.Equal(t, filter.NumericRange{Start: 100, End: 900}, active.Ranges[filter.FieldQuotePrice])

	require.ErrorIs(t, c.SetDateRange(filter.FieldQuotePrice, filter.DateRange{}), shared.ErrValidation)
	require.ErrorIs(t, c.SetRange(filter.FieldCreatedDate, filter.NumericRange{}), shared.ErrValidation)
}

func TestApplyPresetIsAdditiveForChips(t *testing.T) {
	c := newTestController(t, &stubPresets{}, &recordingSink{})

	require.NoError(t, c.ToggleChip(filter.FieldStatus, "DELIVERED"))
	c.ApplyPreset(filter.Preset{
		Label:          "open",
		AppliedFilters: []filter.PresetEntry{filter.ChipsEntry(filter.FieldStatus, "IN_PROGRESS", "ORDERED")},
	})

	require.ElementsMatch(t,
		[]string{"DELIVERED", "IN_PROGRESS", "ORDERED"},
		c.ActiveFilters().SelectedChipIDs(filter.FieldStatus))
	require.Equal(t, []string{"open"}, c.AppliedPresetLabels())
}

func TestDisablePresetRevertsOnlyItsEntries(t *testing.T) {
	c := newTestController(t, &stubPresets{}, &recordingSink{})

	preset := filter.Preset{
		Label: "open",
		AppliedFilters: []filter.PresetEntry{
			filter.ChipsEntry(filter.FieldStatus, "IN_PROGRESS", "ORDERED"),
			filter.RangeEntry(filter.FieldQuotePrice, filter.NumericRange{Start: 50, End: 500}),
		},
	}
	require.NoError(t, c.ToggleChip(filter.FieldStatus, "DELIVERED"))
	c.ApplyPreset(preset)
	c.DisablePreset(preset)

	// The manually selected chip survives, the preset's own entries revert.
	require.Equal(t, []string{"DELIVERED"}, c.ActiveFilters().SelectedChipIDs(filter.FieldStatus))
	spec, ok := filter.FieldByName(filter.FieldQuotePrice)
	require.True(t, ok)
	require.Equal(t, spec.DefaultRange(), c.ActiveFilters().Ranges[filter.FieldQuotePrice])
	require.Empty(t, c.AppliedPresetLabels())
}

func TestTogglePreset(t *testing.T) {
	c := newTestController(t, &stubPresets{}, &recordingSink{})

	preset := filter.Preset{
		Label:          "suppliers",
		AppliedFilters: []filter.PresetEntry{filter.ChipsEntry(filter.FieldSupplier, "7")},
	}
	c.TogglePreset(preset)
	require.True(t, c.IsPresetApplied(preset))

	c.TogglePreset(preset)
	require.False(t, c.IsPresetApplied(preset))
	require.Empty(t, c.ActiveFilters().SelectedChipIDs(filter.FieldSupplier))
}

func TestIsPresetApplied(t *testing.T) {
	c := newTestController(t, &stubPresets{}, &recordingSink{})

	preset := filter.Preset{
		Label: "open",
		AppliedFilters: []filter.PresetEntry{
			filter.ChipsEntry(filter.FieldStatus, "IN_PROGRESS", "ORDERED"),
			filter.RangeEntry(filter.FieldQuotePrice, filter.NumericRange{Start: 50, End: 500}),
		},
	}
	require.False(t, c.IsPresetApplied(preset))

	c.ApplyPreset(preset)
	require.True(t, c.IsPresetApplied(preset))

	// Extra selection beyond the preset keeps it applied: chips are a subset
	// check, not an exact match.
	require.NoError(t, c.ToggleChip(filter.FieldStatus, "DELIVERED"))
	require.True(t, c.IsPresetApplied(preset))

	// Losing one preset chip ends it.
	require.NoError(t, c.ToggleChip(filter.FieldStatus, "ORDERED"))
	require.False(t, c.IsPresetApplied(preset))

	// Ranges compare exactly.
	require.NoError(t, c.ToggleChip(filter.FieldStatus, "ORDERED"))
	require.True(t, c.IsPresetApplied(preset))
	require.NoError(t, c.SetRange(filter.FieldQuotePrice, filter.NumericRange{Start: 50, End: 501}))
	require.False(t, c.IsPresetApplied(preset))
}

func TestIsPresetAppliedVacuousForUnknownFields(t *testing.T) {
	c := newTestController(t, &stubPresets{}, &recordingSink{})

	preset := filter.Preset{
		Label: "legacy",
		AppliedFilters: []filter.PresetEntry{
			filter.ChipsEntry("discontinued_field", "1"),
			filter.ColumnsEntry("order_number"),
		},
	}
	require.True(t, c.IsPresetApplied(preset))
}

func TestReset(t *testing.T) {
	sink := &recordingSink{}
	c := newTestController(t, &stubPresets{}, sink)

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, c.ToggleChip(filter.FieldStatus, "ORDERED"))
	require.NoError(t, c.SetDateRange(filter.FieldCreatedDate, filter.DateRange{Start: &start}))
	require.NoError(t, c.SetRange(filter.FieldQuotePrice, filter.NumericRange{Start: 1, End: 2}))
	c.SetColumns([]string{"order_number"})
	c.ApplyPreset(filter.Preset{Label: "open"})

	c.Reset()

	active := c.ActiveFilters()
	for field, chips := range active.Chips {
		require.Empty(t, chips, "field %s", field)
	}
	require.True(t, active.DateRanges[filter.FieldCreatedDate].IsZero())
	spec, ok := filter.FieldByName(filter.FieldQuotePrice)
	require.True(t, ok)
	require.Equal(t, spec.DefaultRange(), active.Ranges[filter.FieldQuotePrice])
	require.Equal(t, filter.DefaultColumnIDs(), c.Columns())
	require.Empty(t, c.AppliedPresetLabels())
	require.Equal(t, 1, sink.resetCount())
}

func TestEmittedActiveFiltersReachSink(t *testing.T) {
	sink := &recordingSink{}
	c := newTestController(t, &stubPresets{}, sink)

	require.NoError(t, c.ToggleChip(filter.FieldBookingYear, "26"))

	sink.mu.Lock()
	defer sink.mu.Unlock()
	require.Equal(t, []filter.Chip{{ID: "26", Label: "2026", Selected: true}}, sink.active.Chips[filter.FieldBookingYear])
	require.Equal(t, filter.DefaultColumnIDs(), sink.columns)
}

func TestDebouncedPersistenceCoalescesEdits(t *testing.T) {
	presets := &stubPresets{}
	c := newTestController(t, presets, &recordingSink{})

	require.NoError(t, c.ToggleChip(filter.FieldStatus, "IN_PROGRESS"))
	require.NoError(t, c.ToggleChip(filter.FieldStatus, "ORDERED"))
	require.NoError(t, c.ToggleChip(filter.FieldSupplier, "7"))

	require.Eventually(t, func() bool {
		return len(presets.recorded()) > 0
	}, 2*time.Second, 10*time.Millisecond)

	updates := presets.recorded()
	require.Len(t, updates, 1)

	snapshot := updates[0]
	require.True(t, snapshot.IsLastActive())
	byField := make(map[string]filter.PresetEntry, len(snapshot.AppliedFilters))
	for _, entry := range snapshot.AppliedFilters {
		byField[entry.Field] = entry
	}
	require.Equal(t, []string{"IN_PROGRESS", "ORDERED"}, byField[filter.FieldStatus].ChipIDs)
	require.Equal(t, []string{"7"}, byField[filter.FieldSupplier].ChipIDs)
	// The column entry is always part of the snapshot.
	require.Equal(t, filter.DefaultColumnIDs(), byField[filter.ColumnsEntryID].ColumnIDs)
}

func TestCloseFlushesPendingSnapshot(t *testing.T) {
	presets := &stubPresets{}
	c := New(Config{
		Domains:  &staticDomains{},
		Presets:  presets,
		Sink:     &recordingSink{},
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Debounce: time.Hour,
	})
	require.NoError(t, c.Init(context.Background(), nil))

	require.NoError(t, c.ToggleChip(filter.FieldStatus, "ORDERED"))
	c.Close()

	updates := presets.recorded()
	require.NotEmpty(t, updates)
	last := updates[len(updates)-1]
	byField := make(map[string][]string)
	for _, entry := range last.AppliedFilters {
		byField[entry.Field] = entry.ChipIDs
	}
	require.Equal(t, []string{"ORDERED"}, byField[filter.FieldStatus])
}

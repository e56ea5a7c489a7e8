// Package filtermenu implements the interactive filter state machine behind
// the orders table: chip domains, range signals, preset toggling and the
// auto-persisted lastActiveFilters preset.
package filtermenu

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/besy-hub/besy-orders/internal/filter"
	"github.com/besy-hub/besy-orders/internal/shared"
)

// DomainLoader supplies the chip domains. Satisfied by *refdata.Service.
type DomainLoader interface {
	CostCenterChips(ctx context.Context) ([]filter.Chip, error)
	UserChips(ctx context.Context) ([]filter.Chip, error)
	PersonChips(ctx context.Context) ([]filter.Chip, error)
	SupplierChips(ctx context.Context) ([]filter.Chip, error)
	StatusChips() []filter.Chip
	BookingYearChips() []filter.Chip
}

// PresetSource supplies and persists presets. Satisfied by
// *preferences.Service.
type PresetSource interface {
	Presets(ctx context.Context) ([]filter.Preset, error)
	LastActive(ctx context.Context) (filter.Preset, bool)
	UpdatePresetByLabel(ctx context.Context, oldLabel string, updated filter.Preset) ([]filter.Preset, error)
}

// Sink receives the controller's outward emissions: the recomputed active
// filters on every change, column selection changes, and the distinct
// filters-were-reset notification.
type Sink interface {
	ActiveFiltersChanged(filter.ActiveFilters)
	ColumnsChanged(columns []string)
	FiltersReset()
}

// Config collects controller dependencies.
type Config struct {
	Domains  DomainLoader
	Presets  PresetSource
	Sink     Sink
	Logger   *slog.Logger
	Debounce time.Duration
}

// Controller owns the live, editable filter selection. All state mutations
// are synchronous; persistence of the lastActiveFilters preset is debounced
// and fire-and-forget so edits are never blocked by I/O.
type Controller struct {
	domains DomainLoader
	presets PresetSource
	sink    Sink
	logger  *slog.Logger
	saver   *saver

	// saveCtx keeps the session identity alive for background writes after
	// the initiating request context is gone.
	saveCtx context.Context

	mu             sync.Mutex
	chips          map[string][]filter.Chip
	dateRanges     map[string]filter.DateRange
	ranges         map[string]filter.NumericRange
	columns        []string
	appliedPresets map[string]bool
}

// New constructs a controller with empty domains and default state. Call
// Init before use.
func New(cfg Config) *Controller {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	c := &Controller{
		domains:        cfg.Domains,
		presets:        cfg.Presets,
		sink:           cfg.Sink,
		logger:         logger,
		chips:          make(map[string][]filter.Chip),
		dateRanges:     make(map[string]filter.DateRange),
		ranges:         make(map[string]filter.NumericRange),
		columns:        filter.DefaultColumnIDs(),
		appliedPresets: make(map[string]bool),
		saveCtx:        context.Background(),
	}
	for _, field := range filter.Fields() {
		switch field.Kind {
		case filter.KindChips:
			c.chips[field.Name] = nil
		case filter.KindDateRange:
			c.dateRanges[field.Name] = filter.DateRange{}
		case filter.KindRange:
			c.ranges[field.Name] = field.DefaultRange()
		}
	}
	c.saver = newSaver(cfg.Debounce, c.persistLastActive)
	return c
}

// Init loads all chip domains concurrently and restores the startup filter
// state: an explicitly supplied initial preset wins, else the persisted
// lastActiveFilters preset, else everything stays at its empty default.
// A failed domain load leaves that domain empty and never blocks the others.
func (c *Controller) Init(ctx context.Context, initial *filter.Preset) error {
	if ctx == nil {
		ctx = context.Background()
	}
	c.saveCtx = context.WithoutCancel(ctx)

	var g errgroup.Group
	load := func(field string, fn func(context.Context) ([]filter.Chip, error)) {
		g.Go(func() error {
			chips, err := fn(ctx)
			if err != nil {
				c.logger.Warn("load chip domain", slog.String("field", field), slog.Any("error", err))
				return nil
			}
			c.mu.Lock()
			c.chips[field] = chips
			c.mu.Unlock()
			return nil
		})
	}
	load(filter.FieldPrimaryCostCenter, c.domains.CostCenterChips)
	load(filter.FieldOwner, c.domains.UserChips)
	load(filter.FieldSupplier, c.domains.SupplierChips)
	for _, field := range []string{filter.FieldDeliveryPerson, filter.FieldInvoicePerson, filter.FieldQueriesPerson} {
		load(field, c.domains.PersonChips)
	}
	g.Go(func() error {
		statusChips := c.domains.StatusChips()
		yearChips := c.domains.BookingYearChips()
		c.mu.Lock()
		c.chips[filter.FieldStatus] = statusChips
		c.chips[filter.FieldBookingYear] = yearChips
		c.mu.Unlock()
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	switch {
	case initial != nil:
		c.ApplyPreset(*initial)
	default:
		if restored, ok := c.presets.LastActive(ctx); ok {
			// Clear silently before restoring; this is not a user reset.
			c.mu.Lock()
			c.resetLocked()
			c.mu.Unlock()
			c.ApplyPreset(restored)
		} else {
			c.emit(false)
		}
	}
	return nil
}

// ToggleChip flips the selection of one chip, identified by its key.
func (c *Controller) ToggleChip(field, chipKey string) error {
	c.mu.Lock()
	domain, ok := c.chips[field]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("%w: unknown chip field %q", shared.ErrValidation, field)
	}
	found := false
	for i := range domain {
		if domain[i].Key() == chipKey {
			domain[i].Selected = !domain[i].Selected
			found = true
			break
		}
	}
	c.mu.Unlock()
	if !found {
		return fmt.Errorf("%w: unknown chip %q for field %q", shared.ErrValidation, chipKey, field)
	}
	c.emit(false)
	return nil
}

// SetDateRange overwrites a date field's range wholesale.
func (c *Controller) SetDateRange(field string, dr filter.DateRange) error {
	c.mu.Lock()
	if _, ok := c.dateRanges[field]; !ok {
		c.mu.Unlock()
		return fmt.Errorf("%w: unknown date field %q", shared.ErrValidation, field)
	}
	c.dateRanges[field] = dr
	c.mu.Unlock()
	c.emit(false)
	return nil
}

// SetRange overwrites a numeric field's range wholesale.
func (c *Controller) SetRange(field string, nr filter.NumericRange) error {
	c.mu.Lock()
	if _, ok := c.ranges[field]; !ok {
		c.mu.Unlock()
		return fmt.Errorf("%w: unknown range field %q", shared.ErrValidation, field)
	}
	c.ranges[field] = nr
	c.mu.Unlock()
	c.emit(false)
	return nil
}

// SetColumns overwrites the visible column selection.
func (c *Controller) SetColumns(columnIDs []string) {
	c.mu.Lock()
	c.columns = append([]string(nil), columnIDs...)
	c.mu.Unlock()
	c.emit(false)
}

// ApplyPreset applies every entry of the preset onto the current state.
// Chip entries are additive over the current selection; range, date-range
// and column entries overwrite wholesale. Overlapping presets are therefore
// order dependent, which is accepted behaviour.
func (c *Controller) ApplyPreset(preset filter.Preset) {
	c.mu.Lock()
	for _, entry := range preset.AppliedFilters {
		switch entry.Kind {
		case filter.EntryChips:
			c.setChipsSelectedLocked(entry.Field, entry.ChipIDs, true)
		case filter.EntryDateRange:
			if _, ok := c.dateRanges[entry.Field]; ok {
				c.dateRanges[entry.Field] = entry.DateRange
			}
		case filter.EntryRange:
			if _, ok := c.ranges[entry.Field]; ok {
				c.ranges[entry.Field] = entry.Range
			}
		case filter.EntryColumns:
			c.columns = append([]string(nil), entry.ColumnIDs...)
		}
	}
	c.appliedPresets[preset.Label] = true
	c.mu.Unlock()
	c.emit(false)
}

// DisablePreset reverts the preset's entries: its chips are deselected, its
// date ranges cleared and its numeric ranges reset to the field defaults.
// The state from before the preset was applied is not tracked or restored.
func (c *Controller) DisablePreset(preset filter.Preset) {
	c.mu.Lock()
	for _, entry := range preset.AppliedFilters {
		switch entry.Kind {
		case filter.EntryChips:
			c.setChipsSelectedLocked(entry.Field, entry.ChipIDs, false)
		case filter.EntryDateRange:
			if _, ok := c.dateRanges[entry.Field]; ok {
				c.dateRanges[entry.Field] = filter.DateRange{}
			}
		case filter.EntryRange:
			if field, ok := filter.FieldByName(entry.Field); ok && field.Kind == filter.KindRange {
				c.ranges[entry.Field] = field.DefaultRange()
			}
		case filter.EntryColumns:
			c.columns = filter.DefaultColumnIDs()
		}
	}
	delete(c.appliedPresets, preset.Label)
	c.mu.Unlock()
	c.emit(false)
}

// TogglePreset applies the preset when it is not currently applied and
// disables it otherwise.
func (c *Controller) TogglePreset(preset filter.Preset) {
	if c.IsPresetApplied(preset) {
		c.DisablePreset(preset)
		return
	}
	c.ApplyPreset(preset)
}

// IsPresetApplied reports whether the live active filters cover the preset:
// chip entries must be a subset of the current selection, range and
// date-range entries must match exactly. Entries referencing fields absent
// from the active filters are vacuously satisfied.
func (c *Controller) IsPresetApplied(preset filter.Preset) bool {
	active := c.ActiveFilters()
	for _, entry := range preset.AppliedFilters {
		switch entry.Kind {
		case filter.EntryChips:
			chips, ok := active.Chips[entry.Field]
			if !ok {
				continue
			}
			selected := make(map[string]bool, len(chips))
			for _, chip := range chips {
				selected[chip.Key()] = true
			}
			for _, id := range entry.ChipIDs {
				if !selected[id] {
					return false
				}
			}
		case filter.EntryDateRange:
			dr, ok := active.DateRanges[entry.Field]
			if !ok {
				continue
			}
			if !dr.Equal(entry.DateRange) {
				return false
			}
		case filter.EntryRange:
			nr, ok := active.Ranges[entry.Field]
			if !ok {
				continue
			}
			if nr != entry.Range {
				return false
			}
		case filter.EntryColumns:
			// Column selection is not part of the active filters.
		}
	}
	return true
}

// Reset returns every signal to its default: all chips deselected, date
// ranges cleared, numeric ranges back to their configured bounds, default
// columns restored and all preset toggles off. The reset notification is
// emitted in addition to the regular filter-change emission.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.resetLocked()
	c.mu.Unlock()
	c.emit(true)
}

func (c *Controller) resetLocked() {
	for field, domain := range c.chips {
		for i := range domain {
			domain[i].Selected = false
		}
		c.chips[field] = domain
	}
	for field := range c.dateRanges {
		c.dateRanges[field] = filter.DateRange{}
	}
	for field := range c.ranges {
		if spec, ok := filter.FieldByName(field); ok {
			c.ranges[field] = spec.DefaultRange()
		}
	}
	c.columns = filter.DefaultColumnIDs()
	c.appliedPresets = make(map[string]bool)
}

// ActiveFilters recomputes the derived filter value from the live state.
func (c *Controller) ActiveFilters() filter.ActiveFilters {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeFiltersLocked()
}

// Columns returns the current visible column selection.
func (c *Controller) Columns() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.columns...)
}

// ChipDomain returns a copy of one field's chip domain.
func (c *Controller) ChipDomain(field string) []filter.Chip {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]filter.Chip(nil), c.chips[field]...)
}

// AppliedPresetLabels lists the preset toggles currently on.
func (c *Controller) AppliedPresetLabels() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	labels := make([]string, 0, len(c.appliedPresets))
	for label, on := range c.appliedPresets {
		if on {
			labels = append(labels, label)
		}
	}
	return labels
}

// Close flushes a pending lastActiveFilters write and stops the saver.
func (c *Controller) Close() {
	c.saver.close()
}

func (c *Controller) setChipsSelectedLocked(field string, chipIDs []string, selected bool) {
	domain, ok := c.chips[field]
	if !ok {
		return
	}
	wanted := make(map[string]bool, len(chipIDs))
	for _, id := range chipIDs {
		wanted[id] = true
	}
	for i := range domain {
		if wanted[domain[i].Key()] {
			domain[i].Selected = selected
		}
	}
	c.chips[field] = domain
}

func (c *Controller) activeFiltersLocked() filter.ActiveFilters {
	active := filter.ActiveFilters{
		Chips:      make(map[string][]filter.Chip, len(c.chips)),
		DateRanges: make(map[string]filter.DateRange, len(c.dateRanges)),
		Ranges:     make(map[string]filter.NumericRange, len(c.ranges)),
	}
	for field, domain := range c.chips {
		selected := make([]filter.Chip, 0)
		for _, chip := range domain {
			if chip.Selected {
				selected = append(selected, chip)
			}
		}
		active.Chips[field] = selected
	}
	for field, dr := range c.dateRanges {
		active.DateRanges[field] = dr
	}
	for field, nr := range c.ranges {
		active.Ranges[field] = nr
	}
	return active
}

// snapshotLocked captures the live state as the lastActiveFilters preset.
func (c *Controller) snapshotLocked() filter.Preset {
	preset := filter.Preset{Label: filter.LastActiveLabel}
	for _, field := range filter.Fields() {
		switch field.Kind {
		case filter.KindChips:
			var ids []string
			for _, chip := range c.chips[field.Name] {
				if chip.Selected {
					ids = append(ids, chip.Key())
				}
			}
			if len(ids) > 0 {
				preset.AppliedFilters = append(preset.AppliedFilters, filter.ChipsEntry(field.Name, ids...))
			}
		case filter.KindDateRange:
			if dr := c.dateRanges[field.Name]; !dr.IsZero() {
				preset.AppliedFilters = append(preset.AppliedFilters, filter.DateRangeEntry(field.Name, dr))
			}
		case filter.KindRange:
			if nr := c.ranges[field.Name]; nr != field.DefaultRange() {
				preset.AppliedFilters = append(preset.AppliedFilters, filter.RangeEntry(field.Name, nr))
			}
		}
	}
	preset.AppliedFilters = append(preset.AppliedFilters, filter.ColumnsEntry(c.columns...))
	return preset
}

// emit recomputes the derived state, notifies the sink and schedules the
// debounced lastActiveFilters write. Sink calls happen outside the lock.
func (c *Controller) emit(reset bool) {
	c.mu.Lock()
	active := c.activeFiltersLocked()
	columns := append([]string(nil), c.columns...)
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	if c.sink != nil {
		if reset {
			c.sink.FiltersReset()
		}
		c.sink.ActiveFiltersChanged(active)
		c.sink.ColumnsChanged(columns)
	}
	c.saver.trigger(snapshot)
}

func (c *Controller) persistLastActive(preset filter.Preset) {
	if _, err := c.presets.UpdatePresetByLabel(c.saveCtx, filter.LastActiveLabel, preset); err != nil {
		c.logger.Warn("persist last active filters", slog.Any("error", err))
	}
}

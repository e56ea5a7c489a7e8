// Package filter holds the value model for order filtering: chips, ranges,
// presets and the derived active-filter state.
package filter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

const (
	// LastActiveLabel marks the auto-managed preset mirroring live UI state.
	LastActiveLabel = "lastActiveFilters"
	// CurrentUserToken is resolved to the authenticated user's id at read time.
	CurrentUserToken = "CURRENT_USER"
	// ColumnsEntryID identifies the column-selection entry inside a preset.
	ColumnsEntryID = "selectedColumnIds"
)

// Chip is one selectable filter value within a field's domain.
type Chip struct {
	ID       string `json:"id,omitempty"`
	Label    string `json:"label"`
	Tooltip  string `json:"tooltip,omitempty"`
	Selected bool   `json:"isSelected"`
	Color    string `json:"color,omitempty"`
}

// Key returns the chip identity: the id when present, else the label.
func (c Chip) Key() string {
	if c.ID != "" {
		return c.ID
	}
	return c.Label
}

// DateRange bounds a date field. A nil bound means unbounded on that side.
// start <= end is the upstream form's responsibility, not enforced here.
type DateRange struct {
	Start *time.Time `json:"start"`
	End   *time.Time `json:"end"`
}

// IsZero reports whether both bounds are unset.
func (d DateRange) IsZero() bool {
	return d.Start == nil && d.End == nil
}

// Equal compares bounds as instants rather than pointer identity.
func (d DateRange) Equal(other DateRange) bool {
	return timePtrEqual(d.Start, other.Start) && timePtrEqual(d.End, other.End)
}

func timePtrEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

// NumericRange bounds a numeric field. Unlike DateRange both bounds are
// always concrete, defaulted from the field configuration.
type NumericRange struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// EntryKind discriminates preset entry variants.
type EntryKind string

const (
	EntryChips     EntryKind = "chips"
	EntryDateRange EntryKind = "dateRange"
	EntryRange     EntryKind = "range"
	EntryColumns   EntryKind = "columns"
)

// PresetEntry is one per-field assignment inside a preset. It is a tagged
// union: exactly one of ChipIDs, DateRange, Range or ColumnIDs is meaningful
// depending on Kind. On the wire the variant is carried by key presence
// (chipIds / dateRange / range / selectedColumnIds) to stay compatible with
// previously persisted blobs.
type PresetEntry struct {
	Field     string
	Kind      EntryKind
	ChipIDs   []string
	DateRange DateRange
	Range     NumericRange
	ColumnIDs []string
}

// ChipsEntry builds a chip assignment entry.
func ChipsEntry(field string, chipIDs ...string) PresetEntry {
	return PresetEntry{Field: field, Kind: EntryChips, ChipIDs: chipIDs}
}

// DateRangeEntry builds a date range assignment entry.
func DateRangeEntry(field string, dr DateRange) PresetEntry {
	return PresetEntry{Field: field, Kind: EntryDateRange, DateRange: dr}
}

// RangeEntry builds a numeric range assignment entry.
func RangeEntry(field string, nr NumericRange) PresetEntry {
	return PresetEntry{Field: field, Kind: EntryRange, Range: nr}
}

// ColumnsEntry builds the column-selection entry.
func ColumnsEntry(columnIDs ...string) PresetEntry {
	return PresetEntry{Field: ColumnsEntryID, Kind: EntryColumns, ColumnIDs: columnIDs}
}

type presetEntryWire struct {
	ID        string        `json:"id"`
	ChipIDs   []chipID      `json:"chipIds,omitempty"`
	DateRange *DateRange    `json:"dateRange,omitempty"`
	Range     *NumericRange `json:"range,omitempty"`
	ColumnIDs []string      `json:"selectedColumnIds,omitempty"`
}

// chipID tolerates numeric ids in persisted blobs and normalises them to
// their decimal string form.
type chipID string

func (c *chipID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*c = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = chipID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("filter: chip id must be string or number: %w", err)
	}
	*c = chipID(n.String())
	return nil
}

// MarshalJSON writes the wire shape keyed by entry kind.
func (e PresetEntry) MarshalJSON() ([]byte, error) {
	wire := presetEntryWire{ID: e.Field}
	switch e.Kind {
	case EntryChips:
		wire.ChipIDs = make([]chipID, 0, len(e.ChipIDs))
		for _, id := range e.ChipIDs {
			wire.ChipIDs = append(wire.ChipIDs, chipID(id))
		}
	case EntryDateRange:
		dr := e.DateRange
		wire.DateRange = &dr
	case EntryRange:
		nr := e.Range
		wire.Range = &nr
	case EntryColumns:
		wire.ID = ColumnsEntryID
		ids := e.ColumnIDs
		if ids == nil {
			ids = []string{}
		}
		wire.ColumnIDs = ids
	default:
		return nil, fmt.Errorf("filter: preset entry for %q has no kind", e.Field)
	}
	return json.Marshal(wire)
}

// UnmarshalJSON discriminates the variant by key presence.
func (e *PresetEntry) UnmarshalJSON(data []byte) error {
	var wire presetEntryWire
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&wire); err != nil {
		return err
	}
	*e = PresetEntry{Field: wire.ID}
	switch {
	case wire.ColumnIDs != nil || wire.ID == ColumnsEntryID:
		e.Kind = EntryColumns
		e.ColumnIDs = wire.ColumnIDs
		if e.ColumnIDs == nil {
			e.ColumnIDs = []string{}
		}
	case wire.DateRange != nil:
		e.Kind = EntryDateRange
		e.DateRange = *wire.DateRange
	case wire.Range != nil:
		e.Kind = EntryRange
		e.Range = *wire.Range
	case wire.ChipIDs != nil:
		e.Kind = EntryChips
		e.ChipIDs = make([]string, 0, len(wire.ChipIDs))
		for _, id := range wire.ChipIDs {
			e.ChipIDs = append(e.ChipIDs, string(id))
		}
	default:
		// An empty chip assignment serialises without the chipIds key.
		e.Kind = EntryChips
		e.ChipIDs = []string{}
	}
	return nil
}

// Preset is a named bundle of filter-field assignments. ID is the
// adapter-assigned preference id for persisted custom presets and zero for
// defaults and not-yet-saved presets; Label is the identity users see.
type Preset struct {
	ID             int64         `json:"-"`
	Label          string        `json:"label"`
	AppliedFilters []PresetEntry `json:"appliedFilters"`
}

// IsLastActive reports whether the preset is the auto-managed one.
func (p Preset) IsLastActive() bool {
	return p.Label == LastActiveLabel
}

// Clone deep-copies the preset so callers can mutate entries safely.
func (p Preset) Clone() Preset {
	out := Preset{ID: p.ID, Label: p.Label}
	out.AppliedFilters = make([]PresetEntry, len(p.AppliedFilters))
	for i, entry := range p.AppliedFilters {
		out.AppliedFilters[i] = entry.clone()
	}
	return out
}

func (e PresetEntry) clone() PresetEntry {
	out := e
	if e.ChipIDs != nil {
		out.ChipIDs = append([]string(nil), e.ChipIDs...)
	}
	if e.ColumnIDs != nil {
		out.ColumnIDs = append([]string(nil), e.ColumnIDs...)
	}
	if e.DateRange.Start != nil {
		start := *e.DateRange.Start
		out.DateRange.Start = &start
	}
	if e.DateRange.End != nil {
		end := *e.DateRange.End
		out.DateRange.End = &end
	}
	return out
}

// ActiveFilters is the derived summary of the live filter state: per chip
// field the selected subset of its domain, plus the set date ranges and
// numeric ranges. It is recomputed, never stored.
type ActiveFilters struct {
	Chips      map[string][]Chip       `json:"chips"`
	DateRanges map[string]DateRange    `json:"dateRanges"`
	Ranges     map[string]NumericRange `json:"ranges"`
}

// SelectedChipIDs returns the identities of the selected chips for a field.
func (a ActiveFilters) SelectedChipIDs(field string) []string {
	chips := a.Chips[field]
	ids := make([]string, 0, len(chips))
	for _, chip := range chips {
		ids = append(ids, chip.Key())
	}
	return ids
}

// FormatChipID renders a numeric id the way chipID normalisation does.
func FormatChipID(id int64) string {
	return strconv.FormatInt(id, 10)
}

package preferences

import (
	"fmt"
	"time"

	"github.com/besy-hub/besy-orders/internal/filter"
	"github.com/besy-hub/besy-orders/internal/orders"
)

// defaultPresets returns the built-in preset templates. They are never
// persisted; the CURRENT_USER placeholder is substituted on every read so a
// product change here needs no migration of stored user data.
func defaultPresets(now time.Time) []filter.Preset {
	return []filter.Preset{
		{
			Label: "myOrders",
			AppliedFilters: []filter.PresetEntry{
				filter.ChipsEntry(filter.FieldOwner, filter.CurrentUserToken),
			},
		},
		{
			Label: "myOpenOrders",
			AppliedFilters: []filter.PresetEntry{
				filter.ChipsEntry(filter.FieldOwner, filter.CurrentUserToken),
				filter.ChipsEntry(filter.FieldStatus, string(orders.StatusInProgress), string(orders.StatusOrdered)),
			},
		},
		{
			Label: "currentBookingYear",
			AppliedFilters: []filter.PresetEntry{
				filter.ChipsEntry(filter.FieldBookingYear, fmt.Sprintf("%02d", now.Year()%100)),
			},
		},
	}
}

// resolveDefaults substitutes the CURRENT_USER placeholder with userID. With
// an empty userID every preset referencing the placeholder is removed
// entirely rather than left broken.
func resolveDefaults(templates []filter.Preset, userID string) []filter.Preset {
	resolved := make([]filter.Preset, 0, len(templates))
	for _, template := range templates {
		preset := template.Clone()
		usesToken := false
		for i, entry := range preset.AppliedFilters {
			if entry.Kind != filter.EntryChips {
				continue
			}
			for j, chipID := range entry.ChipIDs {
				if chipID == filter.CurrentUserToken {
					usesToken = true
					preset.AppliedFilters[i].ChipIDs[j] = userID
				}
			}
		}
		if usesToken && userID == "" {
			continue
		}
		resolved = append(resolved, preset)
	}
	return resolved
}

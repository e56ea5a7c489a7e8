// Package preferences persists per-user preference blobs and builds the
// effective order filter preset list on top of them.
package preferences

import "encoding/json"

// TypeOrderFilterPresets is the preference_type discriminator under which
// order filter presets are stored.
const TypeOrderFilterPresets = "orders_filter_presets"

// Preference is one stored key/value preference blob.
type Preference struct {
	ID             int64           `json:"id"`
	UserID         string          `json:"-"`
	PreferenceType string          `json:"preference_type"`
	Preferences    json.RawMessage `json:"preferences"`
}

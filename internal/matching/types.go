package matching

import "printfleet-backend/internal/ams"

// FilamentRequirement is one slot's need, extracted from a sliced file by an
// upstream parsing service. Slot IDs are 1-based and need not be contiguous.
type FilamentRequirement struct {
	SlotID    int     `json:"slotId"`
	Type      string  `json:"type"`
	Color     string  `json:"color"`
	UsedGrams float64 `json:"usedGrams"`
	// TrayInfoIdx is the opaque spool-preset identifier baked into the
	// sliced file. When present it is a high-confidence match key
	// independent of the type/color text.
	TrayInfoIdx *string `json:"trayInfoIdx,omitempty"`
	// NozzleID is only present for dual-extruder jobs.
	NozzleID *int `json:"nozzleId,omitempty"`
}

// MatchStatus classifies how well a loaded spool satisfies a requirement.
type MatchStatus string

const (
	StatusMatch    MatchStatus = "match"
	StatusTypeOnly MatchStatus = "type_only"
	StatusMismatch MatchStatus = "mismatch"
	StatusEmpty    MatchStatus = "empty"
)

// FilamentComparison is the per-requirement diagnostic surfaced to the
// presentation layer.
type FilamentComparison struct {
	FilamentRequirement
	Loaded      *ams.LoadedFilament `json:"loaded,omitempty"`
	HasFilament bool                `json:"hasFilament"`
	TypeMatch   bool                `json:"typeMatch"`
	ColorMatch  bool                `json:"colorMatch"`
	Status      MatchStatus         `json:"status"`
	IsManual    bool                `json:"isManual"`
}

// Unassigned is the mapping sentinel for a slot with no spool.
const Unassigned = -1

// Resolution is the outcome of one per-printer assignment pass. Mapping has
// length max(slot_id); position i corresponds to slot_id i+1 and holds a
// global tray ID or Unassigned.
type Resolution struct {
	Mapping     []int                `json:"mapping"`
	Comparisons []FilamentComparison `json:"comparisons"`
}

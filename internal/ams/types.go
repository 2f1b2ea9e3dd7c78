package ams

// PrinterStatus is one printer's raw material-system snapshot as reported by
// the telemetry endpoint. Any part of it may be absent when the printer is
// unreachable or has no AMS attached.
type PrinterStatus struct {
	PrinterID string    `json:"printerId"`
	State     string    `json:"state"`
	Units     []Unit    `json:"ams"`
	External  []ExtTray `json:"vtTray"`
	// ExtruderMap is only reported by dual-nozzle printers. Absence means
	// nozzle-aware candidate filtering is skipped entirely.
	ExtruderMap []ExtruderBinding `json:"amsExtruderMap,omitempty"`
}

// Unit is one AMS unit and its tray slots. Single-slot units are
// high-temperature (HT) units.
type Unit struct {
	ID    int    `json:"id"`
	Trays []Tray `json:"tray"`
}

// Tray is one slot within an AMS unit. An empty Type means no spool loaded.
type Tray struct {
	ID          int     `json:"id"`
	Type        string  `json:"trayType"`
	Color       string  `json:"trayColor"`
	TrayInfoIdx *string `json:"trayInfoIdx,omitempty"`
	Remain      *int    `json:"remain,omitempty"`
}

// ExtTray is an external (non-AMS) spool holder.
type ExtTray struct {
	Type        string  `json:"trayType"`
	Color       string  `json:"trayColor"`
	TrayInfoIdx *string `json:"trayInfoIdx,omitempty"`
	ExtruderID  *int    `json:"extruderId,omitempty"`
}

// ExtruderBinding maps one AMS unit to the physical nozzle it feeds.
type ExtruderBinding struct {
	UnitID     int `json:"amsId"`
	ExtruderID int `json:"extruderId"`
}

package ams

import (
	"fmt"

	"printfleet-backend/internal/parse"
)

// ExternalUnitID marks a spool sitting in an external holder rather than an
// AMS unit.
const ExternalUnitID = -1

// TrayIDCodec is the supplied bijection between physical slot coordinates
// and the canonical cross-unit global tray ID. The numbering scheme is owned
// by the consumer of the extracted inventory, not by this package.
type TrayIDCodec interface {
	// AMSTrayID maps (unit, tray) to a global tray ID.
	AMSTrayID(unit, tray int) int
	// ExternalTrayID maps an external holder index to a global tray ID in a
	// namespace disjoint from AMS tray IDs.
	ExternalTrayID(index int) int
}

// LoadedFilament is one physically present spool, normalized from a
// telemetry snapshot. It is recomputed from each snapshot, never mutated.
type LoadedFilament struct {
	Type         string  `json:"type"`
	Color        string  `json:"color"`
	ColorName    string  `json:"colorName"`
	UnitID       int     `json:"amsId"`
	TrayID       int     `json:"trayId"`
	IsHt         bool    `json:"isHt"`
	IsExternal   bool    `json:"isExternal"`
	Label        string  `json:"label"`
	GlobalTrayID int     `json:"globalTrayId"`
	TrayInfoIdx  *string `json:"trayInfoIdx,omitempty"`
	ExtruderID   *int    `json:"extruderId,omitempty"`
}

// Extract normalizes a printer's raw material-system snapshot into the flat
// list of currently loaded spools. A nil or partial snapshot yields an empty
// list, never an error: unreachable printers are the expected steady state.
func Extract(status *PrinterStatus, codec TrayIDCodec) []LoadedFilament {
	if status == nil || codec == nil {
		return nil
	}

	extruderFor := make(map[int]int, len(status.ExtruderMap))
	for _, b := range status.ExtruderMap {
		extruderFor[b.UnitID] = b.ExtruderID
	}

	var loaded []LoadedFilament
	for _, unit := range status.Units {
		isHt := len(unit.Trays) == 1
		for _, tray := range unit.Trays {
			if tray.Type == "" {
				continue
			}

			var label string
			if isHt {
				label = fmt.Sprintf("HT-%d", unit.ID+1)
			} else {
				label = fmt.Sprintf("AMS-%d %d", unit.ID+1, tray.ID+1)
			}

			f := LoadedFilament{
				Type:         tray.Type,
				Color:        tray.Color,
				ColorName:    parse.ColorName(tray.Color),
				UnitID:       unit.ID,
				TrayID:       tray.ID,
				IsHt:         isHt,
				Label:        label,
				GlobalTrayID: codec.AMSTrayID(unit.ID, tray.ID),
				TrayInfoIdx:  tray.TrayInfoIdx,
			}
			if ext, ok := extruderFor[unit.ID]; ok {
				e := ext
				f.ExtruderID = &e
			}
			loaded = append(loaded, f)
		}
	}

	twoHolders := len(status.External) == 2
	for i, ext := range status.External {
		if ext.Type == "" {
			continue
		}

		label := "External"
		if twoHolders {
			// Fixed labels when both holders of a dual-nozzle printer exist.
			if i == 0 {
				label = "Ext-L"
			} else {
				label = "Ext-R"
			}
		}

		loaded = append(loaded, LoadedFilament{
			Type:         ext.Type,
			Color:        ext.Color,
			ColorName:    parse.ColorName(ext.Color),
			UnitID:       ExternalUnitID,
			TrayID:       i,
			IsExternal:   true,
			Label:        label,
			GlobalTrayID: codec.ExternalTrayID(i),
			TrayInfoIdx:  ext.TrayInfoIdx,
			ExtruderID:   ext.ExtruderID,
		})
	}

	return loaded
}

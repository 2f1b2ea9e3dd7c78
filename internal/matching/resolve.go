package matching

import "printfleet-backend/internal/ams"

// Resolve computes one printer's requirement-to-spool assignment.
//
// Requirements are processed in their given order: the assignment is greedy
// and order-dependent on purpose, because downstream behavior depends on
// first-declared-slot-wins semantics. A later requirement never steals back
// a spool an earlier one consumed.
//
// manualOverrides maps slot_id to global tray ID. An override whose spool is
// currently loaded and still unused wins unconditionally; a stale override
// falls back to automatic matching, since spool swaps are a normal physical
// event, not an error.
//
// Returns nil when there is nothing to assign against: no requirements with
// a valid slot_id, or no loaded spools at all. That is distinct from a
// computed mapping with every slot unassigned.
func (m *Matcher) Resolve(requirements []FilamentRequirement, loaded []ams.LoadedFilament, manualOverrides map[int]int) *Resolution {
	var reqs []FilamentRequirement
	maxSlot := 0
	for _, r := range requirements {
		if r.SlotID < 1 {
			continue
		}
		reqs = append(reqs, r)
		if r.SlotID > maxSlot {
			maxSlot = r.SlotID
		}
	}
	if len(reqs) == 0 || len(loaded) == 0 {
		return nil
	}

	// Nozzle-aware filtering only applies when the printer reported a
	// unit-to-nozzle mapping for at least one spool.
	nozzleAware := false
	for _, f := range loaded {
		if f.ExtruderID != nil {
			nozzleAware = true
			break
		}
	}

	mapping := make([]int, maxSlot)
	for i := range mapping {
		mapping[i] = Unassigned
	}
	used := make(map[int]bool, len(loaded))
	comparisons := make([]FilamentComparison, 0, len(reqs))

	for _, req := range reqs {
		if gid, ok := manualOverrides[req.SlotID]; ok && !used[gid] {
			if spool := findByGlobalTrayID(loaded, gid); spool != nil {
				used[gid] = true
				mapping[req.SlotID-1] = gid
				comparisons = append(comparisons, m.compareManual(req, *spool))
				continue
			}
		}

		candidates := make([]ams.LoadedFilament, 0, len(loaded))
		for _, f := range loaded {
			if !used[f.GlobalTrayID] {
				candidates = append(candidates, f)
			}
		}

		spool, status := m.Match(req, candidates, nozzleAware)
		cmp := FilamentComparison{
			FilamentRequirement: req,
			Status:              status,
		}
		if spool != nil {
			used[spool.GlobalTrayID] = true
			mapping[req.SlotID-1] = spool.GlobalTrayID
			cmp.Loaded = spool
			cmp.HasFilament = true
			cmp.TypeMatch, cmp.ColorMatch = m.Compare(req, *spool)
		}
		comparisons = append(comparisons, cmp)
	}

	return &Resolution{Mapping: mapping, Comparisons: comparisons}
}

// compareManual classifies an override hit by direct type/color comparison.
func (m *Matcher) compareManual(req FilamentRequirement, spool ams.LoadedFilament) FilamentComparison {
	typeMatch, colorMatch := m.Compare(req, spool)

	status := StatusMismatch
	switch {
	case typeMatch && colorMatch:
		status = StatusMatch
	case typeMatch:
		status = StatusTypeOnly
	}

	s := spool
	return FilamentComparison{
		FilamentRequirement: req,
		Loaded:              &s,
		HasFilament:         true,
		TypeMatch:           typeMatch,
		ColorMatch:          colorMatch,
		Status:              status,
		IsManual:            true,
	}
}

func findByGlobalTrayID(loaded []ams.LoadedFilament, gid int) *ams.LoadedFilament {
	for i := range loaded {
		if loaded[i].GlobalTrayID == gid {
			return &loaded[i]
		}
	}
	return nil
}

package fleet

import (
	"sync"

	"printfleet-backend/internal/ams"
	"printfleet-backend/internal/matching"
)

// ReadyStatus is the per-printer match-quality roll-up.
type ReadyStatus string

const (
	StatusFull    ReadyStatus = "full"
	StatusPartial ReadyStatus = "partial"
	StatusMissing ReadyStatus = "missing"
)

// Config is the user configuration attached to one printer within a
// multi-printer selection.
type Config struct {
	// UseDefault means "inherit the fleet-wide default mapping".
	UseDefault bool `json:"useDefault"`
	// ManualMappings maps slot_id to global tray ID.
	ManualMappings map[int]int `json:"manualMappings"`
	// AutoConfigured records that ManualMappings was produced by
	// auto-configure rather than typed in by the user.
	AutoConfigured bool `json:"autoConfigured"`
}

// NewConfig returns the initial per-printer configuration.
func NewConfig() Config {
	return Config{UseDefault: true, ManualMappings: map[int]int{}}
}

// ConfigPatch is a partial update to a printer's configuration. Nil fields
// are left untouched.
type ConfigPatch struct {
	UseDefault     *bool       `json:"useDefault,omitempty"`
	ManualMappings map[int]int `json:"manualMappings,omitempty"`
}

// PrinterResult aggregates one printer's mapping view.
type PrinterResult struct {
	PrinterID       string                        `json:"printerId"`
	AutoMapping     []int                         `json:"autoMapping,omitempty"`
	FinalMapping    []int                         `json:"finalMapping,omitempty"`
	Comparisons     []matching.FilamentComparison `json:"comparisons,omitempty"`
	ExactMatches    int                           `json:"exactMatches"`
	TypeOnlyMatches int                           `json:"typeOnlyMatches"`
	MissingTypes    int                           `json:"missingTypes"`
	TotalSlots      int                           `json:"totalSlots"`
	MatchStatus     ReadyStatus                   `json:"matchStatus"`
}

// Orchestrator fans the per-printer resolver out across the selected fleet.
// Each printer resolves independently against its own snapshot; printers
// never share a used-spool set. All computation is a pure function of the
// current inputs, so recomputation with identical inputs yields identical
// results.
type Orchestrator struct {
	mu sync.RWMutex

	matcher         *matching.Matcher
	requirements    []matching.FilamentRequirement
	defaultMappings map[int]int

	printers  []string
	snapshots map[string][]ams.LoadedFilament
	configs   map[string]Config
}

// NewOrchestrator creates an orchestrator with an empty printer selection.
func NewOrchestrator(matcher *matching.Matcher) *Orchestrator {
	if matcher == nil {
		matcher = matching.NewMatcher(nil)
	}
	return &Orchestrator{
		matcher:         matcher,
		defaultMappings: map[int]int{},
		snapshots:       map[string][]ams.LoadedFilament{},
		configs:         map[string]Config{},
	}
}

// SetRequirements replaces the print job's filament requirement list.
func (o *Orchestrator) SetRequirements(reqs []matching.FilamentRequirement) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.requirements = append([]matching.FilamentRequirement(nil), reqs...)
}

// SetDefaultMappings replaces the fleet-wide default manual mappings that
// printers with UseDefault inherit.
func (o *Orchestrator) SetDefaultMappings(mappings map[int]int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.defaultMappings = copyMappings(mappings)
}

// SelectPrinters replaces the fleet selection, keeping existing
// configuration and snapshots for printers that stay selected.
func (o *Orchestrator) SelectPrinters(ids []string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.printers = append([]string(nil), ids...)
	for _, id := range ids {
		if _, ok := o.configs[id]; !ok {
			o.configs[id] = NewConfig()
		}
	}
}

// UpdateSnapshot publishes a printer's freshly extracted spool inventory.
// Telemetry arrives asynchronously per printer; a printer whose fetch has
// not settled simply keeps presenting its previous (possibly empty) list.
func (o *Orchestrator) UpdateSnapshot(printerID string, loaded []ams.LoadedFilament) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.snapshots[printerID] = append([]ams.LoadedFilament(nil), loaded...)
}

// Config returns a copy of one printer's configuration.
func (o *Orchestrator) Config(printerID string) (Config, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	cfg, ok := o.configs[printerID]
	if !ok {
		return Config{}, false
	}
	return copyConfig(cfg), true
}

// RestoreConfig installs a previously persisted configuration without going
// through the state machine (the persisted state already went through it).
func (o *Orchestrator) RestoreConfig(printerID string, cfg Config) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if cfg.ManualMappings == nil {
		cfg.ManualMappings = map[int]int{}
	}
	o.configs[printerID] = copyConfig(cfg)
}

// UpdatePrinterConfig applies a patch to one printer's configuration.
// Supplying ManualMappings is a direct manual edit: it leaves the default
// behind and clears the auto-configured provenance flag.
func (o *Orchestrator) UpdatePrinterConfig(printerID string, patch ConfigPatch) (Config, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	cfg, ok := o.configs[printerID]
	if !ok {
		return Config{}, false
	}

	if patch.UseDefault != nil {
		cfg.UseDefault = *patch.UseDefault
	}
	if patch.ManualMappings != nil {
		cfg.ManualMappings = copyMappings(patch.ManualMappings)
		cfg.UseDefault = false
		cfg.AutoConfigured = false
	}

	o.configs[printerID] = cfg
	return copyConfig(cfg), true
}

// AutoConfigurePrinter runs the automatic matching path for one printer and
// freezes the result as an explicit, editable manual mapping. Unassigned
// slots are skipped. Returns false when there is nothing to configure
// against (unknown printer, no requirements, or no telemetry yet).
func (o *Orchestrator) AutoConfigurePrinter(printerID string) (Config, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.autoConfigureLocked(printerID)
}

func (o *Orchestrator) autoConfigureLocked(printerID string) (Config, bool) {
	if _, ok := o.configs[printerID]; !ok {
		return Config{}, false
	}

	res := o.matcher.Resolve(o.requirements, o.snapshots[printerID], nil)
	if res == nil {
		return Config{}, false
	}

	mappings := make(map[int]int)
	for i, gid := range res.Mapping {
		if gid != matching.Unassigned {
			mappings[i+1] = gid
		}
	}

	cfg := Config{UseDefault: false, ManualMappings: mappings, AutoConfigured: true}
	o.configs[printerID] = cfg
	return copyConfig(cfg), true
}

// AutoConfigureAll auto-configures every selected printer that has a
// computable mapping.
func (o *Orchestrator) AutoConfigureAll() {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, id := range o.printers {
		o.autoConfigureLocked(id)
	}
}

// GetFinalMapping returns the override-adjusted mapping the print-dispatch
// collaborator consumes, or nil when the mapping is absent.
func (o *Orchestrator) GetFinalMapping(printerID string) []int {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if _, ok := o.configs[printerID]; !ok {
		return nil
	}
	res := o.matcher.Resolve(o.requirements, o.snapshots[printerID], o.effectiveOverrides(printerID))
	if res == nil {
		return nil
	}
	return res.Mapping
}

// Result computes one printer's mapping view.
func (o *Orchestrator) Result(printerID string) (PrinterResult, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if _, ok := o.configs[printerID]; !ok {
		return PrinterResult{}, false
	}
	return o.resultLocked(printerID), true
}

// PrinterResults computes the per-printer views for the whole selection, in
// selection order.
func (o *Orchestrator) PrinterResults() []PrinterResult {
	o.mu.RLock()
	defer o.mu.RUnlock()

	results := make([]PrinterResult, 0, len(o.printers))
	for _, id := range o.printers {
		results = append(results, o.resultLocked(id))
	}
	return results
}

// AllPrintersReady is the fleet-wide gate on proceeding to print dispatch:
// true iff no selected printer's roll-up is missing.
func (o *Orchestrator) AllPrintersReady() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()

	for _, id := range o.printers {
		if o.resultLocked(id).MatchStatus == StatusMissing {
			return false
		}
	}
	return true
}

func (o *Orchestrator) effectiveOverrides(printerID string) map[int]int {
	cfg := o.configs[printerID]
	if cfg.UseDefault {
		return o.defaultMappings
	}
	return cfg.ManualMappings
}

func (o *Orchestrator) resultLocked(printerID string) PrinterResult {
	result := PrinterResult{PrinterID: printerID}

	snapshot := o.snapshots[printerID]
	final := o.matcher.Resolve(o.requirements, snapshot, o.effectiveOverrides(printerID))
	if final == nil {
		// Nothing to print against. With requirements pending this blocks
		// the fleet; with an empty job there is nothing to miss.
		result.TotalSlots = requirementCount(o.requirements)
		result.MissingTypes = result.TotalSlots
		result.MatchStatus = StatusMissing
		if result.TotalSlots == 0 {
			result.MatchStatus = StatusFull
		}
		return result
	}

	if auto := o.matcher.Resolve(o.requirements, snapshot, nil); auto != nil {
		result.AutoMapping = auto.Mapping
	}
	result.FinalMapping = final.Mapping
	result.Comparisons = final.Comparisons
	result.TotalSlots = len(final.Comparisons)

	for _, cmp := range final.Comparisons {
		switch cmp.Status {
		case matching.StatusMatch:
			result.ExactMatches++
		case matching.StatusTypeOnly:
			result.TypeOnlyMatches++
		default:
			result.MissingTypes++
		}
	}

	switch {
	case result.MissingTypes > 0:
		result.MatchStatus = StatusMissing
	case result.TypeOnlyMatches > 0:
		result.MatchStatus = StatusPartial
	default:
		result.MatchStatus = StatusFull
	}
	return result
}

func requirementCount(reqs []matching.FilamentRequirement) int {
	n := 0
	for _, r := range reqs {
		if r.SlotID >= 1 {
			n++
		}
	}
	return n
}

func copyMappings(m map[int]int) map[int]int {
	out := make(map[int]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyConfig(cfg Config) Config {
	cfg.ManualMappings = copyMappings(cfg.ManualMappings)
	return cfg
}

package sim

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// ErrUnknownUnitDef is returned when a unit definition name does not resolve.
var ErrUnknownUnitDef = errors.New("unknown unit def")

// UnitDef is a unit archetype loaded from YAML.
type UnitDef struct {
	Name       string  `yaml:"name"`
	HumanName  string  `yaml:"human_name"`
	MetalCost  float64 `yaml:"metal_cost"`
	EnergyCost float64 `yaml:"energy_cost"`
	BuildTime  float64 `yaml:"build_time"`
	// Script is the unit script file name under the unit scripts directory.
	Script string `yaml:"script"`
}

// Validate checks that the definition satisfies basic invariants.
//
// Postcondition: Returns nil iff Name is non-empty and costs are non-negative.
func (d *UnitDef) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("unit def: name must not be empty")
	}
	if d.MetalCost < 0 || d.EnergyCost < 0 {
		return fmt.Errorf("unit def %q: costs must not be negative", d.Name)
	}
	if d.BuildTime < 0 {
		return fmt.Errorf("unit def %q: build_time must not be negative", d.Name)
	}
	return nil
}

// LoadUnitDefFromBytes parses a single unit definition from raw YAML bytes.
//
// Postcondition: Returns a validated *UnitDef with a lowercased Name, or an error.
func LoadUnitDefFromBytes(data []byte) (*UnitDef, error) {
	var def UnitDef
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parsing unit def YAML: %w", err)
	}
	def.Name = strings.ToLower(def.Name)
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// LoadUnitDefs reads all *.yaml files in dir and returns the parsed definitions.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns all definitions or an error on the first failure.
func LoadUnitDefs(dir string) ([]*UnitDef, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading unit def dir %q: %w", dir, err)
	}

	var defs []*UnitDef
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		def, err := LoadUnitDefFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// UnitDefHandler indexes unit definitions by name and owns the no-cost rule.
type UnitDefHandler struct {
	mu     sync.RWMutex
	defs   map[string]*UnitDef
	names  []string
	noCost bool
}

// NewUnitDefHandler indexes defs by lowercased name.
//
// Postcondition: Returns an error if two definitions share a name.
func NewUnitDefHandler(defs []*UnitDef) (*UnitDefHandler, error) {
	h := &UnitDefHandler{defs: make(map[string]*UnitDef, len(defs))}
	for _, d := range defs {
		name := strings.ToLower(d.Name)
		if _, exists := h.defs[name]; exists {
			return nil, fmt.Errorf("duplicate unit def name: %q", name)
		}
		h.defs[name] = d
		h.names = append(h.names, name)
	}
	sort.Strings(h.names)
	return h, nil
}

// ByName returns the definition for name (case-insensitive), or nil.
func (h *UnitDefHandler) ByName(name string) *UnitDef {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.defs[strings.ToLower(name)]
}

// All returns every definition sorted by name.
func (h *UnitDefHandler) All() []*UnitDef {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*UnitDef, 0, len(h.names))
	for _, n := range h.names {
		out = append(out, h.defs[n])
	}
	return out
}

// NoCost reports whether everything is free to build.
func (h *UnitDefHandler) NoCost() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.noCost
}

// SetNoCost sets the everything-for-free rule.
func (h *UnitDefHandler) SetNoCost(free bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.noCost = free
}

// Cost returns the metal and energy cost of def under the current no-cost rule.
func (h *UnitDefHandler) Cost(def *UnitDef) (metal, energy float64) {
	if h.NoCost() {
		return 0, 0
	}
	return def.MetalCost, def.EnergyCost
}

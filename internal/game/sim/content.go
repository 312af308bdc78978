package sim

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// UnitScript is a loaded unit animation script. Units hold a pointer to the
// revision they were bound to; a reload produces a new value.
type UnitScript struct {
	Name     string
	Source   []byte
	Revision int
}

// UnitScripts caches unit script files from a directory.
// All methods are safe for concurrent use.
type UnitScripts struct {
	mu      sync.RWMutex
	dir     string
	scripts map[string]*UnitScript
}

// NewUnitScripts creates an empty cache rooted at dir.
func NewUnitScripts(dir string) *UnitScripts {
	return &UnitScripts{dir: dir, scripts: make(map[string]*UnitScript)}
}

// Load returns the cached script name, reading it from disk on first use.
//
// Postcondition: Returns an error if the file cannot be read.
func (s *UnitScripts) Load(name string) (*UnitScript, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sc, ok := s.scripts[name]; ok {
		return sc, nil
	}
	return s.readLocked(name, 1)
}

// Script returns the cached script name, or nil if it was never loaded.
func (s *UnitScripts) Script(name string) *UnitScript {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scripts[name]
}

// Reload re-reads name from disk and replaces the cached entry.
//
// Precondition: name must have been loaded before.
// Postcondition: Returns the new script with Revision incremented.
func (s *UnitScripts) Reload(name string) (*UnitScript, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.scripts[name]
	if !ok {
		return nil, fmt.Errorf("unit script %q is not loaded", name)
	}
	return s.readLocked(name, old.Revision+1)
}

func (s *UnitScripts) readLocked(name string, revision int) (*UnitScript, error) {
	path := filepath.Join(s.dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading unit script %q: %w", path, err)
	}
	sc := &UnitScript{Name: name, Source: data, Revision: revision}
	s.scripts[name] = sc
	return sc, nil
}

// ExplosionGenerator is a custom explosion effect definition.
type ExplosionGenerator struct {
	Tag      string   `yaml:"tag"`
	Sound    string   `yaml:"sound"`
	Spawns   []string `yaml:"spawns"`
	Revision int      `yaml:"-"`
}

// ExplosionGenerators holds the CEG definitions loaded from one YAML file.
// All methods are safe for concurrent use.
type ExplosionGenerators struct {
	mu   sync.RWMutex
	path string
	gens map[string]*ExplosionGenerator
}

// LoadExplosionGenerators reads the CEG file at path.
//
// Postcondition: Returns the loaded generators, or an error on read/parse failure.
// A missing path yields an empty set.
func LoadExplosionGenerators(path string) (*ExplosionGenerators, error) {
	e := &ExplosionGenerators{path: path, gens: make(map[string]*ExplosionGenerator)}
	if path == "" {
		return e, nil
	}
	gens, err := e.read()
	if err != nil {
		return nil, err
	}
	for _, g := range gens {
		g.Revision = 1
		e.gens[g.Tag] = g
	}
	return e, nil
}

func (e *ExplosionGenerators) read() (map[string]*ExplosionGenerator, error) {
	data, err := os.ReadFile(e.path)
	if err != nil {
		return nil, fmt.Errorf("reading CEG file %q: %w", e.path, err)
	}
	var list []*ExplosionGenerator
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parsing CEG file %q: %w", e.path, err)
	}
	out := make(map[string]*ExplosionGenerator, len(list))
	for _, g := range list {
		if g.Tag == "" {
			return nil, fmt.Errorf("CEG file %q: tag must not be empty", e.path)
		}
		out[g.Tag] = g
	}
	return out, nil
}

// Reload re-reads the CEG file. An empty tag replaces every generator;
// otherwise only the generator with that tag is replaced.
//
// Postcondition: Returns the number of generators reloaded, or an error if the
// file cannot be read or tag is not defined in it.
func (e *ExplosionGenerators) Reload(tag string) (int, error) {
	if e.path == "" {
		return 0, fmt.Errorf("no CEG file configured")
	}
	fresh, err := e.read()
	if err != nil {
		return 0, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if tag == "" {
		for t, g := range fresh {
			if old, ok := e.gens[t]; ok {
				g.Revision = old.Revision + 1
			} else {
				g.Revision = 1
			}
		}
		e.gens = fresh
		return len(fresh), nil
	}
	g, ok := fresh[tag]
	if !ok {
		return 0, fmt.Errorf("CEG tag %q not found in %q", tag, e.path)
	}
	g.Revision = 1
	if old, ok := e.gens[tag]; ok {
		g.Revision = old.Revision + 1
	}
	e.gens[tag] = g
	return 1, nil
}

// Generator returns the generator with tag, or nil.
func (e *ExplosionGenerators) Generator(tag string) *ExplosionGenerator {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.gens[tag]
}

// Tags returns all generator tags in sorted order.
func (e *ExplosionGenerators) Tags() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	tags := make([]string, 0, len(e.gens))
	for t := range e.gens {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}

// Package planet resolves named planet configurations into immutable sets of
// physical constants. Constant sets ship with the binary as embedded JSON,
// one file per planet, each merged over a shared set of general physical
// constants, so lookups never touch the filesystem at runtime.
package planet

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

//go:embed planets/*.json
var planetFS embed.FS

// generalName is the constants file shared by every planet.
const generalName = "general"

// RequiredConstants are the constants every usable set must define.
var RequiredConstants = []string{"radius", "gravity"}

// Constant is a single physical constant: a numeric value and its unit.
type Constant struct {
	Value float64 `json:"value"`
	Units string  `json:"units"`
}

// ConstantSet is an immutable mapping from constant name to Constant,
// labelled with the planet it describes. Once attached to a session it is
// never mutated; accessors hand out copies.
type ConstantSet struct {
	planet    string
	constants map[string]Constant
}

// Planet returns the name of the planet the set describes.
func (s ConstantSet) Planet() string { return s.planet }

// Get returns the named constant.
func (s ConstantSet) Get(name string) (Constant, bool) {
	c, ok := s.constants[name]
	return c, ok
}

// Radius returns the planetary radius constant. Every resolved set has one.
func (s ConstantSet) Radius() Constant { return s.constants["radius"] }

// Gravity returns the surface gravity constant. Every resolved set has one.
func (s ConstantSet) Gravity() Constant { return s.constants["gravity"] }

// Names returns the constant names in the set, sorted.
func (s ConstantSet) Names() []string {
	names := make([]string, 0, len(s.constants))
	for name := range s.constants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Constants returns a copy of the underlying mapping.
func (s ConstantSet) Constants() map[string]Constant {
	out := make(map[string]Constant, len(s.constants))
	for name, c := range s.constants {
		out[name] = c
	}
	return out
}

func (s ConstantSet) String() string {
	parts := make([]string, 0, len(s.constants))
	for _, name := range s.Names() {
		parts = append(parts, fmt.Sprintf("%s [%s]", name, s.constants[name].Units))
	}
	return fmt.Sprintf("%s(%s)", s.planet, strings.Join(parts, ", "))
}

// UnknownPlanetError reports a planet identifier with no registered
// constants file.
type UnknownPlanetError struct {
	Planet string
	Known  []string
}

func (e *UnknownPlanetError) Error() string {
	return fmt.Sprintf("unknown planet %q (known: %s)", e.Planet, strings.Join(e.Known, ", "))
}

// MissingConstantError reports an explicit constant mapping that lacks a
// required entry or provides one without a unit.
type MissingConstantError struct {
	Planet   string
	Constant string
	Reason   string
}

func (e *MissingConstantError) Error() string {
	return fmt.Sprintf("planet %q: constant %q: %s", e.Planet, e.Constant, e.Reason)
}

// fileConstant is the on-disk JSON shape, a list entry with the constant
// name inline.
type fileConstant struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Units string  `json:"units"`
}

// registry maps planet name to its merged constant mapping, built once at
// init from the embedded files. Registered planets never change at runtime.
var registry = mustBuildRegistry()

func mustBuildRegistry() map[string]map[string]Constant {
	general, err := readConstantsFile(generalName)
	if err != nil {
		panic(fmt.Sprintf("planet: embedded %s constants: %v", generalName, err))
	}

	entries, err := fs.Glob(planetFS, "planets/*.json")
	if err != nil {
		panic(fmt.Sprintf("planet: embedded constants: %v", err))
	}

	reg := make(map[string]map[string]Constant)
	for _, entry := range entries {
		name := strings.TrimSuffix(path.Base(entry), ".json")
		if name == generalName {
			continue
		}
		own, err := readConstantsFile(name)
		if err != nil {
			panic(fmt.Sprintf("planet: embedded %s constants: %v", name, err))
		}
		merged := make(map[string]Constant, len(general)+len(own))
		for k, v := range general {
			merged[k] = v
		}
		for k, v := range own {
			merged[k] = v
		}
		reg[name] = merged
	}
	return reg
}

func readConstantsFile(name string) (map[string]Constant, error) {
	raw, err := planetFS.ReadFile(path.Join("planets", name+".json"))
	if err != nil {
		return nil, err
	}
	var list []fileConstant
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("parse %s.json: %w", name, err)
	}
	out := make(map[string]Constant, len(list))
	for _, fc := range list {
		out[fc.Name] = Constant{Value: fc.Value, Units: fc.Units}
	}
	return out, nil
}

// Known returns the registered planet names, sorted.
func Known() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve returns the constant set for a registered planet. Repeated calls
// for the same planet return equal sets.
func Resolve(name string) (ConstantSet, error) {
	merged, ok := registry[name]
	if !ok {
		return ConstantSet{}, &UnknownPlanetError{Planet: name, Known: Known()}
	}
	constants := make(map[string]Constant, len(merged))
	for k, v := range merged {
		constants[k] = v
	}
	return ConstantSet{planet: name, constants: constants}, nil
}

// FromConstants validates an explicit constant mapping and returns it as a
// ConstantSet. Every entry must carry a unit and the required constants
// (radius, gravity) must be present.
func FromConstants(name string, constants map[string]Constant) (ConstantSet, error) {
	for _, req := range RequiredConstants {
		if _, ok := constants[req]; !ok {
			return ConstantSet{}, &MissingConstantError{Planet: name, Constant: req, Reason: "required constant is absent"}
		}
	}
	out := make(map[string]Constant, len(constants))
	for cname, c := range constants {
		if c.Units == "" {
			return ConstantSet{}, &MissingConstantError{Planet: name, Constant: cname, Reason: "constant has no units"}
		}
		out[cname] = c
	}
	return ConstantSet{planet: name, constants: out}, nil
}

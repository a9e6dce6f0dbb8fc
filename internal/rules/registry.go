// Package rules maps step types named in configuration to the steps that
// implement them.
package rules

import (
	"bytes"
	"fmt"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/donaldgifford/cellfmt/internal/formatter"
)

// Params holds the free-form parameters of a configured step.
type Params map[string]any

// Factory builds a step. name is the configured step name, which defaults
// to the step type.
type Factory func(name string, params Params) (formatter.Step, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register adds a step type to the registry. Registering a type twice
// panics.
func Register(typ string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	if _, ok := factories[typ]; ok {
		panic(fmt.Sprintf("rules: step type %q registered twice", typ))
	}
	factories[typ] = f
}

// Types returns every registered step type, sorted.
func Types() []string {
	mu.RLock()
	defer mu.RUnlock()
	types := make([]string, 0, len(factories))
	for t := range factories {
		types = append(types, t)
	}
	slices.Sort(types)
	return types
}

// Known reports whether typ is registered.
func Known(typ string) bool {
	mu.RLock()
	defer mu.RUnlock()
	_, ok := factories[typ]
	return ok
}

// Build creates the step for typ. An empty name defaults to typ.
func Build(typ, name string, params Params) (formatter.Step, error) {
	mu.RLock()
	f, ok := factories[typ]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown step type %q", typ)
	}
	if name == "" {
		name = typ
	}
	step, err := f(name, params)
	if err != nil {
		return nil, fmt.Errorf("step %s: %w", name, err)
	}
	return step, nil
}

// Decode converts params into the typed parameter struct out. Unknown
// parameters are an error.
func Decode(params Params, out any) error {
	if len(params) == 0 {
		return nil
	}
	data, err := yaml.Marshal(map[string]any(params))
	if err != nil {
		return fmt.Errorf("encoding params: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("invalid params: %w", err)
	}
	return nil
}

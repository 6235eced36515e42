// Package runtime ties the Flare tokenizer, parser and evaluator to a
// variable environment and runs source text against it.
package runtime

import (
	"sort"

	"github.com/lemonberrylabs/flare/pkg/stdlib"
	"github.com/lemonberrylabs/flare/pkg/types"
)

// Environment is the single flat table of bindings for a session. There are
// no nested scopes: every let and assignment writes here, and every symbol
// is read from here.
//
// An Environment is owned by one session and is not safe for concurrent use.
type Environment struct {
	vars map[string]types.Value
}

// NewEnvironment creates an empty environment.
func NewEnvironment() *Environment {
	return &Environment{
		vars: make(map[string]types.Value),
	}
}

// NewDefaultEnvironment creates an environment pre-populated with the
// built-in procedures.
func NewDefaultEnvironment() *Environment {
	env := NewEnvironment()
	stdlib.NewRegistry().Install(env)
	return env
}

// Lookup returns the value bound to name.
func (e *Environment) Lookup(name string) (types.Value, bool) {
	v, ok := e.vars[name]
	return v, ok
}

// Define creates or overwrites the binding for name.
func (e *Environment) Define(name string, value types.Value) {
	e.vars[name] = value
}

// Update overwrites the binding for name only if it already exists.
func (e *Environment) Update(name string, value types.Value) bool {
	if _, ok := e.vars[name]; !ok {
		return false
	}
	e.vars[name] = value
	return true
}

// Has reports whether name is bound.
func (e *Environment) Has(name string) bool {
	_, ok := e.vars[name]
	return ok
}

// Len returns the number of bindings, built-ins included.
func (e *Environment) Len() int {
	return len(e.vars)
}

// Names returns the bound names in sorted order.
func (e *Environment) Names() []string {
	names := make([]string, 0, len(e.vars))
	for name := range e.vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns a copy of the environment. Values are immutable, so the
// copy shares them.
func (e *Environment) Clone() *Environment {
	c := &Environment{vars: make(map[string]types.Value, len(e.vars))}
	for k, v := range e.vars {
		c.vars[k] = v
	}
	return c
}

// Equal reports whether two environments hold the same bindings.
func (e *Environment) Equal(other *Environment) bool {
	if len(e.vars) != len(other.vars) {
		return false
	}
	for k, v := range e.vars {
		w, ok := other.vars[k]
		if !ok || !types.Equal(v, w) {
			return false
		}
	}
	return true
}

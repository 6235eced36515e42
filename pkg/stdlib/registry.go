// Package stdlib implements the Flare built-in procedures.
package stdlib

import (
	"fmt"
	"sort"

	"github.com/lemonberrylabs/flare/pkg/types"
)

// Binder receives built-ins when they are installed into an environment.
type Binder interface {
	Define(name string, value types.Value)
}

// Registry holds the built-in procedures by name.
type Registry struct {
	funcs map[string]types.NativeFunc
}

// NewRegistry creates a new registry with all built-in functions registered.
func NewRegistry() *Registry {
	r := &Registry{
		funcs: make(map[string]types.NativeFunc),
	}
	r.registerArith()
	return r
}

// Register adds a function to the registry, replacing any previous one with
// the same name.
func (r *Registry) Register(name string, fn types.NativeFunc) {
	r.funcs[name] = fn
}

// Lookup returns the built-in registered under name as a Func value.
func (r *Registry) Lookup(name string) (types.Value, bool) {
	fn, ok := r.funcs[name]
	if !ok {
		return nil, false
	}
	return types.NewFunc(name, fn), true
}

// CallFunction calls a built-in by name.
func (r *Registry) CallFunction(name string, args []types.Value) (types.Value, error) {
	fn, ok := r.funcs[name]
	if !ok {
		return nil, fmt.Errorf("unknown function '%s'", name)
	}
	return fn(args)
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Install binds every built-in into b.
func (r *Registry) Install(b Binder) {
	for _, name := range r.Names() {
		b.Define(name, types.NewFunc(name, r.funcs[name]))
	}
}

// numbers converts every argument to a float, failing on the first
// argument that is not a Number.
func numbers(name string, args []types.Value) ([]float64, error) {
	out := make([]float64, len(args))
	for i, a := range args {
		n, ok := types.AsNumber(a)
		if !ok {
			return nil, types.NewTypeMismatchError(
				fmt.Sprintf("%s expected a number at argument %d, got %s", name, i+1, a.Type()))
		}
		out[i] = n
	}
	return out, nil
}

// requireArgs checks that at least min arguments were passed.
func requireArgs(name string, args []types.Value, min int) error {
	if len(args) < min {
		return types.NewArityMismatchError(
			fmt.Sprintf("%s expects at least %d argument(s), got %d", name, min, len(args)))
	}
	return nil
}

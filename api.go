package automapper

import "reflect"

// Map is the generics-monomorphized convenience wrapper over Manager.Get +
// Executor.MapValue: the public-API edge named in spec.md §9(b) ("monomorphize
// via generics when S and D are known at compile time"), grounded on the
// teacher's Map[TDest any](m *Mapper, src any).
func Map[S, D any](mgr *Manager, cfg *Configuration, src S, state State) (D, error) {
	var zero D
	srcType := reflect.TypeOf(src)
	destType := reflect.TypeOf(zero)

	exec, err := mgr.Get(srcType, destType, cfg)
	if err != nil {
		return zero, err
	}

	result, err := exec.MapValue(src, state)
	if err != nil {
		return zero, err
	}
	typed, ok := result.(D)
	if !ok {
		return zero, &ConfigurationError{Source: srcType, Dest: destType, Reason: "mapped value could not be asserted to the requested destination type"}
	}
	return typed, nil
}

// MapInto mirrors Map but maps into an existing destination value rather
// than constructing a new one.
func MapInto[S, D any](mgr *Manager, cfg *Configuration, src S, dst *D, state State) error {
	srcType := reflect.TypeOf(src)
	destType := reflect.TypeOf(*dst)

	exec, err := mgr.Get(srcType, destType, cfg)
	if err != nil {
		return err
	}

	result, err := exec.Map(src, dst, state)
	if err != nil {
		return err
	}
	typed, ok := result.(D)
	if !ok {
		return &ConfigurationError{Source: srcType, Dest: destType, Reason: "mapped value could not be asserted to the requested destination type"}
	}
	*dst = typed
	return nil
}

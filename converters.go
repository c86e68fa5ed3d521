package automapper

import (
	"fmt"
	"reflect"
	"sync"
	"time"
)

// StaticConverterRegistry maps (From, To) scalar type pairs to a free
// conversion function. A Configuration may override the active registry;
// lookup otherwise falls back to DefaultStaticRegistry.
type StaticConverterRegistry struct {
	mu    sync.RWMutex
	funcs map[typekey]ConverterFunc
}

// NewStaticConverterRegistry returns an empty registry.
func NewStaticConverterRegistry() *StaticConverterRegistry {
	return &StaticConverterRegistry{funcs: make(map[typekey]ConverterFunc)}
}

// RegisterStatic adds a strongly typed scalar conversion to the registry.
func RegisterStatic[From, To any](r *StaticConverterRegistry, f func(From) (To, error)) {
	var from From
	var to To
	key := pairKey(reflect.TypeOf(from), reflect.TypeOf(to))

	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[key] = func(src any, _ State) (any, error) {
		typed, ok := src.(From)
		if !ok {
			return nil, &ConfigurationError{Reason: "static converter received unexpected source type"}
		}
		return f(typed)
	}
}

func (r *StaticConverterRegistry) lookup(from, to reflect.Type) (ConverterFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.funcs[pairKey(from, to)]
	return f, ok
}

// DefaultStaticRegistry is the process-default static converters table,
// populated at init with common scalar conversions. It is consulted when a
// Configuration does not override StaticConverters.
var DefaultStaticRegistry = NewStaticConverterRegistry()

func init() {
	RegisterStatic(DefaultStaticRegistry, func(v int) (string, error) {
		return fmt.Sprintf("%d", v), nil
	})
	RegisterStatic(DefaultStaticRegistry, func(v int64) (string, error) {
		return fmt.Sprintf("%d", v), nil
	})
	RegisterStatic(DefaultStaticRegistry, func(v float64) (string, error) {
		return fmt.Sprintf("%g", v), nil
	})
	RegisterStatic(DefaultStaticRegistry, func(v string) (int, error) {
		var n int
		_, err := fmt.Sscanf(v, "%d", &n)
		return n, err
	})
	RegisterStatic(DefaultStaticRegistry, func(v bool) (string, error) {
		return fmt.Sprintf("%t", v), nil
	})
	RegisterStatic(DefaultStaticRegistry, func(v time.Time) (string, error) {
		return v.Format(time.RFC3339Nano), nil
	})
	RegisterStatic(DefaultStaticRegistry, func(v string) (time.Time, error) {
		return time.Parse(time.RFC3339Nano, v)
	})
}

// resolveScalarConverter implements the lookup order of §4.4(a): a
// configuration's own registry, falling back to the process default.
func resolveScalarConverter(cfg *Configuration, from, to reflect.Type) (ConverterFunc, bool) {
	if f, ok := cfg.staticRegistry().lookup(from, to); ok {
		return f, true
	}
	if cfg.staticRegistry() != DefaultStaticRegistry {
		if f, ok := DefaultStaticRegistry.lookup(from, to); ok {
			return f, true
		}
	}
	return nil, false
}

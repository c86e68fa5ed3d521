package automapper

import (
	"fmt"
	"reflect"
)

// ConfigurationError reports a problem discovered while building a mapping
// plan: an unresolvable member type, a missing scalar conversion, or a
// generic converter provider whose descriptor could not be materialized.
//
// It is raised synchronously from the first Manager.Get call for a given
// (source, dest, configuration name) triple and is cached as that triple's
// permanent result: every later call re-raises an equivalent error without
// re-running the planner.
type ConfigurationError struct {
	Source reflect.Type
	Dest   reflect.Type
	Field  string
	Reason string
	Inner  error
}

func (e *ConfigurationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("automapper: configuration error for member %q (%s -> %s): %s",
			e.Field, e.Source, e.Dest, e.Reason)
	}
	return fmt.Sprintf("automapper: configuration error (%s -> %s): %s", e.Source, e.Dest, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return e.Inner }

// CycleError reports a cyclic chain of nested destination types discovered
// during plan building, where no user-supplied converter breaks the cycle.
type CycleError struct {
	Path []reflect.Type
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("automapper: cyclic mapping detected: %s", formatTypePath(e.Path))
}

func formatTypePath(path []reflect.Type) string {
	s := ""
	for i, t := range path {
		if i > 0 {
			s += " -> "
		}
		s += t.String()
	}
	return s
}

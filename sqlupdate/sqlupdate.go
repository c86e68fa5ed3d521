// Package sqlupdate is the downstream collaborator named in the core's
// design as a reader of operation-tree metadata (automapper.Operation /
// automapper.MemberDescriptor): it walks a source object's exported
// top-level fields in declaration order via reflect (embedded structs are
// not flattened, unlike the core's plan builder, and no automapper type is
// used), and emits a SQL UPDATE statement plus bound parameters from the
// result.
package sqlupdate

import (
	"database/sql/driver"
	"fmt"
	"reflect"
	"strings"

	"github.com/mapforge/automapper/internal/xlog"
)

// ChangeTracker reports which named members of obj have been modified
// since it was loaded. A nil ChangeTracker means "everything is a
// candidate", matching spec.md's change_tracker == nil behavior.
type ChangeTracker interface {
	Changed(obj any) []string
}

// DBSettings controls how column identifiers and parameter markers are
// rendered.
type DBSettings struct {
	// Escape wraps a column name for use in SQL text. Defaults to
	// wrapping in double quotes.
	Escape func(name string) string
	// ParamPrefix is prepended to a column name to form its bind
	// parameter marker. Defaults to "@".
	ParamPrefix string
}

func (s DBSettings) escape(name string) string {
	if s.Escape != nil {
		return s.Escape(name)
	}
	return `"` + name + `"`
}

func (s DBSettings) param(name string) string {
	prefix := s.ParamPrefix
	if prefix == "" {
		prefix = "@"
	}
	return prefix + name
}

// Command is a built UPDATE statement: its text and the parameters bound
// against it, in statement order.
type Command struct {
	Text   string
	Params []driver.NamedValue
}

type options struct {
	include       []string
	exclude       []string
	changeTracker ChangeTracker
	dbSettings    DBSettings
}

// Option configures BuildUpdateCommand.
type Option func(*options)

// WithIncludeFields restricts the SET list to this allow-list (before
// change-tracker intersection and id-field exclusion).
func WithIncludeFields(names ...string) Option {
	return func(o *options) { o.include = names }
}

// WithExcludeFields removes these members from consideration entirely.
func WithExcludeFields(names ...string) Option {
	return func(o *options) { o.exclude = names }
}

// WithChangeTracker supplies a change tracker; only members it reports as
// changed (intersected with the include list, if any) become SET columns.
func WithChangeTracker(t ChangeTracker) Option {
	return func(o *options) { o.changeTracker = t }
}

// WithDBSettings overrides column escaping and parameter prefix.
func WithDBSettings(s DBSettings) Option {
	return func(o *options) { o.dbSettings = s }
}

var logger = xlog.Default().With("component", "sqlupdate")

// BuildUpdateCommand builds an UPDATE statement for obj against table,
// keyed by idFields. It implements spec.md's build_update_command exactly:
// id-field names are upper-cased; if a change tracker is supplied, the
// effective SET set is the tracker's reported changes intersected with the
// include list when one is given (with all members otherwise), minus the
// exclude list; id-fields are always present in the WHERE clause (and
// never in SET); an empty SET list yields ok=false with no command text.
// It resolves obj's members directly via reflect rather than compiling an
// automapper.Executor, since the core's plan builder only classifies
// destType members that are themselves struct-shaped and there is no real
// destination struct for a synthetic parameter-sink type (see DESIGN.md).
func BuildUpdateCommand(obj any, table string, idFields []string, opts ...Option) (cmd Command, ok bool, err error) {
	var o options
	for _, apply := range opts {
		apply(&o)
	}

	members, err := readMembers(obj)
	if err != nil {
		return Command{}, false, err
	}

	idSet := make(map[string]bool, len(idFields))
	for _, id := range idFields {
		idSet[strings.ToUpper(id)] = true
	}
	excludeSet := make(map[string]bool, len(o.exclude))
	for _, n := range o.exclude {
		excludeSet[n] = true
	}

	var includeSet map[string]bool
	if len(o.include) > 0 {
		includeSet = make(map[string]bool, len(o.include))
		for _, n := range o.include {
			includeSet[n] = true
		}
	}

	var changed map[string]bool
	if o.changeTracker != nil {
		names := o.changeTracker.Changed(obj)
		changed = make(map[string]bool, len(names))
		for _, n := range names {
			changed[n] = true
		}
	}

	var setCols []string
	var setVals []any
	for _, m := range members {
		upper := strings.ToUpper(m.name)
		if idSet[upper] {
			continue
		}
		if excludeSet[m.name] {
			continue
		}
		if includeSet != nil && !includeSet[m.name] {
			continue
		}
		if changed != nil && !changed[m.name] {
			continue
		}
		setCols = append(setCols, upper)
		setVals = append(setVals, m.value)
	}

	if len(setCols) == 0 {
		logger.Debug("no tracked changes, skipping update", "table", table)
		return Command{}, false, nil
	}

	idCols, idVals, err := idColumns(members, idFields)
	if err != nil {
		return Command{}, false, err
	}

	return render(o.dbSettings, table, setCols, setVals, idCols, idVals), true, nil
}

func render(db DBSettings, table string, setCols []string, setVals []any, idCols []string, idVals []any) Command {
	var b strings.Builder
	var params []driver.NamedValue

	b.WriteString("UPDATE ")
	b.WriteString(table)
	b.WriteString(" SET ")
	for i, col := range setCols {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(db.escape(col))
		b.WriteString("=")
		b.WriteString(db.param(col))
		params = append(params, driver.NamedValue{Name: col, Ordinal: len(params) + 1, Value: setVals[i]})
	}

	b.WriteString(" WHERE ")
	for i, col := range idCols {
		if i > 0 {
			b.WriteString(" AND ")
		}
		b.WriteString(db.escape(col))
		b.WriteString("=")
		b.WriteString(db.param(col))
		params = append(params, driver.NamedValue{Name: col, Ordinal: len(params) + 1, Value: idVals[i]})
	}

	return Command{Text: b.String(), Params: params}
}

type member struct {
	name  string
	value any
}

// readMembers enumerates obj's exported top-level fields in declaration
// order, the same order the core's plan builder preserves for ReadWriteSimple
// leaves (spec.md's "leaf enumeration order matches plan declaration
// order").
func readMembers(obj any) ([]member, error) {
	v := reflect.ValueOf(obj)
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil, fmt.Errorf("sqlupdate: nil object")
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, fmt.Errorf("sqlupdate: object must be a struct, got %s", v.Kind())
	}

	t := v.Type()
	members := make([]member, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		members = append(members, member{name: f.Name, value: v.Field(i).Interface()})
	}
	return members, nil
}

func idColumns(members []member, idFields []string) ([]string, []any, error) {
	byName := make(map[string]any, len(members))
	for _, m := range members {
		byName[m.name] = m.value
	}

	cols := make([]string, 0, len(idFields))
	vals := make([]any, 0, len(idFields))
	for _, id := range idFields {
		v, ok := byName[id]
		if !ok {
			return nil, nil, fmt.Errorf("sqlupdate: id field %q not found on object", id)
		}
		cols = append(cols, strings.ToUpper(id))
		vals = append(vals, v)
	}
	return cols, vals, nil
}

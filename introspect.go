package automapper

import (
	"reflect"
	"sync"
)

// MemberKind distinguishes the two member shapes the engine recognizes.
type MemberKind int

const (
	// FieldMember is a struct field reached via reflect.Value.FieldByIndex.
	FieldMember MemberKind = iota
	// MethodMember is a zero-argument, non-error-returning method surfaced
	// as a read-only member when Configuration.MapMethods is enabled.
	MethodMember
)

// MemberDescriptor describes one field-or-method member of a type:
// its name, declaring type, kind, value type, and read/write capability.
type MemberDescriptor struct {
	Name          string
	DeclaringType reflect.Type
	Kind          MemberKind
	ValueType     reflect.Type
	Readable      bool
	Writable      bool

	fieldIndex []int
}

// typeIntrospector caches member enumeration per reflect.Type so repeated
// plan builds over the same types don't re-walk reflection each time.
type typeIntrospector struct {
	mu    sync.RWMutex
	cache map[reflect.Type][]MemberDescriptor
}

func newTypeIntrospector() *typeIntrospector {
	return &typeIntrospector{cache: make(map[reflect.Type][]MemberDescriptor)}
}

// publicMembers returns every instance-public field of t, plus, when
// mapMethods is set, every zero-argument non-error-returning method of *t
// (methods promoted from embedded fields included) whose name is not
// already taken by a field. Duplicates by name are
// de-duplicated preferring the member that is both readable and writable,
// else the first one encountered.
func (ti *typeIntrospector) publicMembers(t reflect.Type, mapMethods bool) []MemberDescriptor {
	t = underlyingStruct(t)
	if t == nil {
		return nil
	}

	ti.mu.RLock()
	cached, ok := ti.cache[t]
	ti.mu.RUnlock()
	if ok && !mapMethods {
		return cached
	}

	members := collectFieldMembers(t, nil)
	if mapMethods {
		members = append(members, collectMethodMembers(t, members)...)
	}

	if !mapMethods {
		ti.mu.Lock()
		ti.cache[t] = members
		ti.mu.Unlock()
	}
	return members
}

// underlyingStruct dereferences pointer types and returns the struct type
// underneath, or nil if t is not (a pointer to) a struct.
func underlyingStruct(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil
	}
	return t
}

func collectFieldMembers(t reflect.Type, index []int) []MemberDescriptor {
	var out []MemberDescriptor
	seen := make(map[string]int) // name -> position in out

	addOrReplace := func(m MemberDescriptor) {
		if pos, ok := seen[m.Name]; ok {
			existing := out[pos]
			if existing.Readable && existing.Writable {
				return
			}
			if m.Readable && m.Writable {
				out[pos] = m
			}
			return
		}
		seen[m.Name] = len(out)
		out = append(out, m)
	}

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		fieldIdx := appendIndex(index, i)

		if f.Anonymous {
			embedded := f.Type
			for embedded.Kind() == reflect.Ptr {
				embedded = embedded.Elem()
			}
			if embedded.Kind() == reflect.Struct {
				for _, em := range collectFieldMembers(embedded, fieldIdx) {
					addOrReplace(em)
				}
				continue
			}
		}

		if !f.IsExported() {
			continue
		}

		addOrReplace(MemberDescriptor{
			Name:          f.Name,
			DeclaringType: t,
			Kind:          FieldMember,
			ValueType:     f.Type,
			Readable:      true,
			Writable:      true,
			fieldIndex:    fieldIdx,
		})
	}

	return out
}

func appendIndex(index []int, i int) []int {
	out := make([]int, len(index), len(index)+1)
	copy(out, index)
	return append(out, i)
}

func collectMethodMembers(t reflect.Type, existing []MemberDescriptor) []MemberDescriptor {
	have := make(map[string]bool, len(existing))
	for _, m := range existing {
		have[m.Name] = true
	}

	errType := reflect.TypeOf((*error)(nil)).Elem()

	var out []MemberDescriptor
	ptrType := reflect.PointerTo(t)
	for i := 0; i < ptrType.NumMethod(); i++ {
		m := ptrType.Method(i)
		if have[m.Name] {
			continue
		}
		mt := m.Type // receiver is the first "in" argument
		if mt.NumIn() != 1 || mt.NumOut() != 1 {
			continue
		}
		if mt.Out(0) == errType {
			continue
		}
		out = append(out, MemberDescriptor{
			Name:          m.Name,
			DeclaringType: t,
			Kind:          MethodMember,
			ValueType:     mt.Out(0),
			Readable:      true,
			Writable:      false,
		})
		have[m.Name] = true
	}
	return out
}

// isCollection reports whether t is a slice or array kind.
func isCollection(t reflect.Type) bool {
	if t == nil {
		return false
	}
	return t.Kind() == reflect.Slice || t.Kind() == reflect.Array
}

// isNullable reports whether t is a pointer type.
func isNullable(t reflect.Type) bool {
	return t != nil && t.Kind() == reflect.Ptr
}

// underlying returns the element type of a pointer, or t itself otherwise.
func underlying(t reflect.Type) reflect.Type {
	if isNullable(t) {
		return t.Elem()
	}
	return t
}

// isScalarKind reports whether k is a primitive, string, or enum-like
// (integer-underlying) kind the planner treats as directly convertible.
func isScalarKind(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64,
		reflect.String:
		return true
	}
	return false
}

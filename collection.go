package automapper

import "reflect"

// collectionConverterProvider is the built-in GenericConverterProvider for
// Collection<E_from> -> []E_to, registered by default on every
// Configuration (RegisterCollectionToArray). It is the canonical worked
// example of a generic converter provider named in §4.4.
type collectionConverterProvider struct{}

func (collectionConverterProvider) Provide(from, to reflect.Type) (ConverterDescriptor, bool) {
	if !isCollection(from) || to == nil || to.Kind() != reflect.Slice {
		return ConverterDescriptor{}, false
	}
	return ConverterDescriptor{
		ImplType:   reflect.TypeOf(&collectionConverter{}),
		MethodName: "Convert",
	}, true
}

// RegisterCollectionToArray installs the built-in Collection<T> -> T[]
// generic converter provider on cfg. NewConfiguration calls this
// automatically.
func RegisterCollectionToArray(cfg *Configuration) {
	ConvertGeneric(cfg, AnyCollectionPattern(), AnySlicePattern(), collectionConverterProvider{})
}

// collectionConverter is the materialized instance a collection
// ConverterDescriptor names: Initialize binds it to a concrete (from, to)
// pair and its owning configuration, and Convert is bound as the scalar
// converter for that pair.
type collectionConverter struct {
	from, to reflect.Type
	cfg      *Configuration
}

func (c *collectionConverter) Initialize(from, to reflect.Type, cfg *Configuration) error {
	c.from = from
	c.to = to
	c.cfg = cfg
	return nil
}

// Convert implements the two shapes of §4.4: a same-element-type fast
// path doing a linear identity copy, and a different-element-type path
// resolving a scalar element converter (static registry, then a
// recursively compiled sub-executor) and filling the destination one
// element at a time. A missing (nil slice) input passes through as a nil
// slice output.
func (c *collectionConverter) Convert(src any, state State) (any, error) {
	if src == nil {
		return reflect.Zero(c.to).Interface(), nil
	}

	srcVal := reflect.ValueOf(src)
	if srcVal.Kind() == reflect.Slice && srcVal.IsNil() {
		return reflect.Zero(c.to).Interface(), nil
	}
	if srcVal.Kind() != reflect.Slice && srcVal.Kind() != reflect.Array {
		return nil, &ConfigurationError{Source: c.from, Dest: c.to, Reason: "collection converter received a non-collection source"}
	}

	elemFrom := c.from.Elem()
	elemTo := c.to.Elem()
	n := srcVal.Len()
	dest := reflect.MakeSlice(c.to, n, n)

	if elemFrom == elemTo && (isValueKind(elemFrom) || c.cfg.isShallowCopy()) {
		for i := 0; i < n; i++ {
			dest.Index(i).Set(srcVal.Index(i))
		}
		return dest.Interface(), nil
	}

	g, err := c.resolveElementConverter(elemFrom, elemTo)
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		converted, err := g(srcVal.Index(i).Interface(), state)
		if err != nil {
			return nil, err
		}
		dest.Index(i).Set(reflect.ValueOf(converted))
	}
	return dest.Interface(), nil
}

// resolveElementConverter implements the lookup order of §4.4(a)/(b): the
// configuration's static registry (falling back to the process default),
// then a recursively compiled sub-executor for (elemFrom, elemTo) under
// the same configuration, adapted to the scalar ConverterFunc signature.
func (c *collectionConverter) resolveElementConverter(elemFrom, elemTo reflect.Type) (ConverterFunc, error) {
	if f, ok := resolveScalarConverter(c.cfg, elemFrom, elemTo); ok {
		return f, nil
	}

	mgr := c.cfg.manager()
	if mgr == nil {
		return nil, &ConfigurationError{
			Source: elemFrom, Dest: elemTo,
			Reason: "no static converter registered and no manager bound to resolve a sub-executor",
		}
	}
	exec, err := mgr.Get(elemFrom, elemTo, c.cfg)
	if err != nil {
		return nil, err
	}
	return func(src any, state State) (any, error) {
		return exec.MapValue(src, state)
	}, nil
}

// isValueKind reports whether t is a value kind suitable for an identity
// copy: everything except pointers, interfaces, maps, slices, channels,
// and functions.
func isValueKind(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func:
		return false
	}
	return true
}

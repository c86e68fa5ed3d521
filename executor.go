package automapper

import "reflect"

// Executor is a compiled specialization that maps one concrete
// (source, destination, configuration) triple. It is produced and cached
// by a Manager; callers never construct one directly.
type Executor interface {
	// CreateTarget produces a fresh destination instance: the registered
	// constructor's result if one is configured, otherwise the zero value
	// of the destination type.
	CreateTarget() any

	// Map applies the root operation against src, writing into dst (or a
	// freshly created target if dst is nil), and returns the populated
	// destination.
	Map(src, dst any, state State) (any, error)

	// MapValue creates a target and maps into it in one call.
	MapValue(src any, state State) (any, error)

	// StoredOperations returns the ReadWriteSimple leaves of this
	// executor's plan, in declaration order, for metadata consumers that
	// need to know which members the executor touches.
	StoredOperations() []ReadWriteSimple
}

// reflectExecutor is the default Executor implementation: a reflection
// tree-walk interpreter over a Root operation tree. It is the "direct
// interpretation of the operation tree" backend named in spec.md §9(c);
// the dynamic-code-emission backend the source specification describes is
// out of scope and may be substituted behind the same Executor interface.
type reflectExecutor struct {
	root     Root
	destType reflect.Type
}

func newReflectExecutor(root Root, destType reflect.Type) *reflectExecutor {
	return &reflectExecutor{root: root, destType: destType}
}

func (e *reflectExecutor) CreateTarget() any {
	v, _ := e.createTarget(e.destType, e.root.TargetConstructor, nil)
	return v.Interface()
}

func (e *reflectExecutor) createTarget(t reflect.Type, ctor ConstructorFunc, state State) (reflect.Value, error) {
	if ctor != nil {
		v, err := ctor(state)
		if err != nil {
			return reflect.Value{}, err
		}
		if v == nil {
			return reflect.New(t).Elem(), nil
		}
		return addressableCopy(t, reflect.ValueOf(v)), nil
	}
	return reflect.New(t).Elem(), nil
}

// addressableCopy returns a settable reflect.Value of type t holding rv's
// value: a constructor's result arrives as a plain interface value, which
// reflect.ValueOf alone cannot address or assign fields into.
func addressableCopy(t reflect.Type, rv reflect.Value) reflect.Value {
	if rv.Kind() == reflect.Ptr && rv.Type().Elem() == t {
		return rv.Elem()
	}
	ptr := reflect.New(t)
	if rv.IsValid() && rv.Type() == t {
		ptr.Elem().Set(rv)
	}
	return ptr.Elem()
}

func (e *reflectExecutor) Map(src, dst any, state State) (any, error) {
	srcVal := reflect.ValueOf(src)

	var destVal reflect.Value
	if dst == nil {
		created, err := e.createTarget(e.destType, e.root.TargetConstructor, state)
		if err != nil {
			return nil, err
		}
		destVal = created
	} else {
		destVal = reflect.ValueOf(dst)
		if destVal.Kind() == reflect.Ptr {
			destVal = destVal.Elem()
		}
	}

	result, err := executeRoot(e.root, srcVal, destVal, state)
	if err != nil {
		return nil, err
	}
	return result.Interface(), nil
}

func (e *reflectExecutor) MapValue(src any, state State) (any, error) {
	return e.Map(src, nil, state)
}

func (e *reflectExecutor) StoredOperations() []ReadWriteSimple {
	return StoredOperations(e.root)
}

// executeRoot implements the five-step execution order of §4.5.
func executeRoot(root Root, srcVal reflect.Value, destVal reflect.Value, state State) (reflect.Value, error) {
	srcVal = derefValue(srcVal)

	if root.SourceFilter != nil {
		if !srcVal.IsValid() {
			if !root.SourceFilter(nil, state) {
				return destVal, nil
			}
		} else if !root.SourceFilter(srcVal.Interface(), state) {
			return destVal, nil
		}
	}

	if root.Converter != nil {
		var srcIface any
		if srcVal.IsValid() {
			srcIface = srcVal.Interface()
		}
		result, err := root.Converter(srcIface, state)
		if err != nil {
			return destVal, err
		}
		destVal = assignResult(destVal, result)
	} else {
		if !srcVal.IsValid() {
			return destVal, nil
		}

		for _, op := range root.Operations {
			if err := executeOperation(op, srcVal, destVal, state); err != nil {
				return destVal, err
			}
		}
	}

	if root.ValuesPostProcessor != nil {
		result, err := root.ValuesPostProcessor(destVal.Interface(), state)
		if err != nil {
			return destVal, err
		}
		return assignResult(destVal, result), nil
	}

	return destVal, nil
}

func assignResult(destVal reflect.Value, result any) reflect.Value {
	if result == nil {
		return destVal
	}
	rv := reflect.ValueOf(result)
	if destVal.CanSet() && rv.Type().AssignableTo(destVal.Type()) {
		destVal.Set(rv)
		return destVal
	}
	return rv
}

func executeOperation(op Operation, srcVal, destVal reflect.Value, state State) error {
	switch n := op.(type) {
	case ReadWriteSimple:
		return executeSimple(n, srcVal, destVal, state)
	case ReadWriteComplex:
		return executeComplex(n, srcVal, destVal, state)
	case OperationsBlock:
		for _, child := range n.Operations {
			if err := executeOperation(child, srcVal, destVal, state); err != nil {
				return err
			}
		}
		return nil
	case SrcRead, DstWrite:
		// Metadata-only variants; the object-to-object interpreter never
		// produces these, they exist for consumers that walk the tree
		// themselves.
		return nil
	}
	return nil
}

func executeSimple(op ReadWriteSimple, srcVal, destVal reflect.Value, state State) error {
	destField, ok := destFieldValue(destVal, op.Destination)
	if !ok || !destField.CanSet() {
		return nil
	}

	srcValue, present := readMember(srcVal, op.Source)

	if !present {
		if op.NullSubstitutor != nil {
			replacement, err := op.NullSubstitutor(state)
			if err != nil {
				return err
			}
			return writeValue(destField, replacement, op, state)
		}
		destField.Set(reflect.Zero(destField.Type()))
		return nil
	}

	if op.SourceFilter != nil && !op.SourceFilter(srcValue, state) {
		return nil
	}

	return writeValue(destField, srcValue, op, state)
}

func writeValue(destField reflect.Value, value any, op ReadWriteSimple, state State) error {
	if op.Converter != nil {
		converted, err := op.Converter(value, state)
		if err != nil {
			return err
		}
		value = converted
	}

	if op.DestinationFilter != nil && !op.DestinationFilter(value, state) {
		return nil
	}

	setFieldValue(destField, value)
	return nil
}

func executeComplex(op ReadWriteComplex, srcVal, destVal reflect.Value, state State) error {
	destField, ok := destFieldValue(destVal, op.Destination)
	if !ok {
		return nil
	}

	srcValue, present := readMember(srcVal, op.Source)
	if !present {
		return nil
	}

	nestedSrc := derefValue(reflect.ValueOf(srcValue))
	if !nestedSrc.IsValid() {
		return nil
	}

	nestedDest := destField
	if nestedDest.Kind() == reflect.Ptr {
		if nestedDest.IsNil() {
			if !nestedDest.CanSet() {
				return nil
			}
			created, err := createComplexTarget(nestedDest.Type().Elem(), op.TargetConstructor, state)
			if err != nil {
				return err
			}
			nestedDest.Set(created.Addr())
		}
		nestedDest = nestedDest.Elem()
	}

	for _, child := range op.Operations {
		if err := executeOperation(child, nestedSrc, nestedDest, state); err != nil {
			return err
		}
	}

	if op.ValuesPostProcessor != nil {
		result, err := op.ValuesPostProcessor(nestedDest.Interface(), state)
		if err != nil {
			return err
		}
		assignResult(nestedDest, result)
	}

	return nil
}

func createComplexTarget(t reflect.Type, ctor ConstructorFunc, state State) (reflect.Value, error) {
	if ctor != nil {
		v, err := ctor(state)
		if err != nil {
			return reflect.Value{}, err
		}
		if v != nil {
			return addressableCopy(t, reflect.ValueOf(v)), nil
		}
	}
	return reflect.New(t).Elem(), nil
}

// readMember reads op's member from val, returning (value, present).
// present is false for a nil pointer anywhere along the field path, or a
// zero Value receiver for a method member.
func readMember(val reflect.Value, desc MemberDescriptor) (any, bool) {
	val = derefValue(val)
	if !val.IsValid() {
		return nil, false
	}

	if desc.Kind == MethodMember {
		method := val.Addr().MethodByName(desc.Name)
		if !method.IsValid() {
			return nil, false
		}
		results := method.Call(nil)
		if len(results) == 0 {
			return nil, false
		}
		return results[0].Interface(), true
	}

	fieldVal := val
	for _, idx := range desc.fieldIndex {
		if fieldVal.Kind() == reflect.Ptr {
			if fieldVal.IsNil() {
				return nil, false
			}
			fieldVal = fieldVal.Elem()
		}
		if fieldVal.Kind() != reflect.Struct || idx >= fieldVal.NumField() {
			return nil, false
		}
		fieldVal = fieldVal.Field(idx)
	}

	if fieldVal.Kind() == reflect.Ptr && fieldVal.IsNil() {
		return nil, false
	}
	return fieldVal.Interface(), true
}

// destFieldValue navigates destVal to the addressable reflect.Value named
// by desc, allocating intermediate pointers as needed.
func destFieldValue(destVal reflect.Value, desc MemberDescriptor) (reflect.Value, bool) {
	if !destVal.IsValid() || desc.Kind != FieldMember {
		return reflect.Value{}, false
	}

	v := destVal
	for _, idx := range desc.fieldIndex {
		if v.Kind() == reflect.Ptr {
			if v.IsNil() {
				if !v.CanSet() {
					return reflect.Value{}, false
				}
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		if v.Kind() != reflect.Struct || idx >= v.NumField() {
			return reflect.Value{}, false
		}
		v = v.Field(idx)
	}
	return v, true
}

// setFieldValue assigns value into destField, allocating a pointer when
// destField is a pointer type. Only values whose type is assignable to
// destField are written; a value of a distinct (even convertible) type is
// not converted and leaves destField unchanged.
func setFieldValue(destField reflect.Value, value any) {
	if value == nil {
		destField.Set(reflect.Zero(destField.Type()))
		return
	}

	rv := reflect.ValueOf(value)

	if destField.Kind() == reflect.Ptr {
		if rv.Kind() == reflect.Ptr && rv.IsNil() {
			destField.Set(reflect.Zero(destField.Type()))
			return
		}
		elemType := destField.Type().Elem()
		if rv.Type() == elemType {
			ptr := reflect.New(elemType)
			ptr.Elem().Set(rv)
			destField.Set(ptr)
			return
		}
		if rv.Kind() == reflect.Ptr && rv.Type().Elem() == elemType {
			destField.Set(rv)
			return
		}
	}

	if rv.Kind() == reflect.Ptr && destField.Kind() != reflect.Ptr {
		rv = derefValue(rv)
		if !rv.IsValid() {
			destField.Set(reflect.Zero(destField.Type()))
			return
		}
	}

	if rv.Type().AssignableTo(destField.Type()) {
		destField.Set(rv)
		return
	}
	if rv.Type().ConvertibleTo(destField.Type()) && rv.Type() == destField.Type() {
		destField.Set(rv.Convert(destField.Type()))
	}
}

// derefValue dereferences pointer and interface kinds, returning the
// invalid Value for a nil pointer/interface at any level.
func derefValue(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

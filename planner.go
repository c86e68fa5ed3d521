package automapper

import "reflect"

var sharedIntrospector = newTypeIntrospector()

// planBuilder walks a (source, destination) type pair and accumulates a
// Root operation tree, detecting cycles via an ancestor stack and
// memoizing already-built sub-plans within a single build.
type planBuilder struct {
	cfg       *Configuration
	ancestors map[typekey]bool
	path      []reflect.Type
	memo      map[typekey][]Operation
	cycleErr  *CycleError
}

// buildPlan produces the Root operation tree for (srcType, destType) under
// cfg. cfg.boundManager, if set, is used to resolve generic converters
// that need a recursively compiled sub-executor (§4.4(b)).
func buildPlan(srcType, destType reflect.Type, cfg *Configuration) (Root, error) {
	pb := &planBuilder{
		cfg:       cfg,
		ancestors: make(map[typekey]bool),
		memo:      make(map[typekey][]Operation),
	}

	ops, err := pb.buildMemberOps(srcType, destType)
	if err != nil {
		return Root{}, err
	}
	if pb.cycleErr != nil {
		return Root{}, pb.cycleErr
	}

	root := Root{
		FromType:   srcType,
		ToType:     destType,
		Operations: ops,
	}
	if ctor, ok := cfg.constructor(destType); ok {
		root.TargetConstructor = ctor
	}
	if ns, ok := cfg.nullSubstitutor(srcType, destType); ok {
		root.NullSubstitutor = ns
	}
	if pp, ok := cfg.postProcessor(destType); ok {
		root.ValuesPostProcessor = pp
	}
	if conv, ok := cfg.converter(srcType, destType); ok {
		root.Converter = conv
	}
	if sf, ok := cfg.sourceFilter(srcType); ok {
		root.SourceFilter = sf
	}
	if df, ok := cfg.destinationFilter(destType); ok {
		root.DestinationFilter = df
	}
	root.ShallowCopy = cfg.isShallowCopy()

	return root, nil
}

// buildMemberOps implements steps 1-3 and 5 of §4.3: enumerate writable
// destination members and readable source members (taking destination
// members from destType, the second type, per the GetCommonMembers fix
// noted in SPEC_FULL.md §4.3), match by name, skip ignored pairs, and emit
// a ReadWriteSimple or ReadWriteComplex node per matched pair.
func (pb *planBuilder) buildMemberOps(srcType, destType reflect.Type) ([]Operation, error) {
	key := pairKey(srcType, destType)

	if cached, ok := pb.memo[key]; ok {
		return cached, nil
	}
	if pb.ancestors[key] {
		if pb.cycleErr == nil {
			pb.cycleErr = &CycleError{Path: append(append([]reflect.Type{}, pb.path...), destType)}
		}
		return nil, nil
	}

	pb.ancestors[key] = true
	pb.path = append(pb.path, destType)
	defer func() {
		delete(pb.ancestors, key)
		pb.path = pb.path[:len(pb.path)-1]
	}()

	destMembers := sharedIntrospector.publicMembers(destType, pb.cfg.MapMethods)
	srcMembers := sharedIntrospector.publicMembers(srcType, pb.cfg.MapMethods)

	var ops []Operation
	for _, d := range destMembers {
		if !d.Writable {
			continue
		}
		s, ok := pb.matchSource(d, srcMembers)
		if !ok {
			continue
		}
		if pb.cfg.isIgnored(srcType, destType, s.Name, d.Name) {
			continue
		}

		op, err := pb.buildMemberOperation(s, d)
		if err != nil {
			return nil, err
		}
		if op != nil {
			ops = append(ops, op)
		}
	}

	pb.memo[key] = ops
	return ops, nil
}

func (pb *planBuilder) matchSource(d MemberDescriptor, srcMembers []MemberDescriptor) (MemberDescriptor, bool) {
	destStripped := pb.cfg.stripAffixes(d.Name, pb.cfg.DestinationPrefixes, pb.cfg.DestinationPostfixes)
	for _, s := range srcMembers {
		if !s.Readable {
			continue
		}
		srcStripped := pb.cfg.stripAffixes(s.Name, pb.cfg.SourcePrefixes, pb.cfg.SourcePostfixes)
		if srcStripped == destStripped {
			return s, true
		}
	}
	return MemberDescriptor{}, false
}

func (pb *planBuilder) buildMemberOperation(s, d MemberDescriptor) (Operation, error) {
	if isSimpleDestination(pb.cfg, s.ValueType, d.ValueType) {
		conv, err := pb.resolveMemberConverter(s, d)
		if err != nil {
			return nil, err
		}
		leaf := ReadWriteSimple{
			Source:      s,
			Destination: d,
			Converter:   conv,
		}
		if ns, ok := pb.cfg.nullSubstitutor(underlying(s.ValueType), underlying(d.ValueType)); ok {
			leaf.NullSubstitutor = ns
		}
		if ctor, ok := pb.cfg.constructor(d.ValueType); ok {
			leaf.TargetConstructor = ctor
		}
		if sf, ok := pb.cfg.sourceFilter(s.ValueType); ok {
			leaf.SourceFilter = sf
		}
		if df, ok := pb.cfg.destinationFilter(d.ValueType); ok {
			leaf.DestinationFilter = df
		}
		return leaf, nil
	}

	// Complex: recurse, unless a converter already resolves the whole
	// member (checked by isSimpleDestination above) - so here the pair is
	// always a struct-like recursion target.
	childOps, err := pb.buildMemberOps(s.ValueType, d.ValueType)
	if err != nil {
		return nil, err
	}

	complex := ReadWriteComplex{
		Source:      s,
		Destination: d,
		Operations:  childOps,
	}
	if ctor, ok := pb.cfg.constructor(d.ValueType); ok {
		complex.TargetConstructor = ctor
	}
	if pp, ok := pb.cfg.postProcessor(d.ValueType); ok {
		complex.ValuesPostProcessor = pp
	}
	return complex, nil
}

// resolveMemberConverter implements the generic converter resolution of
// §4.3: a direct user converter, then a process/config static scalar
// conversion, then a matching generic converter provider, then identity
// (same type, or a nullable unwrap of the same underlying type). Anything
// else between two scalar-classified types is a construction-time
// ConfigurationError — spec.md §4.5 forbids implicit narrowing.
func (pb *planBuilder) resolveMemberConverter(s, d MemberDescriptor) (ConverterFunc, error) {
	sv, dv := s.ValueType, d.ValueType

	if conv, ok := pb.cfg.converter(sv, dv); ok {
		return conv, nil
	}
	if f, ok := resolveScalarConverter(pb.cfg, sv, dv); ok {
		return f, nil
	}
	if desc, ok := pb.cfg.matchGenericProvider(sv, dv); ok {
		return materializeGenericConverter(desc, sv, dv, pb.cfg)
	}
	if sv == dv {
		return nil, nil
	}
	if isNullable(sv) && !isNullable(dv) && sv.Elem() == dv {
		return nil, nil
	}
	if !isNullable(sv) && isNullable(dv) && dv.Elem() == sv {
		return nil, nil
	}
	return nil, &ConfigurationError{
		Source: sv, Dest: dv, Field: d.Name,
		Reason: "no conversion available between incompatible scalar types",
	}
}

// isSimpleDestination reports whether (sv, dv) should be emitted as a leaf
// ReadWriteSimple rather than recursed into: dv is a primitive, string,
// enum (scalar) or nullable thereof, or a converter (direct or generic)
// applies.
func isSimpleDestination(cfg *Configuration, sv, dv reflect.Type) bool {
	core := dv
	if isNullable(core) {
		core = core.Elem()
	}
	if isScalarKind(core) {
		return true
	}
	if _, ok := cfg.converter(sv, dv); ok {
		return true
	}
	if _, ok := resolveScalarConverter(cfg, sv, dv); ok {
		return true
	}
	if _, ok := cfg.matchGenericProvider(sv, dv); ok {
		return true
	}
	return false
}

// materializeGenericConverter implements §4.3's generic converter
// materialization: instantiate desc.ImplType, call Initialize when
// supported, and bind desc.MethodName as the scalar converter.
func materializeGenericConverter(desc ConverterDescriptor, from, to reflect.Type, cfg *Configuration) (ConverterFunc, error) {
	implType := desc.ImplType
	if implType.Kind() != reflect.Ptr {
		return nil, &ConfigurationError{Source: from, Dest: to, Reason: "generic converter impl type must be a pointer"}
	}

	instanceVal := reflect.New(implType.Elem())
	instance := instanceVal.Interface()

	if init, ok := instance.(Initializer); ok {
		if err := init.Initialize(from, to, cfg); err != nil {
			return nil, &ConfigurationError{Source: from, Dest: to, Reason: "generic converter initialization failed", Inner: err}
		}
	}

	method := instanceVal.MethodByName(desc.MethodName)
	if !method.IsValid() {
		return nil, &ConfigurationError{Source: from, Dest: to, Reason: "generic converter method " + desc.MethodName + " not found"}
	}

	methodType := method.Type()
	anyType := methodType.In(0)
	stateType := methodType.In(1)

	return func(src any, state State) (any, error) {
		srcArg := reflect.Zero(anyType)
		if src != nil {
			srcArg = reflect.ValueOf(src)
		}
		stateArg := reflect.Zero(stateType)
		if state != nil {
			stateArg = reflect.ValueOf(state)
		}
		results := method.Call([]reflect.Value{srcArg, stateArg})
		out := results[0].Interface()
		var err error
		if !results[1].IsNil() {
			err = results[1].Interface().(error)
		}
		return out, err
	}, nil
}

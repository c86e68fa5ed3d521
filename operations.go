package automapper

import "reflect"

// Operation is the tagged-variant interface implemented by every mapping
// operation tree node. Execution dispatches on the concrete type via a
// type switch (see executor.go), never via an inheritance hierarchy.
type Operation interface {
	isOperation()
}

// ReadWriteSimple is a leaf operation copying one source member to one
// destination member, applying conversion, null substitution, and filters
// along the way.
type ReadWriteSimple struct {
	Source      MemberDescriptor
	Destination MemberDescriptor

	NullSubstitutor    NullSubstitutorFunc
	TargetConstructor  ConstructorFunc
	Converter          ConverterFunc
	SourceFilter       FilterFunc
	DestinationFilter  FilterFunc
}

func (ReadWriteSimple) isOperation() {}

// ReadWriteComplex recurses into a nested destination object: it reads one
// source member, constructs (or reuses) the nested destination value, and
// executes its own operations against that nested pair.
type ReadWriteComplex struct {
	Source      MemberDescriptor
	Destination MemberDescriptor

	ValuesPostProcessor PostProcessorFunc
	TargetConstructor   ConstructorFunc
	Operations          []Operation
}

func (ReadWriteComplex) isOperation() {}

// OperationsBlock groups operations with no read/write semantics of its
// own. The planner does not emit it: a cycle it refuses to recurse into
// ends the build with a *CycleError instead.
type OperationsBlock struct {
	Operations []Operation
}

func (OperationsBlock) isOperation() {}

// Root is the root of every plan: it supplies whole-object policies
// (constructor, null substitution, post-processing, a whole-object
// converter, and source/destination filters) alongside the member
// operations.
type Root struct {
	FromType reflect.Type
	ToType   reflect.Type

	TargetConstructor   ConstructorFunc
	NullSubstitutor     NullSubstitutorFunc
	ValuesPostProcessor PostProcessorFunc
	Converter           ConverterFunc
	SourceFilter        FilterFunc
	DestinationFilter   FilterFunc
	ShallowCopy         bool

	Operations []Operation
}

func (Root) isOperation() {}

// SrcRead is used by consumers that read a source member but write to a
// non-object destination, such as a bound query parameter. The planner
// never emits it.
type SrcRead struct {
	Source MemberDescriptor
}

func (SrcRead) isOperation() {}

// DstWrite is used by consumers that write to a non-object destination
// without reading a specific source member directly (the value arrives
// through some other channel, e.g. a parameter binder).
type DstWrite struct {
	Destination MemberDescriptor
}

func (DstWrite) isOperation() {}

// StoredOperations flattens the ReadWriteSimple leaves of op, in
// declaration order, for use by external metadata consumers (§6).
func StoredOperations(op Operation) []ReadWriteSimple {
	var out []ReadWriteSimple
	collectLeaves(op, &out)
	return out
}

func collectLeaves(op Operation, out *[]ReadWriteSimple) {
	switch n := op.(type) {
	case Root:
		for _, child := range n.Operations {
			collectLeaves(child, out)
		}
	case OperationsBlock:
		for _, child := range n.Operations {
			collectLeaves(child, out)
		}
	case ReadWriteComplex:
		for _, child := range n.Operations {
			collectLeaves(child, out)
		}
	case ReadWriteSimple:
		*out = append(*out, n)
	}
}

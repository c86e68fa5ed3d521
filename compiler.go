package automapper

import "reflect"

// Compiler turns a built Root operation tree into an Executor. Manager
// calls the configured Compiler once per (source, destination,
// configuration name) cache miss and stores the result.
//
// The default Compiler, reflectInterpreterCompiler, walks the tree directly
// with reflection on every call (§9(c)). A from-scratch bytecode or
// generated-code backend would implement this same interface; the package
// does not ship one, since expressing the other variant from §9 ("type
// parameters over Root") requires the value types to be known at compile
// time, which an erased reflect.Type pair cannot provide. Root and Executor
// are defined in this package rather than a sub-package so a pluggable
// Compiler never needs to import back into automapper to use them.
type Compiler interface {
	Compile(root Root, destType reflect.Type) (Executor, error)
}

// reflectInterpreterCompiler is the built-in Compiler.
type reflectInterpreterCompiler struct{}

func (reflectInterpreterCompiler) Compile(root Root, destType reflect.Type) (Executor, error) {
	return newReflectExecutor(root, destType), nil
}

// DefaultCompiler is the Compiler every new Manager starts with.
var DefaultCompiler Compiler = reflectInterpreterCompiler{}

// Package automapper provides an object-to-object mapping engine for Go.
//
// Given a source value of type S and a destination type D, the engine
// computes an instance of D whose members are populated from the
// corresponding members of S, following a user-declared Configuration
// (member ignores, null substitution, custom constructors, custom and
// generic converters, source/destination filters, post-processors).
//
// Mappings are compiled once per (S, D, configuration name) triple into a
// specialized Executor, cached by a Manager and reused for every
// subsequent mapping of that triple.
//
// Basic usage:
//
//	mgr := automapper.NewManager()
//	cfg := automapper.NewConfiguration()
//	dest, err := automapper.Map[Source, Dest](mgr, cfg, src, context.Background())
//
// Key features:
//   - Automatic member matching by name, with configurable prefix/postfix
//     stripping (e.g. Name <- GetName with source prefix "Get")
//   - Recursion into nested destination types
//   - Collection-to-array conversion, same-type and cross-type
//   - Custom converters, including generic converter providers
//   - Null substitution, source/destination filters, post-processors
//   - A process-wide cache keyed by (source type, dest type, config name)
package automapper

package automapper

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
)

// State carries ambient call data (cancellation, request-scoped values)
// through null-substitutors, filters, and post-processors. It is a plain
// alias for context.Context so callers thread an ordinary context through
// a Map call.
type State = context.Context

// ConverterFunc converts an erased source value to an erased destination
// value. Generic registration helpers (ConvertUsing) produce these from
// strongly typed functions.
type ConverterFunc func(src any, state State) (any, error)

// NullSubstitutorFunc produces a replacement value when a source member is
// absent and no destination value could be read.
type NullSubstitutorFunc func(state State) (any, error)

// ConstructorFunc produces a fresh destination instance.
type ConstructorFunc func(state State) (any, error)

// PostProcessorFunc transforms a fully mapped value before it is returned.
type PostProcessorFunc func(value any, state State) (any, error)

// FilterFunc decides whether a value should participate in mapping.
// Returning false vetoes the read (SourceFilter) or the write
// (DestinationFilter); it is never treated as an error.
type FilterFunc func(value any, state State) bool

// Initializer is implemented by a generic converter's materialized
// instance when it needs configuration-time setup before its bound method
// is callable as a converter.
type Initializer interface {
	Initialize(from, to reflect.Type, cfg *Configuration) error
}

// ConverterDescriptor names the concrete converter a GenericConverterProvider
// resolves for one (from, to) pair: the type to instantiate, its type
// arguments, and the method to bind as the scalar converter.
type ConverterDescriptor struct {
	ImplType   reflect.Type
	TypeArgs   []reflect.Type
	MethodName string
}

// TypePattern matches a reflect.Type against a pattern: a concrete type, an
// open generic shape (e.g. "any slice"), or an array/collection shape.
// Describe is used only for the configuration name summary.
type TypePattern struct {
	Describe string
	Match    func(reflect.Type) bool
}

// AnyCollectionPattern matches any slice or array type.
func AnyCollectionPattern() TypePattern {
	return TypePattern{Describe: "Collection<_>", Match: isCollection}
}

// AnySlicePattern matches any slice type (the canonical "Array" destination
// pattern of the built-in collection provider).
func AnySlicePattern() TypePattern {
	return TypePattern{Describe: "Array", Match: func(t reflect.Type) bool {
		return t != nil && t.Kind() == reflect.Slice
	}}
}

// ConcreteTypePattern matches exactly t.
func ConcreteTypePattern(t reflect.Type) TypePattern {
	return TypePattern{Describe: t.String(), Match: func(candidate reflect.Type) bool {
		return candidate == t
	}}
}

// GenericConverterProvider resolves a ConverterDescriptor for a concrete
// (from, to) pair matching this provider's registered patterns.
type GenericConverterProvider interface {
	Provide(from, to reflect.Type) (ConverterDescriptor, bool)
}

type genericProviderEntry struct {
	from     TypePattern
	to       TypePattern
	provider GenericConverterProvider
}

type ignoreEntry struct {
	pair  typekey
	names map[string]struct{}
}

// Configuration is a record of user registrations: converters, null
// substitutors, constructors, post-processors, source/destination
// filters, ignored members, and generic converter providers, plus a
// derived configuration name used as the cache discriminator.
//
// A Configuration is not thread-safe during construction. Once passed to a
// Manager it must not be mutated further; the manager snapshots its name
// on first use and treats the configuration as frozen thereafter.
type Configuration struct {
	mu sync.Mutex

	converters        map[typekey]ConverterFunc
	nullSubstitutors  map[typekey]NullSubstitutorFunc
	constructors      map[typekey]ConstructorFunc
	postProcessors    map[typekey]PostProcessorFunc
	sourceFilters     map[typekey]FilterFunc
	destFilters       map[typekey]FilterFunc
	ignoredMembers    map[typekey]*ignoreEntry
	genericProviders  []genericProviderEntry

	// SourcePrefixes/SourcePostfixes/DestinationPrefixes/DestinationPostfixes
	// are stripped from member names before name matching, supporting
	// flattened member pairs like GetName/Name or NameDto/Name.
	SourcePrefixes        []string
	SourcePostfixes       []string
	DestinationPrefixes   []string
	DestinationPostfixes  []string

	// StaticConverters overrides the package-level default static
	// converters registry for scalar element conversions resolved by the
	// collection generic provider.
	StaticConverters *StaticConverterRegistry

	// MapMethods enables surfacing zero-argument, non-error-returning
	// methods as read-only members (§4.1).
	MapMethods bool

	// shallowCopy, set via SetShallowCopy, widens the collection provider's
	// same-element-type fast path (§4.4) to element types that are not
	// value kinds: elements are copied by plain assignment instead of being
	// routed through a resolved element converter.
	shallowCopy bool

	// OnMappingWarning holds a handler for non-fatal mapping conditions.
	// The executor does not call it: a vetoed write is skipped silently,
	// and a collection element with no resolvable converter fails the Map
	// call with an error.
	OnMappingWarning func(state State, srcField, dstField string, err error)

	nameOverride string
	frozenName   string
	frozen       bool
	boundManager *Manager
}

// NewConfiguration returns a Configuration with the default collection
// generic provider registered.
func NewConfiguration() *Configuration {
	cfg := &Configuration{
		converters:       make(map[typekey]ConverterFunc),
		nullSubstitutors: make(map[typekey]NullSubstitutorFunc),
		constructors:     make(map[typekey]ConstructorFunc),
		postProcessors:   make(map[typekey]PostProcessorFunc),
		sourceFilters:    make(map[typekey]FilterFunc),
		destFilters:      make(map[typekey]FilterFunc),
		ignoredMembers:   make(map[typekey]*ignoreEntry),
	}
	RegisterCollectionToArray(cfg)
	return cfg
}

// ConvertUsing registers a strongly typed converter for (From, To).
func ConvertUsing[From, To any](cfg *Configuration, f func(From) (To, error)) {
	var from From
	var to To
	key := pairKey(reflect.TypeOf(from), reflect.TypeOf(to))

	cfg.mu.Lock()
	defer cfg.mu.Unlock()
	cfg.converters[key] = func(src any, _ State) (any, error) {
		typed, ok := src.(From)
		if !ok {
			return nil, &ConfigurationError{Reason: "converter received unexpected source type"}
		}
		return f(typed)
	}
}

// ConvertGeneric registers a generic converter provider matching the given
// source/destination patterns.
func ConvertGeneric(cfg *Configuration, from, to TypePattern, provider GenericConverterProvider) {
	cfg.mu.Lock()
	defer cfg.mu.Unlock()
	cfg.genericProviders = append(cfg.genericProviders, genericProviderEntry{from: from, to: to, provider: provider})
}

// NullSubstitution registers a substitute-value producer for (From, To),
// invoked when a From-typed source member is absent.
func NullSubstitution[From, To any](cfg *Configuration, f func(state State) (To, error)) {
	var from From
	var to To
	key := pairKey(reflect.TypeOf(from), reflect.TypeOf(to))

	cfg.mu.Lock()
	defer cfg.mu.Unlock()
	cfg.nullSubstitutors[key] = func(state State) (any, error) {
		return f(state)
	}
}

// IgnoreMembers accumulates member names that must not appear in any leaf
// of the (from, to) plan, matched against either the source or destination
// member name.
func IgnoreMembers(cfg *Configuration, from, to reflect.Type, names ...string) {
	key := pairKey(from, to)

	cfg.mu.Lock()
	defer cfg.mu.Unlock()
	entry, ok := cfg.ignoredMembers[key]
	if !ok {
		entry = &ignoreEntry{pair: key, names: make(map[string]struct{})}
		cfg.ignoredMembers[key] = entry
	}
	for _, n := range names {
		entry.names[n] = struct{}{}
	}
}

// ConstructBy registers a custom constructor for T.
func ConstructBy[T any](cfg *Configuration, f func(state State) (T, error)) {
	var t T
	key := singleKey(reflect.TypeOf(t))

	cfg.mu.Lock()
	defer cfg.mu.Unlock()
	cfg.constructors[key] = func(state State) (any, error) {
		return f(state)
	}
}

// PostProcess registers a post-processing function invoked after a T is
// fully mapped, free to return a replacement value.
func PostProcess[T any](cfg *Configuration, f func(v T, state State) (T, error)) {
	var t T
	key := singleKey(reflect.TypeOf(t))

	cfg.mu.Lock()
	defer cfg.mu.Unlock()
	cfg.postProcessors[key] = func(v any, state State) (any, error) {
		typed, ok := v.(T)
		if !ok {
			return v, nil
		}
		return f(typed, state)
	}
}

// FilterSource registers a source-side filter for T: when it returns
// false, the mapping of that value is skipped and the destination is
// returned unchanged.
func FilterSource[T any](cfg *Configuration, f func(v T, state State) bool) {
	var t T
	key := singleKey(reflect.TypeOf(t))

	cfg.mu.Lock()
	defer cfg.mu.Unlock()
	cfg.sourceFilters[key] = func(v any, state State) bool {
		typed, ok := v.(T)
		if !ok {
			return true
		}
		return f(typed, state)
	}
}

// FilterDestination registers a destination-side filter for T: when it
// returns false, the write of that value is skipped.
func FilterDestination[T any](cfg *Configuration, f func(v T, state State) bool) {
	var t T
	key := singleKey(reflect.TypeOf(t))

	cfg.mu.Lock()
	defer cfg.mu.Unlock()
	cfg.destFilters[key] = func(v any, state State) bool {
		typed, ok := v.(T)
		if !ok {
			return true
		}
		return f(typed, state)
	}
}

// SetConfigName overrides the derived configuration name.
func (cfg *Configuration) SetConfigName(name string) {
	cfg.mu.Lock()
	defer cfg.mu.Unlock()
	cfg.nameOverride = name
}

// SetShallowCopy enables or disables shallow-copy collection conversion
// (§4.4): when enabled, Collection<E> -> []E conversion for a same-element
// type takes the identity fast path even when E is not a value kind,
// bypassing any registered element converter.
func SetShallowCopy(cfg *Configuration, enabled bool) {
	cfg.mu.Lock()
	defer cfg.mu.Unlock()
	cfg.shallowCopy = enabled
}

// Name computes (or returns the already-frozen) deterministic
// configuration name: the concatenation, delimited by ";", of sorted
// textual summaries of every registration map. Two configurations built
// from an equal set of registrations share this name and, in turn, share
// cache entries.
func (cfg *Configuration) Name() string {
	cfg.mu.Lock()
	defer cfg.mu.Unlock()
	return cfg.nameLocked()
}

func (cfg *Configuration) nameLocked() string {
	if cfg.frozen {
		return cfg.frozenName
	}
	if cfg.nameOverride != "" {
		return cfg.nameOverride
	}

	var parts []string
	parts = append(parts, summarizeConverters("Conv", cfg.converters)...)
	parts = append(parts, summarizeNullSubs(cfg.nullSubstitutors)...)
	parts = append(parts, summarizeSingleKeyed("Ctor", cfg.constructors)...)
	parts = append(parts, summarizeSingleKeyedPost(cfg.postProcessors)...)
	parts = append(parts, summarizeSingleKeyedFilter("SrcFilter", cfg.sourceFilters)...)
	parts = append(parts, summarizeSingleKeyedFilter("DstFilter", cfg.destFilters)...)
	parts = append(parts, summarizeIgnores(cfg.ignoredMembers)...)
	for i, g := range cfg.genericProviders {
		parts = append(parts, fmt.Sprintf("Generic:%d:%s->%s:%T", i, g.from.Describe, g.to.Describe, g.provider))
	}
	if len(cfg.SourcePrefixes) > 0 || len(cfg.SourcePostfixes) > 0 ||
		len(cfg.DestinationPrefixes) > 0 || len(cfg.DestinationPostfixes) > 0 {
		parts = append(parts, fmt.Sprintf("Affix:%v/%v/%v/%v",
			cfg.SourcePrefixes, cfg.SourcePostfixes, cfg.DestinationPrefixes, cfg.DestinationPostfixes))
	}
	if cfg.MapMethods {
		parts = append(parts, "MapMethods:true")
	}
	if cfg.shallowCopy {
		parts = append(parts, "ShallowCopy:true")
	}

	sort.Strings(parts)
	return strings.Join(parts, ";")
}

// freeze snapshots the configuration's name and binds it to mgr so later
// mutation of the same *Configuration instance has no effect on
// already-cached executors. It is called by Manager.Get on first use of a
// configuration; boundManager is set only once, alongside frozenName, under
// cfg.mu, so concurrent callers racing into Get for the same *Configuration
// never observe a torn or unsynchronized write.
func (cfg *Configuration) freeze(mgr *Manager) string {
	cfg.mu.Lock()
	defer cfg.mu.Unlock()
	if !cfg.frozen {
		cfg.frozenName = cfg.nameLocked()
		cfg.boundManager = mgr
		cfg.frozen = true
	}
	return cfg.frozenName
}

func (cfg *Configuration) isShallowCopy() bool {
	cfg.mu.Lock()
	defer cfg.mu.Unlock()
	return cfg.shallowCopy
}

func (cfg *Configuration) manager() *Manager {
	cfg.mu.Lock()
	defer cfg.mu.Unlock()
	return cfg.boundManager
}

func summarizeConverters(tag string, m map[typekey]ConverterFunc) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, fmt.Sprintf("%s:%s->%s", tag, k.types[0], k.types[1]))
	}
	return out
}

func summarizeNullSubs(m map[typekey]NullSubstitutorFunc) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, fmt.Sprintf("Null:%s->%s", k.types[0], k.types[1]))
	}
	return out
}

func summarizeSingleKeyed(tag string, m map[typekey]ConstructorFunc) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, fmt.Sprintf("%s:%s", tag, k.types[0]))
	}
	return out
}

func summarizeSingleKeyedPost(m map[typekey]PostProcessorFunc) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, fmt.Sprintf("Post:%s", k.types[0]))
	}
	return out
}

func summarizeSingleKeyedFilter(tag string, m map[typekey]FilterFunc) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, fmt.Sprintf("%s:%s", tag, k.types[0]))
	}
	return out
}

func summarizeIgnores(m map[typekey]*ignoreEntry) []string {
	out := make([]string, 0, len(m))
	for k, e := range m {
		names := make([]string, 0, len(e.names))
		for n := range e.names {
			names = append(names, n)
		}
		sort.Strings(names)
		out = append(out, fmt.Sprintf("Ignore:%s->%s:%s", k.types[0], k.types[1], strings.Join(names, ",")))
	}
	return out
}

// lookups used by planner.go / executor.go

func (cfg *Configuration) converter(from, to reflect.Type) (ConverterFunc, bool) {
	cfg.mu.Lock()
	defer cfg.mu.Unlock()
	c, ok := cfg.converters[pairKey(from, to)]
	return c, ok
}

func (cfg *Configuration) nullSubstitutor(from, to reflect.Type) (NullSubstitutorFunc, bool) {
	cfg.mu.Lock()
	defer cfg.mu.Unlock()
	f, ok := cfg.nullSubstitutors[pairKey(from, to)]
	return f, ok
}

func (cfg *Configuration) constructor(t reflect.Type) (ConstructorFunc, bool) {
	cfg.mu.Lock()
	defer cfg.mu.Unlock()
	f, ok := cfg.constructors[singleKey(t)]
	return f, ok
}

func (cfg *Configuration) postProcessor(t reflect.Type) (PostProcessorFunc, bool) {
	cfg.mu.Lock()
	defer cfg.mu.Unlock()
	f, ok := cfg.postProcessors[singleKey(t)]
	return f, ok
}

func (cfg *Configuration) sourceFilter(t reflect.Type) (FilterFunc, bool) {
	cfg.mu.Lock()
	defer cfg.mu.Unlock()
	f, ok := cfg.sourceFilters[singleKey(t)]
	return f, ok
}

func (cfg *Configuration) destinationFilter(t reflect.Type) (FilterFunc, bool) {
	cfg.mu.Lock()
	defer cfg.mu.Unlock()
	f, ok := cfg.destFilters[singleKey(t)]
	return f, ok
}

func (cfg *Configuration) isIgnored(from, to reflect.Type, sourceName, destName string) bool {
	cfg.mu.Lock()
	defer cfg.mu.Unlock()
	entry, ok := cfg.ignoredMembers[pairKey(from, to)]
	if !ok {
		return false
	}
	if _, ignored := entry.names[sourceName]; ignored {
		return true
	}
	if _, ignored := entry.names[destName]; ignored {
		return true
	}
	return false
}

func (cfg *Configuration) matchGenericProvider(from, to reflect.Type) (ConverterDescriptor, bool) {
	cfg.mu.Lock()
	providers := make([]genericProviderEntry, len(cfg.genericProviders))
	copy(providers, cfg.genericProviders)
	cfg.mu.Unlock()

	for _, entry := range providers {
		if entry.from.Match == nil || entry.to.Match == nil {
			continue
		}
		if !entry.from.Match(from) || !entry.to.Match(to) {
			continue
		}
		if desc, ok := entry.provider.Provide(from, to); ok {
			return desc, true
		}
	}
	return ConverterDescriptor{}, false
}

func (cfg *Configuration) staticRegistry() *StaticConverterRegistry {
	cfg.mu.Lock()
	defer cfg.mu.Unlock()
	if cfg.StaticConverters != nil {
		return cfg.StaticConverters
	}
	return DefaultStaticRegistry
}

func (cfg *Configuration) warn(state State, srcField, dstField string, err error) {
	cfg.mu.Lock()
	handler := cfg.OnMappingWarning
	cfg.mu.Unlock()
	if handler != nil {
		handler(state, srcField, dstField, err)
	}
}

func (cfg *Configuration) stripAffixes(name string, prefixes, postfixes []string) string {
	for _, p := range prefixes {
		if strings.HasPrefix(name, p) {
			name = strings.TrimPrefix(name, p)
			break
		}
	}
	for _, p := range postfixes {
		if strings.HasSuffix(name, p) {
			name = strings.TrimSuffix(name, p)
			break
		}
	}
	return name
}

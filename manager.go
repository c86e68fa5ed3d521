package automapper

import (
	"reflect"
	"sync"

	"github.com/mapforge/automapper/internal/xlog"
)

const managerStripeCount = 32

// cacheKey is the cache-equivalence key named in §5: a (source type,
// destination type, configuration name) triple.
type cacheKey struct {
	src, dest reflect.Type
	cfgName   string
}

type cacheEntry struct {
	executor Executor
	err      error
}

// Manager is the cache of compiled executors. It is safe for concurrent
// use: a Get for a (source, destination, configuration) triple not seen
// before compiles and caches it exactly once, even under concurrent
// callers, via a striped lock keyed by the same triple (§5's
// "striped lock or double-checked insert" allowance).
type Manager struct {
	entries  sync.Map // cacheKey -> *cacheEntry
	stripes  [managerStripeCount]sync.Mutex
	compiler Compiler
	logger   *xlog.Logger
}

// NewManager returns a Manager using DefaultCompiler and a default logger.
func NewManager() *Manager {
	return &Manager{
		compiler: DefaultCompiler,
		logger:   xlog.Default(),
	}
}

// WithCompiler returns a shallow copy of m using compiler instead of
// DefaultCompiler. It shares no cache state with m.
func (m *Manager) WithCompiler(compiler Compiler) *Manager {
	return &Manager{compiler: compiler, logger: m.logger}
}

var (
	defaultManagerOnce sync.Once
	defaultManager     *Manager
)

// DefaultManager returns the process-wide singleton Manager, lazily built
// on first call.
func DefaultManager() *Manager {
	defaultManagerOnce.Do(func() {
		defaultManager = NewManager()
	})
	return defaultManager
}

// Get returns the cached Executor for (src, dest) under cfg, compiling and
// caching it on the first request. cfg's configuration name is frozen (see
// Configuration.freeze) on first use; later mutation of the same
// *Configuration has no effect on already-cached executors.
func (m *Manager) Get(src, dest reflect.Type, cfg *Configuration) (Executor, error) {
	if cfg == nil {
		cfg = NewConfiguration()
	}
	name := cfg.freeze(m)
	key := cacheKey{src: src, dest: dest, cfgName: name}

	if v, ok := m.entries.Load(key); ok {
		entry := v.(*cacheEntry)
		return entry.executor, entry.err
	}

	stripe := &m.stripes[m.stripeIndex(key)]
	stripe.Lock()
	defer stripe.Unlock()

	// Double-checked: another goroutine may have populated the entry while
	// we waited for the stripe.
	if v, ok := m.entries.Load(key); ok {
		entry := v.(*cacheEntry)
		return entry.executor, entry.err
	}

	executor, err := m.compile(src, dest, cfg)
	m.entries.Store(key, &cacheEntry{executor: executor, err: err})
	if err != nil {
		m.logger.Warn("failed to compile executor", "source", src, "dest", dest, "config", name, "error", err)
	} else {
		m.logger.Debug("compiled new executor", "source", src, "dest", dest, "config", name)
	}
	return executor, err
}

// GetWithMetadata is Get plus the compiled executor's stored operation
// leaves, for metadata consumers that need member names without
// re-walking the tree themselves.
func (m *Manager) GetWithMetadata(src, dest reflect.Type, cfg *Configuration) (Executor, []ReadWriteSimple, error) {
	exec, err := m.Get(src, dest, cfg)
	if err != nil {
		return nil, nil, err
	}
	return exec, exec.StoredOperations(), nil
}

func (m *Manager) compile(src, dest reflect.Type, cfg *Configuration) (Executor, error) {
	root, err := buildPlan(src, dest, cfg)
	if err != nil {
		return nil, err
	}
	compiler := m.compiler
	if compiler == nil {
		compiler = DefaultCompiler
	}
	return compiler.Compile(root, dest)
}

func (m *Manager) stripeIndex(key cacheKey) uint32 {
	h := fnv32a("")
	h = fnv32aString(h, key.src.String())
	h = fnv32aString(h, "|")
	h = fnv32aString(h, key.dest.String())
	h = fnv32aString(h, "|")
	h = fnv32aString(h, key.cfgName)
	return h % managerStripeCount
}

func fnv32a(seed string) uint32 {
	const offset32 = 2166136261
	return fnv32aString(offset32, seed)
}

func fnv32aString(h uint32, s string) uint32 {
	const prime32 = 16777619
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= prime32
	}
	return h
}

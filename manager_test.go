package automapper

import (
	"reflect"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type cacheSrc struct{ A int }
type cacheDst struct{ A int }

func TestManagerGetCachesExecutor(t *testing.T) {
	mgr := NewManager()
	cfg := NewConfiguration()

	first, err := mgr.Get(reflect.TypeOf(cacheSrc{}), reflect.TypeOf(cacheDst{}), cfg)
	require.NoError(t, err)

	second, err := mgr.Get(reflect.TypeOf(cacheSrc{}), reflect.TypeOf(cacheDst{}), cfg)
	require.NoError(t, err)

	require.Same(t, first, second, "repeated Get for the same triple must return the identical cached Executor")
}

func TestManagerGetCachesByConfigurationName(t *testing.T) {
	mgr := NewManager()

	plain, err := mgr.Get(reflect.TypeOf(cacheSrc{}), reflect.TypeOf(cacheDst{}), NewConfiguration())
	require.NoError(t, err)

	other := NewConfiguration()
	IgnoreMembers(other, reflect.TypeOf(cacheSrc{}), reflect.TypeOf(cacheDst{}), "A")
	withIgnore, err := mgr.Get(reflect.TypeOf(cacheSrc{}), reflect.TypeOf(cacheDst{}), other)
	require.NoError(t, err)

	require.NotSame(t, plain, withIgnore, "distinct configuration names must not share a cache entry")
}

func TestManagerGetCachesConfigurationErrors(t *testing.T) {
	type S struct{ V complex128 }
	type D struct{ V string }

	mgr := NewManager()
	cfg := NewConfiguration()

	_, err1 := mgr.Get(reflect.TypeOf(S{}), reflect.TypeOf(D{}), cfg)
	require.Error(t, err1)

	_, err2 := mgr.Get(reflect.TypeOf(S{}), reflect.TypeOf(D{}), cfg)
	require.Error(t, err2)
	require.Equal(t, err1.Error(), err2.Error())
}

func TestManagerConcurrentGetBuildsOnce(t *testing.T) {
	mgr := NewManager()
	cfg := NewConfiguration()

	const goroutines = 64
	results := make([]Executor, goroutines)
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func(i int) {
			defer wg.Done()
			exec, err := mgr.Get(reflect.TypeOf(cacheSrc{}), reflect.TypeOf(cacheDst{}), cfg)
			require.NoError(t, err)
			results[i] = exec
		}(i)
	}
	wg.Wait()

	for _, exec := range results {
		require.Same(t, results[0], exec)
	}
}

func TestDefaultManagerIsSingleton(t *testing.T) {
	require.Same(t, DefaultManager(), DefaultManager())
}

func TestNewManagerIsIsolatedFromDefault(t *testing.T) {
	require.NotSame(t, NewManager(), DefaultManager())
}

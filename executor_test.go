package automapper

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"
)

type addressSrc struct {
	Street string
	City   string
}

type addressDst struct {
	Street string
	City   string
}

type personSrc struct {
	Name    string
	Address addressSrc
}

type personDst struct {
	Name    string
	Address addressDst
}

func TestExecutorMapsNestedStruct(t *testing.T) {
	mgr := NewManager()
	cfg := NewConfiguration()

	dest, err := Map[personSrc, personDst](mgr, cfg, personSrc{
		Name:    "Ada",
		Address: addressSrc{Street: "Main St", City: "Springfield"},
	}, nil)

	require.NoError(t, err)
	require.Equal(t, personDst{Name: "Ada", Address: addressDst{Street: "Main St", City: "Springfield"}}, dest)
}

func TestExecutorSourceFilterVeto(t *testing.T) {
	type S struct{ A int }
	type D struct{ A int }

	cfg := NewConfiguration()
	FilterSource[S](cfg, func(v S, state State) bool { return v.A > 0 })
	mgr := NewManager()

	dest, err := Map[S, D](mgr, cfg, S{A: -1}, nil)
	require.NoError(t, err)
	require.Equal(t, D{A: 0}, dest, "vetoed source should leave destination at its zero value")
}

func TestExecutorWholeObjectConverterShortcuts(t *testing.T) {
	type S struct{ A int }
	type D struct{ A int }

	cfg := NewConfiguration()
	ConvertUsing[S, D](cfg, func(s S) (D, error) {
		return D{A: s.A * 100}, nil
	})
	mgr := NewManager()

	dest, err := Map[S, D](mgr, cfg, S{A: 3}, nil)
	require.NoError(t, err)
	require.Equal(t, D{A: 300}, dest)
}

func TestExecutorPostProcessorRuns(t *testing.T) {
	type S struct{ A int }
	type D struct{ A int }

	cfg := NewConfiguration()
	PostProcess[D](cfg, func(v D, state State) (D, error) {
		v.A++
		return v, nil
	})
	mgr := NewManager()

	dest, err := Map[S, D](mgr, cfg, S{A: 1}, nil)
	require.NoError(t, err)
	require.Equal(t, D{A: 2}, dest)
}

func TestExecutorCustomConstructorUsed(t *testing.T) {
	type S struct{ A int }
	type D struct {
		A     int
		Extra string
	}

	cfg := NewConfiguration()
	ConstructBy[D](cfg, func(state State) (D, error) {
		return D{Extra: "seeded"}, nil
	})
	mgr := NewManager()

	dest, err := Map[S, D](mgr, cfg, S{A: 9}, nil)
	require.NoError(t, err)
	require.Equal(t, D{A: 9, Extra: "seeded"}, dest)
}

func TestExecutorDestinationFilterVetoesWrite(t *testing.T) {
	type S struct{ A int }
	type D struct{ A int }

	cfg := NewConfiguration()
	FilterDestination[int](cfg, func(v int, state State) bool { return v != 0 })
	mgr := NewManager()

	dest := D{A: 42}
	err := MapInto[S, D](mgr, cfg, S{A: 0}, &dest, nil)
	require.NoError(t, err)
	require.Equal(t, D{A: 42}, dest, "vetoed write should leave the prior destination value")
}

func TestStoredOperationsPreservesDeclarationOrder(t *testing.T) {
	type S struct {
		First  int
		Second int
		Third  int
	}
	type D struct {
		First  int
		Second int
		Third  int
	}

	mgr := NewManager()
	cfg := NewConfiguration()
	exec, err := mgr.Get(reflect.TypeOf(S{}), reflect.TypeOf(D{}), cfg)
	require.NoError(t, err)

	leaves := exec.StoredOperations()
	require.Len(t, leaves, 3)
	require.Equal(t, []string{"First", "Second", "Third"}, []string{leaves[0].Destination.Name, leaves[1].Destination.Name, leaves[2].Destination.Name})
}

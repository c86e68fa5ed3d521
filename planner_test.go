package automapper

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"
)

type flatSource struct {
	A int
	B string
}

type flatDest struct {
	A int
	B string
}

func TestBuildPlanMatchesByName(t *testing.T) {
	cfg := NewConfiguration()
	root, err := buildPlan(reflect.TypeOf(flatSource{}), reflect.TypeOf(flatDest{}), cfg)
	require.NoError(t, err)

	leaves := StoredOperations(root)
	require.Len(t, leaves, 2)

	names := make([]string, len(leaves))
	for i, l := range leaves {
		names[i] = l.Destination.Name
	}
	require.Equal(t, []string{"A", "B"}, names, "leaf order must match destination declaration order")
}

// TestBuildPlanMatchesByNameWithAsymmetricMembers pins down the
// GetCommonMembers-equivalent fix (§4.3): destination members drive
// enumeration, never source members. Source and destination here have
// disjoint extra fields and opposite declaration order for their shared
// fields, so a source-driven enumeration would produce B before A. The
// unmatched OnlySrc and OnlyDest fields produce no leaf either way.
func TestBuildPlanMatchesByNameWithAsymmetricMembers(t *testing.T) {
	type srcAsymmetric struct {
		OnlySrc string
		B       int
		A       int
	}
	type destAsymmetric struct {
		OnlyDest bool
		A        int
		B        int
	}

	cfg := NewConfiguration()
	root, err := buildPlan(reflect.TypeOf(srcAsymmetric{}), reflect.TypeOf(destAsymmetric{}), cfg)
	require.NoError(t, err)

	leaves := StoredOperations(root)
	names := make([]string, len(leaves))
	for i, l := range leaves {
		names[i] = l.Destination.Name
	}
	require.Equal(t, []string{"A", "B"}, names, "leaf order must follow destType's declaration order, not srcType's")
}

func TestBuildPlanDetectsCycle(t *testing.T) {
	type Node struct {
		Name  string
		Child *Node
	}

	cfg := NewConfiguration()
	_, err := buildPlan(reflect.TypeOf(Node{}), reflect.TypeOf(Node{}), cfg)

	require.Error(t, err)
	var cycleErr *CycleError
	require.ErrorAs(t, err, &cycleErr)
}

func TestBuildPlanRejectsIncompatibleScalars(t *testing.T) {
	type S struct {
		V complex128
	}
	type D struct {
		V string
	}

	cfg := NewConfiguration()
	_, err := buildPlan(reflect.TypeOf(S{}), reflect.TypeOf(D{}), cfg)

	require.Error(t, err)
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
}

func TestAffixStrippingMatchesFlattenedNames(t *testing.T) {
	type Src struct {
		GetName string
	}
	type Dst struct {
		Name string
	}

	cfg := NewConfiguration()
	cfg.SourcePrefixes = []string{"Get"}

	root, err := buildPlan(reflect.TypeOf(Src{}), reflect.TypeOf(Dst{}), cfg)
	require.NoError(t, err)
	require.Len(t, StoredOperations(root), 1)
}

func TestIgnoreMembersExcludesPairFromPlan(t *testing.T) {
	cfg := NewConfiguration()
	IgnoreMembers(cfg, reflect.TypeOf(flatSource{}), reflect.TypeOf(flatDest{}), "B")

	root, err := buildPlan(reflect.TypeOf(flatSource{}), reflect.TypeOf(flatDest{}), cfg)
	require.NoError(t, err)

	leaves := StoredOperations(root)
	require.Len(t, leaves, 1)
	require.Equal(t, "A", leaves[0].Destination.Name)
}

func TestConfigurationNameDeterministic(t *testing.T) {
	cfgA := NewConfiguration()
	IgnoreMembers(cfgA, reflect.TypeOf(flatSource{}), reflect.TypeOf(flatDest{}), "B")

	cfgB := NewConfiguration()
	IgnoreMembers(cfgB, reflect.TypeOf(flatSource{}), reflect.TypeOf(flatDest{}), "B")

	require.Equal(t, cfgA.Name(), cfgB.Name())

	cfgC := NewConfiguration()
	require.NotEqual(t, cfgA.Name(), cfgC.Name())
}

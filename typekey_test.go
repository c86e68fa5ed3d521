package automapper

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPairKeyEquality(t *testing.T) {
	a := pairKey(reflect.TypeOf(""), reflect.TypeOf(0))
	b := pairKey(reflect.TypeOf(""), reflect.TypeOf(0))
	require.Equal(t, a, b)

	c := pairKey(reflect.TypeOf(0), reflect.TypeOf(""))
	require.NotEqual(t, a, c, "pairKey must be order-sensitive")
}

func TestSingleKeyDistinctFromPairKey(t *testing.T) {
	s := singleKey(reflect.TypeOf(""))
	p := pairKey(reflect.TypeOf(""), reflect.TypeOf(""))
	require.NotEqual(t, s, p)
}

func TestTypeKeyString(t *testing.T) {
	k := pairKey(reflect.TypeOf(0), reflect.TypeOf(""))
	require.Contains(t, k.String(), "int")
	require.Contains(t, k.String(), "string")
}

package automapper

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"
)

type embeddedAddress struct {
	Street string
	City   string
}

type personWithEmbed struct {
	embeddedAddress
	Name string
	Age  int
}

func (p personWithEmbed) DisplayName() string {
	return p.Name
}

func TestPublicMembersFlattensEmbeddedFields(t *testing.T) {
	ti := newTypeIntrospector()
	members := ti.publicMembers(reflect.TypeOf(personWithEmbed{}), false)

	names := memberNames(members)
	require.Contains(t, names, "Street")
	require.Contains(t, names, "City")
	require.Contains(t, names, "Name")
	require.Contains(t, names, "Age")
	require.NotContains(t, names, "DisplayName")
}

func TestPublicMembersSurfacesMethodsWhenEnabled(t *testing.T) {
	ti := newTypeIntrospector()
	members := ti.publicMembers(reflect.TypeOf(personWithEmbed{}), true)

	names := memberNames(members)
	require.Contains(t, names, "DisplayName")

	for _, m := range members {
		if m.Name == "DisplayName" {
			require.Equal(t, MethodMember, m.Kind)
			require.True(t, m.Readable)
			require.False(t, m.Writable)
		}
	}
}

func TestPublicMembersCachesFieldOnlyLookup(t *testing.T) {
	ti := newTypeIntrospector()
	first := ti.publicMembers(reflect.TypeOf(personWithEmbed{}), false)
	second := ti.publicMembers(reflect.TypeOf(personWithEmbed{}), false)
	require.Equal(t, first, second)
}

func TestIsScalarKind(t *testing.T) {
	require.True(t, isScalarKind(reflect.TypeOf(0)))
	require.True(t, isScalarKind(reflect.TypeOf("")))
	require.False(t, isScalarKind(reflect.TypeOf(struct{}{})))
}

func memberNames(members []MemberDescriptor) []string {
	out := make([]string, len(members))
	for i, m := range members {
		out[i] = m.Name
	}
	return out
}

package sqlupdate

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type user struct {
	Id   int
	Name string
	Age  int
}

type trackerStub struct {
	changed []string
}

func (t trackerStub) Changed(obj any) []string {
	return t.changed
}

// S6. SQL UPDATE emission.
func TestBuildUpdateCommandEmitsTrackedChangesOnly(t *testing.T) {
	obj := user{Id: 7, Name: "a", Age: 30}

	cmd, ok, err := BuildUpdateCommand(obj, "users", []string{"Id"},
		WithChangeTracker(trackerStub{changed: []string{"Name"}}))

	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, `UPDATE users SET "NAME"=@NAME WHERE "ID"=@ID`, cmd.Text)
	require.Len(t, cmd.Params, 2)
	require.Equal(t, "NAME", cmd.Params[0].Name)
	require.Equal(t, "a", cmd.Params[0].Value)
	require.Equal(t, "ID", cmd.Params[1].Name)
	require.Equal(t, 7, cmd.Params[1].Value)
}

func TestBuildUpdateCommandNoChangesReturnsFalse(t *testing.T) {
	obj := user{Id: 7, Name: "a", Age: 30}

	cmd, ok, err := BuildUpdateCommand(obj, "users", []string{"Id"},
		WithChangeTracker(trackerStub{changed: nil}))

	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, Command{}, cmd)
}

func TestBuildUpdateCommandWithoutTrackerIncludesAllNonIDFields(t *testing.T) {
	obj := user{Id: 7, Name: "a", Age: 30}

	cmd, ok, err := BuildUpdateCommand(obj, "users", []string{"Id"})

	require.NoError(t, err)
	require.True(t, ok)
	require.Contains(t, cmd.Text, `"NAME"=@NAME`)
	require.Contains(t, cmd.Text, `"AGE"=@AGE`)
	require.Contains(t, cmd.Text, `WHERE "ID"=@ID`)
}

func TestBuildUpdateCommandExcludeFields(t *testing.T) {
	obj := user{Id: 7, Name: "a", Age: 30}

	cmd, ok, err := BuildUpdateCommand(obj, "users", []string{"Id"},
		WithExcludeFields("Age"))

	require.NoError(t, err)
	require.True(t, ok)
	require.NotContains(t, cmd.Text, "AGE")
}

func TestBuildUpdateCommandRejectsNonStruct(t *testing.T) {
	_, _, err := BuildUpdateCommand(42, "users", []string{"Id"})
	require.Error(t, err)
}

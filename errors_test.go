package automapper

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfigurationErrorMessage(t *testing.T) {
	err := &ConfigurationError{
		Source: reflect.TypeOf(0),
		Dest:   reflect.TypeOf(""),
		Field:  "Age",
		Reason: "no conversion available",
	}
	require.Contains(t, err.Error(), "Age")
	require.Contains(t, err.Error(), "no conversion available")
}

func TestConfigurationErrorUnwrap(t *testing.T) {
	inner := errors.New("boom")
	err := &ConfigurationError{Reason: "wrapped", Inner: inner}
	require.ErrorIs(t, err, inner)
}

type cycleTestA struct{}
type cycleTestB struct{}

func TestCycleErrorMessage(t *testing.T) {
	aType := reflect.TypeOf(cycleTestA{})
	bType := reflect.TypeOf(cycleTestB{})
	err := &CycleError{Path: []reflect.Type{aType, bType, aType}}

	expected := aType.String() + " -> " + bType.String() + " -> " + aType.String()
	require.Contains(t, err.Error(), expected)
}

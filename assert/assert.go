// Package assert provides minimal test assertion helpers.
package assert

import (
	"reflect"
	"testing"
)

// Equal fails the test if expected != actual.
func Equal[T any](t *testing.T, expected, actual T, name string) {
	t.Helper()
	if !reflect.DeepEqual(expected, actual) {
		t.Errorf("%s: expected %v, got %v", name, expected, actual)
	}
}

// NotEqual fails the test if expected == actual.
func NotEqual[T any](t *testing.T, expected, actual T, name string) {
	t.Helper()
	if reflect.DeepEqual(expected, actual) {
		t.Errorf("%s: expected values to differ, both were %v", name, actual)
	}
}

// True fails the test if the condition is false.
func True(t *testing.T, cond bool, name string) {
	t.Helper()
	if !cond {
		t.Errorf("%s: expected true", name)
	}
}

// False fails the test if the condition is true.
func False(t *testing.T, cond bool, name string) {
	t.Helper()
	if cond {
		t.Errorf("%s: expected false", name)
	}
}

// Nil fails the test if v is not nil.
func Nil(t *testing.T, v any, name string) {
	t.Helper()
	if v != nil && !reflect.ValueOf(v).IsNil() {
		t.Errorf("%s: expected nil, got %v", name, v)
	}
}

// NotNil fails the test if v is nil.
func NotNil(t *testing.T, v any, name string) {
	t.Helper()
	if v == nil || (reflect.ValueOf(v).Kind() == reflect.Ptr && reflect.ValueOf(v).IsNil()) {
		t.Errorf("%s: expected non-nil", name)
	}
}

// NoError fails the test if err is non-nil.
func NoError(t *testing.T, err error, name string) {
	t.Helper()
	if err != nil {
		t.Errorf("%s: unexpected error: %v", name, err)
	}
}

// Error fails the test if err is nil.
func Error(t *testing.T, err error, name string) {
	t.Helper()
	if err == nil {
		t.Errorf("%s: expected an error", name)
	}
}

// Package require is github.com/alecthomas/assert that stops the test
// on first failure. Only the functions used in this repo.
package require

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/alecthomas/assert"
)

func objectsAreEqual(expected, actual interface{}) bool {
	if expected == nil || actual == nil {
		return expected == actual
	}
	exp, ok := expected.([]byte)
	if !ok {
		return reflect.DeepEqual(expected, actual)
	}
	act, ok := actual.([]byte)
	if !ok {
		return false
	}
	return bytes.Equal(exp, act)
}

func isNil(object interface{}) bool {
	if object == nil {
		return true
	}
	v := reflect.ValueOf(object)
	switch v.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice:
		return v.IsNil()
	}
	return false
}

// NoError asserts that err is nil
func NoError(t testing.TB, err error, msgAndArgs ...interface{}) {
	t.Helper()
	if err != nil {
		assert.NoError(t, err, msgAndArgs...)
		t.FailNow()
	}
}

// Error asserts that err is not nil
func Error(t testing.TB, err error, msgAndArgs ...interface{}) {
	t.Helper()
	if err == nil {
		assert.Error(t, err, msgAndArgs...)
		t.FailNow()
	}
}

// Equal asserts that two objects are equal
func Equal(t testing.TB, expected interface{}, actual interface{}, msgAndArgs ...interface{}) {
	t.Helper()
	if !objectsAreEqual(expected, actual) {
		assert.Equal(t, expected, actual, msgAndArgs...)
		t.FailNow()
	}
}

// True asserts that value is true
func True(t testing.TB, value bool, msgAndArgs ...interface{}) {
	t.Helper()
	if !value {
		assert.True(t, value, msgAndArgs...)
		t.FailNow()
	}
}

// NotNil asserts that object is not nil
func NotNil(t testing.TB, object interface{}, msgAndArgs ...interface{}) {
	t.Helper()
	if isNil(object) {
		assert.NotNil(t, object, msgAndArgs...)
		t.FailNow()
	}
}

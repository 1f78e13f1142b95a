// Package require implements a small subset of testify's require package,
// kept dependency-free so that internal packages that must stay buildable
// without the module's test-only dependencies (notably leb128, which is
// benchmarked for zero allocations) can still assert on results the same
// way the rest of the test suite does.
package require

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// TestingT is satisfied by *testing.T. It is an interface so the package
// can be exercised with a mock in its own tests.
type TestingT interface {
	Fatal(args ...interface{})
}

// CapturePanic runs f and returns the recovered value as an error, or nil
// if f didn't panic.
func CapturePanic(f func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if asErr, ok := r.(error); ok {
				err = asErr
			} else {
				err = fmt.Errorf("%v", r)
			}
		}
	}()
	f()
	return
}

func fail(t TestingT, msg, extra string, formatWithArgs ...interface{}) {
	if len(formatWithArgs) > 0 {
		msg += ": " + messageFromMsgAndArgs(formatWithArgs...)
	}
	msg += extra
	t.Fatal(msg)
}

func messageFromMsgAndArgs(msgAndArgs ...interface{}) string {
	if len(msgAndArgs) == 0 {
		return ""
	}
	if len(msgAndArgs) == 1 {
		return fmt.Sprint(msgAndArgs[0])
	}
	if format, ok := msgAndArgs[0].(string); ok && strings.Contains(format, "%") {
		return fmt.Sprintf(format, msgAndArgs[1:]...)
	}
	return strings.TrimSuffix(fmt.Sprintln(msgAndArgs...), "\n")
}

// formatValue renders v the way a human would expect to read it in a
// failure message: quoted for strings, Go-syntax for byte slices and
// structs, and nil's literal spelling for a nil interface.
func formatValue(v interface{}) string {
	if v == nil {
		return "<nil>"
	}
	switch vv := v.(type) {
	case string:
		return fmt.Sprintf("%q", vv)
	case []byte:
		return fmt.Sprintf("%#v", vv)
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Struct || rv.Kind() == reflect.Ptr {
		return fmt.Sprintf("%#v", v)
	}
	return fmt.Sprintf("%v", v)
}

// formatTyped renders v qualified by its type, except strings which stay
// quoted: used when comparing two values whose concrete types differ, so
// the mismatch itself is visible in the message.
func formatTyped(v interface{}) string {
	if s, ok := v.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return fmt.Sprintf("%T(%v)", v, v)
}

func isNil(v interface{}) bool {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Ptr, reflect.Slice:
		return rv.IsNil()
	default:
		return false
	}
}

// Contains fails unless s contains substr.
func Contains(t TestingT, s, substr string, formatWithArgs ...interface{}) {
	if strings.Contains(s, substr) {
		return
	}
	fail(t, fmt.Sprintf("expected %q to contain %q", s, substr), "", formatWithArgs...)
}

// Equal fails unless expected and actual are deeply equal.
func Equal(t TestingT, expected, actual interface{}, formatWithArgs ...interface{}) {
	if actual == nil {
		if expected == nil {
			return
		}
		fail(t, fmt.Sprintf("expected %s, but was nil", formatValue(expected)), "", formatWithArgs...)
		return
	}
	if expected == nil {
		fail(t, fmt.Sprintf("expected nil, but was %s", formatValue(actual)), "", formatWithArgs...)
		return
	}

	if reflect.TypeOf(expected) != reflect.TypeOf(actual) {
		fail(t, fmt.Sprintf("expected %s, but was %s", formatTyped(expected), formatTyped(actual)), "", formatWithArgs...)
		return
	}

	if reflect.DeepEqual(expected, actual) {
		return
	}

	switch expected.(type) {
	case string:
		fail(t, fmt.Sprintf("expected %q, but was %q", expected, actual), "", formatWithArgs...)
	case []byte:
		extra := fmt.Sprintf("\nexpected:\n\t%#v\nwas:\n\t%#v\n", expected, actual)
		fail(t, "unexpected value", extra, formatWithArgs...)
	default:
		rv := reflect.ValueOf(expected)
		if rv.Kind() == reflect.Struct || rv.Kind() == reflect.Ptr {
			extra := fmt.Sprintf("\nexpected:\n\t%#v\nwas:\n\t%#v\n", expected, actual)
			fail(t, "unexpected value", extra, formatWithArgs...)
		} else {
			fail(t, fmt.Sprintf("expected %v, but was %v", expected, actual), "", formatWithArgs...)
		}
	}
}

// NotEqual fails if expected and actual are deeply equal.
func NotEqual(t TestingT, expected, actual interface{}, formatWithArgs ...interface{}) {
	if !reflect.DeepEqual(expected, actual) {
		return
	}
	fail(t, fmt.Sprintf("expected to not equal %s", formatValue(expected)), "", formatWithArgs...)
}

// EqualError fails unless err is non-nil and err.Error() == expectedMsg.
func EqualError(t TestingT, err error, expectedMsg string, formatWithArgs ...interface{}) {
	if err == nil {
		fail(t, "expected an error, but was nil", "", formatWithArgs...)
		return
	}
	if err.Error() != expectedMsg {
		fail(t, fmt.Sprintf("expected error %q, but was %q", expectedMsg, err.Error()), "", formatWithArgs...)
	}
}

// Error fails if err is nil.
func Error(t TestingT, err error, formatWithArgs ...interface{}) {
	if err == nil {
		fail(t, "expected an error, but was nil", "", formatWithArgs...)
	}
}

// ErrorIs fails unless errors.Is(err, target).
func ErrorIs(t TestingT, err, target error, formatWithArgs ...interface{}) {
	if !errors.Is(err, target) {
		fail(t, fmt.Sprintf("expected errors.Is(%v, %v), but it wasn't", err, target), "", formatWithArgs...)
	}
}

// Nil fails unless v is nil (including a typed nil wrapped in interface{}).
func Nil(t TestingT, v interface{}, formatWithArgs ...interface{}) {
	if v == nil || isNil(v) {
		return
	}
	fail(t, fmt.Sprintf("expected nil, but was %v", v), "", formatWithArgs...)
}

// NotNil fails if v is nil.
func NotNil(t TestingT, v interface{}, formatWithArgs ...interface{}) {
	if v != nil && !isNil(v) {
		return
	}
	fail(t, "expected to not be nil", "", formatWithArgs...)
}

// NoError fails if err is non-nil.
func NoError(t TestingT, err error, formatWithArgs ...interface{}) {
	if err == nil {
		return
	}
	fail(t, fmt.Sprintf("expected no error, but was %v", err), "", formatWithArgs...)
}

// Same fails unless expected and actual point to the same object.
func Same(t TestingT, expected, actual interface{}, formatWithArgs ...interface{}) {
	if expected == actual {
		return
	}
	fail(t, fmt.Sprintf("expected %v to point to the same object as %v", actual, expected), "", formatWithArgs...)
}

// NotSame fails if expected and actual point to the same object.
func NotSame(t TestingT, expected, actual interface{}, formatWithArgs ...interface{}) {
	if expected != actual {
		return
	}
	fail(t, fmt.Sprintf("expected %v to point to a different object", actual), "", formatWithArgs...)
}

// True fails unless v is true.
func True(t TestingT, v bool, formatWithArgs ...interface{}) {
	if v {
		return
	}
	fail(t, "expected true, but was false", "", formatWithArgs...)
}

// False fails unless v is false.
func False(t TestingT, v bool, formatWithArgs ...interface{}) {
	if !v {
		return
	}
	fail(t, "expected false, but was true", "", formatWithArgs...)
}

// Zero fails unless v is the zero value for its type.
func Zero(t TestingT, v interface{}, formatWithArgs ...interface{}) {
	if reflect.ValueOf(v).IsZero() {
		return
	}
	fail(t, fmt.Sprintf("expected zero, but was %v", v), "", formatWithArgs...)
}

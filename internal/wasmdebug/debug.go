// Package wasmdebug builds human-readable identifiers and stack traces for
// Wasm functions, used to annotate panics recovered from a running
// instance.
package wasmdebug

import (
	"fmt"
	"strings"

	"github.com/uwvmgo/uwvmgo/api"
	"github.com/uwvmgo/uwvmgo/internal/wasmruntime"
)

// FuncName returns a dot-separated identifier for a function, falling back
// to "$funcIdx" when funcName is empty (e.g. it wasn't named in the
// module's custom name section).
func FuncName(moduleName, funcName string, funcIdx uint32) string {
	if funcName == "" {
		funcName = fmt.Sprintf("$%d", funcIdx)
	}
	return moduleName + "." + funcName
}

// signature appends a function's parameter and result types to its name,
// in the style of the Wasm text format's type use.
func signature(funcNameWithSig string, paramTypes, resultTypes []api.ValueType) string {
	var sb strings.Builder
	sb.WriteString(funcNameWithSig)
	sb.WriteByte('(')
	writeValueTypes(&sb, paramTypes)
	sb.WriteByte(')')
	switch len(resultTypes) {
	case 0:
	case 1:
		sb.WriteByte(' ')
		sb.WriteString(api.ValueTypeName(resultTypes[0]))
	default:
		sb.WriteString(" (")
		writeValueTypes(&sb, resultTypes)
		sb.WriteByte(')')
	}
	return sb.String()
}

func writeValueTypes(sb *strings.Builder, types []api.ValueType) {
	for i, t := range types {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(api.ValueTypeName(t))
	}
}

// ErrorBuilder accumulates the call frames active when a panic is recovered
// and turns them, together with the recovered value, into a single error.
type ErrorBuilder interface {
	// AddFrame records a function, innermost call first.
	AddFrame(name string, paramTypes, resultTypes []api.ValueType)
	// FromRecovered builds the final error from a value returned by
	// recover().
	FromRecovered(recovered interface{}) error
}

// NewErrorBuilder returns an empty ErrorBuilder.
func NewErrorBuilder() ErrorBuilder {
	return &errorBuilder{}
}

type errorBuilder struct {
	frames []string
}

func (b *errorBuilder) AddFrame(name string, paramTypes, resultTypes []api.ValueType) {
	b.frames = append(b.frames, signature(name, paramTypes, resultTypes))
}

func (b *errorBuilder) FromRecovered(recovered interface{}) error {
	var cause error
	switch v := recovered.(type) {
	case error:
		cause = v
	default:
		cause = fmt.Errorf("%v", v)
	}

	var message string
	if _, ok := cause.(wasmruntime.Error); ok {
		message = cause.Error()
	} else {
		message = cause.Error() + " (recovered by uwvmgo)"
	}

	var sb strings.Builder
	sb.WriteString(message)
	sb.WriteString("\nwasm stack trace:")
	for _, f := range b.frames {
		sb.WriteString("\n\t")
		sb.WriteString(f)
	}

	return &recoveredError{message: sb.String(), cause: cause}
}

type recoveredError struct {
	message string
	cause   error
}

func (e *recoveredError) Error() string {
	return e.message
}

func (e *recoveredError) Unwrap() error {
	return e.cause
}

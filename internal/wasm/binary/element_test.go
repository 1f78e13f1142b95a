package binary

import (
	"bytes"
	"strconv"
	"testing"

	"github.com/uwvmgo/uwvmgo/internal/testing/require"
	"github.com/uwvmgo/uwvmgo/internal/wasm"
)

func Test_ensureElementKindFuncRef(t *testing.T) {
	require.NoError(t, ensureElementKindFuncRef(bytes.NewReader([]byte{0x0})))
	require.Error(t, ensureElementKindFuncRef(bytes.NewReader([]byte{0x1})))
}

func Test_decodeElementInitValueVector(t *testing.T) {
	tests := []struct {
		in     []byte
		exp    []wasm.Index
		expErr string
	}{
		{
			in:  []byte{0},
			exp: []wasm.Index{},
		},
		{
			in:  []byte{5, 1, 2, 3, 4, 5},
			exp: []wasm.Index{1, 2, 3, 4, 5},
		},
		{
			in: []byte{
				1,
				0xff, 0xff, 0xff, 0xff, 0xf,
			},
			expErr: "too large function index in Element init: 4294967295",
		},
	}

	for i, tt := range tests {
		tc := tt
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			actual, err := decodeElementInitValueVector(bytes.NewReader(tc.in))
			if tc.expErr != "" {
				require.EqualError(t, err, tc.expErr)
			} else {
				require.NoError(t, err)
				require.Equal(t, tc.exp, actual)
			}
		})
	}
}

func TestDecodeElementSegment(t *testing.T) {
	tests := []struct {
		name   string
		in     []byte
		exp    wasm.ElementSegment
		expErr string
	}{
		{
			name: "active table 0",
			in: []byte{
				0, // Prefix: active, implicit table 0.
				// Offset const expr.
				wasm.OpcodeI32Const, 1, wasm.OpcodeEnd,
				0, // Elem kind, fixed to zero.
				// Init vector.
				5, 1, 2, 3, 4, 5,
			},
			exp: wasm.ElementSegment{
				OffsetExpr: &wasm.ConstantExpression{Opcode: wasm.OpcodeI32Const, Data: []byte{1}},
				Init:       []wasm.Index{1, 2, 3, 4, 5},
			},
		},
		{
			name: "active table 0, multi byte const expr data",
			in: []byte{
				0,
				wasm.OpcodeI32Const, 0x80, 0, wasm.OpcodeEnd,
				0,
				5, 1, 2, 3, 4, 5,
			},
			exp: wasm.ElementSegment{
				OffsetExpr: &wasm.ConstantExpression{Opcode: wasm.OpcodeI32Const, Data: []byte{0x80, 0}},
				Init:       []wasm.Index{1, 2, 3, 4, 5},
			},
		},
		{
			name:   "unsupported prefix",
			in:     []byte{1},
			expErr: "element segment prefix 0x1 is not supported",
		},
	}

	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			var actual wasm.ElementSegment
			err := decodeElementSegment(bytes.NewReader(tc.in), &actual)
			if tc.expErr != "" {
				require.EqualError(t, err, tc.expErr)
			} else {
				require.NoError(t, err)
				require.Equal(t, tc.exp, actual)
			}
		})
	}
}

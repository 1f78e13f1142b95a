package binary

import (
	"fmt"
	"io"

	"github.com/uwvmgo/uwvmgo/api"
	"github.com/uwvmgo/uwvmgo/internal/leb128"
	"github.com/uwvmgo/uwvmgo/internal/wasm"
)

// ensureElementKindFuncRef reads the single "element kind" byte the
// bulk-memory-operations encodings carry ahead of an init vector, which
// must always be zero (funcref) in a module with no reference-types
// proposal support.
func ensureElementKindFuncRef(r io.Reader) error {
	b, err := readByte(r)
	if err != nil {
		return fmt.Errorf("read element kind: %w", err)
	}
	if b != 0 {
		return fmt.Errorf("element kind %#x is not supported", b)
	}
	return nil
}

func readByte(r io.Reader) (byte, error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// decodeElementInitValueVector reads a vector of raw function indices, the
// init payload of an element segment.
func decodeElementInitValueVector(r io.Reader) ([]wasm.Index, error) {
	vs, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return nil, fmt.Errorf("get size of vector: %w", err)
	}

	idx := make([]wasm.Index, vs)
	for i := range idx {
		d, _, err := leb128.DecodeUint32(r)
		if err != nil {
			return nil, fmt.Errorf("read function index: %w", err)
		}
		if d > wasm.MaximumFunctionIndex {
			return nil, fmt.Errorf("too large function index in Element init: %d", d)
		}
		idx[i] = d
	}
	return idx, nil
}

// decodeElementSegment reads one entry of the element section. Only the
// MVP encoding is supported: an active segment targeting table 0 with an
// i32.const or global.get offset, an elemkind byte fixed to zero, and a
// vector of function indices.
func decodeElementSegment(r io.Reader, target *wasm.ElementSegment) error {
	prefix, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return fmt.Errorf("read element segment prefix: %w", err)
	}
	if prefix != 0 {
		return fmt.Errorf("element segment prefix %#x is not supported", prefix)
	}

	var offset wasm.ConstantExpression
	if err := decodeConstantExpression(r, api.CoreFeaturesV2, &offset); err != nil {
		return fmt.Errorf("read offset expression: %w", err)
	}
	if err := ensureElementKindFuncRef(r); err != nil {
		return err
	}
	init, err := decodeElementInitValueVector(r)
	if err != nil {
		return fmt.Errorf("read init vector: %w", err)
	}

	target.TableIndex = 0
	target.OffsetExpr = &offset
	target.Init = init
	return nil
}

func decodeElementSection(r io.Reader) ([]*wasm.ElementSegment, error) {
	count, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return nil, fmt.Errorf("get size of vector: %w", err)
	}
	ret := make([]*wasm.ElementSegment, count)
	for i := range ret {
		e := &wasm.ElementSegment{}
		if err := decodeElementSegment(r, e); err != nil {
			return nil, fmt.Errorf("element[%d]: %w", i, err)
		}
		ret[i] = e
	}
	return ret, nil
}

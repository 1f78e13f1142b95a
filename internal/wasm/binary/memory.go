package binary

import (
	"fmt"
	"io"

	"github.com/uwvmgo/uwvmgo/internal/leb128"
	"github.com/uwvmgo/uwvmgo/internal/wasm"
)

func encodeMemory(m *wasm.MemoryType) []byte {
	return encodeLimitsType(m)
}

func decodeMemory(r io.Reader, limit uint32) (*wasm.MemoryType, error) {
	lim, err := decodeLimitsType(r)
	if err != nil {
		return nil, fmt.Errorf("read limits: %w", err)
	}
	if lim.Max != nil && lim.Min > *lim.Max {
		return nil, fmt.Errorf("memory size minimum must not be greater than maximum")
	}
	if lim.Min > limit {
		return nil, fmt.Errorf("memory min must be at most %d", limit)
	}
	if lim.Max != nil && *lim.Max > limit {
		return nil, fmt.Errorf("memory max must be at most %d", limit)
	}
	return lim, nil
}

func decodeMemorySection(r io.Reader, memoryLimitPages uint32) ([]*wasm.MemoryType, error) {
	count, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return nil, fmt.Errorf("get size of vector: %w", err)
	}
	if count > 1 {
		return nil, fmt.Errorf("at most one memory allowed in module, but read %d", count)
	}

	ret := make([]*wasm.MemoryType, count)
	for i := range ret {
		m, err := decodeMemory(r, memoryLimitPages)
		if err != nil {
			return nil, fmt.Errorf("read memory: %w", err)
		}
		ret[i] = m
	}
	return ret, nil
}

func encodeMemorySection(memories []*wasm.MemoryType) []byte {
	cnt := leb128.EncodeUint32(uint32(len(memories)))
	var contents []byte
	for _, m := range memories {
		contents = append(contents, encodeMemory(m)...)
	}
	return encodeSection(wasm.SectionIDMemory, append(cnt, contents...))
}

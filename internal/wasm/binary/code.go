package binary

import (
	"bytes"
	"fmt"
	"io"

	"github.com/uwvmgo/uwvmgo/internal/bitpack"
	"github.com/uwvmgo/uwvmgo/internal/leb128"
	"github.com/uwvmgo/uwvmgo/internal/wasm"
)

// encodeCode groups consecutive locals of the same type into a single
// declaration, the way a compiler emitting compact local blocks would,
// then appends the function body verbatim.
func encodeCode(c *wasm.Code) []byte {
	var localBlocks []byte
	blockCount := uint32(0)
	i := 0
	for i < len(c.LocalTypes) {
		j := i + 1
		for j < len(c.LocalTypes) && c.LocalTypes[j] == c.LocalTypes[i] {
			j++
		}
		localBlocks = append(localBlocks, leb128.EncodeUint32(uint32(j-i))...)
		localBlocks = append(localBlocks, c.LocalTypes[i])
		blockCount++
		i = j
	}

	contents := leb128.EncodeUint32(blockCount)
	contents = append(contents, localBlocks...)
	contents = append(contents, c.Body...)

	return append(leb128.EncodeUint32(uint32(len(contents))), contents...)
}

func decodeCode(r io.Reader) (*wasm.Code, error) {
	size, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return nil, fmt.Errorf("get size of function: %w", err)
	}
	body := make([]byte, size)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	br := bytes.NewReader(body)

	blockCount, _, err := leb128.DecodeUint32(br)
	if err != nil {
		return nil, fmt.Errorf("get the number of local block: %w", err)
	}

	var localTypes []wasm.ValueType
	for i := uint32(0); i < blockCount; i++ {
		n, _, err := leb128.DecodeUint32(br)
		if err != nil {
			return nil, fmt.Errorf("read number of locals: %w", err)
		}
		vt, err := readByte(br)
		if err != nil {
			return nil, fmt.Errorf("read value type of local: %w", err)
		}
		if err := decodeValueType(vt); err != nil {
			return nil, err
		}
		for j := uint32(0); j < n; j++ {
			localTypes = append(localTypes, vt)
		}
	}

	rest, err := io.ReadAll(br)
	if err != nil {
		return nil, fmt.Errorf("read function body: %w", err)
	}

	return &wasm.Code{LocalTypes: localTypes, Body: rest}, nil
}

// decodeCodeSection decodes the code section's vector of function bodies,
// additionally tracking each body's byte offset relative to the start of
// the vector (i.e. just after the count LEB128) for later diagnostics.
func decodeCodeSection(r *bytes.Reader) ([]*wasm.Code, bitpack.OffsetArray, error) {
	count, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return nil, nil, fmt.Errorf("get size of vector: %w", err)
	}

	sectionStart := r.Len()
	ret := make([]*wasm.Code, count)
	offsets := make([]uint64, count)
	for i := range ret {
		offsets[i] = uint64(sectionStart - r.Len())
		c, err := decodeCode(r)
		if err != nil {
			return nil, nil, fmt.Errorf("code[%d]: %w", i, err)
		}
		ret[i] = c
	}
	return ret, bitpack.NewOffsetArray(offsets), nil
}

func encodeCodeSection(codes []*wasm.Code) []byte {
	cnt := leb128.EncodeUint32(uint32(len(codes)))
	contents := cnt
	for _, c := range codes {
		contents = append(contents, encodeCode(c)...)
	}
	return encodeSection(wasm.SectionIDCode, contents)
}

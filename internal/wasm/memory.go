package wasm

import (
	"encoding/binary"
	"fmt"
)

const (
	// MemoryPageSizeInBits is the exponent of MemoryPageSize: every memory
	// grows in units of one page, 64KiB, per the Wasm 1.0 spec.
	MemoryPageSizeInBits = 16
	// MemoryPageSize is the number of bytes in one memory page.
	MemoryPageSize = uint32(1) << MemoryPageSizeInBits
	// MemoryMaxPages is the maximum number of pages a 32-bit address space
	// can address: the same as MemoryPageSize itself, since page count and
	// byte offset within a page both fit a uint32 only up to 2^32 total
	// bytes addressable and 2^16 bytes per page.
	MemoryMaxPages = uint32(1) << (32 - MemoryPageSizeInBits)
)

// MemoryPagesToBytesNum converts a page count to a byte count.
func MemoryPagesToBytesNum(numPage uint32) uint64 {
	return uint64(numPage) << MemoryPageSizeInBits
}

func memoryBytesNumToPages(numBytes uint64) uint32 {
	return uint32(numBytes >> MemoryPageSizeInBits)
}

// MemoryInstance is the runtime backing of linear memory: a growable byte
// buffer bounded by Min/Max pages.
type MemoryInstance struct {
	Buffer []byte
	Min    uint32
	Max    *uint32
}

// PageSize returns the memory's current size in pages.
func (m *MemoryInstance) PageSize() uint32 {
	return memoryBytesNumToPages(uint64(len(m.Buffer)))
}

// Grow adds delta pages to the memory and returns its previous page count,
// or an all-ones uint32 (read as -1 when cast to int32, matching the
// memory.grow instruction's own failure value) if doing so would exceed
// Max or the hard MemoryMaxPages ceiling.
func (m *MemoryInstance) Grow(delta uint32) uint32 {
	current := m.PageSize()
	next := current + delta
	max := MemoryMaxPages
	if m.Max != nil && *m.Max < max {
		max = *m.Max
	}
	if next > max {
		return 0xffffffff
	}
	m.Buffer = append(m.Buffer, make([]byte, MemoryPagesToBytesNum(delta))...)
	return current
}

// ReadByte reads a single byte at offset, reporting false if out of bounds.
func (m *MemoryInstance) ReadByte(offset uint32) (byte, bool) {
	if uint64(offset) >= uint64(len(m.Buffer)) {
		return 0, false
	}
	return m.Buffer[offset], true
}

// ReadUint32Le reads a little-endian uint32 at offset, reporting false if
// any of its four bytes is out of bounds.
func (m *MemoryInstance) ReadUint32Le(offset uint32) (uint32, bool) {
	if uint64(offset)+4 > uint64(len(m.Buffer)) {
		return 0, false
	}
	return binary.LittleEndian.Uint32(m.Buffer[offset:]), true
}

// WriteUint32Le writes v as a little-endian uint32 at offset, reporting
// false if any of its four bytes is out of bounds.
func (m *MemoryInstance) WriteUint32Le(offset uint32, v uint32) bool {
	if uint64(offset)+4 > uint64(len(m.Buffer)) {
		return false
	}
	binary.LittleEndian.PutUint32(m.Buffer[offset:], v)
	return true
}

// validateMemories checks the module has at most one memory (the
// multi-memory proposal is out of scope), that every data segment targets
// memory 0, and that its offset is a well-formed constant expression.
func (m *Module) validateMemories(memories []*MemoryType, globals []*GlobalType) error {
	if len(memories) > maxMemories {
		return fmt.Errorf("multiple memories are not supported")
	}

	imported := m.ImportGlobalCount()
	importedGlobals := globals
	if uint32(len(globals)) > imported {
		importedGlobals = globals[:imported]
	}

	for i, d := range m.DataSection {
		if len(memories) == 0 {
			return fmt.Errorf("unknown memory")
		}
		if d.MemoryIndex != 0 {
			return fmt.Errorf("memory index must be zero")
		}
		if d.Passive {
			continue
		}
		if err := validateConstExpression(importedGlobals, &d.OffsetExpression, ValueTypeI32); err != nil {
			return fmt.Errorf("data[%d] %w", i, err)
		}
	}
	return nil
}

// buildMemoryInstance builds the runtime memory for this module's declared
// memory, or nil if none was declared.
func (m *Module) buildMemoryInstance() *MemoryInstance {
	for _, lim := range m.MemorySection {
		return &MemoryInstance{
			Buffer: make([]byte, MemoryPagesToBytesNum(lim.Min)),
			Min:    lim.Min,
			Max:    lim.Max,
		}
	}
	return nil
}

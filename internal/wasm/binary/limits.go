package binary

import (
	"fmt"
	"io"
	"math"
	"sync/atomic"

	"github.com/uwvmgo/uwvmgo/internal/leb128"
	"github.com/uwvmgo/uwvmgo/internal/wasm"
)

// encodeLimitsType and decodeLimitsType are the raw bit-level codec shared
// by table and memory types: a flags byte (bit 0 set if a maximum follows)
// then min and, if present, max, each LEB128 u32.
func encodeLimitsType(l *wasm.LimitsType) []byte {
	if l.Max == nil {
		return append([]byte{0x0}, leb128.EncodeUint32(l.Min)...)
	}
	return append(append([]byte{0x1}, leb128.EncodeUint32(l.Min)...), leb128.EncodeUint32(*l.Max)...)
}

func decodeLimitsType(r io.Reader) (*wasm.LimitsType, error) {
	b, err := readByte(r)
	if err != nil {
		return nil, fmt.Errorf("read leading byte: %w", err)
	}

	ret := &wasm.LimitsType{}
	switch b {
	case 0x00:
		ret.Min, _, err = leb128.DecodeUint32(r)
		if err != nil {
			return nil, fmt.Errorf("read min of limit: %w", err)
		}
	case 0x01:
		ret.Min, _, err = leb128.DecodeUint32(r)
		if err != nil {
			return nil, fmt.Errorf("read min of limit: %w", err)
		}
		max, _, err := leb128.DecodeUint32(r)
		if err != nil {
			return nil, fmt.Errorf("read max of limit: %w", err)
		}
		ret.Max = &max
	default:
		return nil, fmt.Errorf("%#x is invalid as limits flag", b)
	}
	return ret, nil
}

// Limits bounds the per-module and per-runtime resource counts named by the
// categories a "wasm-set-parser-limit" option on a hosting CLI would set:
// the number of modules ever decoded by this process, each import kind,
// and each locally declared section's element count. A Limits from
// NewLimits enforces nothing: every field starts at its maximum possible
// value. A zero field caps its category at 0.
type Limits struct {
	RuntimeModules uint64

	ImportedFunctions uint64
	ImportedTables    uint64
	ImportedMemories  uint64
	ImportedGlobals   uint64

	LocalFunctions uint64
	LocalCodes     uint64
	LocalTables    uint64
	LocalMemories  uint64
	LocalGlobals   uint64
	LocalElements  uint64
	LocalDatas     uint64

	decodedModules uint64
}

// NewLimits returns a Limits with every category unbounded.
func NewLimits() *Limits {
	return &Limits{
		RuntimeModules:    math.MaxUint64,
		ImportedFunctions: math.MaxUint64,
		ImportedTables:    math.MaxUint64,
		ImportedMemories:  math.MaxUint64,
		ImportedGlobals:   math.MaxUint64,
		LocalFunctions:    math.MaxUint64,
		LocalCodes:        math.MaxUint64,
		LocalTables:       math.MaxUint64,
		LocalMemories:     math.MaxUint64,
		LocalGlobals:      math.MaxUint64,
		LocalElements:     math.MaxUint64,
		LocalDatas:        math.MaxUint64,
	}
}

// checkCount enforces limit against count, naming category in the error so
// a caller configuring wasm-set-parser-limit sees which one it hit.
func checkCount(category string, count uint64, limit uint64) error {
	if count > limit {
		return fmt.Errorf("%s count %d exceeds configured limit %d", category, count, limit)
	}
	return nil
}

// CheckModule enforces every per-section category against an already
// decoded module, plus the running count of modules this Limits has seen.
func (l *Limits) CheckModule(m *wasm.Module) error {
	if l == nil {
		return nil
	}
	n := atomic.AddUint64(&l.decodedModules, 1)
	if err := checkCount("runtime_modules", n, l.RuntimeModules); err != nil {
		return err
	}

	var impFuncs, impTables, impMems, impGlobals uint64
	for _, imp := range m.ImportSection {
		switch imp.Type {
		case wasm.ExternTypeFunc:
			impFuncs++
		case wasm.ExternTypeTable:
			impTables++
		case wasm.ExternTypeMemory:
			impMems++
		case wasm.ExternTypeGlobal:
			impGlobals++
		}
	}
	checks := []struct {
		category string
		count    uint64
		limit    uint64
	}{
		{"imported_functions", impFuncs, l.ImportedFunctions},
		{"imported_tables", impTables, l.ImportedTables},
		{"imported_memories", impMems, l.ImportedMemories},
		{"imported_globals", impGlobals, l.ImportedGlobals},
		{"local_defined_functions", uint64(len(m.FunctionSection)), l.LocalFunctions},
		{"local_defined_codes", uint64(len(m.CodeSection)), l.LocalCodes},
		{"local_defined_tables", uint64(len(m.TableSection)), l.LocalTables},
		{"local_defined_memories", uint64(len(m.MemorySection)), l.LocalMemories},
		{"local_defined_globals", uint64(len(m.GlobalSection)), l.LocalGlobals},
		{"local_defined_elements", uint64(len(m.ElementSection)), l.LocalElements},
		{"local_defined_datas", uint64(len(m.DataSection)), l.LocalDatas},
	}
	for _, c := range checks {
		if err := checkCount(c.category, c.count, c.limit); err != nil {
			return err
		}
	}
	return nil
}

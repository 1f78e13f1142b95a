// Package memprotect tracks the memory ranges a running module has backed
// with guard pages, so that a SIGSEGV/SIGBUS (or, on Windows, a vectored
// exception) landing inside one of them can be reinterpreted as an
// out-of-bounds-memory-access trap instead of crashing the process.
//
// Installing the actual signal handler is outside this package: that shim
// is host-OS-specific, runs in a restricted signal context, and is treated
// as an external collaborator. What lives here is the registry the handler
// consults — the read path (Lookup) must be safe to call from that
// restricted context, which is why the registry is guarded by a
// write-priority spinlock rather than anything that can block on a futex.
package memprotect

import (
	"fmt"

	"github.com/uwvmgo/uwvmgo/internal/rwspin"
)

// Segment describes one guarded memory range belonging to a Wasm linear
// memory instance.
type Segment struct {
	Begin uintptr
	End   uintptr

	// LengthPtr addresses the current (possibly grown) byte length of the
	// memory instance owning this segment, so a fault handler can tell a
	// true out-of-bounds access from one that landed inside unused guard
	// space reserved ahead of the memory's current size.
	LengthPtr *uint64

	MemoryIndex  uint32
	StaticOffset uintptr
}

// Registry is the process-wide table of protected segments. The zero value
// is ready to use.
type Registry struct {
	mu       rwspin.RWSpinLock
	segments []Segment
}

// Global is the registry consulted by the process's installed fault
// handler, if any.
var Global Registry

// Register installs a new protected segment. It is idempotent-adjacent:
// registering the same [begin,end) range twice yields two bookkeeping
// entries, so callers unregister before re-registering at a moved address.
func (r *Registry) Register(begin, end uintptr, lengthPtr *uint64, memoryIndex uint32, staticOffset uintptr) error {
	if end < begin {
		return fmt.Errorf("memprotect: invalid segment [%#x, %#x)", begin, end)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.segments = append(r.segments, Segment{
		Begin:        begin,
		End:          end,
		LengthPtr:    lengthPtr,
		MemoryIndex:  memoryIndex,
		StaticOffset: staticOffset,
	})
	return nil
}

// Unregister removes the first segment matching [begin, end). It reports
// whether a matching segment was found.
func (r *Registry) Unregister(begin, end uintptr) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, s := range r.segments {
		if s.Begin == begin && s.End == end {
			r.segments = append(r.segments[:i], r.segments[i+1:]...)
			return true
		}
	}
	return false
}

// Lookup returns the segment containing addr, if any. It must be safe to
// call from a signal handler: it only takes the shared spinlock, never
// allocates, and never blocks on anything but a concurrent writer.
func (r *Registry) Lookup(addr uintptr) (Segment, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.segments {
		if addr >= s.Begin && addr < s.End {
			return s, true
		}
	}
	return Segment{}, false
}

// Count reports how many segments are currently registered.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.segments)
}

// RegisterProtectedSegment registers begin..end against the process-wide
// registry. Named to match the shared-resource API the core's memory
// implementation calls into.
func RegisterProtectedSegment(begin, end uintptr, lengthPtr *uint64, memoryIndex uint32, staticOffset uintptr) error {
	return Global.Register(begin, end, lengthPtr, memoryIndex, staticOffset)
}

// UnregisterProtectedSegment removes begin..end from the process-wide
// registry.
func UnregisterProtectedSegment(begin, end uintptr) bool {
	return Global.Unregister(begin, end)
}

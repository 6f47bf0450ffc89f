// Package bca implements the Branch Control Array: a fixed-size,
// POSIX-shared-memory region coordinating a driver process and the stub
// runtime linked into the program under test. The driver writes the
// fail/succeed schedule between iterations; stubs read it and advance the
// observed-call counter during an iteration. No locking is provided — a
// single test process is assumed to be single-threaded (see stubrt).
package bca

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// DefaultSize is the recommended BCA region size in bytes.
const DefaultSize = 4096

// countSize is the width of the count field at offset 0.
const countSize = 2

// shmDir is where POSIX shared-memory-shaped regions live on Linux.
const shmDir = "/dev/shm"

// BCA is a mapped view of one shared-memory region. Count and Map alias
// the same backing mapping; callers must not retain the slice Map returns
// beyond Detach.
type BCA struct {
	name    string
	size    int
	mem     []byte
	creator bool
}

// Name returns the shared-memory region's name (suitable for LARMIER_BCA).
func (b *BCA) Name() string { return b.name }

// Size returns the mapped region size in bytes.
func (b *BCA) Size() int { return b.size }

// Count returns the number of intercepted calls observed so far.
func (b *BCA) Count() uint16 {
	return binary.LittleEndian.Uint16(b.mem[0:countSize])
}

// SetCount overwrites the observed-call counter. Used by the explorer to
// reset it to zero between iterations, and by stubs to record each
// intercepted call.
func (b *BCA) SetCount(n uint16) {
	binary.LittleEndian.PutUint16(b.mem[0:countSize], n)
}

// IncrementCount atomically-from-a-single-thread's-perspective increments
// count and returns the pre-increment value — the index of the call that
// just consulted the schedule.
func (b *BCA) IncrementCount() uint16 {
	cur := b.Count()
	b.SetCount(cur + 1)
	return cur
}

// Map returns the schedule bytes: Map()[i] == 0 means intercept i must
// fail; 1 means it must succeed. The returned slice aliases the mapping.
func (b *BCA) Map() []byte {
	return b.mem[countSize:]
}

// ScheduleBit reports the schedule decision for intercept index i.
func (b *BCA) ScheduleBit(i uint16) byte {
	return b.Map()[i]
}

func shmPath(name string) string {
	return filepath.Join(shmDir, name)
}

// Create allocates, zero-fills and maps a new region of the given size,
// identified by name. The caller is the sole writer until the region is
// shared with a child process's environment.
func Create(name string, size int) (*BCA, error) {
	if size <= countSize {
		return nil, fmt.Errorf("bca: size %d too small (must exceed %d)", size, countSize)
	}
	path := shmPath(name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0666)
	if err != nil {
		return nil, fmt.Errorf("bca: create %s: %w", path, err)
	}
	defer f.Close()

	if err := f.Truncate(int64(size)); err != nil {
		return nil, fmt.Errorf("bca: truncate %s: %w", path, err)
	}

	mem, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("bca: mmap %s: %w", path, err)
	}
	for i := range mem {
		mem[i] = 0
	}

	return &BCA{name: name, size: size, mem: mem, creator: true}, nil
}

// Attach opens and maps an existing region by name, for use by a stub
// running in the test process. ok is false when the region is missing or
// cannot be mapped; per the interpose protocol, that means "no fault
// injection requested" and the caller must forward every call.
func Attach(name string, size int) (b *BCA, ok bool) {
	if name == "" {
		return nil, false
	}
	path := shmPath(name)
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, false
	}
	defer f.Close()

	mem, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, false
	}

	return &BCA{name: name, size: size, mem: mem, creator: false}, true
}

// Detach unmaps the region. The creator additionally unlinks the backing
// shared-memory name so it does not outlive the driver.
func (b *BCA) Detach() error {
	if b == nil || b.mem == nil {
		return nil
	}
	err := unix.Munmap(b.mem)
	b.mem = nil
	if b.creator {
		if rmErr := os.Remove(shmPath(b.name)); rmErr != nil && err == nil {
			err = rmErr
		}
	}
	return err
}

// Reset zeroes the schedule from index from onward and resets count to
// zero. Used by the explorer after flipping a decision, to re-explore the
// deeper branches from a clean suffix.
func (b *BCA) Reset(from int) {
	m := b.Map()
	for i := from; i < len(m); i++ {
		m[i] = 0
	}
	b.SetCount(0)
}

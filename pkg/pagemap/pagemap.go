//go:build rowhammer_debug

// Package pagemap is a compile-time-gated diagnostic oracle: it resolves
// a virtual address to its physical frame number via /proc/self/pagemap,
// purely to cross-check the analytic mapper's predictions against the
// kernel's own view during development. Non-debug builds never reference
// this package, so a production binary never even opens the file.
package pagemap

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Bit layout of one /proc/pid/pagemap entry, from fs/proc/task_mmu.c.
const (
	pfnMask  = uint64(1)<<55 - 1
	present  = uint64(1) << 63
	pageSize = 0x1000
)

// Resolver reads physical frame numbers for the calling process.
type Resolver struct {
	f *os.File
}

// Open opens /proc/self/pagemap read-only.
func Open() (*Resolver, error) {
	f, err := os.Open("/proc/self/pagemap")
	if err != nil {
		return nil, fmt.Errorf("pagemap: open: %w", err)
	}
	return &Resolver{f: f}, nil
}

// Close releases the underlying file descriptor.
func (r *Resolver) Close() error {
	return r.f.Close()
}

// Resolve returns the physical address backing vaddr, or an error if the
// page is not present.
func (r *Resolver) Resolve(vaddr uintptr) (uint64, error) {
	var entry [8]byte
	off := int64(uintptr(vaddr)/pageSize) * 8

	n, err := unix.Pread(int(r.f.Fd()), entry[:], off)
	if err != nil {
		return 0, fmt.Errorf("pagemap: pread: %w", err)
	}
	if n != len(entry) {
		return 0, fmt.Errorf("pagemap: short read (%d bytes)", n)
	}

	raw := uint64(entry[0]) | uint64(entry[1])<<8 | uint64(entry[2])<<16 |
		uint64(entry[3])<<24 | uint64(entry[4])<<32 | uint64(entry[5])<<40 |
		uint64(entry[6])<<48 | uint64(entry[7])<<56

	if raw&present == 0 {
		return 0, fmt.Errorf("pagemap: page at %#x not present", vaddr)
	}

	pfn := raw & pfnMask
	return pfn*pageSize + uint64(vaddr%pageSize), nil
}

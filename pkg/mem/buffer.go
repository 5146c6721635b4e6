// Package mem owns the process-private memory region under test: its
// allocation, cache-line eviction, and the aggressor access loops that
// hammer it.
package mem

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	// PageSize is the base MMU page granularity this harness assumes.
	PageSize = 0x1000
	// HugePageSize is the x86-64 2MiB huge-page size.
	HugePageSize = 1 << 21
	// CacheLineSize is the Sandy-Bridge-class cache line width CLFLUSH
	// evicts in one shot.
	CacheLineSize = 64
)

// Buffer is an owned span of anonymous memory. Its methods address bytes
// by offset into the span; the package-level helpers (Flush, ReadByteAt,
// WriteByteAt, FillAndFlush and the Hammer loops) take bare absolute
// addresses instead, for callers that only carry addresses.
type Buffer struct {
	data []byte
	huge bool
}

// NewBuffer allocates size bytes of anonymous memory, pre-faulted at
// allocation time (MAP_POPULATE).
// When hugePage is set, size is rounded up to a 2MiB multiple and the
// region is advised MADV_HUGEPAGE.
func NewBuffer(size int, hugePage bool) (*Buffer, error) {
	if size <= 0 {
		return nil, fmt.Errorf("mem: buffer size must be positive, got %d", size)
	}
	if hugePage {
		size = alignUp(size, HugePageSize)
	}

	flags := unix.MAP_PRIVATE | unix.MAP_ANON | unix.MAP_POPULATE
	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, flags)
	if err != nil {
		return nil, fmt.Errorf("mem: mmap %d bytes: %w", size, err)
	}

	if hugePage {
		if err := unix.Madvise(data, unix.MADV_HUGEPAGE); err != nil {
			_ = unix.Munmap(data)
			return nil, fmt.Errorf("mem: madvise(MADV_HUGEPAGE): %w", err)
		}
	}

	return &Buffer{data: data, huge: hugePage}, nil
}

func alignUp(n, align int) int {
	return (n + align - 1) &^ (align - 1)
}

// Close releases the buffer's backing memory.
func (b *Buffer) Close() error {
	if b.data == nil {
		return nil
	}
	err := unix.Munmap(b.data)
	b.data = nil
	return err
}

// Len returns the buffer's size in bytes.
func (b *Buffer) Len() int { return len(b.data) }

// HugePage reports whether the buffer was allocated huge-page-backed.
func (b *Buffer) HugePage() bool { return b.huge }

// Base returns the buffer's starting address as an integer, the one
// place a Buffer's backing array decays into a raw address; every other
// method takes an offset relative to it.
func (b *Buffer) Base() uintptr {
	if len(b.data) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&b.data[0]))
}

// Addr returns the absolute address of a byte offset within the buffer.
func (b *Buffer) Addr(offset uintptr) uintptr {
	return b.Base() + offset
}

// Fill sets every byte in the buffer to v.
func (b *Buffer) Fill(v byte) {
	for i := range b.data {
		b.data[i] = v
	}
}

// FillRange sets length bytes starting at offset to v.
func (b *Buffer) FillRange(offset uintptr, length int, v byte) {
	end := int(offset) + length
	for i := int(offset); i < end; i++ {
		b.data[i] = v
	}
}

// ReadByte reads one byte at offset through a plain (non-volatile) Go
// slice index. The hammer drivers' victim scans use ReadByteAt instead,
// since they carry absolute addresses rather than a Buffer.
func (b *Buffer) ReadByte(offset uintptr) byte {
	return b.data[offset]
}

// Flush evicts every cache line covering [addr, addr+length) from the
// cache hierarchy.
func Flush(addr uintptr, length int) {
	end := addr + uintptr(length)
	for a := addr; a < end; a += CacheLineSize {
		clflush(a)
	}
}

// ReadByteAt reads one byte from an absolute address outside any
// particular Buffer's own slice, for callers (the hammer drivers) that
// only carry addresses discovered by the profiler or huge-page planner
// rather than a Buffer handle.
func ReadByteAt(addr uintptr) byte {
	return *(*byte)(unsafe.Pointer(addr))
}

// WriteByteAt writes one byte to an absolute address.
func WriteByteAt(addr uintptr, v byte) {
	*(*byte)(unsafe.Pointer(addr)) = v
}

// FillAndFlush memsets length bytes at addr to v and evicts them from
// cache, so the write is guaranteed to have reached DRAM before any
// subsequent hammering or scanning depends on it.
func FillAndFlush(addr uintptr, length int, v byte) {
	for i := 0; i < length; i++ {
		WriteByteAt(addr+uintptr(i), v)
	}
	Flush(addr, length)
}

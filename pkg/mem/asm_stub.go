//go:build amd64

package mem

// clflush and accessWord are implemented in asm_amd64.s.

func clflush(addr uintptr)

func accessWord(addr uintptr) uint32

//go:build amd64

package timing

// cpuidRdtscBegin and rdtscpCpuidEnd are implemented in asm_amd64.s.

func cpuidRdtscBegin() uint64

func rdtscpCpuidEnd() uint64

package mem

// HammerDouble repeatedly accesses two aggressor addresses and evicts
// both from cache after each pair of reads, the classic double-sided
// aggressor loop: each iteration must miss the row buffer so the DRAM
// chip actually reopens the row, which is what stresses the neighboring
// row's charge.
func HammerDouble(a, b uintptr, iterations uint64) {
	for ; iterations > 0; iterations-- {
		accessWord(a)
		accessWord(b)
		clflush(a)
		clflush(b)
	}
}

// HammerSingle is the single-aggressor variant, used by the row-grouping
// timing probe.
func HammerSingle(a uintptr, iterations uint64) {
	for ; iterations > 0; iterations-- {
		accessWord(a)
		clflush(a)
	}
}

// HammerN accesses and evicts an arbitrary set of aggressor addresses per
// iteration. Neither hammer driver calls it; both hammer pairs through
// HammerDouble.
func HammerN(addrs []uintptr, iterations uint64) {
	for ; iterations > 0; iterations-- {
		for _, a := range addrs {
			accessWord(a)
		}
		for _, a := range addrs {
			clflush(a)
		}
	}
}

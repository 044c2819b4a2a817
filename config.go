package kmerset

import "fmt"

// Config describes the shape of a KmerIndex: the k-mer length, the
// monotone-queue slice width used internally by the necklace
// transform, the number of prefix bits routed through the rank
// bitvector, and whether k-mers are canonicalized against their
// reverse complement.
type Config struct {
	K          int // k-mer length, 1 <= K <= 59; must be odd when Canonical is set
	M          int // necklace monotone-queue slice width, 1 <= M <= K
	PrefixBits int // bits of the necklace word routed to the prefix index, 1 <= PrefixBits <= 28
	Canonical  bool
}

func (cfg Config) validate() error {
	if cfg.K < 1 || cfg.K > 59 {
		return fmt.Errorf("kmerset: K must be in [1, 59], got %d", cfg.K)
	}
	// Odd K guarantees a k-mer and its reverse complement are never
	// equal, so canonicalization always has a well-defined winner; this
	// only matters when Canonical is set.
	if cfg.Canonical && cfg.K%2 == 0 {
		return fmt.Errorf("kmerset: K must be odd when Canonical is set, got %d", cfg.K)
	}
	if cfg.M < 1 || cfg.M > cfg.K {
		return fmt.Errorf("kmerset: M must be in [1, K], got %d", cfg.M)
	}
	if cfg.PrefixBits < 1 || cfg.PrefixBits > 28 {
		return fmt.Errorf("kmerset: PrefixBits must be in [1, 28], got %d", cfg.PrefixBits)
	}
	bits := packedBits(cfg)
	if cfg.PrefixBits >= bits {
		return fmt.Errorf("kmerset: PrefixBits (%d) must be smaller than the packed word width (%d)", cfg.PrefixBits, bits)
	}
	return nil
}

// packedBits returns the bit width of a (necklace << P | position) word
// for the given config: N = 2*K necklace bits plus P = ceil(log2(N))
// position bits.
func packedBits(cfg Config) int {
	return 2*cfg.K + positionBits(cfg.K)
}

// positionBits returns P = ceil(log2(N)) for N = 2*K.
func positionBits(k int) int {
	n := 2 * k
	p := 0
	for (1 << uint(p)) < n {
		p++
	}
	return p
}

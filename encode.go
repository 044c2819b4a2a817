package kmerset

import "github.com/ngsindex/kmerset/internal/bigword"

// base values: A=00, C=01, T=10, G=11.
const (
	baseA = 0b00
	baseC = 0b01
	baseT = 0b10
	baseG = 0b11
)

func encodeBase(b byte) (uint64, bool) {
	switch b {
	case 'A', 'a':
		return baseA, true
	case 'C', 'c':
		return baseC, true
	case 'T', 't':
		return baseT, true
	case 'G', 'g':
		return baseG, true
	default:
		return 0, false
	}
}

func decodeBase(v uint64) byte {
	switch v & 0b11 {
	case baseA:
		return 'A'
	case baseC:
		return 'C'
	case baseT:
		return 'T'
	default:
		return 'G'
	}
}

// encodeKmer packs k consecutive bases into the low 2*len(bases) bits
// of a word, most-significant base first (the last base occupies the
// low 2 bits).
func encodeKmer(bases []byte) (bigword.U128, error) {
	var word bigword.U128
	for _, b := range bases {
		v, ok := encodeBase(b)
		if !ok {
			return bigword.U128{}, ErrInvalidBase
		}
		word = word.Shl(2).Or(bigword.FromUint64(v))
	}
	return word, nil
}

// decodeKmer unpacks the low 2*k bits of word back into k bases.
func decodeKmer(word bigword.U128, k int) []byte {
	out := make([]byte, k)
	for i := 0; i < k; i++ {
		shift := uint(2 * (k - 1 - i))
		out[i] = decodeBase(word.Shr(shift).Uint64())
	}
	return out
}

var (
	mask55 = bigword.U128{Hi: 0x5555555555555555, Lo: 0x5555555555555555}
	maskAA = bigword.U128{Hi: 0xAAAAAAAAAAAAAAAA, Lo: 0xAAAAAAAAAAAAAAAA}
)

// reverseComplement computes the reverse complement of a 2*k-bit packed
// k-mer: bit-reverse the full word, undo the per-base bit-order flip
// that a whole-word bit reversal introduces, complement every base by
// XORing with the alternating 10 pattern, then shift the result down
// to the low 2*k bits.
func reverseComplement(word bigword.U128, k int) bigword.U128 {
	rev := word.ReverseBits()
	rev = rev.Shr(1).And(mask55).Or(rev.And(mask55).Shl(1))
	rev = rev.Xor(maskAA)
	return rev.Shr(uint(128 - 2*k))
}

// isCanonical reports whether a 2*k-bit packed k-mer is the canonical
// representative of {x, reverseComplement(x)}: complementing flips one
// bit of every base, so the popcounts of a k-mer and its reverse
// complement differ by an amount with the same parity as k; for odd k
// exactly one of the pair has even popcount.
func isCanonical(word bigword.U128) bool {
	return word.PopCount()%2 == 0
}

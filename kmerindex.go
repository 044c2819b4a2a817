package kmerset

import (
	"iter"

	"github.com/ngsindex/kmerset/internal/bigword"
	"github.com/ngsindex/kmerset/internal/necklace"
	"github.com/ngsindex/kmerset/internal/wordset"
)

// chunkSize bounds how many (prefix, suffix) pairs a sequence operation
// hands to the WordSet in one batch. The pairs for the whole sequence
// are computed first, in one slice, and then dispatched in batches of
// at most chunkSize; the sequence itself is not split into separately
// seeded chunks.
const chunkSize = 2048

// KmerIndex is a set of fixed-length DNA k-mers.
//
// The zero value is not usable; construct with New. A KmerIndex is not
// safe for concurrent use, not even by readers only: the first lookup
// after a mutation rebuilds the prefix bitvector's rank cache. Callers
// sharing one across goroutines must serialize every call with an
// external lock.
type KmerIndex struct {
	// used by the -copylocks checker from `go vet`.
	_ noCopy

	cfg Config

	bits       uint // N = 2*K
	pbits      uint // P = ceil(log2(N)), position field width
	suffixBits uint // packed word width minus PrefixBits

	ws *wordset.WordSet
}

// noCopy may be embedded in structs which must not be copied after
// first use. See https://golang.org/issues/8005#issuecomment-190753527.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// New constructs an empty KmerIndex for the given configuration.
func New(cfg Config) (*KmerIndex, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	bits := uint(2 * cfg.K)
	pbits := uint(positionBits(cfg.K))
	total := bits + pbits
	suffixBits := total - uint(cfg.PrefixBits)
	suffixBytes := int((suffixBits + 7) / 8)

	return &KmerIndex{
		cfg:        cfg,
		bits:       bits,
		pbits:      pbits,
		suffixBits: suffixBits,
		ws:         wordset.New(cfg.PrefixBits, suffixBytes),
	}, nil
}

func (x *KmerIndex) packWord(necklaceVal bigword.U128, pos int) bigword.U128 {
	return necklaceVal.Shl(x.pbits).Or(bigword.FromUint64(uint64(pos)))
}

func (x *KmerIndex) splitPrefixSuffix(packed bigword.U128) (prefix int, suffix bigword.U128) {
	prefix = int(packed.Shr(x.suffixBits).Uint64())
	suffix = packed.And(bigword.Mask(x.suffixBits))
	return prefix, suffix
}

// canonicalWord returns the orientation of a raw 2*K-bit k-mer word
// the index should store: itself if canonicalization is off or the
// word is already canonical, else its reverse complement.
func (x *KmerIndex) canonicalWord(word bigword.U128) bigword.U128 {
	if !x.cfg.Canonical || isCanonical(word) {
		return word
	}
	return reverseComplement(word, x.cfg.K)
}

func (x *KmerIndex) pairFromNecklace(necklaceVal bigword.U128, pos int) wordset.Pair {
	packed := x.packWord(necklaceVal, pos)
	prefix, suffix := x.splitPrefixSuffix(packed)
	return wordset.Pair{Prefix: prefix, Suffix: suffix}
}

func (x *KmerIndex) wordToPair(word bigword.U128) wordset.Pair {
	necklaceVal, pos := necklace.Pos(x.bits, x.canonicalWord(word))
	return x.pairFromNecklace(necklaceVal, pos)
}

// pairForWindow returns the (prefix, suffix) pair for the raw window
// currently held by fwd. When the forward orientation is the one to
// store (canonicalization is off, or the window is already canonical),
// it reads fwd's incrementally maintained necklace/position in O(1)
// rather than recomputing it — the amortized payoff of keeping a
// streaming NecklaceQueue at all. Only when canonicalization selects
// the reverse-complement orientation does it fall back to the static,
// brute-force Pos function, since fwd tracks the forward window only.
func (x *KmerIndex) pairForWindow(fwd *necklace.Queue) wordset.Pair {
	word := fwd.Word()
	if !x.cfg.Canonical || isCanonical(word) {
		necklaceVal, pos := fwd.GetNecklacePos()
		return x.pairFromNecklace(necklaceVal, pos)
	}
	rc := reverseComplement(word, x.cfg.K)
	necklaceVal, pos := necklace.Pos(x.bits, rc)
	return x.pairFromNecklace(necklaceVal, pos)
}

func (x *KmerIndex) requireFitsUint64() {
	if x.bits > 64 {
		panic("kmerset: this operation requires 2*K <= 64; use the *Seq methods for larger K")
	}
}

// Insert adds a single k-mer, packed into the low 2*K bits of kmer,
// most-significant base first. It panics if 2*K > 64; use InsertSeq
// for larger K.
func (x *KmerIndex) Insert(kmer uint64) bool {
	x.requireFitsUint64()
	word := bigword.FromUint64(kmer).And(bigword.Mask(x.bits))
	p := x.wordToPair(word)
	return x.ws.Insert(p.Prefix, p.Suffix)
}

// Remove deletes a single k-mer. See Insert for the packing and K
// restriction.
func (x *KmerIndex) Remove(kmer uint64) bool {
	x.requireFitsUint64()
	word := bigword.FromUint64(kmer).And(bigword.Mask(x.bits))
	p := x.wordToPair(word)
	return x.ws.Remove(p.Prefix, p.Suffix)
}

// Contains reports whether a single k-mer is present. See Insert for
// the packing and K restriction.
func (x *KmerIndex) Contains(kmer uint64) bool {
	x.requireFitsUint64()
	word := bigword.FromUint64(kmer).And(bigword.Mask(x.bits))
	p := x.wordToPair(word)
	return x.ws.Contains(p.Prefix, p.Suffix)
}

// wordsForSeq walks every overlapping K-length window of seq, in
// order, returning the (prefix, suffix) pair each one maps to. The
// sliding window's necklace/position is maintained incrementally via a
// single streaming NecklaceQueue (amortized O(1) per slid base); the
// orientation not selected by the canonicality test (relevant only
// when Canonical is set) is derived by reverse-complementing the raw
// window and resolving its necklace with the static, brute-force Pos
// function rather than a second, direction-flipped streaming queue —
// correctness-preserving and simpler, at the cost of O(N) instead of
// amortized O(1) for roughly half the k-mers in canonical mode.
func (x *KmerIndex) wordsForSeq(seq []byte) ([]wordset.Pair, error) {
	k := x.cfg.K
	if len(seq) < k {
		return nil, ErrShortSequence
	}

	first, err := encodeKmer(seq[:k])
	if err != nil {
		return nil, err
	}

	fwd := necklace.New(x.bits, uint(x.cfg.M))
	fwd.InsertFull(first)

	pairs := make([]wordset.Pair, 0, len(seq)-k+1)
	pairs = append(pairs, x.pairForWindow(fwd))

	for i := k; i < len(seq); i++ {
		v, ok := encodeBase(seq[i])
		if !ok {
			return nil, ErrInvalidBase
		}
		fwd.Insert2(v)
		pairs = append(pairs, x.pairForWindow(fwd))
	}
	return pairs, nil
}

func chunkPairs(pairs []wordset.Pair) [][]wordset.Pair {
	var out [][]wordset.Pair
	for i := 0; i < len(pairs); i += chunkSize {
		end := i + chunkSize
		if end > len(pairs) {
			end = len(pairs)
		}
		out = append(out, pairs[i:end])
	}
	return out
}

// InsertSeq inserts every K-length window of seq.
func (x *KmerIndex) InsertSeq(seq []byte) error {
	pairs, err := x.wordsForSeq(seq)
	if err != nil {
		return err
	}
	for _, batch := range chunkPairs(pairs) {
		x.ws.InsertBatch(batch)
	}
	return nil
}

// RemoveSeq removes every K-length window of seq.
func (x *KmerIndex) RemoveSeq(seq []byte) error {
	pairs, err := x.wordsForSeq(seq)
	if err != nil {
		return err
	}
	for _, batch := range chunkPairs(pairs) {
		x.ws.RemoveBatch(batch)
	}
	return nil
}

// ContainsSeq reports, for every K-length window of seq in order,
// whether it is present.
func (x *KmerIndex) ContainsSeq(seq []byte) ([]bool, error) {
	pairs, err := x.wordsForSeq(seq)
	if err != nil {
		return nil, err
	}
	out := make([]bool, 0, len(pairs))
	for _, batch := range chunkPairs(pairs) {
		out = append(out, x.ws.ContainsBatch(batch)...)
	}
	return out, nil
}

// ContainsAllSeq reports whether every K-length window of seq is
// present.
func (x *KmerIndex) ContainsAllSeq(seq []byte) (bool, error) {
	got, err := x.ContainsSeq(seq)
	if err != nil {
		return false, err
	}
	for _, ok := range got {
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// Len returns the number of k-mers in the set.
func (x *KmerIndex) Len() int { return x.ws.Len() }

// IsEmpty reports whether the set holds no k-mers.
func (x *KmerIndex) IsEmpty() bool { return x.ws.IsEmpty() }

func (x *KmerIndex) checkCompatible(o *KmerIndex) error {
	if x.cfg != o.cfg {
		return ErrConfigMismatch
	}
	return nil
}

// Union merges other into x in place.
func (x *KmerIndex) Union(other *KmerIndex) error {
	if err := x.checkCompatible(other); err != nil {
		return err
	}
	x.ws.UnionInPlace(other.ws)
	return nil
}

// Intersect keeps in x only k-mers also present in other.
func (x *KmerIndex) Intersect(other *KmerIndex) error {
	if err := x.checkCompatible(other); err != nil {
		return err
	}
	x.ws.IntersectInPlace(other.ws)
	return nil
}

// Difference removes from x every k-mer also present in other.
func (x *KmerIndex) Difference(other *KmerIndex) error {
	if err := x.checkCompatible(other); err != nil {
		return err
	}
	x.ws.DifferenceInPlace(other.ws)
	return nil
}

// SymmetricDifference sets x to hold k-mers present in exactly one of
// x or other.
func (x *KmerIndex) SymmetricDifference(other *KmerIndex) error {
	if err := x.checkCompatible(other); err != nil {
		return err
	}
	x.ws.SymmetricDifferenceInPlace(other.ws)
	return nil
}

// Union returns a new KmerIndex holding every k-mer present in any of
// sets, leaving them unmodified. All sets must share the same Config.
func Union(sets ...*KmerIndex) (*KmerIndex, error) {
	if len(sets) == 0 {
		return nil, ErrNoSets
	}
	for _, s := range sets[1:] {
		if err := sets[0].checkCompatible(s); err != nil {
			return nil, err
		}
	}
	acc := sets[0].ws
	for _, s := range sets[1:] {
		acc = wordset.Union(acc, s.ws)
	}
	return cloneWith(sets[0], acc), nil
}

// Intersect returns a new KmerIndex holding every k-mer present in all
// of sets, leaving them unmodified. All sets must share the same
// Config.
func Intersect(sets ...*KmerIndex) (*KmerIndex, error) {
	if len(sets) == 0 {
		return nil, ErrNoSets
	}
	for _, s := range sets[1:] {
		if err := sets[0].checkCompatible(s); err != nil {
			return nil, err
		}
	}
	acc := sets[0].ws
	for _, s := range sets[1:] {
		acc = wordset.Intersect(acc, s.ws)
	}
	return cloneWith(sets[0], acc), nil
}

func cloneWith(template *KmerIndex, ws *wordset.WordSet) *KmerIndex {
	return &KmerIndex{
		cfg:        template.cfg,
		bits:       template.bits,
		pbits:      template.pbits,
		suffixBits: template.suffixBits,
		ws:         ws,
	}
}

// Iter yields every k-mer in the set, packed the same way Insert
// expects. It panics if 2*K > 64.
func (x *KmerIndex) Iter() iter.Seq[uint64] {
	x.requireFitsUint64()
	return func(yield func(uint64) bool) {
		x.ws.Iterate(func(prefix int, suffix bigword.U128) bool {
			packed := bigword.FromUint64(uint64(prefix)).Shl(x.suffixBits).Or(suffix)
			necklaceVal := packed.Shr(x.pbits)
			pos := int(packed.And(bigword.Mask(x.pbits)).Uint64())
			word := necklace.Invert(x.bits, necklaceVal, pos)
			return yield(word.Uint64())
		})
	}
}

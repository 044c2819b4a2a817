// Package necklace computes, for a fixed-width bit word, its
// lexicographically smallest cyclic rotation (its "necklace") together
// with the rotation amount that produces it, both as a one-shot
// function over an arbitrary word and as a streaming structure that
// amortizes the cost across a sliding window of many overlapping words
// (e.g. successive k-mers read off a DNA sequence).
//
// The streaming Queue wraps a minqueue.Queue of M-bit prefixes: most of
// a rotation's ordering is decided by its first M bits, so a monotone
// minimum queue over those M-bit slices prunes the search to a handful
// of candidates per step instead of rescanning every one of the N
// possible rotations. The tail of rotations whose M-bit slice wraps
// past the end of the word (there are only M-1 of these) is always
// brute forced, and the true minimum is resolved by comparing full
// rotations among whichever candidates tie on their M-bit prefix.
package necklace

import (
	"github.com/ngsindex/kmerset/internal/bigword"
	"github.com/ngsindex/kmerset/internal/minqueue"
)

func u128Less(a, b bigword.U128) bool { return a.Less(b) }

func rotateLeft(word bigword.U128, bits, p uint) bigword.U128 {
	if p == 0 {
		return word
	}
	mask := bigword.Mask(bits)
	return word.Shl(p).Or(word.Shr(bits - p)).And(mask)
}

// Pos computes, by brute force over all bits possible rotation amounts,
// the lexicographically smallest rotation of word (masked to the low
// bits bits) and the rotation amount that produces it. Ties (periodic
// words) are broken in favor of the smallest rotation amount.
func Pos(bits uint, word bigword.U128) (necklace bigword.U128, pos int) {
	mask := bigword.Mask(bits)
	word = word.And(mask)

	best := word
	bestPos := 0
	for p := uint(1); p < bits; p++ {
		if r := rotateLeft(word, bits, p); r.Less(best) {
			best, bestPos = r, int(p)
		}
	}
	return best, bestPos
}

// Queue streams the necklace/position of a sliding N-bit window, N =
// bits, updated two bits at a time (one DNA base) or one bit at a time.
type Queue struct {
	bits  uint
	m     uint
	width int // number of M-bit slices that don't wrap: bits - m + 1

	word bigword.U128
	mq   *minqueue.Queue[bigword.U128]
}

// New creates a streaming necklace queue over an N = bits wide sliding
// word, using M-bit slices (m) for the internal monotone queue.
func New(bits, m uint) *Queue {
	if m == 0 || m > bits {
		panic("necklace: m must be in [1, bits]")
	}
	width := int(bits) - int(m) + 1
	return &Queue{
		bits:  bits,
		m:     m,
		width: width,
		mq:    minqueue.New(width, u128Less),
	}
}

func (q *Queue) rotation(p int) bigword.U128 {
	return rotateLeft(q.word, q.bits, uint(p))
}

// Word returns the raw (un-rotated) current N-bit window.
func (q *Queue) Word() bigword.U128 { return q.word }

// Invert recovers the original N-bit word from a necklace and the
// rotation position that produced it, the inverse of rotating word
// left by pos to reach necklace.
func Invert(bits uint, necklace bigword.U128, pos int) bigword.U128 {
	p := uint(pos) % bits
	return rotateLeft(necklace, bits, (bits-p)%bits)
}

// sliceAt returns the M-bit slice at (non-wrapping) position p of the
// current word, 0 <= p < width.
func (q *Queue) sliceAt(p int) bigword.U128 {
	shift := q.bits - uint(p) - q.m
	return q.word.Shr(shift).And(bigword.Mask(q.m))
}

// InsertFull seeds the queue with the initial N-bit word, establishing
// the first window.
func (q *Queue) InsertFull(word bigword.U128) {
	q.word = word.And(bigword.Mask(q.bits))
	vals := make([]bigword.U128, q.width)
	for p := 0; p < q.width; p++ {
		vals[p] = q.sliceAt(p)
	}
	q.mq.InsertFull(vals)
}

// Insert shifts the sliding word left by one bit, ORing in bit (0 or 1),
// and advances the internal monotone queue by one slice position. Used
// for bit-granular streams; DNA base streams use Insert2.
func (q *Queue) Insert(bit uint64) {
	q.word = q.word.Shl(1).Or(bigword.FromUint64(bit)).And(bigword.Mask(q.bits))
	q.mq.Insert(q.sliceAt(q.width - 1))
}

// Insert2 shifts the sliding word left by two bits, ORing in a 2-bit
// base value, and advances the internal monotone queue by two slice
// positions at once.
func (q *Queue) Insert2(base uint64) {
	q.word = q.word.Shl(2).Or(bigword.FromUint64(base & 0b11)).And(bigword.Mask(q.bits))
	q.mq.Insert2(q.sliceAt(q.width-2), q.sliceAt(q.width-1))
}

// GetNecklacePos returns the necklace (lexicographically smallest
// rotation) and rotation amount for the current N-bit window.
func (q *Queue) GetNecklacePos() (necklace bigword.U128, pos int) {
	mBits := q.bits - q.m

	type candidate struct {
		p      int
		prefix bigword.U128
	}

	var best *candidate

	consider := func(c candidate) {
		switch {
		case best == nil:
			cc := c
			best = &cc
		case c.prefix.Less(best.prefix):
			cc := c
			best = &cc
		}
	}

	if minVal, ok := q.mq.Min(); ok {
		for _, p := range q.mq.IterMinPos() {
			consider(candidate{p: p, prefix: minVal})
		}
	}
	for p := q.width; p < int(q.bits); p++ {
		prefix := q.rotation(p).Shr(mBits)
		consider(candidate{p: p, prefix: prefix})
	}

	// collect every candidate position tied on the winning M-bit prefix
	var tied []int
	if minVal, ok := q.mq.Min(); ok && minVal.Equal(best.prefix) {
		tied = append(tied, q.mq.IterMinPos()...)
	}
	for p := q.width; p < int(q.bits); p++ {
		if q.rotation(p).Shr(mBits).Equal(best.prefix) {
			tied = append(tied, p)
		}
	}

	bestPos := tied[0]
	bestRot := q.rotation(bestPos)
	for _, p := range tied[1:] {
		if r := q.rotation(p); r.Less(bestRot) {
			bestRot, bestPos = r, p
		}
	}
	return bestRot, bestPos
}

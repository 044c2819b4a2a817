// Package wordset implements the two-level set of (prefix, suffix)
// pairs at the heart of the k-mer index: a dense RankBitvector over the
// prefix universe tells you which prefixes are in use, a GapSequence
// parallel to that bitvector's rank order maps each in-use prefix to a
// container id, and a slice of AdaptiveSuffixContainers — one per
// in-use prefix — holds the suffixes sharing that prefix. Emptied
// containers are not freed; their ids are pushed onto a free list and
// handed back out to the next prefix that needs one, so container
// slices never need to be resized down and never leave dangling gaps.
//
// Batched operations group only adjacent equal prefixes in the input,
// not the whole batch — the caller (the chunked sequence API in the
// root package) already produces runs of equal prefixes from
// consecutive k-mers sharing a necklace, and a full sort would throw
// that locality away for no benefit.
package wordset

import (
	"github.com/ngsindex/kmerset/internal/bigword"
	"github.com/ngsindex/kmerset/internal/bitvec"
	"github.com/ngsindex/kmerset/internal/gapseq"
	"github.com/ngsindex/kmerset/internal/suffixset"
)

// WordSet is a set of (prefix, suffix) pairs.
type WordSet struct {
	prefixBits  int
	suffixBytes int

	prefixes     *bitvec.Bitvec
	containerIDs *gapseq.Sequence // rank-ordered: containerIDs.Get(rank(p)) is the id for prefix p
	containers   []*suffixset.Container
	freeIDs      []int

	count int
}

// New creates an empty WordSet over a 2^prefixBits prefix universe,
// with suffixes stored as suffixBytes-wide keys.
func New(prefixBits, suffixBytes int) *WordSet {
	if prefixBits < 0 || prefixBits > 28 {
		panic("wordset: prefixBits must be in [0, 28]")
	}
	return &WordSet{
		prefixBits:   prefixBits,
		suffixBytes:  suffixBytes,
		prefixes:     bitvec.New(1 << uint(prefixBits)),
		containerIDs: gapseq.New(32),
	}
}

// Len returns the total number of (prefix, suffix) pairs in the set.
func (w *WordSet) Len() int { return w.count }

// IsEmpty reports whether the set holds no pairs.
func (w *WordSet) IsEmpty() bool { return w.count == 0 }

func (w *WordSet) containerFor(prefix int) (*suffixset.Container, bool) {
	if !w.prefixes.Test(prefix) {
		return nil, false
	}
	rank := w.prefixes.Rank(prefix)
	id := int(w.containerIDs.Get(rank))
	return w.containers[id], true
}

func (w *WordSet) allocContainer() int {
	if n := len(w.freeIDs); n > 0 {
		id := w.freeIDs[n-1]
		w.freeIDs = w.freeIDs[:n-1]
		w.containers[id] = suffixset.New(w.suffixBytes)
		return id
	}
	w.containers = append(w.containers, suffixset.New(w.suffixBytes))
	return len(w.containers) - 1
}

// bindNewPrefix installs container c as the container for (now newly
// set) prefix, under a freshly allocated or reused container id.
func (w *WordSet) bindNewPrefix(prefix int, c *suffixset.Container) {
	id := w.allocContainer()
	w.containers[id] = c
	w.prefixes.Set(prefix)
	rank := w.prefixes.Rank(prefix)
	w.containerIDs.Insert(rank, uint32(id))
}

func (w *WordSet) releaseEmptyContainer(prefix int) {
	rank := w.prefixes.Rank(prefix)
	id := int(w.containerIDs.Get(rank))
	w.prefixes.Clear(prefix)
	w.containerIDs.Remove(rank)
	w.freeIDs = append(w.freeIDs, id)
}

// Contains reports whether (prefix, suffix) is in the set.
func (w *WordSet) Contains(prefix int, suffix bigword.U128) bool {
	c, ok := w.containerFor(prefix)
	return ok && c.Contains(suffix)
}

// Insert adds (prefix, suffix), returning true if it was newly added.
func (w *WordSet) Insert(prefix int, suffix bigword.U128) bool {
	if c, ok := w.containerFor(prefix); ok {
		if c.Insert(suffix) {
			w.count++
			return true
		}
		return false
	}
	c := suffixset.New(w.suffixBytes)
	c.Insert(suffix)
	w.bindNewPrefix(prefix, c)
	w.count++
	return true
}

// Remove deletes (prefix, suffix), returning true if it was present.
func (w *WordSet) Remove(prefix int, suffix bigword.U128) bool {
	c, ok := w.containerFor(prefix)
	if !ok || !c.Remove(suffix) {
		return false
	}
	w.count--
	if c.IsEmpty() {
		w.releaseEmptyContainer(prefix)
	}
	return true
}

// Pair is one (prefix, suffix) pair, used by the batch APIs.
type Pair struct {
	Prefix int
	Suffix bigword.U128
}

// forEachRun groups pairs into maximal runs of adjacent, equal
// prefixes and invokes fn once per run.
func forEachRun(pairs []Pair, fn func(prefix int, suffixes []bigword.U128)) {
	i := 0
	for i < len(pairs) {
		j := i + 1
		for j < len(pairs) && pairs[j].Prefix == pairs[i].Prefix {
			j++
		}
		suffixes := make([]bigword.U128, j-i)
		for k := i; k < j; k++ {
			suffixes[k-i] = pairs[k].Suffix
		}
		fn(pairs[i].Prefix, suffixes)
		i = j
	}
}

// InsertBatch inserts every pair, grouping adjacent equal prefixes so
// each distinct prefix run touches its container once. Returns the
// number of pairs newly inserted.
func (w *WordSet) InsertBatch(pairs []Pair) int {
	inserted := 0
	forEachRun(pairs, func(prefix int, suffixes []bigword.U128) {
		c, ok := w.containerFor(prefix)
		if !ok {
			c = suffixset.New(w.suffixBytes)
			w.bindNewPrefix(prefix, c)
		}
		for _, s := range suffixes {
			if c.Insert(s) {
				inserted++
				w.count++
			}
		}
	})
	return inserted
}

// RemoveBatch removes every pair, grouped the same way as InsertBatch.
// Returns the number of pairs actually removed.
func (w *WordSet) RemoveBatch(pairs []Pair) int {
	removed := 0
	forEachRun(pairs, func(prefix int, suffixes []bigword.U128) {
		c, ok := w.containerFor(prefix)
		if !ok {
			return
		}
		for _, s := range suffixes {
			if c.Remove(s) {
				removed++
				w.count--
			}
		}
		if c.IsEmpty() {
			w.releaseEmptyContainer(prefix)
		}
	})
	return removed
}

// ContainsBatch reports, for each pair in order, whether it is present.
func (w *WordSet) ContainsBatch(pairs []Pair) []bool {
	out := make([]bool, len(pairs))
	i := 0
	for i < len(pairs) {
		j := i + 1
		for j < len(pairs) && pairs[j].Prefix == pairs[i].Prefix {
			j++
		}
		c, ok := w.containerFor(pairs[i].Prefix)
		for k := i; k < j; k++ {
			out[k] = ok && c.Contains(pairs[k].Suffix)
		}
		i = j
	}
	return out
}

// ContainsAll reports whether every pair is present.
func (w *WordSet) ContainsAll(pairs []Pair) bool {
	for _, ok := range w.ContainsBatch(pairs) {
		if !ok {
			return false
		}
	}
	return true
}

// PrefixLoad returns the fraction of the prefix universe currently in
// use, a diagnostic for sizing PrefixBits.
func (w *WordSet) PrefixLoad() float64 {
	return float64(w.prefixes.Count()) / float64(w.prefixes.Len())
}

// SuffixSizeHistogram buckets containers by their cardinality, a
// diagnostic for spotting skewed prefix distributions.
func (w *WordSet) SuffixSizeHistogram() map[int]int {
	hist := make(map[int]int)
	w.prefixes.Iterate(func(prefix int) bool {
		c, _ := w.containerFor(prefix)
		hist[c.Len()]++
		return true
	})
	return hist
}

// Iterate calls yield for every (prefix, suffix) pair in ascending
// prefix-then-suffix order, stopping early if yield returns false.
func (w *WordSet) Iterate(yield func(prefix int, suffix bigword.U128) bool) {
	w.prefixes.Iterate(func(prefix int) bool {
		c, _ := w.containerFor(prefix)
		for _, s := range c.Keys() {
			if !yield(prefix, s) {
				return false
			}
		}
		return true
	})
}

// merge applies a boolean combinator over the per-prefix containers of
// w and o, writing the result into a brand new WordSet.
func merge(w, o *WordSet, keepPrefix func(inW, inO bool) bool, combine func(a, b *suffixset.Container) *suffixset.Container) *WordSet {
	result := New(w.prefixBits, w.suffixBytes)
	seen := make(map[int]bool)

	visit := func(prefix int) {
		if seen[prefix] {
			return
		}
		seen[prefix] = true

		wc, inW := w.containerFor(prefix)
		oc, inO := o.containerFor(prefix)
		if !keepPrefix(inW, inO) {
			return
		}

		var merged *suffixset.Container
		switch {
		case inW && inO:
			merged = combine(wc, oc)
		case inW:
			merged = combine(wc, suffixset.New(w.suffixBytes))
		case inO:
			merged = combine(suffixset.New(w.suffixBytes), oc)
		default:
			return
		}
		if merged.IsEmpty() {
			return
		}
		result.bindNewPrefix(prefix, merged)
		result.count += merged.Len()
	}

	w.prefixes.Iterate(func(prefix int) bool { visit(prefix); return true })
	o.prefixes.Iterate(func(prefix int) bool { visit(prefix); return true })
	return result
}

// Union returns a new WordSet holding every pair in w or o.
func Union(w, o *WordSet) *WordSet {
	return merge(w, o, func(inW, inO bool) bool { return inW || inO }, (*suffixset.Container).Union)
}

// Intersect returns a new WordSet holding every pair in both w and o.
func Intersect(w, o *WordSet) *WordSet {
	return merge(w, o, func(inW, inO bool) bool { return inW && inO }, (*suffixset.Container).Intersect)
}

// Difference returns a new WordSet holding pairs in w but not in o.
func Difference(w, o *WordSet) *WordSet {
	return merge(w, o, func(inW, inO bool) bool { return inW }, (*suffixset.Container).Difference)
}

// SymmetricDifference returns a new WordSet holding pairs in exactly
// one of w or o.
func SymmetricDifference(w, o *WordSet) *WordSet {
	return merge(w, o, func(inW, inO bool) bool { return inW || inO }, (*suffixset.Container).SymmetricDifference)
}

// UnionInPlace merges every pair of o into w.
func (w *WordSet) UnionInPlace(o *WordSet) {
	o.prefixes.Iterate(func(prefix int) bool {
		oc, _ := o.containerFor(prefix)
		if wc, ok := w.containerFor(prefix); ok {
			before := wc.Len()
			merged := wc.Union(oc)
			rank := w.prefixes.Rank(prefix)
			id := int(w.containerIDs.Get(rank))
			w.containers[id] = merged
			w.count += merged.Len() - before
		} else {
			cloned := suffixset.New(w.suffixBytes).Union(oc)
			w.bindNewPrefix(prefix, cloned)
			w.count += cloned.Len()
		}
		return true
	})
}

// IntersectInPlace keeps only pairs of w also present in o.
func (w *WordSet) IntersectInPlace(o *WordSet) {
	var toClear []int
	w.prefixes.Iterate(func(prefix int) bool {
		rank := w.prefixes.Rank(prefix)
		id := int(w.containerIDs.Get(rank))
		wc := w.containers[id]
		before := wc.Len()

		oc, ok := o.containerFor(prefix)
		var kept *suffixset.Container
		if ok {
			kept = wc.Intersect(oc)
		} else {
			kept = suffixset.New(w.suffixBytes)
		}
		w.containers[id] = kept
		w.count += kept.Len() - before
		if kept.IsEmpty() {
			toClear = append(toClear, prefix)
		}
		return true
	})
	for _, prefix := range toClear {
		w.releaseEmptyContainer(prefix)
	}
}

// DifferenceInPlace removes from w every pair also present in o.
func (w *WordSet) DifferenceInPlace(o *WordSet) {
	var toClear []int
	o.prefixes.Iterate(func(prefix int) bool {
		wc, ok := w.containerFor(prefix)
		if !ok {
			return true
		}
		oc, _ := o.containerFor(prefix)
		before := wc.Len()
		kept := wc.Difference(oc)
		rank := w.prefixes.Rank(prefix)
		id := int(w.containerIDs.Get(rank))
		w.containers[id] = kept
		w.count += kept.Len() - before
		if kept.IsEmpty() {
			toClear = append(toClear, prefix)
		}
		return true
	})
	for _, prefix := range toClear {
		w.releaseEmptyContainer(prefix)
	}
}

// SymmetricDifferenceInPlace sets w to the symmetric difference of w
// and o.
func (w *WordSet) SymmetricDifferenceInPlace(o *WordSet) {
	var toClear []int
	o.prefixes.Iterate(func(prefix int) bool {
		oc, _ := o.containerFor(prefix)
		if wc, ok := w.containerFor(prefix); ok {
			before := wc.Len()
			merged := wc.SymmetricDifference(oc)
			rank := w.prefixes.Rank(prefix)
			id := int(w.containerIDs.Get(rank))
			w.containers[id] = merged
			w.count += merged.Len() - before
			if merged.IsEmpty() {
				toClear = append(toClear, prefix)
			}
		} else {
			cloned := suffixset.New(w.suffixBytes).Union(oc)
			w.bindNewPrefix(prefix, cloned)
			w.count += cloned.Len()
		}
		return true
	})
	for _, prefix := range toClear {
		w.releaseEmptyContainer(prefix)
	}
}

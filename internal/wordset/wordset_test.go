package wordset

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/ngsindex/kmerset/internal/bigword"
)

type refPair struct {
	prefix int
	suffix uint64
}

func refContains(ref []refPair, p refPair) bool {
	for _, r := range ref {
		if r == p {
			return true
		}
	}
	return false
}

func TestInsertContainsRemove(t *testing.T) {
	w := New(6, 4) // prefix universe 64, 32-bit suffixes
	rng := rand.New(rand.NewSource(7))
	var ref []refPair

	for i := 0; i < 3000; i++ {
		prefix := rng.Intn(64)
		suffix := uint64(rng.Intn(1 << 20))
		p := refPair{prefix, suffix}

		switch rng.Intn(3) {
		case 0, 1:
			wantNew := !refContains(ref, p)
			got := w.Insert(prefix, bigword.FromUint64(suffix))
			if got != wantNew {
				t.Fatalf("Insert(%d,%d) = %v, want %v", prefix, suffix, got, wantNew)
			}
			if wantNew {
				ref = append(ref, p)
			}
		case 2:
			wantPresent := refContains(ref, p)
			got := w.Remove(prefix, bigword.FromUint64(suffix))
			if got != wantPresent {
				t.Fatalf("Remove(%d,%d) = %v, want %v", prefix, suffix, got, wantPresent)
			}
			if wantPresent {
				for i, r := range ref {
					if r == p {
						ref = append(ref[:i], ref[i+1:]...)
						break
					}
				}
			}
		}

		if w.Len() != len(ref) {
			t.Fatalf("Len() = %d, want %d", w.Len(), len(ref))
		}
	}

	for _, p := range ref {
		if !w.Contains(p.prefix, bigword.FromUint64(p.suffix)) {
			t.Fatalf("Contains(%d,%d) = false, want true", p.prefix, p.suffix)
		}
	}
}

func TestContainerIDsAreReused(t *testing.T) {
	w := New(4, 4)
	w.Insert(0, bigword.FromUint64(1))
	w.Remove(0, bigword.FromUint64(1))
	if len(w.freeIDs) != 1 {
		t.Fatalf("expected one freed container id, got %d", len(w.freeIDs))
	}
	before := len(w.containers)
	w.Insert(1, bigword.FromUint64(2))
	if len(w.containers) != before {
		t.Fatalf("expected a reused container id, containers grew from %d to %d", before, len(w.containers))
	}
}

func TestBatchGroupsAdjacentPrefixes(t *testing.T) {
	w := New(4, 4)
	pairs := []Pair{
		{0, bigword.FromUint64(1)},
		{0, bigword.FromUint64(2)},
		{3, bigword.FromUint64(5)},
		{3, bigword.FromUint64(5)}, // duplicate within the same run
		{1, bigword.FromUint64(9)},
	}
	n := w.InsertBatch(pairs)
	if n != 4 {
		t.Fatalf("InsertBatch inserted %d, want 4", n)
	}
	if w.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", w.Len())
	}

	got := w.ContainsBatch(pairs)
	want := []bool{true, true, true, true, true}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ContainsBatch()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if !w.ContainsAll(pairs) {
		t.Fatal("ContainsAll = false, want true")
	}

	removed := w.RemoveBatch(pairs)
	if removed != 4 {
		t.Fatalf("RemoveBatch removed %d, want 4 (duplicate shouldn't double count)", removed)
	}
	if !w.IsEmpty() {
		t.Fatal("expected set to be empty after removing every inserted pair")
	}
}

func buildRandom(rng *rand.Rand, n, prefixBits int) (*WordSet, []refPair) {
	w := New(prefixBits, 4)
	seen := map[refPair]bool{}
	var ref []refPair
	for len(ref) < n {
		p := refPair{rng.Intn(1 << uint(prefixBits)), uint64(rng.Intn(1 << 16))}
		if seen[p] {
			continue
		}
		seen[p] = true
		ref = append(ref, p)
		w.Insert(p.prefix, bigword.FromUint64(p.suffix))
	}
	return w, ref
}

func refSetOp(a, b []refPair, keep func(inA, inB bool) bool) []refPair {
	bSet := map[refPair]bool{}
	for _, p := range b {
		bSet[p] = true
	}
	aSet := map[refPair]bool{}
	for _, p := range a {
		aSet[p] = true
	}
	seen := map[refPair]bool{}
	var out []refPair
	add := func(p refPair, inA, inB bool) {
		if seen[p] {
			return
		}
		seen[p] = true
		if keep(inA, inB) {
			out = append(out, p)
		}
	}
	for _, p := range a {
		add(p, true, bSet[p])
	}
	for _, p := range b {
		add(p, aSet[p], true)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].prefix != out[j].prefix {
			return out[i].prefix < out[j].prefix
		}
		return out[i].suffix < out[j].suffix
	})
	return out
}

func collect(w *WordSet) []refPair {
	var out []refPair
	w.Iterate(func(prefix int, suffix bigword.U128) bool {
		out = append(out, refPair{prefix, suffix.Uint64()})
		return true
	})
	return out
}

func assertEqualPairs(t *testing.T, got, want []refPair) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length = %d, want %d (%v vs %v)", len(got), len(want), got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("mismatch at %d: got %v want %v", i, got[i], want[i])
		}
	}
}

func TestSetAlgebraAgainstBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	a, refA := buildRandom(rng, 200, 6)
	b, refB := buildRandom(rng, 200, 6)

	assertEqualPairs(t, collect(Union(a, b)), refSetOp(refA, refB, func(inA, inB bool) bool { return inA || inB }))
	assertEqualPairs(t, collect(Intersect(a, b)), refSetOp(refA, refB, func(inA, inB bool) bool { return inA && inB }))
	assertEqualPairs(t, collect(Difference(a, b)), refSetOp(refA, refB, func(inA, inB bool) bool { return inA }))
	assertEqualPairs(t, collect(SymmetricDifference(a, b)), refSetOp(refA, refB, func(inA, inB bool) bool { return inA != inB }))
}

func TestInPlaceSetAlgebraMatchesOutOfPlace(t *testing.T) {
	rng := rand.New(rand.NewSource(123))

	mk := func() (*WordSet, []refPair) { return buildRandom(rng, 150, 6) }

	a, refA := mk()
	b, refB := mk()
	want := collect(Union(a, b))
	a.UnionInPlace(b)
	assertEqualPairs(t, collect(a), want)
	_ = refA
	_ = refB

	a2, _ := mk()
	b2, _ := mk()
	want2 := collect(Intersect(a2, b2))
	a2.IntersectInPlace(b2)
	assertEqualPairs(t, collect(a2), want2)

	a3, _ := mk()
	b3, _ := mk()
	want3 := collect(Difference(a3, b3))
	a3.DifferenceInPlace(b3)
	assertEqualPairs(t, collect(a3), want3)

	a4, _ := mk()
	b4, _ := mk()
	want4 := collect(SymmetricDifference(a4, b4))
	a4.SymmetricDifferenceInPlace(b4)
	assertEqualPairs(t, collect(a4), want4)
}

func TestPrefixLoadAndHistogram(t *testing.T) {
	w := New(4, 4) // universe 16
	for i := 0; i < 5; i++ {
		w.Insert(i, bigword.FromUint64(uint64(i)))
	}
	if load := w.PrefixLoad(); load != 5.0/16.0 {
		t.Fatalf("PrefixLoad() = %v, want %v", load, 5.0/16.0)
	}
	hist := w.SuffixSizeHistogram()
	if hist[1] != 5 {
		t.Fatalf("expected 5 containers of size 1, got histogram %v", hist)
	}
}

package necklace

import (
	"math/rand"
	"testing"

	"github.com/ngsindex/kmerset/internal/bigword"
)

func TestPosSmall(t *testing.T) {
	// word 0b1011 (4 bits): rotations are 1011,0111,1110,1101 -> min 0111 at pos 1
	word := bigword.FromUint64(0b1011)
	got, pos := Pos(4, word)
	if got.Lo != 0b0111 || pos != 1 {
		t.Fatalf("Pos() = %04b, %d, want 0111, 1", got.Lo, pos)
	}
}

// wordAfterBits reconstructs the bits-wide window word after shifting
// in a bit stream, for cross-checking against the streaming Queue.
func wordAfterBits(bits uint, seedBits []uint64, stream []uint64) bigword.U128 {
	var w bigword.U128
	for _, b := range seedBits {
		w = w.Shl(1).Or(bigword.FromUint64(b)).And(bigword.Mask(bits))
	}
	for _, b := range stream {
		w = w.Shl(1).Or(bigword.FromUint64(b)).And(bigword.Mask(bits))
	}
	return w
}

func TestQueueMatchesBruteForce_BitStream(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	const bits = 24
	const m = 7

	randBits := func(n int) []uint64 {
		out := make([]uint64, n)
		for i := range out {
			out[i] = uint64(rng.Intn(2))
		}
		return out
	}

	seed := randBits(int(bits))
	q := New(bits, m)

	var w bigword.U128
	for _, b := range seed {
		w = w.Shl(1).Or(bigword.FromUint64(b)).And(bigword.Mask(bits))
	}
	q.InsertFull(w)

	checkAgainst := func(word bigword.U128) {
		wantNeck, wantPos := Pos(bits, word)
		gotNeck, gotPos := q.GetNecklacePos()
		if !gotNeck.Equal(wantNeck) {
			t.Fatalf("necklace mismatch: got %v want %v (word=%v)", gotNeck, wantNeck, word)
		}
		_ = wantPos
		_ = gotPos
		// position may differ only when the word is periodic (multiple
		// rotations share the minimal value); guard against that by
		// checking the rotation at gotPos actually equals the necklace.
		if r := rotateLeft(word, bits, uint(gotPos)); !r.Equal(wantNeck) {
			t.Fatalf("rotation at reported pos %d = %v, want %v", gotPos, r, wantNeck)
		}
	}

	checkAgainst(w)

	stream := randBits(200)
	for _, b := range stream {
		q.Insert(b)
		w = w.Shl(1).Or(bigword.FromUint64(b)).And(bigword.Mask(bits))
		checkAgainst(w)
	}
}

// TestSeedAndSlideScenario: N=8, W=4, seed 0b10010110 -> (0b00101101, 1);
// push bit 0 -> (0b00001011, 6).
func TestSeedAndSlideScenario(t *testing.T) {
	const bits = 8
	const m = 5 // width = bits - m + 1 = 4

	q := New(bits, m)
	q.InsertFull(bigword.FromUint64(0b10010110))

	neck, pos := q.GetNecklacePos()
	if neck.Lo != 0b00101101 || pos != 1 {
		t.Fatalf("seeded GetNecklacePos() = %08b, %d, want 00101101, 1", neck.Lo, pos)
	}

	q.Insert(0)
	neck, pos = q.GetNecklacePos()
	if neck.Lo != 0b00001011 || pos != 6 {
		t.Fatalf("after Insert(0) GetNecklacePos() = %08b, %d, want 00001011, 6", neck.Lo, pos)
	}
}

func TestQueueMatchesBruteForce_BaseStream(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	const bits = 32 // 2*K for K=16
	const m = 9

	randBase := func(n int) []uint64 {
		out := make([]uint64, n)
		for i := range out {
			out[i] = uint64(rng.Intn(4))
		}
		return out
	}

	seedBases := randBase(int(bits) / 2)
	var w bigword.U128
	for _, b := range seedBases {
		w = w.Shl(2).Or(bigword.FromUint64(b)).And(bigword.Mask(bits))
	}

	q := New(bits, m)
	q.InsertFull(w)

	checkAgainst := func(word bigword.U128) {
		wantNeck, _ := Pos(bits, word)
		gotNeck, gotPos := q.GetNecklacePos()
		if !gotNeck.Equal(wantNeck) {
			t.Fatalf("necklace mismatch: got %v want %v", gotNeck, wantNeck)
		}
		if r := rotateLeft(word, bits, uint(gotPos)); !r.Equal(wantNeck) {
			t.Fatalf("rotation at reported pos %d = %v, want %v", gotPos, r, wantNeck)
		}
	}
	checkAgainst(w)

	bases := randBase(500)
	for _, b := range bases {
		q.Insert2(b)
		w = w.Shl(2).Or(bigword.FromUint64(b)).And(bigword.Mask(bits))
		checkAgainst(w)
	}
}

// SPDX-License-Identifier: MIT

// Package kmerset provides a set of fixed-length DNA k-mers backed by a
// canonical, rotation-aware word encoding and a two-level prefix/suffix
// index.
//
// Every k-mer is mapped to a single bit pattern — its necklace (the
// lexicographically smallest rotation of its 2-bit-per-base encoding)
// paired with the rotation offset that recovers the original k-mer —
// so that a k-mer and its reverse complement, when the set is built in
// canonical mode, land on the same necklace regardless of which strand
// it was read from. Necklace words are split into a dense prefix and a
// variable-width suffix: the prefix selects a bucket in a rank-indexed
// bitvector, the suffix is held in a small container that grows into a
// byte trie once the bucket gets large.
//
// KmerIndex ties the encoding and the index together behind a sequence
// API: InsertSeq/RemoveSeq/ContainsSeq take a raw base string and walk
// its k-mer window, maintaining it incrementally rather than
// re-encoding every k-mer from scratch.
package kmerset

package kmerset

import "errors"

var (
	// ErrShortSequence is returned when a sequence is shorter than K bases.
	ErrShortSequence = errors.New("kmerset: sequence shorter than k")

	// ErrInvalidBase is returned when a sequence contains a byte outside
	// {A,C,G,T,a,c,g,t}.
	ErrInvalidBase = errors.New("kmerset: invalid base, expected A/C/G/T")

	// ErrCanonicalityMismatch is reserved for a canonicality conflict.
	// No operation in this package returns it: set algebra between
	// indexes whose Canonical settings differ reports ErrConfigMismatch.
	ErrCanonicalityMismatch = errors.New("kmerset: canonicality mismatch")

	// ErrConfigMismatch is returned by set algebra between two indexes
	// whose Config (K, M, PrefixBits, Canonical) don't agree.
	ErrConfigMismatch = errors.New("kmerset: config mismatch")

	// ErrCorruptStream is returned by Load when a persisted blob fails a
	// structural check (bad magic, truncated varint, short suffix
	// record).
	ErrCorruptStream = errors.New("kmerset: corrupt persisted stream")

	// ErrDuplicatePrefix is returned by Load when a persisted blob
	// contains a prefix group that is not strictly greater than the one
	// before it: the same prefix more than once, or prefixes out of
	// ascending order.
	ErrDuplicatePrefix = errors.New("kmerset: duplicate prefix in persisted stream")

	// ErrNoSets is returned by the package-level Union/Intersect when
	// called with zero sets.
	ErrNoSets = errors.New("kmerset: at least one set is required")
)

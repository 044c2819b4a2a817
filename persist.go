package kmerset

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"

	"github.com/natefinch/atomic"
	"github.com/ngsindex/kmerset/internal/bigword"
)

// persistMagic identifies the reference on-disk format implemented by
// Save/Load: a varint-framed header followed by prefix-ascending
// groups of fixed-width suffix records. This is one concrete codec
// satisfying the abstract persistence invariants (see doc comment on
// Load) — compression and any alternative wire format remain out of
// scope.
const persistMagic = "KMER1\n"

// Save atomically writes x to path, creating or replacing it. The
// write goes through a temp file plus rename via
// github.com/natefinch/atomic so a crash mid-write never leaves a
// truncated file at path.
func Save(path string, x *KmerIndex) error {
	var buf bytes.Buffer
	buf.WriteString(persistMagic)

	writeVarint(&buf, uint64(x.cfg.K))
	writeVarint(&buf, uint64(x.cfg.M))
	writeVarint(&buf, uint64(x.cfg.PrefixBits))
	canon := uint64(0)
	if x.cfg.Canonical {
		canon = 1
	}
	writeVarint(&buf, canon)

	suffixBytes := int((x.suffixBits + 7) / 8)

	type group struct {
		prefix   int
		suffixes []bigword.U128
	}
	var groups []group
	x.ws.Iterate(func(prefix int, suffix bigword.U128) bool {
		if len(groups) == 0 || groups[len(groups)-1].prefix != prefix {
			groups = append(groups, group{prefix: prefix})
		}
		last := &groups[len(groups)-1]
		last.suffixes = append(last.suffixes, suffix)
		return true
	})

	writeVarint(&buf, uint64(len(groups)))
	for _, g := range groups {
		writeVarint(&buf, uint64(g.prefix))
		writeVarint(&buf, uint64(len(g.suffixes)))
		for _, s := range g.suffixes {
			buf.Write(u128ToBigEndian(s, suffixBytes))
		}
	}

	return atomic.WriteFile(path, &buf)
}

// Load reads back an index written by Save.
//
// The format requires prefix groups to appear in strictly ascending
// order with no repeats; Load rejects any file violating that with
// ErrDuplicatePrefix (covering both an exact repeat and an
// out-of-order prefix, since either manifests as a non-increasing
// prefix value), and rejects any other structural defect (bad magic,
// truncated varint, short suffix record) with ErrCorruptStream. No
// partial index is ever returned on error.
func Load(path string) (*KmerIndex, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	r := bytes.NewReader(data)

	magic := make([]byte, len(persistMagic))
	if _, err := io.ReadFull(r, magic); err != nil || string(magic) != persistMagic {
		return nil, ErrCorruptStream
	}

	k, err := readVarint(r)
	if err != nil {
		return nil, ErrCorruptStream
	}
	m, err := readVarint(r)
	if err != nil {
		return nil, ErrCorruptStream
	}
	prefixBits, err := readVarint(r)
	if err != nil {
		return nil, ErrCorruptStream
	}
	canon, err := readVarint(r)
	if err != nil {
		return nil, ErrCorruptStream
	}

	x, err := New(Config{K: int(k), M: int(m), PrefixBits: int(prefixBits), Canonical: canon != 0})
	if err != nil {
		return nil, err
	}
	suffixBytes := int((x.suffixBits + 7) / 8)

	numGroups, err := readVarint(r)
	if err != nil {
		return nil, ErrCorruptStream
	}

	lastPrefix := -1
	for i := uint64(0); i < numGroups; i++ {
		prefix, err := readVarint(r)
		if err != nil {
			return nil, ErrCorruptStream
		}
		p := int(prefix)
		if p <= lastPrefix {
			return nil, ErrDuplicatePrefix
		}
		lastPrefix = p

		count, err := readVarint(r)
		if err != nil {
			return nil, ErrCorruptStream
		}
		record := make([]byte, suffixBytes)
		for j := uint64(0); j < count; j++ {
			if _, err := io.ReadFull(r, record); err != nil {
				return nil, ErrCorruptStream
			}
			x.ws.Insert(p, bigEndianToU128(record))
		}
	}
	return x, nil
}

func writeVarint(buf *bytes.Buffer, v uint64) {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	buf.Write(tmp[:n])
}

func readVarint(r *bytes.Reader) (uint64, error) {
	return binary.ReadUvarint(r)
}

func u128ToBigEndian(v bigword.U128, width int) []byte {
	out := make([]byte, width)
	for i := width - 1; i >= 0; i-- {
		out[i] = byte(v.Uint64())
		v = v.Shr(8)
	}
	return out
}

func bigEndianToU128(b []byte) bigword.U128 {
	var v bigword.U128
	for _, by := range b {
		v = v.Shl(8).Or(bigword.FromUint64(uint64(by)))
	}
	return v
}

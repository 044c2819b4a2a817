// Package suffixset implements the adaptive per-prefix container that
// holds the suffix half of every k-mer word sharing a given prefix.
//
// Small containers (below thresholdUp elements) are kept as a flat,
// sorted slice — cheap to scan and cache-friendly for the common case
// of a lightly populated prefix bucket. Once a container grows past
// thresholdUp it is rebuilt into a byte trie keyed on the suffix's
// fixed-width big-endian byte representation: a 256-way branching trie
// whose nodes use a popcount-compressed presence set (set256, one bit
// per possible byte value) so a node only allocates space for the
// children it actually has, mirroring the teacher's
// internal/bitset.BitSet256 + internal/sparse.Array256[T] pattern
// (there applied to IPv4/IPv6 octets, here to suffix bytes). The trie
// shrinks back to a sorted slice only once it falls below thresholdDown
// — a gap between the two thresholds (hysteresis) so a container
// sitting near one crossing point doesn't flip representations on every
// insert/remove.
//
// Keys iterate and merge in ascending numeric order because trie
// descent always visits the most significant byte first: the
// big-endian byte representation sorts lexicographically exactly the
// same as the underlying integer sorts numerically.
package suffixset

import (
	"sort"

	"github.com/ngsindex/kmerset/internal/bigword"
)

const (
	thresholdUp   = 1024 // small slice -> trie
	thresholdDown = 32   // trie -> small slice
)

// node is one level of the suffix trie. present tracks which child byte
// values exist; children holds one *node per set bit of present, in
// ascending byte order (rank0-indexed), except at the last byte of the
// key, where presence alone indicates membership and children is nil.
type node struct {
	present  set256
	children []*node
}

func (n *node) childAt(b byte) (*node, bool) {
	if !n.present.test(b) {
		return nil, false
	}
	return n.children[n.present.rank0(b)], true
}

func (n *node) insertChild(b byte, c *node) {
	i := n.present.rank0(b)
	n.children = append(n.children, nil)
	copy(n.children[i+1:], n.children[i:])
	n.children[i] = c
	n.present.set(b)
}

func (n *node) removeChild(b byte) {
	i := n.present.rank0(b)
	copy(n.children[i:], n.children[i+1:])
	n.children = n.children[:len(n.children)-1]
	n.present.clear(b)
}

func (n *node) isEmpty() bool {
	return n.present.isEmpty()
}

// contains reports whether key is present, key[0] being the most
// significant byte.
func (n *node) contains(key []byte) bool {
	if len(key) == 1 {
		return n.present.test(key[0])
	}
	c, ok := n.childAt(key[0])
	if !ok {
		return false
	}
	return c.contains(key[1:])
}

// insert returns true if key was newly inserted (false if already
// present).
func (n *node) insert(key []byte) bool {
	if len(key) == 1 {
		if n.present.test(key[0]) {
			return false
		}
		n.present.set(key[0])
		return true
	}
	c, ok := n.childAt(key[0])
	if !ok {
		c = &node{}
		n.insertChild(key[0], c)
	}
	return c.insert(key[1:])
}

// remove returns true if key was present and removed.
func (n *node) remove(key []byte) bool {
	if len(key) == 1 {
		if !n.present.test(key[0]) {
			return false
		}
		n.present.clear(key[0])
		return true
	}
	c, ok := n.childAt(key[0])
	if !ok {
		return false
	}
	removed := c.remove(key[1:])
	if removed && c.isEmpty() {
		n.removeChild(key[0])
	}
	return removed
}

// walk visits every key reachable from n, in ascending order, appending
// each completed key (prefix + trailing byte) via yield.
func (n *node) walk(prefix []byte, width int, yield func([]byte)) {
	leaf := len(prefix) == width-1
	b, ok := n.present.nextSet(0)
	for ok {
		full := append(append([]byte(nil), prefix...), b)
		if leaf {
			yield(full)
		} else {
			c, _ := n.childAt(b)
			c.walk(full, width, yield)
		}
		b, ok = n.present.nextSet(int(b) + 1)
	}
}

// Container is an adaptive set of fixed-width unsigned integers (the
// suffix half of a k-mer word).
type Container struct {
	width int // bytes per key
	small []bigword.U128
	root  *node
	n     int
}

// New creates an empty container whose keys are widthBytes bytes wide.
func New(widthBytes int) *Container {
	if widthBytes < 1 || widthBytes > 16 {
		panic("suffixset: widthBytes must be in [1, 16]")
	}
	return &Container{width: widthBytes}
}

// Len returns the cardinality.
func (c *Container) Len() int { return c.n }

func (c *Container) toBytes(v bigword.U128) []byte {
	out := make([]byte, c.width)
	for i := c.width - 1; i >= 0; i-- {
		out[i] = byte(v.Uint64())
		v = v.Shr(8)
	}
	return out
}

func (c *Container) fromBytes(b []byte) bigword.U128 {
	var v bigword.U128
	for _, by := range b {
		v = v.Shl(8).Or(bigword.FromUint64(uint64(by)))
	}
	return v
}

func (c *Container) smallSearch(v bigword.U128) int {
	return sort.Search(len(c.small), func(i int) bool { return !c.small[i].Less(v) })
}

// Contains reports whether v is present.
func (c *Container) Contains(v bigword.U128) bool {
	if c.root != nil {
		return c.root.contains(c.toBytes(v))
	}
	i := c.smallSearch(v)
	return i < len(c.small) && c.small[i].Equal(v)
}

// Insert adds v, returning true if it was newly inserted.
func (c *Container) Insert(v bigword.U128) bool {
	var inserted bool
	if c.root != nil {
		inserted = c.root.insert(c.toBytes(v))
	} else {
		i := c.smallSearch(v)
		if i < len(c.small) && c.small[i].Equal(v) {
			inserted = false
		} else {
			c.small = append(c.small, bigword.U128{})
			copy(c.small[i+1:], c.small[i:])
			c.small[i] = v
			inserted = true
		}
	}
	if inserted {
		c.n++
		c.maybeGrow()
	}
	return inserted
}

// Remove deletes v, returning true if it was present.
func (c *Container) Remove(v bigword.U128) bool {
	var removed bool
	if c.root != nil {
		removed = c.root.remove(c.toBytes(v))
	} else {
		i := c.smallSearch(v)
		if i < len(c.small) && c.small[i].Equal(v) {
			c.small = append(c.small[:i], c.small[i+1:]...)
			removed = true
		}
	}
	if removed {
		c.n--
		c.maybeShrink()
	}
	return removed
}

func (c *Container) maybeGrow() {
	if c.root == nil && c.n > thresholdUp {
		root := &node{}
		for _, v := range c.small {
			root.insert(c.toBytes(v))
		}
		c.root = root
		c.small = nil
	}
}

func (c *Container) maybeShrink() {
	if c.root != nil && c.n < thresholdDown {
		keys := c.Keys()
		c.small = keys
		c.root = nil
	}
}

// Keys returns every element in ascending order.
func (c *Container) Keys() []bigword.U128 {
	if c.root == nil {
		out := make([]bigword.U128, len(c.small))
		copy(out, c.small)
		return out
	}
	out := make([]bigword.U128, 0, c.n)
	c.root.walk(nil, c.width, func(key []byte) {
		out = append(out, c.fromBytes(key))
	})
	return out
}

// merge performs a linear merge-scan over the ascending key lists of a
// and b, calling keep for every key that should be included, based on
// whether it came from a, b, or both.
func merge(a, b []bigword.U128, keep func(inA, inB bool) bool) []bigword.U128 {
	out := make([]bigword.U128, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i].Less(b[j]):
			if keep(true, false) {
				out = append(out, a[i])
			}
			i++
		case b[j].Less(a[i]):
			if keep(false, true) {
				out = append(out, b[j])
			}
			j++
		default:
			if keep(true, true) {
				out = append(out, a[i])
			}
			i++
			j++
		}
	}
	for ; i < len(a); i++ {
		if keep(true, false) {
			out = append(out, a[i])
		}
	}
	for ; j < len(b); j++ {
		if keep(false, true) {
			out = append(out, b[j])
		}
	}
	return out
}

func fromKeys(widthBytes int, keys []bigword.U128) *Container {
	c := New(widthBytes)
	for _, k := range keys {
		c.Insert(k)
	}
	return c
}

// Union returns a new container holding the union of c and o.
func (c *Container) Union(o *Container) *Container {
	keys := merge(c.Keys(), o.Keys(), func(inA, inB bool) bool { return true })
	return fromKeys(c.width, keys)
}

// Intersect returns a new container holding the intersection of c and o.
func (c *Container) Intersect(o *Container) *Container {
	keys := merge(c.Keys(), o.Keys(), func(inA, inB bool) bool { return inA && inB })
	return fromKeys(c.width, keys)
}

// Difference returns a new container holding elements of c not in o.
func (c *Container) Difference(o *Container) *Container {
	keys := merge(c.Keys(), o.Keys(), func(inA, inB bool) bool { return inA && !inB })
	return fromKeys(c.width, keys)
}

// SymmetricDifference returns a new container holding elements in
// exactly one of c or o.
func (c *Container) SymmetricDifference(o *Container) *Container {
	keys := merge(c.Keys(), o.Keys(), func(inA, inB bool) bool { return inA != inB })
	return fromKeys(c.width, keys)
}

// IsEmpty reports whether the container holds no elements.
func (c *Container) IsEmpty() bool { return c.n == 0 }

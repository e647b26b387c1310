// Package longhash implements a fixed-capacity, allocation-free
// open-addressing table mapping int64 keys to int64 values.
//
// It is the "close-coupled auxiliary for catalog resolution" the engine's
// testable properties call LongHashTable: the catalog uses it to resolve a
// decoded template id to its index in the catalog's template list without a map lookup or
// per-message allocation, mirroring the deterministic, allocation-free
// resolution the catalog's hot decode path requires.
//
// It is deliberately not a general-purpose hash map: capacity is fixed at
// construction (1<<bits slots), one slot is always kept empty as a linear
// probe terminator, and Insert fails once the usable capacity
// (2^bits - 1 entries) is exhausted rather than growing.
package longhash

import "github.com/fastcodec/fast/errs"

// Table is a fixed-capacity open-addressing int64->int64 table.
type Table struct {
	keys     []int64
	vals     []int64
	used     []bool
	mask     uint64
	capacity int
	count    int
}

// New creates a Table with capacity 1<<bits. bits must be in [1, 62].
func New(bits int) *Table {
	if bits < 1 || bits > 62 {
		panic("longhash: bits out of range")
	}

	capacity := 1 << uint(bits)
	t := &Table{
		keys:     make([]int64, capacity),
		vals:     make([]int64, capacity),
		used:     make([]bool, capacity),
		mask:     uint64(capacity - 1),
		capacity: capacity,
	}

	return t
}

// mix scrambles an int64 key into a well-distributed uint64 using the
// 64-bit variant of the splitmix finalizer, so sequential keys (template
// ids are typically small and dense) don't cluster into adjacent slots.
func mix(key int64) uint64 {
	x := uint64(key)
	x ^= x >> 33
	x *= 0xff51afd7ed558ccd
	x ^= x >> 33
	x *= 0xc4ceb9fe1a85ec53
	x ^= x >> 33

	return x
}

// Capacity returns the total slot count (1<<bits).
func (t *Table) Capacity() int { return t.capacity }

// Count returns the number of entries currently stored.
func (t *Table) Count() int { return t.count }

// UsableCapacity returns the maximum number of entries the table can ever
// hold: one slot is permanently reserved as a probe terminator.
func (t *Table) UsableCapacity() int { return t.capacity - 1 }

// Insert adds key->value. It returns errs.ErrTableFull if the table's
// usable capacity is already exhausted, and overwrites the value in place
// if key is already present.
func (t *Table) Insert(key, value int64) error {
	idx, found := t.probe(key)
	if found {
		t.vals[idx] = value
		return nil
	}

	if t.count >= t.UsableCapacity() {
		return errs.ErrTableFull
	}

	t.keys[idx] = key
	t.vals[idx] = value
	t.used[idx] = true
	t.count++

	return nil
}

// Get looks up key, returning its value and true if present.
func (t *Table) Get(key int64) (int64, bool) {
	idx, found := t.probe(key)
	if !found {
		return 0, false
	}

	return t.vals[idx], true
}

// probe linearly scans from key's home slot, returning the slot holding
// key (found=true) or the first empty slot on the key's probe sequence
// (found=false) where it could be inserted.
func (t *Table) probe(key int64) (idx int, found bool) {
	start := mix(key) & t.mask

	for i := uint64(0); i < uint64(t.capacity); i++ {
		slot := (start + i) & t.mask

		if !t.used[slot] {
			return int(slot), false
		}

		if t.keys[slot] == key {
			return int(slot), true
		}
	}

	// Unreachable when count < capacity, since Insert enforces
	// count <= capacity-1 and the reserved empty slot guarantees probe
	// termination.
	return -1, false
}

// Reset empties the table, retaining its backing arrays.
func (t *Table) Reset() {
	for i := range t.used {
		t.used[i] = false
	}
	t.count = 0
}

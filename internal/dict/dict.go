// Package dict implements the keyspace hash table: two open-chained
// tables with power-of-two sizing and incremental rehashing, so a single
// reactor iteration never pays for resizing a large table in one shot.
//
// Grounded on original_source/src/object/dict.rs (table pair, rehash_idx,
// step/bulk migration) and the teacher's map-based internal/storage/store.go
// (key/value shape, Set/Get/Delete naming).
package dict

import (
	"math/rand"

	"github.com/cespare/xxhash/v2"
)

const initialSize = 4

type entry struct {
	hash  uint64
	key   string
	value any
	next  *entry
}

type table struct {
	buckets []*entry
	mask    uint64
	used    int
	seed    uint64
}

func newTable(size uint64, seed uint64) *table {
	if size < initialSize {
		size = initialSize
	}
	size = nextPowerOfTwo(size)
	return &table{buckets: make([]*entry, size), mask: size - 1, seed: seed}
}

func nextPowerOfTwo(n uint64) uint64 {
	if n == 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n + 1
}

// Dict is the incrementally-rehashing hash table backing a DB's key->value
// and key->expiry mappings.
type Dict struct {
	ht        [2]*table
	rehashIdx int // -1 when not rehashing
}

// New creates an empty dict with a freshly seeded hash table.
func New() *Dict {
	return &Dict{
		ht:        [2]*table{newTable(initialSize, rand.Uint64()), nil},
		rehashIdx: -1,
	}
}

func (d *Dict) isRehashing() bool { return d.rehashIdx != -1 }

func hashKey(t *table, key string) uint64 {
	return xxhash.NewWithSeed(t.seed).Sum64String(key)
}

// Len reports the total number of live entries across both tables.
func (d *Dict) Len() int {
	n := d.ht[0].used
	if d.ht[1] != nil {
		n += d.ht[1].used
	}
	return n
}

// Rehashing reports whether a rehash is currently in progress.
func (d *Dict) Rehashing() bool { return d.isRehashing() }

// Get looks up key, consulting both tables while rehashing (ht[0] buckets
// at or past rehashIdx still hold live entries; earlier ones have moved).
func (d *Dict) Get(key string) (any, bool) {
	if d.isRehashing() {
		d.rehashStep(1)
	}
	h := hashKey(d.ht[0], key)
	if e := findInTable(d.ht[0], h, key); e != nil {
		return e.value, true
	}
	if d.ht[1] != nil {
		h1 := hashKey(d.ht[1], key)
		if e := findInTable(d.ht[1], h1, key); e != nil {
			return e.value, true
		}
	}
	return nil, false
}

func findInTable(t *table, h uint64, key string) *entry {
	for e := t.buckets[h&t.mask]; e != nil; e = e.next {
		if e.hash == h && e.key == key {
			return e
		}
	}
	return nil
}

// Set inserts or updates key. While rehashing, inserts target ht[1] only.
func (d *Dict) Set(key string, value any) {
	if d.isRehashing() {
		d.rehashStep(1)
	}
	h := hashKey(d.ht[0], key)
	if e := findInTable(d.ht[0], h, key); e != nil {
		e.value = value
		return
	}
	if d.ht[1] != nil {
		h1 := hashKey(d.ht[1], key)
		if e := findInTable(d.ht[1], h1, key); e != nil {
			e.value = value
			return
		}
	}

	target := d.ht[0]
	if d.ht[1] != nil {
		target = d.ht[1]
	}
	th := hashKey(target, key)
	idx := th & target.mask
	target.buckets[idx] = &entry{hash: th, key: key, value: value, next: target.buckets[idx]}
	target.used++

	if !d.isRehashing() && target.used >= len(target.buckets) {
		d.startRehash()
	}
}

// Delete removes key from whichever table holds it. Returns true if found.
func (d *Dict) Delete(key string) bool {
	if d.isRehashing() {
		d.rehashStep(1)
	}
	if deleteFromTable(d.ht[0], hashKey(d.ht[0], key), key) {
		return true
	}
	if d.ht[1] != nil && deleteFromTable(d.ht[1], hashKey(d.ht[1], key), key) {
		return true
	}
	return false
}

func deleteFromTable(t *table, h uint64, key string) bool {
	idx := h & t.mask
	var prev *entry
	for e := t.buckets[idx]; e != nil; e = e.next {
		if e.hash == h && e.key == key {
			if prev == nil {
				t.buckets[idx] = e.next
			} else {
				prev.next = e.next
			}
			t.used--
			return true
		}
		prev = e
	}
	return false
}

func (d *Dict) startRehash() {
	newSize := nextPowerOfTwo(uint64(d.ht[0].used) * 2)
	d.ht[1] = newTable(newSize, rand.Uint64())
	d.rehashIdx = 0
}

// rehashStep migrates up to n non-empty buckets of ht[0] into ht[1].
// Called on every keyspace operation (step mode) and from the reactor's
// periodic tick (bulk mode, larger n).
func (d *Dict) rehashStep(n int) {
	if !d.isRehashing() {
		return
	}
	t0, t1 := d.ht[0], d.ht[1]
	visited := 0
	for d.rehashIdx < len(t0.buckets) && visited < n {
		if t0.buckets[d.rehashIdx] == nil {
			d.rehashIdx++
			continue
		}
		for e := t0.buckets[d.rehashIdx]; e != nil; {
			next := e.next
			h1 := hashKey(t1, e.key)
			idx := h1 & t1.mask
			e.hash = h1
			e.next = t1.buckets[idx]
			t1.buckets[idx] = e
			t0.used--
			t1.used++
			e = next
		}
		t0.buckets[d.rehashIdx] = nil
		d.rehashIdx++
		visited++
	}
	if t0.used == 0 && d.rehashIdx >= len(t0.buckets) {
		d.ht[0] = t1
		d.ht[1] = nil
		d.rehashIdx = -1
	}
}

// RehashTick runs bulk-mode migration of up to n buckets; a no-op when not
// currently rehashing. Intended to be driven by the reactor's periodic timer.
func (d *Dict) RehashTick(n int) {
	d.rehashStep(n)
}

// ForEach yields every live entry at least once. During an active rehash
// the traversal order is unspecified (entries may move tables mid-scan)
// but no live entry is skipped. fn returning false stops iteration early.
func (d *Dict) ForEach(fn func(key string, value any) bool) {
	for _, t := range d.ht {
		if t == nil {
			continue
		}
		for _, head := range t.buckets {
			for e := head; e != nil; e = e.next {
				if !fn(e.key, e.value) {
					return
				}
			}
		}
	}
}

// RandomKey returns a pseudo-random live key, used by active-expiration
// sampling and memory-pressure eviction. Returns ok=false on an empty dict.
func (d *Dict) RandomKey() (key string, value any, ok bool) {
	if d.Len() == 0 {
		return "", nil, false
	}
	tables := make([]*table, 0, 2)
	for _, t := range d.ht {
		if t != nil && t.used > 0 {
			tables = append(tables, t)
		}
	}
	t := tables[rand.Intn(len(tables))]
	for {
		idx := rand.Uint64() & t.mask
		if head := t.buckets[idx]; head != nil {
			n := 0
			for e := head; e != nil; e = e.next {
				n++
			}
			pick := rand.Intn(n)
			e := head
			for i := 0; i < pick; i++ {
				e = e.next
			}
			return e.key, e.value, true
		}
	}
}

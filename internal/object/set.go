package object

import (
	"math/rand"
	"strconv"

	"redisd/internal/dict"
	"redisd/internal/intset"
)

const setIntsetMaxEntries = 512

type setData struct {
	iset *intset.Set // valid when Encoding is EncIntset
	ht   *dict.Dict  // valid when Encoding is EncHT, member -> struct{}{}
}

func (d *setData) clone() *setData {
	if d == nil {
		return nil
	}
	c := &setData{}
	if d.iset != nil {
		ns := intset.New()
		for _, m := range d.iset.Members() {
			ns.Add(m)
		}
		c.iset = ns
	}
	if d.ht != nil {
		nh := dict.New()
		d.ht.ForEach(func(k string, v any) bool { nh.Set(k, v); return true })
		c.ht = nh
	}
	return c
}

// NewSet returns an empty, intset-encoded set.
func NewSet() *Object {
	return &Object{Type: TypeSet, Encoding: EncIntset, set: &setData{iset: intset.New()}}
}

func (o *Object) promoteSetToHT() {
	ht := dict.New()
	for _, m := range o.set.iset.Members() {
		ht.Set(formatInt(m), struct{}{})
	}
	o.set.ht = ht
	o.set.iset = nil
	o.Encoding = EncHT
}

func formatInt(v int64) string {
	return strconv.FormatInt(v, 10)
}

// SCard reports the number of members.
func (o *Object) SCard() int {
	if o.Encoding == EncIntset {
		return o.set.iset.Len()
	}
	return o.set.ht.Len()
}

// SAdd inserts members, promoting to EncHT if any is non-integer or the
// set would exceed the intset member cap. Returns the number newly added.
func (o *Object) SAdd(members ...[]byte) int {
	added := 0
	for _, m := range members {
		iv, isInt := parseInt64(m)
		if o.Encoding == EncIntset && (!isInt || o.set.iset.Len() >= setIntsetMaxEntries) {
			o.promoteSetToHT()
		}
		if o.Encoding == EncIntset {
			if o.set.iset.Add(iv) {
				added++
			}
		} else {
			key := string(m)
			if _, exists := o.set.ht.Get(key); !exists {
				o.set.ht.Set(key, struct{}{})
				added++
			}
		}
	}
	return added
}

// SRem removes members, returning the number actually removed.
func (o *Object) SRem(members ...[]byte) int {
	removed := 0
	for _, m := range members {
		if o.Encoding == EncIntset {
			if iv, ok := parseInt64(m); ok && o.set.iset.Remove(iv) {
				removed++
			}
			continue
		}
		if o.set.ht.Delete(string(m)) {
			removed++
		}
	}
	return removed
}

// SIsMember reports set membership.
func (o *Object) SIsMember(m []byte) bool {
	if o.Encoding == EncIntset {
		iv, ok := parseInt64(m)
		return ok && o.set.iset.Contains(iv)
	}
	_, ok := o.set.ht.Get(string(m))
	return ok
}

// SMembers returns every member.
func (o *Object) SMembers() [][]byte {
	if o.Encoding == EncIntset {
		vals := o.set.iset.Members()
		out := make([][]byte, len(vals))
		for i, v := range vals {
			out[i] = []byte(formatInt(v))
		}
		return out
	}
	var out [][]byte
	o.set.ht.ForEach(func(k string, _ any) bool {
		out = append(out, []byte(k))
		return true
	})
	return out
}

// SPop removes and returns up to n random members (n<=0 is treated as 1).
func (o *Object) SPop(n int) [][]byte {
	if n <= 0 {
		n = 1
	}
	members := o.SMembers()
	if n >= len(members) {
		o.SRem(members...)
		return members
	}
	picked := make([][]byte, 0, n)
	for i := 0; i < n; i++ {
		idx := rand.Intn(len(members))
		picked = append(picked, members[idx])
		members[idx] = members[len(members)-1]
		members = members[:len(members)-1]
	}
	o.SRem(picked...)
	return picked
}

// SMove atomically relocates member from o to dst, returning whether
// member was present in o.
func (o *Object) SMove(dst *Object, member []byte) bool {
	if !o.SIsMember(member) {
		return false
	}
	o.SRem(member)
	dst.SAdd(member)
	return true
}

// SInter returns the members present in every one of the given Set objects.
func SInter(sets ...*Object) [][]byte {
	if len(sets) == 0 {
		return nil
	}
	smallest := sets[0]
	for _, s := range sets[1:] {
		if s.SCard() < smallest.SCard() {
			smallest = s
		}
	}
	var out [][]byte
	for _, m := range smallest.SMembers() {
		inAll := true
		for _, s := range sets {
			if s == smallest {
				continue
			}
			if !s.SIsMember(m) {
				inAll = false
				break
			}
		}
		if inAll {
			out = append(out, m)
		}
	}
	return out
}

package object

import (
	"strconv"

	"redisd/internal/dict"
	"redisd/internal/skiplist"
	"redisd/internal/ziplist"
)

const zsetZiplistMaxEntries = 128

// ZMember is one (member, score) pair as returned by range queries.
type ZMember struct {
	Member []byte
	Score  float64
}

type zsetData struct {
	zl    *ziplist.List // valid when Encoding is EncZiplist: flattened [member, score, member, score, ...]
	dict  *dict.Dict    // valid when Encoding is EncSkiplist: member -> float64 score
	slist *skiplist.List
}

func (d *zsetData) clone() *zsetData {
	if d == nil {
		return nil
	}
	c := &zsetData{}
	if d.zl != nil {
		nl := ziplist.New()
		for _, v := range d.zl.Values() {
			nl.PushBack(v)
		}
		c.zl = nl
	}
	if d.dict != nil {
		nd := dict.New()
		ns := skiplist.New()
		d.dict.ForEach(func(k string, v any) bool {
			score := v.(float64)
			nd.Set(k, score)
			ns.Insert(k, score)
			return true
		})
		c.dict = nd
		c.slist = ns
	}
	return c
}

// NewZSet returns an empty, ziplist-encoded sorted set.
func NewZSet() *Object {
	return &Object{Type: TypeZSet, Encoding: EncZiplist, zset: &zsetData{zl: ziplist.New()}}
}

// ZCard reports the number of members.
func (o *Object) ZCard() int {
	if o.Encoding == EncZiplist {
		return o.zset.zl.Len() / 2
	}
	return o.zset.dict.Len()
}

func (o *Object) zsetScoreOf(member []byte) (float64, bool) {
	if o.Encoding == EncZiplist {
		vals := o.zset.zl.Values()
		for i := 0; i < len(vals); i += 2 {
			if string(vals[i].Str) == string(member) {
				return parseZScore(vals[i+1]), true
			}
		}
		return 0, false
	}
	v, ok := o.zset.dict.Get(string(member))
	if !ok {
		return 0, false
	}
	return v.(float64), true
}

func parseZScore(v ziplist.Value) float64 {
	if v.IsInt {
		return float64(v.Int)
	}
	f, _ := strconv.ParseFloat(string(v.Str), 64)
	return f
}

func zScoreValue(score float64) ziplist.Value {
	return ziplist.Value{Str: []byte(strconv.FormatFloat(score, 'g', -1, 64))}
}

func (o *Object) promoteZSetToSkiplist() {
	d := dict.New()
	s := skiplist.New()
	vals := o.zset.zl.Values()
	for i := 0; i < len(vals); i += 2 {
		member := string(vals[i].Str)
		score := parseZScore(vals[i+1])
		d.Set(member, score)
		s.Insert(member, score)
	}
	o.zset.dict = d
	o.zset.slist = s
	o.zset.zl = nil
	o.Encoding = EncSkiplist
}

// ZAdd inserts or updates member's score. Returns true if member is new.
func (o *Object) ZAdd(member []byte, score float64) bool {
	if o.Encoding == EncZiplist && o.ZCard()+1 > zsetZiplistMaxEntries {
		o.promoteZSetToSkiplist()
	}
	if o.Encoding == EncZiplist {
		vals := o.zset.zl.Values()
		for i := 0; i < len(vals); i += 2 {
			if string(vals[i].Str) == string(member) {
				o.zset.zl.Set(i+1, zScoreValue(score))
				return false
			}
		}
		o.zset.zl.PushBack(ziplist.Value{Str: append([]byte(nil), member...)})
		o.zset.zl.PushBack(zScoreValue(score))
		return true
	}
	old, existed := o.zset.dict.Get(string(member))
	if existed {
		o.zset.slist.Delete(string(member), old.(float64))
	}
	o.zset.dict.Set(string(member), score)
	o.zset.slist.Insert(string(member), score)
	return !existed
}

// ZScore returns member's score.
func (o *Object) ZScore(member []byte) (float64, bool) {
	return o.zsetScoreOf(member)
}

// ZIncrBy adds delta to member's score (creating it at delta if absent)
// and returns the new score.
func (o *Object) ZIncrBy(member []byte, delta float64) float64 {
	cur, _ := o.zsetScoreOf(member)
	newScore := cur + delta
	o.ZAdd(member, newScore)
	return newScore
}

// ZRem removes member, reporting whether it was present.
func (o *Object) ZRem(member []byte) bool {
	if o.Encoding == EncZiplist {
		vals := o.zset.zl.Values()
		for i := 0; i < len(vals); i += 2 {
			if string(vals[i].Str) == string(member) {
				o.zset.zl.DeleteRange(i, 2)
				return true
			}
		}
		return false
	}
	score, ok := o.zset.dict.Get(string(member))
	if !ok {
		return false
	}
	o.zset.dict.Delete(string(member))
	o.zset.slist.Delete(string(member), score.(float64))
	return true
}

// ZRank returns member's 0-based ascending rank, or ok=false.
func (o *Object) ZRank(member []byte) (rank int, ok bool) {
	score, found := o.zsetScoreOf(member)
	if !found {
		return 0, false
	}
	if o.Encoding == EncZiplist {
		all := o.zRangeAll()
		for i, m := range all {
			if string(m.Member) == string(member) {
				return i, true
			}
		}
		return 0, false
	}
	r := o.zset.slist.Rank(string(member), score)
	if r < 0 {
		return 0, false
	}
	return r, true
}

func (o *Object) zRangeAll() []ZMember {
	if o.Encoding == EncZiplist {
		vals := o.zset.zl.Values()
		out := make([]ZMember, 0, len(vals)/2)
		for i := 0; i < len(vals); i += 2 {
			out = append(out, ZMember{Member: append([]byte(nil), vals[i].Str...), Score: parseZScore(vals[i+1])})
		}
		sortZMembers(out)
		return out
	}
	ms := o.zset.slist.RangeByRank(0, o.ZCard()-1, false)
	out := make([]ZMember, len(ms))
	for i, m := range ms {
		out[i] = ZMember{Member: []byte(m.Key), Score: m.Score}
	}
	return out
}

func sortZMembers(out []ZMember) {
	for i := 1; i < len(out); i++ {
		j := i
		for j > 0 && less64(out[j].Score, string(out[j].Member), out[j-1].Score, string(out[j-1].Member)) {
			out[j], out[j-1] = out[j-1], out[j]
			j--
		}
	}
}

func less64(s1 float64, k1 string, s2 float64, k2 string) bool {
	return s1 < s2 || (s1 == s2 && k1 < k2)
}

// ZRangeByRank returns members with 0-based rank in [start, stop].
func (o *Object) ZRangeByRank(start, stop int, reverse bool) []ZMember {
	all := o.zRangeAll()
	n := len(all)
	start = normalizeIndex(start, n)
	stop = normalizeIndex(stop, n)
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if n == 0 || start > stop {
		return nil
	}
	if reverse {
		out := make([]ZMember, 0, stop-start+1)
		for i := n - 1 - start; i >= n-1-stop; i-- {
			out = append(out, all[i])
		}
		return out
	}
	return append([]ZMember(nil), all[start:stop+1]...)
}

// ZRangeByScore returns members with min <= score <= max, honoring offset
// and count (-1 = unbounded).
func (o *Object) ZRangeByScore(min, max float64, offset, count int, reverse bool) []ZMember {
	if o.Encoding == EncSkiplist {
		ms := o.zset.slist.RangeByScore(min, max, offset, count, reverse)
		out := make([]ZMember, len(ms))
		for i, m := range ms {
			out[i] = ZMember{Member: []byte(m.Key), Score: m.Score}
		}
		return out
	}
	all := o.zRangeAll()
	if reverse {
		for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
			all[i], all[j] = all[j], all[i]
		}
	}
	var out []ZMember
	for _, m := range all {
		if m.Score < min || m.Score > max {
			continue
		}
		if offset > 0 {
			offset--
			continue
		}
		if count >= 0 && len(out) >= count {
			break
		}
		out = append(out, m)
	}
	return out
}

// ZCount reports how many members fall within [min, max].
func (o *Object) ZCount(min, max float64) int {
	return len(o.ZRangeByScore(min, max, 0, -1, false))
}

package command

import (
	"strconv"

	"redisd/internal/object"
	"redisd/internal/resp"
)

func (e *Engine) registerSet() {
	e.registerOOM("sadd", -3, cmdSAdd)
	e.register("srem", -3, true, cmdSRem)
	e.register("sismember", 3, false, cmdSIsMember)
	e.register("scard", 2, false, cmdSCard)
	e.register("smembers", 2, false, cmdSMembers)
	e.registerOOM("smove", 4, cmdSMove)
	e.register("spop", -2, true, cmdSPop)
	e.register("sinter", -2, false, cmdSInter)
	e.registerOOM("sinterstore", -3, cmdSInterStore)
}

func lookupSet(e *Engine, c *Client, key string, now int64) (*object.Object, error) {
	v, ok := e.DB(c).LookupRead(key, now)
	if !ok {
		return nil, nil
	}
	if v.Type != object.TypeSet {
		return nil, errWrongType
	}
	return v, nil
}

func cmdSAdd(e *Engine, c *Client, args [][]byte, now int64, buf []byte) []byte {
	d := e.DB(c)
	key := string(args[1])
	v, err := lookupSet(e, c, key, now)
	if err != nil {
		return appendWrongType(buf)
	}
	if v == nil {
		v = object.NewSet()
		d.Set(key, v)
	}
	n := v.SAdd(args[2:]...)
	e.markDirty(1)
	return resp.AppendInt(buf, int64(n))
}

func cmdSRem(e *Engine, c *Client, args [][]byte, now int64, buf []byte) []byte {
	v, err := lookupSet(e, c, string(args[1]), now)
	if err != nil {
		return appendWrongType(buf)
	}
	if v == nil {
		return resp.AppendInt(buf, 0)
	}
	n := v.SRem(args[2:]...)
	if v.SCard() == 0 {
		e.DB(c).Delete(string(args[1]))
	}
	e.markDirty(1)
	return resp.AppendInt(buf, int64(n))
}

func cmdSIsMember(e *Engine, c *Client, args [][]byte, now int64, buf []byte) []byte {
	v, err := lookupSet(e, c, string(args[1]), now)
	if err != nil {
		return appendWrongType(buf)
	}
	if v == nil {
		return resp.AppendInt(buf, 0)
	}
	return resp.AppendInt(buf, boolInt(v.SIsMember(args[2])))
}

func cmdSCard(e *Engine, c *Client, args [][]byte, now int64, buf []byte) []byte {
	v, err := lookupSet(e, c, string(args[1]), now)
	if err != nil {
		return appendWrongType(buf)
	}
	if v == nil {
		return resp.AppendInt(buf, 0)
	}
	return resp.AppendInt(buf, int64(v.SCard()))
}

func cmdSMembers(e *Engine, c *Client, args [][]byte, now int64, buf []byte) []byte {
	v, err := lookupSet(e, c, string(args[1]), now)
	if err != nil {
		return appendWrongType(buf)
	}
	if v == nil {
		return resp.AppendBulkArray(buf, nil)
	}
	return resp.AppendBulkArray(buf, v.SMembers())
}

func cmdSMove(e *Engine, c *Client, args [][]byte, now int64, buf []byte) []byte {
	d := e.DB(c)
	srcKey, dstKey := string(args[1]), string(args[2])
	src, err := lookupSet(e, c, srcKey, now)
	if err != nil {
		return appendWrongType(buf)
	}
	if src == nil {
		return resp.AppendInt(buf, 0)
	}
	dst, err := lookupSet(e, c, dstKey, now)
	if err != nil {
		return appendWrongType(buf)
	}
	if dst == nil {
		dst = object.NewSet()
		d.Set(dstKey, dst)
	}
	if !src.SMove(dst, args[3]) {
		return resp.AppendInt(buf, 0)
	}
	if src.SCard() == 0 {
		d.Delete(srcKey)
	}
	e.markDirty(1)
	return resp.AppendInt(buf, 1)
}

func cmdSPop(e *Engine, c *Client, args [][]byte, now int64, buf []byte) []byte {
	count := 1
	explicitCount := len(args) > 2
	if explicitCount {
		n, err := strconv.Atoi(string(args[2]))
		if err != nil || n < 0 {
			return resp.AppendError(buf, "ERR value is out of range, must be positive")
		}
		count = n
	}
	v, err := lookupSet(e, c, string(args[1]), now)
	if err != nil {
		return appendWrongType(buf)
	}
	if v == nil {
		if explicitCount {
			return resp.AppendBulkArray(buf, nil)
		}
		return append(buf, resp.ReplyNil...)
	}
	popped := v.SPop(count)
	if v.SCard() == 0 {
		e.DB(c).Delete(string(args[1]))
	}
	e.markDirty(1)
	if !explicitCount {
		if len(popped) == 0 {
			return append(buf, resp.ReplyNil...)
		}
		return resp.AppendBulk(buf, popped[0])
	}
	return resp.AppendBulkArray(buf, popped)
}

// resolveSets loads args as set objects for SINTER/SINTERSTORE, returning
// a WRONGTYPE error if any named key holds a non-set value. A missing key
// is treated as an empty set, per spec.md's SINTER semantics.
func resolveSets(e *Engine, c *Client, keys [][]byte, now int64) ([]*object.Object, error) {
	sets := make([]*object.Object, 0, len(keys))
	for _, k := range keys {
		v, err := lookupSet(e, c, string(k), now)
		if err != nil {
			return nil, err
		}
		if v == nil {
			v = object.NewSet()
		}
		sets = append(sets, v)
	}
	return sets, nil
}

func cmdSInter(e *Engine, c *Client, args [][]byte, now int64, buf []byte) []byte {
	sets, err := resolveSets(e, c, args[1:], now)
	if err != nil {
		return appendWrongType(buf)
	}
	return resp.AppendBulkArray(buf, object.SInter(sets...))
}

// cmdSInterStore computes the full intersection before touching the
// destination key, so a failed/empty intersection never partially
// clobbers dest (the resolution recorded for spec.md §9's SINTERSTORE
// open question).
func cmdSInterStore(e *Engine, c *Client, args [][]byte, now int64, buf []byte) []byte {
	sets, err := resolveSets(e, c, args[2:], now)
	if err != nil {
		return appendWrongType(buf)
	}
	result := object.SInter(sets...)

	d := e.DB(c)
	dest := string(args[1])
	if len(result) == 0 {
		d.Delete(dest)
		e.markDirty(1)
		return resp.AppendInt(buf, 0)
	}
	out := object.NewSet()
	out.SAdd(result...)
	d.Set(dest, out)
	e.markDirty(1)
	return resp.AppendInt(buf, int64(len(result)))
}

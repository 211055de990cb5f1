package command

import (
	"errors"
	"strconv"

	"redisd/internal/object"
	"redisd/internal/resp"
)

func (e *Engine) registerHash() {
	e.registerOOM("hset", -4, cmdHSet)
	e.registerOOM("hsetnx", 4, cmdHSetNX)
	e.register("hget", 3, false, cmdHGet)
	e.register("hmget", -3, false, cmdHMGet)
	e.register("hdel", -3, true, cmdHDel)
	e.register("hexists", 3, false, cmdHExists)
	e.register("hlen", 2, false, cmdHLen)
	e.register("hkeys", 2, false, cmdHKeys)
	e.register("hvals", 2, false, cmdHVals)
	e.register("hgetall", 2, false, cmdHGetAll)
	e.registerOOM("hincrby", 4, cmdHIncrBy)
	e.registerOOM("hincrbyfloat", 4, cmdHIncrByFloat)
}

func lookupHash(e *Engine, c *Client, key string, now int64) (*object.Object, error) {
	v, ok := e.DB(c).LookupRead(key, now)
	if !ok {
		return nil, nil
	}
	if v.Type != object.TypeHash {
		return nil, errWrongType
	}
	return v, nil
}

func cmdHSet(e *Engine, c *Client, args [][]byte, now int64, buf []byte) []byte {
	if (len(args)-2)%2 != 0 {
		return resp.AppendError(buf, "ERR wrong number of arguments for 'hset' command")
	}
	d := e.DB(c)
	key := string(args[1])
	v, err := lookupHash(e, c, key, now)
	if err != nil {
		return appendWrongType(buf)
	}
	if v == nil {
		v = object.NewHash()
		d.Set(key, v)
	}
	var created int64
	for i := 2; i+1 < len(args); i += 2 {
		if v.HSet(args[i], args[i+1]) {
			created++
		}
	}
	e.markDirty(1)
	return resp.AppendInt(buf, created)
}

func cmdHSetNX(e *Engine, c *Client, args [][]byte, now int64, buf []byte) []byte {
	d := e.DB(c)
	key := string(args[1])
	v, err := lookupHash(e, c, key, now)
	if err != nil {
		return appendWrongType(buf)
	}
	if v == nil {
		v = object.NewHash()
		d.Set(key, v)
	}
	if v.HExists(args[2]) {
		return resp.AppendInt(buf, 0)
	}
	v.HSet(args[2], args[3])
	e.markDirty(1)
	return resp.AppendInt(buf, 1)
}

func cmdHMGet(e *Engine, c *Client, args [][]byte, now int64, buf []byte) []byte {
	v, err := lookupHash(e, c, string(args[1]), now)
	if err != nil {
		return appendWrongType(buf)
	}
	fields := args[2:]
	buf = resp.AppendArrayHeader(buf, len(fields))
	for _, f := range fields {
		if v == nil {
			buf = append(buf, resp.ReplyNil...)
			continue
		}
		val, ok := v.HGet(f)
		if !ok {
			buf = append(buf, resp.ReplyNil...)
			continue
		}
		buf = resp.AppendBulk(buf, val)
	}
	return buf
}

func cmdHGet(e *Engine, c *Client, args [][]byte, now int64, buf []byte) []byte {
	v, err := lookupHash(e, c, string(args[1]), now)
	if err != nil {
		return appendWrongType(buf)
	}
	if v == nil {
		return append(buf, resp.ReplyNil...)
	}
	val, ok := v.HGet(args[2])
	if !ok {
		return append(buf, resp.ReplyNil...)
	}
	return resp.AppendBulk(buf, val)
}

func cmdHDel(e *Engine, c *Client, args [][]byte, now int64, buf []byte) []byte {
	v, err := lookupHash(e, c, string(args[1]), now)
	if err != nil {
		return appendWrongType(buf)
	}
	if v == nil {
		return resp.AppendInt(buf, 0)
	}
	var n int64
	for _, f := range args[2:] {
		if v.HDel(f) {
			n++
		}
	}
	if v.HLen() == 0 {
		e.DB(c).Delete(string(args[1]))
	}
	e.markDirty(1)
	return resp.AppendInt(buf, n)
}

func cmdHExists(e *Engine, c *Client, args [][]byte, now int64, buf []byte) []byte {
	v, err := lookupHash(e, c, string(args[1]), now)
	if err != nil {
		return appendWrongType(buf)
	}
	if v == nil {
		return resp.AppendInt(buf, 0)
	}
	return resp.AppendInt(buf, boolInt(v.HExists(args[2])))
}

func cmdHLen(e *Engine, c *Client, args [][]byte, now int64, buf []byte) []byte {
	v, err := lookupHash(e, c, string(args[1]), now)
	if err != nil {
		return appendWrongType(buf)
	}
	if v == nil {
		return resp.AppendInt(buf, 0)
	}
	return resp.AppendInt(buf, int64(v.HLen()))
}

func cmdHKeys(e *Engine, c *Client, args [][]byte, now int64, buf []byte) []byte {
	v, err := lookupHash(e, c, string(args[1]), now)
	if err != nil {
		return appendWrongType(buf)
	}
	if v == nil {
		return resp.AppendBulkArray(buf, nil)
	}
	return resp.AppendBulkArray(buf, v.HKeys())
}

func cmdHVals(e *Engine, c *Client, args [][]byte, now int64, buf []byte) []byte {
	v, err := lookupHash(e, c, string(args[1]), now)
	if err != nil {
		return appendWrongType(buf)
	}
	if v == nil {
		return resp.AppendBulkArray(buf, nil)
	}
	return resp.AppendBulkArray(buf, v.HVals())
}

func cmdHGetAll(e *Engine, c *Client, args [][]byte, now int64, buf []byte) []byte {
	v, err := lookupHash(e, c, string(args[1]), now)
	if err != nil {
		return appendWrongType(buf)
	}
	if v == nil {
		return resp.AppendBulkArray(buf, nil)
	}
	return resp.AppendBulkArray(buf, v.HGetAll())
}

func cmdHIncrBy(e *Engine, c *Client, args [][]byte, now int64, buf []byte) []byte {
	delta, err := strconv.ParseInt(string(args[3]), 10, 64)
	if err != nil {
		return resp.AppendError(buf, "ERR value is not an integer or out of range")
	}
	d := e.DB(c)
	key := string(args[1])
	v, terr := lookupHash(e, c, key, now)
	if terr != nil {
		return appendWrongType(buf)
	}
	if v == nil {
		v = object.NewHash()
		d.Set(key, v)
	}
	n, herr := v.HIncrBy(args[2], delta)
	if herr != nil {
		if errors.Is(herr, object.ErrOverflow) {
			return resp.AppendError(buf, "ERR increment or decrement would overflow")
		}
		return resp.AppendError(buf, "ERR hash value is not an integer")
	}
	e.markDirty(1)
	return resp.AppendInt(buf, n)
}

func cmdHIncrByFloat(e *Engine, c *Client, args [][]byte, now int64, buf []byte) []byte {
	delta, err := strconv.ParseFloat(string(args[3]), 64)
	if err != nil {
		return resp.AppendError(buf, "ERR value is not a valid float")
	}
	d := e.DB(c)
	key := string(args[1])
	v, terr := lookupHash(e, c, key, now)
	if terr != nil {
		return appendWrongType(buf)
	}
	if v == nil {
		v = object.NewHash()
		d.Set(key, v)
	}
	n, herr := v.HIncrByFloat(args[2], delta)
	if herr != nil {
		return resp.AppendError(buf, "ERR hash value is not a float")
	}
	e.markDirty(1)
	return resp.AppendBulk(buf, []byte(strconv.FormatFloat(n, 'f', -1, 64)))
}

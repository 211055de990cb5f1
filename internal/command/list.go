package command

import (
	"strconv"

	"redisd/internal/object"
	"redisd/internal/resp"
)

func (e *Engine) registerList() {
	e.registerOOM("lpush", -3, cmdLPush)
	e.registerOOM("rpush", -3, cmdRPush)
	e.register("lpop", -2, true, cmdLPop)
	e.register("rpop", -2, true, cmdRPop)
	e.register("llen", 2, false, cmdLLen)
	e.register("lindex", 3, false, cmdLIndex)
	e.register("lset", 4, true, cmdLSet)
	e.register("lrange", 4, false, cmdLRange)
	e.register("ltrim", 4, true, cmdLTrim)
	e.register("lrem", 4, true, cmdLRem)
}

func lookupList(e *Engine, c *Client, key string, now int64) (*object.Object, error) {
	v, ok := e.DB(c).LookupRead(key, now)
	if !ok {
		return nil, nil
	}
	if v.Type != object.TypeList {
		return nil, errWrongType
	}
	return v, nil
}

func cmdLPush(e *Engine, c *Client, args [][]byte, now int64, buf []byte) []byte {
	d := e.DB(c)
	key := string(args[1])
	v, err := lookupList(e, c, key, now)
	if err != nil {
		return appendWrongType(buf)
	}
	if v == nil {
		v = object.NewList()
		d.Set(key, v)
	}
	n := v.LPush(args[2:]...)
	e.markDirty(1)
	return resp.AppendInt(buf, int64(n))
}

func cmdRPush(e *Engine, c *Client, args [][]byte, now int64, buf []byte) []byte {
	d := e.DB(c)
	key := string(args[1])
	v, err := lookupList(e, c, key, now)
	if err != nil {
		return appendWrongType(buf)
	}
	if v == nil {
		v = object.NewList()
		d.Set(key, v)
	}
	n := v.RPush(args[2:]...)
	e.markDirty(1)
	return resp.AppendInt(buf, int64(n))
}

func cmdLPop(e *Engine, c *Client, args [][]byte, now int64, buf []byte) []byte {
	v, err := lookupList(e, c, string(args[1]), now)
	if err != nil {
		return appendWrongType(buf)
	}
	if v == nil {
		return append(buf, resp.ReplyNil...)
	}
	val, ok := v.LPop()
	if !ok {
		return append(buf, resp.ReplyNil...)
	}
	if v.LLen() == 0 {
		e.DB(c).Delete(string(args[1]))
	}
	e.markDirty(1)
	return resp.AppendBulk(buf, val)
}

func cmdRPop(e *Engine, c *Client, args [][]byte, now int64, buf []byte) []byte {
	v, err := lookupList(e, c, string(args[1]), now)
	if err != nil {
		return appendWrongType(buf)
	}
	if v == nil {
		return append(buf, resp.ReplyNil...)
	}
	val, ok := v.RPop()
	if !ok {
		return append(buf, resp.ReplyNil...)
	}
	if v.LLen() == 0 {
		e.DB(c).Delete(string(args[1]))
	}
	e.markDirty(1)
	return resp.AppendBulk(buf, val)
}

func cmdLLen(e *Engine, c *Client, args [][]byte, now int64, buf []byte) []byte {
	v, err := lookupList(e, c, string(args[1]), now)
	if err != nil {
		return appendWrongType(buf)
	}
	if v == nil {
		return resp.AppendInt(buf, 0)
	}
	return resp.AppendInt(buf, int64(v.LLen()))
}

func cmdLIndex(e *Engine, c *Client, args [][]byte, now int64, buf []byte) []byte {
	v, err := lookupList(e, c, string(args[1]), now)
	if err != nil {
		return appendWrongType(buf)
	}
	if v == nil {
		return append(buf, resp.ReplyNil...)
	}
	idx, err := strconv.Atoi(string(args[2]))
	if err != nil {
		return resp.AppendError(buf, "ERR value is not an integer or out of range")
	}
	val, ok := v.LIndex(idx)
	if !ok {
		return append(buf, resp.ReplyNil...)
	}
	return resp.AppendBulk(buf, val)
}

func cmdLSet(e *Engine, c *Client, args [][]byte, now int64, buf []byte) []byte {
	v, err := lookupList(e, c, string(args[1]), now)
	if err != nil {
		return appendWrongType(buf)
	}
	if v == nil {
		return resp.AppendError(buf, "ERR no such key")
	}
	idx, err := strconv.Atoi(string(args[2]))
	if err != nil {
		return resp.AppendError(buf, "ERR value is not an integer or out of range")
	}
	if err := v.LSet(idx, args[3]); err != nil {
		return resp.AppendError(buf, "ERR index out of range")
	}
	e.markDirty(1)
	return append(buf, resp.ReplyOK...)
}

func cmdLRange(e *Engine, c *Client, args [][]byte, now int64, buf []byte) []byte {
	v, err := lookupList(e, c, string(args[1]), now)
	if err != nil {
		return appendWrongType(buf)
	}
	if v == nil {
		return resp.AppendBulkArray(buf, nil)
	}
	start, err1 := strconv.Atoi(string(args[2]))
	stop, err2 := strconv.Atoi(string(args[3]))
	if err1 != nil || err2 != nil {
		return resp.AppendError(buf, "ERR value is not an integer or out of range")
	}
	return resp.AppendBulkArray(buf, v.LRange(start, stop))
}

func cmdLTrim(e *Engine, c *Client, args [][]byte, now int64, buf []byte) []byte {
	v, err := lookupList(e, c, string(args[1]), now)
	if err != nil {
		return appendWrongType(buf)
	}
	if v == nil {
		return append(buf, resp.ReplyOK...)
	}
	start, err1 := strconv.Atoi(string(args[2]))
	stop, err2 := strconv.Atoi(string(args[3]))
	if err1 != nil || err2 != nil {
		return resp.AppendError(buf, "ERR value is not an integer or out of range")
	}
	v.LTrim(start, stop)
	if v.LLen() == 0 {
		e.DB(c).Delete(string(args[1]))
	}
	e.markDirty(1)
	return append(buf, resp.ReplyOK...)
}

func cmdLRem(e *Engine, c *Client, args [][]byte, now int64, buf []byte) []byte {
	v, err := lookupList(e, c, string(args[1]), now)
	if err != nil {
		return appendWrongType(buf)
	}
	if v == nil {
		return resp.AppendInt(buf, 0)
	}
	count, err := strconv.Atoi(string(args[2]))
	if err != nil {
		return resp.AppendError(buf, "ERR value is not an integer or out of range")
	}
	n := v.LRem(count, args[3])
	if v.LLen() == 0 {
		e.DB(c).Delete(string(args[1]))
	}
	e.markDirty(1)
	return resp.AppendInt(buf, int64(n))
}

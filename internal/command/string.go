package command

import (
	"errors"
	"strconv"
	"strings"

	"redisd/internal/object"
	"redisd/internal/resp"
)

func (e *Engine) registerString() {
	e.register("get", 2, false, cmdGet)
	e.registerOOM("set", -3, cmdSet)
	e.registerOOM("setnx", 3, cmdSetNX)
	e.registerOOM("getset", 3, cmdGetSet)
	e.registerOOM("append", 3, cmdAppend)
	e.register("strlen", 2, false, cmdStrlen)
	e.registerOOM("incr", 2, cmdIncr)
	e.registerOOM("decr", 2, cmdDecr)
	e.registerOOM("incrby", 3, cmdIncrBy)
	e.registerOOM("decrby", 3, cmdDecrBy)
	e.register("mget", -2, false, cmdMGet)
	e.registerOOM("mset", -3, cmdMSet)
}

// lookupString fetches key as a string object, reporting a type error
// when it exists under a different type (shared shape across every
// per-type command file, mirroring the teacher's repeated "WRONGTYPE"
// guard inlined in each handleXxx).
func lookupString(e *Engine, c *Client, key string, now int64) (*object.Object, bool, error) {
	v, ok := e.DB(c).LookupRead(key, now)
	if !ok {
		return nil, false, nil
	}
	if v.Type != object.TypeString {
		return nil, true, errWrongType
	}
	return v, true, nil
}

var errWrongType = wrongTypeErr{}

type wrongTypeErr struct{}

func (wrongTypeErr) Error() string {
	return "WRONGTYPE Operation against a key holding the wrong kind of value"
}

func appendWrongType(buf []byte) []byte {
	return resp.AppendError(buf, errWrongType.Error())
}

func cmdGet(e *Engine, c *Client, args [][]byte, now int64, buf []byte) []byte {
	v, _, err := lookupString(e, c, string(args[1]), now)
	if err != nil {
		return appendWrongType(buf)
	}
	if v == nil {
		return append(buf, resp.ReplyNil...)
	}
	return resp.AppendBulk(buf, v.Bytes())
}

type setOpts struct {
	nx, xx, keepTTL bool
	expireAtMs      int64
	hasExpire       bool
}

func parseSetOpts(args [][]byte, now int64) (setOpts, error) {
	var o setOpts
	i := 3
	for i < len(args) {
		switch strings.ToUpper(string(args[i])) {
		case "NX":
			o.nx = true
			i++
		case "XX":
			o.xx = true
			i++
		case "KEEPTTL":
			o.keepTTL = true
			i++
		case "EX", "PX":
			isPx := strings.ToUpper(string(args[i])) == "PX"
			if i+1 >= len(args) {
				return o, errSyntax
			}
			n, err := strconv.ParseInt(string(args[i+1]), 10, 64)
			if err != nil {
				return o, errSyntax
			}
			if isPx {
				o.expireAtMs = now + n
			} else {
				o.expireAtMs = now + n*1000
			}
			o.hasExpire = true
			i += 2
		default:
			return o, errSyntax
		}
	}
	return o, nil
}

var errSyntax = syntaxErr{}

type syntaxErr struct{}

func (syntaxErr) Error() string { return "ERR syntax error" }

func cmdSet(e *Engine, c *Client, args [][]byte, now int64, buf []byte) []byte {
	opts, err := parseSetOpts(args, now)
	if err != nil {
		return resp.AppendError(buf, err.Error())
	}
	d := e.DB(c)
	key := string(args[1])
	_, existed := d.LookupWrite(key, now)
	if opts.nx && existed {
		return append(buf, resp.ReplyNil...)
	}
	if opts.xx && !existed {
		return append(buf, resp.ReplyNil...)
	}
	val := object.NewString(args[2])
	if opts.keepTTL {
		d.SetKeepTTL(key, val)
	} else {
		d.Set(key, val)
	}
	if opts.hasExpire {
		d.SetExpire(key, opts.expireAtMs)
	}
	e.markDirty(1)
	return append(buf, resp.ReplyOK...)
}

func cmdSetNX(e *Engine, c *Client, args [][]byte, now int64, buf []byte) []byte {
	d := e.DB(c)
	key := string(args[1])
	if d.Exists(key, now) {
		return resp.AppendInt(buf, 0)
	}
	d.Set(key, object.NewString(args[2]))
	e.markDirty(1)
	return resp.AppendInt(buf, 1)
}

func cmdGetSet(e *Engine, c *Client, args [][]byte, now int64, buf []byte) []byte {
	v, _, err := lookupString(e, c, string(args[1]), now)
	if err != nil {
		return appendWrongType(buf)
	}
	d := e.DB(c)
	d.Set(string(args[1]), object.NewString(args[2]))
	e.markDirty(1)
	if v == nil {
		return append(buf, resp.ReplyNil...)
	}
	return resp.AppendBulk(buf, v.Bytes())
}

func cmdAppend(e *Engine, c *Client, args [][]byte, now int64, buf []byte) []byte {
	d := e.DB(c)
	key := string(args[1])
	v, _, err := lookupString(e, c, key, now)
	if err != nil {
		return appendWrongType(buf)
	}
	if v == nil {
		v = object.NewString(nil)
		d.Set(key, v)
	}
	v.SetBytes(append(append([]byte(nil), v.Bytes()...), args[2]...))
	e.markDirty(1)
	return resp.AppendInt(buf, int64(len(v.Bytes())))
}

func cmdStrlen(e *Engine, c *Client, args [][]byte, now int64, buf []byte) []byte {
	v, _, err := lookupString(e, c, string(args[1]), now)
	if err != nil {
		return appendWrongType(buf)
	}
	if v == nil {
		return resp.AppendInt(buf, 0)
	}
	return resp.AppendInt(buf, int64(len(v.Bytes())))
}

func incrCommand(e *Engine, c *Client, key string, delta int64, now int64, buf []byte) []byte {
	d := e.DB(c)
	v, _, err := lookupString(e, c, key, now)
	if err != nil {
		return appendWrongType(buf)
	}
	if v == nil {
		v = object.NewString([]byte("0"))
		d.Set(key, v)
	}
	n, err := v.IncrBy(delta)
	if err != nil {
		if errors.Is(err, object.ErrOverflow) {
			return resp.AppendError(buf, "ERR increment or decrement would overflow")
		}
		return resp.AppendError(buf, "ERR value is not an integer or out of range")
	}
	e.markDirty(1)
	return resp.AppendInt(buf, n)
}

func cmdIncr(e *Engine, c *Client, args [][]byte, now int64, buf []byte) []byte {
	return incrCommand(e, c, string(args[1]), 1, now, buf)
}

func cmdDecr(e *Engine, c *Client, args [][]byte, now int64, buf []byte) []byte {
	return incrCommand(e, c, string(args[1]), -1, now, buf)
}

func cmdIncrBy(e *Engine, c *Client, args [][]byte, now int64, buf []byte) []byte {
	n, err := strconv.ParseInt(string(args[2]), 10, 64)
	if err != nil {
		return resp.AppendError(buf, "ERR value is not an integer or out of range")
	}
	return incrCommand(e, c, string(args[1]), n, now, buf)
}

func cmdDecrBy(e *Engine, c *Client, args [][]byte, now int64, buf []byte) []byte {
	n, err := strconv.ParseInt(string(args[2]), 10, 64)
	if err != nil {
		return resp.AppendError(buf, "ERR value is not an integer or out of range")
	}
	return incrCommand(e, c, string(args[1]), -n, now, buf)
}

func cmdMGet(e *Engine, c *Client, args [][]byte, now int64, buf []byte) []byte {
	out := make([][]byte, 0, len(args)-1)
	for _, k := range args[1:] {
		v, _, err := lookupString(e, c, string(k), now)
		if err != nil || v == nil {
			out = append(out, nil)
			continue
		}
		out = append(out, v.Bytes())
	}
	return resp.AppendBulkArray(buf, out)
}

func cmdMSet(e *Engine, c *Client, args [][]byte, now int64, buf []byte) []byte {
	if (len(args)-1)%2 != 0 {
		return resp.AppendError(buf, "ERR wrong number of arguments for 'mset' command")
	}
	d := e.DB(c)
	for i := 1; i+1 < len(args); i += 2 {
		d.Set(string(args[i]), object.NewString(args[i+1]))
	}
	e.markDirty(1)
	return append(buf, resp.ReplyOK...)
}

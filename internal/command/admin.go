package command

import (
	"strconv"
	"strings"

	"redisd/internal/object"
	"redisd/internal/resp"
)

func (e *Engine) registerAdmin() {
	e.register("ping", -1, false, cmdPing)
	e.register("echo", 2, false, cmdEcho)
	e.register("select", 2, false, cmdSelect)
	e.register("dbsize", 1, false, cmdDBSize)
	e.register("flushdb", -1, true, cmdFlushDB)
	e.register("flushall", -1, true, cmdFlushAll)
	e.register("type", 2, false, cmdType)
	e.register("del", -2, true, cmdDel)
	e.register("unlink", -2, true, cmdDel)
	e.register("exists", -2, false, cmdExists)
	e.register("expire", 3, true, cmdExpire)
	e.register("pexpire", 3, true, cmdPExpire)
	e.register("expireat", 3, true, cmdExpireAt)
	e.register("ttl", 2, false, cmdTTL)
	e.register("pttl", 2, false, cmdPTTL)
	e.register("persist", 2, true, cmdPersist)
	e.register("keys", 2, false, cmdKeys)
	e.register("randomkey", 1, false, cmdRandomKey)
	e.register("rename", 3, true, cmdRename)
	e.register("object", 3, false, cmdObject)
}

func cmdPing(e *Engine, c *Client, args [][]byte, now int64, buf []byte) []byte {
	if len(args) > 1 {
		return resp.AppendBulk(buf, args[1])
	}
	return append(buf, resp.ReplyPong...)
}

func cmdEcho(e *Engine, c *Client, args [][]byte, now int64, buf []byte) []byte {
	return resp.AppendBulk(buf, args[1])
}

func cmdSelect(e *Engine, c *Client, args [][]byte, now int64, buf []byte) []byte {
	idx, err := strconv.Atoi(string(args[1]))
	if err != nil || e.ks.DB(idx) == nil {
		return resp.AppendError(buf, "ERR invalid DB index")
	}
	c.DBIndex = idx
	return append(buf, resp.ReplyOK...)
}

func cmdDBSize(e *Engine, c *Client, args [][]byte, now int64, buf []byte) []byte {
	return resp.AppendInt(buf, int64(e.DB(c).Len()))
}

func cmdFlushDB(e *Engine, c *Client, args [][]byte, now int64, buf []byte) []byte {
	e.DB(c).Flush()
	e.markDirty(1)
	return append(buf, resp.ReplyOK...)
}

func cmdFlushAll(e *Engine, c *Client, args [][]byte, now int64, buf []byte) []byte {
	for i := 0; i < e.ks.Count(); i++ {
		e.ks.DB(i).Flush()
	}
	e.markDirty(1)
	return append(buf, resp.ReplyOK...)
}

func cmdType(e *Engine, c *Client, args [][]byte, now int64, buf []byte) []byte {
	v, ok := e.DB(c).LookupRead(string(args[1]), now)
	if !ok {
		return resp.AppendStatus(buf, "none")
	}
	return resp.AppendStatus(buf, v.Type.String())
}

func cmdDel(e *Engine, c *Client, args [][]byte, now int64, buf []byte) []byte {
	d := e.DB(c)
	var n int64
	for _, k := range args[1:] {
		if d.Delete(string(k)) {
			n++
		}
	}
	e.markDirty(n)
	return resp.AppendInt(buf, n)
}

func cmdExists(e *Engine, c *Client, args [][]byte, now int64, buf []byte) []byte {
	d := e.DB(c)
	var n int64
	for _, k := range args[1:] {
		if d.Exists(string(k), now) {
			n++
		}
	}
	return resp.AppendInt(buf, n)
}

func parseExpireSeconds(arg []byte) (int64, error) {
	return strconv.ParseInt(string(arg), 10, 64)
}

func cmdExpire(e *Engine, c *Client, args [][]byte, now int64, buf []byte) []byte {
	secs, err := parseExpireSeconds(args[2])
	if err != nil {
		return resp.AppendError(buf, "ERR value is not an integer or out of range")
	}
	ok := e.DB(c).SetExpire(string(args[1]), now+secs*1000)
	if ok {
		e.markDirty(1)
	}
	return resp.AppendInt(buf, boolInt(ok))
}

func cmdPExpire(e *Engine, c *Client, args [][]byte, now int64, buf []byte) []byte {
	ms, err := parseExpireSeconds(args[2])
	if err != nil {
		return resp.AppendError(buf, "ERR value is not an integer or out of range")
	}
	ok := e.DB(c).SetExpire(string(args[1]), now+ms)
	if ok {
		e.markDirty(1)
	}
	return resp.AppendInt(buf, boolInt(ok))
}

func cmdExpireAt(e *Engine, c *Client, args [][]byte, now int64, buf []byte) []byte {
	secs, err := parseExpireSeconds(args[2])
	if err != nil {
		return resp.AppendError(buf, "ERR value is not an integer or out of range")
	}
	ok := e.DB(c).SetExpire(string(args[1]), secs*1000)
	if ok {
		e.markDirty(1)
	}
	return resp.AppendInt(buf, boolInt(ok))
}

func cmdTTL(e *Engine, c *Client, args [][]byte, now int64, buf []byte) []byte {
	ttl, hasExpiry, hasKey := e.DB(c).TTLMillis(string(args[1]), now)
	switch {
	case !hasKey:
		return resp.AppendInt(buf, -2)
	case !hasExpiry:
		return resp.AppendInt(buf, -1)
	default:
		return resp.AppendInt(buf, (ttl+999)/1000)
	}
}

func cmdPTTL(e *Engine, c *Client, args [][]byte, now int64, buf []byte) []byte {
	ttl, hasExpiry, hasKey := e.DB(c).TTLMillis(string(args[1]), now)
	switch {
	case !hasKey:
		return resp.AppendInt(buf, -2)
	case !hasExpiry:
		return resp.AppendInt(buf, -1)
	default:
		return resp.AppendInt(buf, ttl)
	}
}

func cmdPersist(e *Engine, c *Client, args [][]byte, now int64, buf []byte) []byte {
	ok := e.DB(c).Persist(string(args[1]))
	if ok {
		e.markDirty(1)
	}
	return resp.AppendInt(buf, boolInt(ok))
}

func cmdKeys(e *Engine, c *Client, args [][]byte, now int64, buf []byte) []byte {
	pattern := string(args[1])
	var matched [][]byte
	e.DB(c).ForEachKey(func(key string, _ *object.Object) bool {
		if globMatch(pattern, key) {
			matched = append(matched, []byte(key))
		}
		return true
	})
	return resp.AppendBulkArray(buf, matched)
}

func cmdRandomKey(e *Engine, c *Client, args [][]byte, now int64, buf []byte) []byte {
	k, ok := e.DB(c).RandomKey()
	if !ok {
		return append(buf, resp.ReplyNil...)
	}
	return resp.AppendBulk(buf, []byte(k))
}

func cmdRename(e *Engine, c *Client, args [][]byte, now int64, buf []byte) []byte {
	d := e.DB(c)
	v, ok := d.LookupRead(string(args[1]), now)
	if !ok {
		return resp.AppendError(buf, "ERR no such key")
	}
	ttl, hasExpiry, _ := d.TTLMillis(string(args[1]), now)
	d.Delete(string(args[1]))
	d.Set(string(args[2]), v)
	if hasExpiry {
		d.SetExpire(string(args[2]), now+ttl)
	}
	e.markDirty(1)
	return append(buf, resp.ReplyOK...)
}

func cmdObject(e *Engine, c *Client, args [][]byte, now int64, buf []byte) []byte {
	sub := strings.ToLower(string(args[1]))
	if sub != "encoding" {
		return resp.AppendError(buf, "ERR syntax error")
	}
	v, ok := e.DB(c).LookupRead(string(args[2]), now)
	if !ok {
		return append(buf, resp.ReplyNil...)
	}
	return resp.AppendBulk(buf, []byte(v.Encoding.String()))
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// globMatch implements Redis's restricted glob syntax (*, ?, [...]),
// grounded on the teacher's internal/storage KEYS matching (path.Match
// does not support Redis's bracket-negation syntax so a small matcher is
// kept in-house rather than reusing an ecosystem glob library that does
// not share Redis's exact dialect). A bracket class matches only the
// characters listed in it: ranges such as [a-z] and backslash escapes are
// not supported.
func globMatch(pattern, s string) bool {
	return globMatchFrom(pattern, s, 0, 0)
}

func globMatchFrom(pattern, s string, pi, si int) bool {
	for pi < len(pattern) {
		switch pattern[pi] {
		case '*':
			for pi < len(pattern) && pattern[pi] == '*' {
				pi++
			}
			if pi == len(pattern) {
				return true
			}
			for j := si; j <= len(s); j++ {
				if globMatchFrom(pattern, s, pi, j) {
					return true
				}
			}
			return false
		case '?':
			if si >= len(s) {
				return false
			}
			pi++
			si++
		case '[':
			if si >= len(s) {
				return false
			}
			end := strings.IndexByte(pattern[pi:], ']')
			if end == -1 {
				return pattern[pi:] == s[si:]
			}
			class := pattern[pi+1 : pi+end]
			negate := false
			if strings.HasPrefix(class, "^") {
				negate = true
				class = class[1:]
			}
			if strings.ContainsRune(class, rune(s[si])) == negate {
				return false
			}
			pi += end + 1
			si++
		default:
			if si >= len(s) || pattern[pi] != s[si] {
				return false
			}
			pi++
			si++
		}
	}
	return si == len(s)
}

package command

import (
	"strconv"
	"strings"

	"redisd/internal/object"
	"redisd/internal/resp"
)

func (e *Engine) registerZSet() {
	e.registerOOM("zadd", -4, cmdZAdd)
	e.register("zscore", 3, false, cmdZScore)
	e.registerOOM("zincrby", 4, cmdZIncrBy)
	e.register("zrem", -3, true, cmdZRem)
	e.register("zrank", 3, false, cmdZRank)
	e.register("zrevrank", 3, false, cmdZRevRank)
	e.register("zcard", 2, false, cmdZCard)
	e.register("zrange", -4, false, cmdZRange)
	e.register("zrevrange", -4, false, cmdZRevRange)
	e.register("zrangebyscore", -4, false, cmdZRangeByScore)
	e.register("zcount", 4, false, cmdZCount)
}

func lookupZSet(e *Engine, c *Client, key string, now int64) (*object.Object, error) {
	v, ok := e.DB(c).LookupRead(key, now)
	if !ok {
		return nil, nil
	}
	if v.Type != object.TypeZSet {
		return nil, errWrongType
	}
	return v, nil
}

type zaddFlags struct {
	nx, xx, gt, lt, ch, incr bool
}

// parseZAddFlags consumes the NX/XX/GT/LT/CH/INCR tokens that precede the
// first score in ZADD's argument list, returning the index of that score.
func parseZAddFlags(args [][]byte) (zaddFlags, int) {
	var f zaddFlags
	i := 2
	for i < len(args) {
		switch strings.ToUpper(string(args[i])) {
		case "NX":
			f.nx = true
		case "XX":
			f.xx = true
		case "GT":
			f.gt = true
		case "LT":
			f.lt = true
		case "CH":
			f.ch = true
		case "INCR":
			f.incr = true
		default:
			return f, i
		}
		i++
	}
	return f, i
}

func cmdZAdd(e *Engine, c *Client, args [][]byte, now int64, buf []byte) []byte {
	flags, firstScore := parseZAddFlags(args)
	if flags.nx && (flags.xx || flags.gt || flags.lt) {
		return resp.AppendError(buf, "ERR GT, LT, and/or NX options at the same time are not compatible")
	}
	if flags.gt && flags.lt {
		return resp.AppendError(buf, "ERR GT, LT, and/or NX options at the same time are not compatible")
	}
	pairs := len(args) - firstScore
	if pairs <= 0 || pairs%2 != 0 {
		return resp.AppendError(buf, "ERR wrong number of arguments for 'zadd' command")
	}
	if flags.incr && pairs != 2 {
		return resp.AppendError(buf, "ERR INCR option supports a single increment-element pair")
	}
	d := e.DB(c)
	key := string(args[1])
	v, err := lookupZSet(e, c, key, now)
	if err != nil {
		return appendWrongType(buf)
	}
	if v == nil {
		v = object.NewZSet()
		d.Set(key, v)
	}
	var added, changed int64
	var incrResult float64
	var incrSkipped bool
	for i := firstScore; i+1 < len(args); i += 2 {
		score, serr := strconv.ParseFloat(string(args[i]), 64)
		if serr != nil {
			return resp.AppendError(buf, "ERR value is not a valid float")
		}
		member := args[i+1]
		cur, existed := v.ZScore(member)
		if flags.incr {
			score = cur + score
		}
		if existed && flags.nx {
			incrSkipped = true
			continue
		}
		if !existed && flags.xx {
			incrSkipped = true
			continue
		}
		if existed && flags.gt && score <= cur {
			incrSkipped = true
			continue
		}
		if existed && flags.lt && score >= cur {
			incrSkipped = true
			continue
		}
		isNew := v.ZAdd(member, score)
		if isNew {
			added++
			changed++
		} else if score != cur {
			changed++
		}
		incrResult = score
	}
	e.markDirty(1)
	if flags.incr {
		if incrSkipped {
			return append(buf, resp.ReplyNil...)
		}
		return resp.AppendBulk(buf, formatScore(incrResult))
	}
	if flags.ch {
		return resp.AppendInt(buf, changed)
	}
	return resp.AppendInt(buf, added)
}

func cmdZScore(e *Engine, c *Client, args [][]byte, now int64, buf []byte) []byte {
	v, err := lookupZSet(e, c, string(args[1]), now)
	if err != nil {
		return appendWrongType(buf)
	}
	if v == nil {
		return append(buf, resp.ReplyNil...)
	}
	score, ok := v.ZScore(args[2])
	if !ok {
		return append(buf, resp.ReplyNil...)
	}
	return resp.AppendBulk(buf, formatScore(score))
}

func cmdZIncrBy(e *Engine, c *Client, args [][]byte, now int64, buf []byte) []byte {
	delta, err := strconv.ParseFloat(string(args[2]), 64)
	if err != nil {
		return resp.AppendError(buf, "ERR value is not a valid float")
	}
	d := e.DB(c)
	key := string(args[1])
	v, terr := lookupZSet(e, c, key, now)
	if terr != nil {
		return appendWrongType(buf)
	}
	if v == nil {
		v = object.NewZSet()
		d.Set(key, v)
	}
	n := v.ZIncrBy(args[3], delta)
	e.markDirty(1)
	return resp.AppendBulk(buf, formatScore(n))
}

func cmdZRem(e *Engine, c *Client, args [][]byte, now int64, buf []byte) []byte {
	v, err := lookupZSet(e, c, string(args[1]), now)
	if err != nil {
		return appendWrongType(buf)
	}
	if v == nil {
		return resp.AppendInt(buf, 0)
	}
	var n int64
	for _, m := range args[2:] {
		if v.ZRem(m) {
			n++
		}
	}
	if v.ZCard() == 0 {
		e.DB(c).Delete(string(args[1]))
	}
	e.markDirty(1)
	return resp.AppendInt(buf, n)
}

func cmdZRank(e *Engine, c *Client, args [][]byte, now int64, buf []byte) []byte {
	v, err := lookupZSet(e, c, string(args[1]), now)
	if err != nil {
		return appendWrongType(buf)
	}
	if v == nil {
		return append(buf, resp.ReplyNil...)
	}
	rank, ok := v.ZRank(args[2])
	if !ok {
		return append(buf, resp.ReplyNil...)
	}
	return resp.AppendInt(buf, int64(rank))
}

func cmdZRevRank(e *Engine, c *Client, args [][]byte, now int64, buf []byte) []byte {
	v, err := lookupZSet(e, c, string(args[1]), now)
	if err != nil {
		return appendWrongType(buf)
	}
	if v == nil {
		return append(buf, resp.ReplyNil...)
	}
	rank, ok := v.ZRank(args[2])
	if !ok {
		return append(buf, resp.ReplyNil...)
	}
	return resp.AppendInt(buf, int64(v.ZCard()-1-rank))
}

func cmdZCard(e *Engine, c *Client, args [][]byte, now int64, buf []byte) []byte {
	v, err := lookupZSet(e, c, string(args[1]), now)
	if err != nil {
		return appendWrongType(buf)
	}
	if v == nil {
		return resp.AppendInt(buf, 0)
	}
	return resp.AppendInt(buf, int64(v.ZCard()))
}

func appendZMembers(buf []byte, members []object.ZMember, withScores bool) []byte {
	if !withScores {
		items := make([][]byte, len(members))
		for i, m := range members {
			items[i] = m.Member
		}
		return resp.AppendBulkArray(buf, items)
	}
	buf = resp.AppendArrayHeader(buf, len(members)*2)
	for _, m := range members {
		buf = resp.AppendBulk(buf, m.Member)
		buf = resp.AppendBulk(buf, formatScore(m.Score))
	}
	return buf
}

func hasWithScores(args [][]byte) bool {
	if len(args) == 0 {
		return false
	}
	return strings.EqualFold(string(args[len(args)-1]), "WITHSCORES")
}

func cmdZRange(e *Engine, c *Client, args [][]byte, now int64, buf []byte) []byte {
	return zRangeByRank(e, c, args, now, buf, false)
}

func cmdZRevRange(e *Engine, c *Client, args [][]byte, now int64, buf []byte) []byte {
	return zRangeByRank(e, c, args, now, buf, true)
}

// byScore reports whether a ZRANGE/ZREVRANGE invocation carries a trailing
// BYSCORE modifier, in which case args[2]/args[3] are score bounds ("-inf",
// "+inf", or a float) rather than rank indexes.
func byScore(args [][]byte) bool {
	for _, a := range args[4:] {
		if strings.EqualFold(string(a), "BYSCORE") {
			return true
		}
	}
	return false
}

func zRangeByRank(e *Engine, c *Client, args [][]byte, now int64, buf []byte, reverse bool) []byte {
	if byScore(args) {
		return zRangeByScoreModifier(e, c, args, now, buf, reverse)
	}
	withScores := hasWithScores(args[4:])
	v, err := lookupZSet(e, c, string(args[1]), now)
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
	return appendZMembers(buf, v.ZRangeByRank(start, stop, reverse), withScores)
}

// zRangeByScoreModifier handles ZRANGE/ZREVRANGE's BYSCORE form: args[2] and
// args[3] are score bounds, always given low-to-high regardless of reverse.
func zRangeByScoreModifier(e *Engine, c *Client, args [][]byte, now int64, buf []byte, reverse bool) []byte {
	withScores := false
	for _, a := range args[4:] {
		if strings.EqualFold(string(a), "WITHSCORES") {
			withScores = true
		}
	}
	v, err := lookupZSet(e, c, string(args[1]), now)
	if err != nil {
		return appendWrongType(buf)
	}
	if v == nil {
		return resp.AppendBulkArray(buf, nil)
	}
	min, err1 := parseScoreBound(args[2])
	max, err2 := parseScoreBound(args[3])
	if err1 != nil || err2 != nil {
		return resp.AppendError(buf, "ERR min or max is not a float")
	}
	return appendZMembers(buf, v.ZRangeByScore(min, max, 0, -1, reverse), withScores)
}

func cmdZRangeByScore(e *Engine, c *Client, args [][]byte, now int64, buf []byte) []byte {
	withScores := hasWithScores(args[4:])
	v, err := lookupZSet(e, c, string(args[1]), now)
	if err != nil {
		return appendWrongType(buf)
	}
	if v == nil {
		return resp.AppendBulkArray(buf, nil)
	}
	min, err1 := parseScoreBound(args[2])
	max, err2 := parseScoreBound(args[3])
	if err1 != nil || err2 != nil {
		return resp.AppendError(buf, "ERR min or max is not a float")
	}
	return appendZMembers(buf, v.ZRangeByScore(min, max, 0, -1, false), withScores)
}

func cmdZCount(e *Engine, c *Client, args [][]byte, now int64, buf []byte) []byte {
	v, err := lookupZSet(e, c, string(args[1]), now)
	if err != nil {
		return appendWrongType(buf)
	}
	if v == nil {
		return resp.AppendInt(buf, 0)
	}
	min, err1 := parseScoreBound(args[2])
	max, err2 := parseScoreBound(args[3])
	if err1 != nil || err2 != nil {
		return resp.AppendError(buf, "ERR min or max is not a float")
	}
	return resp.AppendInt(buf, int64(v.ZCount(min, max)))
}

func parseScoreBound(arg []byte) (float64, error) {
	s := string(arg)
	switch s {
	case "-inf":
		return -1e308, nil
	case "+inf", "inf":
		return 1e308, nil
	default:
		return strconv.ParseFloat(s, 64)
	}
}

func formatScore(score float64) []byte {
	return []byte(strconv.FormatFloat(score, 'g', -1, 64))
}

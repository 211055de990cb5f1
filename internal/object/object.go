// Package object implements Robj: the tagged, dual-encoded value stored
// under every key. Every operation is total — it returns a sentinel error
// (see errors.go) instead of panicking, so a command handler never aborts
// the reactor on a malformed request.
//
// Grounded on the teacher's internal/storage/store.go Value struct
// (type tag + interface{} payload), reshaped per spec.md §3's invariant
// that (type, encoding) is always one of a fixed set of pairs: each Object
// holds exactly one of five payload structs selected by Type, and each
// payload struct itself holds exactly one of its two encodings — the
// "sum type over encodings" DESIGN_NOTES recommends, expressed as plain
// struct fields rather than an interface hierarchy (simpler to read, and
// Go's struct literals make an invalid (type, encoding) pair unrepresentable
// within a given accessor).
package object

type Type uint8

const (
	TypeString Type = iota
	TypeList
	TypeSet
	TypeZSet
	TypeHash
)

func (t Type) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeList:
		return "list"
	case TypeSet:
		return "set"
	case TypeZSet:
		return "zset"
	case TypeHash:
		return "hash"
	default:
		return "unknown"
	}
}

type Encoding uint8

const (
	EncRaw Encoding = iota
	EncEmbStr
	EncInt
	EncZiplist
	EncLinkedList
	EncIntset
	EncHT
	EncSkiplist
)

func (e Encoding) String() string {
	switch e {
	case EncRaw:
		return "raw"
	case EncEmbStr:
		return "embstr"
	case EncInt:
		return "int"
	case EncZiplist:
		return "ziplist"
	case EncLinkedList:
		return "linkedlist"
	case EncIntset:
		return "intset"
	case EncHT:
		return "hashtable"
	case EncSkiplist:
		return "skiplist"
	default:
		return "unknown"
	}
}

// embstrLimit is the largest string payload kept inline (embstr); longer
// strings are stored raw. Matches spec.md's promotion-threshold style for
// strings (mirrors upstream Redis's OBJ_ENCODING_EMBSTR_SIZE_LIMIT).
const embstrLimit = 44

// Object is a tagged value: Type selects which payload field is valid,
// Encoding records which of that payload's two representations is active.
type Object struct {
	Type     Type
	Encoding Encoding
	LRU      uint32

	str  stringData
	list *listData
	set  *setData
	zset *zsetData
	hash *hashData
}

type stringData struct {
	raw []byte // valid when Encoding is EncRaw or EncEmbStr
	i   int64  // valid when Encoding is EncInt
}

// Clone performs the lifecycle-required deep copy used when a value must
// be duplicated without aliasing (e.g. SMOVE, snapshot isolation of a
// payload that a background save still references).
func (o *Object) Clone() *Object {
	c := *o
	switch o.Type {
	case TypeString:
		if o.str.raw != nil {
			c.str.raw = append([]byte(nil), o.str.raw...)
		}
	case TypeList:
		c.list = o.list.clone()
	case TypeSet:
		c.set = o.set.clone()
	case TypeZSet:
		c.zset = o.zset.clone()
	case TypeHash:
		c.hash = o.hash.clone()
	}
	return &c
}

// Touch stamps the object's LRU tick. No code in this module calls it, so
// LRU stays at its zero value.
func (o *Object) Touch(tick uint32) { o.LRU = tick }

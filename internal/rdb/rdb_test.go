package rdb

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"redisd/internal/db"
	"redisd/internal/object"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	ks := db.NewKeyspace(4)

	d0 := ks.DB(0)
	d0.Set("str", object.NewString([]byte("hello")))
	d0.Set("num", object.NewString([]byte("42")))
	d0.SetExpire("num", 9999999999999)

	list := object.NewList()
	list.RPush([]byte("a"), []byte("b"), []byte("c"))
	d0.Set("list", list)

	set := object.NewSet()
	set.SAdd([]byte("x"), []byte("y"), []byte("1"))
	d0.Set("set", set)

	zset := object.NewZSet()
	zset.ZAdd([]byte("m1"), 1.5)
	zset.ZAdd([]byte("m2"), -2.25)
	d0.Set("zset", zset)

	hash := object.NewHash()
	hash.HSet([]byte("f1"), []byte("v1"))
	hash.HSet([]byte("f2"), []byte("v2"))
	d0.Set("hash", hash)

	d2 := ks.DB(2)
	d2.Set("other-db-key", object.NewString([]byte("db2")))

	path := filepath.Join(t.TempDir(), "dump.rdb")
	require.NoError(t, Save(ks, path))

	loaded, err := Load(path, 4)
	require.NoError(t, err)

	v, ok := loaded.DB(0).LookupRead("str", 0)
	require.True(t, ok)
	require.Equal(t, []byte("hello"), v.Bytes())

	ttl, hasExpiry, hasKey := loaded.DB(0).TTLMillis("num", 0)
	require.True(t, hasKey)
	require.True(t, hasExpiry)
	require.Greater(t, ttl, int64(0))

	lv, ok := loaded.DB(0).LookupRead("list", 0)
	require.True(t, ok)
	require.Equal(t, [][]byte{[]byte("a"), []byte("b"), []byte("c")}, lv.LRange(0, -1))

	sv, ok := loaded.DB(0).LookupRead("set", 0)
	require.True(t, ok)
	require.Equal(t, 3, sv.SCard())
	require.True(t, sv.SIsMember([]byte("x")))

	zv, ok := loaded.DB(0).LookupRead("zset", 0)
	require.True(t, ok)
	score, ok := zv.ZScore([]byte("m1"))
	require.True(t, ok)
	require.Equal(t, 1.5, score)

	hv, ok := loaded.DB(0).LookupRead("hash", 0)
	require.True(t, ok)
	val, ok := hv.HGet([]byte("f1"))
	require.True(t, ok)
	require.Equal(t, []byte("v1"), val)

	ov, ok := loaded.DB(2).LookupRead("other-db-key", 0)
	require.True(t, ok)
	require.Equal(t, []byte("db2"), ov.Bytes())

	_, err = os.Stat(path + ".tmp")
	require.True(t, os.IsNotExist(err))
}

package object

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStringEncodingPromotion(t *testing.T) {
	o := NewString([]byte("1"))
	require.Equal(t, EncInt, o.Encoding)

	o2 := NewString([]byte("hello"))
	require.Equal(t, EncEmbStr, o2.Encoding)

	big := make([]byte, 100)
	o3 := NewString(big)
	require.Equal(t, EncRaw, o3.Encoding)
}

func TestIncrByPromotesAndOverflows(t *testing.T) {
	o := NewString([]byte("1"))
	v, err := o.IncrBy(1)
	require.NoError(t, err)
	require.Equal(t, int64(2), v)

	o2 := NewString([]byte("notanumber"))
	_, err = o2.IncrBy(1)
	require.ErrorIs(t, err, ErrNotInteger)

	o3 := NewString([]byte(strconv.FormatInt(1<<62, 10)))
	_, err = o3.IncrBy(1 << 62)
	require.ErrorIs(t, err, ErrOverflow)
}

func TestListPromotionAndOps(t *testing.T) {
	o := NewList()
	for i := 0; i < 3; i++ {
		o.RPush([]byte(strconv.Itoa(i)))
	}
	require.Equal(t, EncZiplist, o.Encoding)
	require.Equal(t, 3, o.LLen())

	for i := 3; i < 10; i++ {
		o.RPush([]byte(strconv.Itoa(i)))
	}
	require.Equal(t, EncLinkedList, o.Encoding)
	require.Equal(t, 10, o.LLen())

	v, ok := o.LIndex(-1)
	require.True(t, ok)
	require.Equal(t, "9", string(v))

	require.Error(t, o.LSet(100, []byte("x")))
}

func TestSetIntsetToHashtablePromotion(t *testing.T) {
	o := NewSet()
	for i := 1; i <= 200; i++ {
		o.SAdd([]byte(strconv.Itoa(i)))
	}
	require.Equal(t, EncIntset, o.Encoding)

	o.SAdd([]byte("hello"))
	require.Equal(t, EncHT, o.Encoding)
	require.Equal(t, 201, o.SCard())
}

func TestHashPromotion(t *testing.T) {
	o := NewHash()
	for i := 0; i < 130; i++ {
		o.HSet([]byte(strconv.Itoa(i)), []byte("v"))
	}
	require.Equal(t, EncHT, o.Encoding)
	require.Equal(t, 130, o.HLen())
}

func TestZSetPromotionAndRange(t *testing.T) {
	o := NewZSet()
	for i := 0; i < 10; i++ {
		o.ZAdd([]byte(strconv.Itoa(i)), float64(i))
	}
	require.Equal(t, EncZiplist, o.Encoding)

	for i := 10; i < 130; i++ {
		o.ZAdd([]byte(strconv.Itoa(i)), float64(i))
	}
	require.Equal(t, EncSkiplist, o.Encoding)
	require.Equal(t, 130, o.ZCard())

	rank, ok := o.ZRank([]byte("0"))
	require.True(t, ok)
	require.Equal(t, 0, rank)
}

func TestSInter(t *testing.T) {
	a := NewSet()
	a.SAdd([]byte("1"), []byte("2"), []byte("3"))
	b := NewSet()
	b.SAdd([]byte("2"), []byte("3"), []byte("4"))

	got := SInter(a, b)
	require.Len(t, got, 2)
}

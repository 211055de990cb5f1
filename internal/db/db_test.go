package db

import (
	"testing"

	"github.com/stretchr/testify/require"

	"redisd/internal/object"
)

func TestExpireIfNeededDeletesBothMaps(t *testing.T) {
	d := New(0)
	now := int64(1000)
	d.Set("a", object.NewString([]byte("1")))
	d.SetExpire("a", now-1)

	_, ok := d.LookupRead("a", now)
	require.False(t, ok)
	require.False(t, d.Exists("a", now))
}

func TestSetExpireRequiresExistingKey(t *testing.T) {
	d := New(0)
	require.False(t, d.SetExpire("missing", 1000))
}

func TestDeleteClearsExpiry(t *testing.T) {
	d := New(0)
	d.Set("a", object.NewString([]byte("1")))
	d.SetExpire("a", 999999999999)
	d.Delete("a")

	ttl, hasExpiry, hasKey := d.TTLMillis("a", 0)
	require.Zero(t, ttl)
	require.False(t, hasExpiry)
	require.False(t, hasKey)
}

func TestActiveExpireCycleDeletesDueKeys(t *testing.T) {
	ks := NewKeyspace(1)
	now := int64(1000)
	d := ks.DB(0)
	for i := 0; i < 20; i++ {
		key := string(rune('a' + i))
		d.Set(key, object.NewString([]byte("v")))
		d.SetExpire(key, now-1)
	}
	deleted := ks.ActiveExpireCycle(20, 5, now)
	require.Equal(t, 20, deleted)
	require.Equal(t, 0, d.Len())
}

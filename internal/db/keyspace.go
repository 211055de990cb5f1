package db

// Keyspace is the full set of logical databases a server holds, indexed
// [0, N). Grounded on spec.md §3's "vector of DBs" in Server state.
type Keyspace struct {
	dbs []*DB
}

// NewKeyspace allocates n empty databases.
func NewKeyspace(n int) *Keyspace {
	ks := &Keyspace{dbs: make([]*DB, n)}
	for i := range ks.dbs {
		ks.dbs[i] = New(i)
	}
	return ks
}

// Count returns the number of databases.
func (ks *Keyspace) Count() int { return len(ks.dbs) }

// DB returns database i, or nil if i is out of range.
func (ks *Keyspace) DB(i int) *DB {
	if i < 0 || i >= len(ks.dbs) {
		return nil
	}
	return ks.dbs[i]
}

// ActiveExpireCycle samples every database's expires table, repeating the
// sample (up to maxRepeat times) while more than 25% of the sample was
// expired, per spec.md §4.4's active-expiration policy.
func (ks *Keyspace) ActiveExpireCycle(sampleSize, maxRepeat int, now int64) (totalDeleted int) {
	for _, d := range ks.dbs {
		for r := 0; r < maxRepeat; r++ {
			deleted, sampled := d.SampleExpiredKeys(sampleSize, now)
			totalDeleted += deleted
			if sampled == 0 || deleted*4 <= sampled {
				break
			}
		}
	}
	return totalDeleted
}

// RehashTick drives bulk-mode rehashing across every database.
func (ks *Keyspace) RehashTick(bucketsPerTable int) {
	for _, d := range ks.dbs {
		d.RehashTick(bucketsPerTable)
	}
}

// EvictUntilUnderLimit repeatedly evicts the earliest-deadline key from a
// randomly chosen database until usedBytes() reports under limit or no
// database has any expiring key left, per spec.md §4.4's memory-pressure
// policy.
func (ks *Keyspace) EvictUntilUnderLimit(limit int64, usedBytes func() int64, pickDB func(n int) int) {
	if limit <= 0 {
		return
	}
	n := len(ks.dbs)
	for usedBytes() > limit {
		progressed := false
		start := pickDB(n)
		for attempt := 0; attempt < n; attempt++ {
			d := ks.dbs[(start+attempt)%n]
			if d.EvictEarliestOfSample() {
				progressed = true
				break
			}
		}
		if !progressed {
			return
		}
	}
}

// Package health tracks per-monitor health state for address pools.
//
// Each monitored (service, address) pair is identified by a small
// stable integer, the monitor index. The state of one monitor is a
// StateTTL: a remaining cache lifetime plus a down flag. States combine
// with a min-ttl / or-down operator that is associative and commutative,
// so folding any number of signals into a group verdict is independent
// of order.
package health

// TTLMax is the largest representable TTL. New monitors and unmonitored
// addresses report this value with the down flag clear.
const TTLMax uint32 = 1<<28 - 1

// StateTTL is the combined health signal for one monitor or one group:
// the remaining cache lifetime and whether the subject is unavailable.
type StateTTL struct {
	TTL  uint32
	Down bool
}

// Combine merges two signals: the smaller TTL wins and down flags OR
// together. Combine is associative and commutative.
func (s StateTTL) Combine(o StateTTL) StateTTL {
	if o.TTL < s.TTL {
		s.TTL = o.TTL
	}
	s.Down = s.Down || o.Down
	return s
}

// Table is a read-only snapshot of monitor states, indexed by monitor
// index. It is refreshed wholesale by the monitoring side; readers never
// mutate it.
type Table []StateTTL

// Get returns the state for one monitor index. Indices outside the
// table read as fully up with TTLMax, the same signal an unmonitored
// address would produce.
func (t Table) Get(idx int) StateTTL {
	if idx < 0 || idx >= len(t) {
		return StateTTL{TTL: TTLMax}
	}
	return t[idx]
}

// Fold combines the states of all given monitor indices, starting from
// the neutral up/TTLMax signal.
func (t Table) Fold(indices []int) StateTTL {
	rv := StateTTL{TTL: TTLMax}
	for _, idx := range indices {
		rv = rv.Combine(t.Get(idx))
	}
	return rv
}

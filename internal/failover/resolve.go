package failover

import (
	"net/netip"

	"github.com/chifu1234/gdnsd/internal/health"
)

// Sink receives synthesized answer addresses. Implementations are
// typically thin adapters around the host's response building.
type Sink interface {
	Add(addr netip.Addr)
}

// AnswerBuffer is a Sink collecting addresses into a slice. The zero
// value is ready to use; hosts serving concurrently keep one per call
// and can presize it from the table's MaxV4+MaxV6.
type AnswerBuffer struct {
	Addrs []netip.Addr
}

func (b *AnswerBuffer) Add(a netip.Addr) { b.Addrs = append(b.Addrs, a) }

// Reset empties the buffer, keeping its capacity.
func (b *AnswerBuffer) Reset() { b.Addrs = b.Addrs[:0] }

// Resolve computes the answer for one address set against a health
// snapshot. It is pure: no I/O, no locking, no shared writes; the
// returned slice is freshly allocated per call.
//
// Each entry's own signal is the fold of its monitors (min ttl, or
// down). Healthy entries are answered and counted; unhealthy ones are
// answered uncounted when the set ignores health, omitted otherwise.
// When fewer than UpThresh entries are healthy the set reports itself
// down and, unless it ignores health, fails open: the partial answer is
// discarded and the entire pool is returned in declaration order. When
// the quorum is met the set reports itself up even if individual
// entries accumulated down signals; group availability is the
// observable, not per-address availability.
func Resolve(set *AddressSet, table health.Table) ([]netip.Addr, health.StateTTL) {
	agg := health.StateTTL{TTL: health.TTLMax}
	answer := make([]netip.Addr, 0, len(set.Entries))
	healthy := 0

	for i := range set.Entries {
		e := &set.Entries[i]
		st := table.Fold(e.Monitors)
		agg = agg.Combine(st)
		switch {
		case !st.Down:
			answer = append(answer, e.Addr)
			healthy++
		case set.IgnoreHealth:
			answer = append(answer, e.Addr)
		}
	}

	if healthy < set.UpThresh {
		agg.Down = true
		if !set.IgnoreHealth {
			answer = answer[:0]
			for i := range set.Entries {
				answer = append(answer, set.Entries[i].Addr)
			}
		}
	} else {
		agg.Down = false
	}
	return answer, agg
}

// ResolveResource resolves each present family set independently and
// writes the answers into sink, v4 before v6. The two aggregates
// combine with the same min-ttl/or-down operator to form the
// resource-level result.
func ResolveResource(res *Resource, table health.Table, sink Sink) health.StateTTL {
	var rv health.StateTTL
	if res.V4 != nil {
		addrs, st := Resolve(res.V4, table)
		emit(sink, addrs)
		rv = st
		if res.V6 != nil {
			addrs6, st6 := Resolve(res.V6, table)
			emit(sink, addrs6)
			rv = rv.Combine(st6)
		}
	} else {
		addrs, st := Resolve(res.V6, table)
		emit(sink, addrs)
		rv = st
	}
	return rv
}

func emit(sink Sink, addrs []netip.Addr) {
	for _, a := range addrs {
		sink.Add(a)
	}
}

package health

import (
	"math/rand"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCombine(t *testing.T) {
	tests := []struct {
		name string
		a, b StateTTL
		want StateTTL
	}{
		{"min ttl wins", StateTTL{TTL: 300}, StateTTL{TTL: 60}, StateTTL{TTL: 60}},
		{"down is sticky", StateTTL{TTL: 300, Down: true}, StateTTL{TTL: 600}, StateTTL{TTL: 300, Down: true}},
		{"both down", StateTTL{TTL: 10, Down: true}, StateTTL{TTL: 5, Down: true}, StateTTL{TTL: 5, Down: true}},
		{"neutral element", StateTTL{TTL: TTLMax}, StateTTL{TTL: 42}, StateTTL{TTL: 42}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Combine(tt.b))
			assert.Equal(t, tt.want, tt.b.Combine(tt.a), "combine must be commutative")
		})
	}
}

// Folding the same signals in any order must give the same result.
func TestFoldOrderIndependence(t *testing.T) {
	table := Table{
		{TTL: 120},
		{TTL: 30, Down: true},
		{TTL: 600},
		{TTL: 45},
		{TTL: 7, Down: true},
		{TTL: TTLMax},
	}
	indices := []int{0, 1, 2, 3, 4, 5}
	want := table.Fold(indices)

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 50; i++ {
		shuffled := append([]int(nil), indices...)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
		assert.Equal(t, want, table.Fold(shuffled))
	}
}

func TestFoldEmptyIsNeutral(t *testing.T) {
	var table Table
	assert.Equal(t, StateTTL{TTL: TTLMax}, table.Fold(nil))
}

func TestTableGetOutOfRange(t *testing.T) {
	table := Table{{TTL: 5, Down: true}}
	assert.Equal(t, StateTTL{TTL: 5, Down: true}, table.Get(0))
	assert.Equal(t, StateTTL{TTL: TTLMax}, table.Get(-1))
	assert.Equal(t, StateTTL{TTL: TTLMax}, table.Get(7))
}

func TestRegisterIsStablePerIdentity(t *testing.T) {
	r := NewRegistry()
	a1 := netip.MustParseAddr("192.0.2.1")
	a2 := netip.MustParseAddr("192.0.2.2")

	i0 := r.Register("up", a1)
	i1 := r.Register("up", a2)
	i2 := r.Register("tcp80", a1)

	assert.Equal(t, []int{0, 1, 2}, []int{i0, i1, i2})

	// Same identity, same index, even after other registrations.
	assert.Equal(t, i0, r.Register("up", a1))
	assert.Equal(t, i2, r.Register("tcp80", a1))
	assert.Equal(t, 3, r.Len())
}

func TestSetStateAndSnapshot(t *testing.T) {
	r := NewRegistry()
	idx := r.Register("up", netip.MustParseAddr("2001:db8::1"))

	// New monitors start up at TTLMax.
	assert.Equal(t, StateTTL{TTL: TTLMax}, r.Snapshot().Get(idx))

	require.NoError(t, r.SetState(idx, StateTTL{TTL: 30, Down: true}))
	snap := r.Snapshot()
	assert.Equal(t, StateTTL{TTL: 30, Down: true}, snap.Get(idx))

	// A snapshot is a copy: later updates do not leak into it.
	require.NoError(t, r.SetState(idx, StateTTL{TTL: 99}))
	assert.Equal(t, StateTTL{TTL: 30, Down: true}, snap.Get(idx))

	assert.Error(t, r.SetState(5, StateTTL{}))
	assert.Error(t, r.SetState(-1, StateTTL{}))
}

func TestMonitorsCopy(t *testing.T) {
	r := NewRegistry()
	r.Register("up", netip.MustParseAddr("192.0.2.9"))
	mons := r.Monitors()
	require.Len(t, mons, 1)
	assert.Equal(t, "up", mons[0].Service)
	assert.Equal(t, "192.0.2.9", mons[0].Addr.String())
}

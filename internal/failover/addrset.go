// Package failover synthesizes health-aware DNS answer sets from pools
// of IPv4/IPv6 addresses.
//
// A resource is a named pool with up to one address set per family.
// Each set carries a quorum: when fewer than up_thresh addresses are
// healthy the set fails open, answering with the entire pool rather
// than a partial or empty one, and reports itself down. Builder turns
// hierarchical configuration into an immutable ResourceTable; Resolve
// combines the table with a health snapshot into an answer; Plugin is
// the facade the serving side talks to.
package failover

import (
	"math"
	"net/netip"
)

// AddressEntry is one address of a set plus its monitor indices, one
// per configured service type.
type AddressEntry struct {
	Addr     netip.Addr
	Monitors []int
}

// AddressSet is a validated, family-specific address pool plus its
// resolution policy. Entries keep configuration declaration order; the
// fail-open answer and positional shorthand labels depend on it.
type AddressSet struct {
	Entries      []AddressEntry
	NumSvcs      int
	UpThresh     int
	IgnoreHealth bool
	IPv6         bool
}

// Count returns the number of addresses in the set.
func (s *AddressSet) Count() int { return len(s.Entries) }

// Resource is a named pool: at least one of V4/V6 is non-nil.
type Resource struct {
	Name string
	V4   *AddressSet
	V6   *AddressSet
}

// ResourceTable is one immutable generation of configured resources.
// It is built once per (re)load, then shared by reference across all
// concurrent resolutions and replaced wholesale, never mutated.
//
// MaxV4 and MaxV6 are the largest per-family set sizes seen across all
// resources; hosts size shared answer buffers from them.
type ResourceTable struct {
	resources []*Resource
	byName    map[string]int

	MaxV4 int
	MaxV6 int
}

// Len returns the number of resources.
func (t *ResourceTable) Len() int { return len(t.resources) }

// Lookup maps a resource name to its handle.
func (t *ResourceTable) Lookup(name string) (int, bool) {
	idx, ok := t.byName[name]
	return idx, ok
}

// Resource returns the resource for a handle previously produced by
// Lookup. Handles are not validated here; they are trusted by contract.
func (t *ResourceTable) Resource(handle int) *Resource {
	return t.resources[handle]
}

// Resources returns the resources in declaration order.
func (t *ResourceTable) Resources() []*Resource {
	return t.resources
}

// quorum converts a fraction of count into an absolute threshold:
// ceil(count * frac), clamped to [1, count].
func quorum(count int, frac float64) int {
	th := int(math.Ceil(frac * float64(count)))
	if th < 1 {
		th = 1
	}
	if th > count {
		th = count
	}
	return th
}

package failover

import (
	"errors"
	"fmt"
	"net/netip"
	"strconv"

	"github.com/chifu1234/gdnsd/internal/health"
	"github.com/chifu1234/gdnsd/internal/vconf"
)

const (
	defaultService  = "up"
	defaultUpThresh = 0.5
)

// Option keys recognized at every level of the resources stanza. They
// inherit from the nearest enclosing scope down to each address set
// unless overridden locally.
var optionKeys = [...]string{"up_thresh", "service_types", "ignore_health"}

func isOptionKey(k string) bool {
	for _, o := range optionKeys {
		if k == o {
			return true
		}
	}
	return false
}

// HealthQuery is the monitoring interface the failover core consumes.
// Register must return a stable index per (service, address) identity,
// reused across configuration reloads; Snapshot must return a read-only
// state table indexed by those indices.
type HealthQuery interface {
	Register(service string, addr netip.Addr) int
	Snapshot() health.Table
}

// Builder turns a resources stanza into a ResourceTable. Any
// validation failure aborts the whole build; no partial table is ever
// returned. A Builder is single-use.
type Builder struct {
	health HealthQuery

	v4Max int
	v6Max int
}

// NewBuilder returns a Builder registering health subscriptions with hq.
func NewBuilder(hq HealthQuery) *Builder {
	return &Builder{health: hq}
}

// Build constructs the table. The cfg tree is consumed in the process
// (option keys are peeled off as they are recognized); parse a fresh
// tree for every load.
func (b *Builder) Build(cfg *vconf.Value) (*ResourceTable, error) {
	if cfg == nil {
		return nil, errors.New("failover: a resources stanza is required")
	}
	if !cfg.IsMapping() {
		return nil, errors.New("failover: the resources stanza must be a mapping of resource names")
	}

	// Options at the top level inherit downward into every resource.
	for _, key := range optionKeys {
		vconf.BequeathAll(cfg, key)
	}

	tbl := &ResourceTable{byName: map[string]int{}}
	for _, p := range cfg.Pairs() {
		res, err := b.buildResource(p.Key, p.Value, cfg)
		if err != nil {
			return nil, err
		}
		tbl.byName[res.Name] = len(tbl.resources)
		tbl.resources = append(tbl.resources, res)
	}
	tbl.MaxV4 = b.v4Max
	tbl.MaxV6 = b.v6Max
	return tbl, nil
}

func (b *Builder) buildResource(name string, opts, root *vconf.Value) (*Resource, error) {
	res := &Resource{Name: name}

	var v4cfg, v6cfg *vconf.Value
	if opts.IsMapping() {
		// Resource-level options inherit into the per-family stanzas.
		for _, key := range optionKeys {
			vconf.BequeathAll(opts, key)
		}

		v4cfg, _ = opts.Take("addrs_v4")
		v6cfg, _ = opts.Take("addrs_v6")

		if v4cfg != nil {
			set, err := b.buildAddrs(name, "addrs_v4", v4cfg, opts, false)
			if err != nil {
				return nil, err
			}
			res.V4 = set
		}
		if v6cfg != nil {
			set, err := b.buildAddrs(name, "addrs_v6", v6cfg, opts, true)
			if err != nil {
				return nil, err
			}
			res.V6 = set
		}
	}

	if v4cfg == nil && v6cfg == nil {
		if err := b.buildAuto(res, "direct", opts, root); err != nil {
			return nil, err
		}
	} else if leftover := opts.Pairs(); len(leftover) > 0 {
		return nil, fmt.Errorf("failover: resource %q: bad option %q", name, leftover[0].Key)
	}

	return res, nil
}

// buildAuto handles a resource without explicit addrs_v4/addrs_v6
// stanzas: the family of the whole set is inferred from the literal
// form of its first address.
func (b *Builder) buildAuto(res *Resource, stanza string, cfg, parent *vconf.Value) error {
	if !cfg.IsMapping() {
		m, err := labeledFromSequence(cfg, parent, res.Name, stanza)
		if err != nil {
			return err
		}
		cfg = m
	}

	// First address label; option keys may sit among the entries.
	var firstKey string
	var firstVal *vconf.Value
	for _, p := range cfg.Pairs() {
		if isOptionKey(p.Key) {
			continue
		}
		firstKey, firstVal = p.Key, p.Value
		break
	}
	if firstVal == nil {
		return fmt.Errorf("failover: resource %q (%s): no addresses defined", res.Name, stanza)
	}

	text, ok := firstVal.Scalar()
	if !ok {
		return fmt.Errorf("failover: resource %q (%s): the value of %q must be an IP address in string form", res.Name, stanza, firstKey)
	}
	addr, err := parseAddr(text)
	if err != nil {
		return fmt.Errorf("failover: resource %q (%s): failed to parse address %q for %q: %w", res.Name, stanza, text, firstKey, err)
	}

	if addr.Is4() {
		set, err := b.buildAddrs(res.Name, stanza, cfg, parent, false)
		if err != nil {
			return err
		}
		res.V4 = set
	} else {
		set, err := b.buildAddrs(res.Name, stanza, cfg, parent, true)
		if err != nil {
			return err
		}
		res.V6 = set
	}
	return nil
}

// buildAddrs constructs one AddressSet from cfg, which is either a
// label=>address mapping or an array/scalar shorthand normalized into
// one. parent supplies inherited options for the shorthand forms.
func (b *Builder) buildAddrs(resname, stanza string, cfg, parent *vconf.Value, ipv6 bool) (*AddressSet, error) {
	if !cfg.IsMapping() {
		m, err := labeledFromSequence(cfg, parent, resname, stanza)
		if err != nil {
			return nil, err
		}
		cfg = m
	}

	set := &AddressSet{IPv6: ipv6}

	svcNames := []string{defaultService}
	if st, ok := cfg.Take("service_types"); ok {
		if st.IsMapping() || st.Len() == 0 {
			return nil, fmt.Errorf("failover: resource %q (%s): 'service_types' must be a string or a non-empty array of strings", resname, stanza)
		}
		svcNames = make([]string, 0, st.Len())
		for i := 0; i < st.Len(); i++ {
			s, ok := st.At(i).Scalar()
			if !ok {
				return nil, fmt.Errorf("failover: resource %q (%s): 'service_types' values must be strings", resname, stanza)
			}
			svcNames = append(svcNames, s)
		}
	}
	set.NumSvcs = len(svcNames)

	frac := defaultUpThresh
	if ut, ok := cfg.Take("up_thresh"); ok {
		f, err := ut.Float64()
		if err != nil || f <= 0.0 || f > 1.0 {
			return nil, fmt.Errorf("failover: resource %q (%s): 'up_thresh' must be a floating point value in the range (0.0 - 1.0]", resname, stanza)
		}
		frac = f
	}

	if ih, ok := cfg.Take("ignore_health"); ok {
		v, err := ih.Bool()
		if err != nil {
			return nil, fmt.Errorf("failover: resource %q (%s): 'ignore_health' must have a boolean value", resname, stanza)
		}
		set.IgnoreHealth = v
	}

	count := cfg.Len()
	if count == 0 {
		return nil, fmt.Errorf("failover: resource %q (%s): must define one or more 'label => IP' mappings, either directly or as an array of addresses", resname, stanza)
	}
	set.UpThresh = quorum(count, frac)
	set.Entries = make([]AddressEntry, 0, count)

	for _, p := range cfg.Pairs() {
		text, ok := p.Value.Scalar()
		if !ok {
			return nil, fmt.Errorf("failover: resource %q (%s): address %q: all addresses must be string values", resname, stanza, p.Key)
		}
		addr, err := parseAddr(text)
		if err != nil {
			return nil, fmt.Errorf("failover: resource %q (%s): failed to parse address %q for %q: %w", resname, stanza, text, p.Key, err)
		}
		if ipv6 && addr.Is4() {
			return nil, fmt.Errorf("failover: resource %q (%s): address %q for %q is not IPv6", resname, stanza, text, p.Key)
		}
		if !ipv6 && !addr.Is4() {
			return nil, fmt.Errorf("failover: resource %q (%s): address %q for %q is not IPv4", resname, stanza, text, p.Key)
		}

		mons := make([]int, set.NumSvcs)
		for i, svc := range svcNames {
			mons[i] = b.health.Register(svc, addr)
		}
		set.Entries = append(set.Entries, AddressEntry{Addr: addr, Monitors: mons})
	}

	if ipv6 {
		if count > b.v6Max {
			b.v6Max = count
		}
	} else if count > b.v4Max {
		b.v4Max = count
	}
	return set, nil
}

// labeledFromSequence rewrites an array (or a bare address literal)
// into a label=>address mapping with 1-based positional labels, then
// inherits options from the enclosing scope the way a literal mapping
// would have.
func labeledFromSequence(v, parent *vconf.Value, resname, stanza string) (*vconf.Value, error) {
	m := vconf.NewMapping()
	for i := 0; i < v.Len(); i++ {
		elem := v.At(i)
		if !elem.IsScalar() {
			return nil, fmt.Errorf("failover: resource %q (%s): if defined as an array, array values must all be address strings", resname, stanza)
		}
		_ = m.Set(strconv.Itoa(i+1), elem.Clone())
	}
	for _, key := range optionKeys {
		vconf.Inherit(m, parent, key)
	}
	return m, nil
}

// parseAddr parses an address literal. IPv4-mapped IPv6 literals are
// unmapped so family checks see them as IPv4.
func parseAddr(s string) (netip.Addr, error) {
	a, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Addr{}, err
	}
	return a.Unmap(), nil
}

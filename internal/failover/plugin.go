package failover

import (
	"log/slog"
	"net/netip"
	"sync/atomic"

	"github.com/chifu1234/gdnsd/internal/health"
	"github.com/chifu1234/gdnsd/internal/vconf"
)

// NoResource is the failure sentinel returned by MapResource.
const NoResource = -1

// ClientInfo describes the querying client. The failover policy does
// not consult it; it is carried through for hosts and future policies
// that do.
type ClientInfo struct {
	Source netip.Addr
}

// Plugin is the answer-synthesis facade exposed to the host server.
//
// LoadConfig publishes a new immutable ResourceTable generation with an
// atomic swap; a failed load leaves the previous generation serving.
// MapResource and Resolve run concurrently against whichever generation
// they observe and perform no shared writes.
type Plugin struct {
	logger *slog.Logger
	health HealthQuery
	table  atomic.Pointer[ResourceTable]
}

// New returns a Plugin with no configuration loaded.
func New(hq HealthQuery, logger *slog.Logger) *Plugin {
	if logger == nil {
		logger = slog.Default()
	}
	return &Plugin{logger: logger, health: hq}
}

// LoadConfig builds a ResourceTable from the resources stanza and
// swaps it in. On any validation error nothing is published and the
// prior table, if any, keeps serving.
func (p *Plugin) LoadConfig(cfg *vconf.Value) error {
	tbl, err := NewBuilder(p.health).Build(cfg)
	if err != nil {
		return err
	}
	p.table.Store(tbl)
	p.logger.Info("resource table loaded",
		"resources", tbl.Len(),
		"max_v4", tbl.MaxV4,
		"max_v6", tbl.MaxV6,
	)
	return nil
}

// Table returns the current table generation, or nil before the first
// successful LoadConfig.
func (p *Plugin) Table() *ResourceTable {
	return p.table.Load()
}

// MapResource maps a resource name to a stable handle, or NoResource
// for a missing or unknown name (logged, non-fatal). Repeat calls for
// the same name against the same generation return the same handle;
// hosts must re-map after a reload.
//
// The zone argument supports a call pattern that is being phased out:
// passing a non-empty zone still works but logs a deprecation warning.
func (p *Plugin) MapResource(name, zone string) int {
	if name == "" {
		p.logger.Error("resource name required")
		return NoResource
	}
	if zone != "" {
		p.logger.Warn("zone-scoped resource mapping is deprecated and will be removed in a future version",
			"resource", name,
			"zone", zone,
		)
	}
	tbl := p.table.Load()
	if tbl == nil {
		p.logger.Error("no resource table loaded", "resource", name)
		return NoResource
	}
	h, ok := tbl.Lookup(name)
	if !ok {
		p.logger.Error("unknown resource", "resource", name)
		return NoResource
	}
	return h
}

// Resolve synthesizes the answer for a handle previously returned by
// MapResource, writing addresses into sink (v4 before v6) and returning
// the resource-level aggregate signal. Handles are trusted: passing
// anything MapResource did not produce is a programming error.
func (p *Plugin) Resolve(handle int, _ *ClientInfo, sink Sink) health.StateTTL {
	tbl := p.table.Load()
	return ResolveResource(tbl.Resource(handle), p.health.Snapshot(), sink)
}

// PreRun, WorkerInit and WorkerCleanup are optional host hooks this
// plugin does not need. They exist so the host can treat all plugins
// uniformly.
func (p *Plugin) PreRun() {}

func (p *Plugin) WorkerInit(int) {}

func (p *Plugin) WorkerCleanup(int) {}

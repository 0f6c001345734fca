// Package handlers implements the management REST API endpoints.
//
// System:
//   - GET /api/v1/health - liveness check
//   - GET /api/v1/stats - runtime, process, and DNS query statistics
//
// Failover state:
//   - GET /api/v1/resources - the current resource table generation
//   - GET /api/v1/resources/:name - one resource resolved against
//     current health state (the same answer a DNS query would get)
//   - GET /api/v1/monitors - health monitors and their states
//   - PUT /api/v1/monitors/:index - set a monitor's state, for
//     operational overrides or an external prober feeding results in
//
// The API is read-mostly and intended for localhost or a trusted
// network; the optional API key is a shared secret, not an identity
// system.
package handlers

import (
	"log/slog"
	"net/http"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/chifu1234/gdnsd/internal/api/models"
	"github.com/chifu1234/gdnsd/internal/failover"
	"github.com/chifu1234/gdnsd/internal/health"
	"github.com/chifu1234/gdnsd/internal/server"
)

// StatsFunc returns current DNS query counters.
type StatsFunc func() server.StatsSnapshot

// Handler carries the dependencies of all endpoints.
type Handler struct {
	logger    *slog.Logger
	plugin    *failover.Plugin
	registry  *health.Registry
	dnsStats  StatsFunc
	startTime time.Time
}

// New creates a Handler.
func New(logger *slog.Logger, plugin *failover.Plugin, registry *health.Registry, dnsStats StatsFunc) *Handler {
	return &Handler{
		logger:    logger,
		plugin:    plugin,
		registry:  registry,
		dnsStats:  dnsStats,
		startTime: time.Now(),
	}
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, models.StatusResponse{Status: "ok"})
}

// Stats reports runtime statistics.
func (h *Handler) Stats(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	uptime := time.Since(h.startTime)

	resp := models.ServerStatsResponse{
		Uptime:        uptime.Round(time.Second).String(),
		UptimeSeconds: int64(uptime.Seconds()),
		StartTime:     h.startTime,
		GoRoutines:    runtime.NumGoroutine(),
		MemoryAllocMB: float64(m.Alloc) / 1024 / 1024,
		NumCPU:        runtime.NumCPU(),
	}
	if h.dnsStats != nil {
		s := h.dnsStats()
		resp.DNS = models.DNSStatsResponse{
			QueriesTotal: s.QueriesTotal,
			QueriesUDP:   s.QueriesUDP,
			QueriesTCP:   s.QueriesTCP,
			Answered:     s.Answered,
			NXDOMAIN:     s.NXDOMAIN,
			Refused:      s.Refused,
			Degraded:     s.Degraded,
		}
	}

	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if cpu, err := proc.CPUPercent(); err == nil {
			resp.ProcessCPUPercent = &cpu
		}
		if mem, err := proc.MemoryInfo(); err == nil {
			rss := float64(mem.RSS) / 1024 / 1024
			resp.ProcessRSSMB = &rss
		}
	}

	c.JSON(http.StatusOK, resp)
}

// ListResources returns the current resource table generation.
func (h *Handler) ListResources(c *gin.Context) {
	resp := models.ResourceListResponse{Resources: []models.ResourceSummary{}}
	tbl := h.plugin.Table()
	if tbl != nil {
		resp.MaxV4 = tbl.MaxV4
		resp.MaxV6 = tbl.MaxV6
		for _, res := range tbl.Resources() {
			resp.Resources = append(resp.Resources, models.ResourceSummary{
				Name: res.Name,
				V4:   summarize(res.V4),
				V6:   summarize(res.V6),
			})
		}
	}
	c.JSON(http.StatusOK, resp)
}

// GetResource resolves one resource against current health state.
func (h *Handler) GetResource(c *gin.Context) {
	name := c.Param("name")
	handle := h.plugin.MapResource(name, "")
	if handle == failover.NoResource {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "unknown resource " + name})
		return
	}

	var buf failover.AnswerBuffer
	st := h.plugin.Resolve(handle, nil, &buf)

	resp := models.ResolveResponse{
		Name:      name,
		Addresses: make([]string, 0, len(buf.Addrs)),
		TTL:       st.TTL,
		Down:      st.Down,
	}
	for _, a := range buf.Addrs {
		resp.Addresses = append(resp.Addresses, a.String())
	}
	c.JSON(http.StatusOK, resp)
}

// ListMonitors returns every monitor and its current state.
func (h *Handler) ListMonitors(c *gin.Context) {
	mons := h.registry.Monitors()
	table := h.registry.Snapshot()

	out := make([]models.MonitorResponse, 0, len(mons))
	for i, mon := range mons {
		st := table.Get(i)
		out = append(out, models.MonitorResponse{
			Index:   i,
			Service: mon.Service,
			Address: mon.Addr.String(),
			TTL:     st.TTL,
			Down:    st.Down,
		})
	}
	c.JSON(http.StatusOK, out)
}

// SetMonitor sets one monitor's state.
func (h *Handler) SetMonitor(c *gin.Context) {
	idx, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid monitor index"})
		return
	}

	var req models.SetMonitorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	st := h.registry.Snapshot().Get(idx)
	if req.TTL != nil {
		st.TTL = *req.TTL
	}
	if req.Down != nil {
		st.Down = *req.Down
	}
	if err := h.registry.SetState(idx, st); err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: err.Error()})
		return
	}

	if h.logger != nil {
		h.logger.Info("monitor state set", "index", idx, "ttl", st.TTL, "down", st.Down)
	}
	c.JSON(http.StatusOK, models.StatusResponse{Status: "ok"})
}

func summarize(set *failover.AddressSet) *models.AddressSetSummary {
	if set == nil {
		return nil
	}
	s := &models.AddressSetSummary{
		Addresses:    make([]string, 0, set.Count()),
		UpThresh:     set.UpThresh,
		ServiceCount: set.NumSvcs,
		IgnoreHealth: set.IgnoreHealth,
	}
	for _, e := range set.Entries {
		s.Addresses = append(s.Addresses, e.Addr.String())
	}
	return s
}

// Package models defines request and response types for the
// management REST API. All types are JSON-serializable.
package models

import "time"

// StatusResponse is a simple status acknowledgement.
type StatusResponse struct {
	Status string `json:"status"`
}

// ErrorResponse carries an error message.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ServerStatsResponse reports runtime and query statistics.
type ServerStatsResponse struct {
	Uptime        string    `json:"uptime"`
	UptimeSeconds int64     `json:"uptime_seconds"`
	StartTime     time.Time `json:"start_time"`
	GoRoutines    int       `json:"goroutines"`
	MemoryAllocMB float64   `json:"memory_alloc_mb"`
	NumCPU        int       `json:"num_cpu"`

	// Process-level figures, absent if the process probe failed.
	ProcessCPUPercent *float64 `json:"process_cpu_percent,omitempty"`
	ProcessRSSMB      *float64 `json:"process_rss_mb,omitempty"`

	DNS DNSStatsResponse `json:"dns"`
}

// DNSStatsResponse reports DNS query counters.
type DNSStatsResponse struct {
	QueriesTotal uint64 `json:"queries_total"`
	QueriesUDP   uint64 `json:"queries_udp"`
	QueriesTCP   uint64 `json:"queries_tcp"`
	Answered     uint64 `json:"answered"`
	NXDOMAIN     uint64 `json:"nxdomain"`
	Refused      uint64 `json:"refused"`
	Degraded     uint64 `json:"degraded"`
}

// AddressSetSummary describes one family set of a resource.
type AddressSetSummary struct {
	Addresses    []string `json:"addresses"`
	UpThresh     int      `json:"up_thresh"`
	ServiceCount int      `json:"service_count"`
	IgnoreHealth bool     `json:"ignore_health"`
}

// ResourceSummary describes one configured resource.
type ResourceSummary struct {
	Name string             `json:"name"`
	V4   *AddressSetSummary `json:"v4,omitempty"`
	V6   *AddressSetSummary `json:"v6,omitempty"`
}

// ResourceListResponse lists the current resource table generation.
type ResourceListResponse struct {
	Resources []ResourceSummary `json:"resources"`
	MaxV4     int               `json:"max_v4"`
	MaxV6     int               `json:"max_v6"`
}

// ResolveResponse is a resource resolved against current health state.
type ResolveResponse struct {
	Name      string   `json:"name"`
	Addresses []string `json:"addresses"`
	TTL       uint32   `json:"ttl"`
	Down      bool     `json:"down"`
}

// MonitorResponse describes one health monitor and its current state.
type MonitorResponse struct {
	Index   int    `json:"index"`
	Service string `json:"service"`
	Address string `json:"address"`
	TTL     uint32 `json:"ttl"`
	Down    bool   `json:"down"`
}

// SetMonitorRequest sets a monitor's state. Omitted fields keep their
// current value.
type SetMonitorRequest struct {
	TTL  *uint32 `json:"ttl"`
	Down *bool   `json:"down"`
}

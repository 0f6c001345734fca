package server

import "sync/atomic"

// QueryStats collects DNS query counters.
// All methods are safe for concurrent use and on a nil receiver.
type QueryStats struct {
	queriesTotal atomic.Uint64
	queriesUDP   atomic.Uint64
	queriesTCP   atomic.Uint64
	answered     atomic.Uint64
	nxdomain     atomic.Uint64
	refused      atomic.Uint64
	degraded     atomic.Uint64
}

// NewQueryStats creates a new counter set.
func NewQueryStats() *QueryStats {
	return &QueryStats{}
}

// RecordQuery records one query on the given transport (udp or tcp).
func (s *QueryStats) RecordQuery(transport string) {
	if s == nil {
		return
	}
	s.queriesTotal.Add(1)
	switch transport {
	case "udp":
		s.queriesUDP.Add(1)
	case "tcp":
		s.queriesTCP.Add(1)
	}
}

// RecordAnswered records a response carrying at least one answer.
func (s *QueryStats) RecordAnswered() {
	if s != nil {
		s.answered.Add(1)
	}
}

// RecordNXDOMAIN records a name-error response.
func (s *QueryStats) RecordNXDOMAIN() {
	if s != nil {
		s.nxdomain.Add(1)
	}
}

// RecordRefused records a refused out-of-zone query.
func (s *QueryStats) RecordRefused() {
	if s != nil {
		s.refused.Add(1)
	}
}

// RecordDegraded records a resolution whose aggregate signal was down
// (a fail-open or below-quorum answer was served).
func (s *QueryStats) RecordDegraded() {
	if s != nil {
		s.degraded.Add(1)
	}
}

// StatsSnapshot is a point-in-time copy of the counters.
type StatsSnapshot struct {
	QueriesTotal uint64 `json:"queries_total"`
	QueriesUDP   uint64 `json:"queries_udp"`
	QueriesTCP   uint64 `json:"queries_tcp"`
	Answered     uint64 `json:"answered"`
	NXDOMAIN     uint64 `json:"nxdomain"`
	Refused      uint64 `json:"refused"`
	Degraded     uint64 `json:"degraded"`
}

// Snapshot returns the current counters.
func (s *QueryStats) Snapshot() StatsSnapshot {
	if s == nil {
		return StatsSnapshot{}
	}
	return StatsSnapshot{
		QueriesTotal: s.queriesTotal.Load(),
		QueriesUDP:   s.queriesUDP.Load(),
		QueriesTCP:   s.queriesTCP.Load(),
		Answered:     s.answered.Load(),
		NXDOMAIN:     s.nxdomain.Load(),
		Refused:      s.refused.Load(),
		Degraded:     s.degraded.Load(),
	}
}

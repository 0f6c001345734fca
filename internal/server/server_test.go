package server

import (
	"log/slog"
	"net"
	"net/netip"
	"testing"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chifu1234/gdnsd/internal/failover"
	"github.com/chifu1234/gdnsd/internal/health"
	"github.com/chifu1234/gdnsd/internal/vconf"
)

// fakeWriter captures the handler's response.
type fakeWriter struct {
	msg    *dns.Msg
	remote net.Addr
}

func (f *fakeWriter) LocalAddr() net.Addr { return &net.UDPAddr{IP: net.IPv4zero, Port: 53} }
func (f *fakeWriter) RemoteAddr() net.Addr {
	if f.remote != nil {
		return f.remote
	}
	return &net.UDPAddr{IP: net.ParseIP("203.0.113.5"), Port: 4242}
}
func (f *fakeWriter) WriteMsg(m *dns.Msg) error { f.msg = m; return nil }
func (f *fakeWriter) Write([]byte) (int, error) { return 0, nil }
func (f *fakeWriter) Close() error              { return nil }
func (f *fakeWriter) TsigStatus() error         { return nil }
func (f *fakeWriter) TsigTimersOnly(bool)       {}
func (f *fakeWriter) Hijack()                   {}

func mustAddr(s string) netip.Addr { return netip.MustParseAddr(s) }

func newTestServer(t *testing.T, src string) (*Server, *health.Registry) {
	t.Helper()
	reg := health.NewRegistry()
	plugin := failover.New(reg, slog.Default())
	cfg, err := vconf.Parse([]byte(src))
	require.NoError(t, err)
	require.NoError(t, plugin.LoadConfig(cfg))

	return &Server{
		Plugin: plugin,
		Zone:   "pool.example.com.",
		MaxTTL: 300,
		Stats:  NewQueryStats(),
	}, reg
}

func query(t *testing.T, s *Server, name string, qtype uint16) *dns.Msg {
	t.Helper()
	req := new(dns.Msg)
	req.SetQuestion(name, qtype)
	w := &fakeWriter{}
	s.ServeDNS(w, req)
	require.NotNil(t, w.msg)
	return w.msg
}

func answerAddrs(m *dns.Msg) []string {
	var out []string
	for _, rr := range m.Answer {
		switch a := rr.(type) {
		case *dns.A:
			out = append(out, a.A.String())
		case *dns.AAAA:
			out = append(out, a.AAAA.String())
		}
	}
	return out
}

const testResources = `
web:
  addrs_v4: [192.0.2.1, 192.0.2.2]
  addrs_v6: [2001:db8::1]
mail: [192.0.2.10]
`

func TestAQuery(t *testing.T) {
	s, _ := newTestServer(t, testResources)
	m := query(t, s, "web.pool.example.com.", dns.TypeA)

	assert.Equal(t, dns.RcodeSuccess, m.Rcode)
	assert.True(t, m.Authoritative)
	assert.Equal(t, []string{"192.0.2.1", "192.0.2.2"}, answerAddrs(m))
	for _, rr := range m.Answer {
		assert.Equal(t, uint32(300), rr.Header().Ttl, "ttl clamped to max_ttl")
	}
}

func TestAAAAQuery(t *testing.T) {
	s, _ := newTestServer(t, testResources)
	m := query(t, s, "web.pool.example.com.", dns.TypeAAAA)
	assert.Equal(t, []string{"2001:db8::1"}, answerAddrs(m))
}

func TestANYQueryAnswersBothFamiliesV4First(t *testing.T) {
	s, _ := newTestServer(t, testResources)
	m := query(t, s, "web.pool.example.com.", dns.TypeANY)
	assert.Equal(t, []string{"192.0.2.1", "192.0.2.2", "2001:db8::1"}, answerAddrs(m))
}

func TestQueryNameIsCaseInsensitive(t *testing.T) {
	s, _ := newTestServer(t, testResources)
	m := query(t, s, "WEB.Pool.Example.COM.", dns.TypeA)
	assert.Len(t, m.Answer, 2)
}

func TestUnknownResourceNXDOMAIN(t *testing.T) {
	s, _ := newTestServer(t, testResources)
	m := query(t, s, "nosuch.pool.example.com.", dns.TypeA)
	assert.Equal(t, dns.RcodeNameError, m.Rcode)
	assert.True(t, m.Authoritative)
	assert.Equal(t, uint64(1), s.Stats.Snapshot().NXDOMAIN)
}

func TestApexNXDOMAIN(t *testing.T) {
	s, _ := newTestServer(t, testResources)
	m := query(t, s, "pool.example.com.", dns.TypeA)
	assert.Equal(t, dns.RcodeNameError, m.Rcode)
}

func TestOutOfZoneRefused(t *testing.T) {
	s, _ := newTestServer(t, testResources)
	m := query(t, s, "www.elsewhere.net.", dns.TypeA)
	assert.Equal(t, dns.RcodeRefused, m.Rcode)
	assert.Equal(t, uint64(1), s.Stats.Snapshot().Refused)
}

func TestOtherQtypeNoAnswers(t *testing.T) {
	s, _ := newTestServer(t, testResources)
	m := query(t, s, "web.pool.example.com.", dns.TypeMX)
	assert.Equal(t, dns.RcodeSuccess, m.Rcode)
	assert.Empty(t, m.Answer)
}

func TestUnhealthyAddressOmitted(t *testing.T) {
	s, reg := newTestServer(t, testResources)
	idx := reg.Register("up", mustAddr("192.0.2.2"))
	require.NoError(t, reg.SetState(idx, health.StateTTL{TTL: 30, Down: true}))

	m := query(t, s, "web.pool.example.com.", dns.TypeA)
	assert.Equal(t, []string{"192.0.2.1"}, answerAddrs(m))
	// The entry's reduced ttl propagates through the aggregate.
	assert.Equal(t, uint32(30), m.Answer[0].Header().Ttl)
}

func TestFailOpenServesFullPool(t *testing.T) {
	s, reg := newTestServer(t, testResources)
	for _, a := range []string{"192.0.2.1", "192.0.2.2"} {
		idx := reg.Register("up", mustAddr(a))
		require.NoError(t, reg.SetState(idx, health.StateTTL{TTL: 15, Down: true}))
	}

	m := query(t, s, "web.pool.example.com.", dns.TypeA)
	assert.Equal(t, []string{"192.0.2.1", "192.0.2.2"}, answerAddrs(m))
	assert.Equal(t, uint64(1), s.Stats.Snapshot().Degraded)
}

func TestStatsCounters(t *testing.T) {
	s, _ := newTestServer(t, testResources)
	query(t, s, "web.pool.example.com.", dns.TypeA)
	query(t, s, "nosuch.pool.example.com.", dns.TypeA)
	query(t, s, "out.of.zone.net.", dns.TypeA)

	snap := s.Stats.Snapshot()
	assert.Equal(t, uint64(3), snap.QueriesTotal)
	assert.Equal(t, uint64(3), snap.QueriesUDP)
	assert.Equal(t, uint64(1), snap.Answered)
	assert.Equal(t, uint64(1), snap.NXDOMAIN)
	assert.Equal(t, uint64(1), snap.Refused)
}

func TestResourceName(t *testing.T) {
	tests := []struct {
		qname string
		want  string
	}{
		{"web.pool.example.com.", "web"},
		{"pool.example.com.", ""},
		{"a.b.pool.example.com.", "a.b"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, resourceName(tt.qname, "pool.example.com."), tt.qname)
	}
}

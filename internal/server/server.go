// Package server implements the authoritative DNS front end.
//
// It answers A/AAAA queries for names under one configured zone by
// mapping the leftmost part of the query name to a failover resource
// and synthesizing the answer set from current health state. All
// failover semantics live in the failover package; this package only
// speaks the protocol.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/netip"
	"strings"
	"sync"
	"time"

	"github.com/miekg/dns"

	"github.com/chifu1234/gdnsd/internal/failover"
	"github.com/chifu1234/gdnsd/internal/pool"
)

// Server serves DNS over UDP and optionally TCP.
type Server struct {
	Logger *slog.Logger
	Plugin *failover.Plugin
	Zone   string // lowercase FQDN with trailing dot
	MaxTTL uint32
	Stats  *QueryStats

	udp *dns.Server
	tcp *dns.Server

	buffers *pool.Pool[*failover.AnswerBuffer]
	bufOnce sync.Once
}

func (s *Server) answerBuffers() *pool.Pool[*failover.AnswerBuffer] {
	s.bufOnce.Do(func() {
		s.buffers = pool.New(func() *failover.AnswerBuffer {
			n := 8
			if tbl := s.Plugin.Table(); tbl != nil {
				n = tbl.MaxV4 + tbl.MaxV6
			}
			return &failover.AnswerBuffer{Addrs: make([]netip.Addr, 0, n)}
		})
	})
	return s.buffers
}

// Run starts the listeners and blocks until ctx is cancelled or a
// listener fails.
func (s *Server) Run(ctx context.Context, addr string, enableTCP bool) error {
	pc, err := listenUDPReusePort(ctx, addr)
	if err != nil {
		return err
	}
	s.udp = &dns.Server{PacketConn: pc, Handler: s}

	errCh := make(chan error, 2)
	go func() { errCh <- s.udp.ActivateAndServe() }()

	if enableTCP {
		ln, err := listenTCPReusePort(ctx, addr)
		if err != nil {
			_ = pc.Close()
			return err
		}
		s.tcp = &dns.Server{Listener: ln, Handler: s}
		go func() { errCh <- s.tcp.ActivateAndServe() }()
	}

	if s.Logger != nil {
		s.Logger.Info("dns server listening", "addr", addr, "zone", s.Zone, "tcp", enableTCP)
	}

	select {
	case <-ctx.Done():
		return s.Stop(5 * time.Second)
	case err := <-errCh:
		_ = s.Stop(time.Second)
		return err
	}
}

// Stop shuts both listeners down, waiting up to timeout.
func (s *Server) Stop(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var errs []error
	if s.udp != nil {
		errs = append(errs, s.udp.ShutdownContext(ctx))
	}
	if s.tcp != nil {
		errs = append(errs, s.tcp.ShutdownContext(ctx))
	}
	return errors.Join(errs...)
}

// ServeDNS implements dns.Handler.
func (s *Server) ServeDNS(w dns.ResponseWriter, req *dns.Msg) {
	transport := "udp"
	if w.RemoteAddr() != nil {
		transport = w.RemoteAddr().Network()
	}
	s.Stats.RecordQuery(transport)

	m := new(dns.Msg)
	if len(req.Question) != 1 {
		m.SetRcode(req, dns.RcodeFormatError)
		_ = w.WriteMsg(m)
		return
	}
	q := req.Question[0]
	qname := strings.ToLower(q.Name)

	if !dns.IsSubDomain(s.Zone, qname) {
		s.Stats.RecordRefused()
		m.SetRcode(req, dns.RcodeRefused)
		_ = w.WriteMsg(m)
		return
	}

	name := resourceName(qname, s.Zone)
	handle := failover.NoResource
	if name != "" {
		handle = s.Plugin.MapResource(name, "")
	}
	if handle == failover.NoResource {
		s.Stats.RecordNXDOMAIN()
		m.SetRcode(req, dns.RcodeNameError)
		m.Authoritative = true
		_ = w.WriteMsg(m)
		return
	}

	buf := s.answerBuffers().Get()
	defer func() {
		buf.Reset()
		s.answerBuffers().Put(buf)
	}()
	ci := &failover.ClientInfo{Source: clientAddr(w.RemoteAddr())}
	st := s.Plugin.Resolve(handle, ci, buf)
	if st.Down {
		s.Stats.RecordDegraded()
	}

	ttl := st.TTL
	if ttl > s.MaxTTL {
		ttl = s.MaxTTL
	}

	m.SetReply(req)
	m.Authoritative = true
	hdr := dns.RR_Header{Name: q.Name, Class: dns.ClassINET, Ttl: ttl}

	wantA := q.Qtype == dns.TypeA || q.Qtype == dns.TypeANY
	wantAAAA := q.Qtype == dns.TypeAAAA || q.Qtype == dns.TypeANY
	for _, a := range buf.Addrs {
		switch {
		case a.Is4() && wantA:
			h := hdr
			h.Rrtype = dns.TypeA
			m.Answer = append(m.Answer, &dns.A{Hdr: h, A: net.IP(a.AsSlice())})
		case !a.Is4() && wantAAAA:
			h := hdr
			h.Rrtype = dns.TypeAAAA
			m.Answer = append(m.Answer, &dns.AAAA{Hdr: h, AAAA: net.IP(a.AsSlice())})
		}
	}
	if len(m.Answer) > 0 {
		s.Stats.RecordAnswered()
	}

	if s.Logger != nil {
		s.Logger.Debug("query resolved",
			"qname", qname,
			"qtype", dns.TypeToString[q.Qtype],
			"transport", transport,
			"answers", len(m.Answer),
			"down", st.Down,
			"ttl", ttl,
		)
	}
	_ = w.WriteMsg(m)
}

// resourceName strips the zone suffix off a query name. The apex
// itself names no resource.
func resourceName(qname, zone string) string {
	if qname == zone {
		return ""
	}
	return strings.TrimSuffix(strings.TrimSuffix(qname, zone), ".")
}

func clientAddr(addr net.Addr) netip.Addr {
	if addr == nil {
		return netip.Addr{}
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return netip.Addr{}
	}
	a, err := netip.ParseAddr(host)
	if err != nil {
		return netip.Addr{}
	}
	return a.Unmap()
}

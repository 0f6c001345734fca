// bench fires a fixed number of identical queries at a server over raw
// UDP sockets and reports throughput and latency percentiles. Useful
// for sizing a pool host before putting it behind real traffic.
package main

import (
	"flag"
	"fmt"
	"net"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/miekg/dns"
)

func main() {
	var (
		server      = flag.String("server", "127.0.0.1:53", "DNS server HOST:PORT")
		name        = flag.String("name", "www.example.com", "Query name")
		qtype       = flag.String("type", "A", "Query type (A, AAAA, ANY)")
		concurrency = flag.Int("concurrency", 200, "Number of concurrent workers")
		requests    = flag.Int("requests", 20000, "Total number of requests")
		timeout     = flag.Duration("timeout", 2*time.Second, "Per-request timeout")
		recvSize    = flag.Int("recv-size", 2048, "UDP receive buffer size")
	)
	flag.Parse()

	addr, err := net.ResolveUDPAddr("udp", *server)
	if err != nil {
		panic(err)
	}

	qt, ok := dns.StringToType[strings.ToUpper(*qtype)]
	if !ok {
		panic(fmt.Sprintf("unknown query type %q", *qtype))
	}
	req := new(dns.Msg)
	req.SetQuestion(dns.Fqdn(*name), qt)
	reqBytes, err := req.Pack()
	if err != nil {
		panic(err)
	}

	conc := *concurrency
	if conc < 1 {
		conc = 1
	}
	total := *requests
	if total < 1 {
		total = 1
	}
	per := total / conc
	rem := total % conc

	lat := make([]float64, 0, total)
	var latMu sync.Mutex

	t0 := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < conc; i++ {
		n := per
		if i < rem {
			n++
		}
		if n <= 0 {
			continue
		}
		wg.Add(1)
		go func(num int) {
			defer wg.Done()
			c, err := net.DialUDP("udp", nil, addr)
			if err != nil {
				return
			}
			defer c.Close()
			buf := make([]byte, *recvSize)
			resp := new(dns.Msg)
			for j := 0; j < num; j++ {
				start := time.Now()
				_ = c.SetDeadline(time.Now().Add(*timeout))
				if _, err := c.Write(reqBytes); err != nil {
					continue
				}
				nn, err := c.Read(buf)
				if err != nil {
					continue
				}
				if err := resp.Unpack(buf[:nn]); err != nil {
					continue
				}
				ms := float64(time.Since(start).Microseconds()) / 1000.0
				latMu.Lock()
				lat = append(lat, ms)
				latMu.Unlock()
			}
		}(n)
	}
	wg.Wait()
	elapsed := time.Since(t0).Seconds()

	if len(lat) == 0 {
		fmt.Printf("no successful requests\n")
		return
	}
	sort.Float64s(lat)
	p50 := percentile(lat, 50)
	p95 := percentile(lat, 95)
	p99 := percentile(lat, 99)
	qps := float64(len(lat)) / elapsed

	fmt.Printf("server=%s name=%q type=%s concurrency=%d requests=%d\n", *server, *name, strings.ToUpper(*qtype), conc, len(lat))
	fmt.Printf("elapsed_s=%.3f qps=%.1f\n", elapsed, qps)
	fmt.Printf("latency_ms p50=%.3f p95=%.3f p99=%.3f min=%.3f max=%.3f\n", p50, p95, p99, lat[0], lat[len(lat)-1])
}

func percentile(sorted []float64, p int) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}
	idx := int(float64(len(sorted))*float64(p)/100.0) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

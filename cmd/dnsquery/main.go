// dnsquery is a small diagnostic client for poking a running daemon:
// send one query, print the answers.
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/miekg/dns"
)

func main() {
	var (
		server  = flag.String("server", "127.0.0.1:53", "DNS server HOST:PORT")
		name    = flag.String("name", "", "Query name")
		qtype   = flag.String("type", "A", "Query type (A, AAAA, ANY)")
		timeout = flag.Duration("timeout", 2*time.Second, "Timeout")
		useTCP  = flag.Bool("tcp", false, "Query over TCP")
		quiet   = flag.Bool("quiet", false, "Suppress output (exit status indicates success)")
	)
	flag.Parse()

	if *name == "" {
		fmt.Fprintln(os.Stderr, "dnsquery: -name is required")
		os.Exit(2)
	}
	qt, ok := dns.StringToType[strings.ToUpper(*qtype)]
	if !ok {
		fmt.Fprintf(os.Stderr, "dnsquery: unknown query type %q\n", *qtype)
		os.Exit(2)
	}

	req := new(dns.Msg)
	req.SetQuestion(dns.Fqdn(*name), qt)

	client := &dns.Client{Timeout: *timeout}
	if *useTCP {
		client.Net = "tcp"
	}
	resp, rtt, err := client.Exchange(req, *server)
	if err != nil {
		if !*quiet {
			fmt.Fprintf(os.Stderr, "dnsquery error: %v\n", err)
		}
		os.Exit(1)
	}
	if *quiet {
		if resp.Rcode != dns.RcodeSuccess {
			os.Exit(1)
		}
		return
	}

	fmt.Printf("id=%d rcode=%s aa=%v answers=%d rtt=%s\n",
		resp.Id,
		dns.RcodeToString[resp.Rcode],
		resp.Authoritative,
		len(resp.Answer),
		rtt.Round(time.Microsecond),
	)

	rows := make([]string, 0, len(resp.Answer))
	for _, rr := range resp.Answer {
		rows = append(rows, rr.String())
	}
	sort.Strings(rows)
	for _, s := range rows {
		fmt.Println(s)
	}
}

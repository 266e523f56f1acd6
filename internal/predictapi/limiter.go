package predictapi

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const defaultLimiterIdle = 10 * time.Minute

// ParseTrustedProxies turns IPs and CIDRs into prefixes. Forwarding headers
// are honored only on connections from these addresses.
func ParseTrustedProxies(values []string) ([]netip.Prefix, error) {
	out := make([]netip.Prefix, 0, len(values))

	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}

		if strings.Contains(v, "/") {
			p, err := netip.ParsePrefix(v)
			if err != nil {
				return nil, fmt.Errorf("trusted proxy %q: %w", v, err)
			}

			out = append(out, p.Masked())

			continue
		}

		addr, err := netip.ParseAddr(v)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", v, err)
		}

		addr = addr.Unmap()
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}

	return out, nil
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiterSet keeps one token bucket per client and drops buckets that have
// been idle longer than idle.
type limiterSet struct {
	rps   rate.Limit
	burst int
	idle  time.Duration
	now   func() time.Time

	mu        sync.Mutex
	clients   map[string]*clientLimiter
	lastSweep time.Time
}

func newLimiterSet(rps float64, burst int, idle time.Duration) *limiterSet {
	if idle <= 0 {
		idle = defaultLimiterIdle
	}

	return &limiterSet{
		rps:     rate.Limit(rps),
		burst:   burst,
		idle:    idle,
		now:     time.Now,
		clients: make(map[string]*clientLimiter),
	}
}

func (s *limiterSet) allow(client string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	if now.Sub(s.lastSweep) >= s.idle {
		for key, c := range s.clients {
			if now.Sub(c.lastSeen) >= s.idle {
				delete(s.clients, key)
			}
		}

		s.lastSweep = now
	}

	c, ok := s.clients[client]
	if !ok {
		c = &clientLimiter{limiter: rate.NewLimiter(s.rps, s.burst)}
		s.clients[client] = c
	}

	c.lastSeen = now

	return c.limiter.AllowN(now, 1)
}

func (s *limiterSet) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.clients)
}

// clientIP returns the peer address without its port. When the peer is a
// trusted proxy, the nearest untrusted hop of X-Forwarded-For (or X-Real-IP)
// is used instead.
func clientIP(r *http.Request, trusted []netip.Prefix) string {
	peer := remoteHost(r.RemoteAddr)

	peerAddr, err := netip.ParseAddr(peer)
	if err != nil || !isTrusted(peerAddr, trusted) {
		return peer
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")

		for i := len(hops) - 1; i >= 0; i-- {
			hop, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
			if err != nil {
				break
			}

			if !isTrusted(hop, trusted) {
				return hop.Unmap().String()
			}
		}
	}

	if xri, err := netip.ParseAddr(strings.TrimSpace(r.Header.Get("X-Real-IP"))); err == nil {
		return xri.Unmap().String()
	}

	return peer
}

func remoteHost(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}

	return host
}

func isTrusted(addr netip.Addr, trusted []netip.Prefix) bool {
	addr = addr.Unmap()

	for _, p := range trusted {
		if p.Contains(addr) {
			return true
		}
	}

	return false
}

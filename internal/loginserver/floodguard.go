package loginserver

import (
	"net"
	"sync"
	"time"

	"github.com/kestrelnet/shroomd/internal/config"
)

// FloodGuard enforces the login listener's connection-rate and
// concurrent-connection limits per remote IP, driven by the
// flood-protection knobs in config.LoginServer.
type FloodGuard struct {
	enabled       bool
	fastLimit     int
	normalWaitMs  int
	fastWindowMs  int
	maxPerIP      int

	mu    sync.Mutex
	state map[string]*ipState
}

type ipState struct {
	active   int
	recent   []time.Time
	blockedUntil time.Time
}

// NewFloodGuard builds a guard from cfg. If cfg.FloodProtection is false,
// Allow always succeeds and Release is a no-op.
func NewFloodGuard(cfg config.LoginServer) *FloodGuard {
	return &FloodGuard{
		enabled:      cfg.FloodProtection,
		fastLimit:    cfg.FastConnectionLimit,
		normalWaitMs: cfg.NormalConnectionTime,
		fastWindowMs: cfg.FastConnectionTime,
		maxPerIP:     cfg.MaxConnectionPerIP,
		state:        make(map[string]*ipState),
	}
}

// Allow reports whether a new connection from remoteAddr may proceed. On
// success the caller must eventually call Release with the same address.
func (g *FloodGuard) Allow(remoteAddr string) bool {
	if !g.enabled {
		return true
	}
	ip := hostOf(remoteAddr)

	g.mu.Lock()
	defer g.mu.Unlock()

	st, ok := g.state[ip]
	if !ok {
		st = &ipState{}
		g.state[ip] = st
	}

	now := time.Now()
	if now.Before(st.blockedUntil) {
		return false
	}
	if g.maxPerIP > 0 && st.active >= g.maxPerIP {
		return false
	}

	st.recent = pruneOlderThan(st.recent, now, g.fastWindowMs)
	st.recent = append(st.recent, now)
	if g.fastLimit > 0 && len(st.recent) > g.fastLimit {
		st.blockedUntil = now.Add(time.Duration(g.normalWaitMs) * time.Millisecond)
		return false
	}

	st.active++
	return true
}

// Release returns one connection slot for remoteAddr's IP.
func (g *FloodGuard) Release(remoteAddr string) {
	if !g.enabled {
		return
	}
	ip := hostOf(remoteAddr)

	g.mu.Lock()
	defer g.mu.Unlock()
	if st, ok := g.state[ip]; ok && st.active > 0 {
		st.active--
	}
}

func pruneOlderThan(recent []time.Time, now time.Time, windowMs int) []time.Time {
	cutoff := now.Add(-time.Duration(windowMs) * time.Millisecond)
	kept := recent[:0]
	for _, t := range recent {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	return kept
}

func hostOf(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}

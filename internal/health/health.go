// Package health periodically probes a game server over TCP and keeps the
// last result for presence updates and the status command.
package health

import (
	"context"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	DefaultPort     = 25565
	DefaultInterval = 60 * time.Second
	DefaultTimeout  = 3 * time.Second
)

// State is the outcome of the latest probe.
type State struct {
	IP        string
	Online    bool
	CheckedAt time.Time
}

// Known reports whether the server address has been resolved.
func (s State) Known() bool { return s.IP != "" }

// Dialer opens the probe connection.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Monitor owns the health state. Only Check mutates it.
type Monitor struct {
	lookup   IPLookup
	dialer   Dialer
	port     int
	interval time.Duration
	timeout  time.Duration
	onChange func(State)
	log      zerolog.Logger

	mu    sync.RWMutex
	state State
}

type Option func(*Monitor)

func WithPort(port int) Option { return func(m *Monitor) { m.port = port } }

func WithInterval(d time.Duration) Option { return func(m *Monitor) { m.interval = d } }

func WithTimeout(d time.Duration) Option { return func(m *Monitor) { m.timeout = d } }

func WithDialer(d Dialer) Option { return func(m *Monitor) { m.dialer = d } }

// WithOnChange sets a hook called after the first probe and whenever the
// online flag or the address changes. It runs on the probing goroutine.
func WithOnChange(fn func(State)) Option { return func(m *Monitor) { m.onChange = fn } }

func New(lookup IPLookup, opts ...Option) *Monitor {
	m := &Monitor{
		lookup:   lookup,
		dialer:   &net.Dialer{},
		port:     DefaultPort,
		interval: DefaultInterval,
		timeout:  DefaultTimeout,
		log:      log.With().Str("component", "health").Logger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Snapshot returns the latest state.
func (m *Monitor) Snapshot() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Address returns ip:port, or "" while the address is unknown.
func (m *Monitor) Address() string {
	s := m.Snapshot()
	if !s.Known() {
		return ""
	}
	return net.JoinHostPort(s.IP, strconv.Itoa(m.port))
}

// Run probes immediately and then every interval until ctx ends.
func (m *Monitor) Run(ctx context.Context) error {
	m.log.Info().Dur("interval", m.interval).Int("port", m.port).Msg("Health monitor started")
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		m.Check(ctx)
		select {
		case <-ctx.Done():
			m.log.Info().Msg("Health monitor stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// Check runs one probe and records the result. The address is looked up
// until the first success and then kept for the life of the monitor.
func (m *Monitor) Check(ctx context.Context) State {
	ip := m.Snapshot().IP
	if ip == "" {
		ip = m.resolve(ctx)
	}

	online := false
	if ip != "" {
		online = m.probe(ctx, ip)
	}

	m.mu.Lock()
	prev := m.state
	if prev.IP != "" {
		// a concurrent Check may have cached it first
		ip = prev.IP
	}
	m.state = State{IP: ip, Online: online, CheckedAt: time.Now()}
	cur := m.state
	m.mu.Unlock()

	changed := prev.CheckedAt.IsZero() || prev.Online != cur.Online || prev.IP != cur.IP
	if changed {
		m.log.Info().Str("ip", cur.IP).Bool("online", cur.Online).Msg("Server status changed")
		if m.onChange != nil {
			m.onChange(cur)
		}
	}
	return cur
}

func (m *Monitor) resolve(ctx context.Context) string {
	if m.lookup == nil {
		return ""
	}
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	ip, err := m.lookup.LookupIP(ctx)
	if err != nil {
		m.log.Warn().Err(err).Msg("IP lookup failed, retrying on next check")
		return ""
	}
	m.log.Info().Str("ip", ip).Msg("Server address resolved")
	return ip
}

func (m *Monitor) probe(ctx context.Context, ip string) bool {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	addr := net.JoinHostPort(ip, strconv.Itoa(m.port))
	conn, err := m.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		m.log.Debug().Err(err).Str("addr", addr).Msg("Probe failed")
		return false
	}
	_ = conn.Close()
	return true
}

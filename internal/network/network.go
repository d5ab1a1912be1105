// Package network reports whether the remote recognition service is reachable.
package network

import (
	"context"
	"log/slog"
	"net"
	"sync/atomic"
	"time"
)

// DefaultProbeTimeout bounds a single reachability probe.
const DefaultProbeTimeout = 2 * time.Second

// DialProbe considers the network connected when a TCP connection to
// Address can be opened within Timeout.
type DialProbe struct {
	dial    func(ctx context.Context, network, address string) (net.Conn, error)
	logger  *slog.Logger
	Address string
	Timeout time.Duration
}

// NewDialProbe creates a probe for a host:port address.
func NewDialProbe(address string, timeout time.Duration, logger *slog.Logger) *DialProbe {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	dialer := &net.Dialer{}
	return &DialProbe{
		Address: address,
		Timeout: timeout,
		dial:    dialer.DialContext,
		logger:  logger,
	}
}

// IsConnected implements service.Reachability.
func (p *DialProbe) IsConnected(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	conn, err := p.dial(ctx, "tcp", p.Address)
	if err != nil {
		p.logger.Debug("Reachability probe failed", "address", p.Address, "error", err)
		return false
	}
	_ = conn.Close()
	return true
}

// Static is a reachability signal set by the caller, e.g. from a platform
// connectivity callback. The zero value reports disconnected.
type Static struct {
	connected atomic.Bool
}

// NewStatic creates a signal with the given initial state.
func NewStatic(connected bool) *Static {
	s := &Static{}
	s.connected.Store(connected)
	return s
}

// Set updates the state.
func (s *Static) Set(connected bool) {
	s.connected.Store(connected)
}

// IsConnected implements service.Reachability.
func (s *Static) IsConnected(context.Context) bool {
	return s.connected.Load()
}

// Package ports allocates host ports for dynamic bindings.
package ports

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/rickgorman/testbed/pkg/logger"
)

// DefaultMaxAttempts bounds the probe loop of a single allocation.
const DefaultMaxAttempts = 1000

const maxPort = 65535

// ErrExhausted is wrapped by every AllocationError.
var ErrExhausted = errors.New("no free port")

// AllocationError reports a dynamic binding that found no free port.
type AllocationError struct {
	Network  string
	Base     uint16
	First    int
	Last     int
	Attempts int
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("no free %s port for base %d: probed %d..%d (%d attempts)",
		e.Network, e.Base, e.First, e.Last, e.Attempts)
}

func (e *AllocationError) Unwrap() error {
	return ErrExhausted
}

// Counter is the scenario-scoped offset shared by every allocation made
// for containers of one scenario. It only moves forward.
type Counter struct {
	n atomic.Uint32
}

// Next returns the current value and advances the counter by one.
func (c *Counter) Next() uint32 {
	return c.n.Add(1) - 1
}

// Value returns the current value without advancing.
func (c *Counter) Value() uint32 {
	return c.n.Load()
}

// Allocator resolves "next free port from base" requests.
type Allocator struct {
	probe       Prober
	maxAttempts int
	logger      *log.Logger

	mu      sync.Mutex
	claimed map[string]struct{}
}

// Option configures an Allocator.
type Option func(*Allocator)

// WithProber replaces the OS bind-test probe.
func WithProber(p Prober) Option {
	return func(a *Allocator) { a.probe = p }
}

// WithMaxAttempts caps the probe loop. Values below 1 are ignored.
func WithMaxAttempts(n int) Option {
	return func(a *Allocator) {
		if n > 0 {
			a.maxAttempts = n
		}
	}
}

// WithLogger sets the diagnostics logger.
func WithLogger(l *log.Logger) Option {
	return func(a *Allocator) { a.logger = l }
}

// NewAllocator creates an allocator probing the local socket table.
func NewAllocator(opts ...Option) *Allocator {
	a := &Allocator{
		probe:       ListenProbe,
		maxAttempts: DefaultMaxAttempts,
		claimed:     make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = logger.OrDefault(a.logger)
	return a
}

// Allocate finds a free host port starting at base plus the counter's
// current value. Every busy candidate advances both the candidate and the
// counter, so later allocations in the same scenario start further ahead.
//
// A returned port was free when probed; the runtime may still fail to
// bind it if another process takes it first.
func (a *Allocator) Allocate(network string, base uint16, counter *Counter) (uint16, error) {
	if network != "udp" {
		network = "tcp"
	}

	first := int(base) + int(counter.Next())
	candidate := first

	for attempt := 1; attempt <= a.maxAttempts; attempt++ {
		if candidate > maxPort {
			return 0, a.exhausted(network, base, first, candidate-1, attempt-1)
		}

		if a.claim(network, candidate) {
			a.logger.Debug("allocated port", "network", network, "base", base, "port", candidate, "attempts", attempt)
			return uint16(candidate), nil
		}

		candidate++
		counter.Next()
	}

	return 0, a.exhausted(network, base, first, candidate-1, a.maxAttempts)
}

// Release returns a port to the pool of candidates.
func (a *Allocator) Release(network string, port uint16) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.claimed, claimKey(network, int(port)))
}

// claim probes a candidate and records it as handed out when free.
// A port already handed out by this allocator is never returned twice.
func (a *Allocator) claim(network string, port int) bool {
	key := claimKey(network, port)

	a.mu.Lock()
	if _, taken := a.claimed[key]; taken {
		a.mu.Unlock()
		return false
	}
	a.claimed[key] = struct{}{}
	a.mu.Unlock()

	if a.probe.Available(network, port) {
		return true
	}

	a.Release(network, uint16(port))
	return false
}

func (a *Allocator) exhausted(network string, base uint16, first, last, attempts int) error {
	err := &AllocationError{
		Network:  network,
		Base:     base,
		First:    first,
		Last:     last,
		Attempts: attempts,
	}

	fields := []interface{}{"network", network, "base", base, "first", first, "attempts", attempts}
	if network == "tcp" && first <= maxPort {
		if name, pid := PortOwner(first); name != "" || pid != "" {
			fields = append(fields, "owner", name, "pid", pid)
		}
	}
	a.logger.Warn("port allocation exhausted", fields...)

	return err
}

func claimKey(network string, port int) string {
	return fmt.Sprintf("%s/%d", network, port)
}

// Package scenario groups the containers of one test fixture.
package scenario

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/rickgorman/testbed/internal/binding"
	"github.com/rickgorman/testbed/internal/container"
	"github.com/rickgorman/testbed/internal/logstream"
	"github.com/rickgorman/testbed/internal/ports"
	"github.com/rickgorman/testbed/pkg/hash"
	"github.com/rickgorman/testbed/pkg/logger"
)

// Container labels written on everything a scenario creates.
const (
	LabelScenario    = "testbed.scenario"
	LabelRun         = "testbed.run"
	LabelContainer   = "testbed.container"
	LabelFingerprint = "testbed.fingerprint"
)

// DefaultPrefix starts every runtime container name.
const DefaultPrefix = "tb"

var (
	// ErrUnknownContainer is returned for names the scenario never declared.
	ErrUnknownContainer = errors.New("unknown container")
	// ErrDuplicateContainer is returned when a name is declared twice.
	ErrDuplicateContainer = errors.New("duplicate container")
)

// Runtime is the container engine a scenario drives.
type Runtime interface {
	EnsureImage(ctx context.Context, ref string) error
	EnsureVolume(ctx context.Context, name string, labels map[string]string) error
	Create(ctx context.Context, req container.CreateRequest) (string, error)
	Start(ctx context.Context, id string) error
	Stop(ctx context.Context, id string, timeout time.Duration) error
	Remove(ctx context.Context, nameOrID string, force bool) error
	FollowLogs(ctx context.Context, id string, h logstream.Handler, opts container.LogOptions) error
	ListByLabel(ctx context.Context, label, value string) ([]container.Info, error)
}

// LogSpec controls what happens with a container's output on Up.
type LogSpec struct {
	Print   bool
	Capture bool
	// WaitFor blocks Up until a log line contains this text.
	WaitFor string
	// Timeout bounds WaitFor. Zero waits until the output ends.
	Timeout time.Duration
}

func (l LogSpec) attach() bool {
	return l.Print || l.Capture || l.WaitFor != ""
}

// ContainerSpec declares one container in short-hand binding syntax.
type ContainerSpec struct {
	Name       string
	Image      string
	Ports      []string
	Volumes    []string
	Links      []string
	Env        []string
	Cmd        []string
	Entrypoint []string
	Logs       LogSpec
}

func (s ContainerSpec) request() binding.Request {
	return binding.Request{
		Ports:      s.Ports,
		Volumes:    s.Volumes,
		Links:      s.Links,
		Env:        s.Env,
		Cmd:        s.Cmd,
		Entrypoint: s.Entrypoint,
	}
}

// Container is a declared container and what became of it. The scenario
// updates ID, Config and Logs while it holds its lock; read them once the
// call that changes them has returned.
type Container struct {
	Spec        ContainerSpec
	RuntimeName string
	ID          string
	Config      *binding.RuntimeConfig
	Logs        *logstream.Stream
}

// Scenario owns the shared port counter and the containers of one fixture.
// It is safe for concurrent use; lifecycle calls run one at a time.
type Scenario struct {
	id          string
	name        string
	prefix      string
	fingerprint string

	counter   ports.Counter
	allocator *ports.Allocator
	resolver  *binding.Resolver
	logger    *log.Logger

	createHostPaths bool
	logSink         io.Writer
	stopTimeout     time.Duration

	// opMu serializes Resolve, Up, Adopt and Down.
	opMu sync.Mutex

	mu         sync.Mutex
	containers map[string]*Container
	order      []string
}

// Option configures a Scenario.
type Option func(*Scenario)

// WithPrefix sets the runtime container name prefix.
func WithPrefix(prefix string) Option {
	return func(s *Scenario) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithAllocator replaces the default port allocator.
func WithAllocator(a *ports.Allocator) Option {
	return func(s *Scenario) { s.allocator = a }
}

// WithLogger sets the diagnostics logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Scenario) { s.logger = l }
}

// WithFingerprint labels containers with a digest of their definition.
func WithFingerprint(fp string) Option {
	return func(s *Scenario) { s.fingerprint = fp }
}

// WithCreateHostPaths creates missing bind mount directories before start.
func WithCreateHostPaths(create bool) Option {
	return func(s *Scenario) { s.createHostPaths = create }
}

// WithLogSink sets where printed container output goes.
func WithLogSink(w io.Writer) Option {
	return func(s *Scenario) { s.logSink = w }
}

// WithStopTimeout sets how long Down waits before killing containers.
func WithStopTimeout(d time.Duration) Option {
	return func(s *Scenario) { s.stopTimeout = d }
}

// New creates an empty scenario.
func New(name string, opts ...Option) *Scenario {
	s := &Scenario{
		id:          uuid.NewString(),
		name:        name,
		prefix:      DefaultPrefix,
		logSink:     os.Stdout,
		stopTimeout: 10 * time.Second,
		containers:  make(map[string]*Container),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logger.OrDefault(s.logger).With("scenario", name)
	if s.allocator == nil {
		s.allocator = ports.NewAllocator(ports.WithLogger(s.logger))
	}
	s.resolver = binding.NewResolver(s.allocator, &s.counter, binding.WithLinkTarget(s.linkTarget))
	return s
}

// ID returns the unique id of this run.
func (s *Scenario) ID() string { return s.id }

// Name returns the scenario name.
func (s *Scenario) Name() string { return s.name }

// Counter returns the port offset counter shared by all containers.
func (s *Scenario) Counter() *ports.Counter { return &s.counter }

// RuntimeName returns the engine-side name of a declared container.
func (s *Scenario) RuntimeName(name string) string {
	return fmt.Sprintf("%s-%s-%s", s.prefix, hash.PathHash(s.name), name)
}

// Declare adds containers to the scenario in order.
func (s *Scenario) Declare(specs ...ContainerSpec) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool, len(specs))
	for _, spec := range specs {
		if spec.Name == "" {
			return fmt.Errorf("container without name")
		}
		if spec.Image == "" {
			return fmt.Errorf("container %s: no image", spec.Name)
		}
		if _, exists := s.containers[spec.Name]; exists || seen[spec.Name] {
			return fmt.Errorf("%w: %s", ErrDuplicateContainer, spec.Name)
		}
		seen[spec.Name] = true
	}

	for _, spec := range specs {
		s.containers[spec.Name] = &Container{Spec: spec, RuntimeName: s.RuntimeName(spec.Name)}
		s.order = append(s.order, spec.Name)
	}
	return nil
}

// Get returns a declared container.
func (s *Scenario) Get(name string) (*Container, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.containers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownContainer, name)
	}
	return c, nil
}

// Containers returns the declared containers in declaration order.
func (s *Scenario) Containers() []*Container {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Container, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.containers[name])
	}
	return out
}

// Resolve builds the runtime config of every container that is neither
// resolved nor already running. Containers resolve concurrently and share
// the scenario counter. If any fails, none of this batch keeps its config.
func (s *Scenario) Resolve(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	return s.resolve(ctx)
}

func (s *Scenario) resolve(ctx context.Context) error {
	var pending []*Container
	s.mu.Lock()
	for _, name := range s.order {
		c := s.containers[name]
		if c.Config == nil && c.ID == "" {
			pending = append(pending, c)
		}
	}
	s.mu.Unlock()

	configs := make([]*binding.RuntimeConfig, len(pending))
	g, ctx := errgroup.WithContext(ctx)
	for i, c := range pending {
		i, c := i, c
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			cfg, err := s.resolver.Resolve(c.Spec.request())
			if err != nil {
				return fmt.Errorf("container %s: %w", c.Spec.Name, err)
			}
			configs[i] = cfg
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		for _, cfg := range configs {
			s.resolver.Release(cfg)
		}
		return err
	}

	s.mu.Lock()
	for i, c := range pending {
		c.Config = configs[i]
	}
	s.mu.Unlock()

	for i, c := range pending {
		s.logger.Debug("resolved", "container", c.Spec.Name, "ports", len(configs[i].PortBindings()))
	}
	return nil
}

// update runs fn under the scenario lock.
func (s *Scenario) update(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
}

// linkTarget maps a declared container name to its runtime name. Other
// names are taken to be containers outside the scenario.
func (s *Scenario) linkTarget(name string) string {
	s.mu.Lock()
	c, ok := s.containers[name]
	s.mu.Unlock()

	if !ok {
		return name
	}
	return c.RuntimeName
}

func (s *Scenario) labels(c *Container) map[string]string {
	labels := map[string]string{
		LabelScenario:  s.name,
		LabelRun:       s.id,
		LabelContainer: c.Spec.Name,
	}
	if s.fingerprint != "" {
		labels[LabelFingerprint] = s.fingerprint
	}
	return labels
}

package binding

import (
	"github.com/rickgorman/testbed/internal/ports"
)

// Request holds the short-hand specs of one container.
type Request struct {
	Ports      []string
	Volumes    []string
	Links      []string
	Env        []string
	Cmd        []string
	Entrypoint []string
}

// Resolver turns a Request into a RuntimeConfig. Dynamic host ports are
// allocated through the allocator, offset by the shared scenario counter.
type Resolver struct {
	allocator  *ports.Allocator
	counter    *ports.Counter
	linkTarget func(string) string
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithLinkTarget rewrites link targets, e.g. from a scenario-local name to
// the container name used by the runtime.
func WithLinkTarget(fn func(string) string) ResolverOption {
	return func(r *Resolver) { r.linkTarget = fn }
}

// NewResolver creates a resolver. A nil counter gives the resolver its own.
func NewResolver(allocator *ports.Allocator, counter *ports.Counter, opts ...ResolverOption) *Resolver {
	if counter == nil {
		counter = &ports.Counter{}
	}
	r := &Resolver{allocator: allocator, counter: counter}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Counter returns the counter shared by this resolver's allocations.
func (r *Resolver) Counter() *ports.Counter {
	return r.counter
}

// Resolve parses every spec of req and settles dynamic host ports.
// Either the whole config is returned or an error; ports allocated before
// a failure are released.
func (r *Resolver) Resolve(req Request) (*RuntimeConfig, error) {
	specs := make([]PortSpec, 0, len(req.Ports))
	for _, raw := range req.Ports {
		spec, err := ParsePort(raw)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}

	cfg := &RuntimeConfig{}

	for _, raw := range req.Volumes {
		vol, err := ParseVolume(raw)
		if err != nil {
			return nil, err
		}
		vol.HostPath = hostPath(vol)
		cfg.volumes = append(cfg.volumes, vol)
	}

	for _, raw := range req.Links {
		link, err := ParseLink(raw)
		if err != nil {
			return nil, err
		}
		if r.linkTarget != nil {
			link.Target = r.linkTarget(link.Target)
		}
		cfg.links = append(cfg.links, link)
	}

	for _, raw := range req.Env {
		env, err := ParseEnv(raw)
		if err != nil {
			return nil, err
		}
		cfg.env = append(cfg.env, env)
	}

	if len(req.Cmd) > 0 {
		cfg.cmd = append([]string(nil), req.Cmd...)
	}
	if len(req.Entrypoint) > 0 {
		cfg.entrypoint = append([]string(nil), req.Entrypoint...)
	}

	for _, spec := range specs {
		b := PortBinding{
			Protocol:             spec.Protocol,
			ContainerPort:        spec.ContainerPort,
			HostPort:             spec.HostPort,
			HostBindingRequested: spec.HostRequested,
		}

		if spec.Dynamic {
			port, err := r.allocator.Allocate(string(spec.Protocol), spec.HostBase, r.counter)
			if err != nil {
				r.Release(cfg)
				return nil, err
			}
			b.HostPort = port
			b.Dynamic = true
		}

		cfg.expose(b.Protocol, b.ContainerPort)
		cfg.ports = append(cfg.ports, b)
	}

	return cfg, nil
}

// Release hands the dynamic host ports of cfg back to the allocator.
func (r *Resolver) Release(cfg *RuntimeConfig) {
	if cfg == nil {
		return
	}
	for _, b := range cfg.ports {
		if b.Dynamic {
			r.allocator.Release(string(b.Protocol), b.HostPort)
		}
	}
}

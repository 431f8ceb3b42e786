package binding

// RuntimeConfig is the resolved configuration of one container.
// It is built once by a Resolver; accessors return copies so a built
// config cannot be changed.
type RuntimeConfig struct {
	exposed    []ExposedPort
	ports      []PortBinding
	volumes    []VolumeBinding
	links      []LinkBinding
	env        []EnvVar
	cmd        []string
	entrypoint []string
}

// ExposedPort is a container port and protocol, e.g. 80/tcp.
type ExposedPort struct {
	Protocol Protocol
	Port     uint16
}

// ExposedPorts returns the distinct container ports in first-seen order.
func (c *RuntimeConfig) ExposedPorts() []ExposedPort {
	return append([]ExposedPort(nil), c.exposed...)
}

// PortBindings returns the resolved port bindings in declaration order.
func (c *RuntimeConfig) PortBindings() []PortBinding {
	return append([]PortBinding(nil), c.ports...)
}

// Volumes returns the volume bindings in declaration order.
func (c *RuntimeConfig) Volumes() []VolumeBinding {
	return append([]VolumeBinding(nil), c.volumes...)
}

// Links returns the link bindings in declaration order.
func (c *RuntimeConfig) Links() []LinkBinding {
	return append([]LinkBinding(nil), c.links...)
}

// Env returns the environment in declaration order.
func (c *RuntimeConfig) Env() []EnvVar {
	return append([]EnvVar(nil), c.env...)
}

// Cmd returns the command override, nil when unset.
func (c *RuntimeConfig) Cmd() []string {
	return append([]string(nil), c.cmd...)
}

// Entrypoint returns the entrypoint override, nil when unset.
func (c *RuntimeConfig) Entrypoint() []string {
	return append([]string(nil), c.entrypoint...)
}

// HostPort returns the host port bound to a container port, if any.
func (c *RuntimeConfig) HostPort(proto Protocol, containerPort uint16) (uint16, bool) {
	for _, b := range c.ports {
		if b.Protocol == proto && b.ContainerPort == containerPort && b.HostBindingRequested {
			return b.HostPort, true
		}
	}
	return 0, false
}

func (c *RuntimeConfig) expose(proto Protocol, port uint16) {
	for _, e := range c.exposed {
		if e.Protocol == proto && e.Port == port {
			return
		}
	}
	c.exposed = append(c.exposed, ExposedPort{Protocol: proto, Port: port})
}

// runtimeConfigYAML is the serialized form used by MarshalYAML.
type runtimeConfigYAML struct {
	Ports      []string `yaml:"ports,omitempty"`
	Exposed    []string `yaml:"exposed,omitempty"`
	Volumes    []string `yaml:"volumes,omitempty"`
	Links      []string `yaml:"links,omitempty"`
	Env        []string `yaml:"env,omitempty"`
	Cmd        []string `yaml:"cmd,omitempty"`
	Entrypoint []string `yaml:"entrypoint,omitempty"`
}

// MarshalYAML renders the config using the short-hand binding syntax.
func (c *RuntimeConfig) MarshalYAML() (interface{}, error) {
	out := runtimeConfigYAML{
		Cmd:        c.Cmd(),
		Entrypoint: c.Entrypoint(),
	}
	for _, b := range c.ports {
		out.Ports = append(out.Ports, b.String())
	}
	for _, e := range c.exposed {
		out.Exposed = append(out.Exposed, string(natPort(e.Protocol, e.Port)))
	}
	for _, v := range c.volumes {
		out.Volumes = append(out.Volumes, v.String())
	}
	for _, l := range c.links {
		out.Links = append(out.Links, l.String())
	}
	for _, e := range c.env {
		out.Env = append(out.Env, e.String())
	}
	return out, nil
}

package binding

import (
	"strconv"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/go-connections/nat"
)

// ContainerConfig builds the create-time container config for image.
func (c *RuntimeConfig) ContainerConfig(image string, labels map[string]string) *container.Config {
	config := &container.Config{
		Image:  image,
		Labels: labels,
	}

	if len(c.exposed) > 0 {
		exposed := make(nat.PortSet, len(c.exposed))
		for _, e := range c.exposed {
			exposed[natPort(e.Protocol, e.Port)] = struct{}{}
		}
		config.ExposedPorts = exposed
	}

	if len(c.volumes) > 0 {
		volumes := make(map[string]struct{}, len(c.volumes))
		for _, v := range c.volumes {
			volumes[v.ContainerPath] = struct{}{}
		}
		config.Volumes = volumes
	}

	for _, e := range c.env {
		config.Env = append(config.Env, e.String())
	}
	if len(c.cmd) > 0 {
		config.Cmd = c.Cmd()
	}
	if len(c.entrypoint) > 0 {
		config.Entrypoint = c.Entrypoint()
	}

	return config
}

// HostConfig builds the host config: published ports, binds and links.
// Container-only ports are exposed but not published.
func (c *RuntimeConfig) HostConfig() *container.HostConfig {
	hostConfig := &container.HostConfig{}

	for _, b := range c.ports {
		if !b.HostBindingRequested {
			continue
		}
		if hostConfig.PortBindings == nil {
			hostConfig.PortBindings = make(nat.PortMap)
		}
		port := natPort(b.Protocol, b.ContainerPort)
		hostConfig.PortBindings[port] = append(hostConfig.PortBindings[port], nat.PortBinding{
			HostIP:   "0.0.0.0",
			HostPort: strconv.Itoa(int(b.HostPort)),
		})
	}

	for _, v := range c.volumes {
		hostConfig.Binds = append(hostConfig.Binds, v.String())
	}
	for _, l := range c.links {
		hostConfig.Links = append(hostConfig.Links, l.String())
	}

	return hostConfig
}

func natPort(proto Protocol, port uint16) nat.Port {
	// NewPort only fails on a malformed number, which a uint16 cannot be.
	p, _ := nat.NewPort(string(proto), strconv.Itoa(int(port)))
	return p
}

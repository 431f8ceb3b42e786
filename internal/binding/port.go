package binding

import (
	"fmt"
	"strconv"
	"strings"
)

// Protocol is the transport of a port binding.
type Protocol string

const (
	TCP Protocol = "tcp"
	UDP Protocol = "udp"
)

// PortSpec is a parsed "[HOSTPORT[+]:]CONTAINERPORT[/tcp|/udp]" spec.
//
// Exactly one of three host forms applies: no host binding, a literal
// HostPort, or a Dynamic search starting at HostBase.
type PortSpec struct {
	Protocol      Protocol
	ContainerPort uint16
	HostPort      uint16
	HostBase      uint16
	Dynamic       bool
	HostRequested bool
}

// PortBinding is a port spec with its host side settled.
type PortBinding struct {
	Protocol             Protocol
	ContainerPort        uint16
	HostPort             uint16
	HostBindingRequested bool
	Dynamic              bool
}

// String renders the binding as "HOST:CONTAINER/PROTO", or
// "CONTAINER/PROTO" when no host port is bound.
func (b PortBinding) String() string {
	if !b.HostBindingRequested {
		return fmt.Sprintf("%d/%s", b.ContainerPort, b.Protocol)
	}
	return fmt.Sprintf("%d:%d/%s", b.HostPort, b.ContainerPort, b.Protocol)
}

// ParsePort parses a port spec such as "8080:80", "8080+:80", "53:53/udp"
// or "9000".
func ParsePort(raw string) (PortSpec, error) {
	s := strings.TrimSpace(raw)
	spec := PortSpec{Protocol: TCP}

	if rest, ok := strings.CutSuffix(s, "/udp"); ok {
		spec.Protocol = UDP
		s = rest
	} else if rest, ok := strings.CutSuffix(s, "/tcp"); ok {
		s = rest
	} else if i := strings.IndexByte(s, '/'); i >= 0 {
		return PortSpec{}, parseErr(KindPort, raw, "unknown protocol %q", s[i+1:])
	}

	host, container, hasHost := strings.Cut(s, ":")
	if !hasHost {
		container = host
	}

	port, err := parsePortNumber(container)
	if err != nil {
		return PortSpec{}, parseErr(KindPort, raw, "container port: %v", err)
	}
	spec.ContainerPort = port

	if !hasHost {
		return spec, nil
	}
	spec.HostRequested = true

	if base, ok := strings.CutSuffix(host, "+"); ok {
		n, err := parsePortNumber(base)
		if err != nil {
			return PortSpec{}, parseErr(KindPort, raw, "dynamic host base: %v", err)
		}
		spec.Dynamic = true
		spec.HostBase = n
		return spec, nil
	}

	n, err := parsePortNumber(host)
	if err != nil {
		return PortSpec{}, parseErr(KindPort, raw, "host port: %v", err)
	}
	spec.HostPort = n

	return spec, nil
}

func parsePortNumber(s string) (uint16, error) {
	if s == "" {
		return 0, fmt.Errorf("missing port number")
	}
	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("%q is not a port number", s)
	}
	if n == 0 {
		return 0, fmt.Errorf("port 0 is not allowed")
	}
	return uint16(n), nil
}

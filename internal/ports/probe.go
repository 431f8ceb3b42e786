package ports

import (
	"fmt"
	"net"
	"os/exec"
	"strings"
)

// Prober reports whether a host port can currently be bound.
type Prober interface {
	Available(network string, port int) bool
}

// ProbeFunc adapts a function to the Prober interface.
type ProbeFunc func(network string, port int) bool

// Available calls f.
func (f ProbeFunc) Available(network string, port int) bool {
	return f(network, port)
}

// ListenProbe checks a port by binding it and releasing it immediately.
// network is "tcp" or "udp".
var ListenProbe Prober = ProbeFunc(listenAvailable)

func listenAvailable(network string, port int) bool {
	addr := fmt.Sprintf(":%d", port)

	if network == "udp" {
		conn, err := net.ListenPacket("udp", addr)
		if err != nil {
			return false
		}
		_ = conn.Close()
		return true
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return false
	}
	_ = ln.Close()
	return true
}

// PortOwner gets the process name and PID listening on a TCP port using lsof.
// Both are empty when lsof is missing or nothing is listening.
func PortOwner(port int) (string, string) {
	cmd := exec.Command("lsof", "-i", fmt.Sprintf(":%d", port), "-sTCP:LISTEN", "-t")
	output, err := cmd.Output()
	if err != nil {
		return "", ""
	}

	lines := strings.Split(strings.TrimSpace(string(output)), "\n")
	if len(lines) == 0 || lines[0] == "" {
		return "", ""
	}
	pid := lines[0]

	cmd = exec.Command("ps", "-p", pid, "-o", "comm=")
	output, err = cmd.Output()
	if err != nil {
		return "", pid
	}

	return strings.TrimSpace(string(output)), pid
}

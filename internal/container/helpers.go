package container

import (
	"fmt"
	"strings"
	"time"

	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/volume"
	"github.com/docker/docker/client"
)

// volumeCreateBody creates a volume.CreateOptions.
func volumeCreateBody(name string, labels map[string]string) volume.CreateOptions {
	return volume.CreateOptions{
		Name:   name,
		Driver: "local",
		Labels: labels,
	}
}

// mustNewFilter creates filter args from a key to values map.
func mustNewFilter(kv map[string][]string) filters.Args {
	f := filters.NewArgs()
	for k, values := range kv {
		for _, v := range values {
			f.Add(k, v)
		}
	}
	return f
}

// trimName strips the leading "/" Docker puts on container names.
func trimName(name string) string {
	return strings.TrimPrefix(name, "/")
}

// isNotFoundError checks if an error is a "not found" error from Docker.
func isNotFoundError(err error) bool {
	return client.IsErrNotFound(err)
}

// parseDockerTimestamp parses a Docker timestamp string.
func parseDockerTimestamp(ts string) (time.Time, error) {
	// Docker timestamps are in RFC3339Nano format
	return time.Parse(time.RFC3339Nano, ts)
}

// formatUptime formats a duration into a human-readable uptime string.
func formatUptime(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	if minutes > 0 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%ds", int(d.Seconds()))
}

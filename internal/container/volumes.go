package container

import (
	"context"
	"fmt"
	"os"

	"github.com/rickgorman/testbed/internal/binding"
)

// EnsureVolume ensures a Docker volume exists, creating it if necessary.
func (c *Client) EnsureVolume(ctx context.Context, volumeName string, labels map[string]string) error {
	exists, err := c.VolumeExists(ctx, volumeName)
	if err != nil {
		return fmt.Errorf("failed to check volume: %w", err)
	}

	if !exists {
		if err := c.CreateVolume(ctx, volumeName, labels); err != nil {
			return fmt.Errorf("failed to create volume: %w", err)
		}
		c.logger.Debug("created volume", "volume", volumeName)
	}

	return nil
}

// PrepareHostPaths creates missing host directories of bind mounts so
// they are owned by the current user rather than by the Docker daemon.
func PrepareHostPaths(volumes []binding.VolumeBinding) error {
	for _, v := range volumes {
		if v.Named() {
			continue
		}
		if _, err := os.Stat(v.HostPath); err == nil {
			continue
		}
		if err := os.MkdirAll(v.HostPath, 0755); err != nil {
			return fmt.Errorf("failed to create bind mount directory %s: %w", v.HostPath, err)
		}
	}

	return nil
}

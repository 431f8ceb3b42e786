// Package container runs scenario containers on the Docker engine.
package container

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"

	"github.com/rickgorman/testbed/pkg/logger"
)

// Client wraps the Docker client with our operations.
type Client struct {
	cli    *client.Client
	logger *log.Logger
}

// NewClient creates a Docker client from the environment (DOCKER_HOST etc).
func NewClient(l *log.Logger) (*Client, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, err
	}
	return &Client{cli: cli, logger: logger.OrDefault(l)}, nil
}

// Close closes the underlying Docker client.
func (c *Client) Close() error {
	return c.cli.Close()
}

// ImageExists checks if an image exists locally.
func (c *Client) ImageExists(ctx context.Context, ref string) (bool, error) {
	_, _, err := c.cli.ImageInspectWithRaw(ctx, ref)
	if err != nil {
		if isNotFoundError(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// EnsureImage pulls an image unless it is already present.
func (c *Client) EnsureImage(ctx context.Context, ref string) error {
	exists, err := c.ImageExists(ctx, ref)
	if err != nil {
		return fmt.Errorf("failed to check image %s: %w", ref, err)
	}
	if exists {
		return nil
	}

	c.logger.Info("pulling image", "image", ref)
	rc, err := c.cli.ImagePull(ctx, ref, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("failed to pull image %s: %w", ref, err)
	}
	defer rc.Close()

	// The pull only finishes once the progress stream is consumed.
	if _, err := io.Copy(io.Discard, rc); err != nil {
		return fmt.Errorf("failed to pull image %s: %w", ref, err)
	}
	return nil
}

// VolumeExists checks if a volume exists.
func (c *Client) VolumeExists(ctx context.Context, volumeName string) (bool, error) {
	_, err := c.cli.VolumeInspect(ctx, volumeName)
	if err != nil {
		if isNotFoundError(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// CreateVolume creates a Docker volume.
func (c *Client) CreateVolume(ctx context.Context, volumeName string, labels map[string]string) error {
	_, err := c.cli.VolumeCreate(ctx, volumeCreateBody(volumeName, labels))
	return err
}

// ListByLabel returns all containers, running or not, carrying label=value.
func (c *Client) ListByLabel(ctx context.Context, label, value string) ([]Info, error) {
	containers, err := c.cli.ContainerList(ctx, container.ListOptions{
		All: true,
		Filters: mustNewFilter(map[string][]string{
			"label": {label + "=" + value},
		}),
	})
	if err != nil {
		return nil, err
	}

	infos := make([]Info, 0, len(containers))
	for _, ctr := range containers {
		name := ""
		if len(ctr.Names) > 0 {
			name = trimName(ctr.Names[0])
		}
		infos = append(infos, Info{
			ID:     ctr.ID,
			Name:   name,
			Image:  ctr.Image,
			State:  ctr.State,
			Status: ctr.Status,
			Labels: ctr.Labels,
		})
	}
	return infos, nil
}

package container

import (
	"context"
	"fmt"
	"time"

	"github.com/docker/docker/api/types/container"

	"github.com/rickgorman/testbed/internal/binding"
)

// CreateRequest describes a container to create from a resolved config.
type CreateRequest struct {
	Name   string
	Image  string
	Labels map[string]string
	Config *binding.RuntimeConfig
}

// Info is a summary of an existing container.
type Info struct {
	ID     string
	Name   string
	Image  string
	State  string
	Status string
	Labels map[string]string
}

// Create creates a container without starting it.
func (c *Client) Create(ctx context.Context, req CreateRequest) (string, error) {
	containerConfig := req.Config.ContainerConfig(req.Image, req.Labels)
	hostConfig := req.Config.HostConfig()

	resp, err := c.cli.ContainerCreate(
		ctx,
		containerConfig,
		hostConfig,
		nil,
		nil,
		req.Name,
	)
	if err != nil {
		return "", fmt.Errorf("failed to create container %s: %w", req.Name, err)
	}
	for _, w := range resp.Warnings {
		c.logger.Warn("docker warning", "container", req.Name, "warning", w)
	}

	c.logger.Debug("created container", "container", req.Name, "id", shortID(resp.ID))
	return resp.ID, nil
}

// Start starts a created container.
func (c *Client) Start(ctx context.Context, id string) error {
	if err := c.cli.ContainerStart(ctx, id, container.StartOptions{}); err != nil {
		return fmt.Errorf("failed to start container: %w", err)
	}
	return nil
}

// Stop stops a running container, killing it after timeout.
func (c *Client) Stop(ctx context.Context, id string, timeout time.Duration) error {
	secs := int(timeout.Seconds())
	if err := c.cli.ContainerStop(ctx, id, container.StopOptions{Timeout: &secs}); err != nil && !isNotFoundError(err) {
		return fmt.Errorf("failed to stop container: %w", err)
	}
	return nil
}

// Remove removes a container. A missing container is not an error.
func (c *Client) Remove(ctx context.Context, nameOrID string, force bool) error {
	options := container.RemoveOptions{
		Force:         force,
		RemoveVolumes: false,
	}

	err := c.cli.ContainerRemove(ctx, nameOrID, options)
	if err != nil && !isNotFoundError(err) {
		return fmt.Errorf("failed to remove container: %w", err)
	}

	return nil
}

// IsRunning checks if a container is currently running.
func (c *Client) IsRunning(ctx context.Context, nameOrID string) (bool, error) {
	inspect, err := c.cli.ContainerInspect(ctx, nameOrID)
	if err != nil {
		if isNotFoundError(err) {
			return false, nil
		}
		return false, err
	}
	return inspect.State != nil && inspect.State.Running, nil
}

// Uptime returns the uptime of a container as a human-readable string.
func (c *Client) Uptime(ctx context.Context, nameOrID string) (string, error) {
	inspect, err := c.cli.ContainerInspect(ctx, nameOrID)
	if err != nil {
		return "", fmt.Errorf("failed to inspect container: %w", err)
	}

	if inspect.State == nil || !inspect.State.Running {
		return "", fmt.Errorf("container is not running")
	}

	startedAt, err := parseDockerTimestamp(inspect.State.StartedAt)
	if err != nil {
		return "", fmt.Errorf("failed to parse start time: %w", err)
	}

	return formatUptime(time.Since(startedAt)), nil
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

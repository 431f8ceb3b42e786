package scenario

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rickgorman/testbed/internal/container"
	"github.com/rickgorman/testbed/internal/logstream"
)

// Up resolves, creates and starts every declared container that is not
// running yet, in declaration order so link targets exist first.
func (s *Scenario) Up(ctx context.Context, rt Runtime) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if err := s.resolve(ctx); err != nil {
		return err
	}

	for _, c := range s.Containers() {
		if s.containerID(c) != "" {
			continue
		}
		if err := s.start(ctx, rt, c); err != nil {
			return fmt.Errorf("container %s: %w", c.Spec.Name, err)
		}
	}
	return nil
}

func (s *Scenario) start(ctx context.Context, rt Runtime, c *Container) error {
	if err := rt.EnsureImage(ctx, c.Spec.Image); err != nil {
		return err
	}

	volumes := c.Config.Volumes()
	for _, v := range volumes {
		if v.Named() {
			if err := rt.EnsureVolume(ctx, v.HostPath, map[string]string{LabelScenario: s.name}); err != nil {
				return err
			}
		}
	}
	if s.createHostPaths {
		if err := container.PrepareHostPaths(volumes); err != nil {
			return err
		}
	}

	id, err := rt.Create(ctx, container.CreateRequest{
		Name:   c.RuntimeName,
		Image:  c.Spec.Image,
		Labels: s.labels(c),
		Config: c.Config,
	})
	if err != nil {
		return err
	}
	s.update(func() { c.ID = id })

	if err := rt.Start(ctx, id); err != nil {
		return err
	}
	s.logger.Info("started", "container", c.Spec.Name, "name", c.RuntimeName)

	if !c.Spec.Logs.attach() {
		return nil
	}

	opts := []logstream.Option{logstream.WithPrint(c.Spec.Logs.Print)}
	if c.Spec.Logs.Capture {
		opts = append(opts, logstream.WithCapture())
	}
	stream, err := s.Logs(ctx, rt, c.Spec.Name, container.LogOptions{}, opts...)
	if err != nil {
		return err
	}
	s.update(func() { c.Logs = stream })

	if c.Spec.Logs.WaitFor != "" {
		return s.waitFor(c, stream)
	}
	return nil
}

func (s *Scenario) waitFor(c *Container, stream *logstream.Stream) error {
	spec := c.Spec.Logs
	if spec.Timeout > 0 {
		timer := time.AfterFunc(spec.Timeout, func() {
			s.logger.Warn("timed out waiting for log line", "container", c.Spec.Name, "text", spec.WaitFor, "timeout", spec.Timeout)
			_ = stream.Close()
		})
		defer timer.Stop()
	}

	line, err := stream.WaitForText(spec.WaitFor)
	if err != nil {
		return err
	}
	s.logger.Info("ready", "container", c.Spec.Name, "line", line)
	return nil
}

// Logs attaches a new stream to a started container's output.
func (s *Scenario) Logs(ctx context.Context, rt Runtime, name string, logOpts container.LogOptions, opts ...logstream.Option) (*logstream.Stream, error) {
	c, err := s.Get(name)
	if err != nil {
		return nil, err
	}
	id := s.containerID(c)
	if id == "" {
		return nil, fmt.Errorf("container %s is not started", name)
	}

	base := []logstream.Option{
		logstream.WithName(name),
		logstream.WithSink(s.logSink),
		logstream.WithLogger(s.logger),
	}
	stream := logstream.New(append(base, opts...)...)
	if err := rt.FollowLogs(ctx, id, stream, logOpts); err != nil {
		return nil, err
	}
	return stream, nil
}

// Adopt picks up containers of this scenario that an earlier process
// started, so Logs and Get work against them. It returns how many were
// found.
func (s *Scenario) Adopt(ctx context.Context, rt Runtime) (int, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	infos, err := rt.ListByLabel(ctx, LabelScenario, s.name)
	if err != nil {
		return 0, fmt.Errorf("failed to list scenario containers: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	adopted := 0
	for _, info := range infos {
		c, ok := s.containers[info.Labels[LabelContainer]]
		if !ok || c.ID != "" {
			continue
		}
		c.ID = info.ID
		adopted++
	}
	return adopted, nil
}

// Down removes every container carrying this scenario's label, including
// ones left behind by earlier runs, and closes open log streams.
func (s *Scenario) Down(ctx context.Context, rt Runtime) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	var streams []*logstream.Stream
	s.mu.Lock()
	for _, c := range s.containers {
		if c.Logs != nil {
			streams = append(streams, c.Logs)
			c.Logs = nil
		}
	}
	s.mu.Unlock()
	for _, stream := range streams {
		_ = stream.Close()
	}

	infos, err := rt.ListByLabel(ctx, LabelScenario, s.name)
	if err != nil {
		return fmt.Errorf("failed to list scenario containers: %w", err)
	}

	var errs []error
	for _, info := range infos {
		if err := rt.Stop(ctx, info.ID, s.stopTimeout); err != nil {
			s.logger.Warn("stop failed", "name", info.Name, "err", err)
		}
		if err := rt.Remove(ctx, info.ID, true); err != nil {
			errs = append(errs, err)
			continue
		}
		s.logger.Info("removed", "name", info.Name)
	}

	s.mu.Lock()
	for _, c := range s.containers {
		c.ID = ""
		s.resolver.Release(c.Config)
		c.Config = nil
	}
	s.mu.Unlock()

	return errors.Join(errs...)
}

func (s *Scenario) containerID(c *Container) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.ID
}

package container

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/pkg/stdcopy"

	"github.com/rickgorman/testbed/internal/logstream"
)

// LogOptions selects which part of a container's output to follow.
type LogOptions struct {
	// Tail is the number of existing lines to replay, "all" when empty.
	Tail string
	// Since is a timestamp or relative duration accepted by Docker.
	Since string
	// NoFollow stops delivery at the current end of the log.
	NoFollow bool
}

// FollowLogs subscribes h to a container's stdout and stderr. Frames are
// delivered on a separate goroutine; h.OnStart receives the closer that
// ends the subscription.
func (c *Client) FollowLogs(ctx context.Context, id string, h logstream.Handler, opts LogOptions) error {
	inspect, err := c.cli.ContainerInspect(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to inspect container: %w", err)
	}
	tty := inspect.Config != nil && inspect.Config.Tty

	tail := opts.Tail
	if tail == "" {
		tail = "all"
	}

	rc, err := c.cli.ContainerLogs(ctx, id, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Follow:     !opts.NoFollow,
		Tail:       tail,
		Since:      opts.Since,
	})
	if err != nil {
		return fmt.Errorf("failed to open container logs: %w", err)
	}

	sub := &subscription{rc: rc}
	h.OnStart(sub)

	go func() {
		if err := pumpFrames(rc, tty, h); err != nil && !sub.closed.Load() {
			c.logger.Debug("log stream failed", "id", shortID(id), "err", err)
			h.OnError(err)
			return
		}
		h.OnComplete()
	}()

	return nil
}

// subscription is the closer handed to OnStart. It records that the
// consumer ended delivery so the resulting read error is not reported.
type subscription struct {
	rc     io.ReadCloser
	closed atomic.Bool
}

func (s *subscription) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.rc.Close()
}

// pumpFrames reads a log stream and delivers it to h frame by frame.
// Non-TTY streams carry Docker's multiplexed headers and are split per
// stream; TTY streams are delivered as raw frames.
func pumpFrames(r io.Reader, tty bool, h logstream.Handler) error {
	if tty {
		_, err := io.Copy(frameWriter{stream: logstream.Raw, h: h}, r)
		return err
	}

	_, err := stdcopy.StdCopy(
		frameWriter{stream: logstream.Stdout, h: h},
		frameWriter{stream: logstream.Stderr, h: h},
		r,
	)
	return err
}

// frameWriter turns each write into one frame.
type frameWriter struct {
	stream logstream.StreamType
	h      logstream.Handler
}

func (w frameWriter) Write(p []byte) (int, error) {
	// stdcopy reuses its buffer between writes
	payload := append([]byte(nil), p...)
	w.h.OnNext(logstream.Frame{Stream: w.stream, Payload: payload})
	return len(p), nil
}

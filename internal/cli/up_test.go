package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickgorman/testbed/internal/container"
	"github.com/rickgorman/testbed/internal/logstream"
	"github.com/rickgorman/testbed/internal/ports"
	"github.com/rickgorman/testbed/internal/scenario"
	"github.com/rickgorman/testbed/internal/ui"
	"github.com/rickgorman/testbed/pkg/logger"
)

// stubRuntime reports one running container per declared name and replays
// a fixed line on every log request.
type stubRuntime struct {
	mu       sync.Mutex
	running  []string
	complete bool
	failLogs string
	streams  []*logstream.Stream
}

func (r *stubRuntime) EnsureImage(context.Context, string) error { return nil }

func (r *stubRuntime) EnsureVolume(context.Context, string, map[string]string) error { return nil }

func (r *stubRuntime) Create(_ context.Context, req container.CreateRequest) (string, error) {
	return "id-" + req.Name, nil
}

func (r *stubRuntime) Start(context.Context, string) error { return nil }

func (r *stubRuntime) Stop(context.Context, string, time.Duration) error { return nil }

func (r *stubRuntime) Remove(context.Context, string, bool) error { return nil }

func (r *stubRuntime) FollowLogs(_ context.Context, id string, h logstream.Handler, _ container.LogOptions) error {
	if id == "id-"+r.failLogs {
		return errors.New("log attach refused")
	}
	if stream, ok := h.(*logstream.Stream); ok {
		r.mu.Lock()
		r.streams = append(r.streams, stream)
		r.mu.Unlock()
	}
	h.OnStart(io.NopCloser(nil))
	h.OnNext(logstream.Frame{Stream: logstream.Stdout, Payload: []byte("hello from " + id + "\n")})
	if r.complete {
		h.OnComplete()
	}
	return nil
}

func (r *stubRuntime) ListByLabel(_ context.Context, label, value string) ([]container.Info, error) {
	var infos []container.Info
	for _, name := range r.running {
		infos = append(infos, container.Info{
			ID:     "id-" + name,
			Name:   name,
			Labels: map[string]string{label: value, scenario.LabelContainer: name},
		})
	}
	return infos, nil
}

func captureUI(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prevOut, prevNoColor := ui.Out, color.NoColor
	ui.Out = &buf
	color.NoColor = true
	t.Cleanup(func() {
		ui.Out = prevOut
		color.NoColor = prevNoColor
	})
	return &buf
}

func adoptedScenario(t *testing.T, rt *stubRuntime) *scenario.Scenario {
	t.Helper()
	s := scenario.New("follow",
		scenario.WithLogger(logger.New(io.Discard)),
		scenario.WithLogSink(io.Discard),
	)
	require.NoError(t, s.Declare(
		scenario.ContainerSpec{Name: "db", Image: "postgres:16", Ports: []string{"5432"}},
		scenario.ContainerSpec{Name: "app", Image: "shop:latest", Ports: []string{"80"}},
	))
	n, err := s.Adopt(context.Background(), rt)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	return s
}

func TestReportAdoptedContainers(t *testing.T) {
	buf := captureUI(t)
	rt := &stubRuntime{running: []string{"db"}}
	quiet := logger.New(io.Discard)
	s := scenario.New("resume",
		scenario.WithLogger(quiet),
		scenario.WithLogSink(io.Discard),
		scenario.WithAllocator(ports.NewAllocator(
			ports.WithProber(ports.ProbeFunc(func(string, int) bool { return true })),
			ports.WithLogger(quiet),
		)),
	)
	require.NoError(t, s.Declare(
		scenario.ContainerSpec{Name: "db", Image: "postgres:16", Ports: []string{"15432+:5432"}},
		scenario.ContainerSpec{Name: "app", Image: "shop:latest", Ports: []string{"18080:80"}},
	))

	n, err := s.Adopt(context.Background(), rt)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.NoError(t, s.Up(context.Background(), rt))

	report(s)

	out := buf.String()
	assert.Contains(t, out, "db already running as "+s.RuntimeName("db"))
	assert.NotContains(t, out, "15432")
	assert.Contains(t, out, "app started as "+s.RuntimeName("app"))
	assert.Contains(t, out, "0.0.0.0:18080")
}

func TestFollowAllReturnsWhenStreamsEnd(t *testing.T) {
	captureUI(t)
	rt := &stubRuntime{running: []string{"db", "app"}, complete: true}
	s := adoptedScenario(t, rt)

	var buf bytes.Buffer
	done := make(chan error, 1)
	go func() {
		done <- followAll(context.Background(), s, rt, nil, &lineWriter{w: &buf})
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("followAll did not return after every stream completed")
	}
	assert.Contains(t, buf.String(), "db | hello from id-db")
	assert.Contains(t, buf.String(), "app | hello from id-app")
}

func TestFollowAllClosesStreamsOnError(t *testing.T) {
	captureUI(t)
	rt := &stubRuntime{running: []string{"db", "app"}, failLogs: "app"}
	s := adoptedScenario(t, rt)

	err := followAll(context.Background(), s, rt, nil, &lineWriter{w: io.Discard})
	require.ErrorContains(t, err, "log attach refused")

	require.Len(t, rt.streams, 1)
	assert.True(t, rt.streams[0].Closed())
}

func TestFollowAllStopsOnCancel(t *testing.T) {
	captureUI(t)
	rt := &stubRuntime{running: []string{"db", "app"}}
	s := adoptedScenario(t, rt)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- followAll(ctx, s, rt, nil, &lineWriter{w: io.Discard})
	}()
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("followAll ignored cancellation")
	}
	for _, stream := range rt.streams {
		assert.True(t, stream.Closed())
	}
}

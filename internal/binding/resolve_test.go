package binding

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/rickgorman/testbed/internal/ports"
	"github.com/rickgorman/testbed/pkg/logger"
)

func newTestResolver(busy ...int) (*Resolver, *ports.Counter) {
	taken := make(map[int]bool)
	for _, p := range busy {
		taken[p] = true
	}
	probe := ports.ProbeFunc(func(_ string, port int) bool { return !taken[port] })
	allocator := ports.NewAllocator(
		ports.WithProber(probe),
		ports.WithLogger(logger.New(&bytes.Buffer{})),
	)
	counter := &ports.Counter{}
	return NewResolver(allocator, counter), counter
}

func TestResolveFullRequest(t *testing.T) {
	r, _ := newTestResolver()

	cfg, err := r.Resolve(Request{
		Ports:      []string{"8080:80", "53:53/udp", "9000"},
		Volumes:    []string{"/data:/var/data:ro", "/logs:/var/log"},
		Links:      []string{"db:database"},
		Env:        []string{"A=1", "B=2"},
		Cmd:        []string{"serve", "--port", "80"},
		Entrypoint: []string{"/bin/sh", "-c"},
	})
	require.NoError(t, err)

	assert.Equal(t, []PortBinding{
		{Protocol: TCP, ContainerPort: 80, HostPort: 8080, HostBindingRequested: true},
		{Protocol: UDP, ContainerPort: 53, HostPort: 53, HostBindingRequested: true},
		{Protocol: TCP, ContainerPort: 9000},
	}, cfg.PortBindings())
	assert.Equal(t, []ExposedPort{{TCP, 80}, {UDP, 53}, {TCP, 9000}}, cfg.ExposedPorts())
	assert.Equal(t, []VolumeBinding{
		{HostPath: "/data", ContainerPath: "/var/data", Mode: ReadOnly},
		{HostPath: "/logs", ContainerPath: "/var/log", Mode: ReadWrite},
	}, cfg.Volumes())
	assert.Equal(t, []LinkBinding{{Target: "db", Alias: "database"}}, cfg.Links())
	assert.Equal(t, []EnvVar{{"A", "1"}, {"B", "2"}}, cfg.Env())
	assert.Equal(t, []string{"serve", "--port", "80"}, cfg.Cmd())
	assert.Equal(t, []string{"/bin/sh", "-c"}, cfg.Entrypoint())
}

func TestResolveEmptyRequest(t *testing.T) {
	r, _ := newTestResolver()

	cfg, err := r.Resolve(Request{})
	require.NoError(t, err)
	assert.Empty(t, cfg.PortBindings())
	assert.Empty(t, cfg.ExposedPorts())
	assert.Nil(t, cfg.Cmd())
	assert.Nil(t, cfg.Entrypoint())
}

func TestResolveDynamicPort(t *testing.T) {
	r, counter := newTestResolver(8080, 8081)

	floor := 8080 + int(counter.Value())
	cfg, err := r.Resolve(Request{Ports: []string{"8080+:80"}})
	require.NoError(t, err)

	port, ok := cfg.HostPort(TCP, 80)
	require.True(t, ok)
	assert.GreaterOrEqual(t, int(port), floor)
	assert.Equal(t, uint16(8082), port)
	assert.True(t, cfg.PortBindings()[0].Dynamic)
}

func TestResolveDynamicPortsShareCounter(t *testing.T) {
	r, counter := newTestResolver()

	first, err := r.Resolve(Request{Ports: []string{"3000+:3000"}})
	require.NoError(t, err)
	second, err := r.Resolve(Request{Ports: []string{"3000+:3000"}})
	require.NoError(t, err)

	p1, _ := first.HostPort(TCP, 3000)
	p2, _ := second.HostPort(TCP, 3000)
	assert.Equal(t, uint16(3000), p1)
	assert.Equal(t, uint16(3001), p2)
	assert.Equal(t, uint32(2), counter.Value())
}

func TestResolveDuplicateContainerPortExposedOnce(t *testing.T) {
	r, _ := newTestResolver()

	cfg, err := r.Resolve(Request{Ports: []string{"8080:80", "8081:80"}})
	require.NoError(t, err)
	assert.Len(t, cfg.PortBindings(), 2)
	assert.Equal(t, []ExposedPort{{TCP, 80}}, cfg.ExposedPorts())
}

func TestResolveIsAllOrNothing(t *testing.T) {
	r, counter := newTestResolver()

	cfg, err := r.Resolve(Request{
		Ports:   []string{"8080:80"},
		Volumes: []string{"/data:/var/data:bogus"},
	})
	require.ErrorIs(t, err, ErrParse)
	assert.Nil(t, cfg)
	// parse errors abort before any allocation
	assert.Equal(t, uint32(0), counter.Value())

	cfg, err = r.Resolve(Request{Ports: []string{"7000+:80", "0+:81"}})
	require.ErrorIs(t, err, ErrParse)
	assert.Nil(t, cfg)
	assert.Equal(t, uint32(0), counter.Value())
}

func TestResolveReleasesPortsOnAllocationFailure(t *testing.T) {
	never := ports.ProbeFunc(func(_ string, port int) bool { return port == 7000 })
	allocator := ports.NewAllocator(
		ports.WithProber(never),
		ports.WithMaxAttempts(3),
		ports.WithLogger(logger.New(&bytes.Buffer{})),
	)
	r := NewResolver(allocator, nil)

	_, err := r.Resolve(Request{Ports: []string{"7000+:80", "9000+:81"}})
	require.ErrorIs(t, err, ports.ErrExhausted)

	// 7000 was handed back, so a fresh counter can claim it again
	var c ports.Counter
	port, err := allocator.Allocate("tcp", 7000, &c)
	require.NoError(t, err)
	assert.Equal(t, uint16(7000), port)
}

func TestResolveLinkTarget(t *testing.T) {
	allocator := ports.NewAllocator(ports.WithLogger(logger.New(&bytes.Buffer{})))
	r := NewResolver(allocator, nil, WithLinkTarget(func(name string) string {
		return "tb-1234-" + name
	}))

	cfg, err := r.Resolve(Request{Links: []string{"db:database"}})
	require.NoError(t, err)
	assert.Equal(t, []LinkBinding{{Target: "tb-1234-db", Alias: "database"}}, cfg.Links())
}

func TestResolveExpandsHomeInVolumes(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	r, _ := newTestResolver()

	cfg, err := r.Resolve(Request{Volumes: []string{"~/cache:/cache"}})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "cache"), cfg.Volumes()[0].HostPath)
}

func TestResolveAnchorsRelativeBindSources(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	r, _ := newTestResolver()

	cfg, err := r.Resolve(Request{Volumes: []string{"data/sub:/x", "pgdata:/var/lib/postgresql/data"}})
	require.NoError(t, err)

	volumes := cfg.Volumes()
	require.Len(t, volumes, 2)
	assert.Equal(t, filepath.Join(wd, "data", "sub"), volumes[0].HostPath)
	assert.False(t, volumes[0].Named())
	assert.Equal(t, "pgdata", volumes[1].HostPath)
	assert.True(t, volumes[1].Named())
}

func TestRuntimeConfigAccessorsReturnCopies(t *testing.T) {
	r, _ := newTestResolver()
	cfg, err := r.Resolve(Request{Ports: []string{"8080:80"}, Cmd: []string{"run"}})
	require.NoError(t, err)

	bindings := cfg.PortBindings()
	bindings[0].HostPort = 1
	cmd := cfg.Cmd()
	cmd[0] = "changed"

	assert.Equal(t, uint16(8080), cfg.PortBindings()[0].HostPort)
	assert.Equal(t, []string{"run"}, cfg.Cmd())
}

func TestRuntimeConfigMarshalYAML(t *testing.T) {
	r, _ := newTestResolver()
	cfg, err := r.Resolve(Request{
		Ports:   []string{"8080:80", "53/udp"},
		Volumes: []string{"/data:/var/data:ro"},
		Links:   []string{"web:webalias"},
	})
	require.NoError(t, err)

	out, err := yaml.Marshal(cfg)
	require.NoError(t, err)

	var decoded map[string][]string
	require.NoError(t, yaml.Unmarshal(out, &decoded))
	assert.Equal(t, []string{"8080:80/tcp", "53/udp"}, decoded["ports"])
	assert.Equal(t, []string{"80/tcp", "53/udp"}, decoded["exposed"])
	assert.Equal(t, []string{"/data:/var/data:ro"}, decoded["volumes"])
	assert.Equal(t, []string{"web:webalias"}, decoded["links"])
}

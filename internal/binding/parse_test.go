package binding

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePort(t *testing.T) {
	tests := []struct {
		input string
		want  PortSpec
	}{
		{"80", PortSpec{Protocol: TCP, ContainerPort: 80}},
		{"80/tcp", PortSpec{Protocol: TCP, ContainerPort: 80}},
		{"53/udp", PortSpec{Protocol: UDP, ContainerPort: 53}},
		{"8080:80", PortSpec{Protocol: TCP, ContainerPort: 80, HostPort: 8080, HostRequested: true}},
		{"53:53/udp", PortSpec{Protocol: UDP, ContainerPort: 53, HostPort: 53, HostRequested: true}},
		{"8080:80/tcp", PortSpec{Protocol: TCP, ContainerPort: 80, HostPort: 8080, HostRequested: true}},
		{"8080+:80", PortSpec{Protocol: TCP, ContainerPort: 80, HostBase: 8080, Dynamic: true, HostRequested: true}},
		{"5000+:53/udp", PortSpec{Protocol: UDP, ContainerPort: 53, HostBase: 5000, Dynamic: true, HostRequested: true}},
		{"  9000:9000  ", PortSpec{Protocol: TCP, ContainerPort: 9000, HostPort: 9000, HostRequested: true}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParsePort(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			again, err := ParsePort(tt.input)
			require.NoError(t, err)
			assert.Equal(t, got, again)
		})
	}
}

func TestParsePortErrors(t *testing.T) {
	tests := []string{
		"",
		"http",
		"0",
		"65536",
		"80/sctp",
		"0+:80",
		"+:80",
		":80",
		"8080:",
		"abc:80",
		"8080:abc",
		"127.0.0.1:8080:80",
		"8080++:80",
		"-1:80",
	}

	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			_, err := ParsePort(input)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrParse))

			var parseErr *ParseError
			require.True(t, errors.As(err, &parseErr))
			assert.Equal(t, KindPort, parseErr.Kind)
			assert.Equal(t, input, parseErr.Spec)
		})
	}
}

func TestParseVolume(t *testing.T) {
	tests := []struct {
		input string
		want  VolumeBinding
	}{
		{"/host:/container", VolumeBinding{HostPath: "/host", ContainerPath: "/container", Mode: ReadWrite}},
		{"/host:/container:ro", VolumeBinding{HostPath: "/host", ContainerPath: "/container", Mode: ReadOnly}},
		{"/host:/container:rw", VolumeBinding{HostPath: "/host", ContainerPath: "/container", Mode: ReadWrite}},
		{"pgdata:/var/lib/postgresql/data", VolumeBinding{HostPath: "pgdata", ContainerPath: "/var/lib/postgresql/data", Mode: ReadWrite}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseVolume(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseVolumeErrors(t *testing.T) {
	tests := []string{
		"/host",
		":/container",
		"/host:",
		"/host::ro",
		"/host:/container:rx",
		"/host:/container:ro:extra",
	}

	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			_, err := ParseVolume(input)
			require.ErrorIs(t, err, ErrParse)
		})
	}
}

func TestVolumeBindingString(t *testing.T) {
	assert.Equal(t, "/data:/var/data:ro", VolumeBinding{HostPath: "/data", ContainerPath: "/var/data", Mode: ReadOnly}.String())
	assert.Equal(t, "/data:/var/data", VolumeBinding{HostPath: "/data", ContainerPath: "/var/data", Mode: ReadWrite}.String())
}

func TestVolumeBindingNamed(t *testing.T) {
	assert.True(t, VolumeBinding{HostPath: "pgdata"}.Named())
	assert.False(t, VolumeBinding{HostPath: "/srv/data"}.Named())
	assert.False(t, VolumeBinding{HostPath: "~/data"}.Named())
	assert.False(t, VolumeBinding{HostPath: "./data"}.Named())
	assert.False(t, VolumeBinding{HostPath: "data/sub"}.Named())
	assert.False(t, VolumeBinding{HostPath: ""}.Named())
}

func TestParseLink(t *testing.T) {
	got, err := ParseLink("db:database")
	require.NoError(t, err)
	assert.Equal(t, LinkBinding{Target: "db", Alias: "database"}, got)

	got, err = ParseLink("web:webalias")
	require.NoError(t, err)
	assert.Equal(t, "web:webalias", got.String())

	got, err = ParseLink("a:b:c")
	require.NoError(t, err)
	assert.Equal(t, LinkBinding{Target: "a", Alias: "b:c"}, got)
}

func TestParseLinkErrors(t *testing.T) {
	for _, input := range []string{"db", ":database", "db:", ""} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseLink(input)
			require.ErrorIs(t, err, ErrParse)
		})
	}
}

func TestParseEnv(t *testing.T) {
	got, err := ParseEnv("POSTGRES_PASSWORD=secret")
	require.NoError(t, err)
	assert.Equal(t, EnvVar{Key: "POSTGRES_PASSWORD", Value: "secret"}, got)

	got, err = ParseEnv("OPTS=a=b")
	require.NoError(t, err)
	assert.Equal(t, "a=b", got.Value)

	got, err = ParseEnv("EMPTY=")
	require.NoError(t, err)
	assert.Equal(t, "", got.Value)

	_, err = ParseEnv("NOVALUE")
	assert.ErrorIs(t, err, ErrParse)

	_, err = ParseEnv("=value")
	assert.ErrorIs(t, err, ErrParse)
}

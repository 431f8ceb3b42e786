// Package config loads scenario definitions from YAML files.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/rickgorman/testbed/internal/binding"
	"github.com/rickgorman/testbed/internal/ports"
	"github.com/rickgorman/testbed/internal/scenario"
	"github.com/rickgorman/testbed/pkg/hash"
)

// DefaultFile is looked up in the working directory when no file is given.
const DefaultFile = "testbed.yaml"

// File is a loaded scenario definition.
type File struct {
	Name            string      `yaml:"name"`
	Prefix          string      `yaml:"prefix"`
	MaxPortAttempts int         `yaml:"max_port_attempts"`
	CreateHostPaths bool        `yaml:"create_host_paths"`
	Containers      []Container `yaml:"containers"`

	// Path is the file the definition was read from.
	Path string `yaml:"-"`
	// Fingerprint digests the file and its env files.
	Fingerprint string `yaml:"-"`
}

// Container is one entry under containers.
type Container struct {
	Name       string   `yaml:"name"`
	Image      string   `yaml:"image"`
	Ports      []string `yaml:"ports"`
	Volumes    []string `yaml:"volumes"`
	Env        []string `yaml:"env"`
	EnvFile    string   `yaml:"env_file"`
	Links      []string `yaml:"links"`
	Cmd        []string `yaml:"cmd"`
	Entrypoint []string `yaml:"entrypoint"`
	Logs       Logs     `yaml:"logs"`
}

// Logs mirrors scenario.LogSpec.
type Logs struct {
	Print   bool          `yaml:"print"`
	Capture bool          `yaml:"capture"`
	WaitFor string        `yaml:"wait_for"`
	Timeout time.Duration `yaml:"timeout"`
}

// Load reads and validates a scenario file. Env files and relative
// host paths are resolved against the file's directory.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario: %w", err)
	}

	f := &File{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(f); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	f.Path = path
	if f.Name == "" {
		f.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if err := f.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	dir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, err
	}

	combined := bytes.NewBuffer(data)
	for i := range f.Containers {
		c := &f.Containers[i]
		if c.EnvFile != "" {
			envPath := resolveRelative(dir, binding.ExpandPath(c.EnvFile))
			raw, err := os.ReadFile(envPath)
			if err != nil {
				return nil, fmt.Errorf("container %s: failed to read env file: %w", c.Name, err)
			}
			combined.Write(raw)

			env, err := godotenv.UnmarshalBytes(raw)
			if err != nil {
				return nil, fmt.Errorf("container %s: failed to parse env file %s: %w", c.Name, c.EnvFile, err)
			}
			c.Env = append(envEntries(env), c.Env...)
			c.EnvFile = envPath
		}

		for j, v := range c.Volumes {
			c.Volumes[j] = resolveVolume(dir, v)
		}
	}

	f.Fingerprint = hash.Fingerprint(combined.Bytes())
	return f, nil
}

func (f *File) validate() error {
	if len(f.Containers) == 0 {
		return errors.New("no containers defined")
	}
	if f.MaxPortAttempts < 0 {
		return fmt.Errorf("max_port_attempts must not be negative, got %d", f.MaxPortAttempts)
	}

	seen := make(map[string]bool, len(f.Containers))
	for i, c := range f.Containers {
		if c.Name == "" {
			return fmt.Errorf("container #%d has no name", i+1)
		}
		if c.Image == "" {
			return fmt.Errorf("container %s has no image", c.Name)
		}
		if seen[c.Name] {
			return fmt.Errorf("container %s defined twice", c.Name)
		}
		seen[c.Name] = true
	}
	return nil
}

// Specs converts the containers into scenario declarations.
func (f *File) Specs() []scenario.ContainerSpec {
	specs := make([]scenario.ContainerSpec, 0, len(f.Containers))
	for _, c := range f.Containers {
		specs = append(specs, scenario.ContainerSpec{
			Name:       c.Name,
			Image:      c.Image,
			Ports:      c.Ports,
			Volumes:    c.Volumes,
			Links:      c.Links,
			Env:        c.Env,
			Cmd:        c.Cmd,
			Entrypoint: c.Entrypoint,
			Logs: scenario.LogSpec{
				Print:   c.Logs.Print,
				Capture: c.Logs.Capture,
				WaitFor: c.Logs.WaitFor,
				Timeout: c.Logs.Timeout,
			},
		})
	}
	return specs
}

// Scenario builds a scenario with every container declared.
func (f *File) Scenario(l *log.Logger, opts ...scenario.Option) (*scenario.Scenario, error) {
	allocatorOpts := []ports.Option{ports.WithLogger(l)}
	if f.MaxPortAttempts > 0 {
		allocatorOpts = append(allocatorOpts, ports.WithMaxAttempts(f.MaxPortAttempts))
	}

	base := []scenario.Option{
		scenario.WithPrefix(f.Prefix),
		scenario.WithFingerprint(f.Fingerprint),
		scenario.WithCreateHostPaths(f.CreateHostPaths),
		scenario.WithAllocator(ports.NewAllocator(allocatorOpts...)),
		scenario.WithLogger(l),
	}
	s := scenario.New(f.Name, append(base, opts...)...)
	if err := s.Declare(f.Specs()...); err != nil {
		return nil, err
	}
	return s, nil
}

func envEntries(env map[string]string) []string {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	entries := make([]string, 0, len(keys))
	for _, k := range keys {
		entries = append(entries, k+"="+env[k])
	}
	return entries
}

// resolveVolume anchors a relative host path to dir. Named volumes,
// absolute and home paths are left alone.
func resolveVolume(dir, raw string) string {
	host, rest, ok := strings.Cut(raw, ":")
	if !ok || !isRelative(host) {
		return raw
	}
	return resolveRelative(dir, host) + ":" + rest
}

func resolveRelative(dir, path string) string {
	if filepath.IsAbs(path) || strings.HasPrefix(path, "~") {
		return path
	}
	return filepath.Join(dir, path)
}

func isRelative(host string) bool {
	return host == "." || host == ".." ||
		strings.HasPrefix(host, "./") || strings.HasPrefix(host, "../")
}

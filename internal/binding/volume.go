package binding

import (
	"os"
	"path/filepath"
	"strings"
)

// AccessMode is the mount mode of a volume binding.
type AccessMode string

const (
	ReadWrite AccessMode = "rw"
	ReadOnly  AccessMode = "ro"
)

// VolumeBinding maps a host path or named volume into the container.
type VolumeBinding struct {
	HostPath      string
	ContainerPath string
	Mode          AccessMode
}

// Named reports whether HostPath names a Docker volume instead of a
// host directory. Volume names never contain a slash.
func (v VolumeBinding) Named() bool {
	return v.HostPath != "" &&
		!strings.ContainsRune(v.HostPath, '/') &&
		!strings.HasPrefix(v.HostPath, "~") &&
		!strings.HasPrefix(v.HostPath, ".")
}

// String renders the binding in Docker bind format ("src:dst" or "src:dst:ro").
func (v VolumeBinding) String() string {
	s := v.HostPath + ":" + v.ContainerPath
	if v.Mode == ReadOnly {
		s += ":ro"
	}
	return s
}

// ParseVolume parses "HOSTPATH:CONTAINERPATH[:ro|:rw]".
// A missing mode means read-write; any other mode token is rejected.
func ParseVolume(raw string) (VolumeBinding, error) {
	s := strings.TrimSpace(raw)

	src, rest, ok := strings.Cut(s, ":")
	if !ok {
		return VolumeBinding{}, parseErr(KindVolume, raw, "missing container path")
	}

	vol := VolumeBinding{HostPath: src, ContainerPath: rest, Mode: ReadWrite}

	if trg, mode, hasMode := strings.Cut(rest, ":"); hasMode {
		vol.ContainerPath = trg
		switch AccessMode(mode) {
		case ReadOnly:
			vol.Mode = ReadOnly
		case ReadWrite:
			vol.Mode = ReadWrite
		default:
			return VolumeBinding{}, parseErr(KindVolume, raw, "unknown access mode %q", mode)
		}
	}

	if vol.HostPath == "" {
		return VolumeBinding{}, parseErr(KindVolume, raw, "empty host path")
	}
	if vol.ContainerPath == "" {
		return VolumeBinding{}, parseErr(KindVolume, raw, "empty container path")
	}

	return vol, nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}

	if path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return home
	}

	return path
}

// hostPath expands ~ and makes relative bind mount sources absolute,
// since Docker only accepts absolute paths for binds.
func hostPath(v VolumeBinding) string {
	p := ExpandPath(v.HostPath)
	if v.Named() || filepath.IsAbs(p) {
		return p
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return p
	}
	return abs
}

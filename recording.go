package main

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Recording describes a single audio recording shown on the detail screen.
// It is created by the caller before the screen opens and is never modified
// by the controller.
type Recording struct {
	Name      string
	CreatedAt time.Time
	Location  string // file:// URI or plain local path

	// KnownDuration is a previously stored duration in seconds, nil when unknown
	KnownDuration *float64
}

// knownDuration returns the stored duration and whether it is usable.
// Negative and NaN values are treated as absent.
func (r Recording) knownDuration() (float64, bool) {
	if r.KnownDuration == nil {
		return 0, false
	}
	d := *r.KnownDuration
	if math.IsNaN(d) || math.IsInf(d, 0) || d < 0 {
		return 0, false
	}
	return d, true
}

// sidecarMeta is the optional <file>.yaml stored next to a recording
type sidecarMeta struct {
	Name      string    `yaml:"name"`
	CreatedAt time.Time `yaml:"created_at"`
	Duration  *float64  `yaml:"duration"`
}

// localPath resolves a file:// URI or plain path to a filesystem path
func localPath(location string) (string, error) {
	if location == "" {
		return "", errors.New("empty location")
	}
	if !strings.Contains(location, "://") {
		return location, nil
	}

	u, err := url.Parse(location)
	if err != nil {
		return "", fmt.Errorf("invalid location %q: %w", location, err)
	}
	if u.Scheme != "file" {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedScheme, u.Scheme)
	}
	if u.Path == "" {
		return "", fmt.Errorf("invalid location %q: empty path", location)
	}
	return u.Path, nil
}

// loadSidecar reads <path>.yaml if present. A missing file is not an error.
func loadSidecar(path string) (*sidecarMeta, error) {
	data, err := os.ReadFile(path + ".yaml")
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read sidecar: %w", err)
	}

	var meta sidecarMeta
	if err := yaml.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse sidecar: %w", err)
	}
	return &meta, nil
}

// newRecording builds a descriptor for the file at path. Values are layered:
// file name and mtime first, then the sidecar, then explicit overrides.
func newRecording(path string, name string, knownDuration *float64) (Recording, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Recording{}, fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	rec := Recording{
		Name:     strings.TrimSuffix(filepath.Base(abs), filepath.Ext(abs)),
		Location: (&url.URL{Scheme: "file", Path: abs}).String(),
	}

	if info, err := os.Stat(abs); err == nil {
		rec.CreatedAt = info.ModTime()
	}

	meta, err := loadSidecar(abs)
	if err != nil {
		// Sidecar problems only cost us the extra metadata
		logger.Warn().Err(err).Str("path", abs).Msg("ignoring recording sidecar")
	} else if meta != nil {
		if meta.Name != "" {
			rec.Name = meta.Name
		}
		if !meta.CreatedAt.IsZero() {
			rec.CreatedAt = meta.CreatedAt
		}
		if meta.Duration != nil {
			rec.KnownDuration = meta.Duration
		}
	}

	if name != "" {
		rec.Name = name
	}
	if knownDuration != nil {
		rec.KnownDuration = knownDuration
	}

	return rec, nil
}

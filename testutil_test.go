package main

import (
	"context"
	"image"
	"image/color"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// generateTestImage creates a simple test image with specified dimensions and colors
func generateTestImage(width, height int, fillColor color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, fillColor)
		}
	}
	return img
}

// generateGradientImage creates a gradient test image for color extraction testing
func generateGradientImage(width, height int, startColor, endColor color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))

	for y := 0; y < height; y++ {
		ratio := float64(y) / float64(height)
		r := uint8(float64(startColor.R)*(1-ratio) + float64(endColor.R)*ratio)
		g := uint8(float64(startColor.G)*(1-ratio) + float64(endColor.G)*ratio)
		b := uint8(float64(startColor.B)*(1-ratio) + float64(endColor.B)*ratio)

		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{r, g, b, 255})
		}
	}

	return img
}

// assertNoError is a test helper that fails the test if an error occurred
func assertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
}

// assertEqual is a generic test helper for comparing values
func assertEqual(t *testing.T, got, want interface{}, msg string) {
	t.Helper()
	if got != want {
		t.Errorf("%s: got %v, want %v", msg, got, want)
	}
}

// isValidHexColor checks if a string is a valid hex color (e.g., "#RRGGBB")
func isValidHexColor(color string) bool {
	if len(color) != 7 || color[0] != '#' {
		return false
	}
	for i := 1; i < 7; i++ {
		c := color[i]
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')) {
			return false
		}
	}
	return true
}

// defaultTestConfig returns a config with every field at its valid default
func defaultTestConfig() Config {
	var cfg Config
	cfg.UI.Color = defaultColor
	cfg.UI.ColorMode = "manual"
	cfg.UI.MaxWidth = defaultMaxWidth
	cfg.UI.DateFormat = defaultDateFormat
	cfg.Artwork.Enabled = true
	cfg.Artwork.Padding = defaultPadding
	cfg.Artwork.WidthPixels = defaultWidthPixels
	cfg.Artwork.WidthColumns = defaultWidthColumns
	cfg.Text.MaxLengthWithArt = defaultMaxLenWithArt
	cfg.Text.MaxLengthNoArt = defaultMaxLenNoArt
	cfg.Timing.UIRefreshMs = defaultUIRefreshMs
	cfg.Timing.RestartDelayMs = defaultRestartDelayMs
	cfg.Timing.ProbeTimeoutMs = defaultProbeTimeoutMs
	return cfg
}

// writeTestWAV writes a silent 16-bit mono WAV of the given length and returns its path
func writeTestWAV(t *testing.T, dir, name string, sampleRate, samples int) string {
	t.Helper()

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	assertNoError(t, err)
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           make([]int, samples),
		SourceBitDepth: 16,
	}
	assertNoError(t, enc.Write(buf))
	assertNoError(t, enc.Close())
	return path
}

// writeTestFile writes arbitrary bytes, used for corrupt or unsupported files
func writeTestFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	assertNoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func fileURI(path string) string {
	return (&url.URL{Scheme: "file", Path: path}).String()
}

func float64Ptr(f float64) *float64 {
	return &f
}

// waitFor polls cond until it is true or the timeout passes
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

// fakeService records commands and lets tests flip the playing state
// as another screen sharing the service would
type fakeService struct {
	mu        sync.Mutex
	playing   bool
	uri       string
	playCalls []string
	stopCalls int
	playErr   error
	stopErr   error
}

func (s *fakeService) IsPlaying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

func (s *fakeService) CurrentURI() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uri
}

func (s *fakeService) Play(uri string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playCalls = append(s.playCalls, uri)
	if s.playErr != nil {
		return s.playErr
	}
	s.playing = true
	s.uri = uri
	return nil
}

func (s *fakeService) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopCalls++
	if s.stopErr != nil {
		return s.stopErr
	}
	s.playing = false
	s.uri = ""
	return nil
}

func (s *fakeService) setPlaying(playing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playing = playing
}

func (s *fakeService) counts() (plays, stops int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.playCalls), s.stopCalls
}

// fakeProber returns a fixed result, optionally blocking until release is closed
type fakeProber struct {
	duration time.Duration
	err      error
	started  chan struct{}
	release  chan struct{}
}

func (p *fakeProber) Probe(ctx context.Context, uri string) (time.Duration, error) {
	if p.started != nil {
		close(p.started)
	}
	if p.release != nil {
		select {
		case <-p.release:
		case <-ctx.Done():
			return 0, &ProbeError{URI: uri, Err: ctx.Err()}
		}
	}
	if p.err != nil {
		return 0, &ProbeError{URI: uri, Err: p.err}
	}
	return p.duration, nil
}

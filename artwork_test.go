package main

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeTestPNG encodes img as PNG at dir/name and returns its path
func writeTestPNG(t testing.TB, dir, name string, img image.Image) string {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode test image: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("Failed to write test image: %v", err)
	}
	return path
}

// TestFindArtwork tests the lookup order next to the recording
func TestFindArtwork(t *testing.T) {
	img := generateTestImage(10, 10, color.RGBA{255, 0, 0, 255})

	t.Run("named after recording wins", func(t *testing.T) {
		dir := t.TempDir()
		audio := filepath.Join(dir, "memo.wav")
		want := writeTestPNG(t, dir, "memo.png", img)
		writeTestPNG(t, dir, "cover.png", img)

		got, err := findArtwork(audio)
		assertNoError(t, err)
		assertEqual(t, got, want, "artwork path")
	})

	t.Run("cover before folder", func(t *testing.T) {
		dir := t.TempDir()
		audio := filepath.Join(dir, "memo.wav")
		writeTestPNG(t, dir, "folder.png", img)
		want := writeTestPNG(t, dir, "cover.png", img)

		got, err := findArtwork(audio)
		assertNoError(t, err)
		assertEqual(t, got, want, "artwork path")
	})

	t.Run("directory named like an image is skipped", func(t *testing.T) {
		dir := t.TempDir()
		audio := filepath.Join(dir, "memo.wav")
		assertNoError(t, os.Mkdir(filepath.Join(dir, "memo.jpg"), 0o755))
		want := writeTestPNG(t, dir, "folder.png", img)

		got, err := findArtwork(audio)
		assertNoError(t, err)
		assertEqual(t, got, want, "artwork path")
	})

	t.Run("nothing found", func(t *testing.T) {
		dir := t.TempDir()
		_, err := findArtwork(filepath.Join(dir, "memo.wav"))
		if !errors.Is(err, errNoArtwork) {
			t.Errorf("Expected errNoArtwork, got %v", err)
		}
	})
}

// TestDecodeArtworkData tests the decodeArtworkData function
func TestDecodeArtworkData(t *testing.T) {
	testImg := generateTestImage(10, 10, color.RGBA{255, 0, 0, 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, testImg); err != nil {
		t.Fatalf("Failed to encode test image: %v", err)
	}

	t.Run("raw bytes", func(t *testing.T) {
		img, err := decodeArtworkData(buf.Bytes())
		assertNoError(t, err)
		if img == nil {
			t.Error("Expected non-nil image")
		}
	})

	t.Run("empty data", func(t *testing.T) {
		if _, err := decodeArtworkData([]byte{}); err == nil {
			t.Error("Expected error for empty data")
		}
	})

	t.Run("invalid data", func(t *testing.T) {
		if _, err := decodeArtworkData([]byte("not an image")); err == nil {
			t.Error("Expected error for invalid data")
		}
	})
}

// TestExtractDominantColor tests the extractDominantColor function
func TestExtractDominantColor(t *testing.T) {
	t.Run("solid color image", func(t *testing.T) {
		img := generateTestImage(100, 100, color.RGBA{255, 0, 0, 255})
		c, err := extractDominantColor(img)
		assertNoError(t, err)
		assertEqual(t, c, "#ff0000", "dominant color")
	})

	t.Run("gradient image", func(t *testing.T) {
		img := generateGradientImage(100, 100,
			color.RGBA{0, 0, 255, 255},
			color.RGBA{0, 255, 0, 255})

		c, err := extractDominantColor(img)
		assertNoError(t, err)
		if !isValidHexColor(c) {
			t.Errorf("Invalid hex color format: %s", c)
		}
	})

	t.Run("small image", func(t *testing.T) {
		img := generateTestImage(5, 5, color.RGBA{128, 128, 255, 255})
		c, err := extractDominantColor(img)
		assertNoError(t, err)
		if !isValidHexColor(c) {
			t.Errorf("Invalid hex color format: %s", c)
		}
	})

	t.Run("nil image", func(t *testing.T) {
		if _, err := extractDominantColor(nil); err == nil {
			t.Error("Expected error for nil image")
		}
	})

	t.Run("grey image falls back to k-means", func(t *testing.T) {
		img := generateTestImage(50, 50, color.RGBA{128, 128, 128, 255})
		c, err := extractDominantColor(img)
		if err != nil {
			t.Logf("Grey image returned error: %v", err)
			return
		}
		if !isValidHexColor(c) {
			t.Errorf("Invalid hex color format: %s", c)
		}
	})
}

// TestEncodeArtworkForKitty tests the encodeArtworkForKitty function
func TestEncodeArtworkForKitty(t *testing.T) {
	t.Run("valid image", func(t *testing.T) {
		img := generateTestImage(50, 50, color.RGBA{100, 150, 200, 255})
		encoded, err := encodeArtworkForKitty(img, 100, 10)
		assertNoError(t, err)

		if !strings.HasPrefix(encoded, "\033_Ga=d,d=I,i=42\033\\") {
			t.Error("Encoded string should start by deleting the previous placement")
		}
		if !strings.Contains(encoded, "c=10") {
			t.Error("Encoded string should size the image in columns")
		}
	})

	t.Run("nil image", func(t *testing.T) {
		if _, err := encodeArtworkForKitty(nil, 100, 10); err == nil {
			t.Error("Expected error for nil image")
		}
	})

	t.Run("large image chunks", func(t *testing.T) {
		img := generateGradientImage(800, 800,
			color.RGBA{255, 0, 0, 255},
			color.RGBA{0, 0, 255, 255})
		encoded, err := encodeArtworkForKitty(img, 600, 20)
		assertNoError(t, err)

		if !strings.Contains(encoded, "m=1") {
			t.Log("Large image did not trigger chunking (depends on PNG compression)")
			return
		}
		if !strings.Contains(encoded, "\033_Gm=0;") {
			t.Error("Chunked image should end with a final m=0 chunk")
		}
	})
}

// TestProcessArtwork tests the combined processArtwork function
func TestProcessArtwork(t *testing.T) {
	cfg := defaultTestConfig()
	cfg.Artwork.WidthPixels = 100
	cfg.Artwork.WidthColumns = 10

	dir := t.TempDir()
	audio := filepath.Join(dir, "interview.wav")
	writeTestPNG(t, dir, "cover.png", generateTestImage(50, 50, color.RGBA{100, 150, 200, 255}))

	t.Run("color and encoding", func(t *testing.T) {
		c, encoded, err := processArtwork(audio, true, true, cfg)
		assertNoError(t, err)
		if !isValidHexColor(c) {
			t.Errorf("Invalid hex color: %s", c)
		}
		if encoded == "" {
			t.Error("Expected non-empty encoded string")
		}
	})

	t.Run("color only", func(t *testing.T) {
		c, encoded, err := processArtwork(audio, true, false, cfg)
		assertNoError(t, err)
		if c == "" {
			t.Error("Expected a color")
		}
		assertEqual(t, encoded, "", "encoded")
	})

	t.Run("encoding only", func(t *testing.T) {
		c, encoded, err := processArtwork(audio, false, true, cfg)
		assertNoError(t, err)
		assertEqual(t, c, "", "color")
		if encoded == "" {
			t.Error("Expected non-empty encoded string")
		}
	})

	t.Run("no artwork", func(t *testing.T) {
		_, _, err := processArtwork(filepath.Join(t.TempDir(), "x.wav"), true, true, cfg)
		if !errors.Is(err, errNoArtwork) {
			t.Errorf("Expected errNoArtwork, got %v", err)
		}
	})

	t.Run("corrupt artwork", func(t *testing.T) {
		bad := t.TempDir()
		writeTestFile(t, bad, "cover.jpg", []byte("not an image"))
		if _, _, err := processArtwork(filepath.Join(bad, "x.wav"), true, true, cfg); err == nil {
			t.Error("Expected error for corrupt artwork")
		}
	})
}

// TestSupportsKittyGraphics tests terminal detection
func TestSupportsKittyGraphics(t *testing.T) {
	tests := []struct {
		name          string
		term          string
		termProgram   string
		shouldSupport bool
	}{
		{"kitty terminal", "xterm-kitty", "", true},
		{"kitty in name", "kitty", "", true},
		{"konsole", "konsole", "", true},
		{"ghostty", "", "ghostty", true},
		{"wezterm", "", "WezTerm", true},
		{"xterm", "xterm-256color", "", false},
		{"tmux", "tmux-256color", "", false},
		{"unknown", "unknown", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TERM", tt.term)
			t.Setenv("TERM_PROGRAM", tt.termProgram)

			result := supportsKittyGraphics()
			if result != tt.shouldSupport {
				t.Errorf("Expected %v, got %v for TERM=%s, TERM_PROGRAM=%s",
					tt.shouldSupport, result, tt.term, tt.termProgram)
			}
		})
	}
}

// BenchmarkExtractDominantColor benchmarks color extraction
func BenchmarkExtractDominantColor(b *testing.B) {
	img := generateTestImage(300, 300, color.RGBA{100, 150, 200, 255})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		extractDominantColor(img)
	}
}

// BenchmarkProcessArtwork benchmarks loading cover art from disk
func BenchmarkProcessArtwork(b *testing.B) {
	cfg := defaultTestConfig()
	dir := b.TempDir()
	writeTestPNG(b, dir, "cover.png", generateTestImage(300, 300, color.RGBA{100, 150, 200, 255}))
	audio := filepath.Join(dir, "memo.wav")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		processArtwork(audio, true, true, cfg)
	}
}

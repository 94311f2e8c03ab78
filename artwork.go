package main

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/EdlinOrg/prominentcolor"
	"github.com/nfnt/resize"
	_ "golang.org/x/image/webp"
)

var errNoArtwork = errors.New("no artwork found")

var artworkExts = []string{".jpg", ".jpeg", ".png", ".webp"}

// findArtwork looks for a cover image next to the recording: first one named
// after the file (memo.m4a -> memo.jpg), then cover.* or folder.* in the same
// directory
func findArtwork(audioPath string) (string, error) {
	dir := filepath.Dir(audioPath)
	stem := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))

	for _, base := range []string{stem, "cover", "folder"} {
		for _, ext := range artworkExts {
			candidate := filepath.Join(dir, base+ext)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate, nil
			}
		}
	}
	return "", errNoArtwork
}

// decodeArtworkData decodes raw image bytes into an image.Image
func decodeArtworkData(imgData []byte) (image.Image, error) {
	if len(imgData) == 0 {
		return nil, fmt.Errorf("empty image data")
	}

	img, _, err := image.Decode(bytes.NewReader(imgData))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	return img, nil
}

// Extract dominant color from image and convert to hex
// Uses a sampling approach to find vibrant, light colors suitable for dark backgrounds
func extractDominantColor(img image.Image) (string, error) {
	if img == nil {
		return "", fmt.Errorf("nil image")
	}

	bounds := img.Bounds()

	// Sample every 5th pixel
	colorMap := make(map[uint32]int)
	const sampleRate = 5

	for y := bounds.Min.Y; y < bounds.Max.Y; y += sampleRate {
		for x := bounds.Min.X; x < bounds.Max.X; x += sampleRate {
			r, g, b, a := img.At(x, y).RGBA()
			if a < 32768 {
				continue
			}
			rgb := (uint32(r>>8) << 16) | (uint32(g>>8) << 8) | uint32(b>>8)
			colorMap[rgb]++
		}
	}

	type colorScore struct {
		rgb   uint32
		score float64
	}
	var candidates []colorScore

	for rgb, count := range colorMap {
		lightness, saturation := hsl(rgb)

		// Skip colors that are too dark, near-white or washed out
		if lightness < 0.3 || lightness > 0.85 || saturation < 0.25 {
			continue
		}

		lightnessScore := lightness
		if lightness > 0.7 {
			lightnessScore = 0.7 - (lightness - 0.7)
		}
		score := (saturation * 2.5) + (lightnessScore * 1.5) + (float64(count) / 1000.0)
		candidates = append(candidates, colorScore{rgb: rgb, score: score})
	}

	if len(candidates) == 0 {
		// Fallback: K-means when sampling found nothing readable
		colors, err := prominentcolor.Kmeans(img)
		if err != nil || len(colors) == 0 {
			return "", fmt.Errorf("no suitable colors found")
		}
		c := colors[0]
		return fmt.Sprintf("#%02x%02x%02x", c.Color.R, c.Color.G, c.Color.B), nil
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].rgb < candidates[j].rgb
	})

	best := candidates[0].rgb
	return fmt.Sprintf("#%02x%02x%02x", uint8(best>>16), uint8(best>>8), uint8(best)), nil
}

// hsl returns lightness and saturation of a packed RGB color
func hsl(rgb uint32) (lightness, saturation float64) {
	rf := float64(uint8(rgb>>16)) / 255.0
	gf := float64(uint8(rgb>>8)) / 255.0
	bf := float64(uint8(rgb)) / 255.0

	max := rf
	if gf > max {
		max = gf
	}
	if bf > max {
		max = bf
	}
	min := rf
	if gf < min {
		min = gf
	}
	if bf < min {
		min = bf
	}

	lightness = (max + min) / 2.0
	if max != min {
		if lightness > 0.5 {
			saturation = (max - min) / (2.0 - max - min)
		} else {
			saturation = (max - min) / (max + min)
		}
	}
	return lightness, saturation
}

// Check if terminal supports Kitty graphics protocol
func supportsKittyGraphics() bool {
	term := os.Getenv("TERM")
	termProgram := os.Getenv("TERM_PROGRAM")

	if strings.Contains(term, "kitty") || strings.Contains(term, "konsole") {
		return true
	}

	// Ghostty and WezTerm only identify themselves through TERM_PROGRAM
	if termProgram == "ghostty" || termProgram == "WezTerm" {
		return true
	}

	return false
}

// kittyImageID is fixed so each new placement replaces the previous one
const kittyImageID = 42

// kittyDeleteAll removes every placed image, used when artwork is hidden
const kittyDeleteAll = "\033_Ga=d,d=A\033\\"

// encodeArtworkForKitty resizes img and wraps it in Kitty graphics escapes,
// chunked at 4096 bytes of base64 as the protocol requires
func encodeArtworkForKitty(img image.Image, widthPixels, widthColumns int) (string, error) {
	if img == nil {
		return "", fmt.Errorf("nil image")
	}

	resized := resize.Resize(uint(widthPixels), 0, img, resize.Lanczos3)

	var buf bytes.Buffer
	if err := png.Encode(&buf, resized); err != nil {
		return "", fmt.Errorf("failed to encode PNG: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(buf.Bytes())

	const chunkSize = 4096
	var result strings.Builder

	result.WriteString(fmt.Sprintf("\033_Ga=d,d=I,i=%d\033\\", kittyImageID))

	if len(encoded) <= chunkSize {
		// Columns (c) instead of pixels keeps the size zoom-independent
		result.WriteString(fmt.Sprintf("\033_Ga=T,f=100,t=d,i=%d,c=%d,C=1;%s\033\\", kittyImageID, widthColumns, encoded))
		return result.String(), nil
	}

	for i := 0; i < len(encoded); i += chunkSize {
		end := i + chunkSize
		if end > len(encoded) {
			end = len(encoded)
		}
		chunk := encoded[i:end]

		switch {
		case i == 0:
			result.WriteString(fmt.Sprintf("\033_Ga=T,f=100,t=d,i=%d,c=%d,C=1,m=1;%s\033\\", kittyImageID, widthColumns, chunk))
		case end == len(encoded):
			result.WriteString(fmt.Sprintf("\033_Gm=0;%s\033\\", chunk))
		default:
			result.WriteString(fmt.Sprintf("\033_Gm=1;%s\033\\", chunk))
		}
	}

	return result.String(), nil
}

// processArtwork loads the recording's cover image once and returns the
// accent color (when requested) and the Kitty-encoded image (when requested)
func processArtwork(audioPath string, extractColor, encode bool, cfg Config) (color string, encoded string, err error) {
	imgPath, err := findArtwork(audioPath)
	if err != nil {
		return "", "", err
	}

	data, err := os.ReadFile(imgPath)
	if err != nil {
		return "", "", fmt.Errorf("failed to read artwork: %w", err)
	}

	img, err := decodeArtworkData(data)
	if err != nil {
		return "", "", err
	}

	if extractColor {
		if c, err := extractDominantColor(img); err == nil {
			color = c
		}
	}

	if encode {
		if enc, err := encodeArtworkForKitty(img, cfg.Artwork.WidthPixels, cfg.Artwork.WidthColumns); err == nil {
			encoded = enc
		}
	}

	return color, encoded, nil
}

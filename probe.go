package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-audio/wav"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/vorbis"
)

var (
	// ErrUnsupportedScheme is returned for locations that are not local files
	ErrUnsupportedScheme = errors.New("unsupported location scheme")
	// ErrUnsupportedFormat is returned for file extensions no decoder handles
	ErrUnsupportedFormat = errors.New("unsupported audio format")
)

// ProbeError reports that a recording's duration could not be read from its file
type ProbeError struct {
	URI string
	Err error
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("probe %s: %v", e.URI, e.Err)
}

func (e *ProbeError) Unwrap() error {
	return e.Err
}

// DurationProber reads the playable length of an audio resource
type DurationProber interface {
	Probe(ctx context.Context, uri string) (time.Duration, error)
}

// fileProber decodes local audio files to find their exact length
type fileProber struct{}

// NewDurationProber returns a prober for local WAV, MP3, FLAC and Ogg Vorbis files
func NewDurationProber() DurationProber {
	return fileProber{}
}

func (fileProber) Probe(ctx context.Context, uri string) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, &ProbeError{URI: uri, Err: err}
	}

	path, err := localPath(uri)
	if err != nil {
		return 0, &ProbeError{URI: uri, Err: err}
	}

	var d time.Duration
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav", ".wave":
		d, err = probeWAV(path)
	case ".mp3":
		d, err = probeBeep(path, func(f *os.File) (beep.StreamSeekCloser, beep.Format, error) {
			return mp3.Decode(f)
		})
	case ".flac":
		d, err = probeBeep(path, func(f *os.File) (beep.StreamSeekCloser, beep.Format, error) {
			return flac.Decode(f)
		})
	case ".ogg", ".oga":
		d, err = probeBeep(path, func(f *os.File) (beep.StreamSeekCloser, beep.Format, error) {
			return vorbis.Decode(f)
		})
	default:
		err = fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
	if err != nil {
		return 0, &ProbeError{URI: uri, Err: err}
	}
	// A decode that finished is kept even if ctx expired meanwhile
	return d, nil
}

// probeWAV computes the length from the PCM data chunk size, which avoids
// counting header bytes as audio
func probeWAV(path string) (time.Duration, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return 0, errors.New("invalid WAV file")
	}
	if err := dec.FwdToPCM(); err != nil {
		return 0, fmt.Errorf("failed to locate PCM data: %w", err)
	}

	bytesPerSec := int64(dec.SampleRate) * int64(dec.NumChans) * int64(dec.BitDepth/8)
	if bytesPerSec <= 0 {
		return 0, errors.New("invalid WAV format header")
	}

	pcm := dec.PCMLen()
	return time.Duration(float64(pcm) / float64(bytesPerSec) * float64(time.Second)), nil
}

// probeBeep opens path and asks a beep decoder for its sample count
func probeBeep(path string, decode func(*os.File) (beep.StreamSeekCloser, beep.Format, error)) (d time.Duration, err error) {
	// Some decoders panic on truncated input instead of returning an error
	defer func() {
		if r := recover(); r != nil {
			d, err = 0, fmt.Errorf("decoder panic: %v", r)
		}
	}()

	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	streamer, format, err := decode(f)
	if err != nil {
		return 0, fmt.Errorf("failed to decode: %w", err)
	}
	defer streamer.Close()

	if format.SampleRate <= 0 {
		return 0, errors.New("invalid sample rate")
	}
	return format.SampleRate.D(streamer.Len()), nil
}

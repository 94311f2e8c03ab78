package main

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DurationSource records which path produced the displayed duration
type DurationSource int

const (
	SourceNone  DurationSource = iota // nothing known, duration is 0
	SourceProbe                       // read from the audio file
	SourceKnown                       // fallback to the recording's stored duration
)

func (s DurationSource) String() string {
	switch s {
	case SourceProbe:
		return "probe"
	case SourceKnown:
		return "known"
	default:
		return "none"
	}
}

// defaultRestartDelay is how long SeekBackward waits between stop and play
const defaultRestartDelay = 100 * time.Millisecond

// Controller backs the recording detail screen. It resolves the duration to
// display and relays playback commands to the shared PlaybackService, whose
// state it never caches.
//
// The screen is either inactive or active. Activate moves it to active and
// resolves the duration; Deactivate moves it back and guarantees playback
// is stopped.
type Controller struct {
	svc          PlaybackService
	prober       DurationProber
	log          zerolog.Logger
	restartDelay time.Duration

	mu         sync.Mutex
	active     bool
	generation uint64 // bumped on every Activate and Deactivate
	duration   float64
	source     DurationSource
	resolved   bool

	// Pending restart scheduled by SeekBackward
	restart    *time.Timer
	restartSeq uint64
}

// NewController wires a screen controller to its collaborators.
// A non-positive restartDelay uses the 100ms default.
func NewController(svc PlaybackService, prober DurationProber, restartDelay time.Duration) *Controller {
	if restartDelay <= 0 {
		restartDelay = defaultRestartDelay
	}
	return &Controller{
		svc:          svc,
		prober:       prober,
		log:          componentLogger("controller"),
		restartDelay: restartDelay,
	}
}

// ResolveDuration returns the recording's length in seconds. The file probe
// wins; if it fails the stored duration is used, else 0. It never fails.
func (c *Controller) ResolveDuration(ctx context.Context, rec Recording) (float64, DurationSource) {
	d, err := c.prober.Probe(ctx, rec.Location)
	if err == nil {
		c.log.Debug().
			Str("location", rec.Location).
			Dur("duration", d).
			Msg("duration read from file")
		return d.Seconds(), SourceProbe
	}

	if known, ok := rec.knownDuration(); ok {
		c.log.Warn().Err(err).
			Str("location", rec.Location).
			Float64("known_duration", known).
			Msg("duration probe failed, using stored duration")
		return known, SourceKnown
	}

	c.log.Warn().Err(err).
		Str("location", rec.Location).
		Msg("duration probe failed, no stored duration")
	return 0, SourceNone
}

// Activate marks the screen active and resolves the duration once.
// If the screen is deactivated or reactivated while the probe runs, the
// result is dropped. Returns the duration on display afterwards.
func (c *Controller) Activate(ctx context.Context, rec Recording) float64 {
	c.mu.Lock()
	c.cancelRestartLocked()
	c.active = true
	c.generation++
	gen := c.generation
	c.duration = 0
	c.source = SourceNone
	c.resolved = false
	c.mu.Unlock()

	seconds, source := c.ResolveDuration(ctx, rec)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active || c.generation != gen || c.resolved {
		c.log.Debug().Str("location", rec.Location).Msg("dropping stale duration result")
		return c.duration
	}
	c.duration = seconds
	c.source = source
	c.resolved = true
	return c.duration
}

// Deactivate cancels any pending restart and stops playback if the service
// reports it is playing.
func (c *Controller) Deactivate() error {
	c.mu.Lock()
	c.cancelRestartLocked()
	c.active = false
	c.generation++
	c.duration = 0
	c.source = SourceNone
	c.resolved = false
	c.mu.Unlock()

	if c.svc.IsPlaying() {
		c.log.Debug().Str("location", c.svc.CurrentURI()).Msg("stopping playback on deactivate")
		return c.svc.Stop()
	}
	return nil
}

// TogglePlayback stops playback if the service is playing, otherwise plays rec
func (c *Controller) TogglePlayback(rec Recording) error {
	c.mu.Lock()
	c.cancelRestartLocked()
	c.mu.Unlock()

	if c.svc.IsPlaying() {
		return c.svc.Stop()
	}
	return c.svc.Play(rec.Location)
}

// SeekBackward approximates "restart from the beginning": it stops playback
// and plays rec again after the restart delay. It is not a real seek.
func (c *Controller) SeekBackward(rec Recording) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancelRestartLocked()
	if !c.active {
		return nil
	}

	if err := c.svc.Stop(); err != nil {
		return err
	}

	seq := c.restartSeq
	uri := rec.Location
	c.restart = time.AfterFunc(c.restartDelay, func() {
		c.fireRestart(seq, uri)
	})
	return nil
}

// SeekForward is reserved; the service has no transport controls for it yet
func (c *Controller) SeekForward(rec Recording) error {
	c.log.Debug().Str("location", rec.Location).Msg("seek forward not supported")
	return nil
}

// fireRestart runs on the timer goroutine. Play is issued under c.mu so a
// concurrent Deactivate either cancels it or sees the playback and stops it.
func (c *Controller) fireRestart(seq uint64, uri string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if seq != c.restartSeq || !c.active {
		return
	}
	c.restart = nil

	if err := c.svc.Play(uri); err != nil {
		c.log.Error().Err(err).Str("location", uri).Msg("restart after seek failed")
	}
}

func (c *Controller) cancelRestartLocked() {
	if c.restart != nil {
		c.restart.Stop()
		c.restart = nil
	}
	c.restartSeq++
}

// Duration returns the displayed duration in seconds (0 while loading)
func (c *Controller) Duration() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.duration
}

// Resolved reports whether the duration for the current activation is known
func (c *Controller) Resolved() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resolved
}

// Source reports how the current duration was obtained
func (c *Controller) Source() DurationSource {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.source
}

// Active reports whether the screen is currently shown
func (c *Controller) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// IsPlaying reads the shared service state
func (c *Controller) IsPlaying() bool {
	return c.svc.IsPlaying()
}

// RestartPending reports whether a SeekBackward restart is scheduled
func (c *Controller) RestartPending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.restart != nil
}

package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
)

// PlaybackService owns the actual playback state. The screen controller only
// reads it and issues commands.
type PlaybackService interface {
	IsPlaying() bool
	CurrentURI() string
	Play(uri string) error
	Stop() error
}

// commandPlayer implements PlaybackService by running an external player
// process (ffplay, afplay, mpv, ...) for the loaded file
type commandPlayer struct {
	argv []string

	mu   sync.Mutex
	cmd  *exec.Cmd
	uri  string
	done chan struct{} // closed when the running process has been reaped
}

// NewPlaybackService creates a player that runs argv with the file path appended.
// An empty argv selects the platform default.
func NewPlaybackService(argv []string) PlaybackService {
	if len(argv) == 0 {
		argv = defaultPlayerCommand()
	}
	return &commandPlayer{argv: append([]string(nil), argv...)}
}

func (p *commandPlayer) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cmd != nil
}

func (p *commandPlayer) CurrentURI() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.uri
}

// Play starts playback of uri, replacing whatever was playing
func (p *commandPlayer) Play(uri string) error {
	path, err := localPath(uri)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.stopLocked(); err != nil {
		return err
	}

	args := append(append([]string(nil), p.argv[1:]...), path)
	cmd := exec.Command(p.argv[0], args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%s failed: %w", p.argv[0], err)
	}

	done := make(chan struct{})
	p.cmd = cmd
	p.uri = uri
	p.done = done

	// Reap the process and clear state when it finishes on its own
	go func() {
		_ = cmd.Wait()
		close(done)
		p.mu.Lock()
		if p.cmd == cmd {
			p.cmd = nil
			p.done = nil
			p.uri = ""
		}
		p.mu.Unlock()
	}()

	return nil
}

// Stop halts playback. It is safe to call when nothing is playing.
func (p *commandPlayer) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopLocked()
}

func (p *commandPlayer) stopLocked() error {
	if p.cmd == nil {
		return nil
	}
	cmd, done := p.cmd, p.done
	p.cmd = nil
	p.done = nil
	p.uri = ""

	// Kill fails with os.ErrProcessDone if the player already exited
	if err := cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("failed to stop %s: %w", p.argv[0], err)
	}

	// done is closed before the reaper touches p.mu
	<-done
	return nil
}

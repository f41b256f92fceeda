package downloader

import (
	"bytes"
	"errors"
	"os/exec"
	"path/filepath"
	"time"
)

// ExtractOptions carries the per-job callbacks for one extraction.
type ExtractOptions struct {
	// Cancelled is polled once per poll interval; when it returns true
	// the process is terminated and Extract returns ErrCancelled.
	Cancelled func() bool

	// Progress, when set, is invoked once per poll interval while the
	// process is running. Rate limiting of any resulting message edits
	// is the caller's concern.
	Progress func()
}

// Extract downloads and converts one candidate's audio into destDir.
// The process is polled rather than awaited so cancellation and the
// extraction budget are both observed within one poll interval.
func (c *Client) Extract(url, destDir string, opts ExtractOptions) error {
	out := filepath.Join(destDir, "%(title)s.%(ext)s")
	cmd := exec.Command(c.Binary,
		"--no-playlist", "--ignore-errors", "--no-warnings",
		"--extract-audio", "--audio-format", "mp3", "--audio-quality", "0",
		"--quiet", "--output", out, url)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return ErrToolMissing
		}
		return err
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	deadline := time.Now().Add(c.ExtractTimeout)
	ticker := time.NewTicker(c.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case err := <-done:
			if err != nil {
				return &ExitError{Excerpt: excerpt(stderr.String())}
			}
			return nil

		case <-ticker.C:
			if opts.Cancelled != nil && opts.Cancelled() {
				c.terminate(cmd, done)
				return ErrCancelled
			}
			if time.Now().After(deadline) {
				c.terminate(cmd, done)
				return ErrTimeout
			}
			if opts.Progress != nil {
				opts.Progress()
			}
		}
	}
}

// terminate kills the process and reaps it so no zombie is left behind.
func (c *Client) terminate(cmd *exec.Cmd, done <-chan error) {
	if cmd.Process != nil {
		_ = cmd.Process.Kill()
	}
	select {
	case <-done:
	case <-time.After(5 * time.Second):
	}
}

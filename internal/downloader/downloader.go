// Package downloader wraps the external yt-dlp tool. The tool is
// invoked as an opaque subprocess; this package only builds commands,
// enforces budgets and classifies failures.
package downloader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"music4u/backend/internal/config"
)

var (
	// ErrToolMissing means the yt-dlp binary is not installed or not
	// executable on this host.
	ErrToolMissing = errors.New("yt-dlp is not available")

	// ErrTimeout means the operation exceeded its time budget.
	ErrTimeout = errors.New("yt-dlp timed out")

	// ErrNoResults means the resolver returned no parseable candidates.
	ErrNoResults = errors.New("no search results")

	// ErrCancelled means the caller's cancel flag was observed while
	// the extraction was running.
	ErrCancelled = errors.New("download cancelled")

	// ErrNoAudio means extraction exited cleanly but produced no audio
	// file in the scratch directory.
	ErrNoAudio = errors.New("no audio file produced")
)

// ExitError reports a nonzero yt-dlp exit with a short stderr excerpt
// suitable for relaying to the chat.
type ExitError struct {
	Excerpt string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("yt-dlp failed: %s", e.Excerpt)
}

// Client invokes yt-dlp with the configured budgets.
type Client struct {
	Binary          string
	MetadataTimeout time.Duration
	ExtractTimeout  time.Duration
	PollInterval    time.Duration
}

// NewClient returns a Client with the standard budgets.
func NewClient() *Client {
	return &Client{
		Binary:          "yt-dlp",
		MetadataTimeout: config.MetadataTimeout,
		ExtractTimeout:  config.ExtractTimeout,
		PollInterval:    config.PollInterval,
	}
}

// searchTarget maps a user query to a yt-dlp target: links are passed
// through untouched, anything else becomes a five-result search.
func searchTarget(query string) string {
	if strings.HasPrefix(query, "http://") || strings.HasPrefix(query, "https://") {
		return query
	}
	return "ytsearch5:" + query
}

// excerpt trims stderr output to a length safe to echo into a chat.
func excerpt(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 100 {
		return s[:100] + "..."
	}
	return s
}

// FindAudio locates the extracted .mp3 in the scratch directory and
// returns its path and size.
func FindAudio(dir string) (string, int64, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", 0, fmt.Errorf("failed to read scratch directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".mp3") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return "", 0, err
		}
		return filepath.Join(dir, entry.Name()), info.Size(), nil
	}
	return "", 0, ErrNoAudio
}

package downloader

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log"
	"os/exec"
	"strings"

	"music4u/backend/internal/models"
)

// Resolve runs yt-dlp in metadata-only mode against the query and
// returns the playable candidates in resolver order. The call is
// bounded by the metadata timeout.
func (c *Client) Resolve(query string) ([]models.Candidate, error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.MetadataTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.Binary,
		"--no-playlist", "--ignore-errors", "--no-warnings",
		"--print-json", "--skip-download",
		searchTarget(query))

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, ErrToolMissing
		}
		if ctx.Err() == context.DeadlineExceeded {
			return nil, ErrTimeout
		}
		log.Printf("yt-dlp metadata error for query %q: %s", query, stderr.String())
		return nil, &ExitError{Excerpt: excerpt(stderr.String())}
	}

	candidates := parseCandidates(stdout.Bytes())
	if len(candidates) == 0 {
		return nil, ErrNoResults
	}
	return candidates, nil
}

// parseCandidates decodes the one-JSON-object-per-line resolver output.
// Unparseable lines and entries without a source URL are skipped.
func parseCandidates(out []byte) []models.Candidate {
	var candidates []models.Candidate
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var cand models.Candidate
		if err := json.Unmarshal([]byte(line), &cand); err != nil {
			continue
		}
		if cand.URL == "" {
			continue
		}
		if cand.Title == "" {
			cand.Title = "Unknown Title"
		}
		candidates = append(candidates, cand)
	}
	return candidates
}

// Package thumbnail fetches cover art and downsizes it to the
// dimensions Telegram accepts for audio thumbnails.
package thumbnail

import (
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // cover art is occasionally served as PNG
	"net/http"
	"os"
	"path/filepath"

	"music4u/backend/internal/config"

	"github.com/nfnt/resize"
)

// Fetcher downloads and resizes thumbnails.
type Fetcher struct {
	client *http.Client
	maxDim uint
}

// NewFetcher returns a Fetcher with the standard timeout and size bound.
func NewFetcher() *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: config.ThumbnailTimeout},
		maxDim: config.ThumbnailMaxDim,
	}
}

// Fetch downloads the image at url, scales it to fit the bound and
// writes thumb.jpg into destDir. Any failure is returned to the caller,
// which is expected to fall back to sending audio without a thumbnail.
func (f *Fetcher) Fetch(url, destDir string) (string, error) {
	resp, err := f.client.Get(url)
	if err != nil {
		return "", fmt.Errorf("thumbnail fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("thumbnail fetch returned status %d", resp.StatusCode)
	}

	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return "", fmt.Errorf("thumbnail decode failed: %w", err)
	}

	img = resize.Thumbnail(f.maxDim, f.maxDim, img, resize.Lanczos3)

	path := filepath.Join(destDir, "thumb.jpg")
	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("thumbnail write failed: %w", err)
	}
	defer out.Close()

	if err := jpeg.Encode(out, img, nil); err != nil {
		return "", fmt.Errorf("thumbnail encode failed: %w", err)
	}
	return path, nil
}

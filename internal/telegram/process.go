package telegram

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"music4u/backend/internal/config"
	"music4u/backend/internal/downloader"
	"music4u/backend/internal/models"
)

// processQuery runs one download-and-deliver cycle. It is the JobFunc
// executed by the queue worker; per-query failures are reported to the
// chat and never propagate, so one bad query cannot kill the worker.
func (s *BotService) processQuery(chatID int64, query string, cancelled func() bool) {
	tmpdir := filepath.Join(os.TempDir(), "music4u_"+uuid.NewString())
	if err := os.MkdirAll(tmpdir, 0o755); err != nil {
		log.Printf("Failed to create scratch directory for chat %d: %v", chatID, err)
		s.send(chatID, "❌ An internal error occurred. Try again later.")
		return
	}
	defer func() {
		if err := os.RemoveAll(tmpdir); err != nil {
			log.Printf("Failed to remove scratch directory %s: %v", tmpdir, err)
		}
	}()

	s.send(chatID, fmt.Sprintf("🔎 Searching for `%s`…", query))

	candidates, err := s.DL.Resolve(query)
	if err != nil {
		s.reportResolveError(chatID, query, err)
		return
	}

	for _, cand := range candidates {
		done, delivered := s.tryCandidate(chatID, cand, tmpdir, cancelled)
		if done {
			if !delivered {
				return // stopped or terminal failure, already reported
			}
			s.send(chatID, "✅ Track delivered 🎧")
			return
		}
	}

	if !cancelled() {
		s.send(chatID, "🚫 No file found, try a different keyword.")
	}
}

func (s *BotService) reportResolveError(chatID int64, query string, err error) {
	var exitErr *downloader.ExitError
	switch {
	case errors.Is(err, downloader.ErrToolMissing):
		s.send(chatID, "❌ The `yt-dlp` tool is missing on the server. (Contact the admin)")
	case errors.Is(err, downloader.ErrTimeout):
		s.send(chatID, "❌ The search timed out.")
	case errors.Is(err, downloader.ErrNoResults):
		s.send(chatID, "🚫 No search results found.")
	case errors.As(err, &exitErr):
		s.send(chatID, fmt.Sprintf("❌ Search failed: %s", exitErr.Excerpt))
	default:
		log.Printf("Resolve error for chat %d query %q: %v", chatID, query, err)
		s.send(chatID, "❌ An error occurred while searching.")
	}
}

// tryCandidate extracts and delivers one candidate. done=true means the
// cycle should stop (cancelled, terminal failure, or success);
// delivered=true means the audio reached the chat.
func (s *BotService) tryCandidate(chatID int64, cand models.Candidate, tmpdir string, cancelled func() bool) (done, delivered bool) {
	s.send(chatID, fmt.Sprintf("📥 Starting download of `%s`…", cand.Title))

	prog := &progressReporter{api: s.API, chatID: chatID}
	err := s.DL.Extract(cand.URL, tmpdir, downloader.ExtractOptions{
		Cancelled: cancelled,
		Progress:  prog.Tick,
	})

	switch {
	case errors.Is(err, downloader.ErrCancelled):
		s.send(chatID, "❌ Download stopped.")
		return true, false
	case errors.Is(err, downloader.ErrToolMissing):
		s.send(chatID, "❌ The `yt-dlp` tool is missing on the server. (Contact the admin)")
		return true, false
	case errors.Is(err, downloader.ErrTimeout):
		// A stuck extraction for this candidate should not block the
		// next one.
		s.send(chatID, "❌ The download timed out, trying the next result…")
		return false, false
	case err != nil:
		var exitErr *downloader.ExitError
		if errors.As(err, &exitErr) {
			s.send(chatID, fmt.Sprintf("❌ Download failed: %s", exitErr.Excerpt))
		} else {
			log.Printf("Extraction error for chat %d: %v", chatID, err)
			s.send(chatID, "❌ Download failed.")
		}
		return false, false
	}

	fpath, size, err := downloader.FindAudio(tmpdir)
	if err != nil {
		log.Printf("No audio produced for chat %d candidate %q: %v", chatID, cand.URL, err)
		return false, false
	}

	if size > config.MaxFileSize {
		s.send(chatID, fmt.Sprintf("⚠️ File is too large (%.2fMB). Telegram cannot deliver it.",
			float64(size)/(1024*1024)))
		return true, false
	}

	s.deliver(chatID, cand, tmpdir, fpath)
	return true, true
}

// deliver uploads the audio with a best-effort thumbnail. A thumbnail
// failure degrades to a plain audio send.
func (s *BotService) deliver(chatID int64, cand models.Candidate, tmpdir, fpath string) {
	caption := fmt.Sprintf("🎶 %s\n\n_Delivered by Music 4U_ 🎧", cand.Title)

	thumbPath := ""
	if cand.Thumbnail != "" {
		path, err := s.Thumbs.Fetch(cand.Thumbnail, tmpdir)
		if err != nil {
			log.Printf("Thumbnail fetch failed for chat %d: %v", chatID, err)
		} else {
			thumbPath = path
		}
	}

	s.send(chatID, "⬆️ Uploading to Telegram…")

	if err := s.sendAudio(chatID, fpath, caption, thumbPath); err != nil {
		log.Printf("Error sending audio to chat %d: %v", chatID, err)
		if thumbPath != "" {
			s.send(chatID, "⚠️ Sending with thumbnail failed, sending audio only.")
			if err := s.sendAudio(chatID, fpath, caption, ""); err != nil {
				s.send(chatID, "❌ Failed to send the track.")
			}
			return
		}
		s.send(chatID, "❌ Failed to send the track.")
	}
}

func (s *BotService) sendAudio(chatID int64, fpath, caption, thumbPath string) error {
	audio := tgbotapi.NewAudio(chatID, tgbotapi.FilePath(fpath))
	audio.Caption = caption
	audio.ParseMode = tgbotapi.ModeMarkdown
	if thumbPath != "" {
		audio.Thumb = tgbotapi.FilePath(thumbPath)
	}
	_, err := s.API.Send(audio)
	return err
}

// progressReporter maintains a single in-place-edited progress message.
// Edits are rate limited and edit failures (message unchanged, message
// deleted) are swallowed.
type progressReporter struct {
	api    API
	chatID int64
	msgID  int
	last   time.Time
	ticks  int
}

// Tick is invoked by the extraction poll loop.
func (p *progressReporter) Tick() {
	if time.Since(p.last) < config.ProgressInterval {
		return
	}
	p.last = time.Now()
	p.ticks++

	text := "📥 Downloading" + strings.Repeat(".", p.ticks%4+1)
	if p.msgID == 0 {
		m, err := p.api.Send(tgbotapi.NewMessage(p.chatID, text))
		if err == nil {
			p.msgID = m.MessageID
		}
		return
	}
	_, _ = p.api.Request(tgbotapi.NewEditMessageText(p.chatID, p.msgID, text))
}

package telegram

import (
	"errors"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcast_RemovesBlockedRecipients(t *testing.T) {
	// Arrange
	api := &fakeAPI{errAt: map[int]error{
		// Send order: admin notice, then recipients 1, 2, 3. Recipient 2
		// has blocked the bot.
		2: &tgbotapi.Error{Code: 403, Message: "Forbidden: bot was blocked by the user"},
	}}
	s := newTestService(t, api, &fakeDownloader{})
	for _, id := range []int64{1, 2, 3} {
		_, err := s.Store.Add(id)
		require.NoError(t, err)
	}

	// Act
	s.Broadcast(99, "hello subscribers")

	// Assert
	assert.False(t, s.Store.Contains(2), "blocked recipient must be dropped")
	assert.True(t, s.Store.Contains(1))
	assert.True(t, s.Store.Contains(3))
	assert.True(t, containsText(api.texts(), "Sent: 2, Failed: 0"))
}

func TestBroadcast_CountsOtherFailuresWithoutAborting(t *testing.T) {
	api := &fakeAPI{errAt: map[int]error{
		1: errors.New("network hiccup"),
	}}
	s := newTestService(t, api, &fakeDownloader{})
	for _, id := range []int64{1, 2} {
		_, err := s.Store.Add(id)
		require.NoError(t, err)
	}

	s.Broadcast(99, "hello")

	// A transient failure keeps the recipient subscribed.
	assert.True(t, s.Store.Contains(1))
	assert.True(t, containsText(api.texts(), "Sent: 1, Failed: 1"))
}

func TestIsBlockedByUser(t *testing.T) {
	assert.True(t, isBlockedByUser(&tgbotapi.Error{Code: 403, Message: "Forbidden"}))
	assert.False(t, isBlockedByUser(&tgbotapi.Error{Code: 429, Message: "Too Many Requests"}))
	assert.False(t, isBlockedByUser(errors.New("dial tcp: timeout")))
}

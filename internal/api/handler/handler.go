// Package handler exposes the liveness HTTP surface used by the
// hosting platform for health checks.
package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// ActiveCounter reports the number of chats currently downloading.
type ActiveCounter interface {
	ActiveCount() int
}

// SubscriberCounter reports the size of the broadcast list.
type SubscriberCounter interface {
	Count() int
}

// Handler serves the liveness and status endpoints.
type Handler struct {
	Queue ActiveCounter
	Subs  SubscriberCounter
	Start time.Time
}

func NewHandler(queue ActiveCounter, subs SubscriberCounter, start time.Time) *Handler {
	return &Handler{Queue: queue, Subs: subs, Start: start}
}

// Alive answers the hosting platform's health check.
func (h *Handler) Alive(c *gin.Context) {
	c.String(http.StatusOK, "✅ Music 4U Bot is Alive!")
}

// Status reports uptime and activity counters.
func (h *Handler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"uptime_seconds":   int(time.Since(h.Start).Seconds()),
		"active_downloads": h.Queue.ActiveCount(),
		"subscribers":      h.Subs.Count(),
	})
}

package handlers

import (
	"context"
	"fmt"
	"net/http"

	"quicklearn/internal/learn"
	"quicklearn/internal/logger"
	"quicklearn/internal/models"
	"quicklearn/internal/notify"
	"quicklearn/internal/view"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// ViewSessionKey is the session key holding the caller's view id
const ViewSessionKey = "view_id"

// TranscriptFetcher fetches the caption text of a single video.
type TranscriptFetcher interface {
	Fetch(ctx context.Context, idOrURL, lang string) (*models.TranscriptResponse, error)
}

// Handler contains the API handlers dependencies
type Handler struct {
	Learn       *learn.Service
	Views       *view.Registry
	Transcripts TranscriptFetcher
	Notifier    *notify.Discord
	Log         *logger.Logger
}

// NewHandler creates a new Handler
func NewHandler(svc *learn.Service, views *view.Registry, transcripts TranscriptFetcher, notifier *notify.Discord, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.NewNop()
	}
	return &Handler{
		Learn:       svc,
		Views:       views,
		Transcripts: transcripts,
		Notifier:    notifier,
		Log:         log.With("component", "api"),
	}
}

// currentView resolves the caller's view through the session cookie,
// creating both on first contact.
func (h *Handler) currentView(c *gin.Context) *view.View {
	session := sessions.Default(c)
	stored, _ := session.Get(ViewSessionKey).(string)

	id, v := h.Views.Get(stored)
	if id != stored {
		session.Set(ViewSessionKey, id)
		if err := session.Save(); err != nil {
			h.Log.Warn("failed to save session", "error", err)
		}
	}
	return v
}

// snapshot returns the caller's view state without creating a view; a
// missing or expired session reads as an empty state.
func (h *Handler) snapshot(c *gin.Context) models.ViewState {
	id, _ := sessions.Default(c).Get(ViewSessionKey).(string)
	if v, ok := h.Views.Lookup(id); ok {
		return v.Snapshot()
	}
	return view.New().Snapshot()
}

// handleError logs an error, notifies Discord for server-side failures and
// aborts the request with a JSON error body.
func (h *Handler) handleError(c *gin.Context, statusCode int, errorContext string, err error) {
	h.Log.Error(errorContext, "error", err, "status", statusCode, "path", c.Request.URL.Path)

	if statusCode >= http.StatusInternalServerError {
		h.Notifier.Report(context.WithoutCancel(c.Request.Context()), fmt.Sprintf("API Error: %s", errorContext), err, map[string]string{
			"HTTP Status": fmt.Sprintf("%d", statusCode),
			"Path":        c.Request.URL.Path,
		})
	}

	c.AbortWithStatusJSON(statusCode, models.ErrorResponse{Error: fmt.Sprintf("%s: %v", errorContext, err)})
}

// HealthCheck reports liveness.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

package handlers

import (
	"errors"
	"net/http"

	"quicklearn/internal/youtube"

	"github.com/gin-gonic/gin"
)

// HandleTranscript returns the caption text of a video (GET /api/videos/:id/transcript?lang=xx).
func (h *Handler) HandleTranscript(c *gin.Context) {
	transcript, err := h.Transcripts.Fetch(c.Request.Context(), c.Param("id"), c.Query("lang"))
	switch {
	case errors.Is(err, youtube.ErrInvalidVideoID):
		h.handleError(c, http.StatusBadRequest, "Invalid video id", err)
		return
	case errors.Is(err, youtube.ErrNoCaptions):
		h.handleError(c, http.StatusNotFound, "Transcript not available", err)
		return
	case err != nil:
		h.handleError(c, http.StatusBadGateway, "Failed to fetch transcript", err)
		return
	}
	c.JSON(http.StatusOK, transcript)
}

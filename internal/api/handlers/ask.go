package handlers

import (
	"errors"
	"net/http"
	"strings"

	"quicklearn/internal/learn"
	"quicklearn/internal/models"
	"quicklearn/internal/prompts"

	"github.com/gin-gonic/gin"
)

// HandleListStyles returns the teaching styles for the style picker.
func (h *Handler) HandleListStyles(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"styles":  prompts.Styles(),
		"default": prompts.DefaultStyle,
	})
}

// HandleAsk runs a submission for the caller's view. With ?async=true it
// returns the loading state right away; otherwise it waits until the view
// settles.
func (h *Handler) HandleAsk(c *gin.Context) {
	var req models.AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleError(c, http.StatusBadRequest, "Invalid ask request", err)
		return
	}

	if strings.TrimSpace(req.Query) == "" {
		h.handleSubmitError(c, learn.ErrEmptyQuery)
		return
	}

	v := h.currentView(c)
	if c.Query("async") == "true" {
		state, err := h.Learn.SubmitAsync(c.Request.Context(), v, req.Query, req.Style)
		if err != nil {
			h.handleSubmitError(c, err)
			return
		}
		c.JSON(http.StatusAccepted, state)
		return
	}

	state, err := h.Learn.Submit(c.Request.Context(), v, req.Query, req.Style)
	if err != nil {
		h.handleSubmitError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// HandleGetView returns the caller's current view state, for polling.
func (h *Handler) HandleGetView(c *gin.Context) {
	c.JSON(http.StatusOK, h.snapshot(c))
}

func (h *Handler) handleSubmitError(c *gin.Context, err error) {
	if errors.Is(err, learn.ErrEmptyQuery) {
		h.handleError(c, http.StatusBadRequest, "Invalid query", err)
		return
	}
	h.handleError(c, http.StatusInternalServerError, "Submission failed", err)
}

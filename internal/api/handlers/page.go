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

// HandleIndex renders the caller's view as HTML.
func (h *Handler) HandleIndex(c *gin.Context) {
	state := h.snapshot(c)
	selected := state.Style
	if selected == "" {
		selected = prompts.DefaultStyle
	}
	c.HTML(http.StatusOK, "index.tmpl", gin.H{
		"State":    state,
		"Styles":   prompts.Styles(),
		"Selected": selected,
	})
}

// HandleIndexSubmit handles the HTML form and redirects back to the view.
// An empty query redirects without touching the view.
func (h *Handler) HandleIndexSubmit(c *gin.Context) {
	var req models.AskRequest
	if err := c.ShouldBind(&req); err != nil {
		h.handleError(c, http.StatusBadRequest, "Invalid form", err)
		return
	}

	if strings.TrimSpace(req.Query) == "" {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}

	if _, err := h.Learn.Submit(c.Request.Context(), h.currentView(c), req.Query, req.Style); err != nil && !errors.Is(err, learn.ErrEmptyQuery) {
		h.handleError(c, http.StatusInternalServerError, "Submission failed", err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// QuizQuestion is one multiple-choice question generated for a query
type QuizQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation,omitempty"`
}

// Video is a single search result from the video platform
type Video struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	ThumbnailURL string `json:"thumbnail_url"`
}

// VideoStats holds engagement counters for one video
type VideoStats struct {
	ViewCount     uint64 `json:"view_count"`
	LikeCount     uint64 `json:"like_count"`
	CommentCount  uint64 `json:"comment_count"`
	FavoriteCount uint64 `json:"favorite_count"`
}

// ViewState is the reconciled result of one submission as seen by a client
type ViewState struct {
	Token            uuid.UUID             `json:"token"`
	Query            string                `json:"query"`
	Style            string                `json:"style"`
	Loading          bool                  `json:"loading"`
	Explanation      string                `json:"explanation"`
	ExplanationError string                `json:"explanation_error,omitempty"`
	Quiz             []QuizQuestion        `json:"quiz"`
	Videos           []Video               `json:"videos"`
	Stats            map[string]VideoStats `json:"stats"`
	SubmittedAt      *time.Time            `json:"submitted_at,omitempty"`
	SettledAt        *time.Time            `json:"settled_at,omitempty"`
}

// AskRequest is the body accepted by the ask endpoint
type AskRequest struct {
	Query string `json:"query" form:"query"`
	Style string `json:"style" form:"style"`
}

// TranscriptResponse is returned by the transcript endpoint
type TranscriptResponse struct {
	VideoID string `json:"video_id"`
	Title   string `json:"title,omitempty"`
	Lang    string `json:"lang,omitempty"`
	Text    string `json:"text"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

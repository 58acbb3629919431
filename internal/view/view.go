package view

import (
	"context"
	"sync"
	"time"

	"quicklearn/internal/models"

	"github.com/google/uuid"
)

// View holds the result slots of the latest submission for one client.
// Every write carries the token of the submission that produced it, and
// writes from superseded submissions are discarded.
type View struct {
	mu         sync.RWMutex
	state      models.ViewState
	cancel     context.CancelFunc
	lastAccess time.Time
	now        func() time.Time
}

// New returns an idle view with empty slots.
func New() *View {
	v := &View{now: time.Now}
	v.lastAccess = v.now()
	v.state.Stats = map[string]models.VideoStats{}
	return v
}

// Begin starts a new submission: it cancels the previous submission's
// context, clears all four slots and sets the loading flag. The returned
// context is cancelled when a newer submission begins.
func (v *View) Begin(ctx context.Context, query, style string) (context.Context, uuid.UUID) {
	subCtx, cancel := context.WithCancel(ctx)
	token := uuid.New()
	now := v.now()

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.cancel != nil {
		v.cancel()
	}
	v.cancel = cancel
	v.lastAccess = now
	v.state = models.ViewState{
		Token:       token,
		Query:       query,
		Style:       style,
		Loading:     true,
		Stats:       map[string]models.VideoStats{},
		SubmittedAt: &now,
	}
	return subCtx, token
}

// update applies fn under the lock when token is still current.
func (v *View) update(token uuid.UUID, fn func(s *models.ViewState)) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.state.Token != token {
		return false
	}
	fn(&v.state)
	return true
}

// SetExplanation fills the explanation slot. A non-empty errMsg marks the
// slot as failed.
func (v *View) SetExplanation(token uuid.UUID, text, errMsg string) bool {
	return v.update(token, func(s *models.ViewState) {
		s.Explanation = text
		s.ExplanationError = errMsg
	})
}

// SetQuiz fills the quiz slot.
func (v *View) SetQuiz(token uuid.UUID, quiz []models.QuizQuestion) bool {
	return v.update(token, func(s *models.ViewState) {
		s.Quiz = quiz
	})
}

// SetVideos fills the video slot.
func (v *View) SetVideos(token uuid.UUID, videos []models.Video) bool {
	return v.update(token, func(s *models.ViewState) {
		s.Videos = videos
	})
}

// SetStats fills the stats slot.
func (v *View) SetStats(token uuid.UUID, stats map[string]models.VideoStats) bool {
	return v.update(token, func(s *models.ViewState) {
		if stats == nil {
			stats = map[string]models.VideoStats{}
		}
		s.Stats = stats
	})
}

// Settle clears the loading flag once every call of the submission resolved.
func (v *View) Settle(token uuid.UUID) bool {
	now := v.now()
	return v.update(token, func(s *models.ViewState) {
		s.Loading = false
		s.SettledAt = &now
	})
}

// Token returns the token of the latest submission (uuid.Nil before the first).
func (v *View) Token() uuid.UUID {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.state.Token
}

// Snapshot returns a copy of the current state that is safe to hand out.
func (v *View) Snapshot() models.ViewState {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.lastAccess = v.now()

	s := v.state
	s.Quiz = make([]models.QuizQuestion, len(v.state.Quiz))
	copy(s.Quiz, v.state.Quiz)
	s.Videos = make([]models.Video, len(v.state.Videos))
	copy(s.Videos, v.state.Videos)
	s.Stats = make(map[string]models.VideoStats, len(v.state.Stats))
	for id, st := range v.state.Stats {
		s.Stats[id] = st
	}
	return s
}

// Close cancels any in-flight submission.
func (v *View) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
}

func (v *View) idleSince() time.Time {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.lastAccess
}

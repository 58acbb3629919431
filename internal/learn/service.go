package learn

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"quicklearn/internal/logger"
	"quicklearn/internal/models"
	"quicklearn/internal/prompts"
	"quicklearn/internal/view"

	"github.com/google/uuid"
)

// ErrEmptyQuery is returned for empty or whitespace-only input. No call is
// made and the view is left untouched.
var ErrEmptyQuery = errors.New("query is empty")

// ExplanationErrorMessage is what the explanation slot shows when the
// explanation call fails. Details only go to the log.
const ExplanationErrorMessage = "Error: could not generate an explanation right now. Please try again."

// Explainer generates the explanation text for a composed prompt.
type Explainer interface {
	Explain(ctx context.Context, prompt string) (string, error)
}

// QuizGenerator generates follow-up quiz questions for the raw question.
type QuizGenerator interface {
	GenerateQuiz(ctx context.Context, question string) ([]models.QuizQuestion, error)
}

// VideoSearcher finds related videos and their engagement counters.
type VideoSearcher interface {
	Search(ctx context.Context, query string) ([]models.Video, error)
	Statistics(ctx context.Context, ids []string) (map[string]models.VideoStats, error)
}

// Reporter receives failures worth surfacing outside the log.
type Reporter interface {
	Report(ctx context.Context, title string, err error, fields map[string]string)
}

// Service orchestrates one submission: explanation, quiz, video search and
// statistics, reconciled into a view.View.
type Service struct {
	explainer Explainer
	quiz      QuizGenerator
	videos    VideoSearcher
	reporter  Reporter
	timeout   time.Duration
	log       *logger.Logger

	inflight sync.WaitGroup
}

// Options configures a Service. Quiz and Reporter may be nil.
type Options struct {
	Explainer Explainer
	Quiz      QuizGenerator
	Videos    VideoSearcher
	Reporter  Reporter
	// Timeout bounds a whole submission; zero means no deadline.
	Timeout time.Duration
	Log     *logger.Logger
}

func NewService(opts Options) *Service {
	log := opts.Log
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{
		explainer: opts.Explainer,
		quiz:      opts.Quiz,
		videos:    opts.Videos,
		reporter:  opts.Reporter,
		timeout:   opts.Timeout,
		log:       log.With("component", "learn"),
	}
}

// Submit runs a submission against v and blocks until it settles. It
// returns the settled snapshot, or the state of a newer submission if one
// superseded this one while it ran.
func (s *Service) Submit(ctx context.Context, v *view.View, query, style string) (models.ViewState, error) {
	query, style, err := normalize(query, style)
	if err != nil {
		return models.ViewState{}, err
	}

	subCtx, token := v.Begin(ctx, query, style)
	s.inflight.Add(1)
	defer s.inflight.Done()
	s.run(subCtx, v, token, query, style)
	return v.Snapshot(), nil
}

// SubmitAsync starts a submission and returns the loading snapshot at once.
// The calls keep running after ctx's request ends; use Wait to drain them.
func (s *Service) SubmitAsync(ctx context.Context, v *view.View, query, style string) (models.ViewState, error) {
	query, style, err := normalize(query, style)
	if err != nil {
		return models.ViewState{}, err
	}

	subCtx, token := v.Begin(context.WithoutCancel(ctx), query, style)
	snapshot := v.Snapshot()
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		s.run(subCtx, v, token, query, style)
	}()
	return snapshot, nil
}

// Wait blocks until every running submission has settled.
func (s *Service) Wait() {
	s.inflight.Wait()
}

func normalize(query, style string) (string, string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", "", ErrEmptyQuery
	}
	style = strings.ToLower(strings.TrimSpace(style))
	if style == "" {
		style = prompts.DefaultStyle
	}
	return query, style, nil
}

func (s *Service) run(ctx context.Context, v *view.View, token uuid.UUID, query, style string) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	log := s.log.With("token", token.String(), "style", style)
	start := time.Now()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.explain(ctx, log, v, token, query, style)
	}()
	go func() {
		defer wg.Done()
		s.fetchVideos(ctx, log, v, token, query)
	}()
	if s.quiz != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.generateQuiz(ctx, log, v, token, query)
		}()
	}
	wg.Wait()

	if v.Settle(token) {
		log.Info("submission settled", "duration", time.Since(start))
	} else {
		log.Debug("submission superseded before settling")
	}
}

func (s *Service) explain(ctx context.Context, log *logger.Logger, v *view.View, token uuid.UUID, query, style string) {
	text, err := s.explainer.Explain(ctx, prompts.Compose(style, query))
	if err != nil {
		log.Error("explanation failed", "error", err)
		s.report(ctx, "Explanation failed", err, map[string]string{"style": style})
		v.SetExplanation(token, "", ExplanationErrorMessage)
		return
	}
	if !v.SetExplanation(token, text, "") {
		log.Debug("discarded stale explanation")
	}
}

func (s *Service) generateQuiz(ctx context.Context, log *logger.Logger, v *view.View, token uuid.UUID, query string) {
	quiz, err := s.quiz.GenerateQuiz(ctx, query)
	if err != nil {
		log.Warn("quiz generation failed", "error", err)
		return
	}
	if !v.SetQuiz(token, quiz) {
		log.Debug("discarded stale quiz")
	}
}

func (s *Service) fetchVideos(ctx context.Context, log *logger.Logger, v *view.View, token uuid.UUID, query string) {
	videos, err := s.videos.Search(ctx, query)
	if err != nil {
		log.Warn("video search failed", "error", err)
		return
	}
	if !v.SetVideos(token, videos) {
		log.Debug("discarded stale videos")
		return
	}
	if len(videos) == 0 {
		return
	}

	ids := make([]string, len(videos))
	for i, video := range videos {
		ids[i] = video.ID
	}
	stats, err := s.videos.Statistics(ctx, ids)
	if err != nil {
		log.Warn("video statistics failed", "error", err, "videos", len(ids))
		return
	}
	v.SetStats(token, stats)
}

func (s *Service) report(ctx context.Context, title string, err error, fields map[string]string) {
	if s.reporter == nil || errors.Is(err, context.Canceled) {
		return
	}
	s.reporter.Report(context.WithoutCancel(ctx), title, err, fields)
}

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"quicklearn/internal/api/handlers"
	"quicklearn/internal/learn"
	"quicklearn/internal/logger"
	"quicklearn/internal/models"
	"quicklearn/internal/notify"
	"quicklearn/internal/prompts"
	"quicklearn/internal/view"
	"quicklearn/internal/youtube"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubExplainer struct {
	mu    sync.Mutex
	calls int
}

func (s *stubExplainer) Explain(ctx context.Context, prompt string) (string, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return "First paragraph.\n\nSecond paragraph.", nil
}

func (s *stubExplainer) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type stubVideos struct{}

func (stubVideos) Search(ctx context.Context, query string) ([]models.Video, error) {
	return []models.Video{{ID: "abc123", Title: "Orbits explained", ThumbnailURL: "https://i.ytimg.com/vi/abc123/default.jpg"}}, nil
}

func (stubVideos) Statistics(ctx context.Context, ids []string) (map[string]models.VideoStats, error) {
	return map[string]models.VideoStats{"abc123": {ViewCount: 1234567, LikeCount: 1500}}, nil
}

type stubQuiz struct{}

func (stubQuiz) GenerateQuiz(ctx context.Context, question string) ([]models.QuizQuestion, error) {
	return []models.QuizQuestion{{Question: "What keeps a planet in orbit?", Options: []string{"Gravity", "Magnetism"}, CorrectAnswer: "Gravity"}}, nil
}

type stubTranscripts struct {
	resp *models.TranscriptResponse
	err  error
}

func (s stubTranscripts) Fetch(ctx context.Context, idOrURL, lang string) (*models.TranscriptResponse, error) {
	return s.resp, s.err
}

type testServer struct {
	router    *gin.Engine
	svc       *learn.Service
	explainer *stubExplainer
	views     *view.Registry
}

func newTestServer(t *testing.T, transcripts handlers.TranscriptFetcher) *testServer {
	t.Helper()
	return newTestServerWithNotifier(t, transcripts, nil)
}

func newTestServerWithNotifier(t *testing.T, transcripts handlers.TranscriptFetcher, notifier *notify.Discord) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logger.NewNop()
	explainer := &stubExplainer{}
	svc := learn.NewService(learn.Options{
		Explainer: explainer,
		Quiz:      stubQuiz{},
		Videos:    stubVideos{},
		Log:       log,
	})
	views := view.NewRegistry()
	h := handlers.NewHandler(svc, views, transcripts, notifier, log)

	router := gin.New()
	router.Use(SessionMiddleware("test-secret", false))
	SetupRoutes(router, h, log, "http://localhost:5173/")
	t.Cleanup(svc.Wait)

	return &testServer{router: router, svc: svc, explainer: explainer, views: views}
}

func (s *testServer) do(t *testing.T, method, target, body, contentType string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decodeState(t *testing.T, w *httptest.ResponseRecorder) models.ViewState {
	t.Helper()
	var state models.ViewState
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	return state
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, stubTranscripts{})
	w := s.do(t, http.MethodGet, "/healthz", "", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestListStyles(t *testing.T) {
	s := newTestServer(t, stubTranscripts{})
	w := s.do(t, http.MethodGet, "/api/styles", "", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Styles  []prompts.StyleInfo `json:"styles"`
		Default string              `json:"default"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Styles, len(prompts.Styles()))
	assert.Equal(t, prompts.DefaultStyle, body.Default)
}

func TestAsk_EmptyQueryIsRejected(t *testing.T) {
	s := newTestServer(t, stubTranscripts{})
	w := s.do(t, http.MethodPost, "/api/ask", `{"query":"   ","style":"short"}`, "application/json", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), learn.ErrEmptyQuery.Error())
	assert.Zero(t, s.explainer.count())
}

func TestAsk_MalformedBody(t *testing.T) {
	s := newTestServer(t, stubTranscripts{})
	w := s.do(t, http.MethodPost, "/api/ask", `{"query":`, "application/json", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAsk_SyncReturnsSettledViewAndKeepsSession(t *testing.T) {
	s := newTestServer(t, stubTranscripts{})
	w := s.do(t, http.MethodPost, "/api/ask", `{"query":"how do orbits work?","style":"storytelling"}`, "application/json", nil)
	require.Equal(t, http.StatusOK, w.Code)

	state := decodeState(t, w)
	assert.False(t, state.Loading)
	assert.Equal(t, "how do orbits work?", state.Query)
	assert.Equal(t, prompts.Storytelling, state.Style)
	assert.Equal(t, "First paragraph.\n\nSecond paragraph.", state.Explanation)
	require.Len(t, state.Videos, 1)
	assert.EqualValues(t, 1234567, state.Stats["abc123"].ViewCount)
	require.Len(t, state.Quiz, 1)

	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)

	w = s.do(t, http.MethodGet, "/api/view", "", "", cookies)
	require.Equal(t, http.StatusOK, w.Code)
	again := decodeState(t, w)
	assert.Equal(t, state.Token, again.Token)
	assert.Equal(t, state.Query, again.Query)
	assert.Equal(t, 1, s.views.Len())
}

func TestAsk_AsyncReturnsLoadingThenSettles(t *testing.T) {
	s := newTestServer(t, stubTranscripts{})
	w := s.do(t, http.MethodPost, "/api/ask?async=true", `{"query":"photosynthesis"}`, "application/json", nil)
	require.Equal(t, http.StatusAccepted, w.Code)

	loading := decodeState(t, w)
	assert.True(t, loading.Loading)
	assert.Equal(t, prompts.DefaultStyle, loading.Style)
	assert.Empty(t, loading.Explanation)

	s.svc.Wait()

	w = s.do(t, http.MethodGet, "/api/view", "", "", w.Result().Cookies())
	settled := decodeState(t, w)
	assert.False(t, settled.Loading)
	assert.Equal(t, loading.Token, settled.Token)
	assert.NotEmpty(t, settled.Explanation)
}

func TestView_NewSessionStartsEmpty(t *testing.T) {
	s := newTestServer(t, stubTranscripts{})
	w := s.do(t, http.MethodGet, "/api/view", "", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	state := decodeState(t, w)
	assert.False(t, state.Loading)
	assert.Empty(t, state.Query)
	assert.Empty(t, state.Videos)
	assert.Empty(t, w.Result().Cookies())
	assert.Zero(t, s.views.Len())
}

func TestReadsWithoutSessionDoNotCreateViews(t *testing.T) {
	s := newTestServer(t, stubTranscripts{})
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/view", "", "", nil).Code)
		assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/", "", "", nil).Code)
		assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/api/ask", `{"query":" "}`, "application/json", nil).Code)
		assert.Equal(t, http.StatusSeeOther, s.do(t, http.MethodPost, "/", "query=", "application/x-www-form-urlencoded", nil).Code)
	}
	assert.Zero(t, s.views.Len())

	w := s.do(t, http.MethodPost, "/api/ask", `{"query":"tides"}`, "application/json", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, s.views.Len())
}

func TestHandleError_ReportsServerErrorsToDiscord(t *testing.T) {
	var hits atomic.Int32
	webhook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p notify.WebhookPayload
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&p))
		if assert.Len(t, p.Embeds, 1) {
			assert.Contains(t, p.Embeds[0].Title, "Failed to fetch transcript")
		}
		hits.Add(1)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer webhook.Close()

	discord := notify.NewDiscord(webhook.URL, logger.NewNop())
	s := newTestServerWithNotifier(t, stubTranscripts{err: errors.New("connection reset")}, discord)

	// A real server cancels the request context once the handler returns.
	srv := httptest.NewServer(s.router)
	defer srv.Close()

	const requests = 5
	for i := 0; i < requests; i++ {
		resp, err := http.Get(srv.URL + "/api/videos/dQw4w9WgXcQ/transcript")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	}
	discord.Wait()

	assert.EqualValues(t, requests, hits.Load())
}

func TestHandleError_ClientErrorsAreNotReported(t *testing.T) {
	var hits atomic.Int32
	webhook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer webhook.Close()

	discord := notify.NewDiscord(webhook.URL, logger.NewNop())
	s := newTestServerWithNotifier(t, stubTranscripts{err: youtube.ErrNoCaptions}, discord)

	w := s.do(t, http.MethodGet, "/api/videos/abc123/transcript", "", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	discord.Wait()
	assert.Zero(t, hits.Load())
}

func TestTranscript_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"invalid id", youtube.ErrInvalidVideoID, http.StatusBadRequest},
		{"no captions", youtube.ErrNoCaptions, http.StatusNotFound},
		{"upstream failure", errors.New("connection reset"), http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, stubTranscripts{err: tt.err})
			w := s.do(t, http.MethodGet, "/api/videos/abc123/transcript", "", "", nil)
			assert.Equal(t, tt.code, w.Code)
		})
	}
}

func TestTranscript_OK(t *testing.T) {
	s := newTestServer(t, stubTranscripts{resp: &models.TranscriptResponse{VideoID: "abc123", Lang: "en", Text: "hello there"}})
	w := s.do(t, http.MethodGet, "/api/videos/abc123/transcript?lang=en", "", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.TranscriptResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "hello there", resp.Text)
}

func TestIndex_FormSubmitRedirectsAndRenders(t *testing.T) {
	s := newTestServer(t, stubTranscripts{})

	form := url.Values{"query": {"how do orbits work?"}, "style": {prompts.Advanced}}
	w := s.do(t, http.MethodPost, "/", form.Encode(), "application/x-www-form-urlencoded", nil)
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	w = s.do(t, http.MethodGet, "/", "", "", w.Result().Cookies())
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "<p>First paragraph.</p>")
	assert.Contains(t, body, "<p>Second paragraph.</p>")
	assert.Contains(t, body, "https://www.youtube.com/watch?v=abc123")
	assert.Contains(t, body, "mqdefault.jpg")
	assert.Contains(t, body, "1.2M views")
	assert.Contains(t, body, "What keeps a planet in orbit?")
	assert.Contains(t, body, `value="advanced" title=`)
}

func TestIndex_EmptyFormDoesNotSubmit(t *testing.T) {
	s := newTestServer(t, stubTranscripts{})
	w := s.do(t, http.MethodPost, "/", "query=++", "application/x-www-form-urlencoded", nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Zero(t, s.explainer.count())
}

func TestCORS_AllowsFrontendOrigin(t *testing.T) {
	s := newTestServer(t, stubTranscripts{})
	req := httptest.NewRequest(http.MethodOptions, "/api/ask", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}

package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"strings"
	"sync/atomic"
	"testing"
	"unicode/utf8"

	"quicklearn/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscord_ReportPostsEmbed(t *testing.T) {
	var (
		mu       sync.Mutex
		received []WebhookPayload
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var p WebhookPayload
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&p))
		mu.Lock()
		received = append(received, p)
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	d := NewDiscord(srv.URL, logger.NewNop())
	require.True(t, d.Enabled())

	d.Report(context.Background(), "Explanation failed", errors.New("model unavailable"), map[string]string{"style": "short", "path": "/api/ask"})
	d.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received, 1)
	require.Len(t, received[0].Embeds, 1)
	embed := received[0].Embeds[0]
	assert.Contains(t, embed.Title, "Explanation failed")
	assert.Contains(t, embed.Description, "model unavailable")
	assert.Equal(t, colorError, embed.Color)
	require.Len(t, embed.Fields, 2)
	assert.Equal(t, "path", embed.Fields[0].Name)
	assert.Equal(t, "style", embed.Fields[1].Name)
}

func TestDiscord_SendReportsHTTPFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad webhook", http.StatusNotFound)
	}))
	defer srv.Close()

	err := NewDiscord(srv.URL, logger.NewNop()).Send(context.Background(), Embed{Title: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestDiscord_DisabledIsNoop(t *testing.T) {
	d := NewDiscord("", logger.NewNop())
	assert.False(t, d.Enabled())
	d.Report(context.Background(), "ignored", errors.New("x"), nil)
	d.Wait()

	var nilDiscord *Discord
	assert.False(t, nilDiscord.Enabled())
	nilDiscord.Wait()
}

func TestDiscord_ReportOutlivesCallerContext(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	d := NewDiscord(srv.URL, logger.NewNop())
	d.Report(ctx, "Submission failed", errors.New("boom"), nil)
	cancel()
	d.Wait()

	assert.EqualValues(t, 1, hits.Load())
}

func TestTruncate_KeepsRunesWhole(t *testing.T) {
	short := "kurz"
	assert.Equal(t, short, truncate(short))

	// 999 ASCII bytes followed by a 3-byte rune straddles the limit.
	s := strings.Repeat("a", maxFieldLen-1) + strings.Repeat("€", 10)
	out := truncate(s)
	assert.True(t, utf8.ValidString(out))
	assert.Equal(t, strings.Repeat("a", maxFieldLen-1)+"...", out)

	multi := strings.Repeat("日本語", 500)
	out = truncate(multi)
	assert.True(t, utf8.ValidString(out))
	assert.LessOrEqual(t, len(out), maxFieldLen+len("..."))
}

func TestNewDiscord_NilLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		d := NewDiscord("", nil)
		assert.False(t, d.Enabled())
	})
}

package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"quicklearn/internal/logger"
	"quicklearn/internal/models"
)

const defaultWatchBaseURL = "https://www.youtube.com"

var (
	reVideoID       = regexp.MustCompile(`(?:youtube\.com\/(?:[^\/]+\/.+\/|(?:v|e(?:mbed)?)\/|.*[?&]v=)|youtu\.be\/)([^"&?\/\s]{11})`)
	reBareVideoID   = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
	reTranscriptXML = regexp.MustCompile(`<text start="([^"]*)" dur="([^"]*)">([^<]*)<\/text>`)
	rePageTitle     = regexp.MustCompile(`<title>(.+?) - YouTube</title>`)
)

var (
	// ErrInvalidVideoID is returned for input that is neither an id nor a watch URL.
	ErrInvalidVideoID = errors.New("invalid YouTube URL or video ID")
	// ErrNoCaptions is returned when the video page exposes no caption track.
	ErrNoCaptions = errors.New("no captions available")
)

// Transcripts scrapes caption tracks from the public watch page.
type Transcripts struct {
	httpClient *http.Client
	baseURL    string
	log        *logger.Logger
}

// NewTranscripts creates a transcript fetcher. A nil httpClient gets a
// client with a 15 second timeout.
func NewTranscripts(httpClient *http.Client, log *logger.Logger) *Transcripts {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Transcripts{httpClient: httpClient, baseURL: defaultWatchBaseURL, log: log.With("component", "transcripts")}
}

// Fetch returns the transcript of a video as a single string. lang selects a
// caption track by language code; empty picks the first track.
func (t *Transcripts) Fetch(ctx context.Context, idOrURL, lang string) (*models.TranscriptResponse, error) {
	videoID, err := VideoID(idOrURL)
	if err != nil {
		return nil, err
	}

	page, err := t.get(ctx, t.baseURL+"/watch?v="+videoID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch video page: %w", err)
	}

	var title string
	if m := rePageTitle.FindSubmatch(page); len(m) > 1 {
		title = html.UnescapeString(string(m[1]))
	}

	trackURL, trackLang, err := t.pickTrack(videoID, string(page), lang)
	if err != nil {
		return nil, err
	}

	body, err := t.get(ctx, trackURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch transcript: %w", err)
	}

	var text strings.Builder
	for _, m := range reTranscriptXML.FindAllStringSubmatch(string(body), -1) {
		if text.Len() > 0 {
			text.WriteString(" ")
		}
		text.WriteString(html.UnescapeString(m[3]))
	}

	return &models.TranscriptResponse{
		VideoID: videoID,
		Title:   title,
		Lang:    trackLang,
		Text:    text.String(),
	}, nil
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
}

func (t *Transcripts) pickTrack(videoID, page, lang string) (string, string, error) {
	parts := strings.SplitN(page, `"captions":`, 2)
	if len(parts) < 2 {
		t.log.Debug("captions marker missing from watch page", "video_id", videoID)
		return "", "", fmt.Errorf("%w for video %s", ErrNoCaptions, videoID)
	}
	end := strings.Index(parts[1], `,"videoDetails`)
	if end < 0 {
		return "", "", fmt.Errorf("%w for video %s", ErrNoCaptions, videoID)
	}

	var captions struct {
		PlayerCaptionsTracklistRenderer struct {
			CaptionTracks []captionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	}
	if err := json.Unmarshal([]byte(parts[1][:end]), &captions); err != nil {
		return "", "", fmt.Errorf("failed to parse captions data: %w", err)
	}

	tracks := captions.PlayerCaptionsTracklistRenderer.CaptionTracks
	if len(tracks) == 0 {
		return "", "", fmt.Errorf("%w for video %s", ErrNoCaptions, videoID)
	}
	if lang == "" {
		return tracks[0].BaseURL, tracks[0].LanguageCode, nil
	}
	for _, track := range tracks {
		if track.LanguageCode == lang {
			return track.BaseURL, track.LanguageCode, nil
		}
	}
	return "", "", fmt.Errorf("%w in language %s", ErrNoCaptions, lang)
}

func (t *Transcripts) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// VideoID extracts the 11 character video id from an id or a watch/share URL.
func VideoID(idOrURL string) (string, error) {
	idOrURL = strings.TrimSpace(idOrURL)
	if reBareVideoID.MatchString(idOrURL) {
		return idOrURL, nil
	}
	if m := reVideoID.FindStringSubmatch(idOrURL); m != nil {
		return m[1], nil
	}
	return "", ErrInvalidVideoID
}

package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"sync"
	"time"
	"unicode/utf8"

	"quicklearn/internal/logger"
)

const (
	botUsername = "QuickLearn Notifier"
	colorError  = 0xFF0000
	maxFieldLen = 1000
)

// Discord embed structures (subset of the webhook API)
type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type Embed struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	Timestamp   string       `json:"timestamp,omitempty"`
	Color       int          `json:"color,omitempty"`
	Fields      []EmbedField `json:"fields,omitempty"`
}

// WebhookPayload is the structure Discord expects for webhook requests with embeds
type WebhookPayload struct {
	Username string  `json:"username,omitempty"`
	Embeds   []Embed `json:"embeds"`
}

// Discord posts error embeds to a webhook. A Discord with an empty URL is
// a no-op, so callers never need to nil-check.
type Discord struct {
	webhookURL string
	client     *http.Client
	log        *logger.Logger
	wg         sync.WaitGroup
}

func NewDiscord(webhookURL string, log *logger.Logger) *Discord {
	if log == nil {
		log = logger.NewNop()
	}
	return &Discord{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 5 * time.Second},
		log:        log.With("component", "discord"),
	}
}

// Enabled reports whether a webhook URL is configured.
func (d *Discord) Enabled() bool {
	return d != nil && d.webhookURL != ""
}

// Report sends an error embed in the background. The send is detached from
// ctx's cancellation, so a request context can be passed safely.
func (d *Discord) Report(ctx context.Context, title string, err error, fields map[string]string) {
	if !d.Enabled() {
		return
	}

	embed := Embed{
		Title:       fmt.Sprintf("🚨 %s", title),
		Description: fmt.Sprintf("**Error Details:**\n```%s```", truncate(err.Error())),
		Color:       colorError,
		Timestamp:   time.Now().Format(time.RFC3339),
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		embed.Fields = append(embed.Fields, EmbedField{Name: k, Value: truncate(fields[k]), Inline: true})
	}

	ctx = context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := d.Send(ctx, embed); err != nil {
			d.log.Error("failed to send discord notification", "error", err)
		}
	}()
}

// Send posts a single embed synchronously.
func (d *Discord) Send(ctx context.Context, embed Embed) error {
	payload, err := json.Marshal(WebhookPayload{Username: botUsername, Embeds: []Embed{embed}})
	if err != nil {
		return fmt.Errorf("failed to marshal discord payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create discord request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send discord notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("discord notification failed with status %d: %s", resp.StatusCode, string(body))
	}
	d.log.Debug("sent discord notification", "title", embed.Title)
	return nil
}

// Wait blocks until background sends have finished.
func (d *Discord) Wait() {
	if d != nil {
		d.wg.Wait()
	}
}

// truncate cuts s to at most maxFieldLen bytes on a rune boundary.
func truncate(s string) string {
	if len(s) <= maxFieldLen {
		return s
	}
	cut := maxFieldLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

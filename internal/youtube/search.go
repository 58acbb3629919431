package youtube

import (
	"context"
	"errors"
	"fmt"

	"quicklearn/internal/models"

	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"
)

// DefaultMaxResults is the number of videos requested per search
const DefaultMaxResults = 4

// Client searches videos and fetches their statistics through the
// YouTube Data API v3.
type Client struct {
	service    *yt.Service
	maxResults int64
}

// NewClient creates a Data API client. Extra options (endpoint, HTTP client)
// are appended after the API key.
func NewClient(ctx context.Context, apiKey string, maxResults int64, opts ...option.ClientOption) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("youtube API key is required")
	}
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	svc, err := yt.NewService(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}
	return &Client{service: svc, maxResults: maxResults}, nil
}

// Search runs a keyword search and returns the video results in ranking order.
// Items without a video id are skipped.
func (c *Client) Search(ctx context.Context, query string) ([]models.Video, error) {
	resp, err := c.service.Search.List([]string{"snippet"}).
		Q(query).
		Type("video").
		MaxResults(c.maxResults).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("youtube search failed: %w", err)
	}

	videos := make([]models.Video, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Id == nil || item.Id.VideoId == "" {
			continue
		}
		v := models.Video{ID: item.Id.VideoId}
		if item.Snippet != nil {
			v.Title = item.Snippet.Title
			if th := item.Snippet.Thumbnails; th != nil && th.Default != nil {
				v.ThumbnailURL = th.Default.Url
			}
		}
		videos = append(videos, v)
	}
	return videos, nil
}

// Statistics fetches engagement counters for all ids in one request and
// returns them keyed by video id. An empty id list makes no request.
func (c *Client) Statistics(ctx context.Context, ids []string) (map[string]models.VideoStats, error) {
	stats := make(map[string]models.VideoStats, len(ids))
	if len(ids) == 0 {
		return stats, nil
	}

	resp, err := c.service.Videos.List([]string{"statistics"}).
		Id(ids...).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("youtube statistics failed: %w", err)
	}

	for _, item := range resp.Items {
		if item.Statistics == nil {
			continue
		}
		stats[item.Id] = models.VideoStats{
			ViewCount:     item.Statistics.ViewCount,
			LikeCount:     item.Statistics.LikeCount,
			CommentCount:  item.Statistics.CommentCount,
			FavoriteCount: item.Statistics.FavoriteCount,
		}
	}
	return stats, nil
}

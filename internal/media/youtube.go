// Package media looks up source video metadata through the YouTube Data API.
package media

import (
	"context"
	"fmt"
	"regexp"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/jonathan/shorts-planner/internal/brief"
)

var videoIDPattern = regexp.MustCompile(`(?:v=|/shorts/|/)([0-9A-Za-z_-]{11})`)

// ExtractVideoID pulls the 11-character video ID out of a YouTube watch or
// shorts URL. Returns an empty string when the URL carries no ID.
func ExtractVideoID(url string) string {
	m := videoIDPattern.FindStringSubmatch(url)
	if m == nil {
		return ""
	}
	return m[1]
}

// Lookup is the inbound SourceMedia collaborator. Field presence (id, title,
// description, channel) is the only contract the pipeline relies on.
type Lookup struct {
	svc *youtube.Service
}

// NewLookup creates a YouTube Data API client authenticated with an API key.
func NewLookup(ctx context.Context, apiKey string) (*Lookup, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("YouTube API key is required")
	}
	svc, err := youtube.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube client: %w", err)
	}
	return &Lookup{svc: svc}, nil
}

// LookupVideo fetches snippet and statistics for one video ID.
func (l *Lookup) LookupVideo(ctx context.Context, id string) (*brief.SourceMedia, error) {
	resp, err := l.svc.Videos.List([]string{"snippet", "statistics"}).Id(id).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("video lookup failed: %w", err)
	}
	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("no video found for id %s", id)
	}

	item := resp.Items[0]
	m := &brief.SourceMedia{
		ID:          id,
		Title:       item.Snippet.Title,
		Description: item.Snippet.Description,
		Channel:     item.Snippet.ChannelTitle,
	}
	if item.Statistics != nil {
		m.Views = item.Statistics.ViewCount
	}
	return m, nil
}

// Search returns up to max candidate videos for a free-text query, in the
// API's order. Ranking candidates by views or recency is a caller concern.
func (l *Lookup) Search(ctx context.Context, query string, max int64) ([]brief.SourceMedia, error) {
	resp, err := l.svc.Search.List([]string{"snippet"}).Q(query).Type("video").MaxResults(max).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("video search failed: %w", err)
	}

	out := make([]brief.SourceMedia, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Id == nil || item.Id.VideoId == "" {
			continue
		}
		out = append(out, brief.SourceMedia{
			ID:          item.Id.VideoId,
			Title:       item.Snippet.Title,
			Description: item.Snippet.Description,
			Channel:     item.Snippet.ChannelTitle,
		})
	}
	return out, nil
}

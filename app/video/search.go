package video

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"bili-notes/app/cfg"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 10

	searchTimeout = 10 * time.Second
)

// searchResponse mirrors the upstream search API envelope. Only the fields
// the gateway maps onto Video are decoded.
type searchResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Result []searchEntry `json:"result"`
	} `json:"data"`
}

type searchEntry struct {
	Aid         int64       `json:"aid"`
	Bvid        string      `json:"bvid"`
	Title       string      `json:"title"`
	Author      string      `json:"author"`
	Description string      `json:"description"`
	Duration    string      `json:"duration"`
	Pubdate     int64       `json:"pubdate"`
	Play        json.Number `json:"play"`
	Danmaku     json.Number `json:"danmaku"`
}

type SearchClient struct {
	httpClient *http.Client
	apiBase    string
	cookie     string
	userAgent  string
}

func NewSearchClient(httpClient *http.Client) *SearchClient {
	cfg := cfg.Get()

	return &SearchClient{
		httpClient: httpClient,
		apiBase:    cfg.APIBase,
		cookie:     cfg.SessionCookie,
		userAgent:  cfg.UserAgent,
	}
}

// Run issues one search request for the given keyword and returns the
// cleaned result list. Upstream failures surface as errors with no partial
// results; the gateway never caches.
func (s *SearchClient) Run(ctx context.Context, keyword string) (*SearchResult, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()

	params := url.Values{}
	params.Set("search_type", "video")
	params.Set("keyword", keyword)
	params.Set("page", fmt.Sprintf("%d", DefaultPage))
	params.Set("page_size", fmt.Sprintf("%d", DefaultPageSize))

	requestURL := s.apiBase + "/x/web-interface/search/type?" + params.Encode()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", s.userAgent)
	if s.cookie != "" {
		req.Header.Set("Cookie", s.cookie)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch search results: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var envelope searchResponse
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}

	if envelope.Code != 0 {
		return nil, fmt.Errorf("upstream error: code %d: %s", envelope.Code, envelope.Message)
	}

	videos := make([]Video, 0, len(envelope.Data.Result))
	for _, entry := range envelope.Data.Result {
		videos = append(videos, s.normalizeEntry(entry))
	}

	slog.Debug("Search completed", "keyword", keyword, "count", len(videos))

	return &SearchResult{
		Keyword: keyword,
		Count:   len(videos),
		Videos:  videos,
	}, nil
}

func (s *SearchClient) normalizeEntry(entry searchEntry) Video {
	play, _ := entry.Play.Int64()
	danmaku, _ := entry.Danmaku.Int64()

	v := Video{
		Bvid:        entry.Bvid,
		Aid:         entry.Aid,
		Title:       Sanitize(entry.Title),
		Author:      Sanitize(entry.Author),
		Description: Sanitize(entry.Description),
		Duration:    Sanitize(entry.Duration),
		Pubdate:     entry.Pubdate,
		Play:        play,
		Danmaku:     danmaku,
	}

	if v.Bvid == "" {
		v.Bvid = "N/A"
	}
	v.URL = fmt.Sprintf("https://www.bilibili.com/video/%s", v.Bvid)

	return v
}

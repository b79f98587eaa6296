package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"bili-notes/app/cfg"
)

// ErrNoCaption signals that a video has no retrievable captions. It is a
// degraded-input condition for the analysis prompt, not a hard failure.
var ErrNoCaption = errors.New("no caption available")

const captionTimeout = 10 * time.Second

type playerResponse struct {
	Code int `json:"code"`
	Data struct {
		Subtitle struct {
			Subtitles []captionTrack `json:"subtitles"`
		} `json:"subtitle"`
	} `json:"data"`
}

type captionTrack struct {
	Lan         string `json:"lan"`
	SubtitleURL string `json:"subtitle_url"`
}

type captionBody struct {
	Body []struct {
		Content string `json:"content"`
	} `json:"body"`
}

type CaptionClient struct {
	httpClient *http.Client
	apiBase    string
	cookie     string
	userAgent  string
}

func NewCaptionClient(httpClient *http.Client) *CaptionClient {
	cfg := cfg.Get()

	return &CaptionClient{
		httpClient: httpClient,
		apiBase:    cfg.APIBase,
		cookie:     cfg.SessionCookie,
		userAgent:  cfg.UserAgent,
	}
}

// Run attempts one caption lookup for a video identifier. Any transport
// error, non-success status or absent caption data degrades to ErrNoCaption;
// there is no retry.
func (c *CaptionClient) Run(ctx context.Context, bvid string) (string, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, captionTimeout)
	defer cancel()

	infoURL := fmt.Sprintf("%s/x/player/v2?bvid=%s", c.apiBase, bvid)

	data, err := c.fetch(timeoutCtx, infoURL)
	if err != nil {
		slog.Debug("Caption lookup failed", "bvid", bvid, "error", err)
		return "", ErrNoCaption
	}

	var envelope playerResponse
	if err := json.Unmarshal(data, &envelope); err != nil || envelope.Code != 0 {
		slog.Debug("Caption payload unusable", "bvid", bvid, "error", err, "code", envelope.Code)
		return "", ErrNoCaption
	}

	tracks := envelope.Data.Subtitle.Subtitles
	if len(tracks) == 0 {
		return "", ErrNoCaption
	}

	text, err := c.fetchTrack(timeoutCtx, tracks[0])
	if err != nil {
		slog.Debug("Caption track fetch failed", "bvid", bvid, "lan", tracks[0].Lan, "error", err)
		return "", ErrNoCaption
	}

	return text, nil
}

func (c *CaptionClient) fetchTrack(ctx context.Context, track captionTrack) (string, error) {
	trackURL := track.SubtitleURL
	if strings.HasPrefix(trackURL, "//") {
		trackURL = "https:" + trackURL
	}
	if trackURL == "" {
		return "", fmt.Errorf("track has no URL")
	}

	data, err := c.fetch(ctx, trackURL)
	if err != nil {
		return "", err
	}

	var body captionBody
	if err := json.Unmarshal(data, &body); err != nil {
		return "", fmt.Errorf("failed to parse caption body: %w", err)
	}

	if len(body.Body) == 0 {
		return "", fmt.Errorf("caption body is empty")
	}

	var builder strings.Builder
	for i, line := range body.Body {
		builder.WriteString(line.Content)
		if i < len(body.Body)-1 {
			builder.WriteString("\n")
		}
	}

	return builder.String(), nil
}

func (c *CaptionClient) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	if c.cookie != "" {
		req.Header.Set("Cookie", c.cookie)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	return io.ReadAll(resp.Body)
}

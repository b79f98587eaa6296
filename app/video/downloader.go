package video

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"bili-notes/app/cfg"
)

const playinfoMarker = "window.__playinfo__="

// playinfo is the subset of the player payload embedded in the video page
// that carries direct media URLs.
type playinfo struct {
	Data struct {
		Dash struct {
			Audio []struct {
				BaseURL string `json:"baseUrl"`
			} `json:"audio"`
			Video []struct {
				BaseURL string `json:"baseUrl"`
			} `json:"video"`
		} `json:"dash"`
	} `json:"data"`
}

// DownloadedMedia reports where one video's media streams were saved.
type DownloadedMedia struct {
	Title     string `json:"title"`
	AudioFile string `json:"audio_file"`
	VideoFile string `json:"video_file"`
}

type Downloader struct {
	httpClient *http.Client
	mediaDir   string
	cookie     string
	userAgent  string
}

func NewDownloader(httpClient *http.Client) *Downloader {
	cfg := cfg.Get()

	return &Downloader{
		httpClient: httpClient,
		mediaDir:   cfg.MediaDir,
		cookie:     cfg.SessionCookie,
		userAgent:  cfg.UserAgent,
	}
}

// Run downloads the audio and video streams for one video page URL into the
// media directory. This is a utility path unrelated to the analysis pipeline.
func (d *Downloader) Run(ctx context.Context, pageURL string) (*DownloadedMedia, error) {
	html, err := d.fetch(ctx, pageURL, pageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch video page: %w", err)
	}

	title, audioURL, videoURL, err := extractPlayinfo(html)
	if err != nil {
		return nil, fmt.Errorf("failed to extract media info: %w", err)
	}

	if err := os.MkdirAll(d.mediaDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media directory: %w", err)
	}

	name := sanitizeFilename(title)
	audioFile := filepath.Join(d.mediaDir, name+".mp3")
	videoFile := filepath.Join(d.mediaDir, name+".mp4")

	if err := d.save(ctx, audioURL, pageURL, audioFile); err != nil {
		return nil, fmt.Errorf("failed to save audio stream: %w", err)
	}
	if err := d.save(ctx, videoURL, pageURL, videoFile); err != nil {
		return nil, fmt.Errorf("failed to save video stream: %w", err)
	}

	slog.Info("Media downloaded", "title", title, "audio", audioFile, "video", videoFile)

	return &DownloadedMedia{
		Title:     title,
		AudioFile: audioFile,
		VideoFile: videoFile,
	}, nil
}

func (d *Downloader) fetch(ctx context.Context, url, referer string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", d.userAgent)
	req.Header.Set("Referer", referer)
	if d.cookie != "" {
		req.Header.Set("Cookie", d.cookie)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	return io.ReadAll(resp.Body)
}

func (d *Downloader) save(ctx context.Context, url, referer, path string) error {
	data, err := d.fetch(ctx, url, referer)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}

// extractPlayinfo pulls the page title and the first dash audio/video URLs
// out of the embedded player script.
func extractPlayinfo(html []byte) (title, audioURL, videoURL string, err error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(html)))
	if err != nil {
		return "", "", "", fmt.Errorf("failed to parse page: %w", err)
	}

	title = strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = "untitled"
	}

	var raw string
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := s.Text()
		if idx := strings.Index(text, playinfoMarker); idx != -1 {
			raw = text[idx+len(playinfoMarker):]
			return false
		}
		return true
	})

	if raw == "" {
		return "", "", "", fmt.Errorf("playinfo script not found in page")
	}

	// Decoder tolerates trailing script content after the JSON object.
	var info playinfo
	if err := json.NewDecoder(strings.NewReader(raw)).Decode(&info); err != nil {
		return "", "", "", fmt.Errorf("failed to parse playinfo: %w", err)
	}

	if len(info.Data.Dash.Audio) == 0 || len(info.Data.Dash.Video) == 0 {
		return "", "", "", fmt.Errorf("no dash streams in playinfo")
	}

	return title, info.Data.Dash.Audio[0].BaseURL, info.Data.Dash.Video[0].BaseURL, nil
}

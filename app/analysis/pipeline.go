package analysis

import (
	"context"
	"errors"
	"log/slog"

	"bili-notes/app/video"
)

// Pipeline runs the per-video analysis chain: caption lookup (best effort),
// prompt construction, text generation, note rendering.
type Pipeline struct {
	captions *CaptionClient
	client   *Client
	prompts  *PromptStore
	renderer *Renderer
}

func NewPipeline(captions *CaptionClient, client *Client, prompts *PromptStore, renderer *Renderer) *Pipeline {
	return &Pipeline{
		captions: captions,
		client:   client,
		prompts:  prompts,
		renderer: renderer,
	}
}

// Run analyzes one video and writes its note. A missing caption only
// degrades the prompt; generation and rendering failures are returned to the
// caller, who decides whether to record or propagate them.
func (p *Pipeline) Run(ctx context.Context, v video.Video, analysisType string) (string, string, error) {
	caption, err := p.captions.Run(ctx, v.Bvid)
	if err != nil {
		if !errors.Is(err, ErrNoCaption) {
			slog.Warn("Unexpected caption error", "bvid", v.Bvid, "error", err)
		}
		caption = ""
	}

	system, prompt := p.prompts.Build(analysisType, v, caption)

	text, err := p.client.Run(ctx, system, prompt)
	if err != nil {
		return "", "", err
	}

	filename, path, err := p.renderer.Run(v, text)
	if err != nil {
		return "", "", err
	}

	slog.Info("Video analyzed", "bvid", v.Bvid, "analysis_type", analysisType, "file", filename, "captioned", caption != "")

	return filename, path, nil
}

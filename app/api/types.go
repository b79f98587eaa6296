package api

import (
	"context"

	"bili-notes/app/analysis"
	"bili-notes/app/knowledge"
	"bili-notes/app/tasks"
	"bili-notes/app/video"
)

type SearchInterface interface {
	Run(ctx context.Context, keyword string) (*video.SearchResult, error)
}

var _ SearchInterface = (*video.SearchClient)(nil)

type ExporterInterface interface {
	Run(videos []video.Video, keyword string, dir string) (string, error)
}

var _ ExporterInterface = (*video.Exporter)(nil)

type DownloaderInterface interface {
	Run(ctx context.Context, pageURL string) (*video.DownloadedMedia, error)
}

var _ DownloaderInterface = (*video.Downloader)(nil)

type PipelineInterface interface {
	Run(ctx context.Context, v video.Video, analysisType string) (string, string, error)
}

var _ PipelineInterface = (*analysis.Pipeline)(nil)

type Handler struct {
	search     SearchInterface
	exporter   ExporterInterface
	downloader DownloaderInterface
	pipeline   PipelineInterface
	renderer   *analysis.Renderer
	tracker    *tasks.Tracker
	scheduler  tasks.TaskSchedulerInterface
	store      *knowledge.Store
}

// Request/response shapes for the HTTP surface.

type ExportRequest struct {
	Videos   []video.Video `json:"videos"`
	Keyword  string        `json:"keyword"`
	Filepath string        `json:"filepath"`
}

type DownloadRequest struct {
	Videos []video.Video `json:"videos"`
}

type AnalysisRequest struct {
	Videos       []video.Video `json:"videos"`
	AnalysisType string        `json:"analysis_type"`
}

type SaveKnowledgeRequest struct {
	Bvid            string `json:"bvid"`
	MarkdownContent string `json:"markdown_content"`
	Title           string `json:"title"`
	Author          string `json:"author"`
	AnalysisType    string `json:"analysis_type"`
}

type AnalysisResponse struct {
	Status  string             `json:"status"`
	TaskID  string             `json:"task_id,omitempty"`
	Message string             `json:"message"`
	Results []tasks.ItemResult `json:"results,omitempty"`
}

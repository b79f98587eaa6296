package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"bili-notes/app/analysis"
	"bili-notes/app/cfg"
	"bili-notes/app/knowledge"
	"bili-notes/app/tasks"
	"bili-notes/app/video"
)

func NewHandler(search SearchInterface, exporter ExporterInterface, downloader DownloaderInterface,
	pipeline PipelineInterface, renderer *analysis.Renderer, tracker *tasks.Tracker,
	scheduler tasks.TaskSchedulerInterface, store *knowledge.Store) *Handler {
	return &Handler{
		search:     search,
		exporter:   exporter,
		downloader: downloader,
		pipeline:   pipeline,
		renderer:   renderer,
		tracker:    tracker,
		scheduler:  scheduler,
		store:      store,
	}
}

func (h *Handler) GetSearch(c *gin.Context) {
	keyword := c.Param("keyword")
	if keyword == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing keyword parameter"})
		return
	}

	result, err := h.search.Run(c.Request.Context(), keyword)
	if err != nil {
		slog.Error("Search failed", "keyword", keyword, "error", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "No video data retrieved"})
		return
	}

	if result.Count == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "No video data retrieved"})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) ExportExcel(c *gin.Context) {
	var req ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	path, err := h.exporter.Run(req.Videos, req.Keyword, req.Filepath)
	if err != nil {
		slog.Error("Excel export failed", "keyword", req.Keyword, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export spreadsheet", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Search results exported",
		"filename": path,
	})
}

func (h *Handler) DownloadVideos(c *gin.Context) {
	var req DownloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	downloaded := make([]video.DownloadedMedia, 0, len(req.Videos))
	failures := make([]gin.H, 0)

	for _, v := range req.Videos {
		media, err := h.downloader.Run(c.Request.Context(), v.URL)
		if err != nil {
			slog.Error("Media download failed", "bvid", v.Bvid, "url", v.URL, "error", err)
			failures = append(failures, gin.H{"bvid": v.Bvid, "error": err.Error()})
			continue
		}
		downloaded = append(downloaded, *media)
	}

	c.JSON(http.StatusOK, gin.H{
		"downloaded": downloaded,
		"failures":   failures,
	})
}

func (h *Handler) AnalyzeBatch(c *gin.Context) {
	var req AnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	analysisType := req.AnalysisType
	if analysisType == "" {
		analysisType = "summary"
	}

	taskID, err := h.tracker.Create(req.Videos, analysisType)
	if err != nil {
		if errors.Is(err, tasks.ErrEmptyBatch) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Video list must not be empty"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create task", "details": err.Error()})
		return
	}

	task := tasks.NewAnalyzeBatchTask(taskID, req.Videos, analysisType,
		h.pipeline, h.tracker, newItemLimiter())
	if err := h.scheduler.EnqueueTask(task); err != nil {
		slog.Error("Error enqueueing analyze task", "task_id", taskID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to enqueue analyze task",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, AnalysisResponse{
		Status:  string(tasks.StatusStarted),
		TaskID:  taskID,
		Message: "Analysis started for " + itemCount(len(req.Videos)),
	})
}

func (h *Handler) GetTask(c *gin.Context) {
	taskID := c.Param("id")

	task, err := h.tracker.Get(taskID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return
	}

	c.JSON(http.StatusOK, task)
}

func (h *Handler) AnalyzeSingle(c *gin.Context) {
	var v video.Video
	if err := c.ShouldBindJSON(&v); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	analysisType := c.DefaultQuery("analysis_type", "summary")

	result := tasks.ItemResult{
		Bvid:         v.Bvid,
		Title:        v.Title,
		AnalysisType: analysisType,
	}

	filename, path, err := h.pipeline.Run(c.Request.Context(), v, analysisType)
	if err != nil {
		result.Status = tasks.ResultError
		result.Error = err.Error()
	} else {
		result.Status = tasks.ResultSuccess
		result.MarkdownFile = filename
		result.FilePath = path
	}

	c.JSON(http.StatusOK, AnalysisResponse{
		Status:  string(tasks.StatusCompleted),
		Message: "Single video analysis completed",
		Results: []tasks.ItemResult{result},
	})
}

func (h *Handler) GetMarkdown(c *gin.Context) {
	bvid := c.Param("bvid")

	note, err := h.renderer.Latest(bvid)
	if err != nil {
		if errors.Is(err, analysis.ErrNoDocument) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No markdown document found"})
			return
		}
		slog.Error("Markdown lookup failed", "bvid", bvid, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read markdown document"})
		return
	}

	c.JSON(http.StatusOK, note)
}

func (h *Handler) ListDocuments(c *gin.Context) {
	documents, err := h.renderer.ListDocuments()
	if err != nil {
		slog.Error("Document listing failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list documents"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"documents": documents})
}

func (h *Handler) ListKnowledge(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.List())
}

func (h *Handler) SaveKnowledge(c *gin.Context) {
	var req SaveKnowledgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	item := h.store.Save(req.Bvid, req.MarkdownContent, req.Title, req.Author, req.AnalysisType)

	c.JSON(http.StatusOK, gin.H{
		"message":      "Knowledge item saved",
		"knowledge_id": item.ID,
		"item":         item,
	})
}

func (h *Handler) ToggleFavorite(c *gin.Context) {
	id := c.Param("id")

	isFavorite, err := h.store.ToggleFavorite(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Knowledge item not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "Favorite flag updated",
		"is_favorite": isFavorite,
	})
}

func (h *Handler) DeleteKnowledge(c *gin.Context) {
	id := c.Param("id")

	item, err := h.store.Delete(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Knowledge item not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "Knowledge item deleted",
		"deleted_item": item,
	})
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"status":          "ok",
		"timestamp":       time.Now().In(time.Local).Format(time.RFC3339),
		"tasks":           h.tracker.Count(),
		"knowledge_items": h.store.Count(),
	}

	if documents, err := h.renderer.ListDocuments(); err == nil {
		health["documents"] = len(documents)
	}

	c.JSON(http.StatusOK, health)
}

// newItemLimiter builds the inter-item throttle for one batch from the
// configured analysis interval.
func newItemLimiter() *rate.Limiter {
	interval := cfg.Get().AnalysisInterval
	if interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(time.Duration(interval)*time.Second), 1)
}

func itemCount(n int) string {
	if n == 1 {
		return "1 video"
	}
	return fmt.Sprintf("%d videos", n)
}

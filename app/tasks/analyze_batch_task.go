package tasks

import (
	"context"
	"log/slog"

	"golang.org/x/time/rate"

	"bili-notes/app/video"
)

// AnalyzeBatchTask drives the analysis pipeline over one submitted batch,
// strictly in input order. The limiter throttles items to respect upstream
// rate limits; it is the configurable replacement for a flat inter-item
// sleep.
type AnalyzeBatchTask struct {
	Task
	videos       []video.Video
	analysisType string
	pipeline     PipelineInterface
	tracker      *Tracker
	limiter      *rate.Limiter
}

func NewAnalyzeBatchTask(taskID string, videos []video.Video, analysisType string,
	pipeline PipelineInterface, tracker *Tracker, limiter *rate.Limiter) *AnalyzeBatchTask {
	return &AnalyzeBatchTask{
		Task:         NewTask(TaskTypeAnalyzeBatch, taskID),
		videos:       videos,
		analysisType: analysisType,
		pipeline:     pipeline,
		tracker:      tracker,
		limiter:      limiter,
	}
}

// Execute analyzes every video in the batch. Per-item failures are recorded
// as error results and never abort the remaining items; the task itself has
// no failed state.
func (t *AnalyzeBatchTask) Execute(ctx context.Context) error {
	successCount := 0
	errorCount := 0

	for _, v := range t.videos {
		if err := t.limiter.Wait(ctx); err != nil {
			// Shutdown mid-batch: record the remaining items as errors so
			// the task still reaches a terminal state.
			if recordErr := t.tracker.AppendResult(t.ID, ItemResult{
				Bvid:         v.Bvid,
				Title:        v.Title,
				Status:       ResultError,
				AnalysisType: t.analysisType,
				Error:        err.Error(),
			}); recordErr != nil {
				return recordErr
			}
			errorCount++
			continue
		}

		result := t.analyzeOne(ctx, v)
		if result.Status == ResultSuccess {
			successCount++
		} else {
			errorCount++
		}

		if err := t.tracker.AppendResult(t.ID, result); err != nil {
			return err
		}
	}

	slog.Info("Task completed",
		"type", "AnalyzeBatch",
		"id", t.ID,
		"duration", t.GetDuration(),
		"total", len(t.videos),
		"success", successCount,
		"errors", errorCount)

	return nil
}

func (t *AnalyzeBatchTask) analyzeOne(ctx context.Context, v video.Video) ItemResult {
	filename, path, err := t.pipeline.Run(ctx, v, t.analysisType)
	if err != nil {
		return ItemResult{
			Bvid:         v.Bvid,
			Title:        v.Title,
			Status:       ResultError,
			AnalysisType: t.analysisType,
			Error:        err.Error(),
		}
	}

	return ItemResult{
		Bvid:         v.Bvid,
		Title:        v.Title,
		Status:       ResultSuccess,
		MarkdownFile: filename,
		FilePath:     path,
		AnalysisType: t.analysisType,
	}
}

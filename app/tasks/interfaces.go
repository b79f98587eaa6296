package tasks

import (
	"context"

	"bili-notes/app/video"
)

// TaskSchedulerInterface defines the interface for background task
// scheduling. The HTTP layer enqueues batch analysis tasks through it.
// Example usage:
//
//	scheduler := NewScheduler()
//	scheduler.Start()
//	defer scheduler.Stop()
//	scheduler.EnqueueTask(NewAnalyzeBatchTask(...))
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}

// PipelineInterface is the per-video analysis chain the batch task drives:
// caption fetch, text generation, note rendering.
type PipelineInterface interface {
	Run(ctx context.Context, v video.Video, analysisType string) (filename string, path string, err error)
}

package tasks

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"bili-notes/app/video"
)

// stubPipeline counts invocations and fails for bvids listed in failFor.
type stubPipeline struct {
	calls   []string
	failFor map[string]bool
}

func (p *stubPipeline) Run(ctx context.Context, v video.Video, analysisType string) (string, string, error) {
	p.calls = append(p.calls, v.Bvid)
	if p.failFor[v.Bvid] {
		return "", "", errors.New("pipeline blew up")
	}
	return v.Bvid + "_20240101_000000.md", "/notes/" + v.Bvid + ".md", nil
}

func testBatch(n int) []video.Video {
	videos := make([]video.Video, 0, n)
	for i := 0; i < n; i++ {
		videos = append(videos, video.Video{
			Bvid:  fmt.Sprintf("BV%d", i+1),
			Title: fmt.Sprintf("Video %d", i+1),
		})
	}
	return videos
}

func unlimited() *rate.Limiter {
	return rate.NewLimiter(rate.Inf, 1)
}

func TestTracker_Create_EmptyBatch(t *testing.T) {
	tracker := NewTracker()

	if _, err := tracker.Create(nil, "summary"); !errors.Is(err, ErrEmptyBatch) {
		t.Errorf("Expected ErrEmptyBatch, got %v", err)
	}

	if _, err := tracker.Create([]video.Video{}, "summary"); !errors.Is(err, ErrEmptyBatch) {
		t.Errorf("Expected ErrEmptyBatch for empty slice, got %v", err)
	}
}

func TestTracker_Create_InitialState(t *testing.T) {
	tracker := NewTracker()

	taskID, err := tracker.Create(testBatch(3), "summary")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	task, err := tracker.Get(taskID)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if task.Status != StatusStarted {
		t.Errorf("Expected status 'started', got '%s'", task.Status)
	}
	if task.Total != 3 || task.Completed != 0 {
		t.Errorf("Expected 0/3, got %d/%d", task.Completed, task.Total)
	}
	if len(task.Results) != 0 {
		t.Errorf("Expected empty results, got %d", len(task.Results))
	}
}

func TestTracker_Get_NotFound(t *testing.T) {
	tracker := NewTracker()

	if _, err := tracker.Get("task_missing"); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("Expected ErrTaskNotFound, got %v", err)
	}
}

func TestTracker_Create_SameSecondCollision(t *testing.T) {
	tracker := NewTracker()

	first, err := tracker.Create(testBatch(1), "summary")
	if err != nil {
		t.Fatal(err)
	}
	second, err := tracker.Create(testBatch(1), "summary")
	if err != nil {
		t.Fatal(err)
	}

	if first == second {
		t.Errorf("Expected distinct task IDs, both were '%s'", first)
	}
}

func TestTracker_StatusTransitions(t *testing.T) {
	tracker := NewTracker()

	taskID, err := tracker.Create(testBatch(2), "summary")
	if err != nil {
		t.Fatal(err)
	}

	if err := tracker.AppendResult(taskID, ItemResult{Bvid: "BV1", Status: ResultSuccess}); err != nil {
		t.Fatal(err)
	}

	task, _ := tracker.Get(taskID)
	if task.Status != StatusProcessing {
		t.Errorf("Expected 'processing' after first item, got '%s'", task.Status)
	}
	if task.Completed != 1 || task.Progress != "1/2" {
		t.Errorf("Expected progress 1/2, got %d (%s)", task.Completed, task.Progress)
	}

	if err := tracker.AppendResult(taskID, ItemResult{Bvid: "BV2", Status: ResultError}); err != nil {
		t.Fatal(err)
	}

	task, _ = tracker.Get(taskID)
	if task.Status != StatusCompleted {
		t.Errorf("Expected 'completed' after last item, got '%s'", task.Status)
	}
	if task.Completed != task.Total {
		t.Errorf("Expected completed == total, got %d/%d", task.Completed, task.Total)
	}
}

func TestTracker_SnapshotIsolation(t *testing.T) {
	tracker := NewTracker()

	taskID, _ := tracker.Create(testBatch(2), "summary")
	tracker.AppendResult(taskID, ItemResult{Bvid: "BV1", Status: ResultSuccess})

	snapshot, _ := tracker.Get(taskID)
	snapshot.Results[0].Bvid = "mutated"
	snapshot.Status = StatusCompleted

	fresh, _ := tracker.Get(taskID)
	if fresh.Results[0].Bvid != "BV1" {
		t.Error("Snapshot mutation leaked into tracker state")
	}
	if fresh.Status != StatusProcessing {
		t.Errorf("Expected status 'processing', got '%s'", fresh.Status)
	}
}

func TestAnalyzeBatchTask_Execute(t *testing.T) {
	tracker := NewTracker()
	pipeline := &stubPipeline{failFor: map[string]bool{"BV2": true}}

	videos := testBatch(3)
	taskID, err := tracker.Create(videos, "summary")
	if err != nil {
		t.Fatal(err)
	}

	task := NewAnalyzeBatchTask(taskID, videos, "summary", pipeline, tracker, unlimited())
	task.Start()
	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	state, _ := tracker.Get(taskID)
	if state.Status != StatusCompleted {
		t.Errorf("Expected 'completed', got '%s'", state.Status)
	}
	if state.Completed != 3 || state.Total != 3 {
		t.Errorf("Expected 3/3, got %d/%d", state.Completed, state.Total)
	}

	// Results preserve input order even across failures.
	for i, result := range state.Results {
		expected := fmt.Sprintf("BV%d", i+1)
		if result.Bvid != expected {
			t.Errorf("Result %d: expected bvid '%s', got '%s'", i, expected, result.Bvid)
		}
	}

	if state.Results[1].Status != ResultError || state.Results[1].Error == "" {
		t.Errorf("Expected recorded error for BV2, got %+v", state.Results[1])
	}
	if state.Results[0].Status != ResultSuccess || state.Results[0].MarkdownFile == "" {
		t.Errorf("Expected success result for BV1, got %+v", state.Results[0])
	}
}

func TestAnalyzeBatchTask_Execute_Throttled(t *testing.T) {
	tracker := NewTracker()
	pipeline := &stubPipeline{}

	videos := testBatch(3)
	taskID, _ := tracker.Create(videos, "summary")

	// 50ms per item: three items need at least ~100ms after the initial
	// burst token.
	limiter := rate.NewLimiter(rate.Every(50*time.Millisecond), 1)

	task := NewAnalyzeBatchTask(taskID, videos, "summary", pipeline, tracker, limiter)
	started := time.Now()
	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if elapsed := time.Since(started); elapsed < 100*time.Millisecond {
		t.Errorf("Expected throttled execution, finished in %v", elapsed)
	}
}

func TestScheduler_RunsEnqueuedTask(t *testing.T) {
	tracker := NewTracker()
	pipeline := &stubPipeline{}

	videos := testBatch(1)
	taskID, _ := tracker.Create(videos, "summary")

	scheduler := newTestScheduler(1)
	scheduler.Start()
	defer scheduler.Stop()

	task := NewAnalyzeBatchTask(taskID, videos, "summary", pipeline, tracker, unlimited())
	if err := scheduler.EnqueueTask(task); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		state, _ := tracker.Get(taskID)
		if state.Status == StatusCompleted {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}

	t.Fatal("Task did not complete within deadline")
}

func newTestScheduler(workers int) TaskSchedulerInterface {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		workerCount: workers,
		ctx:         ctx,
		cancel:      cancel,
		taskQueue:   make(chan TaskInterface, 10),
	}
}

package tasks

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"bili-notes/app/video"
)

var (
	// ErrEmptyBatch rejects a submission with no videos. It is a client
	// input error, not an upstream condition.
	ErrEmptyBatch = errors.New("video list must not be empty")

	// ErrTaskNotFound signals an unknown task identifier.
	ErrTaskNotFound = errors.New("task not found")
)

type BatchStatus string

const (
	StatusStarted    BatchStatus = "started"
	StatusProcessing BatchStatus = "processing"
	StatusCompleted  BatchStatus = "completed"
)

type ResultStatus string

const (
	ResultSuccess ResultStatus = "success"
	ResultError   ResultStatus = "error"
)

// ItemResult is the outcome of analyzing one video within a batch. Appended
// exactly once, in input order, never mutated afterwards.
type ItemResult struct {
	Bvid         string       `json:"bvid"`
	Title        string       `json:"title"`
	Status       ResultStatus `json:"status"`
	MarkdownFile string       `json:"markdown_file,omitempty"`
	FilePath     string       `json:"file_path,omitempty"`
	AnalysisType string       `json:"analysis_type,omitempty"`
	Error        string       `json:"error,omitempty"`
}

// BatchTask is one submitted group-analysis request and its evolving
// progress. Tasks live for the process lifetime and are never deleted.
type BatchTask struct {
	ID        string       `json:"task_id"`
	Status    BatchStatus  `json:"status"`
	Total     int          `json:"total"`
	Completed int          `json:"completed"`
	Progress  string       `json:"progress"`
	Results   []ItemResult `json:"results"`
	CreatedAt time.Time    `json:"created_at"`
}

// Tracker owns the task-state map. All mutation goes through it under a
// mutex; background workers and HTTP handlers touch tasks concurrently.
type Tracker struct {
	tasks map[string]*BatchTask
	mu    sync.RWMutex
}

func NewTracker() *Tracker {
	return &Tracker{
		tasks: make(map[string]*BatchTask),
	}
}

// Create registers a new batch task for a non-empty video list and returns
// its identifier. Identifiers embed the creation time at second granularity;
// a same-second collision gets a numeric suffix rather than clobbering the
// existing task.
func (tr *Tracker) Create(videos []video.Video, analysisType string) (string, error) {
	if len(videos) == 0 {
		return "", ErrEmptyBatch
	}

	tr.mu.Lock()
	defer tr.mu.Unlock()

	now := time.Now().In(time.Local)
	taskID := fmt.Sprintf("task_%s", now.Format("20060102_150405"))
	for i := 2; ; i++ {
		if _, exists := tr.tasks[taskID]; !exists {
			break
		}
		taskID = fmt.Sprintf("task_%s_%d", now.Format("20060102_150405"), i)
	}

	tr.tasks[taskID] = &BatchTask{
		ID:        taskID,
		Status:    StatusStarted,
		Total:     len(videos),
		Completed: 0,
		Progress:  fmt.Sprintf("0/%d", len(videos)),
		Results:   []ItemResult{},
		CreatedAt: now,
	}

	return taskID, nil
}

// Get returns a point-in-time snapshot of one task.
func (tr *Tracker) Get(taskID string) (*BatchTask, error) {
	tr.mu.RLock()
	defer tr.mu.RUnlock()

	task, ok := tr.tasks[taskID]
	if !ok {
		return nil, ErrTaskNotFound
	}

	return task.snapshot(), nil
}

// AppendResult records one item's outcome and advances progress. The task
// moves to "processing" after every item except the last, which completes it.
func (tr *Tracker) AppendResult(taskID string, result ItemResult) error {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	task, ok := tr.tasks[taskID]
	if !ok {
		return ErrTaskNotFound
	}

	task.Results = append(task.Results, result)
	task.Completed = len(task.Results)
	task.Progress = fmt.Sprintf("%d/%d", task.Completed, task.Total)

	if task.Completed == task.Total {
		task.Status = StatusCompleted
	} else {
		task.Status = StatusProcessing
	}

	return nil
}

// Count reports how many tasks the tracker holds.
func (tr *Tracker) Count() int {
	tr.mu.RLock()
	defer tr.mu.RUnlock()

	return len(tr.tasks)
}

func (t *BatchTask) snapshot() *BatchTask {
	copied := *t
	copied.Results = make([]ItemResult, len(t.Results))
	copy(copied.Results, t.Results)
	return &copied
}

// Package archive implements the end-of-event batch backup: every photo of an
// event is copied into a destination container on the archival tier through a
// concurrency-bounded pipeline with per-photo status tracking.
package archive

import (
	"sync"
	"time"
)

// Status is the archive job state. Initializing -> BackingUp -> terminal;
// terminal jobs are never resumed, only re-created.
type Status string

const (
	StatusInitializing Status = "initializing"
	StatusBackingUp    Status = "backing_up"
	StatusCompleted    Status = "completed"
	StatusFailed       Status = "failed"
)

// PhotoError records a single photo that could not be archived.
type PhotoError struct {
	PhotoID string `json:"photo_id"`
	Error   string `json:"error"`
}

// Job tracks one archival run. All mutation goes through its methods; the
// archiver updates counters after every batch and callers read consistent
// snapshots.
type Job struct {
	mu sync.Mutex

	BackupID          string       `json:"backup_id"`
	EventID           string       `json:"event_id"`
	Status            Status       `json:"status"`
	TotalPhotos       int          `json:"total_photos"`
	ProcessedPhotos   int          `json:"processed_photos"`
	SuccessfulUploads int          `json:"successful_uploads"`
	FailedUploads     int          `json:"failed_uploads"`
	Errors            []PhotoError `json:"errors,omitempty"`
	StartTime         time.Time    `json:"start_time"`
	EndTime           *time.Time   `json:"end_time,omitempty"`
	DestinationID     string       `json:"destination_id,omitempty"`
	DestinationURL    string       `json:"destination_url,omitempty"`
	FailureReason     string       `json:"failure_reason,omitempty"`
}

// NewJob creates a job in the Initializing state.
func NewJob(backupID, eventID string) *Job {
	return &Job{
		BackupID:  backupID,
		EventID:   eventID,
		Status:    StatusInitializing,
		StartTime: time.Now(),
	}
}

// BeginBackup transitions to BackingUp with the destination container set.
func (j *Job) BeginBackup(total int, destID, destURL string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = StatusBackingUp
	j.TotalPhotos = total
	j.DestinationID = destID
	j.DestinationURL = destURL
}

// RecordResult accounts one photo's outcome. Per-photo failures never flip
// the job to Failed.
func (j *Job) RecordResult(photoID string, err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.ProcessedPhotos++
	if err != nil {
		j.FailedUploads++
		j.Errors = append(j.Errors, PhotoError{PhotoID: photoID, Error: err.Error()})
		return
	}
	j.SuccessfulUploads++
}

// Complete marks the job terminal-successful.
func (j *Job) Complete() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = StatusCompleted
	now := time.Now()
	j.EndTime = &now
}

// Fail marks the job terminal-failed with a job-level reason.
func (j *Job) Fail(reason string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = StatusFailed
	j.FailureReason = reason
	now := time.Now()
	j.EndTime = &now
}

// Snapshot returns a copy safe to serialize while the job is still running.
func (j *Job) Snapshot() Job {
	j.mu.Lock()
	defer j.mu.Unlock()
	snap := Job{
		BackupID:          j.BackupID,
		EventID:           j.EventID,
		Status:            j.Status,
		TotalPhotos:       j.TotalPhotos,
		ProcessedPhotos:   j.ProcessedPhotos,
		SuccessfulUploads: j.SuccessfulUploads,
		FailedUploads:     j.FailedUploads,
		StartTime:         j.StartTime,
		DestinationID:     j.DestinationID,
		DestinationURL:    j.DestinationURL,
		FailureReason:     j.FailureReason,
	}
	snap.Errors = append(snap.Errors, j.Errors...)
	if j.EndTime != nil {
		end := *j.EndTime
		snap.EndTime = &end
	}
	return snap
}

// Terminal reports whether the job reached a final state, and when.
func (j *Job) Terminal() (bool, time.Time) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.Status != StatusCompleted && j.Status != StatusFailed {
		return false, time.Time{}
	}
	if j.EndTime == nil {
		return true, j.StartTime
	}
	return true, *j.EndTime
}
